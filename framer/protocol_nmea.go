package framer

// NMEA 0183 ASCII framing: $ or ! lead-in, a sentence name captured up to
// the first comma, a running XOR-8 over every byte between the lead-in and
// the closing *, two ASCII hex checksum digits, then a CR/LF terminator
// that is tolerated rather than required verbatim. Grounded on gnssgo's
// solution.go TestNmea/DecodeNmea, which likewise locates the sentence
// name and the trailing checksum by scanning for ',' and '*'.
func (s *Session) stepNMEA(b byte) {
	switch s.state {
	case stateNmeaFirstComma:
		if b == '*' {
			s.enterNmeaChecksum()
			return
		}
		if b == ',' {
			s.xorUpdate(b)
			s.state = stateNmeaFindAsterisk
			return
		}
		if !isAlnum(b) {
			s.retreat(b, "non-alphanumeric byte in sentence name")
			return
		}
		s.xorUpdate(b)
		nc := s.nmea()
		if nc.sentenceNameLength >= uint8(len(nc.sentenceName)-1) {
			s.retreat(b, "sentence name exceeded 15 characters")
			return
		}
		nc.sentenceName[nc.sentenceNameLength] = b
		nc.sentenceNameLength++

	case stateNmeaFindAsterisk:
		if b == '*' {
			s.enterNmeaChecksum()
			return
		}
		if s.headroomExceeded() {
			s.retreat(b, "declared field exceeded buffer headroom")
			return
		}
		s.xorUpdate(b)

	case stateNmeaChecksum1:
		hi, ok := hexNibble(b)
		if !ok {
			s.retreat(b, "non-hex checksum digit")
			return
		}
		s.nmea().parsedChecksum = hi << 4
		s.state = stateNmeaChecksum2

	case stateNmeaChecksum2:
		lo, ok := hexNibble(b)
		if !ok {
			s.retreat(b, "non-hex checksum digit")
			return
		}
		s.nmea().parsedChecksum |= lo
		s.state = stateNmeaLineTermination

	case stateNmeaLineTermination:
		nc := s.nmea()
		s.length-- // the raw terminator byte is never kept; a canonical CRLF is synthesized below
		if b == '\r' && !nc.sawCR {
			nc.sawCR = true
			return
		}
		s.appendCRLF()
		s.finishNMEA()
		if b != '\n' {
			// The checksum already validated before this byte arrived; it
			// belongs to whatever comes next, not to this sentence.
			s.scanByte(b)
		}
	}
}

func (s *Session) enterNmeaChecksum() {
	s.state = stateNmeaChecksum1
}

func (s *Session) finishNMEA() {
	nc := s.nmea()
	if nc.parsedChecksum == byte(s.crc) {
		s.accept()
	} else {
		s.badCRC()
	}
}

// xorUpdate folds b into the running XOR-8 accumulator, stored in the
// session's shared crc field (NMEA and Unicore-hash's MODE path have no use
// for a wider accumulator).
func (s *Session) xorUpdate(b byte) {
	s.crc = uint32(byte(s.crc) ^ b)
}

func isAlnum(b byte) bool {
	return (b >= 'A' && b <= 'Z') || (b >= 'a' && b <= 'z') || (b >= '0' && b <= '9')
}

// NMEASentence returns the sentence name captured between the lead-in
// character and the first comma (e.g. "GPRMC"), valid only for an NMEA
// frame inside OnMessage/OnBadCRC.
func (s *Session) NMEASentence() string {
	s.assertActive(KindNMEA)
	nc := &s.scratch.nmea
	return string(nc.sentenceName[:nc.sentenceNameLength])
}
