package framer

import "strings"

// Unicore ASCII hash framing: # lead-in, a sentence name captured up to the
// first comma, a body running both a XOR-8 and a CRC32 accumulator in
// parallel (since which one is authoritative isn't known until the
// sentence name is complete), then either 2 or 8 ASCII hex checksum digits
// and CRLF. MODE sentences use the shorter XOR-8 trailer; everything else
// uses the CRC32 one, uninverted (spec.md §9 Open Question #2, resolved
// against the SEMP reference's semp_parser.c: only the BT/SEMP binary path
// initializes its accumulator to 0xFFFFFFFF and inverts at the end, the
// ASCII hash path does neither). Shaped on gnssgo's NMEA scanning pattern
// in solution.go.
func (s *Session) stepUnicoreHash(b byte) {
	switch s.state {
	case stateUnicoreHashFirstComma:
		if b == '*' {
			s.enterUnicoreHashChecksum()
			return
		}
		hc := s.unicoreHash()
		hc.xorAcc ^= b
		hc.crc32Acc = crc32Update(hc.crc32Acc, b)
		if b == ',' {
			s.state = stateUnicoreHashFindAsterisk
			return
		}
		if !isAlnum(b) {
			s.retreat(b, "non-alphanumeric byte in sentence name")
			return
		}
		if hc.sentenceNameLen < uint8(len(hc.sentenceName)-1) {
			hc.sentenceName[hc.sentenceNameLen] = b
			hc.sentenceNameLen++
		}

	case stateUnicoreHashFindAsterisk:
		if b == '*' {
			s.enterUnicoreHashChecksum()
			return
		}
		if s.headroomExceeded() {
			s.retreat(b, "declared field exceeded buffer headroom")
			return
		}
		hc := s.unicoreHash()
		hc.xorAcc ^= b
		hc.crc32Acc = crc32Update(hc.crc32Acc, b)

	case stateUnicoreHashChecksum:
		nib, ok := hexNibble(b)
		if !ok {
			s.retreat(b, "non-hex checksum digit")
			return
		}
		s.crc = (s.crc << 4) | uint32(nib)
		hc := s.unicoreHash()
		hc.bytesRemaining--
		if hc.bytesRemaining == 0 {
			s.state = stateUnicoreHashLineTermination
		}

	case stateUnicoreHashLineTermination:
		hc := s.unicoreHash()
		s.length-- // the raw terminator byte is never kept; a canonical CRLF is synthesized below
		if b == '\r' && !hc.sawCR {
			hc.sawCR = true
			return
		}
		s.appendCRLF()
		s.finishUnicoreHash()
		if b != '\n' {
			// The checksum already validated before this byte arrived; it
			// belongs to whatever comes next, not to this sentence.
			s.scanByte(b)
		}
	}
}

func (s *Session) finishUnicoreHash() {
	hc := s.unicoreHash()
	var expected uint32
	if hc.checksumBytes == 2 {
		expected = uint32(hc.xorAcc)
	} else {
		expected = hc.crc32Acc
	}
	if expected == s.crc {
		s.accept()
	} else {
		s.badCRC()
	}
}

// enterUnicoreHashChecksum decides the trailer width from the sentence name
// captured so far and starts the hex-digit counter.
func (s *Session) enterUnicoreHashChecksum() {
	hc := s.unicoreHash()
	name := string(hc.sentenceName[:hc.sentenceNameLen])
	if strings.Contains(name, "MODE") {
		hc.checksumBytes = 2
	} else {
		hc.checksumBytes = 8
	}
	hc.bytesRemaining = hc.checksumBytes
	s.crc = 0
	s.state = stateUnicoreHashChecksum
}

// UnicoreHashSentence returns the sentence name captured between '#' and
// the first comma.
func (s *Session) UnicoreHashSentence() string {
	s.assertActive(KindUnicoreHash)
	hc := &s.scratch.unicoreHash
	return string(hc.sentenceName[:hc.sentenceNameLen])
}
