package framer

// stateID is the one-byte transition function to apply next, expressed as
// an enumerated tag rather than a function pointer (spec.md §9 "State as
// data, not function pointers"): each protocol's step function switches
// over its own contiguous block of stateID values, so an invalid
// (protocol, state) pairing cannot be expressed silently.
type stateID int

const (
	stateScanning stateID = iota

	stateSempSync2
	stateSempSync3
	stateSempHeader
	stateSempPayload
	stateSempCRC

	stateNmeaFirstComma
	stateNmeaFindAsterisk
	stateNmeaChecksum1
	stateNmeaChecksum2
	stateNmeaLineTermination

	stateUbxSync2
	stateUbxClass
	stateUbxID
	stateUbxLenLo
	stateUbxLenHi
	stateUbxPayload
	stateUbxCkA
	stateUbxCkB

	stateRtcmLengthHi
	stateRtcmLengthLo
	stateRtcmMessageHi
	stateRtcmMessageLo
	stateRtcmPayload
	stateRtcmCrc1
	stateRtcmCrc2
	stateRtcmCrc3

	stateUnicoreBinSync2
	stateUnicoreBinSync3
	stateUnicoreBinHeader
	stateUnicoreBinPayload
	stateUnicoreBinCRC

	stateUnicoreHashFirstComma
	stateUnicoreHashFindAsterisk
	stateUnicoreHashChecksum
	stateUnicoreHashLineTermination
)

// nmeaHeadroom is the number of trailing bytes (*, two hex digits, \r and
// \n; no NUL is written) the NMEA and Unicore-hash machines reserve when
// checking available buffer space, per spec.md §4.1.
const nmeaHeadroom = 5

// FeedByte consumes exactly one byte, updating all session state and
// firing at most one sink. It never blocks, never allocates, and never
// retains a reference to b beyond this call (spec.md §4.1).
func (s *Session) FeedByte(b byte) {
	if s.activeIndex == NoProtocol {
		s.scanByte(b)
		return
	}
	if s.length >= len(s.buffer) {
		s.errorf("%s: buffer capacity %d exceeded, discarding frame", s.registry[s.activeIndex].Name, len(s.buffer))
		s.stats[s.registry[s.activeIndex].Kind].FramingErrors++
		s.Reset()
		return
	}
	s.buffer[s.length] = b
	s.length++
	s.stats[s.registry[s.activeIndex].Kind].BytesSeen++
	s.step(b)
}

// FeedBuffer is a convenience wrapper equivalent to a loop over FeedByte.
func (s *Session) FeedBuffer(data []byte) {
	for _, b := range data {
		s.FeedByte(b)
	}
}

// scanByte offers b to every registered preamble in configured order,
// stopping at the first one that accepts (spec.md §4.1 "Scanning").
func (s *Session) scanByte(b byte) {
	for i, entry := range s.registry {
		if accept, next := acceptPreamble(entry.Kind, s, b); accept {
			s.buffer[0] = b
			s.length = 1
			s.activeIndex = i
			s.state = next
			s.stats[entry.Kind].BytesSeen++
			return
		}
	}
	s.length = 0
}

// step routes the current byte to the active protocol's transition table.
func (s *Session) step(b byte) {
	switch s.registry[s.activeIndex].Kind {
	case KindSEMP:
		s.stepSEMP(b)
	case KindNMEA:
		s.stepNMEA(b)
	case KindUBX:
		s.stepUBX(b)
	case KindRTCM3:
		s.stepRTCM3(b)
	case KindUnicoreBin:
		s.stepUnicoreBin(b)
	case KindUnicoreHash:
		s.stepUnicoreHash(b)
	}
}

// retreat abandons the in-progress frame on a framing failure and
// re-offers b to the full registry, per spec.md §4.1 "Tie-breaking" and
// §4.8 "any framing failure ... re-offers the current byte".
func (s *Session) retreat(b byte, reason string) {
	s.debugf("%s: %s, resynchronizing", s.registry[s.activeIndex].Name, reason)
	s.stats[s.registry[s.activeIndex].Kind].FramingErrors++
	s.activeIndex = NoProtocol
	s.crc = 0
	s.length = 0
	s.state = stateScanning
	s.scanByte(b)
}

// accept finalizes a successfully validated frame: OnMessage fires and the
// session returns to scanning.
func (s *Session) accept() {
	idx := s.activeIndex
	s.stats[s.registry[idx].Kind].MessagesAccepted++
	s.onMessage(s, idx)
	s.Reset()
}

// badCRC offers a failed integrity check to OnBadCRC; a true return
// upgrades the frame to accepted, otherwise it is logged and discarded.
func (s *Session) badCRC() {
	k := s.registry[s.activeIndex].Kind
	if s.onBadCRC != nil && s.onBadCRC(s) {
		s.stats[k].MessagesAccepted++
		s.onMessage(s, s.activeIndex)
		s.Reset()
		return
	}
	s.stats[k].BadCRC++
	s.debugf("%s: integrity check failed, frame discarded", s.registry[s.activeIndex].Name)
	s.Reset()
}

// headroomExceeded reports whether appending one more byte plus the
// nmeaHeadroom trailer would exceed the buffer, for the NMEA/Unicore-hash
// machines' explicit headroom check (spec.md §4.3 "find_asterisk").
func (s *Session) headroomExceeded() bool {
	return s.length+nmeaHeadroom > len(s.buffer)
}

// appendCRLF writes a canonical "\r\n" terminator onto the buffer in place
// of whatever raw terminator byte(s) actually arrived on the wire, shared
// by the NMEA and Unicore-hash machines. Grounded on the SEMP reference's
// sempNmeaValidateChecksum/sempUnicoreHashValidateChecksum, which both
// unconditionally write buffer[msg_length++] = '\r'; buffer[msg_length++]
// = '\n' (plus a NUL terminator) before firing the end-of-message
// callback, regardless of which terminator bytes the caller actually sent
// (spec.md §4.3 "Design decision": the sink must see a canonical,
// printable sentence on every finish path, not only the CR/LF ones).
func (s *Session) appendCRLF() {
	s.buffer[s.length] = '\r'
	s.buffer[s.length+1] = '\n'
	s.length += 2
}

// acceptPreamble tests b as a candidate preamble for kind k, initializing
// that protocol's running integrity accumulator on acceptance. Grounded on
// each protocol's sync_* function in gnssgo (sync_oem4, sync_ubx,
// sync_cres) generalized to a uniform (accept, nextState) signature.
func acceptPreamble(k Kind, s *Session, b byte) (bool, stateID) {
	switch k {
	case KindSEMP:
		if b == 0xAA {
			s.crc = crc32Init
			s.crc = crc32Update(s.crc, 0xAA)
			return true, stateSempSync2
		}
	case KindNMEA:
		if b == '$' || b == '!' {
			s.scratch.nmea = nmeaScratch{}
			s.crc = 0
			return true, stateNmeaFirstComma
		}
	case KindUBX:
		if b == 0xB5 {
			s.scratch.ubx = ubxScratch{}
			return true, stateUbxSync2
		}
	case KindRTCM3:
		if b == 0xD3 {
			s.scratch.rtcm = rtcmScratch{}
			s.crc = crc24qUpdate(0, 0xD3)
			return true, stateRtcmLengthHi
		}
	case KindUnicoreBin:
		if b == 0xAA {
			s.scratch.unicoreBin = unicoreBinScratch{}
			s.crc = crc32Init
			s.crc = crc32Update(s.crc, 0xAA)
			return true, stateUnicoreBinSync2
		}
	case KindUnicoreHash:
		if b == '#' {
			s.scratch.unicoreHash = unicoreHashScratch{}
			return true, stateUnicoreHashFirstComma
		}
	}
	return false, stateScanning
}
