package framer

// scratch is the fixed-size, protocol-tagged working area spec.md §3
// describes as a tagged union: exactly one variant is live at a time, keyed
// by the session's active Kind. gnssgo keeps the equivalent working state
// spread across ad hoc fields on its single Raw struct (NumByte, Len, plus
// per-protocol locals recomputed from the buffer each call); this type
// tightens that into one struct per protocol so the compiler, not a
// comment, tells a reader which fields a given state may touch.
//
// Each variant is exposed only through an accessor gated on the session's
// active kind; calling the wrong accessor is a programming error and
// panics rather than silently reading stale data from a different
// protocol's last run.
type scratch struct {
	semp        sempScratch
	nmea        nmeaScratch
	ubx         ubxScratch
	rtcm        rtcmScratch
	unicoreBin  unicoreBinScratch
	unicoreHash unicoreHashScratch
}

type sempScratch struct {
	bytesRemaining uint16
	crcSnapshot    uint32
}

type nmeaScratch struct {
	sentenceName       [16]byte
	sentenceNameLength uint8
	parsedChecksum     byte
	sawCR              bool
}

type ubxScratch struct {
	bytesRemaining uint16
	ckA, ckB       uint8 // running Fletcher-8 accumulator
	receivedCkA    uint8
	class, id      uint8
}

type rtcmScratch struct {
	bytesRemaining uint16 // payload bytes still to consume, counts down
	message        uint16
}

type unicoreBinScratch struct {
	bytesRemaining uint16
	crcSnapshot    uint32
}

type unicoreHashScratch struct {
	xorAcc          byte
	crc32Acc        uint32
	bytesRemaining  uint8 // hex digits of the checksum still to consume
	checksumBytes   uint8 // total checksum width once known: 2 or 8
	sentenceName    [16]byte
	sentenceNameLen uint8
	sawCR           bool
}

func (s *Session) semp() *sempScratch {
	s.assertActive(KindSEMP)
	return &s.scratch.semp
}

func (s *Session) nmea() *nmeaScratch {
	s.assertActive(KindNMEA)
	return &s.scratch.nmea
}

func (s *Session) ubx() *ubxScratch {
	s.assertActive(KindUBX)
	return &s.scratch.ubx
}

func (s *Session) rtcm() *rtcmScratch {
	s.assertActive(KindRTCM3)
	return &s.scratch.rtcm
}

func (s *Session) unicoreBin() *unicoreBinScratch {
	s.assertActive(KindUnicoreBin)
	return &s.scratch.unicoreBin
}

func (s *Session) unicoreHash() *unicoreHashScratch {
	s.assertActive(KindUnicoreHash)
	return &s.scratch.unicoreHash
}

func (s *Session) assertActive(k Kind) {
	if s.activeIndex == NoProtocol || s.registry[s.activeIndex].Kind != k {
		panic("framer: scratch variant read while a different protocol is active")
	}
}
