package framer

// u-blox UBX binary framing: B5 62, class, id, a little-endian 16-bit
// length, payload, then a two-byte Fletcher-8 checksum over class..payload
// inclusive. Grounded on gnssgo's ublox.go sync_ubx/input_ubx and
// checksum_ublox.
func (s *Session) stepUBX(b byte) {
	switch s.state {
	case stateUbxSync2:
		if b != 0x62 {
			s.retreat(b, "expected second sync byte 0x62")
			return
		}
		s.state = stateUbxClass

	case stateUbxClass:
		u := s.ubx()
		u.ckA += b
		u.ckB += u.ckA
		u.class = b
		s.state = stateUbxID

	case stateUbxID:
		u := s.ubx()
		u.ckA += b
		u.ckB += u.ckA
		u.id = b
		s.state = stateUbxLenLo

	case stateUbxLenLo:
		u := s.ubx()
		u.ckA += b
		u.ckB += u.ckA
		u.bytesRemaining = uint16(b)
		s.state = stateUbxLenHi

	case stateUbxLenHi:
		u := s.ubx()
		u.ckA += b
		u.ckB += u.ckA
		u.bytesRemaining |= uint16(b) << 8
		if s.length+int(u.bytesRemaining)+2 > len(s.buffer) {
			s.retreat(b, "declared payload length exceeded buffer headroom")
			return
		}
		if u.bytesRemaining == 0 {
			s.state = stateUbxCkA
		} else {
			s.state = stateUbxPayload
		}

	case stateUbxPayload:
		u := s.ubx()
		u.ckA += b
		u.ckB += u.ckA
		u.bytesRemaining--
		if u.bytesRemaining == 0 {
			s.state = stateUbxCkA
		}

	case stateUbxCkA:
		s.ubx().receivedCkA = b
		s.state = stateUbxCkB

	case stateUbxCkB:
		u := s.ubx()
		if b == u.ckB && u.receivedCkA == u.ckA {
			s.accept()
		} else {
			s.badCRC()
		}
	}
}

// UBXClassID returns the frame's (class, id) pair.
func (s *Session) UBXClassID() (class, id uint8) {
	s.assertActive(KindUBX)
	return s.scratch.ubx.class, s.scratch.ubx.id
}

// UBXPayload returns the frame's payload, excluding the 6-byte header and
// 2-byte checksum.
func (s *Session) UBXPayload() []byte {
	s.assertActive(KindUBX)
	return s.buffer[6 : s.length-2]
}
