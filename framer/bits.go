package framer

import "encoding/binary"

// u2l reads a little-endian uint16, used by the SEMP and Unicore-bin
// headers (and UBX length field).
func u2l(p []byte) uint16 { return binary.LittleEndian.Uint16(p) }

// u4l reads a little-endian uint32.
func u4l(p []byte) uint32 { return binary.LittleEndian.Uint32(p) }

// hexNibble decodes one ASCII hex digit, used by the NMEA and Unicore-hash
// checksum trailers.
func hexNibble(b byte) (byte, bool) {
	switch {
	case b >= '0' && b <= '9':
		return b - '0', true
	case b >= 'A' && b <= 'F':
		return b - 'A' + 10, true
	case b >= 'a' && b <= 'f':
		return b - 'a' + 10, true
	default:
		return 0, false
	}
}
