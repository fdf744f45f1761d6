package framer

// CRC kernels shared by the binary and hash protocol machines (the UBX
// Fletcher-8 and the NMEA XOR-8 sums are accumulated inline by their own
// machines). Both tables are process-wide, read-only, and safe to share
// across sessions, matching gnssgo's tbl_CRC24Q (common.go) and its
// hand-rolled Rtk_CRC32: this package's crc32Table is the reflected variant
// (init/final XOR 0xFFFFFFFF) that BT/SEMP, Unicore-bin and Unicore-hash
// need, built with the same polynomial 0xEDB88320 gnssgo's Rtk_CRC32
// already uses bitwise.

const (
	crc32Poly          = 0xEDB88320
	crc32Init   uint32 = 0xFFFFFFFF
	crc32XorOut uint32 = 0xFFFFFFFF
)

var crc32Table [256]uint32

func init() {
	for i := 0; i < 256; i++ {
		crc := uint32(i)
		for j := 0; j < 8; j++ {
			if crc&1 != 0 {
				crc = (crc >> 1) ^ crc32Poly
			} else {
				crc >>= 1
			}
		}
		crc32Table[i] = crc
	}
}

// crc32Update folds one byte into a running reflected-CRC32 accumulator.
// Callers initialize crc to crc32Init and, for BT/SEMP and Unicore-bin,
// XOR the final value with crc32XorOut. The Unicore-hash non-MODE path
// uses this same kernel but starts crc at 0 and never inverts (spec.md §9
// Open Question #2, confirmed against the SEMP reference's
// semp_crc32Table usage).
func crc32Update(crc uint32, b byte) uint32 {
	return crc32Table[byte(crc)^b] ^ (crc >> 8)
}

// crc24qPoly is RTCM3's CRC24Q polynomial, 0x1864CFB.
const crc24qPoly = 0x1864CFB

var crc24qTable [256]uint32

func init() {
	for i := 0; i < 256; i++ {
		crc := uint32(i) << 16
		for j := 0; j < 8; j++ {
			crc <<= 1
			if crc&0x1000000 != 0 {
				crc ^= crc24qPoly
			}
		}
		crc24qTable[i] = crc & 0xFFFFFF
	}
}

// crc24qUpdate folds one byte into a running CRC24Q accumulator, ported
// from gnssgo's Rtk_CRC24q. A correct RTCM3 frame (including its trailing
// 3 CRC bytes) drives this accumulator back to zero.
func crc24qUpdate(crc uint32, b byte) uint32 {
	return ((crc << 8) & 0xFFFFFF) ^ crc24qTable[(crc>>16)^uint32(b)]
}

