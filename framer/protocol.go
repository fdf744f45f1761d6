// Package framer implements a streaming, multi-protocol message framer for
// serial/radio byte streams carrying mixed GNSS and telemetry traffic.
//
// A Session consumes one byte at a time (FeedByte), identifies the next
// valid frame of whichever protocol is registered, verifies its integrity,
// and hands the completed frame to caller-supplied sinks. It never blocks,
// never allocates on the hot path, and never buffers more than one
// in-flight frame.
package framer

// Kind identifies one of the six protocol state machines this package
// implements. It is independent of registry order: a Registry maps each
// Kind to a caller-chosen tie-break position and diagnostic name.
type Kind int

const (
	// KindSEMP is the OEM-style binary header protocol, sync AA 44 18.
	KindSEMP Kind = iota
	// KindNMEA is NMEA 0183 ASCII sentences, $...*CC\r\n (or !...).
	KindNMEA
	// KindUBX is u-blox UBX binary, B5 62 ... with Fletcher-8 checksum.
	KindUBX
	// KindRTCM3 is RTCM3, D3 + 10-bit length + payload + CRC24Q.
	KindRTCM3
	// KindUnicoreBin is the Unicore binary variant, sync AA 44 12.
	KindUnicoreBin
	// KindUnicoreHash is the Unicore ASCII hash variant, #...*CC.
	KindUnicoreHash
)

// kindCount is the number of known protocol kinds.
const kindCount = int(KindUnicoreHash) + 1

// AllKinds returns every known protocol kind, independent of any Registry.
func AllKinds() []Kind {
	kinds := make([]Kind, kindCount)
	for i := range kinds {
		kinds[i] = Kind(i)
	}
	return kinds
}

// String returns the canonical diagnostic name for k.
func (k Kind) String() string {
	switch k {
	case KindSEMP:
		return "BT/SEMP"
	case KindNMEA:
		return "NMEA"
	case KindUBX:
		return "UBX"
	case KindRTCM3:
		return "RTCM3"
	case KindUnicoreBin:
		return "Unicore-bin"
	case KindUnicoreHash:
		return "Unicore-hash"
	default:
		return "unknown"
	}
}

// NoProtocol is the sentinel registry index returned by ActiveProtocol when
// the session is scanning for a preamble (no protocol locked).
const NoProtocol = -1

// Entry is one registry slot: a diagnostic name plus the protocol kind it
// identifies. Registry order is the tie-break order spec'd in §4.1: when
// two preambles share a leading byte (BT/SEMP and Unicore-bin both start
// with 0xAA), whichever entry appears first in the registry wins that byte.
type Entry struct {
	Name string
	Kind Kind
}

// Registry is an ordered list of active parsers. Order is load-bearing.
type Registry []Entry

// DefaultRegistry returns all six protocols in the order the SparkFun SEMP
// reference implementation registers them in its example harness: SEMP,
// NMEA, UBX, RTCM3, Unicore-hash, Unicore-bin. Because BT/SEMP comes first,
// it claims every AA 44 lead-in, so a Unicore-bin frame (AA 44 12) is
// dropped at its third sync byte and is never accepted under this order.
// Callers that need a different tie-break order should build their own
// Registry instead.
func DefaultRegistry() Registry {
	return Registry{
		{Name: "BT/SEMP", Kind: KindSEMP},
		{Name: "NMEA", Kind: KindNMEA},
		{Name: "UBX", Kind: KindUBX},
		{Name: "RTCM3", Kind: KindRTCM3},
		{Name: "Unicore-hash", Kind: KindUnicoreHash},
		{Name: "Unicore-bin", Kind: KindUnicoreBin},
	}
}
