package framer

import "fmt"

// minBufferCapacity is the minimum buffer capacity spec.md §6 requires.
const minBufferCapacity = 256

// OnMessage is called once per accepted frame, after its protocol-specific
// integrity check has passed (or OnBadCRC rescued it). protocolIndex is the
// frame's position in the session's Registry; use Session.Frame accessors
// from inside the callback to inspect the frame. The callback must not
// retain any slice returned by those accessors past its own return.
type OnMessage func(s *Session, protocolIndex int)

// OnBadCRC is called when a complete frame fails its integrity check.
// Returning true upgrades the frame to accepted (OnMessage then fires);
// returning false discards it after an OnDebug log entry.
type OnBadCRC func(s *Session) bool

// TextSink receives human-readable diagnostic text, mirroring gnssgo's
// Trace/Tracet sinks: the core never depends on a logging library, it only
// ever calls a caller-supplied formatting function.
type TextSink func(format string, args ...any)

// Stats are the running per-protocol counters described in SPEC_FULL.md §4
// (supplemented from the SEMP reference's demo harness instrumentation).
// They have no effect on parsing semantics.
type Stats struct {
	BytesSeen        uint64
	MessagesAccepted uint64
	BadCRC           uint64
	FramingErrors    uint64
}

// ConfigError is returned by New when a session cannot be constructed:
// spec.md §7 "ConfigurationError".
type ConfigError struct {
	Reason string
}

func (e *ConfigError) Error() string { return "framer: " + e.Reason }

// Session is the framer's ParseState: a non-shareable value mutated only by
// FeedByte. See spec.md §3.
type Session struct {
	buffer []byte
	length int

	registry    Registry
	activeIndex int // index into registry, or NoProtocol while scanning
	state       stateID
	crc         uint32
	scratch     scratch

	onMessage TextSinkMessage
	onBadCRC  OnBadCRC
	onDebug   TextSink
	onError   TextSink

	parserName string
	stats      [kindCount]Stats
}

// TextSinkMessage is the concrete type of OnMessage, named separately only
// so Session's zero value and field list read cleanly; callers just pass an
// OnMessage value to WithOnMessage.
type TextSinkMessage = OnMessage

// Option configures a Session at construction time, in the style of
// gnssgo's Stream/RtkSvr option structs (a fixed set of named setters
// applied before the first byte is fed, never mutated afterward by
// anything but FeedByte itself).
type Option func(*Session)

// WithBuffer supplies the fixed-capacity working buffer. Capacity must be
// at least 256 bytes (spec.md §6).
func WithBuffer(buf []byte) Option {
	return func(s *Session) { s.buffer = buf }
}

// WithRegistry supplies the ordered parser registry. Order is the
// tie-break order described in spec.md §4.1.
func WithRegistry(r Registry) Option {
	return func(s *Session) { s.registry = r }
}

// WithOnMessage supplies the required frame-accepted callback.
func WithOnMessage(cb OnMessage) Option {
	return func(s *Session) { s.onMessage = cb }
}

// WithOnBadCRC supplies an optional integrity-rescue callback.
func WithOnBadCRC(cb OnBadCRC) Option {
	return func(s *Session) { s.onBadCRC = cb }
}

// WithOnDebug supplies an optional diagnostic text sink.
func WithOnDebug(sink TextSink) Option {
	return func(s *Session) { s.onDebug = sink }
}

// WithOnError supplies an optional error text sink.
func WithOnError(sink TextSink) Option {
	return func(s *Session) { s.onError = sink }
}

// WithParserName labels the session for diagnostics.
func WithParserName(name string) Option {
	return func(s *Session) { s.parserName = name }
}

// New builds a Session from the given options, returning a ConfigError if
// the required buffer, registry, or OnMessage sink is missing or
// sub-minimum (spec.md §7 "ConfigurationError").
func New(opts ...Option) (*Session, error) {
	s := &Session{activeIndex: NoProtocol}
	for _, opt := range opts {
		opt(s)
	}
	if len(s.buffer) < minBufferCapacity {
		return nil, &ConfigError{Reason: fmt.Sprintf("buffer capacity %d below minimum %d", len(s.buffer), minBufferCapacity)}
	}
	if len(s.registry) == 0 {
		return nil, &ConfigError{Reason: "registry must contain at least one parser"}
	}
	if s.onMessage == nil {
		return nil, &ConfigError{Reason: "OnMessage callback is required"}
	}
	return s, nil
}

// Reset forces the session back to scanning with an empty buffer,
// matching spec.md §5 "Cancellation".
func (s *Session) Reset() {
	s.length = 0
	s.crc = 0
	s.activeIndex = NoProtocol
	s.state = stateScanning
}

// ActiveProtocol returns the registry index of the protocol currently
// driving state, or NoProtocol while scanning.
func (s *Session) ActiveProtocol() int {
	return s.activeIndex
}

// ActiveProtocolName is a convenience wrapper around ActiveProtocol,
// supplementing spec.md per SPEC_FULL.md §4 item 1.
func (s *Session) ActiveProtocolName() string {
	if s.activeIndex == NoProtocol {
		return ""
	}
	return s.registry[s.activeIndex].Name
}

// RegisteredNames returns the configured registry's names in tie-break
// order, supplementing spec.md per SPEC_FULL.md §4 item 1.
func (s *Session) RegisteredNames() []string {
	names := make([]string, len(s.registry))
	for i, e := range s.registry {
		names[i] = e.Name
	}
	return names
}

// Stats returns a copy of the running counters for the given protocol
// kind, supplementing spec.md per SPEC_FULL.md §4 item 2.
func (s *Session) Stats(k Kind) Stats {
	return s.stats[k]
}

// --- Frame accessors: valid only inside OnMessage/OnBadCRC, spec.md §6 ---

// ProtocolName returns the accepted frame's registry entry name.
func (s *Session) ProtocolName() string {
	return s.ActiveProtocolName()
}

// FrameBytes returns the complete frame as currently held in the buffer.
// The returned slice is a borrowed view into the session's buffer and must
// not be retained past the callback that received it (spec.md §9 "Buffer
// ownership").
func (s *Session) FrameBytes() []byte {
	return s.buffer[:s.length]
}

func (s *Session) debugf(format string, args ...any) {
	if s.onDebug != nil {
		s.onDebug(format, args...)
	}
}

func (s *Session) errorf(format string, args ...any) {
	if s.onError != nil {
		s.onError(format, args...)
	}
}
