package bgcp

import (
	"encoding/hex"
	"errors"
	"fmt"
	"net"
	"strconv"
	"time"
)

// Session defaults matching the controller's factory configuration.
const (
	// DefaultPort is the UDP port the controller listens on.
	DefaultPort = 4000

	// DefaultPassword is the controller's factory password.
	DefaultPassword = "1111"

	// DefaultTimeout is the response deadline for one exchange.
	DefaultTimeout = 3500 * time.Millisecond

	// replyBufferSize is the receive buffer for one reply datagram.
	replyBufferSize = 4096

	// idPadByte pads short device identifiers, matching the ASCII '0'
	// padding the vendor tooling uses.
	idPadByte = '0'
)

// Logger is the interface for optional diagnostic logging.
// It matches log/slog method signatures; infrastructure/logging.Logger
// satisfies it directly.
type Logger interface {
	Debug(msg string, args ...any)
	Warn(msg string, args ...any)
}

// Session performs synchronous request/response exchanges with one AHU
// controller over UDP.
//
// Concurrency: a session supports at most one outstanding exchange at a
// time. Operations block the calling goroutine for the full send+receive
// round-trip, bounded by the configured timeout. Callers polling several
// devices concurrently must use one session per device; concurrent use of
// the same session must be serialised externally. The identity fields are
// set at construction and never mutated, so no internal locking exists.
type Session struct {
	conn     *net.UDPConn
	deviceID []byte // exactly 16 bytes
	password []byte
	timeout  time.Duration
	logger   Logger
}

// Option customises a Session at construction time.
type Option func(*sessionOptions)

type sessionOptions struct {
	port     int
	password string
	timeout  time.Duration
	logger   Logger
}

// WithPort overrides the controller's UDP port (default 4000).
func WithPort(port int) Option {
	return func(o *sessionOptions) { o.port = port }
}

// WithPassword overrides the device password (default "1111").
func WithPassword(password string) Option {
	return func(o *sessionOptions) { o.password = password }
}

// WithTimeout overrides the response timeout (default 3.5s).
func WithTimeout(timeout time.Duration) Option {
	return func(o *sessionOptions) { o.timeout = timeout }
}

// WithLogger enables TX/RX hexdump tracing at debug level.
func WithLogger(logger Logger) Option {
	return func(o *sessionOptions) { o.logger = logger }
}

// NewSession opens a UDP session to the controller at the given host.
//
// The device identifier is normalised to exactly 16 bytes: truncated if
// longer, right-padded with ASCII '0' if shorter. The local port is
// chosen by the OS.
//
// Parameters:
//   - deviceID: Controller serial as printed on the unit
//   - host: Controller IP address or hostname
//   - opts: Optional port/password/timeout/logger overrides
//
// Returns:
//   - *Session: Ready for ReadOne/ReadMany/WriteOne
//   - error: If the address cannot be resolved or the socket opened
func NewSession(deviceID, host string, opts ...Option) (*Session, error) {
	o := sessionOptions{
		port:     DefaultPort,
		password: DefaultPassword,
		timeout:  DefaultTimeout,
	}
	for _, opt := range opts {
		opt(&o)
	}

	addr, err := net.ResolveUDPAddr("udp", net.JoinHostPort(host, strconv.Itoa(o.port)))
	if err != nil {
		return nil, fmt.Errorf("resolving device address: %w", err)
	}
	conn, err := net.DialUDP("udp", nil, addr)
	if err != nil {
		return nil, fmt.Errorf("opening device socket: %w", err)
	}

	return &Session{
		conn:     conn,
		deviceID: normalizeDeviceID(deviceID),
		password: []byte(o.password),
		timeout:  o.timeout,
		logger:   o.logger,
	}, nil
}

// normalizeDeviceID truncates or right-pads the identifier to 16 bytes.
func normalizeDeviceID(id string) []byte {
	b := []byte(id)
	if len(b) > deviceIDSize {
		return b[:deviceIDSize]
	}
	for len(b) < deviceIDSize {
		b = append(b, idPadByte)
	}
	return b
}

// Close releases the UDP socket.
func (s *Session) Close() error {
	return s.conn.Close()
}

// exchange performs one request/response round-trip: build, send, await
// one reply within the timeout, locate and validate the inner frame, and
// decode its payload entries.
func (s *Session) exchange(function byte, body []byte) (map[byte][]byte, error) {
	frame := BuildFrame(s.deviceID, s.password, function, body)
	s.trace("TX", frame)

	deadline := time.Now().Add(s.timeout)
	if err := s.conn.SetDeadline(deadline); err != nil {
		return nil, fmt.Errorf("setting socket deadline: %w", err)
	}
	if _, err := s.conn.Write(frame); err != nil {
		return nil, fmt.Errorf("sending request: %w", err)
	}

	buf := make([]byte, replyBufferSize)
	n, err := s.conn.Read(buf)
	if err != nil {
		var netErr net.Error
		if errors.As(err, &netErr) && netErr.Timeout() {
			return nil, fmt.Errorf("%w after %v", ErrTimeout, s.timeout)
		}
		return nil, fmt.Errorf("receiving reply: %w", err)
	}
	resp := buf[:n]
	s.trace("RX", resp)

	inner, err := ExtractInner(resp)
	if err != nil {
		return nil, err
	}
	if err := Validate(inner); err != nil {
		return nil, err
	}
	return DecodeReply(inner)
}

// ReadMany reads a batch of registers in a single exchange.
//
// The request body concatenates every register's 2-byte address in the
// caller-supplied order. The device is free to answer only a subset of
// the requested registers in one datagram; missing registers are simply
// omitted from the result, not treated as errors.
//
// Parameters:
//   - regs: Registers to read, typically a slice of the Catalog
//
// Returns:
//   - map[string]any: Register result key → decoded engineering value
//   - error: Frame, timeout or transport errors for the exchange itself
func (s *Session) ReadMany(regs []Register) (map[string]any, error) {
	body := make([]byte, 0, 2*len(regs))
	for _, r := range regs {
		body = append(body, r.Parameter[0], r.Parameter[1])
	}

	kv, err := s.exchange(FunctionRead, body)
	if err != nil {
		return nil, err
	}

	out := make(map[string]any, len(regs))
	for _, r := range regs {
		if raw, ok := kv[r.Key()]; ok {
			out[r.ResultKey()] = Decode(r, raw)
		}
	}
	return out, nil
}

// ReadOne reads a single register.
//
// Unlike ReadMany, a reply that omits the requested register is an error
// (ErrRegisterNotFound): the caller asked for exactly one answer.
//
// Parameters:
//   - reg: Register to read
//
// Returns:
//   - any: Decoded engineering value
//   - error: ErrRegisterNotFound, or frame/timeout/transport errors
func (s *Session) ReadOne(reg Register) (any, error) {
	kv, err := s.exchange(FunctionRead, reg.Parameter[:])
	if err != nil {
		return nil, err
	}
	raw, ok := kv[reg.Key()]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrRegisterNotFound, reg.ResultKey())
	}
	return Decode(reg, raw), nil
}

// WriteOne writes a value to a register and returns the confirmed value.
//
// The write is guarded before any network I/O happens: read-only
// registers fail with ErrReadOnly, values that encode to anything other
// than one byte fail with ErrUnsupportedWriteWidth (the FE/TLV write
// form is not implemented), and numeric/boolean values outside the
// register's Min/Max bounds fail with ErrOutOfRange.
//
// The device normally echoes the written register in its reply; that
// echo is decoded and returned. Some firmware revisions acknowledge
// without echoing, in which case a compensating read of the same
// register supplies the confirmation.
//
// Parameters:
//   - reg: Register to write
//   - value: Engineering value (type must match reg.Format)
//
// Returns:
//   - any: Confirmed engineering value (echo or read-back)
//   - error: Guard, codec, frame, timeout or transport errors
func (s *Session) WriteOne(reg Register, value any) (any, error) {
	if reg.ReadOnly {
		return nil, fmt.Errorf("%w: %s", ErrReadOnly, reg.ResultKey())
	}

	raw, err := Encode(reg, value)
	if err != nil {
		return nil, err
	}

	if err := checkBounds(reg, value); err != nil {
		return nil, err
	}

	if len(raw) != 1 {
		return nil, fmt.Errorf("%w: %s encodes to %d bytes", ErrUnsupportedWriteWidth, reg.ResultKey(), len(raw))
	}

	kv, err := s.exchange(FunctionWriteResponse, []byte{reg.Key(), raw[0]})
	if err != nil {
		return nil, err
	}

	echo, ok := kv[reg.Key()]
	if !ok {
		// Firmware acknowledged without echoing: confirm by reading back.
		s.warn("write not echoed, reading back", "register", reg.ResultKey())
		return s.ReadOne(reg)
	}
	return Decode(reg, echo), nil
}

// checkBounds enforces Min/Max on numeric and boolean writes.
// Bounds are interpreted in engineering units.
func checkBounds(reg Register, value any) error {
	switch reg.Format {
	case FormatInteger, FormatFloat, FormatBoolean:
	default:
		return nil
	}

	var v float64
	switch n := value.(type) {
	case bool:
		if n {
			v = 1
		}
	case int:
		v = float64(n)
	case int64:
		v = float64(n)
	case float64:
		v = n
	default:
		return nil // Encode already vetted the type
	}

	if reg.Min != nil && v < *reg.Min {
		return fmt.Errorf("%w: %s value %v < min %v", ErrOutOfRange, reg.ResultKey(), v, *reg.Min)
	}
	if reg.Max != nil && v > *reg.Max {
		return fmt.Errorf("%w: %s value %v > max %v", ErrOutOfRange, reg.ResultKey(), v, *reg.Max)
	}
	return nil
}

// trace logs a hexdump of one datagram at debug level.
func (s *Session) trace(label string, data []byte) {
	if s.logger != nil {
		s.logger.Debug("bgcp datagram", "dir", label, "len", len(data), "hex", hex.EncodeToString(data))
	}
}

// warn logs a warning if a logger is configured.
func (s *Session) warn(msg string, args ...any) {
	if s.logger != nil {
		s.logger.Warn(msg, args...)
	}
}
