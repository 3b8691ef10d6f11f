package bgcp

import (
	"encoding/hex"
	"fmt"
	"math"
)

// Format identifies how a register's raw bytes map to an engineering value.
//
// The set is closed: every register in the catalog carries exactly one of
// these tags, and both Decode and Encode dispatch on it with a single switch.
type Format int

// Register value formats.
const (
	// FormatInteger is an unsigned integer of the register's byte count,
	// optionally scaled. Decoded as int64.
	FormatInteger Format = iota

	// FormatBoolean is a single byte; nonzero decodes to true.
	FormatBoolean

	// FormatFloat is an unsigned integer scaled to a float64, rounded to
	// one decimal place on decode.
	FormatFloat

	// FormatString is an ASCII string of exactly the register's byte count.
	FormatString

	// FormatRaw is an opaque byte block passed through unchanged.
	FormatRaw

	// FormatIPv4 is a 4-byte address decoded to dotted-quad notation.
	FormatIPv4
)

// String returns the format name for logs and error messages.
func (f Format) String() string {
	switch f {
	case FormatInteger:
		return "integer"
	case FormatBoolean:
		return "boolean"
	case FormatFloat:
		return "float"
	case FormatString:
		return "string"
	case FormatRaw:
		return "raw"
	case FormatIPv4:
		return "ipv4"
	default:
		return fmt.Sprintf("format(%d)", int(f))
	}
}

// width returns the exact byte count this format requires, or 0 when the
// width is register-specific (strings, raw blocks, integers).
func (f Format) width() int {
	switch f {
	case FormatBoolean:
		return 1
	case FormatIPv4:
		return 4
	default:
		return 0
	}
}

// Decode interprets raw reply bytes as the register's engineering value.
//
// Decoding is deliberately forgiving: formats that cannot represent the
// raw bytes fall back to a safe rendering (hex for non-ASCII strings, an
// empty string for malformed addresses) instead of failing, because the
// bytes come from firmware we do not control.
//
// Parameters:
//   - reg: Register descriptor for the raw bytes
//   - raw: Value bytes extracted from a decoded reply
//
// Returns:
//   - any: int64, bool, float64, string or []byte depending on reg.Format
func Decode(reg Register, raw []byte) any {
	switch reg.Format {
	case FormatInteger:
		v := uintFromBytes(raw, reg.Endian)
		if reg.Scale != 0 {
			// Scale then truncate toward zero, staying integral.
			return int64(float64(v) * reg.Scale)
		}
		return int64(v)

	case FormatBoolean:
		return uintFromBytes(raw, reg.Endian) != 0

	case FormatFloat:
		v := float64(uintFromBytes(raw, reg.Endian))
		if reg.Scale != 0 {
			v *= reg.Scale
		}
		return math.Round(v*10) / 10

	case FormatString:
		for _, b := range raw {
			if b > 0x7F {
				// Not ASCII: render as hex rather than failing.
				return hex.EncodeToString(raw)
			}
		}
		return string(raw)

	case FormatIPv4:
		if len(raw) != 4 {
			return ""
		}
		return fmt.Sprintf("%d.%d.%d.%d", raw[0], raw[1], raw[2], raw[3])

	default: // FormatRaw
		return raw
	}
}

// Encode converts an engineering value into the exact byte representation
// required by the register's count, format, endianness and scale.
//
// Unlike Decode, encoding is strict: the value originates from a caller
// (typically an MQTT command) and any mismatch is a contract violation.
//
// Parameters:
//   - reg: Register descriptor to encode for
//   - value: Engineering value (type must match reg.Format)
//
// Returns:
//   - []byte: Exactly reg.Count bytes
//   - error: ErrTypeMismatch, ErrInvalidShape, ErrLengthMismatch or
//     ErrUnsupportedFormat describing the violation
func Encode(reg Register, value any) ([]byte, error) {
	switch reg.Format {
	case FormatInteger:
		n, ok := asInteger(value)
		if !ok {
			return nil, fmt.Errorf("%w: %s needs an integer, got %T", ErrTypeMismatch, reg.Name, value)
		}
		return uintToBytes(n, reg.Count, reg.Endian)

	case FormatFloat:
		f, ok := asFloat(value)
		if !ok {
			return nil, fmt.Errorf("%w: %s needs a number, got %T", ErrTypeMismatch, reg.Name, value)
		}
		scale := reg.Scale
		if scale == 0 {
			scale = 1.0
		}
		// The device stores integer = round(value / scale).
		return uintToBytes(uint64(math.Round(f/scale)), reg.Count, reg.Endian)

	case FormatBoolean:
		if reg.Count != 1 {
			return nil, fmt.Errorf("%w: boolean register %s must have count=1", ErrInvalidShape, reg.Name)
		}
		b, ok := value.(bool)
		if !ok {
			return nil, fmt.Errorf("%w: %s needs a bool, got %T", ErrTypeMismatch, reg.Name, value)
		}
		if b {
			return []byte{0x01}, nil
		}
		return []byte{0x00}, nil

	case FormatString:
		s, ok := value.(string)
		if !ok {
			return nil, fmt.Errorf("%w: %s needs a string, got %T", ErrTypeMismatch, reg.Name, value)
		}
		for _, r := range s {
			if r > 0x7F {
				return nil, fmt.Errorf("%w: %s needs ASCII, got %q", ErrTypeMismatch, reg.Name, s)
			}
		}
		if len(s) != reg.Count {
			return nil, fmt.Errorf("%w: %s needs %d bytes, got %d", ErrLengthMismatch, reg.Name, reg.Count, len(s))
		}
		return []byte(s), nil

	case FormatRaw:
		b, ok := value.([]byte)
		if !ok {
			return nil, fmt.Errorf("%w: %s needs bytes, got %T", ErrTypeMismatch, reg.Name, value)
		}
		if len(b) != reg.Count {
			return nil, fmt.Errorf("%w: %s needs %d bytes, got %d", ErrLengthMismatch, reg.Name, reg.Count, len(b))
		}
		return b, nil

	default:
		return nil, fmt.Errorf("%w: cannot encode %s register %s", ErrUnsupportedFormat, reg.Format, reg.Name)
	}
}

// uintFromBytes interprets raw bytes as an unsigned integer in the given
// byte order. Replies can carry up to 8 value bytes; anything longer is
// truncated to the least significant 8 so the decode still degrades
// gracefully instead of failing.
func uintFromBytes(raw []byte, endian Endian) uint64 {
	if len(raw) > 8 {
		if endian == LittleEndian {
			raw = raw[:8]
		} else {
			raw = raw[len(raw)-8:]
		}
	}
	var v uint64
	if endian == LittleEndian {
		for i := len(raw) - 1; i >= 0; i-- {
			v = v<<8 | uint64(raw[i])
		}
		return v
	}
	for _, b := range raw {
		v = v<<8 | uint64(b)
	}
	return v
}

// uintToBytes encodes an unsigned integer into exactly count bytes in the
// given byte order, failing when the value does not fit.
func uintToBytes(v uint64, count int, endian Endian) ([]byte, error) {
	if count < 8 && v >= 1<<(8*uint(count)) {
		return nil, fmt.Errorf("%w: value %d does not fit in %d bytes", ErrLengthMismatch, v, count)
	}
	out := make([]byte, count)
	if endian == LittleEndian {
		for i := 0; i < count; i++ {
			out[i] = byte(v >> (8 * uint(i)))
		}
		return out, nil
	}
	for i := count - 1; i >= 0; i-- {
		out[i] = byte(v)
		v >>= 8
	}
	return out, nil
}

// asInteger coerces a caller-supplied value into an unsigned wire integer,
// accepting Go integer types and whole-valued floats (JSON and MQTT
// payload parsing frequently produce float64 for integral input).
func asInteger(value any) (uint64, bool) {
	switch v := value.(type) {
	case int:
		if v < 0 {
			return 0, false
		}
		return uint64(v), true
	case int64:
		if v < 0 {
			return 0, false
		}
		return uint64(v), true
	case uint:
		return uint64(v), true
	case uint64:
		return v, true
	case float64:
		if v < 0 || v != math.Trunc(v) {
			return 0, false
		}
		return uint64(v), true
	default:
		return 0, false
	}
}

// asFloat coerces a caller-supplied value into a float64.
func asFloat(value any) (float64, bool) {
	switch v := value.(type) {
	case float64:
		return v, true
	case int:
		return float64(v), true
	case int64:
		return float64(v), true
	default:
		return 0, false
	}
}
