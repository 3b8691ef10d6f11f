package bgcp

import (
	"bytes"
	"errors"
	"math"
	"testing"
)

// ─── Decode ────────────────────────────────────────────────────────

func TestDecode(t *testing.T) {
	tests := []struct {
		name string
		reg  Register
		raw  []byte
		want any
	}{
		{"bool true", PowerOn, []byte{0x01}, true},
		{"bool false", PowerOn, []byte{0x00}, false},
		{"bool any nonzero is true", PowerOn, []byte{0x7F}, true},
		{"integer single byte", Speed, []byte{0x02}, int64(2)},
		{
			"integer little-endian tachometer",
			Fan1Speed, []byte{0x44, 0x05}, int64(1348),
		},
		{
			"scaled temperature little-endian",
			// Raw value 220 with scale 0.1 is 22.0 degrees.
			SupplyInTemperature, []byte{0xDC, 0x00}, 22.0,
		},
		{
			"unscaled float",
			CurrentHumidity, []byte{0x29}, 41.0,
		},
		{
			"big-endian integer",
			Register{Name: "be", Count: 2, Format: FormatInteger},
			[]byte{0x01, 0x02}, int64(258),
		},
		{
			"scaled integer truncates toward zero",
			Register{Name: "si", Count: 1, Format: FormatInteger, Scale: 0.5},
			[]byte{0x07}, int64(3),
		},
		{
			"ascii string",
			Register{Name: "s", Count: 4, Format: FormatString},
			[]byte("AHU1"), "AHU1",
		},
		{
			"non-ascii string falls back to hex",
			Register{Name: "s", Count: 3, Format: FormatString},
			[]byte{0xDE, 0xAD, 0x7F}, "dead7f",
		},
		{
			"ipv4 dotted quad",
			Register{Name: "ip", Count: 4, Format: FormatIPv4},
			[]byte{192, 168, 1, 50}, "192.168.1.50",
		},
		{
			"ipv4 wrong length yields empty string",
			Register{Name: "ip", Count: 4, Format: FormatIPv4},
			[]byte{192, 168, 1}, "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Decode(tt.reg, tt.raw)
			if got != tt.want {
				t.Errorf("Decode(%s, %X) = %v (%T), want %v (%T)", tt.reg.Name, tt.raw, got, got, tt.want, tt.want)
			}
		})
	}
}

func TestDecode_RawPassthrough(t *testing.T) {
	reg := Register{Name: "fw", Count: 4, Format: FormatRaw}
	raw := []byte{0x01, 0x02, 0x03, 0x04}

	got := Decode(reg, raw)
	b, ok := got.([]byte)
	if !ok || !bytes.Equal(b, raw) {
		t.Errorf("Decode(raw) = %v, want %X unchanged", got, raw)
	}
}

// ─── Encode ────────────────────────────────────────────────────────

func TestEncode(t *testing.T) {
	tests := []struct {
		name  string
		reg   Register
		value any
		want  []byte
	}{
		{"bool true", PowerOn, true, []byte{0x01}},
		{"bool false", PowerOn, false, []byte{0x00}},
		{"integer", Speed, 2, []byte{0x02}},
		{"integer from int64", Speed, int64(3), []byte{0x03}},
		{"integer from whole float", Speed, float64(1), []byte{0x01}},
		{
			"two-byte big-endian integer",
			Register{Name: "be", Count: 2, Format: FormatInteger},
			258, []byte{0x01, 0x02},
		},
		{
			"two-byte little-endian integer",
			Register{Name: "le", Count: 2, Format: FormatInteger, Endian: LittleEndian},
			258, []byte{0x02, 0x01},
		},
		{
			"float divides by scale",
			Register{Name: "t", Count: 2, Format: FormatFloat, Scale: 0.1, Endian: LittleEndian},
			22.0, []byte{0xDC, 0x00},
		},
		{
			"float rounds to nearest wire integer",
			Register{Name: "t", Count: 1, Format: FormatFloat, Scale: 0.5},
			10.2, []byte{0x14},
		},
		{
			"float without scale",
			Register{Name: "f", Count: 1, Format: FormatFloat},
			41.0, []byte{0x29},
		},
		{
			"ascii string",
			Register{Name: "s", Count: 4, Format: FormatString},
			"AHU1", []byte("AHU1"),
		},
		{
			"raw block",
			Register{Name: "r", Count: 3, Format: FormatRaw},
			[]byte{0xAA, 0xBB, 0xCC}, []byte{0xAA, 0xBB, 0xCC},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Encode(tt.reg, tt.value)
			if err != nil {
				t.Fatalf("Encode() error = %v", err)
			}
			if !bytes.Equal(got, tt.want) {
				t.Errorf("Encode(%s, %v) = %X, want %X", tt.reg.Name, tt.value, got, tt.want)
			}
			if len(got) != tt.reg.Count {
				t.Errorf("Encode(%s) length = %d, want count %d", tt.reg.Name, len(got), tt.reg.Count)
			}
		})
	}
}

func TestEncode_Errors(t *testing.T) {
	tests := []struct {
		name    string
		reg     Register
		value   any
		wantErr error
	}{
		{"integer rejects fractional float", Speed, 1.5, ErrTypeMismatch},
		{"integer rejects string", Speed, "2", ErrTypeMismatch},
		{"integer rejects negative", Speed, -1, ErrTypeMismatch},
		{
			"integer overflow",
			Register{Name: "n", Count: 1, Format: FormatInteger},
			300, ErrLengthMismatch,
		},
		{
			"bool with count != 1",
			Register{Name: "b", Count: 2, Format: FormatBoolean},
			true, ErrInvalidShape,
		},
		{"bool rejects integer", PowerOn, 1, ErrTypeMismatch},
		{
			"string length mismatch",
			Register{Name: "s", Count: 4, Format: FormatString},
			"AHU", ErrLengthMismatch,
		},
		{
			"string rejects non-ascii",
			Register{Name: "s", Count: 4, Format: FormatString},
			"AHÜ1", ErrTypeMismatch,
		},
		{
			"raw length mismatch",
			Register{Name: "r", Count: 3, Format: FormatRaw},
			[]byte{0x01}, ErrLengthMismatch,
		},
		{
			"raw rejects string",
			Register{Name: "r", Count: 3, Format: FormatRaw},
			"abc", ErrTypeMismatch,
		},
		{"float rejects bool", CurrentHumidity, true, ErrTypeMismatch},
		{
			"unknown format tag",
			Register{Name: "x", Count: 1, Format: Format(99)},
			1, ErrUnsupportedFormat,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Encode(tt.reg, tt.value)
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("Encode(%s, %v) error = %v, want %v", tt.reg.Name, tt.value, err, tt.wantErr)
			}
		})
	}
}

// ─── Round trips ───────────────────────────────────────────────────

// TestRoundTrip verifies decode(encode(v)) == v for in-range values of
// every numeric and boolean catalog register.
func TestRoundTrip(t *testing.T) {
	for _, reg := range Catalog {
		var values []any
		switch reg.Format {
		case FormatBoolean:
			values = []any{true, false}
		case FormatInteger:
			lo, hi := int64(0), int64(3)
			if reg.Min != nil {
				lo = int64(*reg.Min)
			}
			if reg.Max != nil {
				hi = int64(*reg.Max)
			}
			for v := lo; v <= hi; v++ {
				values = append(values, v)
			}
		case FormatFloat:
			// Values aligned to the register's scale so the round
			// trip is exact rather than within-one-unit.
			scale := reg.Scale
			if scale == 0 {
				scale = 1.0
			}
			for _, wire := range []float64{0, 100, 215} {
				values = append(values, math.Round(wire*scale*10)/10)
			}
		default:
			continue
		}

		for _, v := range values {
			raw, err := Encode(reg, v)
			if err != nil {
				t.Errorf("Encode(%s, %v) error = %v", reg.Name, v, err)
				continue
			}
			got := Decode(reg, raw)
			if got != v {
				t.Errorf("round trip %s: Decode(Encode(%v)) = %v", reg.Name, v, got)
			}
		}
	}
}
