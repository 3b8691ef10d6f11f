package bgcp

import "fmt"

// In-stream marker bytes that can appear inside a reply payload.
const (
	// markerFunc prefixes an embedded function block (observed, unused).
	markerFunc byte = 0xFC

	// markerNotSupported flags a parameter the firmware rejected.
	markerNotSupported byte = 0xFD

	// markerSize introduces a length-explicit (TLV) entry.
	markerSize byte = 0xFE

	// markerPage switches the active parameter page.
	markerPage byte = 0xFF
)

// maxPageIndex is the highest parameter page index the firmware is known
// to use. It drives the TLV address-width heuristic below.
const maxPageIndex byte = 0x03

// headerFixedSize is the byte count of the fixed-position header fields
// before the variable-length password: prefix(2) + type(1) + size(1) + id(16).
const headerFixedSize = 2 + 1 + 1 + deviceIDSize

// DecodeReply parses the payload region of a validated inner frame into
// a map from one-byte parameter key to raw value bytes.
//
// The payload starts immediately after the response code byte and ends
// immediately before the checksum trailer. Two entry encodings coexist:
//
//   - TLV: 0xFE <len> <param: 1 or 2 bytes LE> <value: len bytes>
//   - Compact pair: <param low byte> <value byte>
//
// When the same key appears in both encodings, the TLV entry wins (its
// length is explicit and therefore trustworthy). Among compact pairs the
// first occurrence wins.
//
// Malformed or truncated trailing data never fails the decode: parsing
// stops at the first entry that would overrun the payload and whatever
// was fully parsed is returned. This leniency tolerates firmware quirks
// observed in the field; callers must treat missing keys as normal.
//
// The frame must have been checked with Validate first.
//
// Parameters:
//   - inner: Validated inner frame starting at the packet prefix
//
// Returns:
//   - map[byte][]byte: Parameter low byte → raw value bytes
//   - error: ErrInvalidFrame if the fixed header is incomplete
func DecodeReply(inner []byte) (map[byte][]byte, error) {
	// Skip the fixed header: prefix, type, size class, device id,
	// password length + password, then the response code byte.
	if len(inner) < minFrameSize {
		return nil, fmt.Errorf("%w: %d bytes, need at least %d", ErrInvalidFrame, len(inner), minFrameSize)
	}
	pwLen := int(inner[headerFixedSize])
	payload := headerFixedSize + 1 + pwLen + 1
	end := len(inner) - checksumSize
	if payload > end {
		return nil, fmt.Errorf("%w: password length %d overruns frame", ErrInvalidFrame, pwLen)
	}

	out := make(map[byte][]byte)
	i := payload
	for i < end {
		if inner[i] != markerSize {
			// Compact pair: one address byte, one value byte.
			if i+1 >= end {
				break
			}
			key := inner[i]
			if _, seen := out[key]; !seen {
				out[key] = []byte{inner[i+1]}
			}
			i += 2
			continue
		}

		// TLV entry: 0xFE <len> <param> <value>.
		if i+2 >= end {
			break
		}
		vlen := int(inner[i+1])
		low := inner[i+2]

		// The parameter may be encoded as one byte or as two bytes
		// little-endian whose high byte is the page index. The wire
		// format does not disambiguate, so this is a heuristic: try
		// the two-byte form first and accept it only when the
		// presumed page byte is plausible (0-3) and the value still
		// fits in the payload; otherwise assume the one-byte form.
		addrSize := 1
		if i+3 < end && inner[i+3] <= maxPageIndex && i+4+vlen <= end {
			addrSize = 2
		}

		start := i + 2 + addrSize
		valueEnd := start + vlen
		if valueEnd > end {
			// Declared length overruns the payload: truncate.
			break
		}
		out[low] = inner[start:valueEnd] // TLV always wins
		i = valueEnd
	}

	return out, nil
}
