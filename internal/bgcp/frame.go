package bgcp

import (
	"bytes"
	"encoding/binary"
	"fmt"
)

// Fixed header constants for the BGCP wire format.
const (
	// protocolType identifies the BGCP protocol revision.
	protocolType byte = 0x03

	// sizeClass is the fixed size-class marker following the protocol type.
	sizeClass byte = 0x10

	// deviceIDSize is the exact length of the device identifier field.
	deviceIDSize = 16
)

// packetPrefix marks the start of every frame. It is also used to locate
// the inner frame inside a received datagram, which may carry
// transport-specific noise before the frame proper.
var packetPrefix = []byte{0xFD, 0xFD}

// Function codes carried in the frame's function/response byte.
const (
	// FunctionRead requests the current value of one or more registers.
	FunctionRead byte = 0x01

	// FunctionWrite writes a register without expecting an echo.
	FunctionWrite byte = 0x02

	// FunctionWriteResponse writes a register and requests an echo of
	// the resulting value.
	FunctionWriteResponse byte = 0x03

	// FunctionIncrement increments a register and requests an echo.
	FunctionIncrement byte = 0x04

	// FunctionDecrement decrements a register and requests an echo.
	FunctionDecrement byte = 0x05

	// FunctionResponse marks a device reply.
	FunctionResponse byte = 0x06
)

// checksumSize is the length of the little-endian checksum trailer.
const checksumSize = 2

// minFrameSize is the smallest frame that can carry the fixed header
// (with an empty password), a function byte and the checksum trailer:
// prefix(2) + type(1) + size(1) + id(16) + pwlen(1) + function(1) + checksum(2).
const minFrameSize = 2 + 1 + 1 + deviceIDSize + 1 + 1 + checksumSize

// BuildFrame assembles a complete request frame.
//
// Layout: prefix(2) + protocol type(1) + size class(1) + device id(16) +
// password length(1) + password + function(1) + body + checksum(2, LE).
//
// The checksum is the sum of all bytes from offset 2 (prefix excluded)
// up to the checksum itself, modulo 65536.
//
// The device identifier must already be normalised to exactly 16 bytes;
// the Session constructor takes care of that, so BuildFrame itself has
// no failure modes.
//
// Parameters:
//   - deviceID: 16-byte normalised device identifier
//   - password: ASCII device password (length prefixed on the wire)
//   - function: function code (FunctionRead, FunctionWriteResponse, ...)
//   - body: request body (register addresses or write payload)
//
// Returns:
//   - []byte: Complete frame ready to send
func BuildFrame(deviceID []byte, password []byte, function byte, body []byte) []byte {
	buf := make([]byte, 0, minFrameSize+len(password)+len(body))
	buf = append(buf, packetPrefix...)
	buf = append(buf, protocolType, sizeClass)
	buf = append(buf, deviceID...)
	buf = append(buf, byte(len(password)))
	buf = append(buf, password...)
	buf = append(buf, function)
	buf = append(buf, body...)

	var sum [checksumSize]byte
	binary.LittleEndian.PutUint16(sum[:], checksum(buf[2:]))
	return append(buf, sum[:]...)
}

// ExtractInner locates the inner frame within a raw received datagram.
//
// Some transports prepend noise bytes before the frame proper, so the
// frame start is found by scanning for the first occurrence of the
// packet prefix rather than assuming offset 0.
//
// Parameters:
//   - datagram: Raw bytes as received from the socket
//
// Returns:
//   - []byte: Subslice of datagram starting at the packet prefix
//   - error: ErrNoPrefix if the prefix is absent
func ExtractInner(datagram []byte) ([]byte, error) {
	i := bytes.Index(datagram, packetPrefix)
	if i < 0 {
		return nil, ErrNoPrefix
	}
	return datagram[i:], nil
}

// Validate verifies the checksum trailer of an inner frame.
//
// The checksum is recomputed over inner[2 : len-2] and compared against
// the little-endian trailer. Validate must succeed before the frame is
// handed to DecodeReply; decoding an unvalidated frame is forbidden.
//
// Parameters:
//   - inner: Inner frame starting at the packet prefix
//
// Returns:
//   - error: ErrInvalidFrame if too short, ErrChecksumMismatch (with the
//     computed and expected values) on corruption, nil otherwise
func Validate(inner []byte) error {
	if len(inner) < minFrameSize {
		return fmt.Errorf("%w: %d bytes, need at least %d", ErrInvalidFrame, len(inner), minFrameSize)
	}

	expected := binary.LittleEndian.Uint16(inner[len(inner)-checksumSize:])
	computed := checksum(inner[2 : len(inner)-checksumSize])
	if computed != expected {
		return fmt.Errorf("%w: computed 0x%04x, expected 0x%04x", ErrChecksumMismatch, computed, expected)
	}
	return nil
}

// checksum sums the given bytes modulo 65536.
func checksum(data []byte) uint16 {
	var sum uint16
	for _, b := range data {
		sum += uint16(b)
	}
	return sum
}
