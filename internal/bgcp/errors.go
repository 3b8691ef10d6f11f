package bgcp

import "errors"

// Domain errors for the BGCP protocol package.
var (
	// ErrNoPrefix is returned when a received datagram does not contain
	// the 0xFDFD frame marker anywhere in its bytes.
	ErrNoPrefix = errors.New("bgcp: no packet prefix in response")

	// ErrChecksumMismatch is returned when a reply frame's checksum
	// trailer does not match the sum recomputed over its contents.
	ErrChecksumMismatch = errors.New("bgcp: checksum mismatch")

	// ErrInvalidFrame is returned when a frame is too short to carry
	// the fixed header and checksum trailer.
	ErrInvalidFrame = errors.New("bgcp: invalid frame")

	// ErrTimeout is returned when the device does not reply within the
	// session's response timeout.
	ErrTimeout = errors.New("bgcp: response timed out")

	// ErrRegisterNotFound is returned by ReadOne when the device reply
	// does not include the requested register.
	ErrRegisterNotFound = errors.New("bgcp: register not found in reply")

	// ErrReadOnly is returned when attempting to write a read-only register.
	ErrReadOnly = errors.New("bgcp: register is read-only")

	// ErrOutOfRange is returned when a write value violates the
	// register's declared min/max bounds.
	ErrOutOfRange = errors.New("bgcp: value out of range")

	// ErrUnsupportedWriteWidth is returned when a write would require a
	// multi-byte body. Only single-byte compact writes are implemented;
	// the FE/TLV write form is a future extension point.
	ErrUnsupportedWriteWidth = errors.New("bgcp: only 1-byte compact writes supported")

	// ErrTypeMismatch is returned when a caller-supplied value has the
	// wrong type for the register's format.
	ErrTypeMismatch = errors.New("bgcp: value type mismatch")

	// ErrInvalidShape is returned when a register definition cannot
	// represent the requested value (e.g. boolean with count != 1).
	ErrInvalidShape = errors.New("bgcp: invalid register shape")

	// ErrLengthMismatch is returned when an encoded value's length
	// differs from the register's declared byte count.
	ErrLengthMismatch = errors.New("bgcp: encoded length mismatch")

	// ErrUnsupportedFormat is returned when encoding a format that has
	// no write representation.
	ErrUnsupportedFormat = errors.New("bgcp: unsupported register format")
)
