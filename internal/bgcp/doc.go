// Package bgcp implements the UDP register protocol spoken by Vents /
// Blauberg air-handling-unit controllers ("BGCP").
//
// The protocol is a simple password-authenticated request/response
// exchange: the client sends a frame naming one or more 2-byte register
// addresses (or an address/value pair for writes) and the controller
// answers with a frame carrying the register values.
//
// # Frame layout
//
//	Offset  Field             Size  Notes
//	0       prefix            2     0xFDFD, also used to find the frame in noise
//	2       protocol type     1     0x03
//	3       size class        1     0x10
//	4       device id         16    serial, right-padded with ASCII '0'
//	20      password length   1
//	21      password          var   ASCII
//	21+n    function code     1     read 0x01 ... response 0x06
//	...     body / payload    var
//	end-2   checksum          2     little-endian, sum of bytes from offset 2
//
// # Reply payloads
//
// Replies mix two entry encodings: compact pairs (one address byte, one
// value byte) and length-explicit TLV blocks (0xFE, length, address,
// value bytes). DecodeReply resolves the two, including the firmware's
// ambiguous one-vs-two-byte TLV addressing, and tolerates truncated
// trailing data. See the package tests for captured shapes.
//
// # Usage
//
//	sess, err := bgcp.NewSession("0020003935325105", "192.168.1.50")
//	if err != nil {
//	    return err
//	}
//	defer sess.Close()
//
//	values, err := sess.ReadMany(bgcp.Catalog)
//	if err != nil {
//	    return err
//	}
//	fmt.Println(values["supply_in_temperature"])
//
// # Thread Safety
//
// A Session supports one exchange at a time; serialise concurrent use
// externally or open one session per device. Everything else in the
// package is pure functions over immutable descriptors.
package bgcp
