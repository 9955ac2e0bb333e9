// Package protocol implements the wire format shared by the bridge client
// and the host server: one UTF-8 JSON document per logical message, with no
// length prefix and no delimiter. The frame boundary is the shortest prefix
// of the accumulated bytes that parses as a complete JSON value, so both
// sides decode by re-parsing the buffer after every read.
package protocol

import (
	"encoding/json"
)

// Encode serializes a message as one JSON frame.
func Encode(v interface{}) ([]byte, error) {
	return json.Marshal(v)
}

// Complete reports whether the accumulated buffer already holds one
// complete JSON frame.
func Complete(buf []byte) bool {
	return len(buf) > 0 && json.Valid(buf)
}

// TryDecode attempts to parse the accumulated buffer as one complete frame
// into v. It returns (false, nil) when the buffer does not yet hold a
// complete JSON document, (true, nil) on success, and (true, err) when the
// buffer is complete JSON but does not fit the target shape. Callers clear
// the buffer once true is returned; there is no remainder handling, the
// protocol is strict request/response with one frame per cycle.
func TryDecode(buf []byte, v interface{}) (bool, error) {
	if len(buf) == 0 {
		return false, nil
	}
	if !json.Valid(buf) {
		return false, nil
	}
	if err := json.Unmarshal(buf, v); err != nil {
		return true, err
	}
	return true, nil
}
