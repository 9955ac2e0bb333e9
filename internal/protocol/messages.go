package protocol

import (
	"encoding/json"
	"fmt"
)

// Response status values
const (
	StatusSuccess = "success"
	StatusError   = "error"
)

// Command is the client-to-host document: a command type plus free-form
// parameters.
type Command struct {
	Type   string                 `json:"type"`
	Params map[string]interface{} `json:"params"`
}

// NewCommand creates a command, normalizing nil params to an empty map so
// the encoded document always carries a "params" object.
func NewCommand(cmdType string, params map[string]interface{}) *Command {
	if params == nil {
		params = map[string]interface{}{}
	}
	return &Command{
		Type:   cmdType,
		Params: params,
	}
}

// Response is the host-to-client document. This host always emits "success"
// or "error"; Result carries the payload on success, Message the text on
// error. Clients must only special-case "error": other hosts answer with
// other non-error statuses.
type Response struct {
	Status  string          `json:"status"`
	Result  json.RawMessage `json:"result,omitempty"`
	Message string          `json:"message,omitempty"`
}

// Success builds a success response carrying the given result value.
func Success(result interface{}) *Response {
	raw, err := json.Marshal(result)
	if err != nil {
		return Errorf("failed to encode result: %v", err)
	}
	return &Response{
		Status: StatusSuccess,
		Result: raw,
	}
}

// Errorf builds an error response with a formatted message.
func Errorf(format string, args ...interface{}) *Response {
	return &Response{
		Status:  StatusError,
		Message: fmt.Sprintf(format, args...),
	}
}

// Validate checks that a response this host built carries one of the two
// statuses it is allowed to emit. Used to vet executor output before it
// reaches the wire.
func (r *Response) Validate() error {
	switch r.Status {
	case StatusSuccess, StatusError:
		return nil
	default:
		return fmt.Errorf("response has invalid status %q", r.Status)
	}
}

// IsError reports whether the response carries a domain error.
func (r *Response) IsError() bool {
	return r.Status == StatusError
}
