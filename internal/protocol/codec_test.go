package protocol

import (
	"encoding/json"
	"reflect"
	"testing"
)

func TestCommandRoundTrip(t *testing.T) {
	cmd := NewCommand("get_scene_info", map[string]interface{}{
		"object": "Cube",
		"depth":  float64(2),
	})

	data, err := Encode(cmd)
	if err != nil {
		t.Fatalf("Encode failed: %v", err)
	}

	var decoded Command
	complete, err := TryDecode(data, &decoded)
	if err != nil {
		t.Fatalf("TryDecode failed: %v", err)
	}
	if !complete {
		t.Fatal("expected a complete frame")
	}
	if !reflect.DeepEqual(*cmd, decoded) {
		t.Errorf("round trip mismatch: sent %+v, got %+v", *cmd, decoded)
	}
}

func TestResponseRoundTrip(t *testing.T) {
	resp := Success(map[string]interface{}{"pong": true})

	data, err := Encode(resp)
	if err != nil {
		t.Fatalf("Encode failed: %v", err)
	}

	var decoded Response
	complete, err := TryDecode(data, &decoded)
	if err != nil || !complete {
		t.Fatalf("TryDecode: complete=%v err=%v", complete, err)
	}
	if decoded.Status != StatusSuccess {
		t.Errorf("expected status %q, got %q", StatusSuccess, decoded.Status)
	}

	var result map[string]interface{}
	if err := json.Unmarshal(decoded.Result, &result); err != nil {
		t.Fatalf("unmarshal result: %v", err)
	}
	if result["pong"] != true {
		t.Errorf("expected pong=true, got %v", result["pong"])
	}
}

func TestTryDecodeIncompletePrefixes(t *testing.T) {
	frame, err := Encode(NewCommand("ping", nil))
	if err != nil {
		t.Fatalf("Encode failed: %v", err)
	}

	// Every strict prefix of a frame must report incomplete, never an error.
	for i := 1; i < len(frame); i++ {
		var cmd Command
		complete, err := TryDecode(frame[:i], &cmd)
		if complete || err != nil {
			t.Fatalf("prefix of %d bytes: complete=%v err=%v", i, complete, err)
		}
	}

	var cmd Command
	complete, err := TryDecode(frame, &cmd)
	if !complete || err != nil {
		t.Fatalf("full frame: complete=%v err=%v", complete, err)
	}
	if cmd.Type != "ping" {
		t.Errorf("expected type ping, got %q", cmd.Type)
	}
}

func TestTryDecodeEmptyBuffer(t *testing.T) {
	var cmd Command
	complete, err := TryDecode(nil, &cmd)
	if complete || err != nil {
		t.Errorf("empty buffer: complete=%v err=%v", complete, err)
	}
}

func TestTryDecodeWrongShape(t *testing.T) {
	// Complete JSON that does not fit the target type is a decode error,
	// not an incomplete frame.
	var resp Response
	complete, err := TryDecode([]byte(`[1, 2, 3]`), &resp)
	if !complete {
		t.Fatal("expected frame to be complete")
	}
	if err == nil {
		t.Fatal("expected a decode error for mismatched shape")
	}
}

func TestResponseValidate(t *testing.T) {
	if err := Success(nil).Validate(); err != nil {
		t.Errorf("success response should validate: %v", err)
	}
	if err := Errorf("boom").Validate(); err != nil {
		t.Errorf("error response should validate: %v", err)
	}

	// This host only ever emits the two canonical statuses; Validate
	// guards executor output, not what remote hosts may answer with.
	bad := &Response{Status: "ok"}
	if err := bad.Validate(); err == nil {
		t.Error("expected validation failure for a status this host must not emit")
	}
}

func TestNewCommandNormalizesParams(t *testing.T) {
	data, err := Encode(NewCommand("ping", nil))
	if err != nil {
		t.Fatalf("Encode failed: %v", err)
	}
	if string(data) != `{"type":"ping","params":{}}` {
		t.Errorf("unexpected encoding: %s", data)
	}
}
