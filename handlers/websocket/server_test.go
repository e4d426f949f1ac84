package websocket

import (
	"errors"
	"testing"
)

func TestExtractAck(t *testing.T) {
	var got map[string]any
	datas := []any{map[string]any{"date": "2026-10-19"}, func(payload map[string]any) { got = payload }}

	ack, args := extractAck(datas)
	if ack == nil {
		t.Fatal("extractAck() found no ack")
	}
	if len(args) != 1 {
		t.Fatalf("Arg count mismatch: got %d, want 1", len(args))
	}

	ack(nil, map[string]any{"status": "ok"})
	if got["status"] != "ok" {
		t.Errorf("ack payload = %v, want status ok", got)
	}
}

func TestExtractAck_WithoutCallback(t *testing.T) {
	datas := []any{"a", 1}
	ack, args := extractAck(datas)
	if ack != nil {
		t.Error("extractAck() returned an ack for plain args")
	}
	if len(args) != 2 {
		t.Errorf("Arg count mismatch: got %d, want 2", len(args))
	}

	if ack, args := extractAck(nil); ack != nil || len(args) != 0 {
		t.Error("extractAck(nil) returned values")
	}
}

func TestWrapAck_ErrorFirstCallback(t *testing.T) {
	var gotErr error
	var gotPayload map[string]any
	ack := wrapAck(func(err error, payload map[string]any) {
		gotErr = err
		gotPayload = payload
	})

	ack(errors.New("boom"), map[string]any{"status": "error"})
	if gotErr == nil || gotErr.Error() != "boom" {
		t.Errorf("err = %v, want boom", gotErr)
	}
	if gotPayload["status"] != "error" {
		t.Errorf("payload = %v, want status error", gotPayload)
	}

	ack(nil, nil)
	if gotErr != nil {
		t.Errorf("err = %v, want nil", gotErr)
	}
}

func TestWrapAck_VariadicCallback(t *testing.T) {
	var got []any
	ack := wrapAck(func(args ...any) { got = args })

	ack(errors.New("boom"), map[string]any{"status": "error", "error": "boom"})
	if len(got) != 1 {
		t.Fatalf("Arg count mismatch: got %d, want 1", len(got))
	}
	payload, ok := got[0].(map[string]any)
	if !ok || payload["error"] != "boom" {
		t.Errorf("ack args = %v, want the payload", got)
	}
}

func TestWrapAck_MismatchedParamGetsZero(t *testing.T) {
	called := false
	var got string
	ack := wrapAck(func(s string) {
		called = true
		got = s
	})

	ack(nil, map[string]any{"status": "ok"})
	if !called || got != "" {
		t.Errorf("called = %v, arg = %q, want a zero string", called, got)
	}
}

func TestMakeAckPayload(t *testing.T) {
	ok := makeAckPayload(map[string]any{"date": "2026-10-19"}, nil)
	if ok["status"] != "ok" || ok["date"] != "2026-10-19" {
		t.Errorf("ok payload = %v", ok)
	}
	if _, has := ok["error"]; has {
		t.Error("ok payload carries an error")
	}

	failed := makeAckPayload(nil, errors.New("no sketch open"))
	if failed["status"] != "error" || failed["error"] != "no sketch open" {
		t.Errorf("error payload = %v", failed)
	}
}

func TestDecodeArg(t *testing.T) {
	var req StrokeRequest
	args := []any{map[string]any{"x": 1.5, "y": 2.0, "pressure": 0.5, "color": "#000", "width": 3.0, "eraser": true}}
	if err := decodeArg(args, &req); err != nil {
		t.Fatalf("decodeArg() failed: %v", err)
	}
	if req.X != 1.5 || req.Y != 2 || req.Pressure == nil || *req.Pressure != 0.5 || !req.Eraser || req.Width != 3 {
		t.Errorf("decoded = %+v", req)
	}

	if err := decodeArg(nil, &req); err == nil {
		t.Error("decodeArg() without args succeeded")
	}
	if err := decodeArg([]any{"not an object"}, &req); err == nil {
		t.Error("decodeArg() with a string succeeded")
	}
}
