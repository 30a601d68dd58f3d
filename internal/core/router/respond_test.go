package router

import (
	"encoding/json"
	"net/http/httptest"
	"testing"

	"github.com/ciprian87/roadpulse/internal/roaderr"
)

func TestWriteJSONSetsStatusAndBody(t *testing.T) {
	rr := httptest.NewRecorder()
	writeJSON(rr, 201, map[string]string{"ok": "yes"})

	if rr.Code != 201 {
		t.Fatalf("status = %d, want 201", rr.Code)
	}
	if ct := rr.Header().Get("Content-Type"); ct != "application/json" {
		t.Fatalf("content-type = %q", ct)
	}
	var body map[string]string
	if err := json.Unmarshal(rr.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if body["ok"] != "yes" {
		t.Fatalf("unexpected body: %+v", body)
	}
}

func TestWriteErrorMapsRoaderrToEnvelope(t *testing.T) {
	rr := httptest.NewRecorder()
	err := roaderr.New(roaderr.CodeInvalidBBox, "bad bbox").WithDetails("bbox")
	writeError(rr, err)

	if rr.Code != roaderr.CodeInvalidBBox.HTTPStatus() {
		t.Fatalf("status = %d, want %d", rr.Code, roaderr.CodeInvalidBBox.HTTPStatus())
	}
	var env errorEnvelope
	if err := json.Unmarshal(rr.Body.Bytes(), &env); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if env.Code != string(roaderr.CodeInvalidBBox) || env.Error != "bad bbox" || env.Details != "bbox" {
		t.Fatalf("unexpected envelope: %+v", env)
	}
}

func TestWriteErrorWrapsUnknownErrorAsInternal(t *testing.T) {
	rr := httptest.NewRecorder()
	writeError(rr, errPlain("boom"))

	if rr.Code != roaderr.CodeInternal.HTTPStatus() {
		t.Fatalf("status = %d, want %d", rr.Code, roaderr.CodeInternal.HTTPStatus())
	}
}

type errPlain string

func (e errPlain) Error() string { return string(e) }
