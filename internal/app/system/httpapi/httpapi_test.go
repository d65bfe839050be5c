package httpapi

import (
	"encoding/json"
	"errors"
	"net/http/httptest"
	"strings"
	"testing"

	"go.uber.org/zap"

	"github.com/rashikacodes/pulstrix/internal/app/system/apperr"
)

func decodeBody(t *testing.T, rec *httptest.ResponseRecorder) Response {
	t.Helper()
	var resp Response
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("unmarshal envelope: %v (body %q)", err, rec.Body.String())
	}
	return resp
}

func TestOKAndCreated(t *testing.T) {
	rec := httptest.NewRecorder()
	OK(rec, "done", map[string]string{"id": "abc"})
	if rec.Code != 200 {
		t.Fatalf("OK status = %d, want 200", rec.Code)
	}
	resp := decodeBody(t, rec)
	if !resp.Success || resp.Message != "done" || resp.Data == nil {
		t.Fatalf("unexpected envelope %+v", resp)
	}
	if ct := rec.Header().Get("Content-Type"); ct != "application/json" {
		t.Fatalf("Content-Type = %q", ct)
	}

	rec = httptest.NewRecorder()
	Created(rec, "made", nil)
	if rec.Code != 201 {
		t.Fatalf("Created status = %d, want 201", rec.Code)
	}
	if resp := decodeBody(t, rec); !resp.Success {
		t.Fatalf("Created envelope not success: %+v", resp)
	}
}

func TestErrorMapsTaxonomy(t *testing.T) {
	log := zap.NewNop()
	cases := []struct {
		name string
		err  error
		code int
	}{
		{"invalid argument", apperr.InvalidArgument("bad field"), 400},
		{"not found", apperr.NotFound("report not found"), 404},
		{"conflict", apperr.Conflict("already resolved"), 409},
		{"collaborator", apperr.CollaboratorUnavailable("priority service: timeout"), 503},
		{"internal", apperr.Internal(errors.New("boom")), 500},
		{"plain error", errors.New("boom"), 500},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			Error(rec, log, tc.err)
			if rec.Code != tc.code {
				t.Fatalf("status = %d, want %d", rec.Code, tc.code)
			}
			resp := decodeBody(t, rec)
			if resp.Success {
				t.Fatalf("failure envelope marked success: %+v", resp)
			}
			if tc.code == 500 && resp.Message != "Internal Server Error" {
				t.Fatalf("internal errors must surface generically, got %q", resp.Message)
			}
			if tc.code != 500 && resp.Message != tc.err.Error() {
				t.Fatalf("message = %q, want %q", resp.Message, tc.err.Error())
			}
		})
	}
}

func TestErrorWrappedKindsStillMap(t *testing.T) {
	err := apperr.NotFound("employee not found")
	wrapped := errors.Join(errors.New("lookup failed"), err)
	rec := httptest.NewRecorder()
	Error(rec, zap.NewNop(), wrapped)
	if rec.Code != 404 {
		t.Fatalf("status = %d, want 404", rec.Code)
	}
}

func TestDecode(t *testing.T) {
	type cmd struct {
		Name string `json:"name"`
	}

	var dst cmd
	req := httptest.NewRequest("POST", "/", strings.NewReader(`{"name":"x"}`))
	if err := Decode(req, &dst); err != nil {
		t.Fatalf("Decode valid body: %v", err)
	}
	if dst.Name != "x" {
		t.Fatalf("Name = %q", dst.Name)
	}

	req = httptest.NewRequest("POST", "/", strings.NewReader(`{"name":`))
	if err := Decode(req, &dst); !errors.Is(err, apperr.ErrInvalidArgument) {
		t.Fatalf("malformed body error = %v, want invalid argument", err)
	}

	req = httptest.NewRequest("POST", "/", strings.NewReader(`{"name":"x","bogus":1}`))
	if err := Decode(req, &dst); !errors.Is(err, apperr.ErrInvalidArgument) {
		t.Fatalf("unknown field error = %v, want invalid argument", err)
	}
}
