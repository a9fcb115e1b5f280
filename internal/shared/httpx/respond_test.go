package httpx

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/radieske/line-bet-platform/internal/shared/errs"
)

func TestWriteError(t *testing.T) {
	t.Parallel()

	rec := httptest.NewRecorder()
	WriteError(rec, errs.NotFound("bet", "b-1"))

	if rec.Code != http.StatusNotFound {
		t.Fatalf("status = %d, want %d", rec.Code, http.StatusNotFound)
	}
	var body ErrorBody
	if err := json.NewDecoder(rec.Body).Decode(&body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if body.Code != "not_found" {
		t.Fatalf("code = %q, want not_found", body.Code)
	}
	if body.Error != "bet 'b-1': not found" {
		t.Fatalf("error = %q", body.Error)
	}
}

func TestWriteErrorStatusOverride(t *testing.T) {
	t.Parallel()

	rec := httptest.NewRecorder()
	WriteErrorStatus(rec, http.StatusBadRequest, errs.InvalidState("event", "E1", "event is not accepting bets"))

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want %d", rec.Code, http.StatusBadRequest)
	}
	if ct := rec.Header().Get("Content-Type"); ct != "application/json" {
		t.Fatalf("content-type = %q", ct)
	}
}
