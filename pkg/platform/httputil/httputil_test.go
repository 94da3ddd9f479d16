package httputil

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	dErrors "cityscope/pkg/domain-errors"
)

func TestWriteError(t *testing.T) {
	t.Run("internal error omits description", func(t *testing.T) {
		w := httptest.NewRecorder()
		WriteError(w, dErrors.New(dErrors.CodeInternal, "db failed"))

		if w.Code != http.StatusInternalServerError {
			t.Fatalf("expected status %d, got %d", http.StatusInternalServerError, w.Code)
		}

		var body map[string]string
		if err := json.NewDecoder(w.Body).Decode(&body); err != nil {
			t.Fatalf("decode response: %v", err)
		}
		if body["error"] != "internal_error" {
			t.Fatalf("expected error code internal_error, got %q", body["error"])
		}
		if _, ok := body["error_description"]; ok {
			t.Fatalf("expected error_description to be omitted for internal errors")
		}
	})

	t.Run("uncoded error renders as internal", func(t *testing.T) {
		w := httptest.NewRecorder()
		WriteError(w, errors.New("boom"))

		if w.Code != http.StatusInternalServerError {
			t.Fatalf("expected status %d, got %d", http.StatusInternalServerError, w.Code)
		}
	})

	t.Run("bad gateway includes description", func(t *testing.T) {
		w := httptest.NewRecorder()
		WriteError(w, dErrors.Wrap(errors.New("dial tcp"), dErrors.CodeBadGateway, "geocoding lookup failed"))

		if w.Code != http.StatusBadGateway {
			t.Fatalf("expected status %d, got %d", http.StatusBadGateway, w.Code)
		}

		var body map[string]string
		if err := json.NewDecoder(w.Body).Decode(&body); err != nil {
			t.Fatalf("decode response: %v", err)
		}
		if body["error"] != "bad_gateway" {
			t.Fatalf("expected error code bad_gateway, got %q", body["error"])
		}
		if body["error_description"] != "geocoding lookup failed" {
			t.Fatalf("expected error_description to be returned, got %q", body["error_description"])
		}
	})
}

func TestQueryInt(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/districts?page=3&size=abc&big=9000", nil)

	if v, err := QueryInt(req, "page", 1, 1, 100); err != nil || v != 3 {
		t.Fatalf("expected page 3, got %d (%v)", v, err)
	}
	if v, err := QueryInt(req, "missing", 20, 1, 500); err != nil || v != 20 {
		t.Fatalf("expected default 20, got %d (%v)", v, err)
	}
	if _, err := QueryInt(req, "size", 20, 1, 500); !dErrors.HasCode(err, dErrors.CodeValidation) {
		t.Fatalf("expected validation error for non-integer, got %v", err)
	}
	if _, err := QueryInt(req, "big", 20, 1, 500); !dErrors.HasCode(err, dErrors.CodeValidation) {
		t.Fatalf("expected validation error for out-of-range value, got %v", err)
	}
}
