package handler

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestWriteJSON(t *testing.T) {
	t.Run("sets content type and status code", func(t *testing.T) {
		w := httptest.NewRecorder()
		data := map[string]string{"status": "ok"}

		WriteJSON(w, http.StatusOK, data)

		if got := w.Header().Get("Content-Type"); got != "application/json" {
			t.Errorf("Content-Type = %q, want %q", got, "application/json")
		}
		if w.Code != http.StatusOK {
			t.Errorf("status code = %d, want %d", w.Code, http.StatusOK)
		}

		var result map[string]string
		if err := json.NewDecoder(w.Body).Decode(&result); err != nil {
			t.Fatalf("failed to decode response: %v", err)
		}
		if result["status"] != "ok" {
			t.Errorf("body status = %q, want %q", result["status"], "ok")
		}
	})

	t.Run("encodes struct with snake_case tags", func(t *testing.T) {
		type resp struct {
			DealID uint64 `json:"deal_id"`
			Status string `json:"status"`
		}
		w := httptest.NewRecorder()
		WriteJSON(w, http.StatusOK, resp{DealID: 1, Status: "open"})

		var raw map[string]any
		if err := json.NewDecoder(w.Body).Decode(&raw); err != nil {
			t.Fatalf("failed to decode: %v", err)
		}
		if raw["deal_id"] != float64(1) {
			t.Errorf("deal_id = %v, want 1", raw["deal_id"])
		}
		if raw["status"] != "open" {
			t.Errorf("status = %v, want %q", raw["status"], "open")
		}
	})

	t.Run("encodes null fields", func(t *testing.T) {
		type resp struct {
			LockedAt *string `json:"locked_at"`
		}
		w := httptest.NewRecorder()
		WriteJSON(w, http.StatusOK, resp{LockedAt: nil})

		var raw map[string]any
		if err := json.NewDecoder(w.Body).Decode(&raw); err != nil {
			t.Fatalf("failed to decode: %v", err)
		}
		if raw["locked_at"] != nil {
			t.Errorf("locked_at = %v, want nil", raw["locked_at"])
		}
	})
}

func TestWriteError(t *testing.T) {
	t.Run("writes standard error format", func(t *testing.T) {
		w := httptest.NewRecorder()

		WriteError(w, http.StatusBadRequest, "validation_error", "deal_id must be a positive integer")

		if w.Code != http.StatusBadRequest {
			t.Errorf("status code = %d, want %d", w.Code, http.StatusBadRequest)
		}
		if got := w.Header().Get("Content-Type"); got != "application/json" {
			t.Errorf("Content-Type = %q, want %q", got, "application/json")
		}

		var resp errorResponse
		if err := json.NewDecoder(w.Body).Decode(&resp); err != nil {
			t.Fatalf("failed to decode: %v", err)
		}
		if resp.Error != "validation_error" {
			t.Errorf("error = %q, want %q", resp.Error, "validation_error")
		}
		if resp.Message != "deal_id must be a positive integer" {
			t.Errorf("message = %q, want %q", resp.Message, "deal_id must be a positive integer")
		}
	})

	t.Run("writes 404 error", func(t *testing.T) {
		w := httptest.NewRecorder()

		WriteError(w, http.StatusNotFound, "deal_not_found", "Deal not found")

		if w.Code != http.StatusNotFound {
			t.Errorf("status code = %d, want %d", w.Code, http.StatusNotFound)
		}

		var resp errorResponse
		if err := json.NewDecoder(w.Body).Decode(&resp); err != nil {
			t.Fatalf("failed to decode: %v", err)
		}
		if resp.Error != "deal_not_found" {
			t.Errorf("error = %q, want %q", resp.Error, "deal_not_found")
		}
	})
}
