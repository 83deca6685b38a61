package handlers_test

import (
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/JaimeStill/scribe/pkg/handlers"
)

func TestRespondJSON(t *testing.T) {
	rec := httptest.NewRecorder()
	handlers.RespondJSON(rec, http.StatusCreated, map[string]int{"n": 3})

	if rec.Code != http.StatusCreated {
		t.Errorf("status: got %d, want 201", rec.Code)
	}
	if got := rec.Header().Get("Content-Type"); got != "application/json" {
		t.Errorf("content type: got %s", got)
	}

	var body map[string]int
	if err := json.NewDecoder(rec.Body).Decode(&body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if body["n"] != 3 {
		t.Errorf("body: got %v", body)
	}
}

func TestRespondError(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	rec := httptest.NewRecorder()
	handlers.RespondError(rec, logger, http.StatusConflict, errors.New("wrong stage"))

	if rec.Code != http.StatusConflict {
		t.Errorf("status: got %d, want 409", rec.Code)
	}

	var body handlers.ErrorResponse
	if err := json.NewDecoder(rec.Body).Decode(&body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if body.Error != "wrong stage" {
		t.Errorf("error: got %q", body.Error)
	}
}

func TestDecodeJSON(t *testing.T) {
	type payload struct {
		Text string `json:"text"`
	}

	tests := []struct {
		name    string
		body    string
		want    string
		wantErr bool
	}{
		{"valid", `{"text":"hello"}`, "hello", false},
		{"empty body", ``, "", false},
		{"unknown field", `{"txt":"hello"}`, "", true},
		{"malformed", `{"text":`, "", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest("PUT", "/", strings.NewReader(tt.body))
			var p payload
			err := handlers.DecodeJSON(req, &p)
			if (err != nil) != tt.wantErr {
				t.Fatalf("error: got %v, wantErr %v", err, tt.wantErr)
			}
			if p.Text != tt.want {
				t.Errorf("text: got %q, want %q", p.Text, tt.want)
			}
		})
	}
}
