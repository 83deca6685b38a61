package routes_test

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/JaimeStill/scribe/pkg/routes"
)

func ok(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
}

func TestRegister(t *testing.T) {
	mux := http.NewServeMux()

	entries := routes.Register(mux, routes.Group{
		Prefix: "/session",
		Routes: []routes.Route{
			{Method: "GET", Pattern: "", Handler: ok, Description: "snapshot"},
		},
		Children: []routes.Group{
			{
				Prefix: "/pages",
				Routes: []routes.Route{
					{Method: "POST", Pattern: "/next", Handler: ok},
					{Method: "POST", Pattern: "/{n}", Handler: ok},
				},
			},
		},
	})

	wantEntries := []routes.Entry{
		{Method: "GET", Path: "/session", Description: "snapshot"},
		{Method: "POST", Path: "/session/pages/next"},
		{Method: "POST", Path: "/session/pages/{n}"},
	}
	if len(entries) != len(wantEntries) {
		t.Fatalf("entries: got %d, want %d", len(entries), len(wantEntries))
	}
	for i, want := range wantEntries {
		if entries[i] != want {
			t.Errorf("entry %d: got %+v, want %+v", i, entries[i], want)
		}
	}

	tests := []struct {
		name   string
		method string
		path   string
		want   int
	}{
		{"group root", "GET", "/session", http.StatusOK},
		{"child literal", "POST", "/session/pages/next", http.StatusOK},
		{"child wildcard", "POST", "/session/pages/3", http.StatusOK},
		{"wrong method", "GET", "/session/pages/3", http.StatusMethodNotAllowed},
		{"unknown", "GET", "/other", http.StatusNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			mux.ServeHTTP(rec, httptest.NewRequest(tt.method, tt.path, nil))
			if rec.Code != tt.want {
				t.Errorf("status: got %d, want %d", rec.Code, tt.want)
			}
		})
	}
}
