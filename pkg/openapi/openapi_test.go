package openapi_test

import (
	"encoding/json"
	"net/http/httptest"
	"testing"

	"github.com/JaimeStill/scribe/pkg/openapi"
	"github.com/JaimeStill/scribe/pkg/routes"
)

func TestAddEntries(t *testing.T) {
	spec := openapi.NewSpec("Test API", "1.0.0")
	spec.AddEntries([]routes.Entry{
		{Method: "GET", Path: "/session", Description: "snapshot"},
		{Method: "POST", Path: "/session/pages/{n}"},
		{Method: "GET", Path: "/artifacts/{key...}"},
		{Method: "DELETE", Path: "/artifacts/{key...}"},
	})

	session, ok := spec.Paths["/session"]
	if !ok || session.Get == nil {
		t.Fatal("missing GET /session")
	}
	if session.Get.Summary != "snapshot" {
		t.Errorf("summary: got %q", session.Get.Summary)
	}
	if session.Get.Tags[0] != "session" {
		t.Errorf("tag: got %v", session.Get.Tags)
	}

	page := spec.Paths["/session/pages/{n}"]
	if page == nil || page.Post == nil || len(page.Post.Parameters) != 1 {
		t.Fatalf("page path: got %+v", page)
	}
	if p := page.Post.Parameters[0]; p.Name != "n" || p.In != "path" || !p.Required {
		t.Errorf("parameter: got %+v", p)
	}

	artifacts := spec.Paths["/artifacts/{key}"]
	if artifacts == nil || artifacts.Get == nil || artifacts.Delete == nil {
		t.Fatalf("artifacts path: got %+v", artifacts)
	}
	if _, ok := artifacts.Delete.Responses[204]; !ok {
		t.Error("delete missing 204 response")
	}
}

func TestConfigDefaults(t *testing.T) {
	var cfg openapi.Config
	if err := cfg.Finalize(nil); err != nil {
		t.Fatalf("finalize: %v", err)
	}
	if cfg.Title != "Scribe API" {
		t.Errorf("title: got %q", cfg.Title)
	}

	t.Setenv("TEST_OPENAPI_TITLE", "Custom")
	cfg = openapi.Config{}
	cfg.Finalize(&openapi.ConfigEnv{Title: "TEST_OPENAPI_TITLE"})
	if cfg.Title != "Custom" {
		t.Errorf("env title: got %q", cfg.Title)
	}
}

func TestServeSpec(t *testing.T) {
	spec := openapi.NewSpec("Test API", "1.0.0")
	spec.AddServer("/api")
	data, err := openapi.MarshalJSON(spec)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}

	rec := httptest.NewRecorder()
	openapi.ServeSpec(data)(rec, httptest.NewRequest("GET", "/openapi.json", nil))

	var doc map[string]any
	if err := json.Unmarshal(rec.Body.Bytes(), &doc); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if doc["openapi"] != "3.1.0" {
		t.Errorf("openapi: got %v", doc["openapi"])
	}
	components := doc["components"].(map[string]any)
	if _, ok := components["responses"].(map[string]any)["Conflict"]; !ok {
		t.Error("missing Conflict component")
	}
}
