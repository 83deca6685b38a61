package api

import (
	"net/http"

	"github.com/JaimeStill/scribe/internal/workflow"
	"github.com/JaimeStill/scribe/pkg/handlers"
	"github.com/JaimeStill/scribe/pkg/openapi"
	"github.com/JaimeStill/scribe/pkg/routes"
)

func registerRoutes(mux *http.ServeMux, domain *Domain, runtime *Runtime) error {
	session := workflow.NewHandler(domain.Session, domain.Intake, runtime.Logger)
	artifacts := newArtifactHandler(runtime.Storage, runtime.Logger)

	table := routes.Register(
		mux,
		session.Routes(),
		artifacts.routes(),
	)

	spec, err := buildSpec(runtime, table)
	if err != nil {
		return err
	}

	mux.HandleFunc("GET /openapi.json", openapi.ServeSpec(spec))
	mux.HandleFunc("GET /{$}", func(w http.ResponseWriter, r *http.Request) {
		handlers.RespondJSON(w, http.StatusOK, table)
	})
	return nil
}

func buildSpec(runtime *Runtime, table []routes.Entry) ([]byte, error) {
	cfg := runtime.Config

	spec := openapi.NewSpec(cfg.API.OpenAPI.Title, cfg.Version)
	spec.SetDescription(cfg.API.OpenAPI.Description)
	spec.AddServer(cfg.API.BasePath)
	spec.AddEntries(table)

	return openapi.MarshalJSON(spec)
}
