package api

import (
	"fmt"
	"io"
	"log/slog"
	"mime"
	"net/http"
	"path"

	"github.com/JaimeStill/scribe/pkg/handlers"
	"github.com/JaimeStill/scribe/pkg/routes"
	"github.com/JaimeStill/scribe/pkg/storage"
)

type artifactHandler struct {
	store  storage.System
	logger *slog.Logger
}

func newArtifactHandler(store storage.System, logger *slog.Logger) *artifactHandler {
	return &artifactHandler{
		store:  store,
		logger: logger.With("handler", "artifacts"),
	}
}

func (h *artifactHandler) routes() routes.Group {
	return routes.Group{
		Prefix: "/artifacts",
		Routes: []routes.Route{
			{Method: "GET", Pattern: "/{key...}", Handler: h.download, Description: "read a stored report artifact"},
			{Method: "DELETE", Pattern: "/{key...}", Handler: h.remove},
		},
	}
}

func (h *artifactHandler) download(w http.ResponseWriter, r *http.Request) {
	key := r.PathValue("key")

	body, err := h.store.Download(r.Context(), key)
	if err != nil {
		handlers.RespondError(
			w, h.logger,
			storage.MapHTTPStatus(err), err,
		)
		return
	}
	defer body.Close()

	contentType := mime.TypeByExtension(path.Ext(key))
	if contentType == "" {
		contentType = "application/octet-stream"
	}

	w.Header().Set("Content-Type", contentType)
	w.Header().Set(
		"Content-Disposition",
		fmt.Sprintf("attachment; filename=%q", path.Base(key)),
	)
	w.WriteHeader(http.StatusOK)
	io.Copy(w, body)
}

func (h *artifactHandler) remove(w http.ResponseWriter, r *http.Request) {
	if err := h.store.Delete(r.Context(), r.PathValue("key")); err != nil {
		handlers.RespondError(
			w, h.logger,
			storage.MapHTTPStatus(err), err,
		)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
