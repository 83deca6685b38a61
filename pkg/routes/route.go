package routes

import "net/http"

// Route binds an HTTP method and pattern to a handler.
type Route struct {
	Method      string
	Pattern     string
	Handler     http.HandlerFunc
	Description string
}

// Entry describes a registered route.
type Entry struct {
	Method      string `json:"method"`
	Path        string `json:"path"`
	Description string `json:"description,omitempty"`
}
