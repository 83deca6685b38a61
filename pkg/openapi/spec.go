// Package openapi builds an OpenAPI 3.1 document from a registered route table.
package openapi

import (
	"encoding/json"
	"net/http"
	"regexp"
	"strings"

	"github.com/JaimeStill/scribe/pkg/routes"
)

// Spec represents an OpenAPI 3.1 specification document.
type Spec struct {
	OpenAPI    string               `json:"openapi"`
	Info       *Info                `json:"info"`
	Servers    []*Server            `json:"servers,omitempty"`
	Paths      map[string]*PathItem `json:"paths"`
	Components *Components          `json:"components,omitempty"`
}

// NewSpec creates a Spec with the given title, version, and the shared error components.
func NewSpec(title, version string) *Spec {
	return &Spec{
		OpenAPI: "3.1.0",
		Info: &Info{
			Title:   title,
			Version: version,
		},
		Components: newComponents(),
		Paths:      make(map[string]*PathItem),
	}
}

// AddServer appends a server URL to the spec.
func (s *Spec) AddServer(url string) {
	s.Servers = append(s.Servers, &Server{URL: url})
}

// SetDescription sets the API description in the info object.
func (s *Spec) SetDescription(desc string) {
	s.Info.Description = desc
}

var wildcard = regexp.MustCompile(`\{([A-Za-z_][A-Za-z0-9_]*)(\.\.\.)?\}`)

// AddEntries documents each route table entry. ServeMux wildcards become
// string path parameters; a trailing {name...} is documented as {name}.
func (s *Spec) AddEntries(entries []routes.Entry) {
	for _, e := range entries {
		path := wildcard.ReplaceAllString(e.Path, "{$1}")
		if path == "" {
			path = "/"
		}

		item, ok := s.Paths[path]
		if !ok {
			item = &PathItem{}
			s.Paths[path] = item
		}

		op := &Operation{
			Summary:   e.Description,
			Tags:      []string{tag(path)},
			Responses: defaultResponses(e.Method),
		}
		for _, m := range wildcard.FindAllStringSubmatch(e.Path, -1) {
			op.Parameters = append(op.Parameters, PathParam(m[1], ""))
		}

		item.set(e.Method, op)
	}
}

// MarshalJSON serializes the spec to indented JSON bytes.
func MarshalJSON(spec *Spec) ([]byte, error) {
	return json.MarshalIndent(spec, "", "  ")
}

// ServeSpec returns a handler that serves pre-serialized JSON spec bytes.
func ServeSpec(specBytes []byte) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json; charset=utf-8")
		w.WriteHeader(http.StatusOK)
		w.Write(specBytes)
	}
}

func tag(path string) string {
	first, _, _ := strings.Cut(strings.TrimPrefix(path, "/"), "/")
	if first == "" {
		return "index"
	}
	return first
}

func defaultResponses(method string) map[int]*Response {
	ok := &Response{Description: "Success"}
	if method == http.MethodDelete {
		return map[int]*Response{
			http.StatusNoContent: {Description: "Deleted"},
			http.StatusNotFound:  ResponseRef("NotFound"),
		}
	}
	return map[int]*Response{
		http.StatusOK:         ok,
		http.StatusBadRequest: ResponseRef("BadRequest"),
		http.StatusConflict:   ResponseRef("Conflict"),
		http.StatusBadGateway: ResponseRef("BadGateway"),
	}
}

func newComponents() *Components {
	errorBody := func(description string) *Response {
		return &Response{
			Description: description,
			Content: map[string]*MediaType{
				"application/json": {Schema: SchemaRef("Error")},
			},
		}
	}

	return &Components{
		Schemas: map[string]*Schema{
			"Error": {
				Type:     "object",
				Required: []string{"error"},
				Properties: map[string]*Schema{
					"error": {Type: "string", Description: "Error message"},
				},
			},
		},
		Responses: map[string]*Response{
			"BadRequest": errorBody("Request rejected before reaching the job engine"),
			"NotFound":   errorBody("Resource not found"),
			"Conflict":   errorBody("Operation not valid in the current workflow stage"),
			"BadGateway": errorBody("Job engine unreachable or answered with an error"),
		},
	}
}
