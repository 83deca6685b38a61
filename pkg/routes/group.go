// Package routes declares route tables and registers them on a ServeMux.
package routes

import "net/http"

// Group organizes routes under a common prefix.
type Group struct {
	Prefix   string
	Routes   []Route
	Children []Group
}

// Register adds all routes from the given groups to the mux and returns the
// resulting route table in registration order.
func Register(mux *http.ServeMux, groups ...Group) []Entry {
	var entries []Entry
	for _, group := range groups {
		entries = registerGroup(mux, "", group, entries)
	}
	return entries
}

func registerGroup(mux *http.ServeMux, parentPrefix string, group Group, entries []Entry) []Entry {
	fullPrefix := parentPrefix + group.Prefix
	for _, route := range group.Routes {
		path := fullPrefix + route.Pattern
		mux.HandleFunc(route.Method+" "+path, route.Handler)
		entries = append(entries, Entry{
			Method:      route.Method,
			Path:        path,
			Description: route.Description,
		})
	}
	for _, child := range group.Children {
		entries = registerGroup(mux, fullPrefix, child, entries)
	}
	return entries
}
