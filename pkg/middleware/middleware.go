// Package middleware provides composable HTTP middleware and the stack that applies it.
package middleware

import "net/http"

// System manages an ordered stack of HTTP middleware.
// The first middleware added is the outermost.
type System interface {
	Use(mw ...func(http.Handler) http.Handler)
	Apply(handler http.Handler) http.Handler
}

type stack []func(http.Handler) http.Handler

// New creates a System seeded with mw.
func New(mw ...func(http.Handler) http.Handler) System {
	s := make(stack, 0, len(mw))
	return s.with(mw)
}

func (s *stack) Use(mw ...func(http.Handler) http.Handler) {
	*s = append(*s, mw...)
}

func (s *stack) Apply(handler http.Handler) http.Handler {
	for i := len(*s) - 1; i >= 0; i-- {
		handler = (*s)[i](handler)
	}
	return handler
}

func (s stack) with(mw []func(http.Handler) http.Handler) *stack {
	s = append(s, mw...)
	return &s
}
