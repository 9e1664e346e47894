// Package prompt serves the externally configured extraction templates,
// keyed by a lower-cased indexador string.
package prompt

import (
	"context"
	"strings"
	"time"
)

// Template is one configured prompt.
type Template struct {
	Indexador string    `json:"indexador"`
	Prompt    string    `json:"prompt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// Store is the lookup interface. Get returns (nil, nil) when no template is
// configured for the indexador; callers fall back to the built-in defaults.
type Store interface {
	Get(ctx context.Context, indexador string) (*Template, error)
}

// Render substitutes {{placeholder}} markers in tmpl.
func Render(tmpl string, vars map[string]string) string {
	out := tmpl
	for k, v := range vars {
		out = strings.ReplaceAll(out, "{{"+k+"}}", v)
	}
	return out
}

// Resolve walks indexadores in order and returns the first configured
// template's text, or fallback when none is found. Lookup errors are
// swallowed into the fallback since a broken template store must not fail
// extraction.
func Resolve(ctx context.Context, store Store, fallback string, indexadores ...string) string {
	if store == nil {
		return fallback
	}
	for _, idx := range indexadores {
		t, err := store.Get(ctx, strings.ToLower(idx))
		if err == nil && t != nil && strings.TrimSpace(t.Prompt) != "" {
			return t.Prompt
		}
	}
	return fallback
}

// MemStore is an in-memory Store for tests and stub deployments.
type MemStore struct {
	Templates map[string]string
}

func (m *MemStore) Get(_ context.Context, indexador string) (*Template, error) {
	if m == nil || m.Templates == nil {
		return nil, nil
	}
	p, ok := m.Templates[strings.ToLower(indexador)]
	if !ok {
		return nil, nil
	}
	return &Template{Indexador: strings.ToLower(indexador), Prompt: p, UpdatedAt: time.Now()}, nil
}
