// Package secrets keeps sensitive widget properties (API keys, tokens,
// private calendar URLs) out of the browser. Real values live only in
// the secrets document; the dashboard config carries a sentinel and the
// browser sees a display placeholder.
package secrets

import (
	"lobsterboard-server-go/internal/platform/storage"
)

const (
	// Sentinel marks a secret-bearing property inside the persisted
	// dashboard config.
	Sentinel = "__SECRET__"
	// Placeholder is what the browser sees instead of a secret.
	Placeholder = "••••••••"
)

// Closed set of property names treated as sensitive.
var sensitiveKeys = map[string]struct{}{
	"apiKey":   {},
	"api_key":  {},
	"token":    {},
	"secret":   {},
	"password": {},
	"icalUrl":  {},
}

func IsSensitiveKey(key string) bool {
	_, ok := sensitiveKeys[key]
	return ok
}

// Values maps widget-id -> property-name -> secret value.
type Values = map[string]map[string]string

// Store is the file-backed secret store.
type Store struct {
	doc *storage.Document[Values]
}

func NewStore(doc *storage.Document[Values]) *Store {
	return &Store{doc: doc}
}

// EmptyValues is the zero state for the backing document.
func EmptyValues() Values {
	return Values{}
}

// Get returns the stored secret for a widget property.
func (s *Store) Get(widgetID, key string) (string, bool) {
	props, ok := s.doc.Load()[widgetID]
	if !ok {
		return "", false
	}
	v, ok := props[key]
	return v, ok
}

// Put merges updates into a widget's stored secrets.
func (s *Store) Put(widgetID string, updates map[string]string) error {
	all := s.doc.Load()
	props, ok := all[widgetID]
	if !ok {
		props = map[string]string{}
		all[widgetID] = props
	}
	for k, v := range updates {
		props[k] = v
	}
	return s.doc.Save(all)
}

// Delete removes one secret, pruning the widget entry when it empties.
func (s *Store) Delete(widgetID, key string) error {
	all := s.doc.Load()
	props, ok := all[widgetID]
	if !ok {
		return nil
	}
	delete(props, key)
	if len(props) == 0 {
		delete(all, widgetID)
	}
	return s.doc.Save(all)
}
