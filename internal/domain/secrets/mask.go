package secrets

import (
	"github.com/bytedance/sonic"

	"lobsterboard-server-go/internal/platform/errors"
)

// MaskConfig returns a deep copy of the dashboard config with every
// sensitive widget property that has a secret on file (or carries the
// sentinel) replaced by the display placeholder. Masking is idempotent:
// an already-masked document masks to itself.
func (s *Store) MaskConfig(cfg map[string]any) map[string]any {
	masked, err := deepCopy(cfg)
	if err != nil {
		// A config that round-trips through JSON storage always copies;
		// fall back to the original rather than failing the read path.
		return cfg
	}

	all := s.doc.Load()
	forEachWidgetProperty(masked, func(widgetID string, props map[string]any, key string) {
		if !IsSensitiveKey(key) {
			return
		}
		val, _ := props[key].(string)
		_, stored := all[widgetID][key]
		if val == Sentinel || val == Placeholder || stored {
			props[key] = Placeholder
		}
	})
	return masked
}

// ExtractSecrets processes a config arriving from the browser on save:
// real sensitive values are moved into the secret store and replaced by
// the sentinel; a value still showing the display placeholder means the
// user left the field untouched, so the stored secret is kept and the
// sentinel is written regardless. The placeholder string itself is
// never stored as a secret.
func (s *Store) ExtractSecrets(cfg map[string]any) (map[string]any, error) {
	all := s.doc.Load()
	changed := false

	forEachWidgetProperty(cfg, func(widgetID string, props map[string]any, key string) {
		if !IsSensitiveKey(key) {
			return
		}
		val, _ := props[key].(string)
		switch {
		case val != "" && val != Sentinel && val != Placeholder:
			if all[widgetID] == nil {
				all[widgetID] = map[string]string{}
			}
			all[widgetID][key] = val
			props[key] = Sentinel
			changed = true
		case val == Placeholder:
			props[key] = Sentinel
		}
	})

	if changed {
		if err := s.doc.Save(all); err != nil {
			return nil, errors.Wrap(errors.KindStore, "secrets.extract", "persist secret store", err)
		}
	}
	return cfg, nil
}

func forEachWidgetProperty(cfg map[string]any, fn func(widgetID string, props map[string]any, key string)) {
	widgets, _ := cfg["widgets"].([]any)
	for _, w := range widgets {
		widget, ok := w.(map[string]any)
		if !ok {
			continue
		}
		id, _ := widget["id"].(string)
		props, ok := widget["properties"].(map[string]any)
		if !ok {
			continue
		}
		for key := range props {
			fn(id, props, key)
		}
	}
}

func deepCopy(cfg map[string]any) (map[string]any, error) {
	data, err := sonic.Marshal(cfg)
	if err != nil {
		return nil, err
	}
	var out map[string]any
	if err := sonic.Unmarshal(data, &out); err != nil {
		return nil, err
	}
	return out, nil
}
