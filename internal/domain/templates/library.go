// Package templates manages the on-disk dashboard template library:
// one directory per template holding meta.json, config.json and an
// optional preview image.
package templates

import (
	"encoding/base64"
	"os"
	"path/filepath"
	"regexp"
	"strconv"
	"strings"

	"github.com/bytedance/sonic"
	"github.com/google/uuid"

	"lobsterboard-server-go/internal/platform/errors"
	"lobsterboard-server-go/internal/platform/logging"
	"lobsterboard-server-go/internal/platform/storage"
)

var (
	ErrNotFound     = errors.New(errors.KindStore, "templates", "Template not found")
	ErrInvalidMode  = errors.New(errors.KindStore, "templates", `Invalid mode. Use "replace" or "merge"`)
	ErrNameRequired = errors.New(errors.KindStore, "templates", "Name is required")
	ErrInvalidImage = errors.New(errors.KindStore, "templates", "Invalid image data")
)

// Meta is the template catalogue entry persisted as meta.json.
type Meta struct {
	ID            string   `json:"id"`
	Name          string   `json:"name"`
	Description   string   `json:"description"`
	Author        string   `json:"author"`
	Tags          []string `json:"tags"`
	CanvasSize    string   `json:"canvasSize"`
	WidgetCount   int      `json:"widgetCount"`
	WidgetTypes   []string `json:"widgetTypes"`
	RequiresSetup []string `json:"requiresSetup"`
	Preview       string   `json:"preview"`
}

// ExportRequest describes the template to create from the live config.
type ExportRequest struct {
	Name        string   `json:"name"`
	Description string   `json:"description"`
	Author      string   `json:"author"`
	Tags        []string `json:"tags"`
	WidgetTypes []string `json:"widgetTypes"`
}

// Library reads and writes the template directory and applies imports
// to the live dashboard config document.
type Library struct {
	dir    string
	config *storage.Document[map[string]any]
	logger *logging.Logger
	newID  func() string
}

func NewLibrary(dir string, config *storage.Document[map[string]any], logger *logging.Logger) *Library {
	return &Library{
		dir:    dir,
		config: config,
		logger: logger,
		newID:  uuid.NewString,
	}
}

// Template ids double as directory names, so anything that is not a
// plain slug is rejected before touching the filesystem.
var idPattern = regexp.MustCompile(`^[a-z0-9][a-z0-9_-]*$`)

func (l *Library) templateDir(id string) (string, error) {
	if !idPattern.MatchString(id) {
		return "", ErrNotFound
	}
	return filepath.Join(l.dir, id), nil
}

// List scans for meta.json files. Unreadable entries are skipped.
func (l *Library) List() []Meta {
	out := []Meta{}
	entries, err := os.ReadDir(l.dir)
	if err != nil {
		return out
	}
	for _, e := range entries {
		if !e.IsDir() || strings.HasPrefix(e.Name(), ".") {
			continue
		}
		data, err := os.ReadFile(filepath.Join(l.dir, e.Name(), "meta.json"))
		if err != nil {
			continue
		}
		var m Meta
		if err := sonic.Unmarshal(data, &m); err != nil {
			if l.logger != nil {
				l.logger.WarnTag("STORE", "skipping template %s: %v", e.Name(), err)
			}
			continue
		}
		out = append(out, m)
	}
	return out
}

// Config returns a template's config.json document.
func (l *Library) Config(id string) (map[string]any, error) {
	dir, err := l.templateDir(id)
	if err != nil {
		return nil, err
	}
	data, err := os.ReadFile(filepath.Join(dir, "config.json"))
	if err != nil {
		return nil, ErrNotFound
	}
	var cfg map[string]any
	if err := sonic.Unmarshal(data, &cfg); err != nil {
		return nil, errors.Wrap(errors.KindStore, "templates.config", "decode "+id, err)
	}
	return cfg, nil
}

// PreviewPath resolves the preview image for a template. The filename
// comes from meta.json and falls back to preview.png.
func (l *Library) PreviewPath(id string) (string, error) {
	dir, err := l.templateDir(id)
	if err != nil {
		return "", err
	}
	name := "preview.png"
	if data, err := os.ReadFile(filepath.Join(dir, "meta.json")); err == nil {
		var m Meta
		if sonic.Unmarshal(data, &m) == nil && m.Preview != "" {
			name = m.Preview
		}
	}
	p := filepath.Join(dir, filepath.Base(name))
	if _, err := os.Stat(p); err != nil {
		return "", ErrNotFound
	}
	return p, nil
}

// Import applies a template to the live config. Mode "replace" swaps
// the whole document; "merge" appends the template's widgets below the
// current layout with fresh ids. Returns a human summary.
func (l *Library) Import(id, mode string) (string, error) {
	tpl, err := l.Config(id)
	if err != nil {
		return "", err
	}

	switch mode {
	case "replace":
		if err := l.config.Save(tpl); err != nil {
			return "", err
		}
		return "Template imported (replace)", nil

	case "merge":
		current := l.config.Load()
		curWidgets, _ := current["widgets"].([]any)

		var maxY float64
		for _, w := range curWidgets {
			widget, ok := w.(map[string]any)
			if !ok {
				continue
			}
			y, _ := widget["y"].(float64)
			height, ok := widget["height"].(float64)
			if !ok {
				height = 100
			}
			if bottom := y + height; bottom > maxY {
				maxY = bottom
			}
		}
		offset := maxY + 100

		tplWidgets, _ := tpl["widgets"].([]any)
		added := 0
		for _, w := range tplWidgets {
			widget, ok := w.(map[string]any)
			if !ok {
				continue
			}
			oldID, _ := widget["id"].(string)
			widget["id"] = oldID + "-tpl-" + l.newID()
			y, _ := widget["y"].(float64)
			widget["y"] = y + offset
			curWidgets = append(curWidgets, widget)
			added++
		}
		current["widgets"] = curWidgets
		if err := l.config.Save(current); err != nil {
			return "", err
		}
		return "Merged " + strconv.Itoa(added) + " widgets", nil

	default:
		return "", ErrInvalidMode
	}
}

var slugStrip = regexp.MustCompile(`[^a-z0-9]+`)

// Export snapshots the live config as a new template, with secrets and
// private URLs scrubbed out of widget properties.
func (l *Library) Export(req ExportRequest) (string, error) {
	if req.Name == "" {
		return "", ErrNameRequired
	}
	id := strings.Trim(slugStrip.ReplaceAllString(strings.ToLower(req.Name), "-"), "-")
	if id == "" {
		return "", ErrNameRequired
	}
	dir := filepath.Join(l.dir, id)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", errors.Wrap(errors.KindStore, "templates.export", "create "+dir, err)
	}

	cfg := l.config.Load()
	if cfg == nil {
		cfg = map[string]any{"canvas": map[string]any{"width": 1920, "height": 1080}, "widgets": []any{}}
	}

	widgets, _ := cfg["widgets"].([]any)
	clean := make([]any, 0, len(widgets))
	for _, w := range widgets {
		widget, ok := w.(map[string]any)
		if !ok {
			continue
		}
		if props, ok := widget["properties"].(map[string]any); ok {
			scrubbed, stripped := scrubValue(props)
			widget["properties"] = scrubbed
			if stripped {
				widget["_templateNote"] = "⚠️ Configure this widget's settings after import"
			}
		}
		clean = append(clean, widget)
	}

	out := map[string]any{"canvas": cfg["canvas"], "widgets": clean}
	if err := writeJSON(filepath.Join(dir, "config.json"), out); err != nil {
		return "", err
	}

	canvasSize := "1920x1080"
	if canvas, ok := cfg["canvas"].(map[string]any); ok {
		if w, wok := canvas["width"].(float64); wok {
			if h, hok := canvas["height"].(float64); hok {
				canvasSize = strconv.Itoa(int(w)) + "x" + strconv.Itoa(int(h))
			}
		}
	}
	meta := Meta{
		ID:            id,
		Name:          req.Name,
		Description:   req.Description,
		Author:        req.Author,
		Tags:          req.Tags,
		CanvasSize:    canvasSize,
		WidgetCount:   len(clean),
		WidgetTypes:   req.WidgetTypes,
		RequiresSetup: []string{},
		Preview:       "preview.png",
	}
	if meta.Author == "" {
		meta.Author = "anonymous"
	}
	if meta.Tags == nil {
		meta.Tags = []string{}
	}
	if meta.WidgetTypes == nil {
		meta.WidgetTypes = []string{}
	}
	if err := writeJSON(filepath.Join(dir, "meta.json"), meta); err != nil {
		return "", err
	}

	// Keep the static catalogue in sync for clients that fetch it as
	// a plain file.
	if err := writeJSON(filepath.Join(l.dir, "templates.json"), l.List()); err != nil {
		return "", err
	}
	return id, nil
}

var dataURLPattern = regexp.MustCompile(`^data:image/(\w+);base64,(.+)$`)

// SaveScreenshot stores a browser-captured preview for a template.
func (l *Library) SaveScreenshot(id, dataURL string) error {
	dir, err := l.templateDir(id)
	if err != nil {
		return err
	}
	if _, err := os.Stat(dir); err != nil {
		return ErrNotFound
	}
	m := dataURLPattern.FindStringSubmatch(dataURL)
	if m == nil {
		return ErrInvalidImage
	}
	raw, err := base64.StdEncoding.DecodeString(m[2])
	if err != nil {
		return ErrInvalidImage
	}
	if err := os.WriteFile(filepath.Join(dir, "preview.png"), raw, 0o644); err != nil {
		return errors.Wrap(errors.KindStore, "templates.screenshot", "write preview", err)
	}
	return nil
}

// Delete removes a template directory.
func (l *Library) Delete(id string) error {
	dir, err := l.templateDir(id)
	if err != nil {
		return err
	}
	if _, err := os.Stat(dir); err != nil {
		return ErrNotFound
	}
	if err := os.RemoveAll(dir); err != nil {
		return errors.Wrap(errors.KindStore, "templates.delete", "remove "+id, err)
	}
	return nil
}

func writeJSON(path string, v any) error {
	data, err := sonic.MarshalIndent(v, "", "  ")
	if err != nil {
		return errors.Wrap(errors.KindStore, "templates", "marshal "+path, err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return errors.Wrap(errors.KindStore, "templates", "write "+path, err)
	}
	return nil
}

