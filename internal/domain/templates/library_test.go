package templates

import (
	"encoding/base64"
	"os"
	"path/filepath"
	"testing"

	"github.com/bytedance/sonic"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"lobsterboard-server-go/internal/platform/storage"
)

func emptyConfig() map[string]any {
	return map[string]any{
		"canvas":  map[string]any{"width": float64(1920), "height": float64(1080)},
		"widgets": []any{},
	}
}

func newTestLibrary(t *testing.T) (*Library, *storage.Document[map[string]any]) {
	t.Helper()
	dir := t.TempDir()
	doc := storage.NewDocument(filepath.Join(dir, "config.json"), nil, emptyConfig)
	lib := NewLibrary(filepath.Join(dir, "templates"), doc, nil)
	require.NoError(t, os.MkdirAll(lib.dir, 0o755))
	counter := 0
	lib.newID = func() string {
		counter++
		return "fixed-" + string(rune('a'+counter-1))
	}
	return lib, doc
}

func seedTemplate(t *testing.T, lib *Library, id string, cfg map[string]any) {
	t.Helper()
	dir := filepath.Join(lib.dir, id)
	require.NoError(t, os.MkdirAll(dir, 0o755))
	data, err := sonic.Marshal(cfg)
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.json"), data, 0o644))
	meta, err := sonic.Marshal(Meta{ID: id, Name: id, Preview: "preview.png"})
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(filepath.Join(dir, "meta.json"), meta, 0o644))
}

func TestList_SkipsJunk(t *testing.T) {
	lib, _ := newTestLibrary(t)
	seedTemplate(t, lib, "good", emptyConfig())
	require.NoError(t, os.WriteFile(filepath.Join(lib.dir, "templates.json"), []byte("[]"), 0o644))
	require.NoError(t, os.MkdirAll(filepath.Join(lib.dir, ".hidden"), 0o755))
	require.NoError(t, os.MkdirAll(filepath.Join(lib.dir, "broken"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(lib.dir, "broken", "meta.json"), []byte("{{{"), 0o644))

	list := lib.List()
	require.Len(t, list, 1)
	assert.Equal(t, "good", list[0].ID)
}

func TestImport_Replace(t *testing.T) {
	lib, doc := newTestLibrary(t)
	tpl := map[string]any{
		"canvas":  map[string]any{"width": float64(800), "height": float64(600)},
		"widgets": []any{map[string]any{"id": "tw1", "y": float64(0)}},
	}
	seedTemplate(t, lib, "clock", tpl)

	msg, err := lib.Import("clock", "replace")
	require.NoError(t, err)
	assert.Equal(t, "Template imported (replace)", msg)

	got := doc.Load()
	canvas := got["canvas"].(map[string]any)
	assert.Equal(t, float64(800), canvas["width"])
}

func TestImport_MergeOffsetsAndReIDs(t *testing.T) {
	lib, doc := newTestLibrary(t)
	require.NoError(t, doc.Save(map[string]any{
		"canvas": map[string]any{"width": float64(1920), "height": float64(1080)},
		"widgets": []any{
			map[string]any{"id": "existing", "y": float64(200), "height": float64(150)},
		},
	}))
	seedTemplate(t, lib, "extras", map[string]any{
		"widgets": []any{
			map[string]any{"id": "tw1", "y": float64(0), "height": float64(50)},
			map[string]any{"id": "tw2", "y": float64(60), "height": float64(50)},
		},
	})

	msg, err := lib.Import("extras", "merge")
	require.NoError(t, err)
	assert.Equal(t, "Merged 2 widgets", msg)

	widgets := doc.Load()["widgets"].([]any)
	require.Len(t, widgets, 3)

	// Existing bottom edge is 350, so imports shift down by 450.
	w1 := widgets[1].(map[string]any)
	assert.Equal(t, float64(450), w1["y"])
	assert.Equal(t, "tw1-tpl-fixed-a", w1["id"])
	w2 := widgets[2].(map[string]any)
	assert.Equal(t, float64(510), w2["y"])
	assert.NotEqual(t, w1["id"], w2["id"])
}

func TestImport_BadInput(t *testing.T) {
	lib, _ := newTestLibrary(t)
	seedTemplate(t, lib, "ok", emptyConfig())

	_, err := lib.Import("missing", "replace")
	assert.ErrorIs(t, err, ErrNotFound)

	_, err = lib.Import("../../etc", "replace")
	assert.ErrorIs(t, err, ErrNotFound, "path traversal rejected")

	_, err = lib.Import("ok", "sideways")
	assert.ErrorIs(t, err, ErrInvalidMode)
}

func TestExport_ScrubsSecrets(t *testing.T) {
	lib, doc := newTestLibrary(t)
	require.NoError(t, doc.Save(map[string]any{
		"canvas": map[string]any{"width": float64(1920), "height": float64(1080)},
		"widgets": []any{
			map[string]any{
				"id": "w1",
				"properties": map[string]any{
					"apiKey":  "sk-live-123",
					"url":     "http://192.168.1.50:3000/api",
					"icalUrl": "https://caldav.icloud.com/pub/cal.ics",
					"title":   "keep me",
				},
			},
			map[string]any{
				"id":         "w2",
				"properties": map[string]any{"refreshInterval": float64(30)},
			},
		},
	}))

	id, err := lib.Export(ExportRequest{Name: "My Dash Board!"})
	require.NoError(t, err)
	assert.Equal(t, "my-dash-board", id)

	data, err := os.ReadFile(filepath.Join(lib.dir, id, "config.json"))
	require.NoError(t, err)
	var cfg map[string]any
	require.NoError(t, sonic.Unmarshal(data, &cfg))

	widgets := cfg["widgets"].([]any)
	w1 := widgets[0].(map[string]any)
	props := w1["properties"].(map[string]any)
	assert.Equal(t, "YOUR_API_KEY_HERE", props["apiKey"])
	assert.Equal(t, "http://your-server:port/path", props["url"])
	assert.Equal(t, "", props["icalUrl"])
	assert.Equal(t, "keep me", props["title"])
	assert.Contains(t, w1["_templateNote"], "Configure this widget")

	w2 := widgets[1].(map[string]any)
	_, hasNote := w2["_templateNote"]
	assert.False(t, hasNote, "untouched widgets carry no setup note")

	// meta.json and the catalogue are written alongside.
	meta, err := os.ReadFile(filepath.Join(lib.dir, id, "meta.json"))
	require.NoError(t, err)
	var m Meta
	require.NoError(t, sonic.Unmarshal(meta, &m))
	assert.Equal(t, "My Dash Board!", m.Name)
	assert.Equal(t, "anonymous", m.Author)
	assert.Equal(t, 2, m.WidgetCount)
	assert.Equal(t, "1920x1080", m.CanvasSize)

	_, err = os.Stat(filepath.Join(lib.dir, "templates.json"))
	assert.NoError(t, err)
}

func TestExport_PublicCalendarSurvives(t *testing.T) {
	lib, doc := newTestLibrary(t)
	require.NoError(t, doc.Save(map[string]any{
		"widgets": []any{
			map[string]any{
				"id":         "cal",
				"properties": map[string]any{"icalUrl": "https://example.com/holidays.ics"},
			},
		},
	}))

	id, err := lib.Export(ExportRequest{Name: "cal"})
	require.NoError(t, err)

	cfg, err := lib.Config(id)
	require.NoError(t, err)
	props := cfg["widgets"].([]any)[0].(map[string]any)["properties"].(map[string]any)
	assert.Equal(t, "https://example.com/holidays.ics", props["icalUrl"])
}

func TestExport_NameRequired(t *testing.T) {
	lib, _ := newTestLibrary(t)
	_, err := lib.Export(ExportRequest{})
	assert.ErrorIs(t, err, ErrNameRequired)
	_, err = lib.Export(ExportRequest{Name: "!!!"})
	assert.ErrorIs(t, err, ErrNameRequired)
}

func TestSaveScreenshotAndPreviewPath(t *testing.T) {
	lib, _ := newTestLibrary(t)
	seedTemplate(t, lib, "shot", emptyConfig())

	png := base64.StdEncoding.EncodeToString([]byte("not-really-a-png"))
	require.NoError(t, lib.SaveScreenshot("shot", "data:image/png;base64,"+png))

	p, err := lib.PreviewPath("shot")
	require.NoError(t, err)
	data, err := os.ReadFile(p)
	require.NoError(t, err)
	assert.Equal(t, "not-really-a-png", string(data))

	assert.ErrorIs(t, lib.SaveScreenshot("shot", "nonsense"), ErrInvalidImage)
	assert.ErrorIs(t, lib.SaveScreenshot("missing", "data:image/png;base64,"+png), ErrNotFound)
}

func TestDelete(t *testing.T) {
	lib, _ := newTestLibrary(t)
	seedTemplate(t, lib, "gone", emptyConfig())

	require.NoError(t, lib.Delete("gone"))
	assert.ErrorIs(t, lib.Delete("gone"), ErrNotFound)
	_, err := lib.Config("gone")
	assert.ErrorIs(t, err, ErrNotFound)
}
