package templates

import "regexp"

// Keys scrubbed to a placeholder on export. icalUrl is handled
// separately: calendar URLs are only dropped when they look like they
// embed an auth token, so public calendars survive in templates.
var exportSensitiveKeys = map[string]struct{}{
	"apiKey":   {},
	"api_key":  {},
	"token":    {},
	"secret":   {},
	"password": {},
}

var (
	privateHostURL = regexp.MustCompile(`(?i)^https?://(10\.\d+\.\d+\.\d+|192\.168\.\d+\.\d+|localhost|127\.0\.0\.1)`)

	privateTokenPatterns = []*regexp.Regexp{
		regexp.MustCompile(`(?i)[?&/]private[-_]?[a-f0-9]`),
		regexp.MustCompile(`(?i)caldav\.icloud\.com`),
		regexp.MustCompile(`(?i)/private/`),
	}
)

const (
	scrubKeyReplacement = "YOUR_API_KEY_HERE"
	scrubURLReplacement = "http://your-server:port/path"
)

// scrubValue returns a scrubbed copy of widget properties and whether
// anything was removed.
func scrubValue(props map[string]any) (map[string]any, bool) {
	out, stripped := scrubMap(props)
	return out, stripped
}

func scrubMap(m map[string]any) (map[string]any, bool) {
	out := make(map[string]any, len(m))
	stripped := false
	for key, val := range m {
		switch {
		case isExportSensitive(key):
			out[key] = scrubKeyReplacement
			stripped = true
		case key == "url" || key == "endpoint":
			if s, ok := val.(string); ok && privateHostURL.MatchString(s) {
				out[key] = scrubURLReplacement
				stripped = true
			} else {
				out[key] = val
			}
		case key == "icalUrl":
			if s, ok := val.(string); ok && s != "" && hasPrivateToken(s) {
				out[key] = ""
				stripped = true
			} else {
				out[key] = val
			}
		default:
			child, childStripped := scrubAny(val)
			out[key] = child
			stripped = stripped || childStripped
		}
	}
	return out, stripped
}

func scrubAny(v any) (any, bool) {
	switch t := v.(type) {
	case map[string]any:
		return scrubMap(t)
	case []any:
		out := make([]any, len(t))
		stripped := false
		for i, e := range t {
			child, childStripped := scrubAny(e)
			out[i] = child
			stripped = stripped || childStripped
		}
		return out, stripped
	default:
		return v, false
	}
}

func isExportSensitive(key string) bool {
	_, ok := exportSensitiveKeys[key]
	return ok
}

func hasPrivateToken(url string) bool {
	for _, p := range privateTokenPatterns {
		if p.MatchString(url) {
			return true
		}
	}
	return false
}
