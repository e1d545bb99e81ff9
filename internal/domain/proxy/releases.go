package proxy

import (
	"context"
	"os"
	"strings"
	"time"

	"github.com/bytedance/sonic"

	"lobsterboard-server-go/internal/platform/errors"
)

// ReleaseInfo is the wire shape of a release lookup.
type ReleaseInfo struct {
	Status      string  `json:"status"`
	Current     string  `json:"current"`
	Latest      string  `json:"latest"`
	LatestURL   string  `json:"latestUrl"`
	PublishedAt *string `json:"publishedAt"`
}

type githubRelease struct {
	TagName     string `json:"tag_name"`
	HTMLURL     string `json:"html_url"`
	PublishedAt string `json:"published_at"`
}

// ReleaseChecker looks up the latest GitHub release for a repo and
// caches the answer. Lookups for different repos cache independently.
type ReleaseChecker struct {
	client  *Client
	cache   *TTLCache[ReleaseInfo]
	apiBase string
}

func NewReleaseChecker(client *Client, ttl time.Duration) *ReleaseChecker {
	return &ReleaseChecker{
		client:  client,
		cache:   NewTTLCache[ReleaseInfo](ttl),
		apiBase: "https://api.github.com",
	}
}

// Latest returns release info for owner/repo, with current as the
// locally installed version. Failures are returned, not cached.
func (r *ReleaseChecker) Latest(ctx context.Context, repo, current string) (ReleaseInfo, error) {
	if info, ok := r.cache.Get(repo); ok {
		return info, nil
	}

	body, err := r.client.Fetch(ctx, r.apiBase+"/repos/"+repo+"/releases/latest")
	if err != nil {
		return ReleaseInfo{}, err
	}
	var rel githubRelease
	if err := sonic.Unmarshal(body, &rel); err != nil {
		return ReleaseInfo{}, errors.Wrap(errors.KindProxy, "releases", "decode release response", err)
	}

	info := ReleaseInfo{
		Status:    "ok",
		Current:   current,
		Latest:    rel.TagName,
		LatestURL: rel.HTMLURL,
	}
	if info.Latest == "" {
		info.Latest = current
	}
	if rel.PublishedAt != "" {
		info.PublishedAt = &rel.PublishedAt
	}
	r.cache.Set(repo, info)
	return info, nil
}

// VersionFromFile reads an installed version out of a local file. The
// file may be a package manifest with a "version" field or a bare
// version string; anything unreadable yields "unknown".
func VersionFromFile(path string) string {
	data, err := os.ReadFile(path)
	if err != nil {
		return "unknown"
	}
	var manifest struct {
		Version string `json:"version"`
	}
	if err := sonic.Unmarshal(data, &manifest); err == nil && manifest.Version != "" {
		return manifest.Version
	}
	if v := strings.TrimSpace(string(data)); v != "" {
		return v
	}
	return "unknown"
}
