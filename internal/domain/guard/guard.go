// Package guard decides whether a user-supplied URL is safe for the
// server process itself to fetch. Dashboard widget properties are
// attacker-controlled, so every proxied fetch goes through CheckURL,
// including each redirect hop.
//
// The check is hostname/literal-IP based only: a public hostname that
// resolves to a private address at fetch time (DNS rebinding) is not
// caught. This is a known limitation, kept deliberately.
package guard

import (
	"fmt"
	"net"
	"net/url"
	"strings"

	"lobsterboard-server-go/internal/platform/errors"
)

var (
	// ErrScheme is returned for anything that is not plain http(s).
	ErrScheme = errors.New(errors.KindProxy, "guard", "only http and https URLs are allowed")
	// ErrPrivateHost is returned for loopback, private, link-local and
	// unique-local targets.
	ErrPrivateHost = errors.New(errors.KindProxy, "guard", "URLs pointing to private/internal addresses are not allowed")
)

// CheckURL returns nil when the URL may be fetched server-side.
func CheckURL(raw string) error {
	u, err := url.Parse(raw)
	if err != nil || u.Host == "" {
		return errors.Wrap(errors.KindProxy, "guard", fmt.Sprintf("invalid URL %q", raw), err)
	}

	if u.Scheme != "http" && u.Scheme != "https" {
		return ErrScheme
	}

	host := strings.ToLower(u.Hostname())
	if host == "localhost" {
		return ErrPrivateHost
	}

	ip := net.ParseIP(host)
	if ip == nil {
		// A hostname; resolution happens at fetch time and is not
		// re-checked here.
		return nil
	}
	if isPrivateIP(ip) {
		return ErrPrivateHost
	}
	return nil
}

// IsFetchAllowed is the predicate form of CheckURL.
func IsFetchAllowed(raw string) bool {
	return CheckURL(raw) == nil
}

func isPrivateIP(ip net.IP) bool {
	switch {
	case ip.IsLoopback(): // 127.0.0.0/8, ::1
		return true
	case ip.IsPrivate(): // 10/8, 172.16/12, 192.168/16, fc00::/7
		return true
	case ip.IsLinkLocalUnicast(): // 169.254/16, fe80::/10
		return true
	case ip.IsUnspecified(): // 0.0.0.0, ::
		return true
	}
	// The rest of 0.0.0.0/8 is unroutable "this network" space.
	if v4 := ip.To4(); v4 != nil && v4[0] == 0 {
		return true
	}
	return false
}
