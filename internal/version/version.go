// Package version carries the build version reported by the release
// check endpoint.
package version

// Version is overridden at build time via
// -ldflags "-X lobsterboard-server-go/internal/version.Version=...".
var Version = "1.0.0"
