// Package buildinfo holds version metadata stamped in at link time.
package buildinfo

// Version is overridden at build time via:
//
//	go build -ldflags "-X github.com/tobixen/thrash-protect-go/internal/buildinfo.Version=1.2.3"
var Version = "0.0.0-dev"
