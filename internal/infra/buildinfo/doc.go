// Package buildinfo provides build information for chgrid.
//
// Values are injected at build time via ldflags:
//
//	go build -ldflags "-X github.com/yndnr/chgrid-go/internal/infra/buildinfo.Version=v1.0.0"
//
// Anything left unset falls back to the VCS stamp the go toolchain embeds
// in the binary.
package buildinfo
