// Package buildinfo carries build-time metadata injected via ldflags:
//
//	go build -ldflags "\
//	  -X github.com/okhomin/freightbot/core/buildinfo.Version=v1.2.3 \
//	  -X github.com/okhomin/freightbot/core/buildinfo.Commit=$(git rev-parse --short HEAD) \
//	  -X github.com/okhomin/freightbot/core/buildinfo.Date=$(date -u +%Y-%m-%dT%H:%M:%SZ)"
package buildinfo

var (
	Version = "dev"
	Commit  = "none"
	Date    = "unknown"
)
