// Package version reports build information for the spikes binary.
//
// Version, commit, branch and build time are set at link time:
//
//	go build -ldflags "-X github.com/kbukum/spikekit/version.Version=1.0.0" ./cmd/spikes
//
// Anything not set falls back to the VCS stamps the Go toolchain embeds.
package version
