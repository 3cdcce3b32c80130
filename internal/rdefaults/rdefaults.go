// Package rdefaults holds the default socket, HTTP, and data-root
// locations shared by the daemon and CLI entrypoints.
package rdefaults

import "runtime"

const (
	defaultSocketDarwin = "/tmp/rungscand.sock"
	defaultSocketLinux  = "/var/run/rungscand.sock"

	defaultDataRootDarwin = "/usr/local/var/lib/rungscan"
	defaultDataRootLinux  = "/var/lib/rungscan"
)

// SocketPath returns the platform default control-socket path.
func SocketPath() string {
	if runtime.GOOS == "darwin" {
		return defaultSocketDarwin
	}
	return defaultSocketLinux
}

// DataRoot returns the platform default data directory.
func DataRoot() string {
	if runtime.GOOS == "darwin" {
		return defaultDataRootDarwin
	}
	return defaultDataRootLinux
}

// HTTPAddr is the default bind address for the read-only status/stream
// HTTP surface.
const HTTPAddr = "127.0.0.1:7654"
