package tenant

import (
	"net"
	"strings"
)

// NormalizeHost lowercases the host and strips any port suffix.
func NormalizeHost(host string) string {
	host = strings.ToLower(strings.TrimSpace(host))
	if h, _, err := net.SplitHostPort(host); err == nil {
		return h
	}
	return host
}

// HostLabels splits a normalized host into its dot-separated labels.
func HostLabels(host string) []string {
	if host == "" {
		return nil
	}
	return strings.Split(host, ".")
}

// IsLoopbackHost reports whether the host is a loopback or private-network
// address used for local development. Such hosts may simulate arbitrary
// tenants with a ?tenant= query parameter instead of real DNS subdomains.
func IsLoopbackHost(host string) bool {
	host = NormalizeHost(host)
	switch host {
	case "localhost", "127.0.0.1":
		return true
	}
	return strings.HasPrefix(host, "192.168.")
}
