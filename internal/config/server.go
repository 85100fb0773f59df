package config

import (
	"net"
	"strings"
)

// ConstructServerURI normalizes a block server address supplied by the host.
// An empty address selects DefaultServerURI, a missing scheme becomes http://
// and a missing port becomes DefaultServerPort.
func ConstructServerURI(raw string) string {
	s := strings.TrimSpace(raw)
	if s == "" {
		return DefaultServerURI
	}

	scheme := "http"
	if i := strings.Index(s, "://"); i >= 0 {
		scheme = strings.ToLower(s[:i])
		s = s[i+3:]
	}

	hostPort, path, _ := strings.Cut(s, "/")
	if _, _, err := net.SplitHostPort(hostPort); err != nil {
		hostPort = net.JoinHostPort(strings.Trim(hostPort, "[]"), DefaultServerPort)
	}

	uri := scheme + "://" + hostPort
	if path != "" {
		uri += "/" + strings.TrimSuffix(path, "/")
	}
	return uri
}
