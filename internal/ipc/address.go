package ipc

import (
	"fmt"
	"net"
	"strconv"
)

// Network defaults.
const (
	DefaultServerInterface = "0.0.0.0"
	DefaultClientInterface = "127.0.0.1"
	DefaultPort            = 1234
)

// ServerAddress returns the listen address for iface and port, filling in
// defaults for zero values.
func ServerAddress(iface string, port int) string {
	if iface == "" {
		iface = DefaultServerInterface
	}
	if port == 0 {
		port = DefaultPort
	}
	return net.JoinHostPort(iface, strconv.Itoa(port))
}

// ClientAddress returns the dial address for iface and port. A wildcard
// interface is replaced by the loopback address.
func ClientAddress(iface string, port int) string {
	if iface == "" || iface == DefaultServerInterface || iface == "::" {
		iface = DefaultClientInterface
	}
	if port == 0 {
		port = DefaultPort
	}
	return net.JoinHostPort(iface, strconv.Itoa(port))
}

// ParseAddress splits a host:port override. Either half may be empty, in
// which case the corresponding default is returned unchanged.
func ParseAddress(s, defaultIface string, defaultPort int) (string, int, error) {
	host, portStr, err := net.SplitHostPort(s)
	if err != nil {
		return "", 0, fmt.Errorf("address %q: %w", s, err)
	}
	if host == "" {
		host = defaultIface
	}
	port := defaultPort
	if portStr != "" {
		port, err = strconv.Atoi(portStr)
		if err != nil || port < 1 || port > 65535 {
			return "", 0, fmt.Errorf("address %q: invalid port", s)
		}
	}
	return host, port, nil
}
