// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package collector

import (
	"fmt"
	"net"
	"net/url"
	"strings"

	"golang.org/x/net/idna"
)

// normalizeEndpoint checks the collector URL and returns it with an ASCII,
// lower-cased host. Only http and https are accepted; userinfo and
// fragments are rejected. When allowHosts is non-empty the host must be in
// it.
func normalizeEndpoint(raw string, allowHosts []string) (string, error) {
	u, err := url.Parse(strings.TrimSpace(raw))
	if err != nil {
		return "", fmt.Errorf("invalid collector url: %w", err)
	}
	switch strings.ToLower(u.Scheme) {
	case "http", "https":
	default:
		return "", fmt.Errorf("collector url scheme %q not allowed", u.Scheme)
	}
	if u.User != nil {
		return "", fmt.Errorf("collector url must not include userinfo")
	}
	if u.Fragment != "" {
		return "", fmt.Errorf("collector url must not include a fragment")
	}

	host, err := normalizeHost(u.Hostname())
	if err != nil {
		return "", err
	}
	if len(allowHosts) > 0 {
		allowed := false
		for _, h := range allowHosts {
			n, err := normalizeHost(h)
			if err != nil {
				return "", fmt.Errorf("allow list: %w", err)
			}
			if n == host {
				allowed = true
				break
			}
		}
		if !allowed {
			return "", fmt.Errorf("collector host %q is not in the allow list", host)
		}
	}

	u.Scheme = strings.ToLower(u.Scheme)
	if strings.Contains(host, ":") {
		host = "[" + host + "]"
	}
	if port := u.Port(); port != "" {
		host = net.JoinHostPort(strings.Trim(host, "[]"), port)
	}
	u.Host = host
	return u.String(), nil
}

func normalizeHost(raw string) (string, error) {
	host := strings.TrimSuffix(strings.TrimSpace(raw), ".")
	if host == "" {
		return "", fmt.Errorf("collector host is empty")
	}
	if ip := net.ParseIP(host); ip != nil {
		return ip.String(), nil
	}
	ascii, err := idna.Lookup.ToASCII(host)
	if err != nil {
		return "", fmt.Errorf("invalid collector host %q: %w", raw, err)
	}
	return strings.ToLower(ascii), nil
}
