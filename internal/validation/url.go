package validation

import (
	"fmt"
	"net"
	"net/url"
	"strings"
)

// EndpointValidator checks the base URLs the client sends bearer tokens to.
type EndpointValidator struct {
	// AllowLoopback permits localhost and 127.0.0.0/8, over plain http too.
	AllowLoopback bool
	// AllowPrivateIPs permits RFC 1918 and link-local addresses.
	AllowPrivateIPs bool
	// AllowInsecure permits plain http for any host.
	AllowInsecure bool
	MaxLength     int
}

// NewEndpointValidator requires https except for loopback hosts, which are
// used by local proxies and test servers.
func NewEndpointValidator() *EndpointValidator {
	return &EndpointValidator{
		AllowLoopback: true,
		MaxLength:     2048,
	}
}

// NewStrictEndpointValidator only accepts https on public hosts.
func NewStrictEndpointValidator() *EndpointValidator {
	return &EndpointValidator{MaxLength: 2048}
}

// ValidateAndNormalize returns input without a trailing slash, or an error
// explaining why tokens must not be sent there.
func (v *EndpointValidator) ValidateAndNormalize(input string) (string, error) {
	input = strings.TrimSpace(input)

	if input == "" {
		return "", fmt.Errorf("URL cannot be empty")
	}
	if v.MaxLength > 0 && len(input) > v.MaxLength {
		return "", fmt.Errorf("URL too long (max %d characters)", v.MaxLength)
	}
	if strings.ContainsAny(input, "<>\"'` ") {
		return "", fmt.Errorf("URL contains invalid characters")
	}

	u, err := url.Parse(input)
	if err != nil {
		return "", fmt.Errorf("invalid URL format: %w", err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return "", fmt.Errorf("URL must use http or https protocol")
	}
	if u.Host == "" {
		return "", fmt.Errorf("URL must have a valid hostname")
	}
	if u.User != nil {
		return "", fmt.Errorf("URL must not embed credentials")
	}
	if u.RawQuery != "" || u.Fragment != "" {
		return "", fmt.Errorf("base URL must not carry a query or fragment")
	}
	if strings.Contains(u.Path, "..") {
		return "", fmt.Errorf("directory traversal patterns not allowed in URL path")
	}

	loopback, err := v.validateHost(u.Hostname())
	if err != nil {
		return "", err
	}
	if u.Scheme == "http" && !loopback && !v.AllowInsecure {
		return "", fmt.Errorf("plain http is only allowed for loopback hosts")
	}

	return strings.TrimRight(u.String(), "/"), nil
}

// validateHost reports whether hostname is a loopback address.
func (v *EndpointValidator) validateHost(hostname string) (bool, error) {
	if hostname == "" {
		return false, fmt.Errorf("URL must have a valid hostname")
	}
	if isLocalhost(hostname) {
		if !v.AllowLoopback {
			return false, fmt.Errorf("localhost URLs are not permitted")
		}
		return true, nil
	}

	if ip := net.ParseIP(hostname); ip != nil {
		if ip.IsUnspecified() || ip.Equal(net.IPv4bcast) {
			return false, fmt.Errorf("unroutable address %s", hostname)
		}
		if !v.AllowPrivateIPs && isPrivateIP(ip) {
			return false, fmt.Errorf("private IP addresses are not permitted")
		}
	}
	return false, nil
}

func isLocalhost(hostname string) bool {
	hostname = strings.ToLower(hostname)
	if hostname == "localhost" || strings.HasSuffix(hostname, ".localhost") {
		return true
	}
	ip := net.ParseIP(hostname)
	return ip != nil && ip.IsLoopback()
}

// isPrivateIP covers RFC 1918, RFC 4193 and link-local ranges.
func isPrivateIP(ip net.IP) bool {
	return ip.IsPrivate() || ip.IsLinkLocalUnicast() || ip.IsLinkLocalMulticast()
}
