package validation

import (
	"fmt"
	"net"
	"net/url"
	"strings"
)

// BaseURLValidator checks the configured country service endpoint.
type BaseURLValidator struct {
	// AllowLocalhost determines if localhost URLs are permitted
	AllowLocalhost bool
	// AllowPrivateIPs determines if private IP addresses are permitted
	AllowPrivateIPs bool
	// MaxLength is the maximum allowed URL length
	MaxLength int
}

// NewBaseURLValidator creates a validator with secure defaults
func NewBaseURLValidator() *BaseURLValidator {
	return &BaseURLValidator{
		AllowLocalhost:  false,
		AllowPrivateIPs: false,
		MaxLength:       2048,
	}
}

// NewPermissiveBaseURLValidator allows local development servers and test
// fixtures.
func NewPermissiveBaseURLValidator() *BaseURLValidator {
	return &BaseURLValidator{
		AllowLocalhost:  true,
		AllowPrivateIPs: true,
		MaxLength:       2048,
	}
}

// ValidateAndNormalize validates a base URL and returns it without a
// trailing slash, ready for path joining.
func (v *BaseURLValidator) ValidateAndNormalize(input string) (string, error) {
	input = strings.TrimSpace(input)

	if input == "" {
		return "", fmt.Errorf("URL cannot be empty")
	}
	if len(input) > v.MaxLength {
		return "", fmt.Errorf("URL too long (max %d characters)", v.MaxLength)
	}

	if strings.ContainsAny(input, "<>\"'`") {
		return "", fmt.Errorf("URL contains invalid characters")
	}

	// A bare host gets https; any explicit scheme is checked below.
	if !strings.Contains(input, "://") {
		input = "https://" + input
	}

	parsedURL, err := url.Parse(input)
	if err != nil {
		return "", fmt.Errorf("invalid URL format: %w", err)
	}

	if scheme := strings.ToLower(parsedURL.Scheme); scheme != "http" && scheme != "https" {
		return "", fmt.Errorf("URL must use http or https protocol")
	}

	if parsedURL.Host == "" {
		return "", fmt.Errorf("URL must have a valid hostname")
	}

	if err := v.validateHostSecurity(parsedURL.Host); err != nil {
		return "", err
	}

	if strings.Contains(parsedURL.Path, "..") {
		return "", fmt.Errorf("directory traversal patterns not allowed in URL path")
	}
	if parsedURL.RawQuery != "" || parsedURL.Fragment != "" {
		return "", fmt.Errorf("base URL must not carry a query or fragment")
	}

	parsedURL.Path = strings.TrimRight(parsedURL.Path, "/")
	return parsedURL.String(), nil
}

func (v *BaseURLValidator) validateHostSecurity(host string) error {
	hostname := host
	if strings.Contains(host, ":") {
		var err error
		hostname, _, err = net.SplitHostPort(host)
		if err != nil {
			return fmt.Errorf("invalid host format: %w", err)
		}
	}

	if !v.AllowLocalhost && isLocalhost(hostname) {
		return fmt.Errorf("localhost URLs are not permitted")
	}

	if !v.AllowPrivateIPs {
		if ip := net.ParseIP(hostname); ip != nil && isPrivateIP(ip) {
			return fmt.Errorf("private IP addresses are not permitted")
		}
	}

	return nil
}

// isLocalhost checks if a hostname refers to localhost
func isLocalhost(hostname string) bool {
	return hostname == "localhost" ||
		hostname == "127.0.0.1" ||
		hostname == "::1" ||
		strings.HasSuffix(hostname, ".localhost")
}

// isPrivateIP checks if an IP address is in a private, loopback or
// link-local range.
func isPrivateIP(ip net.IP) bool {
	return ip.IsPrivate() || ip.IsLoopback() || ip.IsLinkLocalUnicast()
}
