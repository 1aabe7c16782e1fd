package validation

import (
	"net"
	"net/url"
	"slices"
	"strings"

	apperrors "github.com/anime-shed/truecost-inspector-go/internal/errors"
)

// URLValidator decides which image URLs the server may fetch on a client's behalf.
type URLValidator struct {
	allowedSchemes []string
	allowedHosts   []string
	allowPrivate   bool
}

// NewURLValidator allows public http(s) hosts only.
func NewURLValidator() *URLValidator {
	return &URLValidator{
		allowedSchemes: []string{"http", "https"},
		allowedHosts:   []string{}, // empty means all hosts allowed
	}
}

// NewURLValidatorWithOptions creates a URL validator with custom options
func NewURLValidatorWithOptions(schemes []string, hosts []string, allowPrivate bool) *URLValidator {
	return &URLValidator{
		allowedSchemes: schemes,
		allowedHosts:   hosts,
		allowPrivate:   allowPrivate,
	}
}

// ValidateImageURL validates if the provided URL is acceptable for image fetching
func (v *URLValidator) ValidateImageURL(imageURL string) error {
	if strings.TrimSpace(imageURL) == "" {
		return apperrors.NewValidationError("URL cannot be empty", nil)
	}

	parsedURL, err := url.Parse(imageURL)
	if err != nil {
		return apperrors.NewValidationError("Invalid URL format", err)
	}

	if !slices.Contains(v.allowedSchemes, strings.ToLower(parsedURL.Scheme)) {
		return apperrors.NewValidationError("URL scheme not allowed", nil)
	}

	host := parsedURL.Hostname()
	if host == "" {
		return apperrors.NewValidationError("URL must have a valid host", nil)
	}

	if len(v.allowedHosts) > 0 && !slices.Contains(v.allowedHosts, strings.ToLower(host)) {
		return apperrors.NewValidationError("URL host not allowed", nil)
	}

	if !v.allowPrivate && isPrivateHost(host) {
		return apperrors.NewValidationError("URL host resolves to a private address", nil)
	}

	return nil
}

// isPrivateHost flags literal loopback, private and link-local addresses and
// localhost. Names are not resolved.
func isPrivateHost(host string) bool {
	if strings.EqualFold(host, "localhost") || strings.HasSuffix(strings.ToLower(host), ".localhost") {
		return true
	}
	ip := net.ParseIP(host)
	if ip == nil {
		return false
	}
	return ip.IsLoopback() || ip.IsPrivate() || ip.IsLinkLocalUnicast() || ip.IsLinkLocalMulticast() || ip.IsUnspecified()
}
