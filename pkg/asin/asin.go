// Package asin validates Amazon product identifiers and extracts them from
// product page URLs.
package asin

import (
	"errors"
	"fmt"
	"regexp"
	"strings"
)

// ErrInvalidIdentifier is returned for input that is neither a 10-character
// identifier nor a recognizable product URL.
var ErrInvalidIdentifier = errors.New("invalid product identifier or URL")

var (
	rawPattern = regexp.MustCompile(`^[A-Za-z0-9]{10}$`)

	urlPatterns = []*regexp.Regexp{
		regexp.MustCompile(`(?i)/dp/([A-Z0-9]{10})`),
		regexp.MustCompile(`(?i)/gp/product/([A-Z0-9]{10})`),
		regexp.MustCompile(`(?i)[?&]asin=([A-Z0-9]{10})`),
	}
)

// Parse accepts either a raw ASIN or a product page URL and returns the
// canonical upper-case ASIN.
func Parse(input string) (string, error) {
	trimmed := strings.TrimSpace(input)
	if trimmed == "" {
		return "", fmt.Errorf("empty input: %w", ErrInvalidIdentifier)
	}
	if rawPattern.MatchString(trimmed) {
		return strings.ToUpper(trimmed), nil
	}
	for _, pattern := range urlPatterns {
		if m := pattern.FindStringSubmatch(trimmed); m != nil {
			return strings.ToUpper(m[1]), nil
		}
	}
	return "", fmt.Errorf("%q: %w", trimmed, ErrInvalidIdentifier)
}

func ProductURL(asin string) string {
	return "https://www.amazon.com/dp/" + asin
}

// FallbackImageURL is Amazon's predictable by-ASIN image location, used when
// no strategy produced an image.
func FallbackImageURL(asin string) string {
	return "https://images-na.ssl-images-amazon.com/images/P/" + asin + ".01.L.jpg"
}
