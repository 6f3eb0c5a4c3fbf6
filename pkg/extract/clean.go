package extract

import (
	"math/rand"
	"regexp"
	"strings"

	"github.com/shopspring/decimal"
)

var (
	entityPattern     = regexp.MustCompile(`&[^;]+;`)
	whitespacePattern = regexp.MustCompile(`\s+`)
	sitePrefixPattern = regexp.MustCompile(`(?i)^Amazon\.com\s*:?\s*`)
	siteSuffixPattern = regexp.MustCompile(`(?i)\s*[|\-]\s*Amazon.*$`)
	nonNumericPattern = regexp.MustCompile(`[^0-9.]`)
)

var userAgents = []string{
	"Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36",
	"Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36",
	"Mozilla/5.0 (X11; Linux x86_64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36",
}

func randomUserAgent() string {
	return userAgents[rand.Intn(len(userAgents))]
}

// cleanTitle strips markup entities, collapses whitespace, and removes the
// site-name boilerplate Amazon wraps around titles.
func cleanTitle(title string) string {
	title = entityPattern.ReplaceAllString(title, "")
	title = whitespacePattern.ReplaceAllString(title, " ")
	title = strings.TrimSpace(title)
	title = sitePrefixPattern.ReplaceAllString(title, "")
	title = siteSuffixPattern.ReplaceAllString(title, "")
	return strings.TrimSpace(title)
}

// parsePrice converts a scraped price fragment ("$1,299.99", "49") into a
// 2dp decimal, returning zero when nothing numeric survives.
func parsePrice(raw string) decimal.Decimal {
	cleaned := nonNumericPattern.ReplaceAllString(strings.ReplaceAll(raw, ",", ""), "")
	if cleaned == "" || cleaned == "." {
		return decimal.Zero
	}
	price, err := decimal.NewFromString(cleaned)
	if err != nil {
		return decimal.Zero
	}
	return price.Round(2)
}
