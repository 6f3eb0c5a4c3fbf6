package extract

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"regexp"
	"strings"

	"github.com/Basil-Gomaa/AZTrackonomy/pkg/asin"
	"github.com/PuerkitoBio/goquery"
	"github.com/shopspring/decimal"
)

// pageStrategy pulls product pages that tend to escape bot blocking: the
// OpenGraph share page, the desktop detail pages, and the mobile page. Each
// is parsed with the same selector and pattern chain.
type pageStrategy struct {
	client *http.Client
}

func (s *pageStrategy) Name() string { return "storefront-page" }

type pageAttempt struct {
	url       string
	userAgent string
}

func (s *pageStrategy) Fetch(ctx context.Context, productASIN string) (*ProductSnapshot, error) {
	attempts := []pageAttempt{
		{"https://www.amazon.com/share/dp/" + productASIN, "facebookexternalhit/1.1 (+http://www.facebook.com/externalhit_uatext.php)"},
		{"https://www.amazon.com/dp/" + productASIN + "?th=1&psc=1", "Mozilla/5.0 (compatible; Googlebot/2.1; +http://www.google.com/bot.html)"},
		{"https://www.amazon.com/gp/product/" + productASIN, randomUserAgent()},
		{"https://www.amazon.com/gp/aw/d/" + productASIN, "Mozilla/5.0 (iPhone; CPU iPhone OS 15_0 like Mac OS X) AppleWebKit/605.1.15"},
	}

	for _, attempt := range attempts {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		body, err := s.get(ctx, attempt)
		if err != nil {
			continue
		}
		if snapshot := parseProductPage(body, productASIN); snapshot != nil {
			return snapshot, nil
		}
	}
	return nil, nil
}

func (s *pageStrategy) get(ctx context.Context, attempt pageAttempt) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, attempt.url, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("User-Agent", attempt.userAgent)
	req.Header.Set("Accept", "text/html,application/xhtml+xml,application/xml;q=0.9,*/*;q=0.8")
	req.Header.Set("Accept-Language", "en-US,en;q=0.9")

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("status %d", resp.StatusCode)
	}
	return io.ReadAll(resp.Body)
}

var embeddedPricePattern = regexp.MustCompile(`"price"\s*:\s*"?\$?([0-9,]+\.?[0-9]*)"?`)

// parseProductPage extracts title, price, image, and availability from one
// HTML document. Selectors are tried in priority order per field and the
// first match passing that field's validity check wins.
func parseProductPage(body []byte, productASIN string) *ProductSnapshot {
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(body))
	if err != nil {
		return nil
	}

	title := extractTitle(doc)
	if len(title) <= minTitleLength {
		return nil
	}

	html := string(body)
	snapshot := &ProductSnapshot{
		ASIN:         productASIN,
		Title:        title,
		Price:        extractPrice(doc, html),
		ImageURL:     extractImage(doc, productASIN),
		Availability: !strings.Contains(html, "Currently unavailable") && !strings.Contains(html, "Out of Stock"),
		URL:          asin.ProductURL(productASIN),
	}
	return snapshot
}

func extractTitle(doc *goquery.Document) string {
	selectors := []string{"span#productTitle", "h1#title", "h1.product-title"}
	for _, selector := range selectors {
		if text := strings.TrimSpace(doc.Find(selector).First().Text()); text != "" {
			if title := cleanTitle(text); len(title) > minTitleLength {
				return title
			}
		}
	}
	if content, ok := doc.Find(`meta[property="og:title"]`).First().Attr("content"); ok {
		if title := cleanTitle(content); len(title) > minTitleLength {
			return title
		}
	}
	if text := doc.Find("title").First().Text(); text != "" {
		if title := cleanTitle(text); len(title) > minTitleLength {
			return title
		}
	}
	return ""
}

func extractPrice(doc *goquery.Document, html string) decimal.Decimal {
	if text := strings.TrimSpace(doc.Find("span.a-price-whole").First().Text()); text != "" {
		if fraction := strings.TrimSpace(doc.Find("span.a-price-fraction").First().Text()); fraction != "" {
			text = strings.TrimSuffix(text, ".") + "." + fraction
		}
		if price := parsePrice(text); price.IsPositive() && price.LessThan(maxSanePrice) {
			return price
		}
	}
	if content, ok := doc.Find(`meta[property="product:price:amount"]`).First().Attr("content"); ok {
		if price := parsePrice(content); price.IsPositive() && price.LessThan(maxSanePrice) {
			return price
		}
	}
	if m := embeddedPricePattern.FindStringSubmatch(html); m != nil {
		if price := parsePrice(m[1]); price.IsPositive() && price.LessThan(maxSanePrice) {
			return price
		}
	}
	return decimal.Zero
}

func extractImage(doc *goquery.Document, productASIN string) string {
	if content, ok := doc.Find(`meta[property="og:image"]`).First().Attr("content"); ok && content != "" {
		return content
	}
	if src, ok := doc.Find("img#landingImage").First().Attr("src"); ok && src != "" {
		return src
	}
	return asin.FallbackImageURL(productASIN)
}
