package extract

import (
	"bytes"
	"context"
	"io"
	"net/http"
	"strings"

	"github.com/Basil-Gomaa/AZTrackonomy/pkg/asin"
	"github.com/PuerkitoBio/goquery"
	"github.com/shopspring/decimal"
)

// probeStrategy is the last resort: confirm the product exists via the
// by-ASIN image service, then recover a title from the review pages. It never
// learns a price, so its snapshots carry price zero for manual review.
type probeStrategy struct {
	client *http.Client
}

func (s *probeStrategy) Name() string { return "existence-probe" }

func (s *probeStrategy) Fetch(ctx context.Context, productASIN string) (*ProductSnapshot, error) {
	imageURL, err := s.probeImage(ctx, productASIN)
	if err != nil || imageURL == "" {
		return nil, err
	}

	title, err := s.fetchReviewTitle(ctx, productASIN)
	if err != nil || title == "" {
		return nil, err
	}

	return &ProductSnapshot{
		ASIN:         productASIN,
		Title:        title,
		Price:        decimal.Zero,
		ImageURL:     imageURL,
		Availability: true,
		URL:          asin.ProductURL(productASIN),
	}, nil
}

func (s *probeStrategy) probeImage(ctx context.Context, productASIN string) (string, error) {
	candidates := []string{
		"https://images-na.ssl-images-amazon.com/images/P/" + productASIN + ".01.MAIN._SCRMZZZZZZ_.jpg",
		"https://images-na.ssl-images-amazon.com/images/P/" + productASIN + ".01.L.jpg",
		"https://m.media-amazon.com/images/I/" + productASIN + ".jpg",
	}
	for _, candidate := range candidates {
		if err := ctx.Err(); err != nil {
			return "", err
		}
		req, err := http.NewRequestWithContext(ctx, http.MethodHead, candidate, nil)
		if err != nil {
			return "", err
		}
		resp, err := s.client.Do(req)
		if err != nil {
			continue
		}
		resp.Body.Close()
		if resp.StatusCode == http.StatusOK && strings.Contains(resp.Header.Get("Content-Type"), "image") {
			return candidate, nil
		}
	}
	return "", nil
}

func (s *probeStrategy) fetchReviewTitle(ctx context.Context, productASIN string) (string, error) {
	endpoints := []string{
		"https://www.amazon.com/product-reviews/" + productASIN + "/ref=cm_cr_dp_see_all_btm?sortBy=recent",
		"https://www.amazon.com/hz/reviews-render/ajax/reviews-filter?asin=" + productASIN + "&filterBy=recent&pageNumber=1",
	}
	for _, endpoint := range endpoints {
		if err := ctx.Err(); err != nil {
			return "", err
		}
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
		if err != nil {
			return "", err
		}
		req.Header.Set("User-Agent", randomUserAgent())
		req.Header.Set("Accept", "text/html,application/xhtml+xml,application/xml;q=0.9,*/*;q=0.8")

		resp, err := s.client.Do(req)
		if err != nil {
			continue
		}
		body, readErr := io.ReadAll(resp.Body)
		resp.Body.Close()
		if resp.StatusCode != http.StatusOK || readErr != nil {
			continue
		}
		if title := parseReviewTitle(body); title != "" {
			return title, nil
		}
	}
	return "", nil
}

func parseReviewTitle(body []byte) string {
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(body))
	if err != nil {
		return ""
	}
	selectors := []string{`a[data-hook="product-link"]`, "h1"}
	for _, selector := range selectors {
		if text := strings.TrimSpace(doc.Find(selector).First().Text()); text != "" {
			if title := cleanTitle(text); len(title) > minTitleLength {
				return title
			}
		}
	}
	return ""
}
