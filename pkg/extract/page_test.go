package extract

import (
	"context"
	"net/http"
	"strings"
	"testing"
)

const detailPageHTML = `<html>
<head>
<meta property="og:image" content="https://m.media-amazon.com/images/I/echo-dot.jpg"/>
<title>Amazon.com: Echo Dot (5th Gen, 2022 release)</title>
</head>
<body>
<span id="productTitle"> Echo Dot (5th Gen, 2022 release) </span>
<span class="a-price-whole">49.</span><span class="a-price-fraction">99</span>
</body>
</html>`

func TestPageStrategyParsesDetailPage(t *testing.T) {
	requested := []string{}
	client := fakeClient(func(req *http.Request) (*http.Response, error) {
		requested = append(requested, req.URL.Path)
		if strings.HasPrefix(req.URL.Path, "/share/dp/") {
			return newResponse(http.StatusOK, "text/html", detailPageHTML), nil
		}
		return notFound(), nil
	})

	strategy := &pageStrategy{client: client}
	snapshot, err := strategy.Fetch(context.Background(), "B09B8V1LZ3")
	if err != nil {
		t.Fatalf("Fetch returned error: %v", err)
	}
	if snapshot == nil {
		t.Fatal("expected a snapshot from the share page")
	}
	if snapshot.Title != "Echo Dot (5th Gen, 2022 release)" {
		t.Fatalf("unexpected title: %q", snapshot.Title)
	}
	if snapshot.Price.String() != "49.99" {
		t.Fatalf("unexpected price: %s", snapshot.Price)
	}
	if snapshot.ImageURL != "https://m.media-amazon.com/images/I/echo-dot.jpg" {
		t.Fatalf("unexpected image: %q", snapshot.ImageURL)
	}
	if !snapshot.Availability {
		t.Fatal("page without unavailability markers must be available")
	}
	if len(requested) != 1 {
		t.Fatalf("further page attempts should not run after a parse, got %v", requested)
	}
}

func TestPageStrategyFallsThroughAttempts(t *testing.T) {
	mobileHTML := `<html><head><meta property="og:title" content="Echo Dot (5th Gen)"/>
<meta property="product:price:amount" content="39.99"/></head>
<body>Currently unavailable</body></html>`

	requested := []string{}
	client := fakeClient(func(req *http.Request) (*http.Response, error) {
		requested = append(requested, req.URL.Path)
		if strings.HasPrefix(req.URL.Path, "/gp/aw/d/") {
			return newResponse(http.StatusOK, "text/html", mobileHTML), nil
		}
		return notFound(), nil
	})

	strategy := &pageStrategy{client: client}
	snapshot, err := strategy.Fetch(context.Background(), "B09B8V1LZ3")
	if err != nil {
		t.Fatalf("Fetch returned error: %v", err)
	}
	if snapshot == nil {
		t.Fatalf("expected the mobile page to parse, requests: %v", requested)
	}
	if len(requested) != 4 {
		t.Fatalf("expected all four page attempts, got %v", requested)
	}
	if snapshot.Title != "Echo Dot (5th Gen)" || snapshot.Price.String() != "39.99" {
		t.Fatalf("unexpected snapshot: %+v", snapshot)
	}
	if snapshot.Availability {
		t.Fatal("page marked Currently unavailable must not be available")
	}
}

func TestPageStrategyNoResult(t *testing.T) {
	client := fakeClient(func(req *http.Request) (*http.Response, error) {
		return notFound(), nil
	})
	snapshot, err := (&pageStrategy{client: client}).Fetch(context.Background(), "B09B8V1LZ3")
	if err != nil || snapshot != nil {
		t.Fatalf("expected (nil, nil), got (%+v, %v)", snapshot, err)
	}
}

func TestParseProductPageEmbeddedPriceFallback(t *testing.T) {
	body := `<html><head><title>Echo Dot (5th Gen) | Amazon.com</title></head>
<body><script>{"price": "$1,299.00"}</script></body></html>`

	snapshot := parseProductPage([]byte(body), "B09B8V1LZ3")
	if snapshot == nil {
		t.Fatal("expected snapshot from title-tag and embedded price")
	}
	if snapshot.Price.String() != "1299" {
		t.Fatalf("unexpected price: %s", snapshot.Price)
	}
	if snapshot.ImageURL != "https://images-na.ssl-images-amazon.com/images/P/B09B8V1LZ3.01.L.jpg" {
		t.Fatalf("expected fallback image, got %q", snapshot.ImageURL)
	}
}

func TestParseProductPageRejectsShortTitle(t *testing.T) {
	body := `<html><head><title>Oops</title></head><body></body></html>`
	if snapshot := parseProductPage([]byte(body), "B09B8V1LZ3"); snapshot != nil {
		t.Fatalf("expected nil for unusable title, got %+v", snapshot)
	}
}
