package extract

import (
	"context"
	"net/http"
	"testing"
)

func TestAPIStrategyDetails(t *testing.T) {
	client := fakeClient(func(req *http.Request) (*http.Response, error) {
		if req.Header.Get("X-RapidAPI-Key") != "test-key" {
			t.Fatalf("missing api key header on %s", req.URL)
		}
		if req.URL.Path != "/product-details" {
			t.Fatalf("unexpected request: %s", req.URL)
		}
		body := `{"status":"success","title":"Echo Dot (5th Gen, 2022 release)","price":"$49.99","images":["https://m.media-amazon.com/images/I/echo-dot.jpg"],"availability":"In Stock"}`
		return newResponse(http.StatusOK, "application/json", body), nil
	})

	strategy := &apiStrategy{client: client, apiKey: "test-key"}
	snapshot, err := strategy.Fetch(context.Background(), "B09B8V1LZ3")
	if err != nil {
		t.Fatalf("Fetch returned error: %v", err)
	}
	if snapshot == nil {
		t.Fatal("expected a snapshot from the details endpoint")
	}
	if snapshot.Price.String() != "49.99" || !snapshot.Availability {
		t.Fatalf("unexpected snapshot: %+v", snapshot)
	}
	if snapshot.ImageURL != "https://m.media-amazon.com/images/I/echo-dot.jpg" {
		t.Fatalf("unexpected image: %q", snapshot.ImageURL)
	}
}

func TestAPIStrategyFallsBackToSearch(t *testing.T) {
	client := fakeClient(func(req *http.Request) (*http.Response, error) {
		switch req.URL.Path {
		case "/product-details":
			// Priceless details responses must not satisfy the strategy.
			return newResponse(http.StatusOK, "application/json",
				`{"status":"success","title":"Echo Dot (5th Gen, 2022 release)","price":""}`), nil
		case "/search":
			body := `{"status":"OK","data":{"products":[{
				"asin":"B09B8V1LZ3",
				"product_title":"Echo Dot (5th Gen, 2022 release)",
				"product_price":"$52.00",
				"product_minimum_offer_price":"$47.50",
				"product_photo":"https://m.media-amazon.com/images/I/echo-dot.jpg",
				"product_url":"https://www.amazon.com/dp/B09B8V1LZ3",
				"product_num_offers":3}]}}`
			return newResponse(http.StatusOK, "application/json", body), nil
		}
		t.Fatalf("unexpected request: %s", req.URL)
		return nil, nil
	})

	strategy := &apiStrategy{client: client, apiKey: "test-key"}
	snapshot, err := strategy.Fetch(context.Background(), "B09B8V1LZ3")
	if err != nil {
		t.Fatalf("Fetch returned error: %v", err)
	}
	if snapshot == nil {
		t.Fatal("expected a snapshot from the search endpoint")
	}
	if snapshot.Price.String() != "47.5" {
		t.Fatalf("minimum offer price must win, got %s", snapshot.Price)
	}
	if !snapshot.Availability {
		t.Fatal("offers present means available")
	}
}

func TestAPIStrategyNonOKStatus(t *testing.T) {
	client := fakeClient(func(req *http.Request) (*http.Response, error) {
		return newResponse(http.StatusTooManyRequests, "application/json", `{"message":"rate limited"}`), nil
	})

	strategy := &apiStrategy{client: client, apiKey: "test-key"}
	snapshot, err := strategy.Fetch(context.Background(), "B09B8V1LZ3")
	if err == nil {
		t.Fatal("expected an error when both endpoints are rate limited")
	}
	if snapshot != nil {
		t.Fatalf("expected no snapshot, got %+v", snapshot)
	}
}
