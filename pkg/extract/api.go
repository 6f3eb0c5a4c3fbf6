package extract

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"github.com/Basil-Gomaa/AZTrackonomy/pkg/asin"
)

const (
	productAPIBase = "https://realtime-amazon-data.p.rapidapi.com"
	productAPIHost = "realtime-amazon-data.p.rapidapi.com"
)

// apiStrategy queries a hosted product-data API, first the product-details
// endpoint and then the search endpoint, and accepts the first response that
// parses into a usable snapshot.
type apiStrategy struct {
	client *http.Client
	apiKey string
}

func (s *apiStrategy) Name() string { return "product-api" }

func (s *apiStrategy) Fetch(ctx context.Context, productASIN string) (*ProductSnapshot, error) {
	if snapshot, err := s.fetchDetails(ctx, productASIN); err == nil && snapshot != nil {
		return snapshot, nil
	}
	return s.fetchSearch(ctx, productASIN)
}

type apiDetailsResponse struct {
	Status       string   `json:"status"`
	Title        string   `json:"title"`
	Price        string   `json:"price"`
	Images       []string `json:"images"`
	Availability string   `json:"availability"`
}

func (s *apiStrategy) fetchDetails(ctx context.Context, productASIN string) (*ProductSnapshot, error) {
	url := fmt.Sprintf("%s/product-details?asin=%s&country=US", productAPIBase, productASIN)
	body, err := s.get(ctx, url)
	if err != nil {
		return nil, err
	}

	var parsed apiDetailsResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		return nil, err
	}
	if parsed.Status != "success" {
		return nil, nil
	}

	price := parsePrice(parsed.Price)
	if !price.IsPositive() {
		// The details endpoint regularly omits prices; let search try.
		return nil, nil
	}
	snapshot := &ProductSnapshot{
		ASIN:         productASIN,
		Title:        cleanTitle(parsed.Title),
		Price:        price,
		ImageURL:     asin.FallbackImageURL(productASIN),
		Availability: parsed.Availability == "In Stock",
		URL:          asin.ProductURL(productASIN),
	}
	if len(parsed.Images) > 0 {
		snapshot.ImageURL = parsed.Images[0]
	}
	return snapshot, nil
}

type apiSearchResponse struct {
	Status string `json:"status"`
	Data   struct {
		Products []apiSearchProduct `json:"products"`
	} `json:"data"`
}

type apiSearchProduct struct {
	ASIN              string `json:"asin"`
	Title             string `json:"product_title"`
	Price             string `json:"product_price"`
	MinimumOfferPrice string `json:"product_minimum_offer_price"`
	Photo             string `json:"product_photo"`
	URL               string `json:"product_url"`
	NumOffers         int    `json:"product_num_offers"`
}

func (s *apiStrategy) fetchSearch(ctx context.Context, productASIN string) (*ProductSnapshot, error) {
	url := fmt.Sprintf("%s/search?query=%s&country=US&category_id=aps", productAPIBase, productASIN)
	body, err := s.get(ctx, url)
	if err != nil {
		return nil, err
	}

	var parsed apiSearchResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		return nil, err
	}
	if parsed.Status != "OK" || len(parsed.Data.Products) == 0 {
		return nil, nil
	}

	product := parsed.Data.Products[0]
	priceRaw := product.MinimumOfferPrice
	if priceRaw == "" {
		priceRaw = product.Price
	}
	snapshot := &ProductSnapshot{
		ASIN:         productASIN,
		Title:        cleanTitle(product.Title),
		Price:        parsePrice(priceRaw),
		ImageURL:     product.Photo,
		Availability: product.NumOffers > 0,
		URL:          product.URL,
	}
	if product.ASIN != "" {
		snapshot.ASIN = product.ASIN
	}
	if snapshot.ImageURL == "" {
		snapshot.ImageURL = asin.FallbackImageURL(productASIN)
	}
	if snapshot.URL == "" {
		snapshot.URL = asin.ProductURL(productASIN)
	}
	return snapshot, nil
}

func (s *apiStrategy) get(ctx context.Context, url string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("X-RapidAPI-Key", s.apiKey)
	req.Header.Set("X-RapidAPI-Host", productAPIHost)
	req.Header.Set("Accept", "application/json")

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("product api status %d", resp.StatusCode)
	}
	return io.ReadAll(resp.Body)
}
