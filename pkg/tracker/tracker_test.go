package tracker

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/Basil-Gomaa/AZTrackonomy/pkg/asin"
	"github.com/Basil-Gomaa/AZTrackonomy/pkg/db"
	"github.com/Basil-Gomaa/AZTrackonomy/pkg/extract"
	"github.com/Basil-Gomaa/AZTrackonomy/pkg/internal/testutil"
	"github.com/shopspring/decimal"
)

type stubExtractor struct {
	snapshot *extract.ProductSnapshot
	err      error
}

func (s *stubExtractor) Extract(ctx context.Context, productASIN string) (*extract.ProductSnapshot, error) {
	if s.err != nil {
		return nil, s.err
	}
	snapshot := *s.snapshot
	snapshot.ASIN = productASIN
	return &snapshot, nil
}

func echoDotSnapshot() *extract.ProductSnapshot {
	return &extract.ProductSnapshot{
		ASIN:         "B09B8V1LZ3",
		Title:        "Echo Dot (5th Gen, 2022 release)",
		Price:        decimal.RequireFromString("50.00"),
		ImageURL:     "https://m.media-amazon.com/images/I/echo-dot.jpg",
		Availability: true,
		URL:          "https://www.amazon.com/dp/B09B8V1LZ3",
	}
}

func d(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func TestTrackCreatesProductHistoryAndSettings(t *testing.T) {
	store := testutil.SetupTestDB(t)
	service := New(store, &stubExtractor{snapshot: echoDotSnapshot()})

	product, err := service.Track(context.Background(), TrackRequest{
		Input:       "https://www.amazon.com/dp/B09B8V1LZ3",
		UserEmail:   "buyer@example.com",
		TargetPrice: d("40.00"),
	})
	if err != nil {
		t.Fatalf("Track returned error: %v", err)
	}
	if product.ASIN != "B09B8V1LZ3" {
		t.Fatalf("unexpected asin: %q", product.ASIN)
	}
	if product.CurrentPrice.String() != "50" {
		t.Fatalf("unexpected current price: %s", product.CurrentPrice)
	}
	if !product.OriginalPrice.Valid || product.OriginalPrice.Decimal.String() != "50" {
		t.Fatalf("original price not recorded: %+v", product.OriginalPrice)
	}

	history, err := service.History(product.ID)
	if err != nil {
		t.Fatalf("History returned error: %v", err)
	}
	if len(history) != 1 || history[0].Price.String() != "50" {
		t.Fatalf("expected initial history entry, got %+v", history)
	}

	settings, err := store.GetSettings("buyer@example.com")
	if err != nil {
		t.Fatalf("GetSettings returned error: %v", err)
	}
	if settings == nil || !settings.EmailPriceDrops || settings.CheckFrequency != 24 {
		t.Fatalf("default settings missing or wrong: %+v", settings)
	}
}

func TestTrackDuplicatePerUser(t *testing.T) {
	store := testutil.SetupTestDB(t)
	service := New(store, &stubExtractor{snapshot: echoDotSnapshot()})

	req := TrackRequest{Input: "B09B8V1LZ3", UserEmail: "buyer@example.com", TargetPrice: d("40.00")}
	if _, err := service.Track(context.Background(), req); err != nil {
		t.Fatalf("first Track returned error: %v", err)
	}
	if _, err := service.Track(context.Background(), req); !errors.Is(err, ErrDuplicateTracking) {
		t.Fatalf("expected ErrDuplicateTracking, got %v", err)
	}

	// A different user may track the same ASIN.
	other := TrackRequest{Input: "B09B8V1LZ3", UserEmail: "other@example.com", TargetPrice: d("45.00")}
	if _, err := service.Track(context.Background(), other); err != nil {
		t.Fatalf("second user Track returned error: %v", err)
	}
}

func TestTrackUntrackedAgainAfterUntrack(t *testing.T) {
	store := testutil.SetupTestDB(t)
	service := New(store, &stubExtractor{snapshot: echoDotSnapshot()})

	req := TrackRequest{Input: "B09B8V1LZ3", UserEmail: "buyer@example.com", TargetPrice: d("40.00")}
	product, err := service.Track(context.Background(), req)
	if err != nil {
		t.Fatalf("Track returned error: %v", err)
	}
	if err := service.Untrack(product.ID); err != nil {
		t.Fatalf("Untrack returned error: %v", err)
	}
	if _, err := service.Track(context.Background(), req); err != nil {
		t.Fatalf("re-tracking after untrack returned error: %v", err)
	}
}

func TestTrackValidation(t *testing.T) {
	store := testutil.SetupTestDB(t)
	service := New(store, &stubExtractor{snapshot: echoDotSnapshot()})

	cases := []TrackRequest{
		{Input: "B09B8V1LZ3", UserEmail: "", TargetPrice: d("40.00")},
		{Input: "B09B8V1LZ3", UserEmail: "buyer@example.com", TargetPrice: d("0")},
		{Input: "B09B8V1LZ3", UserEmail: "buyer@example.com", TargetPrice: d("-1")},
	}
	for i, req := range cases {
		if _, err := service.Track(context.Background(), req); !errors.Is(err, ErrInvalidRequest) {
			t.Fatalf("case %d: expected ErrInvalidRequest, got %v", i, err)
		}
	}

	bad := TrackRequest{Input: "not-a-product", UserEmail: "buyer@example.com", TargetPrice: d("40.00")}
	if _, err := service.Track(context.Background(), bad); !errors.Is(err, asin.ErrInvalidIdentifier) {
		t.Fatalf("expected ErrInvalidIdentifier, got %v", err)
	}
}

func TestTrackManualEntry(t *testing.T) {
	store := testutil.SetupTestDB(t)
	failing := &stubExtractor{err: fmt.Errorf("asin B09B8V1LZ3: %w", extract.ErrExtractionFailed)}
	service := New(store, failing)

	// Without overrides the placeholder is rejected.
	if _, err := service.Track(context.Background(), TrackRequest{
		Input: "B09B8V1LZ3", UserEmail: "buyer@example.com", TargetPrice: d("40.00"),
	}); !errors.Is(err, ErrInvalidRequest) {
		t.Fatalf("expected ErrInvalidRequest for placeholder data, got %v", err)
	}

	product, err := service.Track(context.Background(), TrackRequest{
		Input:        "B09B8V1LZ3",
		UserEmail:    "buyer@example.com",
		TargetPrice:  d("40.00"),
		Title:        "Echo Dot (manually entered)",
		CurrentPrice: d("52.00"),
	})
	if err != nil {
		t.Fatalf("manual Track returned error: %v", err)
	}
	if product.Title != "Echo Dot (manually entered)" || product.CurrentPrice.String() != "52" {
		t.Fatalf("manual fields not applied: %+v", product)
	}
	if product.ImageURL == "" {
		t.Fatal("placeholder image must still be carried")
	}
}

func TestLookupFallsBackToPlaceholder(t *testing.T) {
	store := testutil.SetupTestDB(t)
	failing := &stubExtractor{err: fmt.Errorf("asin B09B8V1LZ3: %w", extract.ErrExtractionFailed)}
	service := New(store, failing)

	snapshot, err := service.Lookup(context.Background(), "B09B8V1LZ3")
	if err != nil {
		t.Fatalf("Lookup returned error: %v", err)
	}
	if !snapshot.NeedsManualEntry {
		t.Fatalf("expected manual-entry placeholder, got %+v", snapshot)
	}
}

func TestUpdateRejectsNonPositiveTarget(t *testing.T) {
	store := testutil.SetupTestDB(t)
	service := New(store, &stubExtractor{snapshot: echoDotSnapshot()})

	product, err := service.Track(context.Background(), TrackRequest{
		Input: "B09B8V1LZ3", UserEmail: "buyer@example.com", TargetPrice: d("40.00"),
	})
	if err != nil {
		t.Fatalf("Track returned error: %v", err)
	}

	zero := d("0")
	if _, err := service.Update(product.ID, db.ProductUpdate{TargetPrice: &zero}); !errors.Is(err, ErrInvalidRequest) {
		t.Fatalf("expected ErrInvalidRequest, got %v", err)
	}

	target := d("35.00")
	updated, err := service.Update(product.ID, db.ProductUpdate{TargetPrice: &target})
	if err != nil {
		t.Fatalf("Update returned error: %v", err)
	}
	if updated.TargetPrice.String() != "35" {
		t.Fatalf("target not updated: %s", updated.TargetPrice)
	}
}
