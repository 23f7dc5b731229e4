package pagination

import (
	"testing"

	"stockbank/internal/models"
	"stockbank/internal/testutil"
)

func TestPageRequest_Defaults(t *testing.T) {
	tests := []struct {
		name     string
		in       PageRequest
		wantPage int
		wantSize int
	}{
		{"zero", PageRequest{}, 1, 20},
		{"kept", PageRequest{Page: 3, PageSize: 5}, 3, 5},
		{"clamped", PageRequest{Page: -1, PageSize: 500}, 1, 100},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := tt.in
			req.Defaults()
			if req.Page != tt.wantPage || req.PageSize != tt.wantSize {
				t.Errorf("expected page %d size %d, got %d %d", tt.wantPage, tt.wantSize, req.Page, req.PageSize)
			}
		})
	}
}

func TestNewPageResponse(t *testing.T) {
	resp := NewPageResponse[int](nil, 1, 20, 41)
	if resp.TotalPages != 3 {
		t.Errorf("expected 3 pages, got %d", resp.TotalPages)
	}
	if resp.Data == nil {
		t.Error("expected empty slice, got nil")
	}
}

func TestFetch(t *testing.T) {
	db := testutil.SetupTestDB(t)
	defer testutil.TeardownTestDB(t, db)

	for i := int64(1); i <= 5; i++ {
		testutil.CreateTestStock(t, db, i, i*1000)
	}
	base := db.Model(&models.Stock{}).Where("base_quantity > ?", 1)

	first, err := Fetch[models.Stock](base, PageRequest{Page: 1, PageSize: 3}, "base_quantity DESC")
	testutil.AssertNoError(t, err)
	if first.TotalItems != 4 || first.TotalPages != 2 {
		t.Fatalf("expected 4 items over 2 pages, got %d over %d", first.TotalItems, first.TotalPages)
	}
	if len(first.Data) != 3 || first.Data[0].BaseQuantity != 5 {
		t.Errorf("unexpected first page %+v", first.Data)
	}

	// The base query is reusable after a fetch.
	second, err := Fetch[models.Stock](base, PageRequest{Page: 2, PageSize: 3}, "base_quantity DESC")
	testutil.AssertNoError(t, err)
	if len(second.Data) != 1 || second.Data[0].BaseQuantity != 2 {
		t.Errorf("unexpected second page %+v", second.Data)
	}

	beyond, err := Fetch[models.Stock](base, PageRequest{Page: 9, PageSize: 3}, "base_quantity DESC")
	testutil.AssertNoError(t, err)
	if len(beyond.Data) != 0 || beyond.TotalItems != 4 {
		t.Errorf("expected an empty page with totals, got %+v", beyond)
	}
}
