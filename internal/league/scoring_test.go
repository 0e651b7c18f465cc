package league

import (
	"errors"
	"testing"
)

func TestPointsFor(t *testing.T) {
	tests := []struct {
		placement int
		total     int
		want      int
	}{
		{placement: 1, total: 4, want: 3},
		{placement: 2, total: 4, want: 1},
		{placement: 3, total: 4, want: 1},
		{placement: 4, total: 4, want: 0},
		{placement: 1, total: 2, want: 3},
		{placement: 2, total: 2, want: 0},
		{placement: 1, total: 1, want: 3}, // sole player wins, not last
	}
	for _, tc := range tests {
		got, err := PointsFor(tc.placement, tc.total)
		if err != nil {
			t.Fatalf("PointsFor(%d, %d): unexpected error: %v", tc.placement, tc.total, err)
		}
		if got != tc.want {
			t.Fatalf("PointsFor(%d, %d) = %d, want %d", tc.placement, tc.total, got, tc.want)
		}
	}
}

func TestPointsForRejectsOutOfRange(t *testing.T) {
	bad := []struct {
		placement int
		total     int
	}{
		{placement: 0, total: 4},
		{placement: 5, total: 4},
		{placement: -1, total: 4},
		{placement: 1, total: 0},
	}
	for _, tc := range bad {
		if _, err := PointsFor(tc.placement, tc.total); !errors.Is(err, ErrInvalidPlacement) {
			t.Fatalf("PointsFor(%d, %d): expected ErrInvalidPlacement, got %v", tc.placement, tc.total, err)
		}
	}
}

func TestAllowanceFor(t *testing.T) {
	tests := []struct {
		avg      float64
		roster   int
		category string
		cards    int
		price    float64
	}{
		{avg: 1, roster: 4, category: CategoryWin, cards: 1, price: 5},
		{avg: 4, roster: 4, category: CategoryLast, cards: 5, price: 15},
		{avg: 2.5, roster: 4, category: CategoryMiddle, cards: 3, price: 10},
		{avg: 1.5, roster: 4, category: CategoryMiddle, cards: 3, price: 10},
		{avg: 3.99, roster: 4, category: CategoryMiddle, cards: 3, price: 10},
		{avg: 3, roster: 3, category: CategoryLast, cards: 5, price: 15},
	}
	for _, tc := range tests {
		got := AllowanceFor(tc.avg, tc.roster)
		if got.Category != tc.category || got.CardLimit != tc.cards || got.PriceLimit != tc.price {
			t.Fatalf("AllowanceFor(%v, %d) = %+v, want %s (%d, %.0f)",
				tc.avg, tc.roster, got, tc.category, tc.cards, tc.price)
		}
	}
}

func TestDefaultAllowanceIsMiddle(t *testing.T) {
	a := DefaultAllowance()
	if a.Category != CategoryMiddle || a.CardLimit != 3 || a.PriceLimit != 10 {
		t.Fatalf("DefaultAllowance() = %+v", a)
	}
}
