package settlement

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"github.com/orbas1/fixnado-backend/pkg/enums"
)

func TestCalculateSameMomentBillsOneDay(t *testing.T) {
	now := time.Date(2025, 3, 10, 14, 0, 0, 0, time.UTC)
	quote := Calculate(now, now, decimal.NewFromInt(40), nil)

	if quote.DurationDays != 1 {
		t.Fatalf("expected 1 day, got %d", quote.DurationDays)
	}
	if !quote.BaseCharge.Equal(decimal.NewFromInt(40)) {
		t.Fatalf("expected base 40, got %s", quote.BaseCharge)
	}
	if !quote.TotalCharges.Equal(decimal.NewFromInt(40)) {
		t.Fatalf("expected total 40, got %s", quote.TotalCharges)
	}
}

func TestCalculateThreeDayWindow(t *testing.T) {
	start := time.Date(2025, 3, 10, 9, 0, 0, 0, time.UTC)
	end := start.Add(72 * time.Hour)
	quote := Calculate(start, end, decimal.NewFromInt(25), nil)

	if quote.DurationDays != 3 {
		t.Fatalf("expected 3 days, got %d", quote.DurationDays)
	}
	if !quote.BaseCharge.Equal(decimal.NewFromInt(75)) {
		t.Fatalf("expected base 75, got %s", quote.BaseCharge)
	}
}

func TestCalculatePartialDayRoundsUp(t *testing.T) {
	start := time.Date(2025, 3, 10, 9, 0, 0, 0, time.UTC)
	end := start.Add(25 * time.Hour)
	quote := Calculate(start, end, decimal.NewFromInt(10), nil)

	if quote.DurationDays != 2 {
		t.Fatalf("expected 2 days, got %d", quote.DurationDays)
	}
}

func TestCalculateSumsAdditionalCharges(t *testing.T) {
	start := time.Date(2025, 3, 10, 9, 0, 0, 0, time.UTC)
	end := start.Add(24 * time.Hour)
	charges := []Charge{
		{Label: "cleaning", Amount: decimal.NewFromInt(15)},
		{Label: "late fee", Amount: decimal.RequireFromString("7.50")},
	}
	quote := Calculate(start, end, decimal.NewFromInt(20), charges)

	if !quote.AdditionalCharge.Equal(decimal.RequireFromString("22.50")) {
		t.Fatalf("expected additional 22.50, got %s", quote.AdditionalCharge)
	}
	if !quote.TotalCharges.Equal(decimal.RequireFromString("42.50")) {
		t.Fatalf("expected total 42.50, got %s", quote.TotalCharges)
	}
}

func TestDepositDisposition(t *testing.T) {
	deposit := decimal.NewFromInt(100)

	cases := []struct {
		name       string
		additional decimal.Decimal
		want       enums.DepositStatus
	}{
		{"no charges", decimal.Zero, enums.DepositStatusReleased},
		{"below deposit", decimal.NewFromInt(40), enums.DepositStatusPartiallyReleased},
		{"exactly deposit", decimal.NewFromInt(100), enums.DepositStatusForfeited},
		{"above deposit", decimal.NewFromInt(150), enums.DepositStatusForfeited},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := DepositDisposition(tc.additional, deposit)
			if got != tc.want {
				t.Fatalf("expected %s, got %s", tc.want, got)
			}
		})
	}
}

func TestDepositSplit(t *testing.T) {
	deposit := decimal.NewFromInt(100)

	kept, owed := DepositSplit(decimal.Zero, deposit)
	if !kept.Equal(decimal.Zero) || !owed.Equal(deposit) {
		t.Fatalf("clean return should owe full deposit, got kept=%s owed=%s", kept, owed)
	}

	kept, owed = DepositSplit(decimal.NewFromInt(30), deposit)
	if !kept.Equal(decimal.NewFromInt(30)) || !owed.Equal(decimal.NewFromInt(70)) {
		t.Fatalf("expected kept=30 owed=70, got kept=%s owed=%s", kept, owed)
	}

	kept, owed = DepositSplit(decimal.NewFromInt(120), deposit)
	if !kept.Equal(deposit) || !owed.Equal(decimal.Zero) {
		t.Fatalf("charges above deposit keep it all, got kept=%s owed=%s", kept, owed)
	}

	kept, owed = DepositSplit(decimal.NewFromInt(50), decimal.Zero)
	if !kept.Equal(decimal.Zero) || !owed.Equal(decimal.Zero) {
		t.Fatalf("no deposit means nothing to split, got kept=%s owed=%s", kept, owed)
	}
}
