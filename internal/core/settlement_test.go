package core

import (
	"testing"

	"github.com/shopspring/decimal"
)

func dec(s string) decimal.Decimal {
	d, err := decimal.NewFromString(s)
	if err != nil {
		panic(err)
	}
	return d
}

func TestComputeSettlementsEqualSplitPayer(t *testing.T) {
	// Alice pays 30 split equally across {Alice, Bob, Carol}.
	expenses := []Expense{
		{
			Description: "dinner",
			Amount:      dec("30"),
			PaidBy:      "Alice",
			SplitType:   SplitEqual,
			Members:     []string{"Alice", "Bob", "Carol"},
		},
	}

	sum := ComputeSettlements(expenses, "Alice")

	if !sum.TotalOwed.Equal(dec("20")) {
		t.Fatalf("TotalOwed = %s, want 20", sum.TotalOwed)
	}
	if !sum.TotalOwing.IsZero() {
		t.Fatalf("TotalOwing = %s, want 0", sum.TotalOwing)
	}
	if len(sum.Settlements) != 2 {
		t.Fatalf("settlements = %d, want 2", len(sum.Settlements))
	}
	// Equal amounts keep encounter order: Bob before Carol.
	if sum.Settlements[0].Name != "Bob" || sum.Settlements[1].Name != "Carol" {
		t.Fatalf("settlement order = [%s, %s], want [Bob, Carol]",
			sum.Settlements[0].Name, sum.Settlements[1].Name)
	}
	for _, s := range sum.Settlements {
		if !s.Amount.Equal(dec("10")) {
			t.Fatalf("%s amount = %s, want 10", s.Name, s.Amount)
		}
		if s.Direction != Owed {
			t.Fatalf("%s direction = %s, want owed", s.Name, s.Direction)
		}
	}
}

func TestComputeSettlementsEqualSplitNonPayer(t *testing.T) {
	expenses := []Expense{
		{
			Amount:    dec("30"),
			PaidBy:    "Bob",
			SplitType: SplitEqual,
			Members:   []string{"Alice", "Bob", "Carol"},
		},
	}

	sum := ComputeSettlements(expenses, "Alice")

	if !sum.TotalOwing.Equal(dec("10")) {
		t.Fatalf("TotalOwing = %s, want 10", sum.TotalOwing)
	}
	if len(sum.Settlements) != 1 || sum.Settlements[0].Name != "Bob" || sum.Settlements[0].Direction != Owing {
		t.Fatalf("unexpected settlements: %+v", sum.Settlements)
	}
}

func TestComputeSettlementsCustomSplit(t *testing.T) {
	// Dave pays 50 with custom shares [{Alice, 20}, {Dave, 30}].
	expenses := []Expense{
		{
			Amount:    dec("50"),
			PaidBy:    "Dave",
			SplitType: SplitCustom,
			Splits: []SplitShare{
				{Member: "Alice", Amount: dec("20")},
				{Member: "Dave", Amount: dec("30")},
			},
		},
	}

	sum := ComputeSettlements(expenses, "Alice")

	if !sum.TotalOwing.Equal(dec("20")) {
		t.Fatalf("TotalOwing = %s, want 20", sum.TotalOwing)
	}
	if !sum.TotalOwed.IsZero() {
		t.Fatalf("TotalOwed = %s, want 0", sum.TotalOwed)
	}
	if len(sum.Settlements) != 1 {
		t.Fatalf("settlements = %d, want 1", len(sum.Settlements))
	}
	got := sum.Settlements[0]
	if got.Name != "Dave" || !got.Amount.Equal(dec("20")) || got.Direction != Owing {
		t.Fatalf("settlement = %+v, want Dave/20/owing", got)
	}
}

func TestComputeSettlementsCustomSplitPayerSkipsOwnShare(t *testing.T) {
	expenses := []Expense{
		{
			Amount:    dec("50"),
			PaidBy:    "Alice",
			SplitType: SplitCustom,
			Splits: []SplitShare{
				{Member: "Alice", Amount: dec("30")},
				{Member: "Bob", Amount: dec("20")},
			},
		},
	}

	sum := ComputeSettlements(expenses, "Alice")

	if !sum.TotalOwed.Equal(dec("20")) {
		t.Fatalf("TotalOwed = %s, want 20", sum.TotalOwed)
	}
	if len(sum.Settlements) != 1 || sum.Settlements[0].Name != "Bob" {
		t.Fatalf("unexpected settlements: %+v", sum.Settlements)
	}
}

func TestComputeSettlementsSkipsSettled(t *testing.T) {
	expenses := []Expense{
		{
			Amount:    dec("30"),
			PaidBy:    "Alice",
			SplitType: SplitEqual,
			Members:   []string{"Alice", "Bob"},
			Settled:   true,
		},
	}

	sum := ComputeSettlements(expenses, "Alice")

	if !sum.TotalOwed.IsZero() || !sum.TotalOwing.IsZero() || len(sum.Settlements) != 0 {
		t.Fatalf("settled expense affected balances: %+v", sum)
	}
}

func TestComputeSettlementsSkipsMalformed(t *testing.T) {
	expenses := []Expense{
		// equal split with no members: would divide by zero, must be skipped
		{Amount: dec("10"), PaidBy: "Alice", SplitType: SplitEqual},
		// custom split with no shares
		{Amount: dec("10"), PaidBy: "Bob", SplitType: SplitCustom},
		// unknown split type
		{Amount: dec("10"), PaidBy: "Bob", SplitType: "weird", Members: []string{"Alice", "Bob"}},
	}

	sum := ComputeSettlements(expenses, "Alice")

	if len(sum.Settlements) != 0 {
		t.Fatalf("malformed expenses produced settlements: %+v", sum.Settlements)
	}
}

func TestComputeSettlementsViewerNotAMember(t *testing.T) {
	// Viewer is neither payer nor listed member: nothing is recorded.
	expenses := []Expense{
		{
			Amount:    dec("30"),
			PaidBy:    "Bob",
			SplitType: SplitEqual,
			Members:   []string{"Bob", "Carol", "Erin"},
		},
	}

	sum := ComputeSettlements(expenses, "Alice")

	if len(sum.Settlements) != 0 {
		t.Fatalf("third-party expense produced settlements: %+v", sum.Settlements)
	}
}

func TestComputeSettlementsNetsToZero(t *testing.T) {
	// Alice and Bob cover each other exactly; the zero balance is dropped.
	expenses := []Expense{
		{Amount: dec("20"), PaidBy: "Alice", SplitType: SplitEqual, Members: []string{"Alice", "Bob"}},
		{Amount: dec("20"), PaidBy: "Bob", SplitType: SplitEqual, Members: []string{"Alice", "Bob"}},
	}

	sum := ComputeSettlements(expenses, "Alice")

	if len(sum.Settlements) != 0 {
		t.Fatalf("zero balance emitted: %+v", sum.Settlements)
	}
	if !sum.TotalOwed.IsZero() || !sum.TotalOwing.IsZero() {
		t.Fatalf("totals not zero: owed=%s owing=%s", sum.TotalOwed, sum.TotalOwing)
	}
}

func TestComputeSettlementsSortedDescending(t *testing.T) {
	expenses := []Expense{
		{Amount: dec("10"), PaidBy: "Alice", SplitType: SplitEqual, Members: []string{"Alice", "Bob"}},
		{Amount: dec("60"), PaidBy: "Alice", SplitType: SplitEqual, Members: []string{"Alice", "Carol"}},
		{Amount: dec("40"), PaidBy: "Dave", SplitType: SplitCustom, Splits: []SplitShare{
			{Member: "Alice", Amount: dec("15")},
			{Member: "Dave", Amount: dec("25")},
		}},
	}

	sum := ComputeSettlements(expenses, "Alice")

	want := []string{"Carol", "Dave", "Bob"} // 30 owed, 15 owing, 5 owed
	if len(sum.Settlements) != len(want) {
		t.Fatalf("settlements = %d, want %d", len(sum.Settlements), len(want))
	}
	for i, name := range want {
		if sum.Settlements[i].Name != name {
			t.Fatalf("position %d = %s, want %s", i, sum.Settlements[i].Name, name)
		}
	}
	if !sum.TotalOwed.Equal(dec("35")) {
		t.Fatalf("TotalOwed = %s, want 35", sum.TotalOwed)
	}
	if !sum.TotalOwing.Equal(dec("15")) {
		t.Fatalf("TotalOwing = %s, want 15", sum.TotalOwing)
	}
}

func TestComputeSettlementsUnevenDivisionKeepsPrecision(t *testing.T) {
	// 10 / 3 is not remainder-corrected: each member owes the raw quotient.
	expenses := []Expense{
		{Amount: dec("10"), PaidBy: "Alice", SplitType: SplitEqual, Members: []string{"Alice", "Bob", "Carol"}},
	}

	sum := ComputeSettlements(expenses, "Alice")

	share := dec("10").Div(dec("3"))
	for _, s := range sum.Settlements {
		if !s.Amount.Equal(share) {
			t.Fatalf("%s amount = %s, want %s", s.Name, s.Amount, share)
		}
	}
	if !sum.TotalOwed.Equal(share.Add(share)) {
		t.Fatalf("TotalOwed = %s, want %s", sum.TotalOwed, share.Add(share))
	}
}

func TestComputeSettlementsTotalsMatchBalances(t *testing.T) {
	expenses := []Expense{
		{Amount: dec("90"), PaidBy: "Alice", SplitType: SplitEqual, Members: []string{"Alice", "Bob", "Carol"}},
		{Amount: dec("40"), PaidBy: "Bob", SplitType: SplitEqual, Members: []string{"Alice", "Bob"}},
		{Amount: dec("12"), PaidBy: "Carol", SplitType: SplitCustom, Splits: []SplitShare{
			{Member: "Alice", Amount: dec("12")},
		}},
	}

	sum := ComputeSettlements(expenses, "Alice")

	owed, owing := decimal.Zero, decimal.Zero
	for _, s := range sum.Settlements {
		switch s.Direction {
		case Owed:
			owed = owed.Add(s.Amount)
		case Owing:
			owing = owing.Add(s.Amount)
		}
	}
	if !sum.TotalOwed.Equal(owed) {
		t.Fatalf("TotalOwed = %s, entries sum to %s", sum.TotalOwed, owed)
	}
	if !sum.TotalOwing.Equal(owing) {
		t.Fatalf("TotalOwing = %s, entries sum to %s", sum.TotalOwing, owing)
	}
}
