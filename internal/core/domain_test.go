package core

import (
	"errors"
	"testing"
)

func TestExpenseValidate(t *testing.T) {
	good := Expense{
		Description: "groceries",
		Amount:      dec("30"),
		PaidBy:      "Alice",
		SplitType:   SplitEqual,
		Members:     []string{"Alice", "Bob"},
	}
	if err := good.Validate(); err != nil {
		t.Fatalf("expected ok, got %v", err)
	}

	cases := []struct {
		name string
		e    Expense
		want error
	}{
		{
			name: "empty description",
			e:    Expense{Amount: dec("1"), PaidBy: "a", SplitType: SplitEqual, Members: []string{"a"}},
			want: ErrEmptyDescription,
		},
		{
			name: "zero amount",
			e:    Expense{Description: "x", Amount: dec("0"), PaidBy: "a", SplitType: SplitEqual, Members: []string{"a"}},
			want: ErrInvalidAmount,
		},
		{
			name: "missing payer",
			e:    Expense{Description: "x", Amount: dec("1"), SplitType: SplitEqual, Members: []string{"a"}},
			want: ErrEmptyPaidBy,
		},
		{
			name: "equal split without members",
			e:    Expense{Description: "x", Amount: dec("1"), PaidBy: "a", SplitType: SplitEqual},
			want: ErrNoMembers,
		},
		{
			name: "custom split without shares",
			e:    Expense{Description: "x", Amount: dec("1"), PaidBy: "a", SplitType: SplitCustom},
			want: ErrEmptySplits,
		},
		{
			name: "custom split sum mismatch",
			e: Expense{Description: "x", Amount: dec("10"), PaidBy: "a", SplitType: SplitCustom,
				Splits: []SplitShare{{Member: "a", Amount: dec("4")}, {Member: "b", Amount: dec("5")}}},
			want: ErrSplitMismatch,
		},
		{
			name: "unknown split type",
			e:    Expense{Description: "x", Amount: dec("1"), PaidBy: "a", SplitType: "thirds"},
			want: ErrInvalidSplitType,
		},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if err := tc.e.Validate(); !errors.Is(err, tc.want) {
				t.Fatalf("got %v, want %v", err, tc.want)
			}
		})
	}
}

func TestExpenseValidateCustomSplitExact(t *testing.T) {
	e := Expense{
		Description: "trip",
		Amount:      dec("50"),
		PaidBy:      "Dave",
		SplitType:   SplitCustom,
		Splits: []SplitShare{
			{Member: "Alice", Amount: dec("20")},
			{Member: "Dave", Amount: dec("30")},
		},
	}
	if err := e.Validate(); err != nil {
		t.Fatalf("expected ok, got %v", err)
	}
}

func TestGroupValidate(t *testing.T) {
	good := Group{Name: "Trip", CreatedBy: "p1", Members: []string{"Alice", "Bob"}}
	if err := good.Validate(); err != nil {
		t.Fatalf("expected ok, got %v", err)
	}

	bads := []Group{
		{Name: "", Members: []string{"a"}},
		{Name: "g"},
		{Name: "g", Members: []string{" "}},
	}
	for i, g := range bads {
		if err := g.Validate(); err == nil {
			t.Fatalf("case %d expected error", i)
		}
	}
}

func TestGroupHasMember(t *testing.T) {
	g := Group{Members: []string{"Alice", "Bob"}}
	if !g.HasMember("Bob") {
		t.Fatalf("expected Bob to be a member")
	}
	if g.HasMember("Carol") {
		t.Fatalf("Carol should not be a member")
	}
}

func TestPersonalExpenseValidate(t *testing.T) {
	good := PersonalExpense{Description: "coffee", Amount: dec("3.5"), Category: "Food"}
	if err := good.Validate(); err != nil {
		t.Fatalf("expected ok, got %v", err)
	}

	bads := []PersonalExpense{
		{Description: "", Amount: dec("1"), Category: "c"},
		{Description: "x", Amount: dec("0"), Category: "c"},
		{Description: "x", Amount: dec("1"), Category: ""},
	}
	for i, p := range bads {
		if err := p.Validate(); err == nil {
			t.Fatalf("case %d expected error", i)
		}
	}
}
