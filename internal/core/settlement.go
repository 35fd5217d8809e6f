package core

import (
	"sort"

	"github.com/shopspring/decimal"
)

const (
	// Owed means the counterparty owes the viewer.
	Owed Direction = "owed"
	// Owing means the viewer owes the counterparty.
	Owing Direction = "owing"
)

type (
	Direction string

	// SettlementEntry is a net non-zero balance between the viewer and one
	// other member. Amount is always positive; Direction carries the sign.
	SettlementEntry struct {
		Name      string
		Amount    decimal.Decimal
		Direction Direction
	}

	// Summary aggregates the viewer's position across a set of expenses.
	Summary struct {
		TotalOwed   decimal.Decimal // sum others owe the viewer
		TotalOwing  decimal.Decimal // sum the viewer owes others
		Settlements []SettlementEntry
	}
)

// ComputeSettlements reduces a list of expenses to net pairwise balances
// between the viewer and every other member, then derives the two totals and
// a settlement list sorted by amount descending (ties keep encounter order).
//
// Only viewer<->payer relationships are tracked; shares between two other
// members are never modeled. Settled expenses are skipped, as are malformed
// ones (equal split without members, custom split without shares) - the
// aggregation degrades by omission and never fails.
func ComputeSettlements(expenses []Expense, viewerName string) Summary {
	balances := make(map[string]decimal.Decimal)
	var order []string // first-seen order, keeps the final sort stable

	add := func(name string, amount decimal.Decimal) {
		if name == viewerName {
			// self-balance is implicitly zero
			return
		}
		if _, seen := balances[name]; !seen {
			order = append(order, name)
		}
		balances[name] = balances[name].Add(amount)
	}

	for _, e := range expenses {
		if e.Settled {
			continue
		}
		isPayer := e.PaidBy == viewerName

		switch e.SplitType {
		case SplitEqual:
			if len(e.Members) == 0 {
				continue
			}
			share := e.Amount.Div(decimal.NewFromInt(int64(len(e.Members))))
			if isPayer {
				for _, m := range e.Members {
					add(m, share)
				}
			} else if containsName(e.Members, viewerName) && containsName(e.Members, e.PaidBy) {
				add(e.PaidBy, share.Neg())
			}
		case SplitCustom:
			if len(e.Splits) == 0 {
				continue
			}
			if isPayer {
				for _, s := range e.Splits {
					add(s.Member, s.Amount)
				}
			} else {
				for _, s := range e.Splits {
					if s.Member == viewerName {
						add(e.PaidBy, s.Amount.Neg())
						break
					}
				}
			}
		}
	}

	var sum Summary
	for _, name := range order {
		b := balances[name]
		if b.IsZero() {
			continue
		}
		if b.IsPositive() {
			sum.TotalOwed = sum.TotalOwed.Add(b)
			sum.Settlements = append(sum.Settlements, SettlementEntry{
				Name:      name,
				Amount:    b,
				Direction: Owed,
			})
		} else {
			sum.TotalOwing = sum.TotalOwing.Add(b.Abs())
			sum.Settlements = append(sum.Settlements, SettlementEntry{
				Name:      name,
				Amount:    b.Abs(),
				Direction: Owing,
			})
		}
	}

	sort.SliceStable(sum.Settlements, func(i, j int) bool {
		return sum.Settlements[i].Amount.GreaterThan(sum.Settlements[j].Amount)
	})

	return sum
}

func containsName(names []string, name string) bool {
	for _, n := range names {
		if n == name {
			return true
		}
	}
	return false
}
