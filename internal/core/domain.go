package core

import (
	"errors"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

const (
	SplitEqual  SplitType = "equal"
	SplitCustom SplitType = "custom"
)

type (
	SplitType string

	// SplitShare is one member's owed portion of a custom-split expense.
	// Order matters: shares keep the order they were entered in.
	SplitShare struct {
		Member string
		Amount decimal.Decimal
	}

	Expense struct {
		ID          string
		GroupID     string
		Description string
		Amount      decimal.Decimal
		PaidBy      string     // display name of whoever fronted the money
		SplitType   SplitType
		Splits      []SplitShare // custom splits only
		Members     []string     // group member names, used for equal splits
		Settled     bool
		CreatedAt   time.Time
	}

	Group struct {
		ID        string
		Name      string
		CreatedBy string // profile ID of the creator
		Members   []string
		CreatedAt time.Time
	}

	PersonalExpense struct {
		ID          string
		ProfileID   string
		Description string
		Amount      decimal.Decimal
		Category    string
		SpentOn     time.Time
		CreatedAt   time.Time
	}

	Profile struct {
		ID           string
		Email        string
		DisplayName  string
		PasswordHash string
		CreatedAt    time.Time
	}

	// Activity is one entry in a group's event feed.
	Activity struct {
		ID        int64
		GroupID   string
		Kind      string
		Message   string
		CreatedAt time.Time
	}
)

var (
	ErrInvalidAmount    = errors.New("invalid amount")
	ErrEmptyDescription = errors.New("empty description")
	ErrEmptyPaidBy      = errors.New("empty payer")
	ErrInvalidSplitType = errors.New("invalid split type")
	ErrNoMembers        = errors.New("group has no members")
	ErrEmptySplits      = errors.New("empty split details")
	ErrSplitMismatch    = errors.New("split amounts do not sum to expense amount")
	ErrEmptyName        = errors.New("empty name")
)

func (e Expense) Validate() error {
	if len(strings.TrimSpace(e.Description)) == 0 {
		return ErrEmptyDescription
	}
	if len(e.Description) > 200 {
		return errors.New("description too long (max 200 characters)")
	}
	if !e.Amount.IsPositive() {
		return ErrInvalidAmount
	}
	if strings.TrimSpace(e.PaidBy) == "" {
		return ErrEmptyPaidBy
	}

	switch e.SplitType {
	case SplitEqual:
		if len(e.Members) == 0 {
			return ErrNoMembers
		}
	case SplitCustom:
		if len(e.Splits) == 0 {
			return ErrEmptySplits
		}
		sum := decimal.Zero
		for _, s := range e.Splits {
			if strings.TrimSpace(s.Member) == "" {
				return ErrEmptyName
			}
			if s.Amount.IsNegative() {
				return ErrInvalidAmount
			}
			sum = sum.Add(s.Amount)
		}
		if !sum.Equal(e.Amount) {
			return ErrSplitMismatch
		}
	default:
		return ErrInvalidSplitType
	}

	return nil
}

func (g Group) Validate() error {
	if len(strings.TrimSpace(g.Name)) == 0 {
		return ErrEmptyName
	}
	if len(g.Name) > 100 {
		return errors.New("group name too long (max 100 characters)")
	}
	if len(g.Members) == 0 {
		return ErrNoMembers
	}
	for _, m := range g.Members {
		if strings.TrimSpace(m) == "" {
			return ErrEmptyName
		}
	}
	return nil
}

func (p PersonalExpense) Validate() error {
	if len(strings.TrimSpace(p.Description)) == 0 {
		return ErrEmptyDescription
	}
	if len(p.Description) > 200 {
		return errors.New("description too long (max 200 characters)")
	}
	if !p.Amount.IsPositive() {
		return ErrInvalidAmount
	}
	if strings.TrimSpace(p.Category) == "" {
		return errors.New("empty category")
	}
	return nil
}

// HasMember reports whether name is one of the group's members.
func (g Group) HasMember(name string) bool {
	for _, m := range g.Members {
		if m == name {
			return true
		}
	}
	return false
}
