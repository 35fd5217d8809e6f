// Package store defines the ports HTTP handlers and services consume, keeping
// them independent of the concrete backend (SQLite or in-memory).
package store

import (
	"context"
	"errors"

	"divvy/internal/core"
)

// ErrNotFound is returned when a requested record does not exist.
var ErrNotFound = errors.New("not found")

// ErrDuplicate is returned when a uniqueness constraint is violated.
var ErrDuplicate = errors.New("already exists")

type (
	ProfileStore interface {
		CreateProfile(ctx context.Context, p core.Profile) error
		ProfileByEmail(ctx context.Context, email string) (core.Profile, error)
		ProfileByID(ctx context.Context, id string) (core.Profile, error)
	}

	GroupStore interface {
		CreateGroup(ctx context.Context, g core.Group) error
		Group(ctx context.Context, id string) (core.Group, error)
		// GroupsForMember returns every group that lists memberName.
		GroupsForMember(ctx context.Context, memberName string) ([]core.Group, error)
		AddMembers(ctx context.Context, groupID string, names []string) error
		DeleteGroup(ctx context.Context, id string) error
	}

	ExpenseStore interface {
		CreateExpense(ctx context.Context, e core.Expense) error
		Expense(ctx context.Context, id string) (core.Expense, error)
		ExpensesByGroup(ctx context.Context, groupID string) ([]core.Expense, error)
		// ExpensesForMember returns expenses from all groups listing memberName,
		// each with the group's member list attached for equal-split math.
		ExpensesForMember(ctx context.Context, memberName string) ([]core.Expense, error)
		SettleExpense(ctx context.Context, id string) error
		DeleteExpense(ctx context.Context, id string) error
	}

	PersonalExpenseStore interface {
		CreatePersonalExpense(ctx context.Context, p core.PersonalExpense) error
		PersonalExpenses(ctx context.Context, profileID string) ([]core.PersonalExpense, error)
		DeletePersonalExpense(ctx context.Context, id, profileID string) error
	}

	ActivityStore interface {
		AppendActivity(ctx context.Context, a core.Activity) error
		ActivityByGroup(ctx context.Context, groupID string, limit int) ([]core.Activity, error)
	}
)

// Store bundles every port a full backend provides.
type Store interface {
	ProfileStore
	GroupStore
	ExpenseStore
	PersonalExpenseStore
	ActivityStore
}
