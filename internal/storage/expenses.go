package storage

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"divvy/internal/core"
	"divvy/internal/store"
)

// CreateExpense implements store.ExpenseStore
func (r *Repository) CreateExpense(ctx context.Context, e core.Expense) error {
	if e.ID == "" {
		e.ID = uuid.NewString()
	}
	if e.CreatedAt.IsZero() {
		e.CreatedAt = time.Now().UTC()
	}

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx,
		`INSERT INTO expenses (id, group_id, description, amount, paid_by, split_type, settled, notified, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, 0, ?)`,
		e.ID, e.GroupID, e.Description, e.Amount.String(), e.PaidBy, string(e.SplitType),
		boolToInt(e.Settled), e.CreatedAt)
	if err != nil {
		return fmt.Errorf("insert expense: %w", err)
	}

	for i, s := range e.Splits {
		_, err = tx.ExecContext(ctx,
			`INSERT INTO expense_splits (expense_id, member_name, amount, position) VALUES (?, ?, ?, ?)`,
			e.ID, s.Member, s.Amount.String(), i)
		if err != nil {
			return fmt.Errorf("insert expense split: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit expense: %w", err)
	}

	slog.InfoContext(ctx, "Expense saved",
		"id", e.ID,
		"group_id", e.GroupID,
		"description", e.Description,
		"amount", e.Amount.String(),
		"split_type", string(e.SplitType))
	return nil
}

// Expense implements store.ExpenseStore
func (r *Repository) Expense(ctx context.Context, id string) (core.Expense, error) {
	expenses, err := r.queryExpenses(ctx,
		`SELECT id, group_id, description, amount, paid_by, split_type, settled, created_at
		 FROM expenses WHERE id = ?`, id)
	if err != nil {
		return core.Expense{}, err
	}
	if len(expenses) == 0 {
		return core.Expense{}, store.ErrNotFound
	}
	return expenses[0], nil
}

// ExpensesByGroup implements store.ExpenseStore
func (r *Repository) ExpensesByGroup(ctx context.Context, groupID string) ([]core.Expense, error) {
	return r.queryExpenses(ctx,
		`SELECT id, group_id, description, amount, paid_by, split_type, settled, created_at
		 FROM expenses WHERE group_id = ? ORDER BY created_at, id`, groupID)
}

// ExpensesForMember implements store.ExpenseStore
func (r *Repository) ExpensesForMember(ctx context.Context, memberName string) ([]core.Expense, error) {
	return r.queryExpenses(ctx,
		`SELECT e.id, e.group_id, e.description, e.amount, e.paid_by, e.split_type, e.settled, e.created_at
		 FROM expenses e
		 JOIN group_members gm ON gm.group_id = e.group_id
		 WHERE gm.member_name = ?
		 ORDER BY e.created_at, e.id`, memberName)
}

// SettleExpense implements store.ExpenseStore
func (r *Repository) SettleExpense(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx, `UPDATE expenses SET settled = 1 WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("settle expense: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return store.ErrNotFound
	}

	slog.InfoContext(ctx, "Expense settled", "id", id)
	return nil
}

// DeleteExpense implements store.ExpenseStore
func (r *Repository) DeleteExpense(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM expenses WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete expense: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return store.ErrNotFound
	}

	slog.InfoContext(ctx, "Expense deleted", "id", id)
	return nil
}

func (r *Repository) queryExpenses(ctx context.Context, query string, args ...any) ([]core.Expense, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query expenses: %w", err)
	}
	defer rows.Close()

	var expenses []core.Expense
	for rows.Next() {
		var (
			e         core.Expense
			amount    string
			splitType string
			settled   int
		)
		if err := rows.Scan(&e.ID, &e.GroupID, &e.Description, &amount, &e.PaidBy,
			&splitType, &settled, &e.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan expense: %w", err)
		}
		e.Amount, err = decimal.NewFromString(amount)
		if err != nil {
			return nil, fmt.Errorf("parse expense amount %q: %w", amount, err)
		}
		e.SplitType = core.SplitType(splitType)
		e.Settled = settled != 0
		expenses = append(expenses, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate expenses: %w", err)
	}

	for i := range expenses {
		if expenses[i].SplitType == core.SplitCustom {
			expenses[i].Splits, err = r.expenseSplits(ctx, expenses[i].ID)
			if err != nil {
				return nil, err
			}
		}
		expenses[i].Members, err = r.groupMembers(ctx, expenses[i].GroupID)
		if err != nil {
			return nil, err
		}
	}
	return expenses, nil
}

func (r *Repository) expenseSplits(ctx context.Context, expenseID string) ([]core.SplitShare, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT member_name, amount FROM expense_splits WHERE expense_id = ? ORDER BY position`,
		expenseID)
	if err != nil {
		return nil, fmt.Errorf("query expense splits: %w", err)
	}
	defer rows.Close()

	var splits []core.SplitShare
	for rows.Next() {
		var (
			s      core.SplitShare
			amount string
		)
		if err := rows.Scan(&s.Member, &amount); err != nil {
			return nil, fmt.Errorf("scan split: %w", err)
		}
		s.Amount, err = decimal.NewFromString(amount)
		if err != nil {
			return nil, fmt.Errorf("parse split amount %q: %w", amount, err)
		}
		splits = append(splits, s)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate splits: %w", err)
	}
	return splits, nil
}

// CreatePersonalExpense implements store.PersonalExpenseStore
func (r *Repository) CreatePersonalExpense(ctx context.Context, p core.PersonalExpense) error {
	if p.ID == "" {
		p.ID = uuid.NewString()
	}
	if p.CreatedAt.IsZero() {
		p.CreatedAt = time.Now().UTC()
	}
	if p.SpentOn.IsZero() {
		p.SpentOn = p.CreatedAt
	}

	_, err := r.db.ExecContext(ctx,
		`INSERT INTO personal_expenses (id, profile_id, description, amount, category, spent_on, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		p.ID, p.ProfileID, p.Description, p.Amount.String(), p.Category, p.SpentOn, p.CreatedAt)
	if err != nil {
		return fmt.Errorf("insert personal expense: %w", err)
	}
	return nil
}

// PersonalExpenses implements store.PersonalExpenseStore
func (r *Repository) PersonalExpenses(ctx context.Context, profileID string) ([]core.PersonalExpense, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, profile_id, description, amount, category, spent_on, created_at
		 FROM personal_expenses WHERE profile_id = ? ORDER BY created_at, id`, profileID)
	if err != nil {
		return nil, fmt.Errorf("query personal expenses: %w", err)
	}
	defer rows.Close()

	var out []core.PersonalExpense
	for rows.Next() {
		var (
			p      core.PersonalExpense
			amount string
		)
		if err := rows.Scan(&p.ID, &p.ProfileID, &p.Description, &amount, &p.Category,
			&p.SpentOn, &p.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan personal expense: %w", err)
		}
		p.Amount, err = decimal.NewFromString(amount)
		if err != nil {
			return nil, fmt.Errorf("parse personal amount %q: %w", amount, err)
		}
		out = append(out, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate personal expenses: %w", err)
	}
	return out, nil
}

// DeletePersonalExpense implements store.PersonalExpenseStore
func (r *Repository) DeletePersonalExpense(ctx context.Context, id, profileID string) error {
	res, err := r.db.ExecContext(ctx,
		`DELETE FROM personal_expenses WHERE id = ? AND profile_id = ?`, id, profileID)
	if err != nil {
		return fmt.Errorf("delete personal expense: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return store.ErrNotFound
	}
	return nil
}

// AppendActivity implements store.ActivityStore
func (r *Repository) AppendActivity(ctx context.Context, a core.Activity) error {
	if a.CreatedAt.IsZero() {
		a.CreatedAt = time.Now().UTC()
	}
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO activity (group_id, kind, message, created_at) VALUES (?, ?, ?, ?)`,
		a.GroupID, a.Kind, a.Message, a.CreatedAt)
	if err != nil {
		return fmt.Errorf("insert activity: %w", err)
	}
	return nil
}

// ActivityByGroup implements store.ActivityStore
func (r *Repository) ActivityByGroup(ctx context.Context, groupID string, limit int) ([]core.Activity, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, group_id, kind, message, created_at
		 FROM activity WHERE group_id = ? ORDER BY id DESC LIMIT ?`, groupID, limit)
	if err != nil {
		return nil, fmt.Errorf("query activity: %w", err)
	}
	defer rows.Close()

	var out []core.Activity
	for rows.Next() {
		var a core.Activity
		if err := rows.Scan(&a.ID, &a.GroupID, &a.Kind, &a.Message, &a.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan activity: %w", err)
		}
		out = append(out, a)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate activity: %w", err)
	}
	return out, nil
}

// UnnotifiedExpenses returns expenses whose creation never reached the
// activity feed, oldest first. Backup path for lost queue messages.
func (r *Repository) UnnotifiedExpenses(ctx context.Context, limit int) ([]core.Expense, error) {
	return r.queryExpenses(ctx,
		`SELECT id, group_id, description, amount, paid_by, split_type, settled, created_at
		 FROM expenses WHERE notified = 0 ORDER BY created_at, id LIMIT ?`, limit)
}

// MarkNotified records that an expense's creation reached the activity feed.
func (r *Repository) MarkNotified(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx, `UPDATE expenses SET notified = 1 WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("mark notified: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return store.ErrNotFound
	}
	return nil
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
