// Package services orchestrates expense operations across storage and AMQP.
package services

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"divvy/internal/amqp"
	"divvy/internal/core"
	"divvy/internal/store"
)

// EventPublisher is the slice of the AMQP client the service needs.
type EventPublisher interface {
	PublishExpenseEvent(ctx context.Context, event *amqp.ExpenseEvent) error
}

// ExpenseService writes shared expenses and publishes lifecycle events.
// Publishing is best effort: a lost event is recovered later by the
// worker's catch-up scan, so a broker outage never fails a request.
type ExpenseService struct {
	store     store.Store
	publisher EventPublisher
}

func NewExpenseService(st store.Store, publisher EventPublisher) *ExpenseService {
	return &ExpenseService{
		store:     st,
		publisher: publisher,
	}
}

// CreateExpense validates and saves an expense, then publishes a created event.
func (s *ExpenseService) CreateExpense(ctx context.Context, e core.Expense) (core.Expense, error) {
	if err := e.Validate(); err != nil {
		return core.Expense{}, err
	}

	if e.ID == "" {
		e.ID = uuid.NewString()
	}
	if e.CreatedAt.IsZero() {
		e.CreatedAt = time.Now().UTC()
	}

	if err := s.store.CreateExpense(ctx, e); err != nil {
		return core.Expense{}, fmt.Errorf("save expense: %w", err)
	}

	event := amqp.NewExpenseEvent(amqp.KindExpenseCreated,
		e.ID, e.GroupID, e.PaidBy, core.FormatAmount(e.Amount), e.Description)
	if err := s.publish(ctx, event); err != nil {
		slog.ErrorContext(ctx, "Failed to publish created event",
			"expense_id", e.ID, "error", err)
	}

	return e, nil
}

// SettleExpense marks an expense settled and publishes a settled event.
func (s *ExpenseService) SettleExpense(ctx context.Context, id string) error {
	e, err := s.store.Expense(ctx, id)
	if err != nil {
		return err
	}

	if err := s.store.SettleExpense(ctx, id); err != nil {
		return fmt.Errorf("settle expense: %w", err)
	}

	event := amqp.NewExpenseEvent(amqp.KindExpenseSettled,
		e.ID, e.GroupID, e.PaidBy, core.FormatAmount(e.Amount), e.Description)
	if err := s.publish(ctx, event); err != nil {
		slog.ErrorContext(ctx, "Failed to publish settled event",
			"expense_id", id, "error", err)
	}

	return nil
}

// DeleteExpense removes an expense. Deletions do not emit events.
func (s *ExpenseService) DeleteExpense(ctx context.Context, id string) error {
	if err := s.store.DeleteExpense(ctx, id); err != nil {
		return fmt.Errorf("delete expense: %w", err)
	}
	return nil
}

func (s *ExpenseService) publish(ctx context.Context, event *amqp.ExpenseEvent) error {
	if s.publisher == nil {
		slog.WarnContext(ctx, "Event publisher not available, skipping event", "kind", event.Kind)
		return nil
	}
	return s.publisher.PublishExpenseEvent(ctx, event)
}
