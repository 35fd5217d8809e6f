package services

import (
	"context"
	"errors"
	"testing"

	"github.com/shopspring/decimal"

	"divvy/internal/amqp"
	"divvy/internal/core"
	"divvy/internal/store"
	"divvy/internal/store/memory"
)

type fakePublisher struct {
	events  []*amqp.ExpenseEvent
	failing bool
}

func (f *fakePublisher) PublishExpenseEvent(_ context.Context, event *amqp.ExpenseEvent) error {
	if f.failing {
		return errors.New("broker unavailable")
	}
	f.events = append(f.events, event)
	return nil
}

func newTestService(t *testing.T, pub EventPublisher) (*ExpenseService, store.Store) {
	t.Helper()
	st := memory.New()
	if err := st.CreateGroup(context.Background(), core.Group{
		ID:      "grp-1",
		Name:    "Trip",
		Members: []string{"Alice", "Bob"},
	}); err != nil {
		t.Fatalf("create group: %v", err)
	}
	return NewExpenseService(st, pub), st
}

func validExpense() core.Expense {
	return core.Expense{
		GroupID:     "grp-1",
		Description: "Dinner",
		Amount:      decimal.NewFromInt(30),
		PaidBy:      "Alice",
		SplitType:   core.SplitEqual,
		Members:     []string{"Alice", "Bob"},
	}
}

func TestCreateExpensePublishesEvent(t *testing.T) {
	pub := &fakePublisher{}
	svc, st := newTestService(t, pub)

	saved, err := svc.CreateExpense(context.Background(), validExpense())
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if saved.ID == "" {
		t.Error("expected an assigned ID")
	}

	if _, err := st.Expense(context.Background(), saved.ID); err != nil {
		t.Errorf("expense not stored: %v", err)
	}

	if len(pub.events) != 1 {
		t.Fatalf("published %d events, want 1", len(pub.events))
	}
	if pub.events[0].Kind != amqp.KindExpenseCreated {
		t.Errorf("event kind = %q, want %q", pub.events[0].Kind, amqp.KindExpenseCreated)
	}
	if pub.events[0].Amount != "30.00" {
		t.Errorf("event amount = %q, want %q", pub.events[0].Amount, "30.00")
	}
}

func TestCreateExpenseRejectsInvalid(t *testing.T) {
	pub := &fakePublisher{}
	svc, _ := newTestService(t, pub)

	e := validExpense()
	e.Description = ""
	if _, err := svc.CreateExpense(context.Background(), e); !errors.Is(err, core.ErrEmptyDescription) {
		t.Errorf("got %v, want ErrEmptyDescription", err)
	}
	if len(pub.events) != 0 {
		t.Errorf("published %d events for invalid expense, want 0", len(pub.events))
	}
}

func TestCreateExpenseSurvivesBrokerOutage(t *testing.T) {
	svc, st := newTestService(t, &fakePublisher{failing: true})

	saved, err := svc.CreateExpense(context.Background(), validExpense())
	if err != nil {
		t.Fatalf("create should not fail on publish error: %v", err)
	}
	if _, err := st.Expense(context.Background(), saved.ID); err != nil {
		t.Errorf("expense not stored: %v", err)
	}
}

func TestCreateExpenseWithoutPublisher(t *testing.T) {
	svc, _ := newTestService(t, nil)

	if _, err := svc.CreateExpense(context.Background(), validExpense()); err != nil {
		t.Fatalf("create with nil publisher: %v", err)
	}
}

func TestSettleExpense(t *testing.T) {
	pub := &fakePublisher{}
	svc, st := newTestService(t, pub)

	saved, err := svc.CreateExpense(context.Background(), validExpense())
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	if err := svc.SettleExpense(context.Background(), saved.ID); err != nil {
		t.Fatalf("settle: %v", err)
	}

	got, err := st.Expense(context.Background(), saved.ID)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if !got.Settled {
		t.Error("expense should be settled")
	}

	if len(pub.events) != 2 {
		t.Fatalf("published %d events, want 2", len(pub.events))
	}
	if pub.events[1].Kind != amqp.KindExpenseSettled {
		t.Errorf("event kind = %q, want %q", pub.events[1].Kind, amqp.KindExpenseSettled)
	}
}

func TestSettleExpenseNotFound(t *testing.T) {
	svc, _ := newTestService(t, &fakePublisher{})

	if err := svc.SettleExpense(context.Background(), "missing"); !errors.Is(err, store.ErrNotFound) {
		t.Errorf("got %v, want ErrNotFound", err)
	}
}

func TestDeleteExpense(t *testing.T) {
	svc, st := newTestService(t, &fakePublisher{})

	saved, err := svc.CreateExpense(context.Background(), validExpense())
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	if err := svc.DeleteExpense(context.Background(), saved.ID); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if _, err := st.Expense(context.Background(), saved.ID); !errors.Is(err, store.ErrNotFound) {
		t.Errorf("expense should be gone, got %v", err)
	}
}
