// Package memory implements the store ports in process memory. It backs the
// default dev backend and the handler tests.
package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"divvy/internal/core"
	"divvy/internal/store"
)

type Store struct {
	mu        sync.Mutex
	profiles  map[string]core.Profile // keyed by ID
	groups    map[string]core.Group
	expenses  map[string]core.Expense
	personal  map[string]core.PersonalExpense
	activity  []core.Activity
	nextActID int64
}

var _ store.Store = (*Store)(nil)

func New() *Store {
	return &Store{
		profiles:  make(map[string]core.Profile),
		groups:    make(map[string]core.Group),
		expenses:  make(map[string]core.Expense),
		personal:  make(map[string]core.PersonalExpense),
		nextActID: 1,
	}
}

func (s *Store) CreateProfile(_ context.Context, p core.Profile) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, existing := range s.profiles {
		if existing.Email == p.Email {
			return store.ErrDuplicate
		}
	}
	if p.ID == "" {
		p.ID = uuid.NewString()
	}
	if p.CreatedAt.IsZero() {
		p.CreatedAt = time.Now()
	}
	s.profiles[p.ID] = p
	return nil
}

func (s *Store) ProfileByEmail(_ context.Context, email string) (core.Profile, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, p := range s.profiles {
		if p.Email == email {
			return p, nil
		}
	}
	return core.Profile{}, store.ErrNotFound
}

func (s *Store) ProfileByID(_ context.Context, id string) (core.Profile, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.profiles[id]
	if !ok {
		return core.Profile{}, store.ErrNotFound
	}
	return p, nil
}

func (s *Store) CreateGroup(_ context.Context, g core.Group) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if g.ID == "" {
		g.ID = uuid.NewString()
	}
	if g.CreatedAt.IsZero() {
		g.CreatedAt = time.Now()
	}
	g.Members = append([]string(nil), g.Members...)
	s.groups[g.ID] = g
	return nil
}

func (s *Store) Group(_ context.Context, id string) (core.Group, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	g, ok := s.groups[id]
	if !ok {
		return core.Group{}, store.ErrNotFound
	}
	return copyGroup(g), nil
}

func (s *Store) GroupsForMember(_ context.Context, memberName string) ([]core.Group, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []core.Group
	for _, g := range s.groups {
		if g.HasMember(memberName) {
			out = append(out, copyGroup(g))
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out, nil
}

func (s *Store) AddMembers(_ context.Context, groupID string, names []string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	g, ok := s.groups[groupID]
	if !ok {
		return store.ErrNotFound
	}
	for _, name := range names {
		if !g.HasMember(name) {
			g.Members = append(g.Members, name)
		}
	}
	s.groups[groupID] = g
	return nil
}

func (s *Store) DeleteGroup(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.groups[id]; !ok {
		return store.ErrNotFound
	}
	delete(s.groups, id)
	for eid, e := range s.expenses {
		if e.GroupID == id {
			delete(s.expenses, eid)
		}
	}
	return nil
}

func (s *Store) CreateExpense(_ context.Context, e core.Expense) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.groups[e.GroupID]; !ok {
		return store.ErrNotFound
	}
	if e.ID == "" {
		e.ID = uuid.NewString()
	}
	if e.CreatedAt.IsZero() {
		e.CreatedAt = time.Now()
	}
	e.Splits = append([]core.SplitShare(nil), e.Splits...)
	e.Members = append([]string(nil), e.Members...)
	s.expenses[e.ID] = e
	return nil
}

func (s *Store) Expense(_ context.Context, id string) (core.Expense, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	e, ok := s.expenses[id]
	if !ok {
		return core.Expense{}, store.ErrNotFound
	}
	return copyExpense(e, s.groups[e.GroupID].Members), nil
}

func (s *Store) ExpensesByGroup(_ context.Context, groupID string) ([]core.Expense, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	members := s.groups[groupID].Members
	var out []core.Expense
	for _, e := range s.expenses {
		if e.GroupID == groupID {
			out = append(out, copyExpense(e, members))
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out, nil
}

func (s *Store) ExpensesForMember(_ context.Context, memberName string) ([]core.Expense, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []core.Expense
	for _, e := range s.expenses {
		g, ok := s.groups[e.GroupID]
		if !ok || !g.HasMember(memberName) {
			continue
		}
		out = append(out, copyExpense(e, g.Members))
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out, nil
}

func (s *Store) SettleExpense(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	e, ok := s.expenses[id]
	if !ok {
		return store.ErrNotFound
	}
	e.Settled = true
	s.expenses[id] = e
	return nil
}

func (s *Store) DeleteExpense(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.expenses[id]; !ok {
		return store.ErrNotFound
	}
	delete(s.expenses, id)
	return nil
}

func (s *Store) CreatePersonalExpense(_ context.Context, p core.PersonalExpense) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if p.ID == "" {
		p.ID = uuid.NewString()
	}
	if p.CreatedAt.IsZero() {
		p.CreatedAt = time.Now()
	}
	s.personal[p.ID] = p
	return nil
}

func (s *Store) PersonalExpenses(_ context.Context, profileID string) ([]core.PersonalExpense, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []core.PersonalExpense
	for _, p := range s.personal {
		if p.ProfileID == profileID {
			out = append(out, p)
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out, nil
}

func (s *Store) DeletePersonalExpense(_ context.Context, id, profileID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.personal[id]
	if !ok || p.ProfileID != profileID {
		return store.ErrNotFound
	}
	delete(s.personal, id)
	return nil
}

func (s *Store) AppendActivity(_ context.Context, a core.Activity) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	a.ID = s.nextActID
	s.nextActID++
	if a.CreatedAt.IsZero() {
		a.CreatedAt = time.Now()
	}
	s.activity = append(s.activity, a)
	return nil
}

func (s *Store) ActivityByGroup(_ context.Context, groupID string, limit int) ([]core.Activity, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []core.Activity
	// newest first
	for i := len(s.activity) - 1; i >= 0 && (limit <= 0 || len(out) < limit); i-- {
		if s.activity[i].GroupID == groupID {
			out = append(out, s.activity[i])
		}
	}
	return out, nil
}

func copyGroup(g core.Group) core.Group {
	g.Members = append([]string(nil), g.Members...)
	return g
}

func copyExpense(e core.Expense, members []string) core.Expense {
	e.Splits = append([]core.SplitShare(nil), e.Splits...)
	// the group's current member list wins over the snapshot taken at insert
	if len(members) > 0 {
		e.Members = append([]string(nil), members...)
	} else {
		e.Members = append([]string(nil), e.Members...)
	}
	return e
}
