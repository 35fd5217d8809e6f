package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"

	"divvy/internal/core"
	"divvy/internal/store"

	_ "modernc.org/sqlite"
)

// Repository is the SQLite-backed implementation of the store ports.
type Repository struct {
	db *sql.DB
}

var _ store.Store = (*Repository)(nil)

func NewRepository(dbPath string) (*Repository, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		return nil, fmt.Errorf("create db directory: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}

	// A single connection serializes writers (no SQLITE_BUSY under
	// concurrency) and makes the pragma below apply to every statement.
	db.SetMaxOpenConns(1)

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	if _, err := db.Exec("PRAGMA foreign_keys = ON"); err != nil {
		db.Close()
		return nil, fmt.Errorf("enable foreign keys: %w", err)
	}

	if err := RunMigrations(dbPath); err != nil {
		db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	return &Repository{db: db}, nil
}

func (r *Repository) Close() error {
	if r.db != nil {
		return r.db.Close()
	}
	return nil
}

// CreateProfile implements store.ProfileStore
func (r *Repository) CreateProfile(ctx context.Context, p core.Profile) error {
	if p.ID == "" {
		p.ID = uuid.NewString()
	}
	if p.CreatedAt.IsZero() {
		p.CreatedAt = time.Now().UTC()
	}

	_, err := r.db.ExecContext(ctx,
		`INSERT INTO profiles (id, email, display_name, password_hash, created_at)
		 VALUES (?, ?, ?, ?, ?)`,
		p.ID, p.Email, p.DisplayName, p.PasswordHash, p.CreatedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return store.ErrDuplicate
		}
		return fmt.Errorf("insert profile: %w", err)
	}

	slog.InfoContext(ctx, "Profile created", "id", p.ID, "display_name", p.DisplayName)
	return nil
}

// ProfileByEmail implements store.ProfileStore
func (r *Repository) ProfileByEmail(ctx context.Context, email string) (core.Profile, error) {
	return r.scanProfile(r.db.QueryRowContext(ctx,
		`SELECT id, email, display_name, password_hash, created_at
		 FROM profiles WHERE email = ?`, email))
}

// ProfileByID implements store.ProfileStore
func (r *Repository) ProfileByID(ctx context.Context, id string) (core.Profile, error) {
	return r.scanProfile(r.db.QueryRowContext(ctx,
		`SELECT id, email, display_name, password_hash, created_at
		 FROM profiles WHERE id = ?`, id))
}

func (r *Repository) scanProfile(row *sql.Row) (core.Profile, error) {
	var p core.Profile
	err := row.Scan(&p.ID, &p.Email, &p.DisplayName, &p.PasswordHash, &p.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return core.Profile{}, store.ErrNotFound
	}
	if err != nil {
		return core.Profile{}, fmt.Errorf("scan profile: %w", err)
	}
	return p, nil
}

// CreateGroup implements store.GroupStore
func (r *Repository) CreateGroup(ctx context.Context, g core.Group) error {
	if g.ID == "" {
		g.ID = uuid.NewString()
	}
	if g.CreatedAt.IsZero() {
		g.CreatedAt = time.Now().UTC()
	}

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx,
		`INSERT INTO groups (id, name, created_by, created_at) VALUES (?, ?, ?, ?)`,
		g.ID, g.Name, g.CreatedBy, g.CreatedAt)
	if err != nil {
		return fmt.Errorf("insert group: %w", err)
	}

	for i, member := range g.Members {
		_, err = tx.ExecContext(ctx,
			`INSERT OR IGNORE INTO group_members (group_id, member_name, position) VALUES (?, ?, ?)`,
			g.ID, member, i)
		if err != nil {
			return fmt.Errorf("insert group member: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit group: %w", err)
	}

	slog.InfoContext(ctx, "Group created", "id", g.ID, "name", g.Name, "members", len(g.Members))
	return nil
}

// Group implements store.GroupStore
func (r *Repository) Group(ctx context.Context, id string) (core.Group, error) {
	var g core.Group
	err := r.db.QueryRowContext(ctx,
		`SELECT id, name, created_by, created_at FROM groups WHERE id = ?`, id).
		Scan(&g.ID, &g.Name, &g.CreatedBy, &g.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return core.Group{}, store.ErrNotFound
	}
	if err != nil {
		return core.Group{}, fmt.Errorf("scan group: %w", err)
	}

	g.Members, err = r.groupMembers(ctx, id)
	if err != nil {
		return core.Group{}, err
	}
	return g, nil
}

// GroupsForMember implements store.GroupStore
func (r *Repository) GroupsForMember(ctx context.Context, memberName string) ([]core.Group, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT g.id, g.name, g.created_by, g.created_at
		 FROM groups g
		 JOIN group_members gm ON gm.group_id = g.id
		 WHERE gm.member_name = ?
		 ORDER BY g.created_at, g.id`, memberName)
	if err != nil {
		return nil, fmt.Errorf("query groups: %w", err)
	}
	defer rows.Close()

	var groups []core.Group
	for rows.Next() {
		var g core.Group
		if err := rows.Scan(&g.ID, &g.Name, &g.CreatedBy, &g.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan group: %w", err)
		}
		groups = append(groups, g)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate groups: %w", err)
	}

	for i := range groups {
		groups[i].Members, err = r.groupMembers(ctx, groups[i].ID)
		if err != nil {
			return nil, err
		}
	}
	return groups, nil
}

// AddMembers implements store.GroupStore
func (r *Repository) AddMembers(ctx context.Context, groupID string, names []string) error {
	if _, err := r.Group(ctx, groupID); err != nil {
		return err
	}

	// Position read and inserts share a transaction so concurrent adds to the
	// same group cannot claim the same positions.
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	var next int
	if err := tx.QueryRowContext(ctx,
		`SELECT COALESCE(MAX(position), -1) + 1 FROM group_members WHERE group_id = ?`,
		groupID).Scan(&next); err != nil {
		return fmt.Errorf("next member position: %w", err)
	}

	for i, name := range names {
		_, err := tx.ExecContext(ctx,
			`INSERT OR IGNORE INTO group_members (group_id, member_name, position) VALUES (?, ?, ?)`,
			groupID, name, next+i)
		if err != nil {
			return fmt.Errorf("insert group member: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit members: %w", err)
	}
	return nil
}

// DeleteGroup implements store.GroupStore
func (r *Repository) DeleteGroup(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM groups WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete group: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return store.ErrNotFound
	}

	slog.InfoContext(ctx, "Group deleted", "id", id)
	return nil
}

func (r *Repository) groupMembers(ctx context.Context, groupID string) ([]string, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT member_name FROM group_members WHERE group_id = ? ORDER BY position`, groupID)
	if err != nil {
		return nil, fmt.Errorf("query group members: %w", err)
	}
	defer rows.Close()

	var members []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, fmt.Errorf("scan member: %w", err)
		}
		members = append(members, name)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate members: %w", err)
	}
	return members, nil
}

func isUniqueViolation(err error) bool {
	// modernc/sqlite reports constraint failures in the error text; there is
	// no typed error to match against.
	return err != nil && strings.Contains(err.Error(), "UNIQUE constraint failed")
}
