package sqlstore

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	_ "github.com/jackc/pgx/v5/stdlib" // Register pgx as database/sql driver
	_ "modernc.org/sqlite"             // Register sqlite as database/sql driver

	dashboard "github.com/goliatone/go-gridboard/components/dashboard"
)

// Store persists the widget catalog and saved dashboards in a SQL database.
// Saved configs are stored as one JSON document per user.
type Store struct {
	DB      *sql.DB
	Dialect Dialect
}

var (
	_ dashboard.CatalogStore = (*Store)(nil)
	_ dashboard.ConfigStore  = (*Store)(nil)
)

// Open connects to the database and creates the tables when missing.
func Open(ctx context.Context, driver, dsn string) (*Store, error) {
	dialect := NewDialect(driver)
	db, err := sql.Open(dialect.DriverName(), dsn)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	if dialect.Name() == "sqlite" {
		// single writer; an in-memory database lives only as long as its connection
		db.SetMaxOpenConns(1)
	}
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping: %w", err)
	}
	store := New(db, dialect)
	if err := store.Migrate(ctx); err != nil {
		db.Close()
		return nil, err
	}
	return store, nil
}

// New wraps an open connection.
func New(db *sql.DB, dialect Dialect) *Store {
	return &Store{DB: db, Dialect: dialect}
}

// Close releases the connection pool.
func (s *Store) Close() error {
	return s.DB.Close()
}

// Migrate creates the dashboard tables.
func (s *Store) Migrate(ctx context.Context) error {
	for _, stmt := range strings.Split(s.Dialect.SchemaSQL(), ";") {
		stmt = strings.TrimSpace(stmt)
		if stmt == "" {
			continue
		}
		if _, err := s.DB.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("migrate: %w", err)
		}
	}
	return nil
}

func (s *Store) ph(i int) string {
	return s.Dialect.Placeholder(i)
}

// ListTypes returns the catalog in insertion order.
func (s *Store) ListTypes(ctx context.Context) ([]dashboard.WidgetTypeMeta, error) {
	rows, err := s.DB.QueryContext(ctx, "SELECT id, body FROM widget_types ORDER BY position, type_key")
	if err != nil {
		return nil, fmt.Errorf("list widget types: %w", err)
	}
	defer rows.Close()

	types := []dashboard.WidgetTypeMeta{}
	for rows.Next() {
		var (
			id   string
			body []byte
		)
		if err := rows.Scan(&id, &body); err != nil {
			return nil, fmt.Errorf("scan widget type: %w", err)
		}
		var meta dashboard.WidgetTypeMeta
		if err := json.Unmarshal(body, &meta); err != nil {
			return nil, fmt.Errorf("decode widget type: %w", err)
		}
		meta.ID = id
		types = append(types, meta)
	}
	return types, rows.Err()
}

func (s *Store) insertTypeSQL(onConflict string) string {
	return fmt.Sprintf(
		"INSERT INTO widget_types (type_key, id, position, body) VALUES (%s, %s, (SELECT COALESCE(MAX(position), 0) + 1 FROM widget_types), %s) ON CONFLICT (type_key) %s",
		s.ph(1), s.ph(2), s.ph(3), onConflict,
	)
}

func encodeType(meta dashboard.WidgetTypeMeta) (string, string, error) {
	id := meta.ID
	if id == "" {
		id = uuid.NewString()
	}
	meta.ID = id
	body, err := json.Marshal(meta)
	if err != nil {
		return "", "", fmt.Errorf("encode widget type %s: %w", meta.TypeKey, err)
	}
	return id, string(body), nil
}

// EnsureType inserts meta unless its type_key already exists.
func (s *Store) EnsureType(ctx context.Context, meta dashboard.WidgetTypeMeta) (bool, error) {
	if meta.TypeKey == "" {
		return false, dashboard.ErrTypeKeyRequired
	}
	id, body, err := encodeType(meta)
	if err != nil {
		return false, err
	}
	res, err := s.DB.ExecContext(ctx, s.insertTypeSQL("DO NOTHING"), meta.TypeKey, id, body)
	if err != nil {
		return false, fmt.Errorf("ensure widget type %s: %w", meta.TypeKey, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("ensure widget type %s: %w", meta.TypeKey, err)
	}
	return n > 0, nil
}

// UpsertType creates or replaces a catalog entry. Existing rows keep their id
// and position.
func (s *Store) UpsertType(ctx context.Context, meta dashboard.WidgetTypeMeta) error {
	if meta.TypeKey == "" {
		return dashboard.ErrTypeKeyRequired
	}
	id, body, err := encodeType(meta)
	if err != nil {
		return err
	}
	update := fmt.Sprintf("DO UPDATE SET body = excluded.body, updated_at = %s", s.Dialect.NowExpr())
	if _, err := s.DB.ExecContext(ctx, s.insertTypeSQL(update), meta.TypeKey, id, body); err != nil {
		return fmt.Errorf("upsert widget type %s: %w", meta.TypeKey, err)
	}
	return nil
}

// DeleteType removes a catalog entry.
func (s *Store) DeleteType(ctx context.Context, typeKey string) error {
	res, err := s.DB.ExecContext(ctx, "DELETE FROM widget_types WHERE type_key = "+s.ph(1), typeKey)
	if err != nil {
		return fmt.Errorf("delete widget type %s: %w", typeKey, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("delete widget type %s: %w", typeKey, err)
	}
	if n == 0 {
		return dashboard.ErrWidgetTypeNotFound
	}
	return nil
}

// LoadConfig returns the user's saved dashboard or nil when none exists.
func (s *Store) LoadConfig(ctx context.Context, userID string) (*dashboard.SavedConfig, error) {
	var body []byte
	err := s.DB.QueryRowContext(ctx, "SELECT body FROM dashboard_configs WHERE user_id = "+s.ph(1), userID).Scan(&body)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("load config for %s: %w", userID, err)
	}
	var cfg dashboard.SavedConfig
	if err := json.Unmarshal(body, &cfg); err != nil {
		return nil, fmt.Errorf("decode config for %s: %w", userID, err)
	}
	return &cfg, nil
}

// SaveConfig overwrites the user's dashboard; the last write wins.
func (s *Store) SaveConfig(ctx context.Context, userID, name string, cfg dashboard.SavedConfig) error {
	body, err := json.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("encode config for %s: %w", userID, err)
	}
	query := fmt.Sprintf(
		"INSERT INTO dashboard_configs (user_id, name, body) VALUES (%s, %s, %s) ON CONFLICT (user_id) DO UPDATE SET name = excluded.name, body = excluded.body, updated_at = %s",
		s.ph(1), s.ph(2), s.ph(3), s.Dialect.NowExpr(),
	)
	if _, err := s.DB.ExecContext(ctx, query, userID, name, string(body)); err != nil {
		return fmt.Errorf("save config for %s: %w", userID, err)
	}
	return nil
}
