// Package levelstore persists resolved grids to SQLite or PostgreSQL.
package levelstore

import (
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "github.com/lib/pq"
	_ "modernc.org/sqlite"
)

var (
	ErrLevelNotFound  = errors.New("levelstore: level not found")
	ErrDuplicateLevel = errors.New("levelstore: a level with that name already exists")
)

// Config selects the backing database. Path is used by SQLite, DSN by
// PostgreSQL.
type Config struct {
	Driver string `yaml:"driver"`
	Path   string `yaml:"path"`
	DSN    string `yaml:"dsn"`
}

// Level is a stored resolved grid. Cells holds tile-type names in row-major
// index order.
type Level struct {
	ID        int64
	Name      string
	Seed      int64
	Width     int
	Height    int
	Cells     []string
	CreatedAt time.Time
}

// Store wraps the database connection and provides level persistence.
type Store struct {
	db      *sql.DB
	dialect Dialect
}

// Open opens the store described by cfg and runs migrations.
func Open(cfg Config) (*Store, error) {
	dialect := NewDialect(DialectType(cfg.Driver))

	var dsn string
	switch dialect.(type) {
	case *PostgresDialect:
		dsn = cfg.DSN
	default:
		dir := filepath.Dir(cfg.Path)
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("failed to create database directory: %w", err)
		}
		dsn = cfg.Path
	}

	db, err := sql.Open(dialect.DriverName(), dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// SQLite PRAGMAs are per connection, and the file handles one writer at
	// a time anyway.
	if _, ok := dialect.(*SQLiteDialect); ok {
		db.SetMaxOpenConns(1)
	}

	for _, stmt := range dialect.InitStatements() {
		if _, err := db.Exec(stmt); err != nil {
			db.Close()
			return nil, fmt.Errorf("failed to initialize database: %w", err)
		}
	}

	s := &Store{db: db, dialect: dialect}
	if err := s.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}

	return s, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// migrate creates the schema if it doesn't exist.
func (s *Store) migrate() error {
	migrations := []string{
		fmt.Sprintf(`CREATE TABLE IF NOT EXISTS levels (
			id %s,
			name TEXT UNIQUE NOT NULL,
			seed BIGINT NOT NULL,
			width INTEGER NOT NULL,
			height INTEGER NOT NULL,
			created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
		)`, s.dialect.AutoIncrementPK()),

		`CREATE TABLE IF NOT EXISTS level_cells (
			level_id BIGINT NOT NULL REFERENCES levels(id) ON DELETE CASCADE,
			idx INTEGER NOT NULL,
			tile TEXT NOT NULL,
			PRIMARY KEY (level_id, idx)
		)`,
	}

	for _, migration := range migrations {
		if _, err := s.db.Exec(migration); err != nil {
			return fmt.Errorf("migration failed: %w", err)
		}
	}
	return nil
}

// Save stores a resolved grid under a unique name and returns its id.
func (s *Store) Save(name string, seed int64, width, height int, cells []string) (int64, error) {
	if len(cells) != width*height {
		return 0, fmt.Errorf("levelstore: got %d cells for a %dx%d grid", len(cells), width, height)
	}

	tx, err := s.db.Begin()
	if err != nil {
		return 0, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	insert := fmt.Sprintf(
		"INSERT INTO levels (name, seed, width, height) VALUES (%s, %s, %s, %s)",
		s.dialect.Placeholder(1), s.dialect.Placeholder(2),
		s.dialect.Placeholder(3), s.dialect.Placeholder(4),
	)

	var id int64
	if s.dialect.SupportsLastInsertID() {
		res, err := tx.Exec(insert, name, seed, width, height)
		if err != nil {
			if s.dialect.IsDuplicateKeyError(err) {
				return 0, ErrDuplicateLevel
			}
			return 0, fmt.Errorf("failed to insert level: %w", err)
		}
		id, err = res.LastInsertId()
		if err != nil {
			return 0, fmt.Errorf("failed to read level id: %w", err)
		}
	} else {
		insert += s.dialect.ReturningClause("id")
		if err := tx.QueryRow(insert, name, seed, width, height).Scan(&id); err != nil {
			if s.dialect.IsDuplicateKeyError(err) {
				return 0, ErrDuplicateLevel
			}
			return 0, fmt.Errorf("failed to insert level: %w", err)
		}
	}

	cellInsert := fmt.Sprintf(
		"INSERT INTO level_cells (level_id, idx, tile) VALUES (%s, %s, %s)",
		s.dialect.Placeholder(1), s.dialect.Placeholder(2), s.dialect.Placeholder(3),
	)
	for idx, tile := range cells {
		if _, err := tx.Exec(cellInsert, id, idx, tile); err != nil {
			return 0, fmt.Errorf("failed to insert cell %d: %w", idx, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("failed to commit level: %w", err)
	}
	return id, nil
}

// Load returns the level with the given name.
func (s *Store) Load(name string) (*Level, error) {
	query := fmt.Sprintf(
		"SELECT id, name, seed, width, height, created_at FROM levels WHERE name = %s",
		s.dialect.Placeholder(1),
	)

	level := &Level{}
	err := s.db.QueryRow(query, name).Scan(
		&level.ID, &level.Name, &level.Seed, &level.Width, &level.Height, &level.CreatedAt,
	)
	if err == sql.ErrNoRows {
		return nil, ErrLevelNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load level: %w", err)
	}

	cellQuery := fmt.Sprintf(
		"SELECT tile FROM level_cells WHERE level_id = %s ORDER BY idx",
		s.dialect.Placeholder(1),
	)
	rows, err := s.db.Query(cellQuery, level.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to load level cells: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var tile string
		if err := rows.Scan(&tile); err != nil {
			return nil, fmt.Errorf("failed to scan cell: %w", err)
		}
		level.Cells = append(level.Cells, tile)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read level cells: %w", err)
	}

	return level, nil
}

// List returns stored level names, newest first.
func (s *Store) List() ([]string, error) {
	rows, err := s.db.Query("SELECT name FROM levels ORDER BY created_at DESC, id DESC")
	if err != nil {
		return nil, fmt.Errorf("failed to list levels: %w", err)
	}
	defer rows.Close()

	var names []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, fmt.Errorf("failed to scan level name: %w", err)
		}
		names = append(names, name)
	}
	return names, rows.Err()
}

// Delete removes the level with the given name.
func (s *Store) Delete(name string) error {
	query := fmt.Sprintf("DELETE FROM levels WHERE name = %s", s.dialect.Placeholder(1))
	res, err := s.db.Exec(query, name)
	if err != nil {
		return fmt.Errorf("failed to delete level: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to check delete result: %w", err)
	}
	if affected == 0 {
		return ErrLevelNotFound
	}
	return nil
}
