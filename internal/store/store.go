// Package store persists the canonical MEP item list in sqlite. Earlier
// builds kept the list in three places at once (a JSON blob under the
// "configurMepItems" key, a msgpack session snapshot, and a window-global
// hook); the sqlite file is now the single source of truth and the legacy
// stores are surfaced read-only through the importers in legacy.go.
//
// Every mutation rewrites the full item list in one transaction and bumps
// a monotonic revision counter, so readers can cheaply detect staleness
// and the change feed never observes a half-written list.
package store

import (
	"database/sql"
	"embed"
	"errors"
	"fmt"

	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database/sqlite"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	_ "modernc.org/sqlite"

	"github.com/abhipalit3/configur-mep/internal/mep"
)

//go:embed migrations
var migrationsFS embed.FS

// DB wraps the sqlite handle for the item store.
type DB struct {
	*sql.DB
	path string
}

// Open opens (creating if necessary) the sqlite database at path and
// applies all pending migrations.
func Open(path string) (*DB, error) {
	sqldb, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open sqlite database: %w", err)
	}

	db := &DB{DB: sqldb, path: path}
	if err := db.MigrateUp(); err != nil {
		sqldb.Close()
		return nil, err
	}
	return db, nil
}

// MigrateUp applies all pending migrations up to the latest version.
// Returns nil when the schema is already current.
func (db *DB) MigrateUp() error {
	m, err := db.newMigrate()
	if err != nil {
		return err
	}
	// m is not closed here; closing it would close the underlying DB
	// connection.

	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("migration up failed: %w", err)
	}
	return nil
}

// MigrateVersion returns the current migration version and dirty state.
// Returns 0, false, nil if no migrations have been applied yet.
func (db *DB) MigrateVersion() (version uint, dirty bool, err error) {
	m, err := db.newMigrate()
	if err != nil {
		return 0, false, err
	}

	version, dirty, err = m.Version()
	if err != nil && errors.Is(err, migrate.ErrNilVersion) {
		return 0, false, nil
	}
	return version, dirty, err
}

// newMigrate creates a migrate instance over the embedded migrations.
func (db *DB) newMigrate() (*migrate.Migrate, error) {
	src, err := iofs.New(migrationsFS, "migrations")
	if err != nil {
		return nil, fmt.Errorf("failed to load embedded migrations: %w", err)
	}

	driver, err := sqlite.WithInstance(db.DB, &sqlite.Config{})
	if err != nil {
		return nil, fmt.Errorf("failed to create sqlite driver: %w", err)
	}

	m, err := migrate.NewWithInstance("iofs", src, "sqlite", driver)
	if err != nil {
		return nil, fmt.Errorf("failed to create migrate instance: %w", err)
	}
	return m, nil
}

const itemColumns = `id, kind, pos_x, pos_y, pos_z, tier, tier_label,
	width_in, height_in, diameter_in, insulation_in, material,
	conduit_count, spacing_in, conduit_type, fill_percent, color`

// ReadItems returns the stored item list in insertion order.
func (db *DB) ReadItems() ([]mep.Item, error) {
	rows, err := db.Query(`SELECT ` + itemColumns + ` FROM items ORDER BY seq`)
	if err != nil {
		return nil, fmt.Errorf("failed to query items: %w", err)
	}
	defer rows.Close()

	var items []mep.Item
	for rows.Next() {
		it, err := scanItem(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, it)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate items: %w", err)
	}
	return items, nil
}

// ReplaceItems swaps the stored list for items inside one transaction
// and bumps the revision counter. It returns the new revision.
func (db *DB) ReplaceItems(items []mep.Item) (int64, error) {
	tx, err := db.Begin()
	if err != nil {
		return 0, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.Exec(`DELETE FROM items`); err != nil {
		return 0, fmt.Errorf("failed to clear items: %w", err)
	}

	stmt, err := tx.Prepare(`INSERT INTO items (` + itemColumns + `)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return 0, fmt.Errorf("failed to prepare item insert: %w", err)
	}
	defer stmt.Close()

	for _, it := range items {
		var tier sql.NullInt64
		if it.Tier != nil {
			tier = sql.NullInt64{Int64: int64(*it.Tier), Valid: true}
		}
		_, err := stmt.Exec(
			it.ID, string(it.Kind),
			it.Position.X, it.Position.Y, it.Position.Z,
			tier, it.TierLabel,
			it.WidthIn, it.HeightIn, it.DiameterIn, it.InsulationIn,
			it.Material, it.Count, it.SpacingIn, it.ConduitType,
			it.FillPercent, it.Color,
		)
		if err != nil {
			return 0, fmt.Errorf("failed to insert item %s: %w", it.ID, err)
		}
	}

	if _, err := tx.Exec(`UPDATE revision SET rev = rev + 1 WHERE id = 1`); err != nil {
		return 0, fmt.Errorf("failed to bump revision: %w", err)
	}
	var rev int64
	if err := tx.QueryRow(`SELECT rev FROM revision WHERE id = 1`).Scan(&rev); err != nil {
		return 0, fmt.Errorf("failed to read revision: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("failed to commit item replace: %w", err)
	}
	return rev, nil
}

// Revision returns the current revision counter.
func (db *DB) Revision() (int64, error) {
	var rev int64
	if err := db.QueryRow(`SELECT rev FROM revision WHERE id = 1`).Scan(&rev); err != nil {
		return 0, fmt.Errorf("failed to read revision: %w", err)
	}
	return rev, nil
}

func scanItem(rows *sql.Rows) (mep.Item, error) {
	var it mep.Item
	var kind string
	var tier sql.NullInt64
	err := rows.Scan(
		&it.ID, &kind,
		&it.Position.X, &it.Position.Y, &it.Position.Z,
		&tier, &it.TierLabel,
		&it.WidthIn, &it.HeightIn, &it.DiameterIn, &it.InsulationIn,
		&it.Material, &it.Count, &it.SpacingIn, &it.ConduitType,
		&it.FillPercent, &it.Color,
	)
	if err != nil {
		return mep.Item{}, fmt.Errorf("failed to scan item row: %w", err)
	}
	it.Kind = mep.Kind(kind)
	if tier.Valid {
		v := int(tier.Int64)
		it.Tier = &v
	}
	return it, nil
}
