package sqlite

import (
	"database/sql"
	"fmt"
	"log/slog"
	"time"

	"github.com/pointrec/attendance-terminal/internal/domain/employee"
)

// migration is one idempotent schema step. Applied ids are recorded in
// schema_migrations, so the list only ever grows; never reorder or
// rewrite an entry that has shipped.
type migration struct {
	id    string
	apply func(tx *sql.Tx) error
}

func migrations() []migration {
	return []migration{
		{"0001_initial_schema", migrateInitialSchema},
		{"0002_event_indexes", migrateEventIndexes},
		{"0003_rotation_columns", migrateRotationColumns},
		{"0004_weekday_overrides", migrateWeekdayOverrides},
		{"0005_normalize_card_uids", migrateNormalizeCardUIDs},
		{"0006_card_unique_index", migrateCardUniqueIndex},
	}
}

// Migrate applies pending migrations in order, each inside its own
// transaction.
func (s *Store) Migrate() error {
	if _, err := s.db.Exec(`
		CREATE TABLE IF NOT EXISTS schema_migrations (
			id         TEXT PRIMARY KEY,
			applied_at TEXT NOT NULL
		)
	`); err != nil {
		return fmt.Errorf("ensure schema_migrations: %w", err)
	}

	for _, m := range migrations() {
		var exists int
		err := s.db.QueryRow(`SELECT COUNT(1) FROM schema_migrations WHERE id = ?`, m.id).Scan(&exists)
		if err != nil {
			return fmt.Errorf("check migration %s: %w", m.id, err)
		}
		if exists > 0 {
			continue
		}

		err = s.withWriteTx(func(tx *sql.Tx) error {
			if err := m.apply(tx); err != nil {
				return fmt.Errorf("migration %s failed: %w", m.id, err)
			}
			_, err := tx.Exec(`INSERT INTO schema_migrations (id, applied_at) VALUES (?, ?)`,
				m.id, time.Now().Format(timeLayout))
			return err
		})
		if err != nil {
			return err
		}
		slog.Info("local migration applied", "id", m.id)
	}
	return nil
}

func migrateInitialSchema(tx *sql.Tx) error {
	stmts := []string{
		// id is not AUTOINCREMENT on purpose: the roster mirror inserts
		// remote ids verbatim, while locally created rows get a rowid.
		`CREATE TABLE IF NOT EXISTS employees (
			id         INTEGER PRIMARY KEY,
			full_name  TEXT NOT NULL,
			role       TEXT NOT NULL DEFAULT '',
			card_uid   TEXT,
			photo_path TEXT,
			active     INTEGER NOT NULL DEFAULT 1,
			entry_time TEXT NOT NULL DEFAULT '09:00',
			exit_time  TEXT NOT NULL DEFAULT '18:00'
		)`,
		`CREATE TABLE IF NOT EXISTS attendance_events (
			id           INTEGER PRIMARY KEY AUTOINCREMENT,
			event_uid    TEXT NOT NULL UNIQUE,
			employee_id  INTEGER NOT NULL,
			site         TEXT NOT NULL,
			date         TEXT NOT NULL,
			recorded_at  TEXT NOT NULL,
			movement     TEXT NOT NULL,
			status       TEXT NOT NULL,
			synchronized INTEGER NOT NULL DEFAULT 0,
			created_at   TEXT NOT NULL DEFAULT CURRENT_TIMESTAMP
		)`,
		`CREATE TABLE IF NOT EXISTS justifications (
			id          INTEGER PRIMARY KEY AUTOINCREMENT,
			employee_id INTEGER NOT NULL,
			date        TEXT NOT NULL,
			type        TEXT NOT NULL,
			reason      TEXT NOT NULL DEFAULT '',
			created_at  TEXT NOT NULL DEFAULT CURRENT_TIMESTAMP
		)`,
	}
	for _, stmt := range stmts {
		if _, err := tx.Exec(stmt); err != nil {
			return err
		}
	}
	return nil
}

func migrateEventIndexes(tx *sql.Tx) error {
	stmts := []string{
		`CREATE INDEX IF NOT EXISTS idx_events_date ON attendance_events(date)`,
		`CREATE INDEX IF NOT EXISTS idx_events_employee_date ON attendance_events(employee_id, date)`,
		`CREATE INDEX IF NOT EXISTS idx_events_unsynced ON attendance_events(synchronized) WHERE synchronized = 0`,
	}
	for _, stmt := range stmts {
		if _, err := tx.Exec(stmt); err != nil {
			return err
		}
	}
	return nil
}

func migrateRotationColumns(tx *sql.Tx) error {
	stmts := []string{
		`ALTER TABLE employees ADD COLUMN alt_entry_time TEXT`,
		`ALTER TABLE employees ADD COLUMN alt_exit_time TEXT`,
		`ALTER TABLE employees ADD COLUMN rotation_enabled INTEGER NOT NULL DEFAULT 0`,
		`ALTER TABLE employees ADD COLUMN rotation_base INTEGER NOT NULL DEFAULT 0`,
	}
	for _, stmt := range stmts {
		if _, err := tx.Exec(stmt); err != nil {
			return err
		}
	}
	return nil
}

func migrateWeekdayOverrides(tx *sql.Tx) error {
	stmts := []string{
		`ALTER TABLE employees ADD COLUMN overrides_enabled INTEGER NOT NULL DEFAULT 0`,
	}
	for _, day := range []string{"mon", "tue", "wed", "thu", "fri"} {
		stmts = append(stmts,
			fmt.Sprintf(`ALTER TABLE employees ADD COLUMN entry_%s TEXT`, day),
			fmt.Sprintf(`ALTER TABLE employees ADD COLUMN exit_%s TEXT`, day),
		)
	}
	for _, stmt := range stmts {
		if _, err := tx.Exec(stmt); err != nil {
			return err
		}
	}
	return nil
}

// migrateNormalizeCardUIDs rewrites historical card uids to the
// canonical uppercase-hex form so index lookups match normalized input.
func migrateNormalizeCardUIDs(tx *sql.Tx) error {
	rows, err := tx.Query(`SELECT id, card_uid FROM employees WHERE card_uid IS NOT NULL`)
	if err != nil {
		return err
	}
	type fix struct {
		id  int64
		uid string
	}
	var fixes []fix
	for rows.Next() {
		var id int64
		var raw string
		if err := rows.Scan(&id, &raw); err != nil {
			rows.Close()
			return err
		}
		if norm := employee.NormalizeCardUID(raw); norm != raw {
			fixes = append(fixes, fix{id, norm})
		}
	}
	if err := rows.Err(); err != nil {
		rows.Close()
		return err
	}
	rows.Close()

	for _, f := range fixes {
		uid := sql.NullString{String: f.uid, Valid: f.uid != ""}
		if _, err := tx.Exec(`UPDATE employees SET card_uid = ? WHERE id = ?`, uid, f.id); err != nil {
			return err
		}
	}
	return nil
}

func migrateCardUniqueIndex(tx *sql.Tx) error {
	_, err := tx.Exec(`
		CREATE UNIQUE INDEX IF NOT EXISTS idx_employees_card_active
		ON employees(card_uid) WHERE card_uid IS NOT NULL AND active = 1
	`)
	return err
}
