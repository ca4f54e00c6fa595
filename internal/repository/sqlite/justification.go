package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/pointrec/attendance-terminal/internal/domain/attendance"
)

func (s *Store) CreateJustification(ctx context.Context, j attendance.Justification) (attendance.Justification, error) {
	j.CreatedAt = time.Now()
	err := s.withWriteTx(func(tx *sql.Tx) error {
		res, err := tx.ExecContext(ctx, `
			INSERT INTO justifications (employee_id, date, type, reason, created_at)
			VALUES (?, ?, ?, ?, ?)`,
			j.EmployeeID, j.Date.Format(dateLayout), string(j.Type), j.Reason,
			j.CreatedAt.Format(timeLayout),
		)
		if err != nil {
			return err
		}
		j.ID, err = res.LastInsertId()
		return err
	})
	if err != nil {
		return attendance.Justification{}, fmt.Errorf("create justification: %w", err)
	}
	return j, nil
}

func (s *Store) JustificationsOn(ctx context.Context, date time.Time) ([]attendance.Justification, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, employee_id, date, type, reason, created_at
		FROM justifications
		WHERE date = ?
		ORDER BY id`,
		date.Format(dateLayout),
	)
	if err != nil {
		return nil, fmt.Errorf("justifications: %w", err)
	}
	defer rows.Close()

	var out []attendance.Justification
	for rows.Next() {
		var j attendance.Justification
		var dateRaw, typ, createdRaw string
		if err := rows.Scan(&j.ID, &j.EmployeeID, &dateRaw, &typ, &j.Reason, &createdRaw); err != nil {
			return nil, fmt.Errorf("justifications: %w", err)
		}
		if j.Date, err = time.ParseInLocation(dateLayout, dateRaw, time.Local); err != nil {
			return nil, fmt.Errorf("justifications: %w", err)
		}
		// created_at may be the SQLite default literal for rows written
		// before the application managed the column.
		if t, perr := time.Parse(timeLayout, createdRaw); perr == nil {
			j.CreatedAt = t
		}
		j.Type = attendance.JustificationType(typ)
		out = append(out, j)
	}
	return out, rows.Err()
}
