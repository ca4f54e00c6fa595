package postgresql

import (
	"context"
	"fmt"
	"time"

	"github.com/pointrec/attendance-terminal/internal/domain/attendance"
)

func (s *Store) CreateJustification(ctx context.Context, j attendance.Justification) (attendance.Justification, error) {
	q := GetQuerier(ctx, s.db)
	err := q.QueryRow(ctx, `
		INSERT INTO justifications (employee_id, date, type, reason)
		VALUES ($1, $2, $3, $4)
		RETURNING id, created_at`,
		j.EmployeeID, j.Date, string(j.Type), j.Reason,
	).Scan(&j.ID, &j.CreatedAt)
	if err != nil {
		return attendance.Justification{}, fmt.Errorf("create justification: %w", err)
	}
	return j, nil
}

func (s *Store) JustificationsOn(ctx context.Context, date time.Time) ([]attendance.Justification, error) {
	q := GetQuerier(ctx, s.db)
	rows, err := q.Query(ctx, `
		SELECT id, employee_id, date, type, reason, created_at
		FROM justifications
		WHERE date = $1
		ORDER BY id`,
		date,
	)
	if err != nil {
		return nil, fmt.Errorf("justifications: %w", err)
	}
	defer rows.Close()

	var out []attendance.Justification
	for rows.Next() {
		var j attendance.Justification
		var typ string
		if err := rows.Scan(&j.ID, &j.EmployeeID, &j.Date, &typ, &j.Reason, &j.CreatedAt); err != nil {
			return nil, fmt.Errorf("justifications: %w", err)
		}
		j.Type = attendance.JustificationType(typ)
		out = append(out, j)
	}
	return out, rows.Err()
}
