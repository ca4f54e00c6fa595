package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/pointrec/attendance-terminal/internal/domain/employee"
	"github.com/pointrec/attendance-terminal/internal/domain/schedule"
)

const employeeColumns = `
	id, full_name, role, card_uid, photo_path, active,
	entry_time, exit_time,
	alt_entry_time, alt_exit_time, rotation_enabled, rotation_base,
	overrides_enabled,
	entry_mon, entry_tue, entry_wed, entry_thu, entry_fri,
	exit_mon, exit_tue, exit_wed, exit_thu, exit_fri`

var overrideDays = []time.Weekday{
	time.Monday, time.Tuesday, time.Wednesday, time.Thursday, time.Friday,
}

func (s *Store) EmployeeByCard(ctx context.Context, cardUID string) (employee.Employee, error) {
	query := `SELECT` + employeeColumns + `
		FROM employees WHERE active = 1 AND card_uid = ?`
	emp, err := scanEmployee(s.db.QueryRowContext(ctx, query, cardUID))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return employee.Employee{}, employee.ErrEmployeeNotFound
		}
		return employee.Employee{}, fmt.Errorf("employee by card: %w", err)
	}
	return emp, nil
}

func (s *Store) EmployeeByID(ctx context.Context, id int64) (employee.Employee, error) {
	query := `SELECT` + employeeColumns + ` FROM employees WHERE id = ?`
	emp, err := scanEmployee(s.db.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return employee.Employee{}, employee.ErrEmployeeNotFound
		}
		return employee.Employee{}, fmt.Errorf("employee by id: %w", err)
	}
	return emp, nil
}

func (s *Store) ActiveEmployees(ctx context.Context) ([]employee.Employee, error) {
	query := `SELECT` + employeeColumns + `
		FROM employees WHERE active = 1 ORDER BY full_name`
	rows, err := s.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("active employees: %w", err)
	}
	defer rows.Close()

	var emps []employee.Employee
	for rows.Next() {
		emp, err := scanEmployee(rows)
		if err != nil {
			return nil, fmt.Errorf("active employees: %w", err)
		}
		emps = append(emps, emp)
	}
	return emps, rows.Err()
}

func (s *Store) CreateEmployee(ctx context.Context, emp employee.Employee) (employee.Employee, error) {
	err := s.withWriteTx(func(tx *sql.Tx) error {
		res, err := tx.ExecContext(ctx, `
			INSERT INTO employees (
				full_name, role, card_uid, photo_path, active,
				entry_time, exit_time,
				alt_entry_time, alt_exit_time, rotation_enabled, rotation_base,
				overrides_enabled,
				entry_mon, entry_tue, entry_wed, entry_thu, entry_fri,
				exit_mon, exit_tue, exit_wed, exit_thu, exit_fri
			) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			employeeArgs(emp)...,
		)
		if err != nil {
			return err
		}
		id, err := res.LastInsertId()
		if err != nil {
			return err
		}
		emp.ID = id
		return nil
	})
	if err != nil {
		return employee.Employee{}, fmt.Errorf("create employee: %w", err)
	}
	return emp, nil
}

func (s *Store) UpdateEmployee(ctx context.Context, emp employee.Employee) error {
	err := s.withWriteTx(func(tx *sql.Tx) error {
		args := employeeArgs(emp)
		args = append(args, emp.ID)
		res, err := tx.ExecContext(ctx, `
			UPDATE employees SET
				full_name = ?, role = ?, card_uid = ?, photo_path = ?, active = ?,
				entry_time = ?, exit_time = ?,
				alt_entry_time = ?, alt_exit_time = ?, rotation_enabled = ?, rotation_base = ?,
				overrides_enabled = ?,
				entry_mon = ?, entry_tue = ?, entry_wed = ?, entry_thu = ?, entry_fri = ?,
				exit_mon = ?, exit_tue = ?, exit_wed = ?, exit_thu = ?, exit_fri = ?
			WHERE id = ?`,
			args...,
		)
		if err != nil {
			return err
		}
		n, err := res.RowsAffected()
		if err != nil {
			return err
		}
		if n == 0 {
			return employee.ErrEmployeeNotFound
		}
		return nil
	})
	if err != nil && !errors.Is(err, employee.ErrEmployeeNotFound) {
		return fmt.Errorf("update employee: %w", err)
	}
	return err
}

func (s *Store) DeactivateEmployee(ctx context.Context, id int64) error {
	return s.withWriteTx(func(tx *sql.Tx) error {
		res, err := tx.ExecContext(ctx, `UPDATE employees SET active = 0 WHERE id = ?`, id)
		if err != nil {
			return fmt.Errorf("deactivate employee: %w", err)
		}
		n, err := res.RowsAffected()
		if err != nil {
			return err
		}
		if n == 0 {
			return employee.ErrEmployeeNotFound
		}
		return nil
	})
}

func (s *Store) CardInUse(ctx context.Context, cardUID string, excludeID int64) (bool, error) {
	var count int
	err := s.db.QueryRowContext(ctx, `
		SELECT COUNT(1) FROM employees
		WHERE active = 1 AND card_uid = ? AND id <> ?`,
		cardUID, excludeID,
	).Scan(&count)
	if err != nil {
		return false, fmt.Errorf("card in use: %w", err)
	}
	return count > 0, nil
}

// ReplaceRoster overwrites the employee mirror with the remote roster
// inside one transaction, so a concurrent classification read never
// observes a half-rewritten roster.
func (s *Store) ReplaceRoster(ctx context.Context, emps []employee.Employee) error {
	return s.withWriteTx(func(tx *sql.Tx) error {
		if _, err := tx.ExecContext(ctx, `DELETE FROM employees`); err != nil {
			return fmt.Errorf("clear roster: %w", err)
		}
		stmt, err := tx.PrepareContext(ctx, `
			INSERT INTO employees (
				id, full_name, role, card_uid, photo_path, active,
				entry_time, exit_time,
				alt_entry_time, alt_exit_time, rotation_enabled, rotation_base,
				overrides_enabled,
				entry_mon, entry_tue, entry_wed, entry_thu, entry_fri,
				exit_mon, exit_tue, exit_wed, exit_thu, exit_fri
			) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`)
		if err != nil {
			return err
		}
		defer stmt.Close()

		for _, emp := range emps {
			args := append([]any{emp.ID}, employeeArgs(emp)...)
			if _, err := stmt.ExecContext(ctx, args...); err != nil {
				return fmt.Errorf("mirror employee %d: %w", emp.ID, err)
			}
		}
		return nil
	})
}

// employeeArgs flattens an employee into the column order shared by
// INSERT and UPDATE (minus the id).
func employeeArgs(emp employee.Employee) []any {
	p := emp.Schedule
	args := []any{
		emp.FullName, emp.Role, nullString(emp.CardUID), nullString(emp.PhotoPath), boolInt(emp.Active),
		p.Entry.String(), p.Exit.String(),
		nullTime(p.AltEntry), nullTime(p.AltExit), boolInt(p.RotationEnabled), p.RotationBase,
		boolInt(p.OverridesEnabled),
	}
	for _, day := range overrideDays {
		args = append(args, nullOverride(p.EntryOverrides, day))
	}
	for _, day := range overrideDays {
		args = append(args, nullOverride(p.ExitOverrides, day))
	}
	return args
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanEmployee(row rowScanner) (employee.Employee, error) {
	var (
		emp              employee.Employee
		cardUID, photo   sql.NullString
		active           int
		entryRaw, exitRaw string
		altEntry, altExit sql.NullString
		rotEnabled       int
		ovrEnabled       int
		entryOvr, exitOvr [5]sql.NullString
	)

	dest := []any{
		&emp.ID, &emp.FullName, &emp.Role, &cardUID, &photo, &active,
		&entryRaw, &exitRaw,
		&altEntry, &altExit, &rotEnabled, &emp.Schedule.RotationBase,
		&ovrEnabled,
	}
	for i := range entryOvr {
		dest = append(dest, &entryOvr[i])
	}
	for i := range exitOvr {
		dest = append(dest, &exitOvr[i])
	}
	if err := row.Scan(dest...); err != nil {
		return employee.Employee{}, err
	}

	if cardUID.Valid {
		emp.CardUID = &cardUID.String
	}
	if photo.Valid {
		emp.PhotoPath = &photo.String
	}
	emp.Active = active != 0

	var err error
	if emp.Schedule.Entry, err = schedule.ParseTimeOfDay(entryRaw); err != nil {
		return employee.Employee{}, err
	}
	if emp.Schedule.Exit, err = schedule.ParseTimeOfDay(exitRaw); err != nil {
		return employee.Employee{}, err
	}
	if emp.Schedule.AltEntry, err = parseOptional(altEntry); err != nil {
		return employee.Employee{}, err
	}
	if emp.Schedule.AltExit, err = parseOptional(altExit); err != nil {
		return employee.Employee{}, err
	}
	emp.Schedule.RotationEnabled = rotEnabled != 0
	emp.Schedule.OverridesEnabled = ovrEnabled != 0

	for i, day := range overrideDays {
		if entryOvr[i].Valid {
			v, err := schedule.ParseTimeOfDay(entryOvr[i].String)
			if err != nil {
				return employee.Employee{}, err
			}
			if emp.Schedule.EntryOverrides == nil {
				emp.Schedule.EntryOverrides = make(map[time.Weekday]schedule.TimeOfDay)
			}
			emp.Schedule.EntryOverrides[day] = v
		}
		if exitOvr[i].Valid {
			v, err := schedule.ParseTimeOfDay(exitOvr[i].String)
			if err != nil {
				return employee.Employee{}, err
			}
			if emp.Schedule.ExitOverrides == nil {
				emp.Schedule.ExitOverrides = make(map[time.Weekday]schedule.TimeOfDay)
			}
			emp.Schedule.ExitOverrides[day] = v
		}
	}
	return emp, nil
}

func parseOptional(v sql.NullString) (*schedule.TimeOfDay, error) {
	if !v.Valid || v.String == "" {
		return nil, nil
	}
	t, err := schedule.ParseTimeOfDay(v.String)
	if err != nil {
		return nil, err
	}
	return &t, nil
}

func nullOverride(m map[time.Weekday]schedule.TimeOfDay, day time.Weekday) any {
	if v, ok := m[day]; ok {
		return v.String()
	}
	return nil
}

func nullString(s *string) any {
	if s == nil {
		return nil
	}
	return *s
}

func nullTime(t *schedule.TimeOfDay) any {
	if t == nil {
		return nil
	}
	return t.String()
}

func boolInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
