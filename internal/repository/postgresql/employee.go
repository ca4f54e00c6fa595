package postgresql

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/pointrec/attendance-terminal/internal/domain/employee"
	"github.com/pointrec/attendance-terminal/internal/domain/schedule"
)

const employeeColumns = `
	id, full_name, role, card_uid, photo_path, active,
	entry_time, exit_time, alt_entry_time, alt_exit_time,
	rotation_enabled, rotation_base, overrides_enabled,
	entry_mon, entry_tue, entry_wed, entry_thu, entry_fri,
	exit_mon, exit_tue, exit_wed, exit_thu, exit_fri`

var overrideDays = []time.Weekday{
	time.Monday, time.Tuesday, time.Wednesday, time.Thursday, time.Friday,
}

func (s *Store) EmployeeByCard(ctx context.Context, cardUID string) (employee.Employee, error) {
	q := GetQuerier(ctx, s.db)
	query := `SELECT` + employeeColumns + `
		FROM employees
		WHERE active AND card_uid = $1`
	emp, err := scanEmployee(q.QueryRow(ctx, query, cardUID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return employee.Employee{}, employee.ErrEmployeeNotFound
		}
		return employee.Employee{}, fmt.Errorf("employee by card: %w", err)
	}
	return emp, nil
}

func (s *Store) EmployeeByID(ctx context.Context, id int64) (employee.Employee, error) {
	q := GetQuerier(ctx, s.db)
	query := `SELECT` + employeeColumns + `
		FROM employees
		WHERE id = $1`
	emp, err := scanEmployee(q.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return employee.Employee{}, employee.ErrEmployeeNotFound
		}
		return employee.Employee{}, fmt.Errorf("employee by id: %w", err)
	}
	return emp, nil
}

func (s *Store) ActiveEmployees(ctx context.Context) ([]employee.Employee, error) {
	q := GetQuerier(ctx, s.db)
	query := `SELECT` + employeeColumns + `
		FROM employees
		WHERE active
		ORDER BY full_name`
	rows, err := q.Query(ctx, query)
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
	q := GetQuerier(ctx, s.db)
	query := `
		INSERT INTO employees
			(full_name, role, card_uid, photo_path, active,
			 entry_time, exit_time, alt_entry_time, alt_exit_time,
			 rotation_enabled, rotation_base, overrides_enabled,
			 entry_mon, entry_tue, entry_wed, entry_thu, entry_fri,
			 exit_mon, exit_tue, exit_wed, exit_thu, exit_fri)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12,
			$13, $14, $15, $16, $17, $18, $19, $20, $21, $22)
		RETURNING id`
	if err := q.QueryRow(ctx, query, employeeArgs(emp)...).Scan(&emp.ID); err != nil {
		return employee.Employee{}, fmt.Errorf("create employee: %w", err)
	}
	return emp, nil
}

func (s *Store) UpdateEmployee(ctx context.Context, emp employee.Employee) error {
	q := GetQuerier(ctx, s.db)
	query := `
		UPDATE employees SET
			full_name = $1, role = $2, card_uid = $3, photo_path = $4, active = $5,
			entry_time = $6, exit_time = $7, alt_entry_time = $8, alt_exit_time = $9,
			rotation_enabled = $10, rotation_base = $11, overrides_enabled = $12,
			entry_mon = $13, entry_tue = $14, entry_wed = $15, entry_thu = $16, entry_fri = $17,
			exit_mon = $18, exit_tue = $19, exit_wed = $20, exit_thu = $21, exit_fri = $22
		WHERE id = $23`
	tag, err := q.Exec(ctx, query, append(employeeArgs(emp), emp.ID)...)
	if err != nil {
		return fmt.Errorf("update employee: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return employee.ErrEmployeeNotFound
	}
	return nil
}

func (s *Store) DeactivateEmployee(ctx context.Context, id int64) error {
	q := GetQuerier(ctx, s.db)
	tag, err := q.Exec(ctx, `UPDATE employees SET active = FALSE WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("deactivate employee: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return employee.ErrEmployeeNotFound
	}
	return nil
}

func (s *Store) CardInUse(ctx context.Context, cardUID string, excludeID int64) (bool, error) {
	q := GetQuerier(ctx, s.db)
	var count int
	err := q.QueryRow(ctx, `
		SELECT COUNT(1) FROM employees
		WHERE active AND card_uid = $1 AND id <> $2`,
		cardUID, excludeID,
	).Scan(&count)
	if err != nil {
		return false, fmt.Errorf("card in use: %w", err)
	}
	return count > 0, nil
}

func employeeArgs(emp employee.Employee) []any {
	args := []any{
		emp.FullName, emp.Role, emp.CardUID, emp.PhotoPath, emp.Active,
		emp.Schedule.Entry.String(), emp.Schedule.Exit.String(),
		timeString(emp.Schedule.AltEntry), timeString(emp.Schedule.AltExit),
		emp.Schedule.RotationEnabled, emp.Schedule.RotationBase, emp.Schedule.OverridesEnabled,
	}
	for _, day := range overrideDays {
		args = append(args, overrideString(emp.Schedule.EntryOverrides, day))
	}
	for _, day := range overrideDays {
		args = append(args, overrideString(emp.Schedule.ExitOverrides, day))
	}
	return args
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanEmployee(row rowScanner) (employee.Employee, error) {
	var (
		emp                     employee.Employee
		entryRaw, exitRaw       string
		altEntryRaw, altExitRaw *string
		entryOv, exitOv         [5]*string
	)
	if err := row.Scan(
		&emp.ID, &emp.FullName, &emp.Role, &emp.CardUID, &emp.PhotoPath, &emp.Active,
		&entryRaw, &exitRaw, &altEntryRaw, &altExitRaw,
		&emp.Schedule.RotationEnabled, &emp.Schedule.RotationBase, &emp.Schedule.OverridesEnabled,
		&entryOv[0], &entryOv[1], &entryOv[2], &entryOv[3], &entryOv[4],
		&exitOv[0], &exitOv[1], &exitOv[2], &exitOv[3], &exitOv[4],
	); err != nil {
		return employee.Employee{}, err
	}

	var err error
	if emp.Schedule.Entry, err = schedule.ParseTimeOfDay(entryRaw); err != nil {
		return employee.Employee{}, fmt.Errorf("entry_time: %w", err)
	}
	if emp.Schedule.Exit, err = schedule.ParseTimeOfDay(exitRaw); err != nil {
		return employee.Employee{}, fmt.Errorf("exit_time: %w", err)
	}
	if emp.Schedule.AltEntry, err = parseOptional(altEntryRaw); err != nil {
		return employee.Employee{}, fmt.Errorf("alt_entry_time: %w", err)
	}
	if emp.Schedule.AltExit, err = parseOptional(altExitRaw); err != nil {
		return employee.Employee{}, fmt.Errorf("alt_exit_time: %w", err)
	}
	for i, day := range overrideDays {
		if entryOv[i] != nil {
			t, err := schedule.ParseTimeOfDay(*entryOv[i])
			if err != nil {
				return employee.Employee{}, fmt.Errorf("entry override %s: %w", day, err)
			}
			if emp.Schedule.EntryOverrides == nil {
				emp.Schedule.EntryOverrides = make(map[time.Weekday]schedule.TimeOfDay)
			}
			emp.Schedule.EntryOverrides[day] = t
		}
		if exitOv[i] != nil {
			t, err := schedule.ParseTimeOfDay(*exitOv[i])
			if err != nil {
				return employee.Employee{}, fmt.Errorf("exit override %s: %w", day, err)
			}
			if emp.Schedule.ExitOverrides == nil {
				emp.Schedule.ExitOverrides = make(map[time.Weekday]schedule.TimeOfDay)
			}
			emp.Schedule.ExitOverrides[day] = t
		}
	}
	return emp, nil
}

func parseOptional(raw *string) (*schedule.TimeOfDay, error) {
	if raw == nil {
		return nil, nil
	}
	t, err := schedule.ParseTimeOfDay(*raw)
	if err != nil {
		return nil, err
	}
	return &t, nil
}

func timeString(t *schedule.TimeOfDay) *string {
	if t == nil {
		return nil
	}
	s := t.String()
	return &s
}

func overrideString(m map[time.Weekday]schedule.TimeOfDay, day time.Weekday) *string {
	if m == nil {
		return nil
	}
	t, ok := m[day]
	if !ok {
		return nil
	}
	s := t.String()
	return &s
}
