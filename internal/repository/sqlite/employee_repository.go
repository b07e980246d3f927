package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"golang.org/x/text/cases"

	"github.com/herculanodebiasi/funcionarios/internal/domain"
	"github.com/herculanodebiasi/funcionarios/internal/repository"
)

const createFuncionariosTable = `
CREATE TABLE IF NOT EXISTS funcionarios (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	nome TEXT NOT NULL,
	nome_busca TEXT NOT NULL,
	nascimento TEXT NULL,
	salario_centavos INTEGER NOT NULL DEFAULT 0,
	num_dep INTEGER NOT NULL DEFAULT 0
);
CREATE INDEX IF NOT EXISTS idx_funcionarios_salario ON funcionarios(salario_centavos);
CREATE INDEX IF NOT EXISTS idx_funcionarios_num_dep ON funcionarios(num_dep);
`

const selectEmployeeColumns = `
SELECT id, nome, nascimento, salario_centavos, num_dep
FROM funcionarios`

const dateLayout = "2006-01-02"

var (
	maxStorableCents = decimal.NewFromInt(math.MaxInt64)
	minStorableCents = decimal.NewFromInt(math.MinInt64)
)

type EmployeeRepository struct {
	db *sql.DB
}

func NewEmployeeRepository(db *sql.DB) repository.EmployeeRepository {
	return &EmployeeRepository{db: db}
}

func (r *EmployeeRepository) Init(ctx context.Context) error {
	if _, err := r.db.ExecContext(ctx, createFuncionariosTable); err != nil {
		return fmt.Errorf("create funcionarios table: %w", err)
	}
	return nil
}

func (r *EmployeeRepository) FindAll(ctx context.Context) ([]domain.Employee, error) {
	return r.query(ctx, "query employees", selectEmployeeColumns+`
ORDER BY id ASC`)
}

func (r *EmployeeRepository) FindByID(ctx context.Context, id int64) (*domain.Employee, error) {
	row := r.db.QueryRowContext(ctx, selectEmployeeColumns+`
WHERE id=?`,
		id,
	)
	return scanEmployee(row)
}

func (r *EmployeeRepository) FindByNameContaining(ctx context.Context, fragment string) ([]domain.Employee, error) {
	pattern := "%" + escapeLike(foldName(fragment)) + "%"
	return r.query(ctx, "query employees by name", selectEmployeeColumns+`
WHERE nome_busca LIKE ? ESCAPE '\'
ORDER BY id ASC`, pattern)
}

func (r *EmployeeRepository) FindBySalaryBetween(ctx context.Context, min, max decimal.Decimal) ([]domain.Employee, error) {
	lower, upper, ok := centsBounds(min, max)
	if !ok {
		return []domain.Employee{}, nil
	}
	return r.query(ctx, "query employees by salary", selectEmployeeColumns+`
WHERE salario_centavos BETWEEN ? AND ?
ORDER BY id ASC`, lower, upper)
}

func (r *EmployeeRepository) FindByDependentsCountAtLeast(ctx context.Context, threshold int) ([]domain.Employee, error) {
	return r.query(ctx, "query employees by dependents", selectEmployeeColumns+`
WHERE num_dep >= ?
ORDER BY id ASC`, threshold)
}

// Save inserts the employee when it has no id yet, otherwise replaces every column of the existing row.
func (r *EmployeeRepository) Save(ctx context.Context, employee *domain.Employee) error {
	cents, err := domain.SalaryCents(employee.Salary)
	if err != nil {
		return err
	}
	if employee.ID == 0 {
		return r.insert(ctx, employee, cents)
	}

	res, err := r.db.ExecContext(ctx, `
UPDATE funcionarios
SET nome=?, nome_busca=?, nascimento=?, salario_centavos=?, num_dep=?
WHERE id=?`,
		employee.Name,
		foldName(employee.Name),
		nullDate(employee.BirthDate),
		cents,
		employee.DependentsCount,
		employee.ID,
	)
	if err != nil {
		return fmt.Errorf("update employee: %w", err)
	}
	aff, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("employee update rows affected: %w", err)
	}
	if aff == 0 {
		return domain.ErrEmployeeNotFound
	}
	employee.Salary = fromCents(cents)
	return nil
}

func (r *EmployeeRepository) insert(ctx context.Context, employee *domain.Employee, cents int64) error {
	res, err := r.db.ExecContext(ctx, `
INSERT INTO funcionarios (nome, nome_busca, nascimento, salario_centavos, num_dep)
VALUES (?, ?, ?, ?, ?)`,
		employee.Name,
		foldName(employee.Name),
		nullDate(employee.BirthDate),
		cents,
		employee.DependentsCount,
	)
	if err != nil {
		return fmt.Errorf("insert employee: %w", err)
	}

	id, err := res.LastInsertId()
	if err != nil {
		return fmt.Errorf("get last insert id: %w", err)
	}
	employee.ID = id
	employee.Salary = fromCents(cents)
	return nil
}

func (r *EmployeeRepository) DeleteByID(ctx context.Context, id int64) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM funcionarios WHERE id=?`, id)
	if err != nil {
		return fmt.Errorf("delete employee: %w", err)
	}
	aff, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("employee delete rows affected: %w", err)
	}
	if aff == 0 {
		return domain.ErrEmployeeNotFound
	}
	return nil
}

func (r *EmployeeRepository) Count(ctx context.Context) (int64, error) {
	var count int64
	if err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM funcionarios`).Scan(&count); err != nil {
		return 0, fmt.Errorf("count employees: %w", err)
	}
	return count, nil
}

func (r *EmployeeRepository) query(ctx context.Context, op, query string, args ...any) ([]domain.Employee, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	defer rows.Close()

	employees := []domain.Employee{}
	for rows.Next() {
		employee, err := scanEmployee(rows)
		if err != nil {
			return nil, err
		}
		employees = append(employees, *employee)
	}

	return employees, rows.Err()
}

func scanEmployee(scanner interface {
	Scan(dest ...any) error
}) (*domain.Employee, error) {
	var (
		employee   domain.Employee
		birthDate  sql.NullString
		salaryCent int64
	)

	if err := scanner.Scan(
		&employee.ID,
		&employee.Name,
		&birthDate,
		&salaryCent,
		&employee.DependentsCount,
	); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrEmployeeNotFound
		}
		return nil, fmt.Errorf("scan employee: %w", err)
	}

	if birthDate.Valid && birthDate.String != "" {
		t, err := time.Parse(dateLayout, birthDate.String)
		if err != nil {
			return nil, fmt.Errorf("parse birth date %q: %w", birthDate.String, err)
		}
		employee.BirthDate = t
	}
	employee.Salary = fromCents(salaryCent)

	return &employee, nil
}

// foldName builds the value stored in nome_busca. A new Caser is used per call since Casers are not goroutine safe.
func foldName(name string) string {
	return cases.Fold().String(name)
}

func escapeLike(s string) string {
	return strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`).Replace(s)
}

// centsBounds rounds the range inward to whole cents so the comparison stays inclusive.
// Bounds beyond the storable range are clamped; ok is false when nothing can match.
func centsBounds(min, max decimal.Decimal) (lower, upper int64, ok bool) {
	lo := min.Shift(2).Ceil()
	hi := max.Shift(2).Floor()
	if lo.GreaterThan(hi) || lo.GreaterThan(maxStorableCents) || hi.LessThan(minStorableCents) {
		return 0, 0, false
	}

	lower, upper = math.MinInt64, math.MaxInt64
	if lo.GreaterThan(minStorableCents) {
		lower = lo.IntPart()
	}
	if hi.LessThan(maxStorableCents) {
		upper = hi.IntPart()
	}
	return lower, upper, true
}

func fromCents(c int64) decimal.Decimal {
	return decimal.New(c, -2)
}

func nullDate(t time.Time) any {
	if t.IsZero() {
		return nil
	}
	return t.Format(dateLayout)
}
