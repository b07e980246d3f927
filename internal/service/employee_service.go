package service

import (
	"context"
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/herculanodebiasi/funcionarios/internal/domain"
	"github.com/herculanodebiasi/funcionarios/internal/repository"
)

// EmployeeService coordinates employee operations backed by the repository.
type EmployeeService interface {
	ListEmployees(ctx context.Context) ([]domain.Employee, error)
	GetEmployee(ctx context.Context, id int64) (*domain.Employee, error)
	SearchByName(ctx context.Context, fragment string) ([]domain.Employee, error)
	SearchBySalaryRange(ctx context.Context, min, max decimal.Decimal) ([]domain.Employee, error)
	SearchByDependents(ctx context.Context, threshold int) ([]domain.Employee, error)
	CreateEmployee(ctx context.Context, employee domain.Employee) (*domain.Employee, error)
	UpdateEmployee(ctx context.Context, id int64, employee domain.Employee) (*domain.Employee, error)
	DeleteEmployee(ctx context.Context, id int64) error
	Seed(ctx context.Context, employees []domain.Employee) (int, error)
}

type employeeService struct {
	employees repository.EmployeeRepository
}

func NewEmployeeService(employees repository.EmployeeRepository) EmployeeService {
	return &employeeService{employees: employees}
}

func (s *employeeService) ListEmployees(ctx context.Context) ([]domain.Employee, error) {
	return s.employees.FindAll(ctx)
}

func (s *employeeService) GetEmployee(ctx context.Context, id int64) (*domain.Employee, error) {
	return s.employees.FindByID(ctx, id)
}

func (s *employeeService) SearchByName(ctx context.Context, fragment string) ([]domain.Employee, error) {
	return s.employees.FindByNameContaining(ctx, fragment)
}

func (s *employeeService) SearchBySalaryRange(ctx context.Context, min, max decimal.Decimal) ([]domain.Employee, error) {
	return s.employees.FindBySalaryBetween(ctx, min, max)
}

func (s *employeeService) SearchByDependents(ctx context.Context, threshold int) ([]domain.Employee, error) {
	return s.employees.FindByDependentsCountAtLeast(ctx, threshold)
}

func (s *employeeService) CreateEmployee(ctx context.Context, employee domain.Employee) (*domain.Employee, error) {
	employee.ID = 0
	if err := s.employees.Save(ctx, &employee); err != nil {
		return nil, err
	}
	return &employee, nil
}

// UpdateEmployee replaces every field of an existing employee except its id.
// It never creates a row: a missing id yields domain.ErrEmployeeNotFound.
func (s *employeeService) UpdateEmployee(ctx context.Context, id int64, employee domain.Employee) (*domain.Employee, error) {
	if _, err := s.employees.FindByID(ctx, id); err != nil {
		return nil, err
	}

	employee.ID = id
	if err := s.employees.Save(ctx, &employee); err != nil {
		return nil, err
	}
	return &employee, nil
}

func (s *employeeService) DeleteEmployee(ctx context.Context, id int64) error {
	return s.employees.DeleteByID(ctx, id)
}

// Seed inserts the given employees only when the table is empty and reports how many rows were written.
func (s *employeeService) Seed(ctx context.Context, employees []domain.Employee) (int, error) {
	count, err := s.employees.Count(ctx)
	if err != nil {
		return 0, err
	}
	if count > 0 {
		return 0, nil
	}

	for i := range employees {
		employee := employees[i]
		employee.ID = 0
		if err := s.employees.Save(ctx, &employee); err != nil {
			return i, fmt.Errorf("seed employee %q: %w", employee.Name, err)
		}
	}
	return len(employees), nil
}
