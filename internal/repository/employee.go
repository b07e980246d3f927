package repository

import (
	"context"

	"github.com/shopspring/decimal"

	"github.com/herculanodebiasi/funcionarios/internal/domain"
)

// EmployeeRepository exposes persistence operations for Employee records.
type EmployeeRepository interface {
	Init(ctx context.Context) error
	FindAll(ctx context.Context) ([]domain.Employee, error)
	FindByID(ctx context.Context, id int64) (*domain.Employee, error)
	FindByNameContaining(ctx context.Context, fragment string) ([]domain.Employee, error)
	FindBySalaryBetween(ctx context.Context, min, max decimal.Decimal) ([]domain.Employee, error)
	FindByDependentsCountAtLeast(ctx context.Context, threshold int) ([]domain.Employee, error)
	Save(ctx context.Context, employee *domain.Employee) error
	DeleteByID(ctx context.Context, id int64) error
	Count(ctx context.Context) (int64, error)
}
