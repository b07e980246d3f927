package domain

import (
	"errors"
	"math"
	"time"

	"github.com/shopspring/decimal"
)

var (
	// ErrEmployeeNotFound is returned when no employee exists for the requested id.
	ErrEmployeeNotFound = errors.New("employee not found")
	// ErrSalaryOutOfRange is returned for salaries that cannot be stored at cent precision.
	ErrSalaryOutOfRange = errors.New("salary out of range")
)

var (
	maxSalaryCents = decimal.NewFromInt(math.MaxInt64)
	minSalaryCents = decimal.NewFromInt(math.MinInt64)
)

// Employee represents a single employee record.
type Employee struct {
	ID              int64
	Name            string
	BirthDate       time.Time
	Salary          decimal.Decimal
	DependentsCount int
}

// SalaryCents converts a salary to whole cents, rounding half away from zero.
func SalaryCents(salary decimal.Decimal) (int64, error) {
	cents := salary.Shift(2).Round(0)
	if cents.GreaterThan(maxSalaryCents) || cents.LessThan(minSalaryCents) {
		return 0, ErrSalaryOutOfRange
	}
	return cents.IntPart(), nil
}
