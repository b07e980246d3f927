package service_test

import (
	"context"
	"sort"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/herculanodebiasi/funcionarios/internal/domain"
)

// fakeEmployeeRepository is an in-memory repository.EmployeeRepository.
type fakeEmployeeRepository struct {
	rows   map[int64]domain.Employee
	nextID int64
	saves  int
	err    error
}

func newFakeEmployeeRepository() *fakeEmployeeRepository {
	return &fakeEmployeeRepository{rows: map[int64]domain.Employee{}}
}

func (f *fakeEmployeeRepository) Init(context.Context) error { return f.err }

func (f *fakeEmployeeRepository) filter(keep func(domain.Employee) bool) ([]domain.Employee, error) {
	if f.err != nil {
		return nil, f.err
	}
	out := []domain.Employee{}
	for _, e := range f.rows {
		if keep(e) {
			out = append(out, e)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (f *fakeEmployeeRepository) FindAll(context.Context) ([]domain.Employee, error) {
	return f.filter(func(domain.Employee) bool { return true })
}

func (f *fakeEmployeeRepository) FindByID(_ context.Context, id int64) (*domain.Employee, error) {
	if f.err != nil {
		return nil, f.err
	}
	e, ok := f.rows[id]
	if !ok {
		return nil, domain.ErrEmployeeNotFound
	}
	return &e, nil
}

func (f *fakeEmployeeRepository) FindByNameContaining(_ context.Context, fragment string) ([]domain.Employee, error) {
	return f.filter(func(e domain.Employee) bool {
		return strings.Contains(strings.ToLower(e.Name), strings.ToLower(fragment))
	})
}

func (f *fakeEmployeeRepository) FindBySalaryBetween(_ context.Context, min, max decimal.Decimal) ([]domain.Employee, error) {
	return f.filter(func(e domain.Employee) bool {
		return e.Salary.GreaterThanOrEqual(min) && e.Salary.LessThanOrEqual(max)
	})
}

func (f *fakeEmployeeRepository) FindByDependentsCountAtLeast(_ context.Context, threshold int) ([]domain.Employee, error) {
	return f.filter(func(e domain.Employee) bool { return e.DependentsCount >= threshold })
}

func (f *fakeEmployeeRepository) Save(_ context.Context, e *domain.Employee) error {
	if f.err != nil {
		return f.err
	}
	f.saves++
	if e.ID == 0 {
		f.nextID++
		e.ID = f.nextID
	} else if _, ok := f.rows[e.ID]; !ok {
		return domain.ErrEmployeeNotFound
	}
	f.rows[e.ID] = *e
	return nil
}

func (f *fakeEmployeeRepository) DeleteByID(_ context.Context, id int64) error {
	if f.err != nil {
		return f.err
	}
	if _, ok := f.rows[id]; !ok {
		return domain.ErrEmployeeNotFound
	}
	delete(f.rows, id)
	return nil
}

func (f *fakeEmployeeRepository) Count(context.Context) (int64, error) {
	if f.err != nil {
		return 0, f.err
	}
	return int64(len(f.rows)), nil
}
