package http

import (
	"encoding/json"
	"encoding/xml"
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/herculanodebiasi/funcionarios/internal/domain"
)

const dateLayout = "2006-01-02"

// EmployeeRequest is the body accepted by create and update. Any id it carries is ignored.
type EmployeeRequest struct {
	ID         *int64          `json:"id"`
	Nome       string          `json:"nome"`
	Nascimento *string         `json:"nascimento"`
	Salario    decimal.Decimal `json:"salario"`
	NumDep     *int            `json:"numDep"`
}

type EmployeeResponse struct {
	XMLName    xml.Name    `json:"-" xml:"Funcionario"`
	ID         int64       `json:"id" xml:"id"`
	Nome       string      `json:"nome" xml:"nome"`
	Nascimento *string     `json:"nascimento" xml:"nascimento,omitempty"`
	Salario    json.Number `json:"salario" xml:"salario"`
	NumDep     int         `json:"numDep" xml:"numDep"`
}

func (r EmployeeRequest) toDomain() (domain.Employee, error) {
	if _, err := domain.SalaryCents(r.Salario); err != nil {
		return domain.Employee{}, fmt.Errorf("invalid salario: %w", err)
	}
	employee := domain.Employee{
		Name:   r.Nome,
		Salary: r.Salario,
	}
	if r.NumDep != nil {
		employee.DependentsCount = *r.NumDep
	}
	if r.Nascimento != nil && strings.TrimSpace(*r.Nascimento) != "" {
		t, err := time.Parse(dateLayout, strings.TrimSpace(*r.Nascimento))
		if err != nil {
			return domain.Employee{}, fmt.Errorf("invalid nascimento, expected YYYY-MM-DD")
		}
		employee.BirthDate = t
	}
	return employee, nil
}

func employeeToResponse(e domain.Employee) EmployeeResponse {
	resp := EmployeeResponse{
		ID:      e.ID,
		Nome:    e.Name,
		Salario: json.Number(e.Salary.StringFixed(2)),
		NumDep:  e.DependentsCount,
	}
	if !e.BirthDate.IsZero() {
		v := e.BirthDate.Format(dateLayout)
		resp.Nascimento = &v
	}
	return resp
}
