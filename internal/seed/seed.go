// Package seed loads sample employees used to populate an empty database.
package seed

import (
	_ "embed"
	"fmt"
	"os"
	"time"

	"github.com/shopspring/decimal"
	"gopkg.in/yaml.v3"

	"github.com/herculanodebiasi/funcionarios/internal/domain"
)

//go:embed funcionarios.yaml
var defaultFixture []byte

type fixtureFile struct {
	Funcionarios []fixtureEmployee `yaml:"funcionarios"`
}

type fixtureEmployee struct {
	Nome       string `yaml:"nome"`
	Nascimento string `yaml:"nascimento"`
	Salario    string `yaml:"salario"`
	NumDep     int    `yaml:"numDep"`
}

// Load reads employees from the fixture at path, or from the embedded fixture when path is empty.
func Load(path string) ([]domain.Employee, error) {
	data := defaultFixture
	if path != "" {
		b, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read fixture: %w", err)
		}
		data = b
	}
	return Parse(data)
}

func Parse(data []byte) ([]domain.Employee, error) {
	var file fixtureFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("decode fixture: %w", err)
	}

	employees := make([]domain.Employee, 0, len(file.Funcionarios))
	for i, f := range file.Funcionarios {
		if f.Nome == "" {
			return nil, fmt.Errorf("fixture entry %d: nome is required", i)
		}
		employee := domain.Employee{
			Name:            f.Nome,
			DependentsCount: f.NumDep,
		}
		if f.Nascimento != "" {
			t, err := time.Parse("2006-01-02", f.Nascimento)
			if err != nil {
				return nil, fmt.Errorf("fixture entry %d: nascimento: %w", i, err)
			}
			employee.BirthDate = t
		}
		if f.Salario != "" {
			salary, err := decimal.NewFromString(f.Salario)
			if err != nil {
				return nil, fmt.Errorf("fixture entry %d: salario: %w", i, err)
			}
			employee.Salary = salary
		}
		employees = append(employees, employee)
	}
	return employees, nil
}
