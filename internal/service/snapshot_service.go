package service

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"path"
	"sort"
	"strings"
	"time"

	"github.com/herculanodebiasi/funcionarios/internal/domain"
	"github.com/herculanodebiasi/funcionarios/internal/repository"
	"github.com/herculanodebiasi/funcionarios/internal/storage"
)

// Snapshot describes an exported copy of the employee table.
type Snapshot struct {
	Location  string
	Key       string
	Employees int
	TakenAt   time.Time
}

const snapshotNamePrefix = "funcionarios-"

// ErrForeignSnapshotKey is returned when asked to delete an object outside the snapshot prefix.
var ErrForeignSnapshotKey = errors.New("key is not a snapshot")

// SnapshotService exports the employee table to object storage as JSON documents.
type SnapshotService interface {
	Export(ctx context.Context) (*Snapshot, error)
	List(ctx context.Context) ([]storage.ObjectInfo, error)
	Delete(ctx context.Context, key string) error
	// Prune keeps the newest keep snapshots and deletes the rest, returning the deleted keys.
	Prune(ctx context.Context, keep int) ([]string, error)
}

type SnapshotConfig struct {
	Bucket    string
	KeyPrefix string
	Now       func() time.Time
}

type snapshotService struct {
	cfg       SnapshotConfig
	employees repository.EmployeeRepository
	store     storage.Service
}

func NewSnapshotService(cfg SnapshotConfig, employees repository.EmployeeRepository, store storage.Service) SnapshotService {
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	cfg.KeyPrefix = strings.Trim(cfg.KeyPrefix, "/")
	return &snapshotService{
		cfg:       cfg,
		employees: employees,
		store:     store,
	}
}

type snapshotRecord struct {
	ID         int64   `json:"id"`
	Nome       string  `json:"nome"`
	Nascimento *string `json:"nascimento"`
	Salario    string  `json:"salario"`
	NumDep     int     `json:"numDep"`
}

type snapshotDocument struct {
	TakenAt      string           `json:"takenAt"`
	Funcionarios []snapshotRecord `json:"funcionarios"`
}

func (s *snapshotService) Export(ctx context.Context) (*Snapshot, error) {
	if s.cfg.Bucket == "" {
		return nil, fmt.Errorf("storage bucket is required")
	}

	employees, err := s.employees.FindAll(ctx)
	if err != nil {
		return nil, err
	}

	takenAt := s.cfg.Now().UTC()
	doc := snapshotDocument{
		TakenAt:      takenAt.Format(time.RFC3339),
		Funcionarios: make([]snapshotRecord, len(employees)),
	}
	for i := range employees {
		doc.Funcionarios[i] = toSnapshotRecord(employees[i])
	}

	body, err := json.Marshal(doc)
	if err != nil {
		return nil, fmt.Errorf("encode snapshot: %w", err)
	}

	key := path.Join(s.cfg.KeyPrefix, fmt.Sprintf("%s%s.json", snapshotNamePrefix, takenAt.Format("20060102T150405Z")))
	location, err := s.store.PutObject(ctx, bytes.NewReader(body), storage.PutOptions{
		Bucket:      s.cfg.Bucket,
		Key:         key,
		ContentType: "application/json",
	})
	if err != nil {
		return nil, err
	}

	return &Snapshot{
		Location:  location,
		Key:       key,
		Employees: len(employees),
		TakenAt:   takenAt,
	}, nil
}

// List returns the stored snapshots, newest first.
func (s *snapshotService) List(ctx context.Context) ([]storage.ObjectInfo, error) {
	objects, err := s.store.ListObjects(ctx, s.cfg.Bucket, s.listPrefix())
	if err != nil {
		return nil, err
	}
	sort.Slice(objects, func(i, j int) bool {
		return objects[i].Key > objects[j].Key
	})
	return objects, nil
}

func (s *snapshotService) Delete(ctx context.Context, key string) error {
	if s.cfg.Bucket == "" {
		return fmt.Errorf("storage bucket is required")
	}
	if !s.owns(key) {
		return fmt.Errorf("delete %q: %w", key, ErrForeignSnapshotKey)
	}
	return s.store.DeleteObject(ctx, s.cfg.Bucket, key)
}

func (s *snapshotService) Prune(ctx context.Context, keep int) ([]string, error) {
	if keep < 0 {
		return nil, fmt.Errorf("keep must not be negative, got %d", keep)
	}
	if s.cfg.Bucket == "" {
		return nil, fmt.Errorf("storage bucket is required")
	}

	objects, err := s.List(ctx)
	if err != nil {
		return nil, err
	}
	var deleted []string
	kept := 0
	for _, obj := range objects {
		if !s.owns(obj.Key) {
			continue
		}
		if kept < keep {
			kept++
			continue
		}
		if err := s.store.DeleteObject(ctx, s.cfg.Bucket, obj.Key); err != nil {
			return deleted, fmt.Errorf("prune %s: %w", obj.Key, err)
		}
		deleted = append(deleted, obj.Key)
	}
	return deleted, nil
}

func (s *snapshotService) listPrefix() string {
	if s.cfg.KeyPrefix == "" {
		return ""
	}
	return s.cfg.KeyPrefix + "/"
}

// owns reports whether key names a snapshot written by Export directly under the prefix.
func (s *snapshotService) owns(key string) bool {
	prefix := s.listPrefix()
	if !strings.HasPrefix(key, prefix) {
		return false
	}
	name := key[len(prefix):]
	return !strings.Contains(name, "/") && strings.HasPrefix(name, snapshotNamePrefix) && strings.HasSuffix(name, ".json")
}

func toSnapshotRecord(e domain.Employee) snapshotRecord {
	rec := snapshotRecord{
		ID:      e.ID,
		Nome:    e.Name,
		Salario: e.Salary.StringFixed(2),
		NumDep:  e.DependentsCount,
	}
	if !e.BirthDate.IsZero() {
		v := e.BirthDate.Format("2006-01-02")
		rec.Nascimento = &v
	}
	return rec
}
