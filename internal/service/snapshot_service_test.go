package service_test

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/herculanodebiasi/funcionarios/internal/domain"
	"github.com/herculanodebiasi/funcionarios/internal/service"
	"github.com/herculanodebiasi/funcionarios/internal/storage"
)

type fakeStorage struct {
	puts    map[string][]byte
	opts    []storage.PutOptions
	objects []storage.ObjectInfo
	prefix  string
	deletes []string
	err     error
	// delErr fails DeleteObject for the key it names.
	delErr map[string]error
}

func (f *fakeStorage) PutObject(_ context.Context, body io.Reader, opts storage.PutOptions) (string, error) {
	if f.err != nil {
		return "", f.err
	}
	b, err := io.ReadAll(body)
	if err != nil {
		return "", err
	}
	if f.puts == nil {
		f.puts = map[string][]byte{}
	}
	f.puts[opts.Key] = b
	f.opts = append(f.opts, opts)
	return "s3://" + opts.Bucket + "/" + opts.Key, nil
}

func (f *fakeStorage) ListObjects(_ context.Context, _ string, prefix string) ([]storage.ObjectInfo, error) {
	f.prefix = prefix
	return f.objects, f.err
}

func (f *fakeStorage) DeleteObject(_ context.Context, _ string, key string) error {
	if f.err != nil {
		return f.err
	}
	if err := f.delErr[key]; err != nil {
		return err
	}
	f.deletes = append(f.deletes, key)
	return nil
}

func fixedClock() time.Time {
	return time.Date(2026, 10, 19, 12, 0, 0, 0, time.UTC)
}

func TestSnapshotExport(t *testing.T) {
	repo := newFakeEmployeeRepository()
	ctx := context.Background()
	employees := service.NewEmployeeService(repo)
	_, err := employees.CreateEmployee(ctx, domain.Employee{
		Name:            "Ana Banana",
		BirthDate:       time.Date(1990, 2, 12, 0, 0, 0, 0, time.UTC),
		Salary:          decimal.RequireFromString("9000"),
		DependentsCount: 1,
	})
	require.NoError(t, err)
	_, err = employees.CreateEmployee(ctx, domain.Employee{Name: "Bruno"})
	require.NoError(t, err)

	store := &fakeStorage{}
	svc := service.NewSnapshotService(service.SnapshotConfig{
		Bucket:    "backups",
		KeyPrefix: "/snapshots/",
		Now:       fixedClock,
	}, repo, store)

	snap, err := svc.Export(ctx)
	require.NoError(t, err)
	assert.Equal(t, "snapshots/funcionarios-20261019T120000Z.json", snap.Key)
	assert.Equal(t, "s3://backups/snapshots/funcionarios-20261019T120000Z.json", snap.Location)
	assert.Equal(t, 2, snap.Employees)
	require.Len(t, store.opts, 1)
	assert.Equal(t, "application/json", store.opts[0].ContentType)

	var doc struct {
		TakenAt      string `json:"takenAt"`
		Funcionarios []struct {
			ID         int64   `json:"id"`
			Nome       string  `json:"nome"`
			Nascimento *string `json:"nascimento"`
			Salario    string  `json:"salario"`
			NumDep     int     `json:"numDep"`
		} `json:"funcionarios"`
	}
	require.NoError(t, json.Unmarshal(store.puts[snap.Key], &doc))
	assert.Equal(t, "2026-10-19T12:00:00Z", doc.TakenAt)
	require.Len(t, doc.Funcionarios, 2)
	assert.Equal(t, "Ana Banana", doc.Funcionarios[0].Nome)
	require.NotNil(t, doc.Funcionarios[0].Nascimento)
	assert.Equal(t, "1990-02-12", *doc.Funcionarios[0].Nascimento)
	assert.Equal(t, "9000.00", doc.Funcionarios[0].Salario)
	assert.Equal(t, 1, doc.Funcionarios[0].NumDep)
	assert.Nil(t, doc.Funcionarios[1].Nascimento)
}

func TestSnapshotExportRequiresBucket(t *testing.T) {
	svc := service.NewSnapshotService(service.SnapshotConfig{}, newFakeEmployeeRepository(), &fakeStorage{})

	_, err := svc.Export(context.Background())
	assert.Error(t, err)
}

func TestSnapshotExportStorageError(t *testing.T) {
	store := &fakeStorage{err: errors.New("access denied")}
	svc := service.NewSnapshotService(service.SnapshotConfig{Bucket: "b", Now: fixedClock}, newFakeEmployeeRepository(), store)

	_, err := svc.Export(context.Background())
	assert.EqualError(t, err, "access denied")
}

func TestSnapshotListNewestFirst(t *testing.T) {
	store := &fakeStorage{objects: []storage.ObjectInfo{
		{Key: "snapshots/funcionarios-20261001T000000Z.json"},
		{Key: "snapshots/funcionarios-20261019T120000Z.json"},
		{Key: "snapshots/funcionarios-20261010T000000Z.json"},
	}}
	svc := service.NewSnapshotService(service.SnapshotConfig{Bucket: "b", KeyPrefix: "snapshots"}, newFakeEmployeeRepository(), store)

	objects, err := svc.List(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "snapshots/", store.prefix)
	require.Len(t, objects, 3)
	assert.Equal(t, "snapshots/funcionarios-20261019T120000Z.json", objects[0].Key)
	assert.Equal(t, "snapshots/funcionarios-20261001T000000Z.json", objects[2].Key)
}

func TestSnapshotDelete(t *testing.T) {
	store := &fakeStorage{}
	svc := service.NewSnapshotService(service.SnapshotConfig{Bucket: "b", KeyPrefix: "snapshots"}, newFakeEmployeeRepository(), store)
	ctx := context.Background()

	require.NoError(t, svc.Delete(ctx, "snapshots/funcionarios-20261001T000000Z.json"))
	assert.Equal(t, []string{"snapshots/funcionarios-20261001T000000Z.json"}, store.deletes)

	for _, key := range []string{
		"funcionarios-20261001T000000Z.json",
		"other/funcionarios-20261001T000000Z.json",
		"snapshots/nested/funcionarios-20261001T000000Z.json",
		"snapshots/notes.txt",
		"snapshots/",
	} {
		assert.ErrorIs(t, svc.Delete(ctx, key), service.ErrForeignSnapshotKey, key)
	}
	assert.Len(t, store.deletes, 1)
}

func TestSnapshotDeleteRequiresBucket(t *testing.T) {
	store := &fakeStorage{}
	svc := service.NewSnapshotService(service.SnapshotConfig{KeyPrefix: "snapshots"}, newFakeEmployeeRepository(), store)

	assert.Error(t, svc.Delete(context.Background(), "snapshots/funcionarios-20261001T000000Z.json"))
	assert.Empty(t, store.deletes)
}

func TestSnapshotPruneKeepsNewest(t *testing.T) {
	store := &fakeStorage{objects: []storage.ObjectInfo{
		{Key: "snapshots/funcionarios-20261001T000000Z.json"},
		{Key: "snapshots/funcionarios-20261019T120000Z.json"},
		{Key: "snapshots/readme.txt"},
		{Key: "snapshots/funcionarios-20261010T000000Z.json"},
		{Key: "snapshots/funcionarios-20260901T000000Z.json"},
	}}
	svc := service.NewSnapshotService(service.SnapshotConfig{Bucket: "b", KeyPrefix: "snapshots"}, newFakeEmployeeRepository(), store)

	deleted, err := svc.Prune(context.Background(), 2)
	require.NoError(t, err)
	want := []string{
		"snapshots/funcionarios-20261001T000000Z.json",
		"snapshots/funcionarios-20260901T000000Z.json",
	}
	assert.Equal(t, want, deleted)
	assert.Equal(t, want, store.deletes)
}

func TestSnapshotPruneNothingToDelete(t *testing.T) {
	store := &fakeStorage{objects: []storage.ObjectInfo{
		{Key: "snapshots/funcionarios-20261019T120000Z.json"},
	}}
	svc := service.NewSnapshotService(service.SnapshotConfig{Bucket: "b", KeyPrefix: "snapshots"}, newFakeEmployeeRepository(), store)

	deleted, err := svc.Prune(context.Background(), 3)
	require.NoError(t, err)
	assert.Empty(t, deleted)
	assert.Empty(t, store.deletes)

	_, err = svc.Prune(context.Background(), -1)
	assert.Error(t, err)
}

func TestSnapshotPruneStopsOnDeleteError(t *testing.T) {
	failing := "snapshots/funcionarios-20261001T000000Z.json"
	store := &fakeStorage{
		objects: []storage.ObjectInfo{
			{Key: "snapshots/funcionarios-20261019T120000Z.json"},
			{Key: "snapshots/funcionarios-20261010T000000Z.json"},
			{Key: failing},
			{Key: "snapshots/funcionarios-20260901T000000Z.json"},
		},
		delErr: map[string]error{failing: errors.New("access denied")},
	}
	svc := service.NewSnapshotService(service.SnapshotConfig{Bucket: "b", KeyPrefix: "snapshots"}, newFakeEmployeeRepository(), store)

	deleted, err := svc.Prune(context.Background(), 0)
	assert.ErrorContains(t, err, "access denied")
	assert.Equal(t, []string{
		"snapshots/funcionarios-20261019T120000Z.json",
		"snapshots/funcionarios-20261010T000000Z.json",
	}, deleted)
}
