package services

import (
	"context"
	"encoding/json"
	"path/filepath"
	"testing"
	"time"

	"github.com/tasknest/backend/domain"
	"github.com/tasknest/backend/internal/infrastructure/buffer"
	"github.com/tasknest/backend/repository"
)

type fakeMonitor struct{ online bool }

func (m *fakeMonitor) IsOnline() bool { return m.online }

// recordingTaskRepo records the order of replayed writes.
type recordingTaskRepo struct {
	ops []string
}

func (r *recordingTaskRepo) GetByID(ctx context.Context, id string) (*domain.Task, error) {
	return nil, domain.ErrTaskNotFound
}

func (r *recordingTaskRepo) List(ctx context.Context, filter repository.TaskFilter) ([]domain.Task, error) {
	return nil, nil
}

func (r *recordingTaskRepo) ListActive(ctx context.Context, userID string) ([]domain.Task, error) {
	return nil, nil
}

func (r *recordingTaskRepo) Create(ctx context.Context, task *domain.Task) (*domain.Task, error) {
	r.ops = append(r.ops, "create:"+task.ID)
	return task, nil
}

func (r *recordingTaskRepo) Update(ctx context.Context, task *domain.Task) error {
	r.ops = append(r.ops, "update:"+task.ID)
	return nil
}

func (r *recordingTaskRepo) Reorder(ctx context.Context, orders []repository.TaskOrder) error {
	return nil
}

func (r *recordingTaskRepo) Delete(ctx context.Context, id string) error {
	r.ops = append(r.ops, "delete:"+id)
	return nil
}

func (r *recordingTaskRepo) SaveCompletion(ctx context.Context, task *domain.Task, user *domain.User) error {
	return nil
}

func (r *recordingTaskRepo) Stats(ctx context.Context, userID string, weekStart time.Time) (*domain.TaskStats, error) {
	return &domain.TaskStats{}, nil
}

func openTestStore(t *testing.T) *buffer.Store {
	t.Helper()
	store, err := buffer.Open(filepath.Join(t.TempDir(), "buffer.db"), "")
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	t.Cleanup(func() { store.Close() })
	return store
}

func taskItem(t *testing.T, operation string, task domain.Task) buffer.Item {
	t.Helper()
	payload, err := json.Marshal(task)
	if err != nil {
		t.Fatalf("marshal task: %v", err)
	}
	return buffer.Item{
		ID:        task.ID,
		UserID:    task.UserID,
		Entity:    buffer.EntityTask,
		Operation: operation,
		Data:      payload,
	}
}

func TestDrainReplaysTaskWritesInOrder(t *testing.T) {
	store := openTestStore(t)
	repo := &recordingTaskRepo{}
	mon := &fakeMonitor{online: false}
	bp := NewBufferProcessor(store, mon, repo, nil, ProcessorConfig{Interval: time.Minute})

	ctx := context.Background()
	first := taskItem(t, buffer.OperationCreate, domain.Task{ID: "t1", UserID: "u1", Title: "pack bags"})
	first.Timestamp = time.Now().Add(-2 * time.Second)
	second := taskItem(t, buffer.OperationUpdate, domain.Task{ID: "t1", UserID: "u1", Title: "pack bags (edited)"})

	if err := bp.BufferOperation(ctx, first); err != nil {
		t.Fatalf("buffer first: %v", err)
	}
	if err := bp.BufferOperation(ctx, second); err != nil {
		t.Fatalf("buffer second: %v", err)
	}
	if len(repo.ops) != 0 {
		t.Fatalf("offline writes must not hit the repo, got %v", repo.ops)
	}
	if bp.Size() != 2 {
		t.Fatalf("expected 2 queued items, got %d", bp.Size())
	}

	mon.online = true
	if err := bp.Drain(ctx); err != nil {
		t.Fatalf("drain: %v", err)
	}
	if len(repo.ops) != 2 || repo.ops[0] != "create:t1" || repo.ops[1] != "update:t1" {
		t.Fatalf("expected create then update, got %v", repo.ops)
	}
	if bp.Size() != 0 {
		t.Fatalf("drained queue must be empty, got %d", bp.Size())
	}
}

func TestDrainSkipsWhileOffline(t *testing.T) {
	store := openTestStore(t)
	repo := &recordingTaskRepo{}
	mon := &fakeMonitor{online: false}
	bp := NewBufferProcessor(store, mon, repo, nil, ProcessorConfig{Interval: time.Minute})

	ctx := context.Background()
	if err := bp.BufferOperation(ctx, taskItem(t, buffer.OperationDelete, domain.Task{ID: "t9", UserID: "u1"})); err != nil {
		t.Fatalf("buffer: %v", err)
	}
	if err := bp.Drain(ctx); err != nil {
		t.Fatalf("drain: %v", err)
	}
	if len(repo.ops) != 0 {
		t.Fatalf("offline drain must not replay, got %v", repo.ops)
	}
	if bp.Size() != 1 {
		t.Fatalf("item must stay queued, got %d", bp.Size())
	}
}

// Only task writes replay through the buffer; anything else is rejected
// instead of blindly upserted.
func TestProcessItemRejectsNonTaskEntities(t *testing.T) {
	store := openTestStore(t)
	bp := NewBufferProcessor(store, &fakeMonitor{online: true}, &recordingTaskRepo{}, nil, ProcessorConfig{Interval: time.Minute})

	item := buffer.Item{ID: "p1", UserID: "u1", Entity: "profile", Operation: buffer.OperationUpdate, Data: []byte(`{}`)}
	if err := bp.processItem(context.Background(), item); err == nil {
		t.Fatal("non-task entity must not replay")
	}
}
