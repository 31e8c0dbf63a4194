package task

import (
	"context"
	"testing"
	"time"

	"github.com/tasknest/backend/domain"
	"github.com/tasknest/backend/repository"
)

type memTaskRepo struct {
	tasks       map[string]*domain.Task
	completions int
	savedUser   *domain.User
}

func newMemTaskRepo() *memTaskRepo {
	return &memTaskRepo{tasks: make(map[string]*domain.Task)}
}

func (r *memTaskRepo) GetByID(_ context.Context, id string) (*domain.Task, error) {
	if t, ok := r.tasks[id]; ok {
		copied := *t
		return &copied, nil
	}
	return nil, domain.ErrTaskNotFound
}

func (r *memTaskRepo) List(context.Context, repository.TaskFilter) ([]domain.Task, error) {
	return nil, nil
}

func (r *memTaskRepo) ListActive(context.Context, string) ([]domain.Task, error) {
	return nil, nil
}

func (r *memTaskRepo) Create(_ context.Context, task *domain.Task) (*domain.Task, error) {
	r.tasks[task.ID] = task
	return task, nil
}

func (r *memTaskRepo) Update(_ context.Context, task *domain.Task) error {
	if _, ok := r.tasks[task.ID]; !ok {
		return domain.ErrTaskNotFound
	}
	copied := *task
	r.tasks[task.ID] = &copied
	return nil
}

func (r *memTaskRepo) Reorder(context.Context, []repository.TaskOrder) error { return nil }

func (r *memTaskRepo) Delete(_ context.Context, id string) error {
	if _, ok := r.tasks[id]; !ok {
		return domain.ErrTaskNotFound
	}
	delete(r.tasks, id)
	return nil
}

func (r *memTaskRepo) Stats(_ context.Context, userID string, weekStart time.Time) (*domain.TaskStats, error) {
	stats := &domain.TaskStats{CompletedByPriority: map[domain.TaskPriority]int{}}
	for _, task := range r.tasks {
		if task.UserID != userID {
			continue
		}
		stats.TotalTasks++
		if task.Status == domain.StatusDone {
			stats.TotalCompleted++
			stats.CompletedByPriority[task.Priority]++
			if task.CompletedAt != nil && !task.CompletedAt.Before(weekStart) {
				stats.CompletedThisWeek++
			}
		}
	}
	if stats.TotalTasks > 0 {
		stats.CompletionRate = float64(stats.TotalCompleted) / float64(stats.TotalTasks) * 100
	}
	return stats, nil
}

func (r *memTaskRepo) SaveCompletion(_ context.Context, task *domain.Task, user *domain.User) error {
	copied := *task
	r.tasks[task.ID] = &copied
	savedUser := *user
	r.savedUser = &savedUser
	r.completions++
	return nil
}

type memUserRepo struct {
	users map[string]*domain.User
}

func (r *memUserRepo) GetByID(_ context.Context, id string) (*domain.User, error) {
	if u, ok := r.users[id]; ok {
		copied := *u
		return &copied, nil
	}
	return nil, domain.ErrUserNotFound
}

func (r *memUserRepo) GetByUsername(context.Context, string) (*domain.User, error) {
	return nil, domain.ErrUserNotFound
}
func (r *memUserRepo) Upsert(context.Context, *domain.User) error { return nil }
func (r *memUserRepo) Search(context.Context, string, string, int) ([]domain.User, error) {
	return nil, nil
}
func (r *memUserRepo) CreateFriendRequest(context.Context, string, string) error { return nil }
func (r *memUserRepo) AcceptFriendRequest(context.Context, string, string) error { return nil }
func (r *memUserRepo) ListFriends(context.Context, string) ([]domain.Friend, error) {
	return nil, nil
}
func (r *memUserRepo) IncrementUnread(context.Context, string, string) error { return nil }
func (r *memUserRepo) ResetUnread(context.Context, string, string) error     { return nil }
func (r *memUserRepo) FriendProgress(context.Context, string, time.Time, time.Time) ([]domain.FriendProgress, error) {
	return nil, nil
}
func (r *memUserRepo) Leaderboard(context.Context, int, time.Time, time.Time) ([]domain.LeaderboardEntry, error) {
	return nil, nil
}

type countingBroadcaster struct{ events []domain.Event }

func (b *countingBroadcaster) ToAll(ev domain.Event) { b.events = append(b.events, ev) }

func fixedClock(t time.Time) func() time.Time {
	return func() time.Time { return t }
}

func setup(task *domain.Task, user *domain.User) (*UseCase, *memTaskRepo, *memUserRepo, *countingBroadcaster) {
	tasks := newMemTaskRepo()
	if task != nil {
		tasks.tasks[task.ID] = task
	}
	users := &memUserRepo{users: map[string]*domain.User{}}
	if user != nil {
		users.users[user.ID] = user
	}
	broadcast := &countingBroadcaster{}
	uc := New(tasks, users, nil, broadcast, nil)
	return uc, tasks, users, broadcast
}

func TestCompleteAwardsOnceAndBroadcasts(t *testing.T) {
	now := time.Date(2025, time.April, 2, 15, 0, 0, 0, time.UTC)
	due := now.Add(time.Hour)
	yesterday := now.AddDate(0, 0, -1)
	task := &domain.Task{ID: "t1", UserID: "u1", Status: domain.StatusToDo, DueDate: &due}
	user := &domain.User{ID: "u1", Points: 40, Streak: 2, LastCompletionDate: &yesterday}

	uc, tasks, _, broadcast := setup(task, user)
	uc.now = fixedClock(now)

	done, err := uc.Complete(context.Background(), "u1", "t1")
	if err != nil {
		t.Fatalf("complete: %v", err)
	}
	if !done.IsDone() || done.CompletedAt == nil {
		t.Fatal("task must be Done with a completion time")
	}
	if tasks.completions != 1 {
		t.Fatalf("expected one transactional completion write, got %d", tasks.completions)
	}
	// streak 3, on-time: 10 + 5 + 3*2 = 21
	if tasks.savedUser.Points != 40+21 {
		t.Fatalf("expected 61 points, got %d", tasks.savedUser.Points)
	}
	if tasks.savedUser.Streak != 3 {
		t.Fatalf("expected streak 3, got %d", tasks.savedUser.Streak)
	}
	if len(broadcast.events) == 0 || broadcast.events[0].Type != domain.EventTasksUpdated {
		t.Fatal("completion must broadcast tasksUpdated")
	}
}

func TestCompleteAlreadyDoneIsNoop(t *testing.T) {
	now := time.Date(2025, time.April, 2, 15, 0, 0, 0, time.UTC)
	completed := now.Add(-time.Hour)
	task := &domain.Task{ID: "t1", UserID: "u1", Status: domain.StatusDone, CompletedAt: &completed}
	user := &domain.User{ID: "u1", Points: 50, Streak: 4}

	uc, tasks, _, _ := setup(task, user)
	uc.now = fixedClock(now)

	if _, err := uc.Complete(context.Background(), "u1", "t1"); err != nil {
		t.Fatalf("re-completing must be a silent no-op: %v", err)
	}
	if tasks.completions != 0 {
		t.Fatal("no-op completion must not write or award points")
	}
}

func TestCompleteRejectsForeignTask(t *testing.T) {
	task := &domain.Task{ID: "t1", UserID: "owner", Status: domain.StatusToDo}
	uc, _, _, _ := setup(task, &domain.User{ID: "intruder"})

	if _, err := uc.Complete(context.Background(), "intruder", "t1"); !domain.IsDomainError(err, domain.ErrCodeForbidden) {
		t.Fatalf("expected forbidden error, got %v", err)
	}
}

func TestStartThenRevertRoundTrip(t *testing.T) {
	now := time.Date(2025, time.April, 2, 15, 0, 0, 0, time.UTC)
	task := &domain.Task{ID: "t1", UserID: "u1", Status: domain.StatusToDo}
	uc, tasks, _, _ := setup(task, &domain.User{ID: "u1"})
	uc.now = fixedClock(now)

	started, err := uc.Start(context.Background(), "u1", "t1", 45)
	if err != nil {
		t.Fatalf("start: %v", err)
	}
	if started.StartedAt == nil || started.EstimatedMinutes == nil || *started.EstimatedMinutes != 45 {
		t.Fatal("start must arm the timer")
	}

	reverted, err := uc.Revert(context.Background(), "u1", "t1")
	if err != nil {
		t.Fatalf("revert: %v", err)
	}
	if reverted.Status != domain.StatusToDo || reverted.StartedAt != nil || reverted.EstimatedMinutes != nil {
		t.Fatal("revert must return to To Do with a disarmed timer")
	}

	stored, _ := tasks.GetByID(context.Background(), "t1")
	if stored.CompletedAt != nil {
		t.Fatal("completedAt must remain nil outside Done")
	}
}

func TestUpdatePreservesTimingFields(t *testing.T) {
	now := time.Date(2025, time.April, 2, 15, 0, 0, 0, time.UTC)
	started := now.Add(-10 * time.Minute)
	est := 30
	task := &domain.Task{
		ID: "t1", UserID: "u1", Title: "old",
		Status: domain.StatusInProgress, StartedAt: &started, EstimatedMinutes: &est,
	}
	uc, tasks, _, _ := setup(task, &domain.User{ID: "u1"})

	updated, err := uc.UpdateTask(context.Background(), &domain.Task{
		ID: "t1", UserID: "u1", Title: "new", Status: domain.StatusDone,
	})
	if err != nil {
		t.Fatalf("update: %v", err)
	}
	if updated.Status != domain.StatusInProgress {
		t.Fatal("a raw field update must not smuggle in a status transition")
	}
	stored, _ := tasks.GetByID(context.Background(), "t1")
	if stored.Title != "new" || stored.StartedAt == nil || stored.EstimatedMinutes == nil {
		t.Fatal("update must save fields while carrying timing state forward")
	}
}

func TestCompleteDisarmsTimer(t *testing.T) {
	now := time.Date(2025, time.April, 2, 15, 0, 0, 0, time.UTC)
	started := now.Add(-20 * time.Minute)
	est := 30
	task := &domain.Task{
		ID: "t1", UserID: "u1",
		Status: domain.StatusInProgress, StartedAt: &started, EstimatedMinutes: &est,
	}
	uc, tasks, _, _ := setup(task, &domain.User{ID: "u1"})
	uc.now = fixedClock(now)

	done, err := uc.Complete(context.Background(), "u1", "t1")
	if err != nil {
		t.Fatalf("complete: %v", err)
	}
	if done.StartedAt != nil || done.EstimatedMinutes != nil {
		t.Fatal("completing a timed task must disarm its timer")
	}
	stored, _ := tasks.GetByID(context.Background(), "t1")
	if stored.StartedAt != nil || stored.EstimatedMinutes != nil {
		t.Fatal("persisted Done task must not keep timer fields")
	}
}

func TestStatsCountsCompletionsAndWeek(t *testing.T) {
	// Wednesday; the week started on Sunday March 30.
	now := time.Date(2025, time.April, 2, 15, 0, 0, 0, time.UTC)
	thisWeek := now.AddDate(0, 0, -2)
	lastWeek := now.AddDate(0, 0, -9)

	tasks := newMemTaskRepo()
	tasks.tasks["t1"] = &domain.Task{ID: "t1", UserID: "u1", Status: domain.StatusToDo, Priority: domain.PriorityHigh}
	tasks.tasks["t2"] = &domain.Task{ID: "t2", UserID: "u1", Status: domain.StatusDone, Priority: domain.PriorityHigh, CompletedAt: &thisWeek}
	tasks.tasks["t3"] = &domain.Task{ID: "t3", UserID: "u1", Status: domain.StatusDone, Priority: domain.PriorityLow, CompletedAt: &lastWeek}
	tasks.tasks["t4"] = &domain.Task{ID: "t4", UserID: "other", Status: domain.StatusDone, Priority: domain.PriorityHigh, CompletedAt: &thisWeek}

	uc := New(tasks, &memUserRepo{users: map[string]*domain.User{}}, nil, nil, nil)
	uc.now = fixedClock(now)

	stats, err := uc.Stats(context.Background(), "u1")
	if err != nil {
		t.Fatalf("stats: %v", err)
	}
	if stats.TotalTasks != 3 || stats.TotalCompleted != 2 {
		t.Fatalf("expected 3 total / 2 completed, got %d / %d", stats.TotalTasks, stats.TotalCompleted)
	}
	if stats.CompletedByPriority[domain.PriorityHigh] != 1 || stats.CompletedByPriority[domain.PriorityLow] != 1 {
		t.Fatalf("unexpected priority breakdown: %v", stats.CompletedByPriority)
	}
	if stats.CompletedThisWeek != 1 {
		t.Fatalf("expected 1 completion this week, got %d", stats.CompletedThisWeek)
	}
	if stats.CompletionRate < 66 || stats.CompletionRate > 67 {
		t.Fatalf("expected completion rate near 66.7, got %f", stats.CompletionRate)
	}
}

func TestWeekStartFallsOnSundayMidnight(t *testing.T) {
	cases := []struct {
		now  time.Time
		want time.Time
	}{
		{time.Date(2025, time.April, 2, 15, 30, 0, 0, time.UTC), time.Date(2025, time.March, 30, 0, 0, 0, 0, time.UTC)},
		{time.Date(2025, time.March, 30, 0, 0, 1, 0, time.UTC), time.Date(2025, time.March, 30, 0, 0, 0, 0, time.UTC)},
		{time.Date(2025, time.April, 5, 23, 59, 0, 0, time.UTC), time.Date(2025, time.March, 30, 0, 0, 0, 0, time.UTC)},
	}
	for i, c := range cases {
		if got := weekStart(c.now); !got.Equal(c.want) {
			t.Fatalf("case %d: weekStart(%v) = %v, want %v", i, c.now, got, c.want)
		}
	}
}
