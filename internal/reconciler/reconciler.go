package reconciler

import (
	"context"
	"fmt"
	"math"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"

	"github.com/tasknest/backend/domain"
	"github.com/tasknest/backend/repository"
)

// Viewer is a live session able to receive alerts for its user's tasks.
type Viewer interface {
	UserID() string
	Ledger() *Ledger
	Send(event domain.Event) error
}

// ViewerSource snapshots the currently connected sessions.
type ViewerSource interface {
	Viewers() []Viewer
}

// Config controls cadence and the confirmation window.
type Config struct {
	Interval time.Duration
	// ConfirmationWindow bounds how long after timer expiry a prompt is
	// still raised; far-stale timers are left alone.
	ConfirmationWindow time.Duration
}

// Scanner is the periodic reconciliation pass. It recomputes alert and
// confirmation state from persisted task fields on every run instead of
// arming per-task timers, so a process restart loses nothing.
type Scanner struct {
	tasks   repository.TaskRepository
	viewers ViewerSource
	logger  *zap.Logger
	cron    *cron.Cron
	cfg     Config
	now     func() time.Time
}

func New(tasks repository.TaskRepository, viewers ViewerSource, logger *zap.Logger, cfg Config) *Scanner {
	if cfg.Interval <= 0 {
		cfg.Interval = 30 * time.Second
	}
	if cfg.ConfirmationWindow <= 0 {
		cfg.ConfirmationWindow = 24 * time.Hour
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	s := &Scanner{
		tasks:   tasks,
		viewers: viewers,
		logger:  logger,
		cfg:     cfg,
		now:     time.Now,
	}

	// A run that outlasts the cadence is skipped, never overlapped.
	s.cron = cron.New(
		cron.WithSeconds(),
		cron.WithChain(cron.SkipIfStillRunning(cron.DiscardLogger)),
	)
	schedule := fmt.Sprintf("@every %ds", int(cfg.Interval.Seconds()))
	_, _ = s.cron.AddFunc(schedule, func() {
		ctx, cancel := context.WithTimeout(context.Background(), cfg.Interval)
		defer cancel()
		s.RunOnce(ctx)
	})

	return s
}

func (s *Scanner) Start() {
	if s == nil || s.cron == nil {
		return
	}
	s.cron.Start()
	s.logger.Info("reconciler started", zap.Duration("interval", s.cfg.Interval))
}

func (s *Scanner) Stop(ctx context.Context) {
	if s == nil || s.cron == nil {
		return
	}
	stopCtx := s.cron.Stop()
	select {
	case <-stopCtx.Done():
	case <-ctx.Done():
	}
	s.logger.Info("reconciler stopped")
}

// RunOnce scans every connected viewer's active tasks. A failure for one
// viewer or one task is logged and skipped; the pass always completes.
func (s *Scanner) RunOnce(ctx context.Context) {
	now := s.now()
	for _, v := range s.viewers.Viewers() {
		tasks, err := s.tasks.ListActive(ctx, v.UserID())
		if err != nil {
			s.logger.Warn("active task scan failed",
				zap.String("user_id", v.UserID()), zap.Error(err))
			continue
		}
		for i := range tasks {
			s.reconcileTask(v, &tasks[i], now)
		}
	}
}

func (s *Scanner) reconcileTask(v Viewer, task *domain.Task, now time.Time) {
	if task.IsDone() {
		return
	}
	led := v.Ledger()

	if task.DueDate != nil {
		minutesLeft := task.DueDate.Sub(now).Minutes()
		band := DueBand(minutesLeft)
		if led.MarkShown(DueAlertKey(task.ID, band)) {
			s.push(v, domain.Event{
				Type: domain.EventTaskAlert,
				Payload: domain.TaskAlert{
					TaskID:    task.ID,
					TaskTitle: task.Title,
					Band:      band,
					Message:   DueMessage(task.Title, band, minutesLeft),
				},
			})
		}
	}

	deadline, armed := task.EstimatedDeadline()
	if !armed {
		return
	}
	left := deadline.Sub(now)

	switch {
	case left > 0 && left <= 5*time.Minute:
		if led.MarkShown(TimerAlertKey(task.ID, "urgent")) {
			s.push(v, domain.Event{
				Type: domain.EventTaskAlert,
				Payload: domain.TaskAlert{
					TaskID:    task.ID,
					TaskTitle: task.Title,
					Band:      "est-urgent",
					Message:   fmt.Sprintf("Timer: %q completes in ~%d minute(s)", task.Title, int(math.Ceil(left.Minutes()))),
				},
			})
		}

	case left <= 0 && -left <= s.cfg.ConfirmationWindow:
		if led.ConfirmationDue(task.ID, *task.StartedAt) {
			led.MarkPending(task.ID, *task.StartedAt)
			s.push(v, domain.Event{
				Type: domain.EventConfirmationRequest,
				Payload: domain.ConfirmationRequest{
					TaskID:    task.ID,
					TaskTitle: task.Title,
					StartedAt: task.StartedAt.Unix(),
				},
			})
		}
		if led.MarkShown(TimerAlertKey(task.ID, "overdue")) {
			s.push(v, domain.Event{
				Type: domain.EventTaskAlert,
				Payload: domain.TaskAlert{
					TaskID:    task.ID,
					TaskTitle: task.Title,
					Band:      "est-overdue",
					Message:   fmt.Sprintf("Timer ended for %q, please confirm", task.Title),
				},
			})
		}
	}
}

// push delivers best-effort: a dead socket is the hub's problem, not ours.
func (s *Scanner) push(v Viewer, ev domain.Event) {
	if err := v.Send(ev); err != nil {
		s.logger.Debug("alert delivery failed",
			zap.String("user_id", v.UserID()), zap.String("event", ev.Type), zap.Error(err))
	}
}
