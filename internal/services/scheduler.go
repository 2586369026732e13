package services

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"

	"github.com/fastygo/taskbot/domain"
	"github.com/fastygo/taskbot/repository"
	"github.com/fastygo/taskbot/usecase"
	"github.com/fastygo/taskbot/usecase/replies"
	"github.com/fastygo/taskbot/usecase/task"
)

// Job names accepted by Trigger.
const (
	JobMorning = "morning"
	JobEvening = "evening"
	JobWeekly  = "weekly"
)

// ErrUnknownJob is returned by Trigger for names that are not scheduled jobs.
var ErrUnknownJob = domain.NewError(domain.ErrCodeNotFound, "unknown job")

type SchedulerConfig struct {
	Location    *time.Location
	MorningSpec string
	EveningSpec string
	WeeklySpec  string
	// RunTimeout bounds a single job run.
	RunTimeout time.Duration
}

// RunReport summarizes one job run.
type RunReport struct {
	Job     string `json:"job"`
	Sent    int    `json:"sent"`
	Failed  int    `json:"failed"`
	Skipped int    `json:"skipped"`
}

// Scheduler sends the recurring reminders. Jobs only read profiles and tasks;
// they never touch conversation sessions.
type Scheduler struct {
	users    repository.ProfileRepository
	tasks    *task.UseCase
	settings repository.SettingsRepository
	sender   usecase.Sender
	clock    usecase.Clock
	logger   *zap.Logger
	cfg      SchedulerConfig
	cron     *cron.Cron

	running sync.WaitGroup
}

func NewScheduler(
	users repository.ProfileRepository,
	tasks *task.UseCase,
	settings repository.SettingsRepository,
	sender usecase.Sender,
	clock usecase.Clock,
	logger *zap.Logger,
	cfg SchedulerConfig,
) *Scheduler {
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.Location == nil {
		cfg.Location = time.UTC
	}
	if cfg.MorningSpec == "" {
		cfg.MorningSpec = "0 9 * * *"
	}
	if cfg.EveningSpec == "" {
		cfg.EveningSpec = "0 18 * * *"
	}
	if cfg.WeeklySpec == "" {
		cfg.WeeklySpec = "0 10 * * 0"
	}
	if cfg.RunTimeout <= 0 {
		cfg.RunTimeout = 10 * time.Minute
	}
	return &Scheduler{
		users:    users,
		tasks:    tasks,
		settings: settings,
		sender:   sender,
		clock:    clock,
		logger:   logger,
		cfg:      cfg,
		cron:     cron.New(cron.WithLocation(cfg.Location)),
	}
}

// Start registers the jobs and launches the cron. Times stored in the
// settings document take precedence over the configured specs.
func (s *Scheduler) Start(ctx context.Context) error {
	morning, evening := s.cfg.MorningSpec, s.cfg.EveningSpec
	if s.settings != nil {
		settings, err := s.settings.Get(ctx)
		if err != nil {
			s.logger.Warn("scheduler settings unavailable, using configured times", zap.Error(err))
		} else {
			if spec, ok := dailySpec(settings.MorningTime); ok {
				morning = spec
			}
			if spec, ok := dailySpec(settings.EveningTime); ok {
				evening = spec
			}
		}
	}

	jobs := []struct {
		name string
		spec string
	}{
		{JobMorning, morning},
		{JobEvening, evening},
		{JobWeekly, s.cfg.WeeklySpec},
	}
	for _, job := range jobs {
		name := job.name
		if _, err := s.cron.AddFunc(job.spec, func() { s.runScheduled(name) }); err != nil {
			return fmt.Errorf("schedule %s job %q: %w", name, job.spec, err)
		}
		s.logger.Info("job scheduled", zap.String("job", name), zap.String("spec", job.spec))
	}

	s.cron.Start()
	s.logger.Info("scheduler started", zap.String("location", s.cfg.Location.String()))
	return nil
}

// Stop halts the cron and waits for running jobs or ctx.
func (s *Scheduler) Stop(ctx context.Context) {
	stopCtx := s.cron.Stop()
	done := make(chan struct{})
	go func() {
		<-stopCtx.Done()
		s.running.Wait()
		close(done)
	}()
	select {
	case <-done:
	case <-ctx.Done():
	}
	s.logger.Info("scheduler stopped")
}

// Trigger runs a job on its own goroutine, outside the schedule.
func (s *Scheduler) Trigger(name string) error {
	if _, ok := s.jobs()[name]; !ok {
		return ErrUnknownJob
	}
	s.running.Add(1)
	go func() {
		defer s.running.Done()
		s.run(name)
	}()
	return nil
}

// Run executes a job synchronously.
func (s *Scheduler) Run(ctx context.Context, name string) (RunReport, error) {
	job, ok := s.jobs()[name]
	if !ok {
		return RunReport{}, ErrUnknownJob
	}
	return job(ctx)
}

func (s *Scheduler) jobs() map[string]func(context.Context) (RunReport, error) {
	return map[string]func(context.Context) (RunReport, error){
		JobMorning: s.RunMorningReminder,
		JobEvening: s.RunEveningCheckIn,
		JobWeekly:  s.RunWeeklyStrikeReport,
	}
}

func (s *Scheduler) runScheduled(name string) {
	s.running.Add(1)
	defer s.running.Done()
	s.run(name)
}

func (s *Scheduler) run(name string) {
	ctx, cancel := context.WithTimeout(context.Background(), s.cfg.RunTimeout)
	defer cancel()

	report, err := s.Run(ctx, name)
	if err != nil {
		s.logger.Error("job failed", zap.String("job", name), zap.Error(err))
		return
	}
	s.logger.Info("job finished",
		zap.String("job", report.Job),
		zap.Int("sent", report.Sent),
		zap.Int("failed", report.Failed),
		zap.Int("skipped", report.Skipped))
}

// RunMorningReminder sends every active user their pending tasks for today.
func (s *Scheduler) RunMorningReminder(ctx context.Context) (RunReport, error) {
	today := s.clock.Today()
	return s.eachActive(ctx, JobMorning, func(p domain.Profile) (string, error) {
		tasks, err := s.tasks.TasksForDate(ctx, p.UserID, today)
		if err != nil {
			return "", err
		}
		pending := tasks[:0]
		for _, t := range tasks {
			if !t.IsCompleted() {
				pending = append(pending, t)
			}
		}
		return replies.MorningReminder(p.UserName, pending), nil
	})
}

// RunEveningCheckIn sends every active user a summary of today's tasks.
func (s *Scheduler) RunEveningCheckIn(ctx context.Context) (RunReport, error) {
	today := s.clock.Today()
	return s.eachActive(ctx, JobEvening, func(p domain.Profile) (string, error) {
		tasks, err := s.tasks.TasksForDate(ctx, p.UserID, today)
		if err != nil {
			return "", err
		}
		return replies.EveningCheckIn(p.UserName, tasks), nil
	})
}

// RunWeeklyStrikeReport sends every active user their strike count.
func (s *Scheduler) RunWeeklyStrikeReport(ctx context.Context) (RunReport, error) {
	maxStrikes := 0
	if s.settings != nil {
		if settings, err := s.settings.Get(ctx); err == nil {
			maxStrikes = settings.MaxStrikes
		}
	}
	return s.eachActive(ctx, JobWeekly, func(p domain.Profile) (string, error) {
		return replies.WeeklyStrikeReport(p.Strikes, maxStrikes), nil
	})
}

// eachActive lists profiles once and sends one composed message per active user.
// A failure for one user is logged and does not stop the run.
func (s *Scheduler) eachActive(ctx context.Context, job string, compose func(domain.Profile) (string, error)) (RunReport, error) {
	report := RunReport{Job: job}
	profiles, err := s.users.List(ctx)
	if err != nil {
		return report, err
	}

	for _, p := range profiles {
		if err := ctx.Err(); err != nil {
			return report, err
		}
		if !p.IsActive() {
			report.Skipped++
			continue
		}
		if p.UserName == "" {
			p.UserName = domain.DefaultUserName
		}
		text, err := compose(p)
		if err == nil {
			err = s.sender.Send(ctx, p.UserID, text)
		}
		if err != nil {
			report.Failed++
			s.logger.Warn("job delivery failed", zap.String("job", job), zap.String("user", p.UserID), zap.Error(err))
			continue
		}
		report.Sent++
	}
	return report, nil
}

// dailySpec converts "HH:MM" into a daily cron spec.
func dailySpec(hhmm string) (string, bool) {
	h, m, ok := strings.Cut(strings.TrimSpace(hhmm), ":")
	if !ok {
		return "", false
	}
	hour, err := strconv.Atoi(h)
	if err != nil || hour < 0 || hour > 23 {
		return "", false
	}
	minute, err := strconv.Atoi(m)
	if err != nil || minute < 0 || minute > 59 {
		return "", false
	}
	return fmt.Sprintf("%d %d * * *", minute, hour), true
}
