// Package scheduler wraps gocron with a job registry for status reporting.
package scheduler

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/go-co-op/gocron/v2"
)

// JobStatus represents the status of a job.
type JobStatus string

const (
	JobStatusRunning   JobStatus = "running"
	JobStatusCompleted JobStatus = "completed"
	JobStatusFailed    JobStatus = "failed"
	JobStatusScheduled JobStatus = "scheduled"
)

// JobInfo contains information about a scheduled job.
type JobInfo struct {
	ID           string        `json:"id"`
	Name         string        `json:"name"`
	Description  string        `json:"description"`
	Status       JobStatus     `json:"status"`
	LastRun      time.Time     `json:"lastRun"`
	NextRun      time.Time     `json:"nextRun"`
	LastDuration time.Duration `json:"lastDuration"`
	Schedule     string        `json:"schedule"`
	Enabled      bool          `json:"enabled"`
	RunCount     int           `json:"runCount"`
	ErrorCount   int           `json:"errorCount"`
	LastError    string        `json:"lastError,omitempty"`
	Singleton    bool          `json:"singleton"`
	RunOnStart   bool          `json:"runOnStart,omitempty"`
	GocronJob    gocron.Job    `json:"-"`
}

// JobFunc represents a function that can be scheduled.
type JobFunc func(ctx context.Context) error

// Scheduler manages scheduled jobs.
type Scheduler struct {
	gocron gocron.Scheduler
	mu     sync.RWMutex
	jobs   map[string]*JobInfo
	ctx    context.Context
	cancel context.CancelFunc
}

// New creates a new scheduler.
func New() (*Scheduler, error) {
	gocronScheduler, err := gocron.NewScheduler(gocron.WithLogger(newCronLogger()))
	if err != nil {
		return nil, fmt.Errorf("failed to create gocron scheduler: %w", err)
	}

	ctx, cancel := context.WithCancel(context.Background())

	return &Scheduler{
		gocron: gocronScheduler,
		jobs:   make(map[string]*JobInfo),
		ctx:    ctx,
		cancel: cancel,
	}, nil
}

// Start starts the scheduler and triggers jobs marked to run on start.
func (s *Scheduler) Start() {
	log.Info("Starting job scheduler")
	s.gocron.Start()

	s.mu.Lock()
	for id, jobInfo := range s.jobs {
		if jobInfo.GocronJob == nil {
			log.Warn("Gocron job reference not found for job", "id", id)
			continue
		}
		if nextRun, err := jobInfo.GocronJob.NextRun(); err == nil {
			jobInfo.NextRun = nextRun
		}
	}
	runOnStart := make([]string, 0, len(s.jobs))
	for id, jobInfo := range s.jobs {
		if jobInfo.RunOnStart {
			runOnStart = append(runOnStart, id)
		}
	}
	s.mu.Unlock()

	for _, id := range runOnStart {
		log.Info("Running job immediately after start", "id", id)
		if err := s.RunJobNow(id); err != nil {
			log.Error("Failed to run job after start", "id", id, "error", err)
		}
	}
}

// Stop stops the scheduler and cancels the context passed to running jobs.
func (s *Scheduler) Stop() error {
	log.Info("Stopping job scheduler")
	s.cancel()
	return s.gocron.Shutdown()
}

// AddSingletonJob adds a job that can only run one instance at a time. Overlapping
// triggers are rescheduled instead of stacked.
func (s *Scheduler) AddSingletonJob(
	id, name, description, definitionString string,
	jobDef gocron.JobDefinition,
	jobFunc JobFunc,
	runOnStart bool,
) error {
	jobInfo := &JobInfo{
		ID:          id,
		Name:        name,
		Description: description,
		Status:      JobStatusScheduled,
		Schedule:    definitionString,
		Enabled:     true,
		Singleton:   true,
		RunOnStart:  runOnStart,
	}

	job, err := s.gocron.NewJob(
		jobDef,
		gocron.NewTask(s.wrapJobFunc(id, jobFunc)),
		gocron.WithSingletonMode(gocron.LimitModeReschedule),
	)
	if err != nil {
		return fmt.Errorf("failed to create job %s: %w", id, err)
	}
	jobInfo.GocronJob = job

	s.mu.Lock()
	s.jobs[id] = jobInfo
	s.mu.Unlock()

	log.Info("Added job to scheduler", "id", id, "name", name)
	return nil
}

// RunJobNow manually triggers a job to run immediately.
func (s *Scheduler) RunJobNow(id string) error {
	s.mu.RLock()
	jobInfo, exists := s.jobs[id]
	s.mu.RUnlock()
	if !exists {
		return fmt.Errorf("job %s not found", id)
	}
	if jobInfo.GocronJob == nil {
		return fmt.Errorf("gocron job reference not found for job %s", id)
	}

	log.Info("Manually triggering job", "id", id, "name", jobInfo.Name)
	if err := jobInfo.GocronJob.RunNow(); err != nil {
		return fmt.Errorf("failed to trigger job %s: %w", id, err)
	}
	return nil
}

// GetJobs returns a snapshot of all job information.
func (s *Scheduler) GetJobs() map[string]JobInfo {
	s.mu.RLock()
	defer s.mu.RUnlock()

	jobs := make(map[string]JobInfo, len(s.jobs))
	for id, jobInfo := range s.jobs {
		jobs[id] = *jobInfo
	}
	return jobs
}

// GetJob returns information about a specific job.
func (s *Scheduler) GetJob(id string) (JobInfo, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	job, exists := s.jobs[id]
	if !exists {
		return JobInfo{}, false
	}
	return *job, true
}

// EnableJob enables a job.
func (s *Scheduler) EnableJob(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	jobInfo, exists := s.jobs[id]
	if !exists {
		return fmt.Errorf("job %s not found", id)
	}

	jobInfo.Enabled = true
	if nextRun, err := jobInfo.GocronJob.NextRun(); err == nil {
		jobInfo.NextRun = nextRun
	}

	log.Info("Enabled job", "id", id, "name", jobInfo.Name)
	return nil
}

// DisableJob disables a job. The schedule keeps firing but the wrapped
// function returns immediately.
func (s *Scheduler) DisableJob(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	jobInfo, exists := s.jobs[id]
	if !exists {
		return fmt.Errorf("job %s not found", id)
	}

	jobInfo.Enabled = false
	log.Info("Disabled job", "id", id, "name", jobInfo.Name)
	return nil
}

// wrapJobFunc wraps a job function to track job statistics.
func (s *Scheduler) wrapJobFunc(id string, jobFunc JobFunc) func() {
	return func() {
		s.mu.Lock()
		jobInfo := s.jobs[id]
		if jobInfo == nil {
			s.mu.Unlock()
			log.Error("Job info not found", "id", id)
			return
		}
		if !jobInfo.Enabled {
			s.mu.Unlock()
			log.Debug("Job is disabled, skipping", "id", id)
			return
		}

		log.Info("Starting job", "id", id, "name", jobInfo.Name)
		start := time.Now()
		jobInfo.Status = JobStatusRunning
		jobInfo.LastRun = start
		if nextRun, err := jobInfo.GocronJob.NextRun(); err == nil {
			jobInfo.NextRun = nextRun
		}
		jobInfo.RunCount++
		s.mu.Unlock()

		err := jobFunc(s.ctx)

		s.mu.Lock()
		jobInfo.LastDuration = time.Since(start)
		if err != nil {
			log.Error("Job failed", "id", id, "name", jobInfo.Name, "error", err)
			jobInfo.Status = JobStatusFailed
			jobInfo.ErrorCount++
			jobInfo.LastError = err.Error()
		} else {
			log.Info("Job completed", "id", id, "name", jobInfo.Name, "duration", jobInfo.LastDuration)
			jobInfo.Status = JobStatusCompleted
			jobInfo.LastError = ""
		}
		s.mu.Unlock()
	}
}
