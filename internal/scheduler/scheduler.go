// Package scheduler runs background maintenance and reminder jobs on a
// process-wide gocron scheduler.
package scheduler

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/go-co-op/gocron/v2"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
)

const defaultJobTimeout = time.Minute

var (
	service     *Service
	serviceOnce sync.Once
	serviceErr  error
)

var (
	ErrNotInitialized = errors.New("scheduler not initialized")
	ErrEmptyJobName   = errors.New("job name is required")
	ErrEmptyCronExpr  = errors.New("cron expression is required")
	ErrNilJobFunc     = errors.New("job function is required")
)

// Job is a cron task. Each run gets its own context bounded by Timeout
// (default one minute) and carrying a job-scoped logger. Runs of the same
// job never overlap.
type Job struct {
	Name    string
	Cron    string
	Timeout time.Duration
	Run     func(ctx context.Context) error
}

func (j Job) validate() error {
	if strings.TrimSpace(j.Name) == "" {
		return ErrEmptyJobName
	}
	if strings.TrimSpace(j.Cron) == "" {
		return ErrEmptyCronExpr
	}
	if j.Run == nil {
		return ErrNilJobFunc
	}
	return nil
}

type Service struct {
	scheduler gocron.Scheduler
	stopOnce  sync.Once
	stopErr   error
}

// Init creates the process-wide scheduler used by Register, Start and Stop.
func Init() error {
	serviceOnce.Do(func() {
		service, serviceErr = NewService()
		if serviceErr == nil {
			log.Info().Msg("Scheduler initialized")
		}
	})
	return serviceErr
}

// NewService builds a standalone scheduler that logs job panics.
func NewService() (*Service, error) {
	sched, err := gocron.NewScheduler(
		gocron.WithLocation(time.UTC),
		gocron.WithGlobalJobOptions(
			gocron.WithEventListeners(
				gocron.AfterJobRunsWithPanic(func(jobID uuid.UUID, jobName string, recoverData any) {
					log.Error().
						Str("job_id", jobID.String()).
						Str("job_name", jobName).
						Interface("panic", recoverData).
						Msg("Scheduler job panicked")
				}),
			),
		),
	)
	if err != nil {
		return nil, fmt.Errorf("create scheduler: %w", err)
	}
	return &Service{scheduler: sched}, nil
}

func instance() (*Service, error) {
	if service == nil && serviceErr == nil {
		return nil, ErrNotInitialized
	}
	return service, serviceErr
}

func Start() error {
	svc, err := instance()
	if err != nil {
		return err
	}
	svc.Start()
	return nil
}

func Stop() error {
	svc, err := instance()
	if err != nil {
		return err
	}
	return svc.Stop()
}

// Register adds job to the process-wide scheduler.
func Register(job Job, opts ...gocron.JobOption) (gocron.Job, error) {
	svc, err := instance()
	if err != nil {
		return nil, err
	}
	return svc.Register(job, opts...)
}

func (s *Service) Jobs() []gocron.Job {
	if s == nil {
		return nil
	}
	return s.scheduler.Jobs()
}

func (s *Service) Start() {
	if s == nil {
		log.Error().Msg("Scheduler start requested before initialization")
		return
	}
	log.Info().Int("jobs", len(s.scheduler.Jobs())).Msg("Scheduler starting")
	s.scheduler.Start()
}

// Stop shuts the scheduler down, waiting for running jobs. Repeated calls
// return the first result.
func (s *Service) Stop() error {
	if s == nil {
		return ErrNotInitialized
	}
	s.stopOnce.Do(func() {
		log.Info().Msg("Scheduler stopping")
		s.stopErr = s.scheduler.Shutdown()
	})
	return s.stopErr
}

func (s *Service) Register(job Job, opts ...gocron.JobOption) (gocron.Job, error) {
	if s == nil {
		return nil, ErrNotInitialized
	}
	if err := job.validate(); err != nil {
		return nil, err
	}
	timeout := job.Timeout
	if timeout <= 0 {
		timeout = defaultJobTimeout
	}

	jobLogger := log.With().
		Str("component", job.Name+"_job").
		Str("job_name", job.Name).
		Str("cron", job.Cron).
		Logger()

	task := func() {
		ctx, cancel := context.WithTimeout(context.Background(), timeout)
		defer cancel()
		ctx = jobLogger.WithContext(ctx)

		started := time.Now()
		if err := job.Run(ctx); err != nil {
			jobLogger.Error().Err(err).Dur("duration", time.Since(started)).Msg("Scheduler job failed")
			return
		}
		jobLogger.Debug().Dur("duration", time.Since(started)).Msg("Scheduler job completed")
	}

	jobOpts := append([]gocron.JobOption{
		gocron.WithName(job.Name),
		gocron.WithSingletonMode(gocron.LimitModeReschedule),
	}, opts...)
	registered, err := s.scheduler.NewJob(
		gocron.CronJob(job.Cron, false),
		gocron.NewTask(task),
		jobOpts...,
	)
	if err != nil {
		jobLogger.Error().Err(err).Msg("Failed to register scheduler job")
		return nil, fmt.Errorf("register %s: %w", job.Name, err)
	}
	jobLogger.Info().Msg("Scheduler job registered")
	return registered, nil
}
