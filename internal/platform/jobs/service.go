package jobs

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/robfig/cron/v3"

	"crewdesk/internal/platform/querier"
)

const JobSalaryBackup = "salary_backup"

// RunRecorder persists the outcome of each job run.
type RunRecorder interface {
	Start(ctx context.Context, jobType string) (string, error)
	Finish(ctx context.Context, runID, status string, details any) error
}

type Service struct {
	// Observe, when set, is told the final status of every run.
	Observe func(jobType, status string)

	recorder RunRecorder
	cron     *cron.Cron
	queue    chan job
}

type job struct {
	Type string
	Run  func(context.Context) (any, error)
}

func New(recorder RunRecorder, loc *time.Location) *Service {
	if loc == nil {
		loc = time.UTC
	}
	return &Service{
		recorder: recorder,
		cron:     cron.New(cron.WithLocation(loc)),
		queue:    make(chan job, 32),
	}
}

// Schedule enqueues run on every tick of the standard five-field cron spec.
func (s *Service) Schedule(spec, jobType string, run func(context.Context) (any, error)) error {
	if _, err := s.cron.AddFunc(spec, func() { s.Enqueue(jobType, run) }); err != nil {
		return fmt.Errorf("schedule %s %q: %w", jobType, spec, err)
	}
	return nil
}

func (s *Service) Start(ctx context.Context) {
	go s.worker(ctx)
	s.cron.Start()
}

// Stop halts the scheduler and waits for a running tick to return.
func (s *Service) Stop() {
	<-s.cron.Stop().Done()
}

func (s *Service) Enqueue(jobType string, run func(context.Context) (any, error)) {
	select {
	case s.queue <- job{Type: jobType, Run: run}:
	default:
		slog.Warn("job queue full", "jobType", jobType)
	}
}

func (s *Service) RunNow(ctx context.Context, jobType string, run func(context.Context) (any, error)) (any, error) {
	return s.runJob(ctx, job{Type: jobType, Run: run})
}

func (s *Service) worker(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case j := <-s.queue:
			if _, err := s.runJob(ctx, j); err != nil {
				slog.Warn("job run failed", "jobType", j.Type, "err", err)
			}
		}
	}
}

func (s *Service) runJob(ctx context.Context, j job) (any, error) {
	runID := ""
	if s.recorder != nil {
		id, err := s.recorder.Start(ctx, j.Type)
		if err != nil {
			slog.Warn("job run insert failed", "jobType", j.Type, "err", err)
		}
		runID = id
	}

	details, err := j.Run(ctx)
	status := "completed"
	if err != nil {
		status = "failed"
		details = map[string]any{"error": err.Error(), "details": details}
	}
	if s.Observe != nil {
		s.Observe(j.Type, status)
	}
	if runID != "" {
		if updErr := s.recorder.Finish(ctx, runID, status, details); updErr != nil {
			slog.Warn("job run update failed", "jobType", j.Type, "err", updErr)
		}
	}
	return details, err
}

// Store records runs in the job_runs table.
type Store struct {
	DB querier.Querier
}

func NewStore(db querier.Querier) *Store {
	return &Store{DB: db}
}

func (s *Store) Start(ctx context.Context, jobType string) (string, error) {
	var runID string
	err := s.DB.QueryRow(ctx, `
    INSERT INTO job_runs (job_type, status)
    VALUES ($1, 'running')
    RETURNING id
  `, jobType).Scan(&runID)
	return runID, err
}

func (s *Store) Finish(ctx context.Context, runID, status string, details any) error {
	detailsJSON, err := json.Marshal(details)
	if err != nil {
		slog.Warn("job details marshal failed", "err", err)
		detailsJSON = []byte("{}")
	}
	_, err = s.DB.Exec(ctx, `
    UPDATE job_runs
    SET status = $1, details_json = $2, completed_at = now()
    WHERE id = $3
  `, status, detailsJSON, runID)
	return err
}
