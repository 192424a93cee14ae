package jobs

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

type fakeRecorder struct {
	started  []string
	finished map[string]string
}

func (f *fakeRecorder) Start(ctx context.Context, jobType string) (string, error) {
	f.started = append(f.started, jobType)
	return "run-1", nil
}

func (f *fakeRecorder) Finish(ctx context.Context, runID, status string, details any) error {
	f.finished[runID] = status
	return nil
}

func TestRunNowRecordsOutcome(t *testing.T) {
	tests := []struct {
		name       string
		run        func(context.Context) (any, error)
		wantStatus string
	}{
		{name: "completed", run: func(context.Context) (any, error) { return "ok", nil }, wantStatus: "completed"},
		{name: "failed", run: func(context.Context) (any, error) { return nil, errors.New("disk full") }, wantStatus: "failed"},
	}
	for _, tc := range tests {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			rec := &fakeRecorder{finished: map[string]string{}}
			svc := New(rec, time.UTC)
			_, _ = svc.RunNow(context.Background(), JobSalaryBackup, tc.run)
			if len(rec.started) != 1 || rec.finished["run-1"] != tc.wantStatus {
				t.Fatalf("unexpected recording: %+v", rec)
			}
		})
	}
}

func TestScheduleRejectsBadSpec(t *testing.T) {
	svc := New(nil, time.UTC)
	if err := svc.Schedule("every day", JobSalaryBackup, nil); err == nil {
		t.Fatal("expected invalid cron spec error")
	}
	if err := svc.Schedule("0 3 * * *", JobSalaryBackup, func(context.Context) (any, error) { return nil, nil }); err != nil {
		t.Fatalf("Schedule: %v", err)
	}
}

type staticExporter []byte

func (s staticExporter) ExportJSON(ctx context.Context) ([]byte, error) { return s, nil }

type upperSealer struct{}

func (upperSealer) Seal(name string, plain []byte) ([]byte, error) {
	return []byte(strings.ToUpper(string(plain))), nil
}
func (upperSealer) Configured() bool { return true }

func TestBackupWritesSnapshot(t *testing.T) {
	dir := t.TempDir()
	fixed := func() time.Time { return time.Date(2024, time.April, 2, 3, 0, 0, 0, time.UTC) }

	plain := &Backup{Exporter: staticExporter(`{"schemaVersion":1}`), Dir: dir, Now: fixed}
	if _, err := plain.Run(context.Background()); err != nil {
		t.Fatalf("Run: %v", err)
	}
	got, err := os.ReadFile(filepath.Join(dir, "salary-20240402T030000Z.json"))
	if err != nil || string(got) != `{"schemaVersion":1}` {
		t.Fatalf("unexpected backup %q, %v", got, err)
	}

	sealed := &Backup{Exporter: staticExporter(`{"a":1}`), Sealer: upperSealer{}, Dir: dir, Now: fixed}
	if _, err := sealed.Run(context.Background()); err != nil {
		t.Fatalf("Run sealed: %v", err)
	}
	got, err = os.ReadFile(filepath.Join(dir, "salary-20240402T030000Z.json.sealed"))
	if err != nil || string(got) != `{"A":1}` {
		t.Fatalf("unexpected sealed backup %q, %v", got, err)
	}
}
