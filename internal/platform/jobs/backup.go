package jobs

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"
)

type Exporter interface {
	ExportJSON(ctx context.Context) ([]byte, error)
}

type Sealer interface {
	Seal(name string, plain []byte) ([]byte, error)
	Configured() bool
}

// Backup writes salary snapshots into Dir using the export format.
type Backup struct {
	Exporter Exporter
	Sealer   Sealer
	Dir      string
	Now      func() time.Time
}

func (b *Backup) Run(ctx context.Context) (any, error) {
	doc, err := b.Exporter.ExportJSON(ctx)
	if err != nil {
		return nil, fmt.Errorf("export salary snapshot: %w", err)
	}

	now := time.Now
	if b.Now != nil {
		now = b.Now
	}
	name := "salary-" + now().UTC().Format("20060102T150405Z") + ".json"
	if b.Sealer != nil && b.Sealer.Configured() {
		name += ".sealed"
		if doc, err = b.Sealer.Seal(name, doc); err != nil {
			return nil, fmt.Errorf("seal backup: %w", err)
		}
	}

	if err := os.MkdirAll(b.Dir, 0o750); err != nil {
		return nil, err
	}
	path := filepath.Join(b.Dir, name)
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, doc, 0o600); err != nil {
		return nil, err
	}
	if err := os.Rename(tmp, path); err != nil {
		return nil, err
	}
	slog.Info("salary backup written", "path", path, "bytes", len(doc))
	return map[string]any{"path": path, "bytes": len(doc)}, nil
}
