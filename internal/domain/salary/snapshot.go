package salary

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"math"

	"crewdesk/internal/domain/pricing"
)

// SchemaVersion is written into every exported snapshot.
const SchemaVersion = 1

// Snapshot is the portable backup document. Dates are RFC 3339 strings and
// ids and timestamps are kept verbatim.
type Snapshot struct {
	SchemaVersion int              `json:"schemaVersion"`
	Calculations  []Calculation    `json:"calculations"`
	Settings      pricing.Settings `json:"settings"`
	Periods       []Period         `json:"periods"`
}

func (s *Service) Export(ctx context.Context) (Snapshot, error) {
	calcs, err := s.repo.ListCalculations(ctx, Filter{})
	if err != nil {
		return Snapshot{}, err
	}
	settings, err := s.Settings(ctx)
	if err != nil {
		return Snapshot{}, err
	}
	periods, err := s.repo.ListPeriods(ctx)
	if err != nil {
		return Snapshot{}, err
	}
	if calcs == nil {
		calcs = []Calculation{}
	}
	if periods == nil {
		periods = []Period{}
	}
	return Snapshot{SchemaVersion: SchemaVersion, Calculations: calcs, Settings: settings, Periods: periods}, nil
}

func (s *Service) ExportJSON(ctx context.Context) ([]byte, error) {
	snap, err := s.Export(ctx)
	if err != nil {
		return nil, err
	}
	return json.MarshalIndent(snap, "", "  ")
}

// Import replaces calculations, settings and periods with the content of
// data. Older documents are migrated first; nothing is merged.
func (s *Service) Import(ctx context.Context, data []byte) (Snapshot, error) {
	snap, err := DecodeSnapshot(data)
	if err != nil {
		return Snapshot{}, err
	}
	state := State{Calculations: snap.Calculations, Settings: snap.Settings, Periods: snap.Periods}
	if err := s.repo.ReplaceAll(ctx, state); err != nil {
		return Snapshot{}, err
	}
	slog.Info("salary snapshot imported",
		"calculations", len(snap.Calculations), "periods", len(snap.Periods))
	return snap, nil
}

type document map[string]any

// migrations upgrades a document from the keyed version to the next one.
var migrations = map[int]func(document) (document, error){
	0: migrateV0,
}

// DecodeSnapshot parses data and migrates it to SchemaVersion.
func DecodeSnapshot(data []byte) (Snapshot, error) {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	var doc document
	if err := dec.Decode(&doc); err != nil || doc == nil {
		return Snapshot{}, ErrInvalidSnapshot
	}

	version, err := documentVersion(doc)
	if err != nil {
		return Snapshot{}, err
	}
	if version > SchemaVersion {
		return Snapshot{}, fmt.Errorf("%w: %d", ErrUnsupportedSchemaVersion, version)
	}
	for version < SchemaVersion {
		migrate, ok := migrations[version]
		if !ok {
			return Snapshot{}, fmt.Errorf("%w: %d", ErrUnsupportedSchemaVersion, version)
		}
		if doc, err = migrate(doc); err != nil {
			return Snapshot{}, err
		}
		version++
		doc["schemaVersion"] = version
	}

	raw, err := json.Marshal(doc)
	if err != nil {
		return Snapshot{}, err
	}
	var snap Snapshot
	if err := json.Unmarshal(raw, &snap); err != nil {
		return Snapshot{}, fmt.Errorf("%w: %v", ErrInvalidSnapshot, err)
	}
	if snap.Calculations == nil {
		snap.Calculations = []Calculation{}
	}
	if snap.Periods == nil {
		snap.Periods = []Period{}
	}
	if err := validateSnapshot(snap); err != nil {
		return Snapshot{}, err
	}
	return snap, nil
}

func validateSnapshot(snap Snapshot) error {
	for _, p := range snap.Periods {
		if !p.StartDate.Before(p.EndDate) {
			return fmt.Errorf("%w: period %q ends before it starts", ErrInvalidSnapshot, p.ID)
		}
	}
	for _, c := range snap.Calculations {
		if !ValidStatus(c.Status) {
			return fmt.Errorf("%w: calculation %q has status %q", ErrInvalidSnapshot, c.ID, c.Status)
		}
	}
	return nil
}

func documentVersion(doc document) (int, error) {
	raw, ok := doc["schemaVersion"]
	if !ok || raw == nil {
		return 0, nil
	}
	num, ok := raw.(json.Number)
	if !ok {
		return 0, ErrInvalidSnapshot
	}
	v, err := num.Int64()
	if err != nil || v < 0 {
		return 0, ErrInvalidSnapshot
	}
	return int(v), nil
}

// migrateV0 handles unversioned exports: calculations carry no periodId and
// hour totals may be fractional numbers.
func migrateV0(doc document) (document, error) {
	periods, _ := doc["periods"].([]any)
	calcs, _ := doc["calculations"].([]any)

	type bounds struct{ start, end string }
	byBounds := map[bounds]string{}
	for _, item := range periods {
		p, ok := item.(map[string]any)
		if !ok {
			return nil, ErrInvalidSnapshot
		}
		start, _ := p["startDate"].(string)
		end, _ := p["endDate"].(string)
		id, _ := p["id"].(string)
		if _, exists := byBounds[bounds{start, end}]; !exists {
			byBounds[bounds{start, end}] = id
		}
		if _, ok := p["isActive"]; !ok {
			p["isActive"] = false
		}
	}

	for _, item := range calcs {
		c, ok := item.(map[string]any)
		if !ok {
			return nil, ErrInvalidSnapshot
		}
		if _, ok := c["periodId"]; !ok {
			if period, ok := c["period"].(map[string]any); ok {
				start, _ := period["start"].(string)
				end, _ := period["end"].(string)
				if id, found := byBounds[bounds{start, end}]; found {
					c["periodId"] = id
				}
			}
		}
		if status, _ := c["status"].(string); status == "" {
			c["status"] = pricing.StatusDraft
		}
		c["totalHours"] = truncateNumber(c["totalHours"])
		if lines, ok := c["assignments"].([]any); ok {
			for _, l := range lines {
				if line, ok := l.(map[string]any); ok {
					line["hours"] = truncateNumber(line["hours"])
				}
			}
		}
	}

	if settings, ok := doc["settings"].(map[string]any); ok {
		if currency, _ := settings["currency"].(string); currency == "" {
			settings["currency"] = pricing.DefaultSettings().Currency
		}
	}
	return doc, nil
}

func truncateNumber(v any) any {
	num, ok := v.(json.Number)
	if !ok {
		return v
	}
	f, err := num.Float64()
	if err != nil {
		return v
	}
	return int64(math.Trunc(f))
}
