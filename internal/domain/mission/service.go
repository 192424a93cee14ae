package mission

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/shopspring/decimal"

	"crewdesk/internal/domain/pricing"
	"crewdesk/internal/domain/staffing"
)

const DefaultRemoteTimeout = 2 * time.Second

type StoreAPI interface {
	Upsert(ctx context.Context, eventID string, in PricingInput) (Pricing, error)
	GetByEvent(ctx context.Context, eventID string) (Pricing, error)
	DeleteByEvent(ctx context.Context, eventID string) error
}

// Directory resolves the event and technician a quote is for.
type Directory interface {
	GetEvent(ctx context.Context, id string) (staffing.Event, error)
	GetTechnician(ctx context.Context, id string) (staffing.Technician, error)
}

// RemoteCalculator is the authoritative server-side price function.
type RemoteCalculator interface {
	CalculateMissionPrice(ctx context.Context, eventID, technicianID string) (decimal.Decimal, error)
}

type Service struct {
	store   StoreAPI
	dir     Directory
	remote  RemoteCalculator
	timeout time.Duration
}

// NewService builds the pricing service. remote may be nil, in which case
// quotes always come from the local estimate.
func NewService(store StoreAPI, dir Directory, remote RemoteCalculator, timeout time.Duration) *Service {
	if timeout <= 0 {
		timeout = DefaultRemoteTimeout
	}
	return &Service{store: store, dir: dir, remote: remote, timeout: timeout}
}

func (s *Service) Get(ctx context.Context, eventID string) (Pricing, error) {
	return s.store.GetByEvent(ctx, eventID)
}

func (s *Service) Save(ctx context.Context, eventID string, in PricingInput) (Pricing, error) {
	if err := in.Validate(); err != nil {
		return Pricing{}, err
	}
	if _, err := s.dir.GetEvent(ctx, eventID); err != nil {
		return Pricing{}, err
	}
	return s.store.Upsert(ctx, eventID, in)
}

func (s *Service) Delete(ctx context.Context, eventID string) error {
	return s.store.DeleteByEvent(ctx, eventID)
}

// Quote computes the local estimate and cross-checks it against the remote
// function. The remote figure wins only when it answers within the timeout.
func (s *Service) Quote(ctx context.Context, eventID, technicianID string) (Quote, error) {
	event, err := s.dir.GetEvent(ctx, eventID)
	if err != nil {
		return Quote{}, err
	}
	tech, err := s.dir.GetTechnician(ctx, technicianID)
	if err != nil {
		return Quote{}, err
	}
	p, err := s.store.GetByEvent(ctx, eventID)
	if err != nil {
		return Quote{}, err
	}

	hours := pricing.DurationHours(event.StartDate, event.EndDate)
	local := pricing.QuoteEstimate(p.Terms(), hours, tech.SkillLevel)
	q := Quote{
		EventID:      eventID,
		TechnicianID: technicianID,
		Hours:        hours.Round(2),
		Amount:       local,
		Source:       SourceLocal,
		Local:        local,
	}
	if s.remote == nil {
		return q, nil
	}

	remote, err := s.callRemote(ctx, eventID, technicianID)
	if err != nil {
		slog.Warn("remote mission price unavailable", "eventId", eventID, "technicianId", technicianID, "err", err)
		q.RemoteError = err.Error()
		return q, nil
	}
	q.Remote = &remote
	q.Amount = remote
	q.Source = SourceRemote
	return q, nil
}

func (s *Service) callRemote(ctx context.Context, eventID, technicianID string) (decimal.Decimal, error) {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	type result struct {
		price decimal.Decimal
		err   error
	}
	done := make(chan result, 1)
	go func() {
		price, err := s.remote.CalculateMissionPrice(ctx, eventID, technicianID)
		done <- result{price, err}
	}()

	select {
	case r := <-done:
		return r.price, r.err
	case <-ctx.Done():
		if errors.Is(ctx.Err(), context.DeadlineExceeded) {
			return decimal.Zero, fmt.Errorf("timed out after %s", s.timeout)
		}
		return decimal.Zero, ctx.Err()
	}
}
