package testutils

import (
	"context"
	"slices"
	"sync"
	"time"

	"github.com/techiemaya-admin/lad-onboarding/pkg/domain"
	"github.com/techiemaya-admin/lad-onboarding/pkg/ports"
)

// FixedClock returns a clock that always reports t.
func FixedClock(t time.Time) func() time.Time {
	return func() time.Time { return t }
}

// Generator is a scripted ports.Generator. Responses are served in order; the last one
// repeats. Err, when set, is returned instead.
type Generator struct {
	mu        sync.Mutex
	Responses []ports.GenerateResponse
	Err       error
	// Block makes Generate wait for ctx cancellation.
	Block    bool
	Requests []ports.GenerateRequest
}

// Generate implements ports.Generator.
func (g *Generator) Generate(ctx context.Context, req ports.GenerateRequest) (*ports.GenerateResponse, error) {
	g.mu.Lock()
	g.Requests = append(g.Requests, req)
	block, err := g.Block, g.Err
	var resp ports.GenerateResponse
	if n := len(g.Requests); len(g.Responses) > 0 {
		resp = g.Responses[min(n, len(g.Responses))-1]
	}
	g.mu.Unlock()

	if block {
		<-ctx.Done()
		return nil, ctx.Err()
	}
	if err != nil {
		return nil, err
	}
	return &resp, nil
}

// Calls returns the number of Generate calls.
func (g *Generator) Calls() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return len(g.Requests)
}

// LeadStore records every save. Existing maps lead email to the record already stored;
// a batch containing one of them is reported as duplicate unless a flag is set.
type LeadStore struct {
	mu        sync.Mutex
	Existing  map[string]domain.Duplicate
	Err       error
	Saves     []domain.SaveLeadsRequest
	Cancelled [][]string
}

// SaveLeads implements ports.LeadStore.
func (s *LeadStore) SaveLeads(_ context.Context, req domain.SaveLeadsRequest) (*domain.SaveLeadsResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.Saves = append(s.Saves, domain.SaveLeadsRequest{
		Leads:             slices.Clone(req.Leads),
		SkipDuplicates:    req.SkipDuplicates,
		IncludeDuplicates: req.IncludeDuplicates,
	})
	if s.Err != nil {
		return nil, s.Err
	}

	var dups []domain.Duplicate
	for _, l := range req.Leads {
		if d, ok := s.Existing[l.Email]; ok {
			dups = append(dups, d)
		}
	}
	data := domain.SaveLeadsData{Total: len(req.Leads), NewLeadsCount: len(req.Leads) - len(dups)}
	switch {
	case req.SkipDuplicates:
		data.Saved = data.NewLeadsCount
		data.SkippedDuplicates = len(dups)
	case req.IncludeDuplicates || len(dups) == 0:
		data.Saved = len(req.Leads)
	default:
		data.DuplicatesFound = true
		data.Duplicates = dups
	}
	return &domain.SaveLeadsResult{Success: true, Data: data}, nil
}

// CancelBookings implements ports.LeadStore.
func (s *LeadStore) CancelBookings(_ context.Context, leadIDs []string) (*domain.CancelBookingsResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.Cancelled = append(s.Cancelled, slices.Clone(leadIDs))
	n := 0
	for _, d := range s.Existing {
		if slices.Contains(leadIDs, d.ExistingLead.ID) {
			n += len(d.Bookings)
		}
	}
	return &domain.CancelBookingsResult{CancelledBookings: n}, nil
}

// Campaigns is a recording ports.CampaignService.
type Campaigns struct {
	mu        sync.Mutex
	CreateErr error
	StartErr  error
	Payloads  []domain.CampaignPayload
	Started   []string
}

// CreateCampaign implements ports.CampaignService.
func (c *Campaigns) CreateCampaign(_ context.Context, p domain.CampaignPayload) (*domain.CreateCampaignResult, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.Payloads = append(c.Payloads, p)
	if c.CreateErr != nil {
		return nil, c.CreateErr
	}
	return &domain.CreateCampaignResult{Success: true, Data: domain.CampaignRef{ID: "camp-1"}}, nil
}

// StartCampaign implements ports.CampaignService.
func (c *Campaigns) StartCampaign(_ context.Context, id string) (*domain.StartCampaignResult, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.Started = append(c.Started, id)
	if c.StartErr != nil {
		return nil, c.StartErr
	}
	return &domain.StartCampaignResult{Success: true}, nil
}
