package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"slices"
	"strings"

	"github.com/techiemaya-admin/lad-onboarding/pkg/domain"
	"github.com/techiemaya-admin/lad-onboarding/pkg/ports"
)

var _ ports.LeadStore = (*Store)(nil)

const (
	bookingScheduled = "scheduled"
	bookingCancelled = "cancelled"
)

// SaveLeads implements ports.LeadStore. A lead is a duplicate when its email (case
// insensitive), LinkedIn URL or phone matches a stored lead, in that order, or an earlier
// lead of the same batch. With IncludeDuplicates the matched record is updated with the
// submitted fields.
func (s *Store) SaveLeads(ctx context.Context, req domain.SaveLeadsRequest) (*domain.SaveLeadsResult, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	type match struct {
		lead    domain.Lead
		dup     *domain.Duplicate
		earlier int // index of the batch lead this one repeats, or -1
	}
	matches := make([]match, 0, len(req.Leads))
	seen := make(map[string]int)
	var dups []domain.Duplicate
	for i, l := range req.Leads {
		m := match{lead: l, earlier: -1}
		dup, err := findDuplicate(ctx, tx, l)
		if err != nil {
			return nil, err
		}
		if dup == nil {
			for _, k := range dedupKeys(l) {
				if j, ok := seen[k.key]; ok {
					m.earlier = j
					dup = &domain.Duplicate{ExistingLead: req.Leads[j], MatchedOn: k.field}
					break
				}
			}
		}
		for _, k := range dedupKeys(l) {
			if _, ok := seen[k.key]; !ok {
				seen[k.key] = i
			}
		}
		if dup != nil {
			dups = append(dups, *dup)
		}
		m.dup = dup
		matches = append(matches, m)
	}

	data := domain.SaveLeadsData{
		Total:         len(req.Leads),
		NewLeadsCount: len(req.Leads) - len(dups),
		LeadIDs:       []string{},
	}
	if len(dups) > 0 && !req.SkipDuplicates && !req.IncludeDuplicates {
		data.DuplicatesFound = true
		data.Duplicates = dups
		return &domain.SaveLeadsResult{Success: true, Data: data}, nil
	}

	now := s.timestamp()
	stored := make([]string, len(matches))
	for i, m := range matches {
		switch {
		case m.dup == nil:
			id := s.newID()
			if err := insertLead(ctx, tx, id, m.lead, now); err != nil {
				return nil, err
			}
			stored[i] = id
			data.LeadIDs = append(data.LeadIDs, id)
			data.Saved++
		case req.SkipDuplicates:
			data.SkippedDuplicates++
		default:
			id := m.dup.ExistingLead.ID
			if m.earlier >= 0 {
				id = stored[m.earlier]
			}
			if err := updateLead(ctx, tx, id, m.lead, now); err != nil {
				return nil, err
			}
			stored[i] = id
			if !slices.Contains(data.LeadIDs, id) {
				data.LeadIDs = append(data.LeadIDs, id)
			}
			data.Saved++
		}
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit leads: %w", err)
	}
	s.logger.InfoContext(ctx, "Leads saved", "saved", data.Saved, "skipped", data.SkippedDuplicates)
	return &domain.SaveLeadsResult{Success: true, Data: data}, nil
}

// CancelBookings implements ports.LeadStore.
func (s *Store) CancelBookings(ctx context.Context, leadIDs []string) (*domain.CancelBookingsResult, error) {
	if len(leadIDs) == 0 {
		return &domain.CancelBookingsResult{}, nil
	}
	args := make([]any, 0, len(leadIDs)+2)
	args = append(args, bookingCancelled, bookingScheduled)
	for _, id := range leadIDs {
		args = append(args, id)
	}
	query := fmt.Sprintf(
		"UPDATE bookings SET status = ? WHERE status = ? AND lead_id IN (%s)",
		strings.TrimSuffix(strings.Repeat("?,", len(leadIDs)), ","),
	)
	res, err := s.db.ExecContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to cancel bookings: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return nil, err
	}
	s.logger.InfoContext(ctx, "Bookings cancelled", "leads", len(leadIDs), "bookings", n)
	return &domain.CancelBookingsResult{CancelledBookings: int(n)}, nil
}

// ScheduleBooking attaches a scheduled follow-up to a stored lead.
func (s *Store) ScheduleBooking(ctx context.Context, leadID, scheduledAt string) (string, error) {
	id := s.newID()
	_, err := s.db.ExecContext(ctx,
		"INSERT INTO bookings (id, lead_id, scheduled_at, status) VALUES (?, ?, ?, ?)",
		id, leadID, scheduledAt, bookingScheduled,
	)
	if err != nil {
		return "", fmt.Errorf("failed to schedule booking: %w", err)
	}
	return id, nil
}

// Leads returns every stored lead ordered by creation.
func (s *Store) Leads(ctx context.Context) ([]domain.Lead, error) {
	rows, err := s.db.QueryContext(ctx,
		"SELECT id, name, email, phone, linkedin_url, company, extra FROM leads ORDER BY created_at, id")
	if err != nil {
		return nil, fmt.Errorf("failed to query leads: %w", err)
	}
	defer rows.Close()

	var leads []domain.Lead
	for rows.Next() {
		l, err := scanLead(rows)
		if err != nil {
			return nil, err
		}
		leads = append(leads, l)
	}
	return leads, rows.Err()
}

type dedupKey struct {
	field string
	key   string
}

// dedupKeys returns the identity keys of a lead in match order.
func dedupKeys(l domain.Lead) []dedupKey {
	var keys []dedupKey
	if v := strings.ToLower(strings.TrimSpace(l.Email)); v != "" {
		keys = append(keys, dedupKey{"email", "email:" + v})
	}
	if v := strings.TrimSpace(l.LinkedInURL); v != "" {
		keys = append(keys, dedupKey{"linkedin_url", "linkedin_url:" + v})
	}
	if v := strings.TrimSpace(l.Phone); v != "" {
		keys = append(keys, dedupKey{"phone", "phone:" + v})
	}
	return keys
}

type queryer interface {
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
}

type scanner interface {
	Scan(dest ...any) error
}

func findDuplicate(ctx context.Context, q queryer, l domain.Lead) (*domain.Duplicate, error) {
	probes := []struct {
		field string
		query string
		value string
	}{
		{"email", "lower(email) = lower(?) AND email != ''", l.Email},
		{"linkedin_url", "linkedin_url = ? AND linkedin_url != ''", l.LinkedInURL},
		{"phone", "phone = ? AND phone != ''", l.Phone},
	}
	for _, p := range probes {
		if strings.TrimSpace(p.value) == "" {
			continue
		}
		row := q.QueryRowContext(ctx,
			"SELECT id, name, email, phone, linkedin_url, company, extra FROM leads WHERE "+p.query+" LIMIT 1",
			strings.TrimSpace(p.value))
		existing, err := scanLead(row)
		if errors.Is(err, sql.ErrNoRows) {
			continue
		}
		if err != nil {
			return nil, err
		}
		bookings, err := scheduledBookings(ctx, q, existing.ID)
		if err != nil {
			return nil, err
		}
		return &domain.Duplicate{ExistingLead: existing, MatchedOn: p.field, Bookings: bookings}, nil
	}
	return nil, nil
}

func scheduledBookings(ctx context.Context, q queryer, leadID string) ([]domain.Booking, error) {
	rows, err := q.QueryContext(ctx,
		"SELECT id, lead_id, scheduled_at FROM bookings WHERE lead_id = ? AND status = ? ORDER BY scheduled_at",
		leadID, bookingScheduled)
	if err != nil {
		return nil, fmt.Errorf("failed to query bookings: %w", err)
	}
	defer rows.Close()

	var out []domain.Booking
	for rows.Next() {
		var b domain.Booking
		if err := rows.Scan(&b.ID, &b.LeadID, &b.ScheduledAt); err != nil {
			return nil, err
		}
		out = append(out, b)
	}
	return out, rows.Err()
}

func scanLead(row scanner) (domain.Lead, error) {
	var l domain.Lead
	var extra string
	if err := row.Scan(&l.ID, &l.Name, &l.Email, &l.Phone, &l.LinkedInURL, &l.Company, &extra); err != nil {
		return domain.Lead{}, err
	}
	if extra != "" && extra != "{}" {
		if err := json.Unmarshal([]byte(extra), &l.Extra); err != nil {
			return domain.Lead{}, fmt.Errorf("failed to decode lead extra fields: %w", err)
		}
	}
	return l, nil
}

func encodeExtra(extra map[string]string) (string, error) {
	if len(extra) == 0 {
		return "{}", nil
	}
	b, err := json.Marshal(extra)
	return string(b), err
}

func insertLead(ctx context.Context, tx *sql.Tx, id string, l domain.Lead, now string) error {
	extra, err := encodeExtra(l.Extra)
	if err != nil {
		return err
	}
	_, err = tx.ExecContext(ctx,
		`INSERT INTO leads (id, name, email, phone, linkedin_url, company, extra, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		id, l.Name, strings.TrimSpace(l.Email), strings.TrimSpace(l.Phone), strings.TrimSpace(l.LinkedInURL),
		l.Company, extra, now, now)
	if err != nil {
		return fmt.Errorf("failed to insert lead: %w", err)
	}
	return nil
}

// updateLead overwrites the stored fields that the submission fills in.
func updateLead(ctx context.Context, tx *sql.Tx, id string, l domain.Lead, now string) error {
	extra, err := encodeExtra(l.Extra)
	if err != nil {
		return err
	}
	_, err = tx.ExecContext(ctx,
		`UPDATE leads SET
		   name = CASE WHEN ? != '' THEN ? ELSE name END,
		   phone = CASE WHEN ? != '' THEN ? ELSE phone END,
		   linkedin_url = CASE WHEN ? != '' THEN ? ELSE linkedin_url END,
		   company = CASE WHEN ? != '' THEN ? ELSE company END,
		   extra = CASE WHEN ? != '{}' THEN ? ELSE extra END,
		   updated_at = ?
		 WHERE id = ?`,
		l.Name, l.Name, l.Phone, l.Phone, l.LinkedInURL, l.LinkedInURL, l.Company, l.Company,
		extra, extra, now, id)
	if err != nil {
		return fmt.Errorf("failed to update lead: %w", err)
	}
	return nil
}
