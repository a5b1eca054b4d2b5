package middleware

import (
	"context"
	"regexp"

	"github.com/techiemaya-admin/lad-onboarding/pkg/domain"
	"github.com/techiemaya-admin/lad-onboarding/pkg/ports"
)

const mask = "***"

type piiMiddleware struct {
	next     ports.SessionStore
	patterns []*regexp.Regexp
}

// NewPIIMiddleware creates a middleware that masks contact fields of matched existing
// leads before a session is stored. Field names (email, phone, linkedin_url, name,
// company and Extra keys) are matched against the patterns.
//
// The submitted batch itself is left intact because a pending checkpoint resubmits it.
func NewPIIMiddleware(patternStrings []string) Middleware {
	patterns := make([]*regexp.Regexp, len(patternStrings))
	for i, p := range patternStrings {
		patterns[i] = regexp.MustCompile(p)
	}
	return func(next ports.SessionStore) ports.SessionStore {
		return &piiMiddleware{next: next, patterns: patterns}
	}
}

func (m *piiMiddleware) Save(ctx context.Context, sessionID string, session *domain.Session) error {
	if session.Checkpoint == nil || len(session.Checkpoint.Duplicates) == 0 {
		return m.next.Save(ctx, sessionID, session)
	}

	// Mask a copy; the caller keeps using the original.
	cloned := *session
	cloned.Checkpoint = session.Checkpoint.Clone()
	for i := range cloned.Checkpoint.Duplicates {
		cloned.Checkpoint.Duplicates[i].ExistingLead = m.maskLead(cloned.Checkpoint.Duplicates[i].ExistingLead)
	}
	return m.next.Save(ctx, sessionID, &cloned)
}

func (m *piiMiddleware) Load(ctx context.Context, sessionID string) (*domain.Session, error) {
	return m.next.Load(ctx, sessionID)
}

func (m *piiMiddleware) Delete(ctx context.Context, sessionID string) error {
	return m.next.Delete(ctx, sessionID)
}

func (m *piiMiddleware) List(ctx context.Context) ([]string, error) {
	return m.next.List(ctx)
}

func (m *piiMiddleware) maskLead(l domain.Lead) domain.Lead {
	fields := []struct {
		name  string
		value *string
	}{
		{"name", &l.Name},
		{"email", &l.Email},
		{"phone", &l.Phone},
		{"linkedin_url", &l.LinkedInURL},
		{"company", &l.Company},
	}
	for _, f := range fields {
		if *f.value != "" && m.matches(f.name) {
			*f.value = mask
		}
	}
	if len(l.Extra) > 0 {
		extra := make(map[string]string, len(l.Extra))
		for k, v := range l.Extra {
			if m.matches(k) {
				v = mask
			}
			extra[k] = v
		}
		l.Extra = extra
	}
	return l
}

func (m *piiMiddleware) matches(key string) bool {
	for _, p := range m.patterns {
		if p.MatchString(key) {
			return true
		}
	}
	return false
}
