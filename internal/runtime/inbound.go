package runtime

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/techiemaya-admin/lad-onboarding/pkg/domain"
)

var numberPattern = regexp.MustCompile(`\d+`)

// positiveInt returns the first positive integer in text, or def.
func positiveInt(text string, def int) int {
	m := numberPattern.FindString(text)
	if m == "" {
		return def
	}
	n, err := strconv.Atoi(m)
	if err != nil || n <= 0 {
		return def
	}
	return n
}

// onInbound walks leads per day, campaign days and campaign name. Missing or unusable
// answers take the defaults.
func (e *Engine) onInbound(s *domain.Session, text string) error {
	switch s.State {
	case domain.StateInboundLeadsPerDay:
		s.Inbound.LeadsPerDay = positiveInt(text, defaultLeadsPerDay)
		s.Answers.Set(domain.KeyInboundLeadsPerDay, []string{strconv.Itoa(s.Inbound.LeadsPerDay)})
		s.State = domain.StateInboundCampaignDays
		e.ask(s, msgAskCampaignDays, domain.KeyInboundDays, domain.OptionSingleSelect, []string{"7", "14", "30"})
	case domain.StateInboundCampaignDays:
		s.Inbound.CampaignDays = positiveInt(text, defaultCampaignDays)
		s.Answers.Set(domain.KeyInboundDays, []string{strconv.Itoa(s.Inbound.CampaignDays)})
		s.State = domain.StateInboundCampaignName
		name := e.defaultCampaignName(s)
		e.ask(s, msgAskCampaignName, domain.KeyInboundName, domain.OptionSingleSelect, []string{name})
	case domain.StateInboundCampaignName:
		name := strings.TrimSpace(text)
		switch strings.ToLower(name) {
		case "", "skip", "default", "use default":
			name = e.defaultCampaignName(s)
		}
		s.Inbound.CampaignName = name
		s.Answers.Set(domain.KeyInboundName, []string{name})
		e.complete(s, "")
	}
	return nil
}

func (e *Engine) defaultCampaignName(s *domain.Session) string {
	labels := e.platformLabels(s.Platforms)
	if len(labels) == 0 {
		return "Outreach campaign"
	}
	return strings.Join(labels, " + ") + " outreach"
}

func (e *Engine) campaignName(s *domain.Session) string {
	if s.Inbound.CampaignName != "" {
		return s.Inbound.CampaignName
	}
	return e.defaultCampaignName(s)
}
