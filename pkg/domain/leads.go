package domain

import "slices"

// Lead is one prospect submitted for a campaign.
type Lead struct {
	ID          string            `json:"id,omitempty"`
	Name        string            `json:"name,omitempty"`
	Email       string            `json:"email,omitempty"`
	Phone       string            `json:"phone,omitempty"`
	LinkedInURL string            `json:"linkedin_url,omitempty"`
	Company     string            `json:"company,omitempty"`
	Extra       map[string]string `json:"extra,omitempty"`
}

// SaveLeadsRequest is the payload sent to the lead persistence collaborator.
//
// With neither flag set, a batch that overlaps existing records is not saved and the
// duplicates are reported. SkipDuplicates saves only the new leads. IncludeDuplicates
// saves the whole batch.
type SaveLeadsRequest struct {
	Leads             []Lead `json:"leads"`
	SkipDuplicates    bool   `json:"skipDuplicates"`
	IncludeDuplicates bool   `json:"includeDuplicates,omitempty"`
}

// Booking is a scheduled follow-up already attached to an existing lead.
type Booking struct {
	ID          string `json:"id"`
	LeadID      string `json:"lead_id"`
	ScheduledAt string `json:"scheduled_at,omitempty"`
}

// Duplicate describes a submitted lead that matched an existing record.
type Duplicate struct {
	ExistingLead Lead      `json:"existingLead"`
	MatchedOn    string    `json:"matchedOn"`
	Bookings     []Booking `json:"bookings,omitempty"`
}

// SaveLeadsData is the data section of a lead save response.
type SaveLeadsData struct {
	Saved             int         `json:"saved"`
	Total             int         `json:"total"`
	SkippedDuplicates int         `json:"skippedDuplicates"`
	LeadIDs           []string    `json:"leadIds"`
	DuplicatesFound   bool        `json:"duplicatesFound,omitempty"`
	Duplicates        []Duplicate `json:"duplicates,omitempty"`
	NewLeadsCount     int         `json:"newLeadsCount"`
}

// SaveLeadsResult is the lead persistence collaborator response.
type SaveLeadsResult struct {
	Success bool          `json:"success"`
	Data    SaveLeadsData `json:"data"`
}

// CancelBookingsResult is the booking cancellation collaborator response.
type CancelBookingsResult struct {
	CancelledBookings int `json:"cancelledBookings"`
}

// Resolution is one of the duplicate-lead checkpoint choices.
type Resolution string

const (
	ResolveSkipDuplicates Resolution = "skip_duplicates"
	ResolveIncludeAll     Resolution = "include_all"
	ResolveFollowUpNow    Resolution = "followup_now"
	ResolveConfirmCancel  Resolution = "confirm_cancel"
	ResolveBack           Resolution = "back"
)

// ResolutionMenu is the exact set of top-level checkpoint choices.
var ResolutionMenu = []Resolution{ResolveSkipDuplicates, ResolveIncludeAll, ResolveFollowUpNow}

// DuplicateCheckpoint holds a lead batch waiting for an explicit duplicate decision.
type DuplicateCheckpoint struct {
	Leads           []Lead      `json:"leads"`
	Duplicates      []Duplicate `json:"duplicates"`
	NewLeadsCount   int         `json:"new_leads_count"`
	AwaitingConfirm bool        `json:"awaiting_confirm,omitempty"`
	Resolved        bool        `json:"resolved,omitempty"`
	Resolution      Resolution  `json:"resolution,omitempty"`
	Resubmissions   int         `json:"resubmissions,omitempty"`
}

// Clone returns a deep copy.
func (c *DuplicateCheckpoint) Clone() *DuplicateCheckpoint {
	if c == nil {
		return nil
	}
	cp := *c
	cp.Leads = slices.Clone(c.Leads)
	cp.Duplicates = slices.Clone(c.Duplicates)
	return &cp
}

// BookedLeadIDs returns the IDs of duplicate leads that carry scheduled bookings.
func (c *DuplicateCheckpoint) BookedLeadIDs() []string {
	var ids []string
	for _, d := range c.Duplicates {
		if len(d.Bookings) > 0 && d.ExistingLead.ID != "" && !slices.Contains(ids, d.ExistingLead.ID) {
			ids = append(ids, d.ExistingLead.ID)
		}
	}
	return ids
}

// CampaignStep is one linearized workflow step in the campaign payload.
type CampaignStep struct {
	Order    int               `json:"order"`
	NodeID   string            `json:"node_id"`
	Kind     NodeKind          `json:"kind"`
	Platform string            `json:"platform,omitempty"`
	Config   map[string]string `json:"config,omitempty"`
	Branch   string            `json:"branch,omitempty"`
	Parent   string            `json:"parent,omitempty"`
}

// CampaignPayload is handed to the campaign collaborator on completion.
type CampaignPayload struct {
	Name              string         `json:"name"`
	LeadsPerDay       int            `json:"leads_per_day"`
	CampaignDays      int            `json:"campaign_days,omitempty"`
	ConnectionMessage string         `json:"connection_message,omitempty"`
	Platforms         []string       `json:"platforms"`
	Steps             []CampaignStep `json:"steps"`
	Workflow          Workflow       `json:"workflow"`
}

// CampaignRef identifies a created campaign.
type CampaignRef struct {
	ID string `json:"id"`
}

// CreateCampaignResult is the campaign collaborator response to a create call.
type CreateCampaignResult struct {
	Success bool        `json:"success"`
	Data    CampaignRef `json:"data"`
}

// StartCampaignResult is the campaign collaborator response to a start call.
type StartCampaignResult struct {
	Success bool `json:"success"`
}
