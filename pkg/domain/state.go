package domain

import (
	"slices"
	"time"
)

// FlowState is the single active stage of the onboarding conversation.
type FlowState string

const (
	StateInitial                FlowState = "initial"
	StatePlatformSelection      FlowState = "platform_selection"
	StatePlatformConfirmation   FlowState = "platform_confirmation"
	StatePlatformFeatures       FlowState = "platform_features"
	StateFeatureUtilities       FlowState = "feature_utilities"
	StateRequirementsCollection FlowState = "requirements_collection"
	StateInboundCampaignName    FlowState = "inbound_campaign_name"
	StateInboundCampaignDays    FlowState = "inbound_campaign_days"
	StateInboundLeadsPerDay     FlowState = "inbound_leads_per_day"
	StateProfilingMode          FlowState = "profiling_mode"
	StateComplete               FlowState = "complete"
)

// FlowStates lists every valid state in declaration order.
var FlowStates = []FlowState{
	StateInitial,
	StatePlatformSelection,
	StatePlatformConfirmation,
	StatePlatformFeatures,
	StateFeatureUtilities,
	StateRequirementsCollection,
	StateInboundCampaignName,
	StateInboundCampaignDays,
	StateInboundLeadsPerDay,
	StateProfilingMode,
	StateComplete,
}

// Valid reports whether s belongs to the closed enumeration.
func (s FlowState) Valid() bool {
	return slices.Contains(FlowStates, s)
}

// Path is the top-level onboarding path chosen in the initial state.
type Path string

const (
	PathNone           Path = ""
	PathLeadGeneration Path = "lead_generation"
	PathAutomation     Path = "automation"
	PathProfiling      Path = "profiling"
)

// DataMode selects how leads enter the campaign.
type DataMode string

const (
	DataModeOutbound DataMode = "outbound"
	DataModeInbound  DataMode = "inbound"
)

// InboundIntake holds the answers of the inbound sub-sequence.
type InboundIntake struct {
	LeadsPerDay  int    `json:"leads_per_day,omitempty"`
	CampaignDays int    `json:"campaign_days,omitempty"`
	CampaignName string `json:"campaign_name,omitempty"`
}

// Session is the runtime snapshot of one onboarding conversation.
// It has a single owner: the controller mutates it one reply at a time.
type Session struct {
	ID        string    `json:"id"`
	State     FlowState `json:"state"`
	Path      Path      `json:"path,omitempty"`
	Category  string    `json:"category,omitempty"`
	DataMode  DataMode  `json:"data_mode"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	// Turns is append-only.
	Turns []Turn `json:"turns"`

	// Platforms is the ordered selection set.
	Platforms          []string `json:"platforms"`
	PlatformsConfirmed bool     `json:"platforms_confirmed"`

	// Features maps platform to its ordered selected features.
	Features map[string][]string `json:"features"`

	PlatformCursor int `json:"platform_cursor"`
	FeatureCursor  int `json:"feature_cursor"`

	// Utilities holds the answers of the feature currently being configured.
	Utilities map[string][]string `json:"utilities"`

	Answers  AnswerMap `json:"answers"`
	Workflow Workflow  `json:"workflow"`

	Inbound    InboundIntake        `json:"inbound"`
	Checkpoint *DuplicateCheckpoint `json:"checkpoint,omitempty"`

	// Warned records dependency warnings already shown, keyed "platform:action>required".
	Warned []string `json:"warned,omitempty"`

	CampaignID string `json:"campaign_id,omitempty"`
	Launched   bool   `json:"launched,omitempty"`
	// LaunchFailed closes the launch path; the Campaigns view takes over.
	LaunchFailed bool `json:"launch_failed,omitempty"`

	// Sealed carries the encrypted session when a store keeps only an envelope.
	Sealed string `json:"sealed,omitempty"`
}

// NewSession creates a clean session in the initial state.
func NewSession(id string, now time.Time) *Session {
	return &Session{
		ID:        id,
		State:     StateInitial,
		DataMode:  DataModeOutbound,
		CreatedAt: now,
		UpdatedAt: now,
		Turns:     []Turn{},
		Platforms: []string{},
		Features:  make(map[string][]string),
		Utilities: make(map[string][]string),
		Answers:   make(AnswerMap),
		Workflow:  Workflow{},
	}
}

// CurrentPlatform returns the platform under the cursor, or "" past the end.
func (s *Session) CurrentPlatform() string {
	if s.PlatformCursor < 0 || s.PlatformCursor >= len(s.Platforms) {
		return ""
	}
	return s.Platforms[s.PlatformCursor]
}

// CurrentFeature returns the feature under the cursor for the current platform.
func (s *Session) CurrentFeature() string {
	features := s.Features[s.CurrentPlatform()]
	if s.FeatureCursor < 0 || s.FeatureCursor >= len(features) {
		return ""
	}
	return features[s.FeatureCursor]
}

// AddPlatform inserts a platform into the selection set. Duplicates are ignored.
// Returns true if the set changed.
func (s *Session) AddPlatform(platform string) bool {
	if platform == "" || slices.Contains(s.Platforms, platform) {
		return false
	}
	s.Platforms = append(s.Platforms, platform)
	return true
}

// Append adds a turn to the conversation.
func (s *Session) Append(t Turn) {
	s.Turns = append(s.Turns, t)
}

// LastTurn returns the most recent turn, or nil.
func (s *Session) LastTurn() *Turn {
	if len(s.Turns) == 0 {
		return nil
	}
	return &s.Turns[len(s.Turns)-1]
}

// HasWarned reports whether a one-time warning key was already emitted.
func (s *Session) HasWarned(key string) bool {
	return slices.Contains(s.Warned, key)
}

// Snapshot returns a deep copy of the session.
// Handlers work on snapshots so a failed step never leaks partial mutations.
func (s *Session) Snapshot() *Session {
	if s == nil {
		return nil
	}
	cp := *s
	cp.Turns = slices.Clone(s.Turns)
	cp.Platforms = slices.Clone(s.Platforms)
	cp.Warned = slices.Clone(s.Warned)

	cp.Features = make(map[string][]string, len(s.Features))
	for k, v := range s.Features {
		cp.Features[k] = slices.Clone(v)
	}
	cp.Utilities = make(map[string][]string, len(s.Utilities))
	for k, v := range s.Utilities {
		cp.Utilities[k] = slices.Clone(v)
	}
	cp.Answers = s.Answers.Clone()
	cp.Workflow = s.Workflow.Clone()
	if s.Checkpoint != nil {
		cp.Checkpoint = s.Checkpoint.Clone()
	}
	return &cp
}
