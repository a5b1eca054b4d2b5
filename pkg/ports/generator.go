package ports

import (
	"context"

	"github.com/techiemaya-admin/lad-onboarding/pkg/domain"
)

// GenerateContext is the side-context bundle sent with every delegated reply.
type GenerateContext struct {
	SelectedPath       domain.Path         `json:"selectedPath"`
	SelectedCategory   string              `json:"selectedCategory,omitempty"`
	SelectedPlatforms  []string            `json:"selectedPlatforms"`
	PlatformsConfirmed bool                `json:"platformsConfirmed"`
	PlatformFeatures   map[string][]string `json:"platformFeatures"`
	CurrentPlatform    string              `json:"currentPlatform,omitempty"`
	CurrentFeature     string              `json:"currentFeature,omitempty"`
	WorkflowNodes      []domain.Node       `json:"workflowNodes"`
	CurrentFlowState   domain.FlowState    `json:"currentFlowState"`
	FastMode           bool                `json:"fastMode,omitempty"`
}

// GenerateRequest is a reply the controller could not interpret mechanically.
type GenerateRequest struct {
	Message             string          `json:"message"`
	ConversationHistory []domain.Turn   `json:"conversationHistory"`
	QuestionKey         string          `json:"questionKey,omitempty"`
	SelectedPath        domain.Path     `json:"selectedPath"`
	Extras              map[string]any  `json:"extras,omitempty"`
	Context             GenerateContext `json:"context"`
}

// GenerateResponse is the generation service answer. Every field but Text is optional.
type GenerateResponse struct {
	Text            string              `json:"text" mapstructure:"text"`
	Options         []string            `json:"options,omitempty" mapstructure:"options"`
	Status          domain.Status       `json:"status,omitempty" mapstructure:"status"`
	Missing         []string            `json:"missing,omitempty" mapstructure:"missing"`
	Workflow        *domain.Workflow    `json:"workflow,omitempty" mapstructure:"workflow"`
	WorkflowUpdates map[string][]string `json:"workflowUpdates,omitempty" mapstructure:"workflowUpdates"`
	CurrentState    domain.FlowState    `json:"currentState,omitempty" mapstructure:"currentState"`
	SearchResults   []map[string]any    `json:"searchResults,omitempty" mapstructure:"searchResults"`
}

// Generator is the external text-generation collaborator.
type Generator interface {
	Generate(ctx context.Context, req GenerateRequest) (*GenerateResponse, error)
}
