package tui

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/techiemaya-admin/lad-onboarding/pkg/domain"
)

func TestFormatOptions(t *testing.T) {
	assert.Empty(t, FormatOptions(nil))

	single := FormatOptions(&domain.OptionSet{Kind: domain.OptionSingleSelect, Choices: []string{"Yes", "No"}})
	assert.Contains(t, single, " 1. Yes\n")
	assert.Contains(t, single, " 2. No\n")

	multi := FormatOptions(&domain.OptionSet{
		Kind:       domain.OptionMultiSelect,
		Choices:    []string{"Visit profile", "Send invite"},
		Prechecked: []string{"Send invite"},
	})
	assert.Contains(t, multi, "[ ] Visit profile")
	assert.Contains(t, multi, "[x] Send invite")
	assert.Contains(t, multi, "commas")
}
