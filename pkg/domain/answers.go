package domain

import (
	"slices"
	"strings"
)

// Answer map keys that are not scoped to a feature.
const (
	KeyPlatforms          = "platforms"
	KeyInboundLeadsPerDay = "inbound.leads_per_day"
	KeyInboundDays        = "inbound.campaign_days"
	KeyInboundName        = "inbound.campaign_name"
)

// Utility question names used in feature-scoped keys.
const (
	UtilityDelay     = "delay"
	UtilityCondition = "condition"
	UtilityOnFalse   = "on_false"
	UtilityTemplate  = "template"
)

// AnswerMap is the flat question-key to answer store.
// Every answer is a list of strings, regardless of how it was captured.
type AnswerMap map[string][]string

// FeaturesKey returns the key holding the selected features of a platform.
func FeaturesKey(platform string) string {
	return platform + ".features"
}

// UtilityKey returns the key of one utility answer of a feature.
func UtilityKey(platform, feature, utility string) string {
	return platform + "." + feature + "." + utility
}

// SplitUtilityKey parses a "platform.feature.utility" key.
func SplitUtilityKey(key string) (platform, feature, utility string, ok bool) {
	parts := strings.Split(key, ".")
	if len(parts) != 3 {
		return "", "", "", false
	}
	return parts[0], parts[1], parts[2], true
}

// Get returns the answer for key (nil if missing).
func (m AnswerMap) Get(key string) []string {
	return m[key]
}

// First returns the first element of the answer for key, or "".
func (m AnswerMap) First(key string) string {
	if v := m[key]; len(v) > 0 {
		return v[0]
	}
	return ""
}

// Set stores a copy of value under key.
func (m AnswerMap) Set(key string, value []string) {
	m[key] = slices.Clone(value)
}

// Clone returns a deep copy.
func (m AnswerMap) Clone() AnswerMap {
	cp := make(AnswerMap, len(m))
	for k, v := range m {
		cp[k] = slices.Clone(v)
	}
	return cp
}

// Keys returns the keys in sorted order.
func (m AnswerMap) Keys() []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	slices.Sort(keys)
	return keys
}
