package runner

import (
	"strconv"
	"strings"

	"github.com/techiemaya-admin/lad-onboarding/pkg/domain"
)

// ResolveChoice maps numbered answers ("2", "1,3") to the labels of the offered option
// set. Anything that is not a complete list of valid numbers is returned unchanged.
func ResolveChoice(input any, set *domain.OptionSet) any {
	text, ok := input.(string)
	if !ok || set == nil || len(set.Choices) == 0 {
		return input
	}
	fields := strings.FieldsFunc(text, func(r rune) bool { return r == ',' || r == ' ' })
	if len(fields) == 0 {
		return input
	}
	labels := make([]string, 0, len(fields))
	for _, f := range fields {
		n, err := strconv.Atoi(f)
		if err != nil || n < 1 || n > len(set.Choices) {
			return input
		}
		labels = append(labels, set.Choices[n-1])
	}
	if set.Kind == domain.OptionMultiSelect {
		return labels
	}
	if len(labels) != 1 {
		return input
	}
	return labels[0]
}
