package runner

import (
	"bufio"
	"context"
	"encoding/json"
	"io"
	"os"
	"strings"

	"github.com/techiemaya-admin/lad-onboarding/pkg/domain"
)

// JSONHandler implements the IOHandler interface for JSON-Lines communication. Every
// assistant turn is written as one JSON object; each input line is either a JSON
// string, a JSON array of option labels, or raw text.
type JSONHandler struct {
	Reader  *bufio.Reader
	Encoder *json.Encoder
}

// NewJSONHandler creates a handler for JSON IO.
func NewJSONHandler(r io.Reader, w io.Writer) *JSONHandler {
	if r == nil {
		r = os.Stdin
	}
	if w == nil {
		w = os.Stdout
	}
	return &JSONHandler{
		Reader:  bufio.NewReader(r),
		Encoder: json.NewEncoder(w),
	}
}

func (h *JSONHandler) Output(_ context.Context, turns []domain.Turn) error {
	for _, turn := range turns {
		if turn.Role != domain.RoleAssistant {
			continue
		}
		if err := h.Encoder.Encode(turn); err != nil {
			return err
		}
	}
	return nil
}

func (h *JSONHandler) Input(_ context.Context) (any, error) {
	text, err := h.Reader.ReadString('\n')
	if err != nil && (err != io.EOF || strings.TrimSpace(text) == "") {
		return "", err
	}
	text = strings.TrimSpace(text)

	var list []string
	if err := json.Unmarshal([]byte(text), &list); err == nil {
		for i, v := range list {
			clean, err := SanitizeInput(v)
			if err != nil {
				return nil, err
			}
			list[i] = clean
		}
		return list, nil
	}

	var val string
	if err := json.Unmarshal([]byte(text), &val); err == nil {
		text = val
	}
	return SanitizeInput(text)
}

func (h *JSONHandler) SystemOutput(_ context.Context, msg string) error {
	return h.Encoder.Encode(map[string]string{"system": msg})
}
