package client

import (
	"encoding/json"
	"fmt"
	"regexp"
	"strings"

	"github.com/menta2k/ux-analyzer/pkg/types"
)

var (
	reBlock    = regexp.MustCompile(`(?s)/\*.*?\*/`)
	reLine     = regexp.MustCompile(`(?m)^\s*//.*$`)
	reTrailing = regexp.MustCompile(`,(\s*[}\]])`)
)

// ParseTextReadout decodes a model answer into a TextReadout. A bare JSON
// array of spans is accepted as well as the {"spans": [...]} object.
func ParseTextReadout(raw string) (*types.TextReadout, error) {
	raw = SanitizeModelJSON(raw)
	if raw == "" {
		return nil, fmt.Errorf("empty model response")
	}

	var readout types.TextReadout
	if strings.HasPrefix(raw, "[") {
		if err := json.Unmarshal([]byte(raw), &readout.Spans); err != nil {
			return nil, fmt.Errorf("failed to parse span list: %w", err)
		}
		return &readout, nil
	}

	if !strings.HasPrefix(raw, "{") {
		return nil, fmt.Errorf("model returned non-JSON response")
	}
	if err := json.Unmarshal([]byte(raw), &readout); err != nil {
		return nil, fmt.Errorf("failed to parse model response: %w", err)
	}
	return &readout, nil
}

// SanitizeModelJSON removes code fences, comments and trailing commas and
// keeps the outermost JSON object or array
func SanitizeModelJSON(raw string) string {
	raw = strings.TrimSpace(raw)

	// Strip triple-backtick fences if present
	if strings.HasPrefix(raw, "```") {
		if i := strings.Index(raw, "\n"); i >= 0 {
			raw = raw[i+1:]
		}
		if j := strings.LastIndex(raw, "```"); j >= 0 {
			raw = raw[:j]
		}
	}
	raw = strings.TrimSpace(raw)
	raw = strings.Trim(raw, "`")

	raw = reBlock.ReplaceAllString(raw, "")
	// whole-line comments only
	raw = reLine.ReplaceAllString(raw, "")
	raw = reTrailing.ReplaceAllString(raw, "$1")

	first, last := "{", "}"
	if obj, arr := strings.Index(raw, "{"), strings.Index(raw, "["); arr >= 0 && (obj < 0 || arr < obj) {
		first, last = "[", "]"
	}
	if start := strings.Index(raw, first); start >= 0 {
		if end := strings.LastIndex(raw, last); end > start {
			raw = raw[start : end+1]
		}
	}
	return strings.TrimSpace(raw)
}
