package client

import (
	"encoding/json"
	"regexp"
	"strings"

	"github.com/menta2k/focus-overlay/pkg/types"
)

var (
	reBlockComment  = regexp.MustCompile(`(?s)/\*.*?\*/`)
	reLineComment   = regexp.MustCompile(`(?m)^\s*//.*$`)
	reInlineComment = regexp.MustCompile(`(?m)//.*$`)
	reTrailingComma = regexp.MustCompile(`,(\s*[}\]])`)
)

// ParseDetections turns a raw model reply into a detection result. Replies that
// cannot be parsed yield an empty result rather than an error so a chatty model
// only costs one cycle without annotations.
func ParseDetections(raw string) *types.DetectionResult {
	raw = SanitizeModelJSON(raw)
	result := &types.DetectionResult{Objects: []types.DetectedObject{}}

	switch {
	case strings.HasPrefix(raw, "["):
		var objects []types.DetectedObject
		if err := json.Unmarshal([]byte(raw), &objects); err == nil {
			result.Objects = objects
		}
	case strings.HasPrefix(raw, "{"):
		var parsed types.DetectionResult
		if err := json.Unmarshal([]byte(raw), &parsed); err == nil && parsed.Objects != nil {
			result.Objects = parsed.Objects
		}
	}
	return result
}

// SanitizeModelJSON removes code fences, comments and trailing commas, then
// keeps the outermost object or array
func SanitizeModelJSON(raw string) string {
	raw = strings.TrimSpace(raw)

	if strings.HasPrefix(raw, "```") {
		if i := strings.Index(raw, "\n"); i >= 0 {
			raw = raw[i+1:]
		}
		if j := strings.LastIndex(raw, "```"); j >= 0 {
			raw = raw[:j]
		}
	}
	raw = strings.Trim(strings.TrimSpace(raw), "`")

	raw = reBlockComment.ReplaceAllString(raw, "")
	raw = reLineComment.ReplaceAllString(raw, "")
	raw = reInlineComment.ReplaceAllString(raw, "")
	raw = reTrailingComma.ReplaceAllString(raw, "$1")

	obj := strings.Index(raw, "{")
	arr := strings.Index(raw, "[")
	start, closing := obj, "}"
	if arr >= 0 && (obj < 0 || arr < obj) {
		start, closing = arr, "]"
	}
	if start >= 0 {
		if end := strings.LastIndex(raw, closing); end > start {
			raw = raw[start : end+1]
		}
	}
	return strings.TrimSpace(raw)
}
