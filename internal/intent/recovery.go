package intent

import (
	"encoding/json"
	"regexp"
	"strconv"
	"strings"
)

// Recovery strategy labels, reported for observability.
const (
	StrategyDirect    = "direct"
	StrategyCodeBlock = "code_block"
	StrategyEmbedded  = "embedded"
	StrategyFieldScan = "field_scan"
	StrategyNone      = "none"
)

var (
	codeBlockRE = regexp.MustCompile("(?is)```(?:json)?\\s*(\\{.*?\\})\\s*```")
	// Brace-delimited substrings with one level of nesting, non-greedy
	// inner runs combined with a greedy scan over candidates.
	embeddedJSONRE = regexp.MustCompile(`\{[^{}]*(?:\{[^{}]*\}[^{}]*)*\}`)

	trailingCommaRE = regexp.MustCompile(`,\s*([}\]])`)
	bareKeyRE       = regexp.MustCompile(`(\w+):\s*`)
	quotedKeyRE     = regexp.MustCompile(`"(\w+)"\s*:\s*`)

	fieldScanREs = map[string]*regexp.Regexp{
		"intent":            regexp.MustCompile(`(?i)"?intent"?\s*:\s*"?([^",}]+)"?`),
		"city":              regexp.MustCompile(`(?i)"?city"?\s*:\s*"?([^",}]+)"?`),
		"time_preference":   regexp.MustCompile(`(?i)"?time_preference"?\s*:\s*"?([^",}]+)"?`),
		"center_preference": regexp.MustCompile(`(?i)"?center_preference"?\s*:\s*"?([^",}]+)"?`),
	}
	confidenceRE = regexp.MustCompile(`(?i)"?confidence"?\s*:\s*([0-9.]+)`)
)

// Recover turns an arbitrary model response (nominally JSON) into a field
// map, trying four escalating repair strategies in order. It returns nil and
// StrategyNone when no structure with at least an intent field is found. It
// never panics past this boundary.
func Recover(response string) (map[string]any, string) {
	if strings.TrimSpace(response) == "" {
		return nil, StrategyNone
	}

	// Strategy 1: the whole response is a JSON object.
	if fields := parseObject(strings.TrimSpace(response)); fields != nil {
		return fields, StrategyDirect
	}

	// Strategy 2: a fenced code block wraps the object.
	if m := codeBlockRE.FindStringSubmatch(response); len(m) == 2 {
		if fields := parseObject(m[1]); fields != nil {
			return fields, StrategyCodeBlock
		}
	}

	// Strategy 3: brace-delimited candidates, textually repaired.
	for _, candidate := range embeddedJSONRE.FindAllString(response, -1) {
		cleaned := strings.TrimSpace(candidate)
		cleaned = trailingCommaRE.ReplaceAllString(cleaned, "${1}")
		cleaned = bareKeyRE.ReplaceAllString(cleaned, `"${1}": `)
		cleaned = quotedKeyRE.ReplaceAllString(cleaned, `"${1}": `)
		if fields := parseObject(cleaned); fields != nil {
			return fields, StrategyEmbedded
		}
	}

	// Strategy 4: independent field-by-field extraction.
	if fields := scanFields(response); fields != nil {
		return fields, StrategyFieldScan
	}

	return nil, StrategyNone
}

func parseObject(s string) map[string]any {
	var fields map[string]any
	if err := json.Unmarshal([]byte(s), &fields); err != nil {
		return nil
	}
	return fields
}

func scanFields(response string) map[string]any {
	extracted := make(map[string]any)

	for name, re := range fieldScanREs {
		m := re.FindStringSubmatch(response)
		if len(m) != 2 {
			continue
		}
		value := strings.Trim(strings.TrimSpace(m[1]), `"`)
		if name != "intent" && isNullish(value) {
			continue
		}
		extracted[name] = value
	}

	if m := confidenceRE.FindStringSubmatch(response); len(m) == 2 {
		confidence, err := strconv.ParseFloat(m[1], 64)
		if err != nil {
			confidence = 0.5
		}
		extracted["confidence"] = confidence
	}

	// An intent field is the minimum viable structure.
	if _, ok := extracted["intent"]; !ok {
		return nil
	}
	return extracted
}

func isNullish(value string) bool {
	switch strings.ToLower(value) {
	case "null", "none", "":
		return true
	}
	return false
}
