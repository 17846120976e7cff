package conversation

import (
	"encoding/json"
	"regexp"
	"strings"
)

// fallbackApology is returned when no usable text can be recovered at all.
const fallbackApology = "Sorry, I ran into a technical issue while processing that. Could you try again?"

// Extracted is the per-turn field extraction. Empty string means the field
// was not mentioned this turn.
type Extracted struct {
	Intent  string `json:"intent"`
	Name    string `json:"name"`
	Date    string `json:"date"`
	Time    string `json:"time"`
	Reason  string `json:"reason"`
	OldDate string `json:"old_date"`
	OldTime string `json:"old_time"`
}

// ExtractionResult is the structured form of one extractor turn.
type ExtractionResult struct {
	Extracted     Extracted `json:"extracted"`
	MissingFields []string  `json:"missing_fields"`
	Response      string    `json:"response"`
	// Recovered marks results salvaged from malformed output.
	Recovered bool `json:"-"`
}

var (
	lineCommentRE = regexp.MustCompile(`//[^\n]*`)
	responseRE    = regexp.MustCompile(`"response"\s*:\s*"([^"]+)"`)
)

// ParseExtraction turns the extractor's raw text into an ExtractionResult.
// It locates the JSON object substring, strips inline comments, and repairs a
// missing closing brace before parsing. On parse failure it salvages at least
// the response text; it never returns an error to the caller.
func ParseExtraction(raw string) ExtractionResult {
	start := strings.Index(raw, "{")
	if start < 0 {
		// No JSON at all: treat the whole output as the reply.
		return ExtractionResult{Response: raw, Recovered: true}
	}

	jsonStr := raw[start:]
	if end := strings.LastIndex(jsonStr, "}"); end >= 0 {
		jsonStr = jsonStr[:end+1]
	}
	jsonStr = lineCommentRE.ReplaceAllString(jsonStr, "")
	repaired := false
	if !strings.HasSuffix(strings.TrimRight(jsonStr, " \t\n"), "}") {
		jsonStr = strings.TrimRight(jsonStr, " \t\n") + "}"
		repaired = true
	}

	var res ExtractionResult
	if err := json.Unmarshal([]byte(jsonStr), &res); err == nil {
		if res.Response == "" {
			res.Response = raw
		}
		res.Recovered = repaired
		return res
	}

	if m := responseRE.FindStringSubmatch(raw); m != nil {
		return ExtractionResult{Response: m[1], Recovered: true}
	}
	return ExtractionResult{Response: fallbackApology, Recovered: true}
}
