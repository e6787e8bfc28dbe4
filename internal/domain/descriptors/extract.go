// Package descriptors turns the free-text answer of an LLM task into clip
// descriptors. A strict JSON decode is tried first; when the answer is not a
// complete JSON array the text is scanned section by section for labelled
// fields.
package descriptors

import (
	"encoding/json"
	"regexp"
	"strconv"
	"strings"

	"github.com/forPelevin/clipcut/internal/types"
)

// Strategy tags which decoder produced a Result.
type Strategy string

const (
	StrategyEmpty      Strategy = "empty"
	StrategyStructured Strategy = "structured"
	StrategyHeuristic  Strategy = "heuristic"
)

const (
	DefaultTitle      = "Untitled Clip"
	DefaultTechnology = "Unknown"
)

type Result struct {
	Strategy    Strategy
	Descriptors []types.Descriptor
}

// RequiredKeys lists the keys every item of a structured answer must carry.
func RequiredKeys(v types.Variant) []string {
	if v == types.VariantTutorial {
		return []string{"timestamp", "title", "technology", "summary"}
	}
	return []string{"timestamp", "title", "summary"}
}

// Extract never fails: an answer nothing can be read from yields StrategyEmpty.
func Extract(text string, v types.Variant) Result {
	if ds, ok := extractStructured(text, v); ok {
		return Result{Strategy: StrategyStructured, Descriptors: ds}
	}
	if ds := extractHeuristic(text, v); len(ds) > 0 {
		return Result{Strategy: StrategyHeuristic, Descriptors: ds}
	}
	return Result{Strategy: StrategyEmpty}
}

var reArrayStart = regexp.MustCompile(`\[\s*\{`)

func extractStructured(text string, v types.Variant) ([]types.Descriptor, bool) {
	for _, loc := range reArrayStart.FindAllStringIndex(text, -1) {
		var items []json.RawMessage
		dec := json.NewDecoder(strings.NewReader(text[loc[0]:]))
		if err := dec.Decode(&items); err != nil {
			continue
		}
		ds, ok := decodeItems(items, v)
		if !ok {
			// A decodable array with a bad item rejects the structured path
			// as a whole.
			return nil, false
		}
		return ds, true
	}
	return nil, false
}

func decodeItems(items []json.RawMessage, v types.Variant) ([]types.Descriptor, bool) {
	if len(items) == 0 {
		return nil, false
	}
	required := RequiredKeys(v)
	out := make([]types.Descriptor, 0, len(items))
	for _, raw := range items {
		var m map[string]any
		if err := json.Unmarshal(raw, &m); err != nil || m == nil {
			return nil, false
		}
		for _, k := range required {
			if _, ok := m[k]; !ok {
				return nil, false
			}
		}
		d := types.Descriptor{
			Timestamp: stringify(m["timestamp"]),
			Title:     stringify(m["title"]),
			Summary:   stringify(m["summary"]),
		}
		if v == types.VariantTutorial {
			d.Technology = stringify(m["technology"])
		}
		out = append(out, d)
	}
	return out, true
}

func stringify(x any) string {
	switch t := x.(type) {
	case nil:
		return ""
	case string:
		return strings.TrimSpace(t)
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64)
	case bool:
		return strconv.FormatBool(t)
	default:
		b, err := json.Marshal(t)
		if err != nil {
			return ""
		}
		return string(b)
	}
}

var (
	reBlankLine = regexp.MustCompile(`\n[ \t]*\n`)

	timestampMarkers  = []string{"timestamp", "start"}
	titleMarkers      = []string{"title"}
	summaryMarkers    = []string{"summary", "why"}
	technologyMarkers = []string{"technology", "language", "framework"}
)

func extractHeuristic(text string, v types.Variant) []types.Descriptor {
	text = strings.ReplaceAll(text, "\r\n", "\n")
	var out []types.Descriptor
	for _, section := range reBlankLine.Split(text, -1) {
		if strings.TrimSpace(section) == "" {
			continue
		}
		lines := strings.Split(section, "\n")
		ts, ok := findField(lines, timestampMarkers)
		if !ok {
			continue
		}
		d := types.Descriptor{Timestamp: ts, Title: DefaultTitle}
		if s, ok := findField(lines, titleMarkers); ok {
			d.Title = s
		}
		if s, ok := findField(lines, summaryMarkers); ok {
			d.Summary = s
		}
		if v == types.VariantTutorial {
			d.Technology = DefaultTechnology
			if s, ok := findField(lines, technologyMarkers); ok {
				d.Technology = s
			}
		}
		out = append(out, d)
	}
	return out
}

// findField returns the value of the first line labelled with one of the
// markers. The label is the text before the first colon and must not look
// like JSON. When digits sit between the marker and that colon
// ("Timestamp 01:23") the value starts right after the marker instead.
func findField(lines []string, markers []string) (string, bool) {
	for _, line := range lines {
		lower := strings.ToLower(line)
		colon := strings.Index(line, ":")
		if colon < 0 || strings.ContainsAny(line[:colon], `[]{}",`) {
			continue
		}
		for _, m := range markers {
			i := strings.Index(lower, m)
			if i < 0 || i > colon {
				continue
			}
			value := line[colon+1:]
			if end := i + len(m); end <= colon && strings.ContainsAny(line[end:colon], "0123456789") {
				value = line[end:]
			}
			value = cleanValue(value)
			if value == "" {
				continue
			}
			return value, true
		}
	}
	return "", false
}

func cleanValue(s string) string {
	return strings.Trim(strings.TrimSpace(s), " \t*_\"'`")
}
