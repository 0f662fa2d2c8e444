// Package llmjson extracts JSON objects from free-text LLM completions.
//
// Completions are prose, markdown, or both, and frequently carry string
// values with raw control characters that strict JSON rejects. Extract
// locates every plausible object, repairs what it can, and silently drops
// what it cannot. It never returns an error and holds no state, so it is
// safe for concurrent use.
package llmjson

import (
	"encoding/json"
	"regexp"
	"strings"
)

// Record is one successfully parsed JSON object.
type Record = map[string]any

// Phase reports which strategy produced the records of an Extraction.
type Phase int

const (
	// PhaseNone means no candidate parsed.
	PhaseNone Phase = iota
	// PhaseFenced means records came from markdown code fences.
	PhaseFenced
	// PhaseScan means records came from the balanced-brace scan.
	PhaseScan
)

// String returns a lowercase label suitable for metrics and logs.
func (p Phase) String() string {
	switch p {
	case PhaseFenced:
		return "fenced"
	case PhaseScan:
		return "scan"
	default:
		return "none"
	}
}

// Extraction is the result of Extract.
type Extraction struct {
	Records []Record
	Phase   Phase
}

// Found reports whether at least one record was extracted.
func (e Extraction) Found() bool { return len(e.Records) > 0 }

var (
	// fencePattern matches ```json {...} ``` and ``` {...} ``` non-greedily across lines.
	fencePattern = regexp.MustCompile("(?s)```(?i:json)?\\s*(\\{.*?\\})\\s*```")
	// pairPattern matches a "key": "value" pair whose value may hold raw newlines.
	pairPattern = regexp.MustCompile(`(?s)"([^"]+)":\s*"((?:[^"\\]|\\.)*)"`)

	controlEscaper = strings.NewReplacer("\n", `\n`, "\r", `\r`, "\t", `\t`)
)

// Extract returns every JSON object found in text, in source order.
// Fenced blocks are tried first; the raw scan only runs when no fenced
// block parsed.
func Extract(text string) Extraction {
	if recs := parseAll(fencedCandidates(text)); len(recs) > 0 {
		return Extraction{Records: recs, Phase: PhaseFenced}
	}
	if recs := parseAll(scanCandidates(text)); len(recs) > 0 {
		return Extraction{Records: recs, Phase: PhaseScan}
	}
	return Extraction{Phase: PhaseNone}
}

// ExtractRecords is Extract without the phase.
func ExtractRecords(text string) []Record {
	return Extract(text).Records
}

// First returns the first extracted record.
func First(text string) (Record, bool) {
	recs := Extract(text).Records
	if len(recs) == 0 {
		return nil, false
	}
	return recs[0], true
}

// Decode converts a record into v through a JSON round trip.
func Decode(rec Record, v any) error {
	b, err := json.Marshal(rec)
	if err != nil {
		return err
	}
	return json.Unmarshal(b, v)
}

func fencedCandidates(text string) []string {
	matches := fencePattern.FindAllStringSubmatch(text, -1)
	out := make([]string, 0, len(matches))
	for _, m := range matches {
		out = append(out, strings.TrimSpace(m[1]))
	}
	return out
}

// scanCandidates walks text once, emitting each top-level balanced {...}
// substring. An unclosed brace consumes the remainder of the text.
func scanCandidates(text string) []string {
	var out []string
	i := 0
	for i < len(text) {
		if text[i] != '{' {
			i++
			continue
		}
		start := i
		depth := 1
		i++
		for i < len(text) && depth > 0 {
			switch text[i] {
			case '{':
				depth++
			case '}':
				depth--
			}
			i++
		}
		if depth == 0 {
			out = append(out, text[start:i])
		}
	}
	return out
}

func parseAll(candidates []string) []Record {
	var out []Record
	for _, c := range candidates {
		if rec, ok := parse(c); ok {
			out = append(out, rec)
		}
	}
	return out
}

func parse(candidate string) (Record, bool) {
	var rec Record
	if err := json.Unmarshal([]byte(candidate), &rec); err == nil {
		return rec, true
	}
	repaired := repair(candidate)
	if repaired == candidate {
		return nil, false
	}
	rec = nil
	if err := json.Unmarshal([]byte(repaired), &rec); err != nil {
		return nil, false
	}
	return rec, true
}

// repair escapes raw control characters inside the key and value of each
// "key": "value" pair. Whitespace between the two is left as is.
func repair(candidate string) string {
	idx := pairPattern.FindAllStringSubmatchIndex(candidate, -1)
	if len(idx) == 0 {
		return candidate
	}
	var b strings.Builder
	b.Grow(len(candidate) + 16)
	last := 0
	for _, m := range idx {
		keyStart, keyEnd, valStart, valEnd := m[2], m[3], m[4], m[5]
		b.WriteString(candidate[last:keyStart])
		b.WriteString(controlEscaper.Replace(candidate[keyStart:keyEnd]))
		b.WriteString(candidate[keyEnd:valStart])
		b.WriteString(controlEscaper.Replace(candidate[valStart:valEnd]))
		last = valEnd
	}
	b.WriteString(candidate[last:])
	return b.String()
}
