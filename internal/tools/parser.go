package tools

import (
	"encoding/json"
	"strings"

	"github.com/joeunion/pidog/internal/action"
	"github.com/joeunion/pidog/internal/decision"
)

type jsonToolCall struct {
	Name   string          `json:"name"`
	Params json.RawMessage `json:"params"`
}

type jsonDecision struct {
	Speech  string         `json:"speech"`
	Actions []string       `json:"actions"`
	Tools   []jsonToolCall `json:"tools"`
}

// stripFence removes a leading/trailing fenced code block marker
// (```json ... ``` or ``` ... ```) if present.
func stripFence(text string) string {
	trimmed := strings.TrimSpace(text)
	if !strings.HasPrefix(trimmed, "```") {
		return text
	}
	lines := strings.Split(trimmed, "\n")
	if len(lines) < 2 {
		return text
	}
	lines = lines[1:]
	if len(lines) > 0 && strings.TrimSpace(lines[len(lines)-1]) == "```" {
		lines = lines[:len(lines)-1]
	}
	return strings.Join(lines, "\n")
}

func decodeParams(raw json.RawMessage) map[string]any {
	if len(raw) == 0 {
		return nil
	}
	var m map[string]any
	if err := json.Unmarshal(raw, &m); err == nil {
		return m
	}
	// params may be a JSON-encoded string containing the object.
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		var inner map[string]any
		if err := json.Unmarshal([]byte(s), &inner); err == nil {
			return inner
		}
	}
	return nil
}

// ParseResponse parses a reasoner response in either the structured JSON
// format or the legacy line-oriented format into a Decision.
func ParseResponse(text string) decision.Decision {
	text = stripFence(text)
	trimmed := strings.TrimSpace(text)

	if strings.HasPrefix(trimmed, "{") {
		var jd jsonDecision
		if err := json.Unmarshal([]byte(trimmed), &jd); err == nil {
			d := decision.Decision{Speech: jd.Speech}
			for _, a := range jd.Actions {
				tok := action.Token(strings.ToLower(strings.TrimSpace(a)))
				if action.Valid(tok) {
					d.Actions = append(d.Actions, tok)
				}
			}
			for _, tc := range jd.Tools {
				d.Tools = append(d.Tools, decision.ToolCall{Name: tc.Name, Params: decodeParams(tc.Params)})
			}
			return d
		}
	}

	return parseLegacy(text)
}

func parseLegacy(text string) decision.Decision {
	var d decision.Decision
	var speechLines []string

	for _, line := range strings.Split(text, "\n") {
		trimmed := strings.TrimSpace(line)
		if trimmed == "" {
			continue
		}
		switch {
		case strings.HasPrefix(trimmed, "ACTIONS:"):
			rest := strings.TrimSpace(strings.TrimPrefix(trimmed, "ACTIONS:"))
			for _, a := range strings.Split(rest, ",") {
				tok := action.Token(strings.ToLower(strings.TrimSpace(a)))
				if action.Valid(tok) {
					d.Actions = append(d.Actions, tok)
				}
			}
		case strings.HasPrefix(trimmed, "TOOL:"):
			rest := strings.TrimSpace(strings.TrimPrefix(trimmed, "TOOL:"))
			name, params := parseToolLine(rest)
			if name != "" {
				d.Tools = append(d.Tools, decision.ToolCall{Name: name, Params: params})
			}
		default:
			speechLines = append(speechLines, trimmed)
		}
	}
	d.Speech = strings.Join(speechLines, " ")
	return d
}

// parseToolLine parses "name {json}" into (name, params).
func parseToolLine(rest string) (string, map[string]any) {
	brace := strings.IndexByte(rest, '{')
	if brace < 0 {
		return strings.TrimSpace(rest), nil
	}
	name := strings.TrimSpace(rest[:brace])
	var params map[string]any
	_ = json.Unmarshal([]byte(rest[brace:]), &params)
	return name, params
}
