package harness

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"gopkg.in/yaml.v3"
)

const (
	FormatText = "text"
	FormatJSON = "json"
	FormatYAML = "yaml"
)

type scenarioSummary struct {
	Scenario  string `json:"scenario" yaml:"scenario"`
	Expected  int    `json:"expected" yaml:"expected"`
	Got       int    `json:"got" yaml:"got"`
	Passed    bool   `json:"passed" yaml:"passed"`
	RequestID string `json:"requestId,omitempty" yaml:"requestId,omitempty"`
	Error     string `json:"error,omitempty" yaml:"error,omitempty"`
	ElapsedMs int64  `json:"elapsedMs" yaml:"elapsedMs"`
}

type reportSummary struct {
	Scenarios []scenarioSummary `json:"scenarios" yaml:"scenarios"`
	Passed    int               `json:"passed" yaml:"passed"`
	Failed    int               `json:"failed" yaml:"failed"`
}

func (r Report) summary() reportSummary {
	out := reportSummary{Passed: r.Passed, Failed: r.Failed}
	for _, res := range r.Results {
		s := scenarioSummary{
			Scenario:  res.Scenario,
			Expected:  res.Expected,
			Got:       res.Got,
			Passed:    res.Passed,
			RequestID: res.RequestID,
			ElapsedMs: res.Elapsed.Milliseconds(),
		}
		if res.Err != nil {
			s.Error = res.Err.Error()
		}
		out.Scenarios = append(out.Scenarios, s)
	}
	return out
}

// Write renders the report as text, json or yaml.
func (r Report) Write(w io.Writer, format string) error {
	switch strings.ToLower(strings.TrimSpace(format)) {
	case "", FormatText:
		return r.writeText(w)
	case FormatJSON:
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(r.summary())
	case FormatYAML:
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(r.summary()); err != nil {
			return err
		}
		return enc.Close()
	default:
		return fmt.Errorf("unknown report format %q", format)
	}
}

func (r Report) writeText(w io.Writer) error {
	for _, res := range r.Results {
		mark := "PASS"
		if !res.Passed {
			mark = "FAIL"
		}
		line := fmt.Sprintf("[%s] %-20s expected=%d got=%d", mark, res.Scenario, res.Expected, res.Got)
		if res.RequestID != "" {
			line += " requestId=" + res.RequestID
		}
		if res.Err != nil {
			line += " error=" + res.Err.Error()
		}
		if _, err := fmt.Fprintln(w, line); err != nil {
			return err
		}
	}
	_, err := fmt.Fprintf(w, "%d passed, %d failed\n", r.Passed, r.Failed)
	return err
}
