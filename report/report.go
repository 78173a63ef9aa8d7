package report

import (
	"time"

	"github.com/google/uuid"

	"github.com/kbukum/gatewayprobe/probe"
)

// Exit codes for a finished or failed run.
const (
	ExitPass        = 0
	ExitFail        = 1
	ExitConfigError = 2
)

// ModeResult is the outcome of one mode for one model.
type ModeResult struct {
	Mode          probe.Mode `json:"mode" yaml:"mode"`
	probe.Outcome `yaml:",inline"`
}

// Record holds the results of one model in declared mode order.
type Record struct {
	Model   string       `json:"model" yaml:"model"`
	Results []ModeResult `json:"results" yaml:"results"`
}

// Outcome returns the outcome recorded for mode.
func (r Record) Outcome(mode probe.Mode) (probe.Outcome, bool) {
	for _, res := range r.Results {
		if res.Mode == mode {
			return res.Outcome, true
		}
	}
	return probe.Outcome{}, false
}

// CompatibleWith reports whether every mode in modes succeeded.
func (r Record) CompatibleWith(modes []probe.Mode) bool {
	if len(modes) == 0 {
		return false
	}
	for _, m := range modes {
		o, ok := r.Outcome(m)
		if !ok || !o.OK() {
			return false
		}
	}
	return true
}

// Report is the result of one run. Field names are stable.
type Report struct {
	RunID       string         `json:"run_id" yaml:"run_id"`
	Endpoint    string         `json:"endpoint" yaml:"endpoint"`
	GeneratedAt time.Time      `json:"generated_at" yaml:"generated_at"`
	Modes       []probe.Mode   `json:"modes" yaml:"modes"`
	Liveness    probe.Outcome  `json:"liveness" yaml:"liveness"`
	Enumeration *probe.Outcome `json:"enumeration,omitempty" yaml:"enumeration,omitempty"`
	Records     []Record       `json:"models" yaml:"models"`
	Compatible  []string       `json:"compatible" yaml:"compatible"`
	Interrupted bool           `json:"interrupted" yaml:"interrupted"`
	Pass        bool           `json:"pass" yaml:"pass"`
}

// Input is what the runner collected.
type Input struct {
	RunID       string
	Endpoint    string
	GeneratedAt time.Time
	Modes       []probe.Mode
	Liveness    probe.Outcome
	Enumeration *probe.Outcome
	Records     []Record
	Interrupted bool
}

// NewRunID returns a fresh run identifier.
func NewRunID() string {
	return uuid.NewString()
}

// Finalize builds the report. The run passes when liveness succeeded, at
// least one model succeeded in every requested mode and the run was not
// interrupted.
func Finalize(in Input) *Report {
	r := &Report{
		RunID:       in.RunID,
		Endpoint:    in.Endpoint,
		GeneratedAt: in.GeneratedAt,
		Modes:       append([]probe.Mode{}, in.Modes...),
		Liveness:    in.Liveness,
		Enumeration: in.Enumeration,
		Records:     append([]Record{}, in.Records...),
		Compatible:  []string{},
		Interrupted: in.Interrupted,
	}
	if r.RunID == "" {
		r.RunID = NewRunID()
	}
	if r.GeneratedAt.IsZero() {
		r.GeneratedAt = time.Now().UTC()
	}

	for _, rec := range r.Records {
		if rec.CompatibleWith(r.Modes) {
			r.Compatible = append(r.Compatible, rec.Model)
		}
	}
	r.Pass = r.Liveness.OK() && len(r.Compatible) > 0 && !r.Interrupted
	return r
}

// ExitCode maps a report to the process exit status.
func ExitCode(r *Report) int {
	if r != nil && r.Pass {
		return ExitPass
	}
	return ExitFail
}
