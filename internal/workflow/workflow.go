// Package workflow models the functional safety concept workflow as an
// explicit stage machine.
//
// A State is a plain value: callers load it, pass it to AdvanceTo or Next and
// store the returned copy. Nothing here reads or writes shared state.
package workflow

import (
	"errors"
	"fmt"
	"strings"
)

// Stage is one milestone of the FSC workflow. Reaching a stage means its
// work product exists.
type Stage string

const (
	StageHARALoaded                  Stage = "hara_loaded"
	StageStrategiesDeveloped         Stage = "strategies_developed"
	StageFSRsDerived                 Stage = "fsrs_derived"
	StageFSRsAllocated               Stage = "fsrs_allocated"
	StageMechanismsIdentified        Stage = "mechanisms_identified"
	StageValidationCriteriaSpecified Stage = "validation_criteria_specified"
	StageFSCVerified                 Stage = "fsc_verified"
	StageFSCGenerated                Stage = "fsc_generated"
)

// Stages lists every stage in workflow order.
var Stages = []Stage{
	StageHARALoaded,
	StageStrategiesDeveloped,
	StageFSRsDerived,
	StageFSRsAllocated,
	StageMechanismsIdentified,
	StageValidationCriteriaSpecified,
	StageFSCVerified,
	StageFSCGenerated,
}

var (
	// ErrUnknownStage is returned for a stage name outside Stages.
	ErrUnknownStage = errors.New("unknown workflow stage")
	// ErrFinalStage is returned by Next at the last stage.
	ErrFinalStage = errors.New("workflow already at its final stage")
)

// ParseStage validates a stage name.
func ParseStage(s string) (Stage, error) {
	st := Stage(strings.ToLower(strings.TrimSpace(s)))
	if st.Index() < 0 {
		names := make([]string, len(Stages))
		for i, s := range Stages {
			names[i] = string(s)
		}
		return "", fmt.Errorf("%w %q: must be one of: %s", ErrUnknownStage, s, strings.Join(names, ", "))
	}
	return st, nil
}

// Index is the position of s in Stages, or -1.
func (s Stage) Index() int {
	for i, st := range Stages {
		if st == s {
			return i
		}
	}
	return -1
}

// State is the workflow position of one session. The zero value has not
// started.
type State struct {
	Stage Stage `json:"stage,omitempty"`
	// Completed maps each reached stage to its RFC 3339 completion time.
	Completed map[Stage]string `json:"completed,omitempty"`
	UpdatedAt string           `json:"updated_at,omitempty"`
}

// Started reports whether any stage has been reached.
func (s State) Started() bool { return s.Stage != "" }

// IsComplete reports whether stage has been reached.
func (s State) IsComplete(stage Stage) bool {
	_, ok := s.Completed[stage]
	return ok
}

// Progress returns the number of reached stages and the total.
func (s State) Progress() (done, total int) {
	return len(s.Completed), len(Stages)
}

// AdvanceTo moves the state forward to stage, marking every earlier stage
// complete. Stages at or behind the current one leave the state unchanged.
// The input state is never modified.
func AdvanceTo(s State, stage Stage) (State, error) {
	target := stage.Index()
	if target < 0 {
		_, err := ParseStage(string(stage))
		return s, err
	}
	if target <= s.Stage.Index() {
		return s, nil
	}

	now := timeNow().UTC().Format("2006-01-02T15:04:05Z07:00")
	out := State{Stage: stage, Completed: make(map[Stage]string, target+1), UpdatedAt: now}
	for k, v := range s.Completed {
		out.Completed[k] = v
	}
	for _, st := range Stages[:target+1] {
		if _, ok := out.Completed[st]; !ok {
			out.Completed[st] = now
		}
	}
	return out, nil
}

// Next advances by exactly one stage. A state that has not started moves to
// the first stage.
func Next(s State) (State, error) {
	idx := s.Stage.Index()
	if s.Started() && idx < 0 {
		return s, fmt.Errorf("%w %q", ErrUnknownStage, s.Stage)
	}
	if idx == len(Stages)-1 {
		return s, ErrFinalStage
	}
	return AdvanceTo(s, Stages[idx+1])
}
