// Stage interface for the fixed vessel-analysis transforms
package algorithms

import (
	"fmt"

	"gocv.io/x/gocv"
)

// Stage is one deterministic image transform. Apply never modifies input and
// returns a new matrix the caller must Close.
type Stage interface {
	Apply(input gocv.Mat) (gocv.Mat, error)
	GetName() string
	GetDescription() string
	Validate() error
	GetParameterInfo() []ParameterInfo
}

// ParameterInfo describes a fixed stage parameter for display
type ParameterInfo struct {
	Name        string      `json:"name"`
	Type        string      `json:"type"` // "int", "float"
	Value       interface{} `json:"value"`
	Description string      `json:"description"`
}

// Sequence applies stages in order, closing intermediates.
type Sequence struct {
	name   string
	stages []Stage
}

// NewSequence creates a named stage chain
func NewSequence(name string, stages ...Stage) *Sequence {
	return &Sequence{name: name, stages: stages}
}

func (s *Sequence) Apply(input gocv.Mat) (gocv.Mat, error) {
	if input.Empty() {
		return gocv.NewMat(), fmt.Errorf("input image is empty")
	}

	current := input.Clone()
	for _, stage := range s.stages {
		next, err := stage.Apply(current)
		current.Close()
		if err != nil {
			return gocv.NewMat(), fmt.Errorf("%s: %w", stage.GetName(), err)
		}
		current = next
	}
	return current, nil
}

func (s *Sequence) GetName() string {
	return s.name
}

func (s *Sequence) GetDescription() string {
	desc := ""
	for i, stage := range s.stages {
		if i > 0 {
			desc += ", then "
		}
		desc += stage.GetDescription()
	}
	return desc
}

func (s *Sequence) Validate() error {
	for _, stage := range s.stages {
		if err := stage.Validate(); err != nil {
			return fmt.Errorf("%s: %w", stage.GetName(), err)
		}
	}
	return nil
}

func (s *Sequence) GetParameterInfo() []ParameterInfo {
	var params []ParameterInfo
	for _, stage := range s.stages {
		params = append(params, stage.GetParameterInfo()...)
	}
	return params
}

// Stages returns the chained stages.
func (s *Sequence) Stages() []Stage {
	return s.stages
}

func requireSingleChannel(input gocv.Mat) error {
	if input.Empty() {
		return fmt.Errorf("input image is empty")
	}
	if input.Channels() != 1 {
		return fmt.Errorf("expected single-channel input, got %d channels", input.Channels())
	}
	return nil
}
