package pipeline

import "fmt"

// Stage is one step of the filter cascade. Stages run in declaration order.
type Stage int

const (
	StageType Stage = iota
	StageMake
	StageModel
	StageMSRP
	StageInvoice
)

// Stages lists the cascade in evaluation order.
var Stages = []Stage{StageType, StageMake, StageModel, StageMSRP, StageInvoice}

func (s Stage) String() string {
	switch s {
	case StageType:
		return "type"
	case StageMake:
		return "make"
	case StageModel:
		return "model"
	case StageMSRP:
		return "msrp"
	case StageInvoice:
		return "invoice"
	default:
		return fmt.Sprintf("stage(%d)", int(s))
	}
}

// MarshalText lets stages appear by name in JSON payloads.
func (s Stage) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// Categorical reports whether the stage selects by string value.
func (s Stage) Categorical() bool {
	return s == StageType || s == StageMake || s == StageModel
}
