package domain

// Flow names a multi-step operator workflow.
type Flow string

const (
	FlowRenewal Flow = "renewal"
	FlowUpgrade Flow = "upgrade"
)

// Stage is the position of a workflow session.
type Stage string

const (
	StageReview     Stage = "review"
	StagePreview    Stage = "preview"
	StageProcessing Stage = "processing"
	StageSuccess    Stage = "success"

	StageChoosePlan Stage = "choose_plan"
	StageCustomize  Stage = "customize"
	StageSummary    Stage = "summary"
	StageConfirmed  Stage = "confirmed"
)

// Step moves a workflow session between stages.
type Step string

const (
	StepNext     Step = "next"
	StepBack     Step = "back"
	StepCommit   Step = "commit"
	StepComplete Step = "complete"
	StepCancel   Step = "cancel"
	StepReset    Step = "reset"
)

// StageTransition is a valid workflow move.
type StageTransition struct {
	Step Step
	Src  Stage
	Dst  Stage
}

// RenewalTransitions is the review → preview → processing → success flow.
// A cancelled commit returns to review without recording anything.
var RenewalTransitions = []StageTransition{
	{Step: StepNext, Src: StageReview, Dst: StagePreview},
	{Step: StepBack, Src: StagePreview, Dst: StageReview},
	{Step: StepCommit, Src: StagePreview, Dst: StageProcessing},
	{Step: StepComplete, Src: StageProcessing, Dst: StageSuccess},
	{Step: StepCancel, Src: StageProcessing, Dst: StageReview},
	{Step: StepReset, Src: StageSuccess, Dst: StageReview},
	{Step: StepReset, Src: StagePreview, Dst: StageReview},
}

// UpgradeTransitions is the choose plan → customize → summary → confirmed flow.
var UpgradeTransitions = []StageTransition{
	{Step: StepNext, Src: StageChoosePlan, Dst: StageCustomize},
	{Step: StepNext, Src: StageCustomize, Dst: StageSummary},
	{Step: StepBack, Src: StageCustomize, Dst: StageChoosePlan},
	{Step: StepBack, Src: StageSummary, Dst: StageCustomize},
	{Step: StepCommit, Src: StageSummary, Dst: StageProcessing},
	{Step: StepComplete, Src: StageProcessing, Dst: StageConfirmed},
	{Step: StepCancel, Src: StageProcessing, Dst: StageSummary},
	{Step: StepReset, Src: StageConfirmed, Dst: StageChoosePlan},
	{Step: StepReset, Src: StageCustomize, Dst: StageChoosePlan},
	{Step: StepReset, Src: StageSummary, Dst: StageChoosePlan},
}

// FlowTransitions returns the transition table and initial stage of f.
func FlowTransitions(f Flow) ([]StageTransition, Stage) {
	switch f {
	case FlowRenewal:
		return RenewalTransitions, StageReview
	case FlowUpgrade:
		return UpgradeTransitions, StageChoosePlan
	}
	return nil, ""
}
