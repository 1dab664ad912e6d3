// Package issues defines the findings produced by readiness evaluation and
// the remediation actions available for each finding. Issues are immutable
// values produced fresh on every evaluation; they are never persisted.
package issues

// Code identifies an issue category. The set is closed: the action registry
// treats any unlisted code as focus-only rather than erroring.
type Code string

const (
	RequiredFieldMissing       Code = "REQUIRED_FIELD_MISSING"
	RequiredReqFieldMissing    Code = "REQUIRED_REQ_FIELD_MISSING"
	InvalidEnumValue           Code = "INVALID_ENUM_VALUE"
	DuplicateRequirementID     Code = "DUPLICATE_REQUIREMENT_ID"
	InvalidAcceptanceItem      Code = "INVALID_ACCEPTANCE_ITEM"
	TooManyItems               Code = "TOO_MANY_ITEMS"
	TextTooLong                Code = "TEXT_TOO_LONG"
	FlowsStepNotContiguous     Code = "FLOWS_STEP_NOT_CONTIGUOUS"
	FlowsTooLong               Code = "FLOWS_TOO_LONG"
	OpenQuestionsEmptyButRisky Code = "OPEN_QUESTIONS_EMPTY_BUT_RISKY"
)

// Severity classifies an issue. Errors block export; warnings and infos are
// advisory only.
type Severity string

const (
	SeverityError   Severity = "error"
	SeverityWarning Severity = "warning"
	SeverityInfo    Severity = "info"
)

// Issue is a single finding against a document.
type Issue struct {
	Code       Code           `json:"code"`
	Severity   Severity       `json:"severity"`
	FieldPath  string         `json:"fieldPath"`
	Message    string         `json:"message"`
	Suggestion string         `json:"suggestion,omitempty"`
	CanAutoFix bool           `json:"canAutoFix,omitempty"`
	Meta       map[string]any `json:"meta,omitempty"`
}

// Blocking reports whether the issue prevents export.
func (i Issue) Blocking() bool {
	return i.Severity == SeverityError
}

// AIMode is the capability tier for AI-assisted actions. It is passed
// explicitly into the registry; there is no process-wide mode.
type AIMode string

const (
	AICloud    AIMode = "cloud"
	AILocal    AIMode = "local"
	AIDisabled AIMode = "disabled"
)

// Enabled reports whether AI-backed actions may be offered.
func (m AIMode) Enabled() bool {
	return m == AICloud || m == AILocal
}

// ActionType distinguishes manual editor actions from AI-backed ones.
type ActionType string

const (
	ActionManual ActionType = "manual"
	ActionAI     ActionType = "ai"
)

// TaskType names the oracle task an AI action dispatches to.
type TaskType string

const (
	TaskFieldPatch     TaskType = "field_patch"
	TaskSuggestedFlows TaskType = "suggested_flows"
)

// ActionID identifies a remediation action.
type ActionID string

const (
	ActionFocusField            ActionID = "FOCUS_FIELD"
	ActionRenumberFlowSteps     ActionID = "RENUMBER_FLOW_STEPS"
	ActionAIFillAcceptanceEdge  ActionID = "AI_FILL_ACCEPTANCE_EDGE_SINGLE"
	ActionAISuggestOpenQuestion ActionID = "AI_SUGGEST_OPEN_QUESTIONS"
	ActionAISuggestFlows        ActionID = "AI_SUGGEST_FLOWS_SINGLE"
)

// Action is one remediation offered for an issue.
type Action struct {
	ID              ActionID   `json:"actionId"`
	Type            ActionType `json:"type"`
	Label           string     `json:"label"`
	TaskType        TaskType   `json:"taskType,omitempty"`
	TargetFieldPath string     `json:"targetFieldPath,omitempty"`
	AnalyticsEvent  string     `json:"analyticsEvent"`
}
