package issues

// Actions returns the ordered remediation actions for an issue under the
// given AI mode. The first action is always a manual "focus field"; AI
// actions are appended only when the mode allows them. The function is total
// over Code; unrecognized codes fall back to focus-only.
func Actions(issue Issue, mode AIMode) []Action {
	focus := Action{
		ID:              ActionFocusField,
		Type:            ActionManual,
		Label:           "Focus field",
		TargetFieldPath: issue.FieldPath,
		AnalyticsEvent:  "issue_action_focus_field",
	}

	switch issue.Code {
	case RequiredReqFieldMissing, InvalidAcceptanceItem:
		actions := []Action{focus}
		if mode.Enabled() {
			actions = append(actions, Action{
				ID:              ActionAIFillAcceptanceEdge,
				Type:            ActionAI,
				TaskType:        TaskFieldPatch,
				Label:           "Fill acceptance and edge cases",
				TargetFieldPath: issue.FieldPath,
				AnalyticsEvent:  "issue_action_fill_acceptance_edge_single",
			})
		}
		return actions

	case OpenQuestionsEmptyButRisky:
		actions := []Action{focus}
		if mode.Enabled() {
			actions = append(actions, Action{
				ID:              ActionAISuggestOpenQuestion,
				Type:            ActionAI,
				TaskType:        TaskFieldPatch,
				Label:           "Suggest open questions",
				TargetFieldPath: issue.FieldPath,
				AnalyticsEvent:  "issue_action_suggest_open_questions",
			})
		}
		return actions

	case FlowsStepNotContiguous, FlowsTooLong:
		actions := []Action{focus, {
			ID:              ActionRenumberFlowSteps,
			Type:            ActionManual,
			Label:           "Renumber flow steps",
			TargetFieldPath: issue.FieldPath,
			AnalyticsEvent:  "issue_action_renumber_flows",
		}}
		if mode.Enabled() {
			actions = append(actions, Action{
				ID:              ActionAISuggestFlows,
				Type:            ActionAI,
				TaskType:        TaskSuggestedFlows,
				Label:           "Generate suggested flow",
				TargetFieldPath: issue.FieldPath,
				AnalyticsEvent:  "issue_action_suggested_flows_single",
			})
		}
		return actions
	}

	// RequiredFieldMissing, DuplicateRequirementID, InvalidEnumValue and any
	// code this registry does not know about.
	return []Action{focus}
}
