package readiness

import (
	"fmt"
	"log/slog"
	"sort"
	"strconv"
	"strings"

	"github.com/specl/specl/internal/fieldpath"
	"github.com/specl/specl/internal/issues"
	"github.com/specl/specl/internal/template"
)

var priorities = map[string]bool{"P0": true, "P1": true, "P2": true}

// maxFlowSteps is the advisory ceiling for main-flow length.
const maxFlowSteps = 7

// Evaluate walks the document fields against the template's readiness rules.
//
// Section-level and per-requirement required fields pool into one flat
// done/total ratio. Malformed rule paths (no section.field shape) are a
// template configuration defect: they are logged and skipped so the rest of
// the document still evaluates.
func Evaluate(fields map[string]any, tmpl *template.Schema) Result {
	var blocking, recommendations []issues.Issue

	requiredTotal, requiredDone := 0, 0

	// Per-section counters, in first-seen order.
	sectionOrder := []string{}
	sectionDone := map[string]int{}
	sectionTotal := map[string]int{}

	for _, path := range tmpl.ReadinessRules.RequireFields {
		sectionKey, _, ok := strings.Cut(path, ".")
		if !ok {
			slog.Warn("skipping malformed readiness rule path", "path", path)
			continue
		}

		requiredTotal++
		if _, seen := sectionTotal[sectionKey]; !seen {
			sectionOrder = append(sectionOrder, sectionKey)
		}
		sectionTotal[sectionKey]++

		definition := tmpl.FieldAt(path)
		value, _ := fieldpath.Resolve(fields, path)

		if isPresent(value, definition) {
			requiredDone++
			sectionDone[sectionKey]++
		} else {
			blocking = append(blocking, issues.Issue{
				Code:       issues.RequiredFieldMissing,
				Severity:   issues.SeverityError,
				FieldPath:  path,
				Message:    "Required field is missing.",
				Suggestion: "Fill in this field before export.",
			})
		}
	}

	requirements := requirementList(fields)

	// Multiset of trimmed non-empty ids for duplicate detection.
	idCounts := map[string]int{}
	for _, req := range requirements {
		if id := trimmedID(req); id != "" {
			idCounts[id]++
		}
	}

	for _, req := range requirements {
		rawID := trimmedID(req)
		reqID := rawID
		if reqID == "" {
			reqID = "#unknown"
		}

		if rawID == "" || !fieldpath.RequirementIDPattern.MatchString(rawID) {
			blocking = append(blocking, issues.Issue{
				Code:       issues.RequiredReqFieldMissing,
				Severity:   issues.SeverityError,
				FieldPath:  fieldpath.BuildRequirementFieldPath(reqID, "id"),
				Message:    "Requirement ID is missing or invalid.",
				Suggestion: "Use a readable ID like FEATURE-P0.",
			})
		}

		if rawID != "" && idCounts[rawID] > 1 {
			blocking = append(blocking, issues.Issue{
				Code:       issues.DuplicateRequirementID,
				Severity:   issues.SeverityError,
				FieldPath:  "requirements.requirements",
				Message:    fmt.Sprintf("Duplicate requirement id: %s.", rawID),
				Suggestion: "Ensure each requirement id is unique.",
				Meta:       map[string]any{"duplicateId": rawID},
			})
		}

		if priority, ok := req["priority"].(string); ok && priority != "" && !priorities[priority] {
			blocking = append(blocking, issues.Issue{
				Code:       issues.InvalidEnumValue,
				Severity:   issues.SeverityError,
				FieldPath:  fieldpath.BuildRequirementFieldPath(reqID, "priority"),
				Message:    "Priority must be P0, P1, or P2.",
				Suggestion: "Choose a valid priority.",
			})
		}

		for _, fieldKey := range tmpl.ReadinessRules.RequirePerRequirement {
			requiredTotal++
			if isPresent(req[fieldKey], nil) {
				requiredDone++
			} else {
				blocking = append(blocking, issues.Issue{
					Code:       issues.RequiredReqFieldMissing,
					Severity:   issues.SeverityError,
					FieldPath:  fieldpath.BuildRequirementFieldPath(reqID, fieldKey),
					Message:    fmt.Sprintf("Requirement field %s is missing.", fieldKey),
					Suggestion: fmt.Sprintf("Fill %s for this requirement.", fieldKey),
				})
			}
		}

		if acceptance, ok := req["acceptance"].([]any); ok && len(acceptance) > 0 {
			for _, item := range acceptance {
				if !acceptanceItemValid(item) {
					blocking = append(blocking, issues.Issue{
						Code:       issues.InvalidAcceptanceItem,
						Severity:   issues.SeverityError,
						FieldPath:  fieldpath.BuildRequirementFieldPath(reqID, "acceptance"),
						Message:    "Acceptance item must include Given/When/Then.",
						Suggestion: "Complete the acceptance criteria.",
					})
				}
			}
		}

		recommendations = append(recommendations, flowAdvisories(req, reqID)...)
	}

	if openQuestions, ok := fieldpath.Resolve(fields, "scope.openQuestions"); ok {
		if list, isList := openQuestions.([]any); isList && len(list) == 0 {
			recommendations = append(recommendations, issues.Issue{
				Code:       issues.OpenQuestionsEmptyButRisky,
				Severity:   issues.SeverityWarning,
				FieldPath:  "scope.openQuestions",
				Message:    "Open questions is empty. Add any remaining unknowns.",
				Suggestion: "Capture unknowns before export.",
			})
		}
	}

	perSection := make([]SectionStats, 0, len(sectionOrder))
	for _, key := range sectionOrder {
		perSection = append(perSection, SectionStats{
			SectionKey:      key,
			RequiredDone:    sectionDone[key],
			RequiredTotal:   sectionTotal[key],
			RequiredPercent: percent(sectionDone[key], sectionTotal[key]),
		})
	}

	qualityDone, qualityTotal := requiredDone, requiredTotal
	for _, pass := range qualityChecklist(fields, requirements) {
		qualityTotal++
		if pass {
			qualityDone++
		}
	}

	return Result{
		IsReady: len(blocking) == 0,
		Completion: Completion{
			RequiredDone:    requiredDone,
			RequiredTotal:   requiredTotal,
			RequiredPercent: percent(requiredDone, requiredTotal),
			QualityPercent:  percent(qualityDone, qualityTotal),
		},
		BlockingIssues:  blocking,
		Recommendations: recommendations,
		PerSectionStats: perSection,
	}
}

// flowAdvisories checks flows.main for step contiguity and length. Both
// findings are warnings only.
func flowAdvisories(req map[string]any, reqID string) []issues.Issue {
	flows, _ := req["flows"].(map[string]any)
	main, _ := flows["main"].([]any)
	if len(main) == 0 {
		return nil
	}

	var advisories []issues.Issue

	steps := make([]int, 0, len(main))
	for _, item := range main {
		stepObj, _ := item.(map[string]any)
		if step, ok := asInt(stepObj["step"]); ok {
			steps = append(steps, step)
		}
	}
	// Contiguity is only judged when every item carries a usable integer step.
	if len(steps) == len(main) {
		sort.Ints(steps)
		contiguous := true
		for i, step := range steps {
			if step != i+1 {
				contiguous = false
				break
			}
		}
		if !contiguous {
			advisories = append(advisories, issues.Issue{
				Code:       issues.FlowsStepNotContiguous,
				Severity:   issues.SeverityWarning,
				FieldPath:  fieldpath.BuildRequirementFieldPath(reqID, "flows.main"),
				Message:    "Flow steps should be contiguous starting at 1.",
				Suggestion: "Renumber steps in order.",
			})
		}
	}

	if len(main) > maxFlowSteps {
		advisories = append(advisories, issues.Issue{
			Code:       issues.FlowsTooLong,
			Severity:   issues.SeverityWarning,
			FieldPath:  fieldpath.BuildRequirementFieldPath(reqID, "flows.main"),
			Message:    fmt.Sprintf("Flow has more than %d steps.", maxFlowSteps),
			Suggestion: "Consider splitting the requirement.",
			Meta:       map[string]any{"maxSteps": maxFlowSteps, "actualSteps": len(main)},
		})
	}

	return advisories
}

// qualityChecklist returns the advisory booleans pooled into qualityPercent:
// primary journey, tracking events, NFR items, and at least one P0
// requirement with a non-empty main flow.
func qualityChecklist(fields map[string]any, requirements []map[string]any) []bool {
	p0WithFlows := false
	for _, req := range requirements {
		if priority, _ := req["priority"].(string); priority != "P0" {
			continue
		}
		flows, _ := req["flows"].(map[string]any)
		if main, ok := flows["main"].([]any); ok && len(main) > 0 {
			p0WithFlows = true
			break
		}
	}

	return []bool{
		listAtPathNonEmpty(fields, "journeys.primaryJourney") || listAtPathNonEmpty(fields, "journeys.primary"),
		listAtPathNonEmpty(fields, "tracking.events"),
		listAtPathNonEmpty(fields, "nfr.items"),
		p0WithFlows,
	}
}

func listAtPathNonEmpty(fields map[string]any, path string) bool {
	value, ok := fieldpath.Resolve(fields, path)
	if !ok {
		return false
	}
	list, ok := value.([]any)
	return ok && len(list) > 0
}

// isPresent applies the presence rule: nil is absent; strings must be
// non-empty after trim; numbers and booleans always count; arrays need at
// least minItems entries (default 1); objects need at least one key.
func isPresent(value any, definition *template.Field) bool {
	switch v := value.(type) {
	case nil:
		return false
	case string:
		return strings.TrimSpace(v) != ""
	case bool, int, int64, float64:
		return true
	case []any:
		minItems := 1
		if definition != nil && definition.Validation != nil && definition.Validation.MinItems != nil {
			minItems = *definition.Validation.MinItems
		}
		return len(v) >= minItems
	case map[string]any:
		return len(v) > 0
	default:
		return false
	}
}

// acceptanceItemValid accepts a non-blank string or an object whose given,
// when, and then are all non-blank strings.
func acceptanceItemValid(item any) bool {
	switch v := item.(type) {
	case string:
		return strings.TrimSpace(v) != ""
	case map[string]any:
		for _, key := range []string{"given", "when", "then"} {
			s, ok := v[key].(string)
			if !ok || strings.TrimSpace(s) == "" {
				return false
			}
		}
		return true
	default:
		return false
	}
}

func requirementList(fields map[string]any) []map[string]any {
	raw, _ := fieldpath.Resolve(fields, "requirements.requirements")
	list, _ := raw.([]any)
	requirements := make([]map[string]any, 0, len(list))
	for _, item := range list {
		req, _ := item.(map[string]any)
		if req == nil {
			req = map[string]any{}
		}
		requirements = append(requirements, req)
	}
	return requirements
}

func trimmedID(req map[string]any) string {
	id, _ := req["id"].(string)
	return strings.TrimSpace(id)
}

func asInt(v any) (int, bool) {
	switch n := v.(type) {
	case int:
		return n, true
	case int64:
		return int(n), true
	case float64:
		if n == float64(int(n)) {
			return int(n), true
		}
	case string:
		parsed, err := strconv.Atoi(strings.TrimSpace(n))
		if err == nil {
			return parsed, true
		}
	}
	return 0, false
}

func percent(done, total int) int {
	if total <= 0 {
		return 0
	}
	return done * 100 / total
}
