package export

// FilterRequirementsByScope keeps requirements whose priority matches the
// scope: p0_only keeps P0, p0_p1 keeps P0 and P1, all keeps everything.
// Items without a usable priority are kept only by the all scope.
func FilterRequirementsByScope(requirements []any, scope Scope) []any {
	if scope == ScopeAll || !scope.Valid() {
		return requirements
	}

	out := make([]any, 0, len(requirements))
	for _, item := range requirements {
		req, ok := item.(map[string]any)
		if !ok {
			continue
		}
		priority, _ := req["priority"].(string)
		switch scope {
		case ScopeP0Only:
			if priority == "P0" {
				out = append(out, item)
			}
		case ScopeP0P1:
			if priority == "P0" || priority == "P1" {
				out = append(out, item)
			}
		}
	}
	return out
}
