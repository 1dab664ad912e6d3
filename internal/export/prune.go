package export

// PruneOptions selects the verbosity tier. IncludeFlowsInLean keeps a
// requirement's main flow in the lean profile.
type PruneOptions struct {
	Profile            Profile
	IncludeFlowsInLean bool
}

var leanRequirementKeys = []string{"id", "title", "priority", "userStory", "acceptance", "edgeCases"}

var standardRequirementKeys = []string{
	"id", "title", "priority", "userStory", "description", "flows",
	"acceptance", "edgeCases", "dependencies", "trackingRefs", "codingNotes",
}

// PruneByProfile returns a profile-pruned deep copy of the context. The
// input is never mutated; callers may reuse it afterward. Pruning is
// idempotent: a second pass with the same options is a no-op.
func PruneByProfile(context map[string]any, opts PruneOptions) map[string]any {
	out := deepCopyMap(context)

	switch opts.Profile {
	case ProfileLean:
		delete(out, "journeys")
		delete(out, "tracking")
		delete(out, "nfr")
		delete(out, "release")
		delete(out, "changeLog")
		out["requirements"] = pruneRequirements(out["requirements"], func(req map[string]any) map[string]any {
			return pruneRequirementLean(req, opts.IncludeFlowsInLean)
		})

	case ProfileStandard:
		delete(out, "release")
		delete(out, "changeLog")
		out["requirements"] = pruneRequirements(out["requirements"], pruneRequirementStandard)

	case ProfileDetailed:
		// Detailed keeps every section but requirements still get the
		// standard reduction.
		out["requirements"] = pruneRequirements(out["requirements"], pruneRequirementStandard)
	}

	dropEmptyOptionals(out)
	return out
}

func pruneRequirements(raw any, prune func(map[string]any) map[string]any) []any {
	list, _ := raw.([]any)
	out := make([]any, 0, len(list))
	for _, item := range list {
		req, ok := item.(map[string]any)
		if !ok {
			out = append(out, item)
			continue
		}
		out = append(out, prune(req))
	}
	return out
}

func pruneRequirementLean(req map[string]any, includeFlows bool) map[string]any {
	pruned := pick(req, leanRequirementKeys)
	if includeFlows {
		if flows, ok := req["flows"].(map[string]any); ok {
			main, _ := flows["main"].([]any)
			if main == nil {
				main = []any{}
			}
			pruned["flows"] = map[string]any{"main": main}
		}
	}
	return pruned
}

func pruneRequirementStandard(req map[string]any) map[string]any {
	pruned := pick(req, standardRequirementKeys)
	if flows, ok := pruned["flows"].(map[string]any); ok {
		if _, hasMain := flows["main"]; hasMain {
			narrowed := map[string]any{"main": flows["main"]}
			if alternatives, ok := flows["alternatives"]; ok {
				narrowed["alternatives"] = alternatives
			}
			pruned["flows"] = narrowed
		}
	}
	return pruned
}

// dropEmptyOptionals removes optional sections whose value is an empty
// array or empty object, keeping the artifact minimal for every profile.
func dropEmptyOptionals(context map[string]any) {
	for _, key := range optionalSections {
		switch v := context[key].(type) {
		case []any:
			if len(v) == 0 {
				delete(context, key)
			}
		case map[string]any:
			if len(v) == 0 {
				delete(context, key)
			}
		}
	}
}

// pick copies the listed keys that exist in src. Absent keys stay absent
// rather than becoming explicit nulls.
func pick(src map[string]any, keys []string) map[string]any {
	out := make(map[string]any, len(keys))
	for _, key := range keys {
		if v, ok := src[key]; ok {
			out[key] = deepCopyValue(v)
		}
	}
	return out
}

func deepCopyMap(m map[string]any) map[string]any {
	out := make(map[string]any, len(m))
	for k, v := range m {
		out[k] = deepCopyValue(v)
	}
	return out
}

func deepCopyValue(v any) any {
	switch val := v.(type) {
	case map[string]any:
		return deepCopyMap(val)
	case []any:
		out := make([]any, len(val))
		for i, elem := range val {
			out[i] = deepCopyValue(elem)
		}
		return out
	default:
		return val
	}
}
