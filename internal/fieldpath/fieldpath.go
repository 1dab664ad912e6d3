// Package fieldpath resolves dot-separated field paths against nested
// document data and builds the stable requirement-scoped paths used by the
// editor to target "focus this field" and "auto-fix this field" actions.
//
// Two path forms exist:
//
//	section.field                                plain section-level path
//	requirements.requirements[<id>].<fieldKey>   requirement-scoped path
//
// The bracket payload is either a requirement id or "#<index>" when no
// usable id exists. Build and Parse round-trip exactly for any id matching
// the requirement id pattern.
package fieldpath

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

// RequirementIDPattern is the accepted shape for requirement ids.
var RequirementIDPattern = regexp.MustCompile(`^[A-Za-z][A-Za-z0-9_-]{1,63}$`)

var requirementPathPattern = regexp.MustCompile(`^requirements\.requirements\[(.+?)\]\.([A-Za-z0-9_.-]+)$`)

// Resolve walks a dot-separated path through nested map data.
// Returns (nil, false) if any segment is absent or the current node is not
// a map. A present key holding an explicit nil resolves to (nil, true).
func Resolve(data map[string]any, path string) (any, bool) {
	var current any = data
	for _, part := range strings.Split(path, ".") {
		node, ok := current.(map[string]any)
		if !ok {
			return nil, false
		}
		current, ok = node[part]
		if !ok {
			return nil, false
		}
	}
	return current, true
}

// RequirementMatch is the result of parsing a requirement-scoped path.
// Exactly one of RequirementID or Index identifies the requirement:
// HasIndex reports whether the bracket payload was the "#<index>" form.
type RequirementMatch struct {
	RequirementID string
	Index         int
	HasIndex      bool
	FieldKey      string
}

// BuildRequirementFieldPath returns the canonical path for a field of the
// requirement with the given id. Callers pass "#unknown" (or "#<index>")
// when no valid id exists.
func BuildRequirementFieldPath(requirementID, fieldKey string) string {
	return fmt.Sprintf("requirements.requirements[%s].%s", requirementID, fieldKey)
}

// ParseRequirementFieldPath parses a requirement-scoped path back into its
// requirement identity and field key. Returns (zero, false) if the path is
// not in the requirement-scoped form or the "#<index>" payload is not an
// integer.
func ParseRequirementFieldPath(fieldPath string) (RequirementMatch, bool) {
	m := requirementPathPattern.FindStringSubmatch(fieldPath)
	if m == nil {
		return RequirementMatch{}, false
	}

	payload, fieldKey := m[1], m[2]

	if strings.HasPrefix(payload, "#") {
		idx, err := strconv.Atoi(payload[1:])
		if err != nil {
			return RequirementMatch{}, false
		}
		return RequirementMatch{Index: idx, HasIndex: true, FieldKey: fieldKey}, true
	}

	return RequirementMatch{RequirementID: payload, FieldKey: fieldKey}, true
}

// ResolveRequirementIndex finds the list position of the requirement with
// the given id. Returns -1 if no requirement carries that id.
func ResolveRequirementIndex(requirements []map[string]any, requirementID string) int {
	for i, req := range requirements {
		if id, ok := req["id"].(string); ok && id == requirementID {
			return i
		}
	}
	return -1
}
