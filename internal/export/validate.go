package export

import (
	_ "embed"
	"fmt"
	"strings"
	"sync"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
	cueerrors "cuelang.org/go/cue/errors"
)

//go:embed schema/context.cue
var contextSchemaSource string

// ValidationResult reduces validator output to what callers act on.
type ValidationResult struct {
	Valid  bool     `json:"valid"`
	Errors []string `json:"errors"`
}

var (
	schemaOnce  sync.Once
	schemaValue cue.Value
)

// contextSchema compiles the embedded contract once. The schema is fixed at
// build time; a compile failure is a packaging defect.
func contextSchema() cue.Value {
	schemaOnce.Do(func() {
		compiled := cuecontext.New().CompileString(contextSchemaSource, cue.Filename("context.cue"))
		if err := compiled.Err(); err != nil {
			panic(fmt.Sprintf("embedded context schema invalid: %v", err))
		}
		schemaValue = compiled.LookupPath(cue.ParsePath("#Context"))
		if err := schemaValue.Err(); err != nil {
			panic(fmt.Sprintf("embedded context schema missing #Context: %v", err))
		}
	})
	return schemaValue
}

// ValidateContext checks a pruned context against the export contract.
// Every failure becomes a "<path-or-root> <message>" string; the function
// never returns an error for invalid data, only for itself being unusable.
func ValidateContext(context map[string]any) ValidationResult {
	schema := contextSchema()

	data := schema.Context().Encode(context)
	if err := data.Err(); err != nil {
		return ValidationResult{Valid: false, Errors: reduceErrors(err)}
	}

	unified := schema.Unify(data)
	if err := unified.Validate(cue.Concrete(true), cue.Final()); err != nil {
		return ValidationResult{Valid: false, Errors: reduceErrors(err)}
	}

	return ValidationResult{Valid: true, Errors: []string{}}
}

// reduceErrors flattens CUE's error tree into path-prefixed strings.
func reduceErrors(err error) []string {
	var out []string
	for _, e := range cueerrors.Errors(err) {
		path := strings.Join(e.Path(), ".")
		if path == "" {
			path = "root"
		}
		format, args := e.Msg()
		out = append(out, fmt.Sprintf("%s %s", path, fmt.Sprintf(format, args...)))
	}
	if len(out) == 0 {
		out = append(out, fmt.Sprintf("root %v", err))
	}
	return out
}
