// Package export builds the canonical, versioned context artifact consumed
// by downstream coding agents: it maps raw document field data into the
// export shape, prunes it by profile, filters requirements by priority
// scope, validates the result against the context contract, and
// content-addresses it for cache lookups. All steps are pure functions over
// in-memory values; only the orchestrator touches the store and the
// translation oracle.
package export

// SchemaVersion is stamped into every produced context.
const SchemaVersion = "0.1"

// Language selects the context language. English contexts are produced by
// translating a validated zh context, never mapped directly.
type Language string

const (
	LanguageZH Language = "zh"
	LanguageEN Language = "en"
)

// Source records how the context content was produced.
type Source string

const (
	SourceManual     Source = "manual"
	SourceAIAssisted Source = "ai_assisted"
	SourceImported   Source = "imported"
)

// Profile is the export verbosity tier.
type Profile string

const (
	ProfileLean     Profile = "lean"
	ProfileStandard Profile = "standard"
	ProfileDetailed Profile = "detailed"
)

// Valid reports whether the profile is a known tier.
func (p Profile) Valid() bool {
	return p == ProfileLean || p == ProfileStandard || p == ProfileDetailed
}

// Scope filters requirements by priority at export time.
type Scope string

const (
	ScopeAll    Scope = "all"
	ScopeP0Only Scope = "p0_only"
	ScopeP0P1   Scope = "p0_p1"
)

// Valid reports whether the scope is a known filter.
func (s Scope) Valid() bool {
	return s == ScopeAll || s == ScopeP0Only || s == ScopeP0P1
}

// optionalSections are the top-level context keys dropped when empty,
// regardless of profile.
var optionalSections = []string{"journeys", "tracking", "nfr", "release", "glossary", "changeLog"}
