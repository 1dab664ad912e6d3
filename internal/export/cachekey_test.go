package export

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGenerateCacheKeyOrderIndependent(t *testing.T) {
	a := map[string]any{
		"schemaVersion": "0.1",
		"meta":          map[string]any{"id": "d", "title": "t"},
		"requirements":  []any{map[string]any{"id": "REQ-1", "priority": "P0"}},
	}
	b := map[string]any{
		"requirements":  []any{map[string]any{"priority": "P0", "id": "REQ-1"}},
		"meta":          map[string]any{"title": "t", "id": "d"},
		"schemaVersion": "0.1",
	}

	hashA, err := GenerateCacheKey(a)
	require.NoError(t, err)
	hashB, err := GenerateCacheKey(b)
	require.NoError(t, err)
	assert.Equal(t, hashA, hashB)
	assert.Len(t, hashA, 64)
}

func TestGenerateCacheKeyContentSensitive(t *testing.T) {
	base := map[string]any{"meta": map[string]any{"title": "t"}}
	changed := map[string]any{"meta": map[string]any{"title": "t2"}}

	hashBase, err := GenerateCacheKey(base)
	require.NoError(t, err)
	hashChanged, err := GenerateCacheKey(changed)
	require.NoError(t, err)
	assert.NotEqual(t, hashBase, hashChanged)
}

func TestCacheKeyDomainSeparation(t *testing.T) {
	// The same bytes under different domains must never collide.
	data := []byte(`{"a":1}`)
	assert.NotEqual(t, hashWithDomain(domainContent, data), hashWithDomain(domainParams, data))
}

func TestParamsKeyDeterministic(t *testing.T) {
	a := ParamsKey("doc-1", ProfileLean, LanguageZH, ScopeAll)
	b := ParamsKey("doc-1", ProfileLean, LanguageZH, ScopeAll)
	c := ParamsKey("doc-1", ProfileLean, LanguageEN, ScopeAll)

	assert.Equal(t, a, b)
	assert.NotEqual(t, a, c)
}

func TestMarshalCanonical(t *testing.T) {
	tests := []struct {
		name string
		in   any
		want string
	}{
		{"sorted keys", map[string]any{"b": 1, "a": 2}, `{"a":2,"b":1}`},
		{"nested", map[string]any{"z": map[string]any{"y": []any{1, "s", nil, true}}}, `{"z":{"y":[1,"s",null,true]}}`},
		{"integral float", map[string]any{"n": 3.0}, `{"n":3}`},
		{"fractional float", map[string]any{"n": 3.5}, `{"n":3.5}`},
		{"no html escaping", map[string]any{"s": "<a>&</a>"}, `{"s":"<a>&</a>"}`},
		{"nfc normalization", "é", `"é"`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out, err := MarshalCanonical(tt.in)
			require.NoError(t, err)
			assert.Equal(t, tt.want, string(out))
		})
	}
}

func TestMarshalCanonicalRejectsNonFinite(t *testing.T) {
	_, err := MarshalCanonical(map[string]any{"n": math.Inf(1)})
	assert.Error(t, err)

	_, err = MarshalCanonical(map[string]any{"n": math.NaN()})
	assert.Error(t, err)
}
