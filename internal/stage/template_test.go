package stage

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPlaceholders(t *testing.T) {
	t.Parallel()

	tmpl := "Analyze {{input}} using {{gap_report}} and {{ input }} again."
	assert.Equal(t, []string{"input", "gap_report"}, Placeholders(tmpl))
}

func TestPlaceholders_None(t *testing.T) {
	t.Parallel()

	assert.Empty(t, Placeholders("no placeholders here"))
}

func TestResolve_SubstitutesAllReferences(t *testing.T) {
	t.Parallel()

	entries := map[string]string{
		"input":      "plan a trip",
		"gap_report": "missing destination",
	}
	out, err := Resolve("Prompt: {{input}}\nGaps: {{gap_report}}", func(name string) (string, bool) {
		v, ok := entries[name]
		return v, ok
	})
	require.NoError(t, err)
	assert.Equal(t, "Prompt: plan a trip\nGaps: missing destination", out)
}

func TestResolve_MissingEntry(t *testing.T) {
	t.Parallel()

	_, err := Resolve("{{nope}}", func(string) (string, bool) { return "", false })
	require.Error(t, err)
	assert.Contains(t, err.Error(), `"nope"`)
}
