package templaterender

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRenderMissingKey(t *testing.T) {
	out, err := Render(MustParse("missing", "[{{.Missing}}]"), map[string]string{})
	require.NoError(t, err)
	assert.Equal(t, "[]", out)
}

func TestMustParsePanicsOnSyntaxError(t *testing.T) {
	assert.Panics(t, func() { MustParse("bad", "{{if}}") })
}

func TestRenderParsed(t *testing.T) {
	tpl := MustParse("greet", "{{.A}}-{{.B}}")
	out, err := Render(tpl, struct{ A, B string }{"x", "y"})
	require.NoError(t, err)
	assert.Equal(t, "x-y", out)
}
