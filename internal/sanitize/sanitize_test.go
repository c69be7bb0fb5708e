package sanitize

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDisplay(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{"plain text untouched", "What is your favorite color?", "What is your favorite color?"},
		{"trims whitespace", "  hello  ", "hello"},
		{"empty input", "", ""},
		{"strips tags", "<b>bold</b> move", "bold move"},
		{"strips script tag", "<script>alert(1)</script>hello", "alert(1)hello"},
		{"strips javascript proto", "javascript:alert(1)", "alert(1)"},
		{"strips mixed-case javascript proto", "JaVaScRiPt:alert(1)", "alert(1)"},
		{"strips event handler", `x onclick=steal() y`, "x steal() y"},
		{"encodes quotes", `say "hi" & 'bye'`, "say &quot;hi&quot; &amp; &#39;bye&#39;"},
		{"encodes stray angle bracket", "1 < 2", "1 &lt; 2"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Display(tt.input))
		})
	}
}

func TestDisplayNeutralizesScriptPayload(t *testing.T) {
	out := Display("<script>alert(1)</script>hello")
	assert.NotContains(t, out, "<script>")
	assert.NotContains(t, out, "javascript:")
	assert.NotContains(t, out, "<")
	assert.NotContains(t, out, ">")
	assert.Contains(t, out, "hello")
}

func TestSlug(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{"keeps safe charset", "best_pizza v2.0 - final", "best_pizza v2.0 - final"},
		{"deletes dangerous chars", `a<b>"c"&d`, "acd"},
		{"deletes script entirely", "<script>x=1</script>ok", "x1ok"},
		{"unicode removed", "café vote", "caf vote"},
		{"empty input", "", ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Slug(tt.input))
		})
	}
}

func TestIsSafe(t *testing.T) {
	assert.True(t, IsSafe("just a question"))
	assert.True(t, IsSafe("math: 1 < 2"))
	assert.False(t, IsSafe("<script>alert(1)</script>"))
	assert.False(t, IsSafe("< SCRIPT >x"))
	assert.False(t, IsSafe("javascript:void(0)"))
	assert.False(t, IsSafe(`<img onerror=hack()>`))
	assert.False(t, IsSafe("<iframe src=x>"))
	assert.False(t, IsSafe("<meta http-equiv=refresh>"))
	assert.False(t, IsSafe("<embed src=x>"))
	assert.False(t, IsSafe("<object data=x>"))
	assert.False(t, IsSafe("<link rel=stylesheet>"))
}
