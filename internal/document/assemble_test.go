package document

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testFonts = NewFontSet("/srv/geniuspost/static/fonts")

func TestAssemble_Deterministic(t *testing.T) {
	content := "<h1>Photosynthesis</h1><p>Plants turn light into sugar.</p>"
	styles := ".geniuspost-page h1 { letter-spacing: 2px; }"

	first := Assemble(content, "modern", styles, testFonts)
	second := Assemble(content, "modern", styles, testFonts)

	assert.Equal(t, first, second)
}

func TestAssemble_Structure(t *testing.T) {
	styles := "/* captured */ .custom { color: red; }"
	doc := Assemble("<p>hi</p>", "dark", styles, testFonts)

	order := []string{
		"@font-face",
		"@page {",
		"@page :first",
		"break-inside: avoid",
		".dark {",
		styles,
		`<div class="geniuspost-page dark"><p>hi</p></div>`,
	}
	last := -1
	for _, marker := range order {
		idx := strings.Index(doc, marker)
		require.NotEqual(t, -1, idx, "missing %q", marker)
		assert.Greater(t, idx, last, "%q out of order", marker)
		last = idx
	}

	assert.Contains(t, doc, "size: 1080px 1350px")
	assert.Contains(t, doc, "orphans: 3; widows: 3")
	assert.Contains(t, doc, `url("file:///srv/geniuspost/static/fonts/Inter-Regular.ttf")`)
	assert.Contains(t, doc, `url("file:///srv/geniuspost/static/fonts/JetBrainsMono-Regular.ttf")`)
	assert.True(t, strings.HasPrefix(doc, "<!DOCTYPE html>"))
}

func TestAssemble_StylesLastInStylesheet(t *testing.T) {
	styles := ".dark h1 { color: hotpink; }"
	doc := Assemble("", "dark", styles, testFonts)

	assert.True(t, strings.Contains(doc, styles+"\n</style>"))
}

func TestAssemble_UnknownThemeFallsBack(t *testing.T) {
	unknown := Assemble("<p>hi</p>", "unknown-theme", "", testFonts)
	def := Assemble("<p>hi</p>", "default", "", testFonts)

	assert.Equal(t, def, unknown)
	assert.Contains(t, unknown, `class="geniuspost-page default"`)
}

func TestResolveTheme(t *testing.T) {
	tests := map[string]string{
		"default":       "default",
		"Professional":  "professional",
		"  VIBRANT ":    "vibrant",
		"creative":      "creative",
		"":              DefaultTheme,
		"unknown-theme": DefaultTheme,
		"dark;}body{":   DefaultTheme,
	}
	for in, want := range tests {
		assert.Equal(t, want, ResolveTheme(in), "ResolveTheme(%q)", in)
	}
}

func TestThemeNames(t *testing.T) {
	assert.Equal(t,
		[]string{"creative", "dark", "default", "minimal", "modern", "professional", "vibrant"},
		ThemeNames())
}

func TestThemeCSSIsScoped(t *testing.T) {
	for _, name := range ThemeNames() {
		css := themes[name].css(name)
		for _, line := range strings.Split(strings.TrimSpace(css), "\n") {
			assert.True(t, strings.HasPrefix(line, "."+name+" "), "unscoped rule in %s: %s", name, line)
		}
	}
}

func TestFontSet_Missing(t *testing.T) {
	dir := t.TempDir()
	fonts := NewFontSet(dir)

	assert.Len(t, fonts.Missing(), 4)
	assert.Equal(t, fonts.Paths(), fonts.Missing())
}
