package document

import (
	"fmt"
	"sort"
	"strings"
)

// DefaultTheme is used for empty or unknown template names.
const DefaultTheme = "default"

// Theme is the palette and typography of one export template.
type Theme struct {
	Background     string
	Text           string
	Heading        string
	Accent         string
	Muted          string
	CodeBackground string
	CodeText       string
	BodyFont       string
	HeadingFont    string
}

var themes = map[string]Theme{
	"default": {
		Background: "#ffffff", Text: "#1f2933", Heading: "#111827", Accent: "#2563eb",
		Muted: "#6b7280", CodeBackground: "#f3f4f6", CodeText: "#111827",
		BodyFont: fontInter, HeadingFont: fontPoppins,
	},
	"professional": {
		Background: "#f8fafc", Text: "#1e293b", Heading: "#0f172a", Accent: "#0f766e",
		Muted: "#475569", CodeBackground: "#e2e8f0", CodeText: "#0f172a",
		BodyFont: fontInter, HeadingFont: fontInter,
	},
	"modern": {
		Background: "#fdfdfd", Text: "#27272a", Heading: "#18181b", Accent: "#7c3aed",
		Muted: "#71717a", CodeBackground: "#f4f4f5", CodeText: "#3f3f46",
		BodyFont: fontInter, HeadingFont: fontPoppins,
	},
	"minimal": {
		Background: "#ffffff", Text: "#333333", Heading: "#000000", Accent: "#000000",
		Muted: "#888888", CodeBackground: "#fafafa", CodeText: "#333333",
		BodyFont: fontInter, HeadingFont: fontInter,
	},
	"creative": {
		Background: "#fff7ed", Text: "#431407", Heading: "#9a3412", Accent: "#ea580c",
		Muted: "#9a3412", CodeBackground: "#ffedd5", CodeText: "#7c2d12",
		BodyFont: fontInter, HeadingFont: fontPoppins,
	},
	"dark": {
		Background: "#0f172a", Text: "#e2e8f0", Heading: "#f8fafc", Accent: "#38bdf8",
		Muted: "#94a3b8", CodeBackground: "#1e293b", CodeText: "#e2e8f0",
		BodyFont: fontInter, HeadingFont: fontPoppins,
	},
	"vibrant": {
		Background: "#fdf4ff", Text: "#3b0764", Heading: "#86198f", Accent: "#db2777",
		Muted: "#a21caf", CodeBackground: "#fae8ff", CodeText: "#581c87",
		BodyFont: fontInter, HeadingFont: fontPoppins,
	},
}

// ResolveTheme maps a requested template name onto a known theme name.
// Matching ignores case and surrounding whitespace.
func ResolveTheme(name string) string {
	name = strings.ToLower(strings.TrimSpace(name))
	if _, ok := themes[name]; ok {
		return name
	}
	return DefaultTheme
}

// ThemeNames returns the known theme names in sorted order.
func ThemeNames() []string {
	names := make([]string, 0, len(themes))
	for name := range themes {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// css renders the theme's rules scoped under ".<name>".
func (t Theme) css(name string) string {
	s := "." + name
	var b strings.Builder
	fmt.Fprintf(&b, "%s { background: %s; color: %s; font-family: %s; }\n", s, t.Background, t.Text, t.BodyFont)
	fmt.Fprintf(&b, "%s h1, %s h2, %s h3, %s h4, %s h5, %s h6 { color: %s; font-family: %s; }\n", s, s, s, s, s, s, t.Heading, t.HeadingFont)
	fmt.Fprintf(&b, "%s h1 { border-bottom: 4px solid %s; padding-bottom: 12px; }\n", s, t.Accent)
	fmt.Fprintf(&b, "%s a { color: %s; }\n", s, t.Accent)
	fmt.Fprintf(&b, "%s strong { color: %s; }\n", s, t.Heading)
	fmt.Fprintf(&b, "%s blockquote { border-left: 6px solid %s; color: %s; margin-left: 0; padding-left: 24px; }\n", s, t.Accent, t.Muted)
	fmt.Fprintf(&b, "%s pre, %s code { background: %s; color: %s; font-family: %s; }\n", s, s, t.CodeBackground, t.CodeText, fontMono)
	fmt.Fprintf(&b, "%s pre { padding: 20px; border-radius: 12px; }\n", s)
	fmt.Fprintf(&b, "%s table { border-collapse: collapse; width: 100%%; }\n", s)
	fmt.Fprintf(&b, "%s th, %s td { border: 1px solid %s; padding: 8px 12px; }\n", s, s, t.Muted)
	fmt.Fprintf(&b, "%s th { background: %s; color: %s; }\n", s, t.Accent, t.Background)
	return b.String()
}
