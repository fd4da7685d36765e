// Package document turns an authored HTML fragment into the standalone HTML
// document handed to the PDF engine.
package document

import (
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strings"
)

// Page canvas: one social-media slide per page.
const (
	PageWidthPx          = 1080
	PageHeightPx         = 1350
	FirstPageFooterPx    = 96
	BaseClass            = "geniuspost-page"
	footerText           = "Made with GeniusPost"
	fontFamilyInter      = "Inter"
	fontFamilyPoppins    = "Poppins"
	fontFamilyMono       = "JetBrains Mono"
	fontInter            = `"Inter", "Helvetica Neue", Arial, sans-serif`
	fontPoppins          = `"Poppins", "Inter", Arial, sans-serif`
	fontMono             = `"JetBrains Mono", "DejaVu Sans Mono", monospace`
	fontFileInterRegular = "Inter-Regular.ttf"
	fontFileInterBold    = "Inter-Bold.ttf"
	fontFilePoppinsSemi  = "Poppins-SemiBold.ttf"
	fontFileMono         = "JetBrainsMono-Regular.ttf"
)

// FontSet holds the resolved paths of the embedded fonts.
type FontSet struct {
	InterRegular    string
	InterBold       string
	PoppinsSemiBold string
	JetBrainsMono   string
}

// NewFontSet resolves the fixed font files inside dir.
func NewFontSet(dir string) FontSet {
	if abs, err := filepath.Abs(dir); err == nil {
		dir = abs
	}
	return FontSet{
		InterRegular:    filepath.Join(dir, fontFileInterRegular),
		InterBold:       filepath.Join(dir, fontFileInterBold),
		PoppinsSemiBold: filepath.Join(dir, fontFilePoppinsSemi),
		JetBrainsMono:   filepath.Join(dir, fontFileMono),
	}
}

// Paths lists every font file in the set.
func (f FontSet) Paths() []string {
	return []string{f.InterRegular, f.InterBold, f.PoppinsSemiBold, f.JetBrainsMono}
}

// Missing returns the font files that do not exist on disk. The engine
// falls back to system fonts for these, so callers only log them.
func (f FontSet) Missing() []string {
	var missing []string
	for _, p := range f.Paths() {
		if _, err := os.Stat(p); err != nil {
			missing = append(missing, p)
		}
	}
	return missing
}

func fileURL(path string) string {
	u := url.URL{Scheme: "file", Path: filepath.ToSlash(path)}
	return u.String()
}

// Assemble builds the complete HTML document for the PDF engine. It reads
// nothing but its arguments, so equal inputs give byte-identical output.
//
// The stylesheet is emitted in a fixed order: font faces, page geometry,
// pagination rules, theme rules and finally styles, so caller-supplied CSS
// wins over everything built in.
func Assemble(content, templateName, styles string, fonts FontSet) string {
	name := ResolveTheme(templateName)
	theme := themes[name]

	var b strings.Builder
	b.Grow(len(content) + len(styles) + 8192)

	b.WriteString("<!DOCTYPE html>\n<html>\n<head>\n<meta charset=\"utf-8\">\n")
	b.WriteString("<title>GeniusPost</title>\n<style>\n")
	writeFontFaces(&b, fonts)
	writePageRules(&b)
	b.WriteString(paginationCSS)
	b.WriteString(theme.css(name))
	b.WriteString(styles)
	b.WriteString("\n</style>\n</head>\n<body>\n")
	fmt.Fprintf(&b, "<div class=\"%s %s\">", BaseClass, name)
	b.WriteString(content)
	b.WriteString("</div>\n</body>\n</html>\n")

	return b.String()
}

func writeFontFaces(b *strings.Builder, fonts FontSet) {
	faces := []struct {
		family string
		weight int
		path   string
	}{
		{fontFamilyInter, 400, fonts.InterRegular},
		{fontFamilyInter, 700, fonts.InterBold},
		{fontFamilyPoppins, 600, fonts.PoppinsSemiBold},
		{fontFamilyMono, 400, fonts.JetBrainsMono},
	}
	for _, f := range faces {
		fmt.Fprintf(b, "@font-face { font-family: %q; font-weight: %d; font-style: normal; src: url(%q) format(\"truetype\"); }\n",
			f.family, f.weight, fileURL(f.path))
	}
}

func writePageRules(b *strings.Builder) {
	fmt.Fprintf(b, "@page { size: %dpx %dpx; margin: 0; }\n", PageWidthPx, PageHeightPx)
	fmt.Fprintf(b, "@page :first { margin-bottom: %dpx; @bottom-center { content: %q; font-family: %s; font-size: 18px; color: #6b7280; } }\n",
		FirstPageFooterPx, footerText, fontInter)
}

const paginationCSS = `html, body { margin: 0; padding: 0; }
.geniuspost-page { box-sizing: border-box; min-height: 100%; padding: 72px 80px; font-size: 28px; line-height: 1.5; }
.geniuspost-page img { max-width: 100%; height: auto; }
h1, h2, h3, h4, h5, h6 { break-inside: avoid; break-after: avoid; page-break-inside: avoid; page-break-after: avoid; }
table, figure, img, pre { break-inside: avoid; page-break-inside: avoid; }
p, ul, ol { break-inside: auto; orphans: 3; widows: 3; }
li { break-inside: avoid; }
.long-content { break-inside: auto; orphans: 2; widows: 2; }
.soft-page-break { height: 0; break-before: auto; }
.code-spacer { height: 16px; }
.break-opportunity { height: 0; margin: 0; padding: 0; break-before: auto; }
`
