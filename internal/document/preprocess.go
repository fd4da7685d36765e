package document

import (
	"fmt"
	"html"
	"math"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/PuerkitoBio/goquery"
	nethtml "golang.org/x/net/html"
)

// Pagination thresholds, in characters and lines.
const (
	LongParagraphChars  = 800
	SplitParagraphChars = 1200
	LongListItems       = 8
	ListBreakEvery      = 7
	LongCodeChars       = 1000
	LongCodeLines       = 25
	CodeChunkLines      = 20
	HeadingBreakEvery   = 3
)

// Marker classes emitted by Preprocess and styled by Assemble.
const (
	ClassLongContent      = "long-content"
	ClassSoftPageBreak    = "soft-page-break"
	ClassCodeSpacer       = "code-spacer"
	ClassBreakOpportunity = "break-opportunity"
)

// Preprocess rewrites an HTML fragment so long content paginates well.
// When no rule applies the input is returned unchanged, byte for byte. On
// a parse failure or panic the input is returned unchanged together with
// the error, so the caller can log it and carry on.
func Preprocess(fragment string) (out string, err error) {
	defer func() {
		if r := recover(); r != nil {
			out, err = fragment, fmt.Errorf("document: preprocessing panicked: %v", r)
		}
	}()

	doc, err := goquery.NewDocumentFromReader(strings.NewReader("<html><body>" + fragment + "</body></html>"))
	if err != nil {
		return fragment, fmt.Errorf("document: parsing fragment: %w", err)
	}

	changed := false
	for _, rule := range []func(*goquery.Document) bool{
		splitLongParagraphs,
		breakLongLists,
		splitLongCode,
		markHeadingBreaks,
		removeEmptyContent,
	} {
		if rule(doc) {
			changed = true
		}
	}
	if !changed {
		return fragment, nil
	}

	result, err := doc.Find("body").Html()
	if err != nil {
		return fragment, fmt.Errorf("document: rendering fragment: %w", err)
	}
	return result, nil
}

func textLen(s string) int {
	return utf8.RuneCountInString(s)
}

func markerHTML(class string) string {
	return `<div class="` + class + `"></div>`
}

// splitLongParagraphs tags long paragraphs and splits very long ones into
// two halves at sentence boundaries. Inline markup and images stay in the
// half their position falls into.
func splitLongParagraphs(doc *goquery.Document) bool {
	changed := false
	doc.Find("p").Each(func(_ int, p *goquery.Selection) {
		text := p.Text()
		n := textLen(text)
		if n <= LongParagraphChars {
			return
		}
		p.AddClass(ClassLongContent)
		changed = true

		if n <= SplitParagraphChars {
			return
		}
		spans := sentenceSpans([]rune(text))
		if len(spans) < 2 {
			return
		}
		cut := spans[len(spans)/2][0]

		first, second := p.Clone(), p.Clone()
		keepRunes(first.Get(0), 0, cut)
		keepRunes(second.Get(0), cut, math.MaxInt)
		trimEdges(first.Get(0))
		trimEdges(second.Get(0))
		p.ReplaceWithNodes(first.Get(0), second.Get(0))
	})
	return changed
}

// sentenceSpans returns the [start, end) rune offsets of each sentence in
// text. A sentence ends after '.', '!' or '?' followed by whitespace.
// Spans exclude surrounding whitespace.
func sentenceSpans(text []rune) [][2]int {
	var spans [][2]int
	add := func(start, end int) {
		for start < end && unicode.IsSpace(text[start]) {
			start++
		}
		for end > start && unicode.IsSpace(text[end-1]) {
			end--
		}
		if start < end {
			spans = append(spans, [2]int{start, end})
		}
	}
	start := 0
	for i := 0; i < len(text)-1; i++ {
		switch text[i] {
		case '.', '!', '?':
			if unicode.IsSpace(text[i+1]) {
				add(start, i+1)
				start = i + 1
			}
		}
	}
	add(start, len(text))
	return spans
}

// splitSentences returns the trimmed sentences of text. Joining them with
// single spaces rebuilds the text with normalized inter-sentence spacing.
func splitSentences(text string) []string {
	runes := []rune(text)
	var sentences []string
	for _, sp := range sentenceSpans(runes) {
		sentences = append(sentences, string(runes[sp[0]:sp[1]]))
	}
	return sentences
}

// keepRunes trims the subtree of root to the text between rune offsets
// from and to, counted over its text nodes in document order. Childless
// elements such as img and br stay when their position is inside the
// range. Elements left without children are removed.
func keepRunes(root *nethtml.Node, from, to int) {
	offset := 0
	var walk func(n *nethtml.Node)
	walk = func(n *nethtml.Node) {
		for c := n.FirstChild; c != nil; {
			next := c.NextSibling
			switch c.Type {
			case nethtml.TextNode:
				r := []rune(c.Data)
				lo, hi := offset, offset+len(r)
				offset = hi
				if a, b := max(lo, from), min(hi, to); a < b {
					c.Data = string(r[a-lo : b-lo])
				} else {
					n.RemoveChild(c)
				}
			case nethtml.ElementNode:
				if c.FirstChild == nil {
					if offset < from || offset >= to {
						n.RemoveChild(c)
					}
				} else {
					walk(c)
					if c.FirstChild == nil {
						n.RemoveChild(c)
					}
				}
			}
			c = next
		}
	}
	walk(root)
}

// trimEdges strips leading whitespace from the first text node under root
// and trailing whitespace from the last one.
func trimEdges(root *nethtml.Node) {
	var texts []*nethtml.Node
	var walk func(n *nethtml.Node)
	walk = func(n *nethtml.Node) {
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			if c.Type == nethtml.TextNode {
				texts = append(texts, c)
			}
			walk(c)
		}
	}
	walk(root)
	if len(texts) == 0 {
		return
	}
	texts[0].Data = strings.TrimLeftFunc(texts[0].Data, unicode.IsSpace)
	last := texts[len(texts)-1]
	last.Data = strings.TrimRightFunc(last.Data, unicode.IsSpace)
}

// breakLongLists inserts a soft page break before items 7, 14, 21, ... of
// any list with more than LongListItems items.
func breakLongLists(doc *goquery.Document) bool {
	changed := false
	doc.Find("ul, ol").Each(func(_ int, list *goquery.Selection) {
		items := list.ChildrenFiltered("li")
		if items.Length() <= LongListItems {
			return
		}
		for i := ListBreakEvery - 1; i < items.Length(); i += ListBreakEvery {
			items.Eq(i).BeforeHtml(markerHTML(ClassSoftPageBreak))
			changed = true
		}
	})
	return changed
}

// splitLongCode replaces long pre blocks with CodeChunkLines-line chunks
// separated by spacers. The language class of the inner code element is
// kept on every chunk. One trailing newline, as markdown converters emit
// before </code>, is not a line.
func splitLongCode(doc *goquery.Document) bool {
	changed := false
	doc.Find("pre").Each(func(_ int, pre *goquery.Selection) {
		text := pre.Text()
		lines := strings.Split(strings.TrimSuffix(text, "\n"), "\n")
		if textLen(text) <= LongCodeChars || len(lines) <= LongCodeLines {
			return
		}

		codeClass := pre.Find("code").First().AttrOr("class", "")
		open := "<pre><code>"
		if codeClass != "" {
			open = `<pre><code class="` + html.EscapeString(codeClass) + `">`
		}

		var b strings.Builder
		chunks := 0
		for start := 0; start < len(lines); start += CodeChunkLines {
			chunk := strings.Join(lines[start:min(start+CodeChunkLines, len(lines))], "\n")
			if strings.TrimSpace(chunk) == "" {
				continue
			}
			if chunks > 0 {
				b.WriteString(markerHTML(ClassCodeSpacer))
			}
			b.WriteString(open)
			b.WriteString(html.EscapeString(chunk))
			b.WriteString("</code></pre>")
			chunks++
		}
		pre.ReplaceWithHtml(b.String())
		changed = true
	})
	return changed
}

// markHeadingBreaks puts a zero-height marker before every third heading
// in document order.
func markHeadingBreaks(doc *goquery.Document) bool {
	changed := false
	doc.Find("h1, h2, h3, h4, h5, h6").Each(func(i int, h *goquery.Selection) {
		if (i+1)%HeadingBreakEvery == 0 {
			h.BeforeHtml(markerHTML(ClassBreakOpportunity))
			changed = true
		}
	})
	return changed
}

// removeEmptyContent collapses runs of <br> and drops paragraphs that have
// neither text nor an image.
func removeEmptyContent(doc *goquery.Document) bool {
	changed := false
	doc.Find("br").Each(func(_ int, br *goquery.Selection) {
		if prev := previousElement(br.Get(0)); prev != nil && prev.Data == "br" {
			br.Remove()
			changed = true
		}
	})
	doc.Find("p").Each(func(_ int, p *goquery.Selection) {
		if strings.TrimSpace(p.Text()) == "" && p.Find("img").Length() == 0 {
			p.Remove()
			changed = true
		}
	})
	return changed
}

// previousElement returns the previous sibling element of n, skipping
// whitespace-only text and comments. It returns nil when non-blank text
// separates them.
func previousElement(n *nethtml.Node) *nethtml.Node {
	for prev := n.PrevSibling; prev != nil; prev = prev.PrevSibling {
		switch prev.Type {
		case nethtml.ElementNode:
			return prev
		case nethtml.TextNode:
			if strings.TrimSpace(prev.Data) != "" {
				return nil
			}
		}
	}
	return nil
}
