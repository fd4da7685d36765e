package document

import (
	"fmt"
	"strings"
	"testing"

	"github.com/PuerkitoBio/goquery"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func parseFragment(t *testing.T, fragment string) *goquery.Document {
	t.Helper()
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(fragment))
	require.NoError(t, err)
	return doc
}

func preprocess(t *testing.T, fragment string) string {
	t.Helper()
	out, err := Preprocess(fragment)
	require.NoError(t, err)
	return out
}

// sentencesOfLength builds n sentences that together exceed minChars.
func sentencesOfLength(n, minChars int) []string {
	filler := strings.Repeat("lorem ipsum ", minChars/(n*12)+1)
	sentences := make([]string, n)
	for i := range sentences {
		sentences[i] = fmt.Sprintf("Sentence %d says %s.", i+1, strings.TrimSpace(filler))
	}
	return sentences
}

func TestPreprocess_ShortInputUnchanged(t *testing.T) {
	inputs := []string{
		"",
		"plain text",
		"<p>hi</p>",
		`<h1>Title</h1><p class='lead'>Intro<br>second line</p><ul><li>a</li><li>b</li></ul>`,
		"<h2>One</h2><h3>Two</h3><pre><code>x := 1</code></pre>",
		`<p><img src=data:image/png;base64,AAAA></p>`,
		"<P>Upper-case tags</P>",
	}
	for _, in := range inputs {
		assert.Equal(t, in, preprocess(t, in))
	}
}

func TestPreprocess_TagsLongParagraph(t *testing.T) {
	text := strings.Repeat("a", LongParagraphChars+1)
	out := preprocess(t, "<p>"+text+"</p>")

	doc := parseFragment(t, out)
	p := doc.Find("p")
	require.Equal(t, 1, p.Length())
	assert.True(t, p.HasClass(ClassLongContent))
	assert.Equal(t, text, p.Text())
}

func TestPreprocess_SplitsVeryLongParagraph(t *testing.T) {
	sentences := sentencesOfLength(5, SplitParagraphChars+100)
	original := strings.Join(sentences, " ")
	require.Greater(t, len(original), SplitParagraphChars)

	out := preprocess(t, "<p>"+original+"</p>")

	doc := parseFragment(t, out)
	paragraphs := doc.Find("p")
	require.Equal(t, 2, paragraphs.Length())
	paragraphs.Each(func(_ int, p *goquery.Selection) {
		assert.True(t, p.HasClass(ClassLongContent))
	})

	first := paragraphs.Eq(0).Text()
	second := paragraphs.Eq(1).Text()
	assert.Equal(t, original, first+" "+second)
	assert.Equal(t, strings.Join(sentences[:2], " "), first)
}

func TestPreprocess_LongParagraphWithOneSentenceIsNotSplit(t *testing.T) {
	text := strings.Repeat("word ", SplitParagraphChars/4)
	out := preprocess(t, "<p>"+text+"</p>")

	doc := parseFragment(t, out)
	assert.Equal(t, 1, doc.Find("p").Length())
	assert.True(t, doc.Find("p").HasClass(ClassLongContent))
}

func TestPreprocess_SplitEscapesText(t *testing.T) {
	sentences := sentencesOfLength(4, SplitParagraphChars+100)
	sentences[0] = "Use <script> & friends carefully."
	out := preprocess(t, "<p>"+strings.ReplaceAll(strings.Join(sentences, " "), "<script>", "&lt;script&gt;")+"</p>")

	assert.NotContains(t, out, "<script>")
	doc := parseFragment(t, out)
	assert.Contains(t, doc.Find("p").First().Text(), "<script> & friends")
}

func TestPreprocess_SplitKeepsInlineMarkup(t *testing.T) {
	sentences := sentencesOfLength(4, SplitParagraphChars+100)
	in := "<p>" + `<a href="https://example.com">` + sentences[0] + "</a> <em>" + sentences[1] +
		` <img src="a.png">` + sentences[2] + "</em> " + sentences[3] + "</p>"

	doc := parseFragment(t, preprocess(t, in))
	paragraphs := doc.Find("p")
	require.Equal(t, 2, paragraphs.Length())
	first, second := paragraphs.Eq(0), paragraphs.Eq(1)

	assert.Equal(t, strings.Join(sentences[:2], " "), first.Text())
	assert.Equal(t, strings.Join(sentences[2:], " "), second.Text())

	link := first.Find("a")
	require.Equal(t, 1, link.Length())
	assert.Equal(t, "https://example.com", link.AttrOr("href", ""))
	assert.Equal(t, sentences[0], link.Text())
	assert.Equal(t, sentences[1], first.Find("em").Text())

	// The emphasis spans the cut, so both halves carry a part of it.
	assert.Equal(t, sentences[2], second.Find("em").Text())
	assert.Equal(t, 0, first.Find("img").Length())
	assert.Equal(t, "a.png", second.Find("em img").AttrOr("src", ""))
	assert.Equal(t, 0, second.Find("a").Length())
}

func TestSplitSentences(t *testing.T) {
	tests := []struct {
		in   string
		want []string
	}{
		{"One. Two! Three? Four", []string{"One.", "Two!", "Three?", "Four"}},
		{"  Spaced.   Out.  ", []string{"Spaced.", "Out."}},
		{"Version 1.2 is out. Yes.", []string{"Version 1.2 is out.", "Yes."}},
		{"No boundary", []string{"No boundary"}},
		{"", nil},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, splitSentences(tt.in), "splitSentences(%q)", tt.in)
	}
}

func listHTML(n int) string {
	var b strings.Builder
	b.WriteString("<ol>")
	for i := 1; i <= n; i++ {
		fmt.Fprintf(&b, "<li>item %d</li>", i)
	}
	b.WriteString("</ol>")
	return b.String()
}

func TestPreprocess_LongListBreaks(t *testing.T) {
	tests := []struct {
		items      int
		wantBreaks []string // text of the item following each break
	}{
		{items: 8, wantBreaks: nil},
		{items: 9, wantBreaks: []string{"item 7"}},
		{items: 15, wantBreaks: []string{"item 7", "item 14"}},
		{items: 21, wantBreaks: []string{"item 7", "item 14", "item 21"}},
	}
	for _, tt := range tests {
		t.Run(fmt.Sprintf("%d items", tt.items), func(t *testing.T) {
			in := listHTML(tt.items)
			out := preprocess(t, in)
			if tt.wantBreaks == nil {
				assert.Equal(t, in, out)
				return
			}

			doc := parseFragment(t, out)
			var got []string
			doc.Find("." + ClassSoftPageBreak).Each(func(_ int, s *goquery.Selection) {
				got = append(got, s.Next().Text())
			})
			assert.Equal(t, tt.wantBreaks, got)
			assert.Equal(t, tt.items, doc.Find("li").Length())
		})
	}
}

func codeLines(n, width int) string {
	lines := make([]string, n)
	for i := range lines {
		lines[i] = fmt.Sprintf("line%03d %s", i+1, strings.Repeat("x", width))
	}
	return strings.Join(lines, "\n")
}

func TestPreprocess_SplitsLongCode(t *testing.T) {
	code := codeLines(45, 40)
	out := preprocess(t, `<pre><code class="language-go">`+code+`</code></pre>`)

	doc := parseFragment(t, out)
	blocks := doc.Find("pre")
	require.Equal(t, 3, blocks.Length())
	assert.Equal(t, 2, doc.Find("."+ClassCodeSpacer).Length())

	var rebuilt []string
	blocks.Each(func(i int, pre *goquery.Selection) {
		c := pre.Find("code")
		assert.Equal(t, "language-go", c.AttrOr("class", ""))
		rebuilt = append(rebuilt, c.Text())
	})
	assert.Equal(t, 20, strings.Count(rebuilt[0], "\n")+1)
	assert.Equal(t, 5, strings.Count(rebuilt[2], "\n")+1)
	assert.Equal(t, code, strings.Join(rebuilt, "\n"))
}

func TestPreprocess_CodeTrailingNewlineIsNotALine(t *testing.T) {
	code := codeLines(40, 40) + "\n"
	out := preprocess(t, "<pre><code>"+code+"</code></pre>")

	doc := parseFragment(t, out)
	blocks := doc.Find("pre")
	require.Equal(t, 2, blocks.Length())
	assert.Equal(t, 1, doc.Find("."+ClassCodeSpacer).Length())
	blocks.Each(func(_ int, pre *goquery.Selection) {
		assert.NotEmpty(t, strings.TrimSpace(pre.Text()))
		assert.Equal(t, 20, strings.Count(pre.Text(), "\n")+1)
	})

	// 25 lines plus the trailing newline is still at the threshold.
	atThreshold := "<pre><code>" + codeLines(LongCodeLines, 60) + "\n</code></pre>"
	assert.Equal(t, atThreshold, preprocess(t, atThreshold))
}

func TestPreprocess_CodeNeedsBothLengthAndLines(t *testing.T) {
	manyShortLines := "<pre><code>" + codeLines(40, 1) + "</code></pre>"
	fewLongLines := "<pre><code>" + codeLines(10, 200) + "</code></pre>"

	assert.Equal(t, manyShortLines, preprocess(t, manyShortLines))
	assert.Equal(t, fewLongLines, preprocess(t, fewLongLines))
}

func TestPreprocess_HeadingBreakOpportunities(t *testing.T) {
	in := "<h1>1</h1><h2>2</h2><h3>3</h3><p>x</p><h2>4</h2><h4>5</h4><h6>6</h6><h5>7</h5>"
	out := preprocess(t, in)

	doc := parseFragment(t, out)
	var before []string
	doc.Find("." + ClassBreakOpportunity).Each(func(_ int, s *goquery.Selection) {
		before = append(before, s.Next().Text())
	})
	assert.Equal(t, []string{"3", "6"}, before)
}

func TestPreprocess_CollapsesBreaksAndDropsEmptyParagraphs(t *testing.T) {
	in := "<p>one<br><br>\n <br>two<br>three</p><p>  </p><p><img src=\"a.png\"></p><p></p>"
	out := preprocess(t, in)

	doc := parseFragment(t, out)
	assert.Equal(t, 2, doc.Find("br").Length())
	assert.Equal(t, 2, doc.Find("p").Length())
	assert.Equal(t, 1, doc.Find("p img").Length())
}
