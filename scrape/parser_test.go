package scrape

import (
	"os"
	"strings"
	"testing"

	"github.com/PuerkitoBio/goquery"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func fixtureDoc(t *testing.T) *goquery.Document {
	t.Helper()
	data, err := os.ReadFile("testdata/company.html")
	require.NoError(t, err)
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(string(data)))
	require.NoError(t, err)
	return doc
}

func TestParseProfitLoss(t *testing.T) {
	st := parseStatement(fixtureDoc(t), KindProfitLoss)

	require.False(t, st.Empty())
	assert.Equal(t, []string{"Mar 2022", "Mar 2023", "Mar 2024", "TTM"}, st.Periods)

	sales, ok := st.Row("Sales")
	require.True(t, ok, "expand marker should be stripped from the label")
	val, ok := sales.Value("Mar 2024")
	require.True(t, ok)
	assert.Equal(t, "1500", val.String(), "thousands separator should be stripped")

	profit, ok := st.Row("Net Profit")
	require.True(t, ok)
	val, ok = profit.Value("TTM")
	require.True(t, ok)
	assert.Equal(t, "200", val.String())
}

func TestParseBalanceSheetAndCashFlow(t *testing.T) {
	doc := fixtureDoc(t)

	bs := parseStatement(doc, KindBalanceSheet)
	require.False(t, bs.Empty())
	total, ok := bs.Row("Total Assets")
	require.True(t, ok)
	val, ok := total.Value("Mar 2024")
	require.True(t, ok)
	assert.Equal(t, "1050", val.String())

	cf := parseStatement(doc, KindCashFlow)
	require.False(t, cf.Empty())
	investing, ok := cf.Row("Cash from Investing Activity")
	require.True(t, ok)
	val, ok = investing.Value("Mar 2024")
	require.True(t, ok)
	assert.Equal(t, "-90", val.String(), "negative values should keep their sign")
}

func TestParseShareholding(t *testing.T) {
	st := parseStatement(fixtureDoc(t), KindShareholding)

	require.False(t, st.Empty())
	promoters, ok := st.Row("Promoters")
	require.True(t, ok)
	val, ok := promoters.Value("Sep 2024")
	require.True(t, ok)
	assert.Equal(t, "55.1", val.String())
	assert.Equal(t, "55.10%", promoters.Values[1].Raw)
}

func TestMissingSectionParsesEmpty(t *testing.T) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(
		"<html><body><p>quarterly results pending</p></body></html>"))
	require.NoError(t, err)

	for _, kind := range Kinds {
		st := parseStatement(doc, kind)
		assert.True(t, st.Empty(), "kind %s should parse empty, not fail", kind)
	}
	assert.Empty(t, parseAnnouncements(doc, "https://example.com", 5))
}

func TestMangledTableParsesEmpty(t *testing.T) {
	// A table that lost its data rows must not be mistaken for a statement.
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(
		"<html><body><table><tr><th>Sales Net Profit</th></tr></table></body></html>"))
	require.NoError(t, err)

	st := parseStatement(doc, KindProfitLoss)
	assert.True(t, st.Empty())
}

func TestParseAnnouncements(t *testing.T) {
	items := parseAnnouncements(fixtureDoc(t), "https://www.screener.in", 5)

	require.Len(t, items, 3)
	assert.Equal(t, "Board Meeting Intimation", items[0].Title)
	assert.Equal(t, "12 Aug - Outcome attached", items[0].Detail)
	assert.Equal(t, "https://www.screener.in/announcement/1", items[0].URL)

	assert.Equal(t, "Investor Presentation", items[1].Title)
	assert.Equal(t, "https://example.com/deck.pdf", items[1].URL, "absolute links pass through unchanged")

	assert.Equal(t, "Credit Rating Update", items[2].Title)
	assert.Empty(t, items[2].Detail)
}

func TestParseAnnouncementsLimit(t *testing.T) {
	items := parseAnnouncements(fixtureDoc(t), "https://www.screener.in", 2)
	assert.Len(t, items, 2)
}

func TestParseAnnouncementsClassFallback(t *testing.T) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(`
		<html><body>
		<ul class="list announcements">
			<li><a href="/a/1">Dividend Declared - 1 Jul</a></li>
		</ul>
		</body></html>`))
	require.NoError(t, err)

	items := parseAnnouncements(doc, "https://www.screener.in", 5)
	require.Len(t, items, 1)
	assert.Equal(t, "Dividend Declared", items[0].Title)
}
