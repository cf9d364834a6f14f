package catalog

import (
	"context"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/net/html"

	"radiograb/internal/broadcast"
	"radiograb/internal/logging"
)

const postscriptSeparator = "__________"

// Enrich fetches the detail page of rec and attaches its description.
// Failures are logged and return the record unenriched, so the catalog info
// is used instead.
func (f *Fetcher) Enrich(ctx context.Context, rec broadcast.Record) broadcast.Enriched {
	url := f.DetailURL(rec.ID)
	body, err := f.client.Text(ctx, url)
	if err != nil {
		logging.WarnWithContext(f.logger, "detail page unavailable", "detail_fetch_failed",
			logging.String(logging.FieldBroadcastID, rec.ID),
			logging.Error(err),
			logging.String(logging.FieldImpact, "catalog info is used as description"),
		)
		return broadcast.Bare(rec)
	}
	text, err := ParseDetail(body)
	if err != nil {
		logging.WarnWithContext(f.logger, "detail page unreadable", "detail_parse_failed",
			logging.String(logging.FieldBroadcastID, rec.ID),
			logging.Error(err),
			logging.String(logging.FieldImpact, "catalog info is used as description"),
		)
		return broadcast.Bare(rec)
	}
	if text == "" {
		f.logger.Debug("detail page has no description", logging.String(logging.FieldBroadcastID, rec.ID))
	}
	return broadcast.Enriched{Record: rec, ExtendedInfo: text}
}

// ParseDetail extracts the description of a detail page: the text of the
// first div.textbox-wide without its first and last paragraph, then a
// separator line and the text of the first div.postarticle. Every text node
// becomes one line; lines are joined with CRLF.
func ParseDetail(page string) (string, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(page))
	if err != nil {
		return "", err
	}

	var lines []string
	paragraphs := doc.Find("div.textbox-wide").First().Find("p")
	if n := paragraphs.Length(); n > 2 {
		paragraphs.Slice(1, n-1).Each(func(_ int, p *goquery.Selection) {
			lines = append(lines, strippedStrings(p)...)
		})
	}
	if post := doc.Find("div.postarticle").First(); post.Length() > 0 {
		lines = append(lines, postscriptSeparator)
		lines = append(lines, strippedStrings(post)...)
	}
	return strings.TrimSpace(strings.Join(lines, "\r\n")), nil
}

// strippedStrings returns every non-blank text node below sel, trimmed, in
// document order.
func strippedStrings(sel *goquery.Selection) []string {
	var out []string
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.TextNode {
			if s := strings.TrimSpace(n.Data); s != "" {
				out = append(out, s)
			}
			return
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	for _, n := range sel.Nodes {
		walk(n)
	}
	return out
}
