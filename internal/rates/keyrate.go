package rates

import (
	"bytes"
	"context"
	"strings"
	"time"

	"github.com/pkg/errors"
	"golang.org/x/net/html"
)

// KeyRate is the central bank key interest rate as published on the
// hd_base/KeyRate page.
type KeyRate struct {
	Rate float64
	Date time.Time
}

// KeyRate scrapes the key-rate table and returns the most recent entry
// that is not dated in the future. There is no fallback value: when the
// page is unreachable or changes shape the caller gets an error, never a
// fabricated rate.
func (c *Client) KeyRate(ctx context.Context) (KeyRate, error) {
	body, err := c.get(ctx, c.baseURL+"hd_base/KeyRate/")
	if err != nil {
		return KeyRate{}, errors.Wrap(err, "could not fetch key rate page")
	}

	doc, err := html.Parse(bytes.NewReader(body))
	if err != nil {
		return KeyRate{}, errors.Wrap(err, "could not parse key rate page")
	}

	table := findDataTable(doc)
	if table == nil {
		return KeyRate{}, errors.New("key rate table not found")
	}

	now := time.Now()
	for _, row := range tableRows(table) {
		if len(row) < 2 {
			continue
		}
		date, err := time.Parse("02.01.2006", strings.TrimSpace(row[0]))
		if err != nil || date.After(now) {
			continue
		}
		rate, err := parseCBRFloat(row[1])
		if err != nil {
			continue
		}
		return KeyRate{Rate: rate, Date: date}, nil
	}
	return KeyRate{}, errors.New("no usable key rate rows")
}

// findDataTable locates the first <table class="data"> node.
func findDataTable(n *html.Node) *html.Node {
	if n.Type == html.ElementNode && n.Data == "table" {
		for _, a := range n.Attr {
			if a.Key == "class" && strings.Contains(a.Val, "data") {
				return n
			}
		}
	}
	for child := n.FirstChild; child != nil; child = child.NextSibling {
		if t := findDataTable(child); t != nil {
			return t
		}
	}
	return nil
}

// tableRows extracts the cell texts of every <tr> under the table.
func tableRows(table *html.Node) [][]string {
	var rows [][]string
	var walk func(n *html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.ElementNode && n.Data == "tr" {
			var cells []string
			for c := n.FirstChild; c != nil; c = c.NextSibling {
				if c.Type == html.ElementNode && (c.Data == "td" || c.Data == "th") {
					cells = append(cells, nodeText(c))
				}
			}
			rows = append(rows, cells)
			return
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(table)
	return rows
}

func nodeText(n *html.Node) string {
	var sb strings.Builder
	var walk func(n *html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.TextNode {
			sb.WriteString(n.Data)
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(n)
	return strings.TrimSpace(sb.String())
}
