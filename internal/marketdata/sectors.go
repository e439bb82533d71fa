package marketdata

import (
	"context"
	"fmt"
	"io"
	"sort"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/apexquant/topoarb/pkg/httputil"
	"github.com/apexquant/topoarb/pkg/logger"
)

// DefaultConstituentsURL lists S&P 500 members with their GICS sector.
const DefaultConstituentsURL = "https://en.wikipedia.org/wiki/List_of_S%26P_500_companies"

// SectorClient resolves index membership into symbol -> sector pairs so
// a strategy can select its universe by sector name.
type SectorClient struct {
	http *httputil.Client
	url  string
	log  *logger.Logger
}

// NewSectorClient creates a client against a constituents page URL.
// An empty url falls back to DefaultConstituentsURL.
func NewSectorClient(http *httputil.Client, url string, log *logger.Logger) *SectorClient {
	if url == "" {
		url = DefaultConstituentsURL
	}
	return &SectorClient{http: http, url: url, log: log}
}

// Fetch downloads and parses the constituents table.
func (c *SectorClient) Fetch(ctx context.Context) (map[string]string, error) {
	resp, err := c.http.Get(ctx, c.url)
	if err != nil {
		return nil, fmt.Errorf("fetch constituents: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != 200 {
		return nil, fmt.Errorf("fetch constituents: status %d", resp.StatusCode)
	}

	sectors, err := ParseConstituents(resp.Body)
	if err != nil {
		return nil, err
	}

	c.log.WithField("symbols", len(sectors)).Debug("Fetched sector membership")
	return sectors, nil
}

// ParseConstituents extracts symbol -> GICS sector from the first
// constituents table of the page. Dotted share classes (BRK.B) are
// normalized to the dashed form the chart API expects.
func ParseConstituents(r io.Reader) (map[string]string, error) {
	doc, err := goquery.NewDocumentFromReader(r)
	if err != nil {
		return nil, fmt.Errorf("parse constituents: %w", err)
	}

	table := doc.Find("table#constituents")
	if table.Length() == 0 {
		table = doc.Find("table.wikitable").First()
	}
	if table.Length() == 0 {
		return nil, fmt.Errorf("parse constituents: no table found")
	}

	// Column layout: Symbol | Security | GICS Sector | ...
	sectors := make(map[string]string)
	table.Find("tbody tr").Each(func(i int, row *goquery.Selection) {
		cells := row.Find("td")
		if cells.Length() < 3 {
			return
		}
		symbol := strings.TrimSpace(cells.Eq(0).Text())
		sector := strings.TrimSpace(cells.Eq(2).Text())
		if symbol == "" || sector == "" {
			return
		}
		symbol = strings.ReplaceAll(symbol, ".", "-")
		sectors[symbol] = sector
	})

	if len(sectors) == 0 {
		return nil, fmt.Errorf("parse constituents: no rows parsed")
	}
	return sectors, nil
}

// BySector groups a membership map into sector -> sorted symbols.
func BySector(sectors map[string]string) map[string][]string {
	groups := make(map[string][]string)
	for sym, sec := range sectors {
		groups[sec] = append(groups[sec], sym)
	}
	for sec := range groups {
		sort.Strings(groups[sec])
	}
	return groups
}

// SectorSymbols returns the sorted symbols of one sector, matched
// case-insensitively.
func SectorSymbols(sectors map[string]string, sector string) []string {
	var out []string
	for sym, sec := range sectors {
		if strings.EqualFold(sec, sector) {
			out = append(out, sym)
		}
	}
	sort.Strings(out)
	return out
}
