package mse

import (
	"bytes"
	"context"
	"sort"
	"strings"

	"mse-harvester/src/helpers"
	"mse-harvester/src/interfaces"
	"mse-harvester/src/logger"
	"mse-harvester/src/models"

	"golang.org/x/net/html"
)

// DOM anchors on the mse.mk symbol-history pages.
const (
	publisherSelectID = "Code"
	resultsTableID    = "resultsTable"
)

// -----------------------------------------------------------------------------

// MSESource scrapes publisher codes and per-publisher session history
// from the exchange's symbol-history pages.
type MSESource struct {
	Config  *models.MConfig
	Network interfaces.INetworkManager
	Logger  *logger.Logger
}

// -----------------------------------------------------------------------------

func NewMSESource(cfg *models.MConfig, netMgr interfaces.INetworkManager) *MSESource {
	return &MSESource{
		Config:  cfg,
		Network: netMgr,
		Logger:  logger.NewLogger(cfg.LogLevel, "MSESource"),
	}
}

// -----------------------------------------------------------------------------

func (s *MSESource) Name() string {
	return "mse"
}

// -----------------------------------------------------------------------------

// DiscoverPublishers downloads the listing page and extracts the
// publisher codes from the symbol dropdown. Only purely alphabetic
// codes are kept (numeric and special-character codes are bonds and
// other instruments this harvester does not track).
func (s *MSESource) DiscoverPublishers(ctx context.Context) ([]string, error) {
	listingUrl := s.Config.Source.BaseURL + "/" + s.Config.Source.ListingCode

	body, err := s.Network.Get(ctx, listingUrl, nil)
	if err != nil {
		return nil, helpers.NewNetworkError("failed to retrieve listing page", err)
	}

	doc, err := html.Parse(bytes.NewReader(body))
	if err != nil {
		return nil, helpers.NewDataSourceError("failed to parse listing page", err)
	}

	dropdown := findByID(doc, "select", publisherSelectID)
	if dropdown == nil {
		s.Logger.Warning("Publisher dropdown not found on listing page")
		return nil, nil
	}

	seen := make(map[string]struct{})
	var codes []string
	for _, option := range findAll(dropdown, "option") {
		code := attrValue(option, "value")
		if code == "" || !isAlphabetic(code) {
			continue
		}
		if _, ok := seen[code]; ok {
			continue
		}
		seen[code] = struct{}{}
		codes = append(codes, code)
	}
	sort.Strings(codes)

	s.Logger.Info("Discovered %d publisher codes", len(codes))
	return codes, nil
}

// -----------------------------------------------------------------------------

// FetchHistory downloads the history page for one publisher over an
// inclusive date range and parses the results table into raw records.
// A reachable page without a results table or without data rows yields
// an empty slice (the publisher simply had no sessions in range).
func (s *MSESource) FetchHistory(ctx context.Context, publisherCode, fromDate, toDate string) ([]models.MHistoryRecord, error) {
	historyUrl := s.Config.Source.BaseURL + "/" + publisherCode
	params := map[string]string{
		"FromDate": fromDate,
		"ToDate":   toDate,
		"Code":     publisherCode,
	}

	body, err := s.Network.Get(ctx, historyUrl, params)
	if err != nil {
		return nil, helpers.NewNetworkError("failed to retrieve history for "+publisherCode, err)
	}

	records, err := parseHistoryTable(body, publisherCode)
	if err != nil {
		return nil, helpers.NewDataSourceError("failed to parse history for "+publisherCode, err)
	}

	s.Logger.Debug("Fetched %s: %d raw rows [%s -> %s]", publisherCode, len(records), fromDate, toDate)
	return records, nil
}

// -----------------------------------------------------------------------------

// parseHistoryTable extracts raw records from the resultsTable markup.
// Rows with fewer than two cells are skipped silently; cells beyond the
// nine expected positions are ignored, missing trailing cells stay empty.
func parseHistoryTable(body []byte, publisherCode string) ([]models.MHistoryRecord, error) {
	doc, err := html.Parse(bytes.NewReader(body))
	if err != nil {
		return nil, err
	}

	table := findByID(doc, "table", resultsTableID)
	if table == nil {
		return nil, nil
	}

	var records []models.MHistoryRecord
	for _, row := range findAll(table, "tr") {
		cells := findAll(row, "td")
		if len(cells) < 2 {
			// Header rows carry th cells, malformed rows are dropped.
			continue
		}

		cell := func(i int) string {
			if i >= len(cells) {
				return ""
			}
			return strings.TrimSpace(nodeText(cells[i]))
		}

		records = append(records, models.MHistoryRecord{
			PublisherCode: publisherCode,
			Date:          cell(0),
			Price:         cell(1),
			Max:           cell(2),
			Min:           cell(3),
			Avg:           cell(4),
			PercentChange: cell(5),
			Quantity:      cell(6),
			BestTurnover:  cell(7),
			TotalTurnover: cell(8),
		})
	}

	return records, nil
}

// -----------------------------------------------------------------------------
// Small DOM helpers over x/net/html.
// -----------------------------------------------------------------------------

func findByID(n *html.Node, tag, id string) *html.Node {
	if n.Type == html.ElementNode && n.Data == tag && attrValue(n, "id") == id {
		return n
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if found := findByID(c, tag, id); found != nil {
			return found
		}
	}
	return nil
}

// -----------------------------------------------------------------------------

func findAll(n *html.Node, tag string) []*html.Node {
	var out []*html.Node
	var walk func(*html.Node)
	walk = func(node *html.Node) {
		if node.Type == html.ElementNode && node.Data == tag {
			out = append(out, node)
			return
		}
		for c := node.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		walk(c)
	}
	return out
}

// -----------------------------------------------------------------------------

func attrValue(n *html.Node, key string) string {
	for _, a := range n.Attr {
		if a.Key == key {
			return a.Val
		}
	}
	return ""
}

// -----------------------------------------------------------------------------

func nodeText(n *html.Node) string {
	var b strings.Builder
	var walk func(*html.Node)
	walk = func(node *html.Node) {
		if node.Type == html.TextNode {
			b.WriteString(node.Data)
		}
		for c := node.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(n)
	return b.String()
}

// -----------------------------------------------------------------------------

func isAlphabetic(s string) bool {
	for _, r := range s {
		if (r < 'a' || r > 'z') && (r < 'A' || r > 'Z') {
			return false
		}
	}
	return s != ""
}
