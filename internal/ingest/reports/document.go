// Package reports parses the NHL HTML game reports: the roster (RO), the
// play-by-play event log (PL), the home and away time-on-ice shift reports
// (TH/TV) and the game summary (GS).
package reports

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/text/encoding/charmap"

	"github.com/fortuna/puckline/internal/pbp"
)

// Report page prefixes under htmlreports/{season}/.
const (
	PageEvents     = "PL"
	PageRoster     = "RO"
	PageHomeShifts = "TH"
	PageAwayShifts = "TV"
	PageSummary    = "GS"
)

// PagePath builds the relative path of a report, e.g. "20232024/PL020001.HTM".
func PagePath(page, gameID string) (string, error) {
	season, err := pbp.Season(gameID)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%s/%s0%s.HTM", season, page, pbp.SmallID(gameID)), nil
}

// parseLatin1 decodes the page as ISO-8859-1, which is what the report
// server actually sends regardless of the declared charset.
func parseLatin1(doc []byte) (*goquery.Document, error) {
	decoded, err := charmap.ISO8859_1.NewDecoder().Bytes(doc)
	if err != nil {
		return nil, fmt.Errorf("decode report: %w", err)
	}
	return parse(decoded)
}

func parse(doc []byte) (*goquery.Document, error) {
	d, err := goquery.NewDocumentFromReader(bytes.NewReader(doc))
	if err != nil {
		return nil, fmt.Errorf("failed to parse HTML: %w", err)
	}
	return d, nil
}

// texts returns the text content of every node in the selection.
func texts(s *goquery.Selection) []string {
	out := make([]string, 0, s.Length())
	s.Each(func(_ int, cell *goquery.Selection) {
		out = append(out, cell.Text())
	})
	return out
}

// hasExactClass compares the whole class attribute. The shift reports tell
// cell kinds apart only by composite strings such as "lborder + bborder".
func hasExactClass(s *goquery.Selection, classes ...string) bool {
	class, ok := s.Attr("class")
	if !ok {
		return false
	}
	for _, c := range classes {
		if class == c {
			return true
		}
	}
	return false
}

func clean(s string) string {
	return strings.TrimSpace(strings.ReplaceAll(s, "\n", ""))
}
