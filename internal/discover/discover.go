// Package discover extracts child entities from km77 list pages: makes from
// the brand index, models from a make page, trims from a model page. Each
// pass is a simple single-pass list extraction; de-duplication against
// already-known children happens at insert time in the pipeline.
package discover

import (
	"fmt"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// Markers on the km77 list pages.
const (
	makeBlockSelector  = "div.js-brand-item"
	modelBlockSelector = "li.vehicle-block"
	modelNameSelector  = "div.veh-name"
	trimCellSelector   = "td.vehicle-name"

	// makeMarketQuery restricts a make's model listing to current and
	// discontinued cars.
	makeMarketQuery = "?market[]=available&market[]=discontinued"
)

// Child is a discovered entity: its name, the absolute URL its own children
// live at, and an extra attribute (year for models, production window for
// trims).
type Child struct {
	Name  string
	URL   string
	Extra string
}

// Makes extracts every car make from the brand index page.
func Makes(raw, baseURL string) ([]Child, error) {
	doc, err := parse(raw)
	if err != nil {
		return nil, err
	}

	var children []Child
	doc.Find(makeBlockSelector).Each(func(_ int, block *goquery.Selection) {
		a := block.Find("a").First()
		name := strings.TrimSpace(block.Text())
		if a.Length() > 0 {
			name = strings.TrimSpace(a.Text())
		}
		href, ok := a.Attr("href")
		if !ok || name == "" {
			return
		}
		children = append(children, Child{
			Name: name,
			URL:  baseURL + href + makeMarketQuery,
		})
	})
	return children, nil
}

// Models extracts the models listed on a make page. The model name is the
// part of the name block before the "|" separator; its span carries the
// model year.
func Models(raw, baseURL string) ([]Child, error) {
	doc, err := parse(raw)
	if err != nil {
		return nil, err
	}

	var children []Child
	doc.Find(modelBlockSelector).Each(func(_ int, block *goquery.Selection) {
		nameDiv := block.Find(modelNameSelector).First()
		if nameDiv.Length() == 0 {
			return
		}
		name := strings.TrimSpace(strings.SplitN(nameDiv.Text(), "|", 2)[0])
		href, ok := block.Find("a").First().Attr("href")
		if !ok || name == "" {
			return
		}
		children = append(children, Child{
			Name:  name,
			URL:   baseURL + href + "/datos",
			Extra: strings.TrimSpace(nameDiv.Find("span").First().Text()),
		})
	})
	return children, nil
}

// Trims extracts the trims listed on a model's data page. The trim name is
// on the second line of its link text; the production window is the first
// line of the adjacent span, which the markup leaves unbalanced without its
// closing parenthesis.
func Trims(raw, baseURL string) ([]Child, error) {
	doc, err := parse(raw)
	if err != nil {
		return nil, err
	}

	var children []Child
	doc.Find(trimCellSelector).Each(func(_ int, cell *goquery.Selection) {
		a := cell.Find("a").First()
		href, ok := a.Attr("href")
		if !ok {
			return
		}
		name := secondLine(a.Text())
		if name == "" {
			return
		}
		production := ""
		if span := cell.Find("span").First(); span.Length() > 0 {
			production = firstLine(span.Text()) + ")"
		}
		children = append(children, Child{
			Name:  name,
			URL:   baseURL + href,
			Extra: production,
		})
	})
	return children, nil
}

func parse(raw string) (*goquery.Document, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(raw))
	if err != nil {
		return nil, fmt.Errorf("parsing list page: %w", err)
	}
	return doc, nil
}

func secondLine(s string) string {
	parts := strings.SplitN(s, "\n", 3)
	if len(parts) >= 2 {
		return strings.TrimSpace(parts[1])
	}
	return strings.TrimSpace(parts[0])
}

func firstLine(s string) string {
	if i := strings.IndexByte(s, '\n'); i >= 0 {
		return strings.TrimSpace(s[:i])
	}
	return strings.TrimSpace(s)
}
