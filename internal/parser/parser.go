// Package parser extracts specification and option records from a trim's
// raw markup. It is deliberately km77-specific: region ids, class markers
// and the row heuristics encode how that site renders its data tables.
package parser

import (
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/rs/zerolog"

	"github.com/alexx-ftw/km77-scraper/pkg/models"
)

// Fixed structural anchors of the km77 trim page.
const (
	specsRegionSelector   = "div#measurements-1"
	optionsRegionSelector = "div#features-2"
	captionSelector       = "caption.caption-top"
	valueCellSelector     = "td.text-right"
	packageItemsSelector  = "div.modal-body li"

	// envLabel marks the one key/value row whose value lives in an image
	// alt attribute instead of cell text.
	envLabel = "Distintivo ambiental"
)

// Parser reduces the data tables of a trim page into Records. It holds no
// mutable state; the same input always yields an equivalent result.
type Parser struct {
	log zerolog.Logger
}

// New returns a Parser logging through the given logger.
func New(log zerolog.Logger) *Parser {
	return &Parser{log: log}
}

type region int

const (
	regionSpecs region = iota
	regionOptions
)

// ParseSpecOps locates the two content regions of the markup and reduces
// every captioned data table into one Record per table, in document order.
// Missing regions, unparseable markup and empty input all degrade to empty
// results; the function never fails.
func (p *Parser) ParseSpecOps(raw string) (specs, options []models.Record) {
	if strings.TrimSpace(raw) == "" {
		p.log.Debug().Msg("empty markup, nothing to parse")
		return nil, nil
	}

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(raw))
	if err != nil {
		p.log.Error().Err(err).Msg("markup could not be parsed")
		return nil, nil
	}

	specsDiv := doc.Find(specsRegionSelector).First()
	optionsDiv := doc.Find(optionsRegionSelector).First()
	if specsDiv.Length() == 0 && optionsDiv.Length() == 0 {
		p.log.Info().Msg("neither specs nor options region found")
		return nil, nil
	}

	if specsDiv.Length() > 0 {
		specs = p.parseRegion(specsDiv, regionSpecs)
	}
	if optionsDiv.Length() > 0 {
		options = p.parseRegion(optionsDiv, regionOptions)
	}
	return specs, options
}

// parseRegion reduces every qualifying table inside the region. Tables with
// no rows are discarded; tables without a caption are skipped entirely,
// their data is intentionally dropped.
func (p *Parser) parseRegion(div *goquery.Selection, reg region) []models.Record {
	var records []models.Record
	div.Find("table").Each(func(_ int, table *goquery.Selection) {
		rows := table.Find("tr")
		if rows.Length() == 0 {
			return
		}

		caption, ok := tableCaption(table, reg)
		if !ok {
			p.log.Debug().Msg("table without caption skipped")
			return
		}

		rec := models.Record{Caption: caption}
		section := "" // label carried from the most recent header-only row
		rows.Each(func(_ int, row *goquery.Selection) {
			section = p.applyRow(&rec, section, row)
		})
		records = append(records, rec)
	})
	return records
}

// tableCaption resolves the caption text. In the options region the caption
// has a two-line form and only the second line is significant; in the specs
// region the whole trimmed text is.
func tableCaption(table *goquery.Selection, reg region) (string, bool) {
	caption := table.Find(captionSelector).First()
	if caption.Length() == 0 {
		return "", false
	}
	if reg == regionOptions {
		return secondLine(caption.Text()), true
	}
	return strings.TrimSpace(caption.Text()), true
}

// rowKind is the tagged classification of a table row.
type rowKind int

const (
	rowPackage rowKind = iota
	rowSectionHeader
	rowContinuation
	rowKeyValue
	rowUnknown
)

type rowShape struct {
	kind rowKind
	ths  *goquery.Selection
	tds  *goquery.Selection
}

// classifyRow assigns exactly one shape to a row. The cases are evaluated in
// precedence order: the three-cell package signature is the most specific
// and wins over the key/value signature. A two-cell continuation row is only
// valid while a section label is carried; without one it is unrecognized.
func classifyRow(row *goquery.Selection, haveSection bool) rowShape {
	shape := rowShape{
		ths: row.Find("th"),
		tds: row.Find("td"),
	}
	switch {
	case shape.tds.Length() == 3:
		shape.kind = rowPackage
	case shape.tds.Length() == 0 && shape.ths.Length() > 0:
		shape.kind = rowSectionHeader
	case shape.ths.Length() == 0 && shape.tds.Length() == 2 && haveSection:
		shape.kind = rowContinuation
	case shape.ths.Length() > 0 && shape.tds.Length() > 0:
		shape.kind = rowKeyValue
	default:
		shape.kind = rowUnknown
	}
	return shape
}

// applyRow folds one row into rec and returns the section label to carry
// into the next row. Rows that match no shape, or that match a shape but
// lack the cell the shape requires, are logged and dropped.
func (p *Parser) applyRow(rec *models.Record, section string, row *goquery.Selection) string {
	shape := classifyRow(row, section != "")

	switch shape.kind {
	case rowPackage:
		name := firstLine(strings.TrimSpace(shape.tds.Eq(0).Text()))
		price := strings.TrimSpace(shape.tds.Eq(1).Text())
		addons := []string{}
		shape.tds.Eq(0).Find(packageItemsSelector).Each(func(_ int, li *goquery.Selection) {
			addons = append(addons, strings.TrimSpace(li.Text()))
		})
		rec.Set(name, models.Package{Price: price, Addons: addons})

	case rowSectionHeader:
		label := secondLine(shape.ths.First().Text())
		rec.Set(label, models.Section{})
		return label

	case rowContinuation:
		key := secondLine(shape.tds.Eq(0).Text())
		value := secondLine(shape.tds.Eq(1).Text())
		if v, ok := rec.Get(section); ok {
			if sub, ok := v.(models.Section); ok {
				rec.Set(section, sub.Set(key, value))
			}
		}

	case rowKeyValue:
		key := secondLine(shape.ths.First().Text())
		if strings.Contains(key, envLabel) {
			alt, ok := shape.tds.First().Find("img").First().Attr("alt")
			if !ok {
				p.rowMiss(row, "environmental row without image alt")
				return section
			}
			rec.Set(key, models.Text(alt))
			return section
		}
		cell := row.Find(valueCellSelector).First()
		if cell.Length() == 0 {
			p.rowMiss(row, "key/value row without right-aligned cell")
			return section
		}
		rec.Set(key, models.Text(secondLine(cell.Text())))

	default:
		p.rowMiss(row, "row matches no known shape")
	}
	return section
}

func (p *Parser) rowMiss(row *goquery.Selection, reason string) {
	text := strings.TrimSpace(row.Text())
	if len(text) > 80 {
		text = text[:80]
	}
	p.log.Debug().Str("row", text).Msg(reason)
}

// secondLine returns the second newline-separated segment of s, trimmed.
// Many km77 cells carry an icon label on their first line; single-line text
// is used as-is.
func secondLine(s string) string {
	parts := strings.SplitN(s, "\n", 3)
	if len(parts) >= 2 {
		return strings.TrimSpace(parts[1])
	}
	return strings.TrimSpace(parts[0])
}

// firstLine returns everything before the first newline, trimmed.
func firstLine(s string) string {
	if i := strings.IndexByte(s, '\n'); i >= 0 {
		return strings.TrimSpace(s[:i])
	}
	return strings.TrimSpace(s)
}
