// Package parser turns extracted receipt text into a structured record
// using a closed, hand-maintained vendor and category vocabulary. It is
// heuristic pattern matching, not document understanding: receipts outside
// the vocabulary degrade to sentinel values rather than failing.
package parser

import (
	"log/slog"
	"regexp"
	"strconv"
	"strings"
	"time"
)

var (
	reDate       = regexp.MustCompile(`\d{1,2}[/-]\d{1,2}[/-]\d{2,4}|\d{4}-\d{2}-\d{2}`)
	reGrandTotal = regexp.MustCompile(`(?i)GRAND TOTAL\s*[:\w\s]*[$€£₹]?\s*([\d,]+\.\d{2})`)
	reAmount     = regexp.MustCompile(`[\d,]+\.\d{2}`)
)

// Day-month-year is attempted before year-month-day, so an ambiguous
// MM-DD-YYYY input resolves day-first. Known heuristic limitation, kept
// deliberately for the target locale.
var dmyLayouts = []string{"2-1-2006", "2-1-06"}

const ymdLayout = "2006-01-02"

type categoryMatcher struct {
	name     string
	patterns []*regexp.Regexp
}

// Parser matches receipt text against a fixed vocabulary. It holds no
// mutable state: Parse is a pure function of the text and safe for
// concurrent use.
type Parser struct {
	vocab      *Vocabulary
	categories []categoryMatcher
	logger     *slog.Logger
	now        func() time.Time
}

func New(vocab *Vocabulary, logger *slog.Logger) *Parser {
	if vocab == nil {
		vocab = DefaultVocabulary()
	}
	if logger == nil {
		logger = slog.Default()
	}
	matchers := make([]categoryMatcher, 0, len(vocab.Categories))
	for _, c := range vocab.Categories {
		m := categoryMatcher{name: c.Name}
		for _, kw := range c.Keywords {
			// keyword, then the first amount within the same line
			m.patterns = append(m.patterns, regexp.MustCompile(`(?i)`+regexp.QuoteMeta(kw)+`.*?([\d,]+\.\d{2})`))
		}
		matchers = append(matchers, m)
	}
	return &Parser{vocab: vocab, categories: matchers, logger: logger, now: time.Now}
}

// Parse extracts vendor, date, total amount and category subtotals from a
// text blob. It never fails: any field no heuristic matched carries its
// default and is listed in Result.Undetected.
func (p *Parser) Parse(text string) Result {
	rec := Record{
		Vendor:        VendorUnknown,
		Category:      CategoryUncategorized,
		SubCategories: map[string]float64{},
	}
	var undetected []string

	lower := strings.ToLower(text)
	for _, v := range p.vocab.Vendors {
		if strings.Contains(lower, strings.ToLower(v)) {
			rec.Vendor = v
			break
		}
	}
	if rec.Vendor == VendorUnknown {
		undetected = append(undetected, FieldVendor)
	}

	found := map[string]float64{}
	for _, c := range p.categories {
		for _, re := range c.patterns {
			m := re.FindStringSubmatch(text)
			if m == nil {
				continue
			}
			amt, err := parseDecimal(m[1])
			if err != nil {
				p.logger.Debug("subtotal did not parse", "category", c.name, "match", m[1])
				continue
			}
			found[c.name] = amt
			break
		}
	}
	switch len(found) {
	case 0:
		undetected = append(undetected, FieldCategory)
	case 1:
		for name := range found {
			rec.Category = name
		}
		rec.SubCategories = found
	default:
		rec.Category = CategoryMixed
		rec.SubCategories = found
	}

	var ok bool
	if rec.TxDate, ok = p.findDate(text); !ok {
		undetected = append(undetected, FieldDate)
	}
	if rec.Amount, ok = p.findAmount(text); !ok {
		undetected = append(undetected, FieldAmount)
	}

	return Result{Record: rec, Undetected: undetected}
}

// findDate returns the first date-shaped substring parsed day-month-year
// first, then year-month-day. Falls back to the current date.
func (p *Parser) findDate(text string) (time.Time, bool) {
	m := reDate.FindString(text)
	if m == "" {
		return today(p.now()), false
	}
	norm := strings.ReplaceAll(m, "/", "-")
	for _, layout := range dmyLayouts {
		if t, err := time.Parse(layout, norm); err == nil {
			return t, true
		}
	}
	if t, err := time.Parse(ymdLayout, norm); err == nil {
		return t, true
	}
	p.logger.Debug("date-shaped substring did not parse", "match", m)
	return today(p.now()), false
}

// findAmount prefers a labeled grand total; otherwise the largest
// amount-shaped number anywhere in the text, since the biggest figure on a
// receipt is usually the total.
func (p *Parser) findAmount(text string) (float64, bool) {
	if m := reGrandTotal.FindStringSubmatch(text); m != nil {
		if v, err := parseDecimal(m[1]); err == nil {
			return v, true
		}
	}
	var best float64
	var any bool
	for _, s := range reAmount.FindAllString(text, -1) {
		v, err := parseDecimal(s)
		if err != nil {
			continue
		}
		if !any || v > best {
			best = v
			any = true
		}
	}
	return best, any
}

func parseDecimal(s string) (float64, error) {
	return strconv.ParseFloat(strings.ReplaceAll(s, ",", ""), 64)
}

func today(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}
