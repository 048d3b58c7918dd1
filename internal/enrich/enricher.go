// Package enrich optionally expands thin source snippets by fetching
// the target page and extracting its readable text before the prompt
// is built. Strictly best-effort: a failed fetch leaves the original
// snippet untouched.
package enrich

import (
	"context"
	"regexp"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/gocolly/colly/v2"
	"github.com/sirupsen/logrus"

	"github.com/ecosearch/backend/internal/models"
)

const userAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36"

// maxContentChars caps extracted page text so one long article cannot
// crowd every other source out of the model's context window.
const maxContentChars = 2000

var multiWhitespace = regexp.MustCompile(`\s+`)

type Enricher struct {
	collector *colly.Collector
	minChars  int
	logger    *logrus.Logger
}

// New builds an enricher. minChars is the snippet length below which a
// source is considered worth a page fetch; maxPageBytes bounds each
// downloaded body.
func New(minChars, maxPageBytes int, timeout time.Duration, logger *logrus.Logger) *Enricher {
	c := colly.NewCollector(
		colly.UserAgent(userAgent),
		colly.MaxBodySize(maxPageBytes),
		colly.IgnoreRobotsTxt(),
	)
	c.SetRequestTimeout(timeout)

	return &Enricher{
		collector: c,
		minChars:  minChars,
		logger:    logger,
	}
}

// EnrichSources replaces thin source contents in place with extracted
// page text. Source ids, order, titles and URLs are never touched.
func (e *Enricher) EnrichSources(ctx context.Context, srcs []models.Source) {
	for i := range srcs {
		if len(srcs[i].Content) >= e.minChars {
			continue
		}
		if ctx.Err() != nil {
			return
		}

		text, err := e.extractPage(srcs[i].URL)
		if err != nil {
			e.logger.WithError(err).WithField("url", srcs[i].URL).Debug("Enrichment fetch failed, keeping snippet")
			continue
		}
		if len(text) <= len(srcs[i].Content) {
			continue
		}

		e.logger.WithFields(logrus.Fields{
			"url":  srcs[i].URL,
			"from": len(srcs[i].Content),
			"to":   len(text),
		}).Debug("Source content enriched")
		srcs[i].Content = text
	}
}

func (e *Enricher) extractPage(pageURL string) (string, error) {
	var extracted string
	var fetchErr error

	c := e.collector.Clone()
	c.OnHTML("body", func(el *colly.HTMLElement) {
		el.DOM.Find("script, style, nav, header, footer, aside, form").Remove()

		var b strings.Builder
		el.DOM.Find("p").Each(func(_ int, s *goquery.Selection) {
			text := strings.TrimSpace(s.Text())
			if text == "" {
				return
			}
			b.WriteString(text)
			b.WriteString(" ")
		})

		extracted = CleanText(b.String())
	})
	c.OnError(func(_ *colly.Response, err error) {
		fetchErr = err
	})

	if err := c.Visit(pageURL); err != nil {
		return "", err
	}
	if fetchErr != nil {
		return "", fetchErr
	}

	if len(extracted) > maxContentChars {
		extracted = extracted[:maxContentChars]
	}
	return extracted, nil
}

// CleanText collapses whitespace runs left behind by DOM extraction.
func CleanText(s string) string {
	return strings.TrimSpace(multiWhitespace.ReplaceAllString(s, " "))
}
