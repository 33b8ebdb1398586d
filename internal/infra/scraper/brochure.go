// Package scraper discovers brochures from a filer's public disclosure page
// when the lookup API response omits them. Some older filings predate the
// API and are only linked from the HTML page, so the pipeline falls back to
// scraping before declaring a filer brochure-less.
package scraper

import (
	"bytes"
	"context"
	"fmt"
	"net/url"
	"strings"

	"regharvest/internal/domain/entity"
	"regharvest/internal/infra/fetcher"

	"github.com/PuerkitoBio/goquery"
)

// versionParam is the query parameter carrying the brochure version id in
// disclosure-page links.
const versionParam = "BRCHR_VRSN_ID"

// BrochureScraper extracts brochure links from filer disclosure pages.
type BrochureScraper struct {
	fetch   *fetcher.Client
	baseURL string
}

// NewBrochureScraper creates a scraper. baseURL is the disclosure page
// root; the filer CRD is appended as a query parameter.
func NewBrochureScraper(fetch *fetcher.Client, baseURL string) *BrochureScraper {
	return &BrochureScraper{fetch: fetch, baseURL: baseURL}
}

// Discover fetches the filer's disclosure page and extracts brochure
// version ids from its links. Anchors without a parseable version id are
// skipped; duplicates keep the first occurrence.
func (s *BrochureScraper) Discover(ctx context.Context, crd string) ([]entity.Brochure, error) {
	pageURL := fmt.Sprintf("%s?crd=%s", s.baseURL, url.QueryEscape(crd))
	body, err := s.fetch.Get(ctx, pageURL)
	if err != nil {
		return nil, fmt.Errorf("fetch disclosure page for filer %s: %w", crd, err)
	}

	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(body))
	if err != nil {
		return nil, entity.DataShape(fmt.Errorf("parse disclosure page for filer %s: %w", crd, err))
	}

	seen := make(map[string]bool)
	var brochures []entity.Brochure

	doc.Find("a[href]").Each(func(_ int, sel *goquery.Selection) {
		href, _ := sel.Attr("href")
		versionID := versionFromHref(href)
		if versionID == "" || seen[versionID] {
			return
		}
		seen[versionID] = true

		brochures = append(brochures, entity.Brochure{
			CRD:           crd,
			VersionID:     versionID,
			Name:          strings.TrimSpace(sel.Text()),
			DateSubmitted: strings.TrimSpace(sel.AttrOr("data-submitted", "")),
		})
	})

	return brochures, nil
}

// versionFromHref pulls the brochure version id out of a link target.
func versionFromHref(href string) string {
	u, err := url.Parse(href)
	if err != nil {
		return ""
	}
	return u.Query().Get(versionParam)
}
