// Package lookup calls the per-filer lookup endpoint. The endpoint returns
// a structured JSON envelope listing the filer's disclosure brochures; the
// brochure version ids parameterize the document download URLs.
package lookup

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"

	"regharvest/internal/domain/entity"
	"regharvest/internal/infra/fetcher"
)

// envelope is the lookup API response wrapper.
type envelope struct {
	Status string `json:"status"`
	Filer  struct {
		CRD       string `json:"crd"`
		LegalName string `json:"legalName"`
		Brochures []struct {
			VersionID     string `json:"versionId"`
			Name          string `json:"name"`
			DateSubmitted string `json:"dateSubmitted"`
		} `json:"brochures"`
	} `json:"filer"`
}

// Client queries the lookup endpoint through the shared fetch layer, so
// lookups are throttled and retried under the same policy as every other
// outbound call.
type Client struct {
	fetch   *fetcher.Client
	baseURL string
}

// NewClient creates a lookup client. baseURL is the endpoint root; the
// filer CRD is appended as a query parameter.
func NewClient(fetch *fetcher.Client, baseURL string) *Client {
	return &Client{fetch: fetch, baseURL: baseURL}
}

// Brochures returns the filer's brochure list. An envelope that decodes but
// reports a non-ok status is a terminal failure for this unit of work; a
// body that does not decode at all is a data-shape failure.
func (c *Client) Brochures(ctx context.Context, crd string) ([]entity.Brochure, error) {
	body, err := c.fetch.Get(ctx, c.lookupURL(crd))
	if err != nil {
		return nil, fmt.Errorf("lookup filer %s: %w", crd, err)
	}

	var env envelope
	if err := json.Unmarshal(body, &env); err != nil {
		return nil, entity.DataShape(fmt.Errorf("decode lookup envelope for filer %s: %w", crd, err))
	}

	if env.Status != "ok" {
		return nil, entity.Terminal(fmt.Errorf("lookup for filer %s returned status %q", crd, env.Status))
	}

	brochures := make([]entity.Brochure, 0, len(env.Filer.Brochures))
	for _, b := range env.Filer.Brochures {
		brochures = append(brochures, entity.Brochure{
			CRD:           crd,
			VersionID:     b.VersionID,
			Name:          b.Name,
			DateSubmitted: b.DateSubmitted,
		})
	}

	return brochures, nil
}

// lookupURL builds the endpoint URL for one filer.
func (c *Client) lookupURL(crd string) string {
	return fmt.Sprintf("%s?crd=%s", c.baseURL, url.QueryEscape(crd))
}
