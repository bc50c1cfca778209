// Package content talks to the content sheet: it fetches the single
// next approved record for a template and marks records processed.
package content

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/rs/zerolog/log"

	"astromatic/brands"
	"astromatic/config"
	"astromatic/errs"
)

const defaultBaseURL = "https://api.airtable.com/v0"

// Sequence is one named span of on-screen text. Order matters: the
// rendered video plays sequences in this order and duration is summed
// over it.
type Sequence struct {
	Name string
	Text string
}

// Payload is one approved content record, never mutated after fetch.
type Payload struct {
	ID        string
	Sequences []Sequence
	Caption   string
}

// Texts returns the sequence texts in playback order.
func (p *Payload) Texts() []string {
	texts := make([]string, len(p.Sequences))
	for i, s := range p.Sequences {
		texts[i] = s.Text
	}
	return texts
}

// Client is the content-sheet REST client.
type Client struct {
	// BaseURL is overridable for tests.
	BaseURL string

	http   *http.Client
	token  string
	baseID string
}

// NewClient builds a client from env with a per-request timeout.
func NewClient(env *config.Env, timeout time.Duration) *Client {
	return &Client{
		BaseURL: defaultBaseURL,
		http:    &http.Client{Timeout: timeout},
		token:   env.AirtableToken,
		baseID:  env.AirtableBaseID,
	}
}

type recordList struct {
	Records []record `json:"records"`
}

type record struct {
	ID     string            `json:"id"`
	Fields map[string]string `json:"fields"`
}

// FetchApproved returns the first record whose status is 'Approved',
// or nil when there is nothing to process. The sequence shape is
// selected by template id, not guessed from the payload.
func (c *Client) FetchApproved(ctx context.Context, templateID, tableID string) (*Payload, error) {
	log.Info().Str("templateId", templateID).Msg("Fetching approved records from content sheet...")

	endpoint := fmt.Sprintf("%s/%s/%s", c.BaseURL, c.baseID, tableID)
	q := url.Values{}
	q.Set("filterByFormula", "{status} = 'Approved'")
	q.Set("maxRecords", "1")

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint+"?"+q.Encode(), nil)
	if err != nil {
		return nil, errs.Wrap(errs.KindContentFetch, "failed to build content sheet request", err, nil)
	}
	req.Header.Set("Authorization", "Bearer "+c.token)

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, errs.Wrap(errs.KindContentFetch, "failed to fetch from content sheet", err,
			map[string]any{"templateId": templateID})
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, errs.Wrap(errs.KindContentFetch, "failed to read content sheet response", err, nil)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, errs.New(errs.KindContentFetch, "content sheet returned an error",
			map[string]any{"templateId": templateID, "status": resp.StatusCode, "body": string(body)})
	}

	var list recordList
	if err := json.Unmarshal(body, &list); err != nil {
		return nil, errs.Wrap(errs.KindContentFetch, "failed to decode content sheet response", err, nil)
	}
	if len(list.Records) == 0 {
		log.Info().Str("templateId", templateID).Msg("No approved records found.")
		return nil, nil
	}

	rec := list.Records[0]
	payload := &Payload{
		ID:        rec.ID,
		Sequences: mapSequences(templateID, rec.Fields),
		Caption:   rec.Fields["caption"],
	}
	if payload.Caption == "" {
		log.Warn().Str("recordId", rec.ID).Msg("Record has no caption; publishing with an empty one.")
	}
	return payload, nil
}

// mapSequences applies the template's field-to-sequence mapping.
func mapSequences(templateID string, fields map[string]string) []Sequence {
	if brands.FourSegment(templateID) {
		return []Sequence{
			{Name: "hook", Text: fields["text_1_hook"]},
			{Name: "problem", Text: fields["text_2_problem"]},
			{Name: "solution", Text: fields["text_3_solution"]},
			{Name: "cta", Text: fields["text_4_action"]},
		}
	}
	return []Sequence{
		{Name: "hook", Text: fields["text_1_hook"]},
		{Name: "message", Text: fields["text_2_message"]},
	}
}

// MarkProcessed flips a record's status to 'Processed'.
func (c *Client) MarkProcessed(ctx context.Context, recordID, tableID string) error {
	log.Info().Str("recordId", recordID).Str("tableId", tableID).Msg("Updating record status to Processed...")

	endpoint := fmt.Sprintf("%s/%s/%s", c.BaseURL, c.baseID, tableID)
	payload := map[string]any{
		"records": []map[string]any{
			{"id": recordID, "fields": map[string]string{"status": "Processed"}},
		},
	}
	body, err := json.Marshal(payload)
	if err != nil {
		return errs.Wrap(errs.KindContentFetch, "failed to encode record update", err, nil)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPatch, endpoint, bytes.NewReader(body))
	if err != nil {
		return errs.Wrap(errs.KindContentFetch, "failed to build record update request", err, nil)
	}
	req.Header.Set("Authorization", "Bearer "+c.token)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return errs.Wrap(errs.KindContentFetch, "failed to update content sheet record", err,
			map[string]any{"recordId": recordID})
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		raw, _ := io.ReadAll(resp.Body)
		return errs.New(errs.KindContentFetch, "content sheet rejected record update",
			map[string]any{"recordId": recordID, "status": resp.StatusCode, "body": string(raw)})
	}

	log.Info().Str("recordId", recordID).Msg("Record updated successfully.")
	return nil
}
