package content

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"astromatic/config"
	"astromatic/errs"
)

func newTestClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	c := NewClient(&config.Env{AirtableToken: "tok", AirtableBaseID: "base1"}, 5*time.Second)
	c.BaseURL = srv.URL
	return c
}

func TestFetchApproved_FourSegmentMapping(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if got := r.Header.Get("Authorization"); got != "Bearer tok" {
			t.Errorf("Authorization = %q", got)
		}
		if got := r.URL.Query().Get("filterByFormula"); got != "{status} = 'Approved'" {
			t.Errorf("filterByFormula = %q", got)
		}
		if got := r.URL.Query().Get("maxRecords"); got != "1" {
			t.Errorf("maxRecords = %q", got)
		}
		json.NewEncoder(w).Encode(map[string]any{
			"records": []map[string]any{{
				"id": "rec123",
				"fields": map[string]string{
					"text_1_hook":     "A hook",
					"text_2_problem":  "A problem",
					"text_3_solution": "A solution",
					"text_4_action":   "Do it",
					"caption":         "my caption",
				},
			}},
		})
	})

	p, err := c.FetchApproved(context.Background(), "asfa-t1", "tbl1")
	if err != nil {
		t.Fatalf("FetchApproved: %v", err)
	}
	if p.ID != "rec123" || p.Caption != "my caption" {
		t.Errorf("payload = %+v", p)
	}
	wantNames := []string{"hook", "problem", "solution", "cta"}
	if len(p.Sequences) != 4 {
		t.Fatalf("sequences = %d, want 4", len(p.Sequences))
	}
	for i, name := range wantNames {
		if p.Sequences[i].Name != name {
			t.Errorf("sequence[%d].Name = %q, want %q", i, p.Sequences[i].Name, name)
		}
	}
	if p.Sequences[3].Text != "Do it" {
		t.Errorf("cta text = %q", p.Sequences[3].Text)
	}
}

func TestFetchApproved_TwoSegmentMapping(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]any{
			"records": []map[string]any{{
				"id": "rec9",
				"fields": map[string]string{
					"text_1_hook":    "Hook",
					"text_2_message": "Message",
					"caption":        "c",
				},
			}},
		})
	})

	p, err := c.FetchApproved(context.Background(), "asfa-t2", "tbl2")
	if err != nil {
		t.Fatalf("FetchApproved: %v", err)
	}
	if len(p.Sequences) != 2 || p.Sequences[1].Name != "message" || p.Sequences[1].Text != "Message" {
		t.Errorf("sequences = %+v", p.Sequences)
	}
}

func TestFetchApproved_NoRecordsIsNotAnError(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]any{"records": []any{}})
	})

	p, err := c.FetchApproved(context.Background(), "asfa-t1", "tbl1")
	if err != nil {
		t.Fatalf("FetchApproved: %v", err)
	}
	if p != nil {
		t.Errorf("payload = %+v, want nil", p)
	}
}

func TestFetchApproved_HTTPErrorIsContentFetchKind(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"error":"INVALID_PERMISSIONS"}`, http.StatusForbidden)
	})

	_, err := c.FetchApproved(context.Background(), "asfa-t1", "tbl1")
	var pe *errs.Error
	if !errors.As(err, &pe) || pe.Kind != errs.KindContentFetch {
		t.Errorf("err = %v, want ContentFetch kind", err)
	}
}

func TestFetchApproved_MissingCaptionIsEmpty(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]any{
			"records": []map[string]any{{
				"id":     "rec1",
				"fields": map[string]string{"text_1_hook": "h", "text_2_message": "m"},
			}},
		})
	})

	p, err := c.FetchApproved(context.Background(), "asfa-t2", "tbl2")
	if err != nil {
		t.Fatalf("FetchApproved: %v", err)
	}
	if p.Caption != "" {
		t.Errorf("caption = %q, want empty", p.Caption)
	}
}

func TestMarkProcessed_SendsPatch(t *testing.T) {
	var gotMethod string
	var gotBody map[string]any
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		gotMethod = r.Method
		json.NewDecoder(r.Body).Decode(&gotBody)
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(`{}`))
	})

	if err := c.MarkProcessed(context.Background(), "rec123", "tbl1"); err != nil {
		t.Fatalf("MarkProcessed: %v", err)
	}
	if gotMethod != http.MethodPatch {
		t.Errorf("method = %s, want PATCH", gotMethod)
	}
	records := gotBody["records"].([]any)
	first := records[0].(map[string]any)
	if first["id"] != "rec123" {
		t.Errorf("record id = %v", first["id"])
	}
	fields := first["fields"].(map[string]any)
	if fields["status"] != "Processed" {
		t.Errorf("status = %v, want Processed", fields["status"])
	}
}

func TestMarkProcessed_RejectionIsContentFetchKind(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "nope", http.StatusUnprocessableEntity)
	})

	err := c.MarkProcessed(context.Background(), "rec123", "tbl1")
	var pe *errs.Error
	if !errors.As(err, &pe) || pe.Kind != errs.KindContentFetch {
		t.Errorf("err = %v, want ContentFetch kind", err)
	}
}

func TestPayload_TextsPreservesOrder(t *testing.T) {
	p := &Payload{Sequences: []Sequence{
		{Name: "hook", Text: "a"}, {Name: "problem", Text: "b"}, {Name: "cta", Text: "c"},
	}}
	got := p.Texts()
	want := []string{"a", "b", "c"}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("Texts()[%d] = %q, want %q", i, got[i], want[i])
		}
	}
}
