// Package distribution publishes rendered videos through the Graph
// API: create a media container, wait for remote processing, issue the
// final publish call and fetch the permalink.
package distribution

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/rs/zerolog/log"
	"golang.org/x/oauth2"

	"astromatic/errs"
)

const defaultGraphURL = "https://graph.facebook.com/v24.0"

// Client is the Graph API publisher for one target account.
type Client struct {
	// BaseURL is overridable for tests.
	BaseURL string

	http      *http.Client
	accountID string

	poller        *Poller
	statusTimeout time.Duration
	createTimeout time.Duration
}

// Options tunes the polling and per-call timeouts.
type Options struct {
	PollMaxChecks int
	PollInterval  time.Duration
	// StatusTimeout bounds reads and status checks; CreateTimeout
	// bounds job-creating posts.
	StatusTimeout time.Duration
	CreateTimeout time.Duration
}

// NewClient builds a publisher using a bearer-token HTTP client.
func NewClient(token, accountID string, opts Options) *Client {
	src := oauth2.StaticTokenSource(&oauth2.Token{AccessToken: token})
	return &Client{
		BaseURL:   defaultGraphURL,
		http:      oauth2.NewClient(context.Background(), src),
		accountID: accountID,
		poller: &Poller{
			MaxChecks: opts.PollMaxChecks,
			Interval:  opts.PollInterval,
		},
		statusTimeout: opts.StatusTimeout,
		createTimeout: opts.CreateTimeout,
	}
}

type idResponse struct {
	ID string `json:"id"`
}

type statusResponse struct {
	StatusCode string `json:"status_code"`
	Status     string `json:"status"`
}

type permalinkResponse struct {
	Permalink string `json:"permalink"`
}

type graphError struct {
	Error struct {
		Message      string `json:"message"`
		ErrorSubcode int    `json:"error_subcode"`
	} `json:"error"`
}

// Publish runs one full publication session: create the processing
// job, wait for it, finalize, and return the post permalink. The
// caller decides whether a failed session is retried as a whole.
func (c *Client) Publish(ctx context.Context, videoURL, caption string) (string, error) {
	log.Info().Msg("Creating media container...")
	jobID, err := c.CreateJob(ctx, videoURL, caption)
	if err != nil {
		return "", err
	}
	log.Info().Str("creationId", jobID).Msg("Container created. Waiting for processing...")

	if err := c.poller.Wait(ctx, jobID, func(ctx context.Context) (JobStatus, error) {
		return c.CheckStatus(ctx, jobID)
	}); err != nil {
		return "", c.tagGraphErr("publish session failed while waiting for processing", err,
			map[string]any{"jobId": jobID})
	}

	log.Info().Msg("Publishing media...")
	publishID, err := c.FinalizePublish(ctx, jobID)
	if err != nil {
		return "", err
	}
	log.Info().Str("publishId", publishID).Msg("Media published successfully.")

	return c.GetPermalink(ctx, publishID)
}

// CreateJob starts remote processing of the video and returns the job
// (container) id.
func (c *Client) CreateJob(ctx context.Context, videoURL, caption string) (string, error) {
	q := url.Values{}
	q.Set("media_type", "REELS")
	q.Set("video_url", videoURL)
	q.Set("caption", caption)

	var out idResponse
	err := c.call(ctx, http.MethodPost,
		fmt.Sprintf("%s/%s/media", c.BaseURL, c.accountID), q, c.createTimeout, &out)
	if err != nil {
		return "", c.tagGraphErr("failed to create publish job", err, map[string]any{"videoUrl": videoURL})
	}
	return out.ID, nil
}

// CheckStatus reports the current processing state of a job.
func (c *Client) CheckStatus(ctx context.Context, jobID string) (JobStatus, error) {
	q := url.Values{}
	q.Set("fields", "status_code,status")

	var out statusResponse
	err := c.call(ctx, http.MethodGet,
		fmt.Sprintf("%s/%s", c.BaseURL, jobID), q, c.statusTimeout, &out)
	if err != nil {
		return JobStatus{}, err
	}
	return JobStatus{Code: out.StatusCode, Detail: out.Status}, nil
}

// FinalizePublish turns a finished job into a public post.
func (c *Client) FinalizePublish(ctx context.Context, jobID string) (string, error) {
	q := url.Values{}
	q.Set("creation_id", jobID)

	var out idResponse
	err := c.call(ctx, http.MethodPost,
		fmt.Sprintf("%s/%s/media_publish", c.BaseURL, c.accountID), q, c.createTimeout, &out)
	if err != nil {
		return "", c.tagGraphErr("failed to finalize publish", err, map[string]any{"jobId": jobID})
	}
	return out.ID, nil
}

// GetPermalink fetches the public link of a published post.
func (c *Client) GetPermalink(ctx context.Context, publishedID string) (string, error) {
	q := url.Values{}
	q.Set("fields", "permalink")

	var out permalinkResponse
	err := c.call(ctx, http.MethodGet,
		fmt.Sprintf("%s/%s", c.BaseURL, publishedID), q, c.statusTimeout, &out)
	if err != nil {
		return "", c.tagGraphErr("failed to fetch permalink", err, map[string]any{"publishedId": publishedID})
	}
	return out.Permalink, nil
}

// apiError is a non-2xx Graph response, kept raw for subcode mapping.
type apiError struct {
	status int
	body   []byte
}

func (e *apiError) Error() string {
	return fmt.Sprintf("graph api status %d: %s", e.status, e.body)
}

func (c *Client) call(ctx context.Context, method, endpoint string, q url.Values, timeout time.Duration, out any) error {
	if timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}

	req, err := http.NewRequestWithContext(ctx, method, endpoint+"?"+q.Encode(), nil)
	if err != nil {
		return err
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return err
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return &apiError{status: resp.StatusCode, body: body}
	}
	return json.Unmarshal(body, out)
}

// tagGraphErr maps known token subcodes to actionable messages and
// tags everything else generically. Already-tagged errors (from the
// poller) pass through unchanged.
func (c *Client) tagGraphErr(msg string, err error, ctx map[string]any) error {
	var pe *errs.Error
	if errors.As(err, &pe) {
		return err
	}

	var ae *apiError
	if errors.As(err, &ae) {
		var ge graphError
		if jsonErr := json.Unmarshal(ae.body, &ge); jsonErr == nil {
			switch ge.Error.ErrorSubcode {
			case 467:
				msg = "publisher token revoked: user logged out or password changed; update IG_TOKEN"
			case 463:
				msg = "publisher token expired: generate a new token"
			}
		}
		if ctx == nil {
			ctx = map[string]any{}
		}
		ctx["response"] = string(ae.body)
	}
	return errs.Wrap(errs.KindDistribution, msg, err, ctx)
}
