package dispatch

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/dmitrymomot/mailkit/pkg/mail"
	"github.com/dmitrymomot/mailkit/pkg/retry"
)

// Get retrieves a single email by its provider-assigned identifier.
func (c *Client) Get(ctx context.Context, id string) (*mail.Email, error) {
	return retry.Do(ctx, c.executor(), func(ctx context.Context) (*mail.Email, error) {
		if err := c.waitForSlot(ctx); err != nil {
			return nil, err
		}
		var email mail.Email
		if err := c.transport.do(ctx, http.MethodGet, emailPath(id), "", nil, &email); err != nil {
			return nil, err
		}
		return &email, nil
	})
}

// Reschedule moves a scheduled email to a new send time. The provider only
// accepts this while the email is still unsent; a 4xx otherwise.
func (c *Client) Reschedule(ctx context.Context, id string, at time.Time) error {
	body := struct {
		ScheduledAt time.Time `json:"scheduled_at"`
	}{ScheduledAt: at}

	_, err := retry.Do(ctx, c.executor(), func(ctx context.Context) (struct{}, error) {
		if err := c.waitForSlot(ctx); err != nil {
			return struct{}{}, err
		}
		return struct{}{}, c.transport.do(ctx, http.MethodPatch, emailPath(id), "", body, nil)
	})
	if err != nil {
		return wrapFailure(failureOutcome(err), err)
	}
	return nil
}

// Cancel stops a scheduled email. Only valid while the email is unsent.
func (c *Client) Cancel(ctx context.Context, id string) error {
	_, err := retry.Do(ctx, c.executor(), func(ctx context.Context) (struct{}, error) {
		if err := c.waitForSlot(ctx); err != nil {
			return struct{}{}, err
		}
		return struct{}{}, c.transport.do(ctx, http.MethodPost, emailPath(id)+"/cancel", "", nil, nil)
	})
	if err != nil {
		return wrapFailure(failureOutcome(err), err)
	}
	return nil
}

// ListOptions narrows a listing.
type ListOptions struct {
	// Limit is the page size requested from the provider; zero leaves the
	// provider default in place.
	Limit int
	// After resumes a listing from a previously observed cursor.
	After string
}

// List returns a lazy pager over the account's emails. No network call is
// made until the first Next.
func (c *Client) List(opts ListOptions) *Pager {
	return &Pager{client: c, limit: opts.Limit, cursor: opts.After}
}

// Pager walks cursor-delimited pages. The sequence is restartable: persist
// Cursor anywhere along the way and resume later with ListOptions.After.
//
//	pager := client.List(dispatch.ListOptions{Limit: 50})
//	for pager.More() {
//	    page, err := pager.Next(ctx)
//	    ...
//	}
type Pager struct {
	client *Client
	limit  int
	cursor string
	done   bool
}

// More reports whether another page may be available. It is true before the
// first fetch and turns false once the provider returns no cursor.
func (p *Pager) More() bool {
	return !p.done
}

// Cursor returns the position the next page will be fetched from. Empty
// before the first page and after exhaustion.
func (p *Pager) Cursor() string {
	return p.cursor
}

// Next fetches the next page. After the sequence is exhausted it keeps
// returning (nil, nil); a failed fetch leaves the cursor untouched so the
// call can be retried.
func (p *Pager) Next(ctx context.Context) ([]mail.Email, error) {
	if p.done {
		return nil, nil
	}

	path := "/emails"
	query := url.Values{}
	if p.limit > 0 {
		query.Set("limit", strconv.Itoa(p.limit))
	}
	if p.cursor != "" {
		query.Set("after", p.cursor)
	}
	if len(query) > 0 {
		path += "?" + query.Encode()
	}

	resp, err := retry.Do(ctx, p.client.executor(), func(ctx context.Context) (listResponse, error) {
		if err := p.client.waitForSlot(ctx); err != nil {
			return listResponse{}, err
		}
		var out listResponse
		if err := p.client.transport.do(ctx, http.MethodGet, path, "", nil, &out); err != nil {
			return listResponse{}, err
		}
		return out, nil
	})
	if err != nil {
		return nil, fmt.Errorf("dispatch: failed to fetch page: %w", err)
	}

	p.cursor = resp.Cursor
	if resp.Cursor == "" {
		p.done = true
	}
	return resp.Data, nil
}
