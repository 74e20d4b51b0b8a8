// Package slack wraps the handful of Slack Web API methods the reconciler
// needs: reading and writing the profile status, and toggling DND snooze.
package slack

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"
)

// DefaultBaseURL is the production Slack API endpoint.
const DefaultBaseURL = "https://slack.com/api"

// RemoteStatus is the status currently visible in the workspace. It is
// fetched fresh whenever the reconciler needs it and never cached.
type RemoteStatus struct {
	Message      string
	Icon         string
	DoNotDisturb bool
}

// RemoteError is any failure talking to the API, transport-level or an
// API-reported error field. The reconciler treats it as retryable: the cycle
// aborts without mutating state and the next tick tries again.
type RemoteError struct {
	Op     string
	Reason string
}

func (e *RemoteError) Error() string {
	return fmt.Sprintf("slack %s: %s", e.Op, e.Reason)
}

// Client calls the Slack Web API with a fixed bot/user token.
type Client struct {
	baseURL    string
	token      string
	httpClient *http.Client
	logger     zerolog.Logger
}

// New creates a client. baseURL is overridable for tests; pass "" for the
// production endpoint.
func New(token, baseURL string, logger zerolog.Logger) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	return &Client{
		baseURL:    baseURL,
		token:      token,
		httpClient: &http.Client{Timeout: 10 * time.Second},
		logger:     logger.With().Str("component", "slack").Logger(),
	}
}

type apiEnvelope struct {
	OK    bool   `json:"ok"`
	Error string `json:"error"`
}

type profileResponse struct {
	apiEnvelope
	Profile struct {
		StatusText  string `json:"status_text"`
		StatusEmoji string `json:"status_emoji"`
	} `json:"profile"`
}

type dndResponse struct {
	apiEnvelope
	SnoozeEnabled bool `json:"snooze_enabled"`
}

// FetchCurrent reads the current profile status and DND state. The two reads
// are independent, so they run concurrently.
func (c *Client) FetchCurrent(ctx context.Context) (RemoteStatus, error) {
	var profile profileResponse
	var dnd dndResponse

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return c.call(ctx, "users.profile.get", nil, &profile)
	})
	g.Go(func() error {
		return c.call(ctx, "dnd.info", nil, &dnd)
	})
	if err := g.Wait(); err != nil {
		return RemoteStatus{}, err
	}

	return RemoteStatus{
		Message:      profile.Profile.StatusText,
		Icon:         profile.Profile.StatusEmoji,
		DoNotDisturb: dnd.SnoozeEnabled,
	}, nil
}

// Publish sets the profile status. An empty icon and message clear it;
// expiration is epoch seconds, zero meaning no expiration.
func (c *Client) Publish(ctx context.Context, icon, message string, expiration int64) error {
	profile, err := json.Marshal(map[string]any{
		"status_emoji":      icon,
		"status_text":       message,
		"status_expiration": expiration,
	})
	if err != nil {
		return &RemoteError{Op: "users.profile.set", Reason: err.Error()}
	}

	form := url.Values{"profile": {string(profile)}}
	var resp apiEnvelope
	return c.call(ctx, "users.profile.set", form, &resp)
}

// SetDoNotDisturb enables DND snooze for the given number of minutes.
func (c *Client) SetDoNotDisturb(ctx context.Context, minutes int) error {
	form := url.Values{"num_minutes": {strconv.Itoa(minutes)}}
	var resp apiEnvelope
	return c.call(ctx, "dnd.setSnooze", form, &resp)
}

// ClearDoNotDisturb ends an active DND snooze.
func (c *Client) ClearDoNotDisturb(ctx context.Context) error {
	var resp apiEnvelope
	return c.call(ctx, "dnd.endSnooze", nil, &resp)
}

type envelope interface {
	ok() (bool, string)
}

func (e *apiEnvelope) ok() (bool, string) { return e.OK, e.Error }

func (c *Client) call(ctx context.Context, method string, form url.Values, out envelope) error {
	var body string
	if form != nil {
		body = form.Encode()
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/"+method, strings.NewReader(body))
	if err != nil {
		return &RemoteError{Op: method, Reason: err.Error()}
	}
	req.Header.Set("Authorization", "Bearer "+c.token)
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	c.logger.Trace().Str("method", method).Msg("calling slack")
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return &RemoteError{Op: method, Reason: err.Error()}
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return &RemoteError{Op: method, Reason: fmt.Sprintf("unexpected status %d", resp.StatusCode)}
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return &RemoteError{Op: method, Reason: err.Error()}
	}
	if ok, apiErr := out.ok(); !ok {
		// An ok:false body is an API-level failure even though the HTTP
		// round-trip succeeded.
		return &RemoteError{Op: method, Reason: apiErr}
	}
	return nil
}
