package slack

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// apiStub records every form the client posts, keyed by method name, and
// serves canned JSON per method.
type apiStub struct {
	mu        sync.Mutex
	forms     map[string]map[string][]string
	responses map[string]string
	status    int
}

func newAPIStub() *apiStub {
	return &apiStub{
		forms:     map[string]map[string][]string{},
		responses: map[string]string{},
		status:    http.StatusOK,
	}
}

func (s *apiStub) handler(t *testing.T) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodPost, r.Method)
		require.Equal(t, "Bearer xoxp-test", r.Header.Get("Authorization"))
		require.NoError(t, r.ParseForm())

		method := r.URL.Path[1:]
		s.mu.Lock()
		s.forms[method] = r.PostForm
		body, ok := s.responses[method]
		status := s.status
		s.mu.Unlock()

		if status != http.StatusOK {
			w.WriteHeader(status)
			return
		}
		if !ok {
			body = `{"ok": true}`
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(body))
	}
}

func (s *apiStub) form(method string) map[string][]string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.forms[method]
}

func newTestClient(t *testing.T, stub *apiStub) *Client {
	t.Helper()
	srv := httptest.NewServer(stub.handler(t))
	t.Cleanup(srv.Close)
	return New("xoxp-test", srv.URL, zerolog.Nop())
}

func TestFetchCurrent_MergesProfileAndDND(t *testing.T) {
	stub := newAPIStub()
	stub.responses["users.profile.get"] = `{"ok": true, "profile": {"status_text": "Deep work", "status_emoji": ":headphones:"}}`
	stub.responses["dnd.info"] = `{"ok": true, "snooze_enabled": true}`
	client := newTestClient(t, stub)

	status, err := client.FetchCurrent(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "Deep work", status.Message)
	assert.Equal(t, ":headphones:", status.Icon)
	assert.True(t, status.DoNotDisturb)
}

func TestFetchCurrent_APIErrorSurfacesAsRemoteError(t *testing.T) {
	stub := newAPIStub()
	stub.responses["users.profile.get"] = `{"ok": false, "error": "invalid_auth"}`
	stub.responses["dnd.info"] = `{"ok": true}`
	client := newTestClient(t, stub)

	_, err := client.FetchCurrent(context.Background())
	require.Error(t, err)
	var remoteErr *RemoteError
	require.ErrorAs(t, err, &remoteErr)
	assert.Equal(t, "users.profile.get", remoteErr.Op)
	assert.Equal(t, "invalid_auth", remoteErr.Reason)
}

func TestPublish_SendsProfileJSON(t *testing.T) {
	stub := newAPIStub()
	client := newTestClient(t, stub)

	err := client.Publish(context.Background(), ":headphones:", "Deep work", 1767800000)
	require.NoError(t, err)

	form := stub.form("users.profile.set")
	require.Len(t, form["profile"], 1)

	var profile struct {
		Emoji      string `json:"status_emoji"`
		Text       string `json:"status_text"`
		Expiration int64  `json:"status_expiration"`
	}
	require.NoError(t, json.Unmarshal([]byte(form["profile"][0]), &profile))
	assert.Equal(t, ":headphones:", profile.Emoji)
	assert.Equal(t, "Deep work", profile.Text)
	assert.Equal(t, int64(1767800000), profile.Expiration)
}

func TestPublish_EmptyClearsStatus(t *testing.T) {
	stub := newAPIStub()
	client := newTestClient(t, stub)

	require.NoError(t, client.Publish(context.Background(), "", "", 0))

	var profile struct {
		Emoji      string `json:"status_emoji"`
		Text       string `json:"status_text"`
		Expiration int64  `json:"status_expiration"`
	}
	form := stub.form("users.profile.set")
	require.Len(t, form["profile"], 1)
	require.NoError(t, json.Unmarshal([]byte(form["profile"][0]), &profile))
	assert.Empty(t, profile.Emoji)
	assert.Empty(t, profile.Text)
	assert.Zero(t, profile.Expiration)
}

func TestSetDoNotDisturb_PostsMinutes(t *testing.T) {
	stub := newAPIStub()
	client := newTestClient(t, stub)

	require.NoError(t, client.SetDoNotDisturb(context.Background(), 56))
	assert.Equal(t, []string{"56"}, stub.form("dnd.setSnooze")["num_minutes"])
}

func TestClearDoNotDisturb(t *testing.T) {
	stub := newAPIStub()
	client := newTestClient(t, stub)

	require.NoError(t, client.ClearDoNotDisturb(context.Background()))
	assert.NotNil(t, stub.form("dnd.endSnooze"))
}

func TestCall_Non200IsRemoteError(t *testing.T) {
	stub := newAPIStub()
	stub.status = http.StatusTooManyRequests
	client := newTestClient(t, stub)

	err := client.SetDoNotDisturb(context.Background(), 5)
	var remoteErr *RemoteError
	require.ErrorAs(t, err, &remoteErr)
	assert.Equal(t, "dnd.setSnooze", remoteErr.Op)
	assert.Contains(t, remoteErr.Reason, "429")
}
