package acceptance

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/kendall-kelly/xdecor-api/middleware"
	"github.com/kendall-kelly/xdecor-api/tests/testutil"
	"github.com/stretchr/testify/require"
)

// liveApp serves the API on a real listener with session-token authentication
type liveApp struct {
	*testutil.App
	server *httptest.Server
}

func startApp(t *testing.T) *liveApp {
	t.Helper()
	testutil.MustSetTestEnvironment(t)

	app := testutil.NewApp(t, middleware.EnsureValidSessionToken(testutil.TestJWTSecret))
	server := httptest.NewServer(app.Router)
	t.Cleanup(server.Close)
	return &liveApp{App: app, server: server}
}

// call sends a JSON request over HTTP. An empty token sends no Authorization header.
func (a *liveApp) call(t *testing.T, method, path, token string, body interface{}) (*http.Response, testutil.Envelope) {
	t.Helper()

	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	}

	req, err := http.NewRequestWithContext(t.Context(), method, a.server.URL+path, reader)
	require.NoError(t, err)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer func() { _ = resp.Body.Close() }()

	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)

	var env testutil.Envelope
	if len(raw) > 0 && resp.Header.Get("Content-Type") != "" && bytes.HasPrefix(bytes.TrimSpace(raw), []byte("{")) {
		require.NoError(t, json.Unmarshal(raw, &env), string(raw))
	}
	return resp, env
}

// register signs a session token for a new identity and creates its account
func (a *liveApp) register(t *testing.T, uid, email, name string) string {
	t.Helper()

	token := testutil.SessionToken(t, uid, email, name)
	resp, env := a.call(t, http.MethodPost, "/api/v1/users", token, nil)
	require.Equal(t, http.StatusCreated, resp.StatusCode, env.ErrorCode())
	return token
}
