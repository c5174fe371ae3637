package main

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// startServer runs the production router behind a real listener
func startServer(t *testing.T) *httptest.Server {
	t.Helper()
	server := httptest.NewServer(newTestRouter(t))
	t.Cleanup(server.Close)
	return server
}

// TestServerStartup is an acceptance test that verifies the server can start
func TestServerStartup(t *testing.T) {
	server := startServer(t)
	assert.NotEmpty(t, server.URL, "Server should be listening")
}

// TestAPIHealthEndpointAcceptance is an end-to-end acceptance test
// It sends a real HTTP request to verify the API works as expected
func TestAPIHealthEndpointAcceptance(t *testing.T) {
	server := startServer(t)

	resp, err := http.Get(server.URL + "/api/v1/health")
	require.NoError(t, err, "Should be able to reach the server")
	defer resp.Body.Close()

	assert.Equal(t, http.StatusOK, resp.StatusCode, "Health endpoint should return 200 OK")

	var response struct {
		Success bool   `json:"success"`
		Message string `json:"message"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&response), "Response should be valid JSON")
	assert.True(t, response.Success, "Success field should be true")
	assert.Equal(t, "xdecor API is running", response.Message)
}

// TestHealthEndpointAvailability tests that the health endpoint is available immediately
func TestHealthEndpointAvailability(t *testing.T) {
	server := startServer(t)

	for i := 0; i < 5; i++ {
		resp, err := http.Get(server.URL + "/api/v1/health")
		require.NoError(t, err)

		var response map[string]interface{}
		err = json.NewDecoder(resp.Body).Decode(&response)
		resp.Body.Close()

		assert.NoError(t, err)
		assert.Equal(t, http.StatusOK, resp.StatusCode, fmt.Sprintf("Request %d should succeed", i+1))
		assert.Equal(t, true, response["success"], fmt.Sprintf("Request %d should have success=true", i+1))
	}
}

// TestHealthEndpointResponseTime tests that the endpoint responds quickly
func TestHealthEndpointResponseTime(t *testing.T) {
	server := startServer(t)

	start := time.Now()
	resp, err := http.Get(server.URL + "/api/v1/health")
	duration := time.Since(start)
	require.NoError(t, err)
	resp.Body.Close()

	assert.Less(t, duration, 500*time.Millisecond,
		"Health endpoint should respond in less than 500ms")
}

// TestPublicCatalogAcceptance tests that a visitor can browse services over HTTP
func TestPublicCatalogAcceptance(t *testing.T) {
	server := startServer(t)

	resp, err := http.Get(server.URL + "/api/v1/services")
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	var response struct {
		Success bool              `json:"success"`
		Data    []json.RawMessage `json:"data"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&response))
	assert.True(t, response.Success)
	assert.Empty(t, response.Data)
}
