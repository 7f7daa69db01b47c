package main

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/mattermost/mattermost/server/public/plugin/plugintest"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func TestServeHTTPStatusRequiresAuth(t *testing.T) {
	p := Plugin{}
	p.API = setupTestAPI()
	w := httptest.NewRecorder()
	r := httptest.NewRequest(http.MethodGet, "/api/v1/status", http.NoBody)

	p.ServeHTTP(nil, w, r)

	result := w.Result()
	defer result.Body.Close()
	assert.Equal(t, http.StatusUnauthorized, result.StatusCode)
}

func TestServeHTTPStatus(t *testing.T) {
	p := Plugin{}
	p.API = setupTestAPI()
	p.setConfiguration(&configuration{AutoSave: true})

	w := httptest.NewRecorder()
	r := httptest.NewRequest(http.MethodGet, "/api/v1/status", http.NoBody)
	r.Header.Set("Mattermost-User-ID", "test-user-id")

	p.ServeHTTP(nil, w, r)

	result := w.Result()
	defer result.Body.Close()
	require.Equal(t, http.StatusOK, result.StatusCode)

	var status struct {
		Configured bool `json:"configured"`
		AutoSave   bool `json:"autoSave"`
		CacheSize  int  `json:"cacheSize"`
	}
	require.NoError(t, json.NewDecoder(result.Body).Decode(&status))

	assert.False(t, status.Configured)
	assert.True(t, status.AutoSave)
	assert.Equal(t, 0, status.CacheSize)
}

// failingResponseWriter rejects every write, as a closed client connection
// does.
type failingResponseWriter struct {
	header http.Header
}

func (w *failingResponseWriter) Header() http.Header { return w.header }

func (w *failingResponseWriter) Write([]byte) (int, error) {
	return 0, errors.New("client went away")
}

func (w *failingResponseWriter) WriteHeader(int) {}

func TestGetStatusEncodeFailureLogsCause(t *testing.T) {
	api := &plugintest.API{}
	api.On("LogError", "Failed to encode status", "error", mock.AnythingOfType("string")).Return(nil)

	p := Plugin{}
	p.API = api
	p.setConfiguration(&configuration{})

	w := &failingResponseWriter{header: http.Header{}}
	r := httptest.NewRequest(http.MethodGet, "/api/v1/status", http.NoBody)
	p.GetStatus(w, r)

	api.AssertExpectations(t)
}

func TestServeHTTPEntriesUnconfigured(t *testing.T) {
	p := Plugin{}
	p.API = setupTestAPI()

	w := httptest.NewRecorder()
	r := httptest.NewRequest(http.MethodGet, "/api/v1/entries", http.NoBody)
	r.Header.Set("Mattermost-User-ID", "test-user-id")

	p.ServeHTTP(nil, w, r)

	result := w.Result()
	defer result.Body.Close()
	assert.Equal(t, http.StatusServiceUnavailable, result.StatusCode)
}
