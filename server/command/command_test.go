package command

import (
	"context"
	"strings"
	"testing"

	"github.com/mattermost/mattermost/server/public/model"
	"github.com/mattermost/mattermost/server/public/plugin/plugintest"
	"github.com/mattermost/mattermost/server/public/pluginapi"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/fmartingr/mattermost-plugin-wallabag/server/wallabag"
)

type fakeEntryService struct {
	ready      bool
	savedURL   string
	saveErr    error
	entries    []wallabag.Entry
	listErr    error
	deletedID  int
	deleteErr  error
	saveCalled bool
}

func (f *fakeEntryService) Ready() bool { return f.ready }

func (f *fakeEntryService) ValidURL(rawURL string) bool {
	return strings.HasPrefix(rawURL, "http://") || strings.HasPrefix(rawURL, "https://")
}

func (f *fakeEntryService) SaveNow(_ context.Context, rawURL string) (*wallabag.Entry, error) {
	f.saveCalled = true
	f.savedURL = rawURL
	if f.saveErr != nil {
		return nil, f.saveErr
	}
	return &wallabag.Entry{ID: 7, Title: "Saved Article", URL: rawURL, ReadingTime: 4}, nil
}

func (f *fakeEntryService) List(_ context.Context) ([]wallabag.Entry, error) {
	return f.entries, f.listErr
}

func (f *fakeEntryService) Delete(_ context.Context, id int) error {
	f.deletedID = id
	return f.deleteErr
}

func newTestHandler(service EntryService) *Handler {
	api := &plugintest.API{}
	for i := 1; i <= 21; i += 2 {
		args := make([]interface{}, i)
		for j := range args {
			args[j] = mock.Anything
		}
		api.On("LogError", args...).Maybe().Return(nil)
	}
	return &Handler{
		client:  pluginapi.NewClient(api, nil),
		service: service,
	}
}

func handle(t *testing.T, h *Handler, commandLine string) *model.CommandResponse {
	t.Helper()
	response, err := h.Handle(&model.CommandArgs{Command: commandLine})
	require.NoError(t, err)
	require.NotNil(t, response)
	assert.Equal(t, model.CommandResponseTypeEphemeral, response.ResponseType)
	return response
}

func TestHandleHelp(t *testing.T) {
	h := newTestHandler(&fakeEntryService{ready: true})

	for _, cmd := range []string{"/wallabag", "/wallabag help", "/wb", "/wallabag bogus"} {
		t.Run(cmd, func(t *testing.T) {
			response := handle(t, h, cmd)
			assert.Contains(t, response.Text, "/wallabag save <url>")
		})
	}
}

func TestHandleUnexpectedTrigger(t *testing.T) {
	h := newTestHandler(&fakeEntryService{})

	_, err := h.Handle(&model.CommandArgs{Command: "/other"})
	assert.Error(t, err)
}

func TestHandleSave(t *testing.T) {
	service := &fakeEntryService{ready: true}
	h := newTestHandler(service)

	response := handle(t, h, "/wallabag save https://example.com/article")

	assert.Equal(t, "https://example.com/article", service.savedURL)
	assert.Contains(t, response.Text, "Saved Article")
	assert.Contains(t, response.Text, "4 min read")
}

func TestHandleSaveInvalidURL(t *testing.T) {
	service := &fakeEntryService{ready: true}
	h := newTestHandler(service)

	response := handle(t, h, "/wallabag save ftp://x")

	// Rejected before any network call
	assert.False(t, service.saveCalled)
	assert.Contains(t, response.Text, "not a valid")
}

func TestHandleSaveMissingArgument(t *testing.T) {
	service := &fakeEntryService{ready: true}
	h := newTestHandler(service)

	response := handle(t, h, "/wallabag save")

	assert.False(t, service.saveCalled)
	assert.Contains(t, response.Text, "Usage")
}

func TestHandleSaveNotConfigured(t *testing.T) {
	service := &fakeEntryService{ready: false}
	h := newTestHandler(service)

	response := handle(t, h, "/wallabag save https://example.com/article")

	assert.False(t, service.saveCalled)
	assert.Contains(t, response.Text, "not configured")
}

func TestHandleSaveAlreadySaved(t *testing.T) {
	service := &fakeEntryService{ready: true, saveErr: ErrAlreadySaved}
	h := newTestHandler(service)

	response := handle(t, h, "/wallabag save https://example.com/article")

	assert.Contains(t, response.Text, "already saved")
}

func TestHandleSaveFailure(t *testing.T) {
	service := &fakeEntryService{ready: true, saveErr: &wallabag.SaveError{URL: "https://example.com/article", Cause: errors.New("boom")}}
	h := newTestHandler(service)

	response := handle(t, h, "/wallabag save https://example.com/article")

	// The raw cause stays out of the chat surface
	assert.NotContains(t, response.Text, "boom")
	assert.Contains(t, response.Text, "Saving failed")
}

func TestHandleList(t *testing.T) {
	service := &fakeEntryService{ready: true, entries: []wallabag.Entry{
		{ID: 1, Title: "First", URL: "https://a.example"},
		{ID: 2, Title: "Second", URL: "https://b.example"},
	}}
	h := newTestHandler(service)

	response := handle(t, h, "/wallabag list")

	assert.Contains(t, response.Text, "`1` [First](https://a.example)")
	assert.Contains(t, response.Text, "`2` [Second](https://b.example)")
}

func TestHandleListEmpty(t *testing.T) {
	service := &fakeEntryService{ready: true}
	h := newTestHandler(service)

	response := handle(t, h, "/wallabag list")

	assert.Contains(t, response.Text, "No saved entries")
}

func TestHandleDelete(t *testing.T) {
	service := &fakeEntryService{ready: true}
	h := newTestHandler(service)

	response := handle(t, h, "/wallabag delete 42")

	assert.Equal(t, 42, service.deletedID)
	assert.Contains(t, response.Text, "Deleted entry `42`")
}

func TestHandleDeleteInvalidID(t *testing.T) {
	service := &fakeEntryService{ready: true}
	h := newTestHandler(service)

	response := handle(t, h, "/wallabag delete abc")

	assert.Equal(t, 0, service.deletedID)
	assert.Contains(t, response.Text, "not a valid entry id")
}

func TestHandleAuthFailureHidesDetails(t *testing.T) {
	service := &fakeEntryService{ready: true, saveErr: &wallabag.AuthError{Cause: errors.New("status 400: secret exchange")}}
	h := newTestHandler(service)

	response := handle(t, h, "/wallabag save https://example.com/article")

	assert.NotContains(t, response.Text, "secret exchange")
	assert.Contains(t, response.Text, "authentication with Wallabag failed")
}
