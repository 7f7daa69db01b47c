package main

import (
	"strings"
	"testing"

	"github.com/mattermost/mattermost/server/public/model"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/fmartingr/mattermost-plugin-wallabag/server/wallabag"
)

func TestReplyEntryPostsInThread(t *testing.T) {
	api := setupTestAPI()
	api.On("GetPost", "post1").Return(&model.Post{Id: "post1", ChannelId: "channel1"}, nil)

	var created *model.Post
	api.On("CreatePost", mock.AnythingOfType("*model.Post")).Run(func(args mock.Arguments) {
		created = args.Get(0).(*model.Post)
	}).Return(&model.Post{}, nil)

	service := NewThreadReplyService(api, "bot-id")
	err := service.ReplyEntry("post1", &wallabag.Entry{Title: "An Article", ReadingTime: 3})
	require.NoError(t, err)

	require.NotNil(t, created)
	assert.Equal(t, "bot-id", created.UserId)
	assert.Equal(t, "channel1", created.ChannelId)
	assert.Equal(t, "post1", created.RootId)
	assert.Contains(t, created.Message, "An Article")
	assert.Contains(t, created.Message, "3 min read")
}

func TestReplyEntryInsideExistingThread(t *testing.T) {
	api := setupTestAPI()
	api.On("GetPost", "reply1").Return(&model.Post{Id: "reply1", ChannelId: "channel1", RootId: "root1"}, nil)

	var created *model.Post
	api.On("CreatePost", mock.AnythingOfType("*model.Post")).Run(func(args mock.Arguments) {
		created = args.Get(0).(*model.Post)
	}).Return(&model.Post{}, nil)

	service := NewThreadReplyService(api, "bot-id")
	err := service.ReplyEntry("reply1", &wallabag.Entry{Title: "An Article"})
	require.NoError(t, err)

	require.NotNil(t, created)
	assert.Equal(t, "root1", created.RootId)
}

func TestReplyErrorHidesRawCause(t *testing.T) {
	api := setupTestAPI()
	api.On("GetPost", "post1").Return(&model.Post{Id: "post1", ChannelId: "channel1"}, nil)

	var created *model.Post
	api.On("CreatePost", mock.AnythingOfType("*model.Post")).Run(func(args mock.Arguments) {
		created = args.Get(0).(*model.Post)
	}).Return(&model.Post{}, nil)

	service := NewThreadReplyService(api, "bot-id")
	cause := errors.New("connection reset by peer")
	err := service.ReplyError("post1", "https://a.example", &wallabag.SaveError{URL: "https://a.example", Cause: cause})
	require.NoError(t, err)

	require.NotNil(t, created)
	assert.Contains(t, created.Message, "https://a.example")
	assert.NotContains(t, created.Message, "connection reset")
}

func TestTruncateTitle(t *testing.T) {
	tests := []struct {
		name     string
		title    string
		expected string
	}{
		{name: "empty", title: "", expected: "(untitled)"},
		{name: "short", title: "Short Title", expected: "Short Title"},
		{
			name:     "long title truncated",
			title:    strings.Repeat("a", 60),
			expected: strings.Repeat("a", 50) + "…",
		},
		{
			name:     "multibyte safe",
			title:    strings.Repeat("日", 60),
			expected: strings.Repeat("日", 50) + "…",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, truncateTitle(tt.title))
		})
	}
}
