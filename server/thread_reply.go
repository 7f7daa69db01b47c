package main

import (
	"fmt"

	"github.com/mattermost/mattermost/server/public/model"
	"github.com/mattermost/mattermost/server/public/plugin"
	"github.com/pkg/errors"

	"github.com/fmartingr/mattermost-plugin-wallabag/server/wallabag"
)

// maxTitleLength bounds how much of an article title is shown in chat.
const maxTitleLength = 50

// ThreadReplyService posts save confirmations and error summaries as thread
// replies from the bot account.
type ThreadReplyService struct {
	api   plugin.API
	botID string
}

// NewThreadReplyService creates a new thread reply service
func NewThreadReplyService(api plugin.API, botID string) *ThreadReplyService {
	return &ThreadReplyService{
		api:   api,
		botID: botID,
	}
}

// ReplyEntry posts a confirmation for a saved entry in the post's thread.
func (t *ThreadReplyService) ReplyEntry(postID string, entry *wallabag.Entry) error {
	message := fmt.Sprintf("📎 Saved to Wallabag: **%s**", truncateTitle(entry.Title))
	if entry.ReadingTime > 0 {
		message += fmt.Sprintf(" (%d min read)", entry.ReadingTime)
	}
	return t.reply(postID, message)
}

// ReplyError posts a concise failure summary in the post's thread. The raw
// cause never reaches the chat surface; callers log it.
func (t *ThreadReplyService) ReplyError(postID, url string, err error) error {
	message := fmt.Sprintf("❌ Could not save %s: %s", url, wallabag.UserFacingReason(err))
	return t.reply(postID, message)
}

func (t *ThreadReplyService) reply(postID, message string) error {
	post, appErr := t.api.GetPost(postID)
	if appErr != nil {
		return errors.Wrap(appErr, "failed to get original post")
	}

	// If the post is already a reply, stay in its thread.
	rootID := postID
	if post.RootId != "" {
		rootID = post.RootId
	}

	replyPost := &model.Post{
		UserId:    t.botID,
		ChannelId: post.ChannelId,
		RootId:    rootID,
		Message:   message,
		CreateAt:  model.GetMillis(),
	}

	if _, appErr = t.api.CreatePost(replyPost); appErr != nil {
		return errors.Wrap(appErr, "failed to create thread reply")
	}

	return nil
}

// truncateTitle shortens a title for display, rune-safe.
func truncateTitle(title string) string {
	if title == "" {
		return "(untitled)"
	}
	runes := []rune(title)
	if len(runes) <= maxTitleLength {
		return title
	}
	return string(runes[:maxTitleLength]) + "…"
}
