package main

import (
	"context"
	"net/http"
	"sync"
	"time"

	"github.com/mattermost/mattermost/server/public/model"
	"github.com/mattermost/mattermost/server/public/plugin"
	"github.com/mattermost/mattermost/server/public/pluginapi"
	"github.com/mattermost/mattermost/server/public/pluginapi/cluster"
	"github.com/pkg/errors"

	"github.com/fmartingr/mattermost-plugin-wallabag/server/command"
	"github.com/fmartingr/mattermost-plugin-wallabag/server/store/kvstore"
	"github.com/fmartingr/mattermost-plugin-wallabag/server/wallabag"
)

// listPageSize is how many entries the list command and API show.
const listPageSize = 10

// Plugin implements the interface expected by the Mattermost server to communicate between the server and plugin processes.
type Plugin struct {
	plugin.MattermostPlugin

	// kvstore is the client used to read/write KV records for this plugin.
	kvstore kvstore.KVStore

	// client is the Mattermost server API client.
	client *pluginapi.Client

	// commandClient is the client used to register and execute slash commands.
	commandClient command.Command

	// flushJob periodically persists the saved-URL cache.
	flushJob *cluster.Job

	// configurationLock synchronizes access to the configuration.
	configurationLock sync.RWMutex

	// configuration is the active plugin configuration. Consult getConfiguration and
	// setConfiguration for usage.
	configuration *configuration

	// wallabagLock guards the Wallabag client, which is rebuilt whenever the
	// credentials change.
	wallabagLock   sync.RWMutex
	wallabagClient *wallabag.Client

	// urlCache deduplicates URLs already saved to Wallabag.
	urlCache *SavedURLCache

	// saveProcessor handles saving of URLs found in posts.
	saveProcessor *SaveProcessor

	// botService manages the wallabag bot account.
	botService *BotService

	// threadReplyService posts feedback into threads.
	threadReplyService *ThreadReplyService
}

// OnActivate is invoked when the plugin is activated. If an error is returned, the plugin will be deactivated.
func (p *Plugin) OnActivate() error {
	p.client = pluginapi.NewClient(p.API, p.Driver)

	p.kvstore = kvstore.NewKVStore(p.client)

	// Initialize bot service and ensure bot exists
	p.botService = NewBotService(p.API)
	if err := p.botService.EnsureBotExists(); err != nil {
		return errors.Wrap(err, "failed to ensure bot account exists")
	}

	p.threadReplyService = NewThreadReplyService(p.API, p.botService.GetBotID())

	config := p.getConfiguration()
	p.urlCache = NewSavedURLCache(p.API, p.kvstore, config.CacheMaxSize)
	p.urlCache.Load()

	p.saveProcessor = NewSaveProcessor(p.API, NewURLExtractor(), p.urlCache, p.threadReplyService, func() EntrySaver {
		if client := p.getWallabagClient(); client != nil {
			return client
		}
		return nil
	})

	// The first OnConfigurationChange fires before activation, when the
	// kvstore does not exist yet; rebuild the client now so the cached token
	// is restored.
	p.reconfigure(config)

	p.commandClient = command.NewCommandHandler(p.client, p)

	job, err := cluster.Schedule(
		p.API,
		"CacheFlushJob",
		cluster.MakeWaitForRoundedInterval(15*time.Minute),
		p.runFlushJob,
	)
	if err != nil {
		return errors.Wrap(err, "failed to schedule cache flush job")
	}
	p.flushJob = job

	return nil
}

// OnDeactivate is invoked when the plugin is deactivated. The cache gets a
// final flush so nothing saved in this session is lost.
func (p *Plugin) OnDeactivate() error {
	if p.flushJob != nil {
		if err := p.flushJob.Close(); err != nil {
			p.API.LogError("Failed to close cache flush job", "err", err)
		}
	}
	if p.urlCache != nil {
		p.urlCache.Flush()
	}
	return nil
}

// runFlushJob persists the saved-URL cache at a regular checkpoint.
func (p *Plugin) runFlushJob() {
	p.urlCache.Flush()
}

// This will execute the commands that were registered in the NewCommandHandler function.
func (p *Plugin) ExecuteCommand(c *plugin.Context, args *model.CommandArgs) (*model.CommandResponse, *model.AppError) {
	response, err := p.commandClient.Handle(args)
	if err != nil {
		return nil, model.NewAppError("ExecuteCommand", "plugin.command.execute_command.app_error", nil, err.Error(), http.StatusInternalServerError)
	}
	return response, nil
}

// MessageHasBeenPosted is invoked when a message has been posted by a user.
// This hook is called after the message has been committed to the database.
func (p *Plugin) MessageHasBeenPosted(c *plugin.Context, post *model.Post) {
	// Ignore messages from the bot itself to prevent infinite loops
	if p.botService != nil && post.UserId == p.botService.GetBotID() {
		return
	}
	if post.IsSystemMessage() {
		return
	}

	config := p.getConfiguration()
	if !config.AutoSave {
		return
	}

	// Process the post (async, non-blocking for the hook)
	go p.saveProcessor.ProcessPost(context.Background(), post.Id, post.Message)
}

func (p *Plugin) getWallabagClient() *wallabag.Client {
	p.wallabagLock.RLock()
	defer p.wallabagLock.RUnlock()
	return p.wallabagClient
}

func (p *Plugin) setWallabagClient(client *wallabag.Client) {
	p.wallabagLock.Lock()
	defer p.wallabagLock.Unlock()
	p.wallabagClient = client
}

// Ready implements command.EntryService.
func (p *Plugin) Ready() bool {
	return p.getWallabagClient() != nil
}

// ValidURL implements command.EntryService using the shared URL pattern.
func (p *Plugin) ValidURL(rawURL string) bool {
	return NewURLExtractor().IsValid(rawURL)
}

// SaveNow implements command.EntryService: one command-initiated save,
// synchronous with the command, persisting the cache right after.
func (p *Plugin) SaveNow(ctx context.Context, rawURL string) (*wallabag.Entry, error) {
	if !p.Ready() {
		return nil, wallabag.ErrConfigIncomplete
	}

	entry, err := p.saveProcessor.SaveURL(ctx, rawURL)
	if err != nil {
		if errors.Is(err, errAlreadySaved) {
			return nil, command.ErrAlreadySaved
		}
		return nil, err
	}

	p.urlCache.Flush()
	return entry, nil
}

// List implements command.EntryService.
func (p *Plugin) List(ctx context.Context) ([]wallabag.Entry, error) {
	client := p.getWallabagClient()
	if client == nil {
		return nil, wallabag.ErrConfigIncomplete
	}
	return client.ListEntries(ctx, listPageSize)
}

// Delete implements command.EntryService. The cache entry for the deleted
// article is intentionally kept: the URL was archived once, and dropping it
// would make the next mention auto-save the article again.
func (p *Plugin) Delete(ctx context.Context, id int) error {
	client := p.getWallabagClient()
	if client == nil {
		return wallabag.ErrConfigIncomplete
	}
	return client.DeleteEntry(ctx, id)
}

// See https://developers.mattermost.com/extend/plugins/server/reference/
