package command

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/mattermost/mattermost/server/public/model"
	"github.com/mattermost/mattermost/server/public/pluginapi"
	"github.com/pkg/errors"

	"github.com/fmartingr/mattermost-plugin-wallabag/server/wallabag"
)

// ErrAlreadySaved is returned by SaveNow when the URL is already in the
// saved-URL cache.
var ErrAlreadySaved = errors.New("url was already saved")

// EntryService is what the command handler needs from the plugin: save, list
// and delete against the configured Wallabag instance, plus URL validation
// with the same pattern the auto-save extractor uses.
type EntryService interface {
	Ready() bool
	ValidURL(rawURL string) bool
	SaveNow(ctx context.Context, rawURL string) (*wallabag.Entry, error)
	List(ctx context.Context) ([]wallabag.Entry, error)
	Delete(ctx context.Context, id int) error
}

type Handler struct {
	client  *pluginapi.Client
	service EntryService
}

type Command interface {
	Handle(args *model.CommandArgs) (*model.CommandResponse, error)
}

const (
	wallabagCommandTrigger = "wallabag"
	wbCommandTrigger       = "wb"

	helpText = "#### Wallabag\n" +
		"Save links posted in channels to your Wallabag instance.\n" +
		"* `/wallabag save <url>` - save a URL\n" +
		"* `/wallabag list` - show the most recent saved entries\n" +
		"* `/wallabag delete <id>` - delete an entry by its id\n" +
		"* `/wallabag help` - show this text\n" +
		"When auto-save is enabled, links in ordinary messages are saved automatically.\n" +
		"`/wb` is a shorthand for `/wallabag`."

	notConfiguredText = "Wallabag is not configured yet. An administrator needs to fill in the " +
		"instance URL and credentials in **System Console > Plugins > Wallabag**."
)

// Register all your slash commands in the NewCommandHandler function. It is
// run by OnActivate.
func NewCommandHandler(client *pluginapi.Client, service EntryService) Command {
	handler := &Handler{
		client:  client,
		service: service,
	}

	for _, trigger := range []string{wallabagCommandTrigger, wbCommandTrigger} {
		err := client.SlashCommand.Register(&model.Command{
			Trigger:          trigger,
			AutoComplete:     true,
			AutoCompleteDesc: "Save, list and delete Wallabag entries",
			AutoCompleteHint: "[help|save|list|delete]",
			AutocompleteData: autocompleteData(trigger),
		})
		if err != nil {
			client.Log.Error("Failed to register command", "trigger", trigger, "error", err)
		}
	}

	return handler
}

func autocompleteData(trigger string) *model.AutocompleteData {
	root := model.NewAutocompleteData(trigger, "[command]", "Save, list and delete Wallabag entries")

	save := model.NewAutocompleteData("save", "<url>", "Save a URL to Wallabag")
	save.AddTextArgument("URL to save", "<url>", "")
	root.AddCommand(save)

	list := model.NewAutocompleteData("list", "", "Show the most recent saved entries")
	root.AddCommand(list)

	del := model.NewAutocompleteData("delete", "<id>", "Delete an entry by its id")
	del.AddTextArgument("Entry id", "<id>", "")
	root.AddCommand(del)

	root.AddCommand(model.NewAutocompleteData("help", "", "Show usage"))

	return root
}

// Handle dispatches a slash command invocation. Unknown subcommands and the
// bare trigger fall through to help.
func (h *Handler) Handle(args *model.CommandArgs) (*model.CommandResponse, error) {
	fields := strings.Fields(args.Command)
	if len(fields) == 0 {
		return h.help(), nil
	}

	trigger := strings.TrimPrefix(fields[0], "/")
	if trigger != wallabagCommandTrigger && trigger != wbCommandTrigger {
		return nil, errors.Errorf("unexpected trigger %q", args.Command)
	}

	subcommand := "help"
	if len(fields) > 1 {
		subcommand = fields[1]
	}

	switch subcommand {
	case "save":
		return h.save(fields[2:]), nil
	case "list":
		return h.list(), nil
	case "delete":
		return h.delete(fields[2:]), nil
	default:
		return h.help(), nil
	}
}

func (h *Handler) help() *model.CommandResponse {
	return ephemeral(helpText)
}

func (h *Handler) save(args []string) *model.CommandResponse {
	if len(args) != 1 {
		return ephemeral("Usage: `/wallabag save <url>`")
	}

	rawURL := args[0]
	if !h.service.ValidURL(rawURL) {
		return ephemeral(fmt.Sprintf("`%s` is not a valid http(s) URL.", rawURL))
	}

	if !h.service.Ready() {
		return ephemeral(notConfiguredText)
	}

	entry, err := h.service.SaveNow(context.Background(), rawURL)
	if err != nil {
		if errors.Is(err, ErrAlreadySaved) {
			return ephemeral("That URL is already saved to Wallabag.")
		}
		h.client.Log.Error("Save command failed", "url", rawURL, "error", err.Error())
		return ephemeral("Saving failed: " + wallabag.UserFacingReason(err) + ".")
	}

	message := fmt.Sprintf("📎 Saved to Wallabag: **%s**", entry.Title)
	if entry.ReadingTime > 0 {
		message += fmt.Sprintf(" (%d min read)", entry.ReadingTime)
	}
	return ephemeral(message)
}

func (h *Handler) list() *model.CommandResponse {
	if !h.service.Ready() {
		return ephemeral(notConfiguredText)
	}

	entries, err := h.service.List(context.Background())
	if err != nil {
		h.client.Log.Error("List command failed", "error", err.Error())
		return ephemeral("Listing failed: " + wallabag.UserFacingReason(err) + ".")
	}
	if len(entries) == 0 {
		return ephemeral("No saved entries yet.")
	}

	var sb strings.Builder
	sb.WriteString("#### Recent Wallabag entries\n")
	for _, entry := range entries {
		fmt.Fprintf(&sb, "* `%d` [%s](%s)\n", entry.ID, entry.Title, entry.URL)
	}
	return ephemeral(sb.String())
}

func (h *Handler) delete(args []string) *model.CommandResponse {
	if len(args) != 1 {
		return ephemeral("Usage: `/wallabag delete <id>`")
	}

	id, err := strconv.Atoi(args[0])
	if err != nil {
		return ephemeral(fmt.Sprintf("`%s` is not a valid entry id.", args[0]))
	}

	if !h.service.Ready() {
		return ephemeral(notConfiguredText)
	}

	if err := h.service.Delete(context.Background(), id); err != nil {
		h.client.Log.Error("Delete command failed", "id", id, "error", err.Error())
		return ephemeral("Deleting failed: " + wallabag.UserFacingReason(err) + ".")
	}

	return ephemeral(fmt.Sprintf("🗑️ Deleted entry `%d` from Wallabag.", id))
}

func ephemeral(text string) *model.CommandResponse {
	return &model.CommandResponse{
		ResponseType: model.CommandResponseTypeEphemeral,
		Text:         text,
	}
}
