package kvstore

import (
	"github.com/mattermost/mattermost/server/public/pluginapi"
	"github.com/pkg/errors"

	"github.com/fmartingr/mattermost-plugin-wallabag/server/wallabag"
)

const (
	savedURLsKey = "saved_urls"
	tokenKey     = "wallabag_token"
)

// We expose our calls to the KVStore pluginapi methods through this interface
// for testability and stability. This allows us to better control which values
// are stored with which keys.

type Client struct {
	client *pluginapi.Client
}

func NewKVStore(client *pluginapi.Client) KVStore {
	return Client{
		client: client,
	}
}

// LoadSavedURLs returns the persisted saved-URL set in insertion order. A
// missing document yields an empty slice, not an error.
func (kv Client) LoadSavedURLs() ([]string, error) {
	var urls []string
	if err := kv.client.KV.Get(savedURLsKey, &urls); err != nil {
		return nil, errors.Wrap(err, "failed to load saved URLs")
	}
	return urls, nil
}

// SaveSavedURLs replaces the persisted saved-URL document.
func (kv Client) SaveSavedURLs(urls []string) error {
	if urls == nil {
		urls = []string{}
	}
	if _, err := kv.client.KV.Set(savedURLsKey, urls); err != nil {
		return errors.Wrap(err, "failed to save URLs")
	}
	return nil
}

// LoadToken returns the cached token pair, or nil when none is stored.
func (kv Client) LoadToken() (*wallabag.StoredToken, error) {
	var token wallabag.StoredToken
	if err := kv.client.KV.Get(tokenKey, &token); err != nil {
		return nil, errors.Wrap(err, "failed to load cached token")
	}
	if token.AccessToken == "" && token.RefreshToken == "" {
		return nil, nil
	}
	return &token, nil
}

// SaveToken caches the token pair.
func (kv Client) SaveToken(token *wallabag.StoredToken) error {
	if _, err := kv.client.KV.Set(tokenKey, token); err != nil {
		return errors.Wrap(err, "failed to save cached token")
	}
	return nil
}

// DeleteToken drops the cached token pair.
func (kv Client) DeleteToken() error {
	if err := kv.client.KV.Delete(tokenKey); err != nil {
		return errors.Wrap(err, "failed to delete cached token")
	}
	return nil
}
