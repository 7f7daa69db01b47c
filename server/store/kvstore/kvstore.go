package kvstore

import (
	"github.com/fmartingr/mattermost-plugin-wallabag/server/wallabag"
)

//go:generate mockgen -destination=mocks/mock_kvstore.go -package=mocks github.com/fmartingr/mattermost-plugin-wallabag/server/store/kvstore KVStore

// KVStore is the typed surface over the plugin KV store. The saved-URL set is
// persisted as a single JSON document; the token pair is cached so restarts do
// not force a fresh password grant.
type KVStore interface {
	LoadSavedURLs() ([]string, error)
	SaveSavedURLs(urls []string) error

	LoadToken() (*wallabag.StoredToken, error)
	SaveToken(token *wallabag.StoredToken) error
	DeleteToken() error
}
