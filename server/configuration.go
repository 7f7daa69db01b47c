package main

import (
	"reflect"
	"time"

	"github.com/pkg/errors"

	"github.com/fmartingr/mattermost-plugin-wallabag/server/wallabag"
)

// configuration captures the plugin's external configuration as exposed in the
// Mattermost server configuration, as well as values computed from the
// configuration. Any public fields will be deserialized from the Mattermost
// server configuration in OnConfigurationChange.
//
// As plugins are inherently concurrent (hooks being called asynchronously),
// and the plugin configuration can change at any time, access to the
// configuration must be synchronized. The strategy used in this plugin is to
// guard a pointer to the configuration, and clone the entire struct whenever
// it changes.
type configuration struct {
	WallabagURL  string `json:"wallabagUrl"`
	ClientID     string `json:"clientId"`
	ClientSecret string `json:"clientSecret"`
	Username     string `json:"username"`
	Password     string `json:"password"`

	AutoSave              bool `json:"autoSave"`
	RequestTimeoutSeconds int  `json:"requestTimeoutSeconds"`
	CacheMaxSize          int  `json:"cacheMaxSize"`

	// Advanced settings
	TokenRefreshBufferSeconds int    `json:"tokenRefreshBufferSeconds"`
	MaxRetryAttempts          int    `json:"maxRetryAttempts"`
	RetryDelaySeconds         int    `json:"retryDelaySeconds"`
	UserAgent                 string `json:"userAgent"`
	SkipSSLVerify             bool   `json:"skipSslVerify"`
}

// Clone shallow copies the configuration. Your implementation may require a
// deep copy if your configuration has reference types.
func (c *configuration) Clone() *configuration {
	var clone = *c
	return &clone
}

// setDefaults fills the tunables an admin typically leaves empty.
func (c *configuration) setDefaults() {
	if c.RequestTimeoutSeconds <= 0 {
		c.RequestTimeoutSeconds = 30
	}
	if c.CacheMaxSize <= 0 {
		c.CacheMaxSize = 1000
	}
	if c.TokenRefreshBufferSeconds <= 0 {
		c.TokenRefreshBufferSeconds = 60
	}
	if c.MaxRetryAttempts <= 0 {
		c.MaxRetryAttempts = 3
	}
	if c.RetryDelaySeconds <= 0 {
		c.RetryDelaySeconds = 2
	}
	if c.UserAgent == "" {
		c.UserAgent = wallabag.DefaultUserAgent
	}
}

// IsValid reports whether the configuration carries everything needed to talk
// to a Wallabag instance. An incomplete configuration disables saving but
// never deactivates the plugin.
func (c *configuration) IsValid() error {
	switch {
	case c.WallabagURL == "":
		return errors.Wrap(wallabag.ErrConfigIncomplete, "wallabag URL is not set")
	case c.ClientID == "":
		return errors.Wrap(wallabag.ErrConfigIncomplete, "client id is not set")
	case c.ClientSecret == "":
		return errors.Wrap(wallabag.ErrConfigIncomplete, "client secret is not set")
	case c.Username == "":
		return errors.Wrap(wallabag.ErrConfigIncomplete, "username is not set")
	case c.Password == "":
		return errors.Wrap(wallabag.ErrConfigIncomplete, "password is not set")
	}
	return nil
}

// clientConfig translates the plugin configuration into the Wallabag client
// configuration.
func (c *configuration) clientConfig() wallabag.Config {
	return wallabag.Config{
		Credentials: wallabag.Credentials{
			BaseURL:      c.WallabagURL,
			ClientID:     c.ClientID,
			ClientSecret: c.ClientSecret,
			Username:     c.Username,
			Password:     c.Password,
		},
		RequestTimeout: time.Duration(c.RequestTimeoutSeconds) * time.Second,
		RefreshBuffer:  time.Duration(c.TokenRefreshBufferSeconds) * time.Second,
		MaxAttempts:    c.MaxRetryAttempts,
		RetryDelay:     time.Duration(c.RetryDelaySeconds) * time.Second,
		UserAgent:      c.UserAgent,
		SkipSSLVerify:  c.SkipSSLVerify,
	}
}

// getConfiguration retrieves the active configuration under lock, making it
// safe to use concurrently. The active configuration may change underneath the
// client of this method, but the struct returned by this API call is
// considered immutable.
func (p *Plugin) getConfiguration() *configuration {
	p.configurationLock.RLock()
	defer p.configurationLock.RUnlock()

	if p.configuration == nil {
		return &configuration{}
	}

	return p.configuration
}

// setConfiguration replaces the active configuration under lock.
//
// Do not call setConfiguration while holding the configurationLock, as
// sync.Mutex is not reentrant. In particular, avoid using the plugin API
// entirely, as this may in turn trigger a hook back into the plugin. If that
// hook attempts to acquire this lock, a deadlock may occur.
//
// This method panics if setConfiguration is called with the existing
// configuration. This almost certainly means that the configuration was
// modified without being cloned and may result in an unsafe access.
func (p *Plugin) setConfiguration(configuration *configuration) {
	p.configurationLock.Lock()
	defer p.configurationLock.Unlock()

	if configuration != nil && p.configuration == configuration {
		// Ignore assignment if the configuration struct is empty. Go will
		// optimize the allocation for same to point at the same memory
		// address, breaking the check above.
		if reflect.ValueOf(*configuration).NumField() == 0 {
			return
		}

		panic("setConfiguration called with the existing configuration")
	}

	p.configuration = configuration
}

// OnConfigurationChange is invoked when configuration changes may have been made.
func (p *Plugin) OnConfigurationChange() error {
	var configuration = new(configuration)

	// Load the public configuration fields from the Mattermost server configuration.
	if err := p.API.LoadPluginConfiguration(configuration); err != nil {
		return errors.Wrap(err, "failed to load plugin configuration")
	}

	configuration.setDefaults()
	p.setConfiguration(configuration)

	// Services only exist after OnActivate; the first OnConfigurationChange
	// fires before activation.
	p.reconfigure(configuration)

	return nil
}

// reconfigure rebuilds the Wallabag client for the new credentials and adjusts
// the cache bound. Incomplete credentials leave the plugin with no client:
// saves are disabled until the configuration is completed.
func (p *Plugin) reconfigure(config *configuration) {
	if p.urlCache != nil {
		p.urlCache.SetMaxSize(config.CacheMaxSize)
	}
	if p.saveProcessor != nil {
		p.saveProcessor.ResetConfigWarning()
	}

	if err := config.IsValid(); err != nil {
		p.setWallabagClient(nil)
		p.API.LogWarn("Wallabag configuration is incomplete, saving is disabled", "error", err.Error())
		return
	}

	client := wallabag.NewClient(config.clientConfig())
	if p.kvstore != nil {
		client.OnTokenChange(func(token wallabag.StoredToken) {
			if err := p.kvstore.SaveToken(&token); err != nil {
				p.API.LogWarn("Failed to cache Wallabag token", "error", err.Error())
			}
		})
		if token, err := p.kvstore.LoadToken(); err != nil {
			p.API.LogWarn("Failed to load cached Wallabag token", "error", err.Error())
		} else if token != nil {
			if !client.RestoreToken(*token) {
				p.API.LogInfo("Discarding cached Wallabag token after credential change")
				if err := p.kvstore.DeleteToken(); err != nil {
					p.API.LogWarn("Failed to delete stale Wallabag token", "error", err.Error())
				}
			}
		}
	}

	p.setWallabagClient(client)
}
