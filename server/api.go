package main

import (
	"encoding/json"
	"net/http"

	"github.com/gorilla/mux"
	"github.com/mattermost/mattermost/server/public/plugin"
)

// ServeHTTP exposes a small read-only API for the webapp side of the plugin.
// The root URL is currently <siteUrl>/plugins/com.mattermost.wallabag/api/v1/.
func (p *Plugin) ServeHTTP(c *plugin.Context, w http.ResponseWriter, r *http.Request) {
	router := mux.NewRouter()

	// Middleware to require that the user is logged in
	router.Use(p.MattermostAuthorizationRequired)

	apiRouter := router.PathPrefix("/api/v1").Subrouter()

	apiRouter.HandleFunc("/status", p.GetStatus).Methods(http.MethodGet)
	apiRouter.HandleFunc("/entries", p.GetEntries).Methods(http.MethodGet)

	router.ServeHTTP(w, r)
}

func (p *Plugin) MattermostAuthorizationRequired(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		userID := r.Header.Get("Mattermost-User-ID")
		if userID == "" {
			// Mattermost adds this header for authenticated plugin requests
			p.API.LogWarn("Missing Mattermost-User-ID header in request", "path", r.URL.Path, "method", r.Method)
			http.Error(w, "Not authorized", http.StatusUnauthorized)
			return
		}

		next.ServeHTTP(w, r)
	})
}

// GetStatus reports whether the plugin is ready to save and how full the
// saved-URL cache is. Credentials are never included.
func (p *Plugin) GetStatus(w http.ResponseWriter, r *http.Request) {
	config := p.getConfiguration()

	cacheSize := 0
	if p.urlCache != nil {
		cacheSize = p.urlCache.Len()
	}

	status := struct {
		Configured bool `json:"configured"`
		AutoSave   bool `json:"autoSave"`
		CacheSize  int  `json:"cacheSize"`
	}{
		Configured: config.IsValid() == nil,
		AutoSave:   config.AutoSave,
		CacheSize:  cacheSize,
	}

	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(status); err != nil {
		p.API.LogError("Failed to encode status", "error", err.Error())
		http.Error(w, "Internal server error", http.StatusInternalServerError)
	}
}

// GetEntries returns the most recent Wallabag entries.
func (p *Plugin) GetEntries(w http.ResponseWriter, r *http.Request) {
	client := p.getWallabagClient()
	if client == nil {
		http.Error(w, "Wallabag is not configured", http.StatusServiceUnavailable)
		return
	}

	entries, err := client.ListEntries(r.Context(), listPageSize)
	if err != nil {
		p.API.LogError("Failed to list entries", "error", err.Error())
		http.Error(w, "Failed to list entries", http.StatusBadGateway)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(entries); err != nil {
		p.API.LogError("Failed to encode entries", "error", err.Error())
		http.Error(w, "Internal server error", http.StatusInternalServerError)
	}
}
