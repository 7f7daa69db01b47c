package main

import (
	"github.com/mattermost/mattermost/server/public/plugin/plugintest"
	"github.com/stretchr/testify/mock"
)

// setupTestAPI creates a plugintest API with all log methods stubbed out.
// LogDebug, LogInfo, LogWarn and LogError accept a message string followed by
// variadic key-value pairs, so mocks are registered for every plausible
// argument count.
func setupTestAPI() *plugintest.API {
	api := &plugintest.API{}
	for i := 1; i <= 21; i += 2 {
		args := make([]interface{}, i)
		for j := range args {
			args[j] = mock.Anything
		}
		api.On("LogDebug", args...).Maybe().Return(nil)
		api.On("LogInfo", args...).Maybe().Return(nil)
		api.On("LogWarn", args...).Maybe().Return(nil)
		api.On("LogError", args...).Maybe().Return(nil)
	}
	return api
}
