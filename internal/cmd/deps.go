package cmd

import (
	"os"

	"github.com/salmonumbrella/bookmarks-cli/internal/api"
	"github.com/salmonumbrella/bookmarks-cli/internal/secrets"
	"github.com/salmonumbrella/bookmarks-cli/internal/toc"
)

var (
	openSecretsStore = secrets.OpenDefault
	newRegistryFunc  = toc.DefaultRegistry
	envGet           = os.Getenv
	newAPIClient     = func(baseURL, apiKey string) (api.BookmarksAPI, error) {
		return api.NewClient(baseURL, apiKey)
	}
)
