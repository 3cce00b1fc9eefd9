package cmd

import (
	"context"
	"errors"

	"github.com/sirupsen/logrus"

	"github.com/salmonumbrella/bookmarks-cli/internal/api"
	"github.com/salmonumbrella/bookmarks-cli/internal/toc"
)

// remoteClient builds a client for server using the same key lookup as serve.
func remoteClient(ctx context.Context, server string) (api.BookmarksAPI, error) {
	key, source := resolveAPIKey(ctx, "", false, loadedConfig)
	loggerFromContext(ctx).WithFields(logrus.Fields{
		"remote":      server,
		"auth_source": source,
	}).Debug("using remote server")
	return newAPIClient(server, key)
}

// readRemoteInput resolves arg locally; the server only ever sees bytes.
func readRemoteInput(ctx context.Context, arg string) (toc.Source, []byte, error) {
	src, err := toc.ParseSource(arg, stdinFromContext(ctx))
	if err != nil {
		return toc.Source{}, nil, err
	}
	data, err := src.Bytes()
	if err != nil {
		return src, nil, err
	}
	return src, data, nil
}

// runRemoteExtract uploads arg to server and returns its envelope. Like
// toc.Run it never returns a nil Result.
func runRemoteExtract(ctx context.Context, server, backend, arg string) *toc.Result {
	src, data, err := readRemoteInput(ctx, arg)
	if err != nil {
		return toc.Failure(err, map[string]interface{}{"source": string(src.Kind)})
	}

	client, err := remoteClient(ctx, server)
	if err != nil {
		return toc.Failure(err, nil)
	}

	res, err := client.Bookmarks(ctx, data, backend)
	if err != nil {
		return toc.Failure(err, map[string]interface{}{
			"source": string(src.Kind),
			"remote": client.BaseURL(),
		})
	}
	return res
}

// runRemoteCheck uploads arg to server's check endpoint.
func runRemoteCheck(ctx context.Context, server, arg string) (*toc.Summary, *toc.Result) {
	src, data, err := readRemoteInput(ctx, arg)
	if err != nil {
		return nil, toc.Failure(err, map[string]interface{}{"source": string(src.Kind)})
	}

	client, err := remoteClient(ctx, server)
	if err != nil {
		return nil, toc.Failure(err, nil)
	}

	summary, err := client.Check(ctx, data)
	if err != nil {
		var remote api.RemoteError
		if errors.As(err, &remote) {
			return nil, remote.Result
		}
		return nil, toc.Failure(err, map[string]interface{}{
			"source": string(src.Kind),
			"remote": client.BaseURL(),
		})
	}
	return summary, nil
}
