package cmd

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/salmonumbrella/bookmarks-cli/internal/output"
	"github.com/salmonumbrella/bookmarks-cli/internal/toc"
)

// resultError reports a failed envelope that was already printed to stdout.
type resultError struct {
	result *toc.Result
}

func (e resultError) Error() string {
	return e.result.Error
}

func validateErrorFormat(format string) error {
	switch strings.ToLower(strings.TrimSpace(format)) {
	case "", "auto", "text", "json", "yaml":
		return nil
	default:
		return fmt.Errorf("invalid --error-format %q (expected auto|text|json|yaml)", format)
	}
}

func effectiveErrorFormat(ctx context.Context) string {
	format := strings.ToLower(strings.TrimSpace(ErrorFormatFromContext(ctx)))
	if format == "" || format == "auto" {
		switch output.FormatFromContext(ctx) {
		case output.FormatYAML:
			return "yaml"
		default:
			return "text"
		}
	}
	return format
}

func printCommandError(ctx context.Context, err error) {
	if err == nil {
		return
	}

	envelope := buildErrorEnvelope(err)
	if errMap, ok := envelope["error"].(map[string]interface{}); ok {
		loggerFromContext(ctx).WithFields(errMap).Debug("command failed")
	}

	switch effectiveErrorFormat(ctx) {
	case "json":
		enc := json.NewEncoder(stderrFromContext(ctx))
		enc.SetEscapeHTML(false)
		_ = enc.Encode(envelope)
		return
	case "yaml":
		enc := yaml.NewEncoder(stderrFromContext(ctx))
		enc.SetIndent(2)
		_ = enc.Encode(envelope)
		_ = enc.Close()
		return
	}

	_, _ = fmt.Fprintf(stderrFromContext(ctx), "Error: %v\n", err)
}

func buildErrorEnvelope(err error) map[string]interface{} {
	errMap := map[string]interface{}{
		"message":  err.Error(),
		"type":     "error",
		"category": "system",
	}

	var resErr resultError
	if errors.As(err, &resErr) && resErr.result != nil {
		for _, key := range []string{"type", "category", "source", "backend", "path"} {
			if v, ok := resErr.result.Details[key]; ok {
				errMap[key] = v
			}
		}
		return map[string]interface{}{"error": errMap}
	}

	var usageErr toc.UsageError
	var capErr toc.CapabilityError
	var notFoundErr toc.NotFoundError
	var decodeErr toc.DecodeError
	var parseErr toc.ParseError
	var internalErr toc.InternalError
	if errors.As(err, &usageErr) || errors.As(err, &capErr) || errors.As(err, &notFoundErr) ||
		errors.As(err, &decodeErr) || errors.As(err, &parseErr) || errors.As(err, &internalErr) {
		details := toc.ErrorDetails(err)
		errMap["type"] = details["type"]
		errMap["category"] = details["category"]
		if backend, ok := details["backend"]; ok {
			errMap["backend"] = backend
		}
	}

	return map[string]interface{}{"error": errMap}
}
