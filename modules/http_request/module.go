// Package http_request provides the `http_request` action. When `undo_url`
// is set, rolling the call back sends a second request to that URL.
package http_request

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/specialistvlad/actionflow/internal/action"
	"github.com/specialistvlad/actionflow/internal/ctxlog"
	"github.com/specialistvlad/actionflow/internal/ctyconv"
	"github.com/specialistvlad/actionflow/internal/registry"
	"github.com/specialistvlad/actionflow/modules/http_client"
	"github.com/zclconf/go-cty/cty"
)

// ActionID is the id under which the action is registered.
const ActionID = "http_request"

// ErrUnexpectedStatus is returned for responses outside the 2xx range.
var ErrUnexpectedStatus = errors.New("unexpected HTTP status")

// Shape is the argument shape of the action.
var Shape = cty.ObjectWithOptionalAttrs(map[string]cty.Type{
	"url":         cty.String,
	"method":      cty.String,
	"body":        cty.String,
	"headers":     cty.Map(cty.String),
	"undo_url":    cty.String,
	"undo_method": cty.String,
	"undo_body":   cty.String,
}, []string{"method", "body", "headers", "undo_url", "undo_method", "undo_body"})

// Input defines the arguments of an http_request call.
type Input struct {
	URL        string            `cty:"url"`
	Method     *string           `cty:"method"`
	Body       *string           `cty:"body"`
	Headers    map[string]string `cty:"headers"`
	UndoURL    *string           `cty:"undo_url"`
	UndoMethod *string           `cty:"undo_method"`
	UndoBody   *string           `cty:"undo_body"`
}

// Module implements the registry.Module interface for this package.
type Module struct {
	// Client sends the requests. A default pooled client is used when nil.
	Client *http.Client
}

// Register registers the action.
func (m *Module) Register(r *registry.Registry) error {
	return r.Register(&action.Definition{
		ID:          ActionID,
		Description: "Sends an HTTP request and returns its status code and body.",
		Arguments:   Shape,
		Tags:        []string{"builtin", "network"},
		Handler:     action.Reversible(m.run, m.compensate),
	})
}

func (m *Module) run(ctx context.Context, args cty.Value, ec *action.ExecContext) (any, error) {
	var in Input
	if err := ctyconv.Decode(args, Shape, &in); err != nil {
		return nil, action.Permanent(err)
	}
	return m.do(ctx, deref(in.Method, http.MethodGet), in.URL, in.Body, in.Headers)
}

// compensate sends the undo request. Calls without `undo_url` have nothing
// to roll back.
func (m *Module) compensate(ctx context.Context, args cty.Value, result any, ec *action.ExecContext) error {
	var in Input
	if err := ctyconv.Decode(args, Shape, &in); err != nil {
		return err
	}
	if in.UndoURL == nil || *in.UndoURL == "" {
		ctxlog.FromContext(ctx).Debug("No undo_url configured, nothing to roll back.")
		return nil
	}
	_, err := m.do(ctx, deref(in.UndoMethod, http.MethodDelete), *in.UndoURL, in.UndoBody, in.Headers)
	return err
}

func (m *Module) do(ctx context.Context, method, url string, body *string, headers map[string]string) (map[string]any, error) {
	logger := ctxlog.FromContext(ctx)
	logger.Info("🌐 Making HTTP request.", "method", method, "url", url)

	var reader io.Reader
	if body != nil {
		reader = strings.NewReader(*body)
	}
	req, err := http.NewRequestWithContext(ctx, strings.ToUpper(method), url, reader)
	if err != nil {
		return nil, action.Permanent(fmt.Errorf("failed to create request: %w", err))
	}
	for k, v := range headers {
		req.Header.Set(k, v)
	}

	resp, err := http_client.OrDefault(m.Client).Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to execute request: %w", err)
	}
	defer resp.Body.Close()

	logger.Info("Received HTTP response.", "status", resp.Status)

	bodyBytes, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response body: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		err := fmt.Errorf("%s %s: %w: %s", method, url, ErrUnexpectedStatus, resp.Status)
		// Only server errors are worth another attempt.
		if resp.StatusCode < 500 {
			return nil, action.Permanent(err)
		}
		return nil, err
	}

	return map[string]any{
		"status_code": resp.StatusCode,
		"body":        string(bodyBytes),
	}, nil
}

func deref(s *string, def string) string {
	if s == nil || *s == "" {
		return def
	}
	return *s
}
