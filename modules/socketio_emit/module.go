// Package socketio_emit provides the `socketio_emit` action. Each call
// connects to a socket.io server, emits one event and optionally waits for
// a reply event. Rolling a call back emits `rollback_event`.
package socketio_emit

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/specialistvlad/actionflow/internal/action"
	"github.com/specialistvlad/actionflow/internal/ctxlog"
	"github.com/specialistvlad/actionflow/internal/ctyconv"
	"github.com/specialistvlad/actionflow/internal/registry"
	"github.com/zclconf/go-cty/cty"
	"github.com/zishang520/engine.io/v2/types"
)

// ActionID is the id under which the action is registered.
const ActionID = "socketio_emit"

const defaultTimeout = 10 * time.Second

// Shape is the argument shape of the action.
var Shape = cty.ObjectWithOptionalAttrs(map[string]cty.Type{
	"url":                  cty.String,
	"namespace":            cty.String,
	"event":                cty.String,
	"data":                 cty.DynamicPseudoType,
	"ack_event":            cty.String,
	"timeout":              cty.String,
	"rollback_event":       cty.String,
	"rollback_data":        cty.DynamicPseudoType,
	"insecure_skip_verify": cty.Bool,
}, []string{"namespace", "data", "ack_event", "timeout", "rollback_event", "rollback_data", "insecure_skip_verify"})

// Input defines the arguments of a socketio_emit call.
type Input struct {
	URL                string    `cty:"url"`
	Namespace          *string   `cty:"namespace"`
	Event              string    `cty:"event"`
	Data               cty.Value `cty:"data"`
	AckEvent           *string   `cty:"ack_event"`
	Timeout            *string   `cty:"timeout"`
	RollbackEvent      *string   `cty:"rollback_event"`
	RollbackData       cty.Value `cty:"rollback_data"`
	InsecureSkipVerify *bool     `cty:"insecure_skip_verify"`
}

func (in *Input) namespace() string {
	if in.Namespace == nil || *in.Namespace == "" {
		return "/"
	}
	return *in.Namespace
}

func (in *Input) timeout() (time.Duration, error) {
	if in.Timeout == nil || *in.Timeout == "" {
		return defaultTimeout, nil
	}
	d, err := time.ParseDuration(*in.Timeout)
	if err != nil {
		return 0, fmt.Errorf("failed to parse timeout: %w", err)
	}
	return d, nil
}

// Module implements the registry.Module interface for this package.
type Module struct{}

// Register registers the action.
func (m *Module) Register(r *registry.Registry) error {
	return r.Register(&action.Definition{
		ID:          ActionID,
		Description: "Emits a socket.io event and optionally waits for a reply event.",
		Arguments:   Shape,
		Tags:        []string{"builtin", "network"},
		Handler:     action.Reversible(run, compensate),
	})
}

type opResult struct {
	value any
	err   error
}

func run(ctx context.Context, args cty.Value, ec *action.ExecContext) (any, error) {
	in, timeout, err := decode(args)
	if err != nil {
		return nil, action.Permanent(err)
	}
	ackEvent := ""
	if in.AckEvent != nil {
		ackEvent = *in.AckEvent
	}

	sid, response, err := emit(ctx, in, in.Event, in.Data, ackEvent, timeout)
	if err != nil {
		return nil, err
	}
	return map[string]any{"sid": sid, "response": response}, nil
}

func compensate(ctx context.Context, args cty.Value, result any, ec *action.ExecContext) error {
	in, timeout, err := decode(args)
	if err != nil {
		return err
	}
	if in.RollbackEvent == nil || *in.RollbackEvent == "" {
		ctxlog.FromContext(ctx).Debug("No rollback_event configured, nothing to roll back.")
		return nil
	}
	data := in.RollbackData
	if data == cty.NilVal || data.IsNull() {
		data = in.Data
	}
	_, _, err = emit(ctx, in, *in.RollbackEvent, data, "", timeout)
	return err
}

func decode(args cty.Value) (*Input, time.Duration, error) {
	var in Input
	if err := ctyconv.Decode(args, Shape, &in); err != nil {
		return nil, 0, err
	}
	timeout, err := in.timeout()
	if err != nil {
		return nil, 0, err
	}
	return &in, timeout, nil
}

// emit sends event with data over a fresh connection. When ackEvent is set
// it waits for that event and returns its first argument.
func emit(ctx context.Context, in *Input, event string, data cty.Value, ackEvent string, timeout time.Duration) (string, any, error) {
	payload, err := ctyconv.ToGo(data)
	if err != nil {
		return "", nil, action.Permanent(fmt.Errorf("failed to convert data: %w", err))
	}

	insecure := in.InsecureSkipVerify != nil && *in.InsecureSkipVerify
	client, err := connect(ctx, in.URL, in.namespace(), insecure, timeout)
	if err != nil {
		return "", nil, err
	}
	defer client.Disconnect()

	sid := client.Id()
	logger := ctxlog.FromContext(ctx).With("sid", sid)
	logger.Info("📡 Emitting socket.io event.", "event", event, "ackEvent", ackEvent)

	done := make(chan opResult, 1)
	if ackEvent != "" {
		client.Once(types.EventName(ackEvent), func(args ...any) {
			var v any
			if len(args) > 0 {
				v = args[0]
			}
			select {
			case done <- opResult{value: v}:
			default:
			}
		})
	}

	if logger.Enabled(ctx, slog.LevelDebug) {
		jsonData, _ := json.Marshal(payload)
		logger.Debug("Emitting event payload.", "event", event, "data", string(jsonData))
	}
	if payload == nil {
		err = client.Emit(event)
	} else {
		err = client.Emit(event, payload)
	}
	if err != nil {
		return "", nil, fmt.Errorf("failed to emit %q: %w", event, err)
	}
	if ackEvent == "" {
		return sid, nil, nil
	}

	timer := time.NewTimer(timeout)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return "", nil, ctx.Err()
	case <-timer.C:
		return "", nil, fmt.Errorf("timed out after %v waiting for event '%s'", timeout, ackEvent)
	case res := <-done:
		if res.err != nil {
			return "", nil, res.err
		}
		logger.Info("Received reply event.", "event", ackEvent)
		return sid, res.value, nil
	}
}
