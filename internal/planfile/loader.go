// Package planfile loads execution plans from HCL files.
//
// A plan file contains an optional `app` block and any number of `call`
// blocks:
//
//	app {
//	  name = "checkout"
//	}
//
//	call "reserve" {
//	  id = "reserve-1"
//	  arguments {
//	    sku = "A-100"
//	  }
//	}
//
//	call "charge" {
//	  depends_on = ["reserve-1"]
//	  arguments {
//	    amount = 42
//	  }
//	}
//
// Arguments are converted to the argument shape of the named action. A call
// without an id gets a generated one.
package planfile

import (
	"context"
	"fmt"
	"os"

	"github.com/google/uuid"
	"github.com/hashicorp/hcl/v2"
	"github.com/hashicorp/hcl/v2/gohcl"
	"github.com/hashicorp/hcl/v2/hclparse"
	"github.com/specialistvlad/actionflow/internal/action"
	"github.com/specialistvlad/actionflow/internal/ctxlog"
	"github.com/specialistvlad/actionflow/internal/dag"
	"github.com/specialistvlad/actionflow/internal/fsutil"
	"github.com/zclconf/go-cty/cty"
	"github.com/zclconf/go-cty/cty/convert"
)

const fileExtension = ".hcl"

// Loader reads plan files.
type Loader struct {
	defs    dag.Definitions
	evalCtx *hcl.EvalContext
	newID   func() string
}

// NewLoader creates a loader that converts arguments using defs.
func NewLoader(defs dag.Definitions) *Loader {
	return &Loader{
		defs:    defs,
		evalCtx: newEvalContext(),
		newID:   uuid.NewString,
	}
}

// Load parses every plan file found under paths. A path may be a single
// file or a directory searched recursively for .hcl files. Calls keep the
// order of the files and of the blocks inside them.
func (l *Loader) Load(ctx context.Context, paths ...string) (*File, error) {
	logger := ctxlog.FromContext(ctx)
	logger.Debug("Plan loader started.", "path_count", len(paths))

	files, err := l.findPlanFiles(paths)
	if err != nil {
		return nil, err
	}
	if len(files) == 0 {
		return nil, fmt.Errorf("no %s plan files found in %v", fileExtension, paths)
	}
	logger.Debug("Discovered plan files.", "count", len(files))

	out := &File{Plan: action.NewPlan(), Sources: files}
	parser := hclparse.NewParser()

	for _, file := range files {
		hclFile, diags := parser.ParseHCLFile(file)
		if diags.HasErrors() {
			return nil, fmt.Errorf("failed to parse plan file %s: %w", file, diags)
		}

		var root fileRoot
		diags = gohcl.DecodeBody(hclFile.Body, nil, &root)
		if diags.HasErrors() {
			return nil, fmt.Errorf("failed to decode plan file %s: %w", file, diags)
		}

		if root.App != nil {
			if root.App.Name != "" {
				out.Name = root.App.Name
			}
			if root.App.Description != "" {
				out.Description = root.App.Description
			}
		}

		for _, block := range root.Calls {
			call, err := l.translateCall(ctx, block)
			if err != nil {
				return nil, err
			}
			out.Plan.Calls = append(out.Plan.Calls, call)
		}
	}

	logger.Debug("Plan loading complete.", "calls", out.Plan.Len(), "name", out.Name)
	return out, nil
}

// translateCall turns a decoded block into an action.Call.
func (l *Loader) translateCall(ctx context.Context, block *callBlock) (action.Call, error) {
	logger := ctxlog.FromContext(ctx)

	call := action.Call{
		ID:        block.ID,
		ActionID:  block.ActionID,
		DependsOn: block.DependsOn,
	}
	if call.ID == "" {
		call.ID = l.newID()
		logger.Debug("Generated call id.", "actionID", call.ActionID, "callID", call.ID)
	}

	args, err := l.evalArguments(block)
	if err != nil {
		return action.Call{}, err
	}

	def, ok := l.defs.Get(block.ActionID)
	if !ok {
		// The engine reports the unknown action when the call runs.
		logger.Warn("Plan references an unknown action.", "actionID", block.ActionID, "callID", call.ID, "range", block.DeclRange.String())
		call.Args = args
		return call, nil
	}

	converted, err := convert.Convert(args, def.Arguments)
	if err != nil {
		return action.Call{}, fmt.Errorf("%s: arguments of call %q do not match action %q: %w",
			block.DeclRange.String(), call.ID, def.ID, err)
	}
	call.Args = converted
	return call, nil
}

// evalArguments evaluates the arguments block into an object value.
func (l *Loader) evalArguments(block *callBlock) (cty.Value, error) {
	if block.Arguments == nil || block.Arguments.Body == nil {
		return cty.EmptyObjectVal, nil
	}

	attrs, diags := block.Arguments.Body.JustAttributes()
	if diags.HasErrors() {
		return cty.NilVal, fmt.Errorf("%s: invalid arguments block: %w", block.DeclRange.String(), diags)
	}
	if len(attrs) == 0 {
		return cty.EmptyObjectVal, nil
	}

	vals := make(map[string]cty.Value, len(attrs))
	for name, attr := range attrs {
		v, diags := attr.Expr.Value(l.evalCtx)
		if diags.HasErrors() {
			return cty.NilVal, fmt.Errorf("%s: failed to evaluate argument %q: %w", attr.Range.String(), name, diags)
		}
		vals[name] = v
	}
	return cty.ObjectVal(vals), nil
}

// findPlanFiles expands paths into a de-duplicated list of plan files.
func (l *Loader) findPlanFiles(paths []string) ([]string, error) {
	var all []string
	seen := make(map[string]struct{})
	add := func(p string) {
		if _, ok := seen[p]; !ok {
			seen[p] = struct{}{}
			all = append(all, p)
		}
	}

	for _, path := range paths {
		info, err := os.Stat(path)
		if err != nil {
			return nil, fmt.Errorf("error accessing path %s: %w", path, err)
		}
		if !info.IsDir() {
			add(path)
			continue
		}
		found, err := fsutil.FindFilesByExtension(path, fileExtension)
		if err != nil {
			return nil, err
		}
		for _, f := range found {
			add(f)
		}
	}
	return all, nil
}
