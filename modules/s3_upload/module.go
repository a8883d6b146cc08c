// Package s3_upload provides the `s3_upload` action, which uploads a local
// file to a pre-signed URL. A pre-signed `delete_url` makes the upload
// reversible.
package s3_upload

import (
	"context"
	"fmt"
	"mime"
	"net/http"
	"os"
	"path/filepath"

	"github.com/specialistvlad/actionflow/internal/action"
	"github.com/specialistvlad/actionflow/internal/ctxlog"
	"github.com/specialistvlad/actionflow/internal/ctyconv"
	"github.com/specialistvlad/actionflow/internal/registry"
	"github.com/specialistvlad/actionflow/modules/http_client"
	"github.com/zclconf/go-cty/cty"
)

// ActionID is the id under which the action is registered.
const ActionID = "s3_upload"

// Shape is the argument shape of the action.
var Shape = cty.ObjectWithOptionalAttrs(map[string]cty.Type{
	"source_path": cty.String,
	"upload_url":  cty.String,
	"delete_url":  cty.String,
}, []string{"delete_url"})

// Input defines the arguments of an s3_upload call.
type Input struct {
	SourcePath string  `cty:"source_path"`
	UploadURL  string  `cty:"upload_url"`
	DeleteURL  *string `cty:"delete_url"`
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
		Description: "Uploads a local file to a pre-signed S3 URL.",
		Arguments:   Shape,
		Tags:        []string{"builtin", "network", "storage"},
		Handler:     action.Reversible(m.upload, m.remove),
	})
}

func (m *Module) upload(ctx context.Context, args cty.Value, ec *action.ExecContext) (any, error) {
	var in Input
	if err := ctyconv.Decode(args, Shape, &in); err != nil {
		return nil, action.Permanent(err)
	}
	logger := ctxlog.FromContext(ctx).With("operation", "upload")

	file, err := os.Open(in.SourcePath)
	if err != nil {
		return nil, action.Permanent(fmt.Errorf("failed to open source file '%s': %w", in.SourcePath, err))
	}
	defer file.Close()

	stat, err := file.Stat()
	if err != nil {
		return nil, fmt.Errorf("failed to get file stats for '%s': %w", in.SourcePath, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPut, in.UploadURL, file)
	if err != nil {
		return nil, action.Permanent(fmt.Errorf("failed to create S3 upload request: %w", err))
	}

	contentType := mime.TypeByExtension(filepath.Ext(in.SourcePath))
	if contentType == "" {
		contentType = "application/octet-stream"
	}
	req.Header.Set("Content-Type", contentType)
	req.ContentLength = stat.Size()

	logger.Info("⬆️ Uploading file to S3.", "source", in.SourcePath, "size", stat.Size(), "contentType", contentType)

	resp, err := http_client.OrDefault(m.Client).Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to execute S3 upload request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("S3 upload failed with status: %s", resp.Status)
	}

	logger.Info("Successfully uploaded file.", "status", resp.Status)
	return map[string]any{
		"status": resp.Status,
		"size":   stat.Size(),
	}, nil
}

// remove deletes the uploaded object when a delete URL was given.
func (m *Module) remove(ctx context.Context, args cty.Value, result any, ec *action.ExecContext) error {
	var in Input
	if err := ctyconv.Decode(args, Shape, &in); err != nil {
		return err
	}
	logger := ctxlog.FromContext(ctx).With("operation", "delete")
	if in.DeleteURL == nil || *in.DeleteURL == "" {
		logger.Warn("Uploaded object cannot be removed without delete_url.", "source", in.SourcePath)
		return nil
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodDelete, *in.DeleteURL, nil)
	if err != nil {
		return fmt.Errorf("failed to create S3 delete request: %w", err)
	}
	resp, err := http_client.OrDefault(m.Client).Do(req)
	if err != nil {
		return fmt.Errorf("failed to execute S3 delete request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusNoContent {
		return fmt.Errorf("S3 delete failed with status: %s", resp.Status)
	}
	logger.Info("🗑️ Removed uploaded object.", "status", resp.Status)
	return nil
}
