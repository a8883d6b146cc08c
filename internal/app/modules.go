package app

import (
	"io"
	"net/http"

	"github.com/specialistvlad/actionflow/internal/registry"
	"github.com/specialistvlad/actionflow/modules/env_vars"
	"github.com/specialistvlad/actionflow/modules/http_request"
	"github.com/specialistvlad/actionflow/modules/print"
	"github.com/specialistvlad/actionflow/modules/s3_upload"
	"github.com/specialistvlad/actionflow/modules/sleep"
	"github.com/specialistvlad/actionflow/modules/socketio_emit"
)

// coreModules is the definitive list of all modules that are compiled into
// the actionflow binary.
func coreModules(outW io.Writer, client *http.Client) []registry.Module {
	return []registry.Module{
		&env_vars.Module{},
		&print.Module{Out: outW},
		&sleep.Module{},
		&http_request.Module{Client: client},
		&s3_upload.Module{Client: client},
		&socketio_emit.Module{},
	}
}
