package planfile

import (
	"github.com/hashicorp/hcl/v2"
	"github.com/specialistvlad/actionflow/internal/action"
)

// fileRoot decodes every top-level block a plan file may contain. It has no
// remain field, so a misspelled block such as `cal "x" {}` fails to decode
// instead of silently dropping a call.
type fileRoot struct {
	App   *appBlock    `hcl:"app,block"`
	Calls []*callBlock `hcl:"call,block"`
}

// appBlock carries descriptive metadata about the plan.
type appBlock struct {
	Name        string `hcl:"name,optional"`
	Description string `hcl:"description,optional"`
}

// callBlock is one `call "<action>" { ... }` block.
type callBlock struct {
	ActionID  string          `hcl:"action,label"`
	ID        string          `hcl:"id,optional"`
	DependsOn []string        `hcl:"depends_on,optional"`
	Arguments *argumentsBlock `hcl:"arguments,block"`
	DeclRange hcl.Range       `hcl:",def_range"`
}

type argumentsBlock struct {
	Body hcl.Body `hcl:",remain"`
}

// File is the result of loading one or more plan files.
type File struct {
	// Name and Description come from the app block, if any.
	Name        string
	Description string
	// Plan holds the calls in file order.
	Plan *action.Plan
	// Sources lists the files that were read.
	Sources []string
}
