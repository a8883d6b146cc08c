// Package action holds the vocabulary shared by the registry and the engine:
// action definitions, the handler capability interfaces, retry policies,
// requested calls and their outcomes.
//
// An action is a named operation. Its behaviour is supplied by an Executable
// handler; if that handler also implements Compensatable, the engine can roll
// the action back after a later step fails. Which actions are compensated is
// decided purely by interface presence:
//
//	reg.MustRegister(&action.Definition{
//	    ID:          "reserve",
//	    Description: "Reserve stock for an order.",
//	    Arguments:   cty.Object(map[string]cty.Type{"sku": cty.String}),
//	    Handler:     action.Reversible(reserve, release),
//	})
//
// A Call is one argument-bound invocation of an action inside a single
// execution, and a Plan is the ordered list of calls handed to the engine.
package action
