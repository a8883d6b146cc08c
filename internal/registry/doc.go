// Package registry is the authoritative catalog of action definitions.
//
// The Registry guarantees that its contents are always structurally
// executable. Every registration is validated on the spot: identifiers must
// be unique, descriptions and argument shapes present, dependencies must
// already be registered, and no dependency chain may loop back to the action
// being registered. A registration that fails leaves the registry untouched.
//
// Alongside the definitions the registry maintains two indexes that are
// built incrementally at registration time rather than recomputed per query:
// a reverse dependency index (dependency -> dependents) and a tag index
// (tag -> action ids).
//
// Once populated, a registry can be locked. Locking is one-way; it turns every
// later Register call into ErrAlreadyLocked.
package registry
