// Package app contains the core application logic. It wires the built-in
// action modules into a registry, loads a plan file, runs it through the
// executor and reports the outcome, decoupled from any specific entrypoint
// like a CLI or server.
package app
