// Package operators implements the per-node execution handlers the graph
// evaluator dispatches to. Handlers validate node attributes and input
// contracts, returning classified errors, and delegate the numeric work to a
// tensor.Backend.
package operators
