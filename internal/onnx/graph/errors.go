package graph

import "github.com/pkg/errors"

// Evaluation error kinds. Every failure during compilation or evaluation
// wraps one of these, so callers can classify with errors.Is while the
// message carries the offending node's op type and name.
var (
	// ErrMissingAttribute marks a required node attribute that is absent.
	ErrMissingAttribute = errors.New("missing required attribute")

	// ErrAttributeType marks an attribute present under a different declared
	// type than the one requested.
	ErrAttributeType = errors.New("attribute type mismatch")

	// ErrMissingValue marks a referenced value name not found in the
	// environment.
	ErrMissingValue = errors.New("value not found")

	// ErrUnsupportedDataType marks a wire element type with no runtime dtype
	// mapping.
	ErrUnsupportedDataType = errors.New("unsupported data type")

	// ErrUnsupportedOperator marks an operator type this evaluator does not
	// implement.
	ErrUnsupportedOperator = errors.New("unsupported operator")

	// ErrUnsupportedConfig marks a recognized operator with an attribute
	// combination outside the supported subset.
	ErrUnsupportedConfig = errors.New("unsupported attribute configuration")

	// ErrInputContract marks a caller-supplied input whose dtype or shape
	// disagrees with the graph's declared input type.
	ErrInputContract = errors.New("input does not match declared type")
)
