// Package errors provides structured error types for better observability
// and programmatic error handling across the application.
//
// Recoverable conditions (an unintrospectable signature that falls back to the
// generic one, documentation that disagrees with a signature) are logged with
// their code and never returned. Fatal conditions are returned untouched to the
// caller.
//
// Example usage:
//
//	err := errors.NewWithContext(
//	    errors.ErrCodeMissingRequiredValue,
//	    "missing value for required parameter",
//	    map[string]any{
//	        "callable":  "add",
//	        "parameter": "a",
//	    },
//	)
//
//	if errors.HasCode(err, errors.ErrCodeMissingRequiredValue) {
//	    // usage error
//	}
package errors
