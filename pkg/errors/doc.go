// Package errors provides structured error types for better observability
// and programmatic error handling across hostpulse.
//
// Collectors wrap command failures and unexpected tool output with a code so
// the snapshot assembler can log them uniformly before degrading the field:
//
//	err := errors.WrapWithContext(
//	    errors.ErrCodeParse,
//	    "unexpected /proc/stat layout",
//	    cause,
//	    map[string]any{
//	        "command": "head -n1 /proc/stat",
//	    },
//	)
//
// Configuration problems are reported with ErrCodeInvalidConfig and are only
// raised at startup or by a transport, never from inside a collection cycle.
package errors
