package hiera

import (
	"errors"
	"fmt"
	"strings"

	"github.com/goliatone/go-hiera-redis/pkg/store"
)

// ConnectionError reports an unreachable store. It propagates out of Lookup
// unless SoftConnectionFailure is configured.
type ConnectionError = store.ConnectionError

var (
	// ErrHostRequired indicates New was called without host collaborators.
	ErrHostRequired = errors.New("hiera: host is required")
	// ErrKeyRequired indicates a lookup without a key.
	ErrKeyRequired = errors.New("hiera: key is required")
)

// TypeMismatchError reports a source value that does not fit the requested
// resolution. It is always fatal to the lookup.
type TypeMismatchError struct {
	Key      string
	Source   string
	Expected []string
	Actual   string
}

func (e *TypeMismatchError) Error() string {
	if e == nil {
		return "<nil>"
	}
	return fmt.Sprintf("hiera: type mismatch for key '%s': expected %s and got %s",
		e.Key, strings.Join(e.Expected, " or "), e.Actual)
}

// IsTypeMismatch reports whether err carries a TypeMismatchError.
func IsTypeMismatch(err error) bool {
	var mismatch *TypeMismatchError
	return errors.As(err, &mismatch)
}

// IsConnectionError reports whether err carries a ConnectionError.
func IsConnectionError(err error) bool {
	return store.IsConnectionError(err)
}

// deserializeError is logged and swallowed by the deserializer; it never
// leaves the package.
type deserializeError struct {
	Mode DeserializeMode
	Err  error
}

func (e *deserializeError) Error() string {
	return fmt.Sprintf("error de-serializing data as %s: %v", e.Mode, e.Err)
}

func (e *deserializeError) Unwrap() error {
	return e.Err
}

// shapeName names the generic shape of value for diagnostics.
func shapeName(value any) string {
	switch value.(type) {
	case nil:
		return "nil"
	case string:
		return "string"
	case []any, []string:
		return "array"
	case map[string]any, map[string]string:
		return "hash"
	case bool:
		return "boolean"
	case int, int8, int16, int32, int64, uint, uint8, uint16, uint32, uint64:
		return "integer"
	case float32, float64:
		return "float"
	default:
		return fmt.Sprintf("%T", value)
	}
}
