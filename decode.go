package hiera

import (
	"context"

	"github.com/goliatone/go-hiera-redis/internal/hydrate"
)

// DecodeOption configures LookupAs.
type DecodeOption[T any] = hydrate.DecoderOption[T]

// DecodeContext identifies the lookup a decoded answer came from.
type DecodeContext = hydrate.Context

// WithDecodePreHook rewrites the answer before it is decoded.
func WithDecodePreHook[T any](hook func(DecodeContext, any) (any, error)) DecodeOption[T] {
	return hydrate.WithPreHook[T](hook)
}

// WithDecodePostHook adjusts or validates the decoded value.
func WithDecodePostHook[T any](hook func(DecodeContext, *T) error) DecodeOption[T] {
	return hydrate.WithPostHook[T](hook)
}

// WithStrictDecode rejects answers carrying fields T does not declare.
func WithStrictDecode[T any]() DecodeOption[T] {
	return hydrate.WithDisallowUnknownFields[T]()
}

// LookupAs runs a lookup and decodes the answer into T. The boolean reports
// whether any source matched; T is the zero value when none did.
func LookupAs[T any](ctx context.Context, backend *Backend, req Request, opts ...DecodeOption[T]) (T, bool, error) {
	var zero T
	answer, err := backend.Lookup(ctx, req)
	if err != nil || !answer.Found {
		return zero, false, err
	}
	decoded, err := hydrate.NewDecoder(opts...).Decode(hydrate.Context{
		Key:        req.Key,
		Resolution: req.Resolution.String(),
	}, answer.Value)
	if err != nil {
		return zero, true, err
	}
	return decoded, true, nil
}
