package hiera

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/goliatone/go-hiera-redis/pkg/activity"
	"github.com/goliatone/go-hiera-redis/pkg/store"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Version of the backend, reported when it starts.
const Version = "0.1.0"

// Backend answers lookups by querying a Redis-compatible store across the
// sources supplied by the host.
type Backend struct {
	config       Config
	host         Host
	fetcher      Fetcher
	deserializer *Deserializer
	logger       *zap.Logger
	lookupLogger LookupLogger
	emitter      *activity.Emitter
}

// New validates config and builds a backend. The store connection is not
// opened until the first lookup reaches a source.
func New(config Config, host Host, opts ...Option) (*Backend, error) {
	if host == nil {
		return nil, ErrHostRequired
	}
	config = config.WithDefaults()
	if err := config.Validate(); err != nil {
		return nil, err
	}

	cfg := applyOptions(opts)
	fetcher := cfg.fetcher
	if fetcher == nil {
		dial := cfg.dialer
		if dial == nil {
			dial = store.RedisDialer(config.Connection)
		}
		fetcher = store.NewAdapter(dial)
	}

	cfg.logger.Debug("hiera redis backend starting", zap.String("version", Version))
	return &Backend{
		config:       config,
		host:         host,
		fetcher:      fetcher,
		deserializer: NewDeserializer(config.Deserialize, cfg.logger),
		logger:       cfg.logger,
		lookupLogger: cfg.lookupLogger,
		emitter:      activity.NewEmitter(cfg.activityHooks, cfg.activity),
	}, nil
}

// Config returns the configuration the backend was built with.
func (b *Backend) Config() Config {
	return b.config
}

// Close releases the store connection when the store supports it.
func (b *Backend) Close() error {
	if closer, ok := b.fetcher.(io.Closer); ok {
		return closer.Close()
	}
	return nil
}

// Lookup resolves req across the host's sources. A lookup with no matching
// source returns an Answer with Found == false and a nil error.
func (b *Backend) Lookup(ctx context.Context, req Request) (Answer, error) {
	answer, _, err := b.lookup(ctx, req)
	return answer, err
}

// LookupWithTrace behaves like Lookup and also reports every source visited.
func (b *Backend) LookupWithTrace(ctx context.Context, req Request) (Answer, Trace, error) {
	return b.lookup(ctx, req)
}

func (b *Backend) lookup(ctx context.Context, req Request) (Answer, Trace, error) {
	if ctx == nil {
		ctx = context.Background()
	}
	start := time.Now()
	trace := Trace{Key: req.Key, Resolution: req.Resolution.String()}

	answer, err := b.resolve(ctx, req, &trace)
	if err != nil && IsConnectionError(err) {
		b.logger.Warn("cannot connect to redis server",
			zap.String("server", b.serverID()),
			zap.String("key", req.Key),
			zap.Error(err))
		if b.config.SoftConnectionFailure {
			answer, err = NotFound(), nil
		}
	}

	b.report(ctx, req, answer, trace, time.Since(start), err)
	return answer, trace, err
}

func (b *Backend) resolve(ctx context.Context, req Request, trace *Trace) (Answer, error) {
	if req.Key == "" {
		return NotFound(), ErrKeyRequired
	}

	kind := NormalizeResolution(req.Resolution)
	var (
		matched bool
		array   []any
		hash    map[string]any
	)

	for source := range b.host.Datasources(req.Scope, req.OrderOverride) {
		key := NamespacedKey(source, req.Key, b.config.Separator)
		b.logger.Debug("looking for data in source",
			zap.String("source", source.String()),
			zap.String("key", key))

		raw, err := b.fetcher.Fetch(ctx, key)
		layer := Provenance{Source: source.String(), Key: key, Kind: raw.Kind}
		if err != nil {
			trace.Layers = append(trace.Layers, layer)
			return NotFound(), err
		}
		if raw.IsAbsent() {
			layer.Kind = store.KindNone
			trace.Layers = append(trace.Layers, layer)
			continue
		}

		data := raw.Native()
		if b.deserializer.Enabled() {
			data = b.deserializer.Deserialize(data)
		}
		// A payload decoding to null ("null", "~") holds no data.
		if data == nil {
			trace.Layers = append(trace.Layers, layer)
			continue
		}
		candidate, err := b.host.ParseAnswer(data, req.Scope, req.Context)
		if err != nil {
			trace.Layers = append(trace.Layers, layer)
			return NotFound(), fmt.Errorf("hiera: parse answer for %q: %w", key, err)
		}

		matched = true
		layer.Found = true
		layer.Value = candidate
		trace.Layers = append(trace.Layers, layer)

		switch kind {
		case ResolutionArray:
			if err := checkArray(req.Key, source, candidate); err != nil {
				return NotFound(), err
			}
			array = append(array, candidate)
		case ResolutionHash:
			mapping, err := checkHash(req.Key, source, candidate)
			if err != nil {
				return NotFound(), err
			}
			if hash == nil {
				hash = map[string]any{}
			}
			merged, err := b.host.MergeAnswer(mapping, hash, req.Resolution)
			if err != nil {
				return NotFound(), fmt.Errorf("hiera: merge answer for %q: %w", key, err)
			}
			hash = merged
		default:
			return found(candidate), nil
		}
	}

	if !matched {
		return NotFound(), nil
	}
	if kind == ResolutionArray {
		return found(array), nil
	}
	return found(hash), nil
}

func checkArray(key string, source Source, value any) error {
	switch value.(type) {
	case []any, []string, string:
		return nil
	}
	return &TypeMismatchError{
		Key:      key,
		Source:   source.String(),
		Expected: []string{"array", "string"},
		Actual:   shapeName(value),
	}
}

func checkHash(key string, source Source, value any) (map[string]any, error) {
	switch typed := value.(type) {
	case map[string]any:
		return typed, nil
	case map[string]string:
		out := make(map[string]any, len(typed))
		for field, item := range typed {
			out[field] = item
		}
		return out, nil
	}
	return nil, &TypeMismatchError{
		Key:      key,
		Source:   source.String(),
		Expected: []string{"hash"},
		Actual:   shapeName(value),
	}
}

func (b *Backend) serverID() string {
	if identified, ok := b.fetcher.(interface{ ID() string }); ok {
		if id := identified.ID(); id != "" {
			return id
		}
	}
	return b.config.Connection.ID()
}

func (b *Backend) report(ctx context.Context, req Request, answer Answer, trace Trace, duration time.Duration, err error) {
	b.lookupLogger.LogLookup(LookupLogEvent{
		Key:        req.Key,
		Resolution: trace.Resolution,
		Sources:    len(trace.Layers),
		Found:      answer.Found,
		Duration:   duration,
		Err:        err,
	})

	if !b.emitter.Enabled() {
		return
	}
	input := activity.LookupEventInput{
		LookupID:   uuid.NewString(),
		Key:        req.Key,
		Resolution: trace.Resolution,
		Sources:    trace.Keys(),
		Matched:    trace.Matched(),
		ActorID:    contextString(req.Context, "actor_id"),
		UserID:     contextString(req.Context, "user_id"),
		TenantID:   contextString(req.Context, "tenant_id"),
		Duration:   duration,
	}
	var event activity.Event
	switch {
	case err != nil:
		input.Err = err
		event = activity.BuildLookupFailedEvent(input)
	case answer.Found:
		input.Value = answer.Value
		event = activity.BuildLookupResolvedEvent(input)
	default:
		event = activity.BuildLookupMissedEvent(input)
	}
	if emitErr := b.emitter.Emit(ctx, event); emitErr != nil {
		b.logger.Warn("activity hooks failed", zap.String("key", req.Key), zap.Error(emitErr))
	}
}

func contextString(ctx LookupContext, key string) string {
	if value, ok := ctx[key].(string); ok {
		return value
	}
	return ""
}
