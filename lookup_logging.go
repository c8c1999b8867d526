package hiera

import "time"

// LookupLogEvent summarises one completed lookup.
type LookupLogEvent struct {
	Key        string
	Resolution string
	Sources    int
	Found      bool
	Duration   time.Duration
	Err        error
}

// LookupLogger records lookup events.
type LookupLogger interface {
	LogLookup(LookupLogEvent)
}

// LookupLoggerFunc adapts a function to LookupLogger.
type LookupLoggerFunc func(LookupLogEvent)

// LogLookup implements LookupLogger.
func (f LookupLoggerFunc) LogLookup(event LookupLogEvent) {
	if f != nil {
		f(event)
	}
}

type noopLookupLogger struct{}

func (noopLookupLogger) LogLookup(LookupLogEvent) {}
