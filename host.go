package hiera

import "iter"

// DatasourceResolver yields candidate sources in priority order, honoring
// orderOverride when it is non-nil.
type DatasourceResolver interface {
	Datasources(scope Scope, orderOverride []string) iter.Seq[Source]
}

// AnswerParser applies scope interpolation and context substitution to a
// normalized store value.
type AnswerParser interface {
	ParseAnswer(raw any, scope Scope, ctx LookupContext) (any, error)
}

// AnswerMerger merges a newly found mapping into the accumulated one. The
// merge policy, including which side wins, belongs to the merger.
type AnswerMerger interface {
	MergeAnswer(next, accumulated map[string]any, resolution Resolution) (map[string]any, error)
}

// Host bundles the collaborators the backend consumes from the lookup
// framework.
type Host interface {
	DatasourceResolver
	AnswerParser
	AnswerMerger
}

// HostFuncs adapts plain functions to Host. Nil functions fall back to: no
// sources, identity parsing and a shallow merge where accumulated keys win.
type HostFuncs struct {
	DatasourcesFunc func(scope Scope, orderOverride []string) iter.Seq[Source]
	ParseAnswerFunc func(raw any, scope Scope, ctx LookupContext) (any, error)
	MergeAnswerFunc func(next, accumulated map[string]any, resolution Resolution) (map[string]any, error)
}

func (h HostFuncs) Datasources(scope Scope, orderOverride []string) iter.Seq[Source] {
	if h.DatasourcesFunc == nil {
		return func(func(Source) bool) {}
	}
	return h.DatasourcesFunc(scope, orderOverride)
}

func (h HostFuncs) ParseAnswer(raw any, scope Scope, ctx LookupContext) (any, error) {
	if h.ParseAnswerFunc == nil {
		return raw, nil
	}
	return h.ParseAnswerFunc(raw, scope, ctx)
}

func (h HostFuncs) MergeAnswer(next, accumulated map[string]any, resolution Resolution) (map[string]any, error) {
	if h.MergeAnswerFunc != nil {
		return h.MergeAnswerFunc(next, accumulated, resolution)
	}
	out := make(map[string]any, len(next)+len(accumulated))
	for key, value := range next {
		out[key] = value
	}
	for key, value := range accumulated {
		out[key] = value
	}
	return out, nil
}

// StaticSources returns a DatasourcesFunc that ignores scope and yields
// orderOverride (when given) followed by names.
func StaticSources(names ...string) func(Scope, []string) iter.Seq[Source] {
	return func(_ Scope, orderOverride []string) iter.Seq[Source] {
		return func(yield func(Source) bool) {
			for _, name := range append(append([]string{}, orderOverride...), names...) {
				if !yield(ParseSource(name)) {
					return
				}
			}
		}
	}
}
