package layering

import (
	"fmt"
	"reflect"
	"slices"
	"strings"
)

// Behavior names a hash merge policy.
type Behavior string

const (
	// Native replaces top-level keys; the strong layer wins.
	Native Behavior = "native"
	// Deeper merges recursively; the strong layer wins scalar conflicts.
	Deeper Behavior = "deeper"
	// Deep merges recursively; the weak layer wins scalar conflicts.
	Deep Behavior = "deep"
)

// Options controls a merge.
type Options struct {
	Behavior Behavior
	// KnockoutPrefix, when set in a recursive merge, lets the strong layer
	// remove data: a key "<prefix>name" deletes name, a value equal to the
	// prefix deletes its key, and an array element "<prefix>item" removes item.
	KnockoutPrefix string
	// SortMergedArrays sorts arrays produced by a recursive merge.
	SortMergedArrays bool
}

func (o Options) recursive() bool {
	return o.Behavior == Deep || o.Behavior == Deeper
}

// Merge combines strong and weak mappings into a new map. Neither input is
// modified.
func Merge(strong, weak map[string]any, opts Options) map[string]any {
	if !opts.recursive() {
		result := cloneMap(weak)
		for key, value := range strong {
			result[key] = cloneValue(value)
		}
		return result
	}
	return mergeMaps(strong, weak, opts)
}

// MergeLayers composes mappings ordered from strongest to weakest.
func MergeLayers(opts Options, layers ...map[string]any) map[string]any {
	if len(layers) == 0 {
		return map[string]any{}
	}
	merged := cloneMap(layers[len(layers)-1])
	for i := len(layers) - 2; i >= 0; i-- {
		merged = Merge(layers[i], merged, opts)
	}
	return merged
}

func mergeMaps(strong, weak map[string]any, opts Options) map[string]any {
	result := cloneMap(weak)
	for key, value := range strong {
		if opts.KnockoutPrefix != "" {
			if target, ok := strings.CutPrefix(key, opts.KnockoutPrefix); ok && target != "" {
				delete(result, target)
				continue
			}
			if text, ok := value.(string); ok && text == opts.KnockoutPrefix {
				delete(result, key)
				continue
			}
		}
		existing, ok := result[key]
		if !ok {
			result[key] = stripKnockouts(cloneValue(value), opts)
			continue
		}
		result[key] = mergeValue(value, existing, opts)
	}
	return result
}

func mergeValue(strong, weak any, opts Options) any {
	strongMap, strongIsMap := strong.(map[string]any)
	weakMap, weakIsMap := weak.(map[string]any)
	if strongIsMap && weakIsMap {
		return mergeMaps(strongMap, weakMap, opts)
	}

	strongList, strongIsList := strong.([]any)
	weakList, weakIsList := weak.([]any)
	if strongIsList && weakIsList {
		return mergeLists(strongList, weakList, opts)
	}

	if opts.Behavior == Deep {
		return cloneValue(weak)
	}
	return stripKnockouts(cloneValue(strong), opts)
}

// mergeLists unions two arrays. The side that wins scalar conflicts keeps its
// elements first.
func mergeLists(strong, weak []any, opts Options) []any {
	var removed []any
	kept := make([]any, 0, len(strong))
	for _, item := range strong {
		if target, ok := knockoutTarget(item, opts); ok {
			removed = append(removed, target)
			continue
		}
		kept = append(kept, item)
	}

	first, second := kept, weak
	if opts.Behavior == Deep {
		first, second = weak, kept
	}
	out := make([]any, 0, len(first)+len(second))
	for _, list := range [][]any{first, second} {
		for _, item := range list {
			if containsValue(removed, item) || containsValue(out, item) {
				continue
			}
			out = append(out, cloneValue(item))
		}
	}
	if opts.SortMergedArrays {
		slices.SortStableFunc(out, func(a, b any) int {
			return strings.Compare(fmt.Sprint(a), fmt.Sprint(b))
		})
	}
	return out
}

func knockoutTarget(item any, opts Options) (any, bool) {
	if opts.KnockoutPrefix == "" {
		return nil, false
	}
	text, ok := item.(string)
	if !ok {
		return nil, false
	}
	target, ok := strings.CutPrefix(text, opts.KnockoutPrefix)
	if !ok || target == "" {
		return nil, false
	}
	return target, true
}

// stripKnockouts drops knockout markers from values that had nothing to
// knock out.
func stripKnockouts(value any, opts Options) any {
	if opts.KnockoutPrefix == "" || !opts.recursive() {
		return value
	}
	switch typed := value.(type) {
	case []any:
		out := typed[:0]
		for _, item := range typed {
			if _, ok := knockoutTarget(item, opts); ok {
				continue
			}
			out = append(out, stripKnockouts(item, opts))
		}
		return out
	case map[string]any:
		for key, item := range typed {
			if text, ok := item.(string); ok && text == opts.KnockoutPrefix {
				delete(typed, key)
				continue
			}
			if strings.HasPrefix(key, opts.KnockoutPrefix) {
				delete(typed, key)
				continue
			}
			typed[key] = stripKnockouts(item, opts)
		}
		return typed
	default:
		return value
	}
}

func containsValue(list []any, value any) bool {
	for _, item := range list {
		if reflect.DeepEqual(item, value) {
			return true
		}
	}
	return false
}

func cloneMap(src map[string]any) map[string]any {
	out := make(map[string]any, len(src))
	for key, value := range src {
		out[key] = cloneValue(value)
	}
	return out
}

func cloneValue(value any) any {
	switch typed := value.(type) {
	case map[string]any:
		return cloneMap(typed)
	case []any:
		out := make([]any, len(typed))
		for i, item := range typed {
			out[i] = cloneValue(item)
		}
		return out
	default:
		return value
	}
}
