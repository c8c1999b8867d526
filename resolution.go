package hiera

import (
	"fmt"
	"strings"
)

// ResolutionType selects how answers from several sources are combined.
type ResolutionType string

const (
	// ResolutionScalar returns the first matching source.
	ResolutionScalar ResolutionType = "scalar"
	// ResolutionArray appends every matching source in order.
	ResolutionArray ResolutionType = "array"
	// ResolutionHash merges every matching mapping through the host merger.
	ResolutionHash ResolutionType = "hash"
)

// MergeBehavior names a hash merge policy owned by the host merger.
type MergeBehavior string

const (
	MergeNative MergeBehavior = "native"
	MergeDeep   MergeBehavior = "deep"
	MergeDeeper MergeBehavior = "deeper"
)

// MergeOptions is a structured hash request. When present on a Resolution it
// implies hash resolution and is forwarded to the merger untouched.
type MergeOptions struct {
	Behavior         MergeBehavior `yaml:"behavior,omitempty" json:"behavior,omitempty"`
	KnockoutPrefix   string        `yaml:"knockout_prefix,omitempty" json:"knockout_prefix,omitempty"`
	SortMergedArrays bool          `yaml:"sort_merged_arrays,omitempty" json:"sort_merged_arrays,omitempty"`
}

// Resolution is the resolution requested for one lookup.
type Resolution struct {
	Type  ResolutionType
	Merge *MergeOptions
}

// Scalar, Array and Hash build the canonical resolutions.
func Scalar() Resolution { return Resolution{Type: ResolutionScalar} }
func Array() Resolution  { return Resolution{Type: ResolutionArray} }
func Hash() Resolution   { return Resolution{Type: ResolutionHash} }

// HashWith builds a structured hash request.
func HashWith(opts MergeOptions) Resolution {
	return Resolution{Type: ResolutionHash, Merge: &opts}
}

// NormalizeResolution maps any resolution request onto one of the three
// dispatch arms. A structured merge request always dispatches as hash; an
// unknown or empty type dispatches as scalar.
func NormalizeResolution(r Resolution) ResolutionType {
	if r.Merge != nil {
		return ResolutionHash
	}
	switch r.Type {
	case ResolutionArray:
		return ResolutionArray
	case ResolutionHash:
		return ResolutionHash
	default:
		return ResolutionScalar
	}
}

// String renders the normalized resolution name.
func (r Resolution) String() string {
	return string(NormalizeResolution(r))
}

// ParseResolution parses a resolution name. "priority" is accepted as an
// alias for scalar.
func ParseResolution(value string) (Resolution, error) {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "", "scalar", "priority":
		return Scalar(), nil
	case "array":
		return Array(), nil
	case "hash":
		return Hash(), nil
	default:
		return Resolution{}, fmt.Errorf("hiera: unknown resolution type %q", value)
	}
}

// ParseMergeBehavior parses a merge behavior name; "" yields native.
func ParseMergeBehavior(value string) (MergeBehavior, error) {
	switch MergeBehavior(strings.ToLower(strings.TrimSpace(value))) {
	case "", MergeNative:
		return MergeNative, nil
	case MergeDeep:
		return MergeDeep, nil
	case MergeDeeper:
		return MergeDeeper, nil
	default:
		return "", fmt.Errorf("hiera: unknown merge behavior %q", value)
	}
}
