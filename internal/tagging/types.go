package tagging

import (
	"fmt"
	"strings"

	"github.com/canonicaltags/ctags/internal/catalog"
	"github.com/canonicaltags/ctags/internal/datastore/entities"
)

// EntityRef identifies an externally owned entity.
type EntityRef struct {
	Type string
	ID   uint
}

func (r EntityRef) String() string {
	return fmt.Sprintf("%s:%d", r.Type, r.ID)
}

// Scope is an entity type, optionally narrowed by a host predicate.
type Scope struct {
	Type      string
	Predicate catalog.Predicate
}

// TagUsage is a tag with the number of entities carrying it. Count is zero
// when counts were not requested.
type TagUsage struct {
	Tag   *entities.Tag
	Count int64
}

// CountOptions controls usage and related-tag aggregation.
type CountOptions struct {
	// Counts requests per-tag entity counts.
	Counts bool
	// MinCount drops tags used by fewer entities. A positive value forces
	// Counts. Negative values are rejected.
	MinCount int
}

// RelatedEntity is an entity ranked by the number of tags it shares with a source.
type RelatedEntity struct {
	Ref    EntityRef
	Shared int64
}

// Distribution maps usage counts onto cloud font sizes.
type Distribution int

const (
	// Logarithmic compresses the range so a few heavy tags do not dwarf the rest.
	Logarithmic Distribution = iota
	// Linear spreads raw counts evenly across the steps.
	Linear
)

func (d Distribution) String() string {
	switch d {
	case Logarithmic:
		return "logarithmic"
	case Linear:
		return "linear"
	}
	return fmt.Sprintf("distribution(%d)", int(d))
}

// Valid reports whether d is a known distribution.
func (d Distribution) Valid() bool {
	return d == Logarithmic || d == Linear
}

// ParseDistribution accepts "linear", "logarithmic" or "log".
func ParseDistribution(s string) (Distribution, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "logarithmic", "log":
		return Logarithmic, nil
	case "linear":
		return Linear, nil
	}
	return 0, invalidArgument("unknown cloud distribution %q", s)
}

// DefaultCloudSteps is the number of font sizes used when none is given.
const DefaultCloudSteps = 4

// CloudOptions controls cloud computation.
type CloudOptions struct {
	// Steps is the number of font sizes. Zero means DefaultCloudSteps;
	// negative values are rejected.
	Steps int
	// Distribution selects the weighting; the zero value is Logarithmic.
	Distribution Distribution
	// MinCount drops tags used by fewer entities.
	MinCount int
}

// DefaultCloudOptions returns four logarithmic steps with no count filter.
func DefaultCloudOptions() CloudOptions {
	return CloudOptions{Steps: DefaultCloudSteps, Distribution: Logarithmic}
}

// CloudTag is one weighted entry of a tag cloud.
type CloudTag struct {
	Tag      *entities.Tag
	Count    int64
	FontSize int
}
