package layout

import (
	"errors"
	"fmt"
	"sort"

	"svddoc/internal/sysdec"
)

var (
	ErrOutOfBounds = errors.New("field lies outside the register")
	ErrOverlap     = errors.New("fields overlap")
)

// RangeError is a field Layout cannot place.  Other is the field it
// collides with when Reason is ErrOverlap.
type RangeError struct {
	Field  *sysdec.FieldDef
	Other  *sysdec.FieldDef
	Reason error
}

func (e *RangeError) Error() string {
	if e.Other != nil {
		return fmt.Sprintf("%s %s and %s %s: %v", e.Field.Name, e.Field.BitRange,
			e.Other.Name, e.Other.BitRange, e.Reason)
	}
	return fmt.Sprintf("%s %s: %v", e.Field.Name, e.Field.BitRange, e.Reason)
}

func (e *RangeError) Unwrap() error {
	return e.Reason
}

// Check reports every field that breaks the preconditions of Layout.  The
// errors are joined; nil means Layout's output is a true partition.
func Check(fields []*sysdec.FieldDef) error {
	var errs []error
	inside := make([]*sysdec.FieldDef, 0, len(fields))
	for _, f := range fields {
		if f.BitOffset() < 0 || f.BitWidth() < 1 || high(f) > WordBits-1 {
			errs = append(errs, &RangeError{Field: f, Reason: ErrOutOfBounds})
			continue
		}
		inside = append(inside, f)
	}
	sort.Slice(inside, func(i, j int) bool {
		return inside[i].BitOffset() < inside[j].BitOffset()
	})
	var reach *sysdec.FieldDef //the field reaching highest so far
	for _, f := range inside {
		if reach != nil && f.BitOffset() <= high(reach) {
			errs = append(errs, &RangeError{Field: f, Other: reach, Reason: ErrOverlap})
		}
		if reach == nil || high(f) > high(reach) {
			reach = f
		}
	}
	return errors.Join(errs...)
}
