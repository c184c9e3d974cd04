package join

import (
	"fmt"

	"platepipe/internal/grouping"
	"platepipe/internal/record"
	"platepipe/internal/services"
)

// JoinedGroup is a fine Group augmented with the unique coarse Group matching
// its projected key.
type JoinedGroup struct {
	grouping.Group
	Coarse grouping.Group
}

// MissingTargetError reports a fine group whose projected key matched no
// coarse group.
type MissingTargetError struct {
	Projected grouping.Key
}

func (e *MissingTargetError) Error() string {
	return fmt.Sprintf("no coarse group matches projected key (%s)", e.Projected)
}

func (e *MissingTargetError) Unwrap() error { return services.ErrNotFound }

// AmbiguousTargetError reports a projected key matched by more than one
// coarse group.
type AmbiguousTargetError struct {
	Projected grouping.Key
	Count     int
}

func (e *AmbiguousTargetError) Error() string {
	return fmt.Sprintf("projected key (%s) matches %d coarse groups", e.Projected, e.Count)
}

func (e *AmbiguousTargetError) Unwrap() error { return services.ErrAmbiguous }

// Attach projects the fine group's key onto coarseFields and looks up the
// unique coarse group with that key. Exactly one match produces a
// JoinedGroup; zero or multiple matches fail the fine group.
func Attach(fine grouping.Group, coarseFields []record.Field, coarse []grouping.Group) (JoinedGroup, error) {
	projected, err := fine.Key.Project(coarseFields)
	if err != nil {
		return JoinedGroup{}, err
	}

	var matches []grouping.Group
	for _, candidate := range coarse {
		if candidate.Key.Equal(projected) {
			matches = append(matches, candidate)
		}
	}

	switch len(matches) {
	case 1:
		return JoinedGroup{Group: fine, Coarse: matches[0]}, nil
	case 0:
		return JoinedGroup{}, &MissingTargetError{Projected: projected}
	default:
		return JoinedGroup{}, &AmbiguousTargetError{Projected: projected, Count: len(matches)}
	}
}

// AttachAll joins every fine group, isolating failures: each fine group
// either appears in the joined result or contributes one error.
func AttachAll(fine []grouping.Group, coarseFields []record.Field, coarse []grouping.Group) ([]JoinedGroup, []error) {
	joined := make([]JoinedGroup, 0, len(fine))
	var errs []error
	for _, group := range fine {
		result, err := Attach(group, coarseFields, coarse)
		if err != nil {
			errs = append(errs, fmt.Errorf("group (%s): %w", group.Key, err))
			continue
		}
		joined = append(joined, result)
	}
	return joined, errs
}

// Solo wraps a group that needs no coarse artifacts into a JoinedGroup with
// an empty coarse side, so manifest generation has one input shape.
func Solo(group grouping.Group) JoinedGroup {
	return JoinedGroup{Group: group}
}
