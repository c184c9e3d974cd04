package manifest

import (
	"fmt"

	"platepipe/internal/services"
)

// AmbiguousPatternError reports a filename or channel literal that matches
// two structural patterns at once, making resolution a guess. Fatal for the
// affected group.
type AmbiguousPatternError struct {
	Path    string
	Channel string
}

func (e *AmbiguousPatternError) Error() string {
	return fmt.Sprintf("file %s: channel %q is ambiguous with a cycle token", e.Path, e.Channel)
}

func (e *AmbiguousPatternError) Unwrap() error { return services.ErrAmbiguous }

// UnmappedRecordError reports a group member whose well or site could not be
// resolved from metadata or its filename. Such a record claims no (well,
// site) row, so generation fails instead of dropping the file. Fatal for the
// affected group.
type UnmappedRecordError struct {
	Path string
}

func (e *UnmappedRecordError) Error() string {
	return fmt.Sprintf("file %s: no well/site resolvable; record maps to no manifest row", e.Path)
}

func (e *UnmappedRecordError) Unwrap() error { return services.ErrValidation }

// Warning records a row cell left empty because no record supplied data for
// it. Non-fatal: the row is completed with a placeholder and the warning is
// surfaced for logging.
type Warning struct {
	Column string
	Well   string
	Site   int
}

func (w Warning) String() string {
	return fmt.Sprintf("well %s site %d: no data for column %s", w.Well, w.Site, w.Column)
}
