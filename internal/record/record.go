package record

import (
	"fmt"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	"platepipe/internal/services"
)

// Field names a metadata dimension on a Record.
type Field string

const (
	FieldBatch   Field = "batch"
	FieldPlate   Field = "plate"
	FieldWell    Field = "well"
	FieldSite    Field = "site"
	FieldCycle   Field = "cycle"
	FieldChannel Field = "channel"
	FieldArm     Field = "arm"
)

// Arm identifies one of the two independent processing tracks.
type Arm string

const (
	ArmPainting  Arm = "painting"
	ArmBarcoding Arm = "barcoding"
)

// ParseArm validates an arm label from external input.
func ParseArm(value string) (Arm, error) {
	switch Arm(strings.ToLower(strings.TrimSpace(value))) {
	case ArmPainting:
		return ArmPainting, nil
	case ArmBarcoding:
		return ArmBarcoding, nil
	default:
		return "", fmt.Errorf("%w: unknown arm %q", services.ErrValidation, value)
	}
}

// Record is an immutable metadata map plus one file reference. Derive new
// metadata with With/WithChannels; Records are never mutated in place.
type Record struct {
	meta     map[Field]string
	channels []string
	path     string
}

// New constructs a Record from a metadata map, the file's own ordered channel
// list, and a file reference. The metadata map is copied.
func New(meta map[Field]string, channels []string, path string) Record {
	cloned := make(map[Field]string, len(meta))
	for field, value := range meta {
		value = strings.TrimSpace(value)
		if value == "" {
			continue
		}
		cloned[field] = value
	}
	return Record{meta: cloned, channels: cloneChannels(channels), path: path}
}

// Path returns the file reference.
func (r Record) Path() string { return r.path }

// Name returns the base filename of the file reference.
func (r Record) Name() string { return filepath.Base(r.path) }

// Channels returns a copy of the file's own ordered channel list.
func (r Record) Channels() []string { return cloneChannels(r.channels) }

// Get returns the raw value of a metadata field.
func (r Record) Get(field Field) (string, bool) {
	value, ok := r.meta[field]
	return value, ok
}

// Batch returns the batch identifier, or "" when absent.
func (r Record) Batch() string { return r.meta[FieldBatch] }

// Plate returns the plate identifier, or "" when absent.
func (r Record) Plate() string { return r.meta[FieldPlate] }

// Well returns the well identifier, or "" when absent.
func (r Record) Well() string { return r.meta[FieldWell] }

// Site returns the numeric site value. The second result is false when the
// field is absent or not numeric.
func (r Record) Site() (int, bool) {
	return r.intField(FieldSite)
}

// Cycle returns the numeric cycle value. The second result is false when the
// field is absent or not numeric.
func (r Record) Cycle() (int, bool) {
	return r.intField(FieldCycle)
}

// Channel returns the single-channel metadata value set on derived records
// (for example a corrected image), or "" for multi-channel source images.
func (r Record) Channel() string { return r.meta[FieldChannel] }

// Arm returns the processing arm, or "" when absent.
func (r Record) Arm() Arm { return Arm(r.meta[FieldArm]) }

func (r Record) intField(field Field) (int, bool) {
	raw, ok := r.meta[field]
	if !ok {
		return 0, false
	}
	value, err := strconv.Atoi(raw)
	if err != nil {
		return 0, false
	}
	return value, true
}

// FrameIndex returns the numeric frame offset of channel within this record's
// file. The offset is the channel's position in the record's own channel
// list, never a position in any pipeline-wide canonical list.
func (r Record) FrameIndex(channel string) (int, bool) {
	for idx, candidate := range r.channels {
		if candidate == channel {
			return idx, true
		}
	}
	return 0, false
}

// With derives a new Record with one additional or replaced metadata field.
func (r Record) With(field Field, value string) Record {
	derived := New(r.meta, r.channels, r.path)
	value = strings.TrimSpace(value)
	if value == "" {
		delete(derived.meta, field)
		return derived
	}
	derived.meta[field] = value
	return derived
}

// WithChannels derives a new Record carrying a different ordered channel list.
func (r Record) WithChannels(channels []string) Record {
	derived := New(r.meta, channels, r.path)
	return derived
}

// WithPath derives a new Record referencing a different file.
func (r Record) WithPath(path string) Record {
	derived := New(r.meta, r.channels, r.path)
	derived.path = path
	return derived
}

// Fields returns the sorted list of metadata fields present on the record.
func (r Record) Fields() []Field {
	fields := make([]Field, 0, len(r.meta))
	for field := range r.meta {
		fields = append(fields, field)
	}
	sort.Slice(fields, func(i, j int) bool { return fields[i] < fields[j] })
	return fields
}

func cloneChannels(channels []string) []string {
	if len(channels) == 0 {
		return nil
	}
	cloned := make([]string, 0, len(channels))
	for _, channel := range channels {
		channel = strings.TrimSpace(channel)
		if channel == "" {
			continue
		}
		cloned = append(cloned, channel)
	}
	return cloned
}

// SplitChannelList parses a comma-separated channel declaration.
func SplitChannelList(value string) []string {
	if strings.TrimSpace(value) == "" {
		return nil
	}
	return cloneChannels(strings.Split(value, ","))
}
