package manifest

import (
	"bytes"
	"crypto/sha256"
	"encoding/csv"
	"encoding/hex"
	"fmt"
	"sort"
	"strconv"

	"platepipe/internal/join"
	"platepipe/internal/record"
	"platepipe/internal/stage"
)

// Manifest is the ordered tabular task description for one group.
type Manifest struct {
	Columns []string
	Rows    [][]string
}

// Options tunes manifest generation.
type Options struct {
	// Channels is the canonical channel order for the stage's arm. When
	// empty, the sorted union of the group's channels is used.
	Channels []string
	// BarcodeChannels is the cycle-crossed channel list for combined
	// analysis; ignored by other stages.
	BarcodeChannels []string
	// Slots optionally maps filenames to staging slot directories; file
	// cells are rendered as "<slot>/<name>" when a mapping exists.
	Slots map[string]string
}

// Generate renders one joined group into a Manifest. Fatal resolution
// failures abort the whole group, including a member whose (well, site) is
// unresolvable and would otherwise vanish from the output; cells with no
// backing record degrade to an empty placeholder and a returned warning.
func Generate(jg join.JoinedGroup, spec stage.Spec, opts Options) (Manifest, []Warning, error) {
	members := make([]resolved, 0, len(jg.Members))
	for _, member := range jg.Members {
		res, err := resolveRecord(member)
		if err != nil {
			return Manifest{}, nil, fmt.Errorf("group (%s): %w", jg.Key, err)
		}
		if res.well == "" || !res.hasSite {
			return Manifest{}, nil, fmt.Errorf("group (%s): %w", jg.Key, &UnmappedRecordError{Path: member.Path()})
		}
		members = append(members, res)
	}

	channels := opts.Channels
	if len(channels) == 0 {
		channels = unionChannels(members)
	}
	cycles := distinctCycles(members)
	columns := buildColumns(spec, channels, opts.BarcodeChannels, cycles)

	illum, err := indexIllum(jg.Coarse.Members)
	if err != nil {
		return Manifest{}, nil, fmt.Errorf("group (%s): %w", jg.Key, err)
	}

	cells := indexCells(members)
	units := rowUnits(members)
	plate := plateOf(jg)

	m := Manifest{Columns: append(append([]string{}, baseColumns...), columnNames(columns)...)}
	var warnings []Warning

	for _, unit := range units {
		row := make([]string, 0, len(m.Columns))
		row = append(row, plate, unit.well, strconv.Itoa(unit.site))
		for _, col := range columns {
			value, warn := cellValue(spec.Stage, col, unit, plate, cells, illum, opts.Slots)
			if warn {
				warnings = append(warnings, Warning{Column: col.name(), Well: unit.well, Site: unit.site})
			}
			row = append(row, value)
		}
		m.Rows = append(m.Rows, row)
	}

	return m, warnings, nil
}

// Render serializes the manifest as CSV. Output is byte-identical for equal
// manifests.
func (m Manifest) Render() []byte {
	var buf bytes.Buffer
	w := csv.NewWriter(&buf)
	_ = w.Write(m.Columns)
	for _, row := range m.Rows {
		_ = w.Write(row)
	}
	w.Flush()
	return buf.Bytes()
}

// Checksum returns the hex SHA-256 of the rendered manifest, used for cache
// reuse decisions.
func (m Manifest) Checksum() string {
	sum := sha256.Sum256(m.Render())
	return hex.EncodeToString(sum[:])
}

type rowUnit struct {
	well string
	site int
}

// rowUnits lists the distinct (well, site) pairs in canonical order. Every
// member carries both values; Generate rejects unplaced records up front.
func rowUnits(members []resolved) []rowUnit {
	seen := make(map[rowUnit]struct{})
	var units []rowUnit
	for _, member := range members {
		unit := rowUnit{well: member.well, site: member.site}
		if _, dup := seen[unit]; dup {
			continue
		}
		seen[unit] = struct{}{}
		units = append(units, unit)
	}
	sort.Slice(units, func(i, j int) bool {
		if units[i].well != units[j].well {
			return units[i].well < units[j].well
		}
		return units[i].site < units[j].site
	})
	return units
}

type cellKey struct {
	well     string
	site     int
	cycle    int
	hasCycle bool
	channel  string
}

// indexCells builds the complete (well, site, cycle, channel) assignment
// table in one pass; rows render purely from this table afterwards. Members
// arrive in canonical group order, so the first claim on a cell is
// deterministic.
func indexCells(members []resolved) map[cellKey]resolved {
	cells := make(map[cellKey]resolved)
	for _, member := range members {
		for _, channel := range member.channels {
			key := cellKey{
				well:     member.well,
				site:     member.site,
				cycle:    member.cycle,
				hasCycle: member.hasCycle,
				channel:  channel,
			}
			if _, claimed := cells[key]; !claimed {
				cells[key] = member
			}
		}
	}
	return cells
}

type illumKey struct {
	cycle    int
	hasCycle bool
	channel  string
}

// indexIllum maps coarse correction artifacts by (cycle, channel).
func indexIllum(members []record.Record) (map[illumKey]string, error) {
	index := make(map[illumKey]string, len(members))
	for _, member := range members {
		channel := member.Channel()
		cycle, hasCycle := member.Cycle()
		if channel == "" {
			parsed, ok := ParseIllumName(member.Name())
			if !ok {
				continue
			}
			channel = parsed.Channel
			if !hasCycle && parsed.HasCycle {
				cycle, hasCycle = parsed.Cycle, true
			}
		}
		if channelCollidesWithCycle(channel) {
			return nil, &AmbiguousPatternError{Path: member.Path(), Channel: channel}
		}
		key := illumKey{cycle: cycle, hasCycle: hasCycle, channel: channel}
		if _, claimed := index[key]; !claimed {
			index[key] = member.Name()
		}
	}
	return index, nil
}

// cellValue computes one channel-column cell. The bool result requests a
// missing-data warning.
func cellValue(st stage.Stage, col column, unit rowUnit, plate string, cells map[cellKey]resolved, illum map[illumKey]string, slots map[string]string) (string, bool) {
	if col.role == RoleIllum {
		name, ok := illum[illumKey{cycle: col.cycle, hasCycle: col.hasCycle, channel: col.channel}]
		if !ok && col.hasCycle {
			// Cycle-independent artifacts serve every cycle.
			name, ok = illum[illumKey{channel: col.channel}]
		}
		if !ok {
			return "", true
		}
		return name, false
	}

	if col.role == RoleCorrected && st == stage.CorrectionApply {
		// The apply stage declares where each corrected image will be
		// written; these names are computed, not discovered.
		if col.hasCycle {
			return fmt.Sprintf("Plate_%s_Well_%s_Site_%d_Cycle%02d_%s.tiff", plate, unit.well, unit.site, col.cycle, col.channel), false
		}
		return fmt.Sprintf("Plate_%s_Well_%s_Site_%d_Corr%s.tiff", plate, unit.well, unit.site, col.channel), false
	}

	key := cellKey{well: unit.well, site: unit.site, cycle: col.cycle, hasCycle: col.hasCycle, channel: col.channel}
	member, ok := cells[key]
	if !ok {
		// Only report the channel's primary column; the frame cell stays
		// quiet so one gap yields one warning.
		return "", col.role == RoleOriginal || col.role == RoleCorrected
	}
	switch col.role {
	case RoleOriginal, RoleCorrected:
		return slotted(member.rec.Name(), slots), false
	case RoleFrame:
		frame, ok := member.frameOf(col.channel)
		if !ok {
			return "", false
		}
		return strconv.Itoa(frame), false
	default:
		return "", false
	}
}

func slotted(name string, slots map[string]string) string {
	if slot, ok := slots[name]; ok && slot != "" {
		return slot + "/" + name
	}
	return name
}

func columnNames(columns []column) []string {
	names := make([]string, len(columns))
	for i, col := range columns {
		names[i] = col.name()
	}
	return names
}

func unionChannels(members []resolved) []string {
	seen := make(map[string]struct{})
	var channels []string
	for _, member := range members {
		for _, channel := range member.channels {
			if _, dup := seen[channel]; dup {
				continue
			}
			seen[channel] = struct{}{}
			channels = append(channels, channel)
		}
	}
	sort.Strings(channels)
	return channels
}

func distinctCycles(members []resolved) []int {
	seen := make(map[int]struct{})
	var cycles []int
	for _, member := range members {
		if !member.hasCycle {
			continue
		}
		if _, dup := seen[member.cycle]; dup {
			continue
		}
		seen[member.cycle] = struct{}{}
		cycles = append(cycles, member.cycle)
	}
	sort.Ints(cycles)
	return cycles
}

func plateOf(jg join.JoinedGroup) string {
	if plate, ok := jg.Key.Value(record.FieldPlate); ok {
		return plate
	}
	for _, member := range jg.Members {
		if plate := member.Plate(); plate != "" {
			return plate
		}
	}
	return ""
}
