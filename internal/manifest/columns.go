package manifest

import (
	"fmt"

	"platepipe/internal/stage"
)

// Role qualifies what a channel column describes.
type Role string

const (
	RoleOriginal  Role = "Original"
	RoleFrame     Role = "Frame"
	RoleIllum     Role = "Illum"
	RoleCorrected Role = "Corrected"
)

// rolesFor returns the stage's channel-column roles in render order.
func rolesFor(s stage.Stage) []Role {
	switch s {
	case stage.CorrectionCalc:
		return []Role{RoleOriginal, RoleFrame}
	case stage.CorrectionApply:
		return []Role{RoleOriginal, RoleFrame, RoleIllum, RoleCorrected}
	case stage.SegmentationCheck, stage.BarcodePreprocess, stage.CombinedAnalysis:
		return []Role{RoleCorrected}
	default:
		return nil
	}
}

// column is one role-qualified channel column.
type column struct {
	role     Role
	channel  string
	cycle    int
	hasCycle bool
}

// name renders the header: <Role>_<Channel> or <Role>_Cycle<NN>_<Channel>.
func (c column) name() string {
	if c.hasCycle {
		return fmt.Sprintf("%s_Cycle%02d_%s", c.role, c.cycle, c.channel)
	}
	return fmt.Sprintf("%s_%s", c.role, c.channel)
}

// baseColumns are always present, identifying the physical sample unit.
var baseColumns = []string{"Plate", "Well", "Site"}

// buildColumns computes a stage's full column schema: a pure function of the
// channel list and the group's sorted distinct cycles.
func buildColumns(spec stage.Spec, channels, barcodeChannels []string, cycles []int) []column {
	roles := rolesFor(spec.Stage)
	var columns []column

	if spec.Stage == stage.CombinedAnalysis {
		for _, channel := range channels {
			columns = append(columns, column{role: RoleCorrected, channel: channel})
		}
		for _, cycle := range cycles {
			for _, channel := range barcodeChannels {
				columns = append(columns, column{role: RoleCorrected, channel: channel, cycle: cycle, hasCycle: true})
			}
		}
		return columns
	}

	if spec.CycleAware && len(cycles) > 0 {
		for _, cycle := range cycles {
			for _, channel := range channels {
				for _, role := range roles {
					columns = append(columns, column{role: role, channel: channel, cycle: cycle, hasCycle: true})
				}
			}
		}
		return columns
	}

	for _, channel := range channels {
		for _, role := range roles {
			columns = append(columns, column{role: role, channel: channel})
		}
	}
	return columns
}
