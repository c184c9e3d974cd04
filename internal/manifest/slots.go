package manifest

import (
	"fmt"
	"sort"

	"platepipe/internal/record"
)

// AssignSlots maps each distinct filename in the group to a staging slot
// directory (img1, img2, ...). Names are ranked lexicographically so the
// assignment is stable across runs regardless of record order.
func AssignSlots(members []record.Record) map[string]string {
	seen := make(map[string]struct{}, len(members))
	names := make([]string, 0, len(members))
	for _, member := range members {
		name := member.Name()
		if name == "" {
			continue
		}
		if _, dup := seen[name]; dup {
			continue
		}
		seen[name] = struct{}{}
		names = append(names, name)
	}
	sort.Strings(names)

	slots := make(map[string]string, len(names))
	for i, name := range names {
		slots[name] = fmt.Sprintf("img%d", i+1)
	}
	return slots
}
