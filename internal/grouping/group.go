package grouping

import (
	"fmt"
	"sort"

	"platepipe/internal/record"
	"platepipe/internal/services"
)

// Group is the set of all Records sharing one Key, in canonical member order.
type Group struct {
	Key     Key
	Members []record.Record
}

// MissingGroupingFieldError reports a Record lacking a field named in the
// group key. The affected record's contribution is dropped loudly; other
// records still partition normally.
type MissingGroupingFieldError struct {
	Field record.Field
	Path  string
}

func (e *MissingGroupingFieldError) Error() string {
	return fmt.Sprintf("record %s: missing grouping field %q", e.Path, e.Field)
}

func (e *MissingGroupingFieldError) Unwrap() error { return services.ErrValidation }

// GroupBy partitions records by the composite key over fields. Records
// missing a key field are returned as errors alongside the groups built from
// the remaining records. Groups are sorted by key; members are sorted by
// site, then cycle, then channel, then filename.
func GroupBy(records []record.Record, fields []record.Field) ([]Group, []error) {
	byKey := make(map[string]*Group)
	var errs []error

	for _, r := range records {
		key, err := KeyFor(r, fields)
		if err != nil {
			errs = append(errs, err)
			continue
		}
		rendered := key.mapKey()
		group, ok := byKey[rendered]
		if !ok {
			group = &Group{Key: key}
			byKey[rendered] = group
		}
		group.Members = append(group.Members, r)
	}

	groups := make([]Group, 0, len(byKey))
	for _, group := range byKey {
		sortMembers(group.Members)
		groups = append(groups, *group)
	}
	sort.Slice(groups, func(i, j int) bool {
		return groups[i].Key.String() < groups[j].Key.String()
	})
	return groups, errs
}

// sortMembers applies the documented canonical member order.
func sortMembers(members []record.Record) {
	sort.SliceStable(members, func(i, j int) bool {
		if c := compareIntField(members[i], members[j], siteOf); c != 0 {
			return c < 0
		}
		if c := compareIntField(members[i], members[j], cycleOf); c != 0 {
			return c < 0
		}
		if members[i].Channel() != members[j].Channel() {
			return members[i].Channel() < members[j].Channel()
		}
		return members[i].Name() < members[j].Name()
	})
}

func siteOf(r record.Record) (int, bool)  { return r.Site() }
func cycleOf(r record.Record) (int, bool) { return r.Cycle() }

// compareIntField orders present values numerically and sorts absent values
// first so untagged records keep a stable position.
func compareIntField(a, b record.Record, get func(record.Record) (int, bool)) int {
	av, aok := get(a)
	bv, bok := get(b)
	switch {
	case !aok && !bok:
		return 0
	case !aok:
		return -1
	case !bok:
		return 1
	case av < bv:
		return -1
	case av > bv:
		return 1
	default:
		return 0
	}
}

// Find returns the group whose key equals key, if any.
func Find(groups []Group, key Key) (Group, bool) {
	for _, group := range groups {
		if group.Key.Equal(key) {
			return group, true
		}
	}
	return Group{}, false
}
