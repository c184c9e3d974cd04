package manifest

import (
	"platepipe/internal/record"
)

// resolved is the normalized view of one record used to populate row cells.
type resolved struct {
	rec      record.Record
	well     string
	site     int
	hasSite  bool
	cycle    int
	hasCycle bool
	channels []string
}

// resolveRecord normalizes a record's well/site/cycle/channel values,
// preferring ingest metadata and falling back to filename patterns. Channel
// literals that collide with a structural cycle token are rejected rather
// than guessed at.
func resolveRecord(r record.Record) (resolved, error) {
	res := resolved{rec: r, well: r.Well()}
	if site, ok := r.Site(); ok {
		res.site = site
		res.hasSite = true
	}
	if cycle, ok := r.Cycle(); ok {
		res.cycle = cycle
		res.hasCycle = true
	}
	if channel := r.Channel(); channel != "" {
		res.channels = []string{channel}
	} else if own := r.Channels(); len(own) > 0 {
		res.channels = own
	}

	if res.well == "" || !res.hasSite || len(res.channels) == 0 {
		applyParsedName(&res, r.Name())
	}

	for _, channel := range res.channels {
		if channelCollidesWithCycle(channel) {
			return resolved{}, &AmbiguousPatternError{Path: r.Path(), Channel: channel}
		}
	}
	return res, nil
}

// applyParsedName fills gaps in res from the first matching filename
// pattern. Metadata already present always wins.
func applyParsedName(res *resolved, name string) {
	parsed, ok := ParseBarcodeName(name)
	if !ok {
		parsed, ok = ParseCorrectedName(name)
	}
	if !ok {
		parsed, ok = ParseOriginalName(name)
	}
	if !ok {
		return
	}
	if res.well == "" {
		res.well = parsed.Well
	}
	if !res.hasSite && parsed.HasSite {
		res.site = parsed.Site
		res.hasSite = true
	}
	if !res.hasCycle && parsed.HasCycle {
		res.cycle = parsed.Cycle
		res.hasCycle = true
	}
	if len(res.channels) == 0 {
		if parsed.Channel != "" {
			res.channels = []string{parsed.Channel}
		} else {
			res.channels = parsed.Channels
		}
	}
}

// frameOf returns the frame offset of channel within the record's own file.
// Metadata channel lists answer through Record.FrameIndex; a record whose
// channels came from filename fallback is scanned the same way over the
// parsed list.
func (r resolved) frameOf(channel string) (int, bool) {
	if idx, ok := r.rec.FrameIndex(channel); ok {
		return idx, true
	}
	for idx, candidate := range r.channels {
		if candidate == channel {
			return idx, true
		}
	}
	return 0, false
}
