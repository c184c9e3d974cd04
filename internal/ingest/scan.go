package ingest

import (
	"fmt"
	"io/fs"
	"path/filepath"
	"sort"
	"strconv"

	"platepipe/internal/manifest"
	"platepipe/internal/record"
)

// ScanCorrected walks dir for corrected image files and recovers their
// metadata from the filename patterns. Files that match no pattern are
// skipped; the scan only fails on filesystem errors.
func ScanCorrected(dir, batch string) ([]record.Record, error) {
	var records []record.Record
	err := walkFiles(dir, func(path, name string) {
		if parsed, ok := manifest.ParseBarcodeName(name); ok {
			records = append(records, parsedRecord(parsed, batch, record.ArmBarcoding, path))
			return
		}
		if parsed, ok := manifest.ParseCorrectedName(name); ok {
			records = append(records, parsedRecord(parsed, batch, record.ArmPainting, path))
		}
	})
	if err != nil {
		return nil, fmt.Errorf("scan corrected images %s: %w", dir, err)
	}
	return records, nil
}

// ScanIllum walks dir for correction artifacts (*.npy).
func ScanIllum(dir, batch string) ([]record.Record, error) {
	var records []record.Record
	err := walkFiles(dir, func(path, name string) {
		parsed, ok := manifest.ParseIllumName(name)
		if !ok {
			return
		}
		records = append(records, parsedRecord(parsed, batch, "", path))
	})
	if err != nil {
		return nil, fmt.Errorf("scan correction artifacts %s: %w", dir, err)
	}
	return records, nil
}

func parsedRecord(parsed manifest.ParsedName, batch string, arm record.Arm, path string) record.Record {
	meta := map[record.Field]string{
		record.FieldBatch:   batch,
		record.FieldPlate:   parsed.Plate,
		record.FieldWell:    parsed.Well,
		record.FieldChannel: parsed.Channel,
		record.FieldArm:     string(arm),
	}
	if parsed.HasSite {
		meta[record.FieldSite] = strconv.Itoa(parsed.Site)
	}
	if parsed.HasCycle {
		meta[record.FieldCycle] = strconv.Itoa(parsed.Cycle)
	}
	return record.New(meta, parsed.Channels, path)
}

func walkFiles(dir string, visit func(path, name string)) error {
	return filepath.WalkDir(dir, func(path string, entry fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if entry.IsDir() {
			return nil
		}
		visit(path, entry.Name())
		return nil
	})
}

// SubsampleSites keeps every skip-th distinct site, counted over the sorted
// distinct site values. skip values below 2 keep everything, as do records
// without a site.
func SubsampleSites(records []record.Record, skip int) []record.Record {
	if skip < 2 {
		return records
	}
	seen := make(map[int]struct{})
	var sites []int
	for _, rec := range records {
		site, ok := rec.Site()
		if !ok {
			continue
		}
		if _, dup := seen[site]; dup {
			continue
		}
		seen[site] = struct{}{}
		sites = append(sites, site)
	}
	sort.Ints(sites)

	keep := make(map[int]struct{}, len(sites)/skip+1)
	for i := 0; i < len(sites); i += skip {
		keep[sites[i]] = struct{}{}
	}

	kept := make([]record.Record, 0, len(records))
	for _, rec := range records {
		site, ok := rec.Site()
		if ok {
			if _, want := keep[site]; !want {
				continue
			}
		}
		kept = append(kept, rec)
	}
	return kept
}
