package manifest

import (
	"regexp"
	"strconv"
	"strings"
)

// Filename patterns recovered from the acquisition and correction tool
// conventions. Metadata-driven resolution always wins; these exist so files
// arriving without ingest metadata (for example a corrected-image directory
// scan) can be tagged identically.
var (
	// WellA1_PointA1_0000_ChannelDNA,GFP[_Cycle03]_Seq0000.ome.tiff
	originalPattern = regexp.MustCompile(`Well([A-Z]\d+)_Point[A-Z]\d+_\d+_Channel([^_]+?)(?:_Cycle(\d+))?_Seq\d+\.ome\.tiff?$`)
	// Plate_P1_Well_A1_Site_1_CorrDNA.tiff
	correctedPattern = regexp.MustCompile(`^Plate_(.+?)_Well_(.+?)_Site_(\d+)_Corr(.+?)\.tiff?$`)
	// Plate_P1_Well_A1_Site_1_Cycle01_A.tiff (DAPI normalizes to DNA)
	barcodePattern = regexp.MustCompile(`^Plate_(.+?)_Well_(.+?)_Site_(\d+)_Cycle(\d+)_([ACGT]|DNA|DAPI)\.tiff?$`)
	// P1_IllumDNA.npy or P1_Cycle01_IllumDNA.npy
	illumPattern = regexp.MustCompile(`^(.+?)(?:_Cycle(\d+))?_Illum(.+?)\.npy$`)
	// A channel literal that collides with the cycle marker of the barcode
	// pattern cannot be resolved either way.
	cycleToken = regexp.MustCompile(`^Cycle\d+$`)
)

// ParsedName carries the metadata recovered from one filename.
type ParsedName struct {
	Plate    string
	Well     string
	Site     int
	HasSite  bool
	Cycle    int
	HasCycle bool
	Channel  string
	Channels []string
}

// ParseOriginalName parses a multi-channel acquisition filename. The channel
// token may be a comma-separated list; each listed channel occupies the frame
// matching its position.
func ParseOriginalName(name string) (ParsedName, bool) {
	match := originalPattern.FindStringSubmatch(name)
	if match == nil {
		return ParsedName{}, false
	}
	parsed := ParsedName{Well: match[1]}
	for _, channel := range strings.Split(match[2], ",") {
		channel = strings.TrimSpace(channel)
		if channel != "" {
			parsed.Channels = append(parsed.Channels, channel)
		}
	}
	if match[3] != "" {
		parsed.Cycle, _ = strconv.Atoi(match[3])
		parsed.HasCycle = true
	}
	return parsed, true
}

// ParseCorrectedName parses a corrected single-channel image filename.
func ParseCorrectedName(name string) (ParsedName, bool) {
	match := correctedPattern.FindStringSubmatch(name)
	if match == nil {
		return ParsedName{}, false
	}
	site, _ := strconv.Atoi(match[3])
	return ParsedName{Plate: match[1], Well: match[2], Site: site, HasSite: true, Channel: match[4]}, true
}

// ParseBarcodeName parses a cycle-tagged barcoding image filename,
// normalizing DAPI to DNA.
func ParseBarcodeName(name string) (ParsedName, bool) {
	match := barcodePattern.FindStringSubmatch(name)
	if match == nil {
		return ParsedName{}, false
	}
	site, _ := strconv.Atoi(match[3])
	cycle, _ := strconv.Atoi(match[4])
	channel := match[5]
	if channel == "DAPI" {
		channel = "DNA"
	}
	return ParsedName{Plate: match[1], Well: match[2], Site: site, HasSite: true, Cycle: cycle, HasCycle: true, Channel: channel}, true
}

// ParseIllumName parses a correction-artifact filename.
func ParseIllumName(name string) (ParsedName, bool) {
	match := illumPattern.FindStringSubmatch(name)
	if match == nil {
		return ParsedName{}, false
	}
	parsed := ParsedName{Plate: match[1], Channel: match[3]}
	if match[2] != "" {
		parsed.Cycle, _ = strconv.Atoi(match[2])
		parsed.HasCycle = true
	}
	return parsed, true
}

// channelCollidesWithCycle reports whether a channel literal is
// indistinguishable from a structural cycle token.
func channelCollidesWithCycle(channel string) bool {
	return cycleToken.MatchString(channel)
}
