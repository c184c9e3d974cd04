package manifest_test

import (
	"testing"

	"platepipe/internal/manifest"
)

func TestParseOriginalNameChannelList(t *testing.T) {
	parsed, ok := manifest.ParseOriginalName("WellA1_PointA1_0000_ChannelDNA,GFP,Mito_Seq0000.ome.tiff")
	if !ok {
		t.Fatal("expected original pattern to match")
	}
	if parsed.Well != "A1" {
		t.Fatalf("well = %q, want A1", parsed.Well)
	}
	if len(parsed.Channels) != 3 || parsed.Channels[0] != "DNA" || parsed.Channels[2] != "Mito" {
		t.Fatalf("channels = %v", parsed.Channels)
	}
	if parsed.HasCycle {
		t.Fatal("painting acquisition should not carry a cycle")
	}
}

func TestParseOriginalNameCycleSuffix(t *testing.T) {
	parsed, ok := manifest.ParseOriginalName("WellB2_PointB2_0012_ChannelDNA,A,C,G,T_Cycle03_Seq0012.ome.tiff")
	if !ok {
		t.Fatal("expected original pattern to match")
	}
	if !parsed.HasCycle || parsed.Cycle != 3 {
		t.Fatalf("cycle = %d (has=%v), want 3", parsed.Cycle, parsed.HasCycle)
	}
	if len(parsed.Channels) != 5 {
		t.Fatalf("channels = %v", parsed.Channels)
	}
}

func TestParseCorrectedName(t *testing.T) {
	parsed, ok := manifest.ParseCorrectedName("Plate_P1_Well_A1_Site_4_CorrDNA.tiff")
	if !ok {
		t.Fatal("expected corrected pattern to match")
	}
	if parsed.Plate != "P1" || parsed.Well != "A1" || parsed.Site != 4 || !parsed.HasSite {
		t.Fatalf("parsed = %+v", parsed)
	}
	if parsed.Channel != "DNA" {
		t.Fatalf("channel = %q, want DNA", parsed.Channel)
	}
}

func TestParseBarcodeNameNormalizesDAPI(t *testing.T) {
	parsed, ok := manifest.ParseBarcodeName("Plate_P1_Well_A1_Site_1_Cycle01_DAPI.tiff")
	if !ok {
		t.Fatal("expected barcode pattern to match")
	}
	if parsed.Channel != "DNA" {
		t.Fatalf("channel = %q, want DNA", parsed.Channel)
	}
	if !parsed.HasCycle || parsed.Cycle != 1 {
		t.Fatalf("cycle = %d (has=%v), want 1", parsed.Cycle, parsed.HasCycle)
	}
}

func TestParseIllumName(t *testing.T) {
	parsed, ok := manifest.ParseIllumName("P1_IllumDNA.npy")
	if !ok {
		t.Fatal("expected illum pattern to match")
	}
	if parsed.Plate != "P1" || parsed.Channel != "DNA" || parsed.HasCycle {
		t.Fatalf("parsed = %+v", parsed)
	}

	parsed, ok = manifest.ParseIllumName("P1_Cycle02_IllumA.npy")
	if !ok {
		t.Fatal("expected cycle illum pattern to match")
	}
	if parsed.Channel != "A" || !parsed.HasCycle || parsed.Cycle != 2 {
		t.Fatalf("parsed = %+v", parsed)
	}
}

func TestParseRejectsUnrelatedNames(t *testing.T) {
	for _, name := range []string{"notes.txt", "Plate_P1_Well_A1.tiff", "IllumDNA.csv"} {
		if _, ok := manifest.ParseCorrectedName(name); ok {
			t.Fatalf("corrected pattern matched %q", name)
		}
		if _, ok := manifest.ParseBarcodeName(name); ok {
			t.Fatalf("barcode pattern matched %q", name)
		}
		if _, ok := manifest.ParseIllumName(name); ok {
			t.Fatalf("illum pattern matched %q", name)
		}
	}
}
