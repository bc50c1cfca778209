package brands

import (
	"testing"

	"astromatic/config"
)

func testEnv() *config.Env {
	return &config.Env{
		IGUserID:      "acc-asfa",
		IGMafaUserID:  "acc-mafa",
		AsfaT1TableID: "tbl-asfa-1",
		AsfaT2TableID: "tbl-asfa-2",
		MafaT1TableID: "tbl-mafa-1",
		MafaT2TableID: "tbl-mafa-2",
	}
}

func TestResolve_PrefixSelectsBrand(t *testing.T) {
	r := NewResolver(testEnv())

	cases := []struct {
		templateID string
		wantID     string
	}{
		{"asfa-t1", "asfa"},
		{"asfa-t2", "asfa"},
		{"mafa-t1", "mafa"},
		{"MAFA-T2", "mafa"},
		{"anything-else", "asfa"}, // default brand
		{"", "asfa"},
	}
	for _, c := range cases {
		if got := r.Resolve(c.templateID); got.ID != c.wantID {
			t.Errorf("Resolve(%q).ID = %s, want %s", c.templateID, got.ID, c.wantID)
		}
	}
}

func TestResolve_BrandConstants(t *testing.T) {
	r := NewResolver(testEnv())

	asfa := r.Resolve("asfa-t1")
	if asfa.MaxAssets.Videos != 28 || asfa.MaxAssets.Audios != 10 {
		t.Errorf("asfa limits = %+v", asfa.MaxAssets)
	}
	if asfa.StorageFolder != "AstrologiaFamiliar" || asfa.Prefix.Video != "ASFA_VID_" {
		t.Errorf("asfa constants = %+v", asfa)
	}
	if asfa.AccountID != "acc-asfa" {
		t.Errorf("asfa account = %q", asfa.AccountID)
	}

	mafa := r.Resolve("mafa-t1")
	if mafa.MaxAssets.Videos != 24 || mafa.MaxAssets.Audios != 4 {
		t.Errorf("mafa limits = %+v", mafa.MaxAssets)
	}
	if mafa.AccountID != "acc-mafa" {
		t.Errorf("mafa account = %q", mafa.AccountID)
	}
}

func TestTable_SuffixSelectsTable(t *testing.T) {
	r := NewResolver(testEnv())

	if got := r.Resolve("asfa-t1").Table("asfa-t1"); got != "tbl-asfa-1" {
		t.Errorf("asfa-t1 table = %q", got)
	}
	if got := r.Resolve("asfa-t2").Table("asfa-t2"); got != "tbl-asfa-2" {
		t.Errorf("asfa-t2 table = %q", got)
	}
	if got := r.Resolve("mafa-t2").Table("mafa-t2"); got != "tbl-mafa-2" {
		t.Errorf("mafa-t2 table = %q", got)
	}
	// Unknown suffix falls back to T1.
	if got := r.Resolve("asfa-x").Table("asfa-x"); got != "tbl-asfa-1" {
		t.Errorf("unknown suffix table = %q", got)
	}
}

func TestFourSegmentAndCTA(t *testing.T) {
	if !FourSegment("asfa-t1") || !FourSegment("mafa-t1") {
		t.Error("-t1 templates should be four-segment")
	}
	if FourSegment("asfa-t2") {
		t.Error("-t2 templates should be two-segment")
	}
	if !EndsWithCTA("asfa-t1") || EndsWithCTA("asfa-t2") {
		t.Error("only four-segment templates end with a CTA")
	}
}
