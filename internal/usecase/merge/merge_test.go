package merge

import (
	"path/filepath"
	"sort"
	"testing"

	"regharvest/internal/domain/entity"
	"regharvest/internal/infra/dataset"
)

func row(versionID string) entity.ProgressRow {
	return entity.ProgressRow{
		CRD:           "12345",
		FilerName:     "Acme Advisors",
		VersionID:     versionID,
		BrochureName:  "Form Brochure",
		DateSubmitted: "01/10/2024",
		LocalPath:     "docs/" + versionID + ".pdf",
		Status:        entity.StatusOK,
	}
}

func cumulativeKeys(t *testing.T, path string) []string {
	t.Helper()
	keys, _, err := dataset.ReadCumulativeKeys(path)
	if err != nil {
		t.Fatalf("ReadCumulativeKeys() error = %v", err)
	}
	sorted := make([]string, 0, len(keys))
	for k := range keys {
		sorted = append(sorted, k)
	}
	sort.Strings(sorted)
	return sorted
}

func TestFold_NoCumulativeFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "cumulative.csv")

	stats, err := Fold([]entity.ProgressRow{row("BR001"), row("BR002")}, path)
	if err != nil {
		t.Fatalf("Fold() error = %v", err)
	}
	if stats.Appended != 2 || stats.Duplicates != 0 {
		t.Errorf("stats = %+v, want 2 appended, 0 duplicates", stats)
	}
	got := cumulativeKeys(t, path)
	want := []string{"BR001", "BR002"}
	if len(got) != 2 || got[0] != want[0] || got[1] != want[1] {
		t.Errorf("cumulative keys = %v, want %v", got, want)
	}
}

func TestFold_SkipsRecordedKeys(t *testing.T) {
	path := filepath.Join(t.TempDir(), "cumulative.csv")

	if _, err := Fold([]entity.ProgressRow{row("BR001"), row("BR002")}, path); err != nil {
		t.Fatalf("seed Fold() error = %v", err)
	}

	stats, err := Fold([]entity.ProgressRow{row("BR002"), row("BR003")}, path)
	if err != nil {
		t.Fatalf("Fold() error = %v", err)
	}
	if stats.Appended != 1 || stats.Duplicates != 1 {
		t.Errorf("stats = %+v, want 1 appended, 1 duplicate", stats)
	}
	got := cumulativeKeys(t, path)
	want := []string{"BR001", "BR002", "BR003"}
	if len(got) != 3 || got[0] != want[0] || got[1] != want[1] || got[2] != want[2] {
		t.Errorf("cumulative keys = %v, want %v", got, want)
	}
}

func TestFold_Idempotent(t *testing.T) {
	path := filepath.Join(t.TempDir(), "cumulative.csv")
	run := []entity.ProgressRow{row("BR001"), row("BR002")}

	if _, err := Fold(run, path); err != nil {
		t.Fatalf("first Fold() error = %v", err)
	}
	once := cumulativeKeys(t, path)

	stats, err := Fold(run, path)
	if err != nil {
		t.Fatalf("second Fold() error = %v", err)
	}
	if stats.Appended != 0 || stats.Duplicates != 2 {
		t.Errorf("second merge stats = %+v, want 0 appended, 2 duplicates", stats)
	}
	twice := cumulativeKeys(t, path)
	if len(once) != len(twice) {
		t.Errorf("key set changed on re-merge: %v vs %v", once, twice)
	}
}

func TestFold_DuplicateKeyWithinRun(t *testing.T) {
	path := filepath.Join(t.TempDir(), "cumulative.csv")

	stats, err := Fold([]entity.ProgressRow{row("BR001"), row("BR001")}, path)
	if err != nil {
		t.Fatalf("Fold() error = %v", err)
	}
	if stats.Appended != 1 || stats.Duplicates != 1 {
		t.Errorf("stats = %+v, want 1 appended, 1 duplicate", stats)
	}
}

func TestFold_KeylessRowsAppendedUnconditionally(t *testing.T) {
	path := filepath.Join(t.TempDir(), "cumulative.csv")

	keyless := entity.ProgressRow{CRD: "12345", FilerName: "Acme Advisors", Status: entity.StatusOK}
	stats, err := Fold([]entity.ProgressRow{keyless, keyless}, path)
	if err != nil {
		t.Fatalf("Fold() error = %v", err)
	}
	if stats.Keyless != 2 || stats.Appended != 0 {
		t.Errorf("stats = %+v, want 2 keyless", stats)
	}
}

func TestFoldFile_MissingRunOutput(t *testing.T) {
	dir := t.TempDir()
	stats, err := FoldFile(filepath.Join(dir, "run.csv"), filepath.Join(dir, "cumulative.csv"))
	if err != nil {
		t.Fatalf("FoldFile() error = %v", err)
	}
	if stats.Appended != 0 {
		t.Errorf("stats = %+v, want empty", stats)
	}
}

func TestFoldFile_ReadsRunOutput(t *testing.T) {
	dir := t.TempDir()
	runPath := filepath.Join(dir, "run.csv")
	cumulativePath := filepath.Join(dir, "cumulative.csv")

	pw, err := dataset.NewProgressWriter(runPath)
	if err != nil {
		t.Fatalf("NewProgressWriter() error = %v", err)
	}
	for _, r := range []entity.ProgressRow{row("BR001"), row("BR002")} {
		if err := pw.Append(r); err != nil {
			t.Fatalf("Append() error = %v", err)
		}
	}
	if err := pw.Close(); err != nil {
		t.Fatalf("Close() error = %v", err)
	}

	stats, err := FoldFile(runPath, cumulativePath)
	if err != nil {
		t.Fatalf("FoldFile() error = %v", err)
	}
	if stats.Appended != 2 {
		t.Errorf("stats = %+v, want 2 appended", stats)
	}
}
