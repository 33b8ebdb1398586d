package feed

import (
	"strings"
	"testing"

	"regharvest/internal/domain/entity"

	"github.com/google/go-cmp/cmp"
)

const sampleFeed = `<?xml version="1.0" encoding="UTF-8"?>
<FilerFeed>
  <Generated on="08/30/2026"/>
  <Filers>
    <Filer crdNb="12345" businessNm="Acme Advisers LLC" dtSubmitted="01/15/2024" state="NY" country="United States"/>
    <Filer crdNb="67890" businessNm="Beta Capital" dtSubmitted="02/01/2024" state="CA" country="United States"/>
    <Filer crdNb="11111" businessNm="Gamma Wealth" dtSubmitted="03/10/2024" state="TX" country="United States"/>
  </Filers>
</FilerFeed>`

func TestParseAll(t *testing.T) {
	filers, err := ParseAll(strings.NewReader(sampleFeed))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	want := []entity.Filer{
		{CRD: "12345", LegalName: "Acme Advisers LLC", VersionMarker: "01/15/2024", State: "NY", Country: "United States"},
		{CRD: "67890", LegalName: "Beta Capital", VersionMarker: "02/01/2024", State: "CA", Country: "United States"},
		{CRD: "11111", LegalName: "Gamma Wealth", VersionMarker: "03/10/2024", State: "TX", Country: "United States"},
	}
	if diff := cmp.Diff(want, filers); diff != "" {
		t.Errorf("filers mismatch (-want +got):\n%s", diff)
	}
}

func TestParse_StopEarly(t *testing.T) {
	var seen int
	err := Parse(strings.NewReader(sampleFeed), func(f entity.Filer) error {
		seen++
		if seen == 2 {
			return ErrStopped
		}
		return nil
	})

	if err != nil {
		t.Fatalf("ErrStopped must end the stream cleanly, got %v", err)
	}
	if seen != 2 {
		t.Errorf("saw %d records, want 2", seen)
	}
}

func TestParse_MalformedDocument(t *testing.T) {
	_, err := ParseAll(strings.NewReader(`<FilerFeed><Filer crdNb="1"`))
	if err == nil {
		t.Fatal("expected error for truncated document")
	}
	if entity.CategoryOf(err) != entity.CategoryDataShape {
		t.Errorf("category = %v, want data_shape", entity.CategoryOf(err))
	}
}

func TestParse_IgnoresUnknownElements(t *testing.T) {
	doc := `<FilerFeed><Noise/><Filer crdNb="42" businessNm="X" dtSubmitted="01/01/2024"/><More><Nested/></More></FilerFeed>`

	filers, err := ParseAll(strings.NewReader(doc))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(filers) != 1 || filers[0].CRD != "42" {
		t.Errorf("unexpected result: %+v", filers)
	}
}

func TestParse_CallbackErrorPropagates(t *testing.T) {
	err := Parse(strings.NewReader(sampleFeed), func(f entity.Filer) error {
		return entity.Terminal(nil)
	})
	if entity.CategoryOf(err) != entity.CategoryTerminal {
		t.Errorf("callback error did not propagate, got %v", err)
	}
}
