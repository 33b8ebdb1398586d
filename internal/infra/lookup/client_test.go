package lookup

import (
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"regharvest/internal/domain/entity"
	"regharvest/internal/infra/fetcher"
	"regharvest/internal/resilience/retry"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testClient(baseURL string) *Client {
	cfg := fetcher.DefaultConfig()
	cfg.OpsPerSecond = 1000
	fc := fetcher.NewClient(cfg, retry.Config{
		MaxAttempts:  1,
		InitialDelay: time.Millisecond,
		MaxDelay:     time.Millisecond,
		Multiplier:   1,
	}, nil)
	return NewClient(fc, baseURL)
}

func TestBrochures_Success(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "12345", r.URL.Query().Get("crd"))
		fmt.Fprint(w, `{
			"status": "ok",
			"filer": {
				"crd": "12345",
				"legalName": "Acme Advisers LLC",
				"brochures": [
					{"versionId": "BR001", "name": "Firm Brochure", "dateSubmitted": "01/15/2024"},
					{"versionId": "BR002", "name": "Wrap Fee Brochure", "dateSubmitted": "01/20/2024"}
				]
			}
		}`) //nolint:errcheck
	}))
	defer srv.Close()

	got, err := testClient(srv.URL).Brochures(t.Context(), "12345")
	require.NoError(t, err)

	want := []entity.Brochure{
		{CRD: "12345", VersionID: "BR001", Name: "Firm Brochure", DateSubmitted: "01/15/2024"},
		{CRD: "12345", VersionID: "BR002", Name: "Wrap Fee Brochure", DateSubmitted: "01/20/2024"},
	}
	assert.Equal(t, want, got)
}

func TestBrochures_EmptyList(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"status": "ok", "filer": {"crd": "99999", "brochures": []}}`) //nolint:errcheck
	}))
	defer srv.Close()

	got, err := testClient(srv.URL).Brochures(t.Context(), "99999")
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestBrochures_ErrorStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"status": "not_found"}`) //nolint:errcheck
	}))
	defer srv.Close()

	_, err := testClient(srv.URL).Brochures(t.Context(), "00000")
	require.Error(t, err)
	assert.Equal(t, entity.CategoryTerminal, entity.CategoryOf(err))
}

func TestBrochures_MalformedBody(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `<html>maintenance page</html>`) //nolint:errcheck
	}))
	defer srv.Close()

	_, err := testClient(srv.URL).Brochures(t.Context(), "12345")
	require.Error(t, err)
	assert.Equal(t, entity.CategoryDataShape, entity.CategoryOf(err))
}

func TestBrochures_HTTPFailurePropagates(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "unknown filer", http.StatusNotFound)
	}))
	defer srv.Close()

	_, err := testClient(srv.URL).Brochures(t.Context(), "12345")
	require.Error(t, err)
	assert.Equal(t, entity.CategoryTerminal, entity.CategoryOf(err))
}
