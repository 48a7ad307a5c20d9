package masterdata

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stwalsh4118/ptcalc/api/internal/client"
)

func TestHTTPProvider_Lookup(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/egov-mdms-service/v1/_search", r.URL.Path)

		var body mdmsCriteriaReq
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, "up", body.MdmsCriteria.TenantID)
		require.Len(t, body.MdmsCriteria.ModuleDetails, 1)
		assert.Equal(t, ModulePropertyTax, body.MdmsCriteria.ModuleDetails[0].ModuleName)
		require.Len(t, body.MdmsCriteria.ModuleDetails[0].MasterDetails, 1)
		assert.Equal(t, FilterCategory, body.MdmsCriteria.ModuleDetails[0].MasterDetails[0].Filter)

		_, _ = w.Write([]byte(`{"MdmsRes":{"PropertyTax":{"Categories":[{"code":"commercial","ratemultiplier":1.5}]}}}`))
	}))
	defer server.Close()

	provider := NewHTTPProvider(client.New(client.WithBaseURL(server.URL)), "/egov-mdms-service/v1/_search")

	resp, err := provider.Lookup(context.Background(), Request{
		TenantID: "up",
		Module:   ModulePropertyTax,
		Masters:  []string{MasterCategories},
		Filter:   FilterCategory,
	})

	require.NoError(t, err)
	records := resp.Records(ModulePropertyTax, MasterCategories)
	require.Len(t, records, 1)

	multipliers, err := DecodeCategories(records)
	require.NoError(t, err)
	assert.Equal(t, "1.5", multipliers["commercial"].String())
}

func TestHTTPProvider_LookupError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	defer server.Close()

	provider := NewHTTPProvider(client.New(client.WithBaseURL(server.URL)), "/search")

	_, err := provider.Lookup(context.Background(), Request{TenantID: "up", Module: ModulePropertyTax})

	var httpErr *client.HTTPError
	assert.ErrorAs(t, err, &httpErr)
}

func TestFileProvider_StateFallback(t *testing.T) {
	provider, err := ParseFixture([]byte(`
tenants:
  up:
    PropertyTax:
      Categories:
        - code: commercial
          ratemultiplier: 1.5
`))
	require.NoError(t, err)

	resp, err := provider.Lookup(context.Background(), Request{
		TenantID: "up.agra",
		Module:   ModulePropertyTax,
		Masters:  []string{MasterCategories, MasterRebate},
	})

	require.NoError(t, err)
	assert.Len(t, resp.Records(ModulePropertyTax, MasterCategories), 1)
	assert.Nil(t, resp.Records(ModulePropertyTax, MasterRebate))
}

func TestFileProvider_MissingFile(t *testing.T) {
	_, err := NewFileProvider("testdata/does-not-exist.yaml")

	assert.Error(t, err)
}
