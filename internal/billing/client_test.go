package billing

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stwalsh4118/ptcalc/api/internal/client"
	"github.com/stwalsh4118/ptcalc/api/internal/models"
)

func newTestClient(url string) *Client {
	retry := client.DefaultRetryConfig()
	retry.InitialInterval = time.Millisecond
	retry.MaxInterval = time.Millisecond
	return NewClient(client.New(client.WithBaseURL(url), client.WithRetryConfig(retry)), DefaultEndpoints())
}

func TestClient_SearchDemands(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/billing-service/demand/_search", r.URL.Path)
		assert.Equal(t, "up.agra", r.URL.Query().Get("tenantId"))
		assert.Equal(t, "PT.MUTATION", r.URL.Query().Get("businessService"))
		assert.Equal(t, "ACK-1,ACK-2", r.URL.Query().Get("consumerCode"))

		_, _ = w.Write([]byte(`{"Demands":[{"id":"d1","tenantId":"up.agra","consumerCode":"ACK-1","businessService":"PT.MUTATION",
			"taxPeriodFrom":1,"taxPeriodTo":2,"minimumAmountPayable":0,
			"demandDetails":[{"taxHeadMasterCode":"PT_MUTATION_FEE","taxAmount":1000,"collectionAmount":250}]}]}`))
	}))
	defer server.Close()

	demands, err := newTestClient(server.URL).SearchDemands(context.Background(), "up.agra", "PT.MUTATION", []string{"ACK-1", "ACK-2"})

	require.NoError(t, err)
	require.Len(t, demands, 1)
	assert.Equal(t, "d1", demands[0].ID)
	assert.True(t, demands[0].Collected().Equal(decimal.NewFromInt(250)))
}

func TestClient_SearchRetries(t *testing.T) {
	var calls int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if atomic.AddInt32(&calls, 1) == 1 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		_, _ = w.Write([]byte(`{"TaxPeriods":[{"fromDate":100,"toDate":200,"financialYear":"2024-25","service":"PT.MUTATION"}]}`))
	}))
	defer server.Close()

	periods, err := newTestClient(server.URL).SearchTaxPeriods(context.Background(), "up.agra", "PT.MUTATION")

	require.NoError(t, err)
	require.Len(t, periods, 1)
	assert.True(t, periods[0].Contains(150))
	assert.Equal(t, int32(2), atomic.LoadInt32(&calls))
}

func TestClient_CreateDemandsIsSingleShot(t *testing.T) {
	var calls int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer server.Close()

	_, err := newTestClient(server.URL).CreateDemands(context.Background(), []models.Demand{{ConsumerCode: "ACK-1"}})

	assert.Error(t, err)
	assert.Equal(t, int32(1), atomic.LoadInt32(&calls))
}

func TestClient_UpdateDemands(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/billing-service/demand/_update", r.URL.Path)

		var body demandRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		require.Len(t, body.Demands, 1)
		assert.Equal(t, "ACK-1", body.Demands[0].ConsumerCode)

		_ = json.NewEncoder(w).Encode(demandResponse{Demands: body.Demands})
	}))
	defer server.Close()

	updated, err := newTestClient(server.URL).UpdateDemands(context.Background(), []models.Demand{{ID: "d1", ConsumerCode: "ACK-1"}})

	require.NoError(t, err)
	require.Len(t, updated, 1)
	assert.Equal(t, "d1", updated[0].ID)
}
