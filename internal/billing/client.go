package billing

import (
	"context"
	"fmt"
	"net/url"
	"strings"

	"github.com/stwalsh4118/ptcalc/api/internal/client"
	"github.com/stwalsh4118/ptcalc/api/internal/models"
)

// Endpoints are the billing-service paths relative to the client's base URL.
type Endpoints struct {
	DemandSearch    string
	DemandCreate    string
	DemandUpdate    string
	TaxPeriodSearch string
}

// DefaultEndpoints returns the stock billing-service paths.
func DefaultEndpoints() Endpoints {
	return Endpoints{
		DemandSearch:    "/billing-service/demand/_search",
		DemandCreate:    "/billing-service/demand/_create",
		DemandUpdate:    "/billing-service/demand/_update",
		TaxPeriodSearch: "/billing-service/taxperiods/_search",
	}
}

type requestInfoWrapper struct {
	RequestInfo map[string]interface{} `json:"RequestInfo"`
}

type demandRequest struct {
	RequestInfo map[string]interface{} `json:"RequestInfo"`
	Demands     []models.Demand        `json:"Demands"`
}

type demandResponse struct {
	Demands []models.Demand `json:"Demands"`
}

type taxPeriodResponse struct {
	TaxPeriods []models.TaxPeriod `json:"TaxPeriods"`
}

// Client talks to the billing service.
type Client struct {
	http      *client.Client
	endpoints Endpoints
}

// NewClient creates a billing Client.
func NewClient(c *client.Client, endpoints Endpoints) *Client {
	return &Client{http: c, endpoints: endpoints}
}

// SearchDemands returns demands for the consumer codes under a business service.
func (c *Client) SearchDemands(ctx context.Context, tenantID, businessService string, consumerCodes []string) ([]models.Demand, error) {
	q := url.Values{}
	q.Set("tenantId", tenantID)
	q.Set("businessService", businessService)
	q.Set("consumerCode", strings.Join(consumerCodes, ","))

	var resp demandResponse
	if err := c.http.PostJSON(ctx, withQuery(c.endpoints.DemandSearch, q), requestInfoWrapper{RequestInfo: map[string]interface{}{}}, &resp, true); err != nil {
		return nil, fmt.Errorf("demand search for %s: %w", tenantID, err)
	}
	return resp.Demands, nil
}

// CreateDemands creates demands. It is not retried.
func (c *Client) CreateDemands(ctx context.Context, demands []models.Demand) ([]models.Demand, error) {
	var resp demandResponse
	if err := c.http.PostJSON(ctx, c.endpoints.DemandCreate, demandRequest{RequestInfo: map[string]interface{}{}, Demands: demands}, &resp, false); err != nil {
		return nil, fmt.Errorf("demand create: %w", err)
	}
	return resp.Demands, nil
}

// UpdateDemands updates demands. It is not retried.
func (c *Client) UpdateDemands(ctx context.Context, demands []models.Demand) ([]models.Demand, error) {
	var resp demandResponse
	if err := c.http.PostJSON(ctx, c.endpoints.DemandUpdate, demandRequest{RequestInfo: map[string]interface{}{}, Demands: demands}, &resp, false); err != nil {
		return nil, fmt.Errorf("demand update: %w", err)
	}
	return resp.Demands, nil
}

// SearchTaxPeriods returns the tax periods configured for a service.
func (c *Client) SearchTaxPeriods(ctx context.Context, tenantID, service string) ([]models.TaxPeriod, error) {
	q := url.Values{}
	q.Set("tenantId", tenantID)
	q.Set("service", service)

	var resp taxPeriodResponse
	if err := c.http.PostJSON(ctx, withQuery(c.endpoints.TaxPeriodSearch, q), requestInfoWrapper{RequestInfo: map[string]interface{}{}}, &resp, true); err != nil {
		return nil, fmt.Errorf("tax period search for %s: %w", tenantID, err)
	}
	return resp.TaxPeriods, nil
}

func withQuery(path string, q url.Values) string {
	return path + "?" + q.Encode()
}
