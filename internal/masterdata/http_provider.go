package masterdata

import (
	"context"
	"fmt"

	"github.com/stwalsh4118/ptcalc/api/internal/client"
)

type masterDetail struct {
	Name   string `json:"name"`
	Filter string `json:"filter,omitempty"`
}

type moduleDetail struct {
	ModuleName    string         `json:"moduleName"`
	MasterDetails []masterDetail `json:"masterDetails"`
}

type mdmsCriteria struct {
	TenantID      string         `json:"tenantId"`
	ModuleDetails []moduleDetail `json:"moduleDetails"`
}

type mdmsCriteriaReq struct {
	RequestInfo  map[string]interface{} `json:"RequestInfo"`
	MdmsCriteria mdmsCriteria           `json:"MdmsCriteria"`
}

type mdmsResponse struct {
	MdmsRes Response `json:"MdmsRes"`
}

// HTTPProvider looks up master data from the remote master-data service.
type HTTPProvider struct {
	client   *client.Client
	endpoint string
}

// NewHTTPProvider creates an HTTPProvider posting to endpoint on c's base URL.
func NewHTTPProvider(c *client.Client, endpoint string) *HTTPProvider {
	return &HTTPProvider{client: c, endpoint: endpoint}
}

// Lookup posts a search request. Lookups are idempotent and retried.
func (p *HTTPProvider) Lookup(ctx context.Context, req Request) (Response, error) {
	details := make([]masterDetail, 0, len(req.Masters))
	for _, name := range req.Masters {
		details = append(details, masterDetail{Name: name, Filter: req.Filter})
	}

	body := mdmsCriteriaReq{
		RequestInfo: map[string]interface{}{},
		MdmsCriteria: mdmsCriteria{
			TenantID:      req.TenantID,
			ModuleDetails: []moduleDetail{{ModuleName: req.Module, MasterDetails: details}},
		},
	}

	var resp mdmsResponse
	if err := p.client.PostJSON(ctx, p.endpoint, body, &resp, true); err != nil {
		return nil, fmt.Errorf("master data lookup %s for %s: %w", req.Module, req.TenantID, err)
	}
	return resp.MdmsRes, nil
}
