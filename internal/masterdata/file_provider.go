package masterdata

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

// fixture is tenant -> module -> master -> records.
type fixture map[string]map[string]map[string][]interface{}

// FileProvider serves master data from a YAML fixture.
// Filters are not evaluated; the fixture is expected to hold already-filtered records.
type FileProvider struct {
	data fixture
}

// NewFileProvider loads the fixture at path.
func NewFileProvider(path string) (*FileProvider, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read master data fixture: %w", err)
	}
	return ParseFixture(raw)
}

// ParseFixture builds a FileProvider from YAML bytes.
func ParseFixture(raw []byte) (*FileProvider, error) {
	var doc struct {
		Tenants fixture `yaml:"tenants"`
	}
	if err := yaml.Unmarshal(raw, &doc); err != nil {
		return nil, fmt.Errorf("failed to parse master data fixture: %w", err)
	}
	return &FileProvider{data: doc.Tenants}, nil
}

// Lookup returns the fixture records for the tenant.
// Modules the city tenant does not define are served from its state tenant.
func (p *FileProvider) Lookup(_ context.Context, req Request) (Response, error) {
	masters, ok := p.data[req.TenantID][req.Module]
	if !ok {
		masters = p.data[stateTenant(req.TenantID)][req.Module]
	}

	resp := Response{}
	for _, name := range req.Masters {
		records, ok := masters[name]
		if !ok {
			continue
		}
		encoded := make([]json.RawMessage, 0, len(records))
		for _, record := range records {
			b, err := json.Marshal(jsonable(record))
			if err != nil {
				return nil, fmt.Errorf("failed to encode fixture record %s.%s: %w", req.Module, name, err)
			}
			encoded = append(encoded, b)
		}
		if resp[req.Module] == nil {
			resp[req.Module] = map[string][]json.RawMessage{}
		}
		resp[req.Module][name] = encoded
	}
	return resp, nil
}

// stateTenant returns the state-level part of a city tenant id ("up.agra" -> "up").
func stateTenant(tenantID string) string {
	if i := strings.Index(tenantID, "."); i > 0 {
		return tenantID[:i]
	}
	return tenantID
}

// jsonable converts YAML maps with non-string keys (unquoted road widths) into JSON-encodable maps.
func jsonable(v interface{}) interface{} {
	switch t := v.(type) {
	case map[string]interface{}:
		out := make(map[string]interface{}, len(t))
		for k, val := range t {
			out[k] = jsonable(val)
		}
		return out
	case map[interface{}]interface{}:
		out := make(map[string]interface{}, len(t))
		for k, val := range t {
			out[fmt.Sprint(k)] = jsonable(val)
		}
		return out
	case []interface{}:
		out := make([]interface{}, len(t))
		for i, val := range t {
			out[i] = jsonable(val)
		}
		return out
	default:
		return v
	}
}
