package apiclient

import (
	"context"
	"net/http"
	"net/url"
)

const consultoriosPath = "/api/v1/consultorios/"

func tenantQuery(tenantID string) url.Values {
	v := url.Values{}
	v.Set("tenant_id", tenantID)
	return v
}

// ListConsultorios returns every clinic location of a tenant.
func (c *Client) ListConsultorios(ctx context.Context, tenantID string) ([]Consultorio, error) {
	var out []Consultorio
	if err := c.get(ctx, consultoriosPath, tenantQuery(tenantID), &out); err != nil {
		return nil, err
	}
	return out, nil
}

// GetConsultorio fetches one location.
func (c *Client) GetConsultorio(ctx context.Context, tenantID, id string) (*Consultorio, error) {
	var out Consultorio
	if err := c.get(ctx, consultoriosPath+url.PathEscape(id), tenantQuery(tenantID), &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// CreateConsultorio stores a new location.
func (c *Client) CreateConsultorio(ctx context.Context, in Consultorio) (*Consultorio, error) {
	var out Consultorio
	if err := c.send(ctx, http.MethodPost, consultoriosPath, nil, in, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// UpdateConsultorio replaces a location.
func (c *Client) UpdateConsultorio(ctx context.Context, tenantID, id string, in Consultorio) (*Consultorio, error) {
	var out Consultorio
	if err := c.send(ctx, http.MethodPut, consultoriosPath+url.PathEscape(id), tenantQuery(tenantID), in, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// DeleteConsultorio removes a location.
func (c *Client) DeleteConsultorio(ctx context.Context, tenantID, id string) error {
	return c.send(ctx, http.MethodDelete, consultoriosPath+url.PathEscape(id), tenantQuery(tenantID), nil, nil)
}
