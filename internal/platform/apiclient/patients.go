package apiclient

import (
	"context"
	"net/http"
	"net/url"
	"strconv"
)

const patientsPath = "/api/v1/patients/"

// PatientQuery filters the patient listing.
type PatientQuery struct {
	TenantID string
	Search   string
	Page     int
	PageSize int
}

// ListPatients fetches one page of patients.
func (c *Client) ListPatients(ctx context.Context, q PatientQuery) (*PatientPage, error) {
	v := url.Values{}
	v.Set("tenantId", q.TenantID)
	if q.Search != "" {
		v.Set("search", q.Search)
	}
	if q.Page > 0 {
		v.Set("page", strconv.Itoa(q.Page))
	}
	if q.PageSize > 0 {
		v.Set("page_size", strconv.Itoa(q.PageSize))
	}
	var out PatientPage
	if err := c.get(ctx, patientsPath, v, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// CountPatients returns the number of patients of a tenant.
func (c *Client) CountPatients(ctx context.Context, tenantID string) (int, error) {
	v := url.Values{}
	v.Set("tenantId", tenantID)
	var out struct {
		Count int `json:"count"`
		Total int `json:"total"`
	}
	if err := c.get(ctx, patientsPath+"count", v, &out); err != nil {
		return 0, err
	}
	if out.Count == 0 {
		return out.Total, nil
	}
	return out.Count, nil
}

// GetPatient fetches one patient.
func (c *Client) GetPatient(ctx context.Context, tenantID, id string) (*Patient, error) {
	v := url.Values{}
	v.Set("tenantId", tenantID)
	var out Patient
	if err := c.get(ctx, patientsPath+url.PathEscape(id), v, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// CreatePatient registers a patient.
func (c *Client) CreatePatient(ctx context.Context, in PatientCreate) (*Patient, error) {
	var out Patient
	if err := c.send(ctx, http.MethodPost, patientsPath, nil, in, &out); err != nil {
		return nil, err
	}
	return &out, nil
}
