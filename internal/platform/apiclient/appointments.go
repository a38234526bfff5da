package apiclient

import (
	"context"
	"net/http"
	"net/url"
	"strconv"
	"time"
)

const (
	appointmentsPath = "/api/v1/appointments/"

	// DefaultPageSize and MaxPageSize follow the backend's paging limits.
	DefaultPageSize = 50
	MaxPageSize     = 100
)

// AppointmentQuery filters the appointment listing. From/To form a
// half-open UTC range.
type AppointmentQuery struct {
	TenantID string
	From     time.Time
	To       time.Time
	Page     int
	PageSize int
}

func (q AppointmentQuery) values() url.Values {
	v := url.Values{}
	v.Set("tenantId", q.TenantID)
	if !q.From.IsZero() {
		v.Set("from", q.From.UTC().Format(time.RFC3339))
	}
	if !q.To.IsZero() {
		v.Set("to", q.To.UTC().Format(time.RFC3339))
	}
	if q.Page > 0 {
		v.Set("page", strconv.Itoa(q.Page))
	}
	if q.PageSize > 0 {
		v.Set("page_size", strconv.Itoa(q.PageSize))
	}
	return v
}

// ListAppointments fetches one page.
func (c *Client) ListAppointments(ctx context.Context, q AppointmentQuery) ([]Appointment, error) {
	var out []Appointment
	if err := c.get(ctx, appointmentsPath, q.values(), &out); err != nil {
		return nil, err
	}
	return out, nil
}

// ListAllAppointments walks the pages until a short page arrives. A page
// that brings nothing new also stops the walk, for backends that ignore
// paging parameters.
func (c *Client) ListAllAppointments(ctx context.Context, q AppointmentQuery) ([]Appointment, error) {
	if q.PageSize <= 0 || q.PageSize > MaxPageSize {
		q.PageSize = MaxPageSize
	}
	seen := make(map[ID]struct{})
	var all []Appointment
	for page := 1; ; page++ {
		q.Page = page
		batch, err := c.ListAppointments(ctx, q)
		if err != nil {
			return nil, err
		}
		added := 0
		for _, a := range batch {
			if _, dup := seen[a.ID]; dup {
				continue
			}
			seen[a.ID] = struct{}{}
			all = append(all, a)
			added++
		}
		if len(batch) < q.PageSize || added == 0 {
			return all, nil
		}
	}
}

// CreateAppointment posts a new appointment.
func (c *Client) CreateAppointment(ctx context.Context, in AppointmentCreate) (*Appointment, error) {
	var out Appointment
	if err := c.send(ctx, http.MethodPost, appointmentsPath, nil, in, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// UpdateAppointmentStatus patches the status of one appointment.
func (c *Client) UpdateAppointmentStatus(ctx context.Context, id, status string) (*Appointment, error) {
	var out Appointment
	body := map[string]string{"status": status}
	if err := c.send(ctx, http.MethodPatch, appointmentsPath+url.PathEscape(id), nil, body, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// AppointmentSummary fetches today/tomorrow counts for the range.
func (c *Client) AppointmentSummary(ctx context.Context, tenantID string, from, to time.Time, zone string) (*Summary, error) {
	v := url.Values{}
	v.Set("tenantId", tenantID)
	v.Set("from", from.UTC().Format(time.RFC3339))
	v.Set("to", to.UTC().Format(time.RFC3339))
	v.Set("tz", zone)
	var out Summary
	if err := c.get(ctx, appointmentsPath+"summary", v, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// AppointmentMegaStats fetches the today/week/month/next-month counts.
func (c *Client) AppointmentMegaStats(ctx context.Context, tenantID, zone string) (*MegaStats, error) {
	v := url.Values{}
	v.Set("tenantId", tenantID)
	v.Set("tz", zone)
	var out MegaStats
	if err := c.get(ctx, appointmentsPath+"mega-stats", v, &out); err != nil {
		return nil, err
	}
	return &out, nil
}
