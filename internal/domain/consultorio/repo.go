package consultorio

import (
	"context"
	"time"

	"github.com/alignwork/agenda/internal/platform/apiclient"
	"github.com/alignwork/agenda/internal/platform/tz"
)

// Repository stores consultorios. The backend is the only implementation
// outside tests.
type Repository interface {
	List(ctx context.Context, tenant string) ([]*Consultorio, error)
	Get(ctx context.Context, tenant, id string) (*Consultorio, error)
	Create(ctx context.Context, c *Consultorio) (*Consultorio, error)
	Update(ctx context.Context, c *Consultorio) (*Consultorio, error)
	Delete(ctx context.Context, tenant, id string) error
}

type remoteRepo struct {
	client *apiclient.Client
}

func NewRemoteRepo(client *apiclient.Client) Repository {
	return &remoteRepo{client: client}
}

func (r *remoteRepo) List(ctx context.Context, tenant string) ([]*Consultorio, error) {
	items, err := r.client.ListConsultorios(ctx, tenant)
	if err != nil {
		return nil, err
	}
	out := make([]*Consultorio, 0, len(items))
	for i := range items {
		out = append(out, fromWire(&items[i]))
	}
	return out, nil
}

func (r *remoteRepo) Get(ctx context.Context, tenant, id string) (*Consultorio, error) {
	w, err := r.client.GetConsultorio(ctx, tenant, id)
	if err != nil {
		return nil, notFound(err)
	}
	return fromWire(w), nil
}

func (r *remoteRepo) Create(ctx context.Context, c *Consultorio) (*Consultorio, error) {
	w, err := r.client.CreateConsultorio(ctx, toWire(c))
	if err != nil {
		return nil, err
	}
	return fromWire(w), nil
}

func (r *remoteRepo) Update(ctx context.Context, c *Consultorio) (*Consultorio, error) {
	w, err := r.client.UpdateConsultorio(ctx, c.TenantID, c.ID, toWire(c))
	if err != nil {
		return nil, notFound(err)
	}
	return fromWire(w), nil
}

func (r *remoteRepo) Delete(ctx context.Context, tenant, id string) error {
	return notFound(r.client.DeleteConsultorio(ctx, tenant, id))
}

func notFound(err error) error {
	if apiclient.IsNotFound(err) {
		return ErrNotFound
	}
	return err
}

func toWire(c *Consultorio) apiclient.Consultorio {
	return apiclient.Consultorio{
		TenantID:              c.TenantID,
		Nome:                  c.Nome,
		Estado:                c.Estado,
		Cidade:                c.Cidade,
		CEP:                   c.CEP,
		Rua:                   c.Rua,
		Numero:                c.Numero,
		Bairro:                c.Bairro,
		InformacoesAdicionais: c.InformacoesAdicionais,
	}
}

func fromWire(w *apiclient.Consultorio) *Consultorio {
	return &Consultorio{
		ID:                    w.ID.String(),
		TenantID:              w.TenantID,
		Nome:                  w.Nome,
		Estado:                w.Estado,
		Cidade:                w.Cidade,
		CEP:                   w.CEP,
		Rua:                   w.Rua,
		Numero:                w.Numero,
		Bairro:                w.Bairro,
		InformacoesAdicionais: w.InformacoesAdicionais,
		CreatedAt:             parseTime(w.CreatedAt),
		UpdatedAt:             parseTime(w.UpdatedAt),
	}
}

func parseTime(s string) time.Time {
	if s == "" {
		return time.Time{}
	}
	t, err := tz.ParseInstant(s)
	if err != nil {
		return time.Time{}
	}
	return t
}
