package lookup

import (
	"context"
	"strings"

	"github.com/alignwork/agenda/internal/platform/querycache"
)

// Service caches address lookups. Postal codes, states and cities do not
// change, so entries never go stale; failures are not cached.
type Service struct {
	viacep *ViaCEP
	ibge   *IBGE
	cache  *querycache.Cache
}

func NewService(viacep *ViaCEP, ibge *IBGE, cache *querycache.Cache) *Service {
	return &Service{viacep: viacep, ibge: ibge, cache: cache}
}

func (s *Service) Address(ctx context.Context, cep string) (*Address, error) {
	digits, err := NormalizeCEP(cep)
	if err != nil {
		return nil, err
	}
	return querycache.Fetch(ctx, s.cache, querycache.Key("cep", digits), querycache.Never,
		func(ctx context.Context) (*Address, error) { return s.viacep.Lookup(ctx, digits) })
}

func (s *Service) States(ctx context.Context) ([]State, error) {
	return querycache.Fetch(ctx, s.cache, "states", querycache.Never, s.ibge.States)
}

func (s *Service) Cities(ctx context.Context, uf string) ([]City, error) {
	uf = strings.ToUpper(strings.TrimSpace(uf))
	if len(uf) != 2 {
		return nil, ErrInvalidUF
	}
	return querycache.Fetch(ctx, s.cache, querycache.Key("cities", uf), querycache.Never,
		func(ctx context.Context) ([]City, error) { return s.ibge.Cities(ctx, uf) })
}
