package consultorio

import (
	"errors"
	"sort"
	"strconv"
	"strings"
	"time"
	"unicode/utf8"
)

var ErrNotFound = errors.New("consultório não encontrado")

// UFs are the Brazilian federative units.
var UFs = map[string]bool{
	"AC": true, "AL": true, "AP": true, "AM": true, "BA": true, "CE": true, "DF": true,
	"ES": true, "GO": true, "MA": true, "MT": true, "MS": true, "MG": true, "PA": true,
	"PB": true, "PR": true, "PE": true, "PI": true, "RJ": true, "RN": true, "RS": true,
	"RO": true, "RR": true, "SC": true, "SP": true, "SE": true, "TO": true,
}

// Consultorio is a clinic location.
type Consultorio struct {
	ID                    string    `json:"id"`
	TenantID              string    `json:"tenant_id"`
	Nome                  string    `json:"nome"`
	Estado                string    `json:"estado"`
	Cidade                string    `json:"cidade"`
	CEP                   string    `json:"cep"`
	Rua                   string    `json:"rua"`
	Numero                string    `json:"numero"`
	Bairro                string    `json:"bairro"`
	InformacoesAdicionais string    `json:"informacoes_adicionais,omitempty"`
	CreatedAt             time.Time `json:"created_at,omitempty"`
	UpdatedAt             time.Time `json:"updated_at,omitempty"`
}

// Input is the create/edit form.
type Input struct {
	Nome                  string `json:"nome"`
	Estado                string `json:"estado"`
	Cidade                string `json:"cidade"`
	CEP                   string `json:"cep"`
	Rua                   string `json:"rua"`
	Numero                string `json:"numero"`
	Bairro                string `json:"bairro"`
	InformacoesAdicionais string `json:"informacoes_adicionais"`
}

type ValidationError struct {
	Fields map[string]string `json:"fields"`
}

func (e *ValidationError) Error() string {
	keys := make([]string, 0, len(e.Fields))
	for k := range e.Fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return "invalid consultorio: " + strings.Join(keys, ", ")
}

func (e *ValidationError) FieldErrors() map[string]string { return e.Fields }

// FormatCEP renders 8 digits as 00000-000. ok is false for anything else.
func FormatCEP(cep string) (string, bool) {
	var d strings.Builder
	for _, r := range cep {
		if r >= '0' && r <= '9' {
			d.WriteRune(r)
		} else if r != '-' && r != '.' && r != ' ' {
			return "", false
		}
	}
	s := d.String()
	if len(s) != 8 {
		return "", false
	}
	return s[:5] + "-" + s[5:], true
}

// Validate trims the form, checks every field and returns the normalised
// consultorio with the CEP formatted and the UF upper-cased.
func (in Input) Validate() (*Consultorio, error) {
	fields := map[string]string{}
	length := func(field, value string, min, max int, label string) string {
		v := strings.TrimSpace(value)
		n := utf8.RuneCountInString(v)
		switch {
		case n < min:
			fields[field] = label + " deve ter pelo menos " + strconv.Itoa(min) + " caracteres"
		case n > max:
			fields[field] = label + " não pode exceder " + strconv.Itoa(max) + " caracteres"
		}
		return v
	}

	out := &Consultorio{
		Nome:                  length("nome", in.Nome, 3, 200, "Nome"),
		Cidade:                length("cidade", in.Cidade, 2, 200, "Cidade"),
		Rua:                   length("rua", in.Rua, 3, 200, "Rua"),
		Numero:                length("numero", in.Numero, 1, 20, "Número"),
		Bairro:                length("bairro", in.Bairro, 2, 200, "Bairro"),
		InformacoesAdicionais: length("informacoes_adicionais", in.InformacoesAdicionais, 0, 500, "Informações adicionais"),
	}

	out.Estado = strings.ToUpper(strings.TrimSpace(in.Estado))
	if !UFs[out.Estado] {
		fields["estado"] = "Selecione um estado válido"
	}

	cep, ok := FormatCEP(strings.TrimSpace(in.CEP))
	if !ok {
		fields["cep"] = "CEP inválido"
	}
	out.CEP = cep

	if len(fields) > 0 {
		return nil, &ValidationError{Fields: fields}
	}
	return out, nil
}
