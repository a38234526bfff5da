package agenda

import (
	"sort"
	"strings"
	"unicode/utf8"
)

const (
	MinDurationMin     = 15
	MaxDurationMin     = 480
	DefaultDurationMin = 60
)

// ValidationError collects field problems found before any backend call.
type ValidationError struct {
	Fields map[string]string `json:"fields"`
}

func (e *ValidationError) Error() string {
	keys := make([]string, 0, len(e.Fields))
	for k := range e.Fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, k+": "+e.Fields[k])
	}
	return "validation failed: " + strings.Join(parts, "; ")
}

// FieldErrors exposes the field messages to the HTTP layer.
func (e *ValidationError) FieldErrors() map[string]string { return e.Fields }

func (e *ValidationError) add(field, msg string) {
	if e.Fields == nil {
		e.Fields = make(map[string]string)
	}
	if _, ok := e.Fields[field]; !ok {
		e.Fields[field] = msg
	}
}

func (e *ValidationError) orNil() error {
	if len(e.Fields) == 0 {
		return nil
	}
	return e
}

// PatientInput is the registration form.
type PatientInput struct {
	Name    string `json:"name"`
	CPF     string `json:"cpf"`
	Phone   string `json:"phone"`
	Email   string `json:"email"`
	Address string `json:"address"`
	Notes   string `json:"notes"`
}

// Validate checks the form and returns the normalised patient. The CPF is
// reduced to its digits.
func (in PatientInput) Validate() (*Patient, error) {
	var verr ValidationError
	name := strings.TrimSpace(in.Name)
	switch n := utf8.RuneCountInString(name); {
	case n == 0:
		verr.add("name", "Nome é obrigatório")
	case n < 3:
		verr.add("name", "Nome deve ter pelo menos 3 caracteres")
	case n > 200:
		verr.add("name", "Nome não pode exceder 200 caracteres")
	}

	cpf := digits(in.CPF)
	switch {
	case cpf == "":
		verr.add("cpf", "CPF é obrigatório")
	case len(cpf) != 11:
		verr.add("cpf", "CPF deve ter 11 dígitos")
	case cpf == strings.Repeat(cpf[:1], 11):
		verr.add("cpf", "CPF inválido")
	}

	phone := strings.TrimSpace(in.Phone)
	if phone == "" {
		verr.add("phone", "Telefone é obrigatório")
	} else if len(digits(phone)) < 10 {
		verr.add("phone", "Telefone deve ter pelo menos 10 dígitos")
	}

	email := strings.TrimSpace(in.Email)
	if email != "" && !strings.Contains(email, "@") {
		verr.add("email", "Email inválido")
	}

	address := strings.TrimSpace(in.Address)
	if address == "" {
		verr.add("address", "Endereço é obrigatório")
	} else if utf8.RuneCountInString(address) < 5 {
		verr.add("address", "Endereço deve ter pelo menos 5 caracteres")
	}

	if err := verr.orNil(); err != nil {
		return nil, err
	}
	return &Patient{
		Name:    name,
		CPF:     cpf,
		Phone:   phone,
		Email:   email,
		Address: address,
		Notes:   strings.TrimSpace(in.Notes),
	}, nil
}
