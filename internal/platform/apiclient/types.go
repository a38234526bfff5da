package apiclient

import (
	"bytes"
	"encoding/json"
	"strconv"
)

// ID is a backend identifier. The backend emits integers; strings are
// accepted too so callers can treat every id as text.
type ID string

func (id *ID) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if len(b) > 0 && b[0] == '"' {
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		*id = ID(s)
		return nil
	}
	if string(b) == "null" {
		*id = ""
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(b, &n); err != nil {
		return err
	}
	*id = ID(n.String())
	return nil
}

func (id ID) MarshalJSON() ([]byte, error) {
	if _, err := strconv.ParseInt(string(id), 10, 64); err == nil {
		return []byte(id), nil
	}
	return json.Marshal(string(id))
}

func (id ID) String() string { return string(id) }

// Appointment is the backend's appointment row. StartsAt is UTC, usually
// without an offset.
type Appointment struct {
	ID          ID     `json:"id"`
	TenantID    string `json:"tenant_id"`
	PatientID   string `json:"patient_id"`
	StartsAt    string `json:"starts_at"`
	DurationMin int    `json:"duration_min"`
	Status      string `json:"status"`
	CreatedAt   string `json:"created_at,omitempty"`
	UpdatedAt   string `json:"updated_at,omitempty"`
}

// AppointmentCreate is the create payload. StartsAt is the UTC wire string.
type AppointmentCreate struct {
	TenantID    string `json:"tenantId"`
	PatientID   string `json:"patientId"`
	StartsAt    string `json:"startsAt"`
	DurationMin int    `json:"durationMin"`
	Status      string `json:"status,omitempty"`
}

// Counts mirrors one bucket of the stats endpoints.
type Counts struct {
	Total     int `json:"total"`
	Confirmed int `json:"confirmed"`
	Pending   int `json:"pending"`
}

// Summary is the today/tomorrow aggregate.
type Summary struct {
	Today    Counts `json:"today"`
	Tomorrow Counts `json:"tomorrow"`
}

// MegaStats is the four-period aggregate.
type MegaStats struct {
	Today     Counts `json:"today"`
	Week      Counts `json:"week"`
	Month     Counts `json:"month"`
	NextMonth Counts `json:"nextMonth"`
}

// Patient is the backend patient row.
type Patient struct {
	ID        ID     `json:"id"`
	TenantID  string `json:"tenant_id"`
	Name      string `json:"name"`
	CPF       string `json:"cpf"`
	Phone     string `json:"phone"`
	Email     string `json:"email,omitempty"`
	Address   string `json:"address"`
	Notes     string `json:"notes,omitempty"`
	CreatedAt string `json:"created_at,omitempty"`
	UpdatedAt string `json:"updated_at,omitempty"`
}

// PatientCreate is the create payload.
type PatientCreate struct {
	TenantID string `json:"tenant_id"`
	Name     string `json:"name"`
	CPF      string `json:"cpf"`
	Phone    string `json:"phone"`
	Email    string `json:"email,omitempty"`
	Address  string `json:"address"`
	Notes    string `json:"notes,omitempty"`
}

// PatientPage is one page of the patient listing.
type PatientPage struct {
	Data       []Patient `json:"data"`
	Total      int       `json:"total"`
	Page       int       `json:"page"`
	PageSize   int       `json:"page_size"`
	TotalPages int       `json:"total_pages"`
}

// Consultorio is a clinic location as stored by the backend.
type Consultorio struct {
	ID                    ID     `json:"id,omitempty"`
	TenantID              string `json:"tenant_id"`
	Nome                  string `json:"nome"`
	Estado                string `json:"estado"`
	Cidade                string `json:"cidade"`
	CEP                   string `json:"cep"`
	Rua                   string `json:"rua"`
	Numero                string `json:"numero"`
	Bairro                string `json:"bairro"`
	InformacoesAdicionais string `json:"informacoes_adicionais,omitempty"`
	CreatedAt             string `json:"created_at,omitempty"`
	UpdatedAt             string `json:"updated_at,omitempty"`
}

// User is the logged-in professional.
type User struct {
	ID                ID     `json:"id"`
	Email             string `json:"email"`
	FullName          string `json:"full_name,omitempty"`
	FirstName         string `json:"first_name,omitempty"`
	LastName          string `json:"last_name,omitempty"`
	PhonePersonal     string `json:"phone_personal,omitempty"`
	PhoneProfessional string `json:"phone_professional,omitempty"`
	PhoneClinic       string `json:"phone_clinic,omitempty"`
	ProfilePhotoURL   string `json:"profile_photo_url,omitempty"`
	IsActive          bool   `json:"is_active"`
	IsVerified        bool   `json:"is_verified"`
	CreatedAt         string `json:"created_at,omitempty"`
	UpdatedAt         string `json:"updated_at,omitempty"`
}

// ProfileUpdate carries only the fields being changed.
type ProfileUpdate struct {
	FirstName         *string `json:"first_name,omitempty"`
	LastName          *string `json:"last_name,omitempty"`
	Email             *string `json:"email,omitempty"`
	PhonePersonal     *string `json:"phone_personal,omitempty"`
	PhoneProfessional *string `json:"phone_professional,omitempty"`
	PhoneClinic       *string `json:"phone_clinic,omitempty"`
}

// Credentials log a user in.
type Credentials struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// Registration creates an account.
type Registration struct {
	Email    string `json:"email"`
	Password string `json:"password"`
	FullName string `json:"full_name"`
}

// Token is the auth response body. The same values are set as cookies.
type Token struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
	TokenType    string `json:"token_type"`
}
