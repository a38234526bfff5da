package account

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/mail"
	"path/filepath"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/rs/zerolog"

	"github.com/alignwork/agenda/internal/platform/apiclient"
	"github.com/alignwork/agenda/internal/platform/middleware"
	"github.com/alignwork/agenda/internal/platform/querycache"
	"github.com/alignwork/agenda/internal/platform/settings"
)

const (
	MaxPhotoBytes     = 5 << 20
	profileStaleTime  = 5 * time.Minute
	minPasswordLength = 8
)

var (
	ErrPhotoType     = errors.New("foto deve ser JPG ou PNG")
	ErrPhotoTooLarge = errors.New("foto deve ter no máximo 5 MB")
	ErrInvalidTenant = errors.New("identificador de clínica inválido")
)

var photoExtensions = map[string]bool{".jpg": true, ".jpeg": true, ".png": true}

// Backend is the part of the backend client this package needs.
type Backend interface {
	Login(ctx context.Context, creds apiclient.Credentials) (*apiclient.Token, error)
	Register(ctx context.Context, reg apiclient.Registration) (*apiclient.Token, error)
	Logout(ctx context.Context) error
	Me(ctx context.Context) (*apiclient.User, error)
	Session() apiclient.SessionInfo
	Profile(ctx context.Context) (*apiclient.User, error)
	UpdateProfile(ctx context.Context, in apiclient.ProfileUpdate) (*apiclient.User, error)
	UploadProfilePhoto(ctx context.Context, filename string, content io.Reader) (*apiclient.User, error)
	DeleteProfilePhoto(ctx context.Context) (*apiclient.User, error)
}

// ValidationError maps form fields to messages.
type ValidationError struct {
	Fields map[string]string `json:"fields"`
}

func (e *ValidationError) Error() string {
	parts := make([]string, 0, len(e.Fields))
	for k, v := range e.Fields {
		parts = append(parts, k+": "+v)
	}
	return "invalid account data: " + strings.Join(parts, "; ")
}

func (e *ValidationError) FieldErrors() map[string]string { return e.Fields }

// Service handles the session, the profile and the local preferences.
type Service struct {
	backend Backend
	state   *settings.Store
	cache   *querycache.Cache
	logger  zerolog.Logger
}

func NewService(backend Backend, state *settings.Store, cache *querycache.Cache, logger zerolog.Logger) *Service {
	return &Service{
		backend: backend,
		state:   state,
		cache:   cache,
		logger:  logger.With().Str("component", "account").Logger(),
	}
}

const profileKey = "profile"

func validEmail(s string) bool {
	_, err := mail.ParseAddress(s)
	return err == nil
}

// Login authenticates and returns the user.
func (s *Service) Login(ctx context.Context, creds apiclient.Credentials) (*apiclient.User, error) {
	creds.Email = strings.TrimSpace(creds.Email)
	fields := map[string]string{}
	if !validEmail(creds.Email) {
		fields["email"] = "Email inválido"
	}
	if creds.Password == "" {
		fields["password"] = "Senha é obrigatória"
	}
	if len(fields) > 0 {
		return nil, &ValidationError{Fields: fields}
	}

	if _, err := s.backend.Login(ctx, creds); err != nil {
		return nil, fmt.Errorf("logging in: %w", err)
	}
	s.cache.Remove(profileKey)
	s.logger.Info().Str("email", creds.Email).Msg("logged in")
	return s.backend.Me(ctx)
}

// Register creates the account, opens a session and returns the user.
func (s *Service) Register(ctx context.Context, reg apiclient.Registration) (*apiclient.User, error) {
	reg.Email = strings.TrimSpace(reg.Email)
	reg.FullName = strings.TrimSpace(reg.FullName)
	fields := map[string]string{}
	if !validEmail(reg.Email) {
		fields["email"] = "Email inválido"
	}
	if utf8.RuneCountInString(reg.Password) < minPasswordLength {
		fields["password"] = fmt.Sprintf("Senha deve ter pelo menos %d caracteres", minPasswordLength)
	}
	if reg.FullName == "" {
		fields["full_name"] = "Nome é obrigatório"
	}
	if len(fields) > 0 {
		return nil, &ValidationError{Fields: fields}
	}

	if _, err := s.backend.Register(ctx, reg); err != nil {
		return nil, fmt.Errorf("registering: %w", err)
	}
	return s.Login(ctx, apiclient.Credentials{Email: reg.Email, Password: reg.Password})
}

// Logout ends the session. Local state is cleared even if the backend call
// fails.
func (s *Service) Logout(ctx context.Context) error {
	err := s.backend.Logout(ctx)
	s.cache.Remove(profileKey)
	if err != nil {
		s.logger.Warn().Err(err).Msg("backend logout failed")
	}
	return err
}

// Me returns the authenticated user and the session state.
func (s *Service) Me(ctx context.Context) (*apiclient.User, apiclient.SessionInfo, error) {
	u, err := s.backend.Me(ctx)
	if err != nil {
		return nil, apiclient.SessionInfo{}, err
	}
	return u, s.backend.Session(), nil
}

func (s *Service) Profile(ctx context.Context) (*apiclient.User, error) {
	return querycache.Fetch(ctx, s.cache, profileKey, profileStaleTime, s.backend.Profile)
}

func (s *Service) UpdateProfile(ctx context.Context, in apiclient.ProfileUpdate) (*apiclient.User, error) {
	if in.Email != nil && !validEmail(strings.TrimSpace(*in.Email)) {
		return nil, &ValidationError{Fields: map[string]string{"email": "Email inválido"}}
	}
	u, err := s.backend.UpdateProfile(ctx, in)
	if err != nil {
		return nil, fmt.Errorf("updating profile: %w", err)
	}
	s.cache.Remove(profileKey)
	return u, nil
}

// CheckPhoto validates a photo before anything is uploaded.
func CheckPhoto(filename string, size int64) error {
	if !photoExtensions[strings.ToLower(filepath.Ext(filename))] {
		return ErrPhotoType
	}
	if size > MaxPhotoBytes {
		return ErrPhotoTooLarge
	}
	return nil
}

func (s *Service) UploadPhoto(ctx context.Context, filename string, size int64, content io.Reader) (*apiclient.User, error) {
	if err := CheckPhoto(filename, size); err != nil {
		return nil, err
	}
	u, err := s.backend.UploadProfilePhoto(ctx, filepath.Base(filename), io.LimitReader(content, MaxPhotoBytes+1))
	if err != nil {
		return nil, fmt.Errorf("uploading photo: %w", err)
	}
	s.cache.Remove(profileKey)
	return u, nil
}

func (s *Service) DeletePhoto(ctx context.Context) (*apiclient.User, error) {
	u, err := s.backend.DeleteProfilePhoto(ctx)
	if err != nil {
		return nil, fmt.Errorf("deleting photo: %w", err)
	}
	s.cache.Remove(profileKey)
	return u, nil
}

func (s *Service) Settings() settings.Settings { return s.state.Settings() }

func (s *Service) SaveSettings(v settings.Settings) (settings.Settings, error) {
	if err := s.state.SaveSettings(v); err != nil {
		if errors.Is(err, settings.ErrInvalidTheme) {
			return settings.Settings{}, &ValidationError{Fields: map[string]string{"theme": "Tema inválido"}}
		}
		return settings.Settings{}, err
	}
	return s.state.Settings(), nil
}

func (s *Service) Tenant() string { return s.state.Tenant() }

// SetTenant persists the selected tenant. Empty resets to the default.
func (s *Service) SetTenant(id string) (string, error) {
	id = strings.TrimSpace(id)
	if id != "" && !middleware.ValidTenant(id) {
		return "", ErrInvalidTenant
	}
	if err := s.state.SetTenant(id); err != nil {
		return "", err
	}
	tenant := s.state.Tenant()
	s.logger.Info().Str("tenant", tenant).Msg("tenant selected")
	return tenant, nil
}
