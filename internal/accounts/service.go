package accounts

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/retailgenie/orchestrator/pkg/auth"
	"github.com/retailgenie/orchestrator/pkg/config"
	pkgerrors "github.com/retailgenie/orchestrator/pkg/errors"
	"github.com/retailgenie/orchestrator/pkg/logger"
	"github.com/retailgenie/orchestrator/pkg/security"
	"github.com/retailgenie/orchestrator/pkg/types"
)

const invalidCredentialsMessage = "invalid email or password"

// RegisterInput creates a new customer account.
type RegisterInput struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=8"`
	Name     string `json:"name" validate:"required,min=1,max=120"`
}

// LoginInput authenticates an existing customer.
type LoginInput struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

// UpdateProfileInput patches mutable profile fields.
type UpdateProfileInput struct {
	Name *string `json:"name" validate:"omitempty,min=1,max=120"`
}

// AddressInput creates or replaces a saved address.
type AddressInput struct {
	Street     string   `json:"street" validate:"required"`
	City       string   `json:"city" validate:"required"`
	State      string   `json:"state" validate:"required"`
	PostalCode string   `json:"postal_code" validate:"required"`
	Country    string   `json:"country" validate:"required"`
	Latitude   *float64 `json:"latitude" validate:"omitempty,latitude"`
	Longitude  *float64 `json:"longitude" validate:"omitempty,longitude"`
	IsDefault  bool     `json:"is_default"`
	Type       string   `json:"type" validate:"omitempty,oneof=home work other"`
}

// GPSInput records a live device location.
type GPSInput struct {
	Latitude  float64  `json:"latitude" validate:"required,latitude"`
	Longitude float64  `json:"longitude" validate:"required,longitude"`
	Accuracy  *float64 `json:"accuracy" validate:"omitempty,gte=0"`
}

// PreferencesInput patches search preferences.
type PreferencesInput struct {
	RadiusKm      *float64 `json:"radius" validate:"omitempty,gte=1,lte=100"`
	SortBy        *string  `json:"sort_by" validate:"omitempty,oneof=distance price rating"`
	Notifications *bool    `json:"notifications"`
}

// Service exposes account, auth, and profile operations.
type Service interface {
	Register(ctx context.Context, input RegisterInput) (*LoginResult, error)
	Login(ctx context.Context, input LoginInput) (*LoginResult, error)
	Refresh(ctx context.Context, accessToken, refreshToken string) (*LoginResult, error)
	Logout(ctx context.Context, accessID string) error

	GetProfile(ctx context.Context, userID uuid.UUID) (*ProfileDTO, error)
	UpdateProfile(ctx context.Context, userID uuid.UUID, input UpdateProfileInput) (*ProfileDTO, error)

	AddAddress(ctx context.Context, userID uuid.UUID, input AddressInput) (*ProfileDTO, error)
	UpdateAddress(ctx context.Context, userID uuid.UUID, addressID string, input AddressInput) (*ProfileDTO, error)
	DeleteAddress(ctx context.Context, userID uuid.UUID, addressID string) (*ProfileDTO, error)
	SetDefaultAddress(ctx context.Context, userID uuid.UUID, addressID string) (*ProfileDTO, error)

	UpdateGPS(ctx context.Context, userID uuid.UUID, input GPSInput) (*ProfileDTO, error)
	ToggleGPS(ctx context.Context, userID uuid.UUID, enabled bool) (*ProfileDTO, error)
	UpdatePreferences(ctx context.Context, userID uuid.UUID, input PreferencesInput) (*ProfileDTO, error)

	// StoredLocation resolves the coordinates and search radius the chat and
	// location layers should use for this user.
	StoredLocation(ctx context.Context, userID string) (*types.Coordinates, float64, error)

	AwardLoyaltyPoints(ctx context.Context, userID uuid.UUID, points int) error
}

type service struct {
	repo          Repository
	tokens        *TokenManager
	jwt           config.JWTConfig
	password      config.PasswordConfig
	defaultRadius float64
	logg          *logger.Logger
	now           func() time.Time
}

// ServiceParams collects the account service dependencies.
type ServiceParams struct {
	Repo            Repository
	Tokens          *TokenManager
	JWT             config.JWTConfig
	Password        config.PasswordConfig
	DefaultRadiusKm float64
	Logger          *logger.Logger
	Now             func() time.Time
}

// NewService builds the account service.
func NewService(params ServiceParams) (Service, error) {
	if params.Repo == nil {
		return nil, fmt.Errorf("account repository is required")
	}
	if params.Tokens == nil {
		return nil, fmt.Errorf("token manager is required")
	}
	if params.JWT.Secret == "" {
		return nil, fmt.Errorf("jwt secret is required")
	}
	now := params.Now
	if now == nil {
		now = time.Now
	}
	radius := params.DefaultRadiusKm
	if radius <= 0 {
		radius = 15
	}
	return &service{
		repo:          params.Repo,
		tokens:        params.Tokens,
		jwt:           params.JWT,
		password:      params.Password,
		defaultRadius: radius,
		logg:          params.Logger,
		now:           now,
	}, nil
}

func (s *service) Register(ctx context.Context, input RegisterInput) (*LoginResult, error) {
	hash, err := security.HashPassword(input.Password, s.password)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "hash password")
	}

	user := &User{
		ID:           uuid.New(),
		Email:        normalizeEmail(input.Email),
		PasswordHash: hash,
		Name:         strings.TrimSpace(input.Name),
		Addresses:    []types.Address{},
		Preferences: Preferences{
			RadiusKm:      s.defaultRadius,
			SortBy:        "distance",
			Notifications: true,
		},
		Tier:      tierFor(0),
		CreatedAt: s.now().UTC(),
	}
	if err := s.repo.Create(ctx, user); err != nil {
		return nil, err
	}

	if s.logg != nil {
		s.logg.Info(s.logg.WithUserID(ctx, user.ID.String()), "accounts.registered")
	}
	return s.issueTokens(ctx, user)
}

func (s *service) Login(ctx context.Context, input LoginInput) (*LoginResult, error) {
	user, err := s.repo.GetByEmail(ctx, input.Email)
	if err != nil {
		if pkgerrors.IsCode(err, pkgerrors.CodeNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, invalidCredentialsMessage)
		}
		return nil, err
	}

	match, err := security.VerifyPassword(input.Password, user.PasswordHash)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "verify password")
	}
	if !match {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, invalidCredentialsMessage)
	}

	if s.logg != nil {
		s.logg.Info(s.logg.WithUserID(ctx, user.ID.String()), "accounts.login")
	}
	return s.issueTokens(ctx, user)
}

func (s *service) Refresh(ctx context.Context, accessToken, refreshToken string) (*LoginResult, error) {
	claims, err := auth.ParseAccessTokenAllowExpired(s.jwt, accessToken)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeUnauthorized, err, "invalid access token")
	}

	newAccessID, newRefresh, err := s.tokens.Rotate(ctx, claims.ID, refreshToken)
	if err != nil {
		if errors.Is(err, ErrInvalidRefreshToken) {
			return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "invalid refresh token")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "rotate refresh token")
	}

	access, err := auth.MintAccessToken(s.jwt, s.now(), auth.AccessTokenPayload{
		UserID: claims.UserID,
		Role:   claims.Role,
		JTI:    newAccessID,
	})
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "mint access token")
	}

	return &LoginResult{AccessToken: access, RefreshToken: newRefresh}, nil
}

func (s *service) Logout(ctx context.Context, accessID string) error {
	if strings.TrimSpace(accessID) == "" {
		return pkgerrors.New(pkgerrors.CodeValidation, "access id is required")
	}
	if err := s.tokens.Revoke(ctx, accessID); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "revoke session")
	}
	return nil
}

func (s *service) GetProfile(ctx context.Context, userID uuid.UUID) (*ProfileDTO, error) {
	user, err := s.repo.GetByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	return toProfile(user), nil
}

func (s *service) UpdateProfile(ctx context.Context, userID uuid.UUID, input UpdateProfileInput) (*ProfileDTO, error) {
	return s.mutate(ctx, userID, func(user *User) error {
		if input.Name != nil {
			user.Name = strings.TrimSpace(*input.Name)
		}
		return nil
	})
}

func (s *service) AddAddress(ctx context.Context, userID uuid.UUID, input AddressInput) (*ProfileDTO, error) {
	return s.mutate(ctx, userID, func(user *User) error {
		address := addressFromInput(input)
		address.ID = uuid.NewString()

		// The first saved address always becomes the default.
		if len(user.Addresses) == 0 {
			address.IsDefault = true
		}
		if address.IsDefault {
			clearDefaults(user.Addresses)
		}
		user.Addresses = append(user.Addresses, address)
		return nil
	})
}

func (s *service) UpdateAddress(ctx context.Context, userID uuid.UUID, addressID string, input AddressInput) (*ProfileDTO, error) {
	return s.mutate(ctx, userID, func(user *User) error {
		idx := findAddress(user.Addresses, addressID)
		if idx < 0 {
			return pkgerrors.New(pkgerrors.CodeNotFound, "address not found")
		}
		address := addressFromInput(input)
		address.ID = addressID
		if !address.IsDefault && user.Addresses[idx].IsDefault {
			// An update never silently drops the default flag.
			address.IsDefault = true
		}
		if address.IsDefault {
			clearDefaults(user.Addresses)
		}
		user.Addresses[idx] = address
		return nil
	})
}

func (s *service) DeleteAddress(ctx context.Context, userID uuid.UUID, addressID string) (*ProfileDTO, error) {
	return s.mutate(ctx, userID, func(user *User) error {
		idx := findAddress(user.Addresses, addressID)
		if idx < 0 {
			return pkgerrors.New(pkgerrors.CodeNotFound, "address not found")
		}
		wasDefault := user.Addresses[idx].IsDefault
		user.Addresses = append(user.Addresses[:idx], user.Addresses[idx+1:]...)
		if wasDefault && len(user.Addresses) > 0 {
			user.Addresses[0].IsDefault = true
		}
		return nil
	})
}

func (s *service) SetDefaultAddress(ctx context.Context, userID uuid.UUID, addressID string) (*ProfileDTO, error) {
	return s.mutate(ctx, userID, func(user *User) error {
		idx := findAddress(user.Addresses, addressID)
		if idx < 0 {
			return pkgerrors.New(pkgerrors.CodeNotFound, "address not found")
		}
		clearDefaults(user.Addresses)
		user.Addresses[idx].IsDefault = true
		return nil
	})
}

func (s *service) UpdateGPS(ctx context.Context, userID uuid.UUID, input GPSInput) (*ProfileDTO, error) {
	coords := types.Coordinates{Latitude: input.Latitude, Longitude: input.Longitude}
	if !coords.Valid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "invalid coordinates")
	}
	return s.mutate(ctx, userID, func(user *User) error {
		user.CurrentLocation = &types.GPSLocation{
			Coordinates: coords,
			Accuracy:    input.Accuracy,
			Timestamp:   s.now().UTC(),
		}
		user.GPSEnabled = true
		return nil
	})
}

func (s *service) ToggleGPS(ctx context.Context, userID uuid.UUID, enabled bool) (*ProfileDTO, error) {
	return s.mutate(ctx, userID, func(user *User) error {
		user.GPSEnabled = enabled
		if !enabled {
			user.CurrentLocation = nil
		}
		return nil
	})
}

func (s *service) UpdatePreferences(ctx context.Context, userID uuid.UUID, input PreferencesInput) (*ProfileDTO, error) {
	return s.mutate(ctx, userID, func(user *User) error {
		if input.RadiusKm != nil {
			user.Preferences.RadiusKm = *input.RadiusKm
		}
		if input.SortBy != nil {
			user.Preferences.SortBy = *input.SortBy
		}
		if input.Notifications != nil {
			user.Preferences.Notifications = *input.Notifications
		}
		return nil
	})
}

// StoredLocation prefers the live GPS fix when the user has GPS enabled and
// falls back to the default address coordinates.
func (s *service) StoredLocation(ctx context.Context, userID string) (*types.Coordinates, float64, error) {
	id, err := uuid.Parse(userID)
	if err != nil {
		return nil, 0, pkgerrors.New(pkgerrors.CodeValidation, "invalid user id")
	}
	user, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, 0, err
	}

	radius := user.Preferences.RadiusKm
	if radius <= 0 {
		radius = s.defaultRadius
	}

	if user.GPSEnabled && user.CurrentLocation != nil && user.CurrentLocation.Coordinates.Valid() {
		coords := user.CurrentLocation.Coordinates
		return &coords, radius, nil
	}
	for i := range user.Addresses {
		addr := user.Addresses[i]
		if addr.IsDefault && addr.Coordinates != nil && addr.Coordinates.Valid() {
			coords := *addr.Coordinates
			return &coords, radius, nil
		}
	}
	return nil, 0, pkgerrors.New(pkgerrors.CodeNotFound, "no location on file")
}

func (s *service) AwardLoyaltyPoints(ctx context.Context, userID uuid.UUID, points int) error {
	if points <= 0 {
		return pkgerrors.New(pkgerrors.CodeValidation, "points must be positive")
	}
	_, err := s.mutate(ctx, userID, func(user *User) error {
		user.LoyaltyPoints += points
		user.Tier = tierFor(user.LoyaltyPoints)
		return nil
	})
	return err
}

func (s *service) issueTokens(ctx context.Context, user *User) (*LoginResult, error) {
	accessID := NewAccessID()
	refresh, err := s.tokens.Generate(ctx, accessID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "store refresh session")
	}
	access, err := auth.MintAccessToken(s.jwt, s.now(), auth.AccessTokenPayload{
		UserID: user.ID,
		Role:   auth.RoleCustomer,
		JTI:    accessID,
	})
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "mint access token")
	}
	return &LoginResult{
		AccessToken:  access,
		RefreshToken: refresh,
		Profile:      toProfile(user),
	}, nil
}

func (s *service) mutate(ctx context.Context, userID uuid.UUID, apply func(*User) error) (*ProfileDTO, error) {
	user, err := s.repo.GetByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	if err := apply(user); err != nil {
		return nil, err
	}
	if err := s.repo.Update(ctx, user); err != nil {
		return nil, err
	}
	return toProfile(user), nil
}

func addressFromInput(input AddressInput) types.Address {
	address := types.Address{
		Street:     strings.TrimSpace(input.Street),
		City:       strings.TrimSpace(input.City),
		State:      strings.TrimSpace(input.State),
		PostalCode: strings.TrimSpace(input.PostalCode),
		Country:    strings.TrimSpace(input.Country),
		IsDefault:  input.IsDefault,
		Type:       input.Type,
	}
	if input.Latitude != nil && input.Longitude != nil {
		coords := types.Coordinates{Latitude: *input.Latitude, Longitude: *input.Longitude}
		if coords.Valid() {
			address.Coordinates = &coords
		}
	}
	return address
}

func findAddress(addresses []types.Address, addressID string) int {
	for i := range addresses {
		if addresses[i].ID == addressID {
			return i
		}
	}
	return -1
}

func clearDefaults(addresses []types.Address) {
	for i := range addresses {
		addresses[i].IsDefault = false
	}
}

func tierFor(points int) string {
	switch {
	case points >= 5000:
		return "gold"
	case points >= 1000:
		return "silver"
	default:
		return "bronze"
	}
}
