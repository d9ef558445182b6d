package accounts

import (
	"time"

	"github.com/google/uuid"
	"github.com/retailgenie/orchestrator/pkg/types"
)

// Preferences tune location-aware search for a customer.
type Preferences struct {
	RadiusKm      float64 `json:"radius"`
	SortBy        string  `json:"sort_by"`
	Notifications bool    `json:"notifications"`
}

// User is the persisted customer record.
type User struct {
	ID              uuid.UUID          `json:"id"`
	Email           string             `json:"email"`
	PasswordHash    string             `json:"password_hash"`
	Name            string             `json:"name"`
	Addresses       []types.Address    `json:"addresses"`
	CurrentLocation *types.GPSLocation `json:"current_location,omitempty"`
	GPSEnabled      bool               `json:"gps_enabled"`
	Preferences     Preferences        `json:"preferences"`
	LoyaltyPoints   int                `json:"loyalty_points"`
	Tier            string             `json:"tier,omitempty"`
	CreatedAt       time.Time          `json:"created_at"`
}

// ProfileDTO is the user shape returned to clients; it never carries the
// password hash.
type ProfileDTO struct {
	ID              uuid.UUID          `json:"id"`
	Email           string             `json:"email"`
	Name            string             `json:"name"`
	Addresses       []types.Address    `json:"addresses"`
	CurrentLocation *types.GPSLocation `json:"current_location,omitempty"`
	GPSEnabled      bool               `json:"gps_enabled"`
	Preferences     Preferences        `json:"preferences"`
	LoyaltyPoints   int                `json:"loyalty_points"`
	Tier            string             `json:"tier,omitempty"`
	CreatedAt       time.Time          `json:"created_at"`
}

func toProfile(user *User) *ProfileDTO {
	if user == nil {
		return nil
	}
	return &ProfileDTO{
		ID:              user.ID,
		Email:           user.Email,
		Name:            user.Name,
		Addresses:       user.Addresses,
		CurrentLocation: user.CurrentLocation,
		GPSEnabled:      user.GPSEnabled,
		Preferences:     user.Preferences,
		LoyaltyPoints:   user.LoyaltyPoints,
		Tier:            user.Tier,
		CreatedAt:       user.CreatedAt,
	}
}

// LoginResult carries the token pair and profile returned on login/refresh.
type LoginResult struct {
	AccessToken  string      `json:"access_token"`
	RefreshToken string      `json:"refresh_token"`
	Profile      *ProfileDTO `json:"profile,omitempty"`
}
