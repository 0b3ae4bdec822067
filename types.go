// Package makerworks provides a Go client for the MakerWorks
// 3D-print-on-demand API together with the client-side session and
// cart state containers consumed by makerctl.
package makerworks

import (
	"crypto/tls"
	"io"
	"log/slog"
	"time"
)

// Role constants
const (
	RoleAdmin = "admin"
	RoleUser  = "user"
	RoleGuest = "guest"
)

// GroupPrefix is prepended to a capitalized role to form the directory
// group name, e.g. "MakerWorks-Admin".
const GroupPrefix = "MakerWorks-"

const (
	DefaultHTTPTimeout = 30 * time.Second
	DefaultUserAgent   = "makerworks-go"
)

// Storage keys used by the state containers. The names match the web
// client so a storage backend shared with it stays compatible.
const (
	SessionKey     = "auth-store"
	CartKey        = "cart-storage"
	AvatarCacheKey = "avatar-url"
)

// EnvelopeVersion is the persisted envelope schema version.
const EnvelopeVersion = 1

// Config holds configuration for Client initialization.
type Config struct {
	BaseURL        string        // MakerWorks API base URL
	HTTPTimeout    time.Duration // per-request timeout
	UserAgent      string
	TLSConfig      *tls.Config // Optional: custom TLS config
	SkipTLSVerify  bool        // INSECURE: skip TLS verification
	Logger         *slog.Logger
	TokenSource    TokenSource // yields the bearer credential per request
	OnUnauthorized func()      // invoked when any request returns 401
}

// WithDefaults returns Config with default values applied.
func (c Config) WithDefaults() Config {
	if c.HTTPTimeout == 0 {
		c.HTTPTimeout = DefaultHTTPTimeout
	}
	if c.UserAgent == "" {
		c.UserAgent = DefaultUserAgent
	}
	if c.Logger == nil {
		c.Logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return c
}

// Validate checks required configuration fields.
func (c *Config) Validate() error {
	if c.BaseURL == "" {
		return ErrMissingBaseURL
	}
	return nil
}

// User is the authenticated identity returned by the backend.
type User struct {
	ID         string     `json:"id"`
	Username   string     `json:"username"`
	Email      string     `json:"email"`
	Role       string     `json:"role,omitempty"`
	Groups     []string   `json:"groups,omitempty"`
	AvatarURL  string     `json:"avatar_url,omitempty"`
	Bio        string     `json:"bio,omitempty"`
	CreatedAt  time.Time  `json:"created_at,omitzero"`
	LastLogin  *time.Time `json:"last_login,omitempty"`
	IsVerified bool       `json:"is_verified,omitempty"`
	IsActive   bool       `json:"is_active,omitempty"`
}

// Credentials is the response from the authentication endpoints.
type Credentials struct {
	Token string `json:"token"`
	User  *User  `json:"user"`
}

// SignupRequest creates a new account.
type SignupRequest struct {
	Email    string `json:"email"`
	Username string `json:"username"`
	Password string `json:"password"`
}

// ProfileUpdate is a partial update of the current user's profile.
// Nil fields are left unchanged.
type ProfileUpdate struct {
	Username *string `json:"username,omitempty"`
	Email    *string `json:"email,omitempty"`
	Bio      *string `json:"bio,omitempty"`
	Language *string `json:"language,omitempty"`
	Theme    *string `json:"theme,omitempty"`
}

// Model is an uploaded printable model.
type Model struct {
	ID           string     `json:"id"`
	Name         string     `json:"name"`
	ThumbnailURL string     `json:"thumbnail_url,omitempty"`
	Volume       float64    `json:"volume,omitempty"` // cm^3
	Dimensions   Dimensions `json:"dimensions,omitzero"`
	UploadedAt   time.Time  `json:"uploaded_at,omitzero"`
	UploaderID   string     `json:"uploader_id,omitempty"`
	Price        float64    `json:"price,omitempty"`
}

// ModelUpload is the metadata accompanying a model file upload.
type ModelUpload struct {
	Name        string
	Description string
	Tags        string
	Credit      string
}

// Dimensions are model bounding-box dimensions in millimeters.
type Dimensions struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
	Z float64 `json:"z"`
}

// Filament is a printable material offered by the service.
type Filament struct {
	ID    string `json:"id"`
	Type  string `json:"type"`
	Color string `json:"color"`
	Hex   string `json:"hex"`
}

// NewFilament creates a filament (admin only).
type NewFilament struct {
	Type  string `json:"type"`
	Color string `json:"color"`
	Hex   string `json:"hex"`
}

// FilamentUpdate is a partial filament update (admin only).
type FilamentUpdate struct {
	Type  *string `json:"type,omitempty"`
	Color *string `json:"color,omitempty"`
	Hex   *string `json:"hex,omitempty"`
}

// Print profile constants
const (
	ProfileStandard = "standard"
	ProfileQuality  = "quality"
	ProfileElite    = "elite"
)

// EstimateRequest asks for a print-cost estimate.
type EstimateRequest struct {
	ModelID       string     `json:"model_id"`
	Volume        float64    `json:"volume"`
	FilamentType  string     `json:"filament_type"`
	FilamentColor string     `json:"filament_color"`
	Dimensions    Dimensions `json:"dimensions"`
	CustomText    string     `json:"custom_text,omitempty"`
	PrintProfile  string     `json:"print_profile,omitempty"`
}

// Estimate is the print-cost estimate for a model.
type Estimate struct {
	Cost                 float64 `json:"cost"`
	Time                 string  `json:"time"`
	MaterialWeight       float64 `json:"material_weight"`
	MaterialCost         float64 `json:"material_cost"`
	PrintDurationSeconds int64   `json:"print_duration_seconds"`
}

// CheckoutSession points at the payment processor's hosted page.
type CheckoutSession struct {
	CheckoutURL string `json:"checkout_url"`
}
