package api

import "time"

// Role is the server-assigned account role. It decides which dashboard the
// gateway routes to; the server remains the authority on what each role may do.
type Role string

const (
	RoleAdmin   Role = "admin"
	RoleDonor   Role = "donor"
	RoleCharity Role = "charity"
)

// Valid reports whether the role is one the gateway knows how to route.
func (r Role) Valid() bool {
	switch r {
	case RoleAdmin, RoleDonor, RoleCharity:
		return true
	}
	return false
}

// TokenPair is returned by the token endpoint.
type TokenPair struct {
	Access  string `json:"access"`
	Refresh string `json:"refresh"`
}

// refreshResponse is returned by the token-refresh endpoint. Refresh is
// populated only when the server rotates refresh tokens.
type refreshResponse struct {
	Access  string `json:"access"`
	Refresh string `json:"refresh,omitempty"`
}

// User is the current account as the server represents it. It is replaced
// wholesale on every fetch or update, never partially mutated.
type User struct {
	ID    int64  `json:"id"`
	Email string `json:"email"`
	Role  Role   `json:"role"`

	FirstName   string `json:"first_name"`
	LastName    string `json:"last_name"`
	PhoneNumber string `json:"phone_number"`
	Address     string `json:"address"`
	City        string `json:"city"`
	State       string `json:"state"`
	ZipCode     string `json:"zip_code"`

	// Charity accounts only.
	OrganizationName        string `json:"organization_name,omitempty"`
	OrganizationDescription string `json:"organization_description,omitempty"`

	// IsVerified gates whether a donor may create donations.
	IsVerified bool      `json:"is_verified"`
	DateJoined time.Time `json:"date_joined"`
}

// RegisterInput is the full registration payload. Password handling is the
// server's concern; the gateway forwards it verbatim.
type RegisterInput struct {
	Email    string `json:"email"`
	Password string `json:"password"`
	Role     Role   `json:"role"`

	FirstName   string `json:"first_name"`
	LastName    string `json:"last_name"`
	PhoneNumber string `json:"phone_number,omitempty"`
	Address     string `json:"address,omitempty"`
	City        string `json:"city,omitempty"`
	State       string `json:"state,omitempty"`
	ZipCode     string `json:"zip_code,omitempty"`

	OrganizationName        string `json:"organization_name,omitempty"`
	OrganizationDescription string `json:"organization_description,omitempty"`
}

// UpdateProfileInput carries the mutable profile fields. Zero-valued fields
// are sent as-is; the server decides what a blank value means.
type UpdateProfileInput struct {
	FirstName   string `json:"first_name"`
	LastName    string `json:"last_name"`
	PhoneNumber string `json:"phone_number"`
	Address     string `json:"address"`
	City        string `json:"city"`
	State       string `json:"state"`
	ZipCode     string `json:"zip_code"`

	OrganizationName        string `json:"organization_name,omitempty"`
	OrganizationDescription string `json:"organization_description,omitempty"`
}

type changePasswordInput struct {
	OldPassword        string `json:"old_password"`
	NewPassword        string `json:"new_password"`
	ConfirmNewPassword string `json:"confirm_new_password"`
}

// Donation is a read-only dashboard record.
type Donation struct {
	ID            int64      `json:"id"`
	FoodCategory  string     `json:"food_category"`
	Description   string     `json:"description"`
	Quantity      float64    `json:"quantity"`
	Unit          string     `json:"unit"`
	PickupAddress string     `json:"pickup_address"`
	Status        string     `json:"status"`
	DonorEmail    string     `json:"donor_email"`
	ClaimedBy     string     `json:"claimed_by,omitempty"`
	ExpiryDate    *time.Time `json:"expiry_date,omitempty"`
	CreatedAt     time.Time  `json:"created_at"`
}

// WasteLog is a read-only dashboard record.
type WasteLog struct {
	ID       int64     `json:"id"`
	Donation int64     `json:"donation"`
	Quantity float64   `json:"quantity"`
	Reason   string    `json:"reason"`
	LoggedAt time.Time `json:"logged_at"`
}

// FoodCategory is a read-only dashboard record.
type FoodCategory struct {
	ID          int64  `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
}

// UserSummary is the admin-dashboard listing entry.
type UserSummary struct {
	ID         int64     `json:"id"`
	Email      string    `json:"email"`
	Role       Role      `json:"role"`
	IsVerified bool      `json:"is_verified"`
	DateJoined time.Time `json:"date_joined"`
}
