package accountsdk

import "time"

// ============================================================================
// Account Types
// ============================================================================

// User is the public view of an account. The password digest is never sent.
type User struct {
	ID           int64     `json:"id" example:"1"`
	FirstName    string    `json:"firstName" example:"Jane"`
	LastName     string    `json:"lastName" example:"Doe"`
	UserName     string    `json:"userName,omitempty" example:"jane_doe"`
	Email        string    `json:"email" example:"jane@example.com"`
	Verified     bool      `json:"verified" example:"false"`
	Gender       string    `json:"gender,omitempty" example:"female"`
	BirthDate    string    `json:"birthDate,omitempty" example:"1990-04-01"`
	PhoneNumber  string    `json:"phoneNumber,omitempty" example:"+61 400 000 000"`
	ProfileImage string    `json:"profileImage,omitempty" example:"https://cdn.example.com/jane.png"`
	CreatedAt    time.Time `json:"createdAt"`
	UpdatedAt    time.Time `json:"updatedAt"`
}

// SignupRequest is the body of POST /signup.
type SignupRequest struct {
	FirstName string `json:"firstName" example:"Jane"`
	LastName  string `json:"lastName" example:"Doe"`
	Email     string `json:"email" example:"jane@example.com"`
	Password  string `json:"password" example:"Passw0rd!"`
}

// SignupResponse is the data of a successful signup.
type SignupResponse struct {
	User  User   `json:"user"`
	Token string `json:"token"`
}

// LoginRequest is the body of POST /login.
type LoginRequest struct {
	UsernameOrEmail string `json:"usernameOrEmail" example:"jane@example.com"`
	Password        string `json:"password" example:"Passw0rd!"`
}

// LoginResponse is the data of a successful login or logout. Token is empty
// after logout.
type LoginResponse struct {
	Message string `json:"message" example:"Login Successful"`
	Token   string `json:"token"`
}

// MessageResponse is the data of operations that only confirm success.
type MessageResponse struct {
	Message string `json:"message" example:"Password has been changed successfully"`
}

// ============================================================================
// Password Types
// ============================================================================

// PasswordChangeRequest changes the password of the signed-in user.
type PasswordChangeRequest struct {
	OldPassword     string `json:"oldPassword" example:"Passw0rd!"`
	NewPassword     string `json:"newPassword" example:"N3wPassw0rd"`
	ConfirmPassword string `json:"confirmPassword" example:"N3wPassw0rd"`
}

// PasswordResetRequest asks for a reset link to be mailed.
type PasswordResetRequest struct {
	Email string `json:"email" example:"jane@example.com"`
}

// PasswordResetConfirmRequest redeems a mailed reset link.
type PasswordResetConfirmRequest struct {
	Token           string `json:"token"`
	NewPassword     string `json:"newPassword" example:"N3wPassw0rd"`
	ConfirmPassword string `json:"confirmPassword" example:"N3wPassw0rd"`
}

// ============================================================================
// Profile Types
// ============================================================================

// ProfileUpdateRequest is the body of PUT /profile. Nil fields are left as
// they are.
type ProfileUpdateRequest struct {
	FirstName    *string `json:"firstName,omitempty"`
	LastName     *string `json:"lastName,omitempty"`
	UserName     *string `json:"userName,omitempty"`
	Gender       *string `json:"gender,omitempty"`
	BirthDate    *string `json:"birthDate,omitempty"`
	PhoneNumber  *string `json:"phoneNumber,omitempty"`
	ProfileImage *string `json:"profileImage,omitempty"`
}

// ProfileResponse is the data of GET /profile.
type ProfileResponse struct {
	User User `json:"user"`
}

// ProfileUpdateResponse is the data of PUT /profile.
type ProfileUpdateResponse struct {
	Message string `json:"message" example:"Profile update was successful"`
	User    User   `json:"user"`
}

// ============================================================================
// Health Types
// ============================================================================

// HealthResponse represents the response structure for health check endpoints.
// Used by both /livez and /readyz endpoints (readyz includes additional Checks field).
type HealthResponse struct {
	// Status indicates the overall health status (e.g., "ok")
	Status string `json:"status"`

	// Uptime is the service uptime duration as a string (e.g., "1h23m45s")
	Uptime string `json:"uptime,omitempty"`

	// Version is the service version string
	Version string `json:"version,omitempty"`

	// Checks contains readiness check results for critical dependencies (only for /readyz)
	Checks *HealthChecks `json:"checks,omitempty"`
}

// HealthChecks represents the status of critical service dependencies.
type HealthChecks struct {
	// Database indicates the database connection status
	Database string `json:"database"`
}
