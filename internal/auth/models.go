package auth

// SignupRequest is the form payload posted to /signingup
type SignupRequest struct {
	Name     string `form:"name"`
	Email    string `form:"email"`
	Password string `form:"password"`
}

// LoginRequest is the form payload posted to /loggingin
type LoginRequest struct {
	Email    string `form:"email"`
	Password string `form:"password"`
}

// Result is returned after a successful signup or login
type Result struct {
	Token  string
	UserID string
	Email  string
	Name   string
}

// Auth operations and outcomes reported to the Recorder.
const (
	OpSignup = "signup"
	OpLogin  = "login"
	OpLogout = "logout"

	OutcomeSuccess            = "success"
	OutcomeMissingFields      = "missing_fields"
	OutcomeInvalidInput       = "invalid_input"
	OutcomeInvalidEmail       = "invalid_email"
	OutcomeInvalidCredentials = "invalid_credentials"
	OutcomeError              = "error"
)
