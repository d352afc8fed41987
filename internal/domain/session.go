package domain

// AuthStep is the current state of an authentication session.
type AuthStep string

const (
	StepLogin       AuthStep = "login"
	StepRegister    AuthStep = "register"
	StepRegisterOTP AuthStep = "register_otp"
	StepOTP         AuthStep = "otp"
	StepDashboard   AuthStep = "dashboard"
)

// PendingRegistration holds registration data between the registration
// submission and the OTP confirmation. The plaintext password lives only
// here, only in memory, and only for this window; it is wiped on completion
// or cancellation and is hashed fresh on every confirmation attempt.
type PendingRegistration struct {
	Username   string
	Password   string
	TOTPSecret string
	Role       Role
}

// Wipe clears the sensitive fields.
func (p *PendingRegistration) Wipe() {
	p.Username = ""
	p.Password = ""
	p.TOTPSecret = ""
	p.Role = ""
}

// AuthSession is the per-client authentication state. It is an explicit
// value owned by the caller (one per connected client), never process-wide
// state, and holds nothing durable.
type AuthSession struct {
	Step AuthStep

	// PendingUsername is set once credentials validate at the password step
	// and cleared on logout or cancel.
	PendingUsername string

	// PendingRegistration is non-nil only between registration start and
	// OTP confirmation.
	PendingRegistration *PendingRegistration

	Authenticated bool

	// Username and Role are set only after the second factor succeeds.
	Username string
	Role     Role
}

// NewAuthSession returns a session in the initial login state.
func NewAuthSession() *AuthSession {
	return &AuthSession{Step: StepLogin}
}

// Reset discards all session fields and returns to the login step. Used on
// logout and on cancellation.
func (s *AuthSession) Reset() {
	if s.PendingRegistration != nil {
		s.PendingRegistration.Wipe()
	}
	*s = AuthSession{Step: StepLogin}
}
