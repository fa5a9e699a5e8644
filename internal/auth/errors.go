package auth

// Provider error codes, following the upstream identifiers.
const (
	CodeInvalidCredential = "auth/invalid-credential"
	CodeWrongPassword     = "auth/wrong-password"
	CodeUserNotFound      = "auth/user-not-found"
	CodeInvalidEmail      = "auth/invalid-email"
	CodeUserDisabled      = "auth/user-disabled"
	CodeTooManyRequests   = "auth/too-many-requests"
	CodeEmailInUse        = "auth/email-already-in-use"
	CodeWeakPassword      = "auth/weak-password"
)

// Fixed user-facing messages. Credential-style failures share one
// message so the UI does not leak whether an account exists.
const (
	MsgBadCredentials  = "Email ou mot de passe incorrect"
	MsgInvalidEmail    = "Format d'email invalide"
	MsgUserDisabled    = "Ce compte a été désactivé"
	MsgTooManyRequests = "Trop de tentatives. Réessayez plus tard"
	MsgEmailInUse      = "Cet email est déjà utilisé"
	MsgWeakPassword    = "Mot de passe trop faible"
	MsgLoginFailed     = "Erreur de connexion. Veuillez réessayer"
	MsgRegisterFailed  = "Erreur de création de compte"
)

// CodedError is a provider failure carrying its upstream code.
type CodedError struct {
	Code string
	Err  error
}

func (e *CodedError) Error() string {
	if e.Err != nil {
		return e.Code + ": " + e.Err.Error()
	}
	return e.Code
}

func (e *CodedError) Unwrap() error { return e.Err }

// LoginMessage maps a provider error code to the message shown on the
// sign-in screen.
func LoginMessage(code string) string {
	switch code {
	case CodeInvalidCredential, CodeWrongPassword, CodeUserNotFound:
		return MsgBadCredentials
	case CodeInvalidEmail:
		return MsgInvalidEmail
	case CodeUserDisabled:
		return MsgUserDisabled
	case CodeTooManyRequests:
		return MsgTooManyRequests
	default:
		return MsgLoginFailed
	}
}

// RegisterMessage maps a provider error code to the message shown on
// the registration screen.
func RegisterMessage(code string) string {
	switch code {
	case CodeEmailInUse:
		return MsgEmailInUse
	case CodeInvalidEmail:
		return MsgInvalidEmail
	case CodeWeakPassword:
		return MsgWeakPassword
	default:
		return MsgRegisterFailed
	}
}
