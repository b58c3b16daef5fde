package frontauth

// Messages are the user facing texts set by the flow. Failure messages are
// fallbacks, used when the backend did not supply one.
type Messages struct {
	LoginSuccess      string
	LoginFailed       string
	CodeSent          string
	CodeRequestFailed string
	CodeVerified      string
	CodeInvalid       string
	FederatedSuccess  string
	FederatedFailed   string
	SessionSaveFailed string
}

var DefaultMessages = Messages{
	LoginSuccess:      "Signed in successfully!",
	LoginFailed:       "Could not sign in",
	CodeSent:          "Code sent to your email.",
	CodeRequestFailed: "Could not request a code",
	CodeVerified:      "Code verified!",
	CodeInvalid:       "Invalid code",
	FederatedSuccess:  "Signed in with Google!",
	FederatedFailed:   "Could not sign in with Google.",
	SessionSaveFailed: "Could not save your session",
}

var SpanishMessages = Messages{
	LoginSuccess:      "¡Inicio de sesión exitoso!",
	LoginFailed:       "Error al iniciar sesión",
	CodeSent:          "Código enviado a tu correo.",
	CodeRequestFailed: "Error al solicitar código",
	CodeVerified:      "¡Código verificado!",
	CodeInvalid:       "Código inválido",
	FederatedSuccess:  "¡Inicio de sesión con Google exitoso!",
	FederatedFailed:   "Error al iniciar sesión con Google.",
	SessionSaveFailed: "No se pudo guardar la sesión",
}

// withDefaults fills empty entries from DefaultMessages
func (m Messages) withDefaults() Messages {
	fill := func(s *string, def string) {
		if *s == "" {
			*s = def
		}
	}
	fill(&m.LoginSuccess, DefaultMessages.LoginSuccess)
	fill(&m.LoginFailed, DefaultMessages.LoginFailed)
	fill(&m.CodeSent, DefaultMessages.CodeSent)
	fill(&m.CodeRequestFailed, DefaultMessages.CodeRequestFailed)
	fill(&m.CodeVerified, DefaultMessages.CodeVerified)
	fill(&m.CodeInvalid, DefaultMessages.CodeInvalid)
	fill(&m.FederatedSuccess, DefaultMessages.FederatedSuccess)
	fill(&m.FederatedFailed, DefaultMessages.FederatedFailed)
	fill(&m.SessionSaveFailed, DefaultMessages.SessionSaveFailed)
	return m
}
