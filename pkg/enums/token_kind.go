package enums

// TokenKind distinguishes one-time tokens mailed to users.
type TokenKind string

const (
	TokenKindEmailConfirm  TokenKind = "email_confirm"
	TokenKindPasswordReset TokenKind = "password_reset"
)

var tokenKinds = set[TokenKind]{TokenKindEmailConfirm, TokenKindPasswordReset}

func (k TokenKind) IsValid() bool { return tokenKinds.has(k) }
