package domain

import "github.com/golang-jwt/jwt/v5"

// SessionSubject é o sujeito dos tokens emitidos pelo login por senha
const SessionSubject = "analyst"

type Claims struct {
	Authenticated bool `json:"authenticated"`
	jwt.RegisteredClaims
}
