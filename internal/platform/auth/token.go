package auth

import (
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// MintToken signs an HS256 token for the given principal. Used by the dev
// token CLI command and by handler tests.
func MintToken(cfg JWTConfig, p Principal, ttl time.Duration) (string, error) {
	now := time.Now()
	claims := Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   p.UserID,
			Issuer:    cfg.Issuer,
			Audience:  jwt.ClaimStrings{cfg.Audience},
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
		Role: p.Role,
	}
	if p.DoctorID != uuid.Nil {
		claims.DoctorID = p.DoctorID.String()
	}
	if p.PatientID != uuid.Nil {
		claims.PatientID = p.PatientID.String()
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(cfg.SigningKey)
}
