package utils

import (
	"time" // Time for token expiration

	"github.com/golang-jwt/jwt/v5" // JWT library
)

// TokenTTL is how long a member token stays valid
const TokenTTL = 24 * time.Hour

// Claims carried by a member token
type Claims struct {
	UserID               uint   `json:"user_id"` // Member ID
	Role                 string `json:"role"`    // Member role at issue time
	jwt.RegisteredClaims        // Standard JWT claims
}

// GenerateJWT creates a signed token for a member and role
func GenerateJWT(userID uint, role, secret string) (string, error) {
	now := time.Now() // Issue time
	// Set token claims
	claims := Claims{
		UserID: userID, // Custom claim for member ID
		Role:   role,   // Custom claim for role
		// Standard claims
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(now.Add(TokenTTL)), // Token expires after TokenTTL
			IssuedAt:  jwt.NewNumericDate(now),               // Issued at current time
			Issuer:    "digicoop",                            // Token issuer
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims) // Create token with claims
	return token.SignedString([]byte(secret))                  // Sign the token with the secret
}

// ParseJWT parses and validates a token string
func ParseJWT(tokenStr, secret string) (*Claims, error) {
	token, err := jwt.ParseWithClaims(tokenStr, &Claims{}, func(token *jwt.Token) (any, error) {
		return []byte(secret), nil // Return the secret key for validation
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()})) // Only accept HS256
	// Check for parsing errors
	if err != nil {
		return nil, err // Return error if parsing fails
	}
	// Validate token and extract claims
	if claims, ok := token.Claims.(*Claims); ok && token.Valid {
		return claims, nil // Return claims if valid
	}
	// Return error if token is invalid
	return nil, jwt.ErrSignatureInvalid
}
