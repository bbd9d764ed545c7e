// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package auth provides password hashing and session tokens.

# Passwords

Passwords are hashed with bcrypt and must be at least 8 characters:

	hash, err := auth.HashPassword(password)
	err = auth.CheckPassword(hash, password) // ErrInvalidPassword on mismatch

# Sessions

Session tokens are HS256 JWTs whose subject is the user ID. Each token
carries a random ID and expires after the configured TTL:

	sessions := auth.NewSessions(secret, 24*time.Hour)
	token, expiresAt, err := sessions.Issue(user.ID, user.Username)
	claims, err := sessions.Verify(token)
	userID, err := claims.UserID()

Verify returns ErrExpiredToken for expired tokens and ErrInvalidToken for
anything else it rejects. Tokens are stateless; logging out only clears
the cookie.
*/
package auth
