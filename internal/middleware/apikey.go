// Package middleware carries the fiber middleware layer.
//
// APIKey is a trimmed-down version of this codebase's original
// partner/API-key auth middleware: it keeps the Bearer-header
// extraction and SHA-256 hash comparison, but checks against a single
// configured key hash instead of a partner database, since this
// deployment has no partner/tier/scopes concept.
package middleware

import (
	"crypto/sha256"
	"crypto/subtle"
	"encoding/hex"
	"strings"

	"github.com/gofiber/fiber/v2"
)

// APIKey returns a fiber.Handler that requires a Bearer token whose
// SHA-256 hash matches expectedHash. An empty expectedHash disables
// the check entirely (used for local development).
func APIKey(expectedHash string) fiber.Handler {
	return func(c *fiber.Ctx) error {
		if expectedHash == "" {
			return c.Next()
		}

		authHeader := c.Get("Authorization")
		if authHeader == "" {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
				"error":   "missing_api_key",
				"message": "API key is required. Use Authorization: Bearer YOUR_API_KEY",
			})
		}

		parts := strings.SplitN(authHeader, " ", 2)
		if len(parts) != 2 || strings.ToLower(parts[0]) != "bearer" {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
				"error":   "invalid_auth_format",
				"message": "Authorization header must be in format: Bearer YOUR_API_KEY",
			})
		}

		apiKey := strings.TrimSpace(parts[1])
		hash := sha256.Sum256([]byte(apiKey))
		keyHash := hex.EncodeToString(hash[:])

		if subtle.ConstantTimeCompare([]byte(keyHash), []byte(expectedHash)) != 1 {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
				"error":   "invalid_api_key",
				"message": "The provided API key is invalid",
			})
		}

		return c.Next()
	}
}
