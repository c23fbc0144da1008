package middleware

import (
	"regexp"
	"strings"

	"github.com/gofiber/fiber/v3"
)

// Field length limits matching database schema constraints.
const (
	MaxVideoIDLen   = 32  // segments.video_id VARCHAR(32)
	MaxUUIDLen      = 66  // segments.uuid VARCHAR(66)
	MinUserIDLen    = 30  // private IDs shorter than this are trivially bruteforced
	MaxUserIDLen    = 128 // raw private ID before server-side hashing
	MaxUserAgentLen = 128 // vote_records.user_agent VARCHAR(128)
	MinHashPrefix   = 4
	MaxHashPrefix   = 32
)

var (
	// videoIDRe matches platform video IDs: alphanumeric, dash, underscore.
	videoIDRe = regexp.MustCompile(`^[A-Za-z0-9_-]+$`)
	// uuidRe matches segment UUIDs: hex digests or dashed v4 UUIDs.
	uuidRe = regexp.MustCompile(`^[0-9a-fA-F-]+$`)
	// hexRe matches lowercase hex strings (SHA256 hash prefixes).
	hexRe = regexp.MustCompile(`^[0-9a-f]+$`)
	// userIDRe matches raw private user IDs before hashing.
	userIDRe = regexp.MustCompile(`^[A-Za-z0-9_-]+$`)
)

// ErrorResponse is a helper that returns a standard API error response.
func ErrorResponse(c fiber.Ctx, status int, code, message string) error {
	return c.Status(status).JSON(fiber.Map{
		"error": fiber.Map{
			"code":    code,
			"message": message,
		},
	})
}

// ValidateVideoID checks that a video ID is well-formed and within DB limits.
func ValidateVideoID(id string) (string, string) {
	id = strings.TrimSpace(id)
	if id == "" {
		return "", "videoId is required"
	}
	if len(id) > MaxVideoIDLen {
		return "", "videoId must be at most 32 characters"
	}
	if !videoIDRe.MatchString(id) {
		return "", "videoId contains invalid characters"
	}
	return id, ""
}

// ValidateUUID checks that a segment UUID is well-formed.
func ValidateUUID(id string) (string, string) {
	id = strings.TrimSpace(id)
	if id == "" {
		return "", "UUID is required"
	}
	if len(id) > MaxUUIDLen {
		return "", "UUID must be at most 66 characters"
	}
	if !uuidRe.MatchString(id) {
		return "", "UUID contains invalid characters"
	}
	return id, ""
}

// ValidateHashPrefix checks the k-anonymity hash prefix format.
func ValidateHashPrefix(prefix string) (string, string) {
	prefix = strings.TrimSpace(strings.ToLower(prefix))
	if len(prefix) < MinHashPrefix || len(prefix) > MaxHashPrefix {
		return "", "Hash prefix must be 4-32 characters"
	}
	if !hexRe.MatchString(prefix) {
		return "", "Hash prefix must be hexadecimal"
	}
	return prefix, ""
}

// ValidateUserID checks the raw private user ID. The raw ID never reaches
// storage; the handler hashes it before anything else sees it.
func ValidateUserID(id string) (string, string) {
	id = strings.TrimSpace(id)
	if id == "" {
		return "", "userId is required"
	}
	if len(id) < MinUserIDLen {
		return "", "userId must be at least 30 characters"
	}
	if len(id) > MaxUserIDLen {
		return "", "userId must be at most 128 characters"
	}
	if !userIDRe.MatchString(id) {
		return "", "userId contains invalid characters"
	}
	return id, ""
}

// ValidatePublicUserID checks an already-hashed public user ID.
func ValidatePublicUserID(id string) (string, string) {
	id = strings.TrimSpace(strings.ToLower(id))
	if id == "" {
		return "", "userId is required"
	}
	if len(id) != 64 || !hexRe.MatchString(id) {
		return "", "userId must be a 64-character hexadecimal hash"
	}
	return id, ""
}

// ValidateUserAgent trims and truncates user agent to DB limits.
func ValidateUserAgent(ua string) string {
	ua = strings.TrimSpace(ua)
	if len(ua) > MaxUserAgentLen {
		ua = ua[:MaxUserAgentLen]
	}
	return ua
}
