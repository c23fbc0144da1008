package hash

import (
	"crypto/sha256"
	"encoding/hex"
)

// HashIterations is the number of SHA256 rounds applied to user IDs and IP
// addresses. Clients apply the same count, so the server never sees the raw
// local ID.
const HashIterations = 5000

// SHA256Hex returns the hex-encoded SHA256 hash of the input string.
func SHA256Hex(input string) string {
	h := sha256.Sum256([]byte(input))
	return hex.EncodeToString(h[:])
}

// IteratedSHA256 applies SHA256 n times.
func IteratedSHA256(input string, iterations int) string {
	data := []byte(input)
	for range iterations {
		h := sha256.Sum256(data)
		data = h[:]
	}
	return hex.EncodeToString(data)
}

// UserID derives the pseudonymous submitter hash from a client-local ID.
func UserID(localID string) string {
	return IteratedSHA256(localID, HashIterations)
}

// IP hashes an IP address with the global salt. The salt keeps the stored
// hash from being reversed by enumerating the IPv4 space.
func IP(ip, salt string) string {
	return IteratedSHA256(salt+ip, HashIterations)
}
