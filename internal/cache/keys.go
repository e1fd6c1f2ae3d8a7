package cache

import (
	"crypto/sha256"
	"encoding/hex"
	"strconv"
	"strings"
)

// KeyPrefix constants for different cache types
const (
	PrefixBundle = "bundle"
)

// keyVersion is bumped whenever the stored result layout or the
// verification rules change
const keyVersion = "v1"

// GenerateKey hashes the given parts into a fixed-length key
func GenerateKey(parts ...string) string {
	hash := sha256.Sum256([]byte(strings.Join(parts, "\x00")))
	return hex.EncodeToString(hash[:])
}

// GenerateKeyWithPrefix generates a cache key with a prefix
func GenerateKeyWithPrefix(prefix string, parts ...string) string {
	return prefix + ":" + GenerateKey(parts...)
}

// BundleKey identifies a bundle verification by the archive's SHA-256 and
// the strict flag
func BundleKey(archiveDigest string, strict bool) string {
	return GenerateKeyWithPrefix(PrefixBundle, keyVersion, strings.ToLower(archiveDigest), strconv.FormatBool(strict))
}
