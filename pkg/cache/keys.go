package cache

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
)

// Hash computes a SHA-256 hash of the input data.
// Returns the full 64-character hex string.
func Hash(data []byte) string {
	hash := sha256.Sum256(data)
	return hex.EncodeToString(hash[:])
}

// hashKey generates a cache key by hashing the components.
// The key format is: prefix:hash(parts...)
func hashKey(prefix string, parts ...interface{}) string {
	data, _ := json.Marshal(parts)
	hash := sha256.Sum256(data)
	return fmt.Sprintf("%s:%s", prefix, hex.EncodeToString(hash[:]))
}

// LayoutKeyOpts are the parameters that affect a layout result.
// Two requests with the same graph hash and the same opts share a key.
type LayoutKeyOpts struct {
	Width  int
	Height int

	// Spacing parameters; changing any of them changes the positions.
	MarginX     float64
	MarginY     float64
	NodeWidth   float64
	NodeHeight  float64
	HSpacing    float64
	VSpacing    float64
	GridColumns int
}

// LayoutKey generates a key for caching a computed layout.
func LayoutKey(graphHash string, opts LayoutKeyOpts) string {
	return hashKey("layout", graphHash, opts)
}

// AnalysisKeyOpts are the parameters that affect an analysis result.
type AnalysisKeyOpts struct {
	MaxPaths int
}

// AnalysisKey generates a key for caching path and bottleneck analysis.
func AnalysisKey(graphHash string, opts AnalysisKeyOpts) string {
	return hashKey("analysis", graphHash, opts)
}
