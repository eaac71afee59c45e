package cache

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"

	"github.com/sugawarayuuta/sonnet"
)

// hashKey generates a cache key by hashing the components.
// The key format is: prefix:hash(parts...)
func hashKey(prefix string, parts ...any) string {
	data, _ := sonnet.Marshal(parts)
	hash := sha256.Sum256(data)
	return fmt.Sprintf("%s:%s", prefix, hex.EncodeToString(hash[:]))
}

// Hash computes a SHA-256 hash of the input data.
// Returns the full 64-character hex string.
func Hash(data []byte) string {
	hash := sha256.Sum256(data)
	return hex.EncodeToString(hash[:])
}

// Keyer derives cache keys. Implementations must produce different keys
// whenever the cached value could differ.
type Keyer interface {
	// ResultKey is the key of a minimized cover.
	ResultKey(coverHash string, opts ResultKeyOpts) string
	// VerifyKey is the key of an equivalence verdict.
	VerifyKey(aHash, bHash, method string) string
	// RenderKey is the key of a rendered adjacency graph.
	RenderKey(coverHash string, opts RenderKeyOpts) string
}

// ResultKeyOpts holds the minimize options that influence the result.
type ResultKeyOpts struct {
	Quality       int    `json:"quality"`
	AlternateCost bool   `json:"alt_cost"`
	MaxCubes      int    `json:"max_cubes"`
	Order         string `json:"order"`
	Schedule      string `json:"schedule,omitempty"`
	Format        string `json:"format"`
}

// RenderKeyOpts holds the options of a rendered graph.
type RenderKeyOpts struct {
	Format      string `json:"format"`
	MaxDistance int    `json:"max_distance"`
}

// DefaultKeyer hashes the key components with SHA-256.
type DefaultKeyer struct{}

// NewDefaultKeyer returns the default keyer.
func NewDefaultKeyer() Keyer { return DefaultKeyer{} }

func (DefaultKeyer) ResultKey(coverHash string, opts ResultKeyOpts) string {
	return hashKey("result", coverHash, opts)
}

func (DefaultKeyer) VerifyKey(aHash, bHash, method string) string {
	if aHash > bHash {
		aHash, bHash = bHash, aHash
	}
	return hashKey("verify", aHash, bHash, method)
}

func (DefaultKeyer) RenderKey(coverHash string, opts RenderKeyOpts) string {
	return hashKey("render", coverHash, opts)
}
