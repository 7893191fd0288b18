package cache

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
)

// Keyer generates cache keys.
type Keyer interface {
	// SnapshotKey addresses the snapshot of one frame of a scene.
	SnapshotKey(scene string, frame uint64) string
	// LatestKey addresses the most recent snapshot of a scene.
	LatestKey(scene string) string
	// RunKey addresses the final snapshot of a run over identical input.
	RunKey(sceneHash string, opts RunKeyOpts) string
}

// RunKeyOpts are the run options that influence the final snapshot.
type RunKeyOpts struct {
	Frames           int     `json:"frames"`
	PointScaleFactor float32 `json:"point_scale_factor"`
}

// DefaultKeyer is the standard [Keyer].
type DefaultKeyer struct{}

// NewDefaultKeyer returns the standard keyer.
func NewDefaultKeyer() Keyer {
	return DefaultKeyer{}
}

// SnapshotKey returns "snapshot:<scene>:<frame>".
func (DefaultKeyer) SnapshotKey(scene string, frame uint64) string {
	return fmt.Sprintf("snapshot:%s:%d", scene, frame)
}

// LatestKey returns "snapshot:<scene>:latest".
func (DefaultKeyer) LatestKey(scene string) string {
	return fmt.Sprintf("snapshot:%s:latest", scene)
}

// RunKey hashes the scene hash together with opts.
func (DefaultKeyer) RunKey(sceneHash string, opts RunKeyOpts) string {
	return hashKey("run", sceneHash, opts)
}

// hashKey returns "<prefix>:<sha256 of the JSON-encoded parts>".
func hashKey(prefix string, parts ...any) string {
	data, _ := json.Marshal(parts)
	return prefix + ":" + Hash(data)
}

// Hash returns the hex SHA-256 of data. Scene files are keyed by it.
func Hash(data []byte) string {
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:])
}
