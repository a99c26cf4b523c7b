package federation

import (
	"encoding/json"
	"fmt"
	"os"
	"sync"

	"go.uber.org/zap"
)

// peerFile is the on-disk shape of the peer registry.
type peerFile struct {
	Partners []PeerConfig `json:"partners"`
}

// Registry holds the configured set of federation partners. The partner list
// is loaded from a JSON file maintained by an external collaborator; entries
// that fail validation are rejected at load time, not silently kept.
type Registry struct {
	mu     sync.RWMutex
	peers  []PeerConfig
	logger *zap.Logger
}

// NewRegistry creates an empty peer registry.
func NewRegistry(logger *zap.Logger) *Registry {
	return &Registry{logger: logger}
}

// LoadFile replaces the registry contents with the partners in path.
// A missing file loads as an empty registry (bootstrap state).
func (r *Registry) LoadFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			r.logger.Warn("peer registry file not found, starting with no peers",
				zap.String("path", path))
			r.mu.Lock()
			r.peers = nil
			r.mu.Unlock()
			return nil
		}
		return fmt.Errorf("read peer registry %s: %w", path, err)
	}

	var file peerFile
	if err := json.Unmarshal(data, &file); err != nil {
		return fmt.Errorf("parse peer registry %s: %w", path, err)
	}

	for _, p := range file.Partners {
		if err := p.Validate(); err != nil {
			return fmt.Errorf("peer registry %s: partner %q: %w", path, p.PartnerID, err)
		}
	}

	r.mu.Lock()
	r.peers = file.Partners
	r.mu.Unlock()

	r.logger.Info("peer registry loaded",
		zap.String("path", path),
		zap.Int("partners", len(file.Partners)),
	)
	return nil
}

// Set replaces the registry contents directly. Entries must already be valid.
func (r *Registry) Set(peers []PeerConfig) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.peers = peers
}

// List returns all configured partners.
func (r *Registry) List() []PeerConfig {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]PeerConfig, len(r.peers))
	copy(out, r.peers)
	return out
}

// ListActive returns only partners whose active flag is set.
func (r *Registry) ListActive() []PeerConfig {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var out []PeerConfig
	for _, p := range r.peers {
		if p.Active {
			out = append(out, p)
		}
	}
	return out
}

// Get returns the partner with the given id, if configured.
func (r *Registry) Get(partnerID string) (PeerConfig, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, p := range r.peers {
		if p.PartnerID == partnerID {
			return p, true
		}
	}
	return PeerConfig{}, false
}
