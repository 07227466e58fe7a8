package manifest

import (
	"context"
	"errors"
	"fmt"
	"path"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/hupe1980/versego/blobstore"
	"github.com/hupe1980/versego/codec"
)

const (
	// CurrentName is the pointer blob naming the latest manifest.
	CurrentName = "CURRENT"
	// Dir is the prefix all manifests are written under.
	Dir = "manifests"
	// CurrentVersion is the manifest schema version.
	CurrentVersion = 1
)

// ErrNoManifest is returned by LoadCurrent when nothing was committed yet.
var ErrNoManifest = errors.New("manifest: no manifest committed")

// Manifest describes one completed training run.
type Manifest struct {
	Version   int       `json:"version"`
	ID        string    `json:"id"`
	CreatedAt time.Time `json:"created_at"`

	Mode  string `json:"mode"`
	Graph Graph  `json:"graph"`

	Embedding Blob  `json:"embedding"`
	Context   *Blob `json:"context,omitempty"`
	Index     *Blob `json:"index,omitempty"`

	Params Params `json:"params"`

	Seed       uint64 `json:"seed"`
	Steps      uint64 `json:"steps"`
	Samples    uint64 `json:"samples"`
	Skipped    uint64 `json:"skipped"`
	DurationMS int64  `json:"duration_ms"`
}

// Graph identifies the input graph.
type Graph struct {
	Name  string `json:"name"`
	Nodes int    `json:"nodes"`
	Edges int    `json:"edges"`
}

// Blob identifies a written blob and how to verify it.
type Blob struct {
	Name        string `json:"name"`
	Size        int64  `json:"size"`
	CRC32C      uint32 `json:"crc32c"`
	Compression string `json:"compression,omitempty"`
	Rows        int    `json:"rows,omitempty"`
	Dim         int    `json:"dim,omitempty"`
}

// Params are the hyper-parameters of the run.
type Params struct {
	Dim           int     `json:"dim"`
	Epochs        int     `json:"epochs"`
	Negatives     int     `json:"negatives"`
	LearningRate  float32 `json:"learning_rate"`
	Alpha         float64 `json:"alpha"`
	Workers       int     `json:"workers"`
	BatchSize     int     `json:"batch_size"`
	UseBias       bool    `json:"use_bias"`
	ContextBuffer bool    `json:"context_buffer"`
}

// Duration returns the recorded training time.
func (m *Manifest) Duration() time.Duration {
	return time.Duration(m.DurationMS) * time.Millisecond
}

// Name returns the blob name of the manifest with the given id.
func Name(id string) string {
	return path.Join(Dir, id+".json")
}

// Store reads and commits manifests.
type Store struct {
	blobs blobstore.BlobStore
	codec codec.Codec
	mu    sync.Mutex
}

// Option configures a Store.
type Option func(*Store)

// WithCodec overrides codec.Default.
func WithCodec(c codec.Codec) Option {
	return func(s *Store) {
		s.codec = c
	}
}

// NewStore creates a manifest store on top of blobs.
func NewStore(blobs blobstore.BlobStore, opts ...Option) *Store {
	s := &Store{blobs: blobs, codec: codec.Default}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Save writes m and then points CURRENT at it. A missing ID is filled with a
// fresh UUID and a zero CreatedAt with the current time.
func (s *Store) Save(ctx context.Context, m *Manifest) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	m.Version = CurrentVersion
	if m.ID == "" {
		m.ID = uuid.NewString()
	}
	if m.CreatedAt.IsZero() {
		m.CreatedAt = time.Now().UTC()
	}

	data, err := s.marshal(m)
	if err != nil {
		return fmt.Errorf("manifest: encode: %w", err)
	}

	name := Name(m.ID)
	if err := s.blobs.Put(ctx, name, data); err != nil {
		return fmt.Errorf("manifest: write %s: %w", name, err)
	}
	if err := s.blobs.Put(ctx, CurrentName, []byte(name)); err != nil {
		return fmt.Errorf("manifest: commit %s: %w", name, err)
	}
	return nil
}

func (s *Store) marshal(m *Manifest) ([]byte, error) {
	if ind, ok := s.codec.(codec.Indenter); ok {
		return ind.MarshalIndent(m)
	}
	return s.codec.Marshal(m)
}

// Load reads the manifest with the given id.
func (s *Store) Load(ctx context.Context, id string) (*Manifest, error) {
	return s.load(ctx, Name(id))
}

// LoadCurrent reads the manifest CURRENT points at.
func (s *Store) LoadCurrent(ctx context.Context) (*Manifest, error) {
	ptr, err := blobstore.Get(ctx, s.blobs, CurrentName)
	if errors.Is(err, blobstore.ErrNotFound) {
		return nil, ErrNoManifest
	}
	if err != nil {
		return nil, fmt.Errorf("manifest: read %s: %w", CurrentName, err)
	}
	return s.load(ctx, strings.TrimSpace(string(ptr)))
}

func (s *Store) load(ctx context.Context, name string) (*Manifest, error) {
	data, err := blobstore.Get(ctx, s.blobs, name)
	if err != nil {
		return nil, fmt.Errorf("manifest: read %s: %w", name, err)
	}

	var m Manifest
	if err := s.codec.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("manifest: decode %s: %w", name, err)
	}
	if m.Version != CurrentVersion {
		return nil, fmt.Errorf("unsupported manifest version: %d (expected %d)", m.Version, CurrentVersion)
	}
	return &m, nil
}

// List returns the ids of all stored manifests in lexical order.
func (s *Store) List(ctx context.Context) ([]string, error) {
	names, err := s.blobs.List(ctx, Dir+"/")
	if err != nil {
		return nil, err
	}

	ids := make([]string, 0, len(names))
	for _, n := range names {
		base := path.Base(n)
		if id, ok := strings.CutSuffix(base, ".json"); ok {
			ids = append(ids, id)
		}
	}
	return ids, nil
}
