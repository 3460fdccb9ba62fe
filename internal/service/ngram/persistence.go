package ngram

import (
	"encoding/gob"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

const snapshotVersion = "1.0"

// SerializableModel is the on-disk form of a ConditionalModel. Only counts and
// configuration are stored; the smoother is re-derived on load.
type SerializableModel struct {
	Version        string
	ID             string
	Name           string
	CreatedAt      time.Time
	N              int
	Smoothing      SmoothingConfig
	VocabularySize int
	NGramCounts    map[string]int64 // order n key -> count
	ContextCounts  map[string]int64 // order n-1 key -> count
}

// Snapshot captures a model for persistence
func Snapshot(name string, m *ConditionalModel) *SerializableModel {
	return &SerializableModel{
		Version:        snapshotVersion,
		ID:             uuid.NewString(),
		Name:           name,
		CreatedAt:      time.Now(),
		N:              m.order,
		Smoothing:      m.config,
		VocabularySize: m.vocabularySize,
		NGramCounts:    m.counts.Counts(),
		ContextCounts:  m.contexts.Counts(),
	}
}

// Restore rebuilds the model. Identical snapshots yield observably identical models.
func (s *SerializableModel) Restore() (*ConditionalModel, error) {
	if s.Version != snapshotVersion {
		return nil, fmt.Errorf("unsupported snapshot version %q", s.Version)
	}
	counts, err := TableFromCounts(s.N, s.NGramCounts)
	if err != nil {
		return nil, fmt.Errorf("failed to restore n-gram counts: %w", err)
	}
	contexts, err := TableFromCounts(s.N-1, s.ContextCounts)
	if err != nil {
		return nil, fmt.Errorf("failed to restore context counts: %w", err)
	}
	return NewModelFromTables(counts, contexts, s.Smoothing, s.VocabularySize)
}

// ModelStore handles saving and loading n-gram models
type ModelStore struct {
	outputDir string
	logger    *zap.Logger
}

// NewModelStore creates a store rooted at outputDir
func NewModelStore(outputDir string, logger *zap.Logger) (*ModelStore, error) {
	if err := os.MkdirAll(outputDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create output directory: %w", err)
	}
	return &ModelStore{
		outputDir: outputDir,
		logger:    logger,
	}, nil
}

// GetModelPath returns the file path for a named model
func (p *ModelStore) GetModelPath(name string) string {
	return filepath.Join(p.outputDir, fmt.Sprintf("%s_ngram.gob", name))
}

// Save writes a model snapshot and returns its ID
func (p *ModelStore) Save(name string, m *ConditionalModel) (string, error) {
	snap := Snapshot(name, m)
	path := p.GetModelPath(name)
	if err := p.saveToFile(snap, path); err != nil {
		return "", fmt.Errorf("failed to save to file: %w", err)
	}

	p.logger.Info("Saved n-gram model",
		zap.String("name", name),
		zap.String("id", snap.ID),
		zap.String("path", path),
		zap.Int("n", snap.N),
		zap.Int("ngrams", len(snap.NGramCounts)))

	return snap.ID, nil
}

// Load reads and restores a named model
func (p *ModelStore) Load(name string) (*ConditionalModel, error) {
	path := p.GetModelPath(name)
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return nil, fmt.Errorf("no saved model found: %s", name)
	}

	snap, err := p.loadFromFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to load from file: %w", err)
	}
	m, err := snap.Restore()
	if err != nil {
		return nil, err
	}
	WarnFallbacks(name, m, p.logger)

	p.logger.Info("Loaded n-gram model",
		zap.String("name", name),
		zap.String("id", snap.ID),
		zap.String("path", path),
		zap.Int("n", snap.N),
		zap.String("smoother", m.Smoother().Name()))

	return m, nil
}

// ModelExists checks if a saved model exists
func (p *ModelStore) ModelExists(name string) bool {
	_, err := os.Stat(p.GetModelPath(name))
	return err == nil
}

// DeleteModel deletes a saved model
func (p *ModelStore) DeleteModel(name string) error {
	if err := os.Remove(p.GetModelPath(name)); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("failed to delete model: %w", err)
	}
	p.logger.Info("Deleted n-gram model", zap.String("name", name))
	return nil
}

func (p *ModelStore) saveToFile(model *SerializableModel, path string) error {
	file, err := os.Create(path)
	if err != nil {
		return err
	}
	defer file.Close()

	return gob.NewEncoder(file).Encode(model)
}

func (p *ModelStore) loadFromFile(path string) (*SerializableModel, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer file.Close()

	var model SerializableModel
	if err := gob.NewDecoder(file).Decode(&model); err != nil {
		return nil, err
	}
	return &model, nil
}
