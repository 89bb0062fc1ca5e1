// Package yamlfile persists records to a single multi-document YAML file.
// The whole file is rewritten on every change through an atomic replace, so
// readers never observe a partially written store.
package yamlfile

import (
	"bufio"
	"bytes"
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/moby/sys/atomicwriter"
	"gopkg.in/yaml.v3"

	"github.com/davidbz/promptician/internal/domain"
	"github.com/davidbz/promptician/internal/observability"
)

const (
	defaultFileName = "promptician.yaml"
	filePerm        = 0o644
	dirPerm         = 0o755
	yamlIndent      = 2
)

// Config contains store settings.
type Config struct {
	Path string `env:"PROMPTICIAN_PATH"`
}

// ResolvePath returns the configured path, or promptician.yaml in the user's home directory.
func (c Config) ResolvePath() (string, error) {
	if c.Path != "" {
		return c.Path, nil
	}

	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to locate home directory: %w", err)
	}
	return filepath.Join(home, defaultFileName), nil
}

// document is the on-disk shape of a record.
type document struct {
	ID          string            `yaml:"id"`
	Prompt      string            `yaml:"prompt"`
	Completion  string            `yaml:"completion"`
	Rating      *domain.Rating    `yaml:"rating"`
	Star        *bool             `yaml:"star"`
	RawRequest  domain.RawRequest `yaml:"rawRequest"`
	RawResponse any               `yaml:"rawResponse"`
}

// Store implements the RecordStore interface. It owns the in-memory ordered
// mapping; the backing file is read once at construction.
type Store struct {
	path string

	mu    sync.RWMutex
	order []string
	items map[string]domain.Record
}

// NewStore creates a store and loads every readable record from the backing
// file. Load problems are logged and leave the store empty or partial.
func NewStore(cfg *Config) (*Store, error) {
	path, err := cfg.ResolvePath()
	if err != nil {
		return nil, err
	}

	s := &Store{
		path:  path,
		order: nil,
		items: make(map[string]domain.Record),
	}
	s.load(context.Background())

	return s, nil
}

// Path returns the backing file location.
func (s *Store) Path() string {
	return s.path
}

// Items returns a deep copy of all records, most recently inserted first.
func (s *Store) Items() []domain.Record {
	s.mu.RLock()
	defer s.mu.RUnlock()

	records := make([]domain.Record, 0, len(s.order))
	for _, id := range s.order {
		records = append(records, s.items[id].Clone())
	}
	return records
}

// Upsert replaces the record with the same id in place, or inserts it first.
// The whole store is then written to disk. A write failure is returned, but the
// in-memory state keeps the change.
func (s *Store) Upsert(ctx context.Context, record domain.Record) error {
	if record.ID == "" {
		return errors.New("record id cannot be empty")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.items[record.ID]; !exists {
		s.order = append([]string{record.ID}, s.order...)
	}
	s.items[record.ID] = record.Clone()

	if err := s.saveLocked(); err != nil {
		observability.FromContext(ctx).Error("failed to persist store",
			observability.String("path", s.path),
			observability.Error(err))
		return err
	}

	observability.FromContext(ctx).Debug("store persisted",
		observability.String("record_id", record.ID),
		observability.Int("records", len(s.order)))
	return nil
}

func (s *Store) saveLocked() error {
	data, err := encodeDocuments(s.order, s.items)
	if err != nil {
		return err
	}

	if err := os.MkdirAll(filepath.Dir(s.path), dirPerm); err != nil {
		return fmt.Errorf("failed to create store directory: %w", err)
	}

	if err := atomicwriter.WriteFile(s.path, data, filePerm); err != nil {
		return fmt.Errorf("failed to write store file: %w", err)
	}
	return nil
}

func (s *Store) load(ctx context.Context) {
	logger := observability.FromContext(ctx).With(observability.String("path", s.path))

	data, err := os.ReadFile(s.path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			logger.Info("store file not found, starting empty")
			return
		}
		logger.Error("failed to read store file, starting empty", observability.Error(err))
		return
	}

	chunks, err := splitDocuments(data)
	if err != nil {
		logger.Error("failed to split store file, starting empty", observability.Error(err))
		return
	}

	for i, chunk := range chunks {
		record, ok, decodeErr := decodeDocument(chunk)
		if decodeErr != nil {
			logger.Warn("skipping malformed record",
				observability.Int("document", i),
				observability.Error(decodeErr))
			continue
		}
		if !ok {
			continue
		}

		if _, exists := s.items[record.ID]; exists {
			logger.Warn("duplicate record id, keeping last", observability.String("record_id", record.ID))
		} else {
			s.order = append(s.order, record.ID)
		}
		s.items[record.ID] = record
	}

	logger.Info("store loaded", observability.Int("records", len(s.order)))
}

func encodeDocuments(order []string, items map[string]domain.Record) ([]byte, error) {
	var buf bytes.Buffer
	enc := yaml.NewEncoder(&buf)
	enc.SetIndent(yamlIndent)

	for _, id := range order {
		var node yaml.Node
		if err := node.Encode(toDocument(items[id])); err != nil {
			return nil, fmt.Errorf("failed to encode record %s: %w", id, err)
		}
		quoteLeadingNewlines(&node)

		if err := enc.Encode(&node); err != nil {
			return nil, fmt.Errorf("failed to encode record %s: %w", id, err)
		}
	}
	if err := enc.Close(); err != nil {
		return nil, fmt.Errorf("failed to encode store: %w", err)
	}

	return buf.Bytes(), nil
}

// quoteLeadingNewlines switches strings starting with a line break to double
// quotes. The encoder would emit them as literal blocks and lose the first
// line break on the way back in.
func quoteLeadingNewlines(node *yaml.Node) {
	if node.Kind == yaml.ScalarNode && node.ShortTag() == "!!str" && strings.HasPrefix(node.Value, "\n") {
		node.Style = yaml.DoubleQuotedStyle
	}
	for _, child := range node.Content {
		quoteLeadingNewlines(child)
	}
}

// splitDocuments cuts a YAML stream at its document markers so that each
// document is parsed on its own and one bad document cannot hide the others.
func splitDocuments(data []byte) ([][]byte, error) {
	var (
		chunks  [][]byte
		current bytes.Buffer
	)

	flush := func() {
		if strings.TrimSpace(current.String()) != "" {
			chunks = append(chunks, bytes.Clone(current.Bytes()))
		}
		current.Reset()
	}

	scanner := bufio.NewScanner(bytes.NewReader(data))
	scanner.Buffer(make([]byte, 0, 64*1024), len(data)+1)
	for scanner.Scan() {
		line := scanner.Text()
		trimmed := strings.TrimRight(line, " \t\r")
		if trimmed == "---" || trimmed == "..." || strings.HasPrefix(trimmed, "--- ") {
			flush()
			continue
		}
		current.WriteString(line)
		current.WriteByte('\n')
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("failed to scan store file: %w", err)
	}
	flush()

	return chunks, nil
}

// decodeDocument parses one document. ok is false for an empty document.
func decodeDocument(chunk []byte) (domain.Record, bool, error) {
	var doc *document
	if err := yaml.Unmarshal(chunk, &doc); err != nil {
		return domain.Record{}, false, err
	}
	if doc == nil {
		return domain.Record{}, false, nil
	}

	if doc.ID == "" {
		return domain.Record{}, false, errors.New("record has no id")
	}

	if doc.Rating != nil {
		if _, err := domain.ParseRating(string(*doc.Rating)); err != nil {
			return domain.Record{}, false, err
		}
	}

	var rawResponse map[string]any
	switch v := doc.RawResponse.(type) {
	case nil:
	case map[string]any:
		rawResponse = v
	default:
		return domain.Record{}, false, fmt.Errorf("rawResponse is %T, not a mapping", v)
	}

	return domain.Record{
		ID:          doc.ID,
		Prompt:      doc.Prompt,
		Completion:  doc.Completion,
		Rating:      doc.Rating,
		Star:        doc.Star,
		RawRequest:  doc.RawRequest,
		RawResponse: rawResponse,
	}, true, nil
}

func toDocument(record domain.Record) document {
	var rawResponse any
	if record.RawResponse != nil {
		rawResponse = record.RawResponse
	}

	return document{
		ID:          record.ID,
		Prompt:      record.Prompt,
		Completion:  record.Completion,
		Rating:      record.Rating,
		Star:        record.Star,
		RawRequest:  record.RawRequest,
		RawResponse: rawResponse,
	}
}
