package file

import (
	"bufio"
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/custodia-labs/kbquery/internal/adapters/driven/vector/flat"
	"github.com/custodia-labs/kbquery/internal/core/domain"
	"github.com/custodia-labs/kbquery/internal/core/ports/driven"
)

// Ensure IndexStore implements the interface.
var _ driven.IndexStore = (*IndexStore)(nil)

// metaLine is one metadata row. Text is carried so results can be shown
// without going back to the source records.
type metaLine struct {
	ID          string `json:"id"`
	SourceURL   string `json:"source_url"`
	Region      string `json:"region"`
	DateFetched string `json:"date_fetched"`
	Title       string `json:"title,omitempty"`
	Text        string `json:"text,omitempty"`
}

// pairMagic opens every index file. It is followed by the SHA-256 of the
// metadata file the index was saved with, then the encoded vectors.
var pairMagic = []byte("KBQ1")

const headerLen = 4 + sha256.Size

// IndexStore persists a flat index and its metadata as two files. The index
// header binds it to one exact metadata file, so a pair mixed from two saves
// is refused on load.
type IndexStore struct {
	indexPath string
	metaPath  string

	// write replaces a file; tests swap it to inject failures.
	write func(path string, data []byte, perm os.FileMode) error
}

// NewIndexStore creates a store for the given file pair.
func NewIndexStore(indexPath, metaPath string) *IndexStore {
	return &IndexStore{indexPath: indexPath, metaPath: metaPath, write: writeFileAtomic}
}

// IndexPath returns the vector file path.
func (s *IndexStore) IndexPath() string { return s.indexPath }

// MetaPath returns the metadata file path.
func (s *IndexStore) MetaPath() string { return s.metaPath }

// Save writes the index and then the metadata. Both are encoded before either
// file is touched. If the metadata cannot be written the previous index file
// is put back, so the files on disk stay a matched pair.
func (s *IndexStore) Save(ctx context.Context, index driven.VectorIndex, metas []domain.ChunkRecord) error {
	if index.Len() != len(metas) {
		return fmt.Errorf("%w: index has %d rows, metadata has %d",
			domain.ErrInconsistentIndex, index.Len(), len(metas))
	}

	vectors, err := index.MarshalBinary()
	if err != nil {
		return fmt.Errorf("encode index: %w", err)
	}

	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	for i := range metas {
		if err := enc.Encode(toMetaLine(metas[i])); err != nil {
			return fmt.Errorf("encode metadata row %d: %w", i, err)
		}
	}

	meta := buf.Bytes()
	digest := sha256.Sum256(meta)
	indexFile := make([]byte, 0, headerLen+len(vectors))
	indexFile = append(indexFile, pairMagic...)
	indexFile = append(indexFile, digest[:]...)
	indexFile = append(indexFile, vectors...)

	if err := ctx.Err(); err != nil {
		return err
	}

	previous, err := os.ReadFile(s.indexPath)
	if err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("read previous index: %w", err)
	}
	hadPrevious := err == nil

	if err := s.write(s.indexPath, indexFile, 0644); err != nil {
		return fmt.Errorf("save index: %w", err)
	}
	if err := s.write(s.metaPath, meta, 0644); err != nil {
		return errors.Join(fmt.Errorf("save metadata: %w", err), s.restoreIndex(previous, hadPrevious))
	}
	return nil
}

// restoreIndex puts the index file back the way it was before a failed save.
func (s *IndexStore) restoreIndex(previous []byte, hadPrevious bool) error {
	if !hadPrevious {
		if err := os.Remove(s.indexPath); err != nil && !errors.Is(err, os.ErrNotExist) {
			return fmt.Errorf("remove partial index: %w", err)
		}
		return nil
	}
	if err := s.write(s.indexPath, previous, 0644); err != nil {
		return fmt.Errorf("restore previous index: %w", err)
	}
	return nil
}

// Load reads both files. A missing file is domain.ErrIndexUnavailable; an
// index whose header does not match the metadata file is
// domain.ErrInconsistentIndex.
func (s *IndexStore) Load(ctx context.Context) (driven.VectorIndex, []domain.ChunkRecord, error) {
	data, err := os.ReadFile(s.indexPath)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, nil, fmt.Errorf("%w: index file %s is missing", domain.ErrIndexUnavailable, s.indexPath)
		}
		return nil, nil, fmt.Errorf("read index: %w", err)
	}
	if len(data) < headerLen || !bytes.Equal(data[:len(pairMagic)], pairMagic) {
		return nil, nil, fmt.Errorf("%w: index file %s has no pair header, reindex to rebuild it",
			domain.ErrInconsistentIndex, s.indexPath)
	}

	meta, err := os.ReadFile(s.metaPath)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, nil, fmt.Errorf("%w: metadata file %s is missing", domain.ErrIndexUnavailable, s.metaPath)
		}
		return nil, nil, fmt.Errorf("read metadata: %w", err)
	}
	if digest := sha256.Sum256(meta); !bytes.Equal(digest[:], data[len(pairMagic):headerLen]) {
		return nil, nil, fmt.Errorf("%w: %s was not saved together with %s",
			domain.ErrInconsistentIndex, s.metaPath, s.indexPath)
	}

	index, err := flat.Decode(data[headerLen:])
	if err != nil {
		return nil, nil, fmt.Errorf("decode index %s: %w", s.indexPath, err)
	}

	if err := ctx.Err(); err != nil {
		return nil, nil, err
	}

	metas, err := decodeMeta(meta)
	if err != nil {
		return nil, nil, err
	}
	return index, metas, nil
}

func decodeMeta(data []byte) ([]domain.ChunkRecord, error) {
	metas := make([]domain.ChunkRecord, 0)
	scanner := bufio.NewScanner(bytes.NewReader(data))
	scanner.Buffer(make([]byte, 64*1024), maxLineBytes)
	row := 0
	for scanner.Scan() {
		line := bytes.TrimSpace(scanner.Bytes())
		if len(line) == 0 {
			continue
		}
		var m metaLine
		if err := json.Unmarshal(line, &m); err != nil {
			return nil, fmt.Errorf("%w: metadata row %d: %w", domain.ErrInconsistentIndex, row, err)
		}
		rec, err := fromMetaLine(m)
		if err != nil {
			return nil, fmt.Errorf("%w: metadata row %d: %w", domain.ErrInconsistentIndex, row, err)
		}
		metas = append(metas, rec)
		row++
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("read metadata: %w", err)
	}
	return metas, nil
}

// Exists reports which of the two files are present.
func (s *IndexStore) Exists() (bool, bool) {
	return fileExists(s.indexPath), fileExists(s.metaPath)
}

func toMetaLine(r domain.ChunkRecord) metaLine {
	raw := r.Raw()
	return metaLine{
		ID:          raw.ID,
		SourceURL:   raw.SourceURL,
		Region:      raw.Region,
		DateFetched: raw.DateFetched,
		Title:       raw.Title,
		Text:        raw.Text,
	}
}

func fromMetaLine(m metaLine) (domain.ChunkRecord, error) {
	var date time.Time
	if m.DateFetched != "" {
		d, err := time.Parse(domain.DateLayout, m.DateFetched)
		if err != nil {
			return domain.ChunkRecord{}, fmt.Errorf("date_fetched %q: %w", m.DateFetched, err)
		}
		date = d
	}
	return domain.ChunkRecord{
		ID:          m.ID,
		SourceID:    m.SourceURL,
		Region:      m.Region,
		Title:       m.Title,
		Text:        m.Text,
		DateFetched: date,
	}, nil
}
