// Package sources resolves a YAML source manifest into document texts.
//
// A manifest lists sources with provenance and the local files holding
// their already-extracted text:
//
//	sources:
//	  - name: visas
//	    url: https://travel.example.org/visas
//	    region: CO
//	    date: 2025-01-15
//	    paths: ["pages/visas/**/*.md"]
//
// Globs use doublestar syntax and are relative to the manifest's directory.
package sources

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/bmatcuk/doublestar/v4"
	"gopkg.in/yaml.v3"

	"github.com/custodia-labs/kbquery/internal/core/domain"
	"github.com/custodia-labs/kbquery/internal/core/ports/driven"
	"github.com/custodia-labs/kbquery/internal/logger"
	"github.com/custodia-labs/kbquery/internal/normalisers"
)

// Ensure ManifestLoader implements the interface.
var _ driven.SourceLoader = (*ManifestLoader)(nil)

// Manifest is the YAML document.
type Manifest struct {
	Sources []Source `yaml:"sources"`
}

// Source is one manifest entry.
type Source struct {
	Name   string   `yaml:"name"`
	URL    string   `yaml:"url"`
	Region string   `yaml:"region"`
	Title  string   `yaml:"title"`
	Date   string   `yaml:"date"`
	Paths  []string `yaml:"paths"`
}

// ManifestLoader reads manifests and the files they reference.
type ManifestLoader struct {
	registry *normalisers.Registry
}

// NewManifestLoader creates a loader that decodes files with registry.
func NewManifestLoader(registry *normalisers.Registry) *ManifestLoader {
	return &ManifestLoader{registry: registry}
}

// ParseManifest decodes and checks a manifest.
func ParseManifest(data []byte) (*Manifest, error) {
	var m Manifest
	if err := yaml.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("%w: manifest: %w", domain.ErrInvalidInput, err)
	}
	for i, src := range m.Sources {
		if len(src.Paths) == 0 {
			return nil, fmt.Errorf("%w: manifest source %d (%s) has no paths", domain.ErrInvalidInput, i, src.Name)
		}
		for _, p := range src.Paths {
			if !doublestar.ValidatePattern(filepath.ToSlash(p)) {
				return nil, fmt.Errorf("%w: manifest source %d: bad glob %q", domain.ErrInvalidInput, i, p)
			}
		}
	}
	return &m, nil
}

// LoadSources resolves every entry of the manifest at manifestPath.
// Files that match no normaliser or fail to decode are skipped with a warning.
func (l *ManifestLoader) LoadSources(ctx context.Context, manifestPath string) ([]domain.SourceText, error) {
	data, err := os.ReadFile(manifestPath)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("%w: manifest %s", domain.ErrNotFound, manifestPath)
		}
		return nil, fmt.Errorf("read manifest: %w", err)
	}

	manifest, err := ParseManifest(data)
	if err != nil {
		return nil, err
	}

	baseDir := filepath.Dir(manifestPath)
	var texts []domain.SourceText
	for _, src := range manifest.Sources {
		files, err := expand(baseDir, src.Paths)
		if err != nil {
			return nil, fmt.Errorf("source %s: %w", src.Name, err)
		}
		if len(files) == 0 {
			logger.Warn("sources: %s matched no files", src.Name)
			continue
		}

		date := parseDate(src.Date)
		for _, file := range files {
			if err := ctx.Err(); err != nil {
				return nil, err
			}
			text, ok := l.loadFile(ctx, baseDir, file, src, len(files) > 1)
			if !ok {
				continue
			}
			text.DateFetched = date
			texts = append(texts, text)
		}
	}
	return texts, nil
}

func (l *ManifestLoader) loadFile(
	ctx context.Context, baseDir, file string, src Source, many bool,
) (domain.SourceText, bool) {
	n, ok := l.registry.For(file)
	if !ok {
		logger.Warn("sources: no normaliser for %s", file)
		return domain.SourceText{}, false
	}

	content, err := os.ReadFile(file)
	if err != nil {
		logger.Warn("sources: reading %s: %v", file, err)
		return domain.SourceText{}, false
	}

	result, err := n.Normalise(ctx, file, content)
	if err != nil {
		logger.Warn("sources: decoding %s: %v", file, err)
		return domain.SourceText{}, false
	}

	title := src.Title
	if title == "" {
		title = result.Title
	}

	return domain.SourceText{
		Text:     result.Text,
		SourceID: sourceID(baseDir, file, src.URL, many),
		Region:   src.Region,
		Title:    title,
	}, true
}

// expand resolves globs to a sorted, de-duplicated file list.
func expand(baseDir string, patterns []string) ([]string, error) {
	seen := make(map[string]struct{})
	var files []string
	for _, pattern := range patterns {
		if !filepath.IsAbs(pattern) {
			pattern = filepath.Join(baseDir, pattern)
		}
		matches, err := doublestar.FilepathGlob(pattern, doublestar.WithFilesOnly())
		if err != nil {
			return nil, fmt.Errorf("glob %q: %w", pattern, err)
		}
		for _, m := range matches {
			if _, dup := seen[m]; dup {
				continue
			}
			seen[m] = struct{}{}
			files = append(files, m)
		}
	}
	sort.Strings(files)
	return files, nil
}

// sourceID picks the document identifier. A source URL names a single file
// directly; with several files each gets the URL plus its relative path.
// Without a URL the file itself is the identifier.
func sourceID(baseDir, file, base string, many bool) string {
	if base == "" {
		abs, err := filepath.Abs(file)
		if err != nil {
			abs = file
		}
		return (&url.URL{Scheme: "file", Path: filepath.ToSlash(abs)}).String()
	}
	if !many {
		return base
	}
	rel, err := filepath.Rel(baseDir, file)
	if err != nil {
		rel = filepath.Base(file)
	}
	return strings.TrimRight(base, "/") + "/" + filepath.ToSlash(rel)
}

func parseDate(s string) time.Time {
	if s == "" {
		return time.Time{}
	}
	if t, err := time.Parse(domain.DateLayout, s); err == nil {
		return t
	}
	logger.Warn("sources: ignoring malformed date %q", s)
	return time.Time{}
}
