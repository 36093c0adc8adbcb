package services

import (
	"fmt"
	"os"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/custodia-labs/kbquery/internal/core/domain"
	"github.com/custodia-labs/kbquery/internal/core/ports/driven"
	"github.com/custodia-labs/kbquery/internal/core/ports/driving"
)

// Ensure SettingsService implements the interface.
var _ driving.SettingsService = (*SettingsService)(nil)

// EnvPrefix prefixes environment overrides: embedding.api_key is KBQ_EMBEDDING_API_KEY.
const EnvPrefix = "KBQ_"

// Config keys for settings storage.
//
//nolint:gosec // G101: These are config key names, not actual credentials.
const (
	keyIndexPath       = "index.path"
	keyIndexMetaPath   = "index.meta_path"
	keyIndexSourcePath = "index.source_path"
	keyChunkSize       = "chunk.size"
	keyChunkOverlap    = "chunk.overlap"
	keyQueryTopK       = "query.top_k"
	keyEmbedProvider   = "embedding.provider"
	keyEmbedModel      = "embedding.model"
	keyEmbedBaseURL    = "embedding.base_url"
	keyEmbedAPIKey     = "embedding.api_key"
	keyEmbedDims       = "embedding.dimensions"
	keyEmbedSeed       = "embedding.seed"
	keyEmbedTimeout    = "embedding.timeout_seconds"
	keyEmbedBatchSize  = "embedding.batch_size"
	keyEmbedRateLimit  = "embedding.rate_limit"
	keyServerAddr      = "server.addr"
	keyHistoryDir      = "history.dir"
)

type valueKind int

const (
	kindString valueKind = iota
	kindInt
	kindFloat
)

var settingKinds = map[string]valueKind{
	keyIndexPath:       kindString,
	keyIndexMetaPath:   kindString,
	keyIndexSourcePath: kindString,
	keyChunkSize:       kindInt,
	keyChunkOverlap:    kindInt,
	keyQueryTopK:       kindInt,
	keyEmbedProvider:   kindString,
	keyEmbedModel:      kindString,
	keyEmbedBaseURL:    kindString,
	keyEmbedAPIKey:     kindString,
	keyEmbedDims:       kindInt,
	keyEmbedSeed:       kindInt,
	keyEmbedTimeout:    kindFloat,
	keyEmbedBatchSize:  kindInt,
	keyEmbedRateLimit:  kindFloat,
	keyServerAddr:      kindString,
	keyHistoryDir:      kindString,
}

// SettingsService resolves settings from defaults, the config store and
// the environment, in increasing precedence.
type SettingsService struct {
	configStore driven.ConfigStore
	lookupEnv   func(string) (string, bool)
}

// NewSettingsService creates a new settings service.
func NewSettingsService(configStore driven.ConfigStore) *SettingsService {
	return &SettingsService{
		configStore: configStore,
		lookupEnv:   os.LookupEnv,
	}
}

// SetEnvLookup replaces the environment source.
func (s *SettingsService) SetEnvLookup(lookup func(string) (string, bool)) {
	s.lookupEnv = lookup
}

// EnvName returns the environment variable overriding key.
func EnvName(key string) string {
	return EnvPrefix + strings.ToUpper(strings.ReplaceAll(key, ".", "_"))
}

// Keys returns every recognised setting key in sorted order.
func (s *SettingsService) Keys() []string {
	keys := make([]string, 0, len(settingKinds))
	for k := range settingKinds {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Get returns the effective settings. A malformed environment value is an error.
func (s *SettingsService) Get() (*domain.AppSettings, error) {
	r := resolver{s: s}
	d := domain.DefaultAppSettings()

	settings := &domain.AppSettings{
		Index: domain.IndexSettings{
			Path:       r.str(keyIndexPath, d.Index.Path),
			MetaPath:   r.str(keyIndexMetaPath, d.Index.MetaPath),
			SourcePath: r.str(keyIndexSourcePath, d.Index.SourcePath),
		},
		Chunk: domain.ChunkSettings{
			Size:    r.integer(keyChunkSize, d.Chunk.Size),
			Overlap: r.integer(keyChunkOverlap, d.Chunk.Overlap),
		},
		Embedding: domain.EmbeddingSettings{
			Provider:   domain.EmbeddingProvider(r.str(keyEmbedProvider, d.Embedding.Provider.String())),
			Model:      r.str(keyEmbedModel, d.Embedding.Model),
			BaseURL:    r.str(keyEmbedBaseURL, d.Embedding.BaseURL),
			APIKey:     r.str(keyEmbedAPIKey, d.Embedding.APIKey),
			Dimensions: r.integer(keyEmbedDims, d.Embedding.Dimensions),
			Seed:       int64(r.integer(keyEmbedSeed, int(d.Embedding.Seed))),
			Timeout:    seconds(r.float(keyEmbedTimeout, d.Embedding.Timeout.Seconds())),
			BatchSize:  r.integer(keyEmbedBatchSize, d.Embedding.BatchSize),
			RateLimit:  r.float(keyEmbedRateLimit, d.Embedding.RateLimit),
		},
		Query: domain.QuerySettings{
			TopK: r.integer(keyQueryTopK, d.Query.TopK),
		},
		Server: domain.ServerSettings{
			Addr: r.str(keyServerAddr, d.Server.Addr),
		},
		History: domain.HistorySettings{
			Dir: r.str(keyHistoryDir, d.History.Dir),
		},
	}

	if r.err != nil {
		return nil, r.err
	}
	return settings, nil
}

// Set parses value according to the key's type and stores it.
func (s *SettingsService) Set(key, value string) error {
	kind, ok := settingKinds[key]
	if !ok {
		return fmt.Errorf("%w: unknown setting %q", domain.ErrInvalidInput, key)
	}

	typed, err := parseValue(kind, value)
	if err != nil {
		return fmt.Errorf("%w: %s: %w", domain.ErrInvalidInput, key, err)
	}
	if key == keyEmbedProvider && !domain.EmbeddingProvider(value).IsValid() {
		return fmt.Errorf("%w: embedding.provider %q", domain.ErrUnsupportedType, value)
	}

	if err := s.configStore.Set(key, typed); err != nil {
		return fmt.Errorf("save %s: %w", key, err)
	}
	return nil
}

func parseValue(kind valueKind, value string) (any, error) {
	value = strings.TrimSpace(value)
	switch kind {
	case kindInt:
		return strconv.Atoi(value)
	case kindFloat:
		return strconv.ParseFloat(value, 64)
	default:
		return value, nil
	}
}

func seconds(f float64) time.Duration {
	return time.Duration(f * float64(time.Second))
}

// resolver looks keys up with env > store > default and keeps the first error.
type resolver struct {
	s   *SettingsService
	err error
}

func (r *resolver) env(key string) (string, bool) {
	if r.s.lookupEnv == nil {
		return "", false
	}
	return r.s.lookupEnv(EnvName(key))
}

func (r *resolver) str(key, def string) string {
	if v, ok := r.env(key); ok {
		return v
	}
	if v := r.s.configStore.GetString(key); v != "" {
		return v
	}
	return def
}

func (r *resolver) integer(key string, def int) int {
	if v, ok := r.env(key); ok {
		n, err := strconv.Atoi(strings.TrimSpace(v))
		if err != nil {
			r.fail(key, v)
			return def
		}
		return n
	}
	if _, ok := r.s.configStore.Get(key); ok {
		return r.s.configStore.GetInt(key)
	}
	return def
}

func (r *resolver) float(key string, def float64) float64 {
	if v, ok := r.env(key); ok {
		f, err := strconv.ParseFloat(strings.TrimSpace(v), 64)
		if err != nil {
			r.fail(key, v)
			return def
		}
		return f
	}
	if _, ok := r.s.configStore.Get(key); ok {
		return r.s.configStore.GetFloat(key)
	}
	return def
}

func (r *resolver) fail(key, value string) {
	if r.err == nil {
		r.err = fmt.Errorf("%w: %s=%q is not a number", domain.ErrInvalidInput, EnvName(key), value)
	}
}
