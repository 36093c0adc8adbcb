package domain

// HealthStatus is the introspection view of the query service.
type HealthStatus struct {
	// Status is "ok" when the process is serving.
	Status string

	// IndexPresent reports whether the persisted vector file exists.
	IndexPresent bool

	// MetadataPresent reports whether the persisted metadata file exists.
	MetadataPresent bool

	// Ready reports whether an index/metadata/provider triple is resident.
	Ready bool

	// Rows is the resident row count (zero when not ready).
	Rows int

	// Dimension is the resident vector dimensionality (zero when not ready).
	Dimension int

	// ProviderID identifies the configured embedding provider.
	ProviderID string

	// LastReindex is the most recent run, nil when none has been recorded.
	LastReindex *ReindexRun
}
