package driven

// ProgressReporter receives bulk embedding progress during a reindex.
type ProgressReporter interface {
	// Start announces the number of records to embed.
	Start(total int)

	// Add reports n more records embedded.
	Add(n int)

	// Finish ends reporting, whether or not the run succeeded.
	Finish()
}
