package filesystem

const (
	// TemporaryNamePrefix is the file name prefix used for all temporary files
	// and directories created by the engine. It may be suffixed with
	// additional elements if desired. The facade and storage walkers do not
	// treat this prefix specially: a leftover temporary file is classified
	// and dispatched like any other entry.
	TemporaryNamePrefix = ".hcs-sync-temporary-"
)
