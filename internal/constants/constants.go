package constants

const (
	DefaultHost       = "localhost"
	DefaultPort       = 1337
	DefaultModel      = "all-mpnet-base-v2"
	DefaultVectorSize = 768

	// DefaultPoolWorkers matches the CPU fallback of sentence-transformers' multi-process pool.
	DefaultPoolWorkers = 4

	DefaultHTTPTimeoutSeconds = 300
	DefaultDBFile             = "corpus_embeddings.db"
	DefaultLogLevel           = "info"

	// AutoPoolThreshold is the total character count at which a batch moves to the pool.
	AutoPoolThreshold = 10 * 1000

	EmbedDocumentsPath = "/embed-documents"
)
