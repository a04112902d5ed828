package domain

// KeyPrefix namespaces every key this service writes to the store.
const KeyPrefix = "pdfchat:"

// Document is an uploaded PDF. Created once on upload, immutable thereafter.
type Document struct {
	ID       string
	ClientID string
	ChatMode bool // single-document "chat with this PDF" mode
}

// Chunk is one bounded retrieval unit of a document's extracted text.
// Indices form a contiguous 0-based sequence in source order.
type Chunk struct {
	DocumentID string
	Index      int
	Text       string
	Key        string // object storage key, assigned on persist
}

// Record is an append-only row in the vector store: one per chunk,
// never mutated after insert.
type Record struct {
	DocumentID string
	ChunkIndex int
	SourceKey  string
	Text       string
	Vector     []float32
	ClientID   string
	ChatMode   bool
}

// Match is a record returned from nearest-neighbor retrieval together with
// its similarity score (higher is closer).
type Match struct {
	Record
	Score float64
}

// Query is one answering request. Scope, when non-empty, restricts retrieval
// to a single document id.
type Query struct {
	Text  string
	Scope string
}

// Answer is the Responder's terminal result. SourceKey names the grounding
// chunk when the answer was grounded; it is empty for fallback answers.
type Answer struct {
	Text      string
	SourceKey string
}
