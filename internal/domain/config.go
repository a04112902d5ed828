package domain

// VectorConfig holds internal vectorization settings, not exposed to clients.
type VectorConfig struct {
	Model          string
	Dimensions     int
	DistanceMetric string
}

// DefaultVectorConfig is the embedding setup used when config leaves the
// fields empty: text-embedding-3-large truncated to 1024 dimensions, cosine
// distance.
func DefaultVectorConfig() VectorConfig {
	return VectorConfig{
		Model:          "text-embedding-3-large",
		Dimensions:     1024,
		DistanceMetric: "cosine",
	}
}
