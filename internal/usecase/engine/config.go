package engine

// Default tunables. The thresholds and the RRF constant are inherited values
// without a documented derivation; they are exposed as configuration rather
// than guessed at.
const (
	DefaultRRFConstant    = 60
	DefaultFusionAlpha    = 0.5
	DefaultMinBM25        = 0.15
	DefaultMinSemantic    = 0.35
	DefaultLimit          = 10
	DefaultMaxLimit       = 100
	DefaultEmbedBatchSize = 100
)

// Config holds the engine tunables.
type Config struct {
	// RRFConstant is the k in 1/(k + rank).
	RRFConstant int
	// FusionAlpha is the semantic weight in weighted mode, in [0,1].
	FusionAlpha float64
	// MinBM25 and MinSemantic form the relevance gate: a document survives
	// when either normalized score meets its threshold.
	MinBM25     float64
	MinSemantic float64
	// DefaultLimit applies when a query carries no limit; MaxLimit caps it.
	DefaultLimit int
	MaxLimit     int
	// EmbedBatchSize bounds texts per embedding API call.
	EmbedBatchSize int
	// EmbedModel is the embedding model identifier reported by Initialize
	// and Health.
	EmbedModel string
}

// DefaultConfig returns the standard tunables.
func DefaultConfig() Config {
	return Config{
		RRFConstant:    DefaultRRFConstant,
		FusionAlpha:    DefaultFusionAlpha,
		MinBM25:        DefaultMinBM25,
		MinSemantic:    DefaultMinSemantic,
		DefaultLimit:   DefaultLimit,
		MaxLimit:       DefaultMaxLimit,
		EmbedBatchSize: DefaultEmbedBatchSize,
	}
}

// withDefaults fills the unset integer tunables and clamps out-of-range
// floats. Float zeros pass through untouched: alpha 0 is a pure lexical
// blend and a zero threshold disables that side of the gate, so callers
// wanting the standard values start from DefaultConfig.
func (c Config) withDefaults() Config {
	d := DefaultConfig()
	if c.RRFConstant <= 0 {
		c.RRFConstant = d.RRFConstant
	}
	if c.FusionAlpha < 0 || c.FusionAlpha > 1 {
		c.FusionAlpha = d.FusionAlpha
	}
	if c.MinBM25 < 0 {
		c.MinBM25 = 0
	}
	if c.MinSemantic < 0 {
		c.MinSemantic = 0
	}
	if c.DefaultLimit <= 0 {
		c.DefaultLimit = d.DefaultLimit
	}
	if c.MaxLimit <= 0 {
		c.MaxLimit = d.MaxLimit
	}
	if c.EmbedBatchSize <= 0 {
		c.EmbedBatchSize = d.EmbedBatchSize
	}
	return c
}
