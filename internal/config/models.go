package config

// EmbeddingConfig represents the shared embedding configuration
type EmbeddingConfig struct {
	Provider    string
	Dimensions  int
	BatchSize   int
	MaxTextSize int
}

// OpenAIConfig represents the configuration for OpenAI embeddings
type OpenAIConfig struct {
	APIKey    string
	ModelName string
}

// GeminiConfig represents the configuration for Google Gemini embeddings
type GeminiConfig struct {
	APIKey    string
	ModelName string
}

// BedrockConfig represents the configuration for Amazon Bedrock embeddings
type BedrockConfig struct {
	Region  string
	ModelID string
}

// IndexConfig represents the vector index configuration
type IndexConfig struct {
	Type string
	Path string
}

// RetrievalConfig represents the retrieval service tuning knobs
type RetrievalConfig struct {
	DefaultLimit           int
	NearDuplicateThreshold float64
	MinWordCount           int
	EffectivenessWeight    float64
}

// GetEmbedding returns the embedding configuration
func (c *Config) GetEmbedding() EmbeddingConfig {
	return EmbeddingConfig{
		Provider:    c.GetString("embedding.provider"),
		Dimensions:  c.GetInt("embedding.dimensions"),
		BatchSize:   c.GetInt("embedding.batch_size"),
		MaxTextSize: c.GetInt("embedding.max_text_size"),
	}
}

// GetOpenAI returns the OpenAI configuration
func (c *Config) GetOpenAI() OpenAIConfig {
	return OpenAIConfig{
		APIKey:    c.GetString("openai.api_key"),
		ModelName: c.GetString("openai.model_name"),
	}
}

// GetGemini returns the Gemini configuration
func (c *Config) GetGemini() GeminiConfig {
	return GeminiConfig{
		APIKey:    c.GetString("gemini.api_key"),
		ModelName: c.GetString("gemini.model_name"),
	}
}

// GetBedrock returns the Bedrock configuration
func (c *Config) GetBedrock() BedrockConfig {
	return BedrockConfig{
		Region:  c.GetString("bedrock.region"),
		ModelID: c.GetString("bedrock.model_id"),
	}
}

// GetIndex returns the vector index configuration
func (c *Config) GetIndex() IndexConfig {
	return IndexConfig{
		Type: c.GetString("index.type"),
		Path: c.GetString("index.path"),
	}
}

// UsageConfig represents the usage tracking store configuration
type UsageConfig struct {
	Store            string
	SQLitePath       string
	MySQLDSN         string
	OfferTTL         string
	CleanupFrequency string
}

// GetUsage returns the usage tracking configuration
func (c *Config) GetUsage() UsageConfig {
	return UsageConfig{
		Store:            c.GetString("usage.store"),
		SQLitePath:       c.GetString("usage.sqlite_path"),
		MySQLDSN:         c.GetString("usage.mysql_dsn"),
		OfferTTL:         c.GetString("usage.offer_ttl"),
		CleanupFrequency: c.GetString("usage.cleanup_frequency"),
	}
}

// GetRelationshipOverrides returns the configured relationship override
// entries
func (c *Config) GetRelationshipOverrides() []string {
	return c.GetStringSlice("relationships.overrides")
}

// GetRetrieval returns the retrieval configuration
func (c *Config) GetRetrieval() RetrievalConfig {
	return RetrievalConfig{
		DefaultLimit:           c.GetInt("retrieval.default_limit"),
		NearDuplicateThreshold: c.GetFloat64("retrieval.near_duplicate_threshold"),
		MinWordCount:           c.GetInt("retrieval.min_word_count"),
		EffectivenessWeight:    c.GetFloat64("retrieval.effectiveness_weight"),
	}
}
