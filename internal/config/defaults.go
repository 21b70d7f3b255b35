package config

// Default model identifiers. The sentiment model name is part of the /health
// contract, so it lives here rather than in the sentiment package.
const (
	DefaultEmbeddingModelName = "sentence-transformers/all-MiniLM-L6-v2"
	DefaultSentimentModelName = "distilbert-base-uncased-finetuned-sst-2-english"
)

// ApplyDefaults sets default values for any zero values in cfg.
func ApplyDefaults(cfg *Config) {
	if cfg.Server.Host == "" {
		cfg.Server.Host = "0.0.0.0"
	}
	if cfg.Server.Port == 0 {
		cfg.Server.Port = 8000
	}
	if cfg.Store.Path == "" {
		cfg.Store.Path = "data/kb.db"
	}
	if cfg.Store.Collection == "" {
		cfg.Store.Collection = "products"
	}
	if cfg.Embedding.ModelPath == "" {
		cfg.Embedding.ModelPath = "models/all-MiniLM-L6-v2.onnx"
	}
	if cfg.Embedding.Dimensions == 0 {
		cfg.Embedding.Dimensions = 384
	}
	if cfg.Embedding.MaxTokens == 0 {
		cfg.Embedding.MaxTokens = 256
	}
	if cfg.Embedding.CacheSize == 0 {
		cfg.Embedding.CacheSize = 10000
	}
	if cfg.Sentiment.ModelPath == "" {
		cfg.Sentiment.ModelPath = "models/distilbert-sst2.onnx"
	}
	if cfg.Sentiment.ModelName == "" {
		cfg.Sentiment.ModelName = DefaultSentimentModelName
	}
	if cfg.Sentiment.MaxTokens == 0 {
		cfg.Sentiment.MaxTokens = 256
	}
	if cfg.Sentiment.MaxChars == 0 {
		cfg.Sentiment.MaxChars = 512
	}
	if cfg.KB.DataDir == "" {
		cfg.KB.DataDir = "data/products"
	}
	if cfg.KB.ChunkSize == 0 {
		cfg.KB.ChunkSize = 400
	}
	if cfg.KB.ChunkOverlap == 0 {
		cfg.KB.ChunkOverlap = 50
	}
	if cfg.KB.DefaultTopK == 0 {
		cfg.KB.DefaultTopK = 3
	}
}
