package domain

// KeyPrefix is the default namespace for every key written to the store.
const KeyPrefix = "nutriplate:"

// ModelConfig holds the local model settings used when config leaves them empty.
type ModelConfig struct {
	EmbeddingModel      string
	EmbeddingDimensions int
	TextModel           string
	VisionModel         string
	Host                string
	Temperature         float64
	TopK                int
}

// DefaultModelConfig returns defaults for an Ollama host running all-MiniLM, llama3 and llava.
func DefaultModelConfig() ModelConfig {
	return ModelConfig{
		EmbeddingModel:      "all-minilm",
		EmbeddingDimensions: 384,
		TextModel:           "llama3",
		VisionModel:         "llava",
		Host:                "http://127.0.0.1:11434",
		Temperature:         0.2,
		TopK:                3,
	}
}
