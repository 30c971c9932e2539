package cmd

import "github.com/spf13/viper"

func settingDefaultConfig() {
	// Enable automatic environment variable binding
	viper.AutomaticEnv()

	// Map environment variables to Viper keys for the chat model
	viper.BindEnv("anthropic.api_key", "ANTHROPIC_API_KEY")
	viper.BindEnv("anthropic.model", "ANTHROPIC_MODEL")
	viper.SetDefault("anthropic.model", "claude-3-5-sonnet-20241022")

	// Map environment variables to Viper keys for Ollama embeddings
	viper.BindEnv("ollama.url", "OLLAMA_URL")
	viper.SetDefault("ollama.url", "http://localhost:11434/api")
	viper.BindEnv("ollama.embedding_model", "OLLAMA_EMBEDDING_MODEL")
	viper.SetDefault("ollama.embedding_model", "nomic-embed-text")

	// Map environment variables to Viper keys for Weaviate
	viper.BindEnv("weaviate.host", "WEAVIATE_HOST")
	viper.SetDefault("weaviate.host", "localhost:8080")
	viper.BindEnv("weaviate.scheme", "WEAVIATE_SCHEME")
	viper.SetDefault("weaviate.scheme", "http")

	// Set default values for document processing and retrieval
	viper.BindEnv("rag.docs_dir", "RAG_DOCS_DIR")
	viper.SetDefault("rag.docs_dir", "docs")
	viper.BindEnv("rag.chunk_size", "RAG_CHUNK_SIZE")
	viper.SetDefault("rag.chunk_size", 800)
	viper.BindEnv("rag.chunk_overlap", "RAG_CHUNK_OVERLAP")
	viper.SetDefault("rag.chunk_overlap", 100)
	viper.BindEnv("rag.max_results", "RAG_MAX_RESULTS")
	viper.SetDefault("rag.max_results", 5)
	viper.BindEnv("rag.course_resolution", "RAG_COURSE_RESOLUTION")
	viper.SetDefault("rag.course_resolution", "vector")
	viper.BindEnv("rag.max_tool_rounds", "RAG_MAX_TOOL_ROUNDS")
	viper.SetDefault("rag.max_tool_rounds", 1)
	viper.BindEnv("rag.max_tokens", "RAG_MAX_TOKENS")
	viper.SetDefault("rag.max_tokens", 800)

	// Set default values for sessions
	viper.BindEnv("session.max_exchanges", "SESSION_MAX_EXCHANGES")
	viper.SetDefault("session.max_exchanges", 2)

	// Set default values for the HTTP server
	viper.BindEnv("server.port", "SERVER_PORT")
	viper.SetDefault("server.port", "8000")
	viper.BindEnv("server.shutdown_timeout", "SERVER_SHUTDOWN_TIMEOUT")
	viper.SetDefault("server.shutdown_timeout", "5s")
}
