package cmd

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"github.com/tmc/langchaingo/llms/anthropic"
	weaviateClient "github.com/weaviate/weaviate-go-client/v4/weaviate"

	handler "coursechat/handler/http"
	"coursechat/src/core/course"
	"coursechat/src/core/coursechat"
	"coursechat/src/core/coursestore"
	"coursechat/src/core/session"
	"coursechat/src/infrastructure/integrations/ollama"
	"coursechat/src/log"
	"coursechat/src/storage/weaviate"
)

// serveCmd represents the serve command
var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the course chat HTTP server",
	Long: `The serve command ingests any new course documents from the configured
documents directory and then starts the HTTP API`,
	Run: RunServer,
}

func init() {
	rootCmd.AddCommand(serveCmd)
}

// buildStore wires the Weaviate SDK, the Ollama embedder and the course
// store from configuration
func buildStore() (*coursestore.Store, *ollama.Client) {
	oc := ollama.NewClient(viper.GetString("ollama.url"), &http.Client{
		Timeout: 30 * time.Second,
	})

	wc := weaviateClient.New(weaviateClient.Config{
		Host:   viper.GetString("weaviate.host"),
		Scheme: viper.GetString("weaviate.scheme"),
	})
	wsdk := weaviate.NewSDK(wc)

	store := coursestore.NewStore(
		wsdk,
		oc,
		viper.GetString("ollama.embedding_model"),
		coursestore.WithMaxResults(viper.GetInt("rag.max_results")),
		coursestore.WithResolution(viper.GetString("rag.course_resolution")),
	)

	return store, oc
}

func buildProcessor() *course.Processor {
	return course.NewProcessor(
		course.WithChunkSize(viper.GetInt("rag.chunk_size")),
		course.WithChunkOverlap(viper.GetInt("rag.chunk_overlap")),
	)
}

func RunServer(cmd *cobra.Command, args []string) {
	store, oc := buildStore()

	ctx := context.Background()
	if err := store.EnsureReady(ctx); err != nil {
		log.Error(err, "Failed to prepare vector store schema")
		return
	}

	// Initialize the Anthropic chat model
	model, err := anthropic.New(
		anthropic.WithToken(viper.GetString("anthropic.api_key")),
		anthropic.WithModel(viper.GetString("anthropic.model")),
	)
	if err != nil {
		log.Error(err, "Failed to create chat model client")
		return
	}

	generator := coursechat.NewGenerator(model,
		coursechat.WithMaxTokens(viper.GetInt("rag.max_tokens")),
		coursechat.WithMaxToolRounds(viper.GetInt("rag.max_tool_rounds")),
	)

	sessions := session.NewManager(viper.GetInt("session.max_exchanges"))

	sys := coursechat.NewSystem(buildProcessor(), store, generator, sessions,
		coursechat.WithPinger(oc))

	// Load any new course documents before accepting traffic
	docsDir := viper.GetString("rag.docs_dir")
	if added, skipped, err := sys.LoadDocuments(ctx, docsDir, false); err != nil {
		log.Error(err, "Failed to load course documents", "dir", docsDir)
	} else {
		log.Info("course documents loaded", "dir", docsDir, "added", added, "skipped", skipped)
	}

	// Setup gin router
	r := gin.Default()

	// Register routes
	h := handler.NewHandler(sys)
	h.RegisterRoutes(r)

	// Create HTTP server
	srv := &http.Server{
		Addr:    ":" + viper.GetString("server.port"),
		Handler: r,
	}

	// Start server in a goroutine
	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Error(err, "Failed to start server")
			return
		}
	}()

	// Wait for interrupt signal to gracefully shutdown the server
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info("Shutting down server...")

	// Parse shutdown timeout
	timeout, err := time.ParseDuration(viper.GetString("server.shutdown_timeout"))
	if err != nil {
		log.Error(err, "Invalid shutdown timeout, using default 5s")
		timeout = 5 * time.Second
	}

	// Create context with timeout for shutdown
	shutdownCtx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	// Attempt graceful shutdown
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error(err, "Server forced to shutdown")
	}

	log.Info("Server exited")
}
