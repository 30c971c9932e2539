package cmd

import (
	"context"
	"fmt"

	"github.com/schollz/progressbar/v3"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"coursechat/src/core/coursechat"
	"coursechat/src/core/session"
	"coursechat/src/log"
)

var ingestForce bool

// ingestCmd represents the ingest command
var ingestCmd = &cobra.Command{
	Use:   "ingest [dir]",
	Short: "Load course documents into the vector store",
	Long: `The ingest command parses every .txt course document in the given
directory (default: the configured rag.docs_dir), chunks and embeds the
content, and stores it in Weaviate. Courses already in the catalog are
skipped unless --force is given, in which case they are replaced.`,
	Args: cobra.MaximumNArgs(1),
	Run:  RunIngest,
}

func init() {
	ingestCmd.Flags().BoolVar(&ingestForce, "force", false, "re-ingest courses that are already stored")
	rootCmd.AddCommand(ingestCmd)
}

func RunIngest(cmd *cobra.Command, args []string) {
	store, _ := buildStore()

	ctx := context.Background()
	if err := store.EnsureReady(ctx); err != nil {
		log.Error(err, "Failed to prepare vector store schema")
		return
	}

	// Tool use and chat are not needed for ingestion
	sys := coursechat.NewSystem(buildProcessor(), store, nil, session.NewManager(0))

	dir := viper.GetString("rag.docs_dir")
	if len(args) > 0 {
		dir = args[0]
	}

	paths, err := sys.ListDocuments(dir)
	if err != nil {
		log.Error(err, "Failed to list course documents", "dir", dir)
		return
	}
	if len(paths) == 0 {
		fmt.Printf("no course documents found in %s\n", dir)
		return
	}

	bar := progressbar.Default(int64(len(paths)), "ingesting")
	added, skipped, failed := 0, 0, 0
	for _, path := range paths {
		title, ingested, err := sys.LoadDocument(ctx, path, ingestForce)
		switch {
		case err != nil:
			log.Error(err, "skipping course document", "path", path)
			failed++
		case ingested:
			log.Debug("ingested course", "course", title, "path", path)
			added++
		default:
			log.Debug("course already stored", "course", title, "path", path)
			skipped++
		}
		bar.Add(1)
	}

	fmt.Printf("\ningested %d course(s), skipped %d, failed %d\n", added, skipped, failed)
}
