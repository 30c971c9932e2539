package cmd

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"coursechat/src/log"
)

// coursesCmd represents the courses command
var coursesCmd = &cobra.Command{
	Use:   "courses",
	Short: "List the courses in the catalog",
	Run:   RunCourses,
}

func init() {
	rootCmd.AddCommand(coursesCmd)
}

func RunCourses(cmd *cobra.Command, args []string) {
	store, _ := buildStore()

	titles, err := store.ListCourseTitles(context.Background())
	if err != nil {
		log.Error(err, "Failed to list courses")
		return
	}

	fmt.Printf("%d course(s) in catalog\n", len(titles))
	for _, title := range titles {
		fmt.Printf("  - %s\n", title)
	}
}
