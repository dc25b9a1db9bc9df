package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/abhisek/readlevel/internal/batch"
	"github.com/abhisek/readlevel/internal/ui/theme"
)

var batchCmd = &cobra.Command{
	Use:   "batch",
	Short: "Import articles and classify them without supervision",
}

var batchImportCmd = &cobra.Command{
	Use:   "import <file.xlsx|file.csv>",
	Short: "Import articles from a spreadsheet with title and content columns",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		classify, _ := cmd.Flags().GetBool("classify")

		a, err := openApp(cmd, classify)
		if err != nil {
			return err
		}
		defer a.Close()

		res, err := batch.Import(cmd.Context(), a.store.Articles(), args[0])
		if err != nil {
			return err
		}
		fmt.Println(theme.Field("Processed", res.TotalProcessed))
		fmt.Println(theme.Field("Created", theme.Good.Render(fmt.Sprint(res.Created))))
		if res.Skipped > 0 {
			fmt.Println(theme.Field("Skipped", theme.Warn.Render(fmt.Sprint(res.Skipped))))
			for _, e := range res.Errors {
				fmt.Println("  " + theme.Hint.Render(e))
			}
		}

		if classify && res.Created > 0 {
			rep, err := a.runner().RunOnce(cmd.Context())
			if err != nil {
				return err
			}
			printReport(rep)
		}
		return nil
	},
}

var batchRunCmd = &cobra.Command{
	Use:   "run",
	Short: "Classify every unclassified article once",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := openApp(cmd, true)
		if err != nil {
			return err
		}
		defer a.Close()

		rep, err := a.runner().RunOnce(cmd.Context())
		if err != nil {
			return err
		}
		printReport(rep)
		return nil
	},
}

var batchWatchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Classify new articles on an interval until interrupted",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		every, _ := cmd.Flags().GetDuration("every")

		a, err := openApp(cmd, true)
		if err != nil {
			return err
		}
		defer a.Close()

		return a.runner().Watch(cmd.Context(), every)
	},
}

func (a *app) runner() *batch.Runner {
	return batch.NewRunner(a.store.Articles(), a.scorer, a.cfg.Batch, a.log)
}

func printReport(rep batch.Report) {
	fmt.Println(theme.Field("Pending", rep.Pending))
	fmt.Println(theme.Field("Classified", theme.Good.Render(fmt.Sprint(rep.Classified))))
	if rep.Skipped > 0 {
		fmt.Println(theme.Field("Skipped", rep.Skipped))
	}
	if rep.Failed > 0 {
		fmt.Println(theme.Field("Failed", theme.Bad.Render(fmt.Sprint(rep.Failed))))
	}
}

func init() {
	batchImportCmd.Flags().Bool("classify", false, "Classify the imported articles right away")

	batchRunCmd.Flags().Bool("assess", false, "Blend in a CEFR estimate from the configured LLM provider")

	batchWatchCmd.Flags().Bool("assess", false, "Blend in a CEFR estimate from the configured LLM provider")
	batchWatchCmd.Flags().Duration("every", 0, "Interval between runs (default from config, 10m)")

	batchCmd.AddCommand(batchImportCmd)
	batchCmd.AddCommand(batchRunCmd)
	batchCmd.AddCommand(batchWatchCmd)
}
