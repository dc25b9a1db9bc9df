package cmd

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/abhisek/readlevel/internal/assess"
	"github.com/abhisek/readlevel/internal/ui/theme"
)

var classifyCmd = &cobra.Command{
	Use:   "classify [file|-]",
	Short: "Score text by readability and map it to an RA and CEFR level",
	Long: "Reads text from a file, or from stdin when the argument is \"-\" or missing, " +
		"and prints its level. With --article the stored article is scored and updated instead. " +
		"--assess blends in a model's CEFR estimate.",
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		articleID, _ := cmd.Flags().GetString("article")
		asJSON, _ := cmd.Flags().GetBool("json")

		a, err := openApp(cmd, true)
		if err != nil {
			return err
		}
		defer a.Close()

		var res assess.Result
		if articleID != "" {
			_, res, err = a.svc.ClassifyArticle(cmd.Context(), articleID)
		} else {
			var text string
			text, err = readInput(args)
			if err != nil {
				return err
			}
			res, err = a.scorer.Assess(cmd.Context(), text)
		}
		if err != nil {
			return err
		}

		if asJSON {
			enc := json.NewEncoder(os.Stdout)
			enc.SetIndent("", "  ")
			return enc.Encode(res)
		}
		printAssessment(res)
		return nil
	},
}

func readInput(args []string) (string, error) {
	if len(args) == 0 || args[0] == "-" {
		b, err := io.ReadAll(os.Stdin)
		if err != nil {
			return "", fmt.Errorf("read stdin: %w", err)
		}
		return string(b), nil
	}
	b, err := os.ReadFile(args[0])
	if err != nil {
		return "", err
	}
	return string(b), nil
}

func printAssessment(res assess.Result) {
	fmt.Println(theme.Field("Level", fmt.Sprintf("%d %s", res.RALevel, theme.Level(res.CEFRLevel))))
	fmt.Println(theme.Field("Score", fmt.Sprintf("%.2f", res.RawScore)))
	if res.Fallback {
		fmt.Println(theme.Warn.Render("No measurable text; assigned the lowest band."))
		return
	}
	st := res.Stats
	fmt.Println(theme.Field("Words", st.Words))
	fmt.Println(theme.Field("Sentences", st.Sentences))
	if res.Model != nil {
		fmt.Println(theme.Field("Readability", fmt.Sprintf("%.2f %s", res.Readability.RawScore, res.Readability.CEFRLevel)))
		fmt.Println(theme.Field("Model", fmt.Sprintf("%.2f (most likely %s)", res.ModelRA, res.Model.Likeliest())))
		if res.Reasoning != "" {
			fmt.Println(theme.Hint.Render(res.Reasoning))
		}
	}
}

func init() {
	classifyCmd.Flags().Bool("assess", false, "Blend in a CEFR estimate from the configured LLM provider")
	classifyCmd.Flags().String("article", "", "Classify a stored article and save its level")
	classifyCmd.Flags().Bool("json", false, "Print the result as JSON")
}
