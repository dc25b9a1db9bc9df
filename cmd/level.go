package cmd

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/abhisek/readlevel/internal/level"
	"github.com/abhisek/readlevel/internal/ui/theme"
)

var levelCmd = &cobra.Command{
	Use:   "level",
	Short: "Show and adjust a reader's level",
}

var levelShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show a reader's current level and XP progress",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		user, _ := cmd.Flags().GetString("user")

		a, err := openApp(cmd, false)
		if err != nil {
			return err
		}
		defer a.Close()

		rec, err := a.svc.User(cmd.Context(), user)
		if err != nil {
			return err
		}
		printLevel(rec.Level)

		snap, err := a.svc.Progress(cmd.Context(), user)
		if err != nil {
			return err
		}
		if snap != nil {
			fmt.Println(theme.Field("Due cards", snap.Data.DueCards))
			fmt.Println(theme.Field("Updated", snap.Timestamp.Local().Format("2006-01-02 15:04")))
		}
		return nil
	},
}

var levelQuizCmd = &cobra.Command{
	Use:   "quiz",
	Short: "Re-center the reader on an article's level from quiz answers",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		user, _ := cmd.Flags().GetString("user")
		article, _ := cmd.Flags().GetString("article")
		raw, _ := cmd.Flags().GetString("answers")

		answers, err := parseAnswers(raw)
		if err != nil {
			return err
		}

		a, err := openApp(cmd, false)
		if err != nil {
			return err
		}
		defer a.Close()

		lvl, err := a.svc.CompleteQuiz(cmd.Context(), user, article, answers)
		if err != nil {
			return err
		}
		printLevel(lvl)
		return nil
	},
}

var levelRateCmd = &cobra.Command{
	Use:   "rate",
	Short: "Rate an article's difficulty from 1 (too hard) to 5 (too easy)",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		user, _ := cmd.Flags().GetString("user")
		article, _ := cmd.Flags().GetString("article")
		rating, _ := cmd.Flags().GetInt("rating")

		a, err := openApp(cmd, false)
		if err != nil {
			return err
		}
		defer a.Close()

		lvl, err := a.svc.RateArticle(cmd.Context(), user, article, rating)
		if err != nil {
			return err
		}
		printLevel(lvl)
		return nil
	},
}

var levelXPCmd = &cobra.Command{
	Use:   "xp",
	Short: "Add experience points and derive the level from the total",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		user, _ := cmd.Flags().GetString("user")
		add, _ := cmd.Flags().GetInt("add")

		a, err := openApp(cmd, false)
		if err != nil {
			return err
		}
		defer a.Close()

		lvl, err := a.svc.AwardXP(cmd.Context(), user, add)
		if err != nil {
			return err
		}
		printLevel(lvl)
		return nil
	},
}

var levelTableCmd = &cobra.Command{
	Use:   "table",
	Short: "Print the level bands",
	Args:  cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf("%-5s  %-5s  %-14s  %s\n", "RA", "CEFR", "Readability", "XP")
		fmt.Println(theme.Separator(44))
		for i, b := range level.RATable {
			xp := level.XPTable[i]
			xpRange := fmt.Sprintf("%.0f-%.0f", xp.Min, xp.Max)
			if i == len(level.XPTable)-1 {
				xpRange = fmt.Sprintf("%.0f+", xp.Min)
			}
			score := fmt.Sprintf("%d-%d", i, i+1)
			if i == len(level.RATable)-1 {
				score = fmt.Sprintf("%d+", i)
			}
			fmt.Printf("%-5d  %-5s  %-14s  %s\n", b.RALevel, b.CEFR, score, xpRange)
		}
	},
}

func printLevel(l level.UserLevel) {
	fmt.Println(theme.Field("Level", fmt.Sprintf("%d %s", l.RALevel, theme.Level(l.CEFRLevel))))
	fmt.Println(theme.Field("XP", l.XP))

	pct := level.BandProgress(l.XP)
	if next, ok := level.NextBandXP(l.XP); ok {
		fmt.Println(theme.Field("Progress", fmt.Sprintf("%s %.0f%% (next band at %d XP)", theme.Bar(pct, 20), pct, next)))
	} else {
		fmt.Println(theme.Field("Progress", theme.Bar(pct, 20)+" top band"))
	}
}

// parseAnswers reads a comma-separated answer sheet such as "1,0,1" or
// "y,n,y".
func parseAnswers(s string) ([]bool, error) {
	var out []bool
	for _, f := range strings.Split(s, ",") {
		switch strings.ToLower(strings.TrimSpace(f)) {
		case "":
			continue
		case "1", "y", "yes", "t", "true", "correct":
			out = append(out, true)
		case "0", "n", "no", "f", "false", "wrong":
			out = append(out, false)
		default:
			return nil, fmt.Errorf("bad answer %q: use 1 for correct and 0 for wrong", f)
		}
	}
	if len(out) == 0 {
		return nil, level.ErrNoAnswers
	}
	return out, nil
}

func init() {
	for _, c := range []*cobra.Command{levelShowCmd, levelQuizCmd, levelRateCmd, levelXPCmd} {
		c.Flags().StringP("user", "u", "", "Reader ID")
		c.MarkFlagRequired("user")
	}
	levelQuizCmd.Flags().StringP("article", "a", "", "Article ID")
	levelQuizCmd.Flags().String("answers", "", "Comma-separated answers, 1 = correct, 0 = wrong")
	levelQuizCmd.MarkFlagRequired("article")
	levelQuizCmd.MarkFlagRequired("answers")

	levelRateCmd.Flags().StringP("article", "a", "", "Article ID")
	levelRateCmd.Flags().IntP("rating", "r", 0, "Difficulty rating, 1 (too hard) to 5 (too easy)")
	levelRateCmd.MarkFlagRequired("article")
	levelRateCmd.MarkFlagRequired("rating")

	levelXPCmd.Flags().Int("add", 0, "Points to add (negative to remove)")
	levelXPCmd.MarkFlagRequired("add")

	levelCmd.AddCommand(levelShowCmd)
	levelCmd.AddCommand(levelQuizCmd)
	levelCmd.AddCommand(levelRateCmd)
	levelCmd.AddCommand(levelXPCmd)
	levelCmd.AddCommand(levelTableCmd)
}
