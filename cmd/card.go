package cmd

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/abhisek/readlevel/internal/srs"
	"github.com/abhisek/readlevel/internal/store"
	"github.com/abhisek/readlevel/internal/ui/theme"
)

var cardCmd = &cobra.Command{
	Use:   "card",
	Short: "Add, review and list flashcards",
}

var cardAddCmd = &cobra.Command{
	Use:   "add",
	Short: "Save a vocabulary word or sentence as a new card",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		user, _ := cmd.Flags().GetString("user")
		kind, _ := cmd.Flags().GetString("kind")
		ref, _ := cmd.Flags().GetString("ref")

		a, err := openApp(cmd, false)
		if err != nil {
			return err
		}
		defer a.Close()

		rec, err := a.svc.AddCard(cmd.Context(), user, store.CardKind(kind), ref)
		if err != nil {
			return err
		}
		fmt.Println(rec.ID)
		return nil
	},
}

var cardReviewCmd = &cobra.Command{
	Use:   "review <card-id> <again|hard|good|easy|1-4>",
	Short: "Record a review and schedule the card's next due date",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		rating, err := srs.ParseRating(args[1])
		if err != nil {
			return err
		}

		a, err := openApp(cmd, false)
		if err != nil {
			return err
		}
		defer a.Close()

		rec, err := a.svc.Review(cmd.Context(), args[0], rating)
		if err != nil {
			return err
		}
		printCard(rec)
		return nil
	},
}

var cardPreviewCmd = &cobra.Command{
	Use:   "preview <card-id>",
	Short: "Show when the card would be due for each rating",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := openApp(cmd, false)
		if err != nil {
			return err
		}
		defer a.Close()

		preview, err := a.svc.Preview(cmd.Context(), args[0])
		if err != nil {
			return err
		}

		now := time.Now()
		fmt.Printf("%-8s  %-10s  %-20s  %10s  %10s\n", "Rating", "State", "Due", "Interval", "Stability")
		fmt.Println(theme.Separator(66))
		for _, r := range srs.Ratings {
			c := preview[r]
			fmt.Printf("%-8s  %-10s  %-20s  %10s  %10.2f\n",
				r, c.State, c.Due.Local().Format("2006-01-02 15:04"), formatInterval(c.Due.Sub(now)), c.Stability)
		}
		return nil
	},
}

var cardDueCmd = &cobra.Command{
	Use:   "due",
	Short: "List cards due now, most overdue first",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		user, _ := cmd.Flags().GetString("user")
		limit, _ := cmd.Flags().GetInt("limit")

		a, err := openApp(cmd, false)
		if err != nil {
			return err
		}
		defer a.Close()

		due, err := a.svc.Due(cmd.Context(), user, limit)
		if err != nil {
			return err
		}
		if len(due) == 0 {
			fmt.Println(theme.Hint.Render("Nothing due. Come back later."))
			return nil
		}

		now := time.Now()
		fmt.Printf("%-36s  %-10s  %-10s  %8s  %s\n", "ID", "Kind", "State", "Overdue", "Ref")
		fmt.Println(theme.Separator(90))
		for _, rec := range due {
			fmt.Printf("%-36s  %-10s  %-10s  %8s  %s\n",
				rec.ID, rec.Kind, rec.State, formatInterval(now.Sub(rec.Due)), truncate(rec.Ref, 40))
		}
		return nil
	},
}

func printCard(rec *store.CardRecord) {
	fmt.Println(theme.Title.Render(rec.Ref))
	fmt.Println(theme.Field("State", rec.State))
	fmt.Println(theme.Field("Due", rec.Due.Local().Format("2006-01-02 15:04")))
	fmt.Println(theme.Field("Stability", fmt.Sprintf("%.2f days", rec.Stability)))
	fmt.Println(theme.Field("Difficulty", fmt.Sprintf("%.2f", rec.Difficulty)))
	fmt.Println(theme.Field("Reps", rec.Reps))
	fmt.Println(theme.Field("Lapses", rec.Lapses))
}

// formatInterval renders d as minutes, hours or days, whichever reads best.
func formatInterval(d time.Duration) string {
	switch {
	case d < time.Hour:
		return fmt.Sprintf("%dm", int(d.Round(time.Minute).Minutes()))
	case d < 24*time.Hour:
		return fmt.Sprintf("%.1fh", d.Hours())
	default:
		return fmt.Sprintf("%.1fd", d.Hours()/24)
	}
}

func truncate(s string, max int) string {
	if len(s) <= max {
		return s
	}
	return s[:max]
}

func init() {
	cardAddCmd.Flags().StringP("user", "u", "", "Reader ID")
	cardAddCmd.Flags().StringP("kind", "k", string(store.KindVocabulary), "Card kind: vocabulary or sentence")
	cardAddCmd.Flags().StringP("ref", "r", "", "The saved word or sentence")
	cardAddCmd.MarkFlagRequired("user")

	cardDueCmd.Flags().StringP("user", "u", "", "Reader ID")
	cardDueCmd.Flags().IntP("limit", "n", 20, "Maximum number of cards (0 = all)")
	cardDueCmd.MarkFlagRequired("user")

	cardCmd.AddCommand(cardAddCmd)
	cardCmd.AddCommand(cardReviewCmd)
	cardCmd.AddCommand(cardPreviewCmd)
	cardCmd.AddCommand(cardDueCmd)
}
