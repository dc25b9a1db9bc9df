package cmd

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/abhisek/readlevel/internal/llm"
	"github.com/abhisek/readlevel/internal/store"
	"github.com/abhisek/readlevel/internal/ui/theme"
)

var llmCmd = &cobra.Command{
	Use:   "llm",
	Short: "Inspect LLM request/response events",
}

var llmListCmd = &cobra.Command{
	Use:   "list",
	Short: "List recent LLM events",
	RunE: func(cmd *cobra.Command, args []string) error {
		limit, _ := cmd.Flags().GetInt("limit")
		purpose, _ := cmd.Flags().GetString("purpose")

		a, err := openApp(cmd, false)
		if err != nil {
			return err
		}
		defer a.Close()

		events, err := a.store.Events().QueryLLMRequests(cmd.Context(), store.QueryOpts{Limit: limit, Latest: true})
		if err != nil {
			return fmt.Errorf("query events: %w", err)
		}

		if len(events) == 0 {
			fmt.Println("No LLM events found.")
			return nil
		}

		// Header.
		fmt.Printf("%-5s  %-19s  %-14s  %-28s  %-6s  %-6s  %-7s  %-9s  %s\n",
			"Seq", "Timestamp", "Purpose", "Model", "In", "Out", "Ms", "Cost", "OK")
		fmt.Println(theme.Separator(110))

		for _, e := range events {
			if purpose != "" && e.Purpose != purpose {
				continue
			}
			ok := theme.Good.Render("✓")
			if !e.Success {
				ok = theme.Bad.Render("✗")
			}
			cost := "?"
			if c := llm.LookupCost(e.Model); c != nil {
				cost = formatCost(c.Cost(e.InputTokens, e.OutputTokens))
			}
			fmt.Printf("%-5d  %-19s  %-14s  %-28s  %-6d  %-6d  %-7d  %-9s  %s\n",
				e.Sequence,
				e.Timestamp.Local().Format("2006-01-02 15:04:05"),
				e.Purpose,
				truncate(e.Model, 28),
				e.InputTokens,
				e.OutputTokens,
				e.LatencyMs,
				cost,
				ok,
			)
		}
		return nil
	},
}

var llmViewCmd = &cobra.Command{
	Use:   "view <seq>",
	Short: "View full request/response for an LLM event",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		seq, err := strconv.ParseInt(args[0], 10, 64)
		if err != nil {
			return fmt.Errorf("invalid sequence %q: %w", args[0], err)
		}

		a, err := openApp(cmd, false)
		if err != nil {
			return err
		}
		defer a.Close()

		events, err := a.store.Events().QueryLLMRequests(cmd.Context(), store.QueryOpts{After: seq - 1, Before: seq + 1})
		if err != nil {
			return fmt.Errorf("get event: %w", err)
		}
		if len(events) == 0 {
			return fmt.Errorf("LLM event %d: %w", seq, store.ErrNotFound)
		}
		e := events[0]

		sep := theme.Separator(60)

		fmt.Printf("Seq:       %d\n", e.Sequence)
		fmt.Printf("Time:      %s\n", e.Timestamp.Local().Format("2006-01-02 15:04:05"))
		fmt.Printf("Provider:  %s\n", e.Provider)
		fmt.Printf("Model:     %s\n", e.Model)
		fmt.Printf("Purpose:   %s\n", e.Purpose)
		fmt.Printf("Tokens:    %d in / %d out\n", e.InputTokens, e.OutputTokens)
		fmt.Printf("Latency:   %dms\n", e.LatencyMs)
		fmt.Printf("Success:   %v\n", e.Success)
		if e.ErrorMessage != "" {
			fmt.Printf("Error:     %s\n", e.ErrorMessage)
		}

		fmt.Println()
		fmt.Println(sep)
		fmt.Println("REQUEST")
		fmt.Println(sep)
		if e.RequestBody != "" {
			fmt.Println(e.RequestBody)
		} else {
			fmt.Println("(not captured)")
		}

		fmt.Println(sep)
		fmt.Println("RESPONSE")
		fmt.Println(sep)
		if e.ResponseBody != "" {
			fmt.Println(e.ResponseBody)
		} else {
			fmt.Println("(not captured)")
		}

		return nil
	},
}

// modelUsage aggregates LLM events for one model.
type modelUsage struct {
	Model        string
	Calls        int
	Failures     int
	InputTokens  int
	OutputTokens int
}

// usageByModel sums events per model, ordered by first appearance.
func usageByModel(events []store.LLMRequestEvent) []modelUsage {
	var out []modelUsage
	index := make(map[string]int)
	for _, e := range events {
		i, ok := index[e.Model]
		if !ok {
			i = len(out)
			index[e.Model] = i
			out = append(out, modelUsage{Model: e.Model})
		}
		u := &out[i]
		u.Calls++
		if !e.Success {
			u.Failures++
		}
		u.InputTokens += e.InputTokens
		u.OutputTokens += e.OutputTokens
	}
	return out
}

var llmStatsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Show aggregated LLM token usage and estimated cost",
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := openApp(cmd, false)
		if err != nil {
			return err
		}
		defer a.Close()

		events, err := a.store.Events().QueryLLMRequests(cmd.Context(), store.QueryOpts{})
		if err != nil {
			return fmt.Errorf("query usage: %w", err)
		}
		usage := usageByModel(events)
		if len(usage) == 0 {
			fmt.Println("No LLM usage recorded yet.")
			return nil
		}

		fmt.Println(theme.Title.Render("Estimated Cost (USD)"))
		fmt.Println(theme.Separator(80))
		fmt.Printf("%-32s  %6s  %6s  %10s  %10s  %9s\n",
			"Model", "Calls", "Failed", "Input", "Output", "Cost")
		fmt.Println(theme.Separator(80))

		var totalCost float64
		var unknownModels []string
		for _, mu := range usage {
			cost := llm.LookupCost(mu.Model)
			if cost == nil {
				unknownModels = append(unknownModels, mu.Model)
				fmt.Printf("%-32s  %6d  %6d  %10d  %10d  %9s\n",
					truncate(mu.Model, 32), mu.Calls, mu.Failures, mu.InputTokens, mu.OutputTokens, "?")
				continue
			}
			c := cost.Cost(mu.InputTokens, mu.OutputTokens)
			totalCost += c
			fmt.Printf("%-32s  %6d  %6d  %10d  %10d  %9s\n",
				truncate(mu.Model, 32), mu.Calls, mu.Failures, mu.InputTokens, mu.OutputTokens, formatCost(c))
		}

		fmt.Println(theme.Separator(80))
		label := "TOTAL"
		if len(unknownModels) > 0 {
			label = "TOTAL (partial)"
		}
		fmt.Printf("%-32s  %6s  %6s  %10s  %10s  %9s\n",
			label, "", "", "", "", formatCost(totalCost))

		if len(unknownModels) > 0 {
			fmt.Printf("\nPricing unavailable for: %s\n", strings.Join(unknownModels, ", "))
		}
		return nil
	},
}

func formatCost(usd float64) string {
	if usd < 0.01 {
		return fmt.Sprintf("$%.4f", usd)
	}
	return fmt.Sprintf("$%.2f", usd)
}

func init() {
	llmListCmd.Flags().IntP("limit", "n", 20, "Number of events to show")
	llmListCmd.Flags().StringP("purpose", "p", "", "Filter by purpose (e.g. cefr-assessment)")

	llmCmd.AddCommand(llmListCmd)
	llmCmd.AddCommand(llmViewCmd)
	llmCmd.AddCommand(llmStatsCmd)
}
