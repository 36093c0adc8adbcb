package cli

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/kbquery/internal/core/domain"
)

const snippetLen = 160

var (
	queryTopK int
	queryJSON bool
)

var queryCmd = &cobra.Command{
	Use:   "query [question]",
	Short: "Ask the knowledge base a question",
	Long: `Embeds the question and returns the most similar indexed passages,
ranked by cosine similarity, with their source, region and date.`,
	Args: cobra.ExactArgs(1),
	RunE: runQuery,
}

func init() {
	queryCmd.Flags().IntVarP(&queryTopK, "top-k", "k", 0, "maximum number of sources (default from settings)")
	queryCmd.Flags().BoolVar(&queryJSON, "json", false, "output results as JSON")
	rootCmd.AddCommand(queryCmd)
}

type sourceView struct {
	ID         string  `json:"id"`
	Title      string  `json:"title,omitempty"`
	URL        string  `json:"url"`
	Region     string  `json:"region,omitempty"`
	Date       string  `json:"date,omitempty"`
	Confidence float64 `json:"confidence"`
	Text       string  `json:"text,omitempty"`
}

func toSourceView(hit domain.SearchHit) sourceView {
	v := sourceView{
		ID:         hit.Record.ID,
		Title:      hit.Record.Title,
		URL:        hit.Record.SourceID,
		Region:     hit.Record.Region,
		Confidence: hit.Score,
		Text:       hit.Record.Text,
	}
	if !hit.Record.DateFetched.IsZero() {
		v.Date = hit.Record.DateFetched.Format(domain.DateLayout)
	}
	return v
}

func runQuery(cmd *cobra.Command, args []string) error {
	svc, err := requireQuery()
	if err != nil {
		return err
	}

	result, err := svc.Query(cmd.Context(), args[0], domain.QueryOptions{TopK: queryTopK})
	if err != nil {
		return fmt.Errorf("query failed: %w", err)
	}

	if queryJSON {
		return outputQueryJSON(cmd, result)
	}
	return outputQueryText(cmd, result)
}

func outputQueryJSON(cmd *cobra.Command, result *domain.QueryResult) error {
	out := struct {
		Answer  *sourceView  `json:"answer"`
		Sources []sourceView `json:"sources"`
	}{Sources: make([]sourceView, 0, len(result.Sources))}

	for _, hit := range result.Sources {
		out.Sources = append(out.Sources, toSourceView(hit))
	}
	if len(out.Sources) > 0 {
		out.Answer = &out.Sources[0]
	}

	data, err := json.MarshalIndent(out, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal results: %w", err)
	}
	cmd.Println(string(data))
	return nil
}

func outputQueryText(cmd *cobra.Command, result *domain.QueryResult) error {
	if len(result.Sources) == 0 {
		cmd.Println("No results found.")
		return nil
	}

	cmd.Println("Sources:")
	cmd.Println()
	for i, hit := range result.Sources {
		v := toSourceView(hit)
		title := v.Title
		if title == "" {
			title = v.ID
		}

		cmd.Printf("  [%d] %s (%.3f)\n", i+1, title, v.Confidence)
		cmd.Printf("      %s\n", provenance(v))
		if v.Text != "" {
			cmd.Printf("      %s\n", truncate(v.Text, snippetLen))
		}
		cmd.Println()
	}
	return nil
}

func provenance(v sourceView) string {
	parts := []string{v.URL}
	if v.Region != "" {
		parts = append(parts, v.Region)
	}
	if v.Date != "" {
		parts = append(parts, v.Date)
	}
	return strings.Join(parts, " | ")
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n-3]) + "..."
}
