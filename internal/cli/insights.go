package cli

import (
	"fmt"
	"os"
	"strings"

	"github.com/lazypower/tracks/internal/engine"
	"github.com/lazypower/tracks/internal/store"
	"github.com/spf13/cobra"
)

// openDB is a helper that opens the database for CLI commands.
func openDB() (*store.DB, error) {
	dbPath := os.Getenv("TRACKS_DB")
	if dbPath == "" {
		var err error
		dbPath, err = store.DefaultDBPath()
		if err != nil {
			return nil, err
		}
	}
	return store.Open(dbPath)
}

// --- insights command ---

var insightsLimit int

var insightsCmd = &cobra.Command{
	Use:   "insights",
	Short: "Show what the organization has learned",
	RunE:  runInsights,
}

func runInsights(cmd *cobra.Command, args []string) error {
	db, err := openDB()
	if err != nil {
		return fmt.Errorf("open db: %w", err)
	}
	defer db.Close()

	eng := engine.New(db)
	insights, err := eng.GetOrgInsights(insightsLimit)
	if err != nil {
		return fmt.Errorf("get insights: %w", err)
	}

	fmt.Println("## Organizational Insights")
	fmt.Println()
	fmt.Printf("  track points:  %d\n", insights.TrackPointCount)
	fmt.Printf("  entities:      %d\n", insights.EntityCount)
	fmt.Printf("  relationships: %d\n", insights.RelationshipCount)

	if len(insights.TopEntities) > 0 {
		fmt.Println()
		fmt.Println("## Top Entities")
		for _, e := range insights.TopEntities {
			fmt.Printf("  %3dx %s [%s]\n", e.Occurrences, e.Name, e.Type)
		}
	}

	if len(insights.TopRelationships) > 0 {
		fmt.Println()
		fmt.Println("## Top Relationships")
		for _, r := range insights.TopRelationships {
			fmt.Printf("  %.2f %s <-> %s (%d observations)\n",
				r.DecayedWeight, r.Source, r.Target, r.Observations)
		}
	}

	if insights.TrackPointCount == 0 {
		fmt.Println()
		fmt.Println("Nothing recorded yet. Run some sessions first.")
	}
	return nil
}

// --- patterns command ---

var patternsLimit int

var patternsCmd = &cobra.Command{
	Use:   "patterns",
	Short: "Show learned workflow patterns",
	RunE:  runPatterns,
}

func runPatterns(cmd *cobra.Command, args []string) error {
	db, err := openDB()
	if err != nil {
		return fmt.Errorf("open db: %w", err)
	}
	defer db.Close()

	eng := engine.New(db)
	suggestions, err := eng.WorkflowSuggestions(patternsLimit)
	if err != nil {
		return fmt.Errorf("get patterns: %w", err)
	}

	if len(suggestions) == 0 {
		fmt.Println("No recurring patterns yet. Patterns surface once a sequence repeats across runs.")
		return nil
	}

	fmt.Println("## Workflow Patterns")
	fmt.Println()
	for i, s := range suggestions {
		fmt.Printf("%d. [conf %.2f] %s\n", i+1, s.Confidence, s.Label)
		fmt.Printf("   seen in %d runs, avg signal %.2f\n", s.Frequency, s.AvgSignal)
		if len(s.ExampleRuns) > 0 {
			fmt.Printf("   e.g. %s\n", strings.Join(s.ExampleRuns, ", "))
		}
		fmt.Println()
	}
	return nil
}

func init() {
	insightsCmd.Flags().IntVarP(&insightsLimit, "limit", "n", 10, "Maximum entities and relationships to show")
	patternsCmd.Flags().IntVarP(&patternsLimit, "limit", "n", 10, "Maximum patterns to show")
}
