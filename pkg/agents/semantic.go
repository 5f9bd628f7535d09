package agents

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"go.uber.org/zap"

	"github.com/Vikram2406/Hackathon-DQ/pkg/dataset"
	"github.com/Vikram2406/Hackathon-DQ/pkg/llm"
	"github.com/Vikram2406/Hackathon-DQ/pkg/models"
	"github.com/Vikram2406/Hackathon-DQ/pkg/normalize"
	"github.com/Vikram2406/Hackathon-DQ/pkg/prompts"
)

var entityColumnKeywords = []string{
	"company", "organization", "org", "entity", "brand", "vendor", "supplier",
}

var personalNameKeywords = []string{
	"firstname", "first_name", "lastname", "last_name", "fullname", "full_name",
	"username", "user_name", "name", "person", "customer", "employee", "contact",
}

// entitySimilarityThreshold clusters near-duplicate entity names. Higher
// than the categorical threshold: entity names are longer and a loose match
// would merge different companies.
const entitySimilarityThreshold = 0.7

// SemanticAgent resolves near-duplicate entity names ("Acme" / "ACME Corp")
// to one canonical spelling per cluster. Person-name columns are never
// touched; people legitimately share names.
type SemanticAgent struct{}

func NewSemanticAgent() *SemanticAgent { return &SemanticAgent{} }

func (a *SemanticAgent) Name() string { return models.CategorySemantic }

func (a *SemanticAgent) Detect(ctx context.Context, run *Run) ([]models.Issue, error) {
	var issues []models.Issue
	for _, col := range run.Dataset.Columns {
		if !columnMatchesAny(col, entityColumnKeywords) || columnMatchesAny(col, personalNameKeywords) {
			continue
		}
		issues = append(issues, a.detectColumn(ctx, run, col)...)
	}

	run.Logger.Info("semantic resolution finished", zap.Int("issues", len(issues)))
	return issues, nil
}

func (a *SemanticAgent) detectColumn(ctx context.Context, run *Run, col string) []models.Issue {
	counts := make(map[string]int)
	for _, row := range run.Dataset.Rows {
		v := strings.TrimSpace(dataset.CellString(row[col]))
		if dataset.IsNullish(v) {
			continue
		}
		counts[v]++
	}

	distinct := make([]string, 0, len(counts))
	for v := range counts {
		distinct = append(distinct, v)
	}
	sort.Strings(distinct)

	clusters := clusterEntities(distinct)
	if len(clusters) == 0 {
		return nil
	}

	var issues []models.Issue
	for _, cluster := range clusters {
		canonical := a.resolveCanonical(ctx, run, col, cluster, counts)
		for i, row := range run.Dataset.Rows {
			v := strings.TrimSpace(dataset.CellString(row[col]))
			if v == "" || v == canonical {
				continue
			}
			if !containsString(cluster, v) {
				continue
			}
			issues = append(issues, models.NewIssue(models.CategorySemantic, models.IssueEntityResolution,
				models.IntPtr(i), col, v, models.StringPtr(canonical), 0.80,
				fmt.Sprintf("%q and %q refer to the same entity.", v, canonical),
				"Clustered near-duplicate names across the column to one entity."))
		}
	}
	return issues
}

// clusterEntities greedily groups names that are case-variants, containments
// or high-similarity pairs. Only clusters with variation matter.
func clusterEntities(values []string) [][]string {
	used := make(map[int]bool)
	var clusters [][]string

	for i, v := range values {
		if used[i] {
			continue
		}
		cluster := []string{v}
		used[i] = true
		for j := i + 1; j < len(values); j++ {
			if used[j] {
				continue
			}
			if entitiesSimilar(v, values[j]) {
				cluster = append(cluster, values[j])
				used[j] = true
			}
		}
		if len(cluster) > 1 {
			clusters = append(clusters, cluster)
		}
	}
	return clusters
}

// entitiesSimilar: case-insensitive equality, containment, or a similarity
// score above the entity threshold.
func entitiesSimilar(a, b string) bool {
	la, lb := strings.ToLower(a), strings.ToLower(b)
	if la == lb {
		return true
	}
	if strings.Contains(la, lb) || strings.Contains(lb, la) {
		return true
	}
	return normalize.Similarity(a, b) > entitySimilarityThreshold
}

// resolveCanonical asks the gateway for the best spelling, falling back to
// the most frequent then longest variant.
func (a *SemanticAgent) resolveCanonical(ctx context.Context, run *Run, col string, cluster []string, counts map[string]int) string {
	response, err := run.LLM.Complete(ctx,
		[]llm.Message{llm.User(prompts.BuildEntityCanonicalPrompt(col, cluster))},
		defaultTemperature, defaultMaxTokens)
	if err == nil {
		parsed, perr := llm.ParseResponse[struct {
			Canonical *string `json:"canonical"`
		}](response)
		if perr == nil && parsed.Canonical != nil {
			want := strings.TrimSpace(*parsed.Canonical)
			if containsString(cluster, want) {
				return want
			}
		}
	}

	best := cluster[0]
	for _, v := range cluster[1:] {
		if counts[v] > counts[best] || (counts[v] == counts[best] && len(v) > len(best)) {
			best = v
		}
	}
	return best
}

func containsString(list []string, v string) bool {
	for _, s := range list {
		if s == v {
			return true
		}
	}
	return false
}
