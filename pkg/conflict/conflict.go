// Package conflict removes mutually exclusive rules from a matched set.
package conflict

import (
	"context"
	"log/slog"
	"slices"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"

	"github.com/vibekit/rulehub/pkg/catalog"
	"github.com/vibekit/rulehub/pkg/log"
	"github.com/vibekit/rulehub/pkg/match"
)

// EdgeFetcher returns the dependency edges whose rule id is in ids.
type EdgeFetcher interface {
	FetchConflictEdges(ctx context.Context, ids []string) ([]catalog.Dependency, error)
}

// Resolver drops the lower-scored endpoint of every conflict edge.
type Resolver struct {
	edges EdgeFetcher
}

// NewResolver creates a new [Resolver].
func NewResolver(edges EdgeFetcher) *Resolver {
	return &Resolver{edges: edges}
}

// Resolve fetches the conflict edges for rules and returns the rules that
// survive. Resolution is best-effort: when the edges cannot be fetched, a
// warning is logged and rules are returned unchanged.
func (r *Resolver) Resolve(ctx context.Context, rules []match.MatchedRule) []match.MatchedRule {
	tracer := otel.Tracer("conflict")

	ctx, span := tracer.Start(ctx, "resolve conflicts")
	defer span.End()

	if len(rules) < 2 || r.edges == nil {
		return rules
	}

	edges, err := r.edges.FetchConflictEdges(ctx, match.IDs(rules))
	if err != nil {
		span.RecordError(err)
		log.WithContext(ctx).WarnContext(ctx, "skipping conflict resolution",
			slog.Int("rules", len(rules)),
			slog.Any("err", err),
		)

		return rules
	}

	resolved := Apply(rules, edges)

	span.SetAttributes(
		attribute.Int("edges", len(edges)),
		attribute.Int("removed", len(rules)-len(resolved)),
	)

	return resolved
}

// Apply resolves conflicts using a known set of edges. For every conflict
// edge with both endpoints present, the endpoint with the lower score is
// removed. On a tie, the rule with the lexicographically lower id is kept.
// Edges of other types, and edges with a missing endpoint, are ignored.
func Apply(rules []match.MatchedRule, edges []catalog.Dependency) []match.MatchedRule {
	scores := make(map[string]float64, len(rules))
	for _, mr := range rules {
		scores[mr.ID] = mr.MatchScore
	}

	removed := map[string]bool{}

	for _, e := range edges {
		if !e.IsConflict() || e.RuleID == e.DependsOnRuleID {
			continue
		}

		a, okA := scores[e.RuleID]
		b, okB := scores[e.DependsOnRuleID]
		if !okA || !okB {
			continue
		}

		removed[loser(e.RuleID, a, e.DependsOnRuleID, b)] = true
	}

	if len(removed) == 0 {
		return rules
	}

	return slices.DeleteFunc(slices.Clone(rules), func(mr match.MatchedRule) bool {
		return removed[mr.ID]
	})
}

func loser(idA string, scoreA float64, idB string, scoreB float64) string {
	switch {
	case scoreA < scoreB:
		return idA
	case scoreB < scoreA:
		return idB
	case idA < idB:
		return idB
	}

	return idA
}
