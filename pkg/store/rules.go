package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"

	"github.com/vibekit/rulehub/pkg/catalog"
)

const (
	kindFramework   = "framework"
	kindAIAssistant = "ai_assistant"
	kindIDE         = "ide"
)

// ImportStats counts the rows written by [Store.ImportCatalog].
type ImportStats struct {
	Rules        int `json:"rules"`
	Dependencies int `json:"dependencies"`
}

// ImportCatalog upserts rules and dependency edges in one transaction.
// Compatibility lists of imported rules are replaced.
func (s *Store) ImportCatalog(ctx context.Context, rules []catalog.Rule, deps []catalog.Dependency) (*ImportStats, error) {
	if err := s.ready(); err != nil {
		return nil, err
	}

	for i := range rules {
		if err := rules[i].Validate(); err != nil {
			return nil, fmt.Errorf("rule %d: %w", i, err)
		}
	}

	for i, d := range deps {
		if err := d.Validate(); err != nil {
			return nil, fmt.Errorf("dependency %d: %w", i, err)
		}
	}

	ctx, span := otel.Tracer("store").Start(ctx, "import catalog")
	defer span.End()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin: %w", err)
	}

	defer func() {
		_ = tx.Rollback()
	}()

	now := unixMs(s.now())

	for i := range rules {
		if err := upsertRule(ctx, tx, &rules[i], now); err != nil {
			span.RecordError(err)

			return nil, fmt.Errorf("import rule %q: %w", rules[i].ID, err)
		}
	}

	for _, d := range deps {
		_, err := tx.ExecContext(ctx, `
INSERT INTO rule_dependencies(rule_id, depends_on_rule_id, dependency_type)
VALUES(?, ?, ?)
ON CONFLICT DO NOTHING
`, d.RuleID, d.DependsOnRuleID, string(d.Type))
		if err != nil {
			span.RecordError(err)

			return nil, fmt.Errorf("import dependency %s -> %s: %w", d.RuleID, d.DependsOnRuleID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit: %w", err)
	}

	span.SetAttributes(attribute.Int("rules", len(rules)), attribute.Int("dependencies", len(deps)))

	return &ImportStats{Rules: len(rules), Dependencies: len(deps)}, nil
}

func upsertRule(ctx context.Context, tx *sql.Tx, r *catalog.Rule, now int64) error {
	tags := r.Tags
	if tags == nil {
		tags = []string{}
	}

	tagsJSON, err := json.Marshal(tags)
	if err != nil {
		return fmt.Errorf("encode tags: %w", err)
	}

	_, err = tx.ExecContext(ctx, `
INSERT INTO rules(id, title, slug, content, tags_json, always_apply, created_at_unix_ms, updated_at_unix_ms)
VALUES(?, ?, ?, ?, ?, ?, ?, ?)
ON CONFLICT(id) DO UPDATE SET
  title = excluded.title,
  slug = excluded.slug,
  content = excluded.content,
  tags_json = excluded.tags_json,
  always_apply = excluded.always_apply,
  updated_at_unix_ms = excluded.updated_at_unix_ms
`, r.ID, r.Title, r.Slug, r.Content, string(tagsJSON), boolToInt(r.AlwaysApply), now, now)
	if err != nil {
		return fmt.Errorf("upsert: %w", err)
	}

	_, err = tx.ExecContext(ctx, `DELETE FROM rule_compatibility WHERE rule_id = ?`, r.ID)
	if err != nil {
		return fmt.Errorf("clear compatibility: %w", err)
	}

	if r.Compatibility.IsEmpty() {
		return nil
	}

	lists := map[string][]string{
		kindFramework:   r.Compatibility.Frameworks,
		kindAIAssistant: r.Compatibility.AIAssistants,
		kindIDE:         r.Compatibility.IDEs,
	}

	for kind, values := range lists {
		for pos, v := range values {
			_, err := tx.ExecContext(ctx, `
INSERT INTO rule_compatibility(rule_id, kind, position, value) VALUES(?, ?, ?, ?)
`, r.ID, kind, pos, v)
			if err != nil {
				return fmt.Errorf("insert compatibility: %w", err)
			}
		}
	}

	return nil
}

// FetchAllRulesWithCompatibility returns every rule, ordered by id, with
// its compatibility lists.
func (s *Store) FetchAllRulesWithCompatibility(ctx context.Context) ([]catalog.Rule, error) {
	if err := s.ready(); err != nil {
		return nil, err
	}

	ctx, span := otel.Tracer("store").Start(ctx, "fetch rules")
	defer span.End()

	rules, err := s.queryRules(ctx, `ORDER BY id ASC`)
	if err != nil {
		span.RecordError(err)

		return nil, err
	}

	span.SetAttributes(attribute.Int("rules", len(rules)))

	return rules, nil
}

// ListRules is an alias of [Store.FetchAllRulesWithCompatibility].
func (s *Store) ListRules(ctx context.Context) ([]catalog.Rule, error) {
	return s.FetchAllRulesWithCompatibility(ctx)
}

// GetRule returns the rule with the given id, or [ErrNotFound].
func (s *Store) GetRule(ctx context.Context, id string) (*catalog.Rule, error) {
	if err := s.ready(); err != nil {
		return nil, err
	}

	id = strings.TrimSpace(id)
	if id == "" {
		return nil, catalog.ErrMissingID
	}

	rules, err := s.queryRules(ctx, `WHERE id = ?`, id)
	if err != nil {
		return nil, err
	}
	if len(rules) == 0 {
		return nil, fmt.Errorf("rule %q: %w", id, ErrNotFound)
	}

	return &rules[0], nil
}

func (s *Store) queryRules(ctx context.Context, clause string, args ...any) ([]catalog.Rule, error) {
	rows, err := s.db.QueryContext(ctx, `
SELECT id, title, slug, content, tags_json, always_apply
FROM rules
`+clause, args...)
	if err != nil {
		return nil, fmt.Errorf("query rules: %w", err)
	}
	defer rows.Close()

	var (
		out   []catalog.Rule
		index = map[string]int{}
	)

	for rows.Next() {
		var (
			r        catalog.Rule
			tagsJSON string
			always   int
		)

		err := rows.Scan(&r.ID, &r.Title, &r.Slug, &r.Content, &tagsJSON, &always)
		if err != nil {
			return nil, fmt.Errorf("scan rule: %w", err)
		}

		if err := json.Unmarshal([]byte(tagsJSON), &r.Tags); err != nil {
			return nil, fmt.Errorf("decode tags for rule %q: %w", r.ID, err)
		}
		if len(r.Tags) == 0 {
			r.Tags = nil
		}

		r.AlwaysApply = always != 0
		index[r.ID] = len(out)
		out = append(out, r)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate rules: %w", err)
	}

	if len(out) == 0 {
		return out, nil
	}

	err = s.attachCompatibility(ctx, out, index)
	if err != nil {
		return nil, err
	}

	return out, nil
}

func (s *Store) attachCompatibility(ctx context.Context, rules []catalog.Rule, index map[string]int) error {
	rows, err := s.db.QueryContext(ctx, `
SELECT rule_id, kind, value
FROM rule_compatibility
ORDER BY rule_id, kind, position
`)
	if err != nil {
		return fmt.Errorf("query compatibility: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var ruleID, kind, value string

		if err := rows.Scan(&ruleID, &kind, &value); err != nil {
			return fmt.Errorf("scan compatibility: %w", err)
		}

		i, ok := index[ruleID]
		if !ok {
			continue
		}

		r := &rules[i]
		if r.Compatibility == nil {
			r.Compatibility = &catalog.Compatibility{}
		}

		switch kind {
		case kindFramework:
			r.Compatibility.Frameworks = append(r.Compatibility.Frameworks, value)
		case kindAIAssistant:
			r.Compatibility.AIAssistants = append(r.Compatibility.AIAssistants, value)
		case kindIDE:
			r.Compatibility.IDEs = append(r.Compatibility.IDEs, value)
		}
	}

	if err := rows.Err(); err != nil {
		return fmt.Errorf("iterate compatibility: %w", err)
	}

	return nil
}

// FetchConflictEdges returns the conflict edges whose rule id is in ids.
func (s *Store) FetchConflictEdges(ctx context.Context, ids []string) ([]catalog.Dependency, error) {
	if err := s.ready(); err != nil {
		return nil, err
	}
	if len(ids) == 0 {
		return nil, nil
	}

	ctx, span := otel.Tracer("store").Start(ctx, "fetch conflict edges")
	defer span.End()

	args := make([]any, 0, len(ids)+1)
	args = append(args, string(catalog.DependencyConflicts))

	for _, id := range ids {
		args = append(args, id)
	}

	//nolint:gosec // G202: only placeholders are concatenated.
	rows, err := s.db.QueryContext(ctx, `
SELECT rule_id, depends_on_rule_id, dependency_type
FROM rule_dependencies
WHERE dependency_type = ? AND rule_id IN (`+placeholders(len(ids))+`)
ORDER BY rule_id, depends_on_rule_id
`, args...)
	if err != nil {
		span.RecordError(err)

		return nil, fmt.Errorf("query dependencies: %w", err)
	}
	defer rows.Close()

	var out []catalog.Dependency

	for rows.Next() {
		var (
			d       catalog.Dependency
			depType string
		)

		if err := rows.Scan(&d.RuleID, &d.DependsOnRuleID, &depType); err != nil {
			return nil, fmt.Errorf("scan dependency: %w", err)
		}

		d.Type = catalog.DependencyType(depType)
		out = append(out, d)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate dependencies: %w", err)
	}

	span.SetAttributes(attribute.Int("edges", len(out)))

	return out, nil
}

// CountRules returns the number of rules in the catalog.
func (s *Store) CountRules(ctx context.Context) (int, error) {
	if err := s.ready(); err != nil {
		return 0, err
	}

	var n int

	err := s.db.QueryRowContext(ctx, `SELECT COUNT(1) FROM rules`).Scan(&n)
	if err != nil && !errors.Is(err, sql.ErrNoRows) {
		return 0, fmt.Errorf("count rules: %w", err)
	}

	return n, nil
}

func placeholders(n int) string {
	return strings.TrimSuffix(strings.Repeat("?,", n), ",")
}
