package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/vibekit/rulehub/pkg/wizard"
)

// InsertConfiguration persists cfg and returns its new id.
func (s *Store) InsertConfiguration(ctx context.Context, cfg *wizard.Configuration) (string, error) {
	if err := s.ready(); err != nil {
		return "", err
	}
	if cfg == nil {
		return "", wizard.ErrEmptyFormat
	}
	if err := cfg.Validate(); err != nil {
		return "", fmt.Errorf("invalid configuration: %w", err)
	}

	cols, err := encodeJSONColumns(cfg.StackChoices, cfg.LanguageChoices, cfg.ToolPreferences, cfg.EnvironmentDetails)
	if err != nil {
		return "", err
	}

	id := s.newID()

	_, err = s.db.ExecContext(ctx, `
INSERT INTO wizard_configurations(
  id, stack_choices_json, language_choices_json, tool_preferences_json,
  environment_details_json, output_format, custom_requirements, created_at_unix_ms
) VALUES(?, ?, ?, ?, ?, ?, ?, ?)
`, id, cols[0], cols[1], cols[2], cols[3], string(cfg.OutputFormat), cfg.CustomRequirements, unixMs(s.now()))
	if err != nil {
		return "", fmt.Errorf("insert configuration: %w", err)
	}

	return id, nil
}

// GetConfiguration returns the configuration with the given id, or
// [ErrNotFound].
func (s *Store) GetConfiguration(ctx context.Context, id string) (*wizard.Configuration, error) {
	if err := s.ready(); err != nil {
		return nil, err
	}

	var (
		cfg                               wizard.Configuration
		stacks, languages, tools, envJSON string
		format                            string
	)

	err := s.db.QueryRowContext(ctx, `
SELECT stack_choices_json, language_choices_json, tool_preferences_json,
       environment_details_json, output_format, custom_requirements
FROM wizard_configurations
WHERE id = ?
`, id).Scan(&stacks, &languages, &tools, &envJSON, &format, &cfg.CustomRequirements)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("configuration %q: %w", id, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("query configuration: %w", err)
	}

	cfg.OutputFormat = wizard.OutputFormat(format)

	decode := []struct {
		dst  any
		name string
		src  string
	}{
		{name: "stack choices", src: stacks, dst: &cfg.StackChoices},
		{name: "language choices", src: languages, dst: &cfg.LanguageChoices},
		{name: "tool preferences", src: tools, dst: &cfg.ToolPreferences},
		{name: "environment details", src: envJSON, dst: &cfg.EnvironmentDetails},
	}
	for _, d := range decode {
		if err := json.Unmarshal([]byte(d.src), d.dst); err != nil {
			return nil, fmt.Errorf("decode %s: %w", d.name, err)
		}
	}

	return &cfg, nil
}

func encodeJSONColumns(values ...any) ([]string, error) {
	out := make([]string, 0, len(values))

	for _, v := range values {
		b, err := json.Marshal(v)
		if err != nil {
			return nil, fmt.Errorf("encode column: %w", err)
		}

		// Nil maps encode as null.
		if string(b) == "null" {
			b = []byte("{}")
		}

		out = append(out, string(b))
	}

	return out, nil
}
