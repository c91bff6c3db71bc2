package main

import (
	"context"
	"encoding/json"
	"fmt"
	"math"

	contentstore "github.com/dalemusser/stratasite/internal/app/store/content"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
)

// storeOwned are dropped on export so the output reads back as a defaults table.
var storeOwned = []string{"id", "created_at", "updated_at"}

func (c *cli) exportCmd() *cobra.Command {
	var kinds []string
	cmd := &cobra.Command{
		Use:   "export",
		Short: "Write stored content as a YAML defaults table",
		Long: `Reads every document of the given kinds in display order and prints
them in the defaults table format, suitable for content_defaults_path.
Without --kind every kind is exported.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := context.WithTimeout(cmd.Context(), commandTimeout)
			defer cancel()
			db, closeDB, err := c.connect(ctx)
			if err != nil {
				return err
			}
			defer closeDB()

			reg := contentstore.NewRegistry(db, c.logger)
			if len(kinds) == 0 {
				for _, k := range reg.Kinds() {
					kinds = append(kinds, k.Name)
				}
			}

			table := map[string][]map[string]any{}
			for _, kind := range kinds {
				repo, err := reg.Repo(kind)
				if err != nil {
					return err
				}
				docs, err := repo.List(ctx, contentstore.Query{SortBy: "order"})
				if err != nil {
					return fmt.Errorf("list %s: %w", kind, err)
				}
				entries, err := toEntries(docs)
				if err != nil {
					return fmt.Errorf("export %s: %w", kind, err)
				}
				table[kind] = entries
			}

			enc := yaml.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent(2)
			if err := enc.Encode(table); err != nil {
				return err
			}
			return enc.Close()
		},
	}
	cmd.Flags().StringSliceVar(&kinds, "kind", nil, "kind to export (repeatable)")
	return cmd
}

// toEntries turns a slice of typed documents into defaults table entries
// using the documents' JSON field names.
func toEntries(docs any) ([]map[string]any, error) {
	raw, err := json.Marshal(docs)
	if err != nil {
		return nil, err
	}
	var entries []map[string]any
	if err := json.Unmarshal(raw, &entries); err != nil {
		return nil, err
	}
	if entries == nil {
		entries = []map[string]any{}
	}
	for _, e := range entries {
		for _, k := range storeOwned {
			delete(e, k)
		}
		for k, v := range e {
			e[k] = wholeNumbers(v)
		}
	}
	return entries, nil
}

// wholeNumbers turns integral float64s from JSON back into ints so YAML
// prints 1000000 rather than 1e+06.
func wholeNumbers(v any) any {
	switch t := v.(type) {
	case float64:
		if t == math.Trunc(t) && math.Abs(t) < 1<<53 {
			return int64(t)
		}
		return t
	case map[string]any:
		for k, inner := range t {
			t[k] = wholeNumbers(inner)
		}
		return t
	case []any:
		for i, inner := range t {
			t[i] = wholeNumbers(inner)
		}
		return t
	default:
		return v
	}
}
