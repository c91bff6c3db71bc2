package main

import (
	"context"
	"fmt"
	"slices"
	"time"

	"github.com/dalemusser/stratasite/internal/app/content/defaults"
	contentstore "github.com/dalemusser/stratasite/internal/app/store/content"
	"github.com/dalemusser/stratasite/internal/app/system/contentschema"
	"github.com/dalemusser/stratasite/internal/app/system/indexes"
	"github.com/dalemusser/stratasite/internal/app/system/seeding"
	"github.com/dalemusser/stratasite/internal/app/system/validators"
	wafflemongo "github.com/dalemusser/waffle/pantry/mongo"
	"github.com/spf13/cobra"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

const commandTimeout = 2 * time.Minute

func (c *cli) validateCmd() *cobra.Command {
	var file string
	cmd := &cobra.Command{
		Use:   "validate",
		Short: "Check a defaults table against every kind's field schema",
		Long: `Decodes every entry into its content type and validates it against the
kind's field schema, reporting all problems at once. Without --file the
table built into the server is checked.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			table, err := defaults.Load(file)
			if err != nil {
				return err
			}
			problems := validateTable(table)
			for _, p := range problems {
				fmt.Fprintln(cmd.ErrOrStderr(), p)
			}
			if len(problems) > 0 {
				return fmt.Errorf("%s: %d problem(s)", table.Source(), len(problems))
			}
			n := 0
			for _, kind := range table.Kinds() {
				n += len(table.Entries(kind))
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s: ok (%d entries across %d kinds)\n", table.Source(), n, len(table.Kinds()))
			return nil
		},
	}
	cmd.Flags().StringVarP(&file, "file", "f", "", "YAML defaults table (default: built-in table)")
	return cmd
}

// validateTable returns one line per problem, sorted for stable output.
func validateTable(table *defaults.Table) []string {
	var out []string
	if err := table.Check(); err != nil {
		out = append(out, err.Error())
	}
	for _, kind := range table.Kinds() {
		fields, ok := contentschema.For(kind)
		if !ok {
			out = append(out, kind+": no field schema")
			continue
		}
		for i, entry := range table.Entries(kind) {
			_, res := contentschema.Validate(fields, entry, false)
			for path, msg := range res.Fields() {
				out = append(out, fmt.Sprintf("%s[%d].%s: %s", kind, i, path, msg))
			}
		}
	}
	slices.Sort(out)
	return out
}

func (c *cli) seedCmd() *cobra.Command {
	var file, kind string
	cmd := &cobra.Command{
		Use:   "seed",
		Short: "Copy defaults into empty content collections",
		Long: `Ensures collections and indexes, then inserts the table's entries into
every content collection that holds no documents. Collections with content
are never touched.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			table, err := defaults.Load(file)
			if err != nil {
				return err
			}
			if problems := validateTable(table); len(problems) > 0 {
				return fmt.Errorf("%s is invalid; run defaults validate", table.Source())
			}

			ctx, cancel := context.WithTimeout(cmd.Context(), commandTimeout)
			defer cancel()
			db, closeDB, err := c.connect(ctx)
			if err != nil {
				return err
			}
			defer closeDB()

			if err := validators.EnsureAll(ctx, db); err != nil {
				return fmt.Errorf("ensure collections: %w", err)
			}
			if err := indexes.EnsureAll(ctx, db); err != nil {
				return fmt.Errorf("ensure indexes: %w", err)
			}

			reg := contentstore.NewRegistry(db, c.logger)
			seeded := map[string]int{}
			if kind == "" {
				if seeded, err = seeding.SeedContent(ctx, reg, table, c.logger); err != nil {
					return err
				}
			} else {
				repo, err := reg.Repo(kind)
				if err != nil {
					return err
				}
				n, err := repo.SeedPatches(ctx, table.Entries(kind))
				if err != nil {
					return fmt.Errorf("seed %s: %w", kind, err)
				}
				seeded[kind] = n
			}

			kinds := make([]string, 0, len(seeded))
			for k := range seeded {
				kinds = append(kinds, k)
			}
			slices.Sort(kinds)
			for _, k := range kinds {
				fmt.Fprintf(cmd.OutOrStdout(), "%s: inserted %d\n", k, seeded[k])
			}
			if len(kinds) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "nothing to seed; every collection already has content")
			}
			return nil
		},
	}
	cmd.Flags().StringVarP(&file, "file", "f", "", "YAML defaults table (default: built-in table)")
	cmd.Flags().StringVar(&kind, "kind", "", "seed only this kind")
	return cmd
}

// connect opens the database named by the global flags.
func (c *cli) connect(ctx context.Context) (*mongo.Database, func(), error) {
	client, err := wafflemongo.ConnectWithPool(ctx, c.mongoURI, c.database, wafflemongo.DefaultPoolConfig())
	if err != nil {
		return nil, nil, fmt.Errorf("connect to MongoDB: %w", err)
	}
	c.logger.Debug("connected to MongoDB", zap.String("database", c.database))
	return client.Database(c.database), func() {
		dctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = client.Disconnect(dctx)
	}, nil
}
