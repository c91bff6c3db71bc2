// Command contentctl checks content defaults tables and moves content
// between YAML and MongoDB.
//
//	contentctl defaults validate --file content.yaml
//	contentctl defaults seed --mongo-uri mongodb://localhost:27017 --db stratasite
//	contentctl export --kind faqs > faqs.yaml
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

// cli carries the global flags and the logger built from them.
type cli struct {
	verbose  bool
	mongoURI string
	database string
	logger   *zap.Logger
}

func newRootCmd() *cobra.Command {
	c := &cli{logger: zap.NewNop()}

	root := &cobra.Command{
		Use:           "contentctl",
		Short:         "Validate, seed and export stratasite content",
		SilenceUsage:  true,
		SilenceErrors: false,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			config := zap.NewDevelopmentConfig()
			config.Level = zap.NewAtomicLevelAt(zapcore.WarnLevel)
			if c.verbose {
				config.Level = zap.NewAtomicLevelAt(zapcore.DebugLevel)
			}
			logger, err := config.Build()
			if err != nil {
				return fmt.Errorf("failed to initialize logger: %w", err)
			}
			c.logger = logger
			return nil
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			_ = c.logger.Sync()
		},
	}

	root.PersistentFlags().BoolVarP(&c.verbose, "verbose", "v", false, "debug logging")
	root.PersistentFlags().StringVar(&c.mongoURI, "mongo-uri", envOr("STRATASITE_MONGO_URI", "mongodb://localhost:27017"), "MongoDB connection URI")
	root.PersistentFlags().StringVar(&c.database, "db", envOr("STRATASITE_MONGO_DATABASE", "stratasite"), "MongoDB database name")

	defaultsCmd := &cobra.Command{
		Use:   "defaults",
		Short: "Work with the content defaults table",
	}
	defaultsCmd.AddCommand(c.validateCmd(), c.seedCmd())
	root.AddCommand(defaultsCmd, c.exportCmd(), c.usersCmd())
	return root
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
