package main

import (
	"context"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/Aleph-Alpha/querykit/v1/catalog"
	"github.com/Aleph-Alpha/querykit/v1/docstore"
	"github.com/Aleph-Alpha/querykit/v1/minio"
)

// RootOptions holds the global flags.
type RootOptions struct {
	ConfigPath string
	Verbose    bool

	// Memory answers from an in-process store instead of PostgreSQL,
	// optionally filled from Seed.
	Memory bool
	Seed   string

	viper *viper.Viper
	cfg   *Config
}

// NewRootCommand creates the querykit command tree.
func NewRootCommand() *cobra.Command {
	opts := &RootOptions{viper: viper.New()}

	cmd := &cobra.Command{
		Use:   "querykit",
		Short: "Query the game catalog",
		Long: `querykit translates filter parameters into document-store and external
catalog queries and runs them.

Parameters are given as key=value arguments using the bracket syntax of the
HTTP API, or as a JSON object with --json:

  querykit query game 'title[contains]=zelda' 'rating[gte]=80' sort=-rating
  querykit query savedata user.username=ash --memory --seed fixtures.json
  querykit explain game --json '{"releaseDate": {"gt": "2017-01-01"}}'`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	flags := cmd.PersistentFlags()
	flags.StringVarP(&opts.ConfigPath, "config", "c", "", "path to a YAML config file")
	flags.BoolVarP(&opts.Verbose, "verbose", "v", false, "log application startup and shutdown")
	flags.BoolVar(&opts.Memory, "memory", false, "use an in-memory document store")
	flags.StringVar(&opts.Seed, "seed", "", "JSON file of documents per collection for --memory, or minio:<snapshot>")
	flags.String("log-level", "warning", "log level (debug|info|warning|error)")
	_ = opts.viper.BindPFlag("logger.level", flags.Lookup("log-level"))

	cmd.AddCommand(NewQueryCommand(opts))
	cmd.AddCommand(NewExplainCommand(opts))
	cmd.AddCommand(NewDeleteCommand(opts))
	cmd.AddCommand(NewUpdateCommand(opts))
	cmd.AddCommand(NewInsertCommand(opts))
	cmd.AddCommand(NewExportCommand(opts))

	return cmd
}

// run loads the configuration and calls fn with a started catalog service.
// Populate targets receive further components of the application.
func (o *RootOptions) run(cmd *cobra.Command, fn func(context.Context, *catalog.Service) error, populate ...any) error {
	cfg, err := o.config()
	if err != nil {
		return err
	}

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	var store docstore.Store
	if o.Memory {
		mem := docstore.NewMemoryStore()
		if o.Seed != "" {
			if err := o.seed(ctx, cfg, mem); err != nil {
				return &ExitError{Code: ExitUsage, Message: "invalid seed", Err: err}
			}
		}
		store = mem
	} else if o.Seed != "" {
		return newExitError(ExitUsage, "--seed requires --memory")
	}
	return withService(ctx, cfg, o.Verbose, store, fn, populate...)
}

// config loads the configuration once per invocation.
func (o *RootOptions) config() (Config, error) {
	if o.cfg != nil {
		return *o.cfg, nil
	}
	cfg, err := loadConfig(o.viper, o.ConfigPath)
	if err != nil {
		return Config{}, &ExitError{Code: ExitUsage, Message: "invalid configuration", Err: err}
	}
	o.cfg = &cfg
	return cfg, nil
}

// seed fills store from a seed file or, for "minio:<name>", from a stored
// snapshot.
func (o *RootOptions) seed(ctx context.Context, cfg Config, store *docstore.MemoryStore) error {
	name, stored := strings.CutPrefix(o.Seed, seedMinioPrefix)
	if !stored {
		return loadSeed(store, o.Seed)
	}

	client, err := minio.NewClient(cfg.Minio)
	if err != nil {
		return err
	}
	raw, err := client.GetSnapshot(ctx, name)
	if err != nil {
		return err
	}
	return decodeSeed(store, raw, o.Seed)
}
