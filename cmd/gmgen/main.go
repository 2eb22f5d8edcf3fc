// Command gmgen generates text from template libraries and lints them.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	osfs "github.com/hack-pad/hackpadfs/os"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/kittclouds/gmgen/internal/config"
	"github.com/kittclouds/gmgen/internal/store"
	"github.com/kittclouds/gmgen/pkg/diag"
	"github.com/kittclouds/gmgen/pkg/generator"
	"github.com/kittclouds/gmgen/pkg/library"
	"github.com/kittclouds/gmgen/pkg/loader"
)

// cli holds global flags and the state built from them.
type cli struct {
	configPath string
	libs       []string
	dsn        string
	seed       int64
	verbose    bool

	cfg    *config.Config
	logger *zap.Logger
}

func newRootCmd() *cobra.Command {
	c := &cli{}

	root := &cobra.Command{
		Use:   "gmgen",
		Short: "gmgen - weighted template text generator",
		Long: `gmgen expands templates against libraries of weighted values.

Libraries are JSON, YAML or TOML bundles holding definitions, value lists
and templates. Templates select values with %key%, {a|b} and @key{...}
directives, branch with @if:key{...}, and capitalise with ^...^.`,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(c.configPath)
			if err != nil {
				return err
			}
			c.cfg = cfg

			// Initialize logger
			zc := zap.NewProductionConfig()
			if c.verbose {
				zc.Level = zap.NewAtomicLevelAt(zapcore.DebugLevel)
			}
			c.logger, err = zc.Build()
			if err != nil {
				return fmt.Errorf("failed to initialize logger: %w", err)
			}
			return nil
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			if c.logger != nil {
				_ = c.logger.Sync()
			}
		},
	}

	root.PersistentFlags().StringVar(&c.configPath, "config", config.DefaultPath, "Config file")
	root.PersistentFlags().StringArrayVarP(&c.libs, "lib", "l", nil, "Bundle file or directory (repeatable)")
	root.PersistentFlags().StringVar(&c.dsn, "db", "", "SQLite bundle store (overrides store.dsn)")
	root.PersistentFlags().Int64Var(&c.seed, "seed", 0, "Random seed (0 = random)")
	root.PersistentFlags().BoolVarP(&c.verbose, "verbose", "v", false, "Enable debug logging")

	root.AddCommand(
		c.generateCmd(),
		c.stepCmd(),
		c.missingCmd(),
		c.overlapsCmd(),
		c.unreferencedCmd(),
		c.cyclesCmd(),
		c.importCmd(),
		c.execCmd(),
	)
	return root
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := newRootCmd().ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// =============================================================================
// Engine setup
// =============================================================================

// optionsPatch is the configured patch with --verbose applied.
func (c *cli) optionsPatch() generator.OptionsPatch {
	p := c.cfg.Options
	if c.verbose {
		p.Logging = generator.LevelOf(diag.LevelDebug)
	}
	return p
}

func (c *cli) storeDSN() string {
	if c.dsn != "" {
		return c.dsn
	}
	return c.cfg.Store.DSN
}

// newGenerator builds an engine from the store (if configured) and every
// library path.
func (c *cli) newGenerator(cmd *cobra.Command) (*generator.Generator, error) {
	patch := c.optionsPatch()
	seed := c.cfg.Seed
	if cmd.Flags().Changed("seed") {
		seed = c.seed
	}
	diag.SetDefault(diag.New(c.logger, generator.DefaultOptions().Apply(patch).Logging))

	gen := generator.New(
		generator.WithOptions(patch),
		generator.WithLogger(c.logger),
		generator.WithSeed(seed),
	)

	if dsn := c.storeDSN(); dsn != "" {
		st, err := store.NewSQLiteStoreWithDSN(dsn)
		if err != nil {
			return nil, err
		}
		defer st.Close()
		lib, err := store.LoadLibrary(st)
		if err != nil {
			return nil, err
		}
		gen.LoadLibrary(lib)
		c.logger.Debug("Loaded bundles from store", zap.String("dsn", dsn), zap.Int("bundles", lib.Len()))
	}

	lib, err := c.loadLibraries()
	if err != nil {
		return nil, err
	}
	gen.LoadLibrary(lib)
	return gen, nil
}

// loadLibraries reads the configured library paths followed by --lib.
func (c *cli) loadLibraries() (*library.Library, error) {
	paths := append(append([]string(nil), c.cfg.Libraries...), c.libs...)
	fsys := osfs.NewFS()
	fsPaths, err := toFSPaths(fsys, paths)
	if err != nil {
		return nil, err
	}
	return loader.New(fsys, diag.Default()).Load(fsPaths...)
}

// toFSPaths maps OS paths onto the rooted hackpadfs namespace.
func toFSPaths(fsys *osfs.FS, paths []string) ([]string, error) {
	out := make([]string, len(paths))
	for i, p := range paths {
		abs, err := filepath.Abs(p)
		if err != nil {
			return nil, err
		}
		if out[i], err = fsys.FromOSPath(abs); err != nil {
			return nil, fmt.Errorf("library path %s: %w", p, err)
		}
	}
	return out, nil
}

// templateArg is the literal template in args, or the loaded pool.
func templateArg(args []string) generator.Template {
	if len(args) == 0 {
		return generator.Pool()
	}
	return generator.Literal(args[0])
}
