// Command quadline parses N-Quads and N-Triples documents and loads them
// into a badger-backed quad store.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/aleksaelezovic/quadline/clog"
	"github.com/aleksaelezovic/quadline/clog/glog"
	"github.com/aleksaelezovic/quadline/internal/config"
	"github.com/aleksaelezovic/quadline/internal/storage"
	"github.com/aleksaelezovic/quadline/internal/store"
)

const (
	flagConfig    = "config"
	flagDB        = "db"
	flagMemory    = "memory"
	flagVerbosity = "verbosity"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := newRootCmd().ExecuteContext(ctx)
	stop()
	glog.Flush()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// app carries state shared by all subcommands once the root command has
// resolved the configuration
type app struct {
	configFile string
	v          *viper.Viper
	cfg        *config.Config
}

func newRootCmd() *cobra.Command {
	a := &app{}

	root := &cobra.Command{
		Use:   "quadline",
		Short: "Line-oriented N-Quads scanner and loader",
		Long: `quadline decodes N-Quads and N-Triples documents one line at a time.

Malformed lines are reported and skipped; everything else is printed back
as N-Quads or loaded into a badger quad store. Input may be a file, "-" for
standard input, or an http(s) URL, optionally gzip, zstd or bzip2 compressed.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return a.setup(cmd)
		},
	}

	pf := root.PersistentFlags()
	pf.StringVar(&a.configFile, flagConfig, "", "path to a config file (yaml, json or toml)")
	pf.String(flagDB, "", "path to the database directory (store.path)")
	pf.Bool(flagMemory, false, "use an in-memory database (store.in_memory)")
	pf.Int(flagVerbosity, 0, "log verbosity for quadline packages (log.verbosity)")

	// glog's own flags (-v, -logtostderr, ...) ride along on the root command
	if f := flag.Lookup("logtostderr"); f != nil {
		_ = f.Value.Set("true")
	}
	pf.AddGoFlagSet(flag.CommandLine)

	root.AddCommand(
		newParseCmd(a),
		newLoadCmd(a),
		newCountCmd(a),
		newDumpCmd(a),
	)
	return root
}

func (a *app) setup(cmd *cobra.Command) error {
	v, err := config.New(a.configFile)
	if err != nil {
		return err
	}

	pf := cmd.Root().PersistentFlags()
	for key, name := range map[string]string{
		config.KeyStorePath:    flagDB,
		config.KeyInMemory:     flagMemory,
		config.KeyLogVerbosity: flagVerbosity,
	} {
		if err := v.BindPFlag(key, pf.Lookup(name)); err != nil {
			return err
		}
	}

	cfg, err := config.Load(v)
	if err != nil {
		return err
	}
	clog.SetV(cfg.LogVerbosity)

	a.v, a.cfg = v, cfg
	return nil
}

// openStore opens the configured quad store
func (a *app) openStore() (*store.QuadStore, error) {
	if a.cfg.InMemory {
		clog.Infof("using in-memory database")
		s, err := storage.NewInMemoryStorage()
		if err != nil {
			return nil, err
		}
		return store.NewQuadStore(s), nil
	}

	clog.Infof("using database %q", a.cfg.StorePath)
	s, err := storage.NewBadgerStorage(a.cfg.StorePath)
	if err != nil {
		return nil, err
	}
	return store.NewQuadStore(s), nil
}
