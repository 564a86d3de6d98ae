// Package cli wires the cobra command tree: every subcommand implements the
// command interface and runs against a shared app holding the configuration,
// the runner client and the local job registry.
package cli

import (
	"encoding/json"
	"strings"

	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/comet-hpc/comet/config"
	"github.com/comet-hpc/comet/runner"
	"github.com/comet-hpc/comet/store"
)

type command interface {
	registerFlags() *cobra.Command
	run(a *app, cmd *cobra.Command, args []string) error
}

type app struct {
	rootCmd *cobra.Command

	cfgPath   string
	storePath string
	verbose   bool

	cfg      *config.Config
	client   *runner.Client
	registry *store.Store
}

func (a *app) Exec() error {
	return a.rootCmd.Execute()
}

// App is the built command tree, ready to execute.
type App interface {
	Exec() error
}

// NewApp builds the comet command tree. Configuration and registry are
// opened lazily in PersistentPreRunE so `comet --help` works anywhere.
func NewApp() App {
	a := &app{}

	a.rootCmd = &cobra.Command{
		Use:           "comet",
		Short:         "comet delegates procedure calls to a SLURM cluster over SSH",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if a.verbose {
				log.SetLevel(log.DebugLevel)
			}
			return a.open()
		},
		PersistentPostRunE: func(cmd *cobra.Command, args []string) error {
			return a.close()
		},
	}
	a.rootCmd.PersistentFlags().StringVar(&a.cfgPath, "config", "", "path to comet.yml")
	a.rootCmd.PersistentFlags().StringVar(&a.storePath, "store", "", "path to the local job registry")
	a.rootCmd.PersistentFlags().BoolVarP(&a.verbose, "verbose", "v", false, "debug logging")

	a.addCmd(&submitCmd{})
	a.addCmd(&statusCmd{})
	a.addCmd(&logsCmd{})
	a.addCmd(&cancelCmd{})
	a.addCmd(&watchCmd{})
	a.addCmd(&listCmd{})
	a.addCmd(&serveCmd{})

	return a
}

func (a *app) addCmd(cmd command) {
	cobraCmd := cmd.registerFlags()
	cobraCmd.RunE = func(innerCmd *cobra.Command, args []string) error {
		return cmd.run(a, innerCmd, args)
	}
	a.rootCmd.AddCommand(cobraCmd)
}

func (a *app) open() error {
	cfg, err := config.Load(a.cfgPath)
	if err != nil {
		return err
	}
	if err := cfg.Validate(); err != nil {
		return err
	}
	a.cfg = cfg
	a.client = runner.New(cfg)

	path := a.storePath
	if path == "" {
		if path, err = store.DefaultPath(); err != nil {
			return errors.Wrap(err, "resolve registry path")
		}
	}
	if a.registry, err = store.Open(path); err != nil {
		return err
	}
	return nil
}

func (a *app) close() error {
	if a.registry != nil {
		return a.registry.Close()
	}
	return nil
}

// parseTyped reads a CLI argument value: JSON when it parses, otherwise the
// literal string. "3" is an int, "3.5" a float, "true" a bool, "[1,2]" a
// list, and anything unparsable stays a string. Numbers are kept as
// json.Number so integers are not flattened to float64.
func parseTyped(raw string) any {
	dec := json.NewDecoder(strings.NewReader(raw))
	dec.UseNumber()
	var v any
	if err := dec.Decode(&v); err == nil && !dec.More() {
		return v
	}
	return raw
}

// parseKwarg splits key=value and types the value like parseTyped.
func parseKwarg(raw string) (string, any, error) {
	key, val, found := strings.Cut(raw, "=")
	if !found || key == "" {
		return "", nil, errors.Errorf("kwarg %q is not of the form key=value", raw)
	}
	return key, parseTyped(val), nil
}
