// Copyright (C) 2024, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package cmd

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/ava-labs/avalanchego/utils/logging"
	"github.com/ava-labs/avalanchego/utils/perms"
	"github.com/ava-labs/avalanchego/utils/wrappers"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/ava-labs/bankvm/config"
	"github.com/ava-labs/bankvm/consts"
	"github.com/ava-labs/bankvm/crypto/ed25519"
	"github.com/ava-labs/bankvm/pebble"
	"github.com/ava-labs/bankvm/program/bank"
	"github.com/ava-labs/bankvm/runtime"
	"github.com/ava-labs/bankvm/state"
	"github.com/ava-labs/bankvm/trace"

	avatrace "github.com/ava-labs/avalanchego/trace"
)

const (
	cliFolder   = ".bank-cli"
	keyFile     = "key.pk"
	defaultSeed = "bank"
)

type cli struct {
	home       string
	configPath string
	keyPath    string
	logLevel   string

	cfg      *config.Config
	log      logging.Logger
	closeLog func()

	db     *pebble.Database
	mu     *state.SimpleMutable
	tracer avatrace.Tracer
	rt     *runtime.Runtime
}

// Execute runs bank-cli with [args] and releases the database, tracer and
// logger afterwards, whether or not the command succeeded.
func Execute(args []string) error {
	c := &cli{}
	cmd := newRootCmd(c)
	cmd.SetArgs(args)
	errs := wrappers.Errs{}
	errs.Add(cmd.Execute(), c.close())
	return errs.Err
}

func newRootCmd(c *cli) *cobra.Command {
	cmd := &cobra.Command{
		Use:           "bank-cli",
		Short:         "Bank program CLI",
		SuggestFor:    []string{"bankcli"},
		SilenceErrors: true,
		SilenceUsage:  true,
		PersistentPreRunE: func(*cobra.Command, []string) error {
			return c.init()
		},
		RunE: func(*cobra.Command, []string) error {
			return ErrMissingSubcommand
		},
	}

	home, err := os.UserHomeDir()
	if err != nil {
		home = "."
	}
	cobra.EnablePrefixMatching = true
	cmd.CompletionOptions.HiddenDefaultCmd = true
	cmd.DisableAutoGenTag = true
	cmd.PersistentFlags().StringVar(&c.home, "home", filepath.Join(home, cliFolder), "directory holding keys, logs and the account database")
	cmd.PersistentFlags().StringVar(&c.configPath, "config", "", "config file (.json, .yaml or .yml), defaults to <home>/config.json")
	cmd.PersistentFlags().StringVar(&c.keyPath, "key", "", "payer key file, defaults to <home>/"+keyFile)
	cmd.PersistentFlags().StringVar(&c.logLevel, "log-level", "", "override the configured log level")

	cmd.AddCommand(
		newKeyCmd(c),
		newProgramCmd(c),
		newAccountCmd(c),
	)
	return cmd
}

func (c *cli) init() error {
	if err := os.MkdirAll(c.home, perms.ReadWriteExecute); err != nil {
		return err
	}
	if len(c.configPath) == 0 {
		c.configPath = filepath.Join(c.home, "config.json")
	}
	if len(c.keyPath) == 0 {
		c.keyPath = filepath.Join(c.home, keyFile)
	}

	cfg, err := config.Load(c.home, c.configPath)
	if err != nil {
		return err
	}
	if len(c.logLevel) > 0 {
		cfg.Log.Level = c.logLevel
	}
	level, err := cfg.GetLogLevel()
	if err != nil {
		return err
	}
	c.cfg = cfg

	c.log, c.closeLog, err = newLogger(consts.Name, level, cfg.Log)
	if err != nil {
		return err
	}
	c.log.Debug("loaded config",
		zap.String("home", c.home),
		zap.String("config", c.configPath),
		zap.String("database", cfg.DatabasePath),
	)
	return nil
}

// open prepares the account database and the runtime. Only commands that
// touch account state call it.
func (c *cli) open() error {
	db, registry, err := pebble.New(c.cfg.DatabasePath, c.cfg.Pebble)
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	c.db = db
	c.mu = state.NewSimpleMutable(db)

	c.tracer, err = trace.New(&c.cfg.Trace)
	if err != nil {
		return err
	}
	c.rt, err = newRuntime(c.log, c.tracer, c.cfg.Runtime, registry)
	return err
}

func (c *cli) close() error {
	errs := wrappers.Errs{}
	if c.tracer != nil {
		errs.Add(c.tracer.Close())
		c.tracer = nil
	}
	if c.db != nil {
		errs.Add(c.db.Close())
		c.db = nil
	}
	if c.closeLog != nil {
		c.closeLog()
		c.closeLog = nil
	}
	return errs.Err
}

func (c *cli) loadKey() (ed25519.PrivateKey, error) {
	priv, err := ed25519.LoadKey(c.keyPath)
	if err != nil {
		return ed25519.EmptyPrivateKey, fmt.Errorf("failed to load key from %s (run `key generate`): %w", c.keyPath, err)
	}
	return priv, nil
}

// newRuntime returns a runtime with the bank program registered.
func newRuntime(
	log logging.Logger,
	tracer avatrace.Tracer,
	cfg runtime.Config,
	registerer prometheus.Registerer,
) (*runtime.Runtime, error) {
	rt, err := runtime.New(log, tracer, cfg, registerer)
	if err != nil {
		return nil, err
	}
	if err := rt.Register(bank.ProgramID, bank.IncreaseBalance); err != nil {
		return nil, err
	}
	return rt, nil
}
