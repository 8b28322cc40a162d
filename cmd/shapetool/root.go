package main

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/fatih/color"
	"github.com/hashicorp/go-multierror"
	"github.com/mitchellh/go-homedir"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/nooga/hiddenclass/pkg/driver"
	"github.com/nooga/hiddenclass/pkg/vm"
)

const envPrefix = "SHAPETOOL"

// app carries the configuration shared by every subcommand.
type app struct {
	v       *viper.Viper
	logger  *zap.Logger
	bindErr error
	// homeErr is set when the default config location could not be resolved.
	homeErr error
}

func newRootCmd() *cobra.Command {
	a := &app{v: viper.New(), logger: zap.NewNop()}
	var cfgFile string

	root := &cobra.Command{
		Use:           "shapetool",
		Short:         "Inspect hidden-class transitions and error stack capture",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return a.setup(cfgFile)
		},
	}

	flags := root.PersistentFlags()
	flags.StringVar(&cfgFile, "config", "", "config file (default $HOME/.shapetool.yaml)")
	flags.String("log-level", "", "log level (debug, info, warn, error); empty disables logging")
	flags.Bool("no-color", false, "disable colored output")
	flags.Int("stack-trace-limit", vm.DefaultStackTraceLimit, "frames kept per stack capture")
	flags.String("hide-frames", "", "hide frames whose function name matches this pattern")
	a.bindErr = a.bindFlags(root, "log-level", "no-color", "stack-trace-limit", "hide-frames")

	root.AddCommand(newConstructCmd(a), newCaptureCmd(a), newShapesCmd(a))
	return root
}

// bindFlags binds the named persistent flags of cmd to Viper keys.
func (a *app) bindFlags(cmd *cobra.Command, names ...string) error {
	var result *multierror.Error
	for _, name := range names {
		flag := cmd.PersistentFlags().Lookup(name)
		if flag == nil {
			result = multierror.Append(result, fmt.Errorf("bind flag %q: no such flag", name))
			continue
		}
		if err := a.v.BindPFlag(name, flag); err != nil {
			result = multierror.Append(result, fmt.Errorf("bind flag %q: %w", name, err))
		}
	}
	return result.ErrorOrNil()
}

// setup runs before every subcommand.
func (a *app) setup(cfgFile string) error {
	if a.bindErr != nil {
		return a.bindErr
	}
	if err := a.initConfig(cfgFile); err != nil {
		return err
	}
	if err := a.processGlobalFlags(); err != nil {
		return err
	}
	if a.homeErr != nil {
		a.logger.Warn("default config file skipped", zap.Error(a.homeErr))
	}
	return nil
}

// initConfig reads the config file and environment. A missing default
// config file is not an error, and neither is an unknown home directory.
func (a *app) initConfig(cfgFile string) error {
	a.v.SetEnvPrefix(envPrefix)
	a.v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	a.v.AutomaticEnv()

	if cfgFile != "" {
		a.v.SetConfigFile(cfgFile)
	} else {
		home, err := homedir.Dir()
		if err != nil {
			a.homeErr = fmt.Errorf("resolve home directory: %w", err)
			return nil
		}
		a.v.AddConfigPath(home)
		a.v.SetConfigName(".shapetool")
		a.v.SetConfigType("yaml")
	}
	if err := a.v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if cfgFile == "" && errors.As(err, &notFound) {
			return nil
		}
		return fmt.Errorf("read config: %w", err)
	}
	return nil
}

// Reads global flags from Viper and adjusts the environment accordingly.
func (a *app) processGlobalFlags() error {
	if a.v.GetBool("no-color") || !isTerminal(os.Stdout) {
		color.NoColor = true
	}
	level := a.v.GetString("log-level")
	if level == "" {
		return nil
	}
	lvl, err := zapcore.ParseLevel(level)
	if err != nil {
		return fmt.Errorf("%w: %v", errUsage, err)
	}
	cfg := zap.NewDevelopmentConfig()
	cfg.Level = zap.NewAtomicLevelAt(lvl)
	cfg.OutputPaths = []string{"stderr"}
	l, err := cfg.Build()
	if err != nil {
		return err
	}
	a.logger = l
	vm.SetLogger(l)
	return nil
}

// newSession creates a session configured from flags, env and config file.
func (a *app) newSession() (*driver.Session, error) {
	return driver.NewSession(
		driver.WithLogger(a.logger),
		driver.WithStackTraceLimit(a.v.GetInt("stack-trace-limit")),
		driver.WithHideFrames(a.v.GetString("hide-frames")),
	)
}
