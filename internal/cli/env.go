package cli

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
)

var errInvalidEnv = errors.New("invalid environment variable")

// envBindings records which flags were set from RULEHUB_<FLAG> variables.
// Flags given on the command line win over the environment, which wins
// over defaults.
type envBindings struct {
	applied map[string]string
	errs    []error
}

// bindEnvVars binds every flag of cmd and its subcommands to an
// environment variable named after the flag, without a subcommand prefix:
// "log-level" reads RULEHUB_LOG_LEVEL. The variable name is appended to
// the flag usage.
func bindEnvVars(cmd *cobra.Command) *envBindings {
	eb := &envBindings{applied: map[string]string{}}
	eb.bind(cmd)

	return eb
}

func (eb *envBindings) bind(cmd *cobra.Command) {
	cmd.LocalNonPersistentFlags().VisitAll(eb.bindFlag)
	cmd.PersistentFlags().VisitAll(eb.bindFlag)

	for _, sub := range cmd.Commands() {
		eb.bind(sub)
	}
}

func (eb *envBindings) bindFlag(flag *pflag.Flag) {
	name := flagToEnvName(flag.Name)

	if !strings.Contains(flag.Usage, name) {
		flag.Usage += " ($" + name + ")"
	}

	value, ok := os.LookupEnv(name)
	if !ok || flag.Changed {
		return
	}

	err := flag.Value.Set(value)
	if err != nil {
		eb.errs = append(eb.errs, fmt.Errorf("%w: $%s=%q: %w", errInvalidEnv, name, value, err))

		return
	}

	eb.applied[name] = flag.Name
}

// report logs the applied variables and returns the binding failures.
// It runs once logging is configured.
func (eb *envBindings) report() error {
	for env, flag := range eb.applied {
		slog.Debug("flag set from environment", slog.String("env", env), slog.String("flag", flag))
	}

	return errors.Join(eb.errs...)
}

// flagToEnvName maps "log-level" to "RULEHUB_LOG_LEVEL".
func flagToEnvName(flagName string) string {
	return strings.ToUpper(cmdName + "_" + strings.ReplaceAll(flagName, "-", "_"))
}
