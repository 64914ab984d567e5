//go:build windows

package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/farviewio/installer-actions/internal/actions"
	"github.com/farviewio/installer-actions/internal/msi"
	"github.com/farviewio/installer-actions/util"
)

const (
	logFileFlag  = "log-file"
	logLevelFlag = "log-level"
	propertyFlag = "property"
)

var (
	logFile    string
	logLevel   string
	properties []string

	rootCmd = &cobra.Command{
		Use:          "installer-actions",
		Short:        "custom actions invoked by the Farview installer",
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return util.InitLog(logLevel, logFile)
		},
	}
)

func init() {
	rootCmd.PersistentFlags().StringVar(&logFile, logFileFlag, "console", `log file location, or "console"`)
	rootCmd.PersistentFlags().StringVar(&logLevel, logLevelFlag, "info", "log level")
	rootCmd.PersistentFlags().StringArrayVar(&properties, propertyFlag, nil, "session property as NAME=VALUE, repeatable")

	rootCmd.AddCommand(
		actionCommand("hello", "log a host wiring check", (*actions.Executor).Hello),
		actionCommand("remove-install-folder", "delete the install directory tree", (*actions.Executor).RemoveInstallFolder),
		actionCommand("terminate-processes", "stop running application instances", (*actions.Executor).TerminateProcesses),
		actionCommand("add-firewall-rules", "register or remove firewall allow rules", (*actions.Executor).AddFirewallRules),
	)
}

// actionCommand adapts one custom action to a subcommand: a fresh
// Executor per invocation, a session built from the --property flags,
// and the coarse Status mapped onto the process exit code the host
// checks.
func actionCommand(use, short string, action func(*actions.Executor, msi.Session) actions.Status) *cobra.Command {
	return &cobra.Command{
		Use:   use,
		Short: short,
		RunE: func(cmd *cobra.Command, args []string) error {
			session, err := sessionFromFlags(properties)
			if err != nil {
				return err
			}
			if action(actions.New(), session) == actions.StatusFailure {
				return fmt.Errorf("custom action %s failed", use)
			}
			return nil
		},
	}
}

func sessionFromFlags(pairs []string) (msi.Session, error) {
	session := msi.PropertySession{}
	for _, pair := range pairs {
		name, value, ok := strings.Cut(pair, "=")
		if !ok || name == "" {
			return nil, fmt.Errorf("malformed property %q, expected NAME=VALUE", pair)
		}
		session[name] = value
	}
	return session, nil
}
