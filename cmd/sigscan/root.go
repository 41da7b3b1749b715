package main

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/brahma-adshonor/sigpatch"
)

func newRootCmd(log *logrus.Logger) *cobra.Command {
	v := viper.New()
	v.SetEnvPrefix("SIGSCAN")
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()

	root := &cobra.Command{
		Use:           "sigscan",
		Short:         "Resolve byte signatures against executable images",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if path := v.GetString("config"); path != "" {
				v.SetConfigFile(path)
				if err := v.ReadInConfig(); err != nil {
					return fmt.Errorf("read config: %w", err)
				}
			}

			level, err := logrus.ParseLevel(v.GetString("log-level"))
			if err != nil {
				return err
			}
			log.SetLevel(level)
			log.SetOutput(cmd.ErrOrStderr())
			sigpatch.SetLogger(log)
			return nil
		},
	}

	root.PersistentFlags().String("config", "", "config file (yaml)")
	root.PersistentFlags().String("log-level", "info", "log level")
	_ = v.BindPFlags(root.PersistentFlags())

	root.AddCommand(newScanCmd(v), newCompileCmd())
	return root
}

func parseAddress(s string) (sigpatch.Address, error) {
	if s == "" {
		return 0, nil
	}
	n, err := strconv.ParseUint(s, 0, 64)
	if err != nil {
		return 0, fmt.Errorf("bad address %q: %w", s, err)
	}
	return sigpatch.Address(n), nil
}
