package main

import (
	"fmt"
	"os"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"protochain/pkg/config"
	"protochain/pkg/repl"
	"protochain/pkg/store"
)

func main() {
	if err := rootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func rootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:          "protochain",
		Short:        "Inspect and mutate a prototype/delegation object store",
		SilenceUsage: true,
	}
	root.PersistentFlags().String("config", "", "YAML config file")
	root.PersistentFlags().Bool("strict", false, "raise errors on rejected writes")
	root.PersistentFlags().Int("hop-cap", store.DefaultHopCap, "chain traversal bound")
	root.PersistentFlags().String("log-level", "", "zerolog level (trace..error)")

	root.AddCommand(&cobra.Command{
		Use:   "repl",
		Short: "Start an interactive session",
		RunE: func(cmd *cobra.Command, args []string) error {
			sess, err := newSession(cmd)
			if err != nil {
				return err
			}
			return sess.Run(os.Stdin)
		},
	})
	root.AddCommand(&cobra.Command{
		Use:   "run <script>",
		Short: "Execute commands from a script file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			f, err := os.Open(args[0])
			if err != nil {
				return err
			}
			defer f.Close()
			sess, err := newSession(cmd)
			if err != nil {
				return err
			}
			return sess.RunScript(f)
		},
	})
	return root
}

// newSession builds a store from config file plus flag overrides and wraps it
// in a REPL session writing to stdout.
func newSession(cmd *cobra.Command) (*repl.Session, error) {
	flags := cmd.Flags()
	cfg := config.Default()
	if path, _ := flags.GetString("config"); path != "" {
		loaded, err := config.Load(path)
		if err != nil {
			return nil, err
		}
		cfg = loaded
	}
	if flags.Changed("strict") {
		cfg.Strict, _ = flags.GetBool("strict")
	}
	if flags.Changed("hop-cap") {
		cfg.HopCap, _ = flags.GetInt("hop-cap")
	}
	if lvl, _ := flags.GetString("log-level"); lvl != "" {
		cfg.LogLevel = lvl
	}

	logger := zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr}).
		Level(cfg.Level()).
		With().Timestamp().Logger()

	st := store.New(cfg.StoreOptions(logger)...)
	return repl.New(st, os.Stdout), nil
}
