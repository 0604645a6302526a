package main

import (
	"fmt"
	"io"
	"os"

	"github.com/fatih/color"
	"github.com/mattn/go-isatty"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/kronos-lang/kronos"
	"github.com/kronos-lang/kronos/errz"
)

var rootCmd = &cobra.Command{
	Use:           "kronos [file]",
	Short:         "Kronos is a friendly scripting language",
	Long:          "Kronos runs scripts written in an English-like scripting language.\nWith no arguments it starts a REPL when attached to a terminal.",
	Args:          cobra.MaximumNArgs(1),
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		level := zerolog.WarnLevel
		if viper.GetBool("debug") {
			level = zerolog.DebugLevel
		}
		log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr}).Level(level)
	},
	RunE: func(cmd *cobra.Command, args []string) error {
		if code := viper.GetString("code"); code != "" {
			return report(kronos.Eval(code))
		}
		if len(args) == 1 {
			return report(kronos.RunFile(args[0]))
		}
		if isatty.IsTerminal(os.Stdin.Fd()) {
			return repl(cmd.OutOrStdout())
		}
		src, err := io.ReadAll(os.Stdin)
		if err != nil {
			return report(errz.Newf(errz.IO, "cannot read stdin: %s", err))
		}
		return report(kronos.Eval(string(src)))
	},
}

func init() {
	rootCmd.PersistentFlags().BoolP("debug", "d", false, "enable debug logging")
	rootCmd.PersistentFlags().Bool("no-color", false, "disable colored output")
	rootCmd.Flags().StringP("code", "c", "", "code to evaluate")

	viper.SetEnvPrefix("KRONOS")
	viper.AutomaticEnv()
	viper.BindPFlag("debug", rootCmd.PersistentFlags().Lookup("debug"))
	viper.BindPFlag("no-color", rootCmd.PersistentFlags().Lookup("no-color"))
	viper.BindPFlag("code", rootCmd.Flags().Lookup("code"))
	viper.BindEnv("no-color", "NO_COLOR")

	rootCmd.AddCommand(disCmd)
	rootCmd.AddCommand(versionCmd)
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Fprintf(cmd.OutOrStdout(), "kronos %s (%s)\n", version, commit)
	},
}

// report prints a script error to stderr, in red on a terminal, and keeps
// cobra from printing it a second time.
func report(err error) error {
	if err == nil {
		return nil
	}
	msg := err.Error()
	if e, ok := err.(*errz.Error); ok {
		msg = fmt.Sprintf("%s: %s", e.Name(), e.Message)
	}
	if useColor() {
		color.New(color.FgRed).Fprintln(os.Stderr, msg)
	} else {
		fmt.Fprintln(os.Stderr, msg)
	}
	return err
}

func useColor() bool {
	if viper.GetBool("no-color") {
		return false
	}
	return isatty.IsTerminal(os.Stderr.Fd())
}
