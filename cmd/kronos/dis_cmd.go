package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/kronos-lang/kronos"
	"github.com/kronos-lang/kronos/dis"
	"github.com/kronos-lang/kronos/errz"
)

var disCmd = &cobra.Command{
	Use:   "dis [file]",
	Short: "Disassemble compiled bytecode",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		src := viper.GetString("dis-code")
		if len(args) == 1 {
			data, err := os.ReadFile(args[0])
			if err != nil {
				return report(errz.Newf(errz.IO, "cannot read %s: %s", args[0], err))
			}
			src = string(data)
		}
		if src == "" {
			return report(errz.New(errz.InvalidArgument, "nothing to disassemble: pass a file or -c"))
		}
		bc, err := kronos.Compile(src)
		if err != nil {
			return report(err)
		}
		defer bc.Close()
		fmt.Fprint(cmd.OutOrStdout(), dis.Disassemble(bc))
		return nil
	},
}

func init() {
	disCmd.Flags().StringP("code", "c", "", "code to disassemble")
	viper.BindPFlag("dis-code", disCmd.Flags().Lookup("code"))
}
