package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/nooga/hiddenclass/pkg/vm"
)

func newConstructCmd(a *app) *cobra.Command {
	var (
		ctorName   string
		frameSpecs []string
	)
	cmd := &cobra.Command{
		Use:   "construct [message]",
		Short: "Construct an error under synthetic frames and print its string and stack",
		Example: `  shapetool construct "disk full" --name RangeError \
    --frame write@fs.js:10:3 --frame main@app.js:1:1`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			frames, err := parseFrames(frameSpecs)
			if err != nil {
				return err
			}
			s, err := a.newSession()
			if err != nil {
				return err
			}

			var ctorArgs []vm.Value
			if len(args) > 0 {
				ctorArgs = append(ctorArgs, vm.NewString(args[0]))
			}
			var errObj vm.Value
			err = s.WithFrames(frames, func() error {
				var err error
				errObj, err = s.NewError(ctorName, ctorArgs...)
				return err
			})
			if err != nil {
				return err
			}

			str, err := s.ErrorString(errObj)
			if err != nil {
				return err
			}
			stack, err := s.Stack(errObj)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "%s %s\n", faint("toString:"), bold(str))
			fmt.Fprintf(out, "%s\n%s\n", faint("stack:"), stack)
			return nil
		},
	}
	cmd.Flags().StringVar(&ctorName, "name", "Error", "error constructor to use")
	cmd.Flags().StringArrayVar(&frameSpecs, "frame", nil, "call frame fn@file:line:col, innermost first (repeatable)")
	return cmd
}
