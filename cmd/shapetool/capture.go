package main

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/nooga/hiddenclass/pkg/vm"
)

func newCaptureCmd(a *app) *cobra.Command {
	var (
		frameSpecs  []string
		boundary    string
		name        string
		message     string
		frozen      bool
		lockedStack bool
		global      bool
	)
	cmd := &cobra.Command{
		Use:   "capture",
		Short: "Run Error.captureStackTrace on a plain object and print both traces",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if global && (frozen || lockedStack) {
				return fmt.Errorf("%w: --global cannot be combined with --frozen or --locked-stack", errUsage)
			}
			frames, err := parseFrames(frameSpecs)
			if err != nil {
				return err
			}
			s, err := a.newSession()
			if err != nil {
				return err
			}
			vmInstance := s.VM()

			var target vm.Value
			if global {
				target, err = s.Global("globalThis")
				if err != nil {
					return err
				}
			} else {
				target = vmInstance.NewObject(vm.Undefined)
			}
			holder := vm.ResolveReceiver(target.AsPlainObject())
			if name != "" {
				holder.SetOwn("name", vm.NewString(name))
			}
			if message != "" {
				holder.SetOwn("message", vm.NewString(message))
			}
			if lockedStack {
				if err := holder.DefineOwnProperty("stack", vm.NewString("locked"), vm.Writable); err != nil {
					return err
				}
			}
			if frozen {
				holder.Freeze()
			}
			before := holder.Shape()

			out := cmd.OutOrStdout()
			err = s.WithFrames(frames, func() error {
				return s.CaptureStackTrace(target, boundary)
			})
			var denied *vm.RedefinitionDeniedError
			if errors.As(err, &denied) {
				fmt.Fprintf(out, "%s %s\n", red("denied:"), err)
				fmt.Fprintf(out, "%s %s (unchanged: %t)\n", faint("shape:"), holder.Shape(), holder.Shape() == before)
				return err
			}
			if err != nil {
				return err
			}

			fmt.Fprintf(out, "%s %s -> %s\n", green("installed:"), before, holder.Shape())
			if simple, ok := holder.StackTrace().Simple(); ok {
				fmt.Fprintf(out, "%s\n%s\n", faint("simple:"), simple)
			}
			stack, err := s.Stack(target)
			if err != nil {
				return err
			}
			fmt.Fprintf(out, "%s\n%s\n", faint("stack:"), stack)
			return nil
		},
	}
	flags := cmd.Flags()
	flags.StringArrayVar(&frameSpecs, "frame", nil, "call frame fn@file:line:col, innermost first (repeatable)")
	flags.StringVar(&boundary, "boundary", "", "capture from inside a native function of this name, passed as the caller")
	flags.StringVar(&name, "name", "", "name property of the target")
	flags.StringVar(&message, "message", "", "message property of the target")
	flags.BoolVar(&frozen, "frozen", false, "freeze the target first")
	flags.BoolVar(&lockedStack, "locked-stack", false, "define a non-configurable stack property first")
	flags.BoolVar(&global, "global", false, "capture on globalThis")
	return cmd
}
