package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"
	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"github.com/nooga/hiddenclass/pkg/vm"
)

func newShapesCmd(a *app) *cobra.Command {
	var (
		paths   []string
		objects int
		capture bool
	)
	cmd := &cobra.Command{
		Use:     "shapes",
		Short:   "Build objects along property paths and report shape sharing",
		Example: `  shapetool shapes --path x,y --path x,z --objects 1000 --capture`,
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if objects < 1 {
				return fmt.Errorf("%w: --objects must be at least 1", errUsage)
			}
			if len(paths) == 0 {
				return fmt.Errorf("%w: at least one --path is required", errUsage)
			}
			keyPaths := make([][]string, len(paths))
			for i, p := range paths {
				for _, k := range strings.Split(p, ",") {
					if k = strings.TrimSpace(k); k != "" {
						keyPaths[i] = append(keyPaths[i], k)
					}
				}
				if len(keyPaths[i]) == 0 {
					return fmt.Errorf("%w: empty path %q", errUsage, p)
				}
			}

			s, err := a.newSession()
			if err != nil {
				return err
			}
			vmInstance := s.VM()
			baseline := s.ShapeStats()

			out := cmd.OutOrStdout()
			for _, keys := range keyPaths {
				var last *vm.Shape
				for n := 0; n < objects; n++ {
					obj := vmInstance.NewObject(vm.Undefined)
					po := obj.AsPlainObject()
					for i, k := range keys {
						po.SetOwn(k, vm.NumberValue(float64(i)))
					}
					if capture {
						if err := s.CaptureStackTrace(obj, ""); err != nil {
							return err
						}
					}
					last = po.Shape()
				}
				fmt.Fprintf(out, "%s %s\n", bold(strings.Join(keys, ".")), last)
			}

			stats := s.ShapeStats()
			p := message.NewPrinter(language.English)
			fmt.Fprint(out, p.Sprintf("objects:  %d\n", objects*len(keyPaths)))
			fmt.Fprint(out, p.Sprintf("created:  %d\n", stats.Created-baseline.Created))
			fmt.Fprint(out, p.Sprintf("reused:   %d\n", stats.Reused-baseline.Reused))
			fmt.Fprint(out, p.Sprintf("maxdepth: %d\n", stats.MaxDepth))
			if capture {
				ic := vmInstance.CacheStats()
				fmt.Fprint(out, p.Sprintf("ic:       %d hits, %d misses\n", ic.Hits, ic.Misses))
			}
			return nil
		},
	}
	flags := cmd.Flags()
	flags.StringArrayVar(&paths, "path", nil, "comma separated property keys added in order (repeatable)")
	flags.IntVar(&objects, "objects", 1, "objects built per path")
	flags.BoolVar(&capture, "capture", false, "run Error.captureStackTrace on every object")
	return cmd
}
