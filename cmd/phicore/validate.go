package main

import (
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/robert-malhotra/phicore"
)

func (a *app) validateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "validate FILE...",
		Short: "Check containers against the phicore layout",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			out := cmd.OutOrStdout()
			failed := 0
			for _, path := range args {
				vs, err := phicore.Validate(path, phicore.WithLogger(a.log))
				if err != nil {
					fmt.Fprintf(out, "%s: %v\n", path, err)
					failed++
					continue
				}
				if len(vs) == 0 {
					fmt.Fprintf(out, "%s: ok\n", path)
					continue
				}
				for _, v := range vs {
					fmt.Fprintf(out, "%s: %s\n", path, v)
				}
				a.log.Info("validation failed", zap.String("path", path), zap.Int("violations", len(vs)))
				failed++
			}
			if failed > 0 {
				return fmt.Errorf("%d of %d files failed validation", failed, len(args))
			}
			return nil
		},
	}
}
