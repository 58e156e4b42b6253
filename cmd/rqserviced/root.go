package main

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"rqservice/internal/daemon"
	"rqservice/internal/engine"
	"rqservice/internal/options"
	"rqservice/internal/service"
)

const serviceName = "rqserviced"

func newRootCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   serviceName + " [-X filename] [-C ip:port,ip:port] [-D] [-P file] [-U username] [-V] [-h]",
		Short: "Queue service bootstrap",
		// The option registry owns every single-character flag.
		DisableFlagParsing: true,
		SilenceUsage:       true,
		SilenceErrors:      true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return bootstrap(cmd.Context(), args, cmd.OutOrStdout())
		},
	}
	cmd.SetHelpFunc(func(c *cobra.Command, _ []string) {
		if err := writeUsage(c.OutOrStdout()); err != nil {
			fmt.Fprintf(c.ErrOrStderr(), "%s: %v\n", serviceName, err)
		}
	})
	return cmd
}

// writeUsage prints the option table, the same text -h produces.
func writeUsage(w io.Writer) error {
	svc, err := service.New(engine.NewStandalone(nil), service.WithUsage(w))
	if err != nil {
		return err
	}
	defer svc.Close()
	if err := svc.ProcessArgs([]string{"-h"}); !errors.Is(err, options.ErrHelpRequested) {
		return err
	}
	return nil
}

// run executes the root command and turns its outcome into an exit code.
// It is the only place that decides how the process ends.
func run(ctx context.Context, args []string, stdout, stderr io.Writer) int {
	cmd := newRootCommand()
	cmd.SetArgs(args)
	cmd.SetOut(stdout)
	cmd.SetErr(stderr)

	err := cmd.ExecuteContext(ctx)
	switch {
	case err == nil:
		return 0
	case errors.Is(err, options.ErrHelpRequested), errors.Is(err, daemon.ErrParentExit):
		return 0
	default:
		fmt.Fprintf(stderr, "%s: %v\n", serviceName, err)
		return 1
	}
}
