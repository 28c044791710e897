// Command rhythm estimates the wall-clock execution time of a
// pthread-synchronized program on a parallel architecture from a trace of
// its synchronization calls.
package main

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"github.com/mariobadr/rhythm/internal/estimate"
	"github.com/mariobadr/rhythm/internal/resultserver"
	"github.com/mariobadr/rhythm/internal/rlog"
)

var (
	configPath   string
	manifestPath string
	outputDir    string
	serve        bool
	serveAddr    string
)

func newRootCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:           "rhythm",
		Short:         "Estimate the performance of a parallel program on a parallel architecture.",
		RunE:          run,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	cmd.Flags().StringVarP(&configPath, "config", "c", "", "System configuration.")
	cmd.Flags().StringVarP(&manifestPath, "trace-manifest", "t", "", "Manifest of all trace files.")
	cmd.Flags().StringVarP(&outputDir, "output-dir", "o", "", "Output directory.")
	cmd.Flags().BoolVar(&serve, "serve", false, "Serve the completed run's statistics over HTTP after it finishes.")
	cmd.Flags().StringVar(&serveAddr, "serve-addr", resultserver.DefaultAddr, "Address to serve on when --serve is set.")

	_ = cmd.MarkFlagRequired("config")
	_ = cmd.MarkFlagRequired("trace-manifest")
	_ = cmd.MarkFlagRequired("output-dir")

	return cmd
}

func run(cmd *cobra.Command, args []string) error {
	log := rlog.Glog{}

	result, err := estimate.Run(context.Background(), estimate.Options{
		ConfigPath:   configPath,
		ManifestPath: manifestPath,
		OutputDir:    outputDir,
		Log:          log,
	})
	if err != nil {
		return err
	}

	if !serve {
		return nil
	}

	registry, err := resultserver.NewRegistry(0)
	if err != nil {
		return err
	}
	registry.Register(result.ID, result.Stats)

	server := resultserver.New(registry, log)
	return server.ListenAndServe(serveAddr)
}

// exitCode maps a returned error's grpc/status code onto a process exit
// status, mirroring the original program's catch-and-report main: anything
// reaching here is a failure (EXIT_SUCCESS is the zero-error path cobra
// already takes), so the only question is which failure it was.
func exitCode(err error) int {
	switch status.Code(err) {
	case codes.InvalidArgument, codes.NotFound:
		return 2
	case codes.Unimplemented:
		return 3
	case codes.FailedPrecondition:
		return 4
	default:
		return 1
	}
}

func main() {
	cmd := newRootCommand()
	if err := cmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(exitCode(err))
	}
}
