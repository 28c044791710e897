// Package estimate wires together configuration parsing, trace ingestion,
// and the controller's step loop into a single simulation run, and emits
// its resulting statistics.
package estimate

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"github.com/mariobadr/rhythm/internal/appmodel"
	"github.com/mariobadr/rhythm/internal/archmodel"
	"github.com/mariobadr/rhythm/internal/common"
	"github.com/mariobadr/rhythm/internal/config"
	"github.com/mariobadr/rhythm/internal/controller"
	"github.com/mariobadr/rhythm/internal/rlog"
	"github.com/mariobadr/rhythm/internal/scheduler"
	"github.com/mariobadr/rhythm/internal/stats"
	"github.com/mariobadr/rhythm/internal/syncmodel"
	"github.com/mariobadr/rhythm/internal/trace"
)

// Options configures a single run.
type Options struct {
	ConfigPath   string
	ManifestPath string
	OutputDir    string
	Log          rlog.Logger
}

// Result is what a completed run produces: its id, total simulated time in
// seconds, and the accumulated statistics (kept around so a results server
// can serve them without re-reading the CSVs from disk).
type Result struct {
	ID        string
	TotalTime float64
	Stats     *stats.Statistics
}

// Run parses the configuration and trace manifest concurrently, bootstraps
// the master thread, drives the controller's step loop until no thread
// remains live, and emits the two CSV outputs into opts.OutputDir.
func Run(ctx context.Context, opts Options) (*Result, error) {
	log := opts.Log
	if log == nil {
		log = rlog.Nop{}
	}

	sm := syncmodel.NewState(log)

	var (
		arch *archmodel.Architecture
		app  *appmodel.Model
	)

	group, _ := errgroup.WithContext(ctx)
	group.Go(func() error {
		f, err := os.Open(opts.ConfigPath)
		if err != nil {
			return status.Error(codes.NotFound, fmt.Sprintf("config: could not load %s: %v", opts.ConfigPath, err))
		}
		defer f.Close()

		parsed, err := config.Parse(f)
		if err != nil {
			return err
		}
		arch = parsed
		return nil
	})
	group.Go(func() error {
		ingested, err := trace.Ingest(opts.ManifestPath, sm, log)
		if err != nil {
			return err
		}
		app = ingested
		return nil
	})

	if err := group.Wait(); err != nil {
		return nil, err
	}

	log.Infof("architecture: %d core type(s), %d core(s)", len(arch.CoreTypes), len(arch.Cores))
	log.Infof("application: %d thread(s)", len(app.Threads))

	sched := scheduler.New(len(arch.Cores))
	sched.BootstrapMaster(common.MasterTid)
	sm.LiveThreads[common.MasterTid] = true
	sm.Thread(common.MasterTid).Status = syncmodel.Running

	master := app.ThreadOrCreate(common.MasterTid)
	if !master.Empty() && master.Peek().Kind == common.ThreadStart {
		master.PopCurrent()
	}

	stat := stats.New()
	ctl := controller.New(arch, sched, sm, app, stat, log)

	for len(sm.LiveThreads) > 0 {
		if _, err := ctl.Step(); err != nil {
			return nil, err
		}
	}

	if err := emit(opts.OutputDir, stat); err != nil {
		return nil, err
	}

	result := &Result{
		ID:        uuid.New().String(),
		TotalTime: stat.TotalTime(),
		Stats:     stat,
	}

	log.Infof("done! run %s estimated to be %fs", result.ID, result.TotalTime)

	return result, nil
}

func emit(outputDir string, stat *stats.Statistics) error {
	timeStacks, err := os.Create(filepath.Join(outputDir, "rhythm-time-stacks.csv"))
	if err != nil {
		return err
	}
	defer timeStacks.Close()
	if err := stat.WriteTimeStacks(timeStacks); err != nil {
		return err
	}

	syncStacks, err := os.Create(filepath.Join(outputDir, "rhythm-sync-stacks.csv"))
	if err != nil {
		return err
	}
	defer syncStacks.Close()
	if err := stat.WriteSyncStacks(syncStacks); err != nil {
		return err
	}

	return nil
}
