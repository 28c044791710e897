// Package trace ingests a trace manifest and its referenced trace files
// into an application model, side-effectfully registering synchronization
// objects and threads into a synchronization model as it goes.
package trace

import (
	"bufio"
	"fmt"
	"os"

	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"github.com/mariobadr/rhythm/internal/appmodel"
	"github.com/mariobadr/rhythm/internal/common"
	"github.com/mariobadr/rhythm/internal/rlog"
	"github.com/mariobadr/rhythm/internal/syncmodel"
)

// Ingest reads the manifest at manifestPath and every trace file it lists,
// building an application model and registering every thread, lock,
// barrier, and condition variable encountered into sm. The master thread
// (Tid 0) is registered here; a separate driver is responsible for
// bootstrapping it onto a core and marking it live.
func Ingest(manifestPath string, sm *syncmodel.State, log rlog.Logger) (*appmodel.Model, error) {
	if log == nil {
		log = rlog.Nop{}
	}

	paths, err := ReadManifest(manifestPath)
	if err != nil {
		return nil, err
	}

	handles := make(map[uint64]common.Tid)
	nextCreateID := common.MasterTid

	sm.AddThread(common.MasterTid)
	app := appmodel.NewModel()

	for _, path := range paths {
		log.Infof("loading trace file: %s", path)
		if err := ingestFile(path, sm, app, handles, &nextCreateID); err != nil {
			return nil, err
		}
	}

	return app, nil
}

func ingestFile(path string, sm *syncmodel.State, app *appmodel.Model, handles map[uint64]common.Tid, nextCreateID *common.Tid) error {
	f, err := os.Open(path)
	if err != nil {
		return status.Error(codes.NotFound, fmt.Sprintf("trace: could not load %s: %v", path, err))
	}
	defer f.Close()

	content, err := maybeGunzip(f)
	if err != nil {
		return status.Error(codes.InvalidArgument, fmt.Sprintf("trace: could not decompress %s: %v", path, err))
	}

	var instructionCount uint64
	scanner := bufio.NewScanner(content)

	for scanner.Scan() {
		line := scanner.Text()
		if line == "" {
			break
		}

		r, err := parseRow(line)
		if err != nil {
			return err
		}

		event, err := createEvent(r, sm, handles, nextCreateID)
		if err != nil {
			return err
		}
		if event.Kind == common.Unknown {
			continue
		}

		delta := r.instructionCount - instructionCount
		instructionCount = r.instructionCount
		event.Distance = delta

		app.ThreadOrCreate(r.threadID).AddEvent(event)
	}

	if err := scanner.Err(); err != nil {
		return status.Error(codes.InvalidArgument, fmt.Sprintf("trace: error reading %s: %v", path, err))
	}

	return nil
}

// createEvent turns one parsed row into a modeled Event, side-effectfully
// registering synchronization objects (inits) and threads (pthread_create)
// along the way. A zero-value Event with Kind == common.Unknown means the
// row produced no simulated event (an init call, or an unrecognized one).
func createEvent(r row, sm *syncmodel.State, handles map[uint64]common.Tid, nextCreateID *common.Tid) (common.Event, error) {
	if notSupported[r.call] {
		return common.Event{}, status.Error(codes.Unimplemented, fmt.Sprintf("trace: %s is not supported", r.call))
	}

	switch {
	case r.call == "pthread_barrier_init":
		sm.AddBarrier(r.arg1, r.barrierCount)
		return common.Event{}, nil

	case r.call == "pthread_cond_init":
		sm.AddConditionVariable(r.arg1)
		return common.Event{}, nil

	case lockInits[r.call]:
		sm.AddLock(r.arg1)
		return common.Event{}, nil

	case r.call == "pthread_create":
		*nextCreateID++
		newTid := *nextCreateID
		// Overwrites on a repeated handle, assuming the intervening join
		// already happened; a trace that reuses a handle without joining
		// first will misattribute the create.
		handles[r.handle] = newTid
		sm.AddThread(newTid)

		return common.Event{
			ThreadID:     r.threadID,
			Kind:         common.ThreadCreate,
			TargetThread: newTid,
		}, nil

	case lockCalls[r.call]:
		return common.Event{ThreadID: r.threadID, Kind: common.LockAcquire, Object: r.arg1}, nil

	case unlockCalls[r.call]:
		return common.Event{ThreadID: r.threadID, Kind: common.LockRelease, Object: r.arg1}, nil

	case r.call == "pthread_barrier_wait":
		return common.Event{ThreadID: r.threadID, Kind: common.BarrierWait, Object: r.arg1}, nil

	case r.call == "pthread_cond_broadcast":
		event := common.Event{ThreadID: r.threadID, Kind: common.CondBroadcast, Object: r.arg1}
		sm.UpdateConditionVariable(event)
		return event, nil

	case r.call == "pthread_cond_signal":
		event := common.Event{ThreadID: r.threadID, Kind: common.CondSignal, Object: r.arg1}
		sm.UpdateConditionVariable(event)
		return event, nil

	case condWaitCalls[r.call]:
		event := common.Event{ThreadID: r.threadID, Kind: common.CondWait, Object: r.arg1, Object2: r.arg2}
		sm.UpdateConditionVariable(event)
		return event, nil

	case r.call == "thread_start":
		return common.Event{ThreadID: r.threadID, Kind: common.ThreadStart}, nil

	case r.call == "thread_finish":
		return common.Event{ThreadID: r.threadID, Kind: common.ThreadFinish}, nil

	case r.call == "pthread_join":
		target, ok := handles[r.handle]
		if !ok {
			return common.Event{}, status.Error(codes.Internal, fmt.Sprintf("trace: join on an untracked handle %d", r.handle))
		}
		return common.Event{ThreadID: r.threadID, Kind: common.ThreadJoin, TargetThread: target}, nil

	default:
		return common.Event{}, nil
	}
}
