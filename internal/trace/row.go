package trace

import (
	"fmt"
	"strconv"
	"strings"

	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"github.com/mariobadr/rhythm/internal/common"
)

// row is one parsed trace line: "tid call [fields...]", with the fields
// present depending on call.
type row struct {
	threadID        common.Tid
	call            string
	handle          uint64
	arg1            common.Address
	arg2            common.Address
	barrierCount    int
	instructionCount uint64
}

var notSupported = map[string]bool{
	"pthread_mutex_trylock":    true,
	"pthread_rwlock_trywrlock": true,
	"pthread_rwlock_tryrdlock": true,
	"pthread_spin_trylock":     true,
}

var lockInits = map[string]bool{
	"pthread_mutex_init":  true,
	"pthread_rwlock_init": true,
	"pthread_spin_init":   true,
}

var lockCalls = map[string]bool{
	"pthread_mutex_lock":         true,
	"pthread_mutex_timedlock":    true,
	"pthread_rwlock_wrlock":      true,
	"pthread_rwlock_timedwrlock": true,
	"pthread_rwlock_rdlock":      true,
	"pthread_rwlock_timedrdlock": true,
	"pthread_spin_lock":          true,
}

// condWaitCalls holds pthread_cond_wait and its timeout variant, both of
// which carry the extra mutex-address field and are handled identically
// (the timeout never fires in this simulator's approximation).
var condWaitCalls = map[string]bool{
	"pthread_cond_wait":      true,
	"pthread_cond_timedwait": true,
}

var unlockCalls = map[string]bool{
	"pthread_mutex_unlock":  true,
	"pthread_rwlock_unlock": true,
	"pthread_spin_unlock":   true,
}

// parseRow tokenizes one trace line per the column layout: pthread_create
// and pthread_join carry a handle instead of an address; pthread_cond_wait
// additionally carries a mutex address; pthread_barrier_init additionally
// carries the arrival count.
func parseRow(line string) (row, error) {
	fields := strings.Fields(line)
	if len(fields) < 3 {
		return row{}, status.Error(codes.InvalidArgument, fmt.Sprintf("trace: malformed row %q", line))
	}

	tid, err := strconv.ParseInt(fields[0], 10, 64)
	if err != nil {
		return row{}, status.Error(codes.InvalidArgument, fmt.Sprintf("trace: malformed thread id in row %q: %v", line, err))
	}

	r := row{threadID: common.Tid(tid), call: fields[1]}
	rest := fields[2:]

	next := func() (string, error) {
		if len(rest) == 0 {
			return "", status.Error(codes.InvalidArgument, fmt.Sprintf("trace: row %q is missing a field", line))
		}
		tok := rest[0]
		rest = rest[1:]
		return tok, nil
	}

	if r.call == "pthread_create" || r.call == "pthread_join" {
		tok, err := next()
		if err != nil {
			return row{}, err
		}
		handle, err := strconv.ParseUint(tok, 10, 64)
		if err != nil {
			return row{}, status.Error(codes.InvalidArgument, fmt.Sprintf("trace: malformed handle in row %q: %v", line, err))
		}
		r.handle = handle
	} else {
		tok, err := next()
		if err != nil {
			return row{}, err
		}
		addr, err := strconv.ParseUint(tok, 10, 64)
		if err != nil {
			return row{}, status.Error(codes.InvalidArgument, fmt.Sprintf("trace: malformed address in row %q: %v", line, err))
		}
		r.arg1 = common.Address(addr)
	}

	icTok, err := next()
	if err != nil {
		return row{}, err
	}
	ic, err := strconv.ParseUint(icTok, 10, 64)
	if err != nil {
		return row{}, status.Error(codes.InvalidArgument, fmt.Sprintf("trace: malformed instruction count in row %q: %v", line, err))
	}
	r.instructionCount = ic

	switch r.call {
	case "pthread_barrier_init":
		tok, err := next()
		if err != nil {
			return row{}, err
		}
		count, err := strconv.Atoi(tok)
		if err != nil {
			return row{}, status.Error(codes.InvalidArgument, fmt.Sprintf("trace: malformed barrier count in row %q: %v", line, err))
		}
		r.barrierCount = count
	case "pthread_cond_wait", "pthread_cond_timedwait":
		tok, err := next()
		if err != nil {
			return row{}, err
		}
		addr, err := strconv.ParseUint(tok, 10, 64)
		if err != nil {
			return row{}, status.Error(codes.InvalidArgument, fmt.Sprintf("trace: malformed mutex address in row %q: %v", line, err))
		}
		r.arg2 = common.Address(addr)
	}

	return r, nil
}
