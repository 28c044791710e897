package resultserver

import (
	"testing"

	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"github.com/mariobadr/rhythm/internal/stats"
)

func TestRegistryRegisterAndGet(t *testing.T) {
	reg, err := NewRegistry(2)
	if err != nil {
		t.Fatalf("NewRegistry: %v", err)
	}

	s := stats.New()
	reg.Register("run-a", s)

	got, err := reg.Get("run-a")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if got != s {
		t.Fatal("Get returned a different Statistics than was registered")
	}
}

func TestRegistryGetUnknownIDReportsNotFound(t *testing.T) {
	reg, err := NewRegistry(2)
	if err != nil {
		t.Fatalf("NewRegistry: %v", err)
	}

	_, err = reg.Get("missing")
	if status.Code(err) != codes.NotFound {
		t.Fatalf("Get(missing): code = %v, want NotFound", status.Code(err))
	}
}

func TestRegistryEvictsOldestBeyondCapacity(t *testing.T) {
	reg, err := NewRegistry(1)
	if err != nil {
		t.Fatalf("NewRegistry: %v", err)
	}

	reg.Register("first", stats.New())
	reg.Register("second", stats.New())

	if _, err := reg.Get("first"); status.Code(err) != codes.NotFound {
		t.Fatal("expected the first run to have been evicted")
	}
	if _, err := reg.Get("second"); err != nil {
		t.Fatalf("Get(second): %v", err)
	}
}

func TestNewRegistryDefaultsNonPositiveCacheSize(t *testing.T) {
	reg, err := NewRegistry(0)
	if err != nil {
		t.Fatalf("NewRegistry: %v", err)
	}
	for i := 0; i < defaultCacheSize; i++ {
		reg.Register(string(rune('a'+i)), stats.New())
	}
	if len(reg.IDs()) != defaultCacheSize {
		t.Fatalf("len(IDs()) = %d, want %d", len(reg.IDs()), defaultCacheSize)
	}
}
