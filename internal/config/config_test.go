package config

import (
	"strings"
	"testing"

	"github.com/mariobadr/rhythm/internal/common"
)

const sampleConfig = `{
  "architecture": {
    "core.types": [
      { "id": "uniform",
        "threads": [ { "tid": 0, "cpi.rate": 1.0 }, { "tid": 1, "cpi.rate": 1.0 } ],
        "frequency.levels": [ { "frequency": 1000000000 } ] }
    ],
    "cores": [ "uniform", "uniform" ]
  }
}`

func TestParseBuildsArchitecture(t *testing.T) {
	arch, err := Parse(strings.NewReader(sampleConfig))
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if len(arch.Cores) != 2 {
		t.Fatalf("len(Cores) = %d, want 2", len(arch.Cores))
	}
	if len(arch.CoreTypes) != 1 {
		t.Fatalf("len(CoreTypes) = %d, want 1", len(arch.CoreTypes))
	}
	if got := arch.CoreTypes[0].CPIRates[common.Tid(0)]; got != 1.0 {
		t.Fatalf("CPIRates[0] = %f, want 1.0", got)
	}
	if arch.Cores[0].Frequency != 1_000_000_000 {
		t.Fatalf("Cores[0].Frequency = %d, want 1e9", arch.Cores[0].Frequency)
	}
}

func TestParseRejectsUndefinedCoreType(t *testing.T) {
	const doc = `{"architecture":{"core.types":[],"cores":["ghost"]}}`
	if _, err := Parse(strings.NewReader(doc)); err == nil {
		t.Fatal("expected an error for a core referencing an undefined type")
	}
}

func TestParseRejectsMalformedJSON(t *testing.T) {
	if _, err := Parse(strings.NewReader("not json")); err == nil {
		t.Fatal("expected an error for malformed JSON")
	}
}
