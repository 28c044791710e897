// Package config parses the architecture configuration file into an
// internal/archmodel.Architecture.
package config

import (
	"encoding/json"
	"fmt"
	"io"

	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"github.com/mariobadr/rhythm/internal/archmodel"
	"github.com/mariobadr/rhythm/internal/common"
)

// fileShape mirrors the configuration file's JSON object exactly, down to
// its dotted field names.
type fileShape struct {
	Architecture struct {
		CoreTypes []struct {
			ID      string `json:"id"`
			Threads []struct {
				Tid     common.Tid `json:"tid"`
				CPIRate float64    `json:"cpi.rate"`
			} `json:"threads"`
			FrequencyLevels []struct {
				Frequency int64 `json:"frequency"`
			} `json:"frequency.levels"`
		} `json:"core.types"`
		Cores []string `json:"cores"`
	} `json:"architecture"`
}

// Parse reads an architecture configuration document and builds an
// archmodel.Architecture from it. Returns a codes.InvalidArgument status
// error on malformed JSON or a core list referencing an undefined type.
func Parse(r io.Reader) (*archmodel.Architecture, error) {
	var doc fileShape
	if err := json.NewDecoder(r).Decode(&doc); err != nil {
		return nil, status.Error(codes.InvalidArgument, fmt.Sprintf("config: malformed architecture document: %v", err))
	}

	arch := archmodel.New()

	definedTypes := make(map[string]bool)
	for _, ct := range doc.Architecture.CoreTypes {
		cpiRates := make(map[common.Tid]float64, len(ct.Threads))
		for _, th := range ct.Threads {
			cpiRates[th.Tid] = th.CPIRate
		}

		frequencies := make([]int64, 0, len(ct.FrequencyLevels))
		for _, level := range ct.FrequencyLevels {
			frequencies = append(frequencies, level.Frequency)
		}

		arch.AddCoreType(ct.ID, archmodel.CoreType{CPIRates: cpiRates, Frequencies: frequencies})
		definedTypes[ct.ID] = true
	}

	for _, typeName := range doc.Architecture.Cores {
		if !definedTypes[typeName] {
			return nil, status.Error(codes.InvalidArgument,
				fmt.Sprintf("config: core references undefined core type %q", typeName))
		}
		arch.AddCore(typeName)
	}

	return arch, nil
}
