package trace

import (
	"bufio"
	"fmt"
	"os"
	"strings"

	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

// ReadManifest opens a (optionally gzip-compressed) manifest file and
// returns the trace file paths it lists, one per non-blank line.
func ReadManifest(path string) ([]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, status.Error(codes.NotFound, fmt.Sprintf("trace: could not load manifest %s: %v", path, err))
	}
	defer f.Close()

	content, err := maybeGunzip(f)
	if err != nil {
		return nil, status.Error(codes.InvalidArgument, fmt.Sprintf("trace: could not decompress manifest %s: %v", path, err))
	}

	var paths []string
	scanner := bufio.NewScanner(content)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		paths = append(paths, line)
	}
	if err := scanner.Err(); err != nil {
		return nil, status.Error(codes.InvalidArgument, fmt.Sprintf("trace: error reading manifest %s: %v", path, err))
	}

	return paths, nil
}
