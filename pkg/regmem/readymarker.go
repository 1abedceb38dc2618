//go:build linux

package regmem

import (
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/lightap/lap-com/pkg/fs"
)

// readyMarker is the diagnostic-only JSON payload written next to a
// server's socket on successful bind (spec §4.3a). Consumers must use
// the socket protocol (spec §6.2), never this file, to obtain the
// memory descriptor.
type readyMarker struct {
	SocketPath string    `json:"socket_path"`
	PID        int       `json:"pid"`
	StartedAt  time.Time `json:"started_at"`
}

// WriteReadyMarker atomically writes a ready marker for a Server bound
// at socketPath to markerPath.
func WriteReadyMarker(filesystem fs.FS, markerPath, socketPath string, startedAt time.Time) error {
	marker := readyMarker{
		SocketPath: socketPath,
		PID:        os.Getpid(),
		StartedAt:  startedAt,
	}

	data, err := json.Marshal(marker)
	if err != nil {
		return fmt.Errorf("regmem: marshal ready marker: %w", err)
	}

	if err := filesystem.WriteFileAtomic(markerPath, data, 0o644); err != nil {
		return fmt.Errorf("regmem: write ready marker: %w", err)
	}

	return nil
}
