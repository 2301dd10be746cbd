package main

import (
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"

	"tokenwheel.ai/internal/persistence/indexdb"
)

// openRuntimeIndex opens the read-model index selected by TW_INDEX_BACKEND.
// A nil index with a nil error means indexing is off.
func openRuntimeIndex(dataDir string, disableDB bool, logger *log.Logger) (*indexdb.SQLiteIndex, error) {
	if disableDB {
		return nil, nil
	}

	backend := strings.ToLower(strings.TrimSpace(os.Getenv("TW_INDEX_BACKEND")))
	if backend == "" {
		backend = "sqlite"
	}

	switch backend {
	case "none", "off", "disabled":
		return nil, nil
	case "sqlite":
		return indexdb.OpenSQLite(filepath.Join(dataDir, "index", "tokenwheel.sqlite"), logger)
	default:
		return nil, fmt.Errorf("unsupported TW_INDEX_BACKEND: %s", backend)
	}
}
