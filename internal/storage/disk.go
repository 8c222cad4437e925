package storage

import "os"

// DiskUsageBytes returns the on-disk size of the contracts database,
// including the WAL and shared-memory sidecar files SQLite keeps next to
// it. Missing files contribute 0.
func DiskUsageBytes(dbPath string) int64 {
	var total int64
	for _, p := range []string{dbPath, dbPath + "-wal", dbPath + "-shm"} {
		if info, err := os.Stat(p); err == nil {
			total += info.Size()
		}
	}
	return total
}
