package storage

import (
	"os"
	"path/filepath"
)

// appDirName is the directory under the user config root.
const appDirName = "plenty"

// DataDir returns the engine's data directory, creating it if needed.
func DataDir() (string, error) {
	base, err := os.UserConfigDir()
	if err != nil {
		home, herr := os.UserHomeDir()
		if herr != nil {
			return "", err
		}
		base = filepath.Join(home, "."+appDirName)
	} else {
		base = filepath.Join(base, appDirName)
	}
	if err := os.MkdirAll(base, 0o755); err != nil {
		return "", err
	}
	return base, nil
}

// DatabaseDir returns the BadgerDB directory.
func DatabaseDir() (string, error) {
	dir, err := DataDir()
	if err != nil {
		return "", err
	}
	dbDir := filepath.Join(dir, "db")
	if err := os.MkdirAll(dbDir, 0o755); err != nil {
		return "", err
	}
	return dbDir, nil
}

// WeightsSearchPaths lists the locations probed for a weights blob, in
// order of preference.
func WeightsSearchPaths(name string) []string {
	var paths []string
	if dir, err := DataDir(); err == nil {
		paths = append(paths, filepath.Join(dir, "networks", name))
	}
	paths = append(paths,
		filepath.Join("networks", name),
		name,
	)
	return paths
}
