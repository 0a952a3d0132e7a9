package searchset

import (
	"os"
	"path/filepath"
	"runtime"

	"github.com/mitchellh/go-homedir"
)

// Priorities of the default locations. User archives added at the
// default priority 0 take precedence over both.
const (
	SystemPriority     = -1
	CurrentDirPriority = -2
)

// CurrentDirName is the archive name of the working directory location
const CurrentDirName = "."

// Location describes a directory to register in a SearchSet
type Location struct {
	Name     string
	Path     string
	Priority int
	Depth    int
	Flat     bool
}

// DefaultLocations returns the platform data directories for appName that
// exist, followed by the current working directory.
//
// Linux and other unix systems use $XDG_DATA_HOME/<app> (or
// ~/.local/share/<app>) and /usr/share/<app>, macOS uses
// ~/Library/Application Support/<app> and Windows uses %APPDATA%\<app>.
func DefaultLocations(appName string) []Location {
	var locs []Location
	for _, dir := range systemDataDirs(appName) {
		if info, err := os.Stat(dir); err != nil || !info.IsDir() {
			continue
		}
		locs = append(locs, Location{Name: dir, Path: dir, Priority: SystemPriority, Depth: 1})
	}
	locs = append(locs, Location{Name: CurrentDirName, Path: ".", Priority: CurrentDirPriority, Depth: 1})
	return locs
}

func systemDataDirs(appName string) []string {
	home, err := homedir.Dir()
	if err != nil {
		home = ""
	}

	switch runtime.GOOS {
	case "windows":
		appData := os.Getenv("APPDATA")
		if appData == "" && home != "" {
			appData = filepath.Join(home, "AppData", "Roaming")
		}
		if appData == "" {
			return nil
		}
		return []string{filepath.Join(appData, appName)}
	case "darwin":
		if home == "" {
			return nil
		}
		return []string{filepath.Join(home, "Library", "Application Support", appName)}
	default:
		var dirs []string
		dataHome := os.Getenv("XDG_DATA_HOME")
		if dataHome == "" && home != "" {
			dataHome = filepath.Join(home, ".local", "share")
		}
		if dataHome != "" {
			dirs = append(dirs, filepath.Join(dataHome, appName))
		}
		return append(dirs, filepath.Join("/usr/share", appName))
	}
}

// ExpandPath resolves a leading ~ in p to the user's home directory
func ExpandPath(p string) (string, error) {
	return homedir.Expand(p)
}
