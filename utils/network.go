package utils

import (
	"path/filepath"
	"runtime"
	"strings"
)

// networkPrefixes are common mount points for network shares
var networkPrefixes = []string{
	"/mnt/",     // Linux NFS/SMB mounts
	"/media/",   // Linux removable/network media
	"/Volumes/", // macOS network volumes
}

// networkIndicators hint at a network filesystem somewhere in the path
var networkIndicators = []string{"nfs", "cifs", "smb", "webdav", "ftp", "sftp"}

// IsNetworkDrive detects if a file path is on a network-mounted drive
func IsNetworkDrive(filePath string) bool {
	// UNC paths have to be checked before converting to an absolute path
	if strings.HasPrefix(filePath, "//") || strings.HasPrefix(filePath, `\\`) {
		return true
	}

	absPath, err := filepath.Abs(filePath)
	if err != nil {
		return false
	}

	for _, prefix := range networkPrefixes {
		if strings.HasPrefix(absPath, prefix) {
			return true
		}
	}

	lowerPath := strings.ToLower(absPath)
	for _, indicator := range networkIndicators {
		if strings.Contains(lowerPath, indicator) {
			return true
		}
	}

	return false
}

// DefaultJobs picks how many compositor processes may run at once. Encoding from or to a
// network share is I/O bound, so a single job is used when any path lives on one.
func DefaultJobs(paths ...string) int {
	for _, p := range paths {
		if p != "" && IsNetworkDrive(p) {
			return 1
		}
	}
	return runtime.NumCPU()
}
