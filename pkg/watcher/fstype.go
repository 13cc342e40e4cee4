package watcher

// FilesystemType is a best-effort classification of the filesystem a watched
// path lives on. Remote filesystems deliver fsnotify events unreliably (or
// not at all), so the watcher prefers polling there.
type FilesystemType int

const (
	FSTypeUnknown FilesystemType = iota
	FSTypeLocal
	FSTypeNFS
	FSTypeSMB
	FSTypeSSHFS
	FSTypeFUSE
)

// String returns the type name used in logs.
func (t FilesystemType) String() string {
	switch t {
	case FSTypeLocal:
		return "local"
	case FSTypeNFS:
		return "nfs"
	case FSTypeSMB:
		return "smb"
	case FSTypeSSHFS:
		return "sshfs"
	case FSTypeFUSE:
		return "fuse"
	default:
		return "unknown"
	}
}

// detectFilesystemTypeFunc is swapped out by tests that need to simulate a
// remote filesystem.
var detectFilesystemTypeFunc = DetectFilesystemType

// isRemoteFilesystem reports whether events for this filesystem type should
// not be trusted.
func isRemoteFilesystem(t FilesystemType) bool {
	switch t {
	case FSTypeNFS, FSTypeSMB, FSTypeSSHFS, FSTypeFUSE:
		return true
	default:
		return false
	}
}
