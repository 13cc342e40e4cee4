//go:build linux

package watcher

import (
	"path/filepath"

	"golang.org/x/sys/unix"
)

// Filesystem magic numbers from statfs(2).
const (
	magicNFS  = 0x6969
	magicSMB  = 0x517b
	magicSMB2 = 0xfe534d42
	magicCIFS = 0xff534d42
	magicFUSE = 0x65735546
)

// DetectFilesystemType classifies the filesystem holding path. The parent
// directory is probed when the file itself does not exist yet.
func DetectFilesystemType(path string) FilesystemType {
	if path == "" {
		return FSTypeUnknown
	}
	var st unix.Statfs_t
	if err := unix.Statfs(path, &st); err != nil {
		if err := unix.Statfs(filepath.Dir(path), &st); err != nil {
			return FSTypeUnknown
		}
	}
	switch uint32(st.Type) {
	case magicNFS:
		return FSTypeNFS
	case magicSMB, magicSMB2, magicCIFS:
		return FSTypeSMB
	case magicFUSE:
		return FSTypeFUSE
	default:
		return FSTypeLocal
	}
}
