package media

import (
	"vidbatch/internal/util"
)

// FindExisting looks for a complete prior download of base under any of the
// given extensions, in order. Empty files do not count: they are what an
// interrupted transfer leaves behind.
func FindExisting(base string, exts []string) (string, bool) {
	for _, ext := range exts {
		p := WithExt(base, ext)
		if util.NonEmptyFile(p) {
			return p, true
		}
	}
	return "", false
}
