//go:build !wasip1 && !js

package resources

import (
	"os"

	"github.com/edsrzf/mmap-go"
)

func readMmap(file *os.File) (*[]byte, error) {
	// Mapping a zero-length file is an error on most platforms.
	if stat, statErr := file.Stat(); statErr == nil && stat.Size() == 0 {
		empty := make([]byte, 0)
		return &empty, nil
	}
	fileMmap, mmapErr := mmap.Map(file, mmap.RDONLY, 0)
	mmapBytes := (*[]byte)(&fileMmap)
	return mmapBytes, mmapErr
}

func unmapBytes(data *[]byte) error {
	if data == nil || len(*data) == 0 {
		return nil
	}
	fileMmap := mmap.MMap(*data)
	return fileMmap.Unmap()
}
