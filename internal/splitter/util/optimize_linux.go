package util

import (
	"os"

	"golang.org/x/sys/unix"
)

func init() {

	// The whole file is going to be mapped and walked front to back by the
	// planner, then handed out in order to the workers: let the kernel know
	ReadOptimizations = append(ReadOptimizations, FileHandleOptimization{
		"POSIX_FADV_SEQUENTIAL",
		func(file *os.File, stat os.FileInfo) error {
			if !stat.Mode().IsRegular() {
				return os.ErrInvalid
			}
			return unix.Fadvise(int(file.Fd()), 0, 0, unix.FADV_SEQUENTIAL)
		},
	})

	ReadOptimizations = append(ReadOptimizations, FileHandleOptimization{
		"POSIX_FADV_WILLNEED",
		func(file *os.File, stat os.FileInfo) error {
			if !stat.Mode().IsRegular() || stat.Size() == 0 {
				return os.ErrInvalid
			}
			return unix.Fadvise(int(file.Fd()), 0, stat.Size(), unix.FADV_WILLNEED)
		},
	})
}
