//go:build profiling

package util

import (
	"fmt"
	"log"
	"os"
	"path/filepath"
	"runtime"
	"runtime/pprof"
	"time"
)

func init() {
	ProfileStartStop = setupProfiling
}

// settable via -ldflags="-X 'github.com/ipfs-shipyard/filechunker/internal/splitter/util.profileOutDir=...'"
var profileOutDir string

func setupProfiling() (profilingStopper func()) {

	outDir := profileOutDir
	if envDir := os.Getenv("FILECHUNKER_PROFILE_DIR"); envDir != "" {
		outDir = envDir
	}
	if outDir == "" {
		log.Fatalf("Profiling build without a destination: set FILECHUNKER_PROFILE_DIR or build with -ldflags=\"-X '....profileOutDir=...'\"")
	}

	pathPrefix := filepath.Join(outDir, time.Now().Format("2006-01-02_15-04-05.000"))
	var openHandles []*os.File

	cpuProfFh := openProfHandle("cpu", pathPrefix, &openHandles)
	heapProfFh := openProfHandle("heap", pathPrefix, &openHandles)

	runtime.GC()

	if err := pprof.StartCPUProfile(cpuProfFh); err != nil {
		log.Fatalf("Unable to start CPU profiling: %s", err)
	}

	// this function is a closer, no aborts on errors
	return func() {
		pprof.StopCPUProfile()
		runtime.GC()

		if err := pprof.Lookup("heap").WriteTo(heapProfFh, 0); err != nil {
			log.Printf("Error writing out 'heap' profile: %s", err)
		}

		for _, fh := range openHandles {
			if err := fh.Close(); err != nil {
				log.Printf("Closing %s failed: %s", fh.Name(), err)
			}
		}
	}
}

func openProfHandle(profName string, pathPrefix string, openHandles *[]*os.File) *os.File {
	fh, err := os.OpenFile(
		fmt.Sprintf("%s_%s.prof", pathPrefix, profName),
		os.O_RDWR|os.O_CREATE|os.O_EXCL,
		0640,
	)
	if err != nil {
		log.Fatalf("Unable to open '%s' profile output: %s", profName, err)
	}

	// best-effort "latest_" link next to the timestamped file
	latest := filepath.Join(filepath.Dir(fh.Name()), "latest_"+profName+".prof")
	if os.Symlink(filepath.Base(fh.Name()), latest+".templnk") == nil {
		os.Rename(latest+".templnk", latest)
	}

	*openHandles = append(*openHandles, fh)
	return fh
}
