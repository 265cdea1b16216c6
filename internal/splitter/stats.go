package splitter

import (
	"encoding/json"
	"fmt"
	"log"
	"sort"
	"strings"
	"time"

	"github.com/ipfs-shipyard/filechunker/internal/splitter/util"
)

// the code as-written expects the steps to be numerically ordered
var textstatsDistributionPercentiles = [...]int{3, 10, 25, 50, 95}

type statSummary struct {
	EventType   string      `json:"event"`
	Payload     int64       `json:"payload"`
	Chunks      int64       `json:"chunks"`
	EmptyChunks int64       `json:"emptyChunks"`
	Records     int64       `json:"records"`
	WrittenSize int64       `json:"writtenSize,omitempty"`
	ChunkSizes  *sizeStats  `json:"chunkSizes,omitempty"`
	Files       []fileStats `json:"files"`
	SysStats    struct {
		ArgvExpanded []string `json:"argvExpanded"`
		ArgvInitial  []string `json:"argvInitial"`
		ElapsedNsecs int64    `json:"elapsedNanoseconds"`

		// getrusage() section
		CpuUserNsecs int64 `json:"cpuUserNanoseconds"`
		CpuSysNsecs  int64 `json:"cpuSystemNanoseconds"`
		MaxRssBytes  int64 `json:"maxMemoryUsed"`
		MinFlt       int64 `json:"cacheMinorFaults"`
		MajFlt       int64 `json:"cacheMajorFaults"`
		BioRead      int64 `json:"blockIoReads,omitempty"`
		BioWrite     int64 `json:"blockIoWrites,omitempty"`
		Sigs         int64 `json:"signalsReceived,omitempty"`
		CtxSwYield   int64 `json:"contextSwitchYields"`
		CtxSwForced  int64 `json:"contextSwitchForced"`

		// for context
		PageSize  int    `json:"pageSize"`
		NumCPU    int    `json:"cpuCount"`
		GoVersion string `json:"goVersion"`
	} `json:"sys"`
}
type fileStats struct {
	Name        string `json:"name"`
	Size        int64  `json:"size"`
	Chunks      int64  `json:"chunks"`
	EmptyChunks int64  `json:"emptyChunks,omitempty"`
	Records     int64  `json:"records,omitempty"`
}
type sizeStats struct {
	Min         int         `json:"min"`
	Max         int         `json:"max"`
	Avg         int         `json:"avg"`
	Percentiles map[int]int `json:"percentiles"`
}

// sizeDistribution works over the non-empty chunks only: a file smaller than
// the chunk count would otherwise skew everything towards zero
func sizeDistribution(sizes []int) *sizeStats {
	if len(sizes) == 0 {
		return nil
	}

	sorted := make([]int, len(sizes))
	copy(sorted, sizes)
	sort.Ints(sorted)

	ss := &sizeStats{
		Min:         sorted[0],
		Max:         sorted[len(sorted)-1],
		Percentiles: make(map[int]int, len(textstatsDistributionPercentiles)),
	}

	var total int64
	for _, s := range sorted {
		total += int64(s)
	}
	ss.Avg = int(total / int64(len(sorted)))

	for _, step := range textstatsDistributionPercentiles {
		idx := (len(sorted) * step) / 100
		if idx >= len(sorted) {
			idx = len(sorted) - 1
		}
		ss.Percentiles[step] = sorted[idx]
	}

	return ss
}

// OutputSummary finalizes the resource accounting and renders the
// stats-text and/or stats-jsonl emitters, if any are active
func (spl *Splitter) OutputSummary() {

	smr := &spl.statSummary

	spl.mu.Lock()
	if spl.started {
		if postProcessTasks != nil {
			postProcessTasks(spl)
		}
		smr.SysStats.ElapsedNsecs = time.Since(spl.t0).Nanoseconds()
		spl.started = false
	}
	spl.mu.Unlock()

	// no stats emitters - nowhere to output
	if spl.cfg.emitters[emStatsText] == nil && spl.cfg.emitters[emStatsJsonl] == nil {
		return
	}

	smr.ChunkSizes = sizeDistribution(spl.chunkSizes)

	if statsJsonlOut := spl.cfg.emitters[emStatsJsonl]; statsJsonlOut != nil {
		// emit the JSON last, so that piping to e.g. `jq` works nicer
		defer func() {

			// null is not a list
			if smr.Files == nil {
				smr.Files = []fileStats{}
			}

			jsonl, err := json.Marshal(smr)
			if err != nil {
				log.Fatalf("Encoding stats-jsonl failed: %s", err)
			}

			if _, err := fmt.Fprintf(statsJsonlOut, "%s\n", jsonl); err != nil {
				log.Fatalf("Emitting '%s' failed: %s", emStatsJsonl, err)
			}
		}()
	}

	statsTextOut := spl.cfg.emitters[emStatsText]
	if statsTextOut == nil {
		return
	}

	writeTextOutf := func(f string, args ...interface{}) {
		if _, err := fmt.Fprintf(statsTextOut, f, args...); err != nil {
			log.Fatalf("Emitting '%s' failed: %s", emStatsText, err)
		}
	}

	elapsedSecs := float64(smr.SysStats.ElapsedNsecs) / 1000000000
	var vCPU, throughput float64
	if smr.SysStats.ElapsedNsecs > 0 {
		vCPU = float64(smr.SysStats.CpuUserNsecs+smr.SysStats.CpuSysNsecs) / float64(smr.SysStats.ElapsedNsecs)
		throughput = (float64(smr.Payload) / (1024 * 1024)) / elapsedSecs
	}

	writeTextOutf(
		"\nProcessing took %0.2f seconds using %0.2f vCPU and %0.2f MiB peak memory"+
			"\nMapped payload of:%20s bytes from %s file(s) at about %0.2f MiB/s"+
			"\nSplit into:%27s chunks (%s empty)\n",

		elapsedSecs,
		vCPU,
		float64(smr.SysStats.MaxRssBytes)/(1024*1024),

		util.Commify64(smr.Payload),
		util.Commify(len(smr.Files)),
		throughput,

		util.Commify64(smr.Chunks),
		util.Commify64(smr.EmptyChunks),
	)

	if smr.Records > 0 {
		writeTextOutf("Holding:%30s delimited records\n", util.Commify64(smr.Records))
	}
	if smr.WrittenSize > 0 {
		writeTextOutf("Written out as:%23s bytes, %.02f%% of original\n",
			util.Commify64(smr.WrittenSize),
			100*float64(smr.WrittenSize)/float64(smr.Payload),
		)
	}

	if smr.ChunkSizes == nil {
		writeTextOutf("\n")
		return
	}

	descParts := make([]string, 0, 2+len(textstatsDistributionPercentiles))
	descParts = append(descParts, "     Chunk sizes:")
	for i, val := range textstatsDistributionPercentiles {
		if i == 0 {
			descParts = append(descParts, fmt.Sprintf(" %5d%%", val))
		} else {
			descParts = append(descParts, fmt.Sprintf(" %8d%%", val))
		}
	}
	descParts = append(descParts, " |      Min       Max       Avg\n                 ")

	for _, step := range textstatsDistributionPercentiles {
		descParts = append(descParts, fmt.Sprintf(" %8s", util.Commify(smr.ChunkSizes.Percentiles[step])))
	}
	descParts = append(descParts, fmt.Sprintf(
		" |%9s %9s %9s\n",
		util.Commify(smr.ChunkSizes.Min),
		util.Commify(smr.ChunkSizes.Max),
		util.Commify(smr.ChunkSizes.Avg),
	))

	writeTextOutf("\n%s\n", strings.Join(descParts, ""))
}
