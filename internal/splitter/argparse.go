package splitter

import (
	"fmt"
	"io"
	"log"
	"os"
	"runtime"
	"sort"
	"strconv"
	"strings"

	getopt "github.com/pborman/getopt/v2"
	"github.com/pborman/options"

	"github.com/ipfs-shipyard/filechunker/chunker"
	"github.com/ipfs-shipyard/filechunker/internal/constants"
	"github.com/ipfs-shipyard/filechunker/internal/splitter/digest"
	"github.com/ipfs-shipyard/filechunker/internal/splitter/planner"
	"github.com/ipfs-shipyard/filechunker/internal/splitter/planner/fixedcount"
	"github.com/ipfs-shipyard/filechunker/internal/splitter/planner/fixedsize"
	"github.com/ipfs-shipyard/filechunker/internal/splitter/sink"
	"github.com/ipfs-shipyard/filechunker/internal/splitter/util"
	"github.com/ipfs-shipyard/filechunker/mmapfile"
)

var availablePlanners = map[string]planner.Initializer{
	"fixed-count": fixedcount.NewPlanner,
	"fixed-size":  fixedsize.NewPlanner,
}

type config struct {
	optSet *getopt.Set

	// where to output
	emitters emissionTargets

	// the input files, if any
	files []string

	//
	// Bulk of CLI options definition starts here, the rest further down in initArgvParser()
	//

	Help    bool `getopt:"-h --help     Display basic help"`
	HelpAll bool `getopt:"--help-all    Display full help including options for every currently supported planner"`

	Workers     int    `getopt:"--workers=integer   Number of concurrent goroutines processing individual chunks. Default:"`
	WriteChunks string `getopt:"--write-chunks=dir  Write every chunk as a separate file into the given directory"`

	emittersStdErr []string // Emitter spec: option/helptext in initArgvParser()
	emittersStdOut []string // Emitter spec: option/helptext in initArgvParser()

	// no-option-attached, parsing error accumulators
	erroredPlanners []string

	requestedPlanner string // Planner: option/helptext in initArgvParser()
	delimiterSpec    string // Delimiter: option/helptext in initArgvParser()
	digestName       string // Digest: option/helptext in initArgvParser()
	madvise          string // Access pattern: option/helptext in initArgvParser()
	compression      string // Compressor: option/helptext in initArgvParser()
}

type emissionTargets map[string]io.Writer

const (
	emNone        = "none"
	emStatsText   = "stats-text"
	emStatsJsonl  = "stats-jsonl"
	emChunksJsonl = "chunks-jsonl"
)

// where the CLI initial error messages go
var argParseErrOut io.Writer = os.Stderr

// NewFromArgv parses argv and sets up a Splitter. On any error the full usage
// and every problem found are displayed, followed by an os.Exit(1).
func NewFromArgv(argv []string) *Splitter {
	spl, argParseErrs := newFromArgv(argv)

	if spl.cfg.Help || spl.cfg.HelpAll {
		spl.cfg.printUsage()
		os.Exit(0)
	}

	if len(argParseErrs) != 0 {
		fmt.Fprint(argParseErrOut, "\nFatal error parsing arguments:\n\n")
		spl.cfg.printUsage()

		fmt.Fprintf(
			argParseErrOut,
			"Fatal error parsing arguments:\n\t%s\n",
			strings.Join(argParseErrs, "\n\t"),
		)
		os.Exit(1)
	}

	return spl
}

func newFromArgv(argv []string) (spl *Splitter, argParseErrs []string) {

	spl = &Splitter{
		cfg: config{
			Workers: runtime.NumCPU(),

			requestedPlanner: "fixed-count",
			delimiterSpec:    "none",
			digestName:       digest.None,
			madvise:          "sequential",
			compression:      sink.CompressNone,

			emittersStdOut: []string{emChunksJsonl},
			emittersStdErr: []string{emStatsText},

			// not defaults but rather the list of known/configured emitters
			emitters: emissionTargets{
				emNone:        nil,
				emStatsText:   nil,
				emStatsJsonl:  nil,
				emChunksJsonl: nil,
			},
		},
	}

	// init some constants
	{
		s := &spl.statSummary
		s.EventType = "summary"

		if len(argv) > 0 {
			s.SysStats.ArgvInitial = make([]string, len(argv)-1)
			copy(s.SysStats.ArgvInitial, argv[1:])
		}

		s.SysStats.NumCPU = runtime.NumCPU()
		s.SysStats.PageSize = os.Getpagesize()
		s.SysStats.GoVersion = runtime.Version()
	}

	cfg := &spl.cfg
	cfg.initArgvParser()

	if err := cfg.optSet.Getopt(argv, nil); err != nil {
		argParseErrs = append(argParseErrs, err.Error())
	}
	cfg.files = cfg.optSet.Args()

	if cfg.Help || cfg.HelpAll {
		return
	}

	if cfg.Workers < 1 || cfg.Workers > constants.MaxWorkers {
		argParseErrs = append(argParseErrs, fmt.Sprintf(
			"--workers '%s' out of bounds [1:%d]",
			util.Commify(cfg.Workers),
			constants.MaxWorkers,
		))
	}

	if ap, known := mmapfile.AvailableAccessPatterns[cfg.madvise]; !known {
		argParseErrs = append(argParseErrs, fmt.Sprintf(
			"invalid access pattern '%s' specified for --madvise. Available patterns are: %s",
			cfg.madvise,
			util.AvailableMapKeys(mmapfile.AvailableAccessPatterns),
		))
	} else {
		spl.accessPattern = ap
	}

	if d, err := digest.New(cfg.digestName); err != nil {
		argParseErrs = append(argParseErrs, err.Error())
	} else {
		spl.digester = d
	}

	var delimOk bool
	if spl.delimiter, delimOk = parseDelimiter(cfg.delimiterSpec); !delimOk {
		argParseErrs = append(argParseErrs, fmt.Sprintf(
			"invalid --delimiter '%s': must be 'none', a single character, one of '\\n' '\\t' '\\r' '\\0', or a hex byte like '0x1e'",
			cfg.delimiterSpec,
		))
	}

	argParseErrs = append(argParseErrs, spl.setupSink()...)
	argParseErrs = append(argParseErrs, spl.setupEmitters()...)

	// a planner bound to a bogus delimiter only produces noise
	if delimOk {
		argParseErrs = append(argParseErrs, spl.setupPlanner()...)
	}

	if len(argParseErrs) != 0 {
		sort.Strings(argParseErrs)
		return
	}

	if argParseErrs = spl.openSink(); len(argParseErrs) != 0 {
		return
	}

	// Opts check out - take a snapshot of what we ended up with
	cfg.optSet.VisitAll(func(o getopt.Option) {
		switch o.LongName() {
		case "help", "help-all":
			// do nothing for these
		default:
			spl.statSummary.SysStats.ArgvExpanded = append(
				spl.statSummary.SysStats.ArgvExpanded, fmt.Sprintf(`--%s=%s`,
					o.LongName(),
					o.Value().String(),
				),
			)
		}
	})
	sort.Strings(spl.statSummary.SysStats.ArgvExpanded)

	return
}

func (cfg *config) printUsage() {
	cfg.optSet.PrintUsage(argParseErrOut)
	if cfg.HelpAll || len(cfg.erroredPlanners) > 0 {
		printPluginUsage(
			argParseErrOut,
			cfg.erroredPlanners,
		)
	} else {
		fmt.Fprint(argParseErrOut, "\nTry --help-all for more info\n\n")
	}
}

func printPluginUsage(
	out io.Writer,
	listPlanners []string,
) {

	// if nothing was requested explicitly - list everything
	if len(listPlanners) == 0 {
		for name, initializer := range availablePlanners {
			if initializer != nil {
				listPlanners = append(listPlanners, name)
			}
		}
	}

	fmt.Fprint(out, "\n")
	sort.Strings(listPlanners)
	for _, name := range listPlanners {
		fmt.Fprintf(
			out,
			"[P]lanner '%s'\n",
			name,
		)
		_, h := availablePlanners[name](nil, nil)
		if len(h) == 0 {
			fmt.Fprint(out, "  -- no helptext available --\n\n")
		} else {
			fmt.Fprintln(out, strings.Join(h, "\n"))
		}
	}

	fmt.Fprint(out, "\n")
}

func (cfg *config) initArgvParser() {
	// The default documented way of using pborman/options is to muck with globals
	// Operate over objects instead, allowing us to re-parse argv multiple times
	o := getopt.New()
	if err := options.RegisterSet("", cfg, o); err != nil {
		log.Fatalf("option set registration failed: %s", err)
	}
	cfg.optSet = o

	o.SetParameters("[file ...]")

	// Several options have the help-text assembled programmatically
	o.FlagLong(&cfg.requestedPlanner, "planner", 0,
		"Chunk boundary planner, one of: "+util.AvailableMapKeys(availablePlanners)+". Default:",
		"'name_opt1_opt2_..._optN'",
	)
	o.FlagLong(&cfg.delimiterSpec, "delimiter", 0,
		"Byte every non-final chunk must end with: 'none', a single character, '\\n', '\\t', '\\r', '\\0' or a hex byte like '0x1e'. Default:",
		"spec",
	)
	o.FlagLong(&cfg.digestName, "hash", 0,
		"Digest function to compute over every chunk, one of: "+util.AvailableMapKeys(digest.AvailableDigests)+". Default:",
		"string",
	)
	o.FlagLong(&cfg.madvise, "madvise", 0,
		"Access pattern hint for the file mapping, one of: "+util.AvailableMapKeys(mmapfile.AvailableAccessPatterns)+". Default:",
		"string",
	)
	o.FlagLong(&cfg.compression, "compress", 0,
		"Compression applied to chunks written via --write-chunks, one of: "+util.AvailableMapKeys(sink.AvailableCompressors)+". Default:",
		"string",
	)
	o.FlagLong(&cfg.emittersStdErr, "emit-stderr", 0, fmt.Sprintf(
		"One or more emitters to activate on stdERR. Available emitters are %s. Default: ",
		util.AvailableMapKeys(cfg.emitters),
	), "commaSepEmitters")
	o.FlagLong(&cfg.emittersStdOut, "emit-stdout", 0,
		"One or more emitters to activate on stdOUT. Available emitters same as above. Default: ",
		"commaSepEmitters",
	)
}

func (spl *Splitter) setupEmitters() (argErrs []string) {

	activeStderr := make(map[string]bool, len(spl.cfg.emittersStdErr))
	for _, s := range spl.cfg.emittersStdErr {
		activeStderr[s] = true
		if val, exists := spl.cfg.emitters[s]; !exists {
			argErrs = append(argErrs, fmt.Sprintf("invalid emitter '%s' specified for --emit-stderr. Available emitters are: %s",
				s,
				util.AvailableMapKeys(spl.cfg.emitters),
			))
		} else if s == emNone {
			continue
		} else if val != nil {
			argErrs = append(argErrs, fmt.Sprintf("Emitter '%s' specified more than once", s))
		} else {
			spl.cfg.emitters[s] = os.Stderr
		}
	}
	activeStdout := make(map[string]bool, len(spl.cfg.emittersStdOut))
	for _, s := range spl.cfg.emittersStdOut {
		activeStdout[s] = true
		if val, exists := spl.cfg.emitters[s]; !exists {
			argErrs = append(argErrs, fmt.Sprintf("invalid emitter '%s' specified for --emit-stdout. Available emitters are: %s",
				s,
				util.AvailableMapKeys(spl.cfg.emitters),
			))
		} else if s == emNone {
			continue
		} else if val != nil {
			argErrs = append(argErrs, fmt.Sprintf("Emitter '%s' specified more than once", s))
		} else {
			spl.cfg.emitters[s] = os.Stdout
		}
	}

	for _, exclusiveEmitter := range []string{
		emNone,
		emStatsText,
	} {
		if activeStderr[exclusiveEmitter] && len(activeStderr) > 1 {
			argErrs = append(argErrs, fmt.Sprintf(
				"When specified, emitter '%s' must be the sole argument to --emit-stderr",
				exclusiveEmitter,
			))
		}
		if activeStdout[exclusiveEmitter] && len(activeStdout) > 1 {
			argErrs = append(argErrs, fmt.Sprintf(
				"When specified, emitter '%s' must be the sole argument to --emit-stdout",
				exclusiveEmitter,
			))
		}
	}

	spl.emitChunks = (spl.cfg.emitters[emChunksJsonl] != nil)

	return
}

func (spl *Splitter) setupSink() (argErrs []string) {
	cfg := &spl.cfg

	if _, known := sink.AvailableCompressors[cfg.compression]; !known {
		return []string{fmt.Sprintf(
			"invalid compressor '%s' specified for --compress. Available compressors are: %s",
			cfg.compression,
			util.AvailableMapKeys(sink.AvailableCompressors),
		)}
	}

	if !cfg.optSet.IsSet("write-chunks") {
		if cfg.compression != sink.CompressNone {
			argErrs = append(argErrs, "--compress is only meaningful together with --write-chunks")
		}
		return
	}

	if cfg.WriteChunks == "" {
		argErrs = append(argErrs, "--write-chunks requires a directory")
	}
	return
}

// openSink creates the output directory, only called once argv checks out
func (spl *Splitter) openSink() (argErrs []string) {
	cfg := &spl.cfg
	if !cfg.optSet.IsSet("write-chunks") {
		return
	}

	var err error
	if spl.sink, err = sink.New(cfg.WriteChunks, cfg.compression); err != nil {
		argErrs = append(argErrs, fmt.Sprintf("--write-chunks: %s", err))
	}
	return
}

func (spl *Splitter) setupPlanner() (argErrs []string) {

	// bail early
	if spl.cfg.requestedPlanner == "" {
		return []string{
			"You must specify a planner via '--planner=name_opt1_opt2'. Available planner names are: " +
				util.AvailableMapKeys(availablePlanners),
		}
	}

	plannerArgs := strings.Split(spl.cfg.requestedPlanner, "_")
	init, exists := availablePlanners[plannerArgs[0]]
	if !exists {
		return []string{fmt.Sprintf(
			"Planner '%s' not found. Available planner names are: %s",
			plannerArgs[0],
			util.AvailableMapKeys(availablePlanners),
		)}
	}

	for n := range plannerArgs {
		if n > 0 {
			plannerArgs[n] = "--" + plannerArgs[n]
		}
	}

	plannerInstance, initErrors := init(
		plannerArgs,
		&planner.Config{
			Delimiter:    spl.delimiter,
			DefaultCount: runtime.NumCPU(),
		},
	)

	if len(initErrors) > 0 {
		spl.cfg.erroredPlanners = append(spl.cfg.erroredPlanners, plannerArgs[0])
		for _, e := range initErrors {
			argErrs = append(argErrs, fmt.Sprintf(
				"Initialization of planner '%s' failed: %s",
				plannerArgs[0],
				e,
			))
		}
	} else {
		spl.planner = plannerInstance
	}

	return
}

var namedDelimiters = map[string]chunker.Delimiter{
	"none": chunker.NoDelimiter,
	`\n`:   chunker.Byte('\n'),
	`\t`:   chunker.Byte('\t'),
	`\r`:   chunker.Byte('\r'),
	`\0`:   chunker.Byte(0),
}

func parseDelimiter(spec string) (chunker.Delimiter, bool) {
	if d, named := namedDelimiters[spec]; named {
		return d, true
	}

	if len(spec) == 1 {
		return chunker.Byte(spec[0]), true
	}

	if len(spec) > 2 && (spec[:2] == "0x" || spec[:2] == "0X") {
		if b, err := strconv.ParseUint(spec[2:], 16, 8); err == nil {
			return chunker.Byte(byte(b)), true
		}
	}

	return chunker.NoDelimiter, false
}
