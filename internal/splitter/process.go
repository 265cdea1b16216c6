package splitter

import (
	"bytes"
	"context"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"log"
	"os"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/ipfs-shipyard/filechunker"
	"github.com/ipfs-shipyard/filechunker/chunker"
	"github.com/ipfs-shipyard/filechunker/internal/splitter/util"
)

const (
	ErrorString = EventType(iota)
	NewChunkJsonl
)

type Event struct {
	Type EventType
	Body string
}
type EventType int

func (spl *Splitter) maybeSendEvent(t EventType, s string) {
	if spl.externalEventBus != nil {
		spl.externalEventBus <- Event{Type: t, Body: s}
	}
}

var preProcessTasks, postProcessTasks func(spl *Splitter)

type chunkResult struct {
	EventType   string `json:"event"`
	File        string `json:"file"`
	Index       int    `json:"index"`
	Offset      int    `json:"offset"`
	Size        int    `json:"size"`
	Records     int    `json:"records,omitempty"`
	Digest      string `json:"digest,omitempty"`
	Path        string `json:"path,omitempty"`
	WrittenSize int64  `json:"writtenSize,omitempty"`
}

// ProcessFile maps fh, plans its chunks and processes every chunk on the
// worker pool. Results are emitted in chunk order once all workers are done.
// When supplied, optionalEventChan receives a copy of every emitted line and
// is closed before ProcessFile returns.
func (spl *Splitter) ProcessFile(ctx context.Context, fh *os.File, optionalEventChan chan<- Event) (err error) {

	fn := "<nil>"
	if fh != nil {
		fn = fh.Name()
	}

	spl.externalEventBus = optionalEventChan
	defer func() {
		if err != nil {
			err = fmt.Errorf("failure processing '%s': %w", fn, err)
			spl.maybeSendEvent(ErrorString, err.Error())
		}
		if spl.externalEventBus != nil {
			close(spl.externalEventBus)
			spl.externalEventBus = nil
		}
	}()

	spl.mu.Lock()
	if !spl.started {
		spl.started = true
		if preProcessTasks != nil {
			preProcessTasks(spl)
		}
		spl.t0 = time.Now()
	}
	spl.mu.Unlock()

	fc, err := filechunker.New(fh)
	if err != nil {
		return err
	}
	defer func() {
		if closeErr := fc.Close(); closeErr != nil && err == nil {
			err = closeErr
		}
	}()

	if err := fc.Advise(spl.accessPattern); err != nil {
		log.Printf("Failed to apply access pattern hint to mapping of '%s': %s\n", fn, err)
	}

	ranges, views, err := fc.Plan(spl.planner)
	if err != nil {
		return err
	}

	results := make([]chunkResult, len(ranges))

	eg, egCtx := errgroup.WithContext(ctx)
	eg.SetLimit(spl.cfg.Workers)

	for i := range ranges {
		if egCtx.Err() != nil {
			break
		}

		i := i
		eg.Go(func() error {
			if egCtx.Err() != nil {
				return egCtx.Err()
			}
			return spl.processChunk(fn, i, spl.chunkSeq+i, ranges[i], views[i], &results[i])
		})
	}

	if err := eg.Wait(); err != nil {
		return err
	}
	// a cancellation that arrived after the last worker launched
	if err := ctx.Err(); err != nil {
		return err
	}
	spl.chunkSeq += len(ranges)

	return spl.emitFileResults(fn, fc.Len(), results)
}

// seq is the chunk position across every file processed so far, and
// determines the --write-chunks file name
func (spl *Splitter) processChunk(fn string, idx, seq int, r chunker.Range, view []byte, res *chunkResult) error {
	*res = chunkResult{
		EventType: "chunk",
		File:      fn,
		Index:     idx,
		Offset:    r.Start,
		Size:      r.Len(),
	}

	if spl.delimiter.Active() && len(view) > 0 {
		delim := byte(spl.delimiter)
		res.Records = bytes.Count(view, []byte{delim})
		if view[len(view)-1] != delim {
			res.Records++
		}
	}

	if spl.digester.Active() {
		res.Digest = hex.EncodeToString(spl.digester.Sum(view))
	}

	if spl.sink != nil {
		onDisk, err := spl.sink.WriteChunk(seq, view)
		if err != nil {
			return fmt.Errorf(
				"writing chunk #%d at byte offset %s: %w",
				seq,
				util.Commify(r.Start),
				err,
			)
		}
		res.Path = spl.sink.Path(seq)
		res.WrittenSize = onDisk
	}

	return nil
}

func (spl *Splitter) emitFileResults(fn string, size int, results []chunkResult) error {

	fs := fileStats{
		Name:   fn,
		Size:   int64(size),
		Chunks: int64(len(results)),
	}

	smr := &spl.statSummary
	for i := range results {
		r := &results[i]

		if r.Size == 0 {
			fs.EmptyChunks++
		} else {
			spl.chunkSizes = append(spl.chunkSizes, r.Size)
		}
		fs.Records += int64(r.Records)
		smr.WrittenSize += r.WrittenSize

		if !spl.emitChunks && spl.externalEventBus == nil {
			continue
		}

		jsonl, err := json.Marshal(r)
		if err != nil {
			return fmt.Errorf("encoding chunk #%d failed: %w", r.Index, err)
		}

		if spl.emitChunks {
			if _, err := fmt.Fprintf(spl.cfg.emitters[emChunksJsonl], "%s\n", jsonl); err != nil {
				return fmt.Errorf("emitting '%s' failed: %w", emChunksJsonl, err)
			}
		}
		spl.maybeSendEvent(NewChunkJsonl, string(jsonl))
	}

	smr.Files = append(smr.Files, fs)
	smr.Payload += fs.Size
	smr.Chunks += fs.Chunks
	smr.EmptyChunks += fs.EmptyChunks
	smr.Records += fs.Records

	return nil
}
