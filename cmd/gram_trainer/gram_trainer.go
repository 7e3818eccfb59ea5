package main

import (
	"bufio"
	"errors"
	"flag"
	"fmt"
	"io"
	"log"
	"math/rand"
	"os"
	"sort"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/wbrown/gramdict"
	"github.com/wbrown/gramdict/store"
	"github.com/wbrown/gramdict/types"
	"github.com/yargevad/filepathx"
)

// SequencesIterator yields one training sequence per call and io.EOF once
// every input file has been consumed.
type SequencesIterator func() (types.Sequence, error)

type PathInfo struct {
	Path    string
	Size    int64
	ModTime time.Time
	Dir     bool
}

// GlobSequences
// Given a directory path, recursively finds all `.seq` files, returning a
// slice of PathInfo.
func GlobSequences(dirPath string) (pathInfos []PathInfo, err error) {
	seqPaths, err := filepathx.Glob(dirPath + "/**/*.seq")
	if err != nil {
		return nil, err
	}
	numMatches := len(seqPaths)
	if numMatches == 0 {
		return nil, fmt.Errorf("%s does not contain any .seq files", dirPath)
	}
	pathInfos = make([]PathInfo, numMatches)
	for matchIdx := range seqPaths {
		currPath := seqPaths[matchIdx]
		if stat, statErr := os.Stat(currPath); statErr != nil {
			return nil, statErr
		} else {
			pathInfos[matchIdx] = PathInfo{
				Path:    currPath,
				Size:    stat.Size(),
				ModTime: stat.ModTime(),
				Dir:     stat.IsDir(),
			}
		}
	}
	return pathInfos, nil
}

func SortPathInfoBySize(pathInfos []PathInfo, ascending bool) {
	sort.SliceStable(pathInfos, func(i, j int) bool {
		if ascending {
			return pathInfos[i].Size < pathInfos[j].Size
		}
		return pathInfos[i].Size > pathInfos[j].Size
	})
}

func SortPathInfoByPath(pathInfos []PathInfo, ascending bool) {
	sort.SliceStable(pathInfos, func(i, j int) bool {
		if ascending {
			return pathInfos[i].Path < pathInfos[j].Path
		}
		return pathInfos[i].Path > pathInfos[j].Path
	})
}

func ShufflePathInfos(pathInfos []PathInfo, rng *rand.Rand) {
	for i := len(pathInfos) - 1; i > 0; i-- {
		j := rng.Intn(i + 1)
		pathInfos[i], pathInfos[j] = pathInfos[j], pathInfos[i]
	}
}

// FindNewestPath
// Returns the path and modified time of the most recently modified entry.
func FindNewestPath(paths []PathInfo) (path string, newest time.Time) {
	for _, pathInfo := range paths {
		if newest.IsZero() || newest.Before(pathInfo.ModTime) {
			newest = pathInfo.ModTime
			path = pathInfo.Path
		}
	}
	return path, newest
}

// ReorderPaths applies a reorder specification to matches in place.
func ReorderPaths(matches []PathInfo, sortSpec string, seed int64) error {
	switch sortSpec {
	case "", "none":
	case "size_ascending":
		SortPathInfoBySize(matches, true)
	case "size_descending":
		SortPathInfoBySize(matches, false)
	case "path_ascending":
		SortPathInfoByPath(matches, true)
	case "path_descending":
		SortPathInfoByPath(matches, false)
	case "random":
		ShufflePathInfos(matches, rand.New(rand.NewSource(seed)))
	default:
		return fmt.Errorf("invalid sort spec: %s", sortSpec)
	}
	return nil
}

// ReadSequences
// Produces a SequencesIterator over every non-empty line of the `.seq`
// files in matches. The next file is opened while the prior one is being
// consumed.
func ReadSequences(matches []PathInfo) SequencesIterator {
	type namedScanner struct {
		path    string
		file    *os.File
		scanner *bufio.Scanner
		err     error
	}
	scanners := make(chan namedScanner, 4)
	go func() {
		defer close(scanners)
		for _, match := range matches {
			file, openErr := os.Open(match.Path)
			if openErr != nil {
				scanners <- namedScanner{path: match.Path, err: openErr}
				return
			}
			scanner := bufio.NewScanner(bufio.NewReaderSize(file,
				8*1024*1024))
			scanner.Buffer(make([]byte, 64*1024), 64*1024*1024)
			scanners <- namedScanner{match.Path, file, scanner, nil}
		}
	}()

	var curr *namedScanner
	lineNo := 0
	return func() (types.Sequence, error) {
		for {
			if curr == nil {
				next, ok := <-scanners
				if !ok {
					return nil, io.EOF
				}
				if next.err != nil {
					return nil, next.err
				}
				log.Print("Reading ", next.path)
				curr = &next
				lineNo = 0
			}
			if !curr.scanner.Scan() {
				err := curr.scanner.Err()
				curr.file.Close()
				path := curr.path
				curr = nil
				if err != nil {
					return nil, fmt.Errorf("%s: %w", path, err)
				}
				continue
			}
			lineNo++
			line := curr.scanner.Text()
			if strings.TrimSpace(line) == "" {
				continue
			}
			seq, err := types.ParseSequence(line)
			if err != nil {
				return nil, fmt.Errorf("%s:%d: %w", curr.path, lineNo, err)
			}
			return seq, nil
		}
	}
}

// TrainStats summarizes a training run.
type TrainStats struct {
	Sequences int
	Symbols   uint64
	Elapsed   time.Duration
}

// TrainSequences feeds every sequence from next into builder, keeping
// roughly sampling percent of them.
func TrainSequences(builder *gramdict.Builder, next SequencesIterator,
	sampling int) (TrainStats, error) {
	var stats TrainStats
	begin := time.Now()
	samplingIdx := 0
	for {
		seq, err := next()
		if errors.Is(err, io.EOF) {
			break
		} else if err != nil {
			return stats, err
		}
		keep := sampling == 100 || (samplingIdx%20) < sampling/5
		samplingIdx++
		if !keep {
			continue
		}
		if err := builder.Accept(seq); err != nil {
			return stats, fmt.Errorf("sequence %d: %w", samplingIdx-1, err)
		}
		stats.Sequences++
		stats.Symbols += uint64(len(seq))
	}
	stats.Elapsed = time.Since(begin)
	return stats, nil
}

// WriteSnapshot serializes snap to outPath, as JSON when the path ends in
// `.json` and in the binary form otherwise.
func WriteSnapshot(outPath string, snap *gramdict.Snapshot) (int, error) {
	var (
		data []byte
		err  error
	)
	if strings.HasSuffix(outPath, ".json") {
		data, err = snap.MarshalJSON()
	} else {
		data, err = snap.MarshalBinary()
	}
	if err != nil {
		return 0, err
	}
	return len(data), os.WriteFile(outPath, data, 0644)
}

// WriteIndices parses every sequence from next with snap and appends the
// indices to outPath as a flat binary stream.
func WriteIndices(outPath string, snap *gramdict.Snapshot,
	next SequencesIterator, use32 bool, threads int) (int, error) {
	outFile, err := os.OpenFile(outPath, os.O_TRUNC|os.O_RDWR|os.O_CREATE,
		0644)
	if err != nil {
		return 0, err
	}
	defer outFile.Close()
	total := 0
	batch := make([]types.Sequence, 0, 256)
	flush := func() error {
		parsed, err := gramdict.ParseAll(snap, batch, threads)
		if err != nil {
			return err
		}
		for idx := range parsed {
			bin, err := parsed[idx].ToBin(use32)
			if err != nil {
				return err
			}
			if _, err := outFile.Write(*bin); err != nil {
				return err
			}
			total += len(parsed[idx])
		}
		batch = batch[:0]
		return nil
	}
	for {
		seq, err := next()
		if errors.Is(err, io.EOF) {
			break
		} else if err != nil {
			return total, err
		}
		batch = append(batch, seq)
		if len(batch) == cap(batch) {
			if err := flush(); err != nil {
				return total, err
			}
		}
	}
	return total, flush()
}

func main() {
	inputDir := flag.String("input", "",
		"input directory of .seq files")
	outputFile := flag.String("output", "snapshot.gram",
		"snapshot output file, JSON when ending in .json")
	size := flag.Int("size", 65535, "dictionary size budget")
	workingSet := flag.Int("working_set", gramdict.DefaultWorkingSetFactor,
		"candidates tracked, as a multiple of the size budget")
	maxGram := flag.Int("max_gram", gramdict.DefaultMaxGramLength,
		"maximum gram length")
	reorderPaths := flag.String("reorder", "",
		"reorder input files to specification [size_ascending, "+
			"size_descending, path_ascending, path_descending, random, none]")
	seed := flag.Int64("seed", 0, "seed for random reordering")
	sampling := flag.Int("sampling", 100, "a integer value from 0-100 "+
		"which tells the trainer how many sequences to keep in %")
	indicesFile := flag.String("indices", "",
		"also parse the input with the new snapshot into this index file")
	out32 := flag.Bool("out32", false,
		"force indices to be written as 32-bit")
	threads := flag.Int("threads", 4, "parse threads for -indices")
	retrain := flag.Bool("retrain", false,
		"force training even if the output is newer than every input")
	dbPath := flag.String("db", "",
		"sqlite database to record the snapshot history in")
	dbName := flag.String("name", "default",
		"snapshot name in the -db history")
	verbose := flag.Bool("verbose", false, "log pruning progress")
	flag.Parse()
	if *inputDir == "" {
		flag.Usage()
		log.Fatal("Must provide -input for directory source")
	}
	if *sampling > 100 || *sampling < 0 {
		log.Fatal("Sampling parameter out of the 0-100 bounds")
	}

	log.Printf("Trainer input source: %s\n", *inputDir)
	log.Printf("Trainer output: %s\n", *outputFile)
	log.Printf("Dictionary size budget: %s\n", humanize.Comma(int64(*size)))

	matches, err := GlobSequences(*inputDir)
	if err != nil {
		log.Fatal(err)
	}
	if err := ReorderPaths(matches, *reorderPaths, *seed); err != nil {
		log.Fatal(err)
	}

	if !*retrain {
		if outStat, outErr := os.Stat(*outputFile); outErr == nil {
			newestPath, newestModTime := FindNewestPath(matches)
			if newestModTime.Before(outStat.ModTime()) {
				log.Printf("Newest source `%s` is older than `%s`, "+
					"not retraining. Use -retrain to force retraining.",
					newestPath, *outputFile)
				os.Exit(0)
			}
		} else if !errors.Is(outErr, os.ErrNotExist) {
			log.Fatal(outErr)
		}
	}

	opts := []gramdict.BuilderOption{
		gramdict.WithWorkingSetFactor(*workingSet),
		gramdict.WithMaxGramLength(*maxGram),
	}
	if *verbose {
		opts = append(opts, gramdict.WithLogger(log.Default()))
	}
	builder, err := gramdict.NewBuilder(*size, opts...)
	if err != nil {
		log.Fatal(err)
	}
	stats, err := TrainSequences(builder, ReadSequences(matches), *sampling)
	if err != nil {
		log.Fatal(err)
	}
	log.Printf("%s sequences, %s symbols in %0.2fs, %0.2f symbols/s",
		humanize.Comma(int64(stats.Sequences)),
		humanize.Comma(int64(stats.Symbols)), stats.Elapsed.Seconds(),
		float64(stats.Symbols)/stats.Elapsed.Seconds())

	snap, err := builder.Freeze()
	if err != nil {
		log.Fatal(err)
	}
	written, err := WriteSnapshot(*outputFile, snap)
	if err != nil {
		log.Fatal(err)
	}
	log.Printf("Wrote %s grams (%s) to %s",
		humanize.Comma(int64(snap.Dictionary.Len())),
		humanize.Bytes(uint64(written)), *outputFile)

	if *dbPath != "" {
		db, err := store.Open(*dbPath)
		if err != nil {
			log.Fatal(err)
		}
		id, err := db.Save(*dbName, snap)
		db.Close()
		if err != nil {
			log.Fatal(err)
		}
		log.Printf("Recorded snapshot %s #%d in %s", *dbName, id, *dbPath)
	}

	if *indicesFile != "" {
		use32 := *out32 || snap.Dictionary.Len() > types.MaxIndex16+1
		total, err := WriteIndices(*indicesFile, snap, ReadSequences(matches),
			use32, *threads)
		if err != nil {
			log.Fatal(err)
		}
		log.Printf("Wrote %s indices to %s", humanize.Comma(int64(total)),
			*indicesFile)
	}
}
