package main

import (
	"bufio"
	"flag"
	"io"
	"log"
	"os"

	"github.com/wbrown/gramdict"
	"github.com/wbrown/gramdict/types"
)

func main() {
	snapshotId := flag.String("snapshot", "",
		"snapshot the indices were parsed with: embedded name, path, or URL")
	inputFile := flag.String("input", "",
		"binary index file to decode")
	outputFile := flag.String("output", "decoded.seq",
		"output file to write one decoded sequence per context")
	contextSize := flag.Int("context_size", 2048,
		"number of indices decoded per output line")
	in32 := flag.Bool("in32", false,
		"force input indices to be read as 32-bit")
	binaryOut := flag.Bool("binary", false,
		"write symbols as little-endian int64 instead of text lines")
	flag.Parse()

	if *inputFile == "" {
		flag.Usage()
		log.Fatal("Must provide -input")
	}
	if *snapshotId == "" {
		flag.Usage()
		log.Fatal("Must provide -snapshot")
	}
	if *outputFile == "" {
		flag.Usage()
		log.Fatal("Must provide -output")
	}
	if *contextSize < 1 {
		flag.Usage()
		log.Fatal("Context size must be greater than 0")
	}

	// check if input file exists
	if _, err := os.Stat(*inputFile); os.IsNotExist(err) {
		log.Fatal("Input file does not exist")
	}

	snap, err := gramdict.LoadSnapshot(*snapshotId)
	if err != nil {
		log.Fatal(err)
	}
	input32Bit := *in32 || snap.Dictionary.Len() > types.MaxIndex16+1
	indexSize := types.IndexSize
	if input32Bit {
		indexSize = types.Index32Size
	}

	inputFileHandle, err := os.Open(*inputFile)
	if err != nil {
		log.Fatal(err)
	}
	defer inputFileHandle.Close()

	outputFileHandle, err := os.Create(*outputFile)
	if err != nil {
		log.Fatal(err)
	}
	defer outputFileHandle.Close()
	writer := bufio.NewWriter(outputFileHandle)
	defer writer.Flush()

	contextBuffer := make([]byte, *contextSize*indexSize)
	for {
		bytesRead, readErr := io.ReadFull(inputFileHandle, contextBuffer)
		if bytesRead == 0 {
			break
		}
		if readErr != nil && readErr != io.ErrUnexpectedEOF {
			log.Fatal(readErr)
		}
		context := contextBuffer[:bytesRead-bytesRead%indexSize]
		var indices *types.Indices
		if input32Bit {
			indices = types.IndicesFromBin32(&context)
		} else {
			indices = types.IndicesFromBin(&context)
		}
		decoded, err := snap.Decode(*indices)
		if err != nil {
			log.Fatal(err)
		}
		if *binaryOut {
			_, err = writer.Write(decoded.ToBin())
		} else {
			_, err = writer.WriteString(decoded.String() + "\n")
		}
		if err != nil {
			log.Fatal(err)
		}
		if readErr == io.ErrUnexpectedEOF {
			break
		}
	}
}
