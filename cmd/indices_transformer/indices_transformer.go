package main

import (
	"flag"
	"io"
	"log"
	"os"

	"github.com/dustin/go-humanize"
	"github.com/wbrown/gramdict"
	"github.com/wbrown/gramdict/types"
)

func main() {
	inputSnapshotId := flag.String("input_snapshot", "",
		"snapshot the input indices were parsed with")
	outputSnapshotId := flag.String("output_snapshot", "",
		"snapshot to re-parse the decoded symbols with")
	contextSize := flag.Int("context_size", 2048,
		"number of input indices re-parsed at a time")
	showContexts := flag.Bool("show_contexts", false,
		"show contexts as they are re-parsed")
	in32 := flag.Bool("in32", false,
		"force input indices to be read as 32-bit")
	out32 := flag.Bool("out32", false,
		"force output indices to be written as 32-bit")
	inputFile := flag.String("input", "",
		"input index file to transform")
	outputFile := flag.String("output", "transformed.idx",
		"output file to write re-parsed indices")
	flag.Parse()
	if *inputFile == "" {
		flag.Usage()
		log.Fatal("Must provide -input")
	}
	if *inputSnapshotId == "" {
		flag.Usage()
		log.Fatal("Must provide -input_snapshot")
	}
	if *outputSnapshotId == "" {
		flag.Usage()
		log.Fatal("Must provide -output_snapshot")
	}
	if *contextSize < 1 {
		flag.Usage()
		log.Fatal("Context size must be greater than 0")
	}
	if *inputSnapshotId == *outputSnapshotId {
		log.Fatal("Input and output snapshots must be different")
	}
	if *inputFile == *outputFile {
		log.Fatal("Input and output files must be different")
	}
	if _, err := os.Stat(*inputFile); os.IsNotExist(err) {
		log.Fatal("Input file does not exist")
	}

	inputSnap, inputErr := gramdict.LoadSnapshot(*inputSnapshotId)
	if inputErr != nil {
		log.Fatal(inputErr)
	}
	input32Bit := *in32 || inputSnap.Dictionary.Len() > types.MaxIndex16+1
	outputSnap, outputErr := gramdict.LoadSnapshot(*outputSnapshotId)
	if outputErr != nil {
		log.Fatal(outputErr)
	}
	output32Bit := *out32 || outputSnap.Dictionary.Len() > types.MaxIndex16+1
	if input32Bit {
		log.Println("Reading as 32-bit")
	} else {
		log.Println("Reading as 16-bit")
	}
	if output32Bit {
		log.Println("Writing as 32-bit")
	} else {
		log.Println("Writing as 16-bit")
	}

	inputFileHandle, inputOpenErr := os.Open(*inputFile)
	if inputOpenErr != nil {
		log.Fatal(inputOpenErr)
	}
	defer inputFileHandle.Close()
	outputFileHandle, outputOpenErr := os.Create(*outputFile)
	if outputOpenErr != nil {
		log.Fatal(outputOpenErr)
	}
	defer outputFileHandle.Close()

	indexSize := types.IndexSize
	if input32Bit {
		indexSize = types.Index32Size
	}
	contextBuffer := make([]byte, *contextSize*indexSize)
	var read, written int
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
		decoded, err := inputSnap.Decode(*indices)
		if err != nil {
			log.Fatal(err)
		}
		encoded, err := outputSnap.Parse(decoded)
		if err != nil {
			log.Fatal(err)
		}
		bytesToWrite, err := encoded.ToBin(output32Bit)
		if err != nil {
			log.Fatal(err)
		}
		if _, err := outputFileHandle.Write(*bytesToWrite); err != nil {
			log.Fatal(err)
		}
		read += len(*indices)
		written += len(encoded)
		if *showContexts {
			log.Printf("Input: %v", *indices)
			log.Printf("Output: %v", encoded)
		}
		if readErr == io.ErrUnexpectedEOF {
			break
		}
	}
	log.Printf("Re-parsed %s indices into %s", humanize.Comma(int64(read)),
		humanize.Comma(int64(written)))
}
