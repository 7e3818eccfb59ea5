package main

import (
	"bufio"
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"strings"

	"github.com/wbrown/gramdict"
	"github.com/wbrown/gramdict/types"
)

// A REPL for segmenting sequences against a `gramdict` snapshot.

func main() {
	snapshotOpt := flag.String("snapshot", "sample",
		"snapshot to parse with: embedded name, path, or URL")
	flag.Parse()

	snap, err := gramdict.LoadSnapshot(*snapshotOpt)
	if err != nil {
		log.Fatal(err)
	}
	log.Printf("Loaded %d grams from %s", snap.Dictionary.Len(),
		*snapshotOpt)

	reader := bufio.NewReader(os.Stdin)
	// Provide a REPL
	for {
		fmt.Print(">>> ")
		input, err := reader.ReadString('\n')
		if err == io.EOF {
			return
		} else if err != nil {
			log.Fatal(err)
		}
		input = strings.TrimSpace(input)
		if input == "" {
			continue
		}
		seq, err := types.ParseSequence(input)
		if err != nil {
			fmt.Println(err)
			continue
		}
		indices, err := snap.Parse(seq)
		if err != nil {
			fmt.Println(err)
			continue
		}
		fmt.Printf("%v\n", indices)
		for _, index := range indices {
			gram, _ := snap.Dictionary.Get(int(index))
			fmt.Printf("|%s", gram)
		}
		fmt.Printf("\n")
	}
}
