package main

import (
	"flag"
	"log"
	"os"

	"github.com/wbrown/gramdict"
	"github.com/wbrown/gramdict/resources"
)

func main() {
	snapshotUri := flag.String("snapshot", "",
		"snapshot URL to fetch")
	destPath := flag.String("dest", "./",
		"where to download the snapshot to")
	flag.Parse()
	if *snapshotUri == "" {
		flag.Usage()
		log.Fatal("Must provide -snapshot")
	}

	if err := os.MkdirAll(*destPath, 0755); err != nil {
		log.Fatal(err)
	}
	localPath, dlErr := resources.Download(*snapshotUri, *destPath)
	if dlErr != nil {
		log.Fatalf("Error downloading snapshot: %s", dlErr)
	}
	// Refuse to leave an undecodable file behind.
	snap, loadErr := gramdict.LoadSnapshot(localPath)
	if loadErr != nil {
		os.Remove(localPath)
		log.Fatalf("Error decoding snapshot: %s", loadErr)
	}
	log.Printf("Fetched %d grams to %s", snap.Dictionary.Len(), localPath)
}
