// Main package isisdb-dump converts an isisd LSDB snapshot file into CSV.
package main

import (
	"io"
	"log"
	"os"

	"github.com/gocarina/gocsv"
	"github.com/m-lab/go/rtx"

	"github.com/go-isis/isisd/snapshot"
)

func init() {
	log.SetFlags(log.LstdFlags | log.Lshortfile)
}

func toCSV(records []*snapshot.LSPRecord, wtr io.Writer) error {
	return gocsv.Marshal(records, wtr)
}

func main() {
	args := os.Args[1:]

	var source io.ReadCloser = os.Stdin
	var err error
	if len(args) == 1 {
		source, err = os.Open(args[0])
		rtx.Must(err, "Could not open file %q", args[0])
	} else if len(args) > 1 {
		log.Fatal("Too many command-line arguments.")
	}
	defer source.Close()

	records, err := snapshot.ReadAll(source)
	rtx.Must(err, "Could not read LSDB snapshot")
	rtx.Must(toCSV(records, os.Stdout), "Could not convert snapshot to CSV")
}
