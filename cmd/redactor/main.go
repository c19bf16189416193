// Command redactor validates a jsonl batch of raw wearable readings and writes
// a cleaned copy (sensitive fields removed) next to the input.
package main

import (
	"flag"
	"fmt"
	"log"
	"os"

	"example.com/ourastream/internal/sanitize"
)

const defaultInput = "./data/oura.jsonl"

func main() {
	flag.Usage = func() {
		fmt.Fprintf(flag.CommandLine.Output(), "usage: %s [input.jsonl]\n", os.Args[0])
		flag.PrintDefaults()
	}
	flag.Parse()

	input := defaultInput
	if flag.NArg() > 0 {
		input = flag.Arg(0)
	}

	report, err := sanitize.Run(input)
	if err != nil {
		log.Fatalf("sanitation failed: %v", err)
	}

	fmt.Print(report.Summary())
	if !report.Valid() {
		os.Exit(1)
	}
}
