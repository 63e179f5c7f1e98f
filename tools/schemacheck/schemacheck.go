// Package main validates persisted audit documents against the embedded
// output schema.
//
// Usage:
//
//	go run ./tools/schemacheck path/to/doc.json [more.json ...]
package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"os"

	"github.com/dqaudit/dqaudit/internal/document"
)

func main() {
	quiet := flag.Bool("q", false, "Only report failures")
	flag.Parse()

	if flag.NArg() == 0 {
		fmt.Fprintln(os.Stderr, "usage: schemacheck [-q] <doc.json> ...")
		os.Exit(2)
	}

	failed := 0

	for _, path := range flag.Args() {
		err := check(path)
		if err != nil {
			failed++

			fmt.Fprintf(os.Stderr, "FAIL %s: %v\n", path, err)

			continue
		}

		if !*quiet {
			fmt.Printf("OK   %s\n", path)
		}
	}

	if failed > 0 {
		os.Exit(1)
	}
}

func check(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}

	var doc document.Document

	unmarshalErr := json.Unmarshal(data, &doc)
	if unmarshalErr != nil {
		return fmt.Errorf("decode: %w", unmarshalErr)
	}

	return document.Validate(&doc)
}
