// recordgen generates Go record-type source from a YAML .schema file.
//
// Usage:
//
//	recordgen -input=game.schema -go=game_records.go
//
// Schema file format:
//
//	package: game
//	types:
//	  - name: Point
//	    fields:
//	      - {index: 1, name: x, type: int32, default: "0"}
//	      - {index: 2, name: y, type: int32, default: "0"}
//	  - name: Rect
//	    fields:
//	      - {index: 1, name: lt, type: Point}
//	      - {index: 2, name: rb, type: Point}
//	  - name: Objects
//	    fields:
//	      - {index: 1, name: objects, type: "idmap[int32]Object"}
package main

import (
	"flag"
	"fmt"
	"os"
	"path/filepath"
)

var (
	inputFile = flag.String("input", "", "input .schema file (required)")
	goOutput  = flag.String("go", "", "Go output file (required)")
)

func main() {
	flag.Parse()

	if *inputFile == "" {
		fmt.Fprintln(os.Stderr, "recordgen: -input flag is required")
		flag.Usage()
		os.Exit(1)
	}
	if *goOutput == "" {
		fmt.Fprintln(os.Stderr, "recordgen: -go flag is required")
		flag.Usage()
		os.Exit(1)
	}

	f, err := os.Open(*inputFile)
	if err != nil {
		fmt.Fprintf(os.Stderr, "recordgen: cannot open input file: %v\n", err)
		os.Exit(1)
	}
	defer f.Close()

	schema, err := Parse(f)
	if err != nil {
		fmt.Fprintf(os.Stderr, "recordgen: parse error: %v\n", err)
		os.Exit(1)
	}

	if schema.Package == "" {
		schema.Package = filepath.Base(filepath.Dir(*goOutput))
		if schema.Package == "" || schema.Package == "." || schema.Package == string(filepath.Separator) {
			schema.Package = "records"
		}
	}

	goCode, err := GenerateGo(schema)
	if err != nil {
		fmt.Fprintf(os.Stderr, "recordgen: generation error: %v\n", err)
		os.Exit(1)
	}
	if err := os.WriteFile(*goOutput, goCode, 0o644); err != nil {
		fmt.Fprintf(os.Stderr, "recordgen: cannot write output: %v\n", err)
		os.Exit(1)
	}
	fmt.Printf("Generated: %s\n", *goOutput)
}
