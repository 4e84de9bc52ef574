// Copyright 2026 The Flight Recorder Authors
// SPDX-License-Identifier: Apache-2.0

// Command flightrecorder-convert reads a recorded flight log and
// writes its GUTMA flight_logging exchange document as JSON (spec
// §4.9, §6.4, the Extractor's GUTMA conversion path).
package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"path/filepath"

	"github.com/aerologic/flightrecorder/lib/gutma"
	"github.com/aerologic/flightrecorder/lib/process"
	"github.com/aerologic/flightrecorder/lib/reader"
	"github.com/aerologic/flightrecorder/lib/version"
)

func main() {
	if err := run(); err != nil {
		process.Fatal(err)
	}
}

func run() error {
	var showVersion, onlyFlight bool
	var outPath string
	flag.BoolVar(&showVersion, "version", false, "print version information and exit")
	flag.BoolVar(&onlyFlight, "only-flight", true, "exit with no output when the log never recorded a takeoff")
	flag.StringVar(&outPath, "o", "", "output path (default: stdout)")
	flag.Parse()

	if showVersion {
		version.Print("flightrecorder-convert")
		return nil
	}

	if flag.NArg() != 1 {
		return fmt.Errorf("usage: flightrecorder-convert [-only-flight=false] [-o out.json] <log-file>")
	}
	inPath := flag.Arg(0)

	f, err := os.Open(inPath)
	if err != nil {
		return err
	}
	defer f.Close()

	r := reader.New()
	if err := r.Read(f); err != nil {
		return fmt.Errorf("flightrecorder-convert: %w", err)
	}

	doc, code, err := gutma.Convert(r, gutma.Options{
		OnlyFlight: onlyFlight,
		Filename:   filepath.Base(inPath),
	})
	if err != nil {
		return fmt.Errorf("flightrecorder-convert: %w", err)
	}

	switch code {
	case gutma.NoFlight:
		fmt.Fprintln(os.Stderr, "flightrecorder-convert: log never recorded a takeoff, nothing to convert")
		os.Exit(2)
	case gutma.UnsupportedVersion:
		fmt.Fprintln(os.Stderr, "flightrecorder-convert: aircraft firmware predates the minimum supported version")
		os.Exit(3)
	}

	out := os.Stdout
	if outPath != "" {
		w, err := os.Create(outPath)
		if err != nil {
			return err
		}
		defer w.Close()
		out = w
	}

	enc := json.NewEncoder(out)
	enc.SetIndent("", "  ")
	return enc.Encode(doc)
}
