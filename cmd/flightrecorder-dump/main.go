// Copyright 2026 The Flight Recorder Authors
// SPDX-License-Identifier: Apache-2.0

// Command flightrecorder-dump reads a recorded flight log and prints
// its header, footer, telemetry generations, and event streams as
// human-readable text (spec §6.4, the Extractor's inspection path).
package main

import (
	"flag"
	"fmt"
	"os"

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
	var showVersion, headerOnly bool
	flag.BoolVar(&showVersion, "version", false, "print version information and exit")
	flag.BoolVar(&headerOnly, "header-only", false, "stop after the header record")
	flag.Parse()

	if showVersion {
		version.Print("flightrecorder-dump")
		return nil
	}

	if flag.NArg() != 1 {
		return fmt.Errorf("usage: flightrecorder-dump [-header-only] <log-file>")
	}

	f, err := os.Open(flag.Arg(0))
	if err != nil {
		return err
	}
	defer f.Close()

	var opts []reader.Option
	if headerOnly {
		opts = append(opts, reader.HeaderOnly())
	}
	r := reader.New(opts...)
	if err := r.Read(f); err != nil {
		return fmt.Errorf("flightrecorder-dump: %w", err)
	}

	dump(r)
	return nil
}

func dump(r *reader.Reader) {
	if h := r.Header(); h != nil {
		fmt.Println("header:")
		for _, k := range h.Keys() {
			v, _ := h.Get(k)
			fmt.Printf("  %s = %s\n", k, v)
		}
	}

	for _, ts := range r.Telemetry() {
		fmt.Printf("telemetry %s: %d samples, %d columns\n", ts.Name(), ts.SampleCount(), len(ts.Descs()))
	}

	for name, ev := range r.Events() {
		fmt.Printf("events %s: %d entries\n", name, ev.Len())
	}

	for name, lg := range r.Logs() {
		fmt.Printf("log %s: %d bytes\n", name, lg.Len())
	}

	if f := r.Footer(); f != nil {
		fmt.Println("footer:")
		for _, k := range f.Keys() {
			v, _ := f.Get(k)
			fmt.Printf("  %s = %s\n", k, v)
		}
	}

	for _, w := range r.Warnings() {
		fmt.Fprintf(os.Stderr, "warning: %s\n", w)
	}
}
