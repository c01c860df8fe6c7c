// Command simgen writes a synthetic capture file for feeding into the
// tickstream pipeline.
package main

import (
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"tickstream/internal/sim"
)

func main() {
	messages := flag.Uint64("messages", 1_000_000, "number of messages to generate")
	symbolsCSV := flag.String("symbols", "AAPL,MSFT", "comma-separated list of symbols")
	output := flag.String("output", "data/sim.bin", "output file path")
	flag.Usage = usage
	flag.Parse()

	symbols := splitCSV(*symbolsCSV)
	if len(symbols) == 0 {
		fmt.Fprintln(os.Stderr, "simgen: --symbols must name at least one symbol")
		os.Exit(1)
	}

	if dir := filepath.Dir(*output); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			fmt.Fprintf(os.Stderr, "simgen: cannot create output directory: %v\n", err)
			os.Exit(1)
		}
	}

	f, err := os.Create(*output)
	if err != nil {
		fmt.Fprintf(os.Stderr, "simgen: cannot create output file: %v\n", err)
		os.Exit(1)
	}
	defer f.Close()

	fmt.Printf("Generating %d messages for symbols: %s\n", *messages, strings.Join(symbols, ", "))
	fmt.Printf("Output file: %s\n", *output)

	g := sim.New(sim.Config{Messages: *messages, Symbols: symbols, Seed: time.Now().UnixNano()})

	start := time.Now()
	if err := g.Generate(f, *messages); err != nil {
		fmt.Fprintf(os.Stderr, "simgen: generation failed: %v\n", err)
		os.Exit(1)
	}
	elapsed := time.Since(start)

	info, _ := f.Stat()
	var size int64
	if info != nil {
		size = info.Size()
	}
	rate := float64(0)
	if elapsed > 0 {
		rate = float64(*messages) / elapsed.Seconds()
	}
	fmt.Printf("Generated %d messages in %d ms\n", *messages, elapsed.Milliseconds())
	fmt.Printf("File size: %d bytes\n", size)
	fmt.Printf("Generation rate: %.0f msgs/s\n", rate)
}

func splitCSV(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		part = strings.TrimSpace(part)
		if part != "" {
			out = append(out, part)
		}
	}
	return out
}

func usage() {
	fmt.Fprintf(os.Stderr, "Usage: simgen [options]\n\nOptions:\n")
	flag.PrintDefaults()
}
