package main

import (
	"bytes"
	"flag"
	"fmt"
	"os"
	"sort"

	"golang.org/x/term"

	"github.com/simplepad/ruby-marshal-go/inspect"
	"github.com/simplepad/ruby-marshal-go/marshal"
)

func main() {
	var (
		inFile      = flag.String("in", "", "Path to marshal stream file")
		verify      = flag.Bool("verify", false, "Re-encode and compare byte-for-byte")
		stats       = flag.Bool("stats", false, "Print value kind counts and exit")
		interactive = flag.Bool("i", false, "Interactive mode with TUI")
	)
	flag.Parse()

	if *inFile == "" {
		fmt.Fprintln(os.Stderr, "Usage: marshal -in <file.bin> [-verify] [-stats]")
		fmt.Fprintln(os.Stderr, "       marshal -in <file.bin> -i  (interactive mode)")
		os.Exit(1)
	}

	if *interactive {
		if !term.IsTerminal(int(os.Stdin.Fd())) {
			fmt.Fprintln(os.Stderr, "Error: interactive mode needs a terminal")
			os.Exit(1)
		}
		if err := runInteractive(*inFile); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
		return
	}

	if err := run(*inFile, *verify, *stats); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run(inFile string, verify, stats bool) error {
	data, err := os.ReadFile(inFile)
	if err != nil {
		return fmt.Errorf("read file: %w", err)
	}

	arena, err := marshal.LoadBytes(data)
	if err != nil {
		return fmt.Errorf("decode: %w", err)
	}

	fmt.Printf("Stream: %s\n", inFile)
	fmt.Printf("Bytes: %d\n", len(data))
	fmt.Printf("Values: %d\n", arena.Len())

	if stats {
		printStats(arena)
		return nil
	}

	if verify {
		encoded, err := marshal.DumpBytes(arena, arena.Root())
		if err != nil {
			return fmt.Errorf("re-encode: %w", err)
		}
		if !bytes.Equal(encoded, data) {
			offset := 0
			for offset < len(encoded) && offset < len(data) && encoded[offset] == data[offset] {
				offset++
			}
			return fmt.Errorf("re-encoded stream differs at offset %d (%d bytes in, %d bytes out)",
				offset, len(data), len(encoded))
		}
		fmt.Println("Verify: OK, re-encoded stream is byte-identical")
		return nil
	}

	rendered, err := inspect.Render(arena)
	if err != nil {
		return fmt.Errorf("render: %w", err)
	}
	fmt.Printf("\n%s", rendered)
	return nil
}

// printStats counts reachable values per kind.
func printStats(arena *marshal.ValueArena) {
	counts := make(map[marshal.Kind]int)
	visited := make(map[marshal.ValueHandle]struct{})
	var walk func(h marshal.ValueHandle)
	walk = func(h marshal.ValueHandle) {
		if _, ok := visited[h]; ok {
			return
		}
		visited[h] = struct{}{}

		value, ok := arena.Value(h)
		if !ok {
			return
		}
		counts[value.Kind()]++

		switch value := value.(type) {
		case *marshal.ArrayValue:
			for _, element := range value.Elements {
				walk(element)
			}
		case *marshal.HashValue:
			for _, pair := range value.Pairs {
				walk(pair.Key)
				walk(pair.Value)
			}
			if value.Default != nil {
				walk(*value.Default)
			}
		case *marshal.ObjectValue:
			walk(value.Name.Raw())
			for _, pair := range value.IVars {
				walk(pair.Name.Raw())
				walk(pair.Value)
			}
		case *marshal.StringValue:
			if value.IVars != nil {
				for _, pair := range *value.IVars {
					walk(pair.Name.Raw())
					walk(pair.Value)
				}
			}
		case *marshal.UserDefinedValue:
			walk(value.Name.Raw())
			if value.IVars != nil {
				for _, pair := range *value.IVars {
					walk(pair.Name.Raw())
					walk(pair.Value)
				}
			}
		}
	}
	walk(arena.Root())

	kinds := make([]marshal.Kind, 0, len(counts))
	for kind := range counts {
		kinds = append(kinds, kind)
	}
	sort.Slice(kinds, func(i, j int) bool { return kinds[i] < kinds[j] })

	fmt.Printf("\nReachable values by kind:\n")
	for _, kind := range kinds {
		fmt.Printf("  %-12s %d\n", kind, counts[kind])
	}
}
