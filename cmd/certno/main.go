// Package main is a command line tool for decoding and encoding marriage
// registration certificate numbers.
package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"os"
	"strings"

	"marriage-registry/pkg/certno"
	"marriage-registry/pkg/secrets"
)

type parseOutput struct {
	Input     string        `json:"input"`
	Form      certno.Form   `json:"form"`
	Number    certno.Number `json:"number"`
	Defaulted bool          `json:"defaulted"`
	Canonical string        `json:"canonical,omitempty"`
}

func main() {
	os.Exit(run(os.Args[1:], os.Stdout, os.Stderr))
}

func run(args []string, stdout, stderr io.Writer) int {
	if len(args) < 1 {
		printUsage(stderr)
		return 2
	}

	switch args[0] {
	case "parse":
		return runParse(args[1:], stdout, stderr)
	case "format":
		return runFormat(args[1:], stdout, stderr)
	case "canonical":
		return runCanonical(args[1:], stdout, stderr)
	case "books":
		return runBooks(args[1:], stdout, stderr)
	case "token":
		return runToken(args[1:], stdout, stderr)
	case "help", "-h", "--help":
		printUsage(stdout)
		return 0
	default:
		fmt.Fprintf(stderr, "unknown command %q\n\n", args[0])
		printUsage(stderr)
		return 2
	}
}

func runParse(args []string, stdout, stderr io.Writer) int {
	fs := flag.NewFlagSet("parse", flag.ContinueOnError)
	fs.SetOutput(stderr)
	asJSON := fs.Bool("json", false, "Output as JSON")
	if err := fs.Parse(args); err != nil {
		return 2
	}
	if fs.NArg() != 1 {
		fmt.Fprintln(stderr, "usage: certno parse [-json] <number>")
		return 2
	}

	input := fs.Arg(0)
	n := certno.Parse(input)
	out := parseOutput{
		Input:     input,
		Form:      certno.DetectForm(input),
		Number:    n,
		Defaulted: n.IsDefault(),
	}
	if canonical, err := certno.Canonical(input); err == nil {
		out.Canonical = canonical
	}

	if *asJSON {
		return writeJSON(stdout, stderr, out)
	}
	rows := [][2]string{
		{"form", string(out.Form)},
		{"book", n.Book},
		{"volume", n.Volume},
		{"volume letter", n.VolumeLetter},
		{"volume year", n.VolumeYear},
		{"serial", n.Serial},
		{"serial year", n.SerialYear},
		{"page", n.Page},
		{"canonical", out.Canonical},
	}
	for _, row := range rows {
		if row[1] != "" {
			fmt.Fprintf(stdout, "%-14s %s\n", row[0]+":", row[1])
		}
	}
	if out.Defaulted {
		fmt.Fprintln(stdout, "warning: input was not recognised, showing defaults")
	}
	return 0
}

func runFormat(args []string, stdout, stderr io.Writer) int {
	fs := flag.NewFlagSet("format", flag.ContinueOnError)
	fs.SetOutput(stderr)
	var n certno.Number
	fs.StringVar(&n.Book, "book", "", "Book numeral (I..L)")
	fs.StringVar(&n.Volume, "volume", "", "Volume number")
	fs.StringVar(&n.VolumeLetter, "volume-letter", "", "Volume letter")
	fs.StringVar(&n.VolumeYear, "volume-year", "", "Volume year")
	fs.StringVar(&n.Serial, "serial", "", "Serial number")
	fs.StringVar(&n.SerialYear, "serial-year", "", "Serial year")
	fs.StringVar(&n.Page, "page", "", "Page number")
	asJSON := fs.Bool("json", false, "Output as JSON")
	if err := fs.Parse(args); err != nil {
		return 2
	}

	n.Book = strings.ToUpper(n.Book)
	if n.Book != "" {
		if _, ok := certno.BookOrdinal(n.Book); !ok {
			fmt.Fprintf(stderr, "book %q is not a numeral between I and L\n", n.Book)
			return 1
		}
	}

	formatted := certno.Format(n)
	if *asJSON {
		return writeJSON(stdout, stderr, map[string]string{"certificate_number": formatted})
	}
	fmt.Fprintln(stdout, formatted)
	return 0
}

func runCanonical(args []string, stdout, stderr io.Writer) int {
	fs := flag.NewFlagSet("canonical", flag.ContinueOnError)
	fs.SetOutput(stderr)
	if err := fs.Parse(args); err != nil {
		return 2
	}
	if fs.NArg() != 1 {
		fmt.Fprintln(stderr, "usage: certno canonical <number>")
		return 2
	}

	canonical, err := certno.Canonical(fs.Arg(0))
	if err != nil {
		fmt.Fprintf(stderr, "%s: %v\n", fs.Arg(0), err)
		return 1
	}
	fmt.Fprintln(stdout, canonical)
	return 0
}

func runBooks(args []string, stdout, stderr io.Writer) int {
	fs := flag.NewFlagSet("books", flag.ContinueOnError)
	fs.SetOutput(stderr)
	asJSON := fs.Bool("json", false, "Output as JSON")
	if err := fs.Parse(args); err != nil {
		return 2
	}

	books := certno.Books()
	if *asJSON {
		return writeJSON(stdout, stderr, books)
	}
	for _, b := range books {
		fmt.Fprintf(stdout, "%2d %s\n", b.Ordinal, b.Numeral)
	}
	return 0
}

// runToken generates a registrar token and the hash to configure as
// REGISTRY_ADMIN_TOKEN_HASH.
func runToken(args []string, stdout, stderr io.Writer) int {
	fs := flag.NewFlagSet("token", flag.ContinueOnError)
	fs.SetOutput(stderr)
	asJSON := fs.Bool("json", false, "Output as JSON")
	if err := fs.Parse(args); err != nil {
		return 2
	}

	token, err := secrets.Generate()
	if err != nil {
		fmt.Fprintf(stderr, "generate token: %v\n", err)
		return 1
	}
	hash, err := secrets.Hash(token)
	if err != nil {
		fmt.Fprintf(stderr, "hash token: %v\n", err)
		return 1
	}

	if *asJSON {
		return writeJSON(stdout, stderr, map[string]string{"token": token, "hash": hash})
	}
	fmt.Fprintf(stdout, "token: %s\nhash:  %s\n", token, hash)
	return 0
}

func writeJSON(stdout, stderr io.Writer, v any) int {
	enc := json.NewEncoder(stdout)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		fmt.Fprintf(stderr, "encode output: %v\n", err)
		return 1
	}
	return 0
}

func printUsage(w io.Writer) {
	fmt.Fprint(w, `Certificate number tool

Usage:
  certno parse [-json] <number>
  certno format [-json] -book XIV -volume 1 -volume-letter C -serial 16 -page 21
  certno canonical <number>
  certno books [-json]
  certno token [-json]

Examples:
  certno parse WB-MSD-BRW-I-1-C-2019-16-2020-21
  certno canonical WB-MSD-BRW-I-1-16-21
`)
}
