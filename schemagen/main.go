package main

import (
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"strings"

	"github.com/siegeai/shapecast/capture"
	"github.com/siegeai/shapecast/codegen"
)

func main() {
	if err := run(os.Args[1:], os.Stdin, os.Stdout); err != nil {
		log.Fatal(err)
	}
}

func run(args []string, stdin io.Reader, stdout io.Writer) error {
	fs := flag.NewFlagSet("schemagen", flag.ContinueOnError)
	dialectName := fs.String("d", "zod", "dialect to generate, zod or joi")
	examples := fs.Bool("examples", false, "annotate the schema with sampled examples")
	indent := fs.Int("indent", 2, "spaces per nesting level")
	if err := fs.Parse(args); err != nil {
		return err
	}

	d, err := codegen.DialectByName(*dialectName)
	if err != nil {
		return fmt.Errorf("%w: %q", err, *dialectName)
	}
	if *indent < 1 {
		return fmt.Errorf("indent must be positive, got %d", *indent)
	}

	in := stdin
	if fs.NArg() > 0 && fs.Arg(0) != "-" {
		f, err := os.Open(fs.Arg(0))
		if err != nil {
			return err
		}
		defer f.Close()
		in = f
	}

	raw, err := io.ReadAll(in)
	if err != nil {
		return err
	}

	opts := codegen.Options{Indent: strings.Repeat(" ", *indent), Examples: *examples}
	_, err = fmt.Fprintln(stdout, codegen.Generate(capture.ParseBody(raw), d, opts))
	return err
}
