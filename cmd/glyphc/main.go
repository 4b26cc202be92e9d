// Command glyphc is the interactive shell spec §6 describes as an
// out-of-scope collaborator, specified only by its command surface:
// `schema <path>`, `load <path>`, `run`, `!<expr>`, `:<input>`, `lc`,
// `ct <bool>`, `metrics`, `quit`. The spec names these commands but does
// not define their semantics; the choices below are this package's own,
// recorded in DESIGN.md rather than left implicit.
package main

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/glyphlang/glyph/compiler"
	"github.com/glyphlang/glyph/concept"
	"github.com/glyphlang/glyph/emit"
	"github.com/glyphlang/glyph/pluginloader"
	"github.com/glyphlang/glyph/schema"
	"github.com/glyphlang/glyph/schemadoc"
	"github.com/glyphlang/glyph/srcpos"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	var initialSchema string

	cmd := &cobra.Command{
		Use:           "glyphc",
		Short:         "Interactive shell for the glyph compiler front-end",
		SilenceErrors: true,
		SilenceUsage:  true,
		RunE: func(_ *cobra.Command, _ []string) error {
			sh := newShell()
			if initialSchema != "" {
				if err := sh.loadSchema(initialSchema); err != nil {
					return err
				}
			}
			return sh.repl(os.Stdin, os.Stdout)
		},
	}
	cmd.Flags().StringVarP(&initialSchema, "schema", "s", "", "schema document to load at startup")
	return cmd
}

// errQuit unwinds the repl loop on the "quit" command without being
// reported as an error.
var errQuit = errors.New("quit")

// shell holds a REPL session's state: the concept registry (grown by
// "load"), the current schema (set by "schema"), a pending source buffer
// (grown by ":" and replaced by "!"), and the compiler facade driving both.
type shell struct {
	registry *concept.Registry
	schema   *schema.Schema
	source   []byte
	compiler *compiler.Compiler
	sink     *emit.SliceSink
}

func newShell() *shell {
	reg := concept.NewRegistry()
	reg.Register(concept.CoreLibrary())
	return &shell{
		registry: reg,
		compiler: compiler.New(),
		sink:     &emit.SliceSink{},
	}
}

func (sh *shell) loadSchema(path string) error {
	doc, err := schemadoc.DecodeFile(path)
	if err != nil {
		return err
	}
	s, err := schema.Load(doc, sh.registry)
	if err != nil {
		return err
	}
	sh.schema = s
	return nil
}

func (sh *shell) loadPlugin(path string) error {
	_, err := pluginloader.RegisterFile(sh.registry, path)
	return err
}

// runOnce compiles the pending source buffer against the current schema,
// printing each committed emit or the resulting diagnostic.
func (sh *shell) runOnce(w io.Writer) error {
	if sh.schema == nil {
		return errors.New(`no schema loaded; use "schema <path>" first`)
	}
	sh.sink = &emit.SliceSink{}
	program := &compiler.Program{TranslationUnits: []*compiler.TranslationUnit{
		{Name: "repl", Schema: sh.schema, Source: sh.source},
	}}

	if err := sh.compiler.Compile(program, sh.sink); err != nil {
		if pe, ok := err.(srcpos.PositionedError); ok {
			fmt.Fprintf(w, "syntax error: %s\n", pe)
			return nil
		}
		fmt.Fprintf(w, "error: %v\n", err)
		return nil
	}
	for _, e := range sh.sink.Entries {
		fmt.Fprintf(w, "%s [%d,%d)\n", e.Concept.Name(), e.SourceStart, e.SourceEnd)
	}
	return nil
}

func (sh *shell) listConcepts(w io.Writer) {
	for _, lib := range sh.registry.Libraries() {
		fmt.Fprintf(w, "%s (%s)\n", lib.URI, lib.ID)
		for name := range lib.Concepts {
			fmt.Fprintf(w, "  %s\n", name)
		}
	}
}

func (sh *shell) setTrace(enabled bool) {
	sh.compiler.Trace = enabled
	sh.compiler.TraceEmits = enabled
}

func (sh *shell) metrics(w io.Writer) {
	start, end := sh.compiler.StartTime(), sh.compiler.EndTime()
	fmt.Fprintf(w, "start: %s\n", start.Format(time.RFC3339Nano))
	fmt.Fprintf(w, "end:   %s\n", end.Format(time.RFC3339Nano))
	fmt.Fprintf(w, "duration: %s\n", end.Sub(start))
	fmt.Fprintf(w, "emits: %d\n", len(sh.sink.Entries))
}

func (sh *shell) repl(r io.Reader, w io.Writer) error {
	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		if err := sh.dispatch(scanner.Text(), w); err != nil {
			if errors.Is(err, errQuit) {
				return nil
			}
			fmt.Fprintf(w, "error: %v\n", err)
		}
	}
	return scanner.Err()
}

func (sh *shell) dispatch(line string, w io.Writer) error {
	line = strings.TrimSpace(line)
	switch {
	case line == "":
		return nil
	case line == "quit":
		return errQuit
	case line == "run":
		return sh.runOnce(w)
	case line == "lc":
		sh.listConcepts(w)
		return nil
	case line == "metrics":
		sh.metrics(w)
		return nil
	case strings.HasPrefix(line, "schema "):
		return sh.loadSchema(strings.TrimSpace(line[len("schema "):]))
	case strings.HasPrefix(line, "load "):
		return sh.loadPlugin(strings.TrimSpace(line[len("load "):]))
	case strings.HasPrefix(line, "ct "):
		b, err := strconv.ParseBool(strings.TrimSpace(line[len("ct "):]))
		if err != nil {
			return fmt.Errorf("ct: %w", err)
		}
		sh.setTrace(b)
		return nil
	case strings.HasPrefix(line, "!"):
		sh.source = []byte(line[1:])
		return sh.runOnce(w)
	case strings.HasPrefix(line, ":"):
		sh.source = append(sh.source, []byte(line[1:])...)
		return nil
	default:
		return fmt.Errorf("unrecognized command: %q", line)
	}
}
