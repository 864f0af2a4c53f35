package main

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/klauspost/compress/gzip"
	"github.com/spf13/cobra"

	"github.com/aleksaelezovic/quadline/clog"
	"github.com/aleksaelezovic/quadline/internal/rdfio"
	"github.com/aleksaelezovic/quadline/internal/store"
	"github.com/aleksaelezovic/quadline/pkg/nquads"
	"github.com/aleksaelezovic/quadline/pkg/rdf"
)

const (
	flagStrict = "strict"
	flagQuiet  = "quiet"
	flagOutput = "output"

	flagSubject   = "subject"
	flagPredicate = "predicate"
	flagObject    = "object"
	flagGraph     = "graph"
)

// errLinesFailed is returned in strict mode when any line failed to decode
var errLinesFailed = errors.New("some lines failed to decode")

// failureCounter is an nquads.ErrorHandler that counts failures and,
// unless quiet, logs them
type failureCounter struct {
	quiet bool
	n     int
}

func (f *failureCounter) handle(err *nquads.ParseError) {
	f.n++
	if !f.quiet {
		nquads.LogError(err)
	}
}

func registerParseFlags(cmd *cobra.Command) {
	cmd.Flags().Bool(flagStrict, false, "exit with an error if any line fails to decode")
	cmd.Flags().Bool(flagQuiet, false, "don't log individual line failures")
}

// readInput reads the document named by the only argument, "-" by default
func (a *app) readInput(cmd *cobra.Command, args []string) (string, *rdfio.Source, error) {
	name := rdfio.Stdin
	if len(args) == 1 {
		name = args[0]
	}
	return rdfio.ReadAll(cmd.Context(), name, a.cfg.MaxInputBytes)
}

func (a *app) newParser(cmd *cobra.Command, s nquads.Store) (*nquads.Parser, *failureCounter) {
	quiet, _ := cmd.Flags().GetBool(flagQuiet)
	failures := &failureCounter{quiet: quiet}
	p := nquads.NewParser(rdf.NewDataFactory(), s,
		nquads.WithErrorHandler(failures.handle),
		nquads.WithMetrics(a.cfg.ParseMetrics),
	)
	return p, failures
}

func checkStrict(cmd *cobra.Command, failures *failureCounter) error {
	if strict, _ := cmd.Flags().GetBool(flagStrict); strict && failures.n > 0 {
		return fmt.Errorf("%w: %d", errLinesFailed, failures.n)
	}
	return nil
}

func warnNamedGraphs(src *rdfio.Source, quads []*rdf.Quad) {
	if src.Format != rdfio.FormatNTriples {
		return
	}
	for _, q := range quads {
		if !q.InDefaultGraph() {
			clog.Warningf("%s is N-Triples but contains named graph statements", src.Name)
			return
		}
	}
}

func newParseCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "parse [file|-|url]",
		Short: "Decode a document and print the statements as N-Quads.",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			text, src, err := a.readInput(cmd, args)
			if err != nil {
				return err
			}

			p, failures := a.newParser(cmd, nil)
			quads := p.ParseString(text)
			warnNamedGraphs(src, quads)

			if err := rdf.WriteQuads(cmd.OutOrStdout(), quads); err != nil {
				return err
			}
			clog.Infof("decoded %d statements, %d lines failed", len(quads), failures.n)
			return checkStrict(cmd, failures)
		},
	}
	registerParseFlags(cmd)
	return cmd
}

func newLoadCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "load [file|-|url]",
		Short: "Bulk-load a document into the database.",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			text, _, err := a.readInput(cmd, args)
			if err != nil {
				return err
			}

			qs, err := a.openStore()
			if err != nil {
				return err
			}
			defer qs.Close()

			batch := qs.NewBatch(a.cfg.LoadBatch)
			p, failures := a.newParser(cmd, batch)
			if err := p.LoadBuf(text); err != nil {
				batch.Discard()
				return err
			}
			if err := batch.Commit(); err != nil {
				return err
			}
			if err := qs.Sync(); err != nil {
				return fmt.Errorf("failed to sync database: %w", err)
			}

			fmt.Fprintf(cmd.OutOrStdout(), "loaded %d new quads, %d lines failed\n", batch.Added, failures.n)
			return checkStrict(cmd, failures)
		},
	}
	registerParseFlags(cmd)
	return cmd
}

func newCountCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "count",
		Short: "Print the number of quads, overall and per named graph.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			qs, err := a.openStore()
			if err != nil {
				return err
			}
			defer qs.Close()

			total, err := qs.Count()
			if err != nil {
				return err
			}
			graphs, err := qs.Graphs()
			if err != nil {
				return err
			}

			w := cmd.OutOrStdout()
			fmt.Fprintf(w, "%d quads\n", total)
			for _, g := range graphs {
				fmt.Fprintf(w, "%d\t%s\n", g.Quads, g.Graph)
			}
			return nil
		},
	}
}

func newDumpCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "dump",
		Short: "Write quads from the database as N-Quads.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			pattern, err := patternFromFlags(cmd)
			if err != nil {
				return err
			}

			qs, err := a.openStore()
			if err != nil {
				return err
			}
			defer qs.Close()

			out, _ := cmd.Flags().GetString(flagOutput)
			w, closeOut, err := createOutput(cmd, out)
			if err != nil {
				return err
			}

			n := 0
			err = qs.ForEach(pattern, func(q *rdf.Quad) error {
				n++
				_, err := io.WriteString(w, q.String()+"\n")
				return err
			})
			if cerr := closeOut(); err == nil {
				err = cerr
			}
			if err != nil {
				return err
			}
			clog.Infof("dumped %d quads", n)
			return nil
		},
	}
	cmd.Flags().StringP(flagOutput, "o", "-", `file to write to (".gz" is compressed, "-" for stdout)`)
	cmd.Flags().String(flagSubject, "", "only quads with this subject IRI")
	cmd.Flags().String(flagPredicate, "", "only quads with this predicate IRI")
	cmd.Flags().String(flagObject, "", "only quads with this object IRI")
	cmd.Flags().String(flagGraph, "", `only quads in this graph IRI ("default" for the default graph)`)
	return cmd
}

func patternFromFlags(cmd *cobra.Command) (store.Pattern, error) {
	var p store.Pattern
	iri := func(name string) (rdf.Term, error) {
		v, err := cmd.Flags().GetString(name)
		if err != nil || v == "" {
			return nil, err
		}
		return rdf.NewNamedNode(strings.TrimSuffix(strings.TrimPrefix(v, "<"), ">")), nil
	}

	var err error
	if p.Subject, err = iri(flagSubject); err != nil {
		return p, err
	}
	if p.Predicate, err = iri(flagPredicate); err != nil {
		return p, err
	}
	if p.Object, err = iri(flagObject); err != nil {
		return p, err
	}
	if g, _ := cmd.Flags().GetString(flagGraph); g == "default" {
		p.Graph = rdf.NewDefaultGraph()
	} else if p.Graph, err = iri(flagGraph); err != nil {
		return p, err
	}
	return p, nil
}

// createOutput opens path for writing, compressing when it ends in .gz
func createOutput(cmd *cobra.Command, path string) (io.Writer, func() error, error) {
	if path == "-" || path == "" {
		return cmd.OutOrStdout(), func() error { return nil }, nil
	}

	f, err := os.Create(path) // #nosec G304 - output path is chosen by the user
	if err != nil {
		return nil, nil, fmt.Errorf("could not create file %q: %w", path, err)
	}
	if filepath.Ext(path) != ".gz" {
		return f, f.Close, nil
	}

	zw := gzip.NewWriter(f)
	return zw, func() error {
		return errors.Join(zw.Close(), f.Close())
	}, nil
}
