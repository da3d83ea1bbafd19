// Package occurrence tallies word and phrase usage across a corpus of
// dated statements.
package occurrence

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"runtime"
	"sort"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/cognicore/persistence/pkg/persistence/internalerr"
	"github.com/cognicore/persistence/pkg/persistence/tdm"
)

// Document is one statement file in the corpus.
type Document struct {
	Path string
	Name string
	Date time.Time
}

// Result holds one search's count for every corpus document, in corpus
// order.
type Result struct {
	Search Search
	Docs   []Document
	Counts []int
}

// Counter scans a corpus directory.
type Counter struct {
	// DateOffset locates the YYYYMMDD date in each file name.
	DateOffset int
	// Workers bounds concurrent file reads; <= 0 means GOMAXPROCS.
	Workers int
	Logger  *slog.Logger
}

// NewCounter returns a Counter using the default file-name convention.
func NewCounter(logger *slog.Logger) *Counter {
	if logger == nil {
		logger = slog.Default()
	}
	return &Counter{DateOffset: tdm.DefaultDateOffset, Logger: logger}
}

// ListCorpus returns the regular files of dir sorted by name, with the
// release date parsed from each name. Dot files are ignored.
func ListCorpus(dir string, offset int) ([]Document, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, &internalerr.InputError{
			Path:  dir,
			Index: -1,
			Err:   fmt.Errorf("%w: %v", internalerr.ErrMalformedInput, err),
		}
	}

	var docs []Document
	for _, e := range entries {
		if !e.Type().IsRegular() || strings.HasPrefix(e.Name(), ".") {
			continue
		}
		label, err := tdm.ParseLabel(e.Name(), offset)
		if err != nil {
			return nil, internalerr.WithPath(err, filepath.Join(dir, e.Name()))
		}
		docs = append(docs, Document{
			Path: filepath.Join(dir, e.Name()),
			Name: e.Name(),
			Date: label.Date,
		})
	}
	sort.Slice(docs, func(i, j int) bool { return docs[i].Name < docs[j].Name })
	return docs, nil
}

// Run reads every document in dir once and evaluates all searches on it.
// Every document gets an entry in every result, zero when nothing matched.
func (c *Counter) Run(ctx context.Context, dir string, searches []Search) ([]Result, error) {
	logger := c.Logger
	if logger == nil {
		logger = slog.Default()
	}

	docs, err := ListCorpus(dir, c.DateOffset)
	if err != nil {
		return nil, err
	}

	results := make([]Result, len(searches))
	for i, s := range searches {
		results[i] = Result{Search: s, Docs: docs, Counts: make([]int, len(docs))}
	}

	workers := c.Workers
	if workers <= 0 {
		workers = runtime.GOMAXPROCS(0)
	}

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)
	for i, doc := range docs {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			text, err := readText(doc.Path)
			if err != nil {
				return err
			}
			for s := range searches {
				results[s].Counts[i] = searches[s].Tally(text)
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	logger.Info("counted corpus",
		"dir", dir,
		"documents", len(docs),
		"searches", len(searches),
	)
	return results, nil
}

func readText(path string) (string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return "", &internalerr.InputError{
			Path:  path,
			Index: -1,
			Err:   fmt.Errorf("%w: %v", internalerr.ErrMalformedInput, err),
		}
	}
	if isHTML(path) {
		return StripHTML(string(data)), nil
	}
	return string(data), nil
}
