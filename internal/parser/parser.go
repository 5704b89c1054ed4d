// Package parser assembles the transactions of a statement document from
// its pages' content-stream instructions.
package parser

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"golang.org/x/sync/errgroup"

	"github.com/insightdelivered/statement-extractor/internal/extractor"
	"github.com/insightdelivered/statement-extractor/internal/layout"
	"github.com/insightdelivered/statement-extractor/internal/models"
)

// ErrUnhandledDetails is returned when generic transactions picked up
// continuation lines the model has no field for.
var ErrUnhandledDetails = errors.New("unhandled transaction details")

// Source supplies a document's pages.
type Source interface {
	NumPages() int
	// Instructions returns the decoded content stream of a zero-based page.
	Instructions(page int) ([]extractor.Instruction, error)
}

// Options configures Parse. The zero value parses one page at a time with
// the default direct-debit payees.
type Options struct {
	// Workers bounds how many pages are decoded at once.
	Workers int
	// DirectDebitPayees overrides DefaultDirectDebitPayees when non-nil.
	DirectDebitPayees []string
	Logger            *slog.Logger
}

// UnrecognizedOperatorsError lists the content-stream operators the decoder
// had no model for.
type UnrecognizedOperatorsError struct {
	Operators []string
}

func (e *UnrecognizedOperatorsError) Error() string {
	return "unrecognized content stream operators: " + strings.Join(e.Operators, ", ")
}

// UnhandledDetailsError carries every continuation line no transaction could place.
type UnhandledDetailsError struct {
	Details []string
}

func (e *UnhandledDetailsError) Error() string {
	return fmt.Sprintf("%s: %s", ErrUnhandledDetails, strings.Join(e.Details, "; "))
}

func (e *UnhandledDetailsError) Unwrap() error { return ErrUnhandledDetails }

type pageResult struct {
	table        *layout.Table
	unrecognized extractor.OperatorSet
}

// Parse extracts the statement from src. Pages are decoded concurrently but
// assembled strictly in page order.
func Parse(ctx context.Context, src Source, opts Options) (*models.Statement, error) {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	workers := opts.Workers
	if workers < 1 {
		workers = 1
	}
	payees := opts.DirectDebitPayees
	if payees == nil {
		payees = DefaultDirectDebitPayees
	}

	n := src.NumPages()
	results := make([]pageResult, n)

	// The document reader is not safe for concurrent use, so instructions
	// are fetched here and only the decoding fans out.
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)
	for page := 0; page < n; page++ {
		if err := gctx.Err(); err != nil {
			break
		}
		instrs, err := src.Instructions(page)
		if err != nil {
			g.Wait()
			return nil, fmt.Errorf("page %d: %w", page+1, err)
		}
		page := page
		g.Go(func() error {
			res, err := decodePage(instrs, page)
			if err != nil {
				return err
			}
			results[page] = res
			logger.Debug("page decoded", "page", page+1, "rows", len(res.table.Rows))
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	asm := NewAssembler(n, NewClassifier(payees), logger)
	unrecognized := extractor.OperatorSet{}
	for page, res := range results {
		unrecognized.Merge(res.unrecognized)
		if err := asm.AddPage(res.table); err != nil {
			return nil, err
		}
		logger.Debug("page assembled", "page", page+1)
	}

	if len(unrecognized) > 0 {
		return nil, &UnrecognizedOperatorsError{Operators: unrecognized.Names()}
	}
	if details := asm.Unhandled(); len(details) > 0 {
		return nil, &UnhandledDetailsError{Details: details}
	}
	stmt, err := asm.Finish()
	if err != nil {
		return nil, err
	}
	if err := stmt.Verify(); err != nil {
		return nil, err
	}
	logger.Info("statement parsed", "pages", n, "transactions", len(stmt.Transactions))
	return stmt, nil
}

func decodePage(instrs []extractor.Instruction, page int) (pageResult, error) {
	dec := extractor.NewDecoder(instrs)
	frags, err := extractor.FilterPage(dec)
	if err != nil {
		return pageResult{}, fmt.Errorf("page %d: %w", page+1, err)
	}
	table, err := layout.Reconstruct(frags, page)
	if err != nil {
		return pageResult{}, err
	}
	return pageResult{table: table, unrecognized: dec.Unrecognized()}, nil
}
