package importer

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"time"
	"unicode/utf8"

	"github.com/Veraticus/walletflow/internal/common"
	"github.com/Veraticus/walletflow/internal/model"
	"github.com/Veraticus/walletflow/internal/service"
	"github.com/schollz/progressbar/v3"
)

// Result summarizes an import run.
type Result struct {
	Failures []Failure
	Imported int
	Skipped  int
}

// Failure records a statement line the service rejected.
type Failure struct {
	Err   error
	Entry Entry
}

// Drafts converts statement lines into transaction drafts. Negative amounts
// become expenses in expenseCategoryID; positive ones become income. Lines
// dated after now and zero-amount lines are skipped.
func Drafts(entries []Entry, expenseCategoryID string, now time.Time) ([]model.TransactionDraft, []Entry, int) {
	drafts := make([]model.TransactionDraft, 0, len(entries))
	kept := make([]Entry, 0, len(entries))
	skipped := 0

	for _, e := range entries {
		if e.Posted.After(now) || e.Amount.IsZero() {
			skipped++
			continue
		}

		draft := model.TransactionDraft{
			TransactionDate: e.Posted,
			Amount:          e.Amount.Abs().String(),
			Comment:         truncate(e.Name, model.MaxCommentLength),
		}
		if e.Amount.IsNegative() {
			draft.Type = model.TypeExpense
			draft.CategoryID = expenseCategoryID
		} else {
			draft.Type = model.TypeIncome
		}

		drafts = append(drafts, draft)
		kept = append(kept, e)
	}

	return drafts, kept, skipped
}

// Runner submits drafts one at a time and reports progress.
type Runner struct {
	adder    service.TransactionAdder
	progress io.Writer
	logger   *slog.Logger
}

// NewRunner creates a runner. A nil progress writer disables the progress bar.
func NewRunner(adder service.TransactionAdder, progress io.Writer) *Runner {
	return &Runner{
		adder:    adder,
		progress: progress,
		logger:   common.ComponentLogger("importer"),
	}
}

// Run parses entries into drafts and adds each one. Individual failures are
// collected; only cancellation or a closed store stop the run early.
func (r *Runner) Run(ctx context.Context, entries []Entry, expenseCategoryID string, now time.Time) (Result, error) {
	drafts, kept, skipped := Drafts(entries, expenseCategoryID, now)
	result := Result{Skipped: skipped}

	bar := r.newBar(len(drafts))
	defer func() {
		if bar != nil {
			_ = bar.Finish()
		}
	}()

	for i, draft := range drafts {
		if err := ctx.Err(); err != nil {
			return result, err
		}

		if _, err := r.adder.AddTransaction(ctx, draft); err != nil {
			if errors.Is(err, common.ErrStoreClosed) || errors.Is(err, context.Canceled) {
				return result, err
			}
			r.logger.Warn("Failed to import statement line",
				"fitid", kept[i].FitID,
				"error", err)
			result.Failures = append(result.Failures, Failure{Entry: kept[i], Err: err})
		} else {
			result.Imported++
		}

		if bar != nil {
			if err := bar.Add(1); err != nil {
				r.logger.Warn("Failed to update progress bar", "error", err)
			}
		}
	}

	return result, nil
}

func (r *Runner) newBar(total int) *progressbar.ProgressBar {
	if r.progress == nil || total == 0 {
		return nil
	}
	return progressbar.NewOptions(total,
		progressbar.OptionSetWriter(r.progress),
		progressbar.OptionEnableColorCodes(true),
		progressbar.OptionShowCount(),
		progressbar.OptionShowElapsedTimeOnFinish(),
		progressbar.OptionSetWidth(40),
		progressbar.OptionSetDescription("[cyan][bold]Importing transactions...[reset]"),
		progressbar.OptionSetTheme(progressbar.Theme{
			Saucer:        "[green]=[reset]",
			SaucerHead:    "[green]>[reset]",
			SaucerPadding: " ",
			BarStart:      "[",
			BarEnd:        "]",
		}),
		progressbar.OptionOnCompletion(func() {
			if _, err := fmt.Fprintln(r.progress); err != nil {
				r.logger.Warn("Failed to write newline after progress bar", "error", err)
			}
		}),
	)
}

func truncate(s string, limit int) string {
	if utf8.RuneCountInString(s) <= limit {
		return s
	}
	return string([]rune(s)[:limit])
}
