package file

import (
	"bufio"
	"bytes"
	"context"
	"encoding/csv"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/custodia-labs/kbquery/internal/core/domain"
	"github.com/custodia-labs/kbquery/internal/core/ports/driven"
	"github.com/custodia-labs/kbquery/internal/logger"
)

// Ensure EvalStore implements the interface.
var _ driven.EvalStore = (*EvalStore)(nil)

// Header rows of the per-question and ablation reports.
var (
	reportHeader   = []string{"question", "expected_url", "top1_url", "em1", "latency_s"}
	ablationHeader = []string{"chunk_size", "model", "top_k", "em1", "p50_s", "p95_s", "questions", "error"}
)

type caseLine struct {
	Question    string `json:"question"`
	ExpectedURL string `json:"expected_url"`
}

// EvalStore reads JSONL test sets and writes CSV reports.
type EvalStore struct{}

// NewEvalStore creates an eval store.
func NewEvalStore() *EvalStore {
	return &EvalStore{}
}

// ReadCases returns the cases in path. Lines that do not decode or carry
// no question are skipped.
func (s *EvalStore) ReadCases(ctx context.Context, path string) ([]domain.EvalCase, error) {
	f, err := os.Open(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("%w: test file %s", domain.ErrNotFound, path)
		}
		return nil, fmt.Errorf("open test file: %w", err)
	}
	defer f.Close()

	var (
		cases   []domain.EvalCase
		skipped int
		lineNo  int
	)
	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 64*1024), maxLineBytes)
	for scanner.Scan() {
		lineNo++
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		line := bytes.TrimSpace(scanner.Bytes())
		if len(line) == 0 {
			continue
		}

		var c caseLine
		if err := json.Unmarshal(line, &c); err != nil || c.Question == "" {
			skipped++
			logger.Debug("eval: skipping line %d of %s", lineNo, path)
			continue
		}
		cases = append(cases, domain.EvalCase(c))
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("read test file %s: %w", path, err)
	}

	if skipped > 0 {
		logger.Warn("eval: skipped %d unusable lines in %s", skipped, path)
	}
	return cases, nil
}

// WriteReport replaces path with a CSV row per result.
func (s *EvalStore) WriteReport(ctx context.Context, path string, report *domain.EvalReport) error {
	rows := make([][]string, 0, len(report.Results))
	for _, res := range report.Results {
		rows = append(rows, []string{
			res.Case.Question,
			res.Case.ExpectedURL,
			res.Top1URL,
			flag(res.Match),
			seconds(res.Latency),
		})
	}
	return writeCSV(ctx, path, reportHeader, rows)
}

// WriteAblation replaces path with a CSV row per cell. Failed cells keep
// their settings and carry the error instead of scores.
func (s *EvalStore) WriteAblation(ctx context.Context, path string, report *domain.AblationReport) error {
	rows := make([][]string, 0, len(report.Cells))
	for _, c := range report.Cells {
		row := []string{strconv.Itoa(c.ChunkSize), c.Model, strconv.Itoa(c.TopK), "", "", "", "", c.Err}
		if r := c.Report; r != nil {
			row[3] = strconv.FormatFloat(r.ExactMatch(), 'f', 4, 64)
			row[4] = seconds(r.LatencyPercentile(50))
			row[5] = seconds(r.LatencyPercentile(95))
			row[6] = strconv.Itoa(len(r.Results))
		}
		rows = append(rows, row)
	}
	return writeCSV(ctx, path, ablationHeader, rows)
}

func writeCSV(ctx context.Context, path string, header []string, rows [][]string) error {
	var buf bytes.Buffer
	w := csv.NewWriter(&buf)
	if err := w.Write(header); err != nil {
		return fmt.Errorf("write header: %w", err)
	}
	for _, row := range rows {
		if err := ctx.Err(); err != nil {
			return err
		}
		if err := w.Write(row); err != nil {
			return fmt.Errorf("write row: %w", err)
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return fmt.Errorf("flush report: %w", err)
	}
	return writeFileAtomic(path, buf.Bytes(), 0644)
}

func flag(b bool) string {
	if b {
		return "1"
	}
	return "0"
}

func seconds(d time.Duration) string {
	return strconv.FormatFloat(d.Seconds(), 'f', 6, 64)
}
