// Package output writes the five append-only CSV streams a run produces:
// platform.csv, task_quadruples.csv, hyperedges.csv, negative_samples.csv,
// minimal_unschedulable_combinations.csv.
//
// The exact column layout is this package's own choice, not a wire format
// other tooling depends on: task_quadruples.csv carries an explicit task_id
// column, and the three subset streams space-separate their ids in a single
// task_ids field, rather than the comma-separated/row-index convention a
// minimal reading of the dataset description might suggest. Both are
// readable with encoding/csv plus strings.Fields and round-trip through
// LoadPlatform without ambiguity.
package output

import (
	"bufio"
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/unccx/edfgen/internal/domain"
)

const (
	platformFile   = "platform.csv"
	taskFile       = "task_quadruples.csv"
	hyperedgeFile  = "hyperedges.csv"
	negativeFile   = "negative_samples.csv"
	mucFile        = "minimal_unschedulable_combinations.csv"
)

// stream bundles one CSV output file's writer chain: the underlying
// *os.File, a buffering *bufio.Writer, and the *csv.Writer on top. Rows are
// flushed after every append so a killed process loses at most the row in
// flight.
type stream struct {
	file *os.File
	buf  *bufio.Writer
	csv  *csv.Writer
}

func openStream(path string, header []string) (*stream, error) {
	existed := fileExists(path)

	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	buf := bufio.NewWriter(f)
	w := csv.NewWriter(buf)

	s := &stream{file: f, buf: buf, csv: w}
	if !existed {
		if err := s.writeRow(header); err != nil {
			f.Close()
			return nil, err
		}
	}
	return s, nil
}

func fileExists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && !info.IsDir()
}

func (s *stream) writeRow(fields []string) error {
	if err := s.csv.Write(fields); err != nil {
		return err
	}
	s.csv.Flush()
	if err := s.csv.Error(); err != nil {
		return err
	}
	return s.buf.Flush()
}

func (s *stream) Close() error {
	s.csv.Flush()
	if err := s.csv.Error(); err != nil {
		s.file.Close()
		return err
	}
	if err := s.buf.Flush(); err != nil {
		s.file.Close()
		return err
	}
	return s.file.Close()
}

// Writer implements domain.OutputSink over a run's output directory.
type Writer struct {
	dir string

	platform   *stream
	tasks      *stream
	hyperedges *stream
	negatives  *stream
	mucs       *stream
}

// FileNames lists the five output files New manages, relative to a run's
// output directory.
var FileNames = []string{platformFile, taskFile, hyperedgeFile, negativeFile, mucFile}

// ExistingFiles returns which of FileNames already exist in dir, for the
// CLI's pre-existing-output refusal check.
func ExistingFiles(dir string) []string {
	var found []string
	for _, name := range FileNames {
		if fileExists(filepath.Join(dir, name)) {
			found = append(found, name)
		}
	}
	return found
}

// Clobber truncates any of the five output files that already exist in
// dir, for --force.
func Clobber(dir string) error {
	for _, name := range FileNames {
		path := filepath.Join(dir, name)
		if !fileExists(path) {
			continue
		}
		if err := os.Truncate(path, 0); err != nil {
			return fmt.Errorf("truncate %s: %w", path, err)
		}
	}
	return nil
}

// New ensures dir exists and opens the five output streams append-only,
// writing a header row to each file that did not already exist (so a
// resumed run does not duplicate headers).
func New(dir string) (*Writer, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create output dir %s: %w", dir, err)
	}

	platform, err := openStream(filepath.Join(dir, platformFile), []string{"processor_id", "speed"})
	if err != nil {
		return nil, err
	}
	tasks, err := openStream(filepath.Join(dir, taskFile), []string{"task_id", "exec", "deadline", "period", "utilization"})
	if err != nil {
		platform.Close()
		return nil, err
	}
	hyperedges, err := openStream(filepath.Join(dir, hyperedgeFile), []string{"task_ids"})
	if err != nil {
		platform.Close()
		tasks.Close()
		return nil, err
	}
	negatives, err := openStream(filepath.Join(dir, negativeFile), []string{"task_ids"})
	if err != nil {
		platform.Close()
		tasks.Close()
		hyperedges.Close()
		return nil, err
	}
	mucs, err := openStream(filepath.Join(dir, mucFile), []string{"task_ids"})
	if err != nil {
		platform.Close()
		tasks.Close()
		hyperedges.Close()
		negatives.Close()
		return nil, err
	}

	return &Writer{
		dir:        dir,
		platform:   platform,
		tasks:      tasks,
		hyperedges: hyperedges,
		negatives:  negatives,
		mucs:       mucs,
	}, nil
}

// Dir returns the run's output directory.
func (w *Writer) Dir() string { return w.dir }

// WritePlatform appends one row per processor.
func (w *Writer) WritePlatform(platform domain.Platform) error {
	for _, p := range platform.Processors {
		if err := w.platform.writeRow([]string{p.ID, strconv.FormatInt(p.Speed, 10)}); err != nil {
			return fmt.Errorf("append platform row: %w", err)
		}
	}
	return nil
}

// WriteTaskQuadruples appends one row per task, in the order given — the
// caller (genrand.Tasks) is responsible for the ascending-utilization
// ordering spec.md §6 requires.
func (w *Writer) WriteTaskQuadruples(tasks []domain.Task) error {
	for _, t := range tasks {
		row := []string{
			strconv.Itoa(t.ID),
			strconv.FormatInt(t.Exec, 10),
			strconv.FormatInt(t.Deadline, 10),
			strconv.FormatInt(t.Period, 10),
			strconv.FormatFloat(t.Utilization(), 'f', -1, 64),
		}
		if err := w.tasks.writeRow(row); err != nil {
			return fmt.Errorf("append task row: %w", err)
		}
	}
	return nil
}

// WriteHyperedge appends a schedulable subset, sorted ascending by task id.
func (w *Writer) WriteHyperedge(taskIDs []int) error {
	if err := w.hyperedges.writeRow([]string{encodeIDs(taskIDs)}); err != nil {
		return fmt.Errorf("append hyperedge: %w", err)
	}
	return nil
}

// WriteNegativeSample appends an unschedulable subset.
func (w *Writer) WriteNegativeSample(taskIDs []int) error {
	if err := w.negatives.writeRow([]string{encodeIDs(taskIDs)}); err != nil {
		return fmt.Errorf("append negative sample: %w", err)
	}
	return nil
}

// WriteMUC appends a Minimal Unschedulable Combination.
func (w *Writer) WriteMUC(taskIDs []int) error {
	if err := w.mucs.writeRow([]string{encodeIDs(taskIDs)}); err != nil {
		return fmt.Errorf("append MUC: %w", err)
	}
	return nil
}

// Close flushes and closes every output stream, returning the first error
// encountered (closing continues regardless, to avoid leaking file
// descriptors).
func (w *Writer) Close() error {
	var firstErr error
	for _, s := range []*stream{w.platform, w.tasks, w.hyperedges, w.negatives, w.mucs} {
		if err := s.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}

func encodeIDs(ids []int) string {
	parts := make([]string, len(ids))
	for i, id := range ids {
		parts[i] = strconv.Itoa(id)
	}
	return strings.Join(parts, " ")
}

var _ domain.OutputSink = (*Writer)(nil)
