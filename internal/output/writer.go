package output

import (
	"bytes"
	"fmt"
	"io"
	"os"

	"github.com/quantmind-br/reqscan/internal/domain"
	"github.com/quantmind-br/reqscan/internal/utils"
)

// Writer sends rendered output to stdout or a file
type Writer struct {
	path   string
	format Format
	force  bool
	stdout io.Writer
}

// WriterOptions contains options for the writer
type WriterOptions struct {
	// Path is the output file; empty writes to Stdout
	Path   string
	Format Format
	// Force overwrites an existing output file
	Force  bool
	Stdout io.Writer
}

// NewWriter creates a new output writer
func NewWriter(opts WriterOptions) *Writer {
	if opts.Format == "" {
		opts.Format = FormatText
	}
	if opts.Stdout == nil {
		opts.Stdout = os.Stdout
	}
	return &Writer{
		path:   opts.Path,
		format: opts.Format,
		force:  opts.Force,
		stdout: opts.Stdout,
	}
}

// Format returns the writer's output format
func (w *Writer) Format() Format {
	return w.format
}

// WriteReport renders and writes a parse report
func (w *Writer) WriteReport(r *Report) error {
	var buf bytes.Buffer
	if err := Render(&buf, r, w.format); err != nil {
		return err
	}
	return w.write(buf.Bytes())
}

// WriteDiff renders and writes a diff report
func (w *Writer) WriteDiff(d *DiffReport) error {
	var buf bytes.Buffer
	if err := RenderDiff(&buf, d, w.format); err != nil {
		return err
	}
	return w.write(buf.Bytes())
}

func (w *Writer) write(data []byte) error {
	if w.path == "" {
		if _, err := w.stdout.Write(data); err != nil {
			return fmt.Errorf("%w: %v", domain.ErrWriteFailed, err)
		}
		return nil
	}

	if !w.force {
		if _, err := os.Stat(w.path); err == nil {
			return fmt.Errorf("%w: %s already exists (use --force to overwrite)", domain.ErrWriteFailed, w.path)
		}
	}

	if err := utils.EnsureDir(w.path); err != nil {
		return fmt.Errorf("%w: %v", domain.ErrWriteFailed, err)
	}
	if err := os.WriteFile(w.path, data, 0644); err != nil {
		return fmt.Errorf("%w: %v", domain.ErrWriteFailed, err)
	}
	return nil
}
