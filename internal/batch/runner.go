// Package batch is the client side of the plate reader: it walks a batch of
// images one at a time, compresses and uploads each through the proxy endpoint
// at a fixed pace, and keeps the displayed plate list.
package batch

import (
	"context"
	"errors"
	"fmt"
	"mime"
	"net/http"
	"os"
	"path/filepath"

	"go.uber.org/zap"

	"platereader/internal/imaging"
	"platereader/internal/plate"
)

// MaxFileSize is the largest file a batch will upload.
const MaxFileSize = 8 * 1024 * 1024

var ErrFileTooLarge = errors.New("file exceeds the 8 MB upload limit")

// File is one selected image. Load is only called for files within the size limit.
type File struct {
	Name string
	Size int64
	Load func() ([]byte, error)
}

// FileFromPath describes a file on disk without reading it.
func FileFromPath(path string) (File, error) {
	st, err := os.Stat(path)
	if err != nil {
		return File{}, err
	}
	if st.IsDir() {
		return File{}, fmt.Errorf("%s is a directory", path)
	}
	return File{
		Name: filepath.Base(path),
		Size: st.Size(),
		Load: func() ([]byte, error) { return os.ReadFile(path) },
	}, nil
}

// Warning is a per-file problem reported to the user. The batch continues after it.
type Warning struct {
	File string
	Err  error
}

func (w Warning) String() string {
	return fmt.Sprintf("%s: %v", w.File, w.Err)
}

// Report summarizes one batch.
type Report struct {
	Plates   []string
	Warnings []Warning
	Uploaded int
}

// Options configure a Runner.
type Options struct {
	MaxFileSize int64
	Compression imaging.Options
	// SkipCompression uploads files as read.
	SkipCompression bool
}

// DefaultRunnerOptions match the browser page.
var DefaultRunnerOptions = Options{
	MaxFileSize: MaxFileSize,
	Compression: imaging.DefaultOptions,
}

// Runner processes batches sequentially.
type Runner struct {
	uploader Uploader
	throttle *Throttle
	opt      Options
	log      *zap.Logger
}

// NewRunner builds a Runner. log may be nil.
func NewRunner(up Uploader, throttle *Throttle, opt Options, log *zap.Logger) *Runner {
	if log == nil {
		log = zap.NewNop()
	}
	if opt.MaxFileSize <= 0 {
		opt.MaxFileSize = MaxFileSize
	}
	return &Runner{uploader: up, throttle: throttle, opt: opt, log: log}
}

// Run processes files in order, one at a time. Per-file failures become
// warnings; only context cancellation stops the batch early, in which case the
// plates gathered so far are returned with ctx.Err().
func (r *Runner) Run(ctx context.Context, files []File) (Report, error) {
	var rep Report
	for _, f := range files {
		if err := ctx.Err(); err != nil {
			return rep, err
		}
		if f.Size > r.opt.MaxFileSize {
			rep.Warnings = append(rep.Warnings, r.warn(f.Name, ErrFileTooLarge))
			continue
		}

		plates, err := r.one(ctx, f)
		if err != nil {
			if ctx.Err() != nil {
				return rep, ctx.Err()
			}
			rep.Warnings = append(rep.Warnings, r.warn(f.Name, err))
			continue
		}
		rep.Uploaded++
		rep.Plates = append(rep.Plates, plates...)
	}
	return rep, nil
}

func (r *Runner) one(ctx context.Context, f File) ([]string, error) {
	data, err := f.Load()
	if err != nil {
		return nil, fmt.Errorf("read: %w", err)
	}
	contentType := detectContentType(f.Name, data)

	if !r.opt.SkipCompression {
		res, err := imaging.Compress(data, contentType, r.opt.Compression)
		if err != nil {
			return nil, fmt.Errorf("compress: %w", err)
		}
		data, contentType = res.Data, res.ContentType
	}

	if err := r.throttle.Wait(ctx); err != nil {
		return nil, err
	}
	raw, err := r.uploader.Upload(ctx, f.Name, contentType, data)
	if err != nil {
		return nil, err
	}
	return plate.FormatAll(raw), nil
}

func (r *Runner) warn(name string, err error) Warning {
	r.log.Warn("batch_file_skipped", zap.String("file", name), zap.Error(err))
	return Warning{File: name, Err: err}
}

func detectContentType(name string, data []byte) string {
	if ct := mime.TypeByExtension(filepath.Ext(name)); ct != "" {
		return ct
	}
	return http.DetectContentType(data)
}
