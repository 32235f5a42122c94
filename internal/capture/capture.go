// Package capture records published culling frames to a zstd-compressed file
// for offline inspection.
//
// File layout: one JSON header line, then a gob stream of Records, all inside
// a single zstd stream.
package capture

import (
	"bufio"
	"encoding/gob"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/klauspost/compress/zstd"
	"go.uber.org/zap"

	"github.com/Faultbox/midgard-clusters/internal/cluster"
	"github.com/Faultbox/midgard-clusters/internal/engine/lighting"
	"github.com/Faultbox/midgard-clusters/internal/logger"
)

// Version is the current capture format version.
const Version = 1

// ErrBadHeader is returned when a file does not start with a valid header.
var ErrBadHeader = errors.New("capture: bad header")

// Header describes the culler settings the capture was recorded with.
type Header struct {
	Version int                `json:"version"`
	Grid    cluster.GridConfig `json:"grid"`
	Layout  string             `json:"layout"`
}

// Record is one captured frame.
type Record struct {
	Frame   uint64
	Grid    cluster.Grid
	Layout  cluster.Layout
	Ranges  []cluster.LightIndexRange
	Indices []uint32
	Lights  []lighting.PointLight
	Stats   cluster.Stats
}

// LightsFor returns the light indices of cluster idx.
func (r *Record) LightsFor(idx int) []uint32 {
	if idx < 0 || idx >= len(r.Ranges) {
		return nil
	}
	rg := r.Ranges[idx]
	return r.Indices[rg.Start : rg.Start+rg.Count]
}

// Writer appends frames to a capture file. Not safe for concurrent use.
type Writer struct {
	path   string
	f      *os.File
	enc    *zstd.Encoder
	w      *bufio.Writer
	gob    *gob.Encoder
	frames int
}

// Open creates (or truncates) a capture file and writes its header.
func Open(path string, cfg cluster.GridConfig) (*Writer, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("creating capture dir: %w", err)
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o644)
	if err != nil {
		return nil, err
	}
	enc, err := zstd.NewWriter(f, zstd.WithEncoderLevel(zstd.SpeedFastest))
	if err != nil {
		_ = f.Close()
		return nil, err
	}

	w := &Writer{
		path: path,
		f:    f,
		enc:  enc,
		w:    bufio.NewWriterSize(enc, 128*1024),
	}
	w.gob = gob.NewEncoder(w.w)

	hb, err := json.Marshal(Header{Version: Version, Grid: cfg, Layout: cfg.Layout.String()})
	if err != nil {
		_ = w.Close()
		return nil, fmt.Errorf("encoding header: %w", err)
	}
	if _, err := w.w.Write(hb); err != nil {
		_ = w.Close()
		return nil, err
	}
	if err := w.w.WriteByte('\n'); err != nil {
		_ = w.Close()
		return nil, err
	}

	logger.Info("capture opened", zap.String("path", path))
	return w, nil
}

// Write appends one published frame.
func (w *Writer) Write(f *cluster.Frame) error {
	if w.gob == nil {
		return errors.New("capture: writer closed")
	}
	rec := Record{
		Frame:   f.Stats.Frame,
		Grid:    f.Grid,
		Layout:  f.Layout,
		Ranges:  f.Ranges,
		Indices: f.Indices,
		Lights:  f.Lights,
		Stats:   f.Stats,
	}
	if err := w.gob.Encode(&rec); err != nil {
		return fmt.Errorf("gob encode frame %d: %w", rec.Frame, err)
	}
	w.frames++
	return nil
}

// Frames returns the number of frames written so far.
func (w *Writer) Frames() int {
	return w.frames
}

// Close flushes and closes the file. Safe to call twice.
func (w *Writer) Close() error {
	if w.f == nil {
		return nil
	}
	var err error
	if w.w != nil {
		err = w.w.Flush()
	}
	if cerr := w.enc.Close(); err == nil {
		err = cerr
	}
	if cerr := w.f.Close(); err == nil {
		err = cerr
	}
	w.f, w.enc, w.w, w.gob = nil, nil, nil, nil

	logger.Info("capture closed", zap.String("path", w.path), zap.Int("frames", w.frames))
	return err
}

// Reader streams records back from a capture file.
type Reader struct {
	f      *os.File
	dec    *zstd.Decoder
	gob    *gob.Decoder
	header Header
}

// OpenReader opens a capture file and validates its header.
func OpenReader(path string) (*Reader, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	dec, err := zstd.NewReader(f)
	if err != nil {
		_ = f.Close()
		return nil, err
	}

	r := &Reader{f: f, dec: dec}
	br := bufio.NewReaderSize(dec, 128*1024)

	line, err := br.ReadBytes('\n')
	if err != nil {
		r.Close()
		return nil, fmt.Errorf("%w: %v", ErrBadHeader, err)
	}
	if err := json.Unmarshal(line, &r.header); err != nil {
		r.Close()
		return nil, fmt.Errorf("%w: %v", ErrBadHeader, err)
	}
	if r.header.Version != Version {
		r.Close()
		return nil, fmt.Errorf("%w: unsupported version %d", ErrBadHeader, r.header.Version)
	}

	r.gob = gob.NewDecoder(br)
	return r, nil
}

// Header returns the file header.
func (r *Reader) Header() Header {
	return r.header
}

// Next returns the next record, or io.EOF at the end of the file.
func (r *Reader) Next() (Record, error) {
	var rec Record
	if err := r.gob.Decode(&rec); err != nil {
		if errors.Is(err, io.EOF) {
			return rec, io.EOF
		}
		return rec, fmt.Errorf("gob decode: %w", err)
	}
	return rec, nil
}

// Close releases the file.
func (r *Reader) Close() error {
	r.dec.Close()
	return r.f.Close()
}

// ReadFile loads a whole capture file.
func ReadFile(path string) (Header, []Record, error) {
	r, err := OpenReader(path)
	if err != nil {
		return Header{}, nil, err
	}
	defer r.Close()

	var records []Record
	for {
		rec, err := r.Next()
		if errors.Is(err, io.EOF) {
			return r.Header(), records, nil
		}
		if err != nil {
			return r.Header(), records, err
		}
		records = append(records, rec)
	}
}
