package chart

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/jsphweid/chartview/model"
)

var (
	ErrDecode               = errors.New("could not decode chart")
	ErrUnsupportedExtension = errors.New("unsupported chart file extension")
)

// Extensions accepted by ReadFile, same as the viewer's file picker.
var Extensions = []string{".json", ".txt"}

// Decode parses a whole chart document. Unknown keys are ignored, missing
// lists decode as empty. Nothing beyond the JSON shape is checked here; see
// Lint for advisory checks.
func Decode(r io.Reader) (*model.Chart, error) {
	dat, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("could not read chart: %w", err)
	}

	dec := json.NewDecoder(bytes.NewReader(dat))
	var c model.Chart
	if err := dec.Decode(&c); err != nil {
		return nil, describe(err)
	}
	if _, err := dec.Token(); err != io.EOF {
		return nil, fmt.Errorf("%w: trailing data at offset %d", ErrDecode, dec.InputOffset())
	}
	// `null` is valid JSON but not a chart
	if bytes.Equal(bytes.TrimSpace(dat), []byte("null")) {
		return nil, fmt.Errorf("%w: document is null", ErrDecode)
	}

	if c.PageList == nil {
		c.PageList = []model.Page{}
	}
	if c.TempoList == nil {
		c.TempoList = []model.Tempo{}
	}
	if c.NoteList == nil {
		c.NoteList = []model.Note{}
	}
	return &c, nil
}

func describe(err error) error {
	var syntaxErr *json.SyntaxError
	var typeErr *json.UnmarshalTypeError
	switch {
	case errors.As(err, &syntaxErr):
		return fmt.Errorf("%w: %v (offset %d)", ErrDecode, syntaxErr, syntaxErr.Offset)
	case errors.As(err, &typeErr):
		return fmt.Errorf("%w: field %q wants %v, got %v (offset %d)",
			ErrDecode, typeErr.Field, typeErr.Type, typeErr.Value, typeErr.Offset)
	case errors.Is(err, io.EOF):
		return fmt.Errorf("%w: empty document", ErrDecode)
	case errors.Is(err, io.ErrUnexpectedEOF):
		return fmt.Errorf("%w: truncated document", ErrDecode)
	}
	return fmt.Errorf("%w: %v", ErrDecode, err)
}

func HasSupportedExtension(path string) bool {
	ext := strings.ToLower(filepath.Ext(path))
	for _, e := range Extensions {
		if ext == e {
			return true
		}
	}
	return false
}

func ReadFile(path string) (*model.Chart, error) {
	if !HasSupportedExtension(path) {
		return nil, fmt.Errorf("%w: %v", ErrUnsupportedExtension, path)
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("could not open %v: %w", path, err)
	}
	defer f.Close()

	c, err := Decode(f)
	if err != nil {
		return nil, fmt.Errorf("%v: %w", path, err)
	}
	return c, nil
}

// Default is the chart shown before anything has been loaded.
func Default() *model.Chart {
	return &model.Chart{
		PageList: []model.Page{
			{StartTick: 0, EndTick: 960, ScanLineDirection: 1},
		},
		TempoList: []model.Tempo{
			{Tick: 0, Value: 500000},
		},
		NoteList: []model.Note{
			{PageIndex: 0, Type: model.Hold, ID: 0, Tick: 0, X: 0, HoldTick: 0, NextID: 0},
		},
	}
}
