package main

import (
	"context"
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/kbukum/spikekit/logger"
)

// sample is one decoded input line.
type sample struct {
	Line  int
	Value float64
}

// lineDecoder turns text lines into samples. Lines without a usable value
// are skipped; line numbers keep counting so spikes point back at the file.
type lineDecoder struct {
	marker string
	field  int
	log    *logger.Logger

	line    int
	skipped int
}

func newLineDecoder(in InputConfig, log *logger.Logger) *lineDecoder {
	return &lineDecoder{marker: in.Marker, field: in.Field, log: log}
}

// decode has the pipeline.FilterMap shape.
func (d *lineDecoder) decode(_ context.Context, text string) (sample, bool, error) {
	d.line++
	v, err := parseValue(text, d.marker, d.field)
	if err != nil {
		d.skipped++
		d.log.Debug("skipping line", logger.Fields("line", d.line, logger.FieldError, err.Error()))
		return sample{}, false, nil
	}
	return sample{Line: d.line, Value: v}, true, nil
}

// parseValue extracts the value from a line: the first token after marker,
// or whitespace field n when marker is empty.
func parseValue(text, marker string, n int) (float64, error) {
	var tok string
	if marker != "" {
		i := strings.Index(text, marker)
		if i < 0 {
			return 0, fmt.Errorf("marker %q not found", marker)
		}
		rest := strings.Fields(text[i+len(marker):])
		if len(rest) == 0 {
			return 0, fmt.Errorf("no value after marker %q", marker)
		}
		tok = rest[0]
	} else {
		fields := strings.Fields(text)
		if n >= len(fields) {
			return 0, fmt.Errorf("field %d out of range (%d fields)", n, len(fields))
		}
		tok = fields[n]
	}

	v, err := strconv.ParseFloat(strings.TrimRight(tok, ",;"), 64)
	if err != nil {
		return 0, err
	}
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, fmt.Errorf("non-finite value %q", tok)
	}
	return v, nil
}
