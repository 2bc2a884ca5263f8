package main

import (
	"encoding/json"
	"fmt"
	"io"

	"gopkg.in/yaml.v3"
)

const (
	formatJSON = "json"
	formatYAML = "yaml"
)

// Record is the printed form of a spike.
type Record struct {
	RunID string  `json:"run_id" yaml:"run_id" mapstructure:"run_id"`
	Index int     `json:"index" yaml:"index" mapstructure:"index"`
	Line  int     `json:"line" yaml:"line" mapstructure:"line"`
	X     float64 `json:"x" yaml:"x" mapstructure:"x"`
	Y     float64 `json:"y" yaml:"y" mapstructure:"y"`
}

// recordWriter prints records as they arrive.
type recordWriter interface {
	Write(r Record) error
	Close() error
}

func newRecordWriter(format string, w io.Writer) (recordWriter, error) {
	switch format {
	case formatJSON:
		return &jsonWriter{enc: json.NewEncoder(w)}, nil
	case formatYAML:
		return &yamlWriter{enc: yaml.NewEncoder(w)}, nil
	default:
		return nil, fmt.Errorf("unknown output format %q", format)
	}
}

// jsonWriter prints one JSON object per line.
type jsonWriter struct {
	enc *json.Encoder
}

func (w *jsonWriter) Write(r Record) error { return w.enc.Encode(r) }
func (w *jsonWriter) Close() error         { return nil }

// yamlWriter prints one YAML document per record.
type yamlWriter struct {
	enc *yaml.Encoder
}

func (w *yamlWriter) Write(r Record) error { return w.enc.Encode(r) }
func (w *yamlWriter) Close() error         { return w.enc.Close() }
