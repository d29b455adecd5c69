package resolve

import (
	"bytes"
	"encoding/json"
	"fmt"

	"github.com/jedib0t/go-pretty/v6/table"
	"sigs.k8s.io/yaml"

	"ocm.software/open-component-model/presentation/presentation"
)

type EncodingType string

const (
	EncodingTable EncodingType = "table"
	EncodingJSON  EncodingType = "json"
	EncodingYAML  EncodingType = "yaml"
)

var allEncodings = []EncodingType{
	EncodingTable,
	EncodingJSON,
	EncodingYAML,
}

func Encodings[T string | EncodingType]() []T {
	out := make([]T, len(allEncodings))
	for i, e := range allEncodings {
		out[i] = T(e)
	}
	return out
}

// Resolved is a snapshot together with the reference it was requested for.
type Resolved struct {
	Input string `json:"input"`
	presentation.Snapshot
	// Updated is true if the snapshot was delivered by the refresh phase.
	Updated bool `json:"updated"`
}

func encodeResults(output EncodingType, results []Resolved) ([]byte, error) {
	var data []byte
	var err error
	switch output {
	case EncodingJSON:
		data, err = encodeResultsAsNDJSON(results)
	case EncodingYAML:
		data, err = encodeResultsAsYAML(results)
	case EncodingTable:
		data, err = encodeResultsAsTable(results)
	default:
		err = fmt.Errorf("unknown output format: %q", output)
	}
	if err != nil {
		return nil, fmt.Errorf("encoding snapshots as %q failed: %w", output, err)
	}
	return data, nil
}

func encodeResultsAsNDJSON(results []Resolved) ([]byte, error) {
	var buf bytes.Buffer
	encoder := json.NewEncoder(&buf)
	for _, r := range results {
		if err := encoder.Encode(r); err != nil {
			return nil, fmt.Errorf("encoding snapshot failed: %w", err)
		}
	}
	return buf.Bytes(), nil
}

func encodeResultsAsYAML(results []Resolved) ([]byte, error) {
	if len(results) == 1 {
		return yaml.Marshal(results[0])
	}
	return yaml.Marshal(results)
}

func encodeResultsAsTable(results []Resolved) ([]byte, error) {
	var buf bytes.Buffer
	t := table.NewWriter()
	t.SetOutputMirror(&buf)
	t.AppendHeader(table.Row{"Input", "Entity Ref", "Title", "Subtitle", "Icon"})
	for _, r := range results {
		t.AppendRow(table.Row{r.Input, r.EntityRef, r.PrimaryTitle, r.SecondaryTitle, r.Icon})
	}
	style := table.StyleLight
	style.Options.DrawBorder = false
	t.SetStyle(style)
	t.Render()
	return buf.Bytes(), nil
}
