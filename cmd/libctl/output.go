package main

import (
	"fmt"
	"io"

	"github.com/jedib0t/go-pretty/v6/table"
	jsoniter "github.com/json-iterator/go"
	"gopkg.in/yaml.v3"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

const (
	formatTable = "table"
	formatJSON  = "json"
	formatYAML  = "yaml"
)

func parseFormat(raw string) (string, error) {
	switch raw {
	case formatTable, formatJSON, formatYAML:
		return raw, nil
	default:
		return "", fmt.Errorf("unknown output format %q (want table, json or yaml)", raw)
	}
}

// render writes v in the app's format. rows fills the table for the table
// format; json and yaml are produced from v itself.
func (a *app) render(v any, header table.Row, rows func(t table.Writer)) error {
	return render(a.out, a.format, v, header, rows)
}

func render(w io.Writer, format string, v any, header table.Row, rows func(t table.Writer)) error {
	switch format {
	case formatJSON:
		b, err := json.MarshalIndent(v, "", "  ")
		if err != nil {
			return err
		}
		_, err = fmt.Fprintln(w, string(b))
		return err
	case formatYAML:
		// go through JSON so field names follow the json tags
		b, err := json.Marshal(v)
		if err != nil {
			return err
		}
		var generic any
		if err := yaml.Unmarshal(b, &generic); err != nil {
			return err
		}
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(generic); err != nil {
			return err
		}
		return enc.Close()
	default:
		tw := table.NewWriter()
		tw.SetOutputMirror(w)
		tw.SetStyle(table.StyleLight)
		tw.AppendHeader(header)
		rows(tw)
		tw.Render()
		return nil
	}
}

func deref(s *string) string {
	if s == nil {
		return "-"
	}
	return *s
}
