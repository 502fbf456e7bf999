// Package render converts snapshot metadata and observations into
// human-readable or machine-parseable output. Each format is a separate
// function; the top-level dispatchers select based on the format string.
package render

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/olekukonko/tablewriter"

	"github.com/f0rbit/corpus"
	"github.com/f0rbit/corpus/obs"
)

// Format constants matching --format flag values.
const (
	FormatTable = "table"
	FormatJSON  = "json"
	FormatJSONL = "jsonl"
)

const timeLayout = "2006-01-02 15:04:05"

// Metas writes a metadata listing to w in the given format.
func Metas(w io.Writer, format string, metas []corpus.SnapshotMeta) error {
	switch format {
	case FormatJSON:
		return renderJSON(w, metas)
	case FormatJSONL:
		for _, m := range metas {
			if err := renderJSONL(w, m); err != nil {
				return err
			}
		}
		return nil
	default:
		return metasTable(w, metas)
	}
}

// Meta writes a single metadata row, field per line in table mode.
func Meta(w io.Writer, format string, m corpus.SnapshotMeta) error {
	switch format {
	case FormatJSON, FormatJSONL:
		return renderJSON(w, m)
	default:
		return metaTable(w, m)
	}
}

// Observations writes an observation meta listing.
func Observations(w io.Writer, format string, metas []obs.Meta) error {
	switch format {
	case FormatJSON:
		return renderJSON(w, metas)
	case FormatJSONL:
		for _, m := range metas {
			if err := renderJSONL(w, m); err != nil {
				return err
			}
		}
		return nil
	default:
		return observationsTable(w, metas)
	}
}

// Value writes an arbitrary decoded payload as indented JSON.
func Value(w io.Writer, v any) error {
	return renderJSON(w, v)
}

func renderJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func renderJSONL(w io.Writer, v any) error {
	return json.NewEncoder(w).Encode(v)
}

func metasTable(w io.Writer, metas []corpus.SnapshotMeta) error {
	tw := tablewriter.NewWriter(w)
	tw.SetHeader([]string{"VERSION", "CREATED", "TYPE", "SIZE", "HASH", "TAGS"})
	tw.SetBorder(true)
	tw.SetRowLine(false)
	tw.SetHeaderAlignment(tablewriter.ALIGN_LEFT)
	tw.SetAlignment(tablewriter.ALIGN_LEFT)
	tw.SetColumnAlignment([]int{
		tablewriter.ALIGN_LEFT,
		tablewriter.ALIGN_LEFT,
		tablewriter.ALIGN_LEFT,
		tablewriter.ALIGN_RIGHT,
		tablewriter.ALIGN_LEFT,
		tablewriter.ALIGN_LEFT,
	})
	tw.SetAutoWrapText(false)

	for _, m := range metas {
		tw.Append([]string{
			m.Version,
			m.CreatedAt.UTC().Format(timeLayout),
			m.ContentType,
			fmt.Sprintf("%d", m.SizeBytes),
			shortHash(m.ContentHash),
			strings.Join(m.Tags, ","),
		})
	}
	tw.Render()
	return nil
}

func metaTable(w io.Writer, m corpus.SnapshotMeta) error {
	tw := tablewriter.NewWriter(w)
	tw.SetHeader([]string{"FIELD", "VALUE"})
	tw.SetBorder(true)
	tw.SetRowLine(false)
	tw.SetHeaderAlignment(tablewriter.ALIGN_LEFT)
	tw.SetAlignment(tablewriter.ALIGN_LEFT)
	tw.SetColWidth(80)
	tw.SetAutoWrapText(true)

	rows := [][]string{
		{"Store", m.StoreID},
		{"Version", m.Version},
		{"Created", m.CreatedAt.UTC().Format(timeLayout)},
		{"Content Type", m.ContentType},
		{"Size", fmt.Sprintf("%d bytes", m.SizeBytes)},
		{"Hash", m.ContentHash},
		{"Data Key", m.DataKey},
	}
	if m.InvokedAt != nil {
		rows = append(rows, []string{"Invoked", m.InvokedAt.UTC().Format(timeLayout)})
	}
	if len(m.Parents) > 0 {
		parents := make([]string, len(m.Parents))
		for i, p := range m.Parents {
			parents[i] = p.StoreID + "@" + p.Version
		}
		rows = append(rows, []string{"Parents", strings.Join(parents, ", ")})
	}
	if len(m.Tags) > 0 {
		rows = append(rows, []string{"Tags", strings.Join(m.Tags, ", ")})
	}
	for _, r := range rows {
		tw.Append(r)
	}
	tw.Render()
	return nil
}

func observationsTable(w io.Writer, metas []obs.Meta) error {
	tw := tablewriter.NewWriter(w)
	tw.SetHeader([]string{"ID", "TYPE", "SOURCE", "CREATED", "CONFIDENCE"})
	tw.SetBorder(true)
	tw.SetRowLine(false)
	tw.SetHeaderAlignment(tablewriter.ALIGN_LEFT)
	tw.SetAlignment(tablewriter.ALIGN_LEFT)
	tw.SetAutoWrapText(false)

	for _, m := range metas {
		conf := "-"
		if m.Confidence != nil {
			conf = fmt.Sprintf("%.2f", *m.Confidence)
		}
		tw.Append([]string{
			m.ID,
			m.Type,
			m.Source.Key(),
			m.CreatedAt.UTC().Format(timeLayout),
			conf,
		})
	}
	tw.Render()
	return nil
}

func shortHash(h string) string {
	if len(h) > 12 {
		return h[:12]
	}
	return h
}

// ParseInstant parses a --before/--after flag value: RFC 3339 or the short
// date form.
func ParseInstant(s string) (time.Time, error) {
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return t, nil
	}
	t, err := time.Parse("2006-01-02", s)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid instant %q: expected RFC 3339 or YYYY-MM-DD", s)
	}
	return t, nil
}
