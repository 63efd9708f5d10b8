package main

import (
	"encoding/csv"
	"fmt"
	"io"

	jsoniter "github.com/json-iterator/go"

	"github.com/fortuna/puckline/internal/pbp"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// writeRecords writes the batch as one concatenated table.
func writeRecords(w io.Writer, format string, records []*pbp.GameRecord) error {
	switch format {
	case "csv":
		cw := csv.NewWriter(w)
		if err := cw.Write(pbp.Columns()); err != nil {
			return err
		}
		for _, rec := range records {
			if err := cw.WriteAll(rec.Table()); err != nil {
				return fmt.Errorf("writing %s: %w", rec.GameID, err)
			}
		}
		cw.Flush()
		return cw.Error()
	case "json":
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		if records == nil {
			records = []*pbp.GameRecord{}
		}
		return enc.Encode(records)
	}
	return fmt.Errorf("unknown format %q (want csv or json)", format)
}
