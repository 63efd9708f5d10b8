package main

import (
	"bytes"
	"encoding/csv"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fortuna/puckline/internal/backfill"
	"github.com/fortuna/puckline/internal/config"
	"github.com/fortuna/puckline/internal/pbp"
)

func sampleRecords() []*pbp.GameRecord {
	rec := func(id string, n int) *pbp.GameRecord {
		g := &pbp.GameRecord{GameID: id, Season: "20232024", HomeTeam: "FLA", AwayTeam: "T.B"}
		for i := 1; i <= n; i++ {
			g.Rows = append(g.Rows, pbp.Row{Event: pbp.Event{EventIndex: i, Period: 1, Type: "FAC"}})
		}
		return g
	}
	return []*pbp.GameRecord{rec("2023020001", 2), rec("2023020002", 3)}
}

func TestWriteRecordsCSV(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, writeRecords(&buf, "csv", sampleRecords()))

	rows, err := csv.NewReader(&buf).ReadAll()
	require.NoError(t, err)
	require.Len(t, rows, 6, "header plus five events")
	assert.Equal(t, pbp.Columns(), rows[0])
	assert.Equal(t, "2023020001", rows[1][0])
	assert.Equal(t, "2023020002", rows[5][0])
}

func TestWriteRecordsJSON(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, writeRecords(&buf, "json", sampleRecords()))

	var out []pbp.GameRecord
	require.NoError(t, json.Unmarshal(buf.Bytes(), &out))
	require.Len(t, out, 2)
	assert.Len(t, out[1].Rows, 3)

	buf.Reset()
	require.NoError(t, writeRecords(&buf, "json", nil))
	assert.JSONEq(t, "[]", buf.String())
}

func TestWriteRecordsUnknownFormat(t *testing.T) {
	assert.Error(t, writeRecords(&bytes.Buffer{}, "xml", nil))
}

func TestParseProviderFlag(t *testing.T) {
	cfg := &config.Config{CoordOrder: []string{"espn", "api"}}

	ps, err := parseProviderFlag("", cfg)
	require.NoError(t, err)
	assert.Equal(t, []backfill.Provider{backfill.ProviderESPN, backfill.ProviderAPI}, ps)

	ps, err = parseProviderFlag("api, ", cfg)
	require.NoError(t, err)
	assert.Equal(t, []backfill.Provider{backfill.ProviderAPI}, ps)

	_, err = parseProviderFlag("statsapi", cfg)
	assert.Error(t, err)
}
