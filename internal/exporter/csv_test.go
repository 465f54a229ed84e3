package exporter

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"carviz/internal/config"
	"carviz/pkg/contracts/domain"
)

func sampleView() domain.FilteredView {
	return domain.FilteredView{
		Columns: []string{"Make", "Model", "Type", "Origin", "MSRP", "Invoice"},
		Listings: []domain.Listing{
			{Type: "Sedan", Make: "Acme", Model: "X", MSRP: 20000, Invoice: 18000, Extra: map[string]string{"Origin": "USA"}},
			{Type: "SUV", Make: "Acme", Model: "Z, Limited", MSRP: 41500, Invoice: 38000, Extra: map[string]string{"Origin": "Asia"}},
		},
	}
}

func TestWriteCSV(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteCSV(&buf, sampleView()))

	expected := "Make,Model,Type,Origin,MSRP,Invoice\n" +
		"Acme,X,Sedan,USA,20000,18000\n" +
		"Acme,\"Z, Limited\",SUV,Asia,41500,38000\n"
	assert.Equal(t, expected, buf.String())
}

func TestWriteCSV_EmptyViewKeepsHeader(t *testing.T) {
	data, err := CSVBytes(domain.FilteredView{Columns: domain.RequiredColumns})
	require.NoError(t, err)
	assert.Equal(t, "Type,Make,Model,MSRP,Invoice\n", string(data))
}

func TestWriteCSV_DefaultColumns(t *testing.T) {
	view := domain.FilteredView{Listings: []domain.Listing{
		{Type: "Sedan", Make: "Acme", Model: "X", MSRP: 1, Invoice: 2},
	}}
	data, err := CSVBytes(view)
	require.NoError(t, err)
	assert.Equal(t, "Type,Make,Model,MSRP,Invoice\nSedan,Acme,X,1,2\n", string(data))
}

func TestWriteCSV_Deterministic(t *testing.T) {
	first, err := CSVBytes(sampleView())
	require.NoError(t, err)
	second, err := CSVBytes(sampleView())
	require.NoError(t, err)
	assert.Equal(t, first, second)
	assert.False(t, bytes.HasPrefix(first, utf8BOM))
}

func TestCSVWriter_WriteFile(t *testing.T) {
	cfg := config.Default()
	cfg.Paths.BaseDir = t.TempDir()
	paths, err := cfg.GetPaths()
	require.NoError(t, err)

	writer := NewCSVWriter(paths, nil)

	t.Run("relative path lands in exports", func(t *testing.T) {
		full, err := writer.WriteFile(config.ExportFileName, sampleView(), WriteOptions{})
		require.NoError(t, err)
		assert.Equal(t, filepath.Join(paths.ExportsDir, config.ExportFileName), full)

		data, err := os.ReadFile(full)
		require.NoError(t, err)
		expected, err := CSVBytes(sampleView())
		require.NoError(t, err)
		assert.Equal(t, expected, data)
	})

	t.Run("bom prefix", func(t *testing.T) {
		full, err := writer.WriteFile("bom.csv", sampleView(), WriteOptions{BOMPrefix: true})
		require.NoError(t, err)
		data, err := os.ReadFile(full)
		require.NoError(t, err)
		assert.True(t, bytes.HasPrefix(data, utf8BOM))
	})

	t.Run("absolute path", func(t *testing.T) {
		abs := filepath.Join(t.TempDir(), "nested", "out.csv")
		full, err := writer.WriteFile(abs, sampleView(), WriteOptions{})
		require.NoError(t, err)
		assert.Equal(t, abs, full)
		assert.FileExists(t, abs)
	})
}
