package sim

import (
	"bytes"
	"testing"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var exportRows = []ResultRow{
	{CloudletID: 1005, VmID: 1004, DatacenterID: 1002, StartTime: 0.1, FinishTime: 40.1, Status: "SUCCESS", Length: 40000},
	{CloudletID: 1006, VmID: 1004, DatacenterID: 1002, StartTime: 0.1, FinishTime: 12.3456, Status: "FAILED", Length: 7},
}

func TestWriteCSV_Format(t *testing.T) {
	var buf bytes.Buffer

	require.NoError(t, WriteCSV(&buf, exportRows))

	want := "id,vm,dc,start,finish,status,length\n" +
		"1005,1004,1002,0.10,40.10,SUCCESS,40000\n" +
		"1006,1004,1002,0.10,12.35,FAILED,7\n"
	assert.Equal(t, want, buf.String())
}

func TestWriteCSV_NoRows_HeaderOnly(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteCSV(&buf, nil))
	assert.Equal(t, "id,vm,dc,start,finish,status,length\n", buf.String())
}

func TestExportCSV_WritesFile(t *testing.T) {
	// GIVEN an in-memory filesystem
	fs := afero.NewMemMapFs()

	// WHEN rows are exported
	require.NoError(t, ExportCSV(fs, "results.csv", exportRows))

	// THEN the file holds the CSV text
	data, err := afero.ReadFile(fs, "results.csv")
	require.NoError(t, err)
	assert.Contains(t, string(data), "1005,1004,1002,0.10,40.10,SUCCESS,40000")
}

func TestExportCSV_ReplacesExistingFile(t *testing.T) {
	fs := afero.NewMemMapFs()
	require.NoError(t, afero.WriteFile(fs, "results.csv", []byte("stale content that is longer than the header line\n"), 0o644))

	require.NoError(t, ExportCSV(fs, "results.csv", nil))

	data, err := afero.ReadFile(fs, "results.csv")
	require.NoError(t, err)
	assert.Equal(t, "id,vm,dc,start,finish,status,length\n", string(data))
}

func TestExportCSV_ReadOnlyFs_ReturnsError(t *testing.T) {
	fs := afero.NewReadOnlyFs(afero.NewMemMapFs())

	err := ExportCSV(fs, "results.csv", exportRows)

	require.Error(t, err)
	assert.Contains(t, err.Error(), "results.csv")
}
