package export

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCSVExporterRendersRoster(t *testing.T) {
	exporter := NewCSVExporter()

	out, err := exporter.Render(Dataset{
		Headers: []string{"Task", "Date", "Name", "Item"},
		Rows: []map[string]string{
			{"Task": "Setup", "Date": "2025-06-01", "Name": "Pat Lee", "Item": "tables"},
			{"Task": "Cleanup", "Date": "2025-06-01", "Name": "Sam Roe"},
		},
	})
	require.NoError(t, err)
	assert.Equal(t, "Task,Date,Name,Item\nSetup,2025-06-01,Pat Lee,tables\nCleanup,2025-06-01,Sam Roe,\n", string(out))

	_, err = exporter.Render(Dataset{})
	require.Error(t, err)
}
