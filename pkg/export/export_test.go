package export

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func defaultersDataset() Dataset {
	return Dataset{
		Columns: []Column{
			{Header: "Roll Number"},
			{Header: "Student"},
			{Header: "Balance", Numeric: true},
		},
		Rows: [][]string{
			{"21CS001", "Asha Rao", "13000.00"},
			{"21CS002", "Vikram Iyer", "5000.00"},
		},
	}
}

func TestCSVRenderKeepsColumnOrder(t *testing.T) {
	payload, err := NewCSVExporter().Render(defaultersDataset())
	require.NoError(t, err)
	assert.Equal(t, "Roll Number,Student,Balance\n21CS001,Asha Rao,13000.00\n21CS002,Vikram Iyer,5000.00\n", string(payload))
}

func TestCSVRenderRejectsRaggedRows(t *testing.T) {
	data := defaultersDataset()
	data.Rows[1] = []string{"21CS002"}
	_, err := NewCSVExporter().Render(data)
	require.Error(t, err)
}

func TestCSVRenderRequiresColumns(t *testing.T) {
	_, err := NewCSVExporter().Render(Dataset{})
	require.Error(t, err)
}

func TestPDFRenderProducesDocument(t *testing.T) {
	payload, err := NewPDFExporter().Render(defaultersDataset(), "Fee Defaulters")
	require.NoError(t, err)
	require.NotEmpty(t, payload)
	assert.Equal(t, "%PDF", string(payload[:4]))
}
