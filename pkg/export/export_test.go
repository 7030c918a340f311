package export

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleTable() Table {
	return Table{
		Title:   "Goal records",
		Headers: []string{"week", "steps %", "success"},
		Rows: [][]string{
			{"2024-06-03", "104.2", "true"},
			{"2024-06-10", "88.0", "false"},
		},
	}
}

func TestRenderCSV(t *testing.T) {
	out, err := Render(sampleTable(), FormatCSV)
	require.NoError(t, err)
	assert.Equal(t, "week,steps %,success\n2024-06-03,104.2,true\n2024-06-10,88.0,false\n", string(out))
}

func TestRenderPDF(t *testing.T) {
	out, err := Render(sampleTable(), FormatPDF)
	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(out, []byte("%PDF")))
}

func TestRenderValidatesShape(t *testing.T) {
	_, err := Render(Table{}, FormatCSV)
	assert.Error(t, err)

	_, err = Render(Table{Headers: []string{"a", "b"}, Rows: [][]string{{"only-one"}}}, FormatCSV)
	assert.Error(t, err)
}

func TestParseFormat(t *testing.T) {
	f, err := ParseFormat("PDF")
	require.NoError(t, err)
	assert.Equal(t, FormatPDF, f)
	assert.Equal(t, "application/pdf", f.ContentType())

	f, err = ParseFormat("")
	require.NoError(t, err)
	assert.Equal(t, FormatCSV, f)

	_, err = ParseFormat("xlsx")
	assert.Error(t, err)
}
