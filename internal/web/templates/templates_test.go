package templates

import (
	"bytes"
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/JonMunkholm/bulkload/internal/message"
	"github.com/JonMunkholm/bulkload/internal/service"
)

func TestErrorAlert_Escapes(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, ErrorAlert("<b>bad</b>", "try again", "FILE005").Render(context.Background(), &buf))

	out := buf.String()
	require.Contains(t, out, "&lt;b&gt;bad&lt;/b&gt;")
	require.Contains(t, out, "try again")
	require.Contains(t, out, "Code: FILE005")
}

func TestUploadReport(t *testing.T) {
	r := &service.Report{
		UploadID: "u1",
		Target:   "cities",
		FileName: "cities.txt",
		Status:   service.StatusInvalid,
		Valid:    1,
		Errors: []service.LineErrors{
			{Line: 2, Messages: []message.Message{{ID: "VAL102", Text: "line 2: city must be at least 3 characters"}}},
			{Line: 3, Messages: []message.Message{{ID: "VAL101", Text: "line 3: the record layout is invalid"}}},
		},
	}

	var buf bytes.Buffer
	require.NoError(t, UploadReport(r).Render(context.Background(), &buf))
	out := buf.String()

	require.Contains(t, out, `data-status="invalid"`)
	require.Contains(t, out, "<td>2</td><td>line 2: city must be at least 3 characters</td>")
	require.Contains(t, out, "<td>3</td>")
	require.Equal(t, 2, strings.Count(out, "<tr><td>"))
}

func TestUploadReport_FileLevelMessage(t *testing.T) {
	r := &service.Report{
		Status: service.StatusEmpty,
		Errors: []service.LineErrors{{Messages: []message.Message{{Text: "file empty.txt contains no records"}}}},
	}

	var buf bytes.Buffer
	require.NoError(t, UploadReport(r).Render(context.Background(), &buf))
	require.Contains(t, buf.String(), "<td>-</td><td>file empty.txt contains no records</td>")
}
