package main

import (
	"bytes"
	"testing"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"librarydesk/internal/loan"
)

func TestRender(t *testing.T) {
	returned := "2024-03-15"
	loans := []loan.Summary{{
		Loan:       loan.Loan{ID: 4, MemberID: 7, LoanDate: "2024-03-01", ReturnDate: &returned, Status: loan.StatusReturned},
		MemberName: "Ada Lovelace",
		Books:      []string{"Dune (ID: 1)"},
	}}
	rows := func(tw table.Writer) {
		for _, l := range loans {
			tw.AppendRow(table.Row{l.ID, l.MemberName, deref(l.ReturnDate)})
		}
	}

	t.Run("table", func(t *testing.T) {
		var buf bytes.Buffer
		require.NoError(t, render(&buf, formatTable, loans, table.Row{"ID", "Member", "Returned"}, rows))
		assert.Contains(t, buf.String(), "Ada Lovelace")
		assert.Contains(t, buf.String(), "2024-03-15")
	})

	t.Run("json", func(t *testing.T) {
		var buf bytes.Buffer
		require.NoError(t, render(&buf, formatJSON, loans, nil, rows))
		assert.Contains(t, buf.String(), `"member_name": "Ada Lovelace"`)
		assert.Contains(t, buf.String(), `"books": [`)
	})

	t.Run("yaml uses json names", func(t *testing.T) {
		var buf bytes.Buffer
		require.NoError(t, render(&buf, formatYAML, loans, nil, rows))
		assert.Contains(t, buf.String(), "member_name: Ada Lovelace")
		assert.Regexp(t, `return_date: "?2024-03-15"?`, buf.String())
	})
}

func TestParseFormat(t *testing.T) {
	for _, f := range []string{"table", "json", "yaml"} {
		got, err := parseFormat(f)
		assert.NoError(t, err)
		assert.Equal(t, f, got)
	}
	_, err := parseFormat("csv")
	assert.Error(t, err)
}
