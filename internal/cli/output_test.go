package cli

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOutputFormatter_JSONSuccess(t *testing.T) {
	buf := &bytes.Buffer{}
	formatter := &OutputFormatter{
		Format: "json",
		Writer: buf,
	}

	err := formatter.Success(idResult{Kind: "customer", ID: "7"})
	require.NoError(t, err)

	var resp struct {
		Status string            `json:"status"`
		Data   map[string]string `json:"data"`
	}
	err = json.Unmarshal(buf.Bytes(), &resp)
	require.NoError(t, err)
	assert.Equal(t, "ok", resp.Status)
	assert.Equal(t, map[string]string{"id": "7"}, resp.Data)
}

func TestOutputFormatter_JSONError(t *testing.T) {
	buf := &bytes.Buffer{}
	formatter := &OutputFormatter{
		Format: "json",
		Writer: buf,
	}

	err := formatter.Error(NewExitError(ExitCommandError, "invalid config"))
	require.NoError(t, err)

	var resp CLIResponse
	err = json.Unmarshal(buf.Bytes(), &resp)
	require.NoError(t, err)
	assert.Equal(t, "error", resp.Status)
	require.NotNil(t, resp.Error)
	assert.Equal(t, ExitCommandError, resp.Error.Code)
	assert.Equal(t, "invalid config", resp.Error.Message)
}

func TestOutputFormatter_TextSuccess(t *testing.T) {
	buf := &bytes.Buffer{}
	formatter := &OutputFormatter{
		Format: "text",
		Writer: buf,
	}

	err := formatter.Success(message{Text: "Cleared all data"})
	require.NoError(t, err)
	assert.Equal(t, "Cleared all data\n", buf.String())
}

func TestOutputFormatter_TextError(t *testing.T) {
	buf := &bytes.Buffer{}
	formatter := &OutputFormatter{
		Format: "text",
		Writer: buf,
	}

	err := formatter.Error(errors.New("disk full"))
	require.NoError(t, err)
	assert.Equal(t, "Error: disk full\n", buf.String())
}

func TestExitError(t *testing.T) {
	cause := errors.New("boom")
	err := WrapExitError(ExitFailure, "failed to add customer", cause)

	assert.Equal(t, "failed to add customer: boom", err.Error())
	assert.ErrorIs(t, err, cause)
	assert.Equal(t, ExitFailure, GetExitCode(err))
	assert.Equal(t, ExitCommandError, GetExitCode(fmt.Errorf("wrapped: %w", NewExitError(ExitCommandError, "bad"))))
	assert.Equal(t, ExitFailure, GetExitCode(cause))
	assert.Equal(t, ExitSuccess, GetExitCode(nil))
}

func TestCustomerTable(t *testing.T) {
	table := customerTable{
		{ID: "12", Date: "2024-05-01", Name: "Ann", Phone: ""},
		{ID: "3", Date: "2024-04-30", Name: "Bartholomew", Phone: "555"},
	}

	want := "ID  DATE        NAME         PHONE\n" +
		"12  2024-05-01  Ann          \n" +
		"3   2024-04-30  Bartholomew  555"
	assert.Equal(t, want, table.String())
}

func TestInvoiceTable_Empty(t *testing.T) {
	assert.Equal(t, "ID  DATE  NUMBER  CUSTOMER", invoiceTable(nil).String())
}

func TestInvoiceTable_JSONUsesRecordFields(t *testing.T) {
	data, err := json.Marshal(invoiceTable{{ID: "1", Date: "2024-01-01", Number: "INV-1", CustomerID: "4"}})
	require.NoError(t, err)
	assert.JSONEq(t, `[{"id":"1","date":"2024-01-01","number":"INV-1","customerId":"4"}]`, string(data))

}
