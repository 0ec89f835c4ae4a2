package main

import (
	"bytes"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/fatih/color"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBandString(t *testing.T) {
	color.NoColor = true
	assert.Equal(t, "Overdue (Act)", bandString("Overdue", "Act"))
	assert.Equal(t, "Terminal", bandString("Terminal", ""))
}

func TestCountsCommand(t *testing.T) {
	color.NoColor = true
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/compliance/counts", r.URL.Path)
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"overdue":3,"act_soon":2,"compliant":1}`))
	}))
	defer srv.Close()

	var out bytes.Buffer
	cmd := NewCommand()
	cmd.SetOut(&out)
	cmd.SetArgs([]string{"counts", "--server", srv.URL})
	require.NoError(t, cmd.Execute())

	assert.Equal(t, "Overdue:   3\nAct soon:  2\nCompliant: 1\n", out.String())
}

func TestCompleteCommand_RejectsBadID(t *testing.T) {
	cmd := NewCommand()
	cmd.SetOut(&bytes.Buffer{})
	cmd.SetErr(&bytes.Buffer{})
	cmd.SetArgs([]string{"complete", "abc"})
	assert.Error(t, cmd.Execute())
}
