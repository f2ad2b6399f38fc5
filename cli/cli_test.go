package cli

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const upstreamPayload = `[
	{"id": 1, "S1_Name_of_Medicinal_product": "Paracetamol 500mg", "s_8_authorisation_number": "PA-1", "S3_pharmaceutical_form": "Tablet", "country": "IE"},
	{"id": 2, "S1_Name_of_Medicinal_product": "Paracetamol 1g", "s_8_authorisation_number": "PA-2", "S3_pharmaceutical_form": "Tablet", "S2_Composition": "Paracetamol 1 g"},
	{"id": 3, "S1_Name_of_Medicinal_product": "Ibuprofen 200mg", "s_8_authorisation_number": "IB-9"}
]`

// withUpstream points the configuration at a test server
func withUpstream(t *testing.T, handler http.HandlerFunc) {
	t.Helper()
	upstream := httptest.NewServer(handler)
	t.Cleanup(upstream.Close)

	t.Setenv("SMPC_API_URL", upstream.URL)
	t.Setenv("ENV", "test")
	t.Setenv("LOG_LEVEL", "error")
	t.Setenv("LOG_DIR", "")
	t.Setenv("REFRESH_SCHEDULE", "")
	t.Setenv("FIELD_NAMES_FILE", "")
	t.Setenv("FETCH_TIMEOUT", "5s")
}

func serveJSON(payload string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprint(w, payload)
	}
}

func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out, errOut bytes.Buffer
	cmd := New()
	cmd.SetOut(&out)
	cmd.SetErr(&errOut)
	cmd.SetArgs(append(args, "--env-file", filepath.Join(t.TempDir(), "missing.env")))
	err := cmd.ExecuteContext(context.Background())
	return out.String(), err
}

func TestVersion(t *testing.T) {
	out, err := run(t, "version")
	require.NoError(t, err)
	assert.Contains(t, out, "smpc dev")
}

func TestList(t *testing.T) {
	withUpstream(t, serveJSON(upstreamPayload))

	out, err := run(t, "list", "--name", "paracetamol")
	require.NoError(t, err)
	assert.Contains(t, out, "Paracetamol 500mg")
	assert.Contains(t, out, "Paracetamol 1g")
	assert.NotContains(t, out, "Ibuprofen")
	assert.Contains(t, out, "Medicinal Products (2)")
}

func TestListJSON(t *testing.T) {
	withUpstream(t, serveJSON(upstreamPayload))

	out, err := run(t, "list", "--auth", "ib", "--json")
	require.NoError(t, err)

	var items []listItem
	require.NoError(t, json.Unmarshal([]byte(out), &items))
	require.Len(t, items, 1)
	assert.Equal(t, "3", items[0].Key)
	assert.Equal(t, "N/A", items[0].PharmaceuticalForm)
	assert.Equal(t, "N/A", items[0].Composition)
}

func TestListNoMatch(t *testing.T) {
	withUpstream(t, serveJSON(upstreamPayload))

	out, err := run(t, "list", "--name", "aspirin")
	require.NoError(t, err)
	assert.Contains(t, out, "No data found matching your criteria")
}

func TestListRejectsInvalidFilter(t *testing.T) {
	withUpstream(t, serveJSON(upstreamPayload))

	_, err := run(t, "list", "--name", strings.Repeat("a", 201))
	assert.ErrorContains(t, err, "filter too long")

	_, err = run(t, "list", "--auth", "PA\x00")
	assert.ErrorContains(t, err, "control characters")
}

func TestListUpstreamError(t *testing.T) {
	withUpstream(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	})

	_, err := run(t, "list")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "HTTP error! status: 500")
}

func TestCompareJSON(t *testing.T) {
	withUpstream(t, serveJSON(upstreamPayload))

	out, err := run(t, "compare", "1", "2", "--json")
	require.NoError(t, err)

	var res compareOutput
	require.NoError(t, json.Unmarshal([]byte(out), &res))
	assert.Equal(t, "Comparison View (2 items)", res.Title)
	assert.Equal(t, [2]string{"Paracetamol 500mg", "Paracetamol 1g"}, res.Headers)
	// id, name, auth number, composition and country
	assert.Equal(t, 5, res.DifferentCount)

	only, err := run(t, "compare", "1", "2", "--json", "--only-diff")
	require.NoError(t, err)
	var diffOnly compareOutput
	require.NoError(t, json.Unmarshal([]byte(only), &diffOnly))
	assert.Len(t, diffOnly.Rows, 5)
	for _, row := range diffOnly.Rows {
		assert.True(t, row.Different, row.Field)
	}
}

func TestCompareTable(t *testing.T) {
	withUpstream(t, serveJSON(upstreamPayload))

	out, err := run(t, "compare", "1", "2")
	require.NoError(t, err)
	assert.Contains(t, out, "Comparison View (2 items)")
	assert.Contains(t, out, "Pharmaceutical Form")
}

func TestCompareErrors(t *testing.T) {
	withUpstream(t, serveJSON(upstreamPayload))

	tests := []struct {
		name string
		args []string
		want string
	}{
		{"unknown key", []string{"compare", "1", "99"}, `record "99" not found`},
		{"same key", []string{"compare", "1", "1"}, "two different records"},
		{"key with a space", []string{"compare", "1", "a b"}, `record "a b" not found`},
		{"invalid key", []string{"compare", "1", "a\nb"}, "invalid record key"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := run(t, tt.args...)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.want)
		})
	}

	_, err := run(t, "compare", "1")
	assert.Error(t, err, "compare needs exactly two keys")
}

func TestFields(t *testing.T) {
	withUpstream(t, serveJSON(upstreamPayload))

	out, err := run(t, "fields", "S1_Name_of_Medicinal_product", "custom_field", "--json")
	require.NoError(t, err)

	var labels map[string]string
	require.NoError(t, json.Unmarshal([]byte(out), &labels))
	assert.Equal(t, map[string]string{
		"S1_Name_of_Medicinal_product": "Medicinal Product Name",
		"custom_field":                 "Custom Field",
	}, labels)

	out, err = run(t, "fields")
	require.NoError(t, err)
	assert.Contains(t, out, "Pharmaceutical Form")
}

func freePort(t *testing.T) string {
	t.Helper()
	l, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	defer l.Close()
	_, port, err := net.SplitHostPort(l.Addr().String())
	require.NoError(t, err)
	return port
}

func TestServe(t *testing.T) {
	withUpstream(t, serveJSON(upstreamPayload))
	port := freePort(t)
	t.Setenv("PORT", port)
	t.Setenv("ADDRESS", "127.0.0.1")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	done := make(chan error, 1)
	go func() {
		cmd := New()
		cmd.SetOut(&bytes.Buffer{})
		cmd.SetArgs([]string{"serve", "--env-file", filepath.Join(t.TempDir(), "missing.env")})
		done <- cmd.ExecuteContext(ctx)
	}()

	base := "http://127.0.0.1:" + port
	require.Eventually(t, func() bool {
		resp, err := http.Get(base + "/api/records?name=para")
		if err != nil {
			return false
		}
		defer resp.Body.Close()
		return resp.StatusCode == http.StatusOK
	}, 5*time.Second, 50*time.Millisecond)

	resp, err := http.Get(base + "/api/compare?sel=1&sel=2")
	require.NoError(t, err)
	var body map[string]any
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	resp.Body.Close()
	assert.Equal(t, "table", body["mode"])

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(10 * time.Second):
		t.Fatal("serve did not stop after cancel")
	}
}
