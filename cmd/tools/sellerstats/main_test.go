package main

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/noah-isme/backend-sellerstats/internal/sellerstats"
)

const sample = `{
  "sellers": [
    {"id": "s1", "first_name": "Ana", "last_name": "Lima"},
    {"id": "s2", "first_name": "Bo", "last_name": "Chen"}
  ],
  "products": [{"sku": "x", "purchase_price": 10}],
  "purchase_records": [
    {"seller_id": "s1", "total_amount": 100, "items": [{"sku": "x", "sale_price": 50, "quantity": 2, "discount": 0}]},
    {"seller_id": "s2", "total_amount": 20, "items": [{"sku": "x", "sale_price": 20, "quantity": 1, "discount": 0}]}
  ]
}`

func runCLI(t *testing.T, stdin string, args ...string) (int, []sellerstats.SellerReport, string) {
	t.Helper()
	var stdout, stderr bytes.Buffer
	code := run(args, strings.NewReader(stdin), &stdout, &stderr)
	var report []sellerstats.SellerReport
	if code == exitOK && stdout.Len() > 0 {
		require.NoError(t, json.Unmarshal(stdout.Bytes(), &report))
	}
	return code, report, stderr.String()
}

func TestRunFromStdin(t *testing.T) {
	code, report, _ := runCLI(t, sample)
	require.Equal(t, exitOK, code)
	require.Len(t, report, 2)
	require.Equal(t, "s1", report[0].SellerID)
	require.Equal(t, 12.0, report[0].Bonus)
	require.Equal(t, "s2", report[1].SellerID)
	require.Equal(t, 1.0, report[1].Bonus)
}

func TestRunFromFileWithPolicy(t *testing.T) {
	path := filepath.Join(t.TempDir(), "sales.json")
	require.NoError(t, os.WriteFile(path, []byte(sample), 0o600))

	var stdout, stderr bytes.Buffer
	code := run([]string{"-input", path, "-bonus", "flat-5", "-pretty"}, strings.NewReader(""), &stdout, &stderr)
	require.Equal(t, exitOK, code)
	require.Contains(t, stdout.String(), "\n  {")

	var report []sellerstats.SellerReport
	require.NoError(t, json.Unmarshal(stdout.Bytes(), &report))
	require.Equal(t, 4.0, report[0].Bonus)
	require.Equal(t, 0.5, report[1].Bonus)
}

func TestRunExitCodes(t *testing.T) {
	code, _, _ := runCLI(t, `[]`)
	require.Equal(t, exitInvalid, code)

	code, _, _ = runCLI(t, sample, "-bonus", "lottery")
	require.Equal(t, exitInvalid, code)

	dangling := strings.Replace(sample, `"seller_id": "s2"`, `"seller_id": "s9"`, 1)
	code, _, stderr := runCLI(t, dangling, "-check-refs")
	require.Equal(t, exitInvalid, code)
	require.Contains(t, stderr, "s9")

	code, _, _ = runCLI(t, "", "-input", filepath.Join(t.TempDir(), "missing.json"))
	require.Equal(t, exitError, code)

	code, _, _ = runCLI(t, "", "-no-such-flag")
	require.Equal(t, exitError, code)
}
