// ABOUTME: End-to-end tests for the document commands against a temp sqlite store
// ABOUTME: Ingest, query, list, export, and reset through the root command

package commands

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

// runCLI executes the root command with args and returns stdout
func runCLI(t *testing.T, args ...string) (string, error) {
	t.Helper()
	cmd := NewRootCmd()
	var stdout, stderr bytes.Buffer
	cmd.SetOut(&stdout)
	cmd.SetErr(&stderr)
	cmd.SetIn(strings.NewReader(""))
	cmd.SetArgs(args)
	err := cmd.Execute()
	return stdout.String(), err
}

// testConfig writes a config selecting offline providers and a temp database
func testConfig(t *testing.T) string {
	t.Helper()
	t.Setenv("OPENAI_API_KEY", "")
	dir := t.TempDir()
	path := filepath.Join(dir, "docqa.yaml")
	content := `store:
  backend: sqlite
  db_path: ` + filepath.Join(dir, "docqa.db") + `
embedding:
  embedder: hash
  generator: extractive
  dimension: 64
`
	if err := os.WriteFile(path, []byte(content), 0600); err != nil {
		t.Fatalf("writing config: %v", err)
	}
	return path
}

func TestIngestQueryListReset(t *testing.T) {
	cfg := testConfig(t)

	out, err := runCLI(t, "-c", cfg, "ingest", "The sky is blue.")
	if err != nil {
		t.Fatalf("ingest error = %v", err)
	}
	if !strings.Contains(out, "Ingested text") {
		t.Errorf("ingest output = %q", out)
	}
	if _, err := runCLI(t, "-c", cfg, "ingest", "--meta", "source=news", "Stocks rose today."); err != nil {
		t.Fatalf("ingest error = %v", err)
	}

	out, err = runCLI(t, "-c", cfg, "--format", "json", "query", "-k", "1", "--mode", "db_only", "What color is the sky?")
	if err != nil {
		t.Fatalf("query error = %v", err)
	}
	var q queryOutput
	if err := json.Unmarshal([]byte(out), &q); err != nil {
		t.Fatalf("query output is not JSON: %v\n%s", err, out)
	}
	if len(q.RetrievedChunks) != 1 || q.RetrievedChunks[0] != "The sky is blue." {
		t.Errorf("retrieved = %q, want the sky chunk", q.RetrievedChunks)
	}
	if q.ResponseMode != "db_only" || q.Response != "The sky is blue." {
		t.Errorf("query = %+v", q)
	}

	out, err = runCLI(t, "-c", cfg, "list")
	if err != nil {
		t.Fatalf("list error = %v", err)
	}
	if !strings.Contains(out, "Total: 2 document(s)") {
		t.Errorf("list output = %q", out)
	}

	out, err = runCLI(t, "-c", cfg, "reset", "--confirm")
	if err != nil {
		t.Fatalf("reset error = %v", err)
	}
	if !strings.Contains(out, "Removed 2 document(s)") {
		t.Errorf("reset output = %q", out)
	}

	out, err = runCLI(t, "-c", cfg, "list")
	if err != nil {
		t.Fatalf("list error = %v", err)
	}
	if !strings.Contains(out, "No documents found") {
		t.Errorf("list after reset = %q", out)
	}
}

func TestIngest_Files(t *testing.T) {
	cfg := testConfig(t)
	dir := t.TempDir()

	md := filepath.Join(dir, "notes.md")
	if err := os.WriteFile(md, []byte("# Notes\n\nGrass is green."), 0600); err != nil {
		t.Fatal(err)
	}
	bin := filepath.Join(dir, "image.png")
	if err := os.WriteFile(bin, []byte{0x89, 'P', 'N', 'G'}, 0600); err != nil {
		t.Fatal(err)
	}

	out, err := runCLI(t, "-c", cfg, "--format", "json", "ingest", "--file", md)
	if err != nil {
		t.Fatalf("ingest error = %v", err)
	}
	var summaries []ingestSummary
	if err := json.Unmarshal([]byte(out), &summaries); err != nil {
		t.Fatalf("ingest output is not JSON: %v\n%s", err, out)
	}
	if len(summaries) != 1 || summaries[0].Source != "notes.md" || summaries[0].Chunks != 1 {
		t.Errorf("summaries = %+v", summaries)
	}

	if _, err := runCLI(t, "-c", cfg, "ingest", "--file", bin); err == nil {
		t.Error("expected unsupported format error for .png")
	}
}

func TestIngest_Rejections(t *testing.T) {
	cfg := testConfig(t)

	tests := []struct {
		name string
		args []string
	}{
		{"no text", []string{"ingest"}},
		{"blank text", []string{"ingest", "   "}},
		{"file and text", []string{"ingest", "--file", "a.txt", "text"}},
		{"missing file", []string{"ingest", "--file", "/nonexistent/a.txt"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			args := append([]string{"-c", cfg}, tt.args...)
			if _, err := runCLI(t, args...); err == nil {
				t.Error("expected error, got nil")
			}
		})
	}
}

func TestIngest_DuplicateID(t *testing.T) {
	cfg := testConfig(t)

	if _, err := runCLI(t, "-c", cfg, "ingest", "--id", "doc-1", "first"); err != nil {
		t.Fatalf("ingest error = %v", err)
	}
	if _, err := runCLI(t, "-c", cfg, "ingest", "--id", "doc-1", "second"); err == nil {
		t.Error("expected duplicate id error")
	}
}

func TestQuery_Rejections(t *testing.T) {
	cfg := testConfig(t)

	if _, err := runCLI(t, "-c", cfg, "query", "--mode", "poetry", "sky"); err == nil {
		t.Error("expected invalid mode error")
	}
	if _, err := runCLI(t, "-c", cfg, "query", "-k", "-1", "sky"); err == nil {
		t.Error("expected negative k error")
	}
	if _, err := runCLI(t, "-c", cfg, "query"); err == nil {
		t.Error("expected missing question error")
	}
}

func TestQuery_EmptyStore(t *testing.T) {
	cfg := testConfig(t)

	out, err := runCLI(t, "-c", cfg, "-q", "query", "--mode", "db_only", "anything at all")
	if err != nil {
		t.Fatalf("query error = %v", err)
	}
	if strings.TrimSpace(out) != "No relevant data found." {
		t.Errorf("query output = %q", out)
	}
}

func TestReset_RequiresConfirm(t *testing.T) {
	cfg := testConfig(t)

	if _, err := runCLI(t, "-c", cfg, "ingest", "keep me"); err != nil {
		t.Fatalf("ingest error = %v", err)
	}
	out, err := runCLI(t, "-c", cfg, "reset")
	if err != nil {
		t.Fatalf("reset error = %v", err)
	}
	if !strings.Contains(out, "--confirm") {
		t.Errorf("reset without confirm output = %q", out)
	}

	out, _ = runCLI(t, "-c", cfg, "list")
	if !strings.Contains(out, "Total: 1 document(s)") {
		t.Errorf("document removed without --confirm: %q", out)
	}
}

func TestExport(t *testing.T) {
	cfg := testConfig(t)

	if _, err := runCLI(t, "-c", cfg, "ingest", "--meta", "filename=sky.txt", "The sky is blue."); err != nil {
		t.Fatalf("ingest error = %v", err)
	}

	out, err := runCLI(t, "-c", cfg, "export")
	if err != nil {
		t.Fatalf("export error = %v", err)
	}
	if !strings.Contains(out, "raw_text: The sky is blue.") {
		t.Errorf("yaml export = %q", out)
	}

	path := filepath.Join(t.TempDir(), "out", "backup.json")
	if _, err := runCLI(t, "-c", cfg, "export", "-o", path); err != nil {
		t.Fatalf("export to file error = %v", err)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("reading export: %v", err)
	}
	if !strings.Contains(string(data), `"raw_text": "The sky is blue."`) {
		t.Errorf("json export = %s", data)
	}

	if _, err := runCLI(t, "-c", cfg, "export", "--as", "csv"); err == nil {
		t.Error("expected unknown format error")
	}
}
