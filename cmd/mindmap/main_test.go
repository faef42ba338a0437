package main

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

const forestDocument = `{
  "root_topic": "Forest Tales",
  "nodes": [
    {"timestamp": [0, 10], "text": "t", "summary": ["s"], "keywords": ["k"], "named_entities": [],
     "emojis": "🌲", "best_image": "", "start_image": "", "topic": "Morning", "tts": ""},
    {"timestamp": [10, 20], "text": "t", "summary": ["s"], "keywords": ["k"], "named_entities": [],
     "emojis": "🦊", "best_image": "", "start_image": "", "topic": "Chase", "tts": ""},
    {"timestamp": [20, 30], "text": "t", "summary": ["s"], "keywords": ["k"], "named_entities": [],
     "emojis": "🏁", "best_image": "", "start_image": "", "topic": "Escape", "tts": ""}
  ]
}`

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write %s: %v", name, err)
	}
	return path
}

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())

	cmd := newRootCmd()
	var out, errOut bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&errOut)
	cmd.SetArgs(append([]string{"--no-color", "--log-level", "error"}, args...))
	err := cmd.Execute()
	return out.String(), err
}

func TestValidateCommand(t *testing.T) {
	dir := t.TempDir()
	good := writeFile(t, dir, "good.json", forestDocument)
	bad := writeFile(t, dir, "bad.json", `{"root_topic": "r", "nodes": []}`)

	out, err := execute(t, "validate", good)
	if err != nil {
		t.Fatalf("validate good: %v", err)
	}
	if !strings.Contains(out, `"Forest Tales": 3 nodes`) || !strings.Contains(out, "All 1 documents valid") {
		t.Fatalf("validate output:\n%s", out)
	}

	out, err = execute(t, "validate", good, bad)
	if err == nil || !strings.Contains(err.Error(), "1 of 2 documents invalid") {
		t.Fatalf("validate mixed error = %v", err)
	}
	if !strings.Contains(out, "cannot be empty") {
		t.Fatalf("validate output should explain the failure:\n%s", out)
	}
}

func TestLayoutCommandJSON(t *testing.T) {
	out, err := execute(t, "layout", "--nodes", "13", "--expand", "0", "--json")
	if err != nil {
		t.Fatalf("layout: %v", err)
	}
	var report layoutReport
	if err := json.Unmarshal([]byte(out), &report); err != nil {
		t.Fatalf("decode layout JSON: %v\n%s", err, out)
	}
	if report.Nodes != 13 || report.Sectors != 12 || report.Rings != 2 || report.BaseRadius != 2000 {
		t.Fatalf("report = %+v", report)
	}
	if len(report.Positions) != 13 || report.Positions[12].Ring != 1 {
		t.Fatalf("positions = %+v", report.Positions)
	}
	if len(report.Children) != 3 {
		t.Fatalf("children = %+v, want 3", report.Children)
	}
}

func TestLayoutCommandTable(t *testing.T) {
	dir := t.TempDir()
	doc := writeFile(t, dir, "forest.json", forestDocument)

	out, err := execute(t, "layout", doc)
	if err != nil {
		t.Fatalf("layout: %v", err)
	}
	for _, want := range []string{"Morning", "Escape", "0:20", "Base radius:  1600"} {
		if !strings.Contains(out, want) {
			t.Fatalf("layout output missing %q:\n%s", want, out)
		}
	}

	if _, err := execute(t, "layout"); err == nil {
		t.Fatalf("layout without input should fail")
	}
}

func TestReplayCommand(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "forest.json", forestDocument)
	script := writeFile(t, dir, "events.toml", `
document = "forest.json"

[[event]]
at = "0s"
op = "tick"
time = 12

[[event]]
at = "50ms"
op = "toggle"
node = 1
`)

	out, err := execute(t, "replay", "--script", script)
	if err != nil {
		t.Fatalf("replay: %v", err)
	}
	for _, want := range []string{"expanded", "Active node:  Chase", "Expanded:     1 of 3"} {
		if !strings.Contains(out, want) {
			t.Fatalf("replay output missing %q:\n%s", want, out)
		}
	}

	if _, err := execute(t, "replay"); err == nil {
		t.Fatalf("replay without --script should fail")
	}
}

func TestPlayCommandAccelerated(t *testing.T) {
	dir := t.TempDir()
	doc := writeFile(t, dir, "forest.json", forestDocument)

	out, err := execute(t, "play", doc, "--rate", "4")
	if err != nil {
		t.Fatalf("play: %v", err)
	}
	for _, want := range []string{"▶ Morning", "▶ Chase", "▶ Escape", "Highlights:   3", "Final topic:  Escape"} {
		if !strings.Contains(out, want) {
			t.Fatalf("play output missing %q:\n%s", want, out)
		}
	}
}

func TestPlayCommandFromNode(t *testing.T) {
	dir := t.TempDir()
	doc := writeFile(t, dir, "forest.json", forestDocument)

	out, err := execute(t, "play", doc, "--rate", "4", "--from-node", "2")
	if err != nil {
		t.Fatalf("play: %v", err)
	}
	if strings.Contains(out, "▶ Morning") {
		t.Fatalf("seeking to node 2 should skip Morning:\n%s", out)
	}
	if !strings.Contains(out, "▶ Escape") {
		t.Fatalf("play output missing Escape:\n%s", out)
	}

	if _, err := execute(t, "play", doc, "--from-node", "9"); err == nil {
		t.Fatalf("play --from-node 9 should fail")
	}
}
