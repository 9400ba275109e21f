package main

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/chazu/plantview/pkg/history"
	"github.com/chazu/plantview/pkg/scene"
)

const stationFile = "../../examples/pump_station.json"

// run executes plantctl with args and returns stdout and stderr.
func run(t *testing.T, stdin string, args ...string) (string, string, error) {
	t.Helper()
	settingsPath, historyPath, outPath, debugFlag = "", "", "", false
	var out, errOut bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(&errOut)
	rootCmd.SetIn(strings.NewReader(stdin))
	rootCmd.SetArgs(args)
	err := rootCmd.Execute()
	return out.String(), errOut.String(), err
}

func decode(t *testing.T, doc string) *scene.SceneData {
	t.Helper()
	d, err := scene.Decode(strings.NewReader(doc))
	if err != nil {
		t.Fatalf("output is not a scene: %v", err)
	}
	return d
}

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	p := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(p, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	return p
}

func TestRootCommand(t *testing.T) {
	if rootCmd.Use != "plantctl" {
		t.Errorf("expected Use 'plantctl', got %q", rootCmd.Use)
	}
	want := map[string]bool{"validate": false, "bbox": false, "route": false, "revert-gateway": false, "script": false}
	for _, c := range rootCmd.Commands() {
		if _, ok := want[c.Name()]; ok {
			want[c.Name()] = true
		}
	}
	for name, found := range want {
		if !found {
			t.Errorf("subcommand %s not registered", name)
		}
	}
}

func TestValidate(t *testing.T) {
	out, _, err := run(t, "", "validate", stationFile)
	if err != nil {
		t.Fatalf("validate: %v", err)
	}
	if !strings.Contains(out, "ok") {
		t.Errorf("output = %q", out)
	}

	bad := writeFile(t, "bad.json", `{"connections":[{"from":"a","to":"ghost"}],"scene":{"object":{"uuid":"root","position":[0,0,0],"rotation":[0,0,0],"userData":{},
		"children":[{"uuid":"a","type":"Mesh","position":[0,1,0],"rotation":[0,0,0],"userData":{"componentType":"component","shape":"box","dimensions":[1,1,1]}}]}}}`)
	out, _, err = run(t, "", "validate", bad)
	if err == nil {
		t.Fatal("dangling connection passed validation")
	}
	if !strings.Contains(out, "ghost") {
		t.Errorf("finding does not name the missing endpoint: %q", out)
	}
}

func TestBBox(t *testing.T) {
	out, _, err := run(t, "", "bbox", stationFile)
	if err != nil {
		t.Fatalf("bbox: %v", err)
	}
	rec := decode(t, out).FindRecord("pump-a")
	if rec == nil || rec.UserData.WorldBoundingBox == nil {
		t.Fatal("pump A has no world box")
	}
	if got := rec.UserData.WorldBoundingBox.Min; got != (scene.Triple{-5.5, 0, -0.5}) {
		t.Errorf("pump A box min = %v", got)
	}
}

func TestRouteWritesOut(t *testing.T) {
	dst := filepath.Join(t.TempDir(), "routed.json")
	_, errOut, err := run(t, "", "route", stationFile, "--out", dst)
	if err != nil {
		t.Fatalf("route: %v", err)
	}
	if !strings.Contains(errOut, "2 path(s)") {
		t.Errorf("stderr = %q", errOut)
	}
	raw, err := os.ReadFile(dst)
	if err != nil {
		t.Fatal(err)
	}
	d := decode(t, string(raw))
	polylines := 0
	for _, c := range d.Root().Children {
		if strings.HasPrefix(c.Name, "Polyline-") {
			polylines++
		}
	}
	if polylines != 2 {
		t.Errorf("polylines in document = %d, want 2", polylines)
	}
}

func TestRevertGateway(t *testing.T) {
	doc := `{"connections":[{"from":"a","to":"g"},{"from":"g","to":"b"}],"scene":{"object":{"uuid":"root","position":[0,0,0],"rotation":[0,0,0],"userData":{},"children":[
		{"uuid":"a","type":"Mesh","position":[-2,0.5,0],"rotation":[0,0,0],"userData":{"componentType":"component","shape":"box","dimensions":[1,1,1]}},
		{"uuid":"b","type":"Mesh","position":[2,0.5,0],"rotation":[0,0,0],"userData":{"componentType":"component","shape":"box","dimensions":[1,1,1]}},
		{"uuid":"g","type":"Mesh","position":[0,0.5,0],"rotation":[0,0,0],"userData":{"componentType":"gateway","isPipeJunction":true,"shape":"sphere","dimensions":[0.15,0.15,0.15]}}]}}}`
	gw := `{"uuid":"g","connections":{"added":[{"from":"a","to":"g"},{"from":"g","to":"b"}],"removed":[{"from":"a","to":"b"}]}}`

	out, _, err := run(t, "", "revert-gateway", writeFile(t, "scene.json", doc), writeFile(t, "gw.json", gw))
	if err != nil {
		t.Fatalf("revert-gateway: %v", err)
	}
	d := decode(t, out)
	if len(d.Connections) != 1 || !d.Connections[0].Equal(scene.Connection{From: "a", To: "b"}) {
		t.Errorf("connections = %v, want [a-b]", d.Connections)
	}
	if d.FindRecord("g") != nil {
		t.Error("gateway record still present")
	}

	if _, _, err := run(t, "", "revert-gateway", writeFile(t, "scene.json", doc), writeFile(t, "gw.json", `{}`)); err == nil {
		t.Error("gateway without uuid accepted")
	}
}

func TestScriptFromStdin(t *testing.T) {
	dir := t.TempDir()
	journal := filepath.Join(dir, "journal.db")
	out, _, err := run(t, `(translate "pump-b" :x 8) (rotate :y 90)`,
		"script", stationFile, "-", "--history", journal)
	if err != nil {
		t.Fatalf("script: %v", err)
	}
	rec := decode(t, out).FindRecord("pump-b")
	if rec == nil || rec.Position[0] != 8 {
		t.Fatalf("pump B record = %+v", rec)
	}

	j, err := history.OpenJournal(journal)
	if err != nil {
		t.Fatal(err)
	}
	defer j.Close()
	entries, err := j.Entries("pump-b", 0)
	if err != nil {
		t.Fatal(err)
	}
	if len(entries) != 2 {
		t.Errorf("journal entries = %d, want 2", len(entries))
	}
}

func TestScriptErrors(t *testing.T) {
	tests := []struct {
		name   string
		script string
	}{
		{"syntax", `(translate "pump-b" 1 2`},
		{"unknown object", `(remove "ghost")`},
		{"no selection", `(scale :x 2)`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, _, err := run(t, tt.script, "script", stationFile, "-"); err == nil {
				t.Error("expected an error")
			}
		})
	}
}
