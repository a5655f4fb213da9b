package cli

import (
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/mitchellh/cli"
)

func testMeta(t *testing.T) (Meta, *cli.MockUi) {
	t.Helper()
	ui := cli.NewMockUi()
	return Meta{Ui: ui, Dir: t.TempDir(), Stderr: io.Discard}, ui
}

func run(t *testing.T, meta Meta, args ...string) int {
	t.Helper()
	return RunWith(args, meta)
}

func TestRun(t *testing.T) {
	for _, strategy := range []string{"interpreted", "codegen"} {
		t.Run(strategy, func(t *testing.T) {
			meta, ui := testMeta(t)
			code := run(t, meta, "run", "-sites=3", "-objects=2", "-strategy="+strategy, filepath.Join("testdata", "sum.yaml"))
			if code != 0 {
				t.Fatalf("exit %d: %s", code, ui.ErrorWriter.String())
			}
			want := "site 0: Sum=5 Product=6 Count=2\nsite 1: Sum=5 Product=6 Count=2\nsite 2: Sum=5 Product=6 Count=2\n"
			if got := ui.OutputWriter.String(); got != want {
				t.Errorf("unexpected output:\n%s\nwant:\n%s", got, want)
			}
		})
	}
}

func TestRunSiteData(t *testing.T) {
	meta, ui := testMeta(t)
	if code := run(t, meta, "run", "-sites=2", "-dump", filepath.Join("testdata", "scale.yaml")); code != 0 {
		t.Fatalf("exit %d: %s", code, ui.ErrorWriter.String())
	}
	out := ui.OutputWriter.String()
	for _, want := range []string{
		"site 0: Scaled=(2, 4, 6) Site=0 Ratio=0",
		"site 1: Scaled=(2, 4, 6) Site=1 Ratio=0",
		"([]float32) (len=15",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q:\n%s", want, out)
		}
	}
}

func TestRunSettings(t *testing.T) {
	meta, ui := testMeta(t)
	if err := os.WriteFile(filepath.Join(meta.Dir, "nodevm.yaml"), []byte("sites: 2\nstrategy: codegen\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	if code := run(t, meta, "run", filepath.Join("testdata", "sum.yaml")); code != 0 {
		t.Fatalf("exit %d: %s", code, ui.ErrorWriter.String())
	}
	if n := strings.Count(ui.OutputWriter.String(), "site "); n != 2 {
		t.Errorf("expected 2 sites from settings, got %d", n)
	}
}

func TestRunErrors(t *testing.T) {
	tests := []struct {
		name string
		args []string
		want string
	}{
		{"no program", []string{"run"}, "exactly one program"},
		{"unknown callee", []string{"run", filepath.Join("testdata", "broken.yaml")}, "Teleport"},
		{"bad strategy", []string{"run", "-strategy=jit", filepath.Join("testdata", "sum.yaml")}, "jit"},
		{"bad flag", []string{"run", "-frobnicate", filepath.Join("testdata", "sum.yaml")}, "frobnicate"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			meta, ui := testMeta(t)
			if code := run(t, meta, tt.args...); code != 1 {
				t.Fatalf("expected exit 1, got %d", code)
			}
			if got := ui.ErrorWriter.String(); !strings.Contains(got, tt.want) {
				t.Errorf("expected error mentioning %q, got %q", tt.want, got)
			}
		})
	}
}

func TestCheck(t *testing.T) {
	meta, ui := testMeta(t)
	code := run(t, meta, "check", filepath.Join("testdata", "sum.yaml"), filepath.Join("testdata", "broken.yaml"))
	if code != 1 {
		t.Fatalf("expected exit 1, got %d", code)
	}
	if got := ui.OutputWriter.String(); !strings.Contains(got, "ok  sum (") {
		t.Errorf("missing ok line: %q", got)
	}
	if got := ui.ErrorWriter.String(); !strings.Contains(got, "1 of 2 programs failed") {
		t.Errorf("missing summary: %q", got)
	}
}

func TestDisasm(t *testing.T) {
	meta, ui := testMeta(t)
	if code := run(t, meta, "disasm", filepath.Join("testdata", "sum.yaml")); code != 0 {
		t.Fatalf("exit %d: %s", code, ui.ErrorWriter.String())
	}
	out := ui.OutputWriter.String()
	for _, want := range []string{"== sum ==", `"Add Floats" (@0, @1) -> (@2)`, "END"} {
		if !strings.Contains(out, want) {
			t.Errorf("listing missing %q:\n%s", want, out)
		}
	}
}

func TestEmit(t *testing.T) {
	meta, ui := testMeta(t)
	if code := run(t, meta, "emit", "-package=ops", "Add Floats", "Map Range"); code != 0 {
		t.Fatalf("exit %d: %s", code, ui.ErrorWriter.String())
	}
	out := ui.OutputWriter.String()
	for _, want := range []string{"package ops", "func AddFloats(v0, v1 float32) float32 {", "func MapRange("} {
		if !strings.Contains(out, want) {
			t.Errorf("generated source missing %q:\n%s", want, out)
		}
	}

	meta, ui = testMeta(t)
	path := filepath.Join(meta.Dir, "kernels.go")
	if code := run(t, meta, "emit", "-o="+path); code != 0 {
		t.Fatalf("exit %d: %s", code, ui.ErrorWriter.String())
	}
	src, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(string(src), "package kernels") || !strings.Contains(string(src), "func DivideFloats(") {
		t.Errorf("unexpected file:\n%s", src)
	}

	meta, ui = testMeta(t)
	if code := run(t, meta, "emit", "Iteration"); code != 1 {
		t.Errorf("expected interpreted-only function to fail, got exit %d", code)
	}
}

func TestFunctions(t *testing.T) {
	meta, ui := testMeta(t)
	if code := run(t, meta, "functions"); code != 0 {
		t.Fatalf("exit %d", code)
	}
	out := ui.OutputWriter.String()
	for _, want := range []string{
		"Map Range          (Value: float, From Min: float, From Max: float, To Min: float, To Max: float) -> (Value: float) [interpreted, codegen]",
		"Iteration          () -> (Iteration: int) [interpreted]",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("listing missing %q:\n%s", want, out)
		}
	}
}

func TestCache(t *testing.T) {
	meta, ui := testMeta(t)
	cache := "-cache=" + filepath.Join(meta.Dir, "cache.db")

	if code := run(t, meta, "cache", "put", cache, filepath.Join("testdata", "sum.yaml"), filepath.Join("testdata", "scale.yaml")); code != 0 {
		t.Fatalf("put: exit %d: %s", code, ui.ErrorWriter.String())
	}
	if got := ui.OutputWriter.String(); !strings.Contains(got, "stored sum") || !strings.Contains(got, "stored scale") {
		t.Errorf("unexpected put output %q", got)
	}

	meta2, ui2 := testMeta(t)
	meta2.Dir = meta.Dir
	if code := run(t, meta2, "cache", "list", cache); code != 0 {
		t.Fatalf("list: exit %d: %s", code, ui2.ErrorWriter.String())
	}
	lines := strings.Split(strings.TrimSpace(ui2.OutputWriter.String()), "\n")
	if len(lines) != 2 || !strings.HasPrefix(lines[0], "scale") || !strings.HasPrefix(lines[1], "sum") {
		t.Errorf("unexpected listing %q", lines)
	}

	meta3, ui3 := testMeta(t)
	if code := run(t, meta3, "cache", "show", cache, "sum"); code != 0 {
		t.Fatalf("show: exit %d: %s", code, ui3.ErrorWriter.String())
	}
	if got := ui3.OutputWriter.String(); !strings.Contains(got, `"Multiply Floats" (@0, @1) -> (@3)`) {
		t.Errorf("unexpected disassembly:\n%s", got)
	}

	meta4, ui4 := testMeta(t)
	if code := run(t, meta4, "cache", "rm", cache, "sum"); code != 0 {
		t.Fatalf("rm: exit %d: %s", code, ui4.ErrorWriter.String())
	}
	meta5, ui5 := testMeta(t)
	if code := run(t, meta5, "cache", "show", cache, "sum"); code != 1 {
		t.Errorf("show after rm: expected exit 1, got %d", code)
	}
	if got := ui5.ErrorWriter.String(); !strings.Contains(got, "not found") {
		t.Errorf("expected not found error, got %q", got)
	}
}

func TestCacheNotConfigured(t *testing.T) {
	meta, ui := testMeta(t)
	if code := run(t, meta, "cache", "list"); code != 1 {
		t.Fatalf("expected exit 1, got %d", code)
	}
	if got := ui.ErrorWriter.String(); !strings.Contains(got, "no cache configured") {
		t.Errorf("unexpected error %q", got)
	}
}

func TestVersion(t *testing.T) {
	meta, ui := testMeta(t)
	if code := run(t, meta, "version"); code != 0 {
		t.Fatalf("exit %d", code)
	}
	if got := ui.OutputWriter.String(); !strings.HasPrefix(got, "nodevm ") {
		t.Errorf("unexpected version output %q", got)
	}
}
