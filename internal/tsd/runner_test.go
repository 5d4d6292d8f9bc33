package tsd

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	osexec "os/exec"
	"path/filepath"
	"slices"
	"strings"
	"testing"
	"time"
)

// TestHelperProcess stands in for the tsd executable. It is only active when
// re-executed by newHelperRunner.
func TestHelperProcess(t *testing.T) {
	if os.Getenv("TSDCTL_WANT_HELPER_PROCESS") != "1" {
		return
	}

	args := os.Args
	for i, arg := range args {
		if arg == "--" {
			args = args[i+1:]
			break
		}
	}

	switch os.Getenv("TSDCTL_HELPER_MODE") {
	case "install":
		fmt.Print("- jquery/jquery.d.ts\n- jquery/jqueryui.d.ts\n")
		fmt.Fprintln(os.Stderr, "some diagnostic")
	case "noise":
		fmt.Println(">> tsd 0.6.5")
		fmt.Println("running query...")
		fmt.Println("- not a definition")
	case "args":
		fmt.Printf("- args/%s.d.ts\n", strings.Join(args, ","))
	case "pwd":
		wd, _ := os.Getwd()
		fmt.Printf("- %s/here.d.ts\n", filepath.ToSlash(wd))
	case "exit3":
		fmt.Println("- angular/angular.d.ts")
		os.Exit(3)
	case "hang":
		fmt.Println("- node/node.d.ts")
		time.Sleep(30 * time.Second)
	case "sleep":
		time.Sleep(30 * time.Second)
	case "orphan":
		// a child inheriting stdout, like node under tsd.cmd
		child := osexec.Command(os.Args[0], "-test.run=TestHelperProcess", "--")
		child.Env = append(os.Environ(), "TSDCTL_HELPER_MODE=sleep")
		child.Stdout = os.Stdout
		child.Stderr = os.Stderr
		if err := child.Start(); err != nil {
			os.Exit(2)
		}
		fmt.Println("- a/b.d.ts")
		_ = child.Wait()
	case "longline":
		fmt.Println("- " + strings.Repeat("x", 2*maxLineSize) + "/big.d.ts")
		fmt.Println("- after/after.d.ts")
	}

	os.Exit(0)
}

func newHelperRunner(t *testing.T, mode string) *Runner {
	t.Helper()

	r := NewRunner(
		WithBinary(os.Args[0]),
		WithEnv("TSDCTL_WANT_HELPER_PROCESS=1", "TSDCTL_HELPER_MODE="+mode),
	)
	r.prefixArgs = []string{"-test.run=TestHelperProcess", "--"}

	return r
}

type recorder struct {
	events []Event
}

func (r *recorder) emit(ev Event) {
	r.events = append(r.events, ev)
}

func (r *recorder) terminals() int {
	n := 0
	for _, ev := range r.events {
		if ev.Kind.Terminal() {
			n++
		}
	}

	return n
}

func TestRun_InstallScenario(t *testing.T) {
	r := newHelperRunner(t, "install")
	rec := &recorder{}

	if err := r.Run(context.Background(), NewInstall(t.TempDir(), "jquery"), rec.emit); err != nil {
		t.Fatalf("Run failed: %v", err)
	}

	want := []Event{
		{Kind: ItemResolved, Path: "jquery/jquery.d.ts"},
		{Kind: ItemResolved, Path: "jquery/jqueryui.d.ts"},
		{Kind: Finished},
	}

	if !slices.Equal(rec.events, want) {
		t.Fatalf("Expected events %v, got %v", want, rec.events)
	}
}

func TestRun_UnmatchedOutput(t *testing.T) {
	r := newHelperRunner(t, "noise")
	rec := &recorder{}

	if err := r.Run(context.Background(), NewUpdate(t.TempDir()), rec.emit); err != nil {
		t.Fatalf("Run failed: %v", err)
	}

	if len(rec.events) != 1 || rec.events[0].Kind != Finished {
		t.Fatalf("Expected only Finished, got %v", rec.events)
	}
}

func TestRun_ArgumentVector(t *testing.T) {
	tests := []struct {
		req  Request
		want string
	}{
		{NewInstall("", "jquery"), "args/query,jquery,--action,install,--save,--resolve.d.ts"},
		{NewReinstall(""), "args/reinstall,--save,--overwrite.d.ts"},
		{NewUpdate(""), "args/update,--save,--overwrite.d.ts"},
	}

	for _, tt := range tests {
		t.Run(tt.req.Operation.String(), func(t *testing.T) {
			r := newHelperRunner(t, "args")
			rec := &recorder{}

			if err := r.Run(context.Background(), tt.req, rec.emit); err != nil {
				t.Fatalf("Run failed: %v", err)
			}

			if len(rec.events) != 2 {
				t.Fatalf("Expected 2 events, got %v", rec.events)
			}

			if rec.events[0].Path != tt.want {
				t.Errorf("Expected %q, got %q", tt.want, rec.events[0].Path)
			}
		})
	}
}

func TestRun_QueryIsNotShellInterpreted(t *testing.T) {
	r := newHelperRunner(t, "args")
	rec := &recorder{}

	query := "jquery; rm -rf $HOME"
	if err := r.Run(context.Background(), NewInstall("", query), rec.emit); err != nil {
		t.Fatalf("Run failed: %v", err)
	}

	if len(rec.events) == 0 || !strings.Contains(rec.events[0].Path, ","+query+",") {
		t.Fatalf("Expected query passed verbatim, got %v", rec.events)
	}
}

func TestRun_WorkingDirectory(t *testing.T) {
	dir := t.TempDir()
	r := newHelperRunner(t, "pwd")
	rec := &recorder{}

	if err := r.Run(context.Background(), NewUpdate(dir), rec.emit); err != nil {
		t.Fatalf("Run failed: %v", err)
	}

	if len(rec.events) != 2 {
		t.Fatalf("Expected 2 events, got %v", rec.events)
	}

	resolved, err := filepath.EvalSymlinks(dir)
	if err != nil {
		t.Fatal(err)
	}

	got := filepath.FromSlash(strings.TrimSuffix(rec.events[0].Path, "/here.d.ts"))
	if gotResolved, err := filepath.EvalSymlinks(got); err != nil || gotResolved != resolved {
		t.Errorf("Expected process to run in %s, got %s", resolved, got)
	}
}

func TestRun_NonZeroExitStillFinishes(t *testing.T) {
	r := newHelperRunner(t, "exit3")
	rec := &recorder{}

	if err := r.Run(context.Background(), NewReinstall(t.TempDir()), rec.emit); err != nil {
		t.Fatalf("Run failed: %v", err)
	}

	want := []Event{
		{Kind: ItemResolved, Path: "angular/angular.d.ts"},
		{Kind: Finished, ExitCode: 3},
	}

	if !slices.Equal(rec.events, want) {
		t.Fatalf("Expected events %v, got %v", want, rec.events)
	}
}

func TestRun_ToolMissingOnPath(t *testing.T) {
	r := NewRunner(WithBinary("tsdctl-missing-tsd-binary"))
	rec := &recorder{}

	if err := r.Run(context.Background(), NewInstall(t.TempDir(), "jquery"), rec.emit); err != nil {
		t.Fatalf("Expected nil error, got %v", err)
	}

	if len(rec.events) != 1 || rec.events[0].Kind != ToolMissing {
		t.Fatalf("Expected only ToolMissing, got %v", rec.events)
	}
}

func TestRun_ToolMissingAtPath(t *testing.T) {
	r := NewRunner(WithBinary(filepath.Join(t.TempDir(), "tsd")))
	rec := &recorder{}

	if err := r.Run(context.Background(), NewUpdate(t.TempDir()), rec.emit); err != nil {
		t.Fatalf("Expected nil error, got %v", err)
	}

	if len(rec.events) != 1 || rec.events[0].Kind != ToolMissing {
		t.Fatalf("Expected only ToolMissing, got %v", rec.events)
	}
}

func TestRun_InvalidDirectoryIsNotToolMissing(t *testing.T) {
	r := newHelperRunner(t, "install")
	rec := &recorder{}

	err := r.Run(context.Background(), NewUpdate(filepath.Join(t.TempDir(), "nope")), rec.emit)
	if err == nil {
		t.Fatal("Expected error for missing working directory")
	}

	if len(rec.events) != 0 {
		t.Fatalf("Expected no events, got %v", rec.events)
	}
}

func TestRun_InvalidRequest(t *testing.T) {
	r := newHelperRunner(t, "install")
	rec := &recorder{}

	err := r.Run(context.Background(), NewInstall("", " "), rec.emit)
	if !errors.Is(err, ErrMissingQuery) {
		t.Fatalf("Expected ErrMissingQuery, got %v", err)
	}

	if len(rec.events) != 0 {
		t.Fatalf("Expected no events, got %v", rec.events)
	}
}

func TestRun_CancelKillsAndAborts(t *testing.T) {
	r := newHelperRunner(t, "hang")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	rec := &recorder{}
	emit := func(ev Event) {
		rec.emit(ev)
		if ev.Kind == ItemResolved {
			cancel()
		}
	}

	start := time.Now()
	err := r.Run(ctx, NewUpdate(t.TempDir()), emit)

	if !errors.Is(err, context.Canceled) {
		t.Fatalf("Expected context.Canceled, got %v", err)
	}

	if time.Since(start) > 10*time.Second {
		t.Fatal("Expected process to be killed on cancel")
	}

	if rec.terminals() != 1 || rec.events[len(rec.events)-1].Kind != Aborted {
		t.Fatalf("Expected single Aborted terminal, got %v", rec.events)
	}
}

func TestRun_CancelWithChildHoldingOutput(t *testing.T) {
	r := newHelperRunner(t, "orphan")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	rec := &recorder{}
	emit := func(ev Event) {
		rec.emit(ev)
		if ev.Kind == ItemResolved {
			time.AfterFunc(100*time.Millisecond, cancel)
		}
	}

	start := time.Now()
	err := r.Run(ctx, NewUpdate(t.TempDir()), emit)

	if !errors.Is(err, context.Canceled) {
		t.Fatalf("Expected context.Canceled, got %v", err)
	}

	if elapsed := time.Since(start); elapsed > 10*time.Second {
		t.Fatalf("Expected Run to return after cancel, took %s", elapsed)
	}

	want := []Event{
		{Kind: ItemResolved, Path: "a/b.d.ts"},
		{Kind: Aborted},
	}

	if !slices.Equal(rec.events, want) {
		t.Fatalf("Expected events %v, got %v", want, rec.events)
	}
}

func TestRun_SkipsOverLongLine(t *testing.T) {
	r := newHelperRunner(t, "longline")
	rec := &recorder{}

	if err := r.Run(context.Background(), NewUpdate(t.TempDir()), rec.emit); err != nil {
		t.Fatalf("Run failed: %v", err)
	}

	want := []Event{
		{Kind: ItemResolved, Path: "after/after.d.ts"},
		{Kind: Finished},
	}

	if !slices.Equal(rec.events, want) {
		t.Fatalf("Expected events %v, got %v", want, rec.events)
	}
}

func TestReadLines(t *testing.T) {
	long := strings.Repeat("y", maxLineSize+1)
	input := "first\r\n" + long + "\nsecond\n" + strings.Repeat("z", maxLineSize) + "\nlast"

	var lines []string
	err := readLines(strings.NewReader(input), slog.New(slog.NewTextHandler(io.Discard, nil)), func(line string) {
		lines = append(lines, line)
	})
	if err != nil {
		t.Fatalf("readLines failed: %v", err)
	}

	if len(lines) != 4 {
		t.Fatalf("Expected 4 lines, got %d", len(lines))
	}

	if lines[0] != "first" || lines[1] != "second" || len(lines[2]) != maxLineSize || lines[3] != "last" {
		t.Errorf("Unexpected lines: %q, %q, %d bytes, %q", lines[0], lines[1], len(lines[2]), lines[3])
	}
}

func TestEvents_Sequence(t *testing.T) {
	r := newHelperRunner(t, "install")

	var kinds []EventKind
	for ev, err := range r.Events(context.Background(), NewInstall(t.TempDir(), "jquery")) {
		if err != nil {
			t.Fatalf("Unexpected error: %v", err)
		}
		kinds = append(kinds, ev.Kind)
	}

	want := []EventKind{ItemResolved, ItemResolved, Finished}
	if !slices.Equal(kinds, want) {
		t.Fatalf("Expected %v, got %v", want, kinds)
	}
}

func TestEvents_BreakStopsProcess(t *testing.T) {
	r := newHelperRunner(t, "hang")

	start := time.Now()
	for ev, err := range r.Events(context.Background(), NewUpdate(t.TempDir())) {
		if err != nil {
			t.Fatalf("Unexpected error: %v", err)
		}
		if ev.Kind == ItemResolved {
			break
		}
	}

	if time.Since(start) > 10*time.Second {
		t.Fatal("Expected early break to kill the process")
	}
}

func TestExecutable(t *testing.T) {
	if got := Executable("windows"); got != "tsd.cmd" {
		t.Errorf("Expected tsd.cmd, got %s", got)
	}

	for _, goos := range []string{"linux", "darwin", "freebsd"} {
		if got := Executable(goos); got != "tsd" {
			t.Errorf("Expected tsd on %s, got %s", goos, got)
		}
	}
}
