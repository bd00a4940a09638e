package main

import (
	"bytes"
	"context"
	"errors"
	"flag"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/charmbracelet/log"
	"github.com/mrsinham/dicomraw/internal/config"
	"github.com/mrsinham/dicomraw/internal/dicom"
	"github.com/mrsinham/dicomraw/internal/volume"
)

func TestLogLevel(t *testing.T) {
	tests := []struct {
		name    string
		level   string
		verbose bool
		quiet   bool
		want    log.Level
	}{
		{"default", "", false, false, log.InfoLevel},
		{"configured", "warn", false, false, log.WarnLevel},
		{"verbose wins", "error", true, false, log.DebugLevel},
		{"quiet", "", false, true, log.ErrorLevel},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := logLevel(tt.level, tt.verbose, tt.quiet)
			if err != nil {
				t.Fatalf("logLevel failed: %v", err)
			}
			if got != tt.want {
				t.Errorf("logLevel = %v, want %v", got, tt.want)
			}
		})
	}

	if _, err := logLevel("chatty", false, false); err == nil {
		t.Error("expected error for unknown level")
	}
}

func TestNewLogger(t *testing.T) {
	var buf bytes.Buffer
	logger := newLogger(&buf, log.InfoLevel)
	logger.Debug("hidden")
	if buf.Len() != 0 {
		t.Errorf("debug message written at info level: %q", buf.String())
	}
	newProgress(logger).done("step finished")
	if !strings.Contains(buf.String(), "step finished") || !strings.Contains(buf.String(), "elapsed") {
		t.Errorf("progress output = %q", buf.String())
	}
}

func TestFormatVec(t *testing.T) {
	if got := formatVec([3]int{256, 256, 40}); got != "[256 256 40]" {
		t.Errorf("formatVec(ints) = %q", got)
	}
	if got := formatVec([3]float64{0.5, 0.5, 2.5}); got != "[0.5 0.5 2.5]" {
		t.Errorf("formatVec(floats) = %q", got)
	}
}

func TestRun_UsageErrors(t *testing.T) {
	tests := []struct {
		name string
		args []string
	}{
		{"no dir", []string{"--output", "x.raw"}},
		{"no output", []string{"--dir", "."}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := run(context.Background(), tt.args, &bytes.Buffer{}, &bytes.Buffer{})
			if !errors.Is(err, errUsage) {
				t.Errorf("error = %v, want usage error", err)
			}
		})
	}
}

func TestRun_Help(t *testing.T) {
	var stderr bytes.Buffer
	err := run(context.Background(), []string{"--help"}, &bytes.Buffer{}, &stderr)
	if !errors.Is(err, flag.ErrHelp) {
		t.Fatalf("error = %v, want flag.ErrHelp", err)
	}
	if !strings.Contains(stderr.String(), "--dir <DIR> --output <FILE>") {
		t.Errorf("help output missing usage line:\n%s", stderr.String())
	}
}

func TestRun_Convert(t *testing.T) {
	dir := t.TempDir()
	series := filepath.Join(dir, "series")
	if _, err := dicom.GenerateSeries(dicom.SynthOptions{
		NumSlices: 5, Rows: 12, Cols: 10, OutputDir: series, Seed: 4, Shuffle: true,
	}); err != nil {
		t.Fatalf("GenerateSeries failed: %v", err)
	}

	out := filepath.Join(dir, "vol.raw")
	cfgPath := filepath.Join(dir, "dicomraw.yaml")
	cfg := "input:\n  dir: " + series + "\noutput:\n  raw: " + filepath.Join(dir, "ignored.raw") + "\n  header: true\n"
	if err := os.WriteFile(cfgPath, []byte(cfg), 0o644); err != nil {
		t.Fatal(err)
	}

	var stdout bytes.Buffer
	err := run(context.Background(), []string{"--config", cfgPath, "--output", out, "--quiet"}, &stdout, &bytes.Buffer{})
	if err != nil {
		t.Fatalf("run failed: %v", err)
	}
	if !strings.Contains(stdout.String(), "dataset shape: [12 10 5]") {
		t.Errorf("report missing shape:\n%s", stdout.String())
	}
	if info, err := os.Stat(out); err != nil || info.Size() != 12*10*5*2 {
		t.Errorf("raw output: %v, %v", info, err)
	}
	if _, err := os.Stat(filepath.Join(dir, "ignored.raw")); err == nil {
		t.Error("--output did not override the config file")
	}
	if _, err := os.Stat(filepath.Join(dir, "vol.yaml")); err != nil {
		t.Errorf("header from config not written: %v", err)
	}
}

func TestRun_MismatchedOrientation(t *testing.T) {
	dir := t.TempDir()
	for i, plane := range []dicom.Plane{dicom.PlaneAxial, dicom.PlaneCoronal} {
		if _, err := dicom.GenerateSeries(dicom.SynthOptions{
			NumSlices: 2, Rows: 8, Cols: 8, Seed: 9, Plane: plane,
			OutputDir: filepath.Join(dir, "series", string(rune('a'+i))),
		}); err != nil {
			t.Fatalf("GenerateSeries failed: %v", err)
		}
	}

	err := run(context.Background(),
		[]string{"--dir", filepath.Join(dir, "series"), "--output", filepath.Join(dir, "vol.raw"), "--quiet"},
		&bytes.Buffer{}, &bytes.Buffer{})
	if !errors.Is(err, volume.ErrMismatchedOrientation) {
		t.Errorf("error = %v, want ErrMismatchedOrientation", err)
	}
}

func TestRun_RemovesOutputsWhenPreviewFails(t *testing.T) {
	dir := t.TempDir()
	series := filepath.Join(dir, "series")
	if _, err := dicom.GenerateSeries(dicom.SynthOptions{
		NumSlices: 3, Rows: 8, Cols: 8, OutputDir: series, Seed: 6,
	}); err != nil {
		t.Fatalf("GenerateSeries failed: %v", err)
	}

	out := filepath.Join(dir, "vol.raw")
	err := run(context.Background(), []string{
		"--dir", series, "--output", out, "--header",
		"--saveimg", filepath.Join(dir, "missing", "sheet.png"), "--quiet",
	}, &bytes.Buffer{}, &bytes.Buffer{})
	if err == nil {
		t.Fatal("run should fail when the preview cannot be written")
	}
	for _, path := range []string{out, filepath.Join(dir, "vol.yaml")} {
		if _, err := os.Stat(path); !os.IsNotExist(err) {
			t.Errorf("%s left behind after a failed run (stat error %v)", path, err)
		}
	}
}

func TestRun_ListTags(t *testing.T) {
	var stdout bytes.Buffer
	if err := run(context.Background(), []string{"--list-tags"}, &stdout, &bytes.Buffer{}); err != nil {
		t.Fatalf("run --list-tags failed: %v", err)
	}
	out := stdout.String()
	for _, want := range []string{"Patient:\n  PatientID\n  PatientName\n", "Series:\n", "  PixelSpacing\n", "Image:\n", "  ImagePositionPatient\n"} {
		if !strings.Contains(out, want) {
			t.Errorf("tag list missing %q:\n%s", want, out)
		}
	}
	if strings.Index(out, "Patient:") > strings.Index(out, "Image:") {
		t.Errorf("scopes out of order:\n%s", out)
	}
}

func TestRun_WriteConfig(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "run.toml")

	var stdout bytes.Buffer
	err := run(context.Background(), []string{
		"--dir", "scans/head", "--output", "head.raw", "--range", "2:6", "--spacing-tolerance", "0.05",
		"--write-config", path,
	}, &stdout, &bytes.Buffer{})
	if err != nil {
		t.Fatalf("run --write-config failed: %v", err)
	}
	if !strings.Contains(stdout.String(), "config written to: "+path) {
		t.Errorf("unexpected output: %s", stdout.String())
	}

	cfg, err := config.Load(path)
	if err != nil {
		t.Fatalf("Load written config: %v", err)
	}
	if cfg.Input.Dir != "scans/head" || cfg.Output.Raw != "head.raw" || cfg.Selection.Range != "2:6" {
		t.Errorf("written config = %+v", cfg)
	}
	if cfg.Geometry.SpacingTolerance != 0.05 {
		t.Errorf("SpacingTolerance = %g, want 0.05", cfg.Geometry.SpacingTolerance)
	}
	if _, err := os.Stat("head.raw"); err == nil {
		t.Error("--write-config should not convert")
	}
}

func TestRun_WriteConfigInvalid(t *testing.T) {
	path := filepath.Join(t.TempDir(), "run.yaml")
	err := run(context.Background(), []string{"--range", "6:2", "--write-config", path}, &bytes.Buffer{}, &bytes.Buffer{})
	if err == nil {
		t.Fatal("invalid settings should not be written")
	}
	if _, err := os.Stat(path); !os.IsNotExist(err) {
		t.Errorf("config written despite invalid range (stat error %v)", err)
	}
}
