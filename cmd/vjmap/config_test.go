package main

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/spf13/pflag"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()

	path := filepath.Join(t.TempDir(), "vjmap.yaml")
	if err := os.WriteFile(path, []byte(body), 0o600); err != nil {
		t.Fatal(err)
	}
	return path
}

func parseGlobals(t *testing.T, args ...string) (*pflag.FlagSet, globalFlags) {
	t.Helper()

	var g globalFlags
	fs := pflag.NewFlagSet("test", pflag.ContinueOnError)
	g.register(fs)
	if err := fs.Parse(args); err != nil {
		t.Fatal(err)
	}
	return fs, g
}

func TestLoadConfig(t *testing.T) {
	file := writeConfig(t, `
token: file-token
base_url: https://file.example.com
timeout: 10s
rate: 5
burst: 10
log:
  level: debug
  console: false
`)

	testCases := map[string]struct {
		args []string
		env  map[string]string
		exp  Config
	}{
		"defaults": {
			exp: defaultConfig(),
		},
		"file": {
			args: []string{"--config", file},
			exp: Config{
				Token:   "file-token",
				BaseURL: "https://file.example.com",
				Timeout: 10 * time.Second,
				Rate:    5,
				Burst:   10,
				Log:     LogConfig{Level: "debug", Console: false},
			},
		},
		"fileFromEnv": {
			env: map[string]string{envConfig: file},
			exp: Config{
				Token:   "file-token",
				BaseURL: "https://file.example.com",
				Timeout: 10 * time.Second,
				Rate:    5,
				Burst:   10,
				Log:     LogConfig{Level: "debug", Console: false},
			},
		},
		"envOverridesFile": {
			args: []string{"--config", file},
			env:  map[string]string{envToken: "env-token", envBaseURL: "http://env.local"},
			exp: Config{
				Token:   "env-token",
				BaseURL: "http://env.local",
				Timeout: 10 * time.Second,
				Rate:    5,
				Burst:   10,
				Log:     LogConfig{Level: "debug", Console: false},
			},
		},
		"flagsOverrideEnv": {
			args: []string{"--token", "flag-token", "--base-url", "http://flag.local", "--timeout", "3s", "--log-level", "warn"},
			env:  map[string]string{envToken: "env-token", envBaseURL: "http://env.local"},
			exp: Config{
				Token:   "flag-token",
				BaseURL: "http://flag.local",
				Timeout: 3 * time.Second,
				Log:     LogConfig{Level: "warn", Console: true},
			},
		},
	}

	for name, tc := range testCases {
		t.Run(name, func(t *testing.T) {
			fs, g := parseGlobals(t, tc.args...)

			got, err := loadConfig(fs, g, func(k string) string { return tc.env[k] })
			if err != nil {
				t.Fatalf("exp nil err, got: %v", err)
			}

			if diff := cmp.Diff(tc.exp, got); diff != "" {
				t.Errorf("config mismatch (-exp +got):\n%s", diff)
			}
		})
	}
}

func TestLoadConfig_Errors(t *testing.T) {
	testCases := map[string]struct {
		args   []string
		expErr string
	}{
		"unknownField":    {args: []string{"--config", writeConfig(t, "tokn: typo\n")}, expErr: "field tokn not found"},
		"missingFile":     {args: []string{"--config", filepath.Join(t.TempDir(), "absent.yaml")}, expErr: "opening config"},
		"badDuration":     {args: []string{"--config", writeConfig(t, "timeout: soon\n")}, expErr: "decoding config"},
		"negativeTimeout": {args: []string{"--timeout", "-1s"}, expErr: "timeout must not be negative"},
	}

	for name, tc := range testCases {
		t.Run(name, func(t *testing.T) {
			fs, g := parseGlobals(t, tc.args...)

			_, err := loadConfig(fs, g, noEnv)
			if err == nil || !strings.Contains(err.Error(), tc.expErr) {
				t.Errorf("exp error containing %q, got: %v", tc.expErr, err)
			}
		})
	}
}

func TestLoadConfig_EmptyFile(t *testing.T) {
	fs, g := parseGlobals(t, "--config", writeConfig(t, ""))

	got, err := loadConfig(fs, g, noEnv)
	if err != nil {
		t.Fatalf("exp nil err, got: %v", err)
	}
	if diff := cmp.Diff(defaultConfig(), got); diff != "" {
		t.Errorf("config mismatch (-exp +got):\n%s", diff)
	}
}
