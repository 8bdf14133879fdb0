package cmd

import (
	"bytes"
	"runtime"
	"strings"
	"testing"
)

func TestVersionString(t *testing.T) {
	got := versionString()
	if !strings.HasPrefix(got, app+" "+version+" ") {
		t.Fatalf("unexpected prefix: %q", got)
	}
	if !strings.Contains(got, runtime.GOOS+"/"+runtime.GOARCH) {
		t.Fatalf("platform is missing: %q", got)
	}
}

func TestVersionShort(t *testing.T) {
	var out bytes.Buffer
	versionCmd.SetOut(&out)
	t.Cleanup(func() { versionCmd.SetOut(nil) })

	if err := versionCmd.Flags().Set("short", "true"); err != nil {
		t.Fatalf("set flag: %v", err)
	}
	t.Cleanup(func() { _ = versionCmd.Flags().Set("short", "false") })

	versionCmd.Run(versionCmd, nil)
	if got := strings.TrimSpace(out.String()); got != version {
		t.Fatalf("expected %q, got %q", version, got)
	}
}
