package cmd

import (
	"bytes"
	"context"
	"strings"
	"testing"

	"go.uber.org/zap"

	"github.com/dendrascience/telegram-media-fuse/media"
	"github.com/dendrascience/telegram-media-fuse/tgfs"
	"github.com/dendrascience/telegram-media-fuse/util"
)

func TestPrintGeneration(t *testing.T) {
	refresher := tgfs.NewRefresher(media.DemoProvider(), tgfs.NewStore(), util.NewAllocator(), tgfs.RefreshConfig{}, zap.NewNop(), nil)
	gen, err := refresher.Refresh(context.Background())
	if err != nil {
		t.Fatalf("Refresh failed: %v", err)
	}

	tests := []struct {
		name      string
		showFiles bool
		contains  []string
		excludes  []string
	}{
		{
			name:     "conversations",
			contains: []string{"Saved Messages", "Alice", "1002", "2 conversations"},
			excludes: []string{"Text only", "msg-10.jpg"},
		},
		{
			name:      "with files",
			showFiles: true,
			contains:  []string{"msg-10.jpg", "msg-11.vcf", "msg-3.json", "contact"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			printGeneration(&buf, gen, tt.showFiles)
			out := buf.String()
			for _, s := range tt.contains {
				if !strings.Contains(out, s) {
					t.Errorf("output missing %q:\n%s", s, out)
				}
			}
			for _, s := range tt.excludes {
				if strings.Contains(out, s) {
					t.Errorf("output unexpectedly contains %q:\n%s", s, out)
				}
			}
		})
	}
}

func TestLsDemo(t *testing.T) {
	isolate(t)

	root := NewRootCmd()
	var out bytes.Buffer
	root.SetOut(&out)
	root.SetErr(&bytes.Buffer{})
	root.SetArgs([]string{"ls", "--demo", "--log-level=error"})

	if err := root.ExecuteContext(context.Background()); err != nil {
		t.Fatalf("ls failed: %v", err)
	}
	if !strings.Contains(out.String(), "Saved Messages") {
		t.Errorf("ls output missing demo conversation:\n%s", out.String())
	}
}

func TestRootRequiresMountpoint(t *testing.T) {
	root := NewRootCmd()
	root.SetOut(&bytes.Buffer{})
	root.SetErr(&bytes.Buffer{})
	root.SetArgs([]string{})

	if err := root.Execute(); err == nil {
		t.Fatal("root command without MOUNTPOINT succeeded")
	}
}
