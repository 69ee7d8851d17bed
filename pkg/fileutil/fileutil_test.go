package fileutil

import (
	"errors"
	"testing"
	"testing/fstest"
)

func TestFindFile(t *testing.T) {
	fsys := fstest.MapFS{
		"GRP/Title.bmp":   {Data: []byte{1}},
		"GRP/CLIP.DIB":    {Data: []byte{1}},
		"GRP/back.png":    {Data: []byte{1}},
		"GRP/SUB/x.bmp":   {Data: []byte{1}},
		"GRP/" + sjisName: {Data: []byte{1}},
	}

	tests := []struct {
		name       string
		searchName string
		sjis       bool
		want       string
	}{
		{"exact match", "Title.bmp", false, "Title.bmp"},
		{"lowercase search for mixed case file", "title.bmp", false, "Title.bmp"},
		{"mixed case search for uppercase file", "Clip.dib", false, "CLIP.DIB"},
		{"uppercase search for lowercase file", "BACK.PNG", false, "back.png"},
		{"shift-jis name", "テスト.bmp", true, sjisName},
		{"raw shift-jis bytes", sjisName, false, sjisName},
		{"shift-jis name without decoding", "テスト.bmp", false, ""},
		{"directory is not a file", "sub", false, ""},
		{"file not found", "nonexistent.bmp", false, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := FindFile(fsys, "GRP", tt.searchName, tt.sjis)
			if tt.want == "" {
				if !errors.Is(err, ErrNotFound) {
					t.Errorf("error = %v, want %v (got %q)", err, ErrNotFound, got)
				}
				return
			}
			if err != nil {
				t.Fatalf("Expected to find file, but got error: %v", err)
			}
			if got != tt.want {
				t.Errorf("FindFile = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestFindFile_MissingDir(t *testing.T) {
	_, err := FindFile(fstest.MapFS{}, "nowhere", "a.bmp", false)
	if err == nil || errors.Is(err, ErrNotFound) {
		t.Errorf("error = %v, want a directory read error", err)
	}
}
