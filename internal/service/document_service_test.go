package service

import "testing"

func TestFileType(t *testing.T) {
	tests := []struct {
		name     string
		filename string
		want     string
	}{
		{name: "plain text", filename: "syllabus.txt", want: ".txt"},
		{name: "markdown", filename: "week3.md", want: ".md"},
		{name: "uppercase extension lowered", filename: "REPORT.PDF", want: ".pdf"},
		{name: "no extension", filename: "README", want: "unknown"},
		{name: "dotfile counts as extension", filename: ".gitignore", want: ".gitignore"},
		{name: "multiple dots uses last", filename: "archive.tar.gz", want: ".gz"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := fileType(tt.filename)
			if got != tt.want {
				t.Errorf("fileType(%q) = %q, want %q", tt.filename, got, tt.want)
			}
		})
	}
}
