package zip

import (
	"archive/zip"
	"bytes"
	"io"
	"testing"
)

func TestArchiveAssets(t *testing.T) {
	data, err := ArchiveAssets([]Asset{
		{Filename: NumberedName(1, "image/png"), MIME: "image/png", Data: []byte("one")},
		{Filename: "empty.png", MIME: "image/png"},
		{Filename: NumberedName(2, "image/jpeg"), MIME: "image/jpeg", Data: []byte("two")},
	})
	if err != nil {
		t.Fatalf("ArchiveAssets error: %v", err)
	}
	zr, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		t.Fatalf("open archive: %v", err)
	}
	if len(zr.File) != 2 {
		t.Fatalf("expected 2 entries, got %d", len(zr.File))
	}
	want := map[string]string{"image1.png": "one", "image2.jpg": "two"}
	for _, f := range zr.File {
		rc, err := f.Open()
		if err != nil {
			t.Fatalf("open %s: %v", f.Name, err)
		}
		got, _ := io.ReadAll(rc)
		_ = rc.Close()
		if want[f.Name] != string(got) {
			t.Fatalf("entry %s = %q, want %q", f.Name, got, want[f.Name])
		}
	}
}

func TestExtension(t *testing.T) {
	tests := map[string]string{
		"image/png":                "png",
		"image/jpeg; charset=x":    "jpg",
		"IMAGE/WEBP":               "webp",
		"application/octet-stream": "png",
		"":                         "png",
	}
	for in, want := range tests {
		if got := Extension(in); got != want {
			t.Fatalf("Extension(%q) = %q, want %q", in, got, want)
		}
	}
}
