package zip

import (
	"archive/zip"
	"bytes"
	"fmt"
	"io"
	"strings"
	"time"
)

type Asset struct {
	Filename string
	MIME     string
	Data     []byte
	Modified time.Time
}

// Write streams assets into a ZIP archive on w. Empty assets are skipped.
func Write(w io.Writer, assets []Asset) error {
	zw := zip.NewWriter(w)
	for _, asset := range assets {
		if len(asset.Data) == 0 {
			continue
		}
		hdr := &zip.FileHeader{Name: asset.Filename, Method: method(asset.MIME)}
		if !asset.Modified.IsZero() {
			hdr.Modified = asset.Modified
		}
		fw, err := zw.CreateHeader(hdr)
		if err != nil {
			return fmt.Errorf("zip: create %s: %w", asset.Filename, err)
		}
		if _, err := fw.Write(asset.Data); err != nil {
			return fmt.Errorf("zip: write %s: %w", asset.Filename, err)
		}
	}
	return zw.Close()
}

// ArchiveAssets returns the archive bytes for assets.
func ArchiveAssets(assets []Asset) ([]byte, error) {
	buf := &bytes.Buffer{}
	if err := Write(buf, assets); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// NumberedName names the n-th image of an archive, e.g. image3.png.
func NumberedName(n int, mime string) string {
	return fmt.Sprintf("image%d.%s", n, Extension(mime))
}

// Extension maps an image MIME type to a file extension, defaulting to png.
func Extension(mime string) string {
	mime = strings.ToLower(strings.TrimSpace(strings.Split(mime, ";")[0]))
	switch mime {
	case "image/jpeg", "image/jpg":
		return "jpg"
	case "image/webp":
		return "webp"
	case "image/gif":
		return "gif"
	}
	return "png"
}

// Compressed formats gain nothing from deflate.
func method(mime string) uint16 {
	if strings.HasPrefix(strings.ToLower(mime), "image/") {
		return zip.Store
	}
	return zip.Deflate
}
