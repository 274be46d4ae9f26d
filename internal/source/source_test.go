package source

import (
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"testing"
	"time"
)

func writePNG(t *testing.T, path string, w, h int, c color.RGBA) {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.SetRGBA(x, y, c)
		}
	}
	f, err := os.Create(path)
	if err != nil {
		t.Fatalf("creating %s: %v", path, err)
	}
	defer f.Close()
	if err := png.Encode(f, img); err != nil {
		t.Fatalf("encoding %s: %v", path, err)
	}
}

func TestFileSourceSingleFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "base.png")
	writePNG(t, path, 20, 10, color.RGBA{255, 0, 0, 255})

	src, err := NewFileSource(path)
	if err != nil {
		t.Fatalf("NewFileSource failed: %v", err)
	}
	defer src.Close()

	if src.PageCount() != 1 {
		t.Errorf("PageCount = %d, want 1", src.PageCount())
	}
	img, err := src.Render(0)
	if err != nil {
		t.Fatalf("Render failed: %v", err)
	}
	b := img.Bounds()
	if b.Dx() != 20 || b.Dy() != 10 {
		t.Errorf("rendered %dx%d, want 20x10", b.Dx(), b.Dy())
	}
}

func TestFileSourceDirectory(t *testing.T) {
	dir := t.TempDir()
	writePNG(t, filepath.Join(dir, "b.png"), 4, 4, color.RGBA{0, 255, 0, 255})
	writePNG(t, filepath.Join(dir, "a.png"), 8, 8, color.RGBA{255, 0, 0, 255})
	writePNG(t, filepath.Join(dir, "c.png"), 2, 2, color.RGBA{0, 0, 255, 255})
	if err := os.WriteFile(filepath.Join(dir, "notes.txt"), []byte("x"), 0644); err != nil {
		t.Fatalf("writing fixture: %v", err)
	}

	src, err := NewFileSource(dir)
	if err != nil {
		t.Fatalf("NewFileSource failed: %v", err)
	}
	defer src.Close()

	if src.PageCount() != 3 {
		t.Fatalf("PageCount = %d, want 3 (text file must be skipped)", src.PageCount())
	}
	// Name order: a.png is first.
	img, err := src.Render(0)
	if err != nil {
		t.Fatalf("Render failed: %v", err)
	}
	if img.Bounds().Dx() != 8 {
		t.Errorf("first candidate is %dpx wide, want 8 (a.png)", img.Bounds().Dx())
	}

	if _, err := src.Render(3); err == nil {
		t.Error("out-of-range index accepted")
	}
}

func TestFileSourceEmptyDirectory(t *testing.T) {
	if _, err := NewFileSource(t.TempDir()); err == nil {
		t.Error("directory without images accepted")
	}
}

func TestFileSourceMissing(t *testing.T) {
	if _, err := NewFileSource(filepath.Join(t.TempDir(), "void.png")); err == nil {
		t.Error("missing path accepted")
	}
}

func TestQRSource(t *testing.T) {
	src, err := NewQRSource("https://example.com/loop", 0)
	if err != nil {
		t.Fatalf("NewQRSource failed: %v", err)
	}
	defer src.Close()

	if src.PageCount() != 1 {
		t.Errorf("PageCount = %d, want 1", src.PageCount())
	}
	img, err := src.Render(0)
	if err != nil {
		t.Fatalf("Render failed: %v", err)
	}
	b := img.Bounds()
	if b.Dx() != DefaultQRSize || b.Dy() != DefaultQRSize {
		t.Errorf("qr image is %dx%d, want %dx%d", b.Dx(), b.Dy(), DefaultQRSize, DefaultQRSize)
	}
	if _, err := src.Render(1); err == nil {
		t.Error("out-of-range index accepted")
	}

	small, err := NewQRSource("tiny", 64)
	if err != nil {
		t.Fatalf("NewQRSource(64) failed: %v", err)
	}
	img, err = small.Render(0)
	if err != nil {
		t.Fatalf("Render failed: %v", err)
	}
	if img.Bounds().Dx() != 64 {
		t.Errorf("qr image is %d wide, want 64", img.Bounds().Dx())
	}
}

func TestOpenDispatch(t *testing.T) {
	qr, err := Open("qr:hello", 0)
	if err != nil {
		t.Fatalf("Open(qr:) failed: %v", err)
	}
	if _, ok := qr.(*QRSource); !ok {
		t.Errorf("Open(qr:) returned %T, want *QRSource", qr)
	}

	path := filepath.Join(t.TempDir(), "base.png")
	writePNG(t, path, 4, 4, color.RGBA{1, 2, 3, 255})
	file, err := Open(path, 0)
	if err != nil {
		t.Fatalf("Open(png) failed: %v", err)
	}
	if _, ok := file.(*FileSource); !ok {
		t.Errorf("Open(png) returned %T, want *FileSource", file)
	}
}

func TestLatestImage(t *testing.T) {
	dir := t.TempDir()
	writePNG(t, filepath.Join(dir, "older.png"), 4, 4, color.RGBA{A: 255})
	writePNG(t, filepath.Join(dir, "newer.png"), 4, 4, color.RGBA{A: 255})

	old := time.Now().Add(-time.Hour)
	if err := os.Chtimes(filepath.Join(dir, "older.png"), old, old); err != nil {
		t.Fatalf("Chtimes failed: %v", err)
	}

	got, err := LatestImage(dir)
	if err != nil {
		t.Fatalf("LatestImage failed: %v", err)
	}
	if filepath.Base(got) != "newer.png" {
		t.Errorf("LatestImage returned %s, want newer.png", got)
	}

	if _, err := LatestImage(t.TempDir()); err == nil {
		t.Error("Expected an error for a directory with no images")
	}
}
