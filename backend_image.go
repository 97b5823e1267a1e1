package paperstack

import (
	"context"
	"fmt"
	"image"
	"image/png"
	"math"
	"os"
	"path/filepath"
	"sort"

	"golang.org/x/image/draw"
)

// ImageDirBackend serves documents that have been pre-rasterized into page
// images. A document with id "d" is the directory <Root>/d containing files
// named page-0001.png, page-0002.png, ... in page order.
type ImageDirBackend struct {
	Root string
}

func (b *ImageDirBackend) Open(ctx context.Context, id string) (Document, error) {
	dir := filepath.Join(b.Root, id)
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, &DocumentLoadError{ID: id, Err: err}
	}

	var files []string
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		name := e.Name()
		if filepath.Ext(name) == ".png" {
			files = append(files, filepath.Join(dir, name))
		}
	}
	sort.Strings(files)
	if len(files) == 0 {
		return nil, &DocumentLoadError{ID: id, Err: fmt.Errorf("no page images in %s", dir)}
	}

	// Read natural page sizes up front so PageSize never touches the disk.
	sizes := make([]PageSize, len(files))
	for i, f := range files {
		cfg, err := readImageConfig(f)
		if err != nil {
			return nil, &DocumentLoadError{ID: id, Err: err}
		}
		sizes[i] = PageSize{Width: float64(cfg.Width), Height: float64(cfg.Height)}
	}

	return &imageDocument{files: files, sizes: sizes}, nil
}

func readImageConfig(path string) (image.Config, error) {
	f, err := os.Open(path)
	if err != nil {
		return image.Config{}, err
	}
	defer f.Close()
	cfg, err := png.DecodeConfig(f)
	if err != nil {
		return image.Config{}, fmt.Errorf("decode %s: %w", filepath.Base(path), err)
	}
	return cfg, nil
}

type imageDocument struct {
	files []string
	sizes []PageSize
}

func (d *imageDocument) PageCount() int {
	return len(d.files)
}

func (d *imageDocument) PageSize(page int, scale float64) (PageSize, error) {
	if page < 1 || page > len(d.sizes) {
		return PageSize{}, fmt.Errorf("page %d out of range [1, %d]", page, len(d.sizes))
	}
	s := d.sizes[page-1]
	return PageSize{Width: s.Width * scale, Height: s.Height * scale}, nil
}

func (d *imageDocument) RenderPage(ctx context.Context, page int, scale float64) (*RasterSurface, error) {
	if err := ctx.Err(); err != nil {
		return nil, &RenderError{Page: page, Err: err}
	}
	if page < 1 || page > len(d.files) {
		return nil, &RenderError{Page: page, Err: fmt.Errorf("page out of range [1, %d]", len(d.files))}
	}

	f, err := os.Open(d.files[page-1])
	if err != nil {
		return nil, &RenderError{Page: page, Err: err}
	}
	defer f.Close()

	src, err := png.Decode(f)
	if err != nil {
		return nil, &RenderError{Page: page, Err: err}
	}

	w := int(math.Round(float64(src.Bounds().Dx()) * scale))
	h := int(math.Round(float64(src.Bounds().Dy()) * scale))
	if w < 1 {
		w = 1
	}
	if h < 1 {
		h = 1
	}

	dst := image.NewRGBA(image.Rect(0, 0, w, h))
	draw.ApproxBiLinear.Scale(dst, dst.Bounds(), src, src.Bounds(), draw.Src, nil)

	return &RasterSurface{
		Page:   page,
		Scale:  scale,
		Width:  w,
		Height: h,
		Image:  dst,
	}, nil
}

func (d *imageDocument) Close() error { return nil }
