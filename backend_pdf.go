package paperstack

import (
	"context"
	"fmt"
	"image"
	"image/color"
	"image/draw"
	"math"
	"path/filepath"

	"seehuhn.de/go/pdf"
	"seehuhn.de/go/pdf/pagetree"
)

// US Letter in PDF points, used when a page has no usable MediaBox.
const (
	defaultPageWidth  = 612.0
	defaultPageHeight = 792.0
)

// PDFBackend opens PDF files stored under Root as <id>.pdf. Page counts and
// natural sizes come from the document's page tree; rasters are blank
// surfaces at the scaled page dimensions. Painting page content is the
// presentation layer's job, which renders the served document bytes itself.
type PDFBackend struct {
	Root string
}

func (b *PDFBackend) Open(ctx context.Context, id string) (Document, error) {
	if err := ctx.Err(); err != nil {
		return nil, &DocumentLoadError{ID: id, Err: err}
	}

	path := filepath.Join(b.Root, id+".pdf")
	r, err := pdf.Open(path, nil)
	if err != nil {
		return nil, &DocumentLoadError{ID: id, Err: err}
	}
	defer r.Close()

	n, err := pagetree.NumPages(r)
	if err != nil {
		return nil, &DocumentLoadError{ID: id, Err: fmt.Errorf("read page tree: %w", err)}
	}
	if n < 1 {
		return nil, &DocumentLoadError{ID: id, Err: fmt.Errorf("document has no pages")}
	}

	// Sizes are read eagerly so the reader can be closed before the
	// document handle is used.
	sizes := make([]PageSize, n)
	for i := 0; i < n; i++ {
		sizes[i] = PageSize{Width: defaultPageWidth, Height: defaultPageHeight}
		dict, err := pagetree.GetPage(r, i)
		if err != nil {
			continue
		}
		box, err := pdf.GetRectangle(r, dict["MediaBox"])
		if err != nil || box == nil {
			continue
		}
		w := box.URx - box.LLx
		h := box.URy - box.LLy
		if w > 0 && h > 0 {
			sizes[i] = PageSize{Width: w, Height: h}
		}
	}

	return &pdfDocument{sizes: sizes}, nil
}

type pdfDocument struct {
	sizes []PageSize
}

func (d *pdfDocument) PageCount() int {
	return len(d.sizes)
}

func (d *pdfDocument) PageSize(page int, scale float64) (PageSize, error) {
	if page < 1 || page > len(d.sizes) {
		return PageSize{}, fmt.Errorf("page %d out of range [1, %d]", page, len(d.sizes))
	}
	s := d.sizes[page-1]
	return PageSize{Width: s.Width * scale, Height: s.Height * scale}, nil
}

func (d *pdfDocument) RenderPage(ctx context.Context, page int, scale float64) (*RasterSurface, error) {
	if err := ctx.Err(); err != nil {
		return nil, &RenderError{Page: page, Err: err}
	}
	size, err := d.PageSize(page, scale)
	if err != nil {
		return nil, &RenderError{Page: page, Err: err}
	}

	w := int(math.Round(size.Width))
	h := int(math.Round(size.Height))
	if w < 1 {
		w = 1
	}
	if h < 1 {
		h = 1
	}

	img := image.NewRGBA(image.Rect(0, 0, w, h))
	draw.Draw(img, img.Bounds(), image.NewUniform(color.White), image.Point{}, draw.Src)

	return &RasterSurface{
		Page:   page,
		Scale:  scale,
		Width:  w,
		Height: h,
		Image:  img,
	}, nil
}

func (d *pdfDocument) Close() error { return nil }
