// Package paperstack implements the document viewer core of a personal
// reference manager: paginated documents rendered at a variable
// magnification with user annotations (highlights and comments) overlaid
// on each page.
//
// The central pieces are:
//
//   - ViewerSession: one open document per session, owning the view state
//     (current page, scale), the render sequencing, and the annotation
//     cache. Stale render completions are discarded by sequence number so
//     rapid navigation never paints an old page over a newer one.
//   - AnnotationStore: an ordered local mirror of the remote annotation
//     store. Every mutation is a request/response pair; the cache is only
//     updated after the remote acknowledged, so the overlay never shows
//     state that is not persisted.
//   - InteractionController: the state machine turning selection, tool,
//     and comment-modal events into store operations and re-renders.
//   - DocumentBackend: the rendering capability behind a session, with
//     PDF and pre-rasterized image-directory implementations.
//   - Library: the server-side sqlite store of papers and annotations the
//     viewer syncs against, served over HTTP by cmd/paperstack.
//
// Annotation positions are stored in page-space units at scale 1.0 and
// mapped to viewport pixels at render time, so they survive zoom changes.
//
// Basic usage:
//
//	lib, err := paperstack.OpenLibrary(root)
//	if err != nil {
//		log.Fatal(err)
//	}
//	defer lib.Close()
//
//	backend := &paperstack.PDFBackend{Root: lib.PDFDir()}
//	session, err := paperstack.NewViewerSession(ctx, backend,
//		&paperstack.LibraryStore{Lib: lib}, "42", nil)
//	if err != nil {
//		log.Fatal(err)
//	}
//	defer session.Close()
//
//	plan, err := session.GoToPage(ctx, 3)
package paperstack
