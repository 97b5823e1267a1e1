package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"strconv"

	"paperstack"
)

func main() {
	log.SetFlags(0)

	if len(os.Args) < 2 {
		usage()
		os.Exit(1)
	}

	cfg, err := paperstack.LoadConfig(os.Getenv("PAPERSTACK_CONFIG"))
	if err != nil {
		log.Fatalf("load config: %v", err)
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt)
	defer cancel()

	cmd := os.Args[1]
	args := os.Args[2:]

	switch cmd {
	case "add":
		cmdAdd(ctx, cfg, args)
	case "list":
		cmdList(ctx, cfg, args)
	case "get":
		cmdGet(ctx, cfg, args)
	case "search":
		cmdSearch(ctx, cfg, args)
	case "annotations":
		cmdAnnotations(ctx, cfg, args)
	case "export":
		cmdExport(ctx, cfg, args)
	case "stats":
		cmdStats(ctx, cfg, args)
	case "reindex":
		cmdReindex(ctx, cfg, args)
	case "serve":
		cmdServe(ctx, cfg, args)
	case "help":
		usage()
	default:
		log.Fatalf("unknown command: %s", cmd)
	}
}

func usage() {
	fmt.Println(`paperstack - personal reference manager with an annotating viewer

Usage: paperstack <command> [options]

Commands:
  add          Add a paper to the library
  list         List papers
  get          Show a paper's info
  search       Search papers by title/abstract
  annotations  List a paper's annotations
  export       Export a paper's annotations as text or PDF
  stats        Show library statistics
  serve        Start the document/annotation server and viewer
  reindex      Rebuild the full-text search index

Environment:
  PAPERSTACK_HOME    Library directory (default: ~/.paperstack)
  PAPERSTACK_CONFIG  Config file path (default: <home>/config.toml)
  PAPERSTACK_PORT    Server port override

Examples:
  paperstack add -title "Attention Is All You Need" -pdf paper.pdf
  paperstack list -status reading
  paperstack search "transformer"
  paperstack annotations 3
  paperstack export -pdf notes.pdf 3
  paperstack serve -port 5000`)
}

func openLibrary(cfg *paperstack.Config) *paperstack.Library {
	lib, err := paperstack.OpenLibrary(cfg.LibraryRoot)
	if err != nil {
		log.Fatalf("open library: %v", err)
	}
	return lib
}

func paperIDArg(fs *flag.FlagSet) int64 {
	if fs.NArg() == 0 {
		log.Fatal("missing paper id")
	}
	id, err := strconv.ParseInt(fs.Arg(0), 10, 64)
	if err != nil {
		log.Fatalf("bad paper id %q", fs.Arg(0))
	}
	return id
}

func cmdAdd(ctx context.Context, cfg *paperstack.Config, args []string) {
	fs := flag.NewFlagSet("add", flag.ExitOnError)
	title := fs.String("title", "", "Paper title (required)")
	authors := fs.String("authors", "", "Authors")
	url := fs.String("url", "", "Source URL")
	doi := fs.String("doi", "", "DOI")
	arxivID := fs.String("arxiv", "", "arXiv identifier")
	pdfPath := fs.String("pdf", "", "PDF file to import")
	fs.Parse(args)

	if *title == "" {
		log.Fatal("usage: paperstack add -title <title> [-authors ...] [-pdf file.pdf]")
	}

	lib := openLibrary(cfg)
	defer lib.Close()

	p := &paperstack.Paper{
		Title:   *title,
		Authors: *authors,
		URL:     *url,
		DOI:     *doi,
		ArxivID: *arxivID,
	}
	if err := lib.AddPaper(ctx, p); err != nil {
		log.Fatalf("add paper: %v", err)
	}

	if *pdfPath != "" {
		if err := lib.ImportPDF(ctx, p.ID, *pdfPath); err != nil {
			log.Fatalf("import pdf: %v", err)
		}
	}

	fmt.Printf("Added paper %d: %s\n", p.ID, p.Title)
}

func cmdList(ctx context.Context, cfg *paperstack.Config, args []string) {
	fs := flag.NewFlagSet("list", flag.ExitOnError)
	status := fs.String("status", "", "Filter by status (reading, done, archived)")
	limit := fs.Int("limit", 20, "Max results")
	offset := fs.Int("offset", 0, "Offset for pagination")
	fs.Parse(args)

	lib := openLibrary(cfg)
	defer lib.Close()

	papers, err := lib.ListPapers(ctx, *status, *offset, *limit)
	if err != nil {
		log.Fatalf("list: %v", err)
	}

	if len(papers) == 0 {
		fmt.Println("No papers in the library.")
		return
	}

	for _, p := range papers {
		marker := ""
		if p.PDFPath != "" {
			marker = " [pdf]"
		}
		fmt.Printf("[%d] %s (%s)%s\n", p.ID, p.Title, p.Status, marker)
	}
}

func cmdGet(ctx context.Context, cfg *paperstack.Config, args []string) {
	fs := flag.NewFlagSet("get", flag.ExitOnError)
	fs.Parse(args)

	lib := openLibrary(cfg)
	defer lib.Close()

	p, err := lib.GetPaper(ctx, paperIDArg(fs))
	if err != nil {
		log.Fatalf("get paper: %v", err)
	}

	fmt.Printf("ID:       %d\n", p.ID)
	fmt.Printf("Title:    %s\n", p.Title)
	fmt.Printf("Authors:  %s\n", p.Authors)
	fmt.Printf("Status:   %s\n", p.Status)
	if p.DOI != "" {
		fmt.Printf("DOI:      %s\n", p.DOI)
	}
	if p.ArxivID != "" {
		fmt.Printf("arXiv:    %s\n", p.ArxivID)
	}
	if tags := p.TagList(); len(tags) > 0 {
		fmt.Printf("Tags:     %v\n", tags)
	}
	if p.PDFPath != "" {
		fmt.Printf("PDF:      %s\n", p.PDFPath)
	}
	if p.Abstract != "" {
		fmt.Printf("\nAbstract:\n%s\n", p.Abstract)
	}
}

func cmdSearch(ctx context.Context, cfg *paperstack.Config, args []string) {
	fs := flag.NewFlagSet("search", flag.ExitOnError)
	limit := fs.Int("limit", 20, "Max results")
	fs.Parse(args)

	if fs.NArg() == 0 {
		log.Fatal("usage: paperstack search <query>")
	}

	lib := openLibrary(cfg)
	defer lib.Close()

	results, err := lib.SearchPapers(ctx, fs.Arg(0), *limit)
	if err != nil {
		log.Fatalf("search: %v", err)
	}

	if len(results) == 0 {
		fmt.Println("No results found.")
		return
	}

	for _, p := range results {
		fmt.Printf("[%d] %s\n", p.ID, p.Title)
		if p.Authors != "" {
			fmt.Printf("  %s\n", p.Authors)
		}
	}
}

func cmdAnnotations(ctx context.Context, cfg *paperstack.Config, args []string) {
	fs := flag.NewFlagSet("annotations", flag.ExitOnError)
	fs.Parse(args)

	lib := openLibrary(cfg)
	defer lib.Close()

	id := paperIDArg(fs)
	anns, err := lib.Annotations(ctx, id)
	if err != nil {
		log.Fatalf("annotations: %v", err)
	}

	if len(anns) == 0 {
		fmt.Println("No annotations.")
		return
	}

	for _, a := range anns {
		fmt.Printf("[%d] p.%d %s %q", a.ID, a.Page, a.Type, a.SelectionText)
		if a.Content != "" {
			fmt.Printf(" - %s", a.Content)
		}
		fmt.Println()
	}
}

func cmdExport(ctx context.Context, cfg *paperstack.Config, args []string) {
	fs := flag.NewFlagSet("export", flag.ExitOnError)
	pdfOut := fs.String("pdf", "", "Write a PDF report to this path instead of text")
	fs.Parse(args)

	lib := openLibrary(cfg)
	defer lib.Close()

	id := paperIDArg(fs)
	p, err := lib.GetPaper(ctx, id)
	if err != nil {
		log.Fatalf("get paper: %v", err)
	}
	anns, err := lib.Annotations(ctx, id)
	if err != nil {
		log.Fatalf("annotations: %v", err)
	}

	if *pdfOut != "" {
		if err := paperstack.ExportAnnotationsPDF(*pdfOut, p, anns); err != nil {
			log.Fatalf("export pdf: %v", err)
		}
		fmt.Printf("Wrote %s\n", *pdfOut)
		return
	}

	fmt.Print(paperstack.AnnotationReport(p, anns))
}

func cmdStats(ctx context.Context, cfg *paperstack.Config, args []string) {
	lib := openLibrary(cfg)
	defer lib.Close()

	stats, err := lib.Stats(ctx)
	if err != nil {
		log.Fatalf("stats: %v", err)
	}

	fmt.Printf("Library: %s\n", cfg.LibraryRoot)
	fmt.Printf("Total papers: %d\n", stats.TotalPapers)
	fmt.Printf("Reading:      %d\n", stats.Reading)
	fmt.Printf("Done:         %d\n", stats.Done)
	fmt.Printf("Annotations:  %d\n", stats.Annotations)
}

func cmdReindex(ctx context.Context, cfg *paperstack.Config, args []string) {
	lib := openLibrary(cfg)
	defer lib.Close()

	fmt.Println("Rebuilding FTS index...")
	if err := lib.RebuildFTSIndex(ctx); err != nil {
		log.Fatalf("reindex: %v", err)
	}
	fmt.Println("Done.")
}
