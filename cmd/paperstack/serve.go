package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"html/template"
	"log"
	"net/http"
	"os"
	"strconv"
	"strings"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"paperstack"
)

var templates = template.Must(template.New("").Parse(`
{{define "head"}}
<!DOCTYPE html>
<html>
<head>
	<meta charset="utf-8">
	<meta name="viewport" content="width=device-width, initial-scale=1">
	<title>{{.Title}} - paperstack</title>
	<style>
		* { box-sizing: border-box; }
		body { font-family: system-ui, sans-serif; max-width: 900px; margin: 0 auto; padding: 1rem; line-height: 1.5; }
		a { color: #0066cc; }
		.paper { border-bottom: 1px solid #eee; padding: 1rem 0; }
		.paper-id { font-family: monospace; color: #666; }
		.paper-title { font-size: 1.1rem; font-weight: 600; margin: 0.25rem 0; }
		.paper-authors { color: #444; }
		.badge { display: inline-block; background: #e0e0e0; padding: 0.1rem 0.4rem; border-radius: 3px; font-size: 0.8rem; margin-right: 0.25rem; }
		.badge-pdf { background: #cce5ff; }
		.nav { margin-bottom: 1rem; }
	</style>
</head>
<body>
<div class="nav"><a href="/">Home</a></div>
{{end}}

{{define "foot"}}
</body>
</html>
{{end}}

{{define "index"}}
{{template "head" .}}
<h1>paperstack</h1>
<p>{{.Stats.TotalPapers}} papers ({{.Stats.Reading}} reading, {{.Stats.Annotations}} annotations)</p>
{{range .Papers}}
<div class="paper">
	<span class="paper-id">{{.ID}}</span>
	{{if .PDFPath}}<span class="badge badge-pdf">pdf</span>{{end}}
	<div class="paper-title">{{if .PDFPath}}<a href="/view/{{.ID}}">{{.Title}}</a>{{else}}{{.Title}}{{end}}</div>
	<div class="paper-authors">{{.Authors}}</div>
</div>
{{else}}
<p>No papers yet. Use <code>paperstack add</code> to add one.</p>
{{end}}
{{template "foot" .}}
{{end}}

{{define "viewer"}}
<!DOCTYPE html>
<html>
<head>
	<meta charset="utf-8">
	<meta name="viewport" content="width=device-width, initial-scale=1">
	<title>{{.Paper.Title}} - paperstack</title>
	<style>
		* { box-sizing: border-box; }
		body { font-family: system-ui, sans-serif; margin: 0; display: flex; flex-direction: column; height: 100vh; }
		.toolbar { display: flex; align-items: center; gap: 0.5rem; padding: 0.5rem 1rem; border-bottom: 1px solid #ddd; background: #fafafa; }
		.toolbar button { padding: 0.3rem 0.6rem; font-size: 0.85rem; cursor: pointer; }
		.toolbar button.active { background: #0066cc; color: #fff; }
		.toolbar .spacer { flex: 1; }
		.toolbar .title { font-weight: 600; white-space: nowrap; overflow: hidden; text-overflow: ellipsis; max-width: 30rem; }
		#surface { position: relative; margin: 1rem auto; background: #fff; box-shadow: 0 1px 6px rgba(0,0,0,0.25); }
		#stage { flex: 1; overflow: auto; background: #525659; }
		#page-frame { display: block; border: 0; width: 100%; height: 100%; }
		.overlay-rect { position: absolute; opacity: 0.4; cursor: pointer; }
		#modal { display: none; position: fixed; top: 30%; left: 50%; transform: translate(-50%, -50%); background: #fff; border: 1px solid #ccc; border-radius: 6px; padding: 1rem; box-shadow: 0 4px 20px rgba(0,0,0,0.3); width: 320px; }
		#modal textarea { width: 100%; height: 5rem; }
		#modal .actions { text-align: right; margin-top: 0.5rem; }
	</style>
</head>
<body>
<div class="toolbar">
	<span class="title">{{.Paper.Title}}</span>
	<span class="spacer"></span>
	<button id="prev">&larr;</button>
	<span id="page-label">1 / {{.PageCount}}</span>
	<button id="next">&rarr;</button>
	<button id="zoom-out">-</button>
	<span id="scale-label">100%</span>
	<button id="zoom-in">+</button>
	<button id="fit-width">Fit</button>
	<button id="tool-highlight" class="active">Highlight</button>
	<button id="tool-comment">Comment</button>
	<input type="color" id="color" value="#ffeb3b">
</div>
<div id="stage">
	<div id="surface">
		<iframe id="page-frame" src="/document/{{.Paper.ID}}#toolbar=0"></iframe>
	</div>
</div>
<div id="modal">
	<strong>Add comment</strong>
	<textarea id="comment-body" placeholder="Your note..."></textarea>
	<div class="actions">
		<button id="comment-cancel">Cancel</button>
		<button id="comment-save">Save</button>
	</div>
</div>
<script>
(function() {
	const ws = new WebSocket((location.protocol === 'https:' ? 'wss://' : 'ws://') + location.host + '/ws/view/{{.Paper.ID}}');
	const surface = document.getElementById('surface');
	const modal = document.getElementById('modal');
	const pageCount = {{.PageCount}};
	let plan = null;

	function send(cmd) { ws.send(JSON.stringify(cmd)); }

	ws.onmessage = function(ev) {
		const msg = JSON.parse(ev.data);
		if (msg.type === 'render') {
			plan = msg.plan;
			paint(plan);
		} else if (msg.type === 'comment_pending') {
			modal.style.display = 'block';
			document.getElementById('comment-body').focus();
		} else if (msg.type === 'error') {
			console.error('viewer:', msg.error);
		}
	};

	function paint(p) {
		surface.style.width = p.size.width + 'px';
		surface.style.height = p.size.height + 'px';
		document.getElementById('page-label').textContent = p.page + ' / ' + pageCount;
		document.getElementById('scale-label').textContent = Math.round(p.scale * 100) + '%';
		surface.querySelectorAll('.overlay-rect').forEach(el => el.remove());
		(p.overlay || []).forEach(function(o) {
			const div = document.createElement('div');
			div.className = 'overlay-rect';
			div.style.left = o.rect.x + 'px';
			div.style.top = o.rect.y + 'px';
			div.style.width = o.rect.width + 'px';
			div.style.height = o.rect.height + 'px';
			div.style.background = o.color;
			if (o.tooltip) div.title = o.tooltip;
			surface.appendChild(div);
		});
	}

	document.getElementById('prev').onclick = () => plan && send({action: 'page', page: plan.page - 1});
	document.getElementById('next').onclick = () => plan && send({action: 'page', page: plan.page + 1});
	document.getElementById('zoom-in').onclick = () => send({action: 'zoom', delta: 0.25});
	document.getElementById('zoom-out').onclick = () => send({action: 'zoom', delta: -0.25});
	document.getElementById('fit-width').onclick = () => send({action: 'fitWidth', width: document.getElementById('stage').clientWidth});

	const hlBtn = document.getElementById('tool-highlight');
	const cmBtn = document.getElementById('tool-comment');
	hlBtn.onclick = () => { send({action: 'tool', tool: 'highlight'}); hlBtn.classList.add('active'); cmBtn.classList.remove('active'); };
	cmBtn.onclick = () => { send({action: 'tool', tool: 'comment'}); cmBtn.classList.add('active'); hlBtn.classList.remove('active'); };
	document.getElementById('color').onchange = e => send({action: 'color', color: e.target.value});

	// Drag a rectangle on the page surface to make a selection.
	let dragStart = null;
	surface.addEventListener('mousedown', e => {
		const r = surface.getBoundingClientRect();
		dragStart = {x: e.clientX - r.left, y: e.clientY - r.top};
	});
	surface.addEventListener('mouseup', e => {
		if (!dragStart) return;
		const r = surface.getBoundingClientRect();
		const end = {x: e.clientX - r.left, y: e.clientY - r.top};
		const rect = {
			x: Math.min(dragStart.x, end.x),
			y: Math.min(dragStart.y, end.y),
			width: Math.abs(end.x - dragStart.x),
			height: Math.abs(end.y - dragStart.y)
		};
		dragStart = null;
		const text = window.getSelection().toString() || 'selection';
		send({action: 'selection', rect: rect, text: text});
	});

	document.getElementById('comment-save').onclick = () => {
		send({action: 'commentSave', body: document.getElementById('comment-body').value});
		document.getElementById('comment-body').value = '';
		modal.style.display = 'none';
	};
	document.getElementById('comment-cancel').onclick = () => {
		send({action: 'commentCancel'});
		document.getElementById('comment-body').value = '';
		modal.style.display = 'none';
	};

	ws.onopen = () => send({action: 'page', page: 1});
})();
</script>
</body>
</html>
{{end}}
`))

func cmdServe(ctx context.Context, cfg *paperstack.Config, args []string) {
	fs := flag.NewFlagSet("serve", flag.ExitOnError)
	host := fs.String("host", cfg.Server.Host, "Host to bind to")
	port := fs.Int("port", cfg.Server.Port, "Port to listen on")
	fs.Parse(args)

	lib := openLibrary(cfg)
	defer lib.Close()

	srv := &server{lib: lib, cfg: cfg}
	mux := http.NewServeMux()
	mux.HandleFunc("/", srv.handleIndex)
	mux.HandleFunc("/view/", srv.handleViewer)
	mux.HandleFunc("/document/", srv.handleDocument)
	mux.HandleFunc("/annotations/", srv.handleAnnotationDelete)
	mux.HandleFunc("/ws/view/", srv.handleViewerSocket)

	addr := fmt.Sprintf("%s:%d", *host, *port)
	log.Printf("Starting server at http://%s", addr)

	httpServer := &http.Server{Addr: addr, Handler: mux}
	go func() {
		<-ctx.Done()
		httpServer.Shutdown(context.Background())
	}()

	if err := httpServer.ListenAndServe(); err != http.ErrServerClosed {
		log.Fatalf("server error: %v", err)
	}
}

type server struct {
	lib *paperstack.Library
	cfg *paperstack.Config
}

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 4096,
}

func (s *server) handleIndex(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/" {
		http.NotFound(w, r)
		return
	}

	ctx := r.Context()
	stats, err := s.lib.Stats(ctx)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	papers, err := s.lib.ListPapers(ctx, "", 0, 50)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	data := map[string]any{
		"Title":  "Home",
		"Stats":  stats,
		"Papers": papers,
	}
	templates.ExecuteTemplate(w, "index", data)
}

func (s *server) handleViewer(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(strings.TrimPrefix(r.URL.Path, "/view/"), 10, 64)
	if err != nil {
		http.NotFound(w, r)
		return
	}

	ctx := r.Context()
	p, err := s.lib.GetPaper(ctx, id)
	if err != nil {
		http.NotFound(w, r)
		return
	}
	if p.PDFPath == "" {
		http.Error(w, "paper has no PDF", http.StatusNotFound)
		return
	}

	backend := &paperstack.PDFBackend{Root: s.lib.PDFDir()}
	doc, err := backend.Open(ctx, strconv.FormatInt(id, 10))
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	pageCount := doc.PageCount()
	doc.Close()

	data := map[string]any{
		"Paper":     p,
		"PageCount": pageCount,
	}
	templates.ExecuteTemplate(w, "viewer", data)
}

// handleDocument serves the remote document API:
//
//	GET  /document/{id}              raw PDF bytes
//	GET  /document/{id}/meta         document metadata JSON
//	GET  /document/{id}/annotations  annotation list JSON
//	POST /document/{id}/annotations  create annotation, echo with id
func (s *server) handleDocument(w http.ResponseWriter, r *http.Request) {
	path := strings.TrimPrefix(r.URL.Path, "/document/")
	if path == "" {
		http.NotFound(w, r)
		return
	}

	idPart, rest, _ := strings.Cut(path, "/")
	id, err := strconv.ParseInt(idPart, 10, 64)
	if err != nil {
		http.NotFound(w, r)
		return
	}

	ctx := r.Context()
	p, err := s.lib.GetPaper(ctx, id)
	if err != nil {
		http.NotFound(w, r)
		return
	}

	switch rest {
	case "":
		if r.Method != http.MethodGet {
			http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
			return
		}
		if p.PDFPath == "" {
			http.Error(w, "document not available", http.StatusNotFound)
			return
		}
		if _, err := os.Stat(p.PDFPath); err != nil {
			http.Error(w, "document file missing", http.StatusNotFound)
			return
		}
		w.Header().Set("Content-Type", "application/pdf")
		w.Header().Set("Content-Disposition", fmt.Sprintf("inline; filename=%q", idPart+".pdf"))
		http.ServeFile(w, r, p.PDFPath)

	case "meta":
		if r.Method != http.MethodGet {
			http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(p.Meta())

	case "annotations":
		switch r.Method {
		case http.MethodGet:
			anns, err := s.lib.Annotations(ctx, id)
			if err != nil {
				http.Error(w, err.Error(), http.StatusInternalServerError)
				return
			}
			if anns == nil {
				anns = []paperstack.Annotation{}
			}
			w.Header().Set("Content-Type", "application/json")
			json.NewEncoder(w).Encode(anns)

		case http.MethodPost:
			var a paperstack.Annotation
			if err := json.NewDecoder(r.Body).Decode(&a); err != nil {
				http.Error(w, "bad annotation: "+err.Error(), http.StatusBadRequest)
				return
			}
			a.ID = 0
			if err := s.lib.AddAnnotation(ctx, id, &a); err != nil {
				http.Error(w, err.Error(), http.StatusInternalServerError)
				return
			}
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusCreated)
			json.NewEncoder(w).Encode(a)

		default:
			http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		}

	default:
		http.NotFound(w, r)
	}
}

// handleAnnotationDelete serves DELETE /annotations/{id}.
func (s *server) handleAnnotationDelete(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodDelete {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	id, err := strconv.ParseInt(strings.TrimPrefix(r.URL.Path, "/annotations/"), 10, 64)
	if err != nil {
		http.NotFound(w, r)
		return
	}

	found, err := s.lib.DeleteAnnotation(r.Context(), id)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	if !found {
		http.NotFound(w, r)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// viewerCommand is one message from the browser viewer.
type viewerCommand struct {
	Action string                  `json:"action"`
	Page   int                     `json:"page,omitempty"`
	Delta  float64                 `json:"delta,omitempty"`
	Width  float64                 `json:"width,omitempty"`
	Tool   string                  `json:"tool,omitempty"`
	Color  string                  `json:"color,omitempty"`
	Rect   paperstack.ViewportRect `json:"rect,omitempty"`
	Text   string                  `json:"text,omitempty"`
	Body   string                  `json:"body,omitempty"`
	ID     int64                   `json:"id,omitempty"`
}

// viewerEvent is one message to the browser viewer.
type viewerEvent struct {
	Type  string                 `json:"type"`
	Plan  *paperstack.RenderPlan `json:"plan,omitempty"`
	Error string                 `json:"error,omitempty"`
}

// handleViewerSocket runs one viewer session over a websocket. The browser
// sends navigation and annotation commands; each state change that produces
// a new render plan is pushed back as a render event.
func (s *server) handleViewerSocket(w http.ResponseWriter, r *http.Request) {
	docID := strings.TrimPrefix(r.URL.Path, "/ws/view/")
	if docID == "" {
		http.NotFound(w, r)
		return
	}

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("viewer upgrade: %v", err)
		return
	}
	defer conn.Close()

	sid := uuid.NewString()
	ctx := r.Context()

	backend := &paperstack.PDFBackend{Root: s.lib.PDFDir()}
	session, err := paperstack.NewViewerSession(ctx, backend,
		&paperstack.LibraryStore{Lib: s.lib}, docID, &paperstack.SessionOptions{
			FitPadding:      s.cfg.Viewer.FitPadding,
			RasterCacheSize: s.cfg.Viewer.RasterCache,
		})
	if err != nil {
		conn.WriteJSON(viewerEvent{Type: "error", Error: err.Error()})
		return
	}
	defer session.Close()

	ic := paperstack.NewInteractionController()
	ic.Attach(session)

	log.Printf("viewer session %s: document %s, %d pages", sid, docID, session.PageCount())

	for {
		var cmd viewerCommand
		if err := conn.ReadJSON(&cmd); err != nil {
			if !websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				log.Printf("viewer session %s: read: %v", sid, err)
			}
			return
		}

		plan, err := s.dispatch(ctx, session, ic, cmd)
		if err != nil {
			conn.WriteJSON(viewerEvent{Type: "error", Error: err.Error()})
			continue
		}
		if plan == nil {
			// Comment tool parks the selection until the body arrives.
			if state, _ := ic.State(); state == paperstack.StateCommentPending {
				conn.WriteJSON(viewerEvent{Type: "comment_pending"})
			}
			continue
		}
		if err := conn.WriteJSON(viewerEvent{Type: "render", Plan: plan}); err != nil {
			log.Printf("viewer session %s: write: %v", sid, err)
			return
		}
	}
}

func (s *server) dispatch(ctx context.Context, session *paperstack.ViewerSession, ic *paperstack.InteractionController, cmd viewerCommand) (*paperstack.RenderPlan, error) {
	switch cmd.Action {
	case "page":
		return session.GoToPage(ctx, cmd.Page)
	case "zoom":
		return session.Zoom(ctx, cmd.Delta)
	case "fitWidth":
		return session.FitWidth(ctx, cmd.Width)
	case "refresh":
		return session.Refresh(ctx)
	case "tool":
		ic.SelectTool(paperstack.AnnotationType(cmd.Tool))
		return nil, nil
	case "color":
		ic.SelectColor(cmd.Color)
		return nil, nil
	case "selection":
		return ic.SelectionFinalized(ctx, cmd.Rect, cmd.Text)
	case "commentSave":
		return ic.CommentSaved(ctx, cmd.Body)
	case "commentCancel":
		ic.CommentCancelled()
		return nil, nil
	case "delete":
		return ic.DeleteAnnotation(ctx, cmd.ID)
	default:
		return nil, errors.New("unknown action " + strconv.Quote(cmd.Action))
	}
}
