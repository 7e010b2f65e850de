package cli

import (
	"cmp"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"html/template"
	"net/http"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"time"

	"github.com/charmbracelet/log"
	"github.com/fsnotify/fsnotify"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/spf13/cobra"

	"github.com/topomesh/meshify/pkg/archive"
	errs "github.com/topomesh/meshify/pkg/errors"
	"github.com/topomesh/meshify/pkg/pipeline"
	"github.com/topomesh/meshify/pkg/topo"
)

// watchDebounce coalesces bursts of file events into one pipeline run.
// Editors produce several writes per save.
const watchDebounce = 250 * time.Millisecond

// shutdownTimeout bounds graceful shutdown and backend disconnects.
const shutdownTimeout = 5 * time.Second

// serveOpts holds the command-line flags for the serve command.
type serveOpts struct {
	addr    string // listen address
	dir     string // artifact directory to serve
	watch   string // topology file to re-mesh on change, "" disables
	formats string // artifact formats rendered on watch
	noCache bool   // disable the artifact cache for watch runs
}

// serveCommand creates the serve command.
func (c *CLI) serveCommand() *cobra.Command {
	var formatsStr string
	opts := serveOpts{
		addr: cmp.Or(c.cfg.Serve.Addr, ":8080"),
		dir:  "artifacts",
	}

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve artifacts and run history over HTTP",
		Long: `Serve the artifact directory and the run history over HTTP.

The index page lists archived runs with links to their artifacts. With
--watch, the given topology file is re-meshed and re-rendered on every
change, so a browser refresh always shows the current state.

Routes:
  GET /                 index page
  GET /api/runs         archived runs as JSON
  GET /api/runs/{id}    one archived run
  GET /artifacts/*      rendered artifact files`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			opts.formats = formatsStr
			return c.runServe(cmd.Context(), opts)
		},
	}

	cmd.Flags().StringVar(&opts.addr, "addr", opts.addr, "listen address")
	cmd.Flags().StringVar(&opts.dir, "dir", opts.dir, "artifact directory to serve")
	cmd.Flags().StringVar(&opts.watch, "watch", "", "topology file to re-mesh on change")
	cmd.Flags().StringVarP(&formatsStr, "formats", "f", "svg", "artifact format(s) rendered on watch (comma-separated)")
	cmd.Flags().BoolVar(&opts.noCache, "no-cache", false, "disable the artifact cache")

	return cmd
}

// runServe starts the artifact server and blocks until the context ends.
func (c *CLI) runServe(ctx context.Context, opts serveOpts) error {
	formats := parseFormats(opts.formats)
	if err := pipeline.ValidateFormats(formats); err != nil {
		return err
	}
	if err := os.MkdirAll(opts.dir, 0755); err != nil {
		return fmt.Errorf("create artifact dir: %w", err)
	}

	store, err := c.newArchive(ctx)
	if err != nil {
		return fmt.Errorf("open archive: %w", err)
	}
	defer func() {
		closeCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		_ = store.Close(closeCtx)
	}()

	if opts.watch != "" {
		if err := c.watchTopology(ctx, opts, formats); err != nil {
			return err
		}
	}

	s := &server{store: store, dir: opts.dir, logger: c.Logger}
	srv := &http.Server{
		Addr:              opts.addr,
		Handler:           s.router(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.ListenAndServe()
	}()

	url := opts.addr
	if strings.HasPrefix(url, ":") {
		url = "http://localhost" + url
	}
	printSuccess("Serving artifacts from %s", opts.dir)
	fmt.Println("  " + StyleLink.Render(url))

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("shutdown: %w", err)
		}
		<-errCh
		c.Logger.Info("Server stopped")
		return nil
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("serve: %w", err)
	}
}

// =============================================================================
// HTTP Handlers
// =============================================================================

// server bundles the shared state of the HTTP handlers.
type server struct {
	store  archive.Store
	dir    string
	logger *log.Logger
}

// router builds the chi route tree.
func (s *server) router() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(requestLogger(s.logger))

	r.Get("/", s.handleIndex)
	r.Route("/api", func(r chi.Router) {
		r.Get("/runs", s.handleRuns)
		r.Get("/runs/{id}", s.handleRun)
	})
	r.Handle("/artifacts/*", http.StripPrefix("/artifacts/", http.FileServer(http.Dir(s.dir))))

	return r
}

// requestLogger logs one line per request.
func requestLogger(logger *log.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
			next.ServeHTTP(ww, r)
			logger.Info("Request",
				"method", r.Method,
				"path", r.URL.Path,
				"status", ww.Status(),
				"bytes", ww.BytesWritten(),
				"duration", time.Since(start).Round(time.Millisecond),
				"id", middleware.GetReqID(r.Context()),
			)
		})
	}
}

// apiError is the JSON error envelope for the API routes.
type apiError struct {
	Error struct {
		Code    string `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

// writeJSON writes v as JSON with the given status.
func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// writeAPIError maps a coded error to its JSON envelope.
func writeAPIError(w http.ResponseWriter, status int, err error) {
	var e apiError
	e.Error.Code = string(errs.GetCode(err))
	if e.Error.Code == "" {
		e.Error.Code = string(errs.ErrCodeInternal)
	}
	e.Error.Message = errs.UserMessage(err)
	writeJSON(w, status, e)
}

// handleRuns returns the archived runs, newest first.
func (s *server) handleRuns(w http.ResponseWriter, r *http.Request) {
	runs, err := s.store.List(r.Context(), 0)
	if err != nil {
		s.logger.Error("List runs failed", "err", err)
		writeAPIError(w, http.StatusInternalServerError, errs.Wrap(errs.ErrCodeInternal, err, "list runs"))
		return
	}
	if runs == nil {
		runs = []*archive.Run{}
	}
	writeJSON(w, http.StatusOK, runs)
}

// handleRun returns one archived run by id.
func (s *server) handleRun(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	run, err := s.store.Get(r.Context(), id)
	if err != nil {
		s.logger.Error("Get run failed", "err", err, "id", id)
		writeAPIError(w, http.StatusInternalServerError, errs.Wrap(errs.ErrCodeInternal, err, "get run"))
		return
	}
	if run == nil {
		writeAPIError(w, http.StatusNotFound, errs.New(errs.ErrCodeRunNotFound, "run %s not found", id))
		return
	}
	writeJSON(w, http.StatusOK, run)
}

// indexTemplate renders the landing page: artifact links and recent runs.
var indexTemplate = template.Must(template.New("index").Parse(`<!doctype html>
<html>
<head>
<meta charset="utf-8">
<title>meshify</title>
<style>
  body { font-family: ui-monospace, monospace; margin: 2rem auto; max-width: 48rem; color: #ddd; background: #111; }
  h1 { color: #2aa198; }
  table { border-collapse: collapse; width: 100%; }
  th, td { text-align: left; padding: 0.3rem 0.8rem 0.3rem 0; border-bottom: 1px solid #333; }
  th { color: #888; font-weight: normal; }
  a { color: #6ca0f0; }
  .ok { color: #4cbb6c; }
  .warn { color: #d9a521; }
</style>
</head>
<body>
<h1>meshify</h1>
<h2>Artifacts</h2>
{{if .Artifacts}}<ul>{{range .Artifacts}}<li><a href="/artifacts/{{.}}">{{.}}</a></li>{{end}}</ul>{{else}}<p>No artifacts yet.</p>{{end}}
<h2>Runs</h2>
{{if .Runs}}<table>
<tr><th>When</th><th>Run</th><th>Name</th><th>Nodes</th><th>Links</th><th>Cuts</th><th>Added</th></tr>
{{range .Runs}}<tr>
<td>{{.CreatedAt.Format "2006-01-02 15:04:05"}}</td>
<td><a href="/api/runs/{{.ID}}">{{printf "%.8s" .ID}}</a></td>
<td>{{.Name}}</td>
<td>{{.Nodes}}</td>
<td>{{.Edges}}</td>
<td class="{{if .CutsAfter}}warn{{else}}ok{{end}}">{{.CutsBefore}} &rarr; {{.CutsAfter}}</td>
<td>{{.EdgesAdded}}</td>
</tr>{{end}}
</table>{{else}}<p>No runs archived yet.</p>{{end}}
</body>
</html>
`))

// handleIndex renders the landing page.
func (s *server) handleIndex(w http.ResponseWriter, r *http.Request) {
	runs, err := s.store.List(r.Context(), 20)
	if err != nil {
		s.logger.Error("List runs failed", "err", err)
		runs = nil
	}

	files, err := listArtifacts(s.dir)
	if err != nil {
		s.logger.Error("List artifacts failed", "err", err)
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	data := struct {
		Runs      []*archive.Run
		Artifacts []string
	}{runs, files}
	if err := indexTemplate.Execute(w, data); err != nil {
		s.logger.Error("Render index failed", "err", err)
	}
}

// listArtifacts returns the artifact file names in dir, sorted.
func listArtifacts(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, err
	}
	var files []string
	for _, e := range entries {
		if !e.IsDir() {
			files = append(files, e.Name())
		}
	}
	slices.Sort(files)
	return files, nil
}

// =============================================================================
// Topology Watching
// =============================================================================

// watchTopology re-runs the pipeline whenever the watched file changes.
// The watcher observes the parent directory and filters events by name:
// editors replace files on save, which would strand a watch pinned to the
// old inode.
func (c *CLI) watchTopology(ctx context.Context, opts serveOpts, formats []string) error {
	path, err := filepath.Abs(opts.watch)
	if err != nil {
		return fmt.Errorf("resolve watch path: %w", err)
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("create watcher: %w", err)
	}
	if err := watcher.Add(filepath.Dir(path)); err != nil {
		watcher.Close()
		return fmt.Errorf("watch %s: %w", filepath.Dir(path), err)
	}

	runner, err := c.newRunner(ctx, opts.noCache)
	if err != nil {
		watcher.Close()
		return err
	}

	ctx = withLogger(ctx, c.Logger)
	c.Logger.Info("Watching topology", "path", path)

	go func() {
		defer watcher.Close()
		defer runner.Close()

		// Mesh once at startup so the first page load has artifacts.
		if _, err := os.Stat(path); err == nil {
			c.remesh(ctx, runner, path, opts.dir, formats)
		}

		debounce := time.NewTimer(watchDebounce)
		if !debounce.Stop() {
			<-debounce.C
		}
		pending := false

		for {
			select {
			case <-ctx.Done():
				return
			case ev, ok := <-watcher.Events:
				if !ok {
					return
				}
				if filepath.Base(ev.Name) != filepath.Base(path) {
					continue
				}
				if ev.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename) == 0 {
					continue
				}
				if pending && !debounce.Stop() {
					<-debounce.C
				}
				debounce.Reset(watchDebounce)
				pending = true
			case err, ok := <-watcher.Errors:
				if !ok {
					return
				}
				c.Logger.Warn("Watcher error", "err", err)
			case <-debounce.C:
				pending = false
				c.remesh(ctx, runner, path, opts.dir, formats)
			}
		}
	}()

	return nil
}

// remesh runs the pipeline over the watched file and rewrites artifacts.
// Failures are logged; the server keeps serving the previous artifacts.
func (c *CLI) remesh(ctx context.Context, runner *pipeline.Runner, path, dir string, formats []string) {
	logger := loggerFromContext(ctx)
	prog := newProgress(logger)

	g, doc, err := topo.ReadFile(path)
	if err != nil {
		logger.Warn("Skipping re-mesh, topology unreadable", "err", err)
		return
	}

	opts := pipeline.Options{Formats: formats, Logger: logger}
	if errs.ValidateTopologyName(doc.Name) == nil {
		opts.Name = doc.Name
	}

	res, err := runner.ExecuteGraph(ctx, g, doc.Meta, opts)
	if err != nil {
		logger.Warn("Re-mesh failed", "err", err)
		return
	}

	base := artifactBase(opts.Name, path)
	if _, err := writeArtifacts(res.Artifacts, formats, dir, base); err != nil {
		logger.Warn("Artifact write failed", "err", err)
		return
	}
	prog.done(fmt.Sprintf("Re-meshed topology, cuts %d to %d, %d links added",
		res.Stats.CutsBefore, res.Stats.CutsAfter, res.Stats.EdgesAdded))
}
