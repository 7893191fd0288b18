package cli

import (
	"context"
	"encoding/json"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/spf13/cobra"

	"github.com/matzehuels/moonlayout/pkg/buildinfo"
	"github.com/matzehuels/moonlayout/pkg/debugviz"
	"github.com/matzehuels/moonlayout/pkg/ecs"
	"github.com/matzehuels/moonlayout/pkg/errors"
	"github.com/matzehuels/moonlayout/pkg/extract"
	"github.com/matzehuels/moonlayout/pkg/frame"
	"github.com/matzehuels/moonlayout/pkg/observability"
	"github.com/matzehuels/moonlayout/pkg/scene"
)

// maxStepsPerRequest bounds POST /frame/step?n=.
const maxStepsPerRequest = 1000

// serveCommand creates the inspector server command.
func (c *CLI) serveCommand() *cobra.Command {
	var addr string

	cmd := &cobra.Command{
		Use:   "serve <scene.toml>",
		Short: "Serve an HTTP inspector for a running scene",
		Long: `Serve loads a scene and exposes its frame runner over HTTP:

  GET  /healthz              liveness and build info
  GET  /frame                last snapshot
  POST /frame/step?n=1       step n frames, returns their stats
  GET  /stacks/{camera}      paint-order stack of a camera (name or id)
  GET  /nodes/{entity}       extracted state of a node (name or id)
  GET  /tree?format=text     solver tree as text or dot
  GET  /snapshots/{frame}    a stored snapshot

Every step is persisted to the snapshot store.`,
		Args:              cobra.ExactArgs(1),
		ValidArgsFunction: completeSceneFiles,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			logger := loggerFromContext(ctx)

			f, w, err := loadScene(args[0])
			if err != nil {
				return err
			}
			store, ch, err := c.connectStore(cmd)
			if err != nil {
				return err
			}
			defer ch.Close()

			runner, err := c.newRunner(f, w, args[0], frame.Options{Logger: logger, Store: store})
			if err != nil {
				return err
			}
			defer runner.Close()

			srv := &http.Server{
				Addr:              addr,
				Handler:           newInspector(runner, store, logger),
				ReadHeaderTimeout: 5 * time.Second,
			}
			return serve(ctx, srv, logger)
		},
	}

	cmd.Flags().StringVar(&addr, "addr", "localhost:8080", "listen address")
	return cmd
}

// serve runs srv until ctx is cancelled, then shuts it down gracefully.
func serve(ctx context.Context, srv *http.Server, logger *log.Logger) error {
	errc := make(chan error, 1)
	go func() {
		logger.Info("inspector listening", "addr", srv.Addr)
		errc <- srv.ListenAndServe()
	}()

	select {
	case err := <-errc:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	logger.Info("inspector stopped")
	return nil
}

// =============================================================================
// Inspector
// =============================================================================

// inspector serializes HTTP access to a runner.
type inspector struct {
	mu     sync.Mutex
	runner *frame.Runner
	world  *scene.World
	store  *extract.Store
	logger *log.Logger
}

// newInspector returns the inspector's router.
func newInspector(runner *frame.Runner, store *extract.Store, logger *log.Logger) http.Handler {
	in := &inspector{runner: runner, world: runner.World, store: store, logger: logger}

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(in.observe)

	r.Get("/healthz", in.health)
	r.Route("/frame", func(r chi.Router) {
		r.Get("/", in.lastFrame)
		r.Post("/step", in.step)
	})
	r.Get("/stacks/{camera}", in.stack)
	r.Get("/nodes/{entity}", in.node)
	r.Get("/tree", in.tree)
	r.Get("/snapshots/{frame}", in.snapshot)
	return r
}

// observe reports requests to the HTTP hooks and the logger.
func (in *inspector) observe(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		hooks := observability.HTTP()
		hooks.OnRequest(r.Context(), r.Method, r.URL.Path)

		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)

		status := ww.Status()
		if status == 0 {
			status = http.StatusOK
		}
		d := time.Since(start)
		hooks.OnResponse(r.Context(), r.Method, r.URL.Path, status, d)
		in.logger.Debug("request",
			"method", r.Method,
			"path", r.URL.Path,
			"status", status,
			"id", middleware.GetReqID(r.Context()),
			"duration", d)
	})
}

func (in *inspector) health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"status": "ok",
		"build":  buildinfo.Get(),
		"scene":  in.runner.Options().SceneName,
	})
}

func (in *inspector) lastFrame(w http.ResponseWriter, r *http.Request) {
	in.mu.Lock()
	defer in.mu.Unlock()

	snap := in.runner.Last()
	if snap == nil {
		in.fail(w, r, errors.New(errors.ErrCodeNotFound, "no frame has run yet"))
		return
	}
	writeJSON(w, http.StatusOK, snap)
}

type stepResponse struct {
	Tick      uint64        `json:"tick"`
	ID        string        `json:"id"`
	Cameras   int           `json:"cameras"`
	Stacked   int           `json:"stacked"`
	Upserted  int           `json:"upserted"`
	Removed   int           `json:"removed"`
	Moved     int           `json:"moved"`
	TreeNodes int           `json:"tree_nodes"`
	Duration  time.Duration `json:"duration_ns"`
	StoreErr  string        `json:"store_error,omitempty"`
}

func (in *inspector) step(w http.ResponseWriter, r *http.Request) {
	n := 1
	if s := r.URL.Query().Get("n"); s != "" {
		v, err := strconv.Atoi(s)
		if err != nil || v < 1 || v > maxStepsPerRequest {
			in.fail(w, r, errors.New(errors.ErrCodeInvalidInput, "n must be between 1 and %d", maxStepsPerRequest))
			return
		}
		n = v
	}

	in.mu.Lock()
	defer in.mu.Unlock()

	out := make([]stepResponse, 0, n)
	for i := 0; i < n; i++ {
		res, err := in.runner.Step(r.Context())
		if err != nil {
			in.fail(w, r, err)
			return
		}
		s := res.Stats
		var storeErr string
		if res.StoreErr != nil {
			storeErr = res.StoreErr.Error()
		}
		out = append(out, stepResponse{
			Tick:      res.Tick,
			ID:        res.ID.String(),
			Cameras:   s.Cameras,
			Stacked:   s.Stacked,
			Upserted:  s.Sync.Upserted,
			Removed:   s.Cleanup.Removed,
			Moved:     s.Geometry.TransformsWritten,
			TreeNodes: s.TreeNodes,
			Duration:  s.Total,
			StoreErr:  storeErr,
		})
	}
	writeJSON(w, http.StatusOK, out)
}

type stackResponse struct {
	Camera   string      `json:"camera"`
	Entities []stackItem `json:"entities"`
	Ranges   any         `json:"ranges"`
}

type stackItem struct {
	Entity ecs.Entity `json:"entity"`
	Name   string     `json:"name,omitempty"`
	Z      float32    `json:"z"`
}

func (in *inspector) stack(w http.ResponseWriter, r *http.Request) {
	in.mu.Lock()
	defer in.mu.Unlock()

	cam, err := in.resolve(chi.URLParam(r, "camera"))
	if err != nil {
		in.fail(w, r, err)
		return
	}
	st, ok := in.runner.Stacks.Get(cam)
	if !ok {
		in.fail(w, r, errors.New(errors.ErrCodeNotFound, "no stack for camera %s", in.world.Label(cam)))
		return
	}
	resp := stackResponse{Camera: in.world.Label(cam), Ranges: st.Ranges}
	for _, e := range st.Entities {
		resp.Entities = append(resp.Entities, stackItem{Entity: e, Name: in.world.Name(e), Z: in.world.GlobalZ(e)})
	}
	writeJSON(w, http.StatusOK, resp)
}

func (in *inspector) node(w http.ResponseWriter, r *http.Request) {
	in.mu.Lock()
	defer in.mu.Unlock()

	e, err := in.resolve(chi.URLParam(r, "entity"))
	if err != nil {
		in.fail(w, r, err)
		return
	}
	snap := in.runner.Last()
	if snap == nil {
		in.fail(w, r, errors.New(errors.ErrCodeNotFound, "no frame has run yet"))
		return
	}
	n, ok := snap.Node(e)
	if !ok {
		in.fail(w, r, errors.New(errors.ErrCodeNotFound, "%s is not laid out", in.world.Label(e)))
		return
	}
	writeJSON(w, http.StatusOK, n)
}

func (in *inspector) tree(w http.ResponseWriter, r *http.Request) {
	in.mu.Lock()
	defer in.mu.Unlock()

	switch format := r.URL.Query().Get("format"); format {
	case "", formatText:
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		_, _ = w.Write([]byte(debugviz.TreeText(in.runner.Tree, in.world)))
	case formatDOT:
		w.Header().Set("Content-Type", "text/vnd.graphviz")
		_, _ = w.Write([]byte(debugviz.TreeDOT(in.runner.Tree, in.world, debugviz.Options{Detailed: true})))
	default:
		in.fail(w, r, errors.New(errors.ErrCodeInvalidInput, "invalid format: %q (must be text or dot)", format))
	}
}

func (in *inspector) snapshot(w http.ResponseWriter, r *http.Request) {
	frameNo, err := strconv.ParseUint(chi.URLParam(r, "frame"), 10, 64)
	if err != nil {
		in.fail(w, r, errors.New(errors.ErrCodeInvalidInput, "frame must be a number"))
		return
	}
	snap, err := in.store.Get(r.Context(), in.runner.Options().SceneName, frameNo)
	if err != nil {
		in.fail(w, r, err)
		return
	}
	defer snap.Release()
	writeJSON(w, http.StatusOK, snap)
}

// resolve accepts an entity name or an id such as "3v1".
func (in *inspector) resolve(ref string) (ecs.Entity, error) {
	if e, ok := in.world.Lookup(ref); ok {
		return e, nil
	}
	e, err := ecs.Parse(ref)
	if err != nil || !in.world.Alive(e) {
		return ecs.Entity{}, errors.New(errors.ErrCodeNotFound, "entity %q not found", ref)
	}
	return e, nil
}

func (in *inspector) fail(w http.ResponseWriter, r *http.Request, err error) {
	status := statusFor(err)
	if status >= 500 {
		observability.HTTP().OnError(r.Context(), r.Method, r.URL.Path, err)
		in.logger.Error("request failed", "path", r.URL.Path, "err", err)
	}
	writeJSON(w, status, map[string]string{
		"error": errors.UserMessage(err),
		"code":  string(errors.GetCode(err)),
	})
}

// statusFor maps error codes to HTTP statuses.
func statusFor(err error) int {
	switch errors.GetCode(err) {
	case errors.ErrCodeNotFound:
		return http.StatusNotFound
	case errors.ErrCodeInvalidInput, errors.ErrCodeInvalidScene:
		return http.StatusBadRequest
	case errors.ErrCodeNetwork:
		return http.StatusBadGateway
	case errors.ErrCodeTimeout:
		return http.StatusGatewayTimeout
	case errors.ErrCodeUnsupported:
		return http.StatusNotImplemented
	}
	return http.StatusInternalServerError
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
