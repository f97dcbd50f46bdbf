package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/wethinkt/go-colorgorical/internal/applog"
	"github.com/wethinkt/go-colorgorical/internal/config"
	"github.com/wethinkt/go-colorgorical/internal/palette"
	"github.com/wethinkt/go-colorgorical/internal/reference"
	"github.com/wethinkt/go-colorgorical/internal/server"
	"github.com/wethinkt/go-colorgorical/internal/version"
)

// Serve command flags
var (
	servePort       int
	serveHost       string
	serveCORSOrigin string
	serveNoMCP      bool
	serveNoHistory  bool
)

// Serve mcp subcommand flags
var (
	mcpAllowTools []string
	mcpDenyTools  []string
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP API and MCP server",
	Long: `Start a local HTTP server for building and scoring palettes.

The server provides:
  - REST API under /api/v1 (palettes, scores, reference palettes,
    color conversion, hue normalization, history)
  - MCP (Model Context Protocol) over SSE at /mcp
  - Prometheus metrics at /metrics

Use 'colorgorical serve mcp' for an MCP server on stdio.

Examples:
  colorgorical serve                  # Start on the configured port (8888)
  colorgorical serve -p 0             # Pick a free port
  colorgorical serve --cors-origin ''  # Disable CORS headers`,
	Args: cobra.NoArgs,
	RunE: runServeHTTP,
}

var serveMcpCmd = &cobra.Command{
	Use:   "mcp",
	Short: "Start MCP server on stdio",
	Long: `Start an MCP (Model Context Protocol) server on stdio for AI tool
integration. Tools: make_palette, score_palette, convert_color,
normalize_hues.

Tool filtering:
  --allow-tools or COLORGORICAL_MCP_ALLOW_TOOLS limits the registered tools
  --deny-tools or COLORGORICAL_MCP_DENY_TOOLS removes tools

Examples:
  colorgorical serve mcp
  colorgorical serve mcp --deny-tools make_palette`,
	Args: cobra.NoArgs,
	RunE: runServeMCP,
}

var serveStatusCmd = &cobra.Command{
	Use:   "status",
	Short: "List running colorgorical servers",
	Args:  cobra.NoArgs,
	RunE:  runServeStatus,
}

func init() {
	serveCmd.Flags().IntVarP(&servePort, "port", "p", -1, "server port (default from config)")
	serveCmd.Flags().StringVar(&serveHost, "host", "", "server host (default from config)")
	serveCmd.Flags().StringVar(&serveCORSOrigin, "cors-origin", "", "Access-Control-Allow-Origin value (default from config or COLORGORICAL_CORS_ORIGIN)")
	serveCmd.Flags().BoolVar(&serveNoMCP, "no-mcp", false, "don't mount the MCP SSE endpoint")
	serveCmd.Flags().BoolVar(&serveNoHistory, "no-history", false, "don't record palettes in the history")

	serveMcpCmd.Flags().StringSliceVar(&mcpAllowTools, "allow-tools", nil, "only register these tools")
	serveMcpCmd.Flags().StringSliceVar(&mcpDenyTools, "deny-tools", nil, "don't register these tools")

	serveCmd.AddCommand(serveMcpCmd)
	serveCmd.AddCommand(serveStatusCmd)
}

// signalContext returns a context canceled on interrupt.
func signalContext(parent context.Context) (context.Context, context.CancelFunc) {
	ctx, cancel := context.WithCancel(parent)
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt)
	go func() {
		defer signal.Stop(sigCh)
		select {
		case <-sigCh:
			applog.Log.Info("Received interrupt signal, shutting down")
			fmt.Fprintln(os.Stderr, "\nShutting down...")
			cancel()
		case <-ctx.Done():
		}
	}()
	return ctx, cancel
}

// serverConfig merges flags over the loaded config.
func serverConfig(cmd *cobra.Command) server.Config {
	sc := server.Config{
		Host:       cfg.Server.Host,
		Port:       cfg.Server.Port,
		CORSOrigin: resolveCORSOrigin(cmd, cfg.Server.CORSOrigin),
		MCP:        !serveNoMCP,
	}
	if servePort >= 0 {
		sc.Port = servePort
	}
	if serveHost != "" {
		sc.Host = serveHost
	}
	return sc
}

// resolveCORSOrigin returns the CORS origin from the CLI flag, then the
// env var, then the config. An explicitly empty flag disables CORS.
func resolveCORSOrigin(cmd *cobra.Command, configured string) string {
	if cmd.Flags().Changed("cors-origin") {
		return serveCORSOrigin
	}
	if v, ok := os.LookupEnv("COLORGORICAL_CORS_ORIGIN"); ok {
		return v
	}
	return configured
}

// startReferences loads the reference sets and, when configured, watches
// the override file until ctx ends.
func startReferences(ctx context.Context, e *palette.Engine, c config.ReferenceConfig) (*reference.Registry, error) {
	refs, err := reference.NewRegistry(e, c.Path)
	if err != nil {
		return nil, err
	}
	if c.Watch && c.Path != "" {
		if err := refs.Watch(ctx, c.DebounceDuration()); err != nil {
			applog.Log.Warn("Reference watch failed", "path", c.Path, "error", err)
		}
	}
	return refs, nil
}

func runServeHTTP(cmd *cobra.Command, args []string) error {
	ctx, cancel := signalContext(cmd.Context())
	defer cancel()

	e, err := newEngine(cfg)
	if err != nil {
		return err
	}
	refs, err := startReferences(ctx, e, cfg.Reference)
	if err != nil {
		return err
	}
	opts := []server.ServiceOption{server.WithReferences(refs)}
	if !serveNoHistory {
		st, closeHistory := openHistory(cfg)
		defer closeHistory()
		if st != nil {
			opts = append(opts, server.WithHistory(st))
		}
	}
	svc := server.NewService(e, cfg.Palette, opts...)

	sc := serverConfig(cmd)
	if sc.Port != 0 {
		if inst := config.FindInstanceByPort(sc.Port); inst != nil {
			return fmt.Errorf("colorgorical server already running on port %d (pid %d)", sc.Port, inst.PID)
		}
	}
	srv := server.NewHTTPServer(svc, sc)

	w := cmd.OutOrStdout()
	registered := false
	err = srv.ListenAndServe(ctx, func(addr string) {
		inst := config.Instance{
			Type:       config.InstanceServe,
			PID:        os.Getpid(),
			Host:       sc.Host,
			Port:       srv.Port(),
			Version:    version.Get(),
			Catalog:    catalogSource(cfg.Catalog),
			References: refs.Source(),
			StartedAt:  time.Now(),
		}
		if err := config.RegisterInstance(inst); err != nil {
			applog.Log.Warn("Failed to register instance", "error", err)
		} else {
			registered = true
		}
		fmt.Fprintf(w, "Colorgorical server listening on http://%s\n", addr)
		fmt.Fprintf(w, "Reference palettes: %s\n", refs.Source())
	})
	if registered {
		config.UnregisterInstance(os.Getpid())
	}
	return err
}

// toolList reads a tool list from a flag, falling back to env.
func toolList(flag []string, env string) []string {
	if len(flag) > 0 {
		return flag
	}
	if v := os.Getenv(env); v != "" {
		return strings.Split(v, ",")
	}
	return nil
}

func runServeMCP(cmd *cobra.Command, args []string) error {
	ctx, cancel := signalContext(cmd.Context())
	defer cancel()

	svc, closeHistory, err := newService(cfg, true)
	if err != nil {
		return err
	}
	defer closeHistory()

	allow := toolList(mcpAllowTools, "COLORGORICAL_MCP_ALLOW_TOOLS")
	deny := toolList(mcpDenyTools, "COLORGORICAL_MCP_DENY_TOOLS")
	ms := server.NewMCPServerWithFilters(svc, allow, deny)

	inst := config.Instance{
		Type:       config.InstanceServeMCP,
		PID:        os.Getpid(),
		Version:    version.Get(),
		Catalog:    catalogSource(cfg.Catalog),
		References: referenceSource(cfg.Reference),
		StartedAt:  time.Now(),
	}
	if err := config.RegisterInstance(inst); err != nil {
		applog.Log.Warn("Failed to register instance", "error", err)
	} else {
		defer config.UnregisterInstance(inst.PID)
	}

	fmt.Fprintln(os.Stderr, "Starting MCP server on stdio...")
	err = ms.RunStdio(ctx)
	applog.Log.Info("MCP server exited", "error", err)
	// EOF on stdin is normal termination (client disconnected), not an error
	if err != nil && !errors.Is(err, io.EOF) && !errors.Is(err, context.Canceled) {
		return err
	}
	return nil
}

func runServeStatus(cmd *cobra.Command, args []string) error {
	instances, err := config.ListInstances()
	if err != nil {
		return err
	}

	w := cmd.OutOrStdout()
	if outputJSON {
		if instances == nil {
			instances = []config.Instance{}
		}
		return printJSON(w, instances)
	}
	if len(instances) == 0 {
		fmt.Fprintln(w, "No colorgorical servers running.")
		return nil
	}
	localCatalog, localRefs := catalogSource(cfg.Catalog), referenceSource(cfg.Reference)
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "TYPE\tPID\tADDRESS\tVERSION\tCATALOG\tREFERENCES\tENGINE\tUPTIME")
	for _, inst := range instances {
		addr := "stdio"
		if inst.Port != 0 {
			addr = fmt.Sprintf("%s:%d", inst.Host, inst.Port)
		}
		engine := "other"
		if inst.SameEngine(localCatalog, localRefs) {
			engine = "current"
		}
		fmt.Fprintf(tw, "%s\t%d\t%s\t%s\t%s\t%s\t%s\t%s\n",
			inst.Type, inst.PID, addr, inst.Version,
			orDash(inst.Catalog), orDash(inst.References), engine,
			time.Since(inst.StartedAt).Round(time.Second))
	}
	return tw.Flush()
}

func orDash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}
