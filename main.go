package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/KincaidYang/next-whois/config"
	"github.com/KincaidYang/next-whois/handle_resources"
	"github.com/KincaidYang/next-whois/lookup_tools"
	"github.com/KincaidYang/next-whois/mcp_tools"
	"github.com/KincaidYang/next-whois/rdap_tools"
	"github.com/KincaidYang/next-whois/rdap_tools/structs"
	"github.com/KincaidYang/next-whois/whois_tools"
	"github.com/gin-gonic/gin"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

const shutdownTimeout = 30 * time.Second

var configPath string

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:          "next-whois",
		Short:        "WHOIS and RDAP lookup service",
		Version:      config.Version,
		SilenceUsage: true,
		Args:         cobra.NoArgs,
		RunE:         runServe,
	}
	root.PersistentFlags().StringVarP(&configPath, "config", "c", "", "configuration file (default: config.yaml or config.json in the working directory)")

	root.AddCommand(
		&cobra.Command{
			Use:   "serve",
			Short: "Serve the HTTP API, health endpoints, metrics and MCP",
			Args:  cobra.NoArgs,
			RunE:  runServe,
		},
		&cobra.Command{
			Use:   "lookup <query>",
			Short: "Look up a domain, IP, CIDR or AS number and print the result as JSON",
			Args:  cobra.ExactArgs(1),
			RunE:  runLookup,
		},
		&cobra.Command{
			Use:   "mcp",
			Short: "Serve the lookup tool over MCP on stdin/stdout",
			Args:  cobra.NoArgs,
			RunE:  runMCP,
		},
	)
	return root
}

// setup loads configuration, installs the global logger and builds the cached lookup service.
func setup() (*lookup_tools.Service, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, err
	}

	logger, err := config.NewLogger(cfg.Log)
	if err != nil {
		return nil, err
	}
	zap.ReplaceGlobals(logger)
	if !cfg.Log.Development {
		gin.SetMode(gin.ReleaseMode)
	}

	if err := config.Setup(cfg); err != nil {
		return nil, err
	}
	return newService(), nil
}

func newService() *lookup_tools.Service {
	whoisClient := whois_tools.NewClient(config.IANAServer, config.WhoisServers, whois_tools.ProxyConfig{
		Server:   config.ProxyServer,
		Username: config.ProxyUsername,
		Password: config.ProxyPassword,
		Suffixes: config.ProxySuffixes,
	})
	rdapClient := rdap_tools.NewClient(config.HttpClient, config.UserAgent)

	orchestrator := lookup_tools.NewOrchestrator(rdapClient, whoisClient, config.LookupTimeout, config.MaxWhoisFollow)
	return lookup_tools.NewService(orchestrator, config.CacheManager, config.CacheExpiration)
}

func runServe(cmd *cobra.Command, args []string) error {
	service, err := setup()
	if err != nil {
		return err
	}
	defer config.Close()
	defer zap.L().Sync()

	mcpServer := mcp_tools.NewServer(service, config.Version)
	server := &http.Server{
		Addr:              fmt.Sprintf(":%d", config.Port),
		Handler:           handle_resources.NewRouter(service, mcpServer.HTTPHandler()),
		ReadHeaderTimeout: 10 * time.Second,
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	errCh := make(chan error, 1)
	go func() {
		zap.L().Info("server listening", zap.String("addr", server.Addr), zap.String("version", config.Version))
		errCh <- server.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	// Wait for in-flight lookups before the cache goes away.
	zap.L().Info("received shutdown signal, waiting for all queries to complete")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	zap.L().Info("all queries completed, server stopped")
	return nil
}

func runLookup(cmd *cobra.Command, args []string) error {
	service, err := setup()
	if err != nil {
		return err
	}
	defer config.Close()

	env, err := service.Lookup(cmd.Context(), args[0])
	if err != nil {
		return err
	}
	if err := printEnvelope(cmd.OutOrStdout(), env); err != nil {
		return err
	}
	if !env.Status {
		return errors.New(env.Error)
	}
	return nil
}

func runMCP(cmd *cobra.Command, args []string) error {
	service, err := setup()
	if err != nil {
		return err
	}
	defer config.Close()

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	return mcp_tools.NewServer(service, config.Version).RunStdio(ctx)
}

func printEnvelope(w io.Writer, env structs.LookupEnvelope) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	enc.SetEscapeHTML(false)
	return enc.Encode(env)
}
