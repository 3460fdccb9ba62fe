package main

import (
	"fmt"
	"net/http"

	"postag-go/internal/controller"
	"postag-go/internal/handler"
	"postag-go/pkg/mcp"

	"github.com/gonuts/commander"
	"github.com/gonuts/flag"
	"go.uber.org/zap"
)

var serveMcp bool

func Serve(cmd *commander.Command, args []string) error {
	cfg, err := setup()
	if err != nil {
		return err
	}
	svc, err := newService(cfg)
	if err != nil {
		return err
	}
	if err := svc.LoadModels(); err != nil {
		return fmt.Errorf("failed to load models from %s: %w", cfg.App.ModelDir, err)
	}

	taggerController := controller.NewTaggerController(svc, logger)
	var mcpServer *mcp.TaggerServer
	if serveMcp {
		mcpServer = mcp.NewTaggerServer(svc, cfg, logger)
	}
	router := handler.SetupRouter(taggerController, mcpServer, logger)

	logger.Info("Starting server", zap.Int("port", cfg.App.Port))
	if err := http.ListenAndServe(fmt.Sprintf(":%d", cfg.App.Port), router); err != nil {
		return fmt.Errorf("failed to start server: %w", err)
	}
	return nil
}

func ServeCmd() *commander.Command {
	cmd := &commander.Command{
		Run:       Serve,
		UsageLine: "serve [-mcp=true]",
		Short:     "serves saved models over HTTP and MCP",
		Long: `
loads the models saved under app.model_dir and serves the /api/v1 routes on
app.port. Unless -mcp=false, the MCP tools are mounted at /mcp and on mcp.port.

	$ ./postag serve -app app.yaml
`,
		Flag: *flag.NewFlagSet("serve", flag.ExitOnError),
	}
	cmd.Flag.BoolVar(&serveMcp, "mcp", true, "Expose the MCP tool server")
	return cmd
}
