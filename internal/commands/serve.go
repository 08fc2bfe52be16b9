package commands

import (
	"log"

	"github.com/spf13/cobra"

	"github.com/sadopc/floe/internal/upload"
	"github.com/sadopc/floe/internal/web"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve login links and attachment uploads",
	Long: `Start the HTTP server that completes login links and stores files
attached to task notes. Login links are written to the log.`,
	Args: cobra.NoArgs,
	RunE: withEnv(runServe),
}

func init() {
	serveCmd.Flags().String("addr", "", "Listen address (default: config addr)")
}

func runServe(cmd *cobra.Command, _ []string, e *env) error {
	addr := e.cfg.Addr
	if a, _ := cmd.Flags().GetString("addr"); a != "" {
		addr = a
	}

	blobs := upload.New(e.cfg.BlobPath, e.cfg.BaseURL)
	srv := web.NewServer(e.identity(), blobs)

	log.Printf("serve: listening on %s (links point at %s)", addr, e.cfg.BaseURL)
	return srv.Run(cmd.Context(), addr)
}
