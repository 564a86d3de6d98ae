package cli

import (
	"net"
	"net/http"

	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/comet-hpc/comet/api"
)

type serveCmd struct {
	addr string
}

func (c *serveCmd) registerFlags() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "run the HTTP API",
	}
	cmd.Flags().StringVar(&c.addr, "addr", ":8080", "listen address")
	return cmd
}

func (c *serveCmd) run(a *app, cmd *cobra.Command, args []string) error {
	server := api.NewServer(a.client, a.registry)

	l, err := net.Listen("tcp", c.addr)
	if err != nil {
		return err
	}
	log.Infof("listening on %s", c.addr)
	return http.Serve(l, server.Router())
}
