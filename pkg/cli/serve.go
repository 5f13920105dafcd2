package cli

import (
	"github.com/harrisonrobin/steady/pkg/proxy"
	"github.com/spf13/cobra"
)

func newServeCmd(a *app) *cobra.Command {
	var listen, upstream, static string
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the web client and proxy API calls to the backend",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := a.cfg.Proxy
			flags := cmd.Flags()
			if flags.Changed("listen") {
				cfg.Listen = listen
			}
			if flags.Changed("upstream") {
				cfg.Upstream = upstream
			}
			if flags.Changed("static") {
				cfg.StaticDir = static
			}
			srv, err := proxy.New(cfg, a.logFor("proxy"))
			if err != nil {
				return err
			}
			return srv.ListenAndServe(cmd.Context())
		},
	}
	cmd.Flags().StringVar(&listen, "listen", "", "listen address (default from config)")
	cmd.Flags().StringVar(&upstream, "upstream", "", "backend URL to forward API calls to")
	cmd.Flags().StringVar(&static, "static", "", "directory of the built web client")
	return cmd
}
