package cmd

import (
	"context"

	"github.com/gin-gonic/gin"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/spigell/cv-matcher/internal/api"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the HTTP API",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		return withApp(cmd, true, func(ctx context.Context, a *application) error {
			if !viper.GetBool("debug") {
				gin.SetMode(gin.ReleaseMode)
			}

			a.logger.Info("starting the cv-matcher api", zap.String("version", version))
			srv := api.NewServer(a.state, a.matcher, a.enricher, a.logger.Named("api"))
			return srv.ListenAndServe(ctx, a.config.Server.Addr)
		})
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)

	serveCmd.Flags().String("addr", "", "listen address (default :8080)")
	viper.BindPFlag("server.addr", serveCmd.Flags().Lookup("addr"))
}
