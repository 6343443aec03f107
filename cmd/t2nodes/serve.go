package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/spf13/cobra"

	"t2nodes/internal/server"
)

func newServeCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the nodes over HTTP",
		Args:  exactArgs(0),
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx, stop := signalContext(cmd.Context())
			defer stop()
			return a.serve(ctx)
		},
	}
	cmd.Flags().String("addr", "", "监听地址（覆盖配置 server.addr）")
	return cmd
}

// serve 运行 HTTP 服务直到 ctx 结束，然后优雅关闭。
func (a *app) serve(ctx context.Context) error {
	sc := a.cfg.Server
	srv := &http.Server{
		Addr: sc.Addr,
		Handler: server.New(a.rt.Nodes, a.logger, server.Options{
			Timeout:     time.Duration(sc.TimeoutSeconds) * time.Second,
			MaxInFlight: sc.MaxInFlight,
			Version:     version,
		}).Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}
	errCh := make(chan error, 1)
	go func() { errCh <- srv.ListenAndServe() }()
	a.logger.StartWith("server", "listen", "", "", map[string]string{"addr": sc.Addr})
	fmt.Fprintf(a.stderr, "listening on %s\n", sc.Addr)

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	a.logger.Start("server", "shutdown").Finish("shutdown", 0)
	return nil
}
