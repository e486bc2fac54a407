package cli

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/spf13/cobra"
)

func newServeCmd(rt *runtime) *cobra.Command {
	var interval time.Duration
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "启动本地内容网关，并按间隔刷新订阅",
		Long: `启动本地内容网关（local 模式），使导出的分享链接可以被访问。
配置文件变化后会重新应用请求代理与日志级别。`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			return rt.serve(ctx, cmd, interval)
		},
	}
	cmd.Flags().DurationVar(&interval, "refresh-interval", 0, "定时刷新全部订阅的间隔，0 表示不刷新")
	return cmd
}

func (rt *runtime) serve(ctx context.Context, cmd *cobra.Command, interval time.Duration) error {
	a := rt.app
	if err := a.WatchConfig(ctx, rt.configPath); err != nil {
		a.Log.Warn(fmt.Sprintf("监听配置文件失败: %v", err))
	}

	srv, err := a.GatewayServer()
	if err != nil {
		return err
	}

	errCh := make(chan error, 1)
	go func() {
		a.Log.Info(fmt.Sprintf("内容网关已启动: %s", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()
	fmt.Fprintf(cmd.OutOrStdout(), "内容网关监听 %s\n", srv.Addr)

	// 返回前等待刷新结束，随后才会关闭数据库
	var refreshes sync.WaitGroup
	defer refreshes.Wait()
	if rt.cfg.RefreshOnStartup {
		refreshes.Add(1)
		go func() {
			defer refreshes.Done()
			a.Manager.RefreshAll(ctx)
		}()
	}

	var tick <-chan time.Time
	if interval > 0 {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		tick = ticker.C
	}

	for {
		select {
		case <-ctx.Done():
			shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 5*time.Second)
			defer cancel()
			a.Log.Info("正在关闭内容网关")
			return srv.Shutdown(shutdownCtx)
		case err, ok := <-errCh:
			if ok {
				return fmt.Errorf("内容网关启动失败: %w", err)
			}
			return nil
		case <-tick:
			a.Manager.RefreshAll(ctx)
		}
	}
}
