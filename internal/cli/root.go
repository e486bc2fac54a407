// Package cli 提供订阅管理的命令行入口。
package cli

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	feiyu "github.com/BBBIMAX/feiyu-player/internal/app"
	"github.com/BBBIMAX/feiyu-player/internal/config"
	"github.com/BBBIMAX/feiyu-player/internal/model"
)

// DefaultConfigPath 默认配置文件路径
const DefaultConfigPath = "config.json"

// runtime 单次命令执行期间共享的状态
type runtime struct {
	configPath string
	console    bool

	cfg *config.Config
	app *feiyu.App
}

// NewRootCmd 创建根命令及全部子命令
func NewRootCmd() *cobra.Command {
	rt := &runtime{}

	rootCmd := &cobra.Command{
		Use:           "feiyu",
		Short:         "管理飞鱼播放器的订阅配置",
		Long:          `添加、刷新、编辑、删除订阅，并通过 IPFS 链接导出或导入订阅。`,
		Version:       model.Version,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if skipOpen(cmd) {
				return nil
			}
			return rt.open(cmd)
		},
	}
	rootCmd.PersistentFlags().StringVarP(&rt.configPath, "config", "c", DefaultConfigPath, "配置文件路径")
	rootCmd.PersistentFlags().BoolVar(&rt.console, "verbose", false, "同时把日志输出到控制台")

	rootCmd.AddCommand(
		newListCmd(rt),
		newCurrentCmd(rt),
		newAddCmd(rt),
		newEditCmd(rt),
		newRemoveCmd(rt),
		newClearCmd(rt),
		newUseCmd(rt),
		newRefreshCmd(rt),
		newExportCmd(rt),
		newImportCmd(rt),
		newToggleCmd(rt),
		newBlockedCmd(rt),
		newProxyCmd(rt),
		newLangCmd(rt),
		newServeCmd(rt),
	)
	// 命令失败时 PersistentPostRun 不会执行，在每个子命令返回后关闭应用
	for _, sub := range rootCmd.Commands() {
		run := sub.RunE
		sub.RunE = func(cmd *cobra.Command, args []string) (err error) {
			defer func() {
				if cerr := rt.close(); err == nil {
					err = cerr
				}
			}()
			return run(cmd, args)
		}
	}
	return rootCmd
}

// skipOpen 帮助与补全命令不需要打开数据库
func skipOpen(cmd *cobra.Command) bool {
	for c := cmd; c != nil; c = c.Parent() {
		switch c.Name() {
		case "help", "completion", cobra.ShellCompRequestCmd, cobra.ShellCompNoDescRequestCmd:
			return true
		}
	}
	return false
}

// Execute 运行根命令
func Execute() error {
	return NewRootCmd().Execute()
}

// open 加载 .env 与配置文件，组装应用并加载订阅
func (rt *runtime) open(cmd *cobra.Command) error {
	loadDotEnvs()

	cfg, err := config.LoadConfig(rt.configPath)
	if err != nil {
		return err
	}
	rt.cfg = cfg

	a, err := feiyu.New(cfg, feiyu.Options{Console: rt.console, NoRefresh: true})
	if err != nil {
		return err
	}
	rt.app = a

	if err := a.Start(cmd.Context()); err != nil {
		fmt.Fprintf(cmd.ErrOrStderr(), "加载订阅失败: %v\n", err)
	}
	return nil
}

func (rt *runtime) close() error {
	if rt.app == nil {
		return nil
	}
	err := rt.app.Close()
	rt.app = nil
	return err
}

// readValue 以 @ 开头的参数按文件读取，- 读取标准输入，其他原样返回
func readValue(cmd *cobra.Command, arg string) (string, error) {
	switch {
	case arg == "-":
		data, err := readAll(cmd.InOrStdin())
		if err != nil {
			return "", fmt.Errorf("读取标准输入失败: %w", err)
		}
		return data, nil
	case strings.HasPrefix(arg, "@"):
		data, err := os.ReadFile(strings.TrimPrefix(arg, "@"))
		if err != nil {
			return "", fmt.Errorf("读取文件失败: %w", err)
		}
		return string(data), nil
	}
	return arg, nil
}
