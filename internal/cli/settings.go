package cli

import (
	"context"
	"fmt"
	"strings"

	"github.com/spf13/cobra"
)

func newToggleCmd(rt *runtime) *cobra.Command {
	return &cobra.Command{
		Use:       "toggle <sexy|commentary>",
		Short:     "切换内容过滤开关",
		Args:      cobra.MatchAll(cobra.ExactArgs(1), cobra.OnlyValidArgs),
		ValidArgs: []string{"sexy", "commentary"},
		RunE: func(cmd *cobra.Command, args []string) error {
			m := rt.app.Manager
			var toggle func(context.Context) (bool, error)
			label := ""
			switch args[0] {
			case "sexy":
				toggle, label = m.ToggleAllowSexy, "显示伦理片"
			default:
				toggle, label = m.ToggleAllowMovieCommentary, "显示电影解说"
			}
			allowed, err := toggle(cmd.Context())
			if err != nil {
				return messageError(rt.app.SubscriptionService.Message(err), err)
			}
			state := "关闭"
			if allowed {
				state = "开启"
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s: %s\n", label, state)
			return nil
		},
	}
}

func newBlockedCmd(rt *runtime) *cobra.Command {
	return &cobra.Command{
		Use:   "blocked",
		Short: "输出当前会被隐藏的分类",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			for _, category := range rt.app.SubscriptionService.BlockedCategories(cmd.Context()) {
				fmt.Fprintln(cmd.OutOrStdout(), category)
			}
			return nil
		},
	}
}

func newProxyCmd(rt *runtime) *cobra.Command {
	var clearProxy bool
	cmd := &cobra.Command{
		Use:   "proxy [地址]",
		Short: "查看或设置请求代理（http/https/socks5）",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cs := rt.app.ConfigService
			if len(args) == 0 && !clearProxy {
				proxy := cs.HTTPProxy()
				if proxy == "" {
					proxy = "未设置"
				}
				fmt.Fprintln(cmd.OutOrStdout(), proxy)
				return nil
			}
			proxy := ""
			if len(args) == 1 {
				proxy = strings.TrimSpace(args[0])
			}
			if err := cs.SetHTTPProxy(proxy); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "请求代理已保存")
			return nil
		},
	}
	cmd.Flags().BoolVar(&clearProxy, "clear", false, "清除请求代理")
	return cmd
}

func newLangCmd(rt *runtime) *cobra.Command {
	return &cobra.Command{
		Use:       "lang [zh|en]",
		Short:     "查看或设置提示语言",
		Args:      cobra.MatchAll(cobra.MaximumNArgs(1), cobra.OnlyValidArgs),
		ValidArgs: []string{"zh", "en"},
		RunE: func(cmd *cobra.Command, args []string) error {
			cs := rt.app.ConfigService
			if len(args) == 1 {
				if err := cs.SetLanguage(args[0]); err != nil {
					return err
				}
			}
			fmt.Fprintln(cmd.OutOrStdout(), cs.Language())
			return nil
		},
	}
}
