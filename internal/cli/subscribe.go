package cli

import (
	"encoding/json"
	"fmt"
	"text/tabwriter"
	"time"

	"github.com/jinzhu/copier"
	"github.com/spf13/cobra"

	"github.com/BBBIMAX/feiyu-player/internal/apperr"
	"github.com/BBBIMAX/feiyu-player/internal/model"
)

// listEntry 列表输出的一行
type listEntry struct {
	Key        string `json:"key"`
	Link       string `json:"link,omitempty"`
	LastUpdate int64  `json:"lastUpdate"`
	Current    bool   `json:"current"`
}

func newListCmd(rt *runtime) *cobra.Command {
	var asJSON bool
	cmd := &cobra.Command{
		Use:   "list",
		Short: "列出全部订阅",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			m := rt.app.Manager
			current := m.CurrentKey(ctx)

			var entries []listEntry
			for _, sub := range m.Subscribes(ctx) {
				var e listEntry
				if err := copier.Copy(&e, sub); err != nil {
					return fmt.Errorf("生成列表失败: %w", err)
				}
				e.Current = sub.Key == current
				entries = append(entries, e)
			}

			out := cmd.OutOrStdout()
			if asJSON {
				enc := json.NewEncoder(out)
				enc.SetIndent("", "  ")
				return enc.Encode(entries)
			}

			w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
			fmt.Fprintln(w, "\t名称\t链接\t更新时间")
			for _, e := range entries {
				mark := ""
				if e.Current {
					mark = "*"
				}
				link := e.Link
				if link == "" {
					link = "-"
				}
				fmt.Fprintf(w, "%s\t%s\t%s\t%s\n", mark, e.Key, link, time.UnixMilli(e.LastUpdate).Format("2006-01-02 15:04:05"))
			}
			return w.Flush()
		},
	}
	cmd.Flags().BoolVar(&asJSON, "json", false, "以 JSON 格式输出")
	return cmd
}

func newCurrentCmd(rt *runtime) *cobra.Command {
	return &cobra.Command{
		Use:   "current",
		Short: "输出当前订阅的配置",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			fmt.Fprintf(cmd.ErrOrStderr(), "当前订阅: %s\n", rt.app.Manager.CurrentKey(ctx))
			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			return enc.Encode(rt.app.Manager.Current(ctx))
		},
	}
}

func newAddCmd(rt *runtime) *cobra.Command {
	return &cobra.Command{
		Use:   "add <名称> <链接|JSON|@文件|->",
		Short: "添加订阅（远程链接或 JSON 配置）",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			value, err := readValue(cmd, args[1])
			if err != nil {
				return err
			}
			msg, err := rt.app.SubscriptionService.Add(cmd.Context(), args[0], value)
			if err != nil {
				return messageError(msg, err)
			}
			fmt.Fprintln(cmd.OutOrStdout(), msg)
			return nil
		},
	}
}

func newEditCmd(rt *runtime) *cobra.Command {
	return &cobra.Command{
		Use:   "edit <名称> <JSON|@文件|->",
		Short: "用新的配置覆盖订阅内容",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			svc := rt.app.SubscriptionService

			sub := rt.app.Manager.Get(ctx, args[0])
			if sub == nil {
				return fmt.Errorf("%s", svc.Message(apperr.New(apperr.CodeNotFound, args[0], nil)))
			}
			value, err := readValue(cmd, args[1])
			if err != nil {
				return err
			}
			var raw any
			if err := json.Unmarshal([]byte(value), &raw); err != nil {
				return fmt.Errorf("%s", svc.Message(apperr.New(apperr.CodeInvalidConfig, args[0], err)))
			}
			cfg, ok := model.AsConfig(raw)
			if !ok {
				return fmt.Errorf("%s", svc.Message(apperr.New(apperr.CodeInvalidConfig, args[0], nil)))
			}
			sub.Config = cfg
			if err := rt.app.Manager.EditSubscribe(ctx, sub); err != nil {
				return fmt.Errorf("%s", svc.Message(err))
			}
			fmt.Fprintf(cmd.OutOrStdout(), "已更新订阅 %s\n", sub.Key)
			return nil
		},
	}
}

func newRemoveCmd(rt *runtime) *cobra.Command {
	return &cobra.Command{
		Use:     "remove <名称>",
		Aliases: []string{"rm"},
		Short:   "删除订阅，当前订阅重置为默认订阅",
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := rt.app.Manager.Remove(cmd.Context(), args[0]); err != nil {
				return fmt.Errorf("%s", rt.app.SubscriptionService.Message(err))
			}
			fmt.Fprintf(cmd.OutOrStdout(), "已删除订阅 %s\n", args[0])
			return nil
		},
	}
}

func newClearCmd(rt *runtime) *cobra.Command {
	return &cobra.Command{
		Use:   "clear",
		Short: "删除全部订阅，只保留默认订阅",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := rt.app.Manager.Clear(cmd.Context()); err != nil {
				return fmt.Errorf("%s", rt.app.SubscriptionService.Message(err))
			}
			fmt.Fprintln(cmd.OutOrStdout(), "已清空订阅")
			return nil
		},
	}
}

func newUseCmd(rt *runtime) *cobra.Command {
	return &cobra.Command{
		Use:   "use <名称>",
		Short: "切换当前订阅",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := rt.app.Manager.SetCurrent(cmd.Context(), args[0]); err != nil {
				return fmt.Errorf("%s", rt.app.SubscriptionService.Message(err))
			}
			fmt.Fprintf(cmd.OutOrStdout(), "当前订阅: %s\n", args[0])
			return nil
		},
	}
}

func newRefreshCmd(rt *runtime) *cobra.Command {
	return &cobra.Command{
		Use:   "refresh [名称]",
		Short: "重新获取远程订阅，不指定名称时刷新全部",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			key := ""
			if len(args) == 1 {
				key = args[0]
			}
			if err := rt.app.SubscriptionService.Refresh(cmd.Context(), key); err != nil {
				return fmt.Errorf("%s", rt.app.SubscriptionService.Message(err))
			}
			fmt.Fprintln(cmd.OutOrStdout(), "刷新完成")
			return nil
		},
	}
}
