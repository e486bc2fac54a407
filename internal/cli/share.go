package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

// messageError 用提示文本包装错误，提示为空时返回原错误
func messageError(msg string, err error) error {
	if msg == "" {
		return err
	}
	return fmt.Errorf("%s", msg)
}

func newExportCmd(rt *runtime) *cobra.Command {
	return &cobra.Command{
		Use:   "export [名称]",
		Short: "导出订阅并输出分享链接，不指定名称时导出全部",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			key := ""
			if len(args) == 1 {
				key = args[0]
			}
			url, err := rt.app.SubscriptionService.Export(cmd.Context(), key)
			if err != nil {
				return messageError(rt.app.SubscriptionService.Message(err), err)
			}
			fmt.Fprintln(cmd.OutOrStdout(), url)
			return nil
		},
	}
}

func newImportCmd(rt *runtime) *cobra.Command {
	return &cobra.Command{
		Use:   "import <链接>",
		Short: "从分享链接导入订阅列表",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			msg, err := rt.app.SubscriptionService.Import(cmd.Context(), args[0])
			if err != nil {
				return messageError(msg, err)
			}
			fmt.Fprintln(cmd.OutOrStdout(), msg)
			return nil
		},
	}
}
