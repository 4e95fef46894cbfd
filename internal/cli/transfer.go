package cli

import (
	"bytes"
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
)

func newImportCommand(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "import <file.xlsx>",
		Short: "从工作簿导入项目、支柱、指标、活动与字段",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			f, err := os.Open(args[0])
			if err != nil {
				return fmt.Errorf("打开文件失败: %w", err)
			}
			defer f.Close()

			a, err := openApp(opts)
			if err != nil {
				return err
			}
			defer a.Close()

			resp, err := a.svc.Transfer.Import(cmd.Context(), f)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
			fmt.Fprintln(tw, "SHEET\tADDED\tUPDATED\tSKIPPED")
			for _, s := range resp.Sheets {
				fmt.Fprintf(tw, "%s\t%d\t%d\t%d\n", s.Sheet, s.Added, s.Updated, s.Skipped)
			}
			tw.Flush()

			warn := color.New(color.FgYellow)
			for _, w := range resp.Warnings {
				if w.Row > 0 {
					warn.Fprintf(out, "%s 第 %d 行: %s\n", w.Sheet, w.Row, w.Reason)
				} else {
					warn.Fprintf(out, "%s: %s\n", w.Sheet, w.Reason)
				}
			}
			color.New(color.FgGreen).Fprintln(out, "导入完成")
			return nil
		},
	}
}

func newExportCommand(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "export <file.xlsx>",
		Short: "导出当前全部配置为工作簿",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := openApp(opts)
			if err != nil {
				return err
			}
			defer a.Close()

			buf, err := a.svc.Transfer.Export(cmd.Context())
			if err != nil {
				return err
			}
			return writeWorkbookFile(cmd, args[0], buf)
		},
	}
}

func newTemplateCommand(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "template <file.xlsx>",
		Short: "生成仅含表头的导入模板",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := openApp(opts)
			if err != nil {
				return err
			}
			defer a.Close()

			buf, err := a.svc.Transfer.Template()
			if err != nil {
				return err
			}
			return writeWorkbookFile(cmd, args[0], buf)
		},
	}
}

func writeWorkbookFile(cmd *cobra.Command, path string, buf *bytes.Buffer) error {
	if err := os.WriteFile(path, buf.Bytes(), 0o644); err != nil {
		return fmt.Errorf("写入 %s 失败: %w", path, err)
	}
	color.New(color.FgGreen).Fprintf(cmd.OutOrStdout(), "已写入 %s (%d 字节)\n", path, buf.Len())
	return nil
}
