package cli

import (
	"fmt"
	"text/tabwriter"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/zahias/pillars/internal/dto"
)

func newProgressCommand(opts *options) *cobra.Command {
	var year int

	cmd := &cobra.Command{
		Use:   "progress",
		Short: "查看各指标的完成进度",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := openApp(opts)
			if err != nil {
				return err
			}
			defer a.Close()

			list, err := a.svc.Report.Progress(cmd.Context(), &dto.ReportFilterRequest{Year: year})
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if len(list) == 0 {
				fmt.Fprintln(out, "暂无指标")
				return nil
			}

			tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
			fmt.Fprintln(tw, "PILLAR\tINDICATOR\tACTUAL\tGOAL\tPERCENT")
			for _, p := range list {
				fmt.Fprintf(tw, "%s\t%s\t%d\t%d\t%s\n",
					p.PillarName, p.IndicatorName, p.Actual, p.Goal, percentColor(p.Percent).Sprintf("%.2f%%", p.Percent))
			}
			return tw.Flush()
		},
	}

	cmd.Flags().IntVar(&year, "year", 0, "只统计该年份的记录（0 表示全部）")
	return cmd
}

// percentColor 达标绿色，过半黄色，其余红色
func percentColor(percent float64) *color.Color {
	switch {
	case percent >= 100:
		return color.New(color.FgGreen)
	case percent >= 50:
		return color.New(color.FgYellow)
	default:
		return color.New(color.FgRed)
	}
}
