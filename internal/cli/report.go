package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"strconv"
	"text/tabwriter"

	"github.com/spf13/cobra"

	service "github.com/okian/taskflow/internal/app"
	"github.com/okian/taskflow/internal/domain/ledger"
)

func newRecommendCmd(g *globalFlags) *cobra.Command {
	var (
		itemKey string
		top     int
	)

	cmd := &cobra.Command{
		Use:   "recommend",
		Short: "Rank members for a work item, or for every unassigned item",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withService(cmd.Context(), g, func(svc *service.Service) error {
				var recs []service.Recommendation
				if itemKey != "" {
					rec, err := svc.Recommend(cmd.Context(), itemKey, top)
					if err != nil {
						return err
					}
					recs = append(recs, rec)
				} else {
					var err error
					if recs, err = svc.RecommendUnassigned(cmd.Context(), top); err != nil {
						return err
					}
				}

				if g.asJSON {
					if itemKey != "" {
						return printJSON(cmd.OutOrStdout(), recs[0])
					}
					return printJSON(cmd.OutOrStdout(), recs)
				}
				return printRecommendations(cmd.OutOrStdout(), recs)
			})
		},
	}

	cmd.Flags().StringVarP(&itemKey, "item", "i", "", "Work item key (all unassigned items when empty)")
	cmd.Flags().IntVarP(&top, "top", "n", 0, "Number of candidates (default from config)")
	return cmd
}

func newWorkloadCmd(g *globalFlags) *cobra.Command {
	var member string

	cmd := &cobra.Command{
		Use:   "workload",
		Short: "Show a member's committed load",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withService(cmd.Context(), g, func(svc *service.Service) error {
				w, err := svc.Workload(cmd.Context(), member)
				if err != nil {
					return err
				}
				if g.asJSON {
					return printJSON(cmd.OutOrStdout(), w)
				}
				return printWorkloads(cmd.OutOrStdout(), []ledger.MemberWorkload{w})
			})
		},
	}

	cmd.Flags().StringVarP(&member, "member", "m", "", "Member id or username")
	_ = cmd.MarkFlagRequired("member")
	return cmd
}

func newCapacityCmd(g *globalFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "capacity",
		Short: "Show the team capacity overview",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withService(cmd.Context(), g, func(svc *service.Service) error {
				o, err := svc.Capacity(cmd.Context())
				if err != nil {
					return err
				}
				if g.asJSON {
					return printJSON(cmd.OutOrStdout(), o)
				}
				if err := printWorkloads(cmd.OutOrStdout(), o.Members); err != nil {
					return err
				}
				_, err = fmt.Fprintf(cmd.OutOrStdout(), "\nTeam: %s/%s points, average utilization %s%%\n",
					num(o.Totals.TotalAssigned), num(o.Totals.TotalCapacity), num(o.Totals.AverageUtilization))
				return err
			})
		},
	}
}

func printJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func printRecommendations(w io.Writer, recs []service.Recommendation) error {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	for i, rec := range recs {
		if i > 0 {
			fmt.Fprintln(tw)
		}
		fmt.Fprintf(tw, "%s\t%s\t(%s points)\n", rec.Item.Key, rec.Item.Summary, num(rec.Item.StoryPoints))
		fmt.Fprintln(tw, "RANK\tMEMBER\tNAME\tSCORE\tFIT\tHEADROOM\tSTATUS")
		for _, c := range rec.Candidates {
			status := "eligible"
			if c.Excluded {
				status = c.Reason
			}
			fmt.Fprintf(tw, "%d\t%s\t%s\t%.2f\t%.2f\t%.2f\t%s\n",
				c.Rank, c.Member.ID, c.Member.DisplayName, c.Score, c.SkillFit, c.Headroom, status)
		}
	}
	return tw.Flush()
}

func printWorkloads(w io.Writer, rows []ledger.MemberWorkload) error {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "MEMBER\tNAME\tTASKS\tPOINTS\tCAPACITY\tUTILIZATION\tAVAILABLE")
	for _, r := range rows {
		fmt.Fprintf(tw, "%s\t%s\t%d\t%s\t%s\t%s%%\t%s\n",
			r.MemberID, r.DisplayName, r.Workload.AssignedCount,
			num(r.Workload.TotalPoints), num(r.Workload.MaxCapacity),
			num(r.Workload.UtilizationPercent), num(r.Workload.AvailableCapacity))
	}
	return tw.Flush()
}

// num prints whole numbers without a fraction.
func num(f float64) string {
	return strconv.FormatFloat(f, 'f', -1, 64)
}
