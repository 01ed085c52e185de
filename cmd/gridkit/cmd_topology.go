package main

import (
	"fmt"
	"sort"

	"github.com/spf13/cobra"

	"github.com/ajitpratap0/gridkit/internal/models"
)

func topologyCmd() *cobra.Command {
	var side string

	cmd := &cobra.Command{
		Use:   "topology",
		Short: "Print participants per node and lines isolated by opened switches",
		RunE: func(cmd *cobra.Command, args []string) error {
			logger := newLogger()

			ct, err := loadGrid(logger, "")
			if err != nil {
				return err
			}

			np := ct.NodeParticipants()
			type nodeRow struct {
				label string
				total int
				sRate float64
			}
			rows := make([]nodeRow, 0, len(np))
			for node, p := range np {
				label, _ := ct.Nodes().Label(node)
				rows = append(rows, nodeRow{label: label, total: p.Total, sRate: p.SRated})
			}
			sort.Slice(rows, func(i, j int) bool { return rows[i].label < rows[j].label })

			fmt.Println("Participants per node:")
			for _, r := range rows {
				fmt.Printf("  %-20s %4d  %10.3f kVA\n", r.label, r.total, r.sRate)
			}

			fmt.Printf("\nSwitches: %d opened, %d closed\n", ct.OpenedSwitches().Len(), ct.ClosedSwitches().Len())

			lines := ct.DisconnectedLines()
			heading := "Disconnected lines"
			if side != "" {
				s, err := models.ParseSide(side)
				if err != nil {
					return fmt.Errorf("topology: %w", err)
				}
				if lines, err = ct.LinesAt(s, ct.AuxiliaryNodes()); err != nil {
					return fmt.Errorf("topology: %w", err)
				}
				heading = fmt.Sprintf("Lines with node_%s on an auxiliary node", s)
			}
			fmt.Printf("%s: %d\n", heading, lines.Len())
			for _, l := range lines.Rows() {
				fmt.Printf("  %-20s %s -> %s\n", l.ID, l.NodeA, l.NodeB)
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&side, "side", "", "only lines whose node on this side (a or b) is an auxiliary node")
	return cmd
}
