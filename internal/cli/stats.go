package cli

import (
	"strconv"

	"github.com/spf13/cobra"
	"github.com/sugawarayuuta/sonnet"

	"github.com/matzehuels/exorcism/pkg/render"
)

// statsCommand creates the stats command.
func (c *CLI) statsCommand() *cobra.Command {
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "stats [file]",
		Short: "Print the size of a cover",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			path := "-"
			if len(args) == 1 {
				path = args[0]
			}
			cv, err := readCover(path)
			if err != nil {
				return err
			}
			st := cv.Stats()

			if asJSON {
				data, err := sonnet.Marshal(st)
				if err != nil {
					return err
				}
				_, err = cmd.OutOrStdout().Write(append(data, '\n'))
				return err
			}

			adjacent := 0
			for _, e := range render.Edges(cv, 1) {
				if e.Dist == 1 {
					adjacent++
				}
			}

			printKeyValue("file", displayName(path))
			printKeyValue("inputs", strconv.Itoa(cv.Inputs))
			printKeyValue("outputs", strconv.Itoa(cv.Outputs))
			printKeyValue("cubes", strconv.Itoa(st.Cubes))
			printKeyValue("literals", strconv.Itoa(st.Literals))
			printKeyValue("negative", strconv.Itoa(st.Negative))
			printKeyValue("qcost", strconv.Itoa(st.QuantumCost))
			printKeyValue("adjacent", strconv.Itoa(adjacent))
			return nil
		},
	}

	cmd.Flags().BoolVar(&asJSON, "json", false, "print the statistics as JSON")

	return cmd
}
