package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/rickardevertsson123/choir-practice-tool-sub000/score"
)

func init() {
	rootCmd.AddCommand(demoCmd)
}

var demoCmd = &cobra.Command{
	Use:   "demo [path]",
	Short: "Write a demo score",
	Long:  `Writes a small four-part demo score to practice against.`,
	Args:  cobra.MaximumNArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		path := "demo.mid"
		if len(args) == 1 {
			path = args[0]
		}
		cobra.CheckErr(score.WriteDemo(path))
		fmt.Printf("wrote %v\n", path)
	},
}
