package cmd

import (
	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "choirpractice",
	Short: "Choir practice engine",
	Long:  `Synthesizes choir parts from a midi score, listens on the microphone and scores intonation in real time.`,
}

func Execute() {
	cobra.CheckErr(rootCmd.Execute())
}
