package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/rickardevertsson123/choir-practice-tool-sub000/audio"
)

func init() {
	rootCmd.AddCommand(devicesCmd)
}

var devicesCmd = &cobra.Command{
	Use:   "devices",
	Short: "List audio devices",
	Long:  `List audio devices`,
	Run: func(cmd *cobra.Command, args []string) {
		cobra.CheckErr(listDevices())
	},
}

func listDevices() error {
	playback, err := audio.ListPlaybackDevices()
	if err != nil {
		return err
	}
	capture, err := audio.ListCaptureDevices()
	if err != nil {
		return err
	}

	fmt.Println("playback:")
	for _, name := range playback {
		fmt.Printf("  %v\n", name)
	}
	fmt.Println("capture:")
	for _, name := range capture {
		fmt.Printf("  %v\n", name)
	}
	return nil
}
