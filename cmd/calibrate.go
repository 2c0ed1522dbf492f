package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"

	"github.com/spf13/cobra"

	"github.com/rickardevertsson123/choir-practice-tool-sub000/latency"
)

var calibrateHeadphones bool

func init() {
	calibrateCmd.Flags().BoolVar(&calibrateHeadphones, "headphones", false, "headphone variant: tap or vocalize when you hear a click")
	rootCmd.AddCommand(calibrateCmd)
}

var calibrateCmd = &cobra.Command{
	Use:   "calibrate",
	Short: "Measure round-trip audio latency",
	Long: `Emits clicks through the output device and times their arrival at the
microphone. Pass the printed offset to practice via --latency-ms.`,
	Run: func(cmd *cobra.Command, args []string) {
		cobra.CheckErr(calibrate())
	},
}

func calibrate() error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	run := latency.CalibrateSpeaker
	if calibrateHeadphones {
		fmt.Println("tap or vocalize each time you hear a click")
		run = latency.CalibrateHeadphones
	} else {
		fmt.Println("keep quiet; measuring speaker-to-microphone loopback")
	}

	res, err := run(ctx, latency.Options{})
	if err != nil {
		return err
	}
	fmt.Printf("latency offset: %.1f ms\n", res.OffsetMs)
	return nil
}
