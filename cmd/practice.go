package cmd

import (
	"fmt"
	"os"
	"os/signal"
	"time"

	"github.com/spf13/cobra"

	"github.com/rickardevertsson123/choir-practice-tool-sub000/analysis"
	"github.com/rickardevertsson123/choir-practice-tool-sub000/audio"
	"github.com/rickardevertsson123/choir-practice-tool-sub000/constants"
	"github.com/rickardevertsson123/choir-practice-tool-sub000/model"
	"github.com/rickardevertsson123/choir-practice-tool-sub000/score"
	"github.com/rickardevertsson123/choir-practice-tool-sub000/session"
	"github.com/rickardevertsson123/choir-practice-tool-sub000/synth"
)

var (
	practiceVoice      string
	practiceDifficulty string
	practiceLatencyMs  float64
	practicePolling    bool
)

func init() {
	practiceCmd.Flags().StringVar(&practiceVoice, "voice", "", "voice to practice (default: first voice in the score)")
	practiceCmd.Flags().StringVar(&practiceDifficulty, "difficulty", "normal", "easy, normal or strict")
	practiceCmd.Flags().Float64Var(&practiceLatencyMs, "latency-ms", 0, "latency offset from the calibrate command")
	practiceCmd.Flags().BoolVar(&practicePolling, "poll", false, "use the timer-driven analysis fallback")
	rootCmd.AddCommand(practiceCmd)
}

var practiceCmd = &cobra.Command{
	Use:   "practice <score.mid>",
	Short: "Practice a part against the synthesized score",
	Long:  `Plays the score, listens on the default microphone and prints intonation feedback per analysis tick.`,
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		cobra.CheckErr(practice(args[0]))
	},
}

func newSession(path string) (*session.Session, error) {
	tl, err := score.Load(path)
	if err != nil {
		return nil, err
	}

	sampleRate := constants.GetSampleRate()
	out, err := audio.NewOutputDevice(sampleRate)
	if err != nil {
		return nil, err
	}
	engine := synth.NewEngine(tl, out, true)

	// Capture shares the output's clock so analysis timestamps live in the
	// same domain the engine renders against.
	capture, err := audio.NewCaptureDevice(sampleRate, out.Clock())
	if err != nil {
		engine.Dispose()
		return nil, err
	}

	var source analysis.Source
	if practicePolling {
		source = analysis.NewPollingSource(capture, float64(sampleRate), true)
	} else {
		source = analysis.NewCallbackSource(capture, float64(sampleRate), true)
	}

	base := model.DifficultySettings(practiceDifficulty)
	base.Voice = practiceVoice
	base.LatencyOffsetMs = practiceLatencyMs
	return session.New(tl, engine, source, base), nil
}

func practice(path string) error {
	sess, err := newSession(path)
	if err != nil {
		return err
	}
	defer sess.Close()

	if err := sess.Start(); err != nil {
		return err
	}

	feedback, cancel := sess.Subscribe()
	defer cancel()

	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, os.Interrupt)

	fmt.Printf("practicing %v on %q (%v)\n",
		path, sess.Settings().Voice, sess.Settings().Difficulty)
	sess.Play()

	transport := time.NewTicker(constants.TransportPollMs * time.Millisecond)
	defer transport.Stop()

	for {
		select {
		case <-sigs:
			fmt.Println("\nstopping")
			return nil
		case <-transport.C:
			t := sess.Transport()
			fmt.Printf("\r%6.2fs x%.2f ", t.PositionSeconds, t.TempoMultiplier)
		case fb, ok := <-feedback:
			if !ok {
				return nil
			}
			printFeedback(fb)
		}
	}
}

func printFeedback(fb model.Feedback) {
	if !fb.Target.HasHint {
		return
	}
	line := fmt.Sprintf("target %v", fb.Target.HintMidi)
	if fb.InGrace {
		line += " (grace)"
	} else if fb.HasCents {
		line += fmt.Sprintf(" %+5.0f cents %v", fb.Cents, fb.Confirmed)
	}
	fmt.Printf("\r%-48s", line)
}
