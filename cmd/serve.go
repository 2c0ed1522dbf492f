package cmd

import (
	"encoding/json"
	"fmt"
	"log"
	"net/http"

	"github.com/gorilla/mux"
	"github.com/rs/cors"
	"github.com/spf13/cobra"

	"github.com/rickardevertsson123/choir-practice-tool-sub000/model"
	"github.com/rickardevertsson123/choir-practice-tool-sub000/session"
)

var serveAddr string

func init() {
	serveCmd.Flags().StringVar(&serveAddr, "addr", ":8080", "listen address")
	serveCmd.Flags().StringVar(&practiceVoice, "voice", "", "voice to practice (default: first voice in the score)")
	serveCmd.Flags().StringVar(&practiceDifficulty, "difficulty", "normal", "easy, normal or strict")
	serveCmd.Flags().Float64Var(&practiceLatencyMs, "latency-ms", 0, "latency offset from the calibrate command")
	serveCmd.Flags().BoolVar(&practicePolling, "poll", false, "use the timer-driven analysis fallback")
	rootCmd.AddCommand(serveCmd)
}

var serveCmd = &cobra.Command{
	Use:   "serve <score.mid>",
	Short: "Serve the practice session over HTTP",
	Long:  `Runs a practice session and exposes transport, mixing, settings and a feedback event stream over HTTP.`,
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		cobra.CheckErr(serve(args[0]))
	},
}

func serve(path string) error {
	sess, err := newSession(path)
	if err != nil {
		return err
	}
	defer sess.Close()

	if err := sess.Start(); err != nil {
		return err
	}

	fmt.Printf("session %v listening on %v\n", sess.ID, serveAddr)
	log.Fatal(http.ListenAndServe(serveAddr, NewRouter(sess)))
	return nil
}

// NewRouter builds the HTTP surface for one session.
func NewRouter(s *session.Session) http.Handler {
	router := mux.NewRouter().StrictSlash(true)
	router.HandleFunc("/state", handleState(s)).Methods("GET")
	router.HandleFunc("/voices", handleVoices(s)).Methods("GET")
	router.HandleFunc("/voices/{voice}", handleVoiceMix(s)).Methods("POST")
	router.HandleFunc("/transport/play", handleTransport(s.Play)).Methods("POST")
	router.HandleFunc("/transport/pause", handleTransport(s.Pause)).Methods("POST")
	router.HandleFunc("/transport/stop", handleTransport(s.Stop)).Methods("POST")
	router.HandleFunc("/transport/seek", handleSeek(s)).Methods("POST")
	router.HandleFunc("/transport/tempo", handleTempo(s)).Methods("POST")
	router.HandleFunc("/settings", handleSettings(s)).Methods("POST")
	router.HandleFunc("/events", handleEvents(s)).Methods("GET")
	return cors.Default().Handler(router)
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, code int, msg string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(model.ErrorResponse{Error: msg})
}

func stateResponse(s *session.Session) model.StateResponse {
	return model.StateResponse{
		SessionID: s.ID,
		Transport: s.Transport(),
		Settings:  s.Settings(),
		Voices:    s.Engine().VoiceSettings(),
		Duration:  s.Engine().Duration(),
	}
}

func handleState(s *session.Session) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, stateResponse(s))
	}
}

func handleVoices(s *session.Session) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, s.Engine().VoiceSettings())
	}
}

func handleVoiceMix(s *session.Session) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		voice := mux.Vars(r)["voice"]
		if _, ok := s.Engine().GetVoiceSettings(voice); !ok {
			writeError(w, http.StatusNotFound, "unknown voice: "+voice)
			return
		}
		var upd model.VoiceMixUpdate
		if err := json.NewDecoder(r.Body).Decode(&upd); err != nil {
			writeError(w, http.StatusBadRequest, "could not parse request body: "+err.Error())
			return
		}
		s.SetVoiceMix(voice, upd)
		writeJSON(w, s.Engine().VoiceSettings())
	}
}

func handleTransport(op func()) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		op()
		w.WriteHeader(http.StatusNoContent)
	}
}

func handleSeek(s *session.Session) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var body model.SeekRequestBody
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			writeError(w, http.StatusBadRequest, "could not parse request body: "+err.Error())
			return
		}
		s.SeekTo(body.Seconds)
		writeJSON(w, stateResponse(s))
	}
}

func handleTempo(s *session.Session) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var body model.TempoRequestBody
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			writeError(w, http.StatusBadRequest, "could not parse request body: "+err.Error())
			return
		}
		if body.Multiplier <= 0 {
			writeError(w, http.StatusBadRequest, "multiplier must be positive")
			return
		}
		s.SetTempoMultiplier(body.Multiplier)
		writeJSON(w, stateResponse(s))
	}
}

func handleSettings(s *session.Session) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var body model.SettingsRequestBody
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			writeError(w, http.StatusBadRequest, "could not parse request body: "+err.Error())
			return
		}
		if body.Voice != nil {
			if err := s.SelectVoice(*body.Voice); err != nil {
				writeError(w, http.StatusBadRequest, err.Error())
				return
			}
		}
		if body.Difficulty != nil {
			s.SetDifficulty(*body.Difficulty)
		}
		if body.LatencyOffsetMs != nil {
			s.SetLatencyOffset(*body.LatencyOffsetMs)
		}
		writeJSON(w, stateResponse(s))
	}
}

// handleEvents streams feedback ticks as server-sent events.
func handleEvents(s *session.Session) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		flusher, ok := w.(http.Flusher)
		if !ok {
			writeError(w, http.StatusInternalServerError, "streaming unsupported")
			return
		}
		feedback, cancel := s.Subscribe()
		defer cancel()

		w.Header().Set("Content-Type", "text/event-stream")
		w.Header().Set("Cache-Control", "no-cache")
		w.WriteHeader(http.StatusOK)
		flusher.Flush()

		for {
			select {
			case <-r.Context().Done():
				return
			case fb, open := <-feedback:
				if !open {
					return
				}
				data, err := json.Marshal(fb)
				if err != nil {
					continue
				}
				fmt.Fprintf(w, "data: %s\n\n", data)
				flusher.Flush()
			}
		}
	}
}
