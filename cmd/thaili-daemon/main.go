package main

import (
	"context"
	"encoding/json"
	"errors"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/lmittmann/tint"
	cli "github.com/spf13/pflag"

	log "log/slog"

	"thaili/internal/bus"
	"thaili/internal/config"
	"thaili/internal/corpus"
	"thaili/internal/dialogue"
	"thaili/internal/ipc"
	"thaili/internal/nlu"
	"thaili/internal/proxy"
	"thaili/internal/training"
	"thaili/internal/trainingapi"
)

const matchCacheSize = 512

func main() {
	config.Flags(cli.CommandLine)
	cli.Parse()

	cfg, err := config.Load(cli.CommandLine)
	if err != nil {
		log.Error("Failed to load config", "err", err)
		os.Exit(1)
	}

	log.SetDefault(log.New(tint.NewHandler(os.Stdout, &tint.Options{
		Level:      cfg.Level(),
		TimeFormat: time.TimeOnly,
	})))

	log.Info("Booting up", "backend", cfg.Recognizer.Backend, "tts", cfg.TTS, "lang", cfg.Dialogue.Lang)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg); err != nil && !errors.Is(err, context.Canceled) {
		log.Error("Daemon stopped", "err", err)
		os.Exit(1)
	}
	log.Info("Bye")
}

func run(ctx context.Context, cfg *config.Config) error {
	httpClient, err := proxy.NewClient(cfg.Proxy, 0)
	if err != nil {
		return err
	}

	cmds := corpus.New(corpus.Seed())

	var client *training.Client
	if cfg.TrainingURL != "" {
		client = training.NewClient(cfg.TrainingURL, httpClient)
		lctx, cancel := context.WithTimeout(ctx, 10*time.Second)
		n := training.LoadRemote(lctx, client, cmds)
		cancel()
		log.Info("Corpus ready", "commands", cmds.Len(), "remote", n)
	}
	sink := training.NewSink(cmds, client)
	defer sink.Wait()

	matcher, err := nlu.NewMatcher(cmds, matchCacheSize)
	if err != nil {
		return err
	}

	rec, closeRec, err := newRecognizer(cfg, httpClient, cmds)
	if err != nil {
		return err
	}
	defer closeRec()

	synth, err := newSynthesizer(cfg)
	if err != nil {
		return err
	}

	var hostBus *bus.Bus
	ctrl, err := dialogue.New(dialogue.Config{
		Recognizer:  rec,
		Synthesizer: synth,
		Matcher:     matcher,
		Corpus:      cmds,
		Recorder:    sink,
		Lang:        cfg.Dialogue.Lang,
		Voice: dialogue.Voice{
			Rate:   cfg.Voice.Rate,
			Pitch:  cfg.Voice.Pitch,
			Volume: cfg.Voice.Volume,
			Hints:  cfg.Voice.Hints,
		},
		ActivationDelay: cfg.Dialogue.ActivationDelay,
		StopDelay:       cfg.Dialogue.StopDelay,
		Callbacks:       hostCallbacks(&hostBus),
	})
	if err != nil {
		return err
	}

	if cfg.Bus.URL != "" {
		hostBus = bus.New(bus.Config{
			URL:  cfg.Bus.URL,
			Name: cfg.Bus.Name,
			Peer: cfg.Bus.Peer,
			Handlers: bus.Handlers{
				Toggle:     func() { toggle(ctrl) },
				Activate:   func() { ctrl.Activate() },
				Deactivate: ctrl.Deactivate,
				Hush:       ctrl.StopSpeaking,
			},
		})
		go func() {
			if err := hostBus.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
				log.Error("Bus stopped", "err", err)
			}
		}()
	}

	socket := cfg.Socket
	if socket == "" {
		socket = ipc.DefaultSocketPath()
	}
	srv, err := ipc.StartServer(socket, control(ctrl))
	if err != nil {
		return err
	}
	defer srv.Close()

	if cfg.Trainer.Enabled {
		// the endpoint keeps its own counts, separate from the live corpus
		api := trainingapi.New(corpus.New(corpus.ServerSeed()), trainingapi.Config{
			Addr:            cfg.Trainer.Addr,
			RateLimitPerMin: cfg.Trainer.RateLimit,
		})
		go func() {
			if err := api.Run(ctx); err != nil {
				log.Error("Training API stopped", "err", err)
			}
		}()
	}

	log.Info("Boot up - successful", "socket", socket)
	if len(cfg.Recognizer.Files) > 0 || cfg.Recognizer.Backend == config.BackendConsole {
		ctrl.Activate()
	}

	return ctrl.Run(ctx)
}

// hostCallbacks forward controller events to the bus once it exists.
func hostCallbacks(b **bus.Bus) dialogue.Callbacks {
	return dialogue.Callbacks{
		OnSearch: func(q string) {
			log.Info("Search", "query", q)
			if *b != nil {
				(*b).PublishSearch(q)
			}
		},
		OnNavigate: func(target string) {
			log.Info("Navigate", "target", target)
			if *b != nil {
				(*b).PublishNavigate(target)
			}
		},
		OnIntent: func(res nlu.MatchResult) {
			if *b != nil {
				(*b).PublishIntent(res)
			}
		},
		OnStatusChange: func(st dialogue.Status) {
			log.Debug("Status", "state", st.State, "active", st.Active)
			if *b != nil {
				(*b).PublishStatus(st)
			}
		},
		HasSelection: func() bool {
			return *b != nil && (*b).HasSelection()
		},
	}
}

func toggle(ctrl *dialogue.Controller) {
	if err := ctrl.Toggle(); err != nil {
		log.Warn("Toggle refused", "err", err)
	}
}

func control(ctrl *dialogue.Controller) ipc.Handler {
	return func(req ipc.Request) ipc.Reply {
		switch req.Cmd {
		case ipc.CmdToggle:
			if err := ctrl.Toggle(); err != nil {
				return ipc.Reply{Error: err.Error()}
			}
		case ipc.CmdOn:
			if !ctrl.Activate() {
				return ipc.Reply{Error: dialogue.ErrUnsupported.Error()}
			}
		case ipc.CmdOff:
			ctrl.Deactivate()
		case ipc.CmdHush:
			ctrl.StopSpeaking()
		case ipc.CmdStatus:
		default:
			log.Warn("Unknown command", "cmd", req.Cmd)
			return ipc.Reply{Error: "unknown command " + req.Cmd}
		}

		st, err := json.Marshal(ctrl.Status())
		if err != nil {
			return ipc.Reply{Error: err.Error()}
		}
		return ipc.Reply{OK: true, Status: st}
	}
}
