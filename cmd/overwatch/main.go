// Overwatch participant agent: captures webcam and microphone signals,
// fuses them into a per-tick language verdict, and replicates the alert
// state to the proctor server.
package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"syscall"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/jaehyun-p/overwatch/internal/config"
	"github.com/jaehyun-p/overwatch/internal/log"
	"github.com/jaehyun-p/overwatch/pkg/audio"
	"github.com/jaehyun-p/overwatch/pkg/camera"
	"github.com/jaehyun-p/overwatch/pkg/monitor"
	"github.com/jaehyun-p/overwatch/pkg/presence"
	"github.com/jaehyun-p/overwatch/pkg/vision"
)

func main() {
	cfg, debug := parseFlags()
	level := string(cfg.Server.LogLevel)
	if debug {
		level = "debug"
	}
	log.Init(level)

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	if cfg.Participant.Name == "" {
		log.Error("participant name is required (-name or config)")
		os.Exit(1)
	}

	// Vision pipeline. Model init failure is fatal: monitoring without a
	// working lip tracker would silently never flag anyone.
	webcam, err := camera.Open(camera.Config{
		DeviceID: cfg.Vision.DeviceID,
		Width:    640,
		Height:   480,
		Quality:  85,
	})
	if err != nil {
		log.Error("camera init failed", "error", err)
		os.Exit(1)
	}
	defer webcam.Close()

	visionCfg := vision.DefaultConfig()
	visionCfg.FaceModelPath = cfg.Vision.FaceModelPath
	visionCfg.MeshModelPath = cfg.Vision.MeshModelPath
	if cfg.Vision.ConfidenceThresh > 0 {
		visionCfg.ConfidenceThresh = float64(cfg.Vision.ConfidenceThresh)
	}
	lips, err := vision.NewFaceMesh(visionCfg)
	if err != nil {
		log.Error("lip detector init failed", "error", err)
		os.Exit(1)
	}
	defer lips.Close()

	// Language classifier.
	classifierCfg := audio.DefaultClientConfig()
	classifierCfg.BaseURL = cfg.Audio.BaseURL
	classifier := audio.NewClient(classifierCfg)
	if err := classifier.Init(ctx); err != nil {
		log.Error("language classifier init failed", "error", err)
		os.Exit(1)
	}
	defer classifier.Close()

	capture := audio.NewCaptureBuffer(classifier.InputSize())
	mic := audio.NewDeviceSource(cfg.Audio.CaptureRate, 50*time.Millisecond)
	if err := mic.Start(ctx); err != nil {
		log.Error("microphone init failed", "error", err)
		os.Exit(1)
	}
	defer mic.Stop()

	// Presence connection to the proctor server. The threshold callback
	// must be in place before Join starts the read loop.
	client := presence.NewClient(cfg.Participant.ServerURL)
	mon := monitor.New(monitor.Config{
		SampleInterval: cfg.Monitor.SampleInterval(),
		EpisodeGap:     cfg.Monitor.EpisodeGap(),
		Thresholds:     cfg.Monitor.Thresholds,
		LiveLogSize:    10,
	}, webcam, lips, classifier, capture, client)
	client.OnThresholds = mon.SetThresholds

	key, err := client.Join(cfg.Participant.Name, cfg.Participant.StudentID)
	if err != nil {
		log.Error("server connection failed", "error", err)
		os.Exit(1)
	}
	defer client.Close()
	log.Info("joined session", "key", key)

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return audio.Pump(ctx, mic, capture, classifier.SampleRate())
	})
	g.Go(func() error {
		mon.Run(ctx)
		return nil
	})

	if err := g.Wait(); err != nil && ctx.Err() == nil {
		log.Error("monitoring aborted", "error", err)
		os.Exit(1)
	}
}

// parseFlags parses command line flags over the config file and defaults.
func parseFlags() (*config.Config, bool) {
	configPath := flag.String("config", "", "Path to YAML config file")
	name := flag.String("name", "", "Participant display name")
	studentID := flag.String("student-id", "", "Participant student ID")
	server := flag.String("server", "", "Proctor server websocket URL")
	debug := flag.Bool("debug", false, "Enable verbose debug logging")
	flag.Parse()

	cfg := config.Default()
	if *configPath != "" {
		loaded, err := config.Load(*configPath)
		if err != nil {
			log.Error("config load failed", "error", err)
			os.Exit(1)
		}
		cfg = loaded
	}

	if *name == "" {
		*name = os.Getenv("OVERWATCH_NAME")
	}
	if *studentID == "" {
		*studentID = os.Getenv("OVERWATCH_STUDENT_ID")
	}
	if *server == "" {
		*server = os.Getenv("OVERWATCH_SERVER")
	}

	if *name != "" {
		cfg.Participant.Name = *name
	}
	if *studentID != "" {
		cfg.Participant.StudentID = *studentID
	}
	if *server != "" {
		cfg.Participant.ServerURL = *server
	}
	return cfg, *debug
}
