package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"riff-review/internal/utils"
	"riff-review/simulator"

	"github.com/rs/zerolog/log"
	"github.com/urfave/cli/v3"
)

func main() {
	defaults := simulator.DefaultSimConfig()

	app := &cli.Command{
		Name:  "riff-sim",
		Usage: "Drive simulated viewers against the comment API",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "engine-url",
				Aliases: []string{"u"},
				Usage:   "Base URL of the comment server",
				Value:   defaults.EngineURL,
				Sources: cli.EnvVars("ENGINE_URL"),
			},
			&cli.IntFlag{
				Name:    "viewers",
				Aliases: []string{"n"},
				Usage:   "Number of simulated viewers",
				Value:   defaults.NumViewers,
			},
			&cli.StringSliceFlag{
				Name:  "container",
				Usage: "Container ids to visit, most popular first",
				Value: defaults.Containers,
			},
			&cli.DurationFlag{
				Name:    "duration",
				Aliases: []string{"d"},
				Usage:   "How long to run",
				Value:   defaults.SimulationTime,
			},
			&cli.DurationFlag{
				Name:  "tick",
				Usage: "Interval between viewer actions",
				Value: defaults.TickInterval,
			},
			&cli.FloatFlag{Name: "comment-rate", Usage: "Per-tick probability of posting", Value: defaults.CommentProbability},
			&cli.FloatFlag{Name: "like-rate", Usage: "Per-tick probability of toggling a like", Value: defaults.LikeProbability},
			&cli.FloatFlag{Name: "edit-rate", Usage: "Per-tick probability of editing an own comment", Value: defaults.EditProbability},
			&cli.FloatFlag{Name: "delete-rate", Usage: "Per-tick probability of deleting an own comment", Value: defaults.DeleteProbability},
			&cli.FloatFlag{Name: "report-rate", Usage: "Per-tick probability of reporting a comment", Value: defaults.ReportProbability},
			&cli.FloatFlag{Name: "anonymous", Usage: "Share of viewers that never sign in", Value: defaults.AnonymousShare},
			&cli.FloatFlag{Name: "zipf", Usage: "Container popularity skew (> 1)", Value: defaults.ZipfS},
			&cli.StringFlag{Name: "username", Usage: "Login used by signed-in viewers", Value: defaults.Username, Sources: cli.EnvVars("SIM_USERNAME")},
			&cli.StringFlag{Name: "password", Usage: "Password for --username", Value: defaults.Password, Sources: cli.EnvVars("SIM_PASSWORD")},
			&cli.StringFlag{Name: "log-level", Value: "info", Sources: cli.EnvVars("LOG_LEVEL")},
		},
		Action: run,
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := app.Run(ctx, os.Args); err != nil {
		log.Fatal().Err(err).Msg("Simulation failed")
	}
}

func run(ctx context.Context, cmd *cli.Command) error {
	utils.SetupLogger(cmd.String("log-level"), true)

	config := simulator.SimConfig{
		NumViewers:         cmd.Int("viewers"),
		Containers:         cmd.StringSlice("container"),
		SimulationTime:     cmd.Duration("duration"),
		TickInterval:       cmd.Duration("tick"),
		CommentProbability: cmd.Float("comment-rate"),
		LikeProbability:    cmd.Float("like-rate"),
		EditProbability:    cmd.Float("edit-rate"),
		DeleteProbability:  cmd.Float("delete-rate"),
		ReportProbability:  cmd.Float("report-rate"),
		DisconnectRate:     0.01,
		ReconnectRate:      0.05,
		ZipfS:              cmd.Float("zipf"),
		EngineURL:          cmd.String("engine-url"),
		Username:           cmd.String("username"),
		Password:           cmd.String("password"),
		AnonymousShare:     cmd.Float("anonymous"),
	}

	log.Info().
		Str("engine_url", config.EngineURL).
		Int("viewers", config.NumViewers).
		Strs("containers", config.Containers).
		Dur("duration", config.SimulationTime).
		Msg("Starting simulation")

	runCtx, cancel := context.WithTimeout(ctx, config.SimulationTime)
	defer cancel()

	sim := simulator.NewSimulator(config)
	if err := sim.Run(runCtx); err != nil {
		return err
	}

	m := sim.GetMetrics()
	log.Info().
		Int("viewers", m.TotalViewers).
		Int("active_viewers", m.ActiveViewers).
		Int("requests", m.TotalRequests).
		Int("comments", m.TotalComments).
		Int("likes", m.TotalLikes).
		Int("edits", m.TotalEdits).
		Int("deletes", m.TotalDeletes).
		Int("reports", m.TotalReports).
		Int("login_redirects", m.LoginRedirects).
		Int("refused", m.RefusedCount).
		Int("errors", m.ErrorCount).
		Dur("avg_latency", m.AverageLatency).
		Msg("Simulation completed")
	return nil
}
