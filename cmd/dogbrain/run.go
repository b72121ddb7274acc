package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/joeunion/pidog/internal/behavior"
	"github.com/joeunion/pidog/internal/brain"
	"github.com/joeunion/pidog/internal/capability"
	"github.com/joeunion/pidog/internal/config"
	"github.com/joeunion/pidog/internal/logging"
	"github.com/joeunion/pidog/internal/maintainer"
	"github.com/joeunion/pidog/internal/personality"
	"github.com/joeunion/pidog/internal/reasoner"
	"github.com/joeunion/pidog/internal/store"
	"github.com/joeunion/pidog/internal/templates"
	"github.com/joeunion/pidog/internal/tools"
)

const brainStopTimeout = 5 * time.Second

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run the cognitive core until interrupted",
	RunE:  runRun,
}

func runRun(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	st, err := store.Open(cfg.DBPath)
	if err != nil {
		return fmt.Errorf("open store: %w", err)
	}
	defer st.Close()

	pers, err := personality.Load(cfg.PersonalityPath)
	if err != nil {
		return fmt.Errorf("load personality: %w", err)
	}

	lib := templates.New()
	tree := behavior.New(lib)

	var vision capability.Vision // no hardware capabilities wired from the CLI by default
	dispatch := tools.New(st, pers, vision)

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	var brainReasoner reasoner.ExternalReasoner
	if !cfg.LocalOnly {
		genaiReasoner, err := reasoner.NewGenAIReasoner(ctx, cfg.ReasonerAPIKey, cfg.ReasonerModel)
		if err != nil {
			return fmt.Errorf("init reasoner: %w", err)
		}
		brainReasoner = reasoner.NewCachingReasoner(reasoner.NewRetryingReasoner(genaiReasoner))
	}

	b := brain.New(brain.Config{
		Store:             st,
		Pers:              pers,
		Lib:               lib,
		Dispatch:          dispatch,
		Effectors:         brain.Effectors{}, // no motor/speech hardware wired from the CLI by default
		LocalOnly:         cfg.LocalOnly,
		Tree:              tree,
		Reasoner:          brainReasoner,
		MaxCallsPerMinute: cfg.MaxCallsPerMinute,
		MinThinkInterval:  cfg.MinThinkInterval,
		QueueCapacity:     100,
	})

	var maint *maintainer.Maintainer
	if cfg.MaintenanceEnabled {
		var maintReasoner reasoner.ExternalReasoner
		if brainReasoner != nil {
			maintReasoner = brainReasoner
		}
		maint = maintainer.New(maintainer.Config{
			Store:    st,
			Reasoner: maintReasoner,
			IsBusy:   b.IsBusy,
			Interval: cfg.MaintenanceInterval,
		})
		go maint.Run(ctx)
	}

	logging.Get(logging.CategoryBrain).Info("dogbrain starting: name=%s local_only=%t", cfg.Name, cfg.LocalOnly)

	err = b.Run(ctx)

	if maint != nil {
		maint.Stop(brainStopTimeout)
	}
	return err
}
