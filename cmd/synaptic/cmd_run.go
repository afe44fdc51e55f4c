package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/nvandessel/synaptic/internal/config"
	"github.com/nvandessel/synaptic/internal/floatnet"
	"github.com/nvandessel/synaptic/internal/logging"
	"github.com/nvandessel/synaptic/internal/store"
	"github.com/spf13/cobra"
)

// patternResult holds the network outputs after ticking one input pattern.
type patternResult struct {
	Pattern []float64          `json:"pattern"`
	Outputs map[string]float64 `json:"outputs"`
}

func newRunCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "run <scenario.yaml>",
		Short: "Run a scenario's patterns through its network",
		Long: `Build the network declared in a scenario file, tick each input
pattern through it, and print the declared outputs.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			configPath, _ := cmd.Flags().GetString("config")
			jsonOut, _ := cmd.Flags().GetBool("json")

			cfg, err := config.Load(configPath)
			if err != nil {
				return err
			}
			if err := cfg.Validate(); err != nil {
				return fmt.Errorf("invalid config: %w", err)
			}

			log := logging.NewLogger(cfg.Logging.Level, cmd.ErrOrStderr())
			trace := logging.NewTraceLogger(".synaptic", cfg.Logging.Level)
			defer trace.Close()

			sc, err := LoadScenario(args[0])
			if err != nil {
				return err
			}

			results, err := runScenario(sc, log, trace)
			if err != nil {
				return fmt.Errorf("running scenario %q: %w", sc.Name, err)
			}

			if cfg.Store.Enabled {
				if err := recordRun(cmd.Context(), sc, cfg, results, log); err != nil {
					return fmt.Errorf("recording run: %w", err)
				}
			}

			if jsonOut {
				enc := json.NewEncoder(cmd.OutOrStdout())
				enc.SetIndent("", "  ")
				return enc.Encode(results)
			}
			for _, r := range results {
				parts := make([]string, 0, len(sc.Outputs))
				for _, name := range sc.Outputs {
					parts = append(parts, fmt.Sprintf("%s=%g", name, r.Outputs[name]))
				}
				fmt.Fprintf(cmd.OutOrStdout(), "%v -> %s\n", r.Pattern, strings.Join(parts, " "))
			}
			return nil
		},
	}
	return cmd
}

// scenarioController serves the current pattern to every sensor read and
// captures the outputs of the last tick, keyed by channel name. Sensors
// keep their declaration order (inputs are visited first, in order, so
// their handles are assigned in order), but actions are sorted by handle.
type scenarioController struct {
	pattern []float64
	outputs map[string]float64
}

func (c *scenarioController) ReadSensors(sensors []floatnet.SensorGene, dst []float64) bool {
	copy(dst, c.pattern)
	return true
}

func (c *scenarioController) PerformActions(actions []floatnet.ActionGene, outputs []float64) {
	if c.outputs == nil {
		c.outputs = make(map[string]float64, len(actions))
	}
	for i, a := range actions {
		c.outputs[a.Channel] = outputs[i]
	}
}

// runScenario builds the scenario's agent and ticks every pattern through
// it, rotating arenas between patterns.
func runScenario(sc *Scenario, log *slog.Logger, trace *logging.TraceLogger) ([]patternResult, error) {
	ag, err := sc.BuildAgent()
	if err != nil {
		return nil, err
	}

	ctrl := &scenarioController{}
	w, err := floatnet.NewWorld(ctrl, []floatnet.Agent{ag}, log)
	if err != nil {
		return nil, err
	}

	tickCfg := &floatnet.Config{
		Activator: floatnet.NeuronConfig{Leak: sc.Config.Leak},
	}

	results := make([]patternResult, 0, len(sc.Patterns))
	for _, pattern := range sc.Patterns {
		ctrl.pattern = pattern
		for t := 0; t < sc.Config.TicksPerPattern; t++ {
			if err := w.Step(tickCfg); err != nil {
				return nil, err
			}
		}

		outputs := make(map[string]float64, len(sc.Outputs))
		for _, name := range sc.Outputs {
			outputs[name] = ctrl.outputs[name]
		}
		results = append(results, patternResult{Pattern: pattern, Outputs: outputs})
		trace.Log(map[string]any{
			"event":    "pattern",
			"scenario": sc.Name,
			"pattern":  pattern,
			"outputs":  outputs,
			"ticks":    w.Ticks(),
		})

		w.RotateArenas()
	}
	return results, nil
}

// recordRun persists the run and one step record per pattern.
func recordRun(ctx context.Context, sc *Scenario, cfg *config.Config, results []patternResult, log *slog.Logger) error {
	var rs store.RunStore
	if cfg.Store.Path == "" {
		rs = store.NewMemoryRunStore()
	} else {
		sqlStore, err := store.NewSQLiteRunStore(cfg.Store.Path)
		if err != nil {
			return err
		}
		rs = sqlStore
	}
	defer rs.Close()

	run := store.Run{
		ID:       uuid.NewString(),
		Scenario: sc.Name,
		Config: map[string]any{
			"ticks_per_pattern": sc.Config.TicksPerPattern,
			"leak":              sc.Config.Leak,
		},
		CreatedAt: time.Now().UTC(),
	}
	if err := rs.CreateRun(ctx, run); err != nil {
		return err
	}

	for i, r := range results {
		stats := make(map[string]float64, len(r.Outputs))
		for name, v := range r.Outputs {
			stats["output_"+name] = v
		}
		rec := store.StepRecord{RunID: run.ID, Index: i, Stats: stats}
		if err := rs.RecordStep(ctx, rec); err != nil {
			return err
		}
	}

	log.Info("recorded run", "id", run.ID, "scenario", sc.Name, "patterns", len(results))
	return nil
}
