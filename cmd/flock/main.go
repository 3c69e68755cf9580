package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/lao-tseu-is-alive/go-insect-flock/pkg/flock"
	"github.com/lao-tseu-is-alive/go-insect-flock/pkg/simulation"
	"github.com/spf13/cobra"
	"github.com/tochemey/goakt/v3/actor"
	golog "github.com/tochemey/goakt/v3/log"
	"google.golang.org/protobuf/types/known/emptypb"
	"google.golang.org/protobuf/types/known/wrapperspb"
)

var (
	configFile  string
	schemaFile  string
	numAgents   int
	steps       int
	seed        int64
	spatialGrid bool
	reportEvery int
	verbose     bool
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "flock",
		Short: "headless insect flocking simulation",
	}

	runCmd := &cobra.Command{
		Use:   "run",
		Short: "run the simulation until the step budget is exhausted",
		RunE:  runSimulation,
	}
	runCmd.Flags().StringVar(&configFile, "config", "", "JSON config file (defaults apply when omitted)")
	runCmd.Flags().StringVar(&schemaFile, "schema", "config/flock.schema.json", "JSON schema used to validate the config")
	runCmd.Flags().IntVar(&numAgents, "agents", 0, "override agent count")
	runCmd.Flags().IntVar(&steps, "steps", 0, "override step budget")
	runCmd.Flags().Int64Var(&seed, "seed", 0, "override random seed")
	runCmd.Flags().BoolVar(&spatialGrid, "grid", false, "use the spatial hash grid neighbor index")
	runCmd.Flags().IntVar(&reportEvery, "report-every", 500, "print flock stats every N steps")
	runCmd.Flags().BoolVar(&verbose, "verbose", false, "debug logging")
	rootCmd.AddCommand(runCmd)

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func runSimulation(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg := flock.DefaultConfig()
	if configFile != "" {
		loaded, err := flock.LoadConfig(configFile, schemaFile)
		if err != nil {
			return err
		}
		cfg = loaded
	}
	if cmd.Flags().Changed("agents") {
		cfg.NumAgents = numAgents
	}
	if cmd.Flags().Changed("steps") {
		cfg.StepBudget = steps
	}
	if cmd.Flags().Changed("seed") {
		cfg.Seed = seed
	}
	if cmd.Flags().Changed("grid") {
		cfg.SpatialGrid = spatialGrid
	}

	level := golog.InfoLevel
	if verbose {
		level = golog.DebugLevel
	}
	logger := golog.New(level, os.Stderr)

	system, err := actor.NewActorSystem("InsectFlock",
		actor.WithLogger(logger),
		actor.WithActorInitMaxRetries(3))
	if err != nil {
		return fmt.Errorf("failed to create actor system: %w", err)
	}
	if err := system.Start(ctx); err != nil {
		return fmt.Errorf("failed to start actor system: %w", err)
	}
	// Shutdown must work even when ctx was canceled by a signal.
	defer system.Stop(context.Background())

	snapshotCh := make(chan *simulation.WorldSnapshot, 10)
	worldPID, err := system.Spawn(ctx, "world", simulation.NewWorldActor(snapshotCh, cfg))
	if err != nil {
		return fmt.Errorf("failed to spawn world: %w", err)
	}

	if err := actor.Tell(ctx, worldPID, wrapperspb.Int64(int64(cfg.StepBudget))); err != nil {
		return fmt.Errorf("failed to start the run: %w", err)
	}

	done := ctx.Done()
	lastReported := -1
	for {
		select {
		case <-done:
			// Ask the world to halt; it answers with a final snapshot.
			if err := actor.Tell(context.Background(), worldPID, &emptypb.Empty{}); err != nil {
				return fmt.Errorf("failed to stop the run: %w", err)
			}
			done = nil

		case snap := <-snapshotCh:
			if snap.Halted || snap.Step-lastReported >= reportEvery {
				fmt.Printf("step %6d | insects %4d | centroid %s\n",
					snap.Step, len(snap.Agents), snap.Agents.Centroid())
				lastReported = snap.Step
			}
			if snap.Halted {
				fmt.Printf("run complete after %d steps\n", snap.Step)
				return nil
			}
		}
	}
}
