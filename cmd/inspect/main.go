package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"os"

	"github.com/davismoran/offline-eval/go-estimator/internal/logging"
	"github.com/davismoran/offline-eval/go-estimator/internal/store"
)

// #region main

func main() {
	dbPath := flag.String("db", "", "path to eval.db")
	last := flag.Int("last", 20, "show N most recent runs")
	runID := flag.String("run", "", "show single run detail")
	showLog := flag.Bool("log", false, "show the run log instead of runs")
	jsonOut := flag.Bool("json", false, "output as JSON instead of table")
	flag.Parse()

	if *dbPath == "" {
		fmt.Fprintln(os.Stderr, "usage: inspect --db path/to/eval.db [--last N] [--run id] [--log] [--json]")
		os.Exit(2)
	}

	st, err := store.NewStore(*dbPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "open db: %v\n", err)
		os.Exit(1)
	}
	defer st.Close()

	switch {
	case *showLog:
		err = runLogMode(st, *last, *jsonOut)
	case *runID != "":
		err = runDetailMode(st, *runID, *jsonOut)
	default:
		err = runListMode(st, *last, *jsonOut)
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

// #endregion main

// #region list-mode

func runListMode(st *store.Store, last int, jsonOut bool) error {
	runs, err := st.ListRuns(last)
	if err != nil {
		return err
	}
	if len(runs) == 0 {
		fmt.Fprintln(os.Stderr, "no runs found")
		return nil
	}

	if jsonOut {
		return printJSON(runs)
	}

	fmt.Printf("%-36s  %-20s  %5s  %3s  %10s  %10s  %8s\n",
		"RUN", "CREATED", "GAMMA", "EPS", "V_BEHAVIOR", "V_TARGET", "V_GAIN")
	for _, run := range runs {
		fmt.Printf("%-36s  %-20s  %5.2f  %3d  %10.4f  %10.4f  %8.4f\n",
			run.RunID,
			run.CreatedAt.Format("2006-01-02T15:04:05Z"),
			run.Gamma,
			run.Episodes,
			run.Result.VBehavior,
			run.Result.VTarget,
			run.Result.VGain,
		)
	}
	return nil
}

// #endregion list-mode

// #region detail-mode

func runDetailMode(st *store.Store, runID string, jsonOut bool) error {
	run, err := st.GetRun(runID)
	if err != nil {
		return err
	}

	if jsonOut {
		return printJSON(run)
	}

	fmt.Printf("run:        %s\n", run.RunID)
	fmt.Printf("created:    %s\n", run.CreatedAt.Format("2006-01-02T15:04:05Z"))
	fmt.Printf("gamma:      %.4f\n", run.Gamma)
	fmt.Printf("episodes:   %d\n", run.Episodes)
	fmt.Printf("v_behavior: %.6f ± %.6f\n", run.Result.VBehavior, run.Result.VBehaviorStd)
	fmt.Printf("v_target:   %.6f ± %.6f\n", run.Result.VTarget, run.Result.VTargetStd)
	fmt.Printf("v_gain:     %.6f\n", run.Result.VGain)
	fmt.Printf("v_delta:    %.6f\n", run.Result.VDelta)
	if len(run.Result.PerEpisode) > 0 {
		fmt.Printf("\n%4s  %12s  %12s\n", "EP", "V_BEHAVIOR", "V_TARGET")
		for i, ep := range run.Result.PerEpisode {
			fmt.Printf("%4d  %12.6f  %12.6f\n", i, ep.VBehavior, ep.VTarget)
		}
	}
	return nil
}

// #endregion detail-mode

// #region log-mode

func runLogMode(st *store.Store, last int, jsonOut bool) error {
	entries, err := logging.ListEntries(st.DB(), last)
	if err != nil {
		return err
	}
	if len(entries) == 0 {
		fmt.Fprintln(os.Stderr, "run log is empty")
		return nil
	}

	if jsonOut {
		return printJSON(entries)
	}

	for _, e := range entries {
		fmt.Printf("%s  %-8s  %s  %s\n",
			e.CreatedAt.Format("2006-01-02T15:04:05Z"), e.Kind, e.RunID, e.Reason)
	}
	return nil
}

// #endregion log-mode

// #region helpers

func printJSON(v any) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// #endregion helpers
