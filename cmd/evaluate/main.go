package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"os"

	"github.com/davismoran/offline-eval/go-estimator/internal/dm"
	"github.com/davismoran/offline-eval/go-estimator/internal/envprofile"
	"github.com/davismoran/offline-eval/go-estimator/internal/fixture"
	"github.com/davismoran/offline-eval/go-estimator/internal/logging"
	"github.com/davismoran/offline-eval/go-estimator/internal/store"
)

// #region main

func main() {
	fixturePath := flag.String("fixture", "", "path to evaluation fixture JSON")
	dbPath := flag.String("db", "", "record runs to this SQLite database (or OPE_DB)")
	profilesDir := flag.String("profiles", "", "directory of environment profile .env files")
	profile := flag.String("profile", envprofile.DefaultProfile, "environment profile name")
	flag.Parse()

	if *fixturePath == "" {
		fmt.Fprintln(os.Stderr, "usage: evaluate --fixture path/to/fixture.json [--db path/to/eval.db]")
		fmt.Fprintln(os.Stderr, "                [--profiles dir --profile name]")
		os.Exit(2)
	}

	if *profilesDir != "" {
		if err := envprofile.Apply(*profilesDir, *profile); err != nil {
			fmt.Fprintf(os.Stderr, "load profile: %v\n", err)
			os.Exit(2)
		}
	}

	db := *dbPath
	if db == "" {
		db = os.Getenv("OPE_DB")
	}

	if err := run(*fixturePath, db); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

// #endregion main

// #region run

// runOutput is the JSON printed to stdout after a successful run.
type runOutput struct {
	Description string           `json:"description,omitempty"`
	Gamma       float64          `json:"gamma"`
	TrainPasses int              `json:"train_passes"`
	Training    []dm.TrainResult `json:"training"`
	Result      *dm.Result       `json:"result"`
	RunID       string           `json:"run_id,omitempty"`
}

func run(fixturePath, dbPath string) error {
	fix, err := fixture.Load(fixturePath)
	if err != nil {
		return err
	}

	pol, err := fix.BuildPolicy()
	if err != nil {
		return fmt.Errorf("fixture policy: %w", err)
	}
	est, err := dm.New(pol, fix.Gamma, fix.ModelConfig())
	if err != nil {
		return err
	}
	input, err := fix.BatchInput()
	if err != nil {
		return err
	}

	passes := fix.TrainPasses
	if passes <= 0 {
		passes = 1
	}

	out := runOutput{
		Description: fix.Description,
		Gamma:       fix.Gamma,
		TrainPasses: passes,
	}
	for i := 0; i < passes; i++ {
		tr, err := est.Train(input)
		if err != nil {
			return fmt.Errorf("train pass %d: %w", i+1, err)
		}
		out.Training = append(out.Training, tr)
	}

	res, err := est.Estimate(input)
	if err != nil {
		return err
	}
	out.Result = res

	if dbPath != "" {
		runID, err := record(dbPath, fix.Gamma, res, out.Training)
		if err != nil {
			return err
		}
		out.RunID = runID
	}

	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(out)
}

// #endregion run

// #region record

func record(dbPath string, gamma float64, res *dm.Result, training []dm.TrainResult) (string, error) {
	st, err := store.NewStore(dbPath)
	if err != nil {
		return "", err
	}
	defer st.Close()

	for _, tr := range training {
		rec, err := st.RecordTraining(tr)
		if err != nil {
			return "", err
		}
		detail, _ := json.Marshal(tr)
		if err := logging.LogRun(st.DB(), logging.RunEntry{
			RunID:  rec.TrainID,
			Kind:   "train",
			Detail: string(detail),
		}); err != nil {
			return "", err
		}
	}

	run, err := st.RecordEstimate(gamma, res)
	if err != nil {
		return "", err
	}
	detail, _ := json.Marshal(res)
	if err := logging.LogRun(st.DB(), logging.RunEntry{
		RunID:  run.RunID,
		Kind:   "estimate",
		Detail: string(detail),
	}); err != nil {
		return "", err
	}
	return run.RunID, nil
}

// #endregion record
