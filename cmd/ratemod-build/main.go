package main

import (
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"github.com/daniacca/ratemod/internal/ratemod"
)

func main() {
	var (
		problemFile = flag.String("problem-file", "", "path to YAML problem bundle (required)")
		conditionID = flag.String("condition", "", "condition ID to build; empty builds every condition")
		outDir      = flag.String("out-dir", "", "directory for built model documents; empty prints to stdout")
		list        = flag.Bool("list", false, "list the condition IDs of the bundle and exit")
	)
	flag.Parse()

	if *problemFile == "" {
		fmt.Fprintf(os.Stderr, "error: --problem-file is required\n")
		flag.Usage()
		os.Exit(1)
	}

	bundle, err := ratemod.LoadProblemBundle(*problemFile)
	if err != nil {
		fmt.Fprintf(os.Stderr, "error loading problem bundle: %v\n", err)
		os.Exit(1)
	}

	if *list {
		for _, id := range bundle.Conditions.ConditionIDs() {
			fmt.Println(id)
		}
		return
	}

	base, ok := bundle.Model.(*ratemod.NetworkModel)
	if !ok {
		fmt.Fprintf(os.Stderr, "error: %v for language %s\n", ratemod.ErrNotSupported, bundle.Model.Language())
		os.Exit(1)
	}

	targets := bundle.Conditions.ConditionIDs()
	if *conditionID != "" {
		targets = []string{*conditionID}
	}
	sort.Strings(targets)

	warn := func(event ratemod.WarningEvent) {
		fmt.Fprintf(os.Stderr, "warning: kind=%s condition=%s target=%s %s\n",
			event.Kind, event.ConditionID, event.Target, event.Message)
	}

	for _, target := range targets {
		if err := buildOne(base, bundle, target, *outDir, warn); err != nil {
			fmt.Fprintf(os.Stderr, "error building condition %s: %v\n", target, err)
			os.Exit(1)
		}
	}
}

func buildOne(base *ratemod.NetworkModel, bundle *ratemod.ProblemBundle, conditionID, outDir string, warn ratemod.WarningSink) error {
	pm, _, err := ratemod.MapCondition(conditionID, false, nil, base, bundle.Conditions, bundle.Parameters, ratemod.DefaultMapOptions())
	if err != nil {
		return err
	}

	built, err := ratemod.BuildConditionModel(base, conditionID, pm, bundle.Conditions, bundle.Parameters, ratemod.BuildOptions{Warn: warn})
	if err != nil {
		return err
	}

	data, err := built.Serialize()
	if err != nil {
		return err
	}

	if outDir == "" {
		fmt.Printf("%s\n", data)
		return nil
	}

	path := filepath.Join(outDir, bundle.ModelID+"_"+conditionID+".json")
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return err
	}
	fmt.Printf("wrote %s\n", path)
	return nil
}
