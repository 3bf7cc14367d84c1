// Package main is the SoCloverAI CLI entry point.
package main

import (
	"context"
	"flag"
	"fmt"
	"math/rand/v2"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"

	socloverai "github.com/ForrestTrepte/SoCloverAI"
	"github.com/ForrestTrepte/SoCloverAI/config"
	"github.com/ForrestTrepte/SoCloverAI/generate"
	"github.com/ForrestTrepte/SoCloverAI/logging"
	"github.com/ForrestTrepte/SoCloverAI/results"
	"github.com/ForrestTrepte/SoCloverAI/types"
	"go.uber.org/zap"
)

var version = "dev"

const defaultConfigPath = "config.yaml"

func main() {
	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}
	command := os.Args[1]
	switch command {
	case "near":
		runNear()
	case "generate":
		runGenerate()
	case "words":
		runWords()
	case "summary":
		runSummary()
	case "version", "--version", "-v":
		fmt.Printf("soclover version %s\n", version)
	case "help", "--help", "-h":
		printUsage()
	default:
		fmt.Printf("Unknown command: %s\n", command)
		printUsage()
		os.Exit(1)
	}
}

func printUsage() {
	fmt.Println(`Usage: soclover <command> [flags]

Commands:
  near      print embedding search clues for word pairs (near -config c.yaml apple/tree)
  generate  run every configured method over word pairs and save the results
  words     print the most common vocabulary words
  summary   print score percentiles of rated results, adding unrated clues to the evaluations file
  version   print the version`)
}

// setup loads the config and builds a logger.
func setup(fs *flag.FlagSet) (*config.Config, *zap.Logger) {
	configPath := fs.String("config", defaultConfigPath, "config file path")
	debug := fs.Bool("debug", false, "enable debug logging")
	_ = fs.Parse(os.Args[2:])

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Printf("Failed to load config: %v\n", err)
		os.Exit(1)
	}
	logger, err := logging.NewLogger(cfg.Debug || *debug)
	if err != nil {
		fmt.Printf("Failed to create logger: %v\n", err)
		os.Exit(1)
	}
	logger.Debug("config loaded", zap.String("config_path", *configPath))
	return cfg, logger
}

func signalContext() (context.Context, context.CancelFunc) {
	return signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
}

func parsePairs(args []string) ([]types.Pair, error) {
	var pairs []types.Pair
	for _, arg := range args {
		for _, p := range strings.Split(arg, ",") {
			words := strings.Split(strings.TrimSpace(p), "/")
			if len(words) != 2 || words[0] == "" || words[1] == "" {
				return nil, fmt.Errorf("invalid pair %q, expected word0/word1", p)
			}
			pairs = append(pairs, types.Pair{words[0], words[1]})
		}
	}
	return pairs, nil
}

func runNear() {
	fs := flag.NewFlagSet("near", flag.ExitOnError)
	limit := fs.Int("n", 10, "number of clues to print per pair")
	cfg, logger := setup(fs)
	defer logger.Sync()

	pairs, err := parsePairs(fs.Args())
	if err != nil || len(pairs) == 0 {
		fmt.Println("near needs at least one word0/word1 pair")
		os.Exit(1)
	}

	ctx, cancel := signalContext()
	defer cancel()

	engine, err := socloverai.NewFromConfig(ctx, cfg, logger, false)
	if err != nil {
		logger.Fatal("Failed to initialize engine", zap.Error(err))
	}
	defer engine.Close()

	for _, pair := range pairs {
		clues, err := engine.FindNearPair(ctx, pair[0], pair[1])
		if err != nil {
			logger.Fatal("Search failed", zap.String("word0", pair[0]), zap.String("word1", pair[1]), zap.Error(err))
		}
		fmt.Printf("%s %s -> %s\n", pair[0], pair[1], strings.Join(clues[:min(*limit, len(clues))], ", "))
	}
	fmt.Print(engine.Accountant().Summary())
}

func runGenerate() {
	fs := flag.NewFlagSet("generate", flag.ExitOnError)
	random := fs.Int("random", 10, "number of random pairs drawn from the common words when no pairs are given")
	pool := fs.Int("pool", 2000, "number of common words random pairs are drawn from")
	seed := fs.Uint64("seed", 0x436c6f766572, "random pair seed")
	methodsFlag := fs.String("methods", "", "comma-separated method names (default from config)")
	cfg, logger := setup(fs)
	defer logger.Sync()

	ctx, cancel := signalContext()
	defer cancel()

	engine, err := socloverai.NewFromConfig(ctx, cfg, logger, true)
	if err != nil {
		logger.Fatal("Failed to initialize engine", zap.Error(err))
	}
	defer engine.Close()

	pairs, err := parsePairs(fs.Args())
	if err != nil {
		logger.Fatal("Invalid pairs", zap.Error(err))
	}
	if len(pairs) == 0 {
		words, err := engine.CommonWords(ctx, *pool)
		if err != nil {
			logger.Fatal("Failed to load common words", zap.Error(err))
		}
		pairs = randomPairs(words, *random, *seed)
	}

	names := cfg.Generation.Methods
	if *methodsFlag != "" {
		names = strings.Split(*methodsFlag, ",")
	}
	methods, err := engine.Methods(names, cfg.Generation.Prompts)
	if err != nil {
		logger.Fatal("Invalid methods", zap.Error(err))
	}

	res, err := engine.Generate(ctx, generate.Sweep{
		Methods:      methods,
		Temperatures: cfg.Generation.Temperatures,
		Trials:       cfg.Generation.Trials,
		Pairs:        pairs,
	}, cfg.Generation.Concurrency)
	if err != nil {
		logger.Fatal("Generation failed", zap.Error(err))
	}

	if err := os.MkdirAll(filepath.Dir(cfg.Storage.ResultsPath), 0755); err != nil {
		logger.Fatal("Failed to create results directory", zap.Error(err))
	}
	if err := res.Save(cfg.Storage.ResultsPath); err != nil {
		logger.Fatal("Failed to save results", zap.Error(err))
	}
	logger.Info("results saved", zap.String("path", cfg.Storage.ResultsPath), zap.Int("configurations", len(res.Configurations)))
}

func randomPairs(words []string, n int, seed uint64) []types.Pair {
	if len(words) < 2 {
		return nil
	}
	r := rand.New(rand.NewPCG(seed, seed))
	pairs := make([]types.Pair, n)
	for i := range pairs {
		a := r.IntN(len(words))
		b := r.IntN(len(words) - 1)
		if b >= a {
			b++
		}
		pairs[i] = types.Pair{words[a], words[b]}
	}
	return pairs
}

func runWords() {
	fs := flag.NewFlagSet("words", flag.ExitOnError)
	n := fs.Int("n", 100, "number of words")
	cfg, logger := setup(fs)
	defer logger.Sync()

	ctx, cancel := signalContext()
	defer cancel()

	engine, err := socloverai.NewFromConfig(ctx, cfg, logger, false)
	if err != nil {
		logger.Fatal("Failed to initialize engine", zap.Error(err))
	}
	defer engine.Close()

	words, err := engine.CommonWords(ctx, *n)
	if err != nil {
		logger.Fatal("Failed to load words", zap.Error(err))
	}
	for i, w := range words {
		fmt.Printf("%6d %s\n", i+1, w)
	}
}

func runSummary() {
	fs := flag.NewFlagSet("summary", flag.ExitOnError)
	evaluationsPath := fs.String("evaluations", "evaluations.json", "evaluations file; unrated clues are added to it as stubs")
	cfg, logger := setup(fs)
	defer logger.Sync()

	res, err := results.Load(cfg.Storage.ResultsPath)
	if err != nil {
		logger.Fatal("Failed to load results", zap.Error(err))
	}
	pending, err := evaluate(res, *evaluationsPath)
	if err != nil {
		logger.Fatal("Failed to update evaluations", zap.Error(err))
	}
	if len(pending) > 0 {
		fmt.Printf("%d clues need a rating; fill in the null ratings in %s and run summary again:\n", len(pending), *evaluationsPath)
		for _, k := range pending {
			fmt.Printf("  %s %s -> %s\n", k.Word0, k.Word1, k.Clue)
		}
		os.Exit(1)
	}

	fmt.Println(results.SummaryHeader())
	for _, c := range res.Configurations {
		fmt.Println(c.Summary())
	}
}

// evaluate applies the ratings in the evaluations file to res. Clues without
// a rating are written back to the file as stubs and returned.
func evaluate(res *results.Results, path string) ([]results.EvaluationKey, error) {
	evals, err := results.LoadEvaluations(path)
	if err != nil {
		return nil, err
	}
	if pending := evals.AddPending(res); len(pending) > 0 {
		return pending, evals.Save(path)
	}
	res.ApplyRatings(evals.Ratings())
	return nil, nil
}
