package main

import (
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/yjcyxky/factotum/internal/cli"
	"github.com/yjcyxky/factotum/internal/dotgraph"
	"github.com/yjcyxky/factotum/internal/envfile"
	"github.com/yjcyxky/factotum/internal/factlog"
	"github.com/yjcyxky/factotum/internal/loader"
	"github.com/yjcyxky/factotum/internal/tagset"
)

var rootCmd = &cobra.Command{
	Use:   "factotum",
	Short: "Run a JSON job document as a DAG of shell tasks",
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		_ = godotenv.Load()
		return nil
	},
}

func init() {
	rootCmd.PersistentFlags().String("start", "", "name of the task to start from (default: every root)")
	rootCmd.PersistentFlags().StringSlice("env", nil, "KEY=VALUE binding for {{var}} rendering, repeatable")
	rootCmd.PersistentFlags().String("env-file", "", "path to a .env-style file merged under --env bindings")
	rootCmd.PersistentFlags().String("webhook", "", "http(s) URL to receive run/task events")
	rootCmd.PersistentFlags().StringSlice("tag", nil, "key,value pair attached to the run, repeatable")
	rootCmd.PersistentFlags().Int("max-stdouterr", 1<<20, "bytes of stdout/stderr captured per task before truncation")
	rootCmd.PersistentFlags().String("host", "", "refuse to run unless this machine's hostname or address matches (\"*\" disables the check)")
	rootCmd.PersistentFlags().Int("concurrency", 0, "maximum tasks dispatched concurrently within a level (0 = unbounded)")
	rootCmd.PersistentFlags().Int("webhook-retry-budget", 5, "maximum delivery retries per webhook event after the first attempt")
	rootCmd.PersistentFlags().Duration("webhook-max-wait", 60*time.Second, "ceiling on randomized webhook retry backoff")
	rootCmd.PersistentFlags().String("trace", "", "path to write the run's canonical post-run trace")

	for _, name := range []string{"start", "env", "env-file", "webhook", "tag", "max-stdouterr", "host", "concurrency", "webhook-retry-budget", "webhook-max-wait", "trace"} {
		if err := viper.BindPFlag(name, rootCmd.PersistentFlags().Lookup(name)); err != nil {
			panic(err)
		}
	}
	viper.SetEnvPrefix("factotum")
	viper.AutomaticEnv()
	viper.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))

	rootCmd.AddCommand(runCmd, validateCmd, dotCmd)
}

func envBindings() (map[string]string, error) {
	bindings := map[string]string{}
	for _, kv := range viper.GetStringSlice("env") {
		parts := strings.SplitN(kv, "=", 2)
		if len(parts) != 2 {
			return nil, fmt.Errorf("--env expects KEY=VALUE, got %q", kv)
		}
		bindings[parts[0]] = parts[1]
	}
	if path := viper.GetString("env-file"); path != "" {
		merged, err := envfile.Load(path, bindings)
		if err != nil {
			return nil, fmt.Errorf("load --env-file: %w", err)
		}
		bindings = merged
	}
	return bindings, nil
}

var runCmd = &cobra.Command{
	Use:   "run [job.json]",
	Short: "Execute a job document",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return runJob(args[0])
	},
}

var dryRunFlag bool

func init() {
	runCmd.Flags().BoolVar(&dryRunFlag, "dry-run", false, "simulate every task instead of spawning a subprocess")
}

var validateCmd = &cobra.Command{
	Use:   "validate [job.json]",
	Short: "Parse and plan a job document without running anything",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		raw, err := os.ReadFile(args[0])
		if err != nil {
			return err
		}
		env, err := envBindings()
		if err != nil {
			return err
		}
		summary, err := cli.Validate(raw, env, viper.GetString("start"))
		if err != nil {
			fmt.Fprintln(os.Stderr, err)
			os.Exit(cli.ExitLoadError)
		}
		fmt.Println(summary)
		os.Exit(cli.ExitSuccess)
		return nil
	},
}

var dotCmd = &cobra.Command{
	Use:   "dot [job.json]",
	Short: "Render a job document's dependency graph as DOT",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		raw, err := os.ReadFile(args[0])
		if err != nil {
			return err
		}
		env, err := envBindings()
		if err != nil {
			return err
		}
		j, _, err := loader.Load(raw, env)
		if err != nil {
			fmt.Fprintln(os.Stderr, err)
			os.Exit(cli.ExitLoadError)
		}
		fmt.Println(dotgraph.Render(j))
		return nil
	},
}

func runJob(path string) error {
	raw, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	env, err := envBindings()
	if err != nil {
		return err
	}
	tags := tagset.Parse(viper.GetStringSlice("tag"))

	logger, closer := factlog.New(".")
	defer closer()

	inv := cli.Invocation{
		JobDocument:        raw,
		Env:                env,
		DryRun:             dryRunFlag,
		Start:              viper.GetString("start"),
		WebhookURL:         viper.GetString("webhook"),
		Tags:               tags,
		MaxStdouterr:       viper.GetInt("max-stdouterr"),
		Host:               viper.GetString("host"),
		Concurrency:        viper.GetInt("concurrency"),
		WebhookRetryBudget: viper.GetInt("webhook-retry-budget"),
		WebhookMaxWait:     viper.GetDuration("webhook-max-wait"),
		TracePath:          viper.GetString("trace"),
	}

	result, err := cli.Execute(context.Background(), inv)
	if err != nil {
		logger.Error().Err(err).Msg("run failed")
		fmt.Fprintln(os.Stderr, err)
		os.Exit(cli.ExitOther)
	}
	fmt.Print(result.Summary)
	logger.Info().Int("exit_code", result.ExitCode).Msg("run finished")
	os.Exit(result.ExitCode)
	return nil
}

func exitCodeFromError(err error) int {
	return cli.ExitOther
}
