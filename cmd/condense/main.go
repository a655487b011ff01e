package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/hrygo/condense/ai/llm"
	"github.com/hrygo/condense/internal/profile"
	"github.com/hrygo/condense/internal/version"
	"github.com/hrygo/condense/job"
	"github.com/hrygo/condense/server"
	"github.com/hrygo/condense/summarize"
)

var rootCmd = &cobra.Command{
	Use:   "condense",
	Short: `A chunked-document summarization service. Split, summarize, fold and merge long documents with an LLM.`,
	PersistentPreRunE: func(_ *cobra.Command, _ []string) error {
		// Try to load .env file from current directory (ignore error if file doesn't exist)
		_ = godotenv.Load()
		return nil
	},
	Run: func(_ *cobra.Command, _ []string) {
		instanceProfile := &profile.Profile{
			Mode:        viper.GetString("mode"),
			Addr:        viper.GetString("addr"),
			Port:        viper.GetInt("port"),
			LLMProvider: viper.GetString("llm-provider"),
			LLMAPIKey:   viper.GetString("llm-api-key"),
			LLMBaseURL:  viper.GetString("llm-base-url"),
			LLMModel:    viper.GetString("llm-model"),
			LLMTimeout:  viper.GetInt("llm-timeout"),
			Encoding:    viper.GetString("encoding"),
			JobTTL:      viper.GetDuration("job-ttl"),
			Version:     version.GetCurrentVersion(viper.GetString("mode")),
		}
		instanceProfile.FromEnv()
		if err := instanceProfile.Validate(); err != nil {
			panic(err)
		}

		ctx, cancel := context.WithCancel(context.Background())

		llmService, err := llm.NewService(&llm.Config{
			Provider: instanceProfile.LLMProvider,
			Model:    instanceProfile.LLMModel,
			APIKey:   instanceProfile.LLMAPIKey,
			BaseURL:  instanceProfile.LLMBaseURL,
			Timeout:  instanceProfile.LLMTimeout,
		})
		if err != nil {
			cancel()
			slog.Error("failed to create llm service", "error", err)
			return
		}

		store := job.NewMemoryStore(job.MemoryStoreConfig{TTL: instanceProfile.JobTTL})
		engine := summarize.NewEngine(store, llmService, instanceProfile.Encoding)

		s, err := server.NewServer(ctx, instanceProfile, engine, store)
		if err != nil {
			cancel()
			store.Close()
			slog.Error("failed to create server", "error", err)
			return
		}

		c := make(chan os.Signal, 1)
		// Trigger graceful shutdown on SIGINT or SIGTERM.
		signal.Notify(c, syscall.SIGINT, syscall.SIGTERM)

		go func() {
			<-c
			s.Shutdown(ctx)
			store.Close()
			cancel()
		}()

		printGreetings(instanceProfile)

		if err := s.Start(ctx); err != nil {
			if !errors.Is(err, http.ErrServerClosed) {
				slog.Error("failed to start server", "error", err)
				cancel()
			}
		}

		// Wait for CTRL-C.
		<-ctx.Done()
	},
}

func init() {
	viper.SetDefault("mode", "dev")
	viper.SetDefault("port", 28090)
	viper.SetDefault("encoding", "cl100k_base")
	viper.SetDefault("job-ttl", time.Hour)

	rootCmd.PersistentFlags().String("mode", "dev", `mode of server, can be "prod" or "dev" or "demo"`)
	rootCmd.PersistentFlags().String("addr", "", "address of server")
	rootCmd.PersistentFlags().Int("port", 28090, "port of server")
	rootCmd.PersistentFlags().String("llm-provider", "", "LLM provider (openai, deepseek, siliconflow, dashscope, openrouter, ollama)")
	rootCmd.PersistentFlags().String("llm-api-key", "", "LLM API key")
	rootCmd.PersistentFlags().String("llm-base-url", "", "LLM base URL, overrides the provider default")
	rootCmd.PersistentFlags().String("llm-model", "", "LLM model name")
	rootCmd.PersistentFlags().Int("llm-timeout", 0, "LLM request timeout in seconds")
	rootCmd.PersistentFlags().String("encoding", "cl100k_base", "default tokenizer encoding for chunk sizing")
	rootCmd.PersistentFlags().Duration("job-ttl", time.Hour, "evict finished jobs after this duration, 0 keeps them forever")

	for _, flag := range []string{"mode", "addr", "port", "llm-provider", "llm-api-key", "llm-base-url", "llm-model", "llm-timeout", "encoding", "job-ttl"} {
		if err := viper.BindPFlag(flag, rootCmd.PersistentFlags().Lookup(flag)); err != nil {
			panic(err)
		}
	}

	viper.SetEnvPrefix("condense")
	viper.AutomaticEnv()
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
}

func printGreetings(profile *profile.Profile) {
	fmt.Printf("Condense %s started successfully!\n", profile.Version)

	if profile.IsDev() {
		fmt.Fprint(os.Stderr, "Development mode is enabled\n")
	}

	fmt.Printf("Mode: %s\n", profile.Mode)
	fmt.Printf("LLM provider: %s, model: %s\n", profile.LLMProvider, profile.LLMModel)
	if len(profile.Addr) == 0 {
		fmt.Printf("Server running on port %d\n", profile.Port)
	} else {
		fmt.Printf("Server running on %s:%d\n", profile.Addr, profile.Port)
	}
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		panic(err)
	}
}
