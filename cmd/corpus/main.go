// Copyright 2026 Stratum Systems
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package main

import (
	"fmt"
	"log"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/urfave/cli/v2"

	corpus "github.com/stratumhq/corpus"
	"github.com/stratumhq/corpus/ai"
	"github.com/stratumhq/corpus/config"
	"github.com/stratumhq/corpus/core"
	"github.com/stratumhq/corpus/ingest"
	"github.com/stratumhq/corpus/retrieval"
)

func main() {
	app := &cli.App{
		Name:  "corpus",
		Usage: "Multi-tenant retrieval core for grounded question answering",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "log-level",
				Aliases: []string{"l"},
				Usage:   "Set logging level (debug, info, warn, error)",
				Value:   "info",
			},
			&cli.StringFlag{
				Name:    "config",
				Aliases: []string{"c"},
				Usage:   "Path to YAML configuration file",
			},
			&cli.StringFlag{
				Name:    "data",
				Aliases: []string{"d"},
				Usage:   "Data directory (overrides the config file)",
			},
		},
		Before: setupLogger,
		Commands: []*cli.Command{
			{
				Name:  "tenant",
				Usage: "Manage tenants",
				Subcommands: []*cli.Command{
					{
						Name:   "create",
						Usage:  "Create a tenant",
						Action: tenantCreateCommand,
						Flags: []cli.Flag{
							&cli.StringFlag{
								Name:     "name",
								Usage:    "Tenant name",
								Required: true,
							},
							&cli.StringFlag{
								Name:  "description",
								Usage: "Tenant description",
							},
							&cli.StringFlag{
								Name:  "system-prompt",
								Usage: "System prompt used for this tenant's generation",
							},
							&cli.StringFlag{
								Name:  "embedding-model",
								Usage: "Embedding model pinned to this tenant",
								Value: "nomic-embed-text",
							},
						},
					},
					{
						Name:   "list",
						Usage:  "List all tenants",
						Action: tenantListCommand,
					},
					{
						Name:      "delete",
						Usage:     "Mark a tenant deleted and schedule its purge",
						Action:    tenantDeleteCommand,
						ArgsUsage: "<tenant-id>",
					},
				},
			},
			{
				Name:  "key",
				Usage: "Manage API keys",
				Subcommands: []*cli.Command{
					{
						Name:      "issue",
						Usage:     "Issue an API key for a tenant (shown once, never stored)",
						Action:    keyIssueCommand,
						ArgsUsage: "<tenant-id>",
					},
				},
			},
			{
				Name:      "ingest",
				Usage:     "Ingest documents for a tenant",
				Action:    ingestCommand,
				ArgsUsage: "<file>...",
				Flags:     []cli.Flag{tenantFlag()},
			},
			{
				Name:      "docs",
				Usage:     "List a tenant's documents",
				Action:    docsCommand,
				Flags:     []cli.Flag{tenantFlag()},
			},
			{
				Name:      "delete-doc",
				Usage:     "Mark a document deleted and schedule its purge",
				Action:    deleteDocCommand,
				ArgsUsage: "<document-id>",
				Flags:     []cli.Flag{tenantFlag()},
			},
			{
				Name:      "query",
				Usage:     "Retrieve context for a query without generation",
				Action:    queryCommand,
				ArgsUsage: "<query>",
				Flags:     []cli.Flag{tenantFlag()},
			},
			{
				Name:      "chat",
				Usage:     "Answer a question grounded in the tenant's documents",
				Action:    chatCommand,
				ArgsUsage: "<question>",
				Flags:     []cli.Flag{tenantFlag()},
			},
			{
				Name:   "sweep",
				Usage:  "Run one reconciliation pass over marked tenants and documents",
				Action: sweepCommand,
			},
		},
	}

	if err := app.Run(os.Args); err != nil {
		log.Fatal(err)
	}
}

func tenantFlag() cli.Flag {
	return &cli.StringFlag{
		Name:     "tenant",
		Aliases:  []string{"t"},
		Usage:    "Tenant ID",
		Required: true,
	}
}

// loadConfig reads the YAML file named by --config, or falls back to
// the built-in defaults. The --data flag wins over both.
func loadConfig(c *cli.Context) (*config.Config, error) {
	cfg := config.Default()
	if path := c.String("config"); path != "" {
		loaded, err := config.Load(path)
		if err != nil {
			return nil, err
		}
		cfg = loaded
	}
	if dir := c.String("data"); dir != "" {
		cfg.DataDir = dir
	}
	return cfg, nil
}

func openEngine(c *cli.Context) (*corpus.Engine, error) {
	cfg, err := loadConfig(c)
	if err != nil {
		return nil, err
	}

	opts := []ai.ConfigOption{
		ai.WithEmbeddingHost(cfg.AI.EmbeddingHost),
		ai.WithEmbeddingModel(cfg.AI.EmbeddingModel),
	}
	if cfg.AI.RerankerHost != "" {
		opts = append(opts, ai.WithRerankerHost(cfg.AI.RerankerHost))
	}
	if cfg.AI.RerankerModel != "" {
		opts = append(opts, ai.WithRerankerModel(cfg.AI.RerankerModel))
	}
	if cfg.AI.ChatHost != "" {
		opts = append(opts, ai.WithChatHost(cfg.AI.ChatHost))
	}
	if cfg.AI.ChatModel != "" {
		opts = append(opts, ai.WithChatModel(cfg.AI.ChatModel))
	}
	aiConfig := ai.NewConfig(opts...)
	if err := aiConfig.Validate(); err != nil {
		return nil, fmt.Errorf("invalid AI configuration: %w", err)
	}

	engineOpts := []corpus.EngineOption{
		corpus.WithAIConfig(aiConfig),
		corpus.WithRetrievalConfig(retrievalConfig(cfg)),
	}
	if cfg.Ingest.Tokenizer != "" {
		tok, err := ingest.NewTokenizer(cfg.Ingest.Tokenizer, cfg.Ingest.Encoding)
		if err != nil {
			return nil, fmt.Errorf("building tokenizer: %w", err)
		}
		engineOpts = append(engineOpts, corpus.WithTokenizer(tok))
	}

	return corpus.NewEngine(cfg.DataDir, engineOpts...)
}

// retrievalConfig overlays the nonzero file settings on the defaults.
func retrievalConfig(cfg *config.Config) retrieval.Config {
	rc := retrieval.DefaultConfig()
	if cfg.Retrieval.VectorK > 0 {
		rc.VectorK = cfg.Retrieval.VectorK
	}
	if cfg.Retrieval.KeywordK > 0 {
		rc.KeywordK = cfg.Retrieval.KeywordK
	}
	if cfg.Retrieval.VectorWeight > 0 || cfg.Retrieval.KeywordWeight > 0 {
		rc.VectorWeight = cfg.Retrieval.VectorWeight
		rc.KeywordWeight = cfg.Retrieval.KeywordWeight
	}
	if cfg.Retrieval.RerankTopK > 0 {
		rc.RerankTopK = cfg.Retrieval.RerankTopK
	}
	if cfg.Retrieval.MinScore > 0 {
		rc.MinScore = cfg.Retrieval.MinScore
	}
	if cfg.Retrieval.BudgetTokens > 0 {
		rc.BudgetTokens = cfg.Retrieval.BudgetTokens
	}
	return rc
}

func tenantCreateCommand(c *cli.Context) error {
	engine, err := openEngine(c)
	if err != nil {
		return err
	}
	defer engine.Close()

	created, err := engine.CreateTenant(c.Context, &core.Tenant{
		Name:           c.String("name"),
		Description:    c.String("description"),
		SystemPrompt:   c.String("system-prompt"),
		EmbeddingModel: c.String("embedding-model"),
	})
	if err != nil {
		return fmt.Errorf("creating tenant: %w", err)
	}

	fmt.Printf("%s\t%s\n", created.Id, created.Name)
	return nil
}

func tenantListCommand(c *cli.Context) error {
	engine, err := openEngine(c)
	if err != nil {
		return err
	}
	defer engine.Close()

	tenants, err := engine.ListTenants(c.Context)
	if err != nil {
		return fmt.Errorf("listing tenants: %w", err)
	}

	for _, t := range tenants {
		fmt.Printf("%s\t%s\t%s\n", t.Id, t.State, t.Name)
	}
	return nil
}

func tenantDeleteCommand(c *cli.Context) error {
	if c.NArg() != 1 {
		return fmt.Errorf("expected exactly one tenant ID")
	}
	engine, err := openEngine(c)
	if err != nil {
		return err
	}
	defer engine.Close()

	id := core.TenantID(c.Args().First())
	if err := engine.DeleteTenant(c.Context, id); err != nil {
		return fmt.Errorf("deleting tenant: %w", err)
	}

	fmt.Fprintf(os.Stderr, "Tenant %s marked for deletion; run sweep to confirm the purge\n", id)
	return nil
}

func keyIssueCommand(c *cli.Context) error {
	if c.NArg() != 1 {
		return fmt.Errorf("expected exactly one tenant ID")
	}
	engine, err := openEngine(c)
	if err != nil {
		return err
	}
	defer engine.Close()

	rawKey, err := engine.IssueKey(c.Context, core.TenantID(c.Args().First()))
	if err != nil {
		return fmt.Errorf("issuing key: %w", err)
	}

	fmt.Fprintln(os.Stderr, "Store this key now; it cannot be recovered later.")
	fmt.Println(rawKey)
	return nil
}

func ingestCommand(c *cli.Context) error {
	if c.NArg() == 0 {
		return fmt.Errorf("expected at least one file to ingest")
	}
	engine, err := openEngine(c)
	if err != nil {
		return err
	}
	defer engine.Close()

	id := core.TenantID(c.String("tenant"))
	for _, path := range c.Args().Slice() {
		data, err := os.ReadFile(path)
		if err != nil {
			return fmt.Errorf("reading %s: %w", path, err)
		}
		doc, err := engine.Ingest(c.Context, id, filepath.Base(path), string(data))
		if err != nil {
			return fmt.Errorf("ingesting %s: %w", path, err)
		}
		fmt.Printf("%s\t%s\t%d chunks\n", doc.Id, doc.Name, doc.ChunkCount)
	}
	return nil
}

func docsCommand(c *cli.Context) error {
	engine, err := openEngine(c)
	if err != nil {
		return err
	}
	defer engine.Close()

	docs, err := engine.ListDocuments(c.Context, core.TenantID(c.String("tenant")))
	if err != nil {
		return fmt.Errorf("listing documents: %w", err)
	}

	for _, doc := range docs {
		fmt.Printf("%s\t%s\t%s\t%d chunks\n", doc.Id, doc.State, doc.Name, doc.ChunkCount)
	}
	return nil
}

func deleteDocCommand(c *cli.Context) error {
	if c.NArg() != 1 {
		return fmt.Errorf("expected exactly one document ID")
	}
	engine, err := openEngine(c)
	if err != nil {
		return err
	}
	defer engine.Close()

	id := core.TenantID(c.String("tenant"))
	docID := core.DocumentID(c.Args().First())
	if err := engine.DeleteDocument(c.Context, id, docID); err != nil {
		return fmt.Errorf("deleting document: %w", err)
	}

	fmt.Fprintf(os.Stderr, "Document %s marked for deletion; run sweep to confirm the purge\n", docID)
	return nil
}

func queryCommand(c *cli.Context) error {
	if c.NArg() == 0 {
		return fmt.Errorf("expected a query")
	}
	engine, err := openEngine(c)
	if err != nil {
		return err
	}
	defer engine.Close()

	query := strings.Join(c.Args().Slice(), " ")
	result, err := engine.Retrieve(c.Context, core.TenantID(c.String("tenant")), query)
	if err != nil {
		return fmt.Errorf("retrieving: %w", err)
	}

	if result.Degraded {
		fmt.Fprintf(os.Stderr, "Warning: degraded retrieval (%s)\n", result.DegradedReason)
	}
	if result.Insufficient {
		fmt.Fprintln(os.Stderr, "No sufficiently relevant context found.")
		return nil
	}

	for _, entry := range result.Context.Entries {
		fmt.Printf("--- %s #%d score=%.3f\n", entry.Document, entry.Ordinal, entry.Score)
		if entry.Section != "" {
			fmt.Printf("[%s]\n", entry.Section)
		}
		fmt.Println(entry.Text)
	}
	fmt.Fprintf(os.Stderr, "%d entries, %d tokens\n",
		len(result.Context.Entries), result.Context.TotalTokens)
	return nil
}

func chatCommand(c *cli.Context) error {
	if c.NArg() == 0 {
		return fmt.Errorf("expected a question")
	}
	engine, err := openEngine(c)
	if err != nil {
		return err
	}
	defer engine.Close()

	query := strings.Join(c.Args().Slice(), " ")
	answer, result, err := engine.Chat(c.Context, core.TenantID(c.String("tenant")), query)
	if err != nil {
		return fmt.Errorf("answering: %w", err)
	}

	fmt.Println(answer)
	if !result.Insufficient {
		fmt.Fprintln(os.Stderr, "\nSources:")
		for _, entry := range result.Context.Entries {
			fmt.Fprintf(os.Stderr, "  %s #%d (%.3f)\n", entry.Document, entry.Ordinal, entry.Score)
		}
	}
	return nil
}

func sweepCommand(c *cli.Context) error {
	engine, err := openEngine(c)
	if err != nil {
		return err
	}
	defer engine.Close()

	report, err := engine.Sweep(c.Context)
	if err != nil {
		return fmt.Errorf("sweeping: %w", err)
	}

	fmt.Fprintf(os.Stderr, "Tenants purged: %d\n", report.TenantsPurged)
	fmt.Fprintf(os.Stderr, "Documents purged: %d\n", report.DocumentsPurged)
	fmt.Fprintf(os.Stderr, "Failures: %d\n", report.Failures)
	if report.Failures > 0 {
		return fmt.Errorf("sweep finished with %d failures", report.Failures)
	}
	return nil
}

func setupLogger(c *cli.Context) error {
	levelStr := strings.ToLower(c.String("log-level"))

	var level slog.Level
	switch levelStr {
	case "debug":
		level = slog.LevelDebug
	case "info":
		level = slog.LevelInfo
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	default:
		return fmt.Errorf("invalid log level %q: must be one of debug, info, warn, error", levelStr)
	}

	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: level,
	}))
	slog.SetDefault(logger)

	return nil
}
