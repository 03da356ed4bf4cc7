package app

import (
	"errors"
	"flag"
	"fmt"
	"os"
	"time"

	"horse.fit/dealsweep/internal/cli"
	"horse.fit/dealsweep/internal/db"
	"horse.fit/dealsweep/internal/dedup"
	"horse.fit/dealsweep/internal/langdetect"
	"horse.fit/dealsweep/internal/reader"
	payloadschema "horse.fit/dealsweep/schema"
)

func runImport(args []string) int {
	fs := flag.NewFlagSet("import", flag.ContinueOnError)
	fs.SetOutput(os.Stderr)

	envLoader := cli.AddEnvFlag(fs, ".env", "Path to the .env file")
	timeout := fs.Duration("timeout", 60*time.Second, "Command timeout")
	validateOnly := fs.Bool("validate-only", false, "Validate files without inserting")
	fetchContent := fs.Bool("fetch-content", false, "Fetch readable body text for items without content")

	if err := fs.Parse(args); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return 0
		}
		return 2
	}
	if fs.NArg() == 0 {
		fmt.Fprintln(os.Stderr, "import requires at least one JSON file path")
		return 2
	}

	items := make([]*payloadschema.DealItem, 0, fs.NArg())
	for _, path := range fs.Args() {
		payload, err := os.ReadFile(path)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Failed to read %s: %v\n", path, err)
			return 1
		}
		item, err := payloadschema.ValidateDealItemPayload(payload)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Validation failed for %s: %v\n", path, err)
			return 1
		}
		items = append(items, item)
	}

	if *validateOnly {
		fmt.Printf("Validated %d file(s)\n", len(items))
		return 0
	}

	ctx, cancel, _, pool, err := connectPool(*timeout, envLoader)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}
	defer cancel()
	defer pool.Close()

	store, err := db.NewArticleStore(pool)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}

	inserted := 0
	for i, item := range items {
		article := dealItemToArticle(item)
		if *fetchContent && article.Content == "" && article.SourceURL != "" {
			text, err := reader.FetchText(ctx, article.SourceURL, article.Title)
			if err != nil {
				fmt.Fprintf(os.Stderr, "Warning: content fetch failed for %s: %v\n", fs.Arg(i), err)
			} else {
				article.Content = text
				if article.Summary == "" {
					article.Summary = reader.Summarize(text, 280)
				}
			}
		}
		articleID, err := store.InsertArticle(ctx, article)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Failed to insert %s: %v\n", fs.Arg(i), err)
			return 1
		}
		inserted++
		fmt.Printf("Inserted article %d from %s\n", articleID, fs.Arg(i))
	}

	fmt.Printf("Imported %d article(s)\n", inserted)
	return 0
}

func dealItemToArticle(item *payloadschema.DealItem) dedup.Article {
	article := dedup.Article{
		Title:  item.Title,
		Source: item.Source,
	}
	if item.Summary != nil {
		article.Summary = *item.Summary
	}
	if item.Content != nil {
		article.Content = *item.Content
	}
	if item.SourceURL != nil {
		article.SourceURL = *item.SourceURL
	}
	if item.Category != nil {
		article.Category = *item.Category
	}
	if item.EngagementScore != nil {
		article.EngagementScore = *item.EngagementScore
	}
	if item.PublicationDate != nil {
		if parsed, err := time.Parse(time.RFC3339, *item.PublicationDate); err == nil {
			article.PublicationDate = parsed.UTC()
		}
	}

	declared := ""
	if item.Language != nil {
		declared = *item.Language
	}
	article.Language = langdetect.DetectWithFallback(article.Title, declared)

	return article
}
