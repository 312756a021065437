package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/joho/godotenv"

	"videoqa/internal/config"
	"videoqa/internal/domain"
	"videoqa/internal/embedding"
	"videoqa/internal/ocr"
	"videoqa/internal/service"
	"videoqa/internal/tui"
	"videoqa/internal/vectorstore"
)

func main() {
	_ = godotenv.Load()

	var (
		cfgPath   string
		query     string
		imagePath string
		topK      int
	)
	flag.StringVar(&cfgPath, "config", "", "Path to YAML config file (optional; uses ~/.config/videoqa/config.yaml if not provided)")
	flag.StringVar(&query, "query", "", "Run a single query and print the results instead of starting the TUI")
	flag.StringVar(&imagePath, "image", "", "Run OCR over an image file and search with the extracted text")
	flag.IntVar(&topK, "k", 0, "Number of chunks to retrieve (default from config)")
	flag.Parse()

	var cfg *config.AppConfig
	var err error
	if cfgPath == "" {
		cfg, _, err = config.LoadDefault()
	} else {
		cfg, err = config.Load(cfgPath)
	}
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}
	if topK <= 0 {
		topK = cfg.Search.TopK
	}

	// Assemble components. Both the embedder and the store resolve their
	// mode here, before any query is served.
	ctx := context.Background()

	provider := embedding.NewProvider(ctx, embedding.Config{
		Model:       cfg.Embedder.Model,
		BaseURL:     cfg.Embedder.BaseURL,
		APIKeyEnv:   cfg.Embedder.APIKeyEnv,
		Timeout:     time.Duration(cfg.Embedder.TimeoutSecs) * time.Second,
		FallbackDim: cfg.Embedder.FallbackDim,
	})

	store, err := vectorstore.New(vectorstore.Config{
		Path:       cfg.VectorStore.Path,
		Collection: cfg.VectorStore.Collection,
		CSVPath:    cfg.VectorStore.CSVPath,
	})
	if err != nil {
		log.Fatalf("vector store init failed: %v", err)
	}

	var extractor domain.TextExtractor
	client, err := ocr.NewClient(ocr.ClientConfig{
		APIKey:            os.Getenv(cfg.OCR.APIKeyEnv),
		Engine:            cfg.OCR.Engine,
		Language:          cfg.OCR.Language,
		DetectOrientation: *cfg.OCR.DetectOrientation,
		Timeout:           time.Duration(cfg.OCR.TimeoutSecs * float64(time.Second)),
	})
	if err != nil {
		log.Printf("ocr disabled: %v", err)
	} else {
		extractor = ocr.New(client, ocr.Options{
			Retries:    cfg.OCR.Retries,
			RetryDelay: time.Duration(cfg.OCR.RetryDelaySecs * float64(time.Second)),
			MaxElapsed: time.Duration(cfg.OCR.MaxElapsedSecs * float64(time.Second)),
		})
	}

	engine := service.New(provider, store, extractor, cfg.Search.TopK)

	switch {
	case imagePath != "":
		image, err := os.ReadFile(imagePath)
		if err != nil {
			log.Fatalf("failed to read image: %v", err)
		}
		answer, err := engine.AskImage(ctx, image, query, topK)
		if err != nil {
			if ocr.IsTransient(err) {
				fmt.Fprintln(os.Stderr, "OCR service is busy, please try again:", err)
				os.Exit(1)
			}
			log.Fatalf("image query failed: %v", err)
		}
		fmt.Println("OCR text:", answer.OCRText)
		printResults(answer.Results)
	case query != "":
		answer, err := engine.Ask(ctx, query, topK)
		if err != nil {
			log.Fatalf("query failed: %v", err)
		}
		printResults(answer.Results)
	default:
		m := tui.New(engine, topK)
		if _, err := tea.NewProgram(m).Run(); err != nil {
			log.Fatal(err)
		}
	}
}

func printResults(results []domain.SearchResult) {
	if len(results) == 0 {
		fmt.Println("No matching chunks.")
		return
	}
	for i, r := range results {
		fmt.Printf("%d. [id=%s distance=%.4f] %s\n", i+1, r.ID, r.Distance, r.Text)
	}
}
