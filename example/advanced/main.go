package main

import (
	"context"
	"fmt"
	"log"
	"os"

	"github.com/google/uuid"

	"github.com/docuquery/docuquery"
	"github.com/docuquery/docuquery/helper"
	"github.com/docuquery/docuquery/llm"
	"github.com/docuquery/docuquery/model"
)

// Demonstrates all four search modes, metadata filters, the entity
// co-occurrence graph and LLM answer generation over one PDF.
//
// Set OLLAMA_MODEL to enable the answer generation step, e.g.
// OLLAMA_MODEL=llama3 go run ./example/advanced report.pdf
func main() {
	if len(os.Args) < 2 {
		log.Fatalf("usage: %s <pdf-file>", os.Args[0])
	}
	pdfPath := os.Args[1]

	teardown, dbPort, err := helper.MustStartPostgresContainer()
	if err != nil {
		log.Fatalf("Failed to start PostgreSQL container: %v", err)
	}
	defer teardown(context.Background())

	dbConfig := &helper.DatabaseConfiguration{
		Host:     "localhost",
		Port:     dbPort,
		Database: "database",
		Username: "user",
		Password: "password",
		Schema:   "public",
		SSLMode:  "disable",
	}

	dq, err := docuquery.NewDocuQuery(dbConfig, model.DefaultPipelineConfig())
	if err != nil {
		log.Fatalf("Failed to create docuquery: %v", err)
	}
	defer dq.Close()

	ctx := context.Background()

	fmt.Printf("Ingesting %s...\n", pdfPath)
	graph, err := dq.IngestPDF(ctx, pdfPath)
	if err != nil {
		log.Fatalf("Failed to ingest PDF: %v", err)
	}
	fmt.Printf("Document '%s' (ID: %s): %d chunks, %d entities\n",
		graph.Document.Title, graph.Document.ID, len(graph.Chunks), len(graph.Entities))

	queryText := "What are the key findings?"

	fmt.Println("\n=== 1. Fulltext Search ===")
	search(ctx, dq, &model.SearchRequest{
		Query: queryText,
		Mode:  model.SearchModeFulltext,
		Limit: 3,
	})

	fmt.Println("\n=== 2. Vector Search ===")
	search(ctx, dq, &model.SearchRequest{
		Query: queryText,
		Mode:  model.SearchModeVector,
		Limit: 3,
	})

	fmt.Println("\n=== 3. Hybrid Search (Custom Weights) ===")
	vectorWeight, textWeight := 0.8, 0.2
	search(ctx, dq, &model.SearchRequest{
		Query:        queryText,
		Mode:         model.SearchModeHybrid,
		Limit:        3,
		VectorWeight: &vectorWeight,
		TextWeight:   &textWeight,
	})

	fmt.Println("\n=== 4. Hybrid Search With Filters ===")
	minPage := 2
	search(ctx, dq, &model.SearchRequest{
		Query: queryText,
		Mode:  model.SearchModeHybrid,
		Limit: 3,
		Filters: &model.SearchFilters{
			MinPage:      &minPage,
			DocumentType: "pdf",
		},
	})

	fmt.Println("\n=== 5. Document Chat ===")
	search(ctx, dq, &model.SearchRequest{
		Query:       "show me the tables with the data",
		Mode:        model.SearchModeDocumentChat,
		DocumentIDs: []uuid.UUID{graph.Document.ID},
		Limit:       3,
	})

	fmt.Println("\n=== 6. Entity Co-Occurrence Graph ===")
	if len(graph.Entities) > 0 {
		source := graph.Entities[0]
		fmt.Printf("Traversing from entity '%s' (%s)...\n", source.Name, source.Type)

		related, err := dq.RelatedEntities(ctx, graph.Document.ID, source.ID, 2)
		if err != nil {
			log.Fatalf("Failed to traverse entity graph: %v", err)
		}
		for _, result := range related[1:] {
			fmt.Printf("  - Distance %d: %s (%s)\n", result.Distance, result.Entity.Name, result.Entity.Type)
		}
	} else {
		fmt.Println("No entities extracted, skipping traversal")
	}

	if ollamaModel := os.Getenv("OLLAMA_MODEL"); ollamaModel != "" {
		fmt.Println("\n=== 7. Answer Generation ===")
		err = dq.UseLLM(llm.Config{Provider: "ollama", Model: ollamaModel})
		if err != nil {
			log.Fatalf("Failed to configure LLM: %v", err)
		}

		answer, _, err := dq.Ask(ctx, queryText, []uuid.UUID{graph.Document.ID})
		if err != nil {
			log.Fatalf("Failed to generate answer: %v", err)
		}
		fmt.Printf("Q: %s\nA: %s\n", queryText, answer)
	}

	fmt.Println("\nAdvanced example completed successfully!")
}

func search(ctx context.Context, dq *docuquery.DocuQuery, req *model.SearchRequest) {
	response, err := dq.Search(ctx, req)
	if err != nil {
		log.Fatalf("Failed to search: %v", err)
	}
	if response.Error != "" {
		log.Fatalf("Search failed: %s", response.Error)
	}

	fmt.Printf("Found %d results (%.3fs):\n", response.Total, response.ExecutionTime)
	for i, result := range response.Results {
		fmt.Printf("\n  Result %d:\n", i+1)
		fmt.Printf("    Score: %.4f\n", result.Score)
		fmt.Printf("    Page: %d\n", result.PageNumber)
		fmt.Printf("    Content: %.120s\n", result.Content)
	}
}
