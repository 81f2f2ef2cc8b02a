package main

import (
	"context"
	"fmt"
	"log"
	"os"

	"github.com/docuquery/docuquery"
	"github.com/docuquery/docuquery/helper"
	"github.com/docuquery/docuquery/model"
)

func main() {
	if len(os.Args) < 2 {
		log.Fatalf("usage: %s <pdf-file>", os.Args[0])
	}
	pdfPath := os.Args[1]

	// Start a test PostgreSQL container
	teardown, dbPort, err := helper.MustStartPostgresContainer()
	if err != nil {
		log.Fatalf("Failed to start PostgreSQL container: %v", err)
	}
	defer teardown(context.Background())

	// Create database configuration using the container port
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

	// Parse, chunk, embed and store the PDF in one call
	fmt.Printf("Ingesting %s...\n", pdfPath)
	graph, err := dq.IngestPDF(context.Background(), pdfPath)
	if err != nil {
		log.Fatalf("Failed to ingest PDF: %v", err)
	}
	fmt.Printf("Document inserted with ID: %s\n", graph.Document.ID)
	fmt.Printf("Stored %d chunks, %d entities, %d relationships\n",
		len(graph.Chunks), len(graph.Entities), len(graph.Relationships))

	// Perform a hybrid search combining vector similarity and
	// PostgreSQL full text rank
	queryText := "What is this document about?"
	fmt.Printf("\nQuerying: %s\n", queryText)

	response, err := dq.Search(context.Background(), &model.SearchRequest{
		Query: queryText,
		Mode:  model.SearchModeHybrid,
		Limit: 5,
	})
	if err != nil {
		log.Fatalf("Failed to search: %v", err)
	}
	if response.Error != "" {
		log.Fatalf("Search failed: %s", response.Error)
	}

	// Display results
	fmt.Printf("\nFound %d results (%.3fs):\n", response.Total, response.ExecutionTime)
	for i, result := range response.Results {
		fmt.Printf("\n--- Result %d ---\n", i+1)
		fmt.Printf("Score: %.4f (vector: %.4f, text: %.4f)\n", result.Score, result.VectorSimilarity, result.TextRank)
		fmt.Printf("Page: %d\n", result.PageNumber)
		fmt.Printf("Content: %s\n", result.Content)
	}

	fmt.Println("\nBasic example completed successfully!")
}
