package sql

import (
	"database/sql"
	_ "embed"
	"fmt"
	"log"
)

//go:embed init.sql
var initSQL string

//go:embed documents.sql
var documentsSQL string

//go:embed chunks.sql
var chunksSQL string

//go:embed entities.sql
var entitiesSQL string

//go:embed relationships.sql
var relationshipsSQL string

// Table lists for verification
var DocumentsTables = []string{"documents", "document_pages"}

var ChunksTables = []string{"document_chunks"}

var EntitiesTables = []string{"document_entities"}

var RelationshipsTables = []string{"document_relationships"}

// Init initializes db extensions
func Init(db *sql.DB) error {
	_, err := db.Exec(initSQL)
	if err != nil {
		return fmt.Errorf("error executing schema SQL: %w", err)
	}

	log.Println("Database extensions initialized successfully")
	return nil
}

// LoadDocumentsSql creates the documents and document_pages tables
func LoadDocumentsSql(db *sql.DB) error {
	_, err := db.Exec(documentsSQL)
	if err != nil {
		return fmt.Errorf("error executing documents SQL: %w", err)
	}

	exist, err := checkTables(db, DocumentsTables)
	if err != nil {
		return fmt.Errorf("error checking existing tables: %w", err)
	}
	if !exist {
		return fmt.Errorf("not all required tables were created")
	}

	return nil
}

// LoadChunksSql creates the document_chunks table with the given
// embedding dimensionality.
func LoadChunksSql(db *sql.DB, embeddingDim int) error {
	if embeddingDim <= 0 {
		return fmt.Errorf("embedding dimension must be positive, got %d", embeddingDim)
	}

	_, err := db.Exec(fmt.Sprintf(chunksSQL, embeddingDim))
	if err != nil {
		return fmt.Errorf("error executing chunks SQL: %w", err)
	}

	exist, err := checkTables(db, ChunksTables)
	if err != nil {
		return fmt.Errorf("error checking existing tables: %w", err)
	}
	if !exist {
		return fmt.Errorf("not all required tables were created")
	}

	return nil
}

// LoadEntitiesSql creates the document_entities table
func LoadEntitiesSql(db *sql.DB) error {
	_, err := db.Exec(entitiesSQL)
	if err != nil {
		return fmt.Errorf("error executing entities SQL: %w", err)
	}

	exist, err := checkTables(db, EntitiesTables)
	if err != nil {
		return fmt.Errorf("error checking existing tables: %w", err)
	}
	if !exist {
		return fmt.Errorf("not all required tables were created")
	}

	return nil
}

// LoadRelationshipsSql creates the document_relationships table
func LoadRelationshipsSql(db *sql.DB) error {
	_, err := db.Exec(relationshipsSQL)
	if err != nil {
		return fmt.Errorf("error executing relationships SQL: %w", err)
	}

	exist, err := checkTables(db, RelationshipsTables)
	if err != nil {
		return fmt.Errorf("error checking existing tables: %w", err)
	}
	if !exist {
		return fmt.Errorf("not all required tables were created")
	}

	return nil
}

// LoadAllSql creates the full schema in dependency order
func LoadAllSql(db *sql.DB, embeddingDim int) error {
	if err := LoadDocumentsSql(db); err != nil {
		return err
	}

	if err := LoadChunksSql(db, embeddingDim); err != nil {
		return err
	}

	if err := LoadEntitiesSql(db); err != nil {
		return err
	}

	if err := LoadRelationshipsSql(db); err != nil {
		return err
	}

	return nil
}

// checkTables verifies that all required tables exist in the database
func checkTables(db *sql.DB, tables []string) (bool, error) {
	var allExist bool
	for _, table := range tables {
		err := db.QueryRow(
			`SELECT EXISTS(SELECT 1 FROM information_schema.tables WHERE table_name = $1);`,
			table,
		).Scan(&allExist)
		if err != nil {
			return false, fmt.Errorf("error checking existence of table %s: %w", table, err)
		}
		if !allExist {
			log.Printf("Table %s does not exist", table)
			break
		}
	}
	return allExist, nil
}
