package main

import (
	"log"
	"os"

	"capec-chatbot-be/internal/model"
	"capec-chatbot-be/pkg/database"

	"github.com/joho/godotenv"
)

func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("Info: No .env file found, using system env")
	}

	dsn := os.Getenv("DB_CONNECTION_STRING")
	if dsn == "" {
		log.Fatal("Error: DB_CONNECTION_STRING is not set")
	}

	db, err := database.NewGormDB(dsn)
	if err != nil {
		log.Fatal("Error: Failed to connect to database:", err)
	}

	log.Println("Step 1: Setting up extensions...")
	setupSQL := []string{
		`CREATE EXTENSION IF NOT EXISTS pgcrypto;`,
		`CREATE EXTENSION IF NOT EXISTS vector;`,
	}
	for _, sql := range setupSQL {
		if err := db.Exec(sql).Error; err != nil {
			log.Printf("Warn: Failed to execute setup SQL: %v. Continuing...", err)
		}
	}

	log.Println("Step 2: Running AutoMigrate...")
	if err := db.AutoMigrate(&model.PassageEmbedding{}); err != nil {
		log.Fatalf("Error: AutoMigrate failed: %v", err)
	}

	// pgvector similarity index. Cosine distance matches the search
	// operator used by the passage repository.
	log.Println("Step 3: Creating vector index...")
	indexSQL := `CREATE INDEX IF NOT EXISTS idx_passage_embeddings_cosine
		ON passage_embeddings USING hnsw (embedding_value vector_cosine_ops);`
	if err := db.Exec(indexSQL).Error; err != nil {
		log.Printf("Warn: Failed to create vector index: %v", err)
	}

	log.Println("✅ Migration complete")
}
