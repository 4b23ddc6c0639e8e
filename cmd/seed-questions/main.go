package main

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/paperforge/paperforge-backend/internal/block"
	"github.com/paperforge/paperforge-backend/internal/config"
	"github.com/paperforge/paperforge-backend/internal/database"
	"github.com/paperforge/paperforge-backend/internal/document"
	"github.com/paperforge/paperforge-backend/internal/logger"
	"github.com/paperforge/paperforge-backend/internal/model"
	"github.com/paperforge/paperforge-backend/internal/repository"
	"github.com/paperforge/paperforge-backend/internal/service"
)

// seedQuestion is one library entry to insert for the demo author.
type seedQuestion struct {
	questionType block.QuestionType
	stem         string
	options      []string
	tags         []string
}

func main() {
	cfg := config.Load()
	log := logger.Setup(cfg.LogLevel, cfg.LogFormat)
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Minute)
	defer cancel()

	pool, err := database.NewPostgresPool(ctx, cfg, log)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to connect to PostgreSQL")
	}
	defer pool.Close()

	rdb, err := database.NewRedisClient(ctx, cfg, log)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to connect to Redis")
	}
	defer rdb.Close()

	authorRepo := repository.NewAuthorRepository(pool)
	itemRepo := repository.NewQuestionItemRepository(pool)

	authService := service.NewAuthService(cfg, rdb)
	authorService := service.NewAuthorService(authorRepo, authService)
	itemService := service.NewQuestionItemService(itemRepo, log)

	fmt.Println("=== Seeding Question Library ===")

	// Find or create the demo author.
	var authorID int64
	err = pool.QueryRow(ctx, "SELECT id FROM authors WHERE email = $1", "demo@paperforge.local").Scan(&authorID)
	if err != nil {
		if err == pgx.ErrNoRows {
			fmt.Println("Demo author not found. Creating it...")
			author, err := authorService.Create(ctx, "Demo Author", "demo@paperforge.local", "paperforge")
			if err != nil {
				log.Fatal().Err(err).Msg("Failed to create demo author")
			}
			authorID = author.ID
			fmt.Printf("Created demo author with ID: %d\n", authorID)
		} else {
			log.Fatal().Err(err).Msg("Failed to check existing author")
		}
	} else {
		fmt.Printf("Found existing demo author with ID: %d\n", authorID)
	}

	seeds := []seedQuestion{
		{block.QuestionTypeMCQ, "What is 7 x 8?", []string{"54", "56", "63", "64"}, []string{"math", "arithmetic"}},
		{block.QuestionTypeMCQ, "Which planet is closest to the Sun?", []string{"Venus", "Mercury", "Mars", "Earth"}, []string{"science"}},
		{block.QuestionTypeMCQ, "Which word is a noun?", []string{"quickly", "happiness", "run", "blue"}, []string{"english", "grammar"}},
		{block.QuestionTypeShortAnswer, "Name the capital city of France.", nil, []string{"geography"}},
		{block.QuestionTypeShortAnswer, "What is the chemical symbol for water?", nil, []string{"science", "chemistry"}},
		{block.QuestionTypeStructured, "A train travels 120 km in 2 hours.", nil, []string{"math", "speed"}},
		{block.QuestionTypeStructured, "Describe the water cycle.", nil, []string{"science"}},
		{block.QuestionTypeEssay, "Discuss the causes of the industrial revolution.", nil, []string{"history"}},
		{block.QuestionTypeEssay, "Should schools require uniforms? Argue your position.", nil, []string{"english", "writing"}},
		{block.QuestionTypeShortAnswer, "What is 15% of 200?", nil, []string{"math", "percentages"}},
	}

	successCount := 0
	for _, seed := range seeds {
		doc := block.NewBlankDoc(seed.questionType)
		doc.Stem = document.NewSimpleDoc(seed.stem)
		for i, text := range seed.options {
			if i < len(doc.Options) {
				doc.Options[i].Content = document.NewSimpleDoc(text)
			}
		}

		raw, err := json.Marshal(doc)
		if err != nil {
			log.Fatal().Err(err).Msg("Failed to marshal question doc")
		}

		_, err = itemService.Create(ctx, authorID, &model.CreateQuestionItemRequest{
			QuestionType: string(seed.questionType),
			ItemDoc:      raw,
			Tags:         seed.tags,
		})
		if err != nil {
			fmt.Printf("Error creating question %q: %v\n", seed.stem, err)
		} else {
			successCount++
		}
	}

	fmt.Printf("\nSeed completed! Successfully added %d/%d questions.\n", successCount, len(seeds))
}
