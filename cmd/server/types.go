package main

import (
	"github.com/gin-gonic/gin"
	"github.com/jackc/pgx/v5/pgxpool"

	"codeberg.org/campusfind/server/internal/config"
	"codeberg.org/campusfind/server/internal/facilities"
	"codeberg.org/campusfind/server/internal/llm"
	"codeberg.org/campusfind/server/internal/retriever"
	"codeberg.org/campusfind/server/internal/vectorindex"
)

// holds all dependencies and state for the API server
type Server struct {
	db           *pgxpool.Pool
	config       *config.Config
	facilityRepo *facilities.Repository
	index        *vectorindex.Index
	services     *Services
	router       *gin.Engine
}

// holds all external service clients
type Services struct {
	LLM       llm.LLM
	Retriever *retriever.Service
}
