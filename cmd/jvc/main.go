package main

import (
	"context"

	_ "github.com/jimmicro/version"
	"github.com/jimyag/jvc/internal/jvc"
	"github.com/jimyag/jvc/internal/jvc/config"
	"github.com/jimyag/jvc/internal/jvc/service"
	"github.com/rs/zerolog/log"
)

// 构建时通过 -ldflags "-X main.version=..." 注入
var (
	version   = "dev"
	gitCommit = "unknown"
	buildDate = "unknown"
)

func main() {
	cfg, err := config.New()
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to create config")
	}
	server, err := jvc.New(cfg, service.NewVersionOutput(version, gitCommit, buildDate))
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to create server")
	}
	if err := server.Run(context.Background()); err != nil {
		log.Fatal().Err(err).Msg("Failed to run server")
	}
}
