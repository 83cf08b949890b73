package main

import (
	"os"
	"strconv"

	"github.com/bwmarrin/snowflake"
	"go.uber.org/fx"
	"go.uber.org/fx/fxevent"
	"go.uber.org/zap"

	"github.com/smartcondo/condominio/internal/clock"
	"github.com/smartcondo/condominio/internal/config"
	"github.com/smartcondo/condominio/internal/migration"
	"github.com/smartcondo/condominio/internal/observability"
	"github.com/smartcondo/condominio/internal/server"
	"github.com/smartcondo/condominio/pkg/db"
)

func main() {
	fx.New(
		config.Module,
		observability.Module,
		fx.WithLogger(func(log *zap.Logger) fxevent.Logger {
			return &fxevent.ZapLogger{Logger: log.Named("fx")}
		}),
		fx.Provide(newSnowflakeNode),
		clock.Module,
		db.Module,
		migration.Module,
		server.Module,
	).Run()
}

// newSnowflakeNode builds the ID generator shared by every service.
// Each running instance needs a distinct node ID.
func newSnowflakeNode() (*snowflake.Node, error) {
	nodeID := int64(1)
	if raw := os.Getenv("SNOWFLAKE_NODE_ID"); raw != "" {
		if parsed, err := strconv.ParseInt(raw, 10, 64); err == nil {
			nodeID = parsed
		}
	}
	return snowflake.NewNode(nodeID)
}
