// The scheduler binary runs the recurring jobs (quote generation, the
// overdue sweep, reservation completion) against the same database as
// the API server. Run exactly one instance.
package main

import (
	"os"
	"strconv"

	"github.com/bwmarrin/snowflake"
	"go.uber.org/fx"
	"go.uber.org/fx/fxevent"
	"go.uber.org/zap"

	"github.com/smartcondo/condominio/internal/clock"
	"github.com/smartcondo/condominio/internal/commonarea"
	"github.com/smartcondo/condominio/internal/config"
	"github.com/smartcondo/condominio/internal/observability"
	"github.com/smartcondo/condominio/internal/quote"
	"github.com/smartcondo/condominio/internal/residency"
	"github.com/smartcondo/condominio/internal/scheduler"
	"github.com/smartcondo/condominio/internal/unit"
	"github.com/smartcondo/condominio/internal/user"
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
		user.Module,
		unit.Module,
		residency.Module,
		quote.Module,
		commonarea.Module,
		scheduler.Module,
	).Run()
}

func newSnowflakeNode() (*snowflake.Node, error) {
	nodeID := int64(2)
	if raw := os.Getenv("SNOWFLAKE_NODE_ID"); raw != "" {
		if parsed, err := strconv.ParseInt(raw, 10, 64); err == nil {
			nodeID = parsed
		}
	}
	return snowflake.NewNode(nodeID)
}
