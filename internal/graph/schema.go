package graph

import (
	"context"
	_ "embed"
	"fmt"

	graphql "github.com/graph-gophers/graphql-go"
	"go.uber.org/zap"
)

//go:embed schema.graphql
var schemaSDL string

// NewSchema parses the library schema against r. Extra options, such as
// graphql.MaxParallelism, are applied after the defaults.
func NewSchema(r *Resolver, opts ...graphql.SchemaOpt) (*graphql.Schema, error) {
	defaults := []graphql.SchemaOpt{
		graphql.Logger(panicLogger{logger: r.logger}),
	}
	return graphql.ParseSchema(schemaSDL, r, append(defaults, opts...)...)
}

type panicLogger struct {
	logger *zap.Logger
}

func (l panicLogger) LogPanic(_ context.Context, value interface{}) {
	l.logger.Error("graphql resolver panic", zap.String("panic", fmt.Sprint(value)), zap.Stack("stack"))
}
