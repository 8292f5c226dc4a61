package logger

import (
	"context"

	"go-crm-core/internal/config"
	"go-crm-core/internal/database"

	"go.uber.org/fx"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

type Params struct {
	fx.In

	Lifecycle fx.Lifecycle
	Config    *config.Config
	Mongo     *database.MongoDB `optional:"true"`
}

// NewLogger builds the application logger. With the mongo driver, warnings
// and errors are also persisted to the logs collection.
func NewLogger(p Params) (*zap.Logger, error) {
	base, err := NewBaseLogger(p.Config)
	if err != nil {
		return nil, err
	}
	if p.Mongo == nil {
		return base, nil
	}

	writer := NewDBLogWriter(NewMongoSink(p.Mongo.DB), p.Config)
	p.Lifecycle.Append(fx.Hook{
		OnStop: func(ctx context.Context) error {
			writer.Close()
			return nil
		},
	})
	return zap.New(NewDBCore(base.Core(), writer, zapcore.WarnLevel), zap.AddCaller()), nil
}

// NewBaseLogger returns a console logger: JSON in production, development
// format otherwise.
func NewBaseLogger(cfg *config.Config) (*zap.Logger, error) {
	var zapConfig zap.Config
	if cfg.IsProduction() {
		zapConfig = zap.NewProductionConfig()
	} else {
		zapConfig = zap.NewDevelopmentConfig()
	}

	// Important: Enable Caller to get Function Name
	zapConfig.EncoderConfig.FunctionKey = "func"

	return zapConfig.Build()
}
