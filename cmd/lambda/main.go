package main

import (
	"context"
	"log/slog"
	"os"

	"signal_relay/internal/app"
	"signal_relay/internal/domain"

	"github.com/aws/aws-lambda-go/lambda"
)

func main() {
	bootstrap := app.NewBootstrap()
	if err := bootstrap.Initialize(app.ConfigPath()); err != nil {
		slog.Error("Bootstrapping failed", slog.Any("error", err))
		os.Exit(1)
	}

	relay := bootstrap.Relay
	lambda.Start(func(ctx context.Context, ev domain.InvocationEvent) (domain.Response, error) {
		return relay.Handle(ctx, &ev), nil
	})
}
