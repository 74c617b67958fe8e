// Package telemetry exposes the OpenTelemetry counters recorded by devconsole.
// Instruments resolve against the global MeterProvider, which is a no-op until
// the host installs an SDK provider.
package telemetry

import (
	"context"
	"sync"

	"github.com/rs/zerolog/log"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

const meterName = "github.com/thebtf/devconsole"

var (
	once           sync.Once
	commandCounter metric.Int64Counter
	eggCounter     metric.Int64Counter
)

func instruments() {
	once.Do(func() {
		meter := otel.Meter(meterName)

		var err error
		commandCounter, err = meter.Int64Counter(
			"devconsole.terminal.commands",
			metric.WithDescription("Terminal lines executed, by command"),
		)
		if err != nil {
			log.Warn().Err(err).Msg("Failed to create command counter")
		}
		eggCounter, err = meter.Int64Counter(
			"devconsole.eggs.discovered",
			metric.WithDescription("Easter eggs discovered for the first time"),
		)
		if err != nil {
			log.Warn().Err(err).Msg("Failed to create egg counter")
		}
	})
}

// CommandExecuted records one executed terminal command.
func CommandExecuted(ctx context.Context, command string) {
	instruments()
	if commandCounter == nil {
		return
	}
	commandCounter.Add(ctx, 1, metric.WithAttributes(attribute.String("command", command)))
}

// EggDiscovered records a first-time egg discovery.
func EggDiscovered(ctx context.Context, id string, points int) {
	instruments()
	if eggCounter == nil {
		return
	}
	eggCounter.Add(ctx, 1, metric.WithAttributes(
		attribute.String("egg", id),
		attribute.Int("points", points),
	))
}
