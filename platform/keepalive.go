package platform

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/seaway-labs/drydock/session"
)

var standardCronParser = cron.NewParser(
	cron.Minute |
		cron.Hour |
		cron.Dom |
		cron.Month |
		cron.Dow,
)

// ParseCronExpressionUTC parses a five-field, UTC-only cron expression.
// Timezone prefixes are rejected so keepalive ticks are unambiguous across
// hosts.
func ParseCronExpressionUTC(expr string) (cron.Schedule, error) {
	clean := strings.TrimSpace(expr)
	if clean == "" {
		return nil, errors.New("cron expression is required")
	}

	upper := strings.ToUpper(clean)
	if strings.Contains(upper, "CRON_TZ=") || strings.Contains(upper, "TZ=") {
		return nil, errors.New("cron expression must be UTC-only (timezone prefixes are not allowed)")
	}

	schedule, err := standardCronParser.Parse(clean)
	if err != nil {
		return nil, fmt.Errorf("invalid cron expression: %w", err)
	}
	return schedule, nil
}

// Keepalive periodically extends every tracked deployment session so
// platform slots do not expire. Each tick issues one extend call per
// stored session; failures are logged and never retried within the tick.
type Keepalive struct {
	client   *Client
	store    session.Store
	schedule cron.Schedule
	logger   *slog.Logger
}

// NewKeepalive creates a keepalive runner on the given cron expression.
func NewKeepalive(client *Client, store session.Store, cronExpr string, logger *slog.Logger) (*Keepalive, error) {
	if client == nil {
		return nil, errors.New("platform: keepalive requires a client")
	}
	if store == nil {
		return nil, errors.New("platform: keepalive requires a session store")
	}
	schedule, err := ParseCronExpressionUTC(cronExpr)
	if err != nil {
		return nil, fmt.Errorf("platform: keepalive schedule: %w", err)
	}
	if logger == nil {
		logger = slog.Default()
	}

	return &Keepalive{
		client:   client,
		store:    store,
		schedule: schedule,
		logger:   logger,
	}, nil
}

// Run ticks on the schedule until the context is canceled.
func (k *Keepalive) Run(ctx context.Context) error {
	for {
		next := k.schedule.Next(time.Now().UTC())
		timer := time.NewTimer(time.Until(next))
		select {
		case <-ctx.Done():
			timer.Stop()
			return ctx.Err()
		case <-timer.C:
			k.Tick(ctx)
		}
	}
}

// Tick extends every stored session once.
func (k *Keepalive) Tick(ctx context.Context) {
	sessions, err := k.store.List(ctx)
	if err != nil {
		k.logger.Error("keepalive: list sessions", "error", err)
		return
	}

	for _, sess := range sessions {
		result, err := k.client.Extend(ctx, sess.Token, sess.Application)
		if err != nil {
			k.logger.Warn("keepalive: extend failed",
				"application", sess.Application,
				"error", err,
			)
			continue
		}

		sess.Status = string(result.Status)
		sess.LastExtendedAt = time.Now().UTC()
		if result.URL != "" {
			sess.URL = result.URL
		}
		if err := k.store.Upsert(ctx, sess); err != nil {
			k.logger.Warn("keepalive: record extension",
				"application", sess.Application,
				"error", err,
			)
			continue
		}

		k.logger.Info("keepalive: session extended",
			"application", sess.Application,
			"status", sess.Status,
		)
	}
}
