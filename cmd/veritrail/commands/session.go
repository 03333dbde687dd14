package commands

import (
	"context"
	"fmt"
	"strings"

	"github.com/redis/go-redis/v9"

	"github.com/veritrail/veritrail/internal/compliance"
	"github.com/veritrail/veritrail/internal/config"
	"github.com/veritrail/veritrail/internal/engine"
	"github.com/veritrail/veritrail/internal/ledger"
	"github.com/veritrail/veritrail/internal/printer"
	"github.com/veritrail/veritrail/pkg/projectboard"
)

// actorFlag is the global --actor flag for mutating commands.
var actorFlag string

func init() {
	rootCmd.PersistentFlags().StringVar(&actorFlag, "actor", "user", "Who performs the change: user or ai")
}

// session bundles everything a command needs against one configured project.
type session struct {
	cfg      *config.VeritrailConfig
	client   *projectboard.Client
	ledger   *ledger.Ledger
	engine   *engine.Engine
	reporter *compliance.Reporter
}

// openSession loads the config, connects to Redis and wires the components.
// Callers must Close the session.
func openSession(ctx context.Context) (*session, error) {
	path := configPath
	if path == "" {
		path = config.DefaultFileName
	}

	cfg, err := config.Load(path)
	if err != nil {
		return nil, printer.Error(
			"cannot load configuration",
			err.Error(),
			[]string{"Run 'veritrail init' to create a veritrail.yml in this directory"},
		)
	}

	sess, err := connect(ctx, cfg)
	if err != nil {
		return nil, printer.ErrorWithContext(
			"cannot reach Redis",
			"The state store did not respond to a ping.",
			map[string]string{"Address": cfg.Redis.Addr, "Project": cfg.Project},
			[]string{
				"Start a local Redis: docker run -d -p 6379:6379 redis:7",
				"Point the redis.addr setting in veritrail.yml at a running instance",
			},
		)
	}
	return sess, nil
}

// openSessionQuiet is openSession without user-facing error formatting, for
// callers that treat a connection failure as non-fatal.
func openSessionQuiet(ctx context.Context) (*session, error) {
	path := configPath
	if path == "" {
		path = config.DefaultFileName
	}
	cfg, err := config.Load(path)
	if err != nil {
		return nil, err
	}
	return connect(ctx, cfg)
}

func connect(ctx context.Context, cfg *config.VeritrailConfig) (*session, error) {
	client, err := projectboard.NewClient(&redis.Options{
		Addr:     cfg.Redis.Addr,
		DB:       cfg.Redis.DB,
		Password: cfg.Redis.Password,
	}, cfg.Project)
	if err != nil {
		return nil, err
	}

	if err := client.Ping(ctx); err != nil {
		client.Close()
		return nil, err
	}

	lgr := ledger.New(client)
	return &session{
		cfg:      cfg,
		client:   client,
		ledger:   lgr,
		engine:   engine.New(client, lgr),
		reporter: compliance.New(client, lgr),
	}, nil
}

func (s *session) Close() {
	s.client.Close()
}

// parseActor maps the --actor flag to the audited actor identity. System is
// reserved for internally generated events and cannot be claimed by a caller.
func parseActor(s string) (projectboard.Actor, error) {
	switch strings.ToLower(s) {
	case "", "user":
		return projectboard.ActorUser, nil
	case "ai":
		return projectboard.ActorAI, nil
	default:
		return "", fmt.Errorf("unknown actor %q (valid: user, ai)", s)
	}
}
