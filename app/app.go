package app

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/pkg/errors"
	"github.com/smartcash/smartrewardsd/app/appmessage"
	"github.com/smartcash/smartrewardsd/app/rpc"
	"github.com/smartcash/smartrewardsd/domain/rewards"
	"github.com/smartcash/smartrewardsd/domain/rewards/rewardsdb"
	"github.com/smartcash/smartrewardsd/infrastructure/config"
	"github.com/smartcash/smartrewardsd/infrastructure/logger"
	"github.com/smartcash/smartrewardsd/infrastructure/os/execenv"
	"github.com/smartcash/smartrewardsd/infrastructure/os/signal"
	"github.com/smartcash/smartrewardsd/util/panics"
	"github.com/smartcash/smartrewardsd/util/profiling"
	"github.com/smartcash/smartrewardsd/version"
)

type smartrewardsApp struct {
	cfg *config.Config
}

// StartApp starts the smartrewardsd app, and blocks until it finishes running
func StartApp() error {
	execenv.Initialize()

	// Load configuration and parse command line. This function also
	// initializes logging and configures it accordingly.
	cfg, err := config.LoadConfig()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return err
	}
	defer logger.BackendLog.Close()
	defer panics.HandlePanic(log, nil)

	app := &smartrewardsApp{cfg: cfg}
	switch cfg.Command {
	case config.CommandSync:
		logger.InitLog(cfg.LogFile(), cfg.ErrLogFile(), cfg.LogRotation())
		return app.sync()
	case config.CommandQuery:
		return app.query()
	default:
		return errors.Errorf("unknown command %s", cfg.Command)
	}
}

func (app *smartrewardsApp) sync() error {
	// Show version at startup.
	log.Infof("Version %s", version.Version())

	// Get a channel that will be closed when a shutdown signal has been
	// triggered either from an OS signal such as SIGINT (Ctrl+C) or from
	// another subsystem such as the RPC server.
	interrupt := signal.InterruptListener()
	defer log.Info("Shutdown complete")

	feed, closeFeed, err := openFeed(app.cfg.Sync.Feed)
	if err != nil {
		log.Errorf("%+v", err)
		return err
	}
	defer closeFeed()

	componentManager, err := NewComponentManager(app.cfg)
	if err != nil {
		log.Errorf("%+v", err)
		return err
	}
	defer componentManager.Stop()

	err = componentManager.Start()
	if err != nil {
		log.Errorf("%+v", err)
		return err
	}

	// Enable http profiling server if requested.
	if app.cfg.Profile != "" {
		profiling.Start(app.cfg.Profile, componentManager.metrics.Registry(), log)
	}

	err = componentManager.Sync(feed, interrupt)
	if errors.Is(err, rewardsdb.ErrWriteFailure) || errors.Is(err, rewards.ErrUndoBootstrap) {
		panics.Exit(log, fmt.Sprintf("The rewards ledger can not continue: %+v", err))
	}
	if err != nil {
		log.Errorf("%+v", err)
		return err
	}

	if app.cfg.Sync.CompactDB {
		err = componentManager.Compact()
		if err != nil {
			log.Errorf("%+v", err)
			return err
		}
	}
	return nil
}

func openFeed(path string) (*os.File, func(), error) {
	if path == "-" {
		return os.Stdin, func() {}, nil
	}
	file, err := os.Open(path)
	if err != nil {
		return nil, nil, errors.WithStack(err)
	}
	return file, func() {
		err := file.Close()
		if err != nil {
			log.Warnf("Failed to close the feed %s: %s", path, err)
		}
	}, nil
}

func (app *smartrewardsApp) query() error {
	request := appmessage.NewSmartRewardsRequestMessage(app.cfg.Query.Args.Command, app.cfg.Query.Args.Arguments...)
	request.IgnoreSync = app.cfg.Query.IgnoreSync

	var envelope *rpc.Envelope
	var err error
	if app.cfg.Query.Offline {
		envelope, err = queryOffline(app.cfg, request)
	} else {
		envelope, err = rpc.NewClient(app.cfg.Query.RPCServer).SmartRewards(request)
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "%+v\n", err)
		return err
	}

	if envelope.Error != nil {
		err = printJSON(envelope.Error)
		if err != nil {
			return err
		}
		return envelope.Error
	}
	return printJSON(envelope.Result)
}

// queryOffline answers request from the rewards database directly. It can
// only do so while no sync daemon holds the database.
func queryOffline(cfg *config.Config, request *appmessage.SmartRewardsRequestMessage) (*rpc.Envelope, error) {
	componentManager, err := NewReadOnlyComponentManager(cfg)
	if errors.Is(err, rewardsdb.ErrLocked) {
		return &rpc.Envelope{Error: appmessage.RPCErrorf(appmessage.RPCErrorBusy,
			"Rewards database is in use by the sync daemon, query it without --offline.")}, nil
	}
	if err != nil {
		return nil, err
	}
	defer componentManager.Stop()

	if cfg.Query.ChainHeight != 0 {
		componentManager.rewards.SetChainHeight(cfg.Query.ChainHeight)
	}

	response, err := componentManager.RPCManager().HandleRequest(request)
	if err != nil {
		return nil, err
	}
	return rpc.NewEnvelope(response.(*appmessage.SmartRewardsResponseMessage))
}

func printJSON(value interface{}) error {
	output, err := json.MarshalIndent(value, "", "  ")
	if err != nil {
		return errors.WithStack(err)
	}
	fmt.Println(string(output))
	return nil
}
