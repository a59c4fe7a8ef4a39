package app

import (
	"io"
	"sync/atomic"

	"github.com/pkg/errors"
	"github.com/smartcash/smartrewardsd/app/chainfeed"
	"github.com/smartcash/smartrewardsd/app/rpc"
	"github.com/smartcash/smartrewardsd/domain/rewards"
	"github.com/smartcash/smartrewardsd/domain/rewards/rewardsdb"
	"github.com/smartcash/smartrewardsd/infrastructure/config"
	"github.com/smartcash/smartrewardsd/infrastructure/metrics"
)

// ComponentManager is a wrapper for all the smartrewardsd services
type ComponentManager struct {
	cfg        *config.Config
	store      *rewardsdb.RewardsDB
	rewards    *rewards.Rewards
	metrics    *metrics.Metrics
	rpcManager *rpc.Manager
	rpcServer  *rpc.Server
	isReadOnly bool

	shutdown int32
}

// NewComponentManager opens the rewards database of the configured network
// and loads the ledger from it.
func NewComponentManager(cfg *config.Config) (*ComponentManager, error) {
	m := metrics.New()
	store, rw, err := openRewards(cfg, m)
	if err != nil {
		return nil, err
	}

	return &ComponentManager{
		cfg:        cfg,
		store:      store,
		rewards:    rw,
		metrics:    m,
		rpcManager: rpc.NewManager(cfg, rw),
	}, nil
}

// NewReadOnlyComponentManager opens the rewards database of the configured
// network for queries. The ledger is not modified, a finalization left
// pending by the sync daemon stays pending.
func NewReadOnlyComponentManager(cfg *config.Config) (*ComponentManager, error) {
	if !rewardsdb.Exists(cfg.DataDir, cfg.DBEngine) {
		return nil, errors.Errorf("there is no %s rewards database in %s, run sync first",
			cfg.DBEngine, cfg.DataDir)
	}

	m := metrics.New()
	store, err := rewardsdb.Open(cfg.DataDir, cfg.DBEngine, cfg.RewardsDBCache)
	if err != nil {
		return nil, err
	}
	rw, err := rewards.NewReadOnly(cfg.NetParams(), store, m)
	if err != nil {
		closeErr := store.Close()
		if closeErr != nil {
			log.Warnf("Failed to close the rewards database: %s", closeErr)
		}
		return nil, err
	}

	return &ComponentManager{
		cfg:        cfg,
		store:      store,
		rewards:    rw,
		metrics:    m,
		rpcManager: rpc.NewManager(cfg, rw),
		isReadOnly: true,
	}, nil
}

func openRewards(cfg *config.Config, m *metrics.Metrics) (*rewardsdb.RewardsDB, *rewards.Rewards, error) {
	params := cfg.NetParams()
	store, err := rewardsdb.Open(cfg.DataDir, cfg.DBEngine, cfg.RewardsDBCache)
	if err != nil {
		return nil, nil, err
	}

	rw, err := rewards.New(params, store, params, m)
	if err == nil {
		return store, rw, nil
	}
	closeErr := store.Close()
	if closeErr != nil {
		log.Warnf("Failed to close the rewards database: %s", closeErr)
	}
	if !errors.Is(err, rewardsdb.ErrVersionMismatch) && !errors.Is(err, rewardsdb.ErrCorrupted) {
		return nil, nil, err
	}
	if cfg.Command != config.CommandSync || !cfg.Sync.RewardsResync {
		return nil, nil, errors.Wrapf(err, "the rewards database can not be used, "+
			"run sync with --rewardsresync to rebuild it")
	}

	log.Warnf("Rebuilding the rewards database: %s", err)
	err = rewardsdb.Remove(cfg.DataDir, cfg.DBEngine)
	if err != nil {
		return nil, nil, err
	}
	store, err = rewardsdb.Open(cfg.DataDir, cfg.DBEngine, cfg.RewardsDBCache)
	if err != nil {
		return nil, nil, err
	}
	rw, err = rewards.New(params, store, params, m)
	if err != nil {
		closeErr := store.Close()
		if closeErr != nil {
			log.Warnf("Failed to close the rewards database: %s", closeErr)
		}
		return nil, nil, err
	}
	return store, rw, nil
}

// RPCManager returns the query handler manager
func (a *ComponentManager) RPCManager() *rpc.Manager {
	return a.rpcManager
}

// Rewards returns the reward ledger
func (a *ComponentManager) Rewards() *rewards.Rewards {
	return a.rewards
}

// Start starts the query server of the sync daemon unless it is disabled
func (a *ComponentManager) Start() error {
	if a.isReadOnly || a.cfg.Sync == nil || a.cfg.Sync.DisableRPC {
		return nil
	}
	server := rpc.NewServer(a.cfg.Sync.RPCListen, a.rpcManager)
	err := server.Start()
	if err != nil {
		return err
	}
	a.rpcServer = server
	return nil
}

// RPCServer returns the running query server, or nil
func (a *ComponentManager) RPCServer() *rpc.Server {
	return a.rpcServer
}

// Compact flushes the ledger and compacts the rewards database
func (a *ComponentManager) Compact() error {
	err := a.rewards.Flush()
	if err != nil {
		return err
	}
	log.Infof("Compacting the rewards database")
	return a.store.Compact()
}

// Sync applies the notifications of feed to the ledger until the feed ends
// or interrupt is closed.
func (a *ComponentManager) Sync(feed io.Reader, interrupt <-chan struct{}) error {
	reader := chainfeed.NewReader(feed, a.cfg.NetParams())
	log.Infof("Syncing the rewards ledger from height %d", a.rewards.LastHeight())

	type readResult struct {
		notification *chainfeed.Notification
		err          error
	}
	notifications := make(chan readResult)
	done := make(chan struct{})
	defer close(done)
	spawn(func() {
		for {
			notification, err := reader.Next()
			select {
			case notifications <- readResult{notification: notification, err: err}:
			case <-done:
				return
			}
			if err != nil {
				return
			}
		}
	})

	for {
		select {
		case <-interrupt:
			log.Infof("Sync interrupted at height %d", a.rewards.LastHeight())
			return nil
		case result := <-notifications:
			if errors.Is(result.err, io.EOF) {
				log.Infof("Reached the end of the chain feed at height %d", a.rewards.LastHeight())
				return nil
			}
			if result.err != nil {
				return result.err
			}
			err := a.handleNotification(result.notification)
			if err != nil {
				return err
			}
		}
	}
}

func (a *ComponentManager) handleNotification(notification *chainfeed.Notification) error {
	switch notification.Type {
	case chainfeed.NotificationTip:
		a.rewards.SetChainHeight(notification.Height)
		a.writeMetrics()
		return nil
	case chainfeed.NotificationConnect:
		lastBlock, found := a.rewards.LastBlock()
		if found && notification.Block.Height <= lastBlock.Height {
			log.Debugf("Skipping already applied %s", notification.Block.Marker())
			return nil
		}
		return a.rewards.ConnectBlock(notification.Block)
	case chainfeed.NotificationDisconnect:
		return a.rewards.DisconnectBlock(notification.Block)
	default:
		return errors.Errorf("unexpected notification %s", notification.Type)
	}
}

func (a *ComponentManager) writeMetrics() {
	if a.isReadOnly || a.cfg.MetricsFile == "" {
		return
	}
	err := a.metrics.WriteToTextfile(a.cfg.MetricsFile)
	if err != nil {
		log.Warnf("Failed to write metrics to %s: %s", a.cfg.MetricsFile, err)
	}
}

// Stop flushes the ledger and closes the rewards database.
func (a *ComponentManager) Stop() {
	// Make sure this only happens once.
	if atomic.AddInt32(&a.shutdown, 1) != 1 {
		log.Infof("smartrewardsd is already in the process of shutting down")
		return
	}

	if a.isReadOnly {
		err := a.store.Close()
		if err != nil {
			log.Errorf("Error closing the rewards database: %+v", err)
		}
		return
	}

	log.Warnf("smartrewardsd shutting down")

	if a.rpcServer != nil {
		err := a.rpcServer.Stop()
		if err != nil {
			log.Errorf("Error stopping the query server: %+v", err)
		}
	}

	err := a.rewards.Flush()
	if err != nil {
		log.Errorf("Error flushing the rewards ledger: %+v", err)
	}
	a.writeMetrics()

	err = a.store.Close()
	if err != nil {
		log.Errorf("Error closing the rewards database: %+v", err)
	}
}
