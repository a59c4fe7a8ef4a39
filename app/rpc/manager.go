package rpc

import (
	"github.com/smartcash/smartrewardsd/app/rpc/rpccontext"
	"github.com/smartcash/smartrewardsd/domain/rewards"
	"github.com/smartcash/smartrewardsd/infrastructure/config"
)

// Manager is an RPC manager
type Manager struct {
	context *rpccontext.Context
}

// NewManager creates a new RPC Manager
func NewManager(cfg *config.Config, rw *rewards.Rewards) *Manager {
	return &Manager{
		context: rpccontext.NewContext(cfg, rw),
	}
}
