package rpchandlers

import "github.com/smartcash/smartrewardsd/infrastructure/logger"

var log, _ = logger.Get(logger.SubsystemTags.RPCS)
