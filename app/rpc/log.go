package rpc

import (
	"github.com/smartcash/smartrewardsd/infrastructure/logger"
	"github.com/smartcash/smartrewardsd/util/panics"
)

var log, _ = logger.Get(logger.SubsystemTags.RPCS)
var spawn = panics.GoroutineWrapperFunc(log)
