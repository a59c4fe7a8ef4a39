package app

import (
	"github.com/smartcash/smartrewardsd/infrastructure/logger"
	"github.com/smartcash/smartrewardsd/util/panics"
)

var log, _ = logger.Get(logger.SubsystemTags.RWSD)
var spawn = panics.GoroutineWrapperFunc(log)
