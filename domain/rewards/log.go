package rewards

import "github.com/smartcash/smartrewardsd/infrastructure/logger"

var log, _ = logger.Get(logger.SubsystemTags.REWD)
