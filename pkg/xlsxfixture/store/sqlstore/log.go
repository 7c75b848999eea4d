package sqlstore

import (
	"fmt"
	"sync/atomic"

	logger "github.com/multiversx/mx-chain-logger-go"
	xormlog "xorm.io/xorm/log"
)

var log = logger.GetOrCreate("sqlstore")

// xormLogBridge routes xorm logs to the "xorm" logger.
type xormLogBridge struct {
	showSQL atomic.Bool
	logger  logger.Logger
}

func newXORMLogger(showSQL bool) xormlog.Logger {
	l := &xormLogBridge{logger: logger.GetOrCreate("xorm")}
	l.showSQL.Store(showSQL)
	return l
}

func (l *xormLogBridge) Debug(v ...interface{}) {
	l.logger.Debug(fmt.Sprint(v...))
}

func (l *xormLogBridge) Debugf(format string, v ...interface{}) {
	l.logger.Debug(fmt.Sprintf(format, v...))
}

func (l *xormLogBridge) Error(v ...interface{}) {
	l.logger.Error(fmt.Sprint(v...))
}

func (l *xormLogBridge) Errorf(format string, v ...interface{}) {
	l.logger.Error(fmt.Sprintf(format, v...))
}

func (l *xormLogBridge) Info(v ...interface{}) {
	l.logger.Info(fmt.Sprint(v...))
}

func (l *xormLogBridge) Infof(format string, v ...interface{}) {
	l.logger.Info(fmt.Sprintf(format, v...))
}

func (l *xormLogBridge) Warn(v ...interface{}) {
	l.logger.Warn(fmt.Sprint(v...))
}

func (l *xormLogBridge) Warnf(format string, v ...interface{}) {
	l.logger.Warn(fmt.Sprintf(format, v...))
}

func (l *xormLogBridge) Level() xormlog.LogLevel {
	switch l.logger.GetLevel() {
	case logger.LogTrace, logger.LogDebug:
		return xormlog.LOG_DEBUG
	case logger.LogInfo:
		return xormlog.LOG_INFO
	case logger.LogWarning:
		return xormlog.LOG_WARNING
	case logger.LogError:
		return xormlog.LOG_ERR
	}
	return xormlog.LOG_OFF
}

// SetLevel is a no-op; levels come from the logger configuration.
func (l *xormLogBridge) SetLevel(xormlog.LogLevel) {}

func (l *xormLogBridge) ShowSQL(show ...bool) {
	l.showSQL.Store(len(show) == 0 || show[0])
}

func (l *xormLogBridge) IsShowSQL() bool {
	return l.showSQL.Load()
}
