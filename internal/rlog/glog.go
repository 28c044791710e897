package rlog

import (
	"github.com/golang/glog"
)

// Glog adapts the github.com/golang/glog package to the Logger interface.
// It is only ever constructed in cmd/rhythm; internal/* packages never
// import github.com/golang/glog directly.
type Glog struct{}

func (Glog) Infof(format string, args ...interface{})    { glog.Infof(format, args...) }
func (Glog) Warningf(format string, args ...interface{}) { glog.Warningf(format, args...) }
func (Glog) Errorf(format string, args ...interface{})   { glog.Errorf(format, args...) }

// V reports whether verbose logging at the given level is currently
// enabled, e.g. via -v=2 on the command line.
func (Glog) V(level int) bool { return bool(glog.V(glog.Level(level))) }
