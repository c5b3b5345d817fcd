// Copyright © 2026 Lumen contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
//
// File: compositor/stats.go
// Summary: Frame accounting and the pluggable stats observer.

package compositor

import "github.com/sirupsen/logrus"

// FrameStats counts tick outcomes since runtime start. Submitted and
// Presented diverge by the frames still in flight.
type FrameStats struct {
	Ticks     uint64
	Submitted uint64
	Presented uint64
	// Skipped counts ticks dropped for any reason: pipeline full, import
	// failure, engine error or a rejected commit.
	Skipped uint64
}

// StatsObserver receives a snapshot after every tick.
type StatsObserver interface {
	ObserveFrameStats(stats FrameStats)
}

// StatsLogger logs frame stats at debug level every interval ticks.
type StatsLogger struct {
	log      *logrus.Entry
	interval uint64
}

// NewStatsLogger returns an observer that logs every interval ticks; 0
// means every 600 (about four seconds at 144Hz).
func NewStatsLogger(log *logrus.Entry, interval uint64) *StatsLogger {
	if log == nil {
		log = logrus.NewEntry(logrus.StandardLogger())
	}
	if interval == 0 {
		interval = 600
	}
	return &StatsLogger{log: log, interval: interval}
}

func (s *StatsLogger) ObserveFrameStats(stats FrameStats) {
	if s == nil || stats.Ticks == 0 || stats.Ticks%s.interval != 0 {
		return
	}
	s.log.WithFields(logrus.Fields{
		"ticks":     stats.Ticks,
		"submitted": stats.Submitted,
		"presented": stats.Presented,
		"skipped":   stats.Skipped,
	}).Debug("frame stats")
}
