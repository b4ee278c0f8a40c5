// Copyright 2025 dacapoday
// SPDX-License-Identifier: Apache-2.0

package btree

import "github.com/sirupsen/logrus"

// Log receives structural events of every BTree created without a Logger
// option. Events are emitted at debug level.
var Log = logrus.New()

// The option passed to New may implement any of the interfaces below;
// settings it does not implement keep their defaults.

// SplitSize sets how many values each new leaf receives when a full leaf is
// split. It must be between 1 and maxValuesPerNode-1. Default maxValuesPerNode/2.
type SplitSize interface {
	SplitSize() int
}

// Locking guards the tree with one read/write lock when it returns true.
type Locking interface {
	Locking() bool
}

// Logger replaces Log for one tree.
type Logger interface {
	Logger() logrus.FieldLogger
}

// Config implements every option interface.
type Config struct {
	Split      int
	Concurrent bool
	Log        logrus.FieldLogger
}

func (c Config) SplitSize() int { return c.Split }
func (c Config) Locking() bool  { return c.Concurrent }
func (c Config) Logger() logrus.FieldLogger {
	if c.Log == nil {
		return Log
	}
	return c.Log
}

func getSplitSize(opt any, maxValues int) int {
	if o, ok := opt.(SplitSize); ok {
		if size := o.SplitSize(); size != 0 {
			return size
		}
	}
	return max(1, maxValues/2)
}

func getLocking(opt any) bool {
	if o, ok := opt.(Locking); ok {
		return o.Locking()
	}
	return false
}

func getLogger(opt any) logrus.FieldLogger {
	if o, ok := opt.(Logger); ok {
		if log := o.Logger(); log != nil {
			return log
		}
	}
	return Log
}
