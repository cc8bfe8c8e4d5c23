// Package log provides the logging abstraction used by the batcher and the
// reqbatch command.
//
// The core never depends on a concrete logging library: it logs through the
// [Logger] interface. Adapters are provided for zerolog and logrus, and a
// no-op logger is the default for library users.
//
// # Usage
//
//	logger := log.NewZerologAdapter(os.Stderr, log.LevelInfo)
//	b, err := batch.NewSized(100, process, batch.WithLogger(logger))
//
// Or, for services already standardized on logrus:
//
//	logger := log.NewLogrusAdapterWithLogger(logrus.StandardLogger())
//
// Both adapters implement [LevelSetter], so the level can be changed while
// the program runs.
package log
