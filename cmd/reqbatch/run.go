package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"

	"github.com/makomweb/request-batcher/internal/cliconfig"
	"github.com/makomweb/request-batcher/internal/sink"
	"github.com/makomweb/request-batcher/pkg/batch"
	"github.com/makomweb/request-batcher/pkg/log"
)

// errBatchesFailed is returned when at least one batch did not succeed.
var errBatchesFailed = errors.New("one or more batches failed")

// run feeds every non-empty line of in to a Batcher, closes it at EOF or on
// cancellation and reports one line per batch to out.
func run(ctx context.Context, cfg cliconfig.Config, logger log.Logger, in io.Reader, out io.Writer) error {
	fn, closeSink, err := newSink(cfg, out, logger)
	if err != nil {
		return err
	}
	defer closeSink()

	b, err := batch.New(cfg.BatchConfig(), fn,
		batch.WithLogger(logger),
		batch.WithContext(ctx),
	)
	if err != nil {
		return fmt.Errorf("create batcher: %w", err)
	}

	ids, readErr := feed(ctx, b, in)

	closeCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()
	if err := b.Close(closeCtx); err != nil {
		logger.Warn("shutdown timed out", log.Err(err))
	}

	failed := 0
	for _, id := range ids {
		if !report(closeCtx, b, id, out) {
			failed++
		}
	}

	logger.Info("done",
		log.Int("batches", len(ids)),
		log.Int("failed", failed))

	if readErr != nil {
		return fmt.Errorf("read input: %w", readErr)
	}
	if failed > 0 {
		return fmt.Errorf("%w: %d of %d", errBatchesFailed, failed, len(ids))
	}
	return nil
}

// feed adds lines until EOF or ctx is done and returns the batch IDs in the
// order they were first seen.
func feed(ctx context.Context, b *batch.Batcher[string, string], in io.Reader) ([]batch.ID, error) {
	lines := make(chan string)
	errc := make(chan error, 1)

	go func() {
		defer close(lines)
		scanner := bufio.NewScanner(in)
		for scanner.Scan() {
			select {
			case lines <- scanner.Text():
			case <-ctx.Done():
				return
			}
		}
		errc <- scanner.Err()
	}()

	var ids []batch.ID
	seen := make(map[batch.ID]bool)

	for {
		select {
		case <-ctx.Done():
			return ids, nil
		case line, ok := <-lines:
			if !ok {
				var err error
				select {
				case err = <-errc:
				default:
				}
				return ids, err
			}
			line = strings.TrimSpace(line)
			if line == "" {
				continue
			}
			id, err := b.Add(line)
			if err != nil {
				return ids, err
			}
			if !seen[id] {
				seen[id] = true
				ids = append(ids, id)
			}
		}
	}
}

// report writes the outcome of one batch and reports whether it succeeded.
func report(ctx context.Context, b *batch.Batcher[string, string], id batch.ID, out io.Writer) bool {
	exec, err := b.Query(id)
	if err != nil {
		fmt.Fprintf(out, "batch=%s error=%q\n", id, err)
		return false
	}

	resp, err := exec.Wait(ctx)
	if err != nil {
		fmt.Fprintf(out, "batch=%s items=%d status=%s error=%q\n", id, exec.Size(), exec.Status(), err)
		return false
	}
	if !resp.IsSuccess() {
		fmt.Fprintf(out, "batch=%s items=%d status=%s error=%q\n", id, exec.Size(), exec.Status(), resp.Err())
		return false
	}
	fmt.Fprintf(out, "batch=%s items=%d status=%s value=%q\n", id, exec.Size(), exec.Status(), resp.Value())
	return true
}

// newSink builds the processing function selected by cfg.Sink.
func newSink(cfg cliconfig.Config, out io.Writer, logger log.Logger) (sink.Func, func(), error) {
	switch cfg.Sink {
	case cliconfig.SinkHTTP:
		s := sink.NewHTTP(&http.Client{Timeout: cfg.HTTPTimeout}, sink.HTTPConfig{
			URL:     cfg.HTTPURL,
			AuthKey: cfg.AuthKey,
			Retries: cfg.HTTPRetries,
		}, logger)
		return s.Process, func() {}, nil

	case cliconfig.SinkRedis:
		client := sink.NewRedisClient(cfg.RedisAddr)
		s, err := sink.NewRedis(client, cfg.RedisStream, 0)
		if err != nil {
			client.Close()
			return nil, nil, err
		}
		return s.Process, func() { client.Close() }, nil

	default:
		if cfg.Output == "" {
			return sink.Writer(out, cfg.Separator), func() {}, nil
		}
		f, err := os.OpenFile(cfg.Output, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
		if err != nil {
			return nil, nil, fmt.Errorf("open output: %w", err)
		}
		return sink.Writer(f, cfg.Separator), func() { f.Close() }, nil
	}
}

// openInput returns stdin for "" or "-", otherwise the named file.
func openInput(path string, stdin io.Reader) (io.Reader, func(), error) {
	if path == "" || path == "-" {
		return stdin, func() {}, nil
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, nil, fmt.Errorf("open input: %w", err)
	}
	return f, func() { f.Close() }, nil
}
