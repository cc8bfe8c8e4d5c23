package batch_test

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/makomweb/request-batcher/pkg/batch"
)

func Example() {
	b, err := batch.NewSized(2, func(_ context.Context, req batch.Request[string]) (string, error) {
		return strings.Join(req.Items(), " "), nil
	})
	if err != nil {
		panic(err)
	}

	id, _ := b.Add("one")
	_, _ = b.Add("two")

	exec, err := b.Query(id)
	if err != nil {
		panic(err)
	}
	resp, err := exec.Wait(context.Background())
	if err != nil {
		panic(err)
	}

	fmt.Println(resp.Value())
	// Output: one two
}

func ExampleBatcher_Query() {
	b, _ := batch.NewSized(3, func(_ context.Context, req batch.Request[int]) (int, error) {
		return req.Len(), nil
	})

	id, _ := b.Add(1)
	_, err := b.Query(id)
	fmt.Println(errors.Is(err, batch.ErrWaitingForExecution))
	// Output: true
}
