package main

import (
	"context"
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/cuemby/tagbridge/pkg/bridge"
	"github.com/cuemby/tagbridge/pkg/log"
	"github.com/cuemby/tagbridge/pkg/looper"
	"github.com/cuemby/tagbridge/pkg/member"
	"github.com/spf13/cobra"
)

// counter is the demo object: one field and one method, each bound under
// three tags so every thread mode can be shown.
type counter struct {
	Value int `bridge:"v;v.designated,mode=designated;v.worker,mode=worker"`

	mu sync.Mutex
}

func (c *counter) Increment() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.Value++
	return c.Value
}

func (c *counter) BridgeBindings() []member.Binding {
	return []member.Binding{
		{Member: "Increment", Tag: "inc"},
		{Member: "Increment", Tag: "inc.designated", Mode: member.Designated},
		{Member: "Increment", Tag: "inc.worker", Mode: member.Worker},
	}
}

// display subscribes to "reading" and prints what it receives.
type display struct {
	Name string
	out  io.Writer

	wg *sync.WaitGroup
}

func (d *display) Show(v any) {
	fmt.Fprintf(d.out, "  %s received %v\n", d.Name, v)
	d.wg.Done()
}

func (d *display) BridgeBindings() []member.Binding {
	return []member.Binding{{Member: "Show", Tag: "reading", Kind: member.Subscribe, Mode: member.Designated}}
}

var demoCmd = &cobra.Command{
	Use:   "demo",
	Short: "Run the counter scenario across all thread modes",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig(cmd)
		if err != nil {
			return err
		}
		log.Init(cfg.LogConfig())

		timeout, _ := cmd.Flags().GetDuration("timeout")
		return runDemo(cmd.Context(), cmd.OutOrStdout(), cfg.Workers, timeout)
	},
}

func init() {
	demoCmd.Flags().Duration("timeout", 5*time.Second, "Time to wait for each invocation")
}

func runDemo(ctx context.Context, out io.Writer, workers int, timeout time.Duration) error {
	if ctx == nil {
		ctx = context.Background()
	}

	loop := looper.New()
	loop.Start(ctx)
	defer loop.Stop()

	b := bridge.New(bridge.WithLooper(loop), bridge.WithWorkers(workers))
	defer b.Close()

	c := &counter{}
	if err := bridge.Mark(ctx, b, c); err != nil {
		return fmt.Errorf("failed to mark counter: %v", err)
	}

	fmt.Fprintln(out, "Counter scenario:")
	for _, suffix := range []string{"", ".designated", ".worker"} {
		mode := "caller"
		if suffix != "" {
			mode = suffix[1:]
		}

		if _, err := run(ctx, b, "inc"+suffix, timeout); err != nil {
			return err
		}
		v, err := run(ctx, b, "v"+suffix, timeout)
		if err != nil {
			return err
		}
		fmt.Fprintf(out, "  %-10s inc -> v = %v\n", mode, v)
	}

	fmt.Fprintln(out, "Publish with catch-up:")
	var wg sync.WaitGroup
	wg.Add(2)
	first := &display{Name: "first", out: out, wg: &wg}
	if err := bridge.Mark(ctx, b, first); err != nil {
		return err
	}
	b.PublishAndCache(ctx, "reading", true, 21.5)

	late := &display{Name: "late", out: out, wg: &wg}
	if err := bridge.Mark(ctx, b, late); err != nil {
		return err
	}

	done := make(chan struct{})
	go func() {
		wg.Wait()
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(timeout):
		return fmt.Errorf("subscribers did not receive the publish within %s", timeout)
	}

	fmt.Fprintf(out, "Tags: %v\n", b.Tags())
	return nil
}

func run(ctx context.Context, b *bridge.Bridge, tag string, timeout time.Duration) (any, error) {
	f, ok := b.Run(ctx, tag)
	if !ok {
		return nil, fmt.Errorf("tag %q is not bound", tag)
	}
	v, err := f.AwaitTimeout(timeout)
	if err != nil {
		return nil, fmt.Errorf("run %s: %w", tag, err)
	}
	return v, nil
}
