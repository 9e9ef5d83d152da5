package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/spf13/cobra"

	"screen-translate/src/singleinstance"
)

type stressOptions struct {
	n        int
	text     string
	to       string
	distinct bool
	deadline time.Duration
}

type stressReport struct {
	launched   int
	ok         int32
	busy       int32
	failed     int32
	noResident int32
	elapsed    time.Duration
}

func (r stressReport) String() string {
	return fmt.Sprintf("launched=%d ok=%d busy=%d err=%d no-resident=%d elapsed=%s",
		r.launched, r.ok, r.busy, r.failed, r.noResident, r.elapsed)
}

func main() {
	opts := &stressOptions{}
	cmd := newRootCmd(opts, os.Stdout, singleinstance.NewClient)
	if err := cmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func newRootCmd(opts *stressOptions, out io.Writer, newClient func() singleinstance.Client) *cobra.Command {
	cmd := &cobra.Command{
		Use:           "stress-translate",
		Short:         "Fire concurrent translation requests at the running resident",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			fmt.Fprintln(out, runWithOptions(*opts, newClient))
			return nil
		},
	}

	cmd.Flags().IntVar(&opts.n, "n", 50, "number of concurrent clients")
	cmd.Flags().StringVar(&opts.text, "text", "Hello, world", "text each client translates")
	cmd.Flags().StringVar(&opts.to, "to", "", "target language (default: resident's setting)")
	cmd.Flags().BoolVar(&opts.distinct, "distinct", false, "suffix each request so none hit the cache")
	cmd.Flags().DurationVar(&opts.deadline, "deadline", 5*time.Second, "per-client timeout")

	return cmd
}

func runWithOptions(opts stressOptions, newClient func() singleinstance.Client) stressReport {
	var wg sync.WaitGroup
	report := stressReport{launched: opts.n}

	start := time.Now()
	for i := 0; i < opts.n; i++ {
		text := opts.text
		if opts.distinct {
			text = fmt.Sprintf("%s #%d", opts.text, i)
		}
		wg.Add(1)
		go func() {
			defer wg.Done()
			ctx, cancel := context.WithTimeout(context.Background(), opts.deadline)
			defer cancel()
			delegated, _, err := newClient().Translate(ctx, singleinstance.Request{Text: text, To: opts.to})
			switch {
			case err != nil && strings.Contains(strings.ToLower(err.Error()), "busy"):
				atomic.AddInt32(&report.busy, 1)
			case err != nil:
				atomic.AddInt32(&report.failed, 1)
			case !delegated:
				atomic.AddInt32(&report.noResident, 1)
			default:
				atomic.AddInt32(&report.ok, 1)
			}
		}()
	}
	wg.Wait()
	report.elapsed = time.Since(start)
	return report
}
