package main

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"screen-translate/src/singleinstance"
)

type scriptedClient struct {
	mu   sync.Mutex
	seen []string
}

func (c *scriptedClient) Translate(_ context.Context, req singleinstance.Request) (bool, string, error) {
	c.mu.Lock()
	c.seen = append(c.seen, req.Text)
	n := len(c.seen)
	c.mu.Unlock()
	switch n % 4 {
	case 0:
		return true, "", errors.New("Busy, please retry")
	case 1:
		return true, "ok", nil
	case 2:
		return true, "", errors.New("Network request failed: timeout")
	default:
		return false, "", nil
	}
}

func TestNewRootCmdDefaults(t *testing.T) {
	opts := &stressOptions{}
	cmd := newRootCmd(opts, &bytes.Buffer{}, nil)
	require.NoError(t, cmd.ParseFlags([]string{}))
	assert.Equal(t, 50, opts.n)
	assert.Equal(t, "Hello, world", opts.text)
	assert.False(t, opts.distinct)
	assert.Equal(t, 5*time.Second, opts.deadline)
}

func TestNewRootCmdCustomFlags(t *testing.T) {
	opts := &stressOptions{}
	cmd := newRootCmd(opts, &bytes.Buffer{}, nil)
	require.NoError(t, cmd.ParseFlags([]string{"--n", "3", "--to", "ja", "--distinct", "--deadline", "7s"}))
	assert.Equal(t, 3, opts.n)
	assert.Equal(t, "ja", opts.to)
	assert.True(t, opts.distinct)
	assert.Equal(t, 7*time.Second, opts.deadline)
}

func TestRunCountsOutcomes(t *testing.T) {
	client := &scriptedClient{}
	var out bytes.Buffer
	cmd := newRootCmd(&stressOptions{}, &out, func() singleinstance.Client { return client })
	cmd.SetArgs([]string{"--n", "8", "--distinct"})

	require.NoError(t, cmd.Execute())

	assert.True(t, strings.HasPrefix(out.String(), "launched=8 ok=2 busy=2 err=2 no-resident=2 "), out.String())
	assert.Len(t, client.seen, 8)
	assert.Contains(t, client.seen, "Hello, world #7")
}
