package net_test

import (
	"fmt"
	"path/filepath"
	"testing"

	zmq "github.com/pebbe/zmq4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/chazu/sabot/actions"
	"github.com/chazu/sabot/net"
	"github.com/chazu/sabot/universe"
)

type client struct {
	socket *zmq.Socket
}

func newClient(t *testing.T, endpoint string) *client {
	t.Helper()
	socket, err := zmq.NewSocket(zmq.REQ)
	require.NoError(t, err)
	t.Cleanup(func() { socket.Close() })
	require.NoError(t, socket.Connect(endpoint))
	return &client{socket: socket}
}

// call sends a null-terminated request body and returns the reply.
func (c *client) call(t *testing.T, body string) string {
	t.Helper()
	_, err := c.socket.SendBytes(append([]byte(body), 0), 0)
	require.NoError(t, err)
	reply, err := c.socket.RecvBytes(0)
	require.NoError(t, err)
	return string(reply)
}

func startServer(t *testing.T, seed uint64, workers int) (string, *net.Server) {
	t.Helper()
	u, err := universe.New(universe.Config{Seed: &seed})
	require.NoError(t, err)
	dispatch, err := actions.NewDispatcher(u)
	require.NoError(t, err)

	endpoint := "ipc://" + filepath.Join(t.TempDir(), "sabot.sock")
	server := net.NewServer(endpoint, dispatch)
	require.NoError(t, server.Listen(workers))
	t.Cleanup(func() { server.Stop() })
	return endpoint, server
}

func TestWorkerCountBounds(t *testing.T) {
	server := net.NewServer("ipc:///tmp/unused.sock", nil)
	assert.ErrorIs(t, server.Listen(0), net.ErrWorkerCount)
	assert.ErrorIs(t, server.Listen(17), net.ErrWorkerCount)
}

func TestServerRoundTrip(t *testing.T) {
	endpoint, _ := startServer(t, 7, 2)
	c := newClient(t, endpoint)

	assert.Equal(t, `{"result":1}`,
		c.call(t, `{"method":"create_system","parameters":["chp_state"]}`))
	assert.Equal(t, `{"result":"10"}`,
		c.call(t, `{"method":"compute_result","parameters":[1,"chpext","init 2\nx 0\nm 0\nm 1",10]}`))
}

func TestServerEntangledPair(t *testing.T) {
	endpoint, _ := startServer(t, 21, 4)
	c := newClient(t, endpoint)

	require.Equal(t, `{"result":1}`,
		c.call(t, `{"method":"create_system","parameters":["chp_state"]}`))

	for i := 0; i < 20; i++ {
		reply := c.call(t, `{"method":"compute_result","parameters":[1,"chpext","init 2\nh 0\nc 0,1\nm 0\nm 1",10]}`)
		switch reply {
		case `{"result":"00"}`, `{"result":"11"}`:
		default:
			t.Fatalf("uncorrelated outcome %q", reply)
		}
	}
}

func TestServerErrors(t *testing.T) {
	endpoint, _ := startServer(t, 1, 1)
	c := newClient(t, endpoint)

	// No terminator.
	_, err := c.socket.SendBytes([]byte(`{"method":"create_kernel","parameters":[]}`), 0)
	require.NoError(t, err)
	reply, err := c.socket.RecvBytes(0)
	require.NoError(t, err)
	assert.Equal(t, `{"error":true,"result":"missing null terminator"}`, string(reply))

	assert.Contains(t, c.call(t, `not json`), "bad values")
	assert.Contains(t, c.call(t, `{"method":"no_such","parameters":[]}`), "type not found by name")
	assert.Contains(t, c.call(t, `{"method":"create_kernel","parameters":[1]}`), "type not found by name")
}

func TestServerKernelFlow(t *testing.T) {
	endpoint, _ := startServer(t, 5, 2)
	c := newClient(t, endpoint)

	require.Equal(t, `{"result":1}`, c.call(t, `{"method":"create_kernel","parameters":[]}`))
	require.Equal(t, `{"result":1}`,
		c.call(t, `{"method":"compile_macro","parameters":[1,"chpext","x 0\nc 0,1",10]}`))
	require.Equal(t, `{"result":1}`,
		c.call(t, `{"method":"create_system","parameters":["chp_state"]}`))

	reply := c.call(t, fmt.Sprintf(
		`{"method":"compute_result","parameters":[1,"chpext","init 2\nmacro %d,%d\nm 0\nm 1",10]}`, 1, 1))
	assert.Equal(t, `{"result":"11"}`, reply)
}

func TestServerConcurrentClients(t *testing.T) {
	endpoint, _ := startServer(t, 13, 4)

	done := make(chan string, 4)
	for i := 0; i < 4; i++ {
		go func() {
			socket, err := zmq.NewSocket(zmq.REQ)
			if err != nil {
				done <- err.Error()
				return
			}
			defer socket.Close()
			if err := socket.Connect(endpoint); err != nil {
				done <- err.Error()
				return
			}
			for j := 0; j < 10; j++ {
				if _, err := socket.SendBytes(append([]byte(`{"method":"create_kernel","parameters":[]}`), 0), 0); err != nil {
					done <- err.Error()
					return
				}
				if _, err := socket.RecvBytes(0); err != nil {
					done <- err.Error()
					return
				}
			}
			done <- ""
		}()
	}
	for i := 0; i < 4; i++ {
		assert.Empty(t, <-done)
	}
}

func TestServerRestart(t *testing.T) {
	endpoint, server := startServer(t, 2, 1)

	c := newClient(t, endpoint)
	require.Equal(t, `{"result":1}`, c.call(t, `{"method":"create_kernel","parameters":[]}`))

	require.NoError(t, server.Stop())
	require.NoError(t, server.Stop())

	require.NoError(t, server.Listen(1))
	c2 := newClient(t, endpoint)
	assert.Equal(t, `{"result":2}`, c2.call(t, `{"method":"create_kernel","parameters":[]}`))
	require.NoError(t, server.Stop())
}
