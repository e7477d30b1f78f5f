package net

import (
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"syscall"
	"time"

	"github.com/google/uuid"
	zmq "github.com/pebbe/zmq4"
	"github.com/tliron/commonlog"
	"github.com/valyala/fastjson"
	"gopkg.in/tomb.v2"
)

const (
	// MaxWorkers bounds the worker pool size.
	MaxWorkers = 16

	workersEndpoint = "inproc://workers"
	controlEndpoint = "inproc://control"
	terminateFrame  = "TERMINATE"

	receiveTimeout = 1000 * time.Millisecond
	sendTimeout    = 250 * time.Millisecond
)

var (
	// ErrWorkerCount is returned when Listen is asked for more workers
	// than the pool allows.
	ErrWorkerCount = errors.New("array bounds exceeded")

	// ErrMissingTerminator is returned when a message does not end
	// with a null byte.
	ErrMissingTerminator = errors.New("missing null terminator")
)

// Dispatcher turns a parsed request into a response. Handler failures
// surface as error responses, never as a missing reply.
type Dispatcher interface {
	Dispatch(req *Request) *Response
}

// Server accepts null-terminated JSON requests over a ZeroMQ router
// socket and fans them out to a worker pool over inproc pipes.
type Server struct {
	endpoint string
	dispatch Dispatcher

	mu      sync.Mutex
	running bool
	doExit  atomic.Bool

	ctx     *zmq.Context
	clients *zmq.Socket
	workers *zmq.Socket
	control *zmq.Socket
	tmb     *tomb.Tomb

	log commonlog.Logger
}

// NewServer builds a server bound to nothing yet.
func NewServer(endpoint string, dispatch Dispatcher) *Server {
	return &Server{
		endpoint: endpoint,
		dispatch: dispatch,
		log:      commonlog.GetLogger("sabot.net"),
	}
}

// Listen binds the endpoint and starts workerCount workers. It
// returns once the sockets are up; call Stop to shut down. Listening
// twice without an intervening Stop is a no-op.
func (s *Server) Listen(workerCount int) error {
	if workerCount < 1 || workerCount > MaxWorkers {
		return fmt.Errorf("worker count %d: %w", workerCount, ErrWorkerCount)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.running {
		return nil
	}

	ctx, err := zmq.NewContext()
	if err != nil {
		return err
	}

	clients, err := bind(ctx, zmq.ROUTER, s.endpoint)
	if err != nil {
		ctx.Term()
		return err
	}
	workers, err := bind(ctx, zmq.DEALER, workersEndpoint)
	if err != nil {
		clients.Close()
		ctx.Term()
		return err
	}
	control, err := bind(ctx, zmq.PUB, controlEndpoint)
	if err != nil {
		clients.Close()
		workers.Close()
		ctx.Term()
		return err
	}

	s.ctx = ctx
	s.clients = clients
	s.workers = workers
	s.control = control
	s.doExit.Store(false)
	s.tmb = new(tomb.Tomb)

	for i := 0; i < workerCount; i++ {
		id := i
		s.tmb.Go(func() error { return s.worker(id) })
	}
	s.tmb.Go(s.proxy)

	s.running = true
	s.log.Infof("listening on %s, workers=%d", s.endpoint, workerCount)
	return nil
}

// Stop steers the proxy down, drains the workers, and releases the
// sockets. Stopping a stopped server is a no-op. The server can
// listen again afterwards.
func (s *Server) Stop() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.running {
		return nil
	}

	s.doExit.Store(true)
	if _, err := s.control.SendBytes([]byte(terminateFrame), 0); err != nil {
		s.log.Errorf("control send: %s", err.Error())
	}

	s.tmb.Kill(nil)
	err := s.tmb.Wait()
	if err != nil && zmq.AsErrno(err) != zmq.ETERM {
		s.log.Errorf("worker exit: %s", err.Error())
	}

	s.control.Close()
	s.workers.Close()
	s.clients.Close()
	s.ctx.Term()

	s.ctx = nil
	s.clients = nil
	s.workers = nil
	s.control = nil
	s.tmb = nil
	s.running = false
	s.log.Info("stopped")
	return nil
}

func bind(ctx *zmq.Context, kind zmq.Type, endpoint string) (*zmq.Socket, error) {
	socket, err := ctx.NewSocket(kind)
	if err != nil {
		return nil, err
	}
	if err := socket.Bind(endpoint); err != nil {
		socket.Close()
		return nil, err
	}
	return socket, nil
}

// proxy shovels frames between the router and the dealer until the
// control socket publishes the terminate frame.
func (s *Server) proxy() error {
	sub, err := s.ctx.NewSocket(zmq.SUB)
	if err != nil {
		return err
	}
	defer sub.Close()
	if err := sub.SetSubscribe(""); err != nil {
		return err
	}
	if err := sub.Connect(controlEndpoint); err != nil {
		return err
	}

	err = zmq.ProxySteerable(s.clients, s.workers, nil, sub)
	if err != nil && zmq.AsErrno(err) != zmq.ETERM {
		return err
	}
	return nil
}

// worker answers requests on its own reply socket until told to exit.
func (s *Server) worker(id int) error {
	socket, err := s.ctx.NewSocket(zmq.REP)
	if err != nil {
		return err
	}
	defer socket.Close()
	if err := socket.SetRcvtimeo(receiveTimeout); err != nil {
		return err
	}
	if err := socket.SetSndtimeo(sendTimeout); err != nil {
		return err
	}
	if err := socket.Connect(workersEndpoint); err != nil {
		return err
	}

	log := commonlog.GetLogger(fmt.Sprintf("sabot.net.worker.%d", id))
	var parser fastjson.Parser

	for !s.doExit.Load() {
		select {
		case <-s.tmb.Dying():
			return nil
		default:
		}

		message, err := socket.RecvBytes(0)
		if err != nil {
			switch zmq.AsErrno(err) {
			case zmq.Errno(syscall.EAGAIN): // receive timed out
				continue
			case zmq.ETERM:
				return nil
			}
			return err
		}

		response := s.answer(&parser, message, log)
		if _, err := socket.SendBytes(response.JSON(), 0); err != nil {
			if zmq.AsErrno(err) == zmq.ETERM {
				return nil
			}
			log.Errorf("send: %s", err.Error())
		}
	}
	return nil
}

// answer parses and dispatches one message.
func (s *Server) answer(parser *fastjson.Parser, message []byte, log commonlog.Logger) *Response {
	if len(message) == 0 || message[len(message)-1] != 0 {
		return ErrorResponse(ErrMissingTerminator.Error())
	}

	request, err := ParseRequest(parser, message[:len(message)-1])
	if err != nil {
		log.Errorf("parse: %s", err.Error())
		return ErrorResponse(err.Error())
	}

	trace := uuid.NewString()
	log.Debugf("request %s: method=%s parameters=%d", trace, request.Method(), request.ParameterCount())
	response := s.dispatch.Dispatch(request)
	log.Debugf("request %s: answered %d bytes", trace, len(response.JSON()))
	return response
}
