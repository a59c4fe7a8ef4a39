package rpc

import (
	"context"
	"encoding/json"
	"net"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/pkg/errors"
	"github.com/smartcash/smartrewardsd/app/appmessage"
)

// SmartRewardsPath is the route the query server answers smartrewards
// requests on.
const SmartRewardsPath = "/smartrewards"

const shutdownTimeout = 5 * time.Second

// Envelope is the body of every query server response. Result holds the
// JSON encoded result of a successful request.
type Envelope struct {
	Result json.RawMessage      `json:"result,omitempty"`
	Error  *appmessage.RPCError `json:"error,omitempty"`
}

// Server answers smartrewards queries of the running sync daemon over HTTP
type Server struct {
	manager    *Manager
	router     *gin.Engine
	httpServer *http.Server
	listener   net.Listener
}

// NewServer creates a query server listening on listen once started
func NewServer(listen string, manager *Manager) *Server {
	gin.SetMode(gin.ReleaseMode)
	router := gin.New()
	router.Use(gin.Recovery())

	s := &Server{
		manager: manager,
		router:  router,
		httpServer: &http.Server{
			Addr:         listen,
			Handler:      router,
			ReadTimeout:  10 * time.Second,
			WriteTimeout: 30 * time.Second,
			IdleTimeout:  60 * time.Second,
		},
	}
	router.POST(SmartRewardsPath, s.handleSmartRewards)
	return s
}

// Handler returns the HTTP handler of the server
func (s *Server) Handler() http.Handler {
	return s.router
}

// Start binds the listen address and serves requests in the background
func (s *Server) Start() error {
	listener, err := net.Listen("tcp", s.httpServer.Addr)
	if err != nil {
		return errors.Wrapf(err, "failed to listen on %s", s.httpServer.Addr)
	}
	s.listener = listener
	log.Infof("Query server listening on %s", listener.Addr())

	spawn(func() {
		err := s.httpServer.Serve(listener)
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Errorf("Query server stopped: %s", err)
		}
	})
	return nil
}

// Address returns the address the server listens on. It is only valid
// after Start.
func (s *Server) Address() string {
	return s.listener.Addr().String()
}

// Stop stops accepting requests and waits for the running ones to finish
func (s *Server) Stop() error {
	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	return errors.WithStack(s.httpServer.Shutdown(ctx))
}

func (s *Server) handleSmartRewards(c *gin.Context) {
	request := &appmessage.SmartRewardsRequestMessage{}
	err := c.ShouldBindJSON(request)
	if err != nil {
		c.JSON(http.StatusBadRequest, Envelope{
			Error: appmessage.RPCErrorf(appmessage.RPCErrorInvalidArgument, "Malformed request: %s", err),
		})
		return
	}

	response, err := s.manager.HandleRequest(request)
	if err != nil {
		log.Errorf("smartrewards %s failed: %+v", request.SubCommand, err)
		c.JSON(http.StatusInternalServerError, Envelope{
			Error: appmessage.RPCErrorf(appmessage.RPCErrorDatabase, "Couldn't fetch the list from the database."),
		})
		return
	}

	envelope, err := NewEnvelope(response.(*appmessage.SmartRewardsResponseMessage))
	if err != nil {
		log.Errorf("Failed to encode the smartrewards %s result: %+v", request.SubCommand, err)
		c.Status(http.StatusInternalServerError)
		return
	}
	c.JSON(http.StatusOK, envelope)
}

// NewEnvelope wraps the result or the error carried by response
func NewEnvelope(response *appmessage.SmartRewardsResponseMessage) (*Envelope, error) {
	if response.Error != nil {
		return &Envelope{Error: response.Error}, nil
	}
	result, err := json.Marshal(response.Result())
	if err != nil {
		return nil, errors.WithStack(err)
	}
	return &Envelope{Result: result}, nil
}
