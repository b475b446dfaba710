package api

import (
	"crypto/rand"
	"net/http"
	"sync"

	"github.com/oklog/ulid/v2"
	"github.com/rs/zerolog"

	"ltp.dev/ltpgo/logger"
)

var defaultLogger = logger.NewLogger("API")

type endpointLoggerFields struct {
	Method string `json:"method"`
	Url    string `json:"url"`
}

const (
	RequestInfoFieldsKey = "request_info"
	RequestIdHeader      = "X-Request-Id"
)

type idGenerator struct {
	mu      sync.Mutex
	entropy *ulid.MonotonicEntropy
}

func newIdGenerator() *idGenerator {
	return &idGenerator{entropy: ulid.Monotonic(rand.Reader, 0)}
}

func (g *idGenerator) next() string {
	g.mu.Lock()
	defer g.mu.Unlock()
	return ulid.MustNew(ulid.Now(), g.entropy).String()
}

func makeRequestLogger(base zerolog.Logger, request *http.Request, requestId string) zerolog.Logger {
	fields := endpointLoggerFields{
		Method: request.Method,
		Url:    request.URL.String(),
	}
	return base.
		With().
		Str("request_id", requestId).
		Interface(RequestInfoFieldsKey, fields).
		Logger()
}
