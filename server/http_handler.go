package server

import (
	"bytes"
	"io"
	"net/http"
	"strconv"
	"strings"

	"github.com/akmistry/go-util/bufferpool"
	prom "github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"golang.org/x/net/http2"
	"golang.org/x/net/http2/h2c"
	"golang.org/x/sync/semaphore"

	"github.com/akmistry/fixmem"
)

// Longest accepted PUT body: "0x" plus 16 hex digits, or 20 decimal digits.
const maxValueLength = 20

var (
	requestCounter = prom.NewCounterVec(prom.CounterOpts{
		Name: "fixmem_http_requests_total",
		Help: "Total number of fixmem HTTP requests.",
	}, []string{"code", "method"})
)

func init() {
	prom.MustRegister(requestCounter)
}

// Handler serves the words of a reserved region at /<offset>.
type Handler struct {
	h    *fixmem.Handle
	sema *semaphore.Weighted
}

func (h *Handler) ServeHTTP(resp http.ResponseWriter, req *http.Request) {
	if req.Method == "PING" {
		// Health-check method.
		resp.WriteHeader(http.StatusOK)
		return
	}
	if req.URL.Path == "/" {
		resp.WriteHeader(http.StatusNotFound)
		return
	}

	off, err := ParseOffset([]byte(strings.TrimPrefix(req.URL.Path, "/")))
	if err != nil {
		resp.WriteHeader(http.StatusBadRequest)
		io.WriteString(resp, err.Error())
		return
	}

	switch req.Method {
	case http.MethodHead:
		if off+wordSize <= h.h.Size() {
			resp.WriteHeader(http.StatusOK)
		} else {
			resp.WriteHeader(http.StatusNotFound)
		}
	case http.MethodGet:
		if err := h.sema.Acquire(req.Context(), 1); err != nil {
			resp.WriteHeader(http.StatusRequestTimeout)
			return
		}
		defer h.sema.Release(1)

		v, err := h.h.Uint64(off)
		if err != nil {
			resp.WriteHeader(http.StatusNotFound)
			return
		}
		body := strconv.FormatUint(v, 10)
		resp.Header().Add("Content-Length", strconv.Itoa(len(body)))
		io.WriteString(resp, body)
	case http.MethodPut:
		if req.ContentLength < 0 {
			resp.WriteHeader(http.StatusLengthRequired)
			return
		} else if req.ContentLength == 0 {
			resp.WriteHeader(http.StatusBadRequest)
			io.WriteString(resp, "Value empty")
			return
		} else if req.ContentLength > maxValueLength {
			resp.WriteHeader(http.StatusBadRequest)
			io.WriteString(resp, "Value too large")
			return
		}

		if err := h.sema.Acquire(req.Context(), 1); err != nil {
			resp.WriteHeader(http.StatusRequestTimeout)
			return
		}
		defer h.sema.Release(1)

		buf := bufferpool.GetUninit(int(req.ContentLength))
		defer bufferpool.Put(buf)
		*buf = (*buf)[:int(req.ContentLength)]
		if _, err := io.ReadFull(req.Body, *buf); err != nil {
			resp.WriteHeader(http.StatusExpectationFailed)
			io.WriteString(resp, "Content read size != Content-Length header")
			return
		}
		v, err := ParseValue(bytes.TrimSpace(*buf))
		if err != nil {
			resp.WriteHeader(http.StatusBadRequest)
			io.WriteString(resp, "Value is not an unsigned 64-bit integer")
			return
		}
		if err := h.h.SetUint64(off, v); err != nil {
			resp.WriteHeader(http.StatusNotFound)
			io.WriteString(resp, err.Error())
			return
		}
	case http.MethodDelete:
		if err := h.h.SetUint64(off, 0); err != nil {
			resp.WriteHeader(http.StatusNotFound)
			return
		}
	default:
		resp.WriteHeader(http.StatusMethodNotAllowed)
	}
}

func NewHandler(h *fixmem.Handle, maxConcurrentRequests int) http.Handler {
	return promhttp.InstrumentHandlerCounter(requestCounter, &Handler{
		h:    h,
		sema: semaphore.NewWeighted(int64(maxConcurrentRequests)),
	})
}

// NewHTTPServer serves handler over cleartext HTTP/2 (with HTTP/1.1
// fallback), which is what Client speaks.
func NewHTTPServer(addr string, handler http.Handler) *http.Server {
	return &http.Server{
		Addr:    addr,
		Handler: h2c.NewHandler(handler, &http2.Server{}),
	}
}
