// Package httpapi serves byte codebooks over HTTP: clients upload a sample to
// train a codebook, then encode and decode data with it by id.
package httpapi

import (
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/nemuru-pigeon/huffman"
	"github.com/nemuru-pigeon/huffman/bitstream"
	"github.com/nemuru-pigeon/huffman/codebook"
)

var errUnknownCodebook = errors.New("unknown codebook")

// Server routes codebook requests to a cache of trained models.
type Server struct {
	cache  *codebook.Cache[byte]
	logger *slog.Logger
	engine *gin.Engine
}

// New returns a Server backed by cache. Requests are logged to logger.
func New(cache *codebook.Cache[byte], logger *slog.Logger) *Server {
	s := &Server{cache: cache, logger: logger}

	r := gin.New()
	r.Use(gin.Recovery(), s.logRequests)
	v1 := r.Group("/v1")
	v1.POST("/codebooks", s.createCodebook)
	v1.GET("/codebooks/:id", s.getCodebook)
	v1.POST("/encode", s.encode)
	v1.POST("/decode", s.decode)
	s.engine = r
	return s
}

// Handler returns the HTTP handler of the server.
func (s *Server) Handler() http.Handler {
	return s.engine
}

func (s *Server) logRequests(c *gin.Context) {
	start := time.Now()
	c.Next()

	path := c.FullPath()
	if path == "" {
		path = c.Request.URL.Path
	}
	level := slog.LevelInfo
	if c.Writer.Status() >= http.StatusInternalServerError {
		level = slog.LevelError
	}
	s.logger.Log(c.Request.Context(), level, "request",
		"method", c.Request.Method,
		"path", path,
		"status", c.Writer.Status(),
		"elapsed", time.Since(start),
	)
}

func statusOf(err error) int {
	switch {
	case errors.Is(err, errUnknownCodebook):
		return http.StatusNotFound
	case errors.Is(err, huffman.ErrUnknownSymbol), errors.Is(err, huffman.ErrDecodeTreeMismatch):
		return http.StatusUnprocessableEntity
	case errors.Is(err, huffman.ErrEmptyAlphabet),
		errors.Is(err, bitstream.ErrInvalidLength),
		errors.Is(err, codebook.ErrInvalidID):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

func abort(c *gin.Context, status int, err error) {
	c.AbortWithStatusJSON(status, gin.H{"error": err.Error()})
}

func (s *Server) model(id string) (*huffman.Model[byte], error) {
	key, err := codebook.ParseID(id)
	if err != nil {
		return nil, err
	}
	m, ok := s.cache.Get(key)
	if !ok {
		return nil, errUnknownCodebook
	}
	return m, nil
}

func (s *Server) createCodebook(c *gin.Context) {
	var p struct {
		Sample []byte `json:"sample"`
		Fill   bool   `json:"fill"`
	}
	if err := c.ShouldBindJSON(&p); err != nil {
		abort(c, http.StatusBadRequest, err)
		return
	}

	var alphabet []byte
	if p.Fill {
		alphabet = huffman.ByteAlphabet()
	}
	id, m, err := s.cache.Train(p.Sample, alphabet)
	if err != nil {
		abort(c, statusOf(err), err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{
		"id":      codebook.FormatID(id),
		"symbols": m.TableSize(),
	})
}

func (s *Server) getCodebook(c *gin.Context) {
	m, err := s.model(c.Param("id"))
	if err != nil {
		abort(c, statusOf(err), err)
		return
	}
	codes := make(map[string]string, m.TableSize())
	for sym, code := range m.Codes() {
		codes[strconv.Itoa(int(sym))] = code.String()
	}
	c.JSON(http.StatusOK, gin.H{
		"id":      c.Param("id"),
		"symbols": m.TableSize(),
		"codes":   codes,
	})
}

func (s *Server) encode(c *gin.Context) {
	var p struct {
		Codebook string `json:"codebook"`
		Data     []byte `json:"data"`
	}
	if err := c.ShouldBindJSON(&p); err != nil {
		abort(c, http.StatusBadRequest, err)
		return
	}
	m, err := s.model(p.Codebook)
	if err != nil {
		abort(c, statusOf(err), err)
		return
	}
	bits, err := m.Encode(p.Data)
	if err != nil {
		abort(c, statusOf(err), err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"bits":       append([]byte{}, bits.Bytes()...),
		"bit_length": bits.Len(),
	})
}

func (s *Server) decode(c *gin.Context) {
	var p struct {
		Codebook  string `json:"codebook"`
		Bits      []byte `json:"bits"`
		BitLength int    `json:"bit_length"`
	}
	if err := c.ShouldBindJSON(&p); err != nil {
		abort(c, http.StatusBadRequest, err)
		return
	}
	m, err := s.model(p.Codebook)
	if err != nil {
		abort(c, statusOf(err), err)
		return
	}
	bits, err := bitstream.FromBytes(p.Bits, p.BitLength)
	if err != nil {
		abort(c, statusOf(err), err)
		return
	}
	res, err := m.DecodeAll(bits)
	if err != nil {
		abort(c, statusOf(err), err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"data":      append([]byte{}, res.Symbols...),
		"truncated": res.Truncated,
	})
}
