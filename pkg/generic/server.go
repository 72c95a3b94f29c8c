package generic

import (
	"fmt"
	"github.com/gin-gonic/gin"
)

type Server struct {
	Router *gin.Engine
	// Port of the HTTP listener, empty when the API is disabled.
	Port string
}

func (s *Server) Enabled() bool {
	return len(s.Port) > 0
}

func (s *Server) Addr() string {
	return fmt.Sprintf(":%s", s.Port)
}
