package web

import (
	"context"
	"crypto/tls"
	"github.com/gin-gonic/gin"
	"k8s.io/klog/v2"
	"net/http"
	"rflinkgateway/cmd/gateway/config"
	"rflinkgateway/cmd/gateway/options"
	"rflinkgateway/pkg/apis"
	"rflinkgateway/pkg/gateway"
	"rflinkgateway/pkg/generic"
)

type Server struct {
	*generic.Server
	*config.Config
}

func NewServer(router *gin.Engine, o *options.Options, config *config.Config) (*Server, error) {
	server := &Server{
		Server: &generic.Server{
			Router: router,
			Port:   o.Port,
		},
		Config: config,
	}

	server.InstallHandlers()

	return server, nil
}

func (s *Server) InstallHandlers() {
	v1 := s.Router.Group(apis.APIVersion)
	gateway.InstallHandler(v1, s.Config.GatewayMgr)
}

// Serve starts the gateway links and, unless no port is configured, the HTTP API.
// The returned function stops both.
func (s *Server) Serve(ctx context.Context) (func(ctx context.Context), error) {
	var srv *http.Server
	if s.Enabled() {
		srv = &http.Server{
			Addr:    s.Addr(),
			Handler: s.Router,
		}
		if len(s.Config.CertFile) != 0 && len(s.Config.KeyFile) != 0 {
			x509KeyPair, err := tls.LoadX509KeyPair(s.Config.CertFile, s.Config.KeyFile)
			if err != nil {
				return nil, err
			}
			srv.TLSConfig = &tls.Config{
				Certificates: []tls.Certificate{x509KeyPair},
			}
			go func() {
				if err := srv.ListenAndServeTLS("", ""); err != nil && err != http.ErrServerClosed {
					klog.ErrorS(err, "HTTP server stopped", "port", s.Port)
				}
			}()
		} else {
			go func() {
				if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
					klog.ErrorS(err, "HTTP server stopped", "port", s.Port)
				}
			}()
		}
	} else {
		klog.V(1).InfoS("HTTP API disabled")
	}

	s.Config.GatewayMgr.Run(ctx)

	return func(ctx context.Context) {
		if srv != nil {
			srv.SetKeepAlivesEnabled(false)
			if err := srv.Shutdown(ctx); err != nil {
				klog.ErrorS(err, "Failed to shutdown HTTP server")
			}
		}
		if err := s.Config.GatewayMgr.Shutdown(ctx); err != nil {
			klog.ErrorS(err, "Failed to shutdown gateway")
		}
	}, nil
}
