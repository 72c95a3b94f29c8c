package config

import (
	"rflinkgateway/pkg/gateway"
)

type Config struct {
	GatewayMgr *gateway.Manager
	CertFile   string
	KeyFile    string
}
