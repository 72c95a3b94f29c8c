package gateway

import "rflinkgateway/pkg/runtime"

type GatewayMeta struct {
	runtime.ObjectMeta
	Prefix          string               `json:"prefix,omitempty"`
	IgnoredDevices  []string             `json:"ignoredDevices,omitempty"`
	Links           []runtime.LinkStatus `json:"links"`
	PendingEvents   int                  `json:"pendingEvents"`
	PendingCommands int                  `json:"pendingCommands"`
}

type ResponseModel struct {
	Cpus     interface{} `json:"cpus,omitempty"`
	Mem      interface{} `json:"mem,omitempty"`
	Disks    interface{} `json:"disk,omitempty"`
	Accepted int         `json:"accepted,omitempty"`
}

type MemUsageInfo struct {
	Total       string `json:"total"`
	Used        string `json:"used"`
	UsedPercent string `json:"usedPercent"`
}

type DiskUsageInfo struct {
	Path        string `json:"path"`
	Total       string `json:"total"`
	Used        string `json:"used"`
	UsedPercent string `json:"usedPercent"`
}

const defaultName = "rflinkgateway"
