package broker

import (
	"errors"
	"time"
)

var ErrMalformedTopic = errors.New("malformed topic")

const (
	ReportDirection = "R"
	WriteDirection  = "W"
	topicSeparator  = "/"
	singleLevel     = "+"
	multiLevel      = "#"
)

const (
	DefaultClientID       = "RFLinkGateway"
	DefaultKeepAlive      = 120 * time.Second
	DefaultPublishTimeout = 3 * time.Second
	DefaultRetryInterval  = time.Second
	disconnectQuiesce     = 250
)
