package pipeline

import (
	"github.com/ternarybob/arbor"

	"github.com/ternarybob/finfetch/internal/common"
	"github.com/ternarybob/finfetch/internal/transport"
)

func transportClient(cfg common.FetchConfig, logger arbor.ILogger) *transport.Client {
	return transport.NewClient(
		transport.WithTimeout(cfg.Timeout),
		transport.WithProxies(cfg.Proxies),
		transport.WithLogger(logger),
	)
}

func newSession(cfg common.FetchConfig, logger arbor.ILogger) (*transport.Session, error) {
	return transport.NewSession(cfg.Timeout, logger)
}
