package oracle

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/yungbote/groupbuy-settlement/internal/pkg/httpx"
	"github.com/yungbote/groupbuy-settlement/internal/pkg/logger"
)

type HTTPConfig struct {
	BaseURL    string
	APIKey     string
	Timeout    time.Duration
	MaxRetries int
}

type httpOracle struct {
	log     *logger.Logger
	baseURL string
	caller  *httpx.JSONCaller
}

// NewHTTPOracle returns an Oracle that posts requests to a remote disclosure service.
func NewHTTPOracle(cfg HTTPConfig, log *logger.Logger) (Oracle, error) {
	if log == nil {
		return nil, fmt.Errorf("logger required")
	}
	base := strings.TrimRight(strings.TrimSpace(cfg.BaseURL), "/")
	if base == "" {
		return nil, fmt.Errorf("missing oracle base url")
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	header := http.Header{}
	if key := strings.TrimSpace(cfg.APIKey); key != "" {
		header.Set("Authorization", "Bearer "+key)
	}
	l := log.With("client", "OracleHTTP")
	return &httpOracle{
		log:     l,
		baseURL: base,
		caller: &httpx.JSONCaller{
			Client:     &http.Client{Timeout: timeout},
			Log:        l,
			MaxRetries: cfg.MaxRetries,
			Header:     header,
		},
	}, nil
}

type disclosureRequestBody struct {
	OrderID     uint64    `json:"order_id"`
	Handles     []string  `json:"handles"`
	Requester   string    `json:"requester"`
	CallbackURL string    `json:"callback_url"`
	Deadline    time.Time `json:"deadline"`
}

type disclosureResponseBody struct {
	RequestID string `json:"request_id"`
}

func (o *httpOracle) RequestDisclosure(ctx context.Context, req Request) (string, error) {
	if len(req.Handles) == 0 || len(req.Handles) > MaxHandles {
		return "", fmt.Errorf("oracle request carries %d handles", len(req.Handles))
	}
	body := disclosureRequestBody{
		OrderID:     req.OrderID,
		Requester:   req.Requester,
		CallbackURL: req.CallbackURL,
		Deadline:    req.Deadline.UTC(),
	}
	for _, h := range req.Handles {
		body.Handles = append(body.Handles, h.String())
	}
	var out disclosureResponseBody
	if err := o.caller.Do(ctx, http.MethodPost, o.baseURL+"/v1/disclosures", body, &out); err != nil {
		return "", err
	}
	id := strings.TrimSpace(out.RequestID)
	if id == "" {
		return "", fmt.Errorf("oracle returned empty request id")
	}
	o.log.Debug("disclosure requested", "order_id", req.OrderID, "request_id", id)
	return id, nil
}
