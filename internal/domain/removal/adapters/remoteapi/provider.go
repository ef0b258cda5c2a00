package remoteapi

import (
	"bytes"
	"context"
	"encoding/base64"
	"fmt"
	"net/http"
	"time"

	"github.com/bytedance/sonic"
	"github.com/go-resty/resty/v2"

	"photopipe-server-go/internal/domain/artifact"
	"photopipe-server-go/internal/platform/config"
	"photopipe-server-go/internal/platform/errors"
	"photopipe-server-go/internal/platform/logging"
)

// Provider delegates background removal to a hosted inference API.
// The image is shipped as PNG multipart and the cutout comes back as
// base64 PNG in a JSON envelope.
type Provider struct {
	cfg    config.ModelConfig
	logger *logging.Logger
	client *resty.Client
}

type removeResponse struct {
	Image string `json:"image"`
	Error string `json:"error,omitempty"`
}

func NewProvider(cfg config.ModelConfig, logger *logging.Logger) (*Provider, error) {
	if cfg.Endpoint == "" {
		return nil, errors.New(errors.KindConfig, "removal.remoteapi", "endpoint is required")
	}

	client := resty.New()
	if cfg.Timeout > 0 {
		client.SetTimeout(cfg.Timeout)
	} else {
		client.SetTimeout(30 * time.Second)
	}
	if cfg.APIKey != "" {
		client.SetHeader("Authorization", "Bearer "+cfg.APIKey)
	}

	return &Provider{cfg: cfg, logger: logger, client: client}, nil
}

func (p *Provider) RemoveBackground(ctx context.Context, in *artifact.Artifact) (*artifact.Artifact, error) {
	payload, err := in.EncodePNG()
	if err != nil {
		return nil, errors.Wrap(errors.KindBackendError, "removal.remoteapi", "encode request image", err)
	}

	resp, err := p.client.R().
		SetContext(ctx).
		SetFileReader("image", "input.png", bytes.NewReader(payload)).
		Post(p.cfg.Endpoint)
	if err != nil {
		if ctx.Err() != nil {
			return nil, errors.Wrap(errors.KindBackendTimeout, "removal.remoteapi", "request cancelled", err)
		}
		return nil, errors.Wrap(errors.KindBackendUnavailable, "removal.remoteapi", "request failed", err)
	}

	switch {
	case resp.StatusCode() == http.StatusOK:
	case resp.StatusCode() == http.StatusTooManyRequests || resp.StatusCode() == http.StatusServiceUnavailable:
		return nil, errors.New(errors.KindBackendUnavailable, "removal.remoteapi",
			fmt.Sprintf("service refused request: HTTP %d", resp.StatusCode()))
	case resp.StatusCode() == http.StatusGatewayTimeout:
		return nil, errors.New(errors.KindBackendTimeout, "removal.remoteapi", "upstream inference timed out")
	default:
		return nil, errors.New(errors.KindBackendError, "removal.remoteapi",
			fmt.Sprintf("unexpected status: HTTP %d", resp.StatusCode()))
	}

	var parsed removeResponse
	if err := sonic.Unmarshal(resp.Body(), &parsed); err != nil {
		return nil, errors.Wrap(errors.KindBackendError, "removal.remoteapi", "parse response", err)
	}
	if parsed.Error != "" {
		return nil, errors.New(errors.KindBackendError, "removal.remoteapi", parsed.Error)
	}

	decoded, err := base64.StdEncoding.DecodeString(parsed.Image)
	if err != nil {
		return nil, errors.Wrap(errors.KindBackendError, "removal.remoteapi", "decode response image", err)
	}
	out, err := artifact.Decode(decoded)
	if err != nil {
		return nil, errors.Wrap(errors.KindBackendError, "removal.remoteapi", "invalid response image", err)
	}
	out.Mode = artifact.ModeRGBA
	return out, nil
}
