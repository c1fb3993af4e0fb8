package adapters

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/url"
	"time"

	"leopards-connector/internal/core/logger"
	"leopards-connector/internal/core/proxy"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/launcher"
	"github.com/go-rod/rod/lib/proto"
	"go.uber.org/zap"
)

// renderTimeout bounds one HTML slip conversion, browser start included.
const renderTimeout = 60 * time.Second

// ErrInvalidLabelLink is returned for slip links that are not absolute http(s) URLs.
var ErrInvalidLabelLink = errors.New("invalid label link")

// RodLabelRenderer prints HTML slip pages to PDF with a headless Chromium.
type RodLabelRenderer struct {
	proxy  proxy.Settings
	logger *zap.Logger
}

// NewRodLabelRenderer creates a renderer. Traffic goes through a local forwarder when the proxy is enabled.
func NewRodLabelRenderer(settings proxy.Settings) *RodLabelRenderer {
	return &RodLabelRenderer{
		proxy:  settings,
		logger: logger.Named("labels.render"),
	}
}

// RenderPDF opens link and prints the page to PDF with backgrounds.
func (r *RodLabelRenderer) RenderPDF(ctx context.Context, link string) ([]byte, error) {
	u, err := url.Parse(link)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return nil, fmt.Errorf("%w: %q", ErrInvalidLabelLink, link)
	}

	ctx, cancel := context.WithTimeout(ctx, renderTimeout)
	defer cancel()

	l := launcher.New().
		Context(ctx).
		Headless(true).
		NoSandbox(true)

	if r.proxy.HasProxy() {
		fwd, err := proxy.NewForwardingProxy(r.proxy, u.Hostname())
		if err != nil {
			return nil, err
		}
		addr, err := fwd.Start(ctx)
		if err != nil {
			return nil, fmt.Errorf("failed to start forwarding proxy: %w", err)
		}
		defer fwd.Stop()

		l = l.Proxy(addr)
		r.logger.Debug("Browser configured with forwarding proxy", zap.String("upstream", r.proxy.HostPort()))
	}

	r.logger.Debug("Launching browser...", zap.String("host", u.Host))

	controlURL, err := l.Launch()
	if err != nil {
		return nil, fmt.Errorf("failed to launch browser: %w", err)
	}
	defer l.Kill()

	browser := rod.New().Context(ctx).ControlURL(controlURL)
	if err := browser.Connect(); err != nil {
		return nil, fmt.Errorf("failed to connect to browser: %w", err)
	}
	defer browser.Close()

	page, err := browser.Page(proto.TargetCreateTarget{URL: link})
	if err != nil {
		return nil, fmt.Errorf("failed to open label page: %w", err)
	}

	if err := page.WaitLoad(); err != nil {
		return nil, fmt.Errorf("failed to load label page: %w", err)
	}

	stream, err := page.PDF(&proto.PagePrintToPDF{PrintBackground: true})
	if err != nil {
		return nil, fmt.Errorf("failed to print label page: %w", err)
	}

	data, err := io.ReadAll(stream)
	if err != nil {
		return nil, fmt.Errorf("failed to read label pdf: %w", err)
	}

	r.logger.Info("Label rendered to PDF", zap.String("host", u.Host), zap.Int("size", len(data)))
	return data, nil
}
