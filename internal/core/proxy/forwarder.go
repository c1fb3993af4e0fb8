package proxy

import (
	"bufio"
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"net"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"leopards-connector/internal/core/logger"

	"github.com/elazarl/goproxy"
	"go.uber.org/zap"
)

// ErrProxyDisabled is returned when a forwarder is requested without proxy settings.
var ErrProxyDisabled = errors.New("proxy is not configured")

// ForwardingProxy is a local, credential-free proxy that tunnels every connection through an
// authenticated upstream proxy. Chromium cannot pass proxy credentials on its command line, so
// the headless label renderer points at this forwarder instead.
type ForwardingProxy struct {
	localPort    int
	upstreamURL  *url.URL
	allowedHosts map[string]bool
	server       *http.Server
	listener     net.Listener
	logger       *zap.Logger
	mu           sync.Mutex
	running      bool
}

// NewForwardingProxy creates a forwarder for the given settings.
// When allowedHosts is non-empty, requests to any other host are refused.
func NewForwardingProxy(settings Settings, allowedHosts ...string) (*ForwardingProxy, error) {
	if !settings.HasProxy() {
		return nil, ErrProxyDisabled
	}

	parsed, err := url.Parse(settings.FullURL())
	if err != nil {
		return nil, fmt.Errorf("invalid upstream proxy URL: %w", err)
	}

	allowed := make(map[string]bool, len(allowedHosts))
	for _, h := range allowedHosts {
		if h = strings.ToLower(strings.TrimSpace(h)); h != "" {
			allowed[h] = true
		}
	}

	return &ForwardingProxy{
		upstreamURL:  parsed,
		allowedHosts: allowed,
		logger:       logger.Named("proxy"),
	}, nil
}

// Start launches the local proxy server on a random available port and returns its address.
func (fp *ForwardingProxy) Start(ctx context.Context) (string, error) {
	fp.mu.Lock()
	defer fp.mu.Unlock()

	if fp.running {
		return fp.LocalAddr(), nil
	}

	proxy := goproxy.NewProxyHttpServer()

	var proxyAuth string
	if fp.upstreamURL.User != nil {
		username := fp.upstreamURL.User.Username()
		password, _ := fp.upstreamURL.User.Password()
		proxyAuth = "Basic " + base64.StdEncoding.EncodeToString([]byte(username+":"+password))
	}

	upstreamHost := fp.upstreamURL.Host
	log := fp.logger

	dialThroughProxy := func(ctx context.Context, network, addr string) (net.Conn, error) {
		log.Debug("Dialing through upstream proxy",
			zap.String("target", addr),
			zap.String("upstream", upstreamHost),
		)

		dialer := net.Dialer{Timeout: 30 * time.Second}
		conn, err := dialer.DialContext(ctx, "tcp", upstreamHost)
		if err != nil {
			return nil, fmt.Errorf("failed to connect to upstream proxy %s: %w", upstreamHost, err)
		}

		connectReq := fmt.Sprintf("CONNECT %s HTTP/1.1\r\nHost: %s\r\n", addr, addr)
		if proxyAuth != "" {
			connectReq += fmt.Sprintf("Proxy-Authorization: %s\r\n", proxyAuth)
		}
		connectReq += "\r\n"

		if _, err := conn.Write([]byte(connectReq)); err != nil {
			conn.Close()
			return nil, fmt.Errorf("failed to send CONNECT request: %w", err)
		}

		br := bufio.NewReader(conn)
		resp, err := http.ReadResponse(br, nil)
		if err != nil {
			conn.Close()
			return nil, fmt.Errorf("failed to read CONNECT response: %w", err)
		}
		resp.Body.Close()

		if resp.StatusCode != http.StatusOK {
			conn.Close()
			log.Error("Upstream proxy rejected CONNECT",
				zap.Int("status", resp.StatusCode),
				zap.String("target", addr),
			)
			return nil, fmt.Errorf("upstream proxy CONNECT failed with status: %d", resp.StatusCode)
		}

		return conn, nil
	}

	proxy.ConnectDial = func(network, addr string) (net.Conn, error) {
		return dialThroughProxy(context.Background(), network, addr)
	}
	proxy.Tr = &http.Transport{
		DialContext: dialThroughProxy,
	}

	if len(fp.allowedHosts) > 0 {
		blocked := goproxy.ReqConditionFunc(func(req *http.Request, _ *goproxy.ProxyCtx) bool {
			return !fp.hostAllowed(req.URL.Host)
		})
		proxy.OnRequest(blocked).HandleConnect(goproxy.AlwaysReject)
		proxy.OnRequest(blocked).DoFunc(func(r *http.Request, _ *goproxy.ProxyCtx) (*http.Request, *http.Response) {
			log.Warn("Refusing proxied request", zap.String("host", r.URL.Host))
			return r, goproxy.NewResponse(r, goproxy.ContentTypeText, http.StatusForbidden, "host not allowed")
		})
	}

	listener, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		return "", fmt.Errorf("failed to find available port: %w", err)
	}
	fp.listener = listener
	fp.localPort = listener.Addr().(*net.TCPAddr).Port

	fp.server = &http.Server{
		Handler:           proxy,
		ReadHeaderTimeout: 10 * time.Second,
	}

	fp.logger.Debug("Starting local proxy forwarder",
		zap.String("local_addr", fp.LocalAddr()),
		zap.String("upstream", upstreamHost),
	)

	go func() {
		if err := fp.server.Serve(listener); err != nil && !errors.Is(err, http.ErrServerClosed) {
			fp.logger.Error("Local proxy server error", zap.Error(err))
		}
	}()

	fp.running = true
	return fp.LocalAddr(), nil
}

// hostAllowed reports whether hostport targets one of the allowed hosts.
func (fp *ForwardingProxy) hostAllowed(hostport string) bool {
	host := hostport
	if h, _, err := net.SplitHostPort(hostport); err == nil {
		host = h
	}
	return fp.allowedHosts[strings.ToLower(host)]
}

// Stop gracefully shuts down the local proxy server.
func (fp *ForwardingProxy) Stop() error {
	fp.mu.Lock()
	defer fp.mu.Unlock()

	if !fp.running {
		return nil
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := fp.server.Shutdown(ctx); err != nil {
		fp.listener.Close()
		return err
	}

	fp.running = false
	return nil
}

// LocalAddr returns the local proxy address, e.g. "http://127.0.0.1:18080".
func (fp *ForwardingProxy) LocalAddr() string {
	return fmt.Sprintf("http://127.0.0.1:%d", fp.localPort)
}

// IsRunning returns whether the proxy server is currently running.
func (fp *ForwardingProxy) IsRunning() bool {
	fp.mu.Lock()
	defer fp.mu.Unlock()
	return fp.running
}
