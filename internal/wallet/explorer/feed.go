package explorer

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/dmitrijs2005/coinkeeper/internal/logging"
	"github.com/dmitrijs2005/coinkeeper/internal/wallet/hdwallet"
	"github.com/gorilla/websocket"
)

type subscribeMessage struct {
	Op        string                `json:"op"`
	Addresses []hdwallet.AddressRef `json:"addresses"`
}

// Feed streams address activity from the explorer websocket. It reconnects
// with exponential backoff and re-subscribes on every connect.
type Feed struct {
	url       string
	addresses func() []hdwallet.AddressRef
	log       logging.Logger

	ReadTimeout time.Duration
	BaseDelay   time.Duration
	MaxDelay    time.Duration

	mu   sync.Mutex
	conn *websocket.Conn
	wg   sync.WaitGroup
}

// NewFeed creates a feed for url. addresses is called on each connect to
// build the subscription.
func NewFeed(url string, addresses func() []hdwallet.AddressRef, log logging.Logger) *Feed {
	if log == nil {
		log = logging.Nop()
	}
	return &Feed{
		url:         url,
		addresses:   addresses,
		log:         log,
		ReadTimeout: 90 * time.Second,
		BaseDelay:   time.Second,
		MaxDelay:    time.Minute,
	}
}

// Run starts the connection loop. The returned channel is closed after ctx
// is done.
func (f *Feed) Run(ctx context.Context) <-chan hdwallet.AddressRef {
	out := make(chan hdwallet.AddressRef, 64)
	f.wg.Add(1)
	go func() {
		defer f.wg.Done()
		defer close(out)
		f.loop(ctx, out)
	}()
	go func() {
		<-ctx.Done()
		f.close()
	}()
	return out
}

// Wait blocks until the loop started by Run has exited.
func (f *Feed) Wait() { f.wg.Wait() }

func (f *Feed) loop(ctx context.Context, out chan<- hdwallet.AddressRef) {
	retry := 0
	for {
		if ctx.Err() != nil {
			return
		}

		if err := f.connect(ctx); err != nil {
			delay := backoff(retry, f.BaseDelay, f.MaxDelay)
			f.log.Warn(ctx, "feed connection failed", "url", f.url, "err", err, "retry", retry, "delay", delay)
			retry++
			select {
			case <-ctx.Done():
				return
			case <-time.After(delay):
				continue
			}
		}

		retry = 0
		f.read(ctx, out)
	}
}

func (f *Feed) connect(ctx context.Context) error {
	dialer := websocket.Dialer{HandshakeTimeout: 10 * time.Second}
	conn, _, err := dialer.DialContext(ctx, f.url, nil)
	if err != nil {
		return err
	}

	sub := subscribeMessage{Op: "subscribe", Addresses: f.addresses()}
	if err := conn.WriteJSON(sub); err != nil {
		conn.Close()
		return err
	}

	f.mu.Lock()
	f.conn = conn
	f.mu.Unlock()

	f.log.Info(ctx, "feed connected", "url", f.url, "addresses", len(sub.Addresses))
	return nil
}

func (f *Feed) read(ctx context.Context, out chan<- hdwallet.AddressRef) {
	for {
		f.mu.Lock()
		c := f.conn
		f.mu.Unlock()
		if c == nil {
			return
		}

		if f.ReadTimeout > 0 {
			_ = c.SetReadDeadline(time.Now().Add(f.ReadTimeout))
		}
		_, msg, err := c.ReadMessage()
		if err != nil {
			if ctx.Err() == nil {
				f.log.Warn(ctx, "feed read failed", "err", err)
			}
			f.close()
			return
		}

		var ref hdwallet.AddressRef
		if err := json.Unmarshal(msg, &ref); err != nil || ref.Address == "" {
			f.log.Warn(ctx, "feed message ignored", "msg", string(msg))
			continue
		}

		select {
		case out <- ref:
		case <-ctx.Done():
			return
		}
	}
}

func (f *Feed) close() {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.conn != nil {
		f.conn.Close()
		f.conn = nil
	}
}
