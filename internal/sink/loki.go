package sink

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/ilyasfoo/lockdown/internal/config"
	"github.com/ilyasfoo/lockdown/internal/util"
)

// lokiSink pushes each document as one log line, labelled by job and artifact
// kind ("territories", "datafile", ...).
type lokiSink struct {
	cfg    config.LokiConfig
	client *http.Client
	now    func() time.Time
}

func NewLoki(cfg config.LokiConfig) Sink {
	to := cfg.Timeout
	if to == 0 {
		to = 10 * time.Second
	}
	return &lokiSink{cfg: cfg, client: util.NewHTTPClient(to), now: time.Now}
}

func (l *lokiSink) Name() string { return "loki" }

type lokiStream struct {
	Stream map[string]string `json:"stream"`
	Values [][2]string       `json:"values"`
}

type lokiPush struct {
	Streams []lokiStream `json:"streams"`
}

func (l *lokiSink) Write(ctx context.Context, name string, doc []byte) error {
	kind, _, _ := strings.Cut(name, "/")
	line, err := json.Marshal(struct {
		Name     string          `json:"name"`
		Document json.RawMessage `json:"document"`
	}{Name: name, Document: doc})
	if err != nil {
		return err
	}

	// Loki expects ns timestamp as a decimal string
	payload := lokiPush{Streams: []lokiStream{{
		Stream: map[string]string{"job": l.cfg.Job, "artifact": kind},
		Values: [][2]string{{fmt.Sprintf("%d", l.now().UnixNano()), string(line)}},
	}}}
	body, err := json.Marshal(payload)
	if err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, strings.TrimRight(l.cfg.URL, "/")+"/loki/api/v1/push", bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	if l.cfg.TenantID != "" {
		req.Header.Set("X-Scope-OrgID", l.cfg.TenantID)
	}
	if ua := l.cfg.UserAgent; ua != "" {
		req.Header.Set("User-Agent", ua)
	}
	resp, err := l.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode/100 != 2 {
		return fmt.Errorf("loki push failed http %d", resp.StatusCode)
	}
	return nil
}

func (l *lokiSink) Close() error { return nil }
