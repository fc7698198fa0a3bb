package alerts

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
)

// DefaultWeComAPI is the enterprise WeChat API endpoint.
const DefaultWeComAPI = "https://qyapi.weixin.qq.com"

// WeComConfig holds the application credentials for enterprise WeChat.
type WeComConfig struct {
	BaseURL    string
	CorpID     string
	CorpSecret string
	AgentID    string
	ToUser     string
	PicURL     string
}

// WeComNotifier posts news articles through an enterprise WeChat
// application. Every Send fetches a fresh access token first.
type WeComNotifier struct {
	cfg    WeComConfig
	client *http.Client
}

// NewWeComNotifier creates an enterprise WeChat notifier.
func NewWeComNotifier(cfg WeComConfig) *WeComNotifier {
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultWeComAPI
	}
	cfg.BaseURL = strings.TrimRight(cfg.BaseURL, "/")
	if cfg.ToUser == "" {
		cfg.ToUser = "@all"
	}
	return &WeComNotifier{cfg: cfg, client: newHTTPClient()}
}

func (w *WeComNotifier) Name() string { return ChannelWeCom }

type wecomResponse struct {
	ErrCode     int    `json:"errcode"`
	ErrMsg      string `json:"errmsg"`
	AccessToken string `json:"access_token"`
}

type wecomArticle struct {
	Title       string `json:"title"`
	Description string `json:"description"`
	URL         string `json:"url"`
	PicURL      string `json:"picurl"`
}

type wecomMessage struct {
	ToUser  string `json:"touser"`
	MsgType string `json:"msgtype"`
	AgentID string `json:"agentid"`
	News    struct {
		Articles []wecomArticle `json:"articles"`
	} `json:"news"`
	EnableIDTrans          int `json:"enable_id_trans"`
	EnableDuplicateCheck   int `json:"enable_duplicate_check"`
	DuplicateCheckInterval int `json:"duplicate_check_interval"`
}

func (w *WeComNotifier) Send(ctx context.Context, msg Message) error {
	token, err := w.token(ctx)
	if err != nil {
		return fmt.Errorf("wecom: %w", err)
	}

	payload := wecomMessage{
		ToUser:                 w.cfg.ToUser,
		MsgType:                "news",
		AgentID:                w.cfg.AgentID,
		DuplicateCheckInterval: 1800,
	}
	payload.News.Articles = []wecomArticle{{
		Title:       msg.Title,
		Description: msg.Body,
		PicURL:      w.cfg.PicURL,
	}}

	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal wecom payload: %w", err)
	}

	target := w.cfg.BaseURL + "/cgi-bin/message/send?access_token=" + url.QueryEscape(token)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, target, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("create wecom request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("User-Agent", userAgent)

	var resp wecomResponse
	if err := w.do(req, &resp); err != nil {
		return fmt.Errorf("wecom send: %w", err)
	}
	if resp.ErrCode != 0 {
		return fmt.Errorf("wecom send: errcode %d: %s", resp.ErrCode, resp.ErrMsg)
	}
	return nil
}

func (w *WeComNotifier) token(ctx context.Context) (string, error) {
	q := url.Values{}
	q.Set("corpid", w.cfg.CorpID)
	q.Set("corpsecret", w.cfg.CorpSecret)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, w.cfg.BaseURL+"/cgi-bin/gettoken?"+q.Encode(), nil)
	if err != nil {
		return "", fmt.Errorf("create token request: %w", err)
	}
	req.Header.Set("User-Agent", userAgent)

	var resp wecomResponse
	if err := w.do(req, &resp); err != nil {
		return "", fmt.Errorf("get token: %w", err)
	}
	if resp.ErrCode != 0 || resp.AccessToken == "" {
		return "", fmt.Errorf("get token: errcode %d: %s", resp.ErrCode, resp.ErrMsg)
	}
	return resp.AccessToken, nil
}

func (w *WeComNotifier) do(req *http.Request, out *wecomResponse) error {
	resp, err := w.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("returned status %d", resp.StatusCode)
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}
