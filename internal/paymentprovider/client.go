// Package paymentprovider реализует клиент шлюза мобильных платежей e2Payments.
//
// Протокол состоит из двух шагов: получение токена по client credentials и
// списание на адресе, зависящем от способа оплаты. Успех определяется по
// строке в поле success, а не по HTTP-статусу: шлюз отвечает 200 и на отказ.
// Повторов клиент не делает.
package paymentprovider

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/clientcredentials"

	"github.com/magabrotheeeer/minigestor/internal/config"
	"github.com/magabrotheeeer/minigestor/internal/lib/msisdn"
	"github.com/magabrotheeeer/minigestor/internal/lib/sl"
	"github.com/magabrotheeeer/minigestor/internal/metrics"
	"github.com/magabrotheeeer/minigestor/internal/models"
)

// Client клиент платёжного шлюза.
type Client struct {
	cfg        config.PaymentGateway
	httpClient *http.Client
	log        *slog.Logger
}

// NewClient создаёт клиент шлюза. Учётные данные проверяются при каждом списании.
func NewClient(cfg config.PaymentGateway, log *slog.Logger) *Client {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 60 * time.Second
	}
	return &Client{
		cfg:        cfg,
		httpClient: &http.Client{Timeout: timeout},
		log:        log,
	}
}

// Reference строит ссылку платежа: префикс, начало идентификатора пользователя
// и суффикс попытки. Повторная попытка получает новую ссылку.
func Reference(prefix, userID string, attemptID uuid.UUID) string {
	user := strings.ReplaceAll(userID, "-", "")
	if len(user) > 12 {
		user = user[:12]
	}
	attempt := strings.ReplaceAll(attemptID.String(), "-", "")[:6]
	return prefix + "-" + user + "-" + attempt
}

func (c *Client) endpoint(method models.Method) string {
	base := strings.TrimRight(c.cfg.BaseURL, "/")
	switch method {
	case models.MethodMpesa:
		return base + "/v1/c2b/mpesa-payment/" + c.cfg.MpesaWallet
	default:
		return base + "/v1/c2b/emola-payment/" + c.cfg.EmolaWallet
	}
}

func (c *Client) token(ctx context.Context) (string, error) {
	const op = "paymentprovider.token"
	cc := clientcredentials.Config{
		ClientID:     c.cfg.ClientID,
		ClientSecret: c.cfg.ClientSecret,
		TokenURL:     strings.TrimRight(c.cfg.BaseURL, "/") + c.cfg.TokenPath,
		AuthStyle:    oauth2.AuthStyleInParams,
	}

	start := time.Now()
	tok, err := cc.Token(context.WithValue(ctx, oauth2.HTTPClient, c.httpClient))
	if err != nil {
		metrics.GatewayDuration.WithLabelValues("token", "error").Observe(time.Since(start).Seconds())
		return "", fmt.Errorf("%s: %w: %w", op, ErrTokenExchange, err)
	}
	metrics.GatewayDuration.WithLabelValues("token", "ok").Observe(time.Since(start).Seconds())
	return tok.AccessToken, nil
}

// Charge получает токен и отправляет запрос на списание.
//
// Возвращает результат с Success=false при отказе шлюза и ошибку при
// проблемах конфигурации, сети или формата ответа.
func (c *Client) Charge(ctx context.Context, req ChargeRequest) (*ChargeResult, error) {
	const op = "paymentprovider.Charge"
	log := c.log.With(
		slog.String("op", op),
		slog.String("method", string(req.Method)),
		slog.String("reference", req.Reference),
	)

	if !c.cfg.Configured() {
		log.Error("payment gateway credentials are not configured")
		return nil, fmt.Errorf("%s: %w", op, ErrNotConfigured)
	}
	if !req.Amount.IsPositive() {
		return nil, fmt.Errorf("%s: %w: amount must be positive", op, ErrInvalidRequest)
	}
	phone, err := msisdn.Validate(req.Method, req.Phone)
	if err != nil {
		return nil, fmt.Errorf("%s: %w: %w", op, ErrInvalidRequest, err)
	}
	if req.Reference == "" {
		return nil, fmt.Errorf("%s: %w: empty reference", op, ErrInvalidRequest)
	}

	token, err := c.token(ctx)
	if err != nil {
		log.Error("failed to obtain gateway token", sl.Err(err))
		return nil, err
	}

	form := url.Values{
		"client_id": {c.cfg.ClientID},
		"amount":    {req.Amount.String()},
		"reference": {req.Reference},
		"phone":     {phone},
	}
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint(req.Method), strings.NewReader(form.Encode()))
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	httpReq.Header.Set("Authorization", "Bearer "+token)
	httpReq.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	httpReq.Header.Set("Accept", "application/json")
	httpReq.Header.Set("X-Requested-With", "XMLHttpRequest")

	start := time.Now()
	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		metrics.GatewayDuration.WithLabelValues("charge", "error").Observe(time.Since(start).Seconds())
		log.Error("charge request failed", sl.Err(err))
		return nil, fmt.Errorf("%s: %w: %w", op, ErrTransport, err)
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	result, err := c.parseCharge(resp)
	if err != nil {
		metrics.GatewayDuration.WithLabelValues("charge", "error").Observe(time.Since(start).Seconds())
		log.Error("unexpected charge response", slog.Int("status", resp.StatusCode), sl.Err(err))
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	result.Reference = req.Reference

	outcome := "declined"
	if result.Success {
		outcome = "success"
	}
	metrics.GatewayDuration.WithLabelValues("charge", outcome).Observe(time.Since(start).Seconds())
	log.Info("charge processed", slog.String("outcome", outcome), slog.Int("status", resp.StatusCode))
	return result, nil
}

func (c *Client) parseCharge(resp *http.Response) (*ChargeResult, error) {
	if resp.StatusCode >= http.StatusInternalServerError {
		return nil, fmt.Errorf("%w: unexpected status %s", ErrTransport, resp.Status)
	}
	// Отклонённый токен означает сбой учётных данных, а не отказ плательщика.
	if resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden {
		return nil, fmt.Errorf("%w: charge rejected with status %s", ErrTokenExchange, resp.Status)
	}
	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrTransport, err)
	}
	var raw map[string]any
	if err := json.Unmarshal(body, &raw); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrMalformedResponse, err)
	}

	result := &ChargeResult{StatusCode: resp.StatusCode, Raw: raw}
	if s, ok := raw["success"].(string); ok {
		result.Message = s
		result.Success = strings.Contains(strings.ToLower(s), strings.ToLower(c.cfg.SuccessTerm))
	}
	if !result.Success {
		for _, key := range []string{"message", "error"} {
			if s, ok := raw[key].(string); ok && s != "" {
				result.Message = s
				break
			}
		}
	}
	return result, nil
}
