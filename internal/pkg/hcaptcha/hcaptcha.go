package hcaptcha

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"
)

const defaultVerifyURL = "https://hcaptcha.com/siteverify"

var ErrFailed = errors.New("hCaptcha validation failed")

type Response struct {
	Success     bool     `json:"success"`
	ChallengeTS string   `json:"challenge_ts"`
	Hostname    string   `json:"hostname"`
	ErrorCodes  []string `json:"error-codes"`
}

// Verifier checks hCaptcha tokens against the siteverify endpoint.
// A verifier without a secret is disabled and accepts everything.
type Verifier struct {
	Secret     string
	VerifyURL  string
	HTTPClient *http.Client
}

func NewVerifier(secret string) *Verifier {
	return &Verifier{
		Secret:     strings.TrimSpace(secret),
		VerifyURL:  defaultVerifyURL,
		HTTPClient: &http.Client{Timeout: 10 * time.Second},
	}
}

func (v *Verifier) Enabled() bool { return v != nil && v.Secret != "" }

func (v *Verifier) Verify(ctx context.Context, token, remoteIP string) error {
	if !v.Enabled() {
		return nil
	}
	if token == "" {
		return fmt.Errorf("%w: token is empty", ErrFailed)
	}

	formData := url.Values{
		"secret":   {v.Secret},
		"response": {token},
	}
	if remoteIP != "" {
		formData.Set("remoteip", remoteIP)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, v.VerifyURL, strings.NewReader(formData.Encode()))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := v.HTTPClient.Do(req)
	if err != nil {
		return fmt.Errorf("failed to send request to hCaptcha API: %w", err)
	}
	defer resp.Body.Close()

	var response Response
	if err := json.NewDecoder(resp.Body).Decode(&response); err != nil {
		return fmt.Errorf("failed to decode hCaptcha API response: %w", err)
	}

	if !response.Success {
		if len(response.ErrorCodes) > 0 {
			return fmt.Errorf("%w: %s", ErrFailed, strings.Join(response.ErrorCodes, ", "))
		}
		return ErrFailed
	}
	return nil
}
