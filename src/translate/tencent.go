package translate

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"

	"screen-translate/src/config"
	"screen-translate/src/retry"
)

const (
	TencentHost      = "tmt.tencentcloudapi.com"
	tencentService   = "tmt"
	tencentAction    = "TextTranslate"
	tencentVersion   = "2018-03-21"
	tencentAlgorithm = "TC3-HMAC-SHA256"
	tencentJSONType  = "application/json; charset=utf-8"
	tencentRegion    = "ap-guangzhou"
)

var tencentLanguages = newLanguageTable("auto", "zh",
	[]string{
		"auto", "zh", "zh-TW", "en", "ja", "ko", "fr", "es", "it", "de", "tr", "ru", "pt", "vi", "id", "th",
		"ms", "ar", "hi",
	},
	map[string]string{
		"zh-cn":   "zh",
		"zh_cn":   "zh",
		"cn":      "zh",
		"zh-hans": "zh",
		"zh_tw":   "zh-TW",
		"tw":      "zh-TW",
		"zh-hant": "zh-TW",
		"zh-hk":   "zh-TW",
		"cht":     "zh-TW",
		"jp":      "ja",
		"kor":     "ko",
		"fra":     "fr",
		"spa":     "es",
		"ara":     "ar",
		"vie":     "vi",
	},
)

// Tencent calls TextTranslate with TC3-HMAC-SHA256 signed headers.
type Tencent struct {
	creds    config.TencentCredentials
	endpoint string
	http     *resty.Client
	now      func() time.Time
}

func NewTencent(creds config.TencentCredentials, transport http.RoundTripper) *Tencent {
	if creds.Region == "" {
		creds.Region = tencentRegion
	}
	return &Tencent{
		creds:    creds,
		endpoint: "https://" + TencentHost,
		http:     newHTTPClient(transport),
		now:      time.Now,
	}
}

func (t *Tencent) Name() string              { return config.EngineTencent }
func (t *Tencent) Languages() *LanguageTable { return tencentLanguages }

func (t *Tencent) CheckCredentials() error {
	if strings.TrimSpace(t.creds.SecretID) == "" || strings.TrimSpace(t.creds.SecretKey) == "" {
		return configErrorf("Tencent secret id and secret key are not configured")
	}
	return nil
}

type tencentRequest struct {
	SourceText string `json:"SourceText"`
	Source     string `json:"Source"`
	Target     string `json:"Target"`
	ProjectID  int64  `json:"ProjectId"`
}

type tencentResponse struct {
	Response struct {
		TargetText string `json:"TargetText"`
		RequestID  string `json:"RequestId"`
		Error      *struct {
			Code    string `json:"Code"`
			Message string `json:"Message"`
		} `json:"Error"`
	} `json:"Response"`
}

func sha256Hex(b []byte) string {
	sum := sha256.Sum256(b)
	return hex.EncodeToString(sum[:])
}

func hmacSHA256(key []byte, msg string) []byte {
	m := hmac.New(sha256.New, key)
	m.Write([]byte(msg))
	return m.Sum(nil)
}

// tc3Authorization returns the Authorization header for payload sent at ts.
func tc3Authorization(secretID, secretKey string, payload []byte, ts time.Time) string {
	date := ts.UTC().Format("2006-01-02")
	canonicalRequest := strings.Join([]string{
		http.MethodPost,
		"/",
		"",
		"content-type:" + tencentJSONType + "\nhost:" + TencentHost + "\n",
		"content-type;host",
		sha256Hex(payload),
	}, "\n")
	scope := date + "/" + tencentService + "/tc3_request"
	stringToSign := strings.Join([]string{
		tencentAlgorithm,
		strconv.FormatInt(ts.Unix(), 10),
		scope,
		sha256Hex([]byte(canonicalRequest)),
	}, "\n")

	secretDate := hmacSHA256([]byte("TC3"+secretKey), date)
	secretService := hmacSHA256(secretDate, tencentService)
	secretSigning := hmacSHA256(secretService, "tc3_request")
	signature := hex.EncodeToString(hmacSHA256(secretSigning, stringToSign))

	return fmt.Sprintf("%s Credential=%s/%s, SignedHeaders=content-type;host, Signature=%s",
		tencentAlgorithm, secretID, scope, signature)
}

func (t *Tencent) Translate(ctx context.Context, q Query) (string, error) {
	payload, err := json.Marshal(tencentRequest{
		SourceText: q.Text,
		Source:     q.Source,
		Target:     q.Target,
		ProjectID:  t.creds.ProjectID,
	})
	if err != nil {
		return "", fmt.Errorf("failed to marshal request: %w", err)
	}

	ts := t.now()
	resp, err := t.http.R().
		SetContext(ctx).
		SetHeader("Authorization", tc3Authorization(t.creds.SecretID, t.creds.SecretKey, payload, ts)).
		SetHeader("Content-Type", tencentJSONType).
		SetHeader("Host", TencentHost).
		SetHeader("X-TC-Action", tencentAction).
		SetHeader("X-TC-Timestamp", strconv.FormatInt(ts.Unix(), 10)).
		SetHeader("X-TC-Version", tencentVersion).
		SetHeader("X-TC-Region", t.creds.Region).
		SetBody(payload).
		Post(t.endpoint)
	if err != nil {
		return "", retry.Transient(fmt.Errorf("tencent request failed: %w", err))
	}

	var body tencentResponse
	if jerr := json.Unmarshal(resp.Body(), &body); jerr != nil {
		if resp.IsError() {
			return "", classifyStatus(config.EngineTencent, resp)
		}
		return "", &ProviderError{Provider: config.EngineTencent, Code: "invalid_response", Message: jerr.Error()}
	}
	if e := body.Response.Error; e != nil {
		return "", &ProviderError{Provider: config.EngineTencent, Code: e.Code, Message: e.Message}
	}
	if resp.IsError() {
		return "", classifyStatus(config.EngineTencent, resp)
	}
	return body.Response.TargetText, nil
}
