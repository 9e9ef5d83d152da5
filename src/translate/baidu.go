package translate

import (
	"context"
	"crypto/md5"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"math/rand/v2"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-resty/resty/v2"

	"screen-translate/src/config"
	"screen-translate/src/retry"
)

const (
	BaiduEndpoint = "https://api.fanyi.baidu.com/api/trans/vip/translate"

	baiduInvalidClientIP = "58000"
)

var baiduLanguages = newLanguageTable("auto", "zh",
	[]string{
		"auto", "zh", "en", "yue", "wyw", "jp", "kor", "fra", "spa", "th", "ara", "ru", "pt", "de", "it",
		"el", "nl", "pl", "bul", "est", "dan", "fin", "cs", "rom", "slo", "swe", "hu", "cht", "vie",
	},
	map[string]string{
		"zh-cn":   "zh",
		"zh_cn":   "zh",
		"cn":      "zh",
		"zh-hans": "zh",
		"zh-tw":   "cht",
		"zh_tw":   "cht",
		"tw":      "cht",
		"zh-hant": "cht",
		"ja":      "jp",
		"ko":      "kor",
		"fr":      "fra",
		"es":      "spa",
		"ar":      "ara",
		"vi":      "vie",
	},
)

// Baidu signs form-encoded requests with md5(appid + q + salt + secret).
type Baidu struct {
	creds    config.BaiduCredentials
	endpoint string
	http     *resty.Client
	salt     func() string
}

func NewBaidu(creds config.BaiduCredentials, transport http.RoundTripper) *Baidu {
	return &Baidu{
		creds:    creds,
		endpoint: BaiduEndpoint,
		http:     newHTTPClient(transport),
		salt:     func() string { return strconv.Itoa(100000 + rand.IntN(900000)) },
	}
}

func (b *Baidu) Name() string              { return config.EngineBaidu }
func (b *Baidu) Languages() *LanguageTable { return baiduLanguages }

func (b *Baidu) CheckCredentials() error {
	if strings.TrimSpace(b.creds.AppID) == "" || strings.TrimSpace(b.creds.SecretKey) == "" {
		return configErrorf("Baidu app id and secret key are not configured")
	}
	return nil
}

func baiduSign(appID, q, salt, secret string) string {
	sum := md5.Sum([]byte(appID + q + salt + secret))
	return hex.EncodeToString(sum[:])
}

type baiduResponse struct {
	ErrorCode   any    `json:"error_code"`
	ErrorMsg    string `json:"error_msg"`
	TransResult []struct {
		Src string `json:"src"`
		Dst string `json:"dst"`
	} `json:"trans_result"`
}

func (b *Baidu) Translate(ctx context.Context, q Query) (string, error) {
	salt := b.salt()
	resp, err := b.http.R().
		SetContext(ctx).
		SetFormData(map[string]string{
			"q":     q.Text,
			"from":  q.Source,
			"to":    q.Target,
			"appid": b.creds.AppID,
			"salt":  salt,
			"sign":  baiduSign(b.creds.AppID, q.Text, salt, b.creds.SecretKey),
		}).
		Post(b.endpoint)
	if err != nil {
		return "", retry.Transient(fmt.Errorf("baidu request failed: %w", err))
	}

	var body baiduResponse
	if jerr := json.Unmarshal(resp.Body(), &body); jerr != nil {
		if resp.IsError() {
			return "", classifyStatus(config.EngineBaidu, resp)
		}
		return "", &ProviderError{Provider: config.EngineBaidu, Code: "invalid_response", Message: jerr.Error()}
	}
	if body.ErrorCode != nil {
		code := fmt.Sprint(body.ErrorCode)
		if f, ok := body.ErrorCode.(float64); ok {
			code = strconv.FormatFloat(f, 'f', -1, 64)
		}
		// 52000 is Baidu's success code; some responses carry it explicitly.
		if code != "52000" {
			pe := &ProviderError{Provider: config.EngineBaidu, Code: code, Message: body.ErrorMsg}
			if code == baiduInvalidClientIP {
				pe.Hint = "Disable IP address verification in the Baidu Translate console."
			}
			return "", pe
		}
	}
	if resp.IsError() {
		return "", classifyStatus(config.EngineBaidu, resp)
	}
	if len(body.TransResult) == 0 {
		return "", &ProviderError{Provider: config.EngineBaidu, Code: "empty_result", Message: "no trans_result in response"}
	}

	parts := make([]string, 0, len(body.TransResult))
	for _, r := range body.TransResult {
		parts = append(parts, r.Dst)
	}
	return strings.Join(parts, "\n"), nil
}
