package translate

import (
	"context"
	"errors"
	"net/http"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"screen-translate/src/cache"
	"screen-translate/src/config"
)

func newTestBaidu(ft *fakeTransport) *Baidu {
	b := NewBaidu(config.BaiduCredentials{AppID: "2015063000000001", SecretKey: "12345678"}, ft)
	b.salt = func() string { return "1435660288" }
	return b
}

func newTestDispatcher(p Provider, rs *recordingSleeper) (*Dispatcher, *cache.Cache) {
	c := cache.New(cache.Options{})
	return NewDispatcher(p, Options{Cache: c, Sleep: rs.sleep, DefaultTarget: "zh"}), c
}

func baiduOK(dst string) func(int, *http.Request, string) (*http.Response, error) {
	return func(int, *http.Request, string) (*http.Response, error) {
		return jsonResponse(200, `{"from":"en","to":"zh","trans_result":[{"src":"x","dst":"`+dst+`"}]}`), nil
	}
}

func TestTranslateCollapsesLineBreaksBeforeSigning(t *testing.T) {
	ft := &fakeTransport{respond: baiduOK("你好")}
	d, _ := newTestDispatcher(newTestBaidu(ft), &recordingSleeper{})

	out := d.Translate(context.Background(), "hello\r\nworld\nfoo\rbar", "en", "zh")
	require.True(t, out.OK(), out.DisplayText())
	require.Equal(t, 1, ft.calls())

	form, err := url.ParseQuery(ft.bodies[0])
	require.NoError(t, err)
	assert.Equal(t, "hello world foo bar", form.Get("q"))
	assert.NotContains(t, ft.bodies[0], "%0A")
	assert.NotContains(t, ft.bodies[0], "%0D")
	assert.Equal(t, "en", form.Get("from"))
	assert.Equal(t, "zh", form.Get("to"))
	assert.Equal(t, "1435660288", form.Get("salt"))
	assert.Equal(t, baiduSign("2015063000000001", "hello world foo bar", "1435660288", "12345678"), form.Get("sign"))
}

func TestBaiduSignKnownVector(t *testing.T) {
	// Reference example from the Baidu Translate API documentation.
	got := baiduSign("2015063000000001", "apple", "1435660288", "12345678")
	assert.Equal(t, "f89f9594663708c1605f3d736d01d2d4", got)
}

func TestTranslateCachesSuccessfulResults(t *testing.T) {
	ft := &fakeTransport{respond: baiduOK("苹果")}
	d, c := newTestDispatcher(newTestBaidu(ft), &recordingSleeper{})

	first := d.Translate(context.Background(), "apple", "en", "zh")
	second := d.Translate(context.Background(), "apple", "en", "zh")

	require.True(t, first.OK())
	assert.Equal(t, first.Text, second.Text)
	assert.Equal(t, 1, ft.calls())
	assert.Equal(t, 1, c.Len())
}

func TestTranslateRejectsAutoTarget(t *testing.T) {
	ft := &fakeTransport{respond: baiduOK("x")}
	d, _ := newTestDispatcher(newTestBaidu(ft), &recordingSleeper{})

	out := d.Translate(context.Background(), "apple", "en", "auto")
	assert.Equal(t, KindConfigError, out.Kind)
	assert.Equal(t, 0, ft.calls())
}

func TestTranslateRejectsEmptyText(t *testing.T) {
	ft := &fakeTransport{respond: baiduOK("x")}
	d, _ := newTestDispatcher(newTestBaidu(ft), &recordingSleeper{})

	for _, text := range []string{"", "   ", "\r\n\t"} {
		out := d.Translate(context.Background(), text, "en", "zh")
		assert.Equal(t, KindConfigError, out.Kind, "text %q", text)
	}
	assert.Equal(t, 0, ft.calls())
}

func TestTranslateMissingCredentials(t *testing.T) {
	ft := &fakeTransport{respond: baiduOK("x")}
	d, _ := newTestDispatcher(NewBaidu(config.BaiduCredentials{AppID: "id"}, ft), &recordingSleeper{})

	out := d.Translate(context.Background(), "apple", "en", "zh")
	assert.Equal(t, KindConfigError, out.Kind)
	assert.NotContains(t, out.Message, "configuration error:")
	assert.Equal(t, 0, ft.calls())
}

func TestTranslateProviderErrorIsNotRetriedOrCached(t *testing.T) {
	ft := &fakeTransport{respond: func(int, *http.Request, string) (*http.Response, error) {
		return jsonResponse(200, `{"error_code":"54001","error_msg":"Invalid Sign"}`), nil
	}}
	rs := &recordingSleeper{}
	d, c := newTestDispatcher(newTestBaidu(ft), rs)

	out := d.Translate(context.Background(), "apple", "en", "zh")
	assert.Equal(t, KindProviderError, out.Kind)
	assert.Equal(t, "54001", out.Code)
	assert.Equal(t, "Invalid Sign", out.Message)
	assert.Equal(t, 1, ft.calls())
	assert.Empty(t, rs.delays)
	assert.Equal(t, 0, c.Len())

	d.Translate(context.Background(), "apple", "en", "zh")
	assert.Equal(t, 2, ft.calls())
}

func TestTranslateInvalidClientIPHint(t *testing.T) {
	ft := &fakeTransport{respond: func(int, *http.Request, string) (*http.Response, error) {
		return jsonResponse(200, `{"error_code":58000,"error_msg":"INVALID_CLIENT_IP"}`), nil
	}}
	d, _ := newTestDispatcher(newTestBaidu(ft), &recordingSleeper{})

	out := d.Translate(context.Background(), "apple", "en", "zh")
	assert.Equal(t, "58000", out.Code)
	assert.NotEmpty(t, out.Hint)
	assert.Contains(t, out.DisplayText(), out.Hint)
}

func TestTranslateRetriesTransportFailures(t *testing.T) {
	ft := &fakeTransport{respond: func(call int, r *http.Request, body string) (*http.Response, error) {
		if call < 3 {
			return nil, errors.New("connection reset by peer")
		}
		return baiduOK("成功")(call, r, body)
	}}
	rs := &recordingSleeper{}
	d, _ := newTestDispatcher(newTestBaidu(ft), rs)

	out := d.Translate(context.Background(), "success", "en", "zh")
	require.True(t, out.OK(), out.DisplayText())
	assert.Equal(t, "成功", out.Text)
	assert.Equal(t, 3, ft.calls())
	assert.Equal(t, []time.Duration{time.Second, 2 * time.Second}, rs.delays)
}

func TestTranslateNetworkErrorAfterExhaustion(t *testing.T) {
	ft := &fakeTransport{respond: func(int, *http.Request, string) (*http.Response, error) {
		return jsonResponse(503, `service unavailable`), nil
	}}
	d, c := newTestDispatcher(newTestBaidu(ft), &recordingSleeper{})

	out := d.Translate(context.Background(), "apple", "en", "zh")
	assert.Equal(t, KindNetworkError, out.Kind)
	assert.Equal(t, 3, ft.calls())
	assert.Equal(t, 0, c.Len())
}

func TestTranslateDecodesEntitiesAndJoinsLines(t *testing.T) {
	ft := &fakeTransport{respond: func(int, *http.Request, string) (*http.Response, error) {
		return jsonResponse(200, `{"trans_result":[{"dst":"Tom &amp; Jerry"},{"dst":"&lt;b&gt;"}]}`), nil
	}}
	d, _ := newTestDispatcher(newTestBaidu(ft), &recordingSleeper{})

	out := d.Translate(context.Background(), "x", "auto", "en")
	require.True(t, out.OK())
	assert.Equal(t, "Tom & Jerry\n<b>", out.Text)
}

func TestTranslateUnknownLanguagesFallBack(t *testing.T) {
	ft := &fakeTransport{respond: baiduOK("x")}
	b := newTestBaidu(ft)
	d := NewDispatcher(b, Options{Sleep: (&recordingSleeper{}).sleep, DefaultTarget: "en-GB"})

	out := d.Translate(context.Background(), "hola", "xx-nonsense", "sw")
	require.True(t, out.OK())
	form, err := url.ParseQuery(ft.bodies[0])
	require.NoError(t, err)
	assert.Equal(t, "auto", form.Get("from"))
	assert.Equal(t, "en", form.Get("to"))
}

func TestProviderFor(t *testing.T) {
	tests := []struct {
		engine  string
		want    string
		wantErr bool
	}{
		{"baidu", config.EngineBaidu, false},
		{"Tencent", config.EngineTencent, false},
		{"openrouter", config.EngineOpenRouter, false},
		{"", config.EngineBaidu, false},
		{"deepl", "", true},
	}
	for _, tt := range tests {
		t.Run(tt.engine, func(t *testing.T) {
			p, err := ProviderFor(&config.Config{Engine: tt.engine}, nil)
			if tt.wantErr {
				require.Error(t, err)
				assert.True(t, errors.Is(err, ErrConfig))
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, p.Name())
		})
	}
}

func TestSetProviderChangesCacheNamespace(t *testing.T) {
	ftA := &fakeTransport{respond: baiduOK("a")}
	ftB := &fakeTransport{respond: func(int, *http.Request, string) (*http.Response, error) {
		return jsonResponse(200, `{"Response":{"TargetText":"b","RequestId":"r"}}`), nil
	}}
	d, _ := newTestDispatcher(newTestBaidu(ftA), &recordingSleeper{})
	require.True(t, d.Translate(context.Background(), "word", "en", "zh").OK())

	d.SetProvider(NewTencent(config.TencentCredentials{SecretID: "id", SecretKey: "key"}, ftB))
	out := d.Translate(context.Background(), "word", "en", "zh")
	require.True(t, out.OK())
	assert.Equal(t, "b", out.Text)
	assert.Equal(t, 1, ftB.calls())
	assert.True(t, strings.HasPrefix(d.Provider().Name(), "tencent"))
}
