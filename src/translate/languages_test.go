package translate

import "testing"

func TestNormalize(t *testing.T) {
	tests := []struct {
		name  string
		table *LanguageTable
		code  string
		want  string
	}{
		{"baidu empty falls back", baiduLanguages, "", "fallback"},
		{"baidu alias", baiduLanguages, "zh-CN", "zh"},
		{"baidu underscore alias", baiduLanguages, "zh_TW", "cht"},
		{"baidu native", baiduLanguages, "kor", "kor"},
		{"baidu iso japanese", baiduLanguages, "ja", "jp"},
		{"baidu bcp47 script", baiduLanguages, "zh-Hans-CN", "zh"},
		{"baidu bcp47 traditional", baiduLanguages, "zh-Hant-TW", "cht"},
		{"baidu bcp47 region", baiduLanguages, "en-US", "en"},
		{"baidu region alias", baiduLanguages, "ja-JP", "jp"},
		{"baidu garbage", baiduLanguages, "not a language!", "fallback"},
		{"baidu unsupported", baiduLanguages, "sw", "fallback"},
		{"tencent traditional", tencentLanguages, "zh-tw", "zh-TW"},
		{"tencent baidu code", tencentLanguages, "jp", "ja"},
		{"tencent hant", tencentLanguages, "zh-Hant", "zh-TW"},
		{"tencent auto", tencentLanguages, "AUTO", "auto"},
		{"openrouter region", openRouterLanguages, "pt-BR", "pt"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.table.Normalize(tt.code, "fallback"); got != tt.want {
				t.Errorf("Normalize(%q) = %q, want %q", tt.code, got, tt.want)
			}
		})
	}
}

func TestCollapseNewlines(t *testing.T) {
	got := CollapseNewlines("a\r\nb\nc\rd")
	if got != "a b c d" {
		t.Errorf("CollapseNewlines = %q", got)
	}
}

func TestLanguageName(t *testing.T) {
	if got := languageName("zh"); got != "Simplified Chinese" {
		t.Errorf("languageName(zh) = %q", got)
	}
	if got := languageName("fr"); got != "French" {
		t.Errorf("languageName(fr) = %q", got)
	}
}
