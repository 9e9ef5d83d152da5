package ocr

import (
	"image"
	"strings"

	"github.com/disintegration/imaging"
	"golang.org/x/text/language"
)

// minTextHeight is the capture height below which regions are upscaled before recognition.
const minTextHeight = 64

// Preprocess converts img to grayscale, upscales short captures and sharpens the result.
func Preprocess(img image.Image) *image.NRGBA {
	out := imaging.Grayscale(img)
	if h := out.Bounds().Dy(); h > 0 && h < minTextHeight {
		factor := (minTextHeight + h - 1) / h
		if factor > 4 {
			factor = 4
		}
		out = imaging.Resize(out, out.Bounds().Dx()*factor, h*factor, imaging.Lanczos)
	}
	return imaging.Sharpen(out, 0.5)
}

var tesseractAliases = map[string]string{
	"zh":      "chi_sim",
	"zh-cn":   "chi_sim",
	"zh-hans": "chi_sim",
	"cht":     "chi_tra",
	"zh-tw":   "chi_tra",
	"zh-hant": "chi_tra",
	"jp":      "jpn",
	"kor":     "kor",
	"fra":     "fra",
	"spa":     "spa",
	"ara":     "ara",
	"vie":     "vie",
	"bul":     "bul",
	"rom":     "ron",
	"slo":     "slk",
	"swe":     "swe",
	"dan":     "dan",
	"fin":     "fin",
	"est":     "est",
}

// TesseractLanguages maps a translation source language to tesseract traineddata names.
// "auto" and unrecognized hints use fallback.
func TesseractLanguages(hint, fallback string) string {
	lower := strings.ToLower(strings.TrimSpace(hint))
	if lower == "" || lower == "auto" {
		return fallback
	}
	if lang, ok := tesseractAliases[lower]; ok {
		return lang
	}
	tag, err := language.Parse(strings.ReplaceAll(lower, "_", "-"))
	if err != nil {
		return fallback
	}
	base, _ := tag.Base()
	if base.String() == "zh" {
		if script, _ := tag.Script(); script.String() == "Hant" {
			return "chi_tra"
		}
	}
	if lang, ok := tesseractAliases[base.String()]; ok {
		return lang
	}
	if iso3 := base.ISO3(); iso3 != "" && iso3 != "und" {
		return iso3
	}
	return fallback
}
