// Package validate holds the pure field and whole-object rules a
// resource submission must satisfy. Nothing here touches the database.
package validate

import (
	"fmt"
	"math"
	"mime"
	"path/filepath"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/Bourhlef-Y/fivemarket/internal/fault"
	"github.com/Bourhlef-Y/fivemarket/internal/models"
)

const (
	TitleMin        = 3
	TitleMax        = 100
	DescriptionMin  = 50
	DescriptionMax  = 5000
	InstructionsMax = 1000

	forbiddenTitleChars = `<>:"/\|?*`
)

var allowedImageMIMEs = map[string]string{
	"image/jpeg": ".jpg",
	"image/png":  ".png",
}

// Limits carries the configurable bounds; everything else is fixed by
// marketplace policy.
type Limits struct {
	PriceMin     float64
	PriceMax     float64
	MaxImages    int
	MaxImageSize int64
	MaxFileSize  int64
}

func DefaultLimits() Limits {
	return Limits{
		PriceMin:     0,
		PriceMax:     1000,
		MaxImages:    10,
		MaxImageSize: 5 * 1024 * 1024,
		MaxFileSize:  50 * 1024 * 1024,
	}
}

// ImageMeta describes one uploaded image, enough to validate it without
// holding the bytes.
type ImageMeta struct {
	Filename    string
	MIME        string
	Size        int64
	IsThumbnail bool
}

// FileMeta describes the delivery archive of a direct resource.
type FileMeta struct {
	Filename string
	MIME     string
	Size     int64
}

// ResourceInput is the field set the whole-object validator and the
// completeness predicate operate on.
type ResourceInput struct {
	Title        string
	Description  string
	Price        float64
	Type         models.ResourceType
	FileURL      string
	HasEscrow    bool
	Instructions string
}

// Title returns a violation reason, or "" when the title is valid.
func Title(s string) string {
	t := strings.TrimSpace(s)
	if t == "" {
		return "title is required"
	}
	if utf8.RuneCountInString(t) < TitleMin {
		return fmt.Sprintf("title must be at least %d characters", TitleMin)
	}
	if utf8.RuneCountInString(t) > TitleMax {
		return fmt.Sprintf("title must be at most %d characters", TitleMax)
	}
	for _, r := range t {
		if unicode.IsControl(r) || strings.ContainsRune(forbiddenTitleChars, r) {
			return fmt.Sprintf("title may not contain %q or control characters", forbiddenTitleChars)
		}
	}
	return ""
}

func Description(s string) string {
	d := strings.TrimSpace(s)
	if utf8.RuneCountInString(d) < DescriptionMin {
		return fmt.Sprintf("description must be at least %d characters", DescriptionMin)
	}
	if utf8.RuneCountInString(d) > DescriptionMax {
		return fmt.Sprintf("description must be at most %d characters", DescriptionMax)
	}
	return ""
}

func Price(p float64, lim Limits) string {
	if math.IsNaN(p) || p <= 0 {
		return "price must be a positive number"
	}
	if p < lim.PriceMin {
		return fmt.Sprintf("price must be at least %.2f", lim.PriceMin)
	}
	if p > lim.PriceMax {
		return fmt.Sprintf("price must be at most %.2f", lim.PriceMax)
	}
	if math.Abs(p*100-math.Round(p*100)) > 1e-9 {
		return "price may have at most 2 decimal places"
	}
	return ""
}

func Type(t models.ResourceType) string {
	if t != models.TypeEscrow && t != models.TypeDirect {
		return "resource type must be escrow or direct"
	}
	return ""
}

func Instructions(s string) string {
	if utf8.RuneCountInString(strings.TrimSpace(s)) > InstructionsMax {
		return fmt.Sprintf("delivery instructions must be at most %d characters", InstructionsMax)
	}
	return ""
}

func Image(img ImageMeta, lim Limits) string {
	if img.Size > lim.MaxImageSize {
		return fmt.Sprintf("image exceeds %d MB", lim.MaxImageSize/(1024*1024))
	}
	wantExt, ok := allowedImageMIMEs[img.MIME]
	if !ok {
		return "image must be JPEG or PNG"
	}
	ext := strings.ToLower(filepath.Ext(img.Filename))
	if ext == ".jpeg" {
		ext = ".jpg"
	}
	if ext != wantExt {
		return fmt.Sprintf("image extension %q does not match its type", filepath.Ext(img.Filename))
	}
	return ""
}

func Images(imgs []ImageMeta, lim Limits) string {
	if len(imgs) == 0 {
		return "at least one image is required"
	}
	if len(imgs) > lim.MaxImages {
		return fmt.Sprintf("at most %d images are allowed", lim.MaxImages)
	}
	thumbs := 0
	for _, img := range imgs {
		if reason := Image(img, lim); reason != "" {
			return reason
		}
		if img.IsThumbnail {
			thumbs++
		}
	}
	if thumbs != 1 {
		return "exactly one image must be flagged as thumbnail"
	}
	return ""
}

func File(f FileMeta, lim Limits) string {
	if f.Size > lim.MaxFileSize {
		return fmt.Sprintf("file exceeds %d MB", lim.MaxFileSize/(1024*1024))
	}
	if mt, _, err := mime.ParseMediaType(f.MIME); err != nil ||
		(mt != "application/zip" && mt != "application/x-zip-compressed") {
		return "file must be a ZIP archive"
	}
	if strings.ToLower(filepath.Ext(f.Filename)) != ".zip" {
		return "file must have a .zip extension"
	}
	return ""
}

// Resource runs every field validator and aggregates the violations.
// A nil return means the input is valid.
func Resource(in ResourceInput, lim Limits) fault.FieldErrors {
	fe := fault.FieldErrors{}
	if reason := Title(in.Title); reason != "" {
		fe["title"] = reason
	}
	if reason := Description(in.Description); reason != "" {
		fe["description"] = reason
	}
	if reason := Price(in.Price, lim); reason != "" {
		fe["price"] = reason
	}
	if reason := Type(in.Type); reason != "" {
		fe["resource_type"] = reason
	}
	if reason := Instructions(in.Instructions); reason != "" {
		fe["delivery_instructions"] = reason
	}
	if len(fe) == 0 {
		return nil
	}
	return fe
}

// Completeness decides whether the field set qualifies for submission
// into moderation. It is Resource plus the per-type delivery checks.
func Completeness(in ResourceInput, lim Limits) fault.FieldErrors {
	fe := Resource(in, lim)
	if fe == nil {
		fe = fault.FieldErrors{}
	}
	switch in.Type {
	case models.TypeDirect:
		if in.FileURL == "" {
			fe["file"] = "a delivery file is required for direct resources"
		}
	case models.TypeEscrow:
		if !in.HasEscrow {
			fe["escrow"] = "escrow requirements are required for escrow resources"
		}
	}
	if len(fe) == 0 {
		return nil
	}
	return fe
}

// Sanitize normalizes an input that already passed validation: trims
// the free-text fields and rounds the price to 2 decimals. Applying it
// never changes the validation outcome.
func Sanitize(in ResourceInput) ResourceInput {
	in.Title = strings.TrimSpace(in.Title)
	in.Description = strings.TrimSpace(in.Description)
	in.Instructions = strings.TrimSpace(in.Instructions)
	in.Price = math.Round(in.Price*100) / 100
	return in
}
