package validate

import (
	"errors"
	"math"
	"mime"
	"reflect"
	"regexp"
	"strconv"
	"strings"

	"github.com/go-playground/validator/v10"
)

// MaxImageBytes is the largest accepted upload (5 MiB).
const MaxImageBytes = 5 * 1024 * 1024

// Client-facing messages for rejected uploads.
const (
	MsgImageType = "Invalid file type. Only images allowed."
	MsgImageSize = "File too large. Max 5MB."
)

var (
	reID = regexp.MustCompile(`^[A-Za-z0-9_-]{1,64}$`)
	// Single pass, case-sensitive. Nested or malformed tags survive.
	reScript = regexp.MustCompile(`<script[^>]*>([\s\S]*?)</script>`)

	v = newValidator()
)

func newValidator() *validator.Validate {
	val := validator.New(validator.WithRequiredStructEnabled())
	val.RegisterTagNameFunc(func(f reflect.StructField) string {
		if name := f.Tag.Get("form"); name != "" {
			return name
		}
		return f.Name
	})
	return val
}

// ID validates a stock identifier.
func ID(s string) (string, bool) {
	s = strings.TrimSpace(s)
	return s, s != "" && reID.MatchString(s)
}

// StripScripts removes <script ...>...</script> substrings. Best effort only.
func StripScripts(s string) string {
	return reScript.ReplaceAllString(s, "")
}

// ImageUpload is the metadata of an uploaded image part.
type ImageUpload struct {
	ContentType string `form:"file" validate:"startswith=image/"`
	Size        int64  `form:"file" validate:"gte=0,max=5242880"`
}

// Image checks the declared content type, then the size. On failure it
// returns the message to send back to the client.
func Image(contentType string, size int64) (string, bool) {
	err := v.Struct(ImageUpload{ContentType: contentType, Size: size})
	if err == nil {
		return "", true
	}
	var fe validator.ValidationErrors
	if errors.As(err, &fe) && len(fe) > 0 && fe[0].StructField() == "Size" {
		return MsgImageSize, false
	}
	return MsgImageType, false
}

// MediaType returns the bare media type of a Content-Type header value,
// or "" when it cannot be parsed.
func MediaType(contentType string) string {
	mt, _, err := mime.ParseMediaType(contentType)
	if err != nil {
		return ""
	}
	return mt
}

// StockForm holds the text fields of a create/update request as received.
// Detail is a pointer so that an empty detail and a missing one differ.
type StockForm struct {
	Price  string  `form:"price" validate:"required"`
	Detail *string `form:"detail" validate:"required"`
}

// Parse validates the form and returns the numeric price and the sanitized detail.
func (f StockForm) Parse() (float64, string, error) {
	if err := v.Struct(f); err != nil {
		var fe validator.ValidationErrors
		if errors.As(err, &fe) && len(fe) > 0 {
			return 0, "", errors.New("required parameter '" + fe[0].Field() + "' is missing")
		}
		return 0, "", err
	}
	price, err := strconv.ParseFloat(strings.TrimSpace(f.Price), 64)
	if err != nil || math.IsNaN(price) || math.IsInf(price, 0) {
		return 0, "", errors.New("parameter 'price' must be a number")
	}
	return price, StripScripts(*f.Detail), nil
}
