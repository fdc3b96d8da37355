package utils

import (
	"errors"
	"math"
	"strconv"
	"strings"
	"time"
)

// ================================================
// Coercion cho JSON body đã decode vào interface{}
// Các giá trị có thể gặp: nil, bool, float64, string, []interface{}, map[string]interface{}
// Quy tắc bám theo Boolean()/Number()/new Date() của JavaScript
// vì client gửi dữ liệu thô từ UI
// ================================================

var (
	ErrInvalidDate = errors.New("invalid date")
	ErrNotAString  = errors.New("value is not a string")
	ErrNotAnArray  = errors.New("value is not an array")
)

// maxDateMillis là giới hạn của Date trong JS (±8.64e15 ms quanh epoch)
const maxDateMillis = 8.64e15

// Truthy trả về false cho nil, false, 0, NaN, ""; true cho mọi giá trị khác
func Truthy(v interface{}) bool {
	switch x := v.(type) {
	case nil:
		return false
	case bool:
		return x
	case float64:
		return x != 0 && !math.IsNaN(x)
	case int:
		return x != 0
	case string:
		return x != ""
	default:
		// object, array (kể cả rỗng) đều truthy
		return true
	}
}

// ToNumber mô phỏng Number(x). Kết quả có thể là NaN hoặc ±Inf
func ToNumber(v interface{}) float64 {
	switch x := v.(type) {
	case nil:
		return 0
	case bool:
		if x {
			return 1
		}
		return 0
	case float64:
		return x
	case int:
		return float64(x)
	case string:
		return stringToNumber(x)
	case []interface{}:
		// Number([]) = 0, Number([x]) = Number(String(x)), còn lại NaN
		switch len(x) {
		case 0:
			return 0
		case 1:
			switch inner := x[0].(type) {
			case nil:
				return 0
			case bool:
				return math.NaN()
			default:
				return ToNumber(inner)
			}
		}
		return math.NaN()
	default:
		return math.NaN()
	}
}

func stringToNumber(s string) float64 {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0
	}

	switch s {
	case "Infinity", "+Infinity":
		return math.Inf(1)
	case "-Infinity":
		return math.Inf(-1)
	}

	// 0x / 0o / 0b prefix (không dấu)
	if len(s) > 2 && s[0] == '0' {
		base := 0
		switch s[1] {
		case 'x', 'X':
			base = 16
		case 'o', 'O':
			base = 8
		case 'b', 'B':
			base = 2
		}
		if base != 0 {
			n, err := strconv.ParseUint(s[2:], base, 64)
			if err != nil {
				return math.NaN()
			}
			return float64(n)
		}
	}

	// strconv chấp nhận "inf", "nan", "1_000" mà JS không chấp nhận
	lower := strings.ToLower(s)
	if strings.Contains(lower, "inf") || strings.Contains(lower, "nan") || strings.Contains(s, "_") {
		return math.NaN()
	}

	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		var numErr *strconv.NumError
		if errors.As(err, &numErr) && errors.Is(numErr.Err, strconv.ErrRange) {
			return f // ±Inf hoặc 0 khi tràn, giống JS
		}
		return math.NaN()
	}
	return f
}

// FiniteOrZero: NaN và ±Inf thành 0
func FiniteOrZero(f float64) float64 {
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return 0
	}
	return f
}

// Clamp giới hạn f trong [lo, hi]
func Clamp(f, lo, hi float64) float64 {
	return math.Max(lo, math.Min(hi, f))
}

// ToOptionalDate:
// - falsy (nil, "", 0, false) → nil, không lỗi (xóa giá trị)
// - string → parse theo các format mà Date.parse hiểu
// - number → epoch milliseconds
// - còn lại → ErrInvalidDate
func ToOptionalDate(v interface{}) (*time.Time, error) {
	if !Truthy(v) {
		return nil, nil
	}

	switch x := v.(type) {
	case string:
		t, err := ParseDate(x)
		if err != nil {
			return nil, err
		}
		return &t, nil
	case float64:
		if math.IsInf(x, 0) || math.Abs(x) > maxDateMillis {
			return nil, ErrInvalidDate
		}
		t := time.UnixMilli(int64(math.Trunc(x))).UTC()
		return &t, nil
	default:
		return nil, ErrInvalidDate
	}
}

// Layout có timezone
var zonedLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04Z07:00",
	time.RFC1123,
	time.RFC1123Z,
	time.RFC850,
	time.ANSIC,
	"Mon Jan 02 2006 15:04:05 GMT-0700",
	"Mon, 02 Jan 2006 15:04:05 GMT",
}

// Date-only dạng ISO → UTC
var utcLayouts = []string{
	"2006-01-02",
	"2006-01",
	"2006",
}

// Date-time không có timezone → giờ local của server
var localLayouts = []string{
	"2006-01-02T15:04:05.999999999",
	"2006-01-02T15:04",
	"2006-01-02 15:04:05.999999999",
	"2006-01-02 15:04",
	"01/02/2006",
	"01/02/2006 15:04:05",
	"1/2/2006",
	"January 2, 2006",
	"Jan 2, 2006",
	"2 January 2006",
	"2 Jan 2006",
}

// ParseDate parse chuỗi ngày theo các format phổ biến của Date.parse
func ParseDate(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, ErrInvalidDate
	}

	// Date.prototype.toString(): "Tue Mar 05 2024 10:00:00 GMT+0100 (Central European Standard Time)"
	if i := strings.Index(s, " ("); i > 0 {
		s = s[:i]
	}

	for _, layout := range zonedLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t.UTC(), nil
		}
	}
	for _, layout := range utcLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, nil
		}
	}
	for _, layout := range localLayouts {
		if t, err := time.ParseInLocation(layout, s, time.Local); err == nil {
			return t.UTC(), nil
		}
	}
	return time.Time{}, ErrInvalidDate
}

// ToStringValue ép một field chuỗi:
// nil → "" (xóa), string giữ nguyên, number/bool → dạng chuỗi,
// object/array → ErrNotAString
func ToStringValue(v interface{}) (string, error) {
	switch x := v.(type) {
	case nil:
		return "", nil
	case string:
		return x, nil
	case bool:
		return strconv.FormatBool(x), nil
	case float64:
		return FormatNumber(x), nil
	default:
		return "", ErrNotAString
	}
}

// FormatNumber in số giống String(n) cho các giá trị thường gặp
func FormatNumber(f float64) string {
	switch {
	case math.IsNaN(f):
		return "NaN"
	case math.IsInf(f, 1):
		return "Infinity"
	case math.IsInf(f, -1):
		return "-Infinity"
	}
	abs := math.Abs(f)
	if abs != 0 && (abs >= 1e21 || abs < 1e-6) {
		return strconv.FormatFloat(f, 'e', -1, 64)
	}
	return strconv.FormatFloat(f, 'f', -1, 64)
}

// ToArray trả về slice nếu v là JSON array
func ToArray(v interface{}) ([]interface{}, error) {
	arr, ok := v.([]interface{})
	if !ok {
		return nil, ErrNotAnArray
	}
	return arr, nil
}
