package utils

import (
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// RatingToDecimal làm tròn rating về NUMERIC(3,2)
func RatingToDecimal(number float64) decimal.Decimal {
	return decimal.NewFromFloat(number).Round(2)
}

// DecimalToFloat đọc NUMERIC từ DB về float64
func DecimalToFloat(d decimal.Decimal) float64 {
	f, _ := d.Float64()
	return f
}

// RoundRating - rating lưu với 2 chữ số thập phân ở mọi store
func RoundRating(number float64) float64 {
	return DecimalToFloat(RatingToDecimal(number))
}

// ParseStringToUUID trả về uuid.Nil nếu chuỗi không phải UUID hợp lệ
func ParseStringToUUID(s string) uuid.UUID {
	uid, err := uuid.Parse(s)
	if err != nil || s == "" {
		return uuid.Nil
	}
	return uid
}
