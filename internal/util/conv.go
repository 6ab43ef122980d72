package util

import (
	"strconv"
)

// MustParseUint 将字符串转换为无符号整数，解析失败时返回 0
func MustParseUint(s string) uint {
	id, _ := strconv.ParseUint(s, 10, 32)
	return uint(id)
}

// FormatID 对外统一使用字符串形式的 ID
func FormatID(id uint) string {
	return strconv.FormatUint(uint64(id), 10)
}

// ParseIDs 跳过无法解析的 ID
func ParseIDs(ss []string) []uint {
	ids := make([]uint, 0, len(ss))
	for _, s := range ss {
		if id := MustParseUint(s); id > 0 {
			ids = append(ids, id)
		}
	}
	return ids
}
