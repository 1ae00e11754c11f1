package service

import "strings"

// likeEscaper 转义 LIKE 的通配符，查询词里的 % 和 _ 按字面匹配。
var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

// likePattern 把查询词包装成大小写不敏感的子串匹配模式，
// 与 SQL 里的 ESCAPE '\' 配套使用。
func likePattern(q string) string {
	return "%" + likeEscaper.Replace(strings.ToLower(q)) + "%"
}
