package util

import (
	"strconv"

	"github.com/gin-gonic/gin"
)

// ParamUint 解析路径参数为 uint，失败时已写入 400 响应
func ParamUint(c *gin.Context, name string) (uint, bool) {
	id, err := strconv.ParseUint(c.Param(name), 10, 32)
	if err != nil || id == 0 {
		BadRequest(c, "invalid "+name)
		return 0, false
	}
	return uint(id), true
}

// QueryInt 查询参数缺失或非法时返回 def
func QueryInt(c *gin.Context, name string, def int) int {
	v, err := strconv.Atoi(c.Query(name))
	if err != nil {
		return def
	}
	return v
}
