// Package docs 由 swag init 生成，修改接口注释后重新生成
package docs

import "github.com/swaggo/swag"

const docTemplate = `{
    "schemes": {{ marshal .Schemes }},
    "swagger": "2.0",
    "info": {
        "description": "{{escape .Description}}",
        "title": "{{.Title}}",
        "contact": {},
        "version": "{{.Version}}"
    },
    "host": "{{.Host}}",
    "basePath": "{{.BasePath}}",
    "paths": {
        "/health": {
            "get": {
                "description": "检查数据库与 Redis 状态",
                "produces": ["application/json"],
                "tags": ["系统"],
                "summary": "健康检查",
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/util.Response"}},
                    "503": {"description": "依赖不可用", "schema": {"$ref": "#/definitions/util.Response"}}
                }
            }
        },
        "/auth/send-otp": {
            "post": {
                "description": "向 +91 手机号发送 6 位验证码，之前未使用的验证码同时失效",
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["认证"],
                "summary": "发送手机验证码",
                "parameters": [
                    {"description": "手机号", "name": "body", "in": "body", "required": true, "schema": {"$ref": "#/definitions/controller.SendOTPRequest"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/util.Response"}},
                    "400": {"description": "手机号格式错误", "schema": {"$ref": "#/definitions/util.Response"}},
                    "429": {"description": "发送过于频繁", "schema": {"$ref": "#/definitions/util.Response"}}
                }
            }
        },
        "/auth/verify-otp": {
            "post": {
                "description": "验证通过后签发 JWT，首次登录自动注册",
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["认证"],
                "summary": "校验验证码并登录",
                "parameters": [
                    {"description": "验证码", "name": "body", "in": "body", "required": true, "schema": {"$ref": "#/definitions/controller.VerifyOTPRequest"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/util.Response"}},
                    "401": {"description": "验证码错误或已过期", "schema": {"$ref": "#/definitions/util.Response"}}
                }
            }
        },
        "/events/qr/{token}": {
            "get": {
                "produces": ["application/json"],
                "tags": ["活动"],
                "summary": "扫码进入活动",
                "parameters": [
                    {"type": "string", "description": "二维码令牌", "name": "token", "in": "path", "required": true}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/util.Response"}},
                    "404": {"description": "活动不存在", "schema": {"$ref": "#/definitions/util.Response"}},
                    "410": {"description": "活动已结束", "schema": {"$ref": "#/definitions/util.Response"}}
                }
            }
        },
        "/events/{id}/leaderboard": {
            "get": {
                "security": [{"ApiKeyAuth": []}],
                "description": "按通关数降序、总用时升序排列",
                "produces": ["application/json"],
                "tags": ["排行榜"],
                "summary": "活动排行榜",
                "parameters": [
                    {"type": "integer", "description": "活动ID", "name": "id", "in": "path", "required": true},
                    {"type": "string", "default": "all", "description": "all 或 completed", "name": "filter", "in": "query"},
                    {"type": "integer", "default": 50, "description": "每页数量", "name": "limit", "in": "query"},
                    {"type": "integer", "default": 0, "description": "偏移量", "name": "offset", "in": "query"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/util.Response"}},
                    "404": {"description": "活动不存在", "schema": {"$ref": "#/definitions/util.Response"}}
                }
            }
        }
    },
    "definitions": {
        "controller.SendOTPRequest": {
            "type": "object",
            "required": ["phoneNumber"],
            "properties": {"phoneNumber": {"type": "string"}}
        },
        "controller.VerifyOTPRequest": {
            "type": "object",
            "required": ["otpCode", "phoneNumber"],
            "properties": {
                "name": {"type": "string"},
                "otpCode": {"type": "string"},
                "phoneNumber": {"type": "string"}
            }
        },
        "util.Response": {
            "type": "object",
            "properties": {
                "code": {"type": "integer"},
                "data": {},
                "message": {"type": "string"}
            }
        }
    },
    "securityDefinitions": {
        "ApiKeyAuth": {"type": "apiKey", "name": "Authorization", "in": "header"}
    }
}`

// SwaggerInfo holds exported Swagger Info so clients can modify it
var SwaggerInfo = &swag.Spec{
	Version:          "1.0",
	Host:             "",
	BasePath:         "/api",
	Schemes:          []string{},
	Title:            "Party Games 后端 API",
	Description:      "活动派对小游戏的后端服务：扫码进入活动、逐关闯关、实时排行榜。",
	InfoInstanceName: "swagger",
	SwaggerTemplate:  docTemplate,
	LeftDelim:        "{{",
	RightDelim:       "}}",
}

func init() {
	swag.Register(SwaggerInfo.InstanceName(), SwaggerInfo)
}
