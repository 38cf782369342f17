// Package docs Swagger 文档，修改接口注释后执行 swag init 重新生成
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
        "/api/v1/categories": {
            "get": {
                "security": [{"BearerAuth": []}],
                "produces": ["application/json"],
                "tags": ["消费类别"],
                "summary": "获取消费类别列表",
                "responses": {"200": {"description": "获取成功", "schema": {"$ref": "#/definitions/api.Response"}}}
            },
            "post": {
                "security": [{"BearerAuth": []}],
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["消费类别"],
                "summary": "创建消费类别",
                "parameters": [{"description": "类别信息", "name": "request", "in": "body", "required": true, "schema": {"$ref": "#/definitions/service.CategoryInput"}}],
                "responses": {
                    "201": {"description": "创建成功", "schema": {"$ref": "#/definitions/api.Response"}},
                    "400": {"description": "参数错误", "schema": {"$ref": "#/definitions/api.Response"}},
                    "409": {"description": "类别名称已存在", "schema": {"$ref": "#/definitions/api.Response"}}
                }
            }
        },
        "/api/v1/categories/reorder": {
            "put": {
                "security": [{"BearerAuth": []}],
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["消费类别"],
                "summary": "调整消费类别顺序",
                "parameters": [{"description": "类别ID列表", "name": "request", "in": "body", "required": true, "schema": {"$ref": "#/definitions/api.ReorderRequest"}}],
                "responses": {"200": {"description": "排序成功", "schema": {"$ref": "#/definitions/api.Response"}}}
            }
        },
        "/api/v1/categories/suggest": {
            "get": {
                "security": [{"BearerAuth": []}],
                "produces": ["application/json"],
                "tags": ["消费类别"],
                "summary": "推荐消费类别",
                "parameters": [{"type": "string", "description": "类别提示，如 restaurant / taxi", "name": "hint", "in": "query"}],
                "responses": {"200": {"description": "推荐成功", "schema": {"$ref": "#/definitions/api.Response"}}}
            }
        },
        "/api/v1/categories/{id}": {
            "get": {
                "security": [{"BearerAuth": []}],
                "produces": ["application/json"],
                "tags": ["消费类别"],
                "summary": "获取消费类别",
                "parameters": [{"type": "string", "description": "类别ID", "name": "id", "in": "path", "required": true}],
                "responses": {
                    "200": {"description": "获取成功", "schema": {"$ref": "#/definitions/api.Response"}},
                    "404": {"description": "类别不存在", "schema": {"$ref": "#/definitions/api.Response"}}
                }
            },
            "put": {
                "security": [{"BearerAuth": []}],
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["消费类别"],
                "summary": "更新消费类别",
                "parameters": [
                    {"type": "string", "description": "类别ID", "name": "id", "in": "path", "required": true},
                    {"description": "类别信息", "name": "request", "in": "body", "required": true, "schema": {"$ref": "#/definitions/service.CategoryUpdate"}}
                ],
                "responses": {
                    "200": {"description": "更新成功", "schema": {"$ref": "#/definitions/api.Response"}},
                    "400": {"description": "参数错误或系统类别", "schema": {"$ref": "#/definitions/api.Response"}},
                    "404": {"description": "类别不存在", "schema": {"$ref": "#/definitions/api.Response"}}
                }
            },
            "delete": {
                "security": [{"BearerAuth": []}],
                "produces": ["application/json"],
                "tags": ["消费类别"],
                "summary": "删除消费类别",
                "parameters": [{"type": "string", "description": "类别ID", "name": "id", "in": "path", "required": true}],
                "responses": {
                    "200": {"description": "删除成功", "schema": {"$ref": "#/definitions/api.Response"}},
                    "400": {"description": "不可删除", "schema": {"$ref": "#/definitions/api.Response"}}
                }
            }
        },
        "/api/v1/payment-methods": {
            "get": {
                "security": [{"BearerAuth": []}],
                "produces": ["application/json"],
                "tags": ["支付方式"],
                "summary": "获取支付方式列表",
                "parameters": [{"type": "boolean", "description": "是否包含停用的支付方式", "name": "include_inactive", "in": "query"}],
                "responses": {"200": {"description": "获取成功", "schema": {"$ref": "#/definitions/api.Response"}}}
            },
            "post": {
                "security": [{"BearerAuth": []}],
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["支付方式"],
                "summary": "创建支付方式",
                "parameters": [{"description": "支付方式信息", "name": "request", "in": "body", "required": true, "schema": {"$ref": "#/definitions/api.CreatePaymentMethodRequest"}}],
                "responses": {
                    "201": {"description": "创建成功", "schema": {"$ref": "#/definitions/api.Response"}},
                    "409": {"description": "名称已存在", "schema": {"$ref": "#/definitions/api.Response"}}
                }
            }
        },
        "/api/v1/payment-methods/stats": {
            "get": {
                "security": [{"BearerAuth": []}],
                "produces": ["application/json"],
                "tags": ["支付方式"],
                "summary": "获取支付方式统计",
                "responses": {"200": {"description": "获取成功", "schema": {"$ref": "#/definitions/api.Response"}}}
            }
        },
        "/api/v1/payment-methods/{id}": {
            "get": {
                "security": [{"BearerAuth": []}],
                "produces": ["application/json"],
                "tags": ["支付方式"],
                "summary": "获取支付方式",
                "parameters": [{"type": "string", "description": "支付方式ID", "name": "id", "in": "path", "required": true}],
                "responses": {"200": {"description": "获取成功", "schema": {"$ref": "#/definitions/api.Response"}}}
            },
            "put": {
                "security": [{"BearerAuth": []}],
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["支付方式"],
                "summary": "更新支付方式",
                "parameters": [
                    {"type": "string", "description": "支付方式ID", "name": "id", "in": "path", "required": true},
                    {"description": "支付方式信息", "name": "request", "in": "body", "required": true, "schema": {"$ref": "#/definitions/api.UpdatePaymentMethodRequest"}}
                ],
                "responses": {"200": {"description": "更新成功", "schema": {"$ref": "#/definitions/api.Response"}}}
            },
            "delete": {
                "security": [{"BearerAuth": []}],
                "produces": ["application/json"],
                "tags": ["支付方式"],
                "summary": "删除支付方式",
                "parameters": [{"type": "string", "description": "支付方式ID", "name": "id", "in": "path", "required": true}],
                "responses": {"200": {"description": "删除成功", "schema": {"$ref": "#/definitions/api.Response"}}}
            }
        },
        "/api/v1/payment-methods/{id}/default": {
            "put": {
                "security": [{"BearerAuth": []}],
                "produces": ["application/json"],
                "tags": ["支付方式"],
                "summary": "设为默认支付方式",
                "parameters": [{"type": "string", "description": "支付方式ID", "name": "id", "in": "path", "required": true}],
                "responses": {"200": {"description": "设置成功", "schema": {"$ref": "#/definitions/api.Response"}}}
            }
        },
        "/api/v1/expenses": {
            "get": {
                "security": [{"BearerAuth": []}],
                "produces": ["application/json"],
                "tags": ["消费记录"],
                "summary": "获取消费记录列表",
                "parameters": [
                    {"type": "integer", "default": 1, "description": "页码", "name": "page", "in": "query"},
                    {"type": "integer", "default": 10, "description": "每页数量，最大 100", "name": "page_size", "in": "query"},
                    {"type": "string", "description": "开始日期 (2024-01-01)", "name": "start_date", "in": "query"},
                    {"type": "string", "description": "结束日期 (2024-12-31)，包含当天", "name": "end_date", "in": "query"},
                    {"type": "string", "description": "类别ID", "name": "category_id", "in": "query"},
                    {"type": "string", "description": "支付方式ID", "name": "payment_method_id", "in": "query"},
                    {"type": "string", "default": "date", "description": "排序字段 date / amount / created_at", "name": "sort_by", "in": "query"},
                    {"type": "string", "default": "desc", "description": "排序方向 asc / desc", "name": "sort_order", "in": "query"}
                ],
                "responses": {"200": {"description": "获取成功", "schema": {"$ref": "#/definitions/api.Response"}}}
            },
            "post": {
                "security": [{"BearerAuth": []}],
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["消费记录"],
                "summary": "创建消费记录",
                "parameters": [{"description": "消费记录信息", "name": "request", "in": "body", "required": true, "schema": {"$ref": "#/definitions/api.CreateExpenseRequest"}}],
                "responses": {
                    "201": {"description": "创建成功", "schema": {"$ref": "#/definitions/api.Response"}},
                    "400": {"description": "请求参数错误", "schema": {"$ref": "#/definitions/api.Response"}},
                    "404": {"description": "类别或支付方式不存在", "schema": {"$ref": "#/definitions/api.Response"}}
                }
            }
        },
        "/api/v1/expenses/summary": {
            "get": {
                "security": [{"BearerAuth": []}],
                "produces": ["application/json"],
                "tags": ["统计"],
                "summary": "获取消费汇总",
                "responses": {"200": {"description": "获取成功", "schema": {"$ref": "#/definitions/api.Response"}}}
            }
        },
        "/api/v1/expenses/ocr": {
            "post": {
                "security": [{"BearerAuth": []}],
                "consumes": ["multipart/form-data"],
                "produces": ["application/json"],
                "tags": ["消费记录"],
                "summary": "小票识别记账",
                "parameters": [
                    {"type": "file", "description": "小票图片", "name": "receipt", "in": "formData", "required": true},
                    {"type": "string", "description": "类别ID，不传则按识别结果推荐", "name": "category_id", "in": "formData"},
                    {"type": "string", "description": "支付方式ID，不传则使用默认支付方式", "name": "payment_method_id", "in": "formData"},
                    {"type": "string", "description": "备注", "name": "notes", "in": "formData"}
                ],
                "responses": {
                    "201": {"description": "识别成功", "schema": {"$ref": "#/definitions/api.Response"}},
                    "429": {"description": "请求过于频繁", "schema": {"$ref": "#/definitions/api.Response"}},
                    "502": {"description": "识别服务失败", "schema": {"$ref": "#/definitions/api.Response"}}
                }
            }
        },
        "/api/v1/expenses/voice": {
            "post": {
                "security": [{"BearerAuth": []}],
                "consumes": ["multipart/form-data"],
                "produces": ["application/json"],
                "tags": ["消费记录"],
                "summary": "语音记账",
                "parameters": [
                    {"type": "file", "description": "录音文件", "name": "audio", "in": "formData", "required": true},
                    {"type": "string", "description": "类别ID，不传则按识别结果推荐", "name": "category_id", "in": "formData"},
                    {"type": "string", "description": "支付方式ID，不传则使用默认支付方式", "name": "payment_method_id", "in": "formData"},
                    {"type": "string", "description": "备注", "name": "notes", "in": "formData"}
                ],
                "responses": {
                    "201": {"description": "识别成功", "schema": {"$ref": "#/definitions/api.Response"}},
                    "429": {"description": "请求过于频繁", "schema": {"$ref": "#/definitions/api.Response"}},
                    "502": {"description": "识别服务失败", "schema": {"$ref": "#/definitions/api.Response"}}
                }
            }
        },
        "/api/v1/expenses/{id}": {
            "get": {
                "security": [{"BearerAuth": []}],
                "produces": ["application/json"],
                "tags": ["消费记录"],
                "summary": "获取单条消费记录",
                "parameters": [{"type": "string", "description": "消费记录ID", "name": "id", "in": "path", "required": true}],
                "responses": {"200": {"description": "获取成功", "schema": {"$ref": "#/definitions/api.Response"}}}
            },
            "put": {
                "security": [{"BearerAuth": []}],
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["消费记录"],
                "summary": "更新消费记录",
                "parameters": [
                    {"type": "string", "description": "消费记录ID", "name": "id", "in": "path", "required": true},
                    {"description": "消费记录信息", "name": "request", "in": "body", "required": true, "schema": {"$ref": "#/definitions/api.UpdateExpenseRequest"}}
                ],
                "responses": {"200": {"description": "更新成功", "schema": {"$ref": "#/definitions/api.Response"}}}
            },
            "delete": {
                "security": [{"BearerAuth": []}],
                "produces": ["application/json"],
                "tags": ["消费记录"],
                "summary": "删除消费记录",
                "parameters": [{"type": "string", "description": "消费记录ID", "name": "id", "in": "path", "required": true}],
                "responses": {"200": {"description": "删除成功", "schema": {"$ref": "#/definitions/api.Response"}}}
            }
        },
        "/api/v1/export/csv": {
            "get": {
                "security": [{"BearerAuth": []}],
                "produces": ["text/csv"],
                "tags": ["导出"],
                "summary": "导出消费记录",
                "parameters": [
                    {"type": "string", "description": "开始日期 (2024-01-01)", "name": "start_date", "in": "query", "required": true},
                    {"type": "string", "description": "结束日期 (2024-12-31)", "name": "end_date", "in": "query", "required": true}
                ],
                "responses": {"200": {"description": "CSV 文件", "schema": {"type": "file"}}}
            }
        },
        "/api/v1/export/excel": {
            "get": {
                "security": [{"BearerAuth": []}],
                "produces": ["application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"],
                "tags": ["导出"],
                "summary": "导出消费记录为 Excel",
                "parameters": [
                    {"type": "string", "description": "开始日期 (2024-01-01)", "name": "start_date", "in": "query", "required": true},
                    {"type": "string", "description": "结束日期 (2024-12-31)", "name": "end_date", "in": "query", "required": true}
                ],
                "responses": {"200": {"description": "Excel 文件", "schema": {"type": "file"}}}
            }
        }
    },
    "definitions": {
        "api.Response": {
            "type": "object",
            "properties": {
                "code": {"type": "integer"},
                "data": {},
                "message": {"type": "string"}
            }
        },
        "api.ReorderRequest": {
            "type": "object",
            "required": ["ids"],
            "properties": {"ids": {"type": "array", "items": {"type": "string"}}}
        },
        "service.CategoryInput": {
            "type": "object",
            "required": ["name"],
            "properties": {
                "name": {"type": "string", "maxLength": 50},
                "description": {"type": "string"},
                "icon": {"type": "string"},
                "color": {"type": "string"},
                "order_index": {"type": "integer"}
            }
        },
        "service.CategoryUpdate": {
            "type": "object",
            "properties": {
                "name": {"type": "string", "maxLength": 50},
                "description": {"type": "string"},
                "icon": {"type": "string"},
                "color": {"type": "string"},
                "order_index": {"type": "integer"}
            }
        },
        "api.CreatePaymentMethodRequest": {
            "type": "object",
            "required": ["name", "type"],
            "properties": {
                "name": {"type": "string", "example": "招商银行信用卡"},
                "type": {"type": "string", "example": "credit_card"},
                "last_four_digits": {"type": "string", "example": "4242"},
                "bank_name": {"type": "string"},
                "icon": {"type": "string"},
                "color": {"type": "string"},
                "balance": {"type": "number", "example": 1000},
                "credit_limit": {"type": "number", "example": 5000},
                "expiration_date": {"type": "string", "example": "2027-12-31"},
                "is_default": {"type": "boolean"}
            }
        },
        "api.UpdatePaymentMethodRequest": {
            "type": "object",
            "properties": {
                "name": {"type": "string"},
                "type": {"type": "string"},
                "last_four_digits": {"type": "string"},
                "bank_name": {"type": "string"},
                "icon": {"type": "string"},
                "color": {"type": "string"},
                "credit_limit": {"type": "number"},
                "expiration_date": {"type": "string", "example": "2027-12-31"},
                "is_active": {"type": "boolean"},
                "is_default": {"type": "boolean"}
            }
        },
        "api.CreateExpenseRequest": {
            "type": "object",
            "required": ["category_id", "payment_method_id"],
            "properties": {
                "amount": {"type": "number", "example": 99.99},
                "description": {"type": "string", "example": "午餐"},
                "notes": {"type": "string"},
                "date": {"type": "string", "example": "2024-01-15"},
                "category_id": {"type": "string"},
                "payment_method_id": {"type": "string"}
            }
        },
        "api.UpdateExpenseRequest": {
            "type": "object",
            "properties": {
                "amount": {"type": "number", "example": 99.99},
                "description": {"type": "string"},
                "notes": {"type": "string"},
                "date": {"type": "string", "example": "2024-01-15"},
                "category_id": {"type": "string"},
                "payment_method_id": {"type": "string"}
            }
        }
    },
    "securityDefinitions": {
        "BearerAuth": {
            "type": "apiKey",
            "name": "Authorization",
            "in": "header"
        }
    }
}`

// SwaggerInfo holds exported Swagger Info so clients can modify it
var SwaggerInfo = &swag.Spec{
	Version:          "1.0",
	Host:             "localhost:8080",
	BasePath:         "/",
	Schemes:          []string{},
	Title:            "Spendwise 记账 API",
	Description:      "个人记账后端：消费类别、支付方式余额、消费记录、汇总统计、小票与语音识别记账",
	InfoInstanceName: "swagger",
	SwaggerTemplate:  docTemplate,
	LeftDelim:        "{{",
	RightDelim:       "}}",
}

func init() {
	swag.Register(SwaggerInfo.InstanceName(), SwaggerInfo)
}
