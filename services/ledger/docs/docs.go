// Package docs registers the swagger spec for the ledger service.
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
        "/wallet": {
            "get": {
                "security": [{"BearerAuth": []}],
                "produces": ["application/json"],
                "tags": ["wallet"],
                "summary": "Get wallet",
                "responses": {"200": {"description": "OK"}}
            }
        },
        "/wallet/transactions": {
            "get": {
                "security": [{"BearerAuth": []}],
                "produces": ["application/json"],
                "tags": ["wallet"],
                "summary": "Get coin transactions",
                "responses": {"200": {"description": "OK"}}
            }
        },
        "/rewards": {
            "post": {
                "security": [{"BearerAuth": []}],
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["rewards"],
                "summary": "Grant engagement reward",
                "responses": {"200": {"description": "OK"}, "400": {"description": "Bad Request"}}
            }
        },
        "/purchases": {
            "get": {
                "security": [{"BearerAuth": []}],
                "produces": ["application/json"],
                "tags": ["purchases"],
                "summary": "List purchases",
                "responses": {"200": {"description": "OK"}}
            },
            "post": {
                "security": [{"BearerAuth": []}],
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["purchases"],
                "summary": "Purchase content",
                "responses": {
                    "201": {"description": "Created"},
                    "402": {"description": "Payment Required"},
                    "409": {"description": "Conflict"}
                }
            }
        },
        "/purchases/{id}/download": {
            "get": {
                "security": [{"BearerAuth": []}],
                "produces": ["application/json"],
                "tags": ["purchases"],
                "summary": "Get download grant",
                "parameters": [{"type": "string", "name": "id", "in": "path", "required": true}],
                "responses": {"200": {"description": "OK"}, "404": {"description": "Not Found"}}
            }
        },
        "/withdrawals": {
            "get": {
                "security": [{"BearerAuth": []}],
                "produces": ["application/json"],
                "tags": ["withdrawals"],
                "summary": "List own withdrawals",
                "responses": {"200": {"description": "OK"}}
            },
            "post": {
                "security": [{"BearerAuth": []}],
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["withdrawals"],
                "summary": "Request withdrawal",
                "responses": {"201": {"description": "Created"}, "402": {"description": "Payment Required"}}
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

var SwaggerInfo = &swag.Spec{
	Version:          "1.0",
	Host:             "localhost:8010",
	BasePath:         "/api/v1",
	Schemes:          []string{},
	Title:            "YoForex Ledger Service API",
	Description:      "Coin wallet, reward, purchase and withdrawal API for the YoForex platform",
	InfoInstanceName: "swagger",
	SwaggerTemplate:  docTemplate,
}

func init() {
	swag.Register(SwaggerInfo.InstanceName(), SwaggerInfo)
}
