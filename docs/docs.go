// Package docs holds the OpenAPI document of the auth API. Regenerate with
// swag from the handler annotations after changing an endpoint.
package docs

import "github.com/swaggo/swag/v2"

const docTemplate = `{
    "openapi": "3.1.0",
    "info": {
        "title": "{{.Title}}",
        "description": "{{escape .Description}}",
        "version": "{{.Version}}"
    },
    "servers": [{"url": "{{.BasePath}}"}],
    "paths": {
        "/auth/register": {
            "post": {
                "operationId": "registerUser",
                "tags": ["auth"],
                "summary": "Register a new account",
                "requestBody": {"required": true, "content": {"application/json": {"schema": {"$ref": "#/components/schemas/RegisterRequest"}}}},
                "responses": {
                    "201": {"description": "Created", "content": {"application/json": {"schema": {"$ref": "#/components/schemas/AuthEnvelope"}}}},
                    "400": {"$ref": "#/components/responses/Error"},
                    "409": {"$ref": "#/components/responses/Error"},
                    "429": {"$ref": "#/components/responses/Error"},
                    "500": {"$ref": "#/components/responses/Error"}
                }
            }
        },
        "/auth/login": {
            "post": {
                "operationId": "loginUser",
                "tags": ["auth"],
                "summary": "User login",
                "requestBody": {"required": true, "content": {"application/json": {"schema": {"$ref": "#/components/schemas/LoginRequest"}}}},
                "responses": {
                    "200": {"description": "OK", "content": {"application/json": {"schema": {"$ref": "#/components/schemas/AuthEnvelope"}}}},
                    "400": {"$ref": "#/components/responses/Error"},
                    "401": {"$ref": "#/components/responses/Error"},
                    "429": {"$ref": "#/components/responses/Error"},
                    "500": {"$ref": "#/components/responses/Error"}
                }
            }
        },
        "/auth/refresh-token": {
            "post": {
                "operationId": "refreshToken",
                "tags": ["auth"],
                "summary": "Refresh the token pair",
                "requestBody": {"required": true, "content": {"application/json": {"schema": {"$ref": "#/components/schemas/RefreshTokenRequest"}}}},
                "responses": {
                    "200": {"description": "OK", "content": {"application/json": {"schema": {"$ref": "#/components/schemas/TokenEnvelope"}}}},
                    "400": {"$ref": "#/components/responses/Error"},
                    "401": {"$ref": "#/components/responses/Error"},
                    "429": {"$ref": "#/components/responses/Error"},
                    "500": {"$ref": "#/components/responses/Error"}
                }
            }
        },
        "/auth/logout": {
            "post": {
                "operationId": "logoutUser",
                "tags": ["auth"],
                "summary": "User logout",
                "security": [{"BearerAuth": []}, {}],
                "requestBody": {"required": false, "content": {"application/json": {"schema": {"$ref": "#/components/schemas/RefreshTokenRequest"}}}},
                "responses": {
                    "200": {"description": "OK", "content": {"application/json": {"schema": {"$ref": "#/components/schemas/MessageResponse"}}}}
                }
            }
        },
        "/auth/me": {
            "get": {
                "operationId": "getCurrentUser",
                "tags": ["auth"],
                "summary": "Get current user",
                "security": [{"BearerAuth": []}],
                "responses": {
                    "200": {"description": "OK", "content": {"application/json": {"schema": {"$ref": "#/components/schemas/CurrentUserEnvelope"}}}},
                    "401": {"$ref": "#/components/responses/Error"},
                    "404": {"$ref": "#/components/responses/Error"},
                    "500": {"$ref": "#/components/responses/Error"}
                }
            }
        },
        "/user/check-username/{username}": {
            "get": {
                "operationId": "checkUsername",
                "tags": ["users"],
                "summary": "Check username availability",
                "parameters": [{"name": "username", "in": "path", "required": true, "schema": {"type": "string"}}],
                "responses": {
                    "200": {"description": "OK", "content": {"application/json": {"schema": {"$ref": "#/components/schemas/UsernameEnvelope"}}}},
                    "400": {"$ref": "#/components/responses/Error"},
                    "500": {"$ref": "#/components/responses/Error"}
                }
            }
        }
    },
    "components": {
        "securitySchemes": {
            "BearerAuth": {"type": "http", "scheme": "bearer", "bearerFormat": "JWT"}
        },
        "responses": {
            "Error": {"description": "Error", "content": {"application/json": {"schema": {"$ref": "#/components/schemas/ErrorResponse"}}}}
        },
        "schemas": {
            "RegisterRequest": {
                "type": "object",
                "properties": {
                    "email": {"type": "string", "maxLength": 320, "example": "jane@example.com"},
                    "password": {"type": "string", "maxLength": 1024, "example": "Secret123"},
                    "confirmPassword": {"type": "string", "maxLength": 1024, "example": "Secret123"},
                    "firstName": {"type": "string", "maxLength": 200, "example": "Jane"},
                    "lastName": {"type": "string", "maxLength": 200, "example": "Doe"}
                }
            },
            "LoginRequest": {
                "type": "object",
                "properties": {
                    "email": {"type": "string", "maxLength": 320},
                    "password": {"type": "string", "maxLength": 1024}
                }
            },
            "RefreshTokenRequest": {
                "type": "object",
                "properties": {"refreshToken": {"type": "string", "maxLength": 4096}}
            },
            "UserInfo": {
                "type": "object",
                "properties": {
                    "id": {"type": "string", "format": "uuid"},
                    "email": {"type": "string"},
                    "username": {"type": "string"},
                    "firstName": {"type": "string"},
                    "lastName": {"type": "string"},
                    "isEmailVerified": {"type": "boolean"},
                    "lastLoginAt": {"type": "string", "format": "date-time"},
                    "createdAt": {"type": "string", "format": "date-time"},
                    "updatedAt": {"type": "string", "format": "date-time"}
                }
            },
            "AuthEnvelope": {
                "type": "object",
                "properties": {
                    "success": {"type": "boolean"},
                    "message": {"type": "string"},
                    "data": {
                        "type": "object",
                        "properties": {
                            "user": {"$ref": "#/components/schemas/UserInfo"},
                            "accessToken": {"type": "string"},
                            "refreshToken": {"type": "string"}
                        }
                    }
                }
            },
            "TokenEnvelope": {
                "type": "object",
                "properties": {
                    "success": {"type": "boolean"},
                    "message": {"type": "string"},
                    "data": {
                        "type": "object",
                        "properties": {
                            "accessToken": {"type": "string"},
                            "refreshToken": {"type": "string"}
                        }
                    }
                }
            },
            "CurrentUserEnvelope": {
                "type": "object",
                "properties": {
                    "success": {"type": "boolean"},
                    "data": {"type": "object", "properties": {"user": {"$ref": "#/components/schemas/UserInfo"}}}
                }
            },
            "UsernameEnvelope": {
                "type": "object",
                "properties": {
                    "success": {"type": "boolean"},
                    "data": {
                        "type": "object",
                        "properties": {
                            "username": {"type": "string"},
                            "available": {"type": "boolean"},
                            "message": {"type": "string"}
                        }
                    }
                }
            },
            "MessageResponse": {
                "type": "object",
                "properties": {
                    "success": {"type": "boolean"},
                    "message": {"type": "string"}
                }
            },
            "ErrorResponse": {
                "type": "object",
                "properties": {
                    "success": {"type": "boolean", "example": false},
                    "error": {
                        "type": "object",
                        "properties": {
                            "code": {"type": "string", "example": "VALIDATION_ERROR"},
                            "message": {"type": "string"},
                            "request_id": {"type": "string"},
                            "details": {
                                "type": "array",
                                "items": {
                                    "type": "object",
                                    "properties": {"field": {"type": "string"}, "message": {"type": "string"}}
                                }
                            }
                        }
                    }
                }
            }
        }
    }
}`

// SwaggerInfo holds exported Swagger Info so clients can modify it
var SwaggerInfo = &swag.Spec{
	Version:          "1.0",
	Host:             "",
	BasePath:         "/api",
	Schemes:          []string{},
	Title:            "Odyssey Auth API",
	Description:      "Account registration, login and token lifecycle.",
	InfoInstanceName: "swagger",
	SwaggerTemplate:  docTemplate,
	LeftDelim:        "{{",
	RightDelim:       "}}",
}

func init() {
	swag.Register(SwaggerInfo.InstanceName(), SwaggerInfo)
}
