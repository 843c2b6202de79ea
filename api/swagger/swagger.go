package swagger

import "github.com/swaggo/swag"

const docTemplate = `{
    "swagger": "2.0",
    "info": {
        "title": "WOW-CAMPUS Auth API",
        "description": "Token lifecycle service: registration, login, refresh and logout",
        "version": "1.0.0"
    },
    "basePath": "/api/v1",
    "schemes": [
        "http"
    ],
    "tags": [
        {"name": "Authentication", "description": "Session protocol endpoints"}
    ],
    "paths": {
        "/auth/register": {
            "post": {
                "tags": ["Authentication"],
                "summary": "Register a new account",
                "parameters": [
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/RegisterRequest"}}
                ],
                "responses": {
                    "201": {"description": "Created", "schema": {"$ref": "#/definitions/AuthEnvelope"}},
                    "400": {"description": "Validation failed", "schema": {"$ref": "#/definitions/ErrorEnvelope"}},
                    "409": {"description": "Email already registered", "schema": {"$ref": "#/definitions/ErrorEnvelope"}}
                }
            }
        },
        "/auth/login": {
            "post": {
                "tags": ["Authentication"],
                "summary": "Authenticate with email and password",
                "parameters": [
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/LoginRequest"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/AuthEnvelope"}},
                    "401": {"description": "Invalid credentials", "schema": {"$ref": "#/definitions/ErrorEnvelope"}},
                    "403": {"description": "Account not available", "schema": {"$ref": "#/definitions/ErrorEnvelope"}}
                }
            }
        },
        "/auth/refresh": {
            "post": {
                "tags": ["Authentication"],
                "summary": "Exchange a refresh token for a new access token",
                "description": "The refresh token is read from the request body or the wowcampus_refresh_token cookie.",
                "parameters": [
                    {"name": "payload", "in": "body", "required": false, "schema": {"$ref": "#/definitions/RefreshRequest"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/RefreshEnvelope"}},
                    "401": {"description": "Missing or invalid refresh token", "schema": {"$ref": "#/definitions/ErrorEnvelope"}},
                    "403": {"description": "User no longer available", "schema": {"$ref": "#/definitions/ErrorEnvelope"}}
                }
            }
        },
        "/auth/logout": {
            "post": {
                "tags": ["Authentication"],
                "summary": "Retire the current session's tokens",
                "description": "Always succeeds; blacklists the access token and revokes the refresh token when they are valid.",
                "parameters": [
                    {"name": "payload", "in": "body", "required": false, "schema": {"$ref": "#/definitions/LogoutRequest"}}
                ],
                "responses": {
                    "200": {"description": "OK"}
                }
            }
        },
        "/auth/users/{id}/sessions": {
            "delete": {
                "tags": ["Authentication"],
                "summary": "Revoke all active sessions for a user",
                "description": "Admins may target any user; other roles only their own account.",
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "integer"}
                ],
                "responses": {
                    "200": {"description": "OK"},
                    "400": {"description": "Invalid user id", "schema": {"$ref": "#/definitions/ErrorEnvelope"}},
                    "401": {"description": "Missing or invalid token", "schema": {"$ref": "#/definitions/ErrorEnvelope"}},
                    "403": {"description": "Not permitted for this user", "schema": {"$ref": "#/definitions/ErrorEnvelope"}},
                    "404": {"description": "Unknown user", "schema": {"$ref": "#/definitions/ErrorEnvelope"}}
                }
            }
        },
        "/auth/me": {
            "get": {
                "tags": ["Authentication"],
                "summary": "Current user info derived from the access token",
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/UserInfo"}},
                    "401": {"description": "Missing or invalid token", "schema": {"$ref": "#/definitions/ErrorEnvelope"}}
                }
            }
        }
    },
    "definitions": {
        "RegisterRequest": {
            "type": "object",
            "properties": {
                "email": {"type": "string"},
                "password": {"type": "string", "minLength": 6, "maxLength": 128},
                "confirmPassword": {"type": "string"},
                "name": {"type": "string", "maxLength": 100},
                "role": {"type": "string", "enum": ["jobseeker", "company", "agent"]},
                "phone": {"type": "string", "pattern": "^[0-9+\\-\\s()]+$", "maxLength": 20},
                "location": {"type": "string"}
            },
            "required": ["email", "password", "confirmPassword", "name", "role"]
        },
        "LoginRequest": {
            "type": "object",
            "properties": {
                "email": {"type": "string"},
                "password": {"type": "string"},
                "rememberMe": {"type": "boolean"}
            },
            "required": ["email", "password"]
        },
        "RefreshRequest": {
            "type": "object",
            "properties": {
                "refreshToken": {"type": "string"}
            }
        },
        "LogoutRequest": {
            "type": "object",
            "properties": {
                "accessToken": {"type": "string"},
                "refreshToken": {"type": "string"}
            }
        },
        "SanitizedUser": {
            "type": "object",
            "properties": {
                "id": {"type": "integer"},
                "email": {"type": "string"},
                "role": {"type": "string"},
                "status": {"type": "string"},
                "name": {"type": "string"},
                "phone": {"type": "string"},
                "location": {"type": "string"},
                "last_login_at": {"type": "string"},
                "created_at": {"type": "string"}
            }
        },
        "UserInfo": {
            "type": "object",
            "properties": {
                "id": {"type": "integer"},
                "email": {"type": "string"},
                "name": {"type": "string"},
                "role": {"type": "string"}
            }
        },
        "AuthResponse": {
            "type": "object",
            "properties": {
                "user": {"$ref": "#/definitions/SanitizedUser"},
                "accessToken": {"type": "string"},
                "refreshToken": {"type": "string"},
                "expiresIn": {"type": "integer"}
            }
        },
        "RefreshResponse": {
            "type": "object",
            "properties": {
                "accessToken": {"type": "string"},
                "expiresIn": {"type": "integer"}
            }
        },
        "APIError": {
            "type": "object",
            "properties": {
                "code": {"type": "string"},
                "message": {"type": "string"},
                "status": {"type": "integer"}
            }
        },
        "AuthEnvelope": {
            "type": "object",
            "properties": {
                "data": {"$ref": "#/definitions/AuthResponse"}
            }
        },
        "RefreshEnvelope": {
            "type": "object",
            "properties": {
                "data": {"$ref": "#/definitions/RefreshResponse"}
            }
        },
        "ErrorEnvelope": {
            "type": "object",
            "properties": {
                "error": {"$ref": "#/definitions/APIError"}
            }
        }
    }
}`

type swaggerDoc struct{}

// ReadDoc returns the Swagger document.
func (s *swaggerDoc) ReadDoc() string {
	return docTemplate
}

func init() {
	swag.Register(swag.Name, &swaggerDoc{})
}
