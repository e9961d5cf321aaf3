// Package docs registers the OpenAPI description of the HTTP API with swag
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
    "securityDefinitions": {
        "BearerAuth": {
            "type": "apiKey",
            "name": "Authorization",
            "in": "header"
        }
    },
    "paths": {
        "/api/v1/auth/register": {"post": {"tags": ["Authentication"], "summary": "Register", "consumes": ["application/json"], "produces": ["application/json"], "responses": {"201": {"description": "Account created"}, "400": {"description": "Validation error"}, "409": {"description": "Email already registered"}}}},
        "/api/v1/auth/login": {"post": {"tags": ["Authentication"], "summary": "Login", "consumes": ["application/json"], "produces": ["application/json"], "responses": {"200": {"description": "Login successful"}, "401": {"description": "Invalid credentials"}}}},
        "/api/v1/auth/refresh": {"post": {"tags": ["Authentication"], "summary": "Refresh tokens", "responses": {"200": {"description": "Tokens refreshed"}, "401": {"description": "Invalid refresh token"}}}},
        "/api/v1/auth/logout": {"post": {"tags": ["Authentication"], "summary": "Logout", "security": [{"BearerAuth": []}], "responses": {"200": {"description": "Logged out"}}}},
        "/api/v1/auth/sessions": {"get": {"tags": ["Authentication"], "summary": "List sessions", "security": [{"BearerAuth": []}], "responses": {"200": {"description": "Active sessions"}}}},
        "/api/v1/auth/sessions/{id}": {"delete": {"tags": ["Authentication"], "summary": "Revoke session", "security": [{"BearerAuth": []}], "parameters": [{"type": "string", "name": "id", "in": "path", "required": true}], "responses": {"200": {"description": "Session revoked"}, "404": {"description": "Session not found"}}}},
        "/api/v1/campaigns": {"get": {"tags": ["Campaigns"], "summary": "List campaigns", "security": [{"BearerAuth": []}], "responses": {"200": {"description": "Campaigns"}}}},
        "/api/v1/campaigns/send": {"post": {"tags": ["Campaigns"], "summary": "Send campaign", "security": [{"BearerAuth": []}], "responses": {"200": {"description": "Campaign sent or scheduled"}, "400": {"description": "Validation error"}, "403": {"description": "Insufficient credits"}, "409": {"description": "Another send is in progress"}}}},
        "/api/v1/campaigns/credits": {"get": {"tags": ["Campaigns"], "summary": "Get credits", "security": [{"BearerAuth": []}], "responses": {"200": {"description": "Credit balance"}}}},
        "/api/v1/campaigns/verify-email": {"post": {"tags": ["Campaigns"], "summary": "Verify sender email", "security": [{"BearerAuth": []}], "responses": {"200": {"description": "Verification status"}, "400": {"description": "Missing or malformed email"}}}},
        "/api/v1/campaigns/{id}": {
            "get": {"tags": ["Campaigns"], "summary": "Get campaign", "security": [{"BearerAuth": []}], "parameters": [{"type": "integer", "name": "id", "in": "path", "required": true}], "responses": {"200": {"description": "Campaign"}, "404": {"description": "Campaign not found"}}},
            "delete": {"tags": ["Campaigns"], "summary": "Delete campaign", "security": [{"BearerAuth": []}], "parameters": [{"type": "integer", "name": "id", "in": "path", "required": true}], "responses": {"200": {"description": "Campaign deleted"}, "404": {"description": "Campaign not found"}}}
        },
        "/api/v1/contacts": {
            "get": {"tags": ["Contacts"], "summary": "List contacts", "security": [{"BearerAuth": []}], "responses": {"200": {"description": "Contacts"}}},
            "post": {"tags": ["Contacts"], "summary": "Create contact", "security": [{"BearerAuth": []}], "responses": {"201": {"description": "Contact created"}, "400": {"description": "Validation error or duplicate email"}}}
        },
        "/api/v1/contacts/export": {"get": {"tags": ["Contacts"], "summary": "Export contacts", "security": [{"BearerAuth": []}], "produces": ["application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"], "responses": {"200": {"description": "Workbook"}}}},
        "/api/v1/contacts/{id}": {
            "get": {"tags": ["Contacts"], "summary": "Get contact", "security": [{"BearerAuth": []}], "parameters": [{"type": "integer", "name": "id", "in": "path", "required": true}], "responses": {"200": {"description": "Contact"}, "404": {"description": "Contact not found"}}},
            "patch": {"tags": ["Contacts"], "summary": "Update contact", "security": [{"BearerAuth": []}], "parameters": [{"type": "integer", "name": "id", "in": "path", "required": true}], "responses": {"200": {"description": "Contact updated"}, "404": {"description": "Contact not found"}}},
            "delete": {"tags": ["Contacts"], "summary": "Delete contact", "security": [{"BearerAuth": []}], "parameters": [{"type": "integer", "name": "id", "in": "path", "required": true}], "responses": {"200": {"description": "Contact deleted"}, "404": {"description": "Contact not found"}}}
        },
        "/api/v1/support/message": {"post": {"tags": ["Support"], "summary": "Send support message", "responses": {"200": {"description": "Message saved"}, "400": {"description": "Name and message are required"}}}},
        "/api/v1/support/ticket": {"post": {"tags": ["Support"], "summary": "Open support ticket", "security": [{"BearerAuth": []}], "consumes": ["multipart/form-data"], "responses": {"200": {"description": "Ticket saved"}, "400": {"description": "Validation error"}}}},
        "/api/v1/support/file/{id}": {"get": {"tags": ["Support"], "summary": "Download support file", "security": [{"BearerAuth": []}], "parameters": [{"type": "integer", "name": "id", "in": "path", "required": true}], "responses": {"200": {"description": "Attachment"}, "403": {"description": "Not the ticket owner"}, "404": {"description": "File not found"}}}}
    }
}`

// SwaggerInfo holds exported Swagger Info so clients can modify it
var SwaggerInfo = &swag.Spec{
	Version:          "1.0",
	Host:             "",
	BasePath:         "/",
	Schemes:          []string{},
	Title:            "Orochi CRM API",
	Description:      "Campaigns, credits, contacts and support for the Orochi CRM dashboard",
	InfoInstanceName: "swagger",
	SwaggerTemplate:  docTemplate,
	LeftDelim:        "{{",
	RightDelim:       "}}",
}

func init() {
	swag.Register(SwaggerInfo.InstanceName(), SwaggerInfo)
}
