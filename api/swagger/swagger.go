package swagger

import "github.com/swaggo/swag"

const docTemplate = `{
    "swagger": "2.0",
    "info": {
        "title": "Sign-Up Sheets API",
        "description": "Volunteer sign-up sheet and task management service",
        "version": "1.0.0"
    },
    "basePath": "/api/v1",
    "schemes": [
        "http"
    ],
    "tags": [
        {"name": "Authentication", "description": "Admin session management"},
        {"name": "Sheets", "description": "Sign-up sheet lifecycle"},
        {"name": "Tasks", "description": "Tasks and slots on a sheet"},
        {"name": "Signups", "description": "Volunteer sign-up admission"},
        {"name": "Validation", "description": "Email validation round-trip"},
        {"name": "Templates", "description": "Email template management"},
        {"name": "Exports", "description": "Roster downloads"},
        {"name": "Maintenance", "description": "Manual background job triggers"}
    ],
    "paths": {
        "/auth/login": {
            "post": {
                "tags": ["Authentication"],
                "summary": "Authenticate admin user",
                "parameters": [
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/LoginRequest"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "401": {"description": "Invalid credentials"}
                }
            }
        },
        "/auth/refresh": {
            "post": {
                "tags": ["Authentication"],
                "summary": "Refresh access token",
                "parameters": [
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/RefreshTokenRequest"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/auth/logout": {
            "post": {
                "tags": ["Authentication"],
                "summary": "Revoke refresh token",
                "responses": {
                    "204": {"description": "No Content"}
                }
            }
        },
        "/auth/me": {
            "get": {
                "tags": ["Authentication"],
                "summary": "Get current user",
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/sheets": {
            "get": {
                "tags": ["Sheets"],
                "summary": "List sheets",
                "parameters": [
                    {"name": "group", "in": "query", "type": "string"},
                    {"name": "search", "in": "query", "type": "string"},
                    {"name": "trashed", "in": "query", "type": "string", "enum": ["only", "include"]},
                    {"name": "page", "in": "query", "type": "integer"},
                    {"name": "page_size", "in": "query", "type": "integer"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            },
            "post": {
                "tags": ["Sheets"],
                "summary": "Create sheet",
                "parameters": [
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/SaveSheetRequest"}}
                ],
                "responses": {
                    "201": {"description": "Created", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/sheets/{id}": {
            "get": {
                "tags": ["Sheets"],
                "summary": "Get sheet with tasks",
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "integer"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "404": {"description": "Not Found"}
                }
            },
            "put": {
                "tags": ["Sheets"],
                "summary": "Update sheet (type is immutable)",
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "integer"},
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/SaveSheetRequest"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            },
            "delete": {
                "tags": ["Sheets"],
                "summary": "Move sheet to trash",
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "integer"}
                ],
                "responses": {
                    "204": {"description": "No Content"}
                }
            }
        },
        "/sheets/{id}/dates": {
            "put": {
                "tags": ["Sheets"],
                "summary": "Rewrite the shared date list for every task",
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "integer"},
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/ApplyDatesRequest"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "409": {"description": "Existing signups block removed dates"}
                }
            }
        },
        "/sheets/{id}/restore": {
            "put": {
                "tags": ["Sheets"],
                "summary": "Restore sheet from trash",
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "integer"}
                ],
                "responses": {
                    "204": {"description": "No Content"}
                }
            }
        },
        "/sheets/{id}/purge": {
            "delete": {
                "tags": ["Sheets"],
                "summary": "Permanently delete sheet, tasks and signups",
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "integer"}
                ],
                "responses": {
                    "204": {"description": "No Content"}
                }
            }
        },
        "/sheets/{id}/tasks": {
            "get": {
                "tags": ["Tasks"],
                "summary": "List tasks on a sheet",
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "integer"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            },
            "post": {
                "tags": ["Tasks"],
                "summary": "Create task on a sheet",
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "integer"},
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/SaveTaskRequest"}}
                ],
                "responses": {
                    "201": {"description": "Created", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/sheets/{id}/tasks/order": {
            "put": {
                "tags": ["Tasks"],
                "summary": "Reorder tasks",
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "integer"},
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/ReorderTasksRequest"}}
                ],
                "responses": {
                    "204": {"description": "No Content"}
                }
            }
        },
        "/sheets/{id}/export": {
            "get": {
                "tags": ["Exports"],
                "summary": "Download roster as CSV or PDF",
                "produces": ["application/octet-stream"],
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "integer"},
                    {"name": "format", "in": "query", "type": "string", "enum": ["csv", "pdf"]}
                ],
                "responses": {
                    "200": {"description": "File download"}
                }
            }
        },
        "/tasks/{id}": {
            "get": {
                "tags": ["Tasks"],
                "summary": "Get task",
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "integer"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            },
            "put": {
                "tags": ["Tasks"],
                "summary": "Update task",
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "integer"},
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/SaveTaskRequest"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            },
            "delete": {
                "tags": ["Tasks"],
                "summary": "Delete task and its signups",
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "integer"}
                ],
                "responses": {
                    "204": {"description": "No Content"}
                }
            }
        },
        "/tasks/{id}/spots": {
            "get": {
                "tags": ["Signups"],
                "summary": "Remaining spots for a task date",
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "integer"},
                    {"name": "date", "in": "query", "type": "string"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/tasks/{id}/signups": {
            "get": {
                "tags": ["Signups"],
                "summary": "List signups for a task date",
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "integer"},
                    {"name": "date", "in": "query", "type": "string"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/signups": {
            "post": {
                "tags": ["Signups"],
                "summary": "Sign up for a task",
                "parameters": [
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/SignupRequest"}}
                ],
                "responses": {
                    "201": {"description": "Created", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "409": {"description": "Task full or duplicate signup"}
                }
            }
        },
        "/signups/mine": {
            "get": {
                "tags": ["Signups"],
                "summary": "List the caller's signups",
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "401": {"description": "No identity"}
                }
            }
        },
        "/signups/{id}": {
            "put": {
                "tags": ["Signups"],
                "summary": "Edit an owned signup",
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "integer"},
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/SignupRequest"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "403": {"description": "Not the owner"}
                }
            },
            "delete": {
                "tags": ["Signups"],
                "summary": "Clear a signup",
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "integer"}
                ],
                "responses": {
                    "204": {"description": "No Content"},
                    "403": {"description": "Clear window closed"}
                }
            }
        },
        "/validate/request": {
            "post": {
                "tags": ["Validation"],
                "summary": "Request a validation code by email",
                "parameters": [
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/RequestValidationRequest"}}
                ],
                "responses": {
                    "202": {"description": "Accepted"}
                }
            }
        },
        "/validate": {
            "get": {
                "tags": ["Validation"],
                "summary": "Confirm a validation code and set the identity cookie",
                "parameters": [
                    {"name": "code", "in": "query", "required": true, "type": "string"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "404": {"description": "Unknown or expired code"}
                }
            }
        },
        "/templates": {
            "get": {
                "tags": ["Templates"],
                "summary": "List email templates",
                "parameters": [
                    {"name": "email_type", "in": "query", "type": "string"},
                    {"name": "defaults_only", "in": "query", "type": "boolean"},
                    {"name": "page", "in": "query", "type": "integer"},
                    {"name": "page_size", "in": "query", "type": "integer"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            },
            "post": {
                "tags": ["Templates"],
                "summary": "Create email template",
                "parameters": [
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/SaveTemplateRequest"}}
                ],
                "responses": {
                    "201": {"description": "Created", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/templates/{id}": {
            "get": {
                "tags": ["Templates"],
                "summary": "Get email template",
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "integer"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            },
            "put": {
                "tags": ["Templates"],
                "summary": "Update email template",
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "integer"},
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/SaveTemplateRequest"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            },
            "delete": {
                "tags": ["Templates"],
                "summary": "Delete email template",
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "integer"}
                ],
                "responses": {
                    "204": {"description": "No Content"}
                }
            }
        },
        "/maintenance/sweep": {
            "post": {
                "tags": ["Maintenance"],
                "summary": "Run the expiry sweep now",
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/maintenance/reminders": {
            "post": {
                "tags": ["Maintenance"],
                "summary": "Dispatch due reminder emails now",
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        }
    },
    "definitions": {
        "LoginRequest": {
            "type": "object",
            "properties": {
                "email": {"type": "string"},
                "password": {"type": "string"}
            },
            "required": ["email", "password"]
        },
        "RefreshTokenRequest": {
            "type": "object",
            "properties": {
                "refresh_token": {"type": "string"}
            },
            "required": ["refresh_token"]
        },
        "SaveSheetRequest": {
            "type": "object",
            "properties": {
                "title": {"type": "string"},
                "details": {"type": "string"},
                "type": {"type": "string", "enum": ["SINGLE", "RECURRING", "MULTI_DAY", "ONGOING"]},
                "chair_name": {"type": "string"},
                "chair_email": {"type": "string"},
                "sheet_group": {"type": "string"},
                "dates": {"type": "array", "items": {"type": "string"}},
                "recurrence_rule": {"type": "string"},
                "recurrence_start": {"type": "string"},
                "reminder1_days": {"type": "integer"},
                "reminder2_days": {"type": "integer"},
                "clear": {"type": "boolean"},
                "clear_type": {"type": "string", "enum": ["days", "hours"]},
                "clear_days": {"type": "integer"},
                "no_signups": {"type": "boolean"},
                "duplicate_times": {"type": "boolean"},
                "visible": {"type": "boolean"},
                "confirmation_template_id": {"type": "integer"},
                "reminder1_template_id": {"type": "integer"},
                "reminder2_template_id": {"type": "integer"}
            },
            "required": ["title", "type"]
        },
        "ApplyDatesRequest": {
            "type": "object",
            "properties": {
                "dates": {"type": "array", "items": {"type": "string"}},
                "recurrence_rule": {"type": "string"},
                "recurrence_start": {"type": "string"},
                "recurrence_count": {"type": "integer"},
                "override": {"type": "boolean"}
            }
        },
        "SaveTaskRequest": {
            "type": "object",
            "properties": {
                "title": {"type": "string"},
                "description": {"type": "string"},
                "dates": {"type": "array", "items": {"type": "string"}},
                "time_start": {"type": "string"},
                "time_end": {"type": "string"},
                "qty": {"type": "integer"},
                "need_details": {"type": "boolean"},
                "details_required": {"type": "boolean"},
                "details_text": {"type": "string"},
                "allow_duplicates": {"type": "boolean"},
                "enable_quantities": {"type": "boolean"}
            },
            "required": ["title"]
        },
        "ReorderTasksRequest": {
            "type": "object",
            "properties": {
                "task_ids": {"type": "array", "items": {"type": "integer"}}
            },
            "required": ["task_ids"]
        },
        "SignupRequest": {
            "type": "object",
            "properties": {
                "task_id": {"type": "integer"},
                "date": {"type": "string"},
                "firstname": {"type": "string"},
                "lastname": {"type": "string"},
                "email": {"type": "string"},
                "phone": {"type": "string"},
                "item": {"type": "string"},
                "item_qty": {"type": "integer"},
                "extra": {"type": "object"}
            },
            "required": ["task_id", "firstname", "lastname", "email"]
        },
        "RequestValidationRequest": {
            "type": "object",
            "properties": {
                "firstname": {"type": "string"},
                "lastname": {"type": "string"},
                "email": {"type": "string"}
            },
            "required": ["firstname", "lastname", "email"]
        },
        "SaveTemplateRequest": {
            "type": "object",
            "properties": {
                "email_type": {"type": "string", "enum": ["confirmation", "reminder1", "reminder2", "clear", "reschedule"]},
                "subject": {"type": "string"},
                "body": {"type": "string"},
                "from_name": {"type": "string"},
                "from_email": {"type": "string"},
                "is_default": {"type": "boolean"}
            },
            "required": ["email_type", "subject", "body"]
        },
        "Pagination": {
            "type": "object",
            "properties": {
                "page": {"type": "integer"},
                "page_size": {"type": "integer"},
                "total_count": {"type": "integer"}
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
        "ResponseEnvelope": {
            "type": "object",
            "properties": {
                "data": {"type": "object"},
                "error": {"$ref": "#/definitions/APIError"},
                "pagination": {"$ref": "#/definitions/Pagination"},
                "meta": {"type": "object"}
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
