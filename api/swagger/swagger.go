package swagger

import "github.com/swaggo/swag"

const docTemplate = `{
    "swagger": "2.0",
    "info": {
        "title": "Conduct Tracker API",
        "description": "Weekly classroom conduct tracking and ranking service",
        "version": "0.1.0"
    },
    "basePath": "/",
    "schemes": [
        "http"
    ],
    "tags": [
        {"name": "Auth", "description": "Authentication"},
        {"name": "Classes", "description": "Class metadata and week schedules"},
        {"name": "Users", "description": "Class rosters"},
        {"name": "Violations", "description": "Violation and commendation catalog"},
        {"name": "Reports", "description": "Weekly tracking and daily submissions"},
        {"name": "Rankings", "description": "Group standings and exports"},
        {"name": "Duty", "description": "Duty roster grid"}
    ],
    "paths": {
        "/health": {
            "get": {
                "summary": "Health check",
                "responses": {
                    "200": {"description": "OK"}
                }
            }
        },
        "/ready": {
            "get": {
                "summary": "Readiness check",
                "responses": {
                    "200": {"description": "Ready"}
                }
            }
        },
        "/api/v1/auth/login": {
            "post": {
                "tags": ["Auth"],
                "summary": "Authenticate a user",
                "parameters": [
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/LoginRequest"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "401": {"description": "Invalid credentials"}
                }
            }
        },
        "/api/v1/auth/me": {
            "get": {
                "tags": ["Auth"],
                "summary": "Current user claims",
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/api/v1/classes/{id}": {
            "get": {
                "tags": ["Classes"],
                "summary": "Class detail with week schedule",
                "parameters": [
                    {"name": "id", "in": "path", "type": "string", "required": true}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "404": {"description": "Not found"}
                }
            }
        },
        "/api/v1/classes/{id}/schedule": {
            "put": {
                "tags": ["Classes"],
                "summary": "Replace the curated week schedule",
                "parameters": [
                    {"name": "id", "in": "path", "type": "string", "required": true},
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/UpdateScheduleRequest"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "400": {"description": "Validation error"}
                }
            }
        },
        "/api/v1/users": {
            "get": {
                "tags": ["Users"],
                "summary": "Students of a class",
                "parameters": [
                    {"name": "class_id", "in": "query", "type": "string", "required": true},
                    {"name": "group", "in": "query", "type": "integer"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/api/v1/violations": {
            "get": {
                "tags": ["Violations"],
                "summary": "Violation and commendation catalog",
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/api/v1/reports/weekly": {
            "get": {
                "tags": ["Reports"],
                "summary": "Week view snapshot",
                "parameters": [
                    {"name": "class_id", "in": "query", "type": "string", "required": true},
                    {"name": "week", "in": "query", "type": "integer", "required": true},
                    {"name": "group", "in": "query", "type": "integer"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "400": {"description": "Week out of range"}
                }
            }
        },
        "/api/v1/reports/bulk": {
            "post": {
                "tags": ["Reports"],
                "summary": "Submit one day's conduct logs",
                "parameters": [
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/SubmitDayRequest"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "403": {"description": "Edit window closed"},
                    "409": {"description": "Submission in flight"}
                }
            }
        },
        "/api/v1/reports/{id}": {
            "delete": {
                "tags": ["Reports"],
                "summary": "Delete one conduct log",
                "parameters": [
                    {"name": "id", "in": "path", "type": "string", "required": true}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "403": {"description": "Edit window closed"},
                    "404": {"description": "Not found"}
                }
            }
        },
        "/api/v1/reports/note": {
            "get": {
                "tags": ["Reports"],
                "summary": "Daily note for a class, date and group",
                "parameters": [
                    {"name": "class_id", "in": "query", "type": "string", "required": true},
                    {"name": "date", "in": "query", "type": "string", "required": true},
                    {"name": "group", "in": "query", "type": "integer"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            },
            "post": {
                "tags": ["Reports"],
                "summary": "Upsert a daily note",
                "parameters": [
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/SaveNoteRequest"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "403": {"description": "Edit window closed"}
                }
            }
        },
        "/api/v1/reports/detailed": {
            "get": {
                "tags": ["Rankings"],
                "summary": "Raw conduct records over a custom range",
                "parameters": [
                    {"name": "class_id", "in": "query", "type": "string", "required": true},
                    {"name": "start_date", "in": "query", "type": "string", "required": true},
                    {"name": "end_date", "in": "query", "type": "string", "required": true},
                    {"name": "group", "in": "query", "type": "integer"},
                    {"name": "student_id", "in": "query", "type": "string"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/api/v1/rankings": {
            "get": {
                "tags": ["Rankings"],
                "summary": "Group rankings for a week or custom range",
                "parameters": [
                    {"name": "class_id", "in": "query", "type": "string", "required": true},
                    {"name": "week", "in": "query", "type": "integer"},
                    {"name": "start_date", "in": "query", "type": "string"},
                    {"name": "end_date", "in": "query", "type": "string"},
                    {"name": "group", "in": "query", "type": "integer"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/api/v1/rankings/export": {
            "get": {
                "tags": ["Rankings"],
                "summary": "Export rankings as csv or pdf",
                "parameters": [
                    {"name": "class_id", "in": "query", "type": "string", "required": true},
                    {"name": "start_date", "in": "query", "type": "string", "required": true},
                    {"name": "end_date", "in": "query", "type": "string", "required": true},
                    {"name": "format", "in": "query", "type": "string", "required": true}
                ],
                "responses": {
                    "200": {"description": "File"},
                    "403": {"description": "Export disabled"}
                }
            }
        },
        "/api/v1/duty/cells": {
            "get": {
                "tags": ["Duty"],
                "summary": "Duty grid for a class and date",
                "parameters": [
                    {"name": "class_id", "in": "query", "type": "string", "required": true},
                    {"name": "date", "in": "query", "type": "string", "required": true}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            },
            "post": {
                "tags": ["Duty"],
                "summary": "Toggle one duty cell",
                "parameters": [
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/ToggleDutyCellRequest"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "403": {"description": "Edit window closed"}
                }
            }
        }
    },
    "definitions": {
        "LoginRequest": {
            "type": "object",
            "required": ["email", "password"],
            "properties": {
                "email": {"type": "string"},
                "password": {"type": "string"}
            }
        },
        "UpdateScheduleRequest": {
            "type": "object",
            "required": ["blocks"],
            "properties": {
                "blocks": {
                    "type": "array",
                    "items": {"$ref": "#/definitions/ScheduleBlock"}
                }
            }
        },
        "ScheduleBlock": {
            "type": "object",
            "properties": {
                "week_number": {"type": "integer"},
                "start_date": {"type": "string"},
                "is_break": {"type": "boolean"}
            }
        },
        "SubmitDayRequest": {
            "type": "object",
            "required": ["class_id", "week", "log_date", "confirm", "reports"],
            "properties": {
                "class_id": {"type": "string"},
                "week": {"type": "integer"},
                "log_date": {"type": "string"},
                "group_number": {"type": "integer"},
                "confirm": {"type": "boolean"},
                "reports": {
                    "type": "array",
                    "items": {"$ref": "#/definitions/DailyLogEntry"}
                }
            }
        },
        "DailyLogEntry": {
            "type": "object",
            "required": ["student_id", "violation_type_id", "quantity"],
            "properties": {
                "student_id": {"type": "string"},
                "violation_type_id": {"type": "string"},
                "quantity": {"type": "integer"},
                "note": {"type": "string"}
            }
        },
        "SaveNoteRequest": {
            "type": "object",
            "required": ["class_id", "date", "content"],
            "properties": {
                "class_id": {"type": "string"},
                "date": {"type": "string"},
                "group_number": {"type": "integer"},
                "content": {"type": "string"}
            }
        },
        "ToggleDutyCellRequest": {
            "type": "object",
            "required": ["class_id", "date", "student_id"],
            "properties": {
                "class_id": {"type": "string"},
                "date": {"type": "string"},
                "slot": {"type": "integer"},
                "student_id": {"type": "string"},
                "done": {"type": "boolean"}
            }
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
