package swagger

import "github.com/swaggo/swag"

const docTemplate = `{
    "swagger": "2.0",
    "info": {
        "title": "College Fees API",
        "description": "Fee template resolution, student fee ledgers and receipt workflow",
        "version": "1.0.0"
    },
    "basePath": "/api/v1",
    "schemes": [
        "http"
    ],
    "tags": [
        {"name": "Auth", "description": "Authentication"},
        {"name": "FeeTemplates", "description": "Fee template catalog"},
        {"name": "Fees", "description": "Ledger assignment, charges and breakdowns"},
        {"name": "Receipts", "description": "Receipt recording and approval workflow"},
        {"name": "Students", "description": "Student roster"},
        {"name": "Sections", "description": "Sections"}
    ],
    "paths": {
        "/auth/login": {
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
        "/fees/templates": {
            "get": {
                "tags": ["FeeTemplates"],
                "summary": "List fee templates",
                "parameters": [
                    {"name": "academic_year", "in": "query", "type": "string"},
                    {"name": "batch_year", "in": "query", "type": "string"},
                    {"name": "seat_type", "in": "query", "type": "string"},
                    {"name": "page", "in": "query", "type": "integer"},
                    {"name": "page_size", "in": "query", "type": "integer"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            },
            "post": {
                "tags": ["FeeTemplates"],
                "summary": "Create fee template",
                "parameters": [
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/CreateTemplateRequest"}}
                ],
                "responses": {
                    "201": {"description": "Created", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "409": {"description": "Duplicate template key"}
                }
            }
        },
        "/fees/templates/{id}": {
            "get": {
                "tags": ["FeeTemplates"],
                "summary": "Get fee template",
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "404": {"description": "Not found"}
                }
            },
            "put": {
                "tags": ["FeeTemplates"],
                "summary": "Update fee template",
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"},
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/CreateTemplateRequest"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            },
            "delete": {
                "tags": ["FeeTemplates"],
                "summary": "Delete fee template",
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"}
                ],
                "responses": {
                    "204": {"description": "Deleted"}
                }
            }
        },
        "/students/{id}/fees/assign": {
            "post": {
                "tags": ["Fees"],
                "summary": "Resolve a template and assign a fee ledger",
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"},
                    {"name": "payload", "in": "body", "schema": {"$ref": "#/definitions/AssignFeeRequest"}}
                ],
                "responses": {
                    "200": {"description": "Ledger refreshed", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "201": {"description": "Ledger created", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "404": {"description": "No template matches the resolution key"}
                }
            }
        },
        "/fees/assignments/bulk": {
            "post": {
                "tags": ["Fees"],
                "summary": "Bulk assign fee ledgers",
                "parameters": [
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/BulkAssignRequest"}}
                ],
                "responses": {
                    "200": {"description": "Completed synchronously", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "202": {"description": "Queued for background execution"}
                }
            }
        },
        "/students/{id}/fees": {
            "get": {
                "tags": ["Fees"],
                "summary": "Get fee breakdown with derived balance",
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"},
                    {"name": "academic_year", "in": "query", "type": "string"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/students/{id}/fees/charges": {
            "post": {
                "tags": ["Fees"],
                "summary": "Add an additional charge",
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"},
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/AddChargeRequest"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "409": {"description": "Ledger locked or modified concurrently"}
                }
            }
        },
        "/students/{id}/fees/charges/{chargeId}": {
            "delete": {
                "tags": ["Fees"],
                "summary": "Remove a charge by ID",
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"},
                    {"name": "chargeId", "in": "path", "required": true, "type": "string"},
                    {"name": "academic_year", "in": "query", "type": "string"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "404": {"description": "Charge no longer exists"}
                }
            }
        },
        "/students/{id}/fees/charges/index/{index}": {
            "delete": {
                "tags": ["Fees"],
                "summary": "Remove a charge by list position",
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"},
                    {"name": "index", "in": "path", "required": true, "type": "integer"},
                    {"name": "academic_year", "in": "query", "type": "string"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "400": {"description": "Index out of range"}
                }
            }
        },
        "/fees/ledgers/{id}/receipts": {
            "post": {
                "tags": ["Receipts"],
                "summary": "Record a payment receipt",
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"},
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/RecordReceiptRequest"}}
                ],
                "responses": {
                    "201": {"description": "Created", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "409": {"description": "Duplicate receipt number"}
                }
            }
        },
        "/fees/receipts": {
            "get": {
                "tags": ["Receipts"],
                "summary": "List receipts",
                "parameters": [
                    {"name": "student_id", "in": "query", "type": "string"},
                    {"name": "ledger_id", "in": "query", "type": "string"},
                    {"name": "state", "in": "query", "type": "string"},
                    {"name": "page", "in": "query", "type": "integer"},
                    {"name": "page_size", "in": "query", "type": "integer"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/fees/receipts/{id}": {
            "put": {
                "tags": ["Receipts"],
                "summary": "Edit receipt payment details",
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"},
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/RecordReceiptRequest"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            },
            "delete": {
                "tags": ["Receipts"],
                "summary": "Delete receipt",
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"}
                ],
                "responses": {
                    "204": {"description": "Deleted"}
                }
            }
        },
        "/fees/receipts/{id}/state": {
            "post": {
                "tags": ["Receipts"],
                "summary": "Move a receipt through the approval workflow",
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"},
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/SetReceiptStateRequest"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "400": {"description": "Illegal transition"},
                    "403": {"description": "Actor may not perform this transition"}
                }
            }
        },
        "/fees/defaulters": {
            "get": {
                "tags": ["Receipts"],
                "summary": "List students with outstanding balances",
                "parameters": [
                    {"name": "academic_year", "in": "query", "type": "string"},
                    {"name": "format", "in": "query", "type": "string", "enum": ["csv", "pdf"]}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/students": {
            "get": {
                "tags": ["Students"],
                "summary": "List students",
                "parameters": [
                    {"name": "search", "in": "query", "type": "string"},
                    {"name": "section_id", "in": "query", "type": "string"},
                    {"name": "academic_year", "in": "query", "type": "string"},
                    {"name": "active", "in": "query", "type": "boolean"},
                    {"name": "page", "in": "query", "type": "integer"},
                    {"name": "page_size", "in": "query", "type": "integer"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/students/{id}": {
            "get": {
                "tags": ["Students"],
                "summary": "Get student with section context",
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/students/{id}/fee-profile": {
            "put": {
                "tags": ["Students"],
                "summary": "Update fee resolution profile fields",
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"},
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/UpdateFeeProfileRequest"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/sections": {
            "get": {
                "tags": ["Sections"],
                "summary": "List sections",
                "parameters": [
                    {"name": "class_teacher_id", "in": "query", "type": "string"},
                    {"name": "search", "in": "query", "type": "string"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/sections/{id}": {
            "get": {
                "tags": ["Sections"],
                "summary": "Get section",
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"}
                ],
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
        "CreateTemplateRequest": {
            "type": "object",
            "properties": {
                "academic_year": {"type": "string"},
                "batch_year": {"type": "string"},
                "seat_type": {"type": "string", "enum": ["GOVERNMENT", "MANAGEMENT"]},
                "quota_type": {"type": "string"},
                "base_fees": {"type": "string"},
                "description": {"type": "string"}
            },
            "required": ["academic_year", "batch_year", "seat_type", "base_fees"]
        },
        "AssignFeeRequest": {
            "type": "object",
            "properties": {
                "academic_year": {"type": "string"}
            }
        },
        "BulkAssignRequest": {
            "type": "object",
            "properties": {
                "section_id": {"type": "string"},
                "all_students": {"type": "boolean"},
                "academic_year": {"type": "string"},
                "async": {"type": "boolean"}
            }
        },
        "AddChargeRequest": {
            "type": "object",
            "properties": {
                "name": {"type": "string"},
                "amount": {"type": "string"},
                "remarks": {"type": "string"},
                "academic_year": {"type": "string"}
            },
            "required": ["name", "amount"]
        },
        "RecordReceiptRequest": {
            "type": "object",
            "properties": {
                "receipt_number": {"type": "string"},
                "receipt_phone": {"type": "string"},
                "amount_paid": {"type": "string"},
                "payment_date": {"type": "string", "format": "date-time"},
                "payment_mode": {"type": "string"},
                "remarks": {"type": "string"},
                "approve_immediately": {"type": "boolean"}
            },
            "required": ["receipt_number", "amount_paid", "payment_date", "payment_mode"]
        },
        "SetReceiptStateRequest": {
            "type": "object",
            "properties": {
                "state": {"type": "string", "enum": ["PENDING", "APPROVED", "REJECTED"]}
            },
            "required": ["state"]
        },
        "UpdateFeeProfileRequest": {
            "type": "object",
            "properties": {
                "section_id": {"type": "string"},
                "joining_academic_year": {"type": "string"},
                "current_academic_year": {"type": "string"},
                "seat_type": {"type": "string"},
                "quota_type": {"type": "string"}
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
