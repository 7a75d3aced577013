package swagger

import "github.com/swaggo/swag"

const docTemplate = `{
    "swagger": "2.0",
    "info": {
        "title": "Driving School Management API",
        "description": "Enrollment, lesson booking, progress tracking and student profiles",
        "version": "1.0.0"
    },
    "basePath": "/",
    "schemes": [
        "http"
    ],
    "tags": [
        {"name": "Enrollments", "description": "Enrollment request workflow"},
        {"name": "Lessons", "description": "Lesson catalog"},
        {"name": "Bookings", "description": "Lesson booking engine"},
        {"name": "Progress", "description": "Lesson completion accounting"},
        {"name": "Verification", "description": "Enrollment and exam-eligibility checks"},
        {"name": "Profiles", "description": "Aggregated student views"},
        {"name": "Payments", "description": "Lesson and exam payments"}
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
        "/api/v1/enrollments/requests": {
            "post": {
                "tags": ["Enrollments"],
                "summary": "Request enrollment at a school",
                "parameters": [
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/RequestEnrollmentRequest"}}
                ],
                "responses": {
                    "201": {"description": "Created", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "409": {"description": "Pending or approved request already exists"}
                }
            }
        },
        "/api/v1/enrollments/requests/{id}/approve": {
            "post": {
                "tags": ["Enrollments"],
                "summary": "Approve an enrollment request",
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "409": {"description": "Request already processed"}
                }
            }
        },
        "/api/v1/enrollments/requests/{id}/reject": {
            "post": {
                "tags": ["Enrollments"],
                "summary": "Reject an enrollment request",
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"},
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/RejectRequestRequest"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/api/v1/enrollments/status": {
            "get": {
                "tags": ["Enrollments"],
                "summary": "Get enrollment status",
                "parameters": [
                    {"name": "studentId", "in": "query", "type": "string"},
                    {"name": "schoolId", "in": "query", "required": true, "type": "string"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/api/v1/lessons": {
            "get": {
                "tags": ["Lessons"],
                "summary": "List lessons",
                "parameters": [
                    {"name": "schoolId", "in": "query", "type": "string"},
                    {"name": "instructorId", "in": "query", "type": "string"},
                    {"name": "type", "in": "query", "type": "string"},
                    {"name": "status", "in": "query", "type": "string"},
                    {"name": "page", "in": "query", "type": "integer"},
                    {"name": "limit", "in": "query", "type": "integer"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            },
            "post": {
                "tags": ["Lessons"],
                "summary": "Schedule a lesson",
                "parameters": [
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/CreateLessonRequest"}}
                ],
                "responses": {
                    "201": {"description": "Created", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/api/v1/lessons/{id}": {
            "get": {
                "tags": ["Lessons"],
                "summary": "Get lesson",
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/api/v1/lessons/{id}/status": {
            "put": {
                "tags": ["Lessons"],
                "summary": "Transition lesson status",
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"},
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/UpdateLessonStatusRequest"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/api/v1/lessons/{id}/bookings": {
            "post": {
                "tags": ["Bookings"],
                "summary": "Book a slot on a lesson",
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"},
                    {"name": "Idempotency-Key", "in": "header", "type": "string"},
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/BookLessonBody"}}
                ],
                "responses": {
                    "201": {"description": "Created", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "403": {"description": "Student is not authorized to book"},
                    "409": {"description": "Lesson full, unavailable, or already booked"}
                }
            }
        },
        "/api/v1/bookings/{id}": {
            "get": {
                "tags": ["Bookings"],
                "summary": "Get booking",
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            },
            "delete": {
                "tags": ["Bookings"],
                "summary": "Cancel booking and release its slot",
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"}
                ],
                "responses": {
                    "204": {"description": "No Content"},
                    "409": {"description": "Attendance already recorded"}
                }
            }
        },
        "/api/v1/bookings/{id}/attendance": {
            "put": {
                "tags": ["Bookings"],
                "summary": "Record attendance outcome",
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"},
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/MarkAttendanceRequest"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/api/v1/bookings/{id}/payment": {
            "put": {
                "tags": ["Payments"],
                "summary": "Record a lesson payment",
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"},
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/RecordPaymentRequest"}}
                ],
                "responses": {
                    "204": {"description": "No Content"}
                }
            }
        },
        "/api/v1/exam-registrations/{id}/payment": {
            "put": {
                "tags": ["Payments"],
                "summary": "Record an exam payment",
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"},
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/RecordPaymentRequest"}}
                ],
                "responses": {
                    "204": {"description": "No Content"}
                }
            }
        },
        "/api/v1/progress/completions": {
            "post": {
                "tags": ["Progress"],
                "summary": "Record a lesson completion event",
                "parameters": [
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/RecordCompletionRequest"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/api/v1/progress/stats": {
            "get": {
                "tags": ["Progress"],
                "summary": "Get lesson counters",
                "parameters": [
                    {"name": "studentId", "in": "query", "required": true, "type": "string"},
                    {"name": "schoolId", "in": "query", "required": true, "type": "string"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/api/v1/verification/enrollment": {
            "get": {
                "tags": ["Verification"],
                "summary": "Verify enrollment",
                "parameters": [
                    {"name": "userId", "in": "query", "required": true, "type": "string"},
                    {"name": "schoolId", "in": "query", "required": true, "type": "string"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/api/v1/verification/exam-eligibility": {
            "get": {
                "tags": ["Verification"],
                "summary": "Check exam eligibility",
                "parameters": [
                    {"name": "studentId", "in": "query", "required": true, "type": "string"},
                    {"name": "schoolId", "in": "query", "required": true, "type": "string"},
                    {"name": "examType", "in": "query", "required": true, "type": "string", "enum": ["theory", "practical"]}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/api/v1/students/{id}/profile": {
            "get": {
                "tags": ["Profiles"],
                "summary": "Get complete student profile",
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/api/v1/students/{id}/lessons": {
            "get": {
                "tags": ["Profiles"],
                "summary": "Get student lesson history",
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/api/v1/students/{id}/exams": {
            "get": {
                "tags": ["Profiles"],
                "summary": "Get student exam registrations",
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/api/v1/students/{id}/financial-summary": {
            "get": {
                "tags": ["Profiles"],
                "summary": "Get student financial summary",
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/api/v1/students/{id}/financial-summary/export": {
            "get": {
                "tags": ["Profiles"],
                "summary": "Download financial summary as CSV or PDF",
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"},
                    {"name": "format", "in": "query", "type": "string", "enum": ["csv", "pdf"]}
                ],
                "responses": {
                    "200": {"description": "File"}
                }
            }
        },
        "/api/v1/students/{id}/lessons/export": {
            "get": {
                "tags": ["Profiles"],
                "summary": "Download lesson history as CSV or PDF",
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"},
                    {"name": "format", "in": "query", "type": "string", "enum": ["csv", "pdf"]}
                ],
                "responses": {
                    "200": {"description": "File"}
                }
            }
        },
        "/api/v1/students/{id}/notes": {
            "put": {
                "tags": ["Profiles"],
                "summary": "Update staff notes on a student record",
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"},
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/UpdateNotesRequest"}}
                ],
                "responses": {
                    "204": {"description": "No Content"}
                }
            }
        }
    },
    "definitions": {
        "RequestEnrollmentRequest": {
            "type": "object",
            "properties": {
                "student_id": {"type": "string"},
                "school_id": {"type": "string"},
                "message": {"type": "string"}
            },
            "required": ["school_id"]
        },
        "RejectRequestRequest": {
            "type": "object",
            "properties": {
                "reason": {"type": "string", "minLength": 3}
            },
            "required": ["reason"]
        },
        "CreateLessonRequest": {
            "type": "object",
            "properties": {
                "school_id": {"type": "string"},
                "instructor_id": {"type": "string"},
                "type": {"type": "string", "enum": ["CODE", "THEORY", "DRIVING", "PRACTICAL"]},
                "date_time": {"type": "string", "format": "date-time"},
                "duration_minutes": {"type": "integer", "minimum": 1},
                "capacity": {"type": "integer", "minimum": 1},
                "price": {"type": "number"}
            },
            "required": ["school_id", "instructor_id", "type", "date_time", "duration_minutes", "capacity"]
        },
        "UpdateLessonStatusRequest": {
            "type": "object",
            "properties": {
                "status": {"type": "string", "enum": ["SCHEDULED", "COMPLETED", "CANCELLED"]}
            },
            "required": ["status"]
        },
        "BookLessonBody": {
            "type": "object",
            "properties": {
                "student_id": {"type": "string", "description": "Defaults to the caller for student tokens"}
            }
        },
        "MarkAttendanceRequest": {
            "type": "object",
            "properties": {
                "attended": {"type": "boolean"},
                "feedback": {"type": "string"},
                "rating": {"type": "integer", "minimum": 1, "maximum": 5}
            },
            "required": ["attended"]
        },
        "RecordCompletionRequest": {
            "type": "object",
            "properties": {
                "student_id": {"type": "string"},
                "school_id": {"type": "string"},
                "lesson_type": {"type": "string", "enum": ["CODE", "THEORY", "DRIVING", "PRACTICAL"]},
                "attended": {"type": "boolean"},
                "idempotency_key": {"type": "string"}
            },
            "required": ["student_id", "school_id", "lesson_type", "idempotency_key"]
        },
        "RecordPaymentRequest": {
            "type": "object",
            "properties": {
                "amount": {"type": "number", "minimum": 0, "exclusiveMinimum": true},
                "method": {"type": "string"}
            },
            "required": ["amount", "method"]
        },
        "UpdateNotesRequest": {
            "type": "object",
            "properties": {
                "notes": {"type": "string"}
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
