package swagger

import "github.com/swaggo/swag"

const docTemplate = `{
    "swagger": "2.0",
    "info": {
        "title": "Peer Tutoring API",
        "description": "Student-tutor matching over weekly availability",
        "version": "0.1.0"
    },
    "basePath": "/api/v1",
    "schemes": [
        "http"
    ],
    "tags": [
        {"name": "Authentication", "description": "Accounts, tokens and role promotion"},
        {"name": "Availability", "description": "Weekly free periods and commitments"},
        {"name": "Capabilities", "description": "Tutor subject registration"},
        {"name": "Matching", "description": "Tutor proposals and selection"},
        {"name": "Pairings", "description": "Pairing log and master schedule export"},
        {"name": "Broadcast", "description": "Mass email to tutors by subject"}
    ],
    "paths": {
        "/auth/register": {
            "post": {
                "tags": ["Authentication"],
                "summary": "Register a student account",
                "responses": {
                    "201": {"description": "Created"},
                    "409": {"description": "Username taken"}
                }
            }
        },
        "/auth/login": {
            "post": {
                "tags": ["Authentication"],
                "summary": "Authenticate by username and password",
                "responses": {
                    "200": {"description": "Token issued"},
                    "401": {"description": "Invalid credentials"}
                }
            }
        },
        "/auth/promote": {
            "post": {
                "tags": ["Authentication"],
                "summary": "Upgrade the caller's role with a promotion password",
                "responses": {
                    "200": {"description": "Promoted"},
                    "403": {"description": "Password not recognized"}
                }
            }
        },
        "/auth/reset": {
            "post": {
                "tags": ["Authentication"],
                "summary": "Email a password reset code",
                "responses": {
                    "204": {"description": "Code sent"}
                }
            }
        },
        "/auth/reset/confirm": {
            "post": {
                "tags": ["Authentication"],
                "summary": "Set a new password with an emailed code",
                "responses": {
                    "204": {"description": "Password updated"},
                    "401": {"description": "Wrong or expired code"}
                }
            }
        },
        "/schedule": {
            "get": {
                "tags": ["Availability"],
                "summary": "Return the caller's weekly free-period grid",
                "responses": {"200": {"description": "OK"}}
            },
            "put": {
                "tags": ["Availability"],
                "summary": "Replace the caller's weekly free-period grid",
                "responses": {"200": {"description": "Replaced"}}
            }
        },
        "/schedule/effective": {
            "get": {
                "tags": ["Availability"],
                "summary": "Return the caller's combined availability",
                "responses": {"200": {"description": "OK"}}
            }
        },
        "/subjects": {
            "get": {
                "tags": ["Capabilities"],
                "summary": "Return the caller's subject flags by category",
                "responses": {"200": {"description": "OK"}}
            },
            "put": {
                "tags": ["Capabilities"],
                "summary": "Replace the caller's subject flags",
                "responses": {"200": {"description": "Replaced"}}
            }
        },
        "/match": {
            "post": {
                "tags": ["Matching"],
                "summary": "Propose tutors for a subject",
                "responses": {
                    "200": {"description": "Proposals, possibly empty"},
                    "412": {"description": "Free periods not submitted"}
                }
            }
        },
        "/match/proposals": {
            "get": {
                "tags": ["Matching"],
                "summary": "Return the caller's held proposals",
                "responses": {
                    "200": {"description": "OK"},
                    "410": {"description": "Proposals expired"}
                }
            }
        },
        "/match/select": {
            "post": {
                "tags": ["Matching"],
                "summary": "Commit one of the caller's held proposals",
                "responses": {
                    "201": {"description": "Pairing created"},
                    "410": {"description": "Proposals expired"}
                }
            }
        },
        "/pairings": {
            "get": {
                "tags": ["Pairings"],
                "summary": "List all pairings",
                "responses": {"200": {"description": "OK"}}
            }
        },
        "/pairings/{id}": {
            "delete": {
                "tags": ["Pairings"],
                "summary": "Deactivate an upcoming pairing",
                "responses": {
                    "204": {"description": "Deactivated"},
                    "412": {"description": "Pairing date already passed"}
                }
            }
        },
        "/pairings/export/csv": {
            "get": {
                "tags": ["Pairings"],
                "summary": "Download the master schedule as CSV",
                "responses": {"200": {"description": "CSV file"}}
            }
        },
        "/pairings/export/pdf": {
            "get": {
                "tags": ["Pairings"],
                "summary": "Download the master schedule as PDF",
                "responses": {"200": {"description": "PDF file"}}
            }
        },
        "/broadcast": {
            "post": {
                "tags": ["Broadcast"],
                "summary": "Email every tutor capable of any selected subject",
                "responses": {"200": {"description": "Sent"}}
            }
        }
    },
    "definitions": {
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
