// Package docs registers the OpenAPI document served at /swagger.
// Regenerate with: swag init -g cmd/api/main.go -o cmd/api/docs
package docs

import "github.com/swaggo/swag"

const docTemplate = `{
    "schemes": {{ marshal .Schemes }},
    "swagger": "2.0",
    "info": {
        "description": "{{escape .Description}}",
        "title": "{{.Title}}",
        "contact": {
            "name": "API Support",
            "email": "support@learnquest.dz"
        },
        "license": {
            "name": "Apache 2.0",
            "url": "http://www.apache.org/licenses/LICENSE-2.0.html"
        },
        "version": "{{.Version}}"
    },
    "host": "{{.Host}}",
    "basePath": "{{.BasePath}}",
    "paths": {
        "/quizzes/{id}": {
            "get": {
                "tags": ["quiz"],
                "summary": "Get a quiz",
                "parameters": [{"type": "string", "name": "id", "in": "path", "required": true}],
                "responses": {"200": {"description": "OK"}, "404": {"description": "Not Found"}}
            }
        },
        "/quizzes/{id}/submit": {
            "post": {
                "security": [{"ApiKeyAuth": []}],
                "tags": ["quiz"],
                "summary": "Submit quiz answers",
                "parameters": [
                    {"type": "string", "name": "id", "in": "path", "required": true},
                    {"type": "string", "name": "Idempotency-Key", "in": "header"}
                ],
                "responses": {"200": {"description": "OK"}, "400": {"description": "Bad Request"}, "404": {"description": "Not Found"}, "409": {"description": "Conflict"}}
            }
        },
        "/quizzes/{id}/sessions": {
            "post": {
                "security": [{"ApiKeyAuth": []}],
                "tags": ["sessions"],
                "summary": "Start a timed quiz session",
                "parameters": [{"type": "string", "name": "id", "in": "path", "required": true}],
                "responses": {"201": {"description": "Created"}, "404": {"description": "Not Found"}, "422": {"description": "Unprocessable Entity"}}
            }
        },
        "/sessions/{id}": {
            "get": {
                "tags": ["sessions"],
                "summary": "Get a quiz session",
                "parameters": [{"type": "string", "name": "id", "in": "path", "required": true}],
                "responses": {"200": {"description": "OK"}, "404": {"description": "Not Found"}}
            },
            "delete": {
                "tags": ["sessions"],
                "summary": "Abandon a quiz session",
                "parameters": [{"type": "string", "name": "id", "in": "path", "required": true}],
                "responses": {"204": {"description": "No Content"}, "404": {"description": "Not Found"}}
            }
        },
        "/sessions/{id}/answer": {
            "post": {
                "tags": ["sessions"],
                "summary": "Answer the current question",
                "parameters": [{"type": "string", "name": "id", "in": "path", "required": true}],
                "responses": {"200": {"description": "OK"}, "409": {"description": "Conflict"}}
            }
        },
        "/sessions/{id}/next": {
            "post": {
                "tags": ["sessions"],
                "summary": "Move to the next question",
                "parameters": [{"type": "string", "name": "id", "in": "path", "required": true}],
                "responses": {"200": {"description": "OK"}, "409": {"description": "Conflict"}}
            }
        },
        "/users/me": {
            "get": {
                "security": [{"ApiKeyAuth": []}],
                "tags": ["users"],
                "summary": "Get My Profile",
                "responses": {"200": {"description": "OK"}, "401": {"description": "Unauthorized"}}
            }
        },
        "/users/me/submissions": {
            "get": {
                "security": [{"ApiKeyAuth": []}],
                "tags": ["users"],
                "summary": "Get My Quiz Submissions",
                "parameters": [
                    {"type": "integer", "default": 20, "name": "limit", "in": "query"},
                    {"type": "integer", "default": 0, "name": "offset", "in": "query"}
                ],
                "responses": {"200": {"description": "OK"}}
            }
        },
        "/users/me/activity": {
            "post": {
                "security": [{"ApiKeyAuth": []}],
                "tags": ["users"],
                "summary": "Record Activity",
                "responses": {"200": {"description": "OK"}}
            }
        },
        "/levels": {
            "get": {"tags": ["users"], "summary": "List level thresholds", "responses": {"200": {"description": "OK"}}}
        },
        "/progress/lesson-complete": {
            "post": {
                "security": [{"ApiKeyAuth": []}],
                "tags": ["progress"],
                "summary": "Record a completed lesson",
                "responses": {"200": {"description": "OK"}, "400": {"description": "Bad Request"}}
            }
        },
        "/progress/me": {
            "get": {
                "security": [{"ApiKeyAuth": []}],
                "tags": ["progress"],
                "summary": "List my course progress",
                "responses": {"200": {"description": "OK"}}
            }
        },
        "/rewards": {
            "get": {"tags": ["rewards"], "summary": "List active rewards", "responses": {"200": {"description": "OK"}}}
        },
        "/rewards/{id}/claim": {
            "post": {
                "security": [{"ApiKeyAuth": []}],
                "tags": ["rewards"],
                "summary": "Claim a reward",
                "parameters": [{"type": "string", "name": "id", "in": "path", "required": true}],
                "responses": {"200": {"description": "OK"}, "403": {"description": "Forbidden"}, "409": {"description": "Conflict"}}
            }
        },
        "/rewards/{id}/grant": {
            "post": {
                "security": [{"ApiKeyAuth": []}],
                "tags": ["rewards"],
                "summary": "Grant a reward to a user",
                "parameters": [{"type": "string", "name": "id", "in": "path", "required": true}],
                "responses": {"200": {"description": "OK"}, "403": {"description": "Forbidden"}, "409": {"description": "Conflict"}}
            }
        },
        "/leaderboard": {
            "get": {
                "tags": ["leaderboard"],
                "summary": "Student leaderboard",
                "parameters": [{"type": "string", "name": "wilaya", "in": "query"}],
                "responses": {"200": {"description": "OK"}}
            }
        },
        "/leaderboard/wilayas": {
            "get": {"tags": ["leaderboard"], "summary": "Wilaya standings", "responses": {"200": {"description": "OK"}}}
        },
        "/admin/users/{id}/xp": {
            "post": {
                "security": [{"ApiKeyAuth": []}],
                "tags": ["admin"],
                "summary": "Award XP to a user",
                "parameters": [{"type": "string", "name": "id", "in": "path", "required": true}],
                "responses": {"200": {"description": "OK"}, "403": {"description": "Forbidden"}}
            }
        },
        "/auth/google/login": {
            "get": {"tags": ["auth"], "summary": "Initiate Google Login", "responses": {"307": {"description": "Redirects to Google"}}}
        },
        "/auth/google/callback": {
            "get": {
                "tags": ["auth"],
                "summary": "Google OAuth2 Callback",
                "parameters": [
                    {"type": "string", "name": "code", "in": "query", "required": true},
                    {"type": "string", "name": "state", "in": "query", "required": true}
                ],
                "responses": {"200": {"description": "OK"}, "400": {"description": "Bad Request"}}
            }
        },
        "/auth/refresh": {
            "post": {"tags": ["auth"], "summary": "Refresh JWT tokens", "responses": {"200": {"description": "OK"}, "401": {"description": "Unauthorized"}}}
        },
        "/auth/logout": {
            "post": {"security": [{"ApiKeyAuth": []}], "tags": ["auth"], "summary": "Logout user", "responses": {"200": {"description": "OK"}}}
        }
    },
    "securityDefinitions": {
        "ApiKeyAuth": {
            "description": "Type 'Bearer YOUR_JWT_TOKEN' to authorize.",
            "type": "apiKey",
            "name": "Authorization",
            "in": "header"
        }
    }
}`

// SwaggerInfo holds exported Swagger Info so clients can modify it
var SwaggerInfo = &swag.Spec{
	Version:          "1.0",
	Host:             "localhost:8090",
	BasePath:         "/api",
	Schemes:          []string{"http", "https"},
	Title:            "LearnQuest API",
	Description:      "Assessment and gamification API for the LearnQuest learning platform.",
	InfoInstanceName: "swagger",
	SwaggerTemplate:  docTemplate,
	LeftDelim:        "{{",
	RightDelim:       "}}",
}

func init() {
	swag.Register(SwaggerInfo.InstanceName(), SwaggerInfo)
}
