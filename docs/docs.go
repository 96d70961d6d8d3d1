// Package docs registers the Pixelgram OpenAPI document with swag.
// Regenerate with `swag init -g cmd/server/main.go`.
package docs

import "github.com/swaggo/swag"

const docTemplate = `{
    "schemes": {{ marshal .Schemes }},
    "swagger": "2.0",
    "info": {
        "description": "{{escape .Description}}",
        "title": "{{.Title}}",
        "license": {
            "name": "MIT",
            "url": "https://opensource.org/licenses/MIT"
        },
        "version": "{{.Version}}"
    },
    "host": "{{.Host}}",
    "basePath": "{{.BasePath}}",
    "paths": {
        "/auth/signup": {"post": {"tags": ["auth"], "summary": "User signup", "responses": {"201": {"description": "Created"}, "400": {"description": "Bad Request"}, "409": {"description": "Conflict"}}}},
        "/auth/login": {"post": {"tags": ["auth"], "summary": "User login", "responses": {"200": {"description": "OK"}, "403": {"description": "Forbidden"}}}},
        "/ws/ticket": {"post": {"security": [{"BearerAuth": []}], "tags": ["realtime"], "summary": "Issue a websocket ticket", "responses": {"200": {"description": "OK"}, "503": {"description": "Service Unavailable"}}}},
        "/ws": {"get": {"tags": ["realtime"], "summary": "Live event channel", "parameters": [{"type": "string", "name": "ticket", "in": "query", "required": true}], "responses": {"101": {"description": "Switching Protocols"}}}},
        "/users/me": {
            "get": {"security": [{"BearerAuth": []}], "tags": ["users"], "summary": "Get own profile", "responses": {"200": {"description": "OK"}}},
            "patch": {"security": [{"BearerAuth": []}], "tags": ["users"], "summary": "Edit own profile", "consumes": ["application/json"], "parameters": [{"name": "request", "in": "body", "required": true, "schema": {"type": "object", "properties": {"username": {"type": "string"}, "bio": {"type": "string"}, "website": {"type": "string"}, "avatar": {"type": "string"}}}}], "responses": {"200": {"description": "OK"}, "400": {"description": "Bad Request"}, "409": {"description": "Conflict"}}}
        },
        "/users/me/searches": {
            "get": {"security": [{"BearerAuth": []}], "tags": ["users"], "summary": "Recently searched users, most recent first", "responses": {"200": {"description": "OK"}}},
            "post": {"security": [{"BearerAuth": []}], "tags": ["users"], "summary": "Remember a user picked from search results", "consumes": ["application/json"], "parameters": [{"name": "request", "in": "body", "required": true, "schema": {"type": "object", "properties": {"username": {"type": "string"}}}}], "responses": {"200": {"description": "OK"}, "404": {"description": "Not Found"}}},
            "delete": {"security": [{"BearerAuth": []}], "tags": ["users"], "summary": "Forget all recent searches", "responses": {"204": {"description": "No Content"}}}
        },
        "/users/search": {"get": {"security": [{"BearerAuth": []}], "tags": ["users"], "summary": "Search users by username prefix", "parameters": [{"type": "string", "name": "q", "in": "query", "required": true}], "responses": {"200": {"description": "OK"}}}},
        "/users/{username}": {"get": {"security": [{"BearerAuth": []}], "tags": ["users"], "summary": "Get a user's public profile", "parameters": [{"type": "string", "name": "username", "in": "path", "required": true}], "responses": {"200": {"description": "OK"}, "404": {"description": "Not Found"}}}},
        "/users/{username}/followers": {"get": {"security": [{"BearerAuth": []}], "tags": ["users"], "summary": "List followers", "parameters": [{"type": "string", "name": "username", "in": "path", "required": true}], "responses": {"200": {"description": "OK"}}}},
        "/users/{username}/following": {"get": {"security": [{"BearerAuth": []}], "tags": ["users"], "summary": "List followed users", "parameters": [{"type": "string", "name": "username", "in": "path", "required": true}], "responses": {"200": {"description": "OK"}}}},
        "/users/{username}/follow": {
            "post": {"security": [{"BearerAuth": []}], "tags": ["users"], "summary": "Follow a user", "parameters": [{"type": "string", "name": "username", "in": "path", "required": true}], "responses": {"200": {"description": "OK"}, "400": {"description": "Bad Request"}, "409": {"description": "Conflict"}}},
            "delete": {"security": [{"BearerAuth": []}], "tags": ["users"], "summary": "Unfollow a user", "parameters": [{"type": "string", "name": "username", "in": "path", "required": true}], "responses": {"200": {"description": "OK"}, "404": {"description": "Not Found"}}}
        },
        "/users/{username}/posts.rss": {"get": {"tags": ["users"], "summary": "RSS feed of a user's newest posts", "produces": ["application/xml"], "parameters": [{"type": "string", "name": "username", "in": "path", "required": true}], "responses": {"200": {"description": "OK"}, "404": {"description": "Not Found"}}}},
        "/notifications": {"get": {"security": [{"BearerAuth": []}], "tags": ["notifications"], "summary": "List own notifications, newest first", "responses": {"200": {"description": "OK"}}}},
        "/posts": {"post": {"security": [{"BearerAuth": []}], "tags": ["posts"], "summary": "Create a post", "responses": {"201": {"description": "Created"}, "400": {"description": "Bad Request"}}}},
        "/posts/feed": {"get": {"security": [{"BearerAuth": []}], "tags": ["posts"], "summary": "Home feed of followed users, newest first", "parameters": [{"type": "integer", "name": "page", "in": "query"}, {"type": "integer", "name": "page_size", "in": "query"}], "responses": {"200": {"description": "OK"}}}},
        "/posts/explore": {"get": {"security": [{"BearerAuth": []}], "tags": ["posts"], "summary": "Random posts from everyone", "parameters": [{"type": "integer", "name": "count", "in": "query"}], "responses": {"200": {"description": "OK"}}}},
        "/posts/{id}": {
            "get": {"security": [{"BearerAuth": []}], "tags": ["posts"], "summary": "Get a post", "parameters": [{"type": "integer", "name": "id", "in": "path", "required": true}], "responses": {"200": {"description": "OK"}, "404": {"description": "Not Found"}}},
            "patch": {"security": [{"BearerAuth": []}], "tags": ["posts"], "summary": "Edit the caption of own post", "consumes": ["application/json"], "parameters": [{"type": "integer", "name": "id", "in": "path", "required": true}, {"name": "request", "in": "body", "required": true, "schema": {"type": "object", "properties": {"content": {"type": "string"}}}}], "responses": {"200": {"description": "OK"}, "400": {"description": "Bad Request"}, "403": {"description": "Forbidden"}, "404": {"description": "Not Found"}}},
            "delete": {"security": [{"BearerAuth": []}], "tags": ["posts"], "summary": "Delete own post", "parameters": [{"type": "integer", "name": "id", "in": "path", "required": true}], "responses": {"200": {"description": "OK"}, "403": {"description": "Forbidden"}, "404": {"description": "Not Found"}}}
        },
        "/posts/{id}/like": {
            "post": {"security": [{"BearerAuth": []}], "tags": ["posts"], "summary": "Like a post", "parameters": [{"type": "integer", "name": "id", "in": "path", "required": true}], "responses": {"201": {"description": "Created"}, "409": {"description": "Conflict"}}},
            "delete": {"security": [{"BearerAuth": []}], "tags": ["posts"], "summary": "Remove a like from a post", "parameters": [{"type": "integer", "name": "id", "in": "path", "required": true}], "responses": {"200": {"description": "OK"}, "404": {"description": "Not Found"}}}
        },
        "/posts/{id}/comments": {
            "get": {"security": [{"BearerAuth": []}], "tags": ["comments"], "summary": "List comments of a post, oldest first", "parameters": [{"type": "integer", "name": "id", "in": "path", "required": true}], "responses": {"200": {"description": "OK"}, "404": {"description": "Not Found"}}},
            "post": {"security": [{"BearerAuth": []}], "tags": ["comments"], "summary": "Comment on a post", "parameters": [{"type": "integer", "name": "id", "in": "path", "required": true}], "responses": {"201": {"description": "Created"}, "400": {"description": "Bad Request"}, "404": {"description": "Not Found"}}}
        },
        "/comments/{id}/like": {
            "post": {"security": [{"BearerAuth": []}], "tags": ["comments"], "summary": "Like a comment", "parameters": [{"type": "integer", "name": "id", "in": "path", "required": true}], "responses": {"201": {"description": "Created"}, "409": {"description": "Conflict"}}},
            "delete": {"security": [{"BearerAuth": []}], "tags": ["comments"], "summary": "Remove a like from a comment", "parameters": [{"type": "integer", "name": "id", "in": "path", "required": true}], "responses": {"200": {"description": "OK"}, "404": {"description": "Not Found"}}}
        },
        "/chats": {
            "get": {"security": [{"BearerAuth": []}], "tags": ["chats"], "summary": "List own chats, most recent activity first", "responses": {"200": {"description": "OK"}}},
            "post": {"security": [{"BearerAuth": []}], "tags": ["chats"], "summary": "Get or create the chat with another user", "responses": {"200": {"description": "OK"}, "400": {"description": "Bad Request"}, "404": {"description": "Not Found"}}}
        },
        "/chats/{id}/messages": {
            "get": {"security": [{"BearerAuth": []}], "tags": ["chats"], "summary": "Chat history", "parameters": [{"type": "integer", "name": "id", "in": "path", "required": true}], "responses": {"200": {"description": "OK"}, "403": {"description": "Forbidden"}, "404": {"description": "Not Found"}}},
            "post": {"security": [{"BearerAuth": []}], "tags": ["chats"], "summary": "Send a message", "parameters": [{"type": "integer", "name": "id", "in": "path", "required": true}], "responses": {"201": {"description": "Created"}, "400": {"description": "Bad Request"}, "403": {"description": "Forbidden"}, "404": {"description": "Not Found"}}}
        }
    },
    "securityDefinitions": {
        "BearerAuth": {
            "description": "Type \"Bearer\" followed by a space and JWT token.",
            "type": "apiKey",
            "name": "Authorization",
            "in": "header"
        }
    }
}`

// SwaggerInfo holds exported Swagger Info so clients can modify it
var SwaggerInfo = &swag.Spec{
	Version:          "1.0",
	Host:             "localhost:8375",
	BasePath:         "/api",
	Schemes:          []string{"http", "https"},
	Title:            "Pixelgram API",
	Description:      "Photo sharing social network with follows, likes, comments, direct chats and live notifications",
	InfoInstanceName: "swagger",
	SwaggerTemplate:  docTemplate,
	LeftDelim:        "{{",
	RightDelim:       "}}",
}

func init() {
	swag.Register(SwaggerInfo.InstanceName(), SwaggerInfo)
}
