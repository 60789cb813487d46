// Package docs registers the API description served under /swagger.
// Regenerate the full document with `swag init -g cmd/server/main.go`.
package docs

import "github.com/swaggo/swag"

const docTemplate = `{
    "schemes": {{ marshal .Schemes }},
    "swagger": "2.0",
    "info": {
        "description": "{{escape .Description}}",
        "title": "{{.Title}}",
        "version": "{{.Version}}"
    },
    "host": "{{.Host}}",
    "basePath": "{{.BasePath}}",
    "paths": {},
    "securityDefinitions": {
        "BearerAuth": {
            "description": "Type \"Bearer\" followed by a space and JWT token.",
            "type": "apiKey",
            "name": "Authorization",
            "in": "header"
        }
    },
    "tags": [
        {"name": "Users", "description": "Registration and login"},
        {"name": "Boards", "description": "Board management"},
        {"name": "Members", "description": "Invitations, roles and leaving"},
        {"name": "Lists", "description": "Lists and their order"},
        {"name": "Tasks", "description": "Ordered tasks, moves and completion"},
        {"name": "Notifications", "description": "Per-user notification history"},
        {"name": "Realtime", "description": "Server-sent event stream and room subscriptions"}
    ]
}`

// SwaggerInfo holds exported Swagger Info so clients can modify it
var SwaggerInfo = &swag.Spec{
	Version:          "1.0",
	Host:             "localhost:8080",
	BasePath:         "/",
	Schemes:          []string{"http"},
	Title:            "Collaborative Task Board API",
	Description:      "Shared boards with ordered lists and tasks, realtime updates and deadline reminders.",
	InfoInstanceName: "swagger",
	SwaggerTemplate:  docTemplate,
	LeftDelim:        "{{",
	RightDelim:       "}}",
}

func init() {
	swag.Register(SwaggerInfo.InstanceName(), SwaggerInfo)
}
