// Package docs содержит описание локального API для swagger.
package docs

import "github.com/swaggo/swag"

const docTemplate = `{
    "schemes": {{ marshal .Schemes }},
    "swagger": "2.0",
    "info": {
        "description": "{{escape .Description}}",
        "title": "{{.Title}}",
        "contact": {},
        "license": {
            "name": "MIT",
            "url": "https://opensource.org/licenses/MIT"
        },
        "version": "{{.Version}}"
    },
    "host": "{{.Host}}",
    "basePath": "{{.BasePath}}",
    "paths": {
        "/session": {
            "get": {
                "produces": ["application/json"],
                "tags": ["Auth"],
                "summary": "Проверка сессии",
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/response.Response"}},
                    "401": {"description": "Сессии нет", "schema": {"$ref": "#/definitions/response.ErrorResponse"}}
                }
            }
        },
        "/register": {
            "post": {
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["Auth"],
                "summary": "Регистрация пользователя",
                "parameters": [
                    {"description": "Данные нового пользователя", "name": "request", "in": "body", "required": true, "schema": {"$ref": "#/definitions/register.Request"}}
                ],
                "responses": {
                    "201": {"description": "Created", "schema": {"$ref": "#/definitions/response.Response"}},
                    "409": {"description": "Email уже зарегистрирован", "schema": {"$ref": "#/definitions/response.ErrorResponse"}},
                    "422": {"description": "Unprocessable Entity", "schema": {"$ref": "#/definitions/response.ErrorResponse"}}
                }
            }
        },
        "/login": {
            "post": {
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["Auth"],
                "summary": "Вход пользователя",
                "parameters": [
                    {"description": "Учетные данные пользователя", "name": "request", "in": "body", "required": true, "schema": {"$ref": "#/definitions/login.Request"}}
                ],
                "responses": {
                    "200": {"description": "Успешный вход", "schema": {"$ref": "#/definitions/response.Response"}},
                    "401": {"description": "Неверные учетные данные", "schema": {"$ref": "#/definitions/response.ErrorResponse"}},
                    "502": {"description": "Удалённое хранилище недоступно", "schema": {"$ref": "#/definitions/response.ErrorResponse"}}
                }
            }
        },
        "/logout": {
            "post": {
                "produces": ["application/json"],
                "tags": ["Auth"],
                "summary": "Выход",
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/response.Response"}}
                }
            }
        },
        "/films": {
            "get": {
                "security": [{"BearerAuth": []}],
                "produces": ["application/json"],
                "tags": ["Films"],
                "summary": "Каталог фильмов",
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/response.StateResponse"}},
                    "401": {"description": "Нет сессии", "schema": {"$ref": "#/definitions/response.StateResponse"}},
                    "502": {"description": "API фильмов недоступно", "schema": {"$ref": "#/definitions/response.StateResponse"}}
                }
            }
        },
        "/films/{id}": {
            "get": {
                "security": [{"BearerAuth": []}],
                "produces": ["application/json"],
                "tags": ["Films"],
                "summary": "Фильм по id",
                "parameters": [{"type": "string", "description": "ID фильма", "name": "id", "in": "path", "required": true}],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/response.Response"}},
                    "404": {"description": "Not Found", "schema": {"$ref": "#/definitions/response.ErrorResponse"}}
                }
            }
        },
        "/films/{id}/reviews": {
            "get": {
                "security": [{"BearerAuth": []}],
                "produces": ["application/json"],
                "tags": ["Reviews"],
                "summary": "Отзывы к фильму",
                "parameters": [{"type": "string", "description": "ID фильма", "name": "id", "in": "path", "required": true}],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/response.StateResponse"}}
                }
            },
            "post": {
                "security": [{"BearerAuth": []}],
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["Reviews"],
                "summary": "Новый отзыв",
                "parameters": [
                    {"type": "string", "description": "ID фильма", "name": "id", "in": "path", "required": true},
                    {"description": "Отзыв", "name": "request", "in": "body", "required": true, "schema": {"$ref": "#/definitions/reviews.Request"}}
                ],
                "responses": {
                    "201": {"description": "Created", "schema": {"$ref": "#/definitions/response.Response"}},
                    "422": {"description": "Unprocessable Entity", "schema": {"$ref": "#/definitions/response.ErrorResponse"}}
                }
            }
        },
        "/films/{id}/reviews/mine": {
            "get": {
                "security": [{"BearerAuth": []}],
                "produces": ["application/json"],
                "tags": ["Reviews"],
                "summary": "Мой отзыв к фильму",
                "parameters": [{"type": "string", "description": "ID фильма", "name": "id", "in": "path", "required": true}],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/response.Response"}},
                    "404": {"description": "Not Found", "schema": {"$ref": "#/definitions/response.ErrorResponse"}}
                }
            }
        },
        "/reviews/mine": {
            "get": {
                "security": [{"BearerAuth": []}],
                "produces": ["application/json"],
                "tags": ["Reviews"],
                "summary": "Мои отзывы",
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/response.StateResponse"}}
                }
            }
        },
        "/reviews/{id}": {
            "put": {
                "security": [{"BearerAuth": []}],
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["Reviews"],
                "summary": "Изменить отзыв",
                "description": "Обновляет только существующий отзыв; исчезнувший отзыв не создаётся заново.",
                "parameters": [
                    {"type": "string", "description": "ID отзыва", "name": "id", "in": "path", "required": true},
                    {"description": "Отзыв", "name": "request", "in": "body", "required": true, "schema": {"$ref": "#/definitions/reviews.Request"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/response.Response"}},
                    "403": {"description": "Forbidden", "schema": {"$ref": "#/definitions/response.ErrorResponse"}},
                    "409": {"description": "Отзыв уже удалён", "schema": {"$ref": "#/definitions/response.ErrorResponse"}}
                }
            },
            "delete": {
                "security": [{"BearerAuth": []}],
                "produces": ["application/json"],
                "tags": ["Reviews"],
                "summary": "Удалить отзыв",
                "parameters": [{"type": "string", "description": "ID отзыва", "name": "id", "in": "path", "required": true}],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/response.Response"}},
                    "403": {"description": "Forbidden", "schema": {"$ref": "#/definitions/response.ErrorResponse"}}
                }
            }
        },
        "/favourites": {
            "get": {
                "security": [{"BearerAuth": []}],
                "produces": ["application/json"],
                "tags": ["Favourites"],
                "summary": "Избранное",
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/response.StateResponse"}}
                }
            }
        },
        "/favourites/stream": {
            "get": {
                "security": [{"BearerAuth": []}],
                "produces": ["text/event-stream"],
                "tags": ["Favourites"],
                "summary": "Поток изменений избранного",
                "responses": {
                    "200": {"description": "OK", "schema": {"type": "array", "items": {"$ref": "#/definitions/models.Film"}}}
                }
            }
        },
        "/favourites/{filmId}": {
            "get": {
                "security": [{"BearerAuth": []}],
                "produces": ["application/json"],
                "tags": ["Favourites"],
                "summary": "Фильм в избранном?",
                "parameters": [{"type": "string", "description": "ID фильма", "name": "filmId", "in": "path", "required": true}],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/response.Response"}}
                }
            },
            "post": {
                "security": [{"BearerAuth": []}],
                "produces": ["application/json"],
                "tags": ["Favourites"],
                "summary": "Добавить в избранное",
                "parameters": [{"type": "string", "description": "ID фильма", "name": "filmId", "in": "path", "required": true}],
                "responses": {
                    "201": {"description": "Created", "schema": {"$ref": "#/definitions/response.Response"}},
                    "404": {"description": "Not Found", "schema": {"$ref": "#/definitions/response.ErrorResponse"}}
                }
            },
            "delete": {
                "security": [{"BearerAuth": []}],
                "produces": ["application/json"],
                "tags": ["Favourites"],
                "summary": "Убрать из избранного",
                "parameters": [{"type": "string", "description": "ID фильма", "name": "filmId", "in": "path", "required": true}],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/response.Response"}}
                }
            }
        },
        "/admin/users": {
            "get": {
                "security": [{"BearerAuth": []}],
                "produces": ["application/json"],
                "tags": ["Admin"],
                "summary": "Пользователи",
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/response.StateResponse"}},
                    "403": {"description": "Forbidden", "schema": {"$ref": "#/definitions/response.ErrorResponse"}}
                }
            }
        },
        "/admin/reviews": {
            "get": {
                "security": [{"BearerAuth": []}],
                "produces": ["application/json"],
                "tags": ["Admin"],
                "summary": "Все отзывы",
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/response.StateResponse"}}
                }
            }
        }
    },
    "definitions": {
        "login.Request": {
            "type": "object",
            "properties": {
                "email": {"type": "string"},
                "password": {"type": "string"}
            }
        },
        "register.Request": {
            "type": "object",
            "properties": {
                "name": {"type": "string"},
                "email": {"type": "string"},
                "password": {"type": "string"},
                "confirm_password": {"type": "string"}
            }
        },
        "reviews.Request": {
            "type": "object",
            "required": ["rating"],
            "properties": {
                "rating": {"type": "number", "minimum": 0, "maximum": 5},
                "comment": {"type": "string"}
            }
        },
        "models.Film": {
            "type": "object",
            "properties": {
                "id": {"type": "string"},
                "title": {"type": "string"},
                "original_title": {"type": "string"},
                "original_title_romanised": {"type": "string"},
                "release_date": {"type": "string"},
                "running_time": {"type": "integer"},
                "image": {"type": "string"},
                "description": {"type": "string"},
                "director": {"type": "string"},
                "producer": {"type": "string"}
            }
        },
        "response.Response": {
            "type": "object",
            "properties": {
                "status": {"type": "string"},
                "error": {"type": "string"},
                "data": {}
            }
        },
        "response.ErrorResponse": {
            "type": "object",
            "properties": {
                "status": {"type": "string", "example": "Error"},
                "error": {"type": "string", "example": "invalid request body"}
            }
        },
        "response.StateResponse": {
            "type": "object",
            "properties": {
                "state": {"type": "string", "example": "success"},
                "data": {},
                "error": {"type": "string"},
                "category": {"type": "string"}
            }
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
	Host:             "localhost:8080",
	BasePath:         "/api/v1",
	Schemes:          []string{},
	Title:            "Ghibli Explorer API",
	Description:      "Локальный API каталога фильмов Studio Ghibli: фильмы, избранное, отзывы и сессия.",
	InfoInstanceName: "swagger",
	SwaggerTemplate:  docTemplate,
}

func init() {
	swag.Register(SwaggerInfo.InstanceName(), SwaggerInfo)
}
