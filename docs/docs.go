// Package docs holds the swagger document served at /swagger.
package docs

import "github.com/swaggo/swag"

const docTemplate = `{
    "schemes": [],
    "swagger": "2.0",
    "info": {
        "title": "OpsIntel Backend",
        "description": "Ticket-log ingestion, AI operational analysis and cross-period synthesis",
        "version": "1.0"
    },
    "basePath": "/",
    "paths": {
        "/healthz": {
            "get": {
                "produces": [
                    "application/json"
                ],
                "tags": [
                    "health"
                ],
                "summary": "Health check",
                "responses": {
                    "200": {
                        "description": "OK"
                    }
                }
            }
        },
        "/api/datasets": {
            "get": {
                "produces": [
                    "application/json"
                ],
                "tags": [
                    "datasets"
                ],
                "summary": "List datasets",
                "responses": {
                    "200": {
                        "description": "OK",
                        "schema": {
                            "$ref": "#/definitions/session.Snapshot"
                        }
                    }
                }
            }
        },
        "/api/datasets/{id}/activate": {
            "post": {
                "produces": [
                    "application/json"
                ],
                "tags": [
                    "datasets"
                ],
                "summary": "Activate a dataset",
                "responses": {
                    "200": {
                        "description": "OK",
                        "schema": {
                            "$ref": "#/definitions/handlers.ActionResponse"
                        }
                    }
                },
                "parameters": [
                    {
                        "type": "string",
                        "description": "dataset id",
                        "name": "id",
                        "in": "path",
                        "required": true
                    }
                ]
            }
        },
        "/api/datasets/{id}/upload": {
            "post": {
                "produces": [
                    "application/json"
                ],
                "tags": [
                    "datasets"
                ],
                "summary": "Upload a dataset file",
                "responses": {
                    "200": {
                        "description": "OK",
                        "schema": {
                            "$ref": "#/definitions/handlers.ActionResponse"
                        }
                    }
                },
                "parameters": [
                    {
                        "type": "string",
                        "description": "dataset id",
                        "name": "id",
                        "in": "path",
                        "required": true
                    },
                    {
                        "type": "file",
                        "description": ".xlsx, .xls, .csv or .json",
                        "name": "file",
                        "in": "formData",
                        "required": true
                    }
                ],
                "consumes": [
                    "multipart/form-data"
                ]
            }
        },
        "/api/datasets/{id}/paste": {
            "post": {
                "produces": [
                    "application/json"
                ],
                "tags": [
                    "datasets"
                ],
                "summary": "Paste from the host clipboard",
                "responses": {
                    "200": {
                        "description": "OK",
                        "schema": {
                            "$ref": "#/definitions/handlers.ActionResponse"
                        }
                    }
                },
                "parameters": [
                    {
                        "type": "string",
                        "description": "dataset id",
                        "name": "id",
                        "in": "path",
                        "required": true
                    }
                ]
            }
        },
        "/api/datasets/{id}/content": {
            "put": {
                "produces": [
                    "application/json"
                ],
                "tags": [
                    "datasets"
                ],
                "summary": "Set dataset content",
                "responses": {
                    "200": {
                        "description": "OK",
                        "schema": {
                            "$ref": "#/definitions/handlers.ActionResponse"
                        }
                    }
                },
                "parameters": [
                    {
                        "type": "string",
                        "description": "dataset id",
                        "name": "id",
                        "in": "path",
                        "required": true
                    },
                    {
                        "description": "content",
                        "name": "payload",
                        "in": "body",
                        "required": true,
                        "schema": {
                            "$ref": "#/definitions/handlers.SetContentRequest"
                        }
                    }
                ]
            }
        },
        "/api/datasets/{id}/sample": {
            "post": {
                "produces": [
                    "application/json"
                ],
                "tags": [
                    "datasets"
                ],
                "summary": "Load the demo ticket log",
                "responses": {
                    "200": {
                        "description": "OK",
                        "schema": {
                            "$ref": "#/definitions/handlers.ActionResponse"
                        }
                    }
                },
                "parameters": [
                    {
                        "type": "string",
                        "description": "dataset id",
                        "name": "id",
                        "in": "path",
                        "required": true
                    }
                ]
            }
        },
        "/api/datasets/{id}/analysis": {
            "get": {
                "produces": [
                    "application/json"
                ],
                "tags": [
                    "datasets"
                ],
                "summary": "Analysis status and result",
                "responses": {
                    "200": {
                        "description": "OK",
                        "schema": {
                            "$ref": "#/definitions/session.AnalysisView"
                        }
                    }
                },
                "parameters": [
                    {
                        "type": "string",
                        "description": "dataset id",
                        "name": "id",
                        "in": "path",
                        "required": true
                    }
                ]
            }
        },
        "/api/datasets/{id}/dashboard": {
            "get": {
                "produces": [
                    "application/json"
                ],
                "tags": [
                    "datasets"
                ],
                "summary": "Dashboard view model",
                "responses": {
                    "200": {
                        "description": "OK",
                        "schema": {
                            "$ref": "#/definitions/service.Dashboard"
                        }
                    }
                },
                "parameters": [
                    {
                        "type": "string",
                        "description": "dataset id",
                        "name": "id",
                        "in": "path",
                        "required": true
                    }
                ]
            }
        },
        "/api/datasets/{id}/export/{table}": {
            "get": {
                "produces": [
                    "application/json"
                ],
                "tags": [
                    "datasets"
                ],
                "summary": "Export a table as CSV",
                "responses": {
                    "200": {
                        "description": "OK"
                    }
                },
                "parameters": [
                    {
                        "type": "string",
                        "description": "dataset id",
                        "name": "id",
                        "in": "path",
                        "required": true
                    },
                    {
                        "type": "string",
                        "description": "benchmarks, staffing_recommendations or agent_performance_analysis",
                        "name": "table",
                        "in": "path",
                        "required": true
                    },
                    {
                        "type": "boolean",
                        "description": "upload to the export bucket",
                        "name": "publish",
                        "in": "query"
                    }
                ]
            }
        },
        "/api/datasets/{id}": {
            "delete": {
                "produces": [
                    "application/json"
                ],
                "tags": [
                    "datasets"
                ],
                "summary": "Reset one dataset",
                "responses": {
                    "200": {
                        "description": "OK",
                        "schema": {
                            "$ref": "#/definitions/session.Snapshot"
                        }
                    }
                },
                "parameters": [
                    {
                        "type": "string",
                        "description": "dataset id",
                        "name": "id",
                        "in": "path",
                        "required": true
                    }
                ]
            }
        },
        "/api/reset": {
            "post": {
                "produces": [
                    "application/json"
                ],
                "tags": [
                    "session"
                ],
                "summary": "Reset the whole session",
                "responses": {
                    "200": {
                        "description": "OK",
                        "schema": {
                            "$ref": "#/definitions/session.Snapshot"
                        }
                    }
                }
            }
        },
        "/api/error": {
            "delete": {
                "produces": [
                    "application/json"
                ],
                "tags": [
                    "session"
                ],
                "summary": "Dismiss the surfaced error",
                "responses": {
                    "204": {
                        "description": "No Content"
                    }
                }
            }
        },
        "/api/global/synthesize": {
            "post": {
                "produces": [
                    "application/json"
                ],
                "tags": [
                    "global"
                ],
                "summary": "Start the cross-period synthesis",
                "responses": {
                    "200": {
                        "description": "OK",
                        "schema": {
                            "$ref": "#/definitions/handlers.SynthesizeResponse"
                        }
                    }
                }
            }
        },
        "/api/global": {
            "get": {
                "produces": [
                    "application/json"
                ],
                "tags": [
                    "global"
                ],
                "summary": "Synthesis status and result",
                "responses": {
                    "200": {
                        "description": "OK",
                        "schema": {
                            "$ref": "#/definitions/session.GlobalView"
                        }
                    }
                }
            }
        },
        "/api/archive": {
            "get": {
                "produces": [
                    "application/json"
                ],
                "tags": [
                    "archive"
                ],
                "summary": "List archived results",
                "responses": {
                    "200": {
                        "description": "OK"
                    }
                },
                "parameters": [
                    {
                        "type": "string",
                        "description": "filter by dataset id",
                        "name": "dataset_id",
                        "in": "query"
                    },
                    {
                        "type": "integer",
                        "description": "max records (default 50)",
                        "name": "limit",
                        "in": "query"
                    }
                ]
            }
        }
    },
    "definitions": {
        "handlers.SetContentRequest": {
            "type": "object",
            "required": [
                "content"
            ],
            "properties": {
                "content": {
                    "type": "string"
                }
            }
        },
        "session.Snapshot": {
            "type": "object"
        },
        "handlers.ActionResponse": {
            "type": "object"
        },
        "session.AnalysisView": {
            "type": "object"
        },
        "service.Dashboard": {
            "type": "object"
        },
        "handlers.SynthesizeResponse": {
            "type": "object"
        },
        "session.GlobalView": {
            "type": "object"
        }
    }
}`

// SwaggerInfo holds exported Swagger Info so clients can modify it
var SwaggerInfo = &swag.Spec{
	Version:          "1.0",
	BasePath:         "/",
	Title:            "OpsIntel Backend",
	Description:      "Ticket-log ingestion, AI operational analysis and cross-period synthesis",
	InfoInstanceName: "swagger",
	SwaggerTemplate:  docTemplate,
}

func init() {
	swag.Register(SwaggerInfo.InstanceName(), SwaggerInfo)
}
