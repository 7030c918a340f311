package swagger

import "github.com/swaggo/swag"

const docTemplate = `{
    "swagger": "2.0",
    "info": {
        "title": "FitGroup API",
        "description": "Weekly group goal pipeline: stats, predicted goals, achievements, rewards and audit records.",
        "version": "1.0.0"
    },
    "basePath": "/api/v1",
    "schemes": [
        "http"
    ],
    "securityDefinitions": {
        "BearerAuth": {"type": "apiKey", "name": "Authorization", "in": "header"}
    },
    "security": [{"BearerAuth": []}],
    "tags": [
        {"name": "Goals", "description": "Weekly goal prediction and selection"},
        {"name": "Goal Records", "description": "Permanent weekly outcome history"},
        {"name": "Pipeline", "description": "Manual runs of the weekly triggers"},
        {"name": "System", "description": "Health and counters"}
    ],
    "paths": {
        "/groups/{id}/goals/current": {
            "get": {
                "tags": ["Goals"],
                "summary": "Current weekly goal",
                "description": "Returns this week's goal for the group, predicting it on first access.",
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/CurrentGoalEnvelope"}},
                    "403": {"description": "Caller is not a member", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "404": {"description": "Group not found", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "422": {"description": "No historical data", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "502": {"description": "Prediction service unavailable", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/groups/{id}/goals/regenerate": {
            "post": {
                "tags": ["Goals"],
                "summary": "Regenerate weekly goal",
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/CurrentGoalEnvelope"}},
                    "429": {"description": "Cooldown active; see Retry-After", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/groups/{id}/goals/current/selection": {
            "put": {
                "tags": ["Goals"],
                "summary": "Commit to a weekly goal",
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"},
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/SelectGoalRequest"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/CurrentGoalEnvelope"}},
                    "400": {"description": "Invalid selection", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/groups/{id}/goal-records": {
            "get": {
                "tags": ["Goal Records"],
                "summary": "Goal record history",
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"},
                    {"name": "limit", "in": "query", "type": "integer", "minimum": 1, "maximum": 520}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/admin/groups/{id}/goal-records/export": {
            "get": {
                "tags": ["Goal Records"],
                "summary": "Export goal records",
                "produces": ["text/csv", "application/pdf"],
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"},
                    {"name": "format", "in": "query", "type": "string", "enum": ["csv", "pdf"]}
                ],
                "responses": {
                    "200": {"description": "File", "schema": {"type": "file"}}
                }
            }
        },
        "/admin/pipeline/stats": {
            "post": {
                "tags": ["Pipeline"],
                "summary": "Run weekly stats aggregation",
                "parameters": [
                    {"name": "payload", "in": "body", "schema": {"$ref": "#/definitions/RunStatsRequest"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/PipelineRunEnvelope"}}
                }
            }
        },
        "/admin/pipeline/achievements": {
            "post": {
                "tags": ["Pipeline"],
                "summary": "Run achievement check and rewards",
                "parameters": [
                    {"name": "payload", "in": "body", "schema": {"$ref": "#/definitions/RunAtRequest"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/PipelineRunEnvelope"}}
                }
            }
        },
        "/admin/pipeline/records": {
            "post": {
                "tags": ["Pipeline"],
                "summary": "Queue weekly goal records",
                "parameters": [
                    {"name": "payload", "in": "body", "schema": {"$ref": "#/definitions/RunAtRequest"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/PipelineRunEnvelope"}}
                }
            }
        },
        "/admin/pipeline/runs": {
            "get": {
                "tags": ["Pipeline"],
                "summary": "Latest pipeline runs",
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/PipelineRunEnvelope"}}
                }
            }
        },
        "/admin/system/metrics": {
            "get": {
                "tags": ["System"],
                "summary": "Pipeline and cache counters",
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        }
    },
    "definitions": {
        "Week": {
            "type": "object",
            "properties": {
                "week_start": {"type": "string", "format": "date-time"},
                "week_end": {"type": "string", "format": "date-time"}
            }
        },
        "WeeklyGoal": {
            "type": "object",
            "properties": {
                "id": {"type": "string"},
                "group_id": {"type": "string"},
                "week_start": {"type": "string", "format": "date-time"},
                "steps_goal": {"type": "integer"},
                "kcal_goal": {"type": "number"},
                "duration_goal": {"type": "integer"},
                "distance_goal": {"type": "number"},
                "steps_growth_rate": {"type": "number"},
                "kcal_growth_rate": {"type": "number"},
                "duration_growth_rate": {"type": "number"},
                "distance_growth_rate": {"type": "number"},
                "selected_metric": {"type": "string", "enum": ["STEPS", "KCAL", "DURATION", "DISTANCE"]}
            }
        },
        "CurrentGoal": {
            "type": "object",
            "properties": {
                "week": {"$ref": "#/definitions/Week"},
                "goal": {"$ref": "#/definitions/WeeklyGoal"}
            }
        },
        "CurrentGoalEnvelope": {
            "type": "object",
            "properties": {
                "data": {"$ref": "#/definitions/CurrentGoal"}
            }
        },
        "SelectGoalRequest": {
            "type": "object",
            "required": ["metric"],
            "properties": {
                "metric": {"type": "string", "enum": ["STEPS", "KCAL", "DURATION", "DISTANCE"]},
                "value": {"type": "number", "minimum": 0}
            }
        },
        "RunStatsRequest": {
            "type": "object",
            "properties": {
                "weekOf": {"type": "string", "format": "date"}
            }
        },
        "RunAtRequest": {
            "type": "object",
            "properties": {
                "at": {"type": "string", "format": "date-time"}
            }
        },
        "BatchReport": {
            "type": "object",
            "properties": {
                "stage": {"type": "string"},
                "week_start": {"type": "string", "format": "date"},
                "total": {"type": "integer"},
                "succeeded": {"type": "integer"},
                "failed": {"type": "integer"},
                "skipped": {"type": "integer"},
                "achieved": {"type": "integer"},
                "members_credited": {"type": "integer"},
                "failures": {
                    "type": "array",
                    "items": {
                        "type": "object",
                        "properties": {
                            "group_id": {"type": "string"},
                            "error": {"type": "string"}
                        }
                    }
                },
                "started_at": {"type": "string", "format": "date-time"},
                "finished_at": {"type": "string", "format": "date-time"}
            }
        },
        "PipelineRunEnvelope": {
            "type": "object",
            "properties": {
                "data": {
                    "type": "object",
                    "properties": {
                        "reports": {"type": "array", "items": {"$ref": "#/definitions/BatchReport"}}
                    }
                }
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
